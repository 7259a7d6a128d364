// Package memory provides best-effort process memory sampling for
// backpressure decisions.
package memory

import (
	"runtime"
)

// Monitor reports approximate current heap usage in megabytes.
// Implementations are best-effort; a monitor that cannot sample the
// runtime should return 0.
type Monitor interface {
	UsageMB() float64
}

// runtimeMonitor samples the Go runtime heap.
type runtimeMonitor struct{}

func (runtimeMonitor) UsageMB() float64 {
	var ms runtime.MemStats
	runtime.ReadMemStats(&ms)
	return float64(ms.HeapAlloc) / (1024 * 1024)
}

// Runtime returns a Monitor backed by runtime.ReadMemStats.
func Runtime() Monitor {
	return runtimeMonitor{}
}

// noopMonitor always reports zero usage.
type noopMonitor struct{}

func (noopMonitor) UsageMB() float64 { return 0 }

// Noop returns a Monitor that always reports 0 MB. Useful when memory
// sampling should be disabled entirely.
func Noop() Monitor {
	return noopMonitor{}
}

// staticMonitor reports a fixed reading.
type staticMonitor float64

func (s staticMonitor) UsageMB() float64 { return float64(s) }

// Static returns a Monitor that always reports the given reading.
func Static(mb float64) Monitor {
	return staticMonitor(mb)
}
