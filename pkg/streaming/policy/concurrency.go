package policy

// BackpressureFunc decides whether chunk processing should pause given the
// number of active workers and the current memory usage in megabytes.
type BackpressureFunc func(activeWorkers int, memoryMB float64) bool

// Concurrency decides worker-pool sizing and pause behavior for one
// processing call. Implementations are stateless aside from their
// configured thresholds and safe to share across engines.
type Concurrency interface {
	// WorkerCount returns the number of workers to run for an input of
	// the given total item count.
	WorkerCount(totalItems int) int

	// ShouldPause reports whether workers should briefly pause before
	// claiming the next chunk, given current memory pressure and the
	// number of workers mid-chunk.
	ShouldPause(activeWorkers int, memoryMB float64) bool
}

// Default sizing thresholds for the adaptive policy.
const (
	smallInputItems  = 100
	mediumInputItems = 1000

	smallInputWorkers  = 2
	mediumInputWorkers = 4

	// DefaultMaxWorkers caps the adaptive policy's pool size for large inputs.
	DefaultMaxWorkers = 8

	// DefaultMemoryThresholdMB is the adaptive policy's pause threshold when
	// no backpressure callback is configured.
	DefaultMemoryThresholdMB = 512
)

// Adaptive sizes the pool as a step function of input size and pauses on
// memory pressure. The pause decision defers to the Backpressure callback
// when one is set; otherwise it pauses whenever memory usage exceeds
// MemoryThresholdMB.
type Adaptive struct {
	// MaxWorkers is the pool size for inputs of 1000 items or more.
	// Zero means DefaultMaxWorkers.
	MaxWorkers int

	// MemoryThresholdMB is the usage above which processing pauses.
	// Zero means DefaultMemoryThresholdMB.
	MemoryThresholdMB float64

	// Backpressure, when set, owns the pause decision entirely.
	Backpressure BackpressureFunc
}

// NewAdaptive returns the default concurrency policy.
func NewAdaptive() Adaptive {
	return Adaptive{
		MaxWorkers:        DefaultMaxWorkers,
		MemoryThresholdMB: DefaultMemoryThresholdMB,
	}
}

// WorkerCount returns 2 workers below 100 items, 4 below 1000, and
// MaxWorkers otherwise.
func (a Adaptive) WorkerCount(totalItems int) int {
	switch {
	case totalItems < smallInputItems:
		return smallInputWorkers
	case totalItems < mediumInputItems:
		return mediumInputWorkers
	default:
		if a.MaxWorkers > 0 {
			return a.MaxWorkers
		}
		return DefaultMaxWorkers
	}
}

// ShouldPause defers to the backpressure callback when present, otherwise
// pauses once memory usage exceeds the configured threshold.
func (a Adaptive) ShouldPause(activeWorkers int, memoryMB float64) bool {
	if a.Backpressure != nil {
		return a.Backpressure(activeWorkers, memoryMB)
	}

	threshold := a.MemoryThresholdMB
	if threshold <= 0 {
		threshold = DefaultMemoryThresholdMB
	}
	return memoryMB > threshold
}

// Fixed runs a constant number of workers and never pauses. Fixed(1) is
// the documented way to get strict global ordering from chain Reduce and
// ForEach.
type Fixed int

// WorkerCount returns the fixed worker count, minimum 1.
func (f Fixed) WorkerCount(_ int) int {
	if f < 1 {
		return 1
	}
	return int(f)
}

// ShouldPause always returns false.
func (Fixed) ShouldPause(_ int, _ float64) bool { return false }
