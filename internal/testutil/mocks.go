package testutil

import (
	"sync"
	"time"
)

// MockClock implements a Clock interface for testing with controllable time.
// This is used across cache tests to avoid actual time delays.
type MockClock struct {
	mu  sync.Mutex
	now time.Time
}

// NewMockClock creates a new MockClock starting at the given time.
// If zero time is provided, uses current time.
func NewMockClock(start time.Time) *MockClock {
	if start.IsZero() {
		start = time.Now()
	}
	return &MockClock{now: start}
}

// Now returns the current mock time.
func (m *MockClock) Now() time.Time {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.now
}

// Advance moves the mock clock forward by the given duration.
func (m *MockClock) Advance(d time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.now = m.now.Add(d)
}

// Set sets the mock clock to a specific time.
func (m *MockClock) Set(t time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.now = t
}

// MockMonitor reports a fixed sequence of memory readings, cycling when
// exhausted. It satisfies the memory.Monitor interface.
type MockMonitor struct {
	mu       sync.Mutex
	readings []float64
	index    int
}

// NewMockMonitor creates a monitor that cycles through the given readings.
func NewMockMonitor(readings ...float64) *MockMonitor {
	if len(readings) == 0 {
		readings = []float64{0}
	}
	return &MockMonitor{readings: readings}
}

// UsageMB returns the next reading in the configured sequence.
func (m *MockMonitor) UsageMB() float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	r := m.readings[m.index%len(m.readings)]
	m.index++
	return r
}
