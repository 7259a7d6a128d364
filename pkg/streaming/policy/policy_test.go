package policy

import (
	"errors"
	"testing"
	"time"

	"github.com/vnykmshr/chunkflow/internal/testutil"
)

func TestExponentialBackoff_ShouldRetry(t *testing.T) {
	b := NewExponentialBackoff()
	errTest := errors.New("test")

	tests := []struct {
		attempt int
		want    bool
	}{
		{1, true},
		{2, true},
		{3, false},
		{4, false},
	}

	for _, tt := range tests {
		testutil.AssertEqual(t, b.ShouldRetry(tt.attempt, errTest), tt.want)
	}
}

func TestExponentialBackoff_Delay(t *testing.T) {
	b := ExponentialBackoff{
		MaxAttempts: 5,
		BaseDelay:   100 * time.Millisecond,
		Factor:      2,
		Jitter:      0.2,
	}

	tests := []struct {
		attempt int
		base    time.Duration
	}{
		{1, 100 * time.Millisecond},
		{2, 200 * time.Millisecond},
		{3, 400 * time.Millisecond},
	}

	for _, tt := range tests {
		// Jitter is +/-20%, so the delay must land within those bounds.
		lo := time.Duration(float64(tt.base) * 0.8)
		hi := time.Duration(float64(tt.base) * 1.2)

		for i := 0; i < 50; i++ {
			d := b.Delay(tt.attempt)
			if d < lo || d > hi {
				t.Fatalf("attempt %d: delay %v outside [%v, %v]", tt.attempt, d, lo, hi)
			}
		}
	}
}

func TestExponentialBackoff_DelayWithoutJitter(t *testing.T) {
	b := ExponentialBackoff{
		MaxAttempts: 3,
		BaseDelay:   200 * time.Millisecond,
		Factor:      2,
	}

	testutil.AssertEqual(t, b.Delay(1), 200*time.Millisecond)
	testutil.AssertEqual(t, b.Delay(2), 400*time.Millisecond)
	testutil.AssertEqual(t, b.Delay(3), 800*time.Millisecond)

	// Attempt numbers below 1 are clamped.
	testutil.AssertEqual(t, b.Delay(0), 200*time.Millisecond)
}

func TestFixedDelay(t *testing.T) {
	f := FixedDelay{MaxAttempts: 2, Interval: 50 * time.Millisecond}

	testutil.AssertEqual(t, f.ShouldRetry(1, errors.New("x")), true)
	testutil.AssertEqual(t, f.ShouldRetry(2, errors.New("x")), false)
	testutil.AssertEqual(t, f.Delay(1), 50*time.Millisecond)
	testutil.AssertEqual(t, f.Delay(7), 50*time.Millisecond)
}

func TestNone(t *testing.T) {
	n := None{}
	testutil.AssertEqual(t, n.ShouldRetry(1, errors.New("x")), false)
	testutil.AssertEqual(t, n.Delay(1), time.Duration(0))
}

func TestAdaptive_WorkerCount(t *testing.T) {
	tests := []struct {
		name       string
		totalItems int
		maxWorkers int
		want       int
	}{
		{"empty input", 0, 8, 2},
		{"small input", 99, 8, 2},
		{"boundary small", 100, 8, 4},
		{"medium input", 999, 8, 4},
		{"boundary medium", 1000, 8, 8},
		{"large input", 100000, 16, 16},
		{"zero max falls back", 5000, 0, DefaultMaxWorkers},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := Adaptive{MaxWorkers: tt.maxWorkers}
			testutil.AssertEqual(t, a.WorkerCount(tt.totalItems), tt.want)
		})
	}
}

func TestAdaptive_ShouldPause(t *testing.T) {
	t.Run("threshold based", func(t *testing.T) {
		a := Adaptive{MemoryThresholdMB: 256}
		testutil.AssertEqual(t, a.ShouldPause(4, 100), false)
		testutil.AssertEqual(t, a.ShouldPause(4, 256), false)
		testutil.AssertEqual(t, a.ShouldPause(4, 257), true)
	})

	t.Run("zero threshold uses default", func(t *testing.T) {
		a := Adaptive{}
		testutil.AssertEqual(t, a.ShouldPause(1, DefaultMemoryThresholdMB-1), false)
		testutil.AssertEqual(t, a.ShouldPause(1, DefaultMemoryThresholdMB+1), true)
	})

	t.Run("callback owns the decision", func(t *testing.T) {
		var gotActive int
		var gotMem float64
		a := Adaptive{
			MemoryThresholdMB: 1, // would pause on its own
			Backpressure: func(active int, mem float64) bool {
				gotActive, gotMem = active, mem
				return false
			},
		}

		testutil.AssertEqual(t, a.ShouldPause(3, 999), false)
		testutil.AssertEqual(t, gotActive, 3)
		testutil.AssertEqual(t, gotMem, 999)
	})
}

func TestFixed(t *testing.T) {
	testutil.AssertEqual(t, Fixed(1).WorkerCount(100000), 1)
	testutil.AssertEqual(t, Fixed(4).WorkerCount(10), 4)
	testutil.AssertEqual(t, Fixed(0).WorkerCount(10), 1)
	testutil.AssertEqual(t, Fixed(-2).WorkerCount(10), 1)
	testutil.AssertEqual(t, Fixed(4).ShouldPause(4, 1e9), false)
}
