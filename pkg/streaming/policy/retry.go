package policy

import (
	"math"
	"math/rand"
	"time"
)

// Retry decides whether a failed chunk should be attempted again and how
// long to wait before the next attempt. Implementations must be pure
// functions of the attempt count and error; instances are stateless and
// safe to share across chunks and engines.
type Retry interface {
	// ShouldRetry reports whether another attempt should be made after
	// the given attempt (1-based) failed with err.
	ShouldRetry(attempt int, err error) bool

	// Delay returns how long to wait before the attempt following the
	// given attempt number.
	Delay(attempt int) time.Duration
}

// ExponentialBackoff retries with exponentially growing delays and
// uniform random jitter.
type ExponentialBackoff struct {
	// MaxAttempts is the total number of attempts allowed, including
	// the first one.
	MaxAttempts int

	// BaseDelay is the delay before the second attempt.
	BaseDelay time.Duration

	// Factor multiplies the delay after each attempt.
	Factor float64

	// Jitter is the fraction of the computed delay added or subtracted
	// uniformly at random. 0.2 means +/-20%.
	Jitter float64
}

// NewExponentialBackoff returns the default retry policy: 3 attempts,
// 200ms base delay, factor 2, 20% jitter.
func NewExponentialBackoff() ExponentialBackoff {
	return ExponentialBackoff{
		MaxAttempts: 3,
		BaseDelay:   200 * time.Millisecond,
		Factor:      2,
		Jitter:      0.2,
	}
}

// ShouldRetry allows another attempt while fewer than MaxAttempts have run.
func (b ExponentialBackoff) ShouldRetry(attempt int, _ error) bool {
	return attempt < b.MaxAttempts
}

// Delay computes baseDelay * factor^(attempt-1) with jitter applied,
// clamped to be non-negative.
func (b ExponentialBackoff) Delay(attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}

	delay := float64(b.BaseDelay) * math.Pow(b.Factor, float64(attempt-1))
	if b.Jitter > 0 {
		delay += (rand.Float64()*2 - 1) * b.Jitter * delay
	}
	if delay < 0 {
		delay = 0
	}

	return time.Duration(delay)
}

// FixedDelay retries up to MaxAttempts total attempts with a constant
// delay between them.
type FixedDelay struct {
	MaxAttempts int
	Interval    time.Duration
}

// ShouldRetry allows another attempt while fewer than MaxAttempts have run.
func (f FixedDelay) ShouldRetry(attempt int, _ error) bool {
	return attempt < f.MaxAttempts
}

// Delay returns the configured interval regardless of attempt number.
func (f FixedDelay) Delay(_ int) time.Duration {
	return f.Interval
}

// None disables retries entirely; every failure is terminal.
type None struct{}

// ShouldRetry always returns false.
func (None) ShouldRetry(_ int, _ error) bool { return false }

// Delay always returns zero.
func (None) Delay(_ int) time.Duration { return 0 }
