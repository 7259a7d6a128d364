/*
Package policy defines the pluggable retry and concurrency strategies used
by the streaming engine.

Both strategies are small capability interfaces so callers can substitute
custom behavior (fixed delay, circuit breaker, external rate limiter)
without changing the engine:

	type Retry interface {
		ShouldRetry(attempt int, err error) bool
		Delay(attempt int) time.Duration
	}

	type Concurrency interface {
		WorkerCount(totalItems int) int
		ShouldPause(activeWorkers int, memoryMB float64) bool
	}

Defaults:

	retry := policy.NewExponentialBackoff() // 3 attempts, 200ms base, x2, 20% jitter
	conc := policy.NewAdaptive()            // 2 workers <100 items, 4 <1000, else 8

Strict ordering:

Chunks are processed concurrently, so reductions observe chunks out of
order under the default policy. Use a single-worker pool when global
ordering matters:

	conc := policy.Fixed(1)
*/
package policy
