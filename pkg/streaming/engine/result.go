package engine

import (
	"fmt"
	"time"
)

// ChunkError records a chunk's terminal processing failure. The caller's
// error is kept verbatim and exposed via Unwrap; only the chunk index is
// attached.
type ChunkError struct {
	Chunk int
	Err   error
}

// Error implements the error interface.
func (e ChunkError) Error() string {
	return fmt.Sprintf("chunk %d: %v", e.Chunk, e.Err)
}

// Unwrap returns the original processor error.
func (e ChunkError) Unwrap() error {
	return e.Err
}

// Metrics captures counters and timers for one Process call. A fresh value
// is created per call and is immutable once returned.
type Metrics struct {
	// TotalChunks is the number of chunks the input was partitioned into.
	TotalChunks int

	// ProcessedChunks counts chunks that completed successfully,
	// including ones whose processor produced no value.
	ProcessedChunks int

	// FailedChunks counts chunks whose processing failed terminally.
	FailedChunks int

	// TotalItems is the length of the input sequence.
	TotalItems int

	// ProcessedItems counts items belonging to successfully processed chunks.
	ProcessedItems int

	// AvgChunkTime is the mean wall time per completed chunk.
	AvgChunkTime time.Duration

	// TotalTime is the wall time of the whole Process call.
	TotalTime time.Duration

	// PeakMemoryMB is the highest memory sample observed during the call.
	PeakMemoryMB float64

	// Workers is the pool size chosen by the concurrency strategy.
	Workers int

	// WorkerPeak is the highest number of workers observed mid-chunk at once.
	WorkerPeak int

	// RetryAttempts is the total number of retry attempts across all chunks.
	RetryAttempts int

	// Pauses counts backpressure pause events.
	Pauses int

	// ThrottledTime is the cumulative time spent paused on backpressure.
	ThrottledTime time.Duration
}

// Result carries the outcome of one Process call. Results holds one entry
// per chunk that produced a value, ordered by chunk index regardless of
// completion order. Partial success is a first-class outcome: callers must
// inspect Errors rather than rely on a returned error for processing
// failures.
type Result[R any] struct {
	Results []R
	Errors  []ChunkError
	Metrics Metrics
}
