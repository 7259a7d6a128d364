package engine

import (
	"context"
	"fmt"
	"runtime"
	"runtime/debug"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	cferrors "github.com/vnykmshr/chunkflow/pkg/common/errors"
)

// Process partitions items into chunks of the configured size and runs fn
// over them concurrently. Results come back in chunk-index order regardless
// of completion order; per-chunk failures land in Result.Errors rather than
// the returned error. The returned error is non-nil only for invalid input
// or cancellation; if ctx is canceled the call fails with an error
// matching errors.ErrCanceled even when all chunks had already completed.
func (e *Engine[T, R]) Process(ctx context.Context, items []T, fn ChunkFunc[T, R]) (*Result[R], error) {
	if ctx == nil {
		ctx = context.Background()
	}
	if fn == nil {
		return nil, cferrors.NewValidationError("engine", "processor", nil, "cannot be nil").
			WithHint("provide a chunk processor function")
	}
	if err := ctx.Err(); err != nil {
		return nil, canceledError(err)
	}

	start := time.Now()
	totalItems := len(items)
	totalChunks := (totalItems + e.chunkSize - 1) / e.chunkSize

	workers := 0
	if totalChunks > 0 {
		workers = e.concurrency.WorkerCount(totalItems)
		if workers < 1 {
			workers = 1
		}
		if workers > totalChunks {
			workers = totalChunks
		}
	}

	st := newRunState[R](totalChunks, totalItems)
	st.metrics.Workers = workers

	// Internal fail-fast signal. Kept independent of the caller's context
	// so an internal trip never surfaces as external cancellation.
	internal, abort := context.WithCancel(context.Background())
	defer abort()

	var next atomic.Int64
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			e.worker(ctx, internal, items, fn, st, &next, abort, totalChunks)
		}()
	}
	wg.Wait()

	if err := ctx.Err(); err != nil {
		return nil, canceledError(err)
	}

	return st.finalize(time.Since(start)), nil
}

// worker claims chunk indices until the input is exhausted or a
// cancellation signal trips. Claiming is the only cross-worker shared
// mutation and goes through the atomic counter; everything else a worker
// touches is its own.
func (e *Engine[T, R]) worker(ctx, internal context.Context, items []T, fn ChunkFunc[T, R], st *runState[R], next *atomic.Int64, abort context.CancelFunc, totalChunks int) {
	completed := 0
	for {
		if ctx.Err() != nil || internal.Err() != nil {
			return
		}

		usage := e.monitor.UsageMB()
		st.sampleMemory(usage)
		if e.concurrency.ShouldPause(st.activeWorkers(), usage) {
			st.recordPause(e.pauseInterval)
			if e.registry != nil {
				e.registry.BackpressureEvents.WithLabelValues(e.name).Inc()
				e.registry.ThrottledSeconds.WithLabelValues(e.name).Add(e.pauseInterval.Seconds())
			}
			if !sleep(ctx, internal, e.pauseInterval) {
				return
			}
			continue
		}

		idx := int(next.Add(1)) - 1
		if idx >= totalChunks {
			return
		}

		chunk := newChunk(items, idx, e.chunkSize)

		st.workerStarted()
		if e.registry != nil {
			e.registry.WorkersActive.WithLabelValues(e.name).Inc()
		}
		begin := time.Now()
		value, ok, err := e.processChunk(ctx, internal, chunk, fn, st)
		elapsed := time.Since(begin)
		st.workerFinished()
		if e.registry != nil {
			e.registry.WorkersActive.WithLabelValues(e.name).Dec()
			e.registry.ChunkDuration.WithLabelValues(e.name).Observe(elapsed.Seconds())
		}

		if err != nil {
			if ctx.Err() != nil {
				// External cancellation observed mid-chunk; the
				// call-level error reports it, not the error list.
				return
			}
			st.recordFailure(idx, err, elapsed)
			if e.registry != nil {
				e.registry.ChunksFailed.WithLabelValues(e.name).Inc()
			}
			if e.failFast {
				abort()
			}
			continue
		}

		st.recordSuccess(idx, value, ok, chunk.Len(), elapsed)
		if e.registry != nil {
			e.registry.ChunksProcessed.WithLabelValues(e.name).Inc()
			e.registry.ItemsProcessed.WithLabelValues(e.name).Add(float64(chunk.Len()))
		}

		if e.progress != nil {
			processedChunks, processedItems := st.progressSnapshot()
			fraction := 1.0
			if totalChunks > 0 {
				fraction = float64(processedChunks) / float64(totalChunks)
			}
			e.progress(fraction, processedItems, st.metrics.TotalItems)
		}

		completed++
		if completed%fairnessInterval == 0 {
			runtime.Gosched()
		}
	}
}

// processChunk runs fn over one chunk, retrying per the engine's retry
// policy. In fail-fast mode retries only happen when RetryInFailFast was
// set. The original processor error is returned on terminal failure, even
// when a retry backoff was interrupted by the internal fail-fast signal.
func (e *Engine[T, R]) processChunk(ctx, internal context.Context, chunk Chunk[T], fn ChunkFunc[T, R], st *runState[R]) (R, bool, error) {
	var zero R
	allowRetry := !e.failFast || e.retryInFailFast

	for attempt := 1; ; attempt++ {
		if err := ctx.Err(); err != nil {
			return zero, false, canceledError(err)
		}

		value, ok, err := invoke(ctx, chunk, fn)
		if err == nil {
			return value, ok, nil
		}

		if !allowRetry || !e.retry.ShouldRetry(attempt, err) {
			return zero, false, err
		}

		st.recordRetry()
		if e.registry != nil {
			e.registry.RetryAttempts.WithLabelValues(e.name).Inc()
		}
		if !sleep(ctx, internal, e.retry.Delay(attempt)) {
			return zero, false, err
		}
	}
}

// invoke runs the processor with panic recovery, converting a panic into a
// chunk error so one misbehaving chunk cannot take down the pool.
func invoke[T, R any](ctx context.Context, chunk Chunk[T], fn ChunkFunc[T, R]) (value R, ok bool, err error) {
	defer func() {
		if r := recover(); r != nil {
			var zero R
			value, ok = zero, false
			err = fmt.Errorf("chunk processor panicked: %v\n%s", r, debug.Stack())
		}
	}()
	return fn(ctx, chunk)
}

// sleep waits for d, returning false if either cancellation signal trips first.
func sleep(ctx, internal context.Context, d time.Duration) bool {
	if d <= 0 {
		return true
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-timer.C:
		return true
	case <-ctx.Done():
		return false
	case <-internal.Done():
		return false
	}
}

func canceledError(cause error) error {
	return fmt.Errorf("%w: %w", cferrors.ErrCanceled, cause)
}

// runState is the engine-owned shared mutable state for one Process call.
// The results slice and error list are guarded by the mutex; worker
// accounting uses atomics so the backpressure check stays off the lock.
type runState[R any] struct {
	mu        sync.Mutex
	results   []R
	ok        []bool
	errs      []ChunkError
	chunkTime time.Duration
	metrics   Metrics

	active atomic.Int32
	peak   atomic.Int32
}

func newRunState[R any](totalChunks, totalItems int) *runState[R] {
	st := &runState[R]{
		results: make([]R, totalChunks),
		ok:      make([]bool, totalChunks),
	}
	st.metrics.TotalChunks = totalChunks
	st.metrics.TotalItems = totalItems
	return st
}

func (st *runState[R]) workerStarted() {
	n := st.active.Add(1)
	for {
		p := st.peak.Load()
		if n <= p || st.peak.CompareAndSwap(p, n) {
			break
		}
	}
}

func (st *runState[R]) workerFinished() {
	st.active.Add(-1)
}

func (st *runState[R]) activeWorkers() int {
	return int(st.active.Load())
}

func (st *runState[R]) sampleMemory(mb float64) {
	st.mu.Lock()
	if mb > st.metrics.PeakMemoryMB {
		st.metrics.PeakMemoryMB = mb
	}
	st.mu.Unlock()
}

func (st *runState[R]) recordPause(d time.Duration) {
	st.mu.Lock()
	st.metrics.Pauses++
	st.metrics.ThrottledTime += d
	st.mu.Unlock()
}

func (st *runState[R]) recordRetry() {
	st.mu.Lock()
	st.metrics.RetryAttempts++
	st.mu.Unlock()
}

func (st *runState[R]) recordSuccess(idx int, value R, ok bool, itemCount int, elapsed time.Duration) {
	st.mu.Lock()
	st.results[idx] = value
	st.ok[idx] = ok
	st.metrics.ProcessedChunks++
	st.metrics.ProcessedItems += itemCount
	st.chunkTime += elapsed
	st.mu.Unlock()
}

func (st *runState[R]) recordFailure(idx int, err error, elapsed time.Duration) {
	st.mu.Lock()
	st.errs = append(st.errs, ChunkError{Chunk: idx, Err: err})
	st.metrics.FailedChunks++
	st.chunkTime += elapsed
	st.mu.Unlock()
}

func (st *runState[R]) progressSnapshot() (processedChunks, processedItems int) {
	st.mu.Lock()
	processedChunks = st.metrics.ProcessedChunks
	processedItems = st.metrics.ProcessedItems
	st.mu.Unlock()
	return processedChunks, processedItems
}

// finalize reassembles results in chunk-index order and seals the metrics.
func (st *runState[R]) finalize(total time.Duration) *Result[R] {
	st.mu.Lock()
	defer st.mu.Unlock()

	out := make([]R, 0, len(st.results))
	for i := range st.results {
		if st.ok[i] {
			out = append(out, st.results[i])
		}
	}

	errs := st.errs
	sort.Slice(errs, func(i, j int) bool { return errs[i].Chunk < errs[j].Chunk })

	m := st.metrics
	m.TotalTime = total
	m.WorkerPeak = int(st.peak.Load())
	if completed := m.ProcessedChunks + m.FailedChunks; completed > 0 {
		m.AvgChunkTime = st.chunkTime / time.Duration(completed)
	}

	return &Result[R]{Results: out, Errors: errs, Metrics: m}
}
