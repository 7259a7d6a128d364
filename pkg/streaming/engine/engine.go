package engine

import (
	"context"
	"time"

	cferrors "github.com/vnykmshr/chunkflow/pkg/common/errors"
	"github.com/vnykmshr/chunkflow/pkg/common/validation"
	"github.com/vnykmshr/chunkflow/pkg/memory"
	"github.com/vnykmshr/chunkflow/pkg/metrics"
	"github.com/vnykmshr/chunkflow/pkg/streaming/policy"
)

const (
	// DefaultChunkSize is used when Config.ChunkSize is zero.
	DefaultChunkSize = 100

	// DefaultPauseInterval is how long a worker sleeps per backpressure pause.
	DefaultPauseInterval = 100 * time.Millisecond

	// fairnessInterval is how many chunks a worker completes before
	// yielding the scheduler once. Liveness courtesy, not correctness.
	fairnessInterval = 10
)

// ChunkFunc processes one chunk and returns its value. Returning ok=false
// means the chunk produced no value; it still counts as processed but is
// omitted from Result.Results. Errors are retried per the engine's retry
// policy and recorded verbatim on terminal failure.
type ChunkFunc[T, R any] func(ctx context.Context, chunk Chunk[T]) (R, bool, error)

// ProgressFunc is invoked after each successfully completed chunk with the
// fraction of chunks processed so far and the item counts. Invocations are
// ordered by completion time, not chunk index.
type ProgressFunc func(fraction float64, processedItems, totalItems int)

// FailMode controls whether the first terminal chunk failure stops
// scheduling of the remaining chunks.
type FailMode int

const (
	// FailModeDefault fails fast unless a retry policy was explicitly
	// configured, in which case processing continues past failures.
	FailModeDefault FailMode = iota

	// FailFast stops scheduling new chunks after the first terminal failure.
	FailFast

	// ContinueOnError processes every chunk regardless of failures.
	ContinueOnError
)

// Config holds engine configuration. All fields are optional; zero values
// select the documented defaults.
type Config struct {
	// Name labels this engine in metrics. Defaults to "default".
	Name string

	// ChunkSize is the number of items per chunk. Must be positive;
	// zero selects DefaultChunkSize.
	ChunkSize int

	// Progress, when set, is called after every successfully completed chunk.
	Progress ProgressFunc

	// Retry is the per-chunk retry policy. Defaults to
	// policy.NewExponentialBackoff(). Supplying a policy explicitly also
	// flips the FailModeDefault resolution to ContinueOnError.
	Retry policy.Retry

	// Concurrency sizes the worker pool and owns the pause decision.
	// Defaults to the adaptive policy, wired to Backpressure below.
	Concurrency policy.Concurrency

	// Backpressure, when set and Concurrency is nil, is consulted by the
	// default adaptive policy for pause decisions. Ignored when a custom
	// Concurrency policy is supplied.
	Backpressure policy.BackpressureFunc

	// FailMode and RetryInFailFast combine as follows:
	//
	//	FailFast,        RetryInFailFast=false: one attempt per chunk; first failure aborts
	//	FailFast,        RetryInFailFast=true:  chunks retry per policy; terminal failure aborts
	//	ContinueOnError, RetryInFailFast=false: chunks retry per policy; all chunks attempted
	//	ContinueOnError, RetryInFailFast=true:  same; the flag only matters in fail-fast mode
	//
	// FailModeDefault resolves to FailFast when Retry is nil and to
	// ContinueOnError when a Retry policy was supplied.
	FailMode FailMode

	// RetryInFailFast opts fail-fast mode back into per-chunk retries
	// before aborting.
	RetryInFailFast bool

	// Memory supplies usage samples for backpressure decisions.
	// Defaults to memory.Runtime().
	Memory memory.Monitor

	// PauseInterval is how long a worker sleeps per backpressure pause.
	// Zero selects DefaultPauseInterval.
	PauseInterval time.Duration

	// Metrics configures Prometheus instrumentation. Disabled by default.
	Metrics metrics.Config
}

// Engine partitions an input slice into chunks and processes them
// concurrently across a bounded worker pool. Engines hold no state across
// Process calls and are safe for concurrent use.
type Engine[T, R any] struct {
	name            string
	chunkSize       int
	progress        ProgressFunc
	retry           policy.Retry
	concurrency     policy.Concurrency
	failFast        bool
	retryInFailFast bool
	monitor         memory.Monitor
	pauseInterval   time.Duration
	registry        *metrics.Registry
}

// New creates an Engine from the given configuration. It returns a
// ValidationError synchronously for invalid settings such as a negative
// chunk size.
func New[T, R any](cfg Config) (*Engine[T, R], error) {
	chunkSize := cfg.ChunkSize
	if chunkSize == 0 {
		chunkSize = DefaultChunkSize
	}
	if err := validation.ValidatePositive("engine", "chunkSize", chunkSize); err != nil {
		return nil, err
	}

	if cfg.PauseInterval < 0 {
		return nil, cferrors.NewValidationError("engine", "pauseInterval", cfg.PauseInterval, "cannot be negative").
			WithHint("use 0 for the default pause interval")
	}

	retry := cfg.Retry
	explicitRetry := retry != nil
	if retry == nil {
		retry = policy.NewExponentialBackoff()
	}

	var failFast bool
	switch cfg.FailMode {
	case FailFast:
		failFast = true
	case ContinueOnError:
		failFast = false
	default:
		failFast = !explicitRetry
	}

	concurrency := cfg.Concurrency
	if concurrency == nil {
		adaptive := policy.NewAdaptive()
		adaptive.Backpressure = cfg.Backpressure
		concurrency = adaptive
	}

	monitor := cfg.Memory
	if monitor == nil {
		monitor = memory.Runtime()
	}

	pauseInterval := cfg.PauseInterval
	if pauseInterval == 0 {
		pauseInterval = DefaultPauseInterval
	}

	name := cfg.Name
	if name == "" {
		name = "default"
	}

	return &Engine[T, R]{
		name:            name,
		chunkSize:       chunkSize,
		progress:        cfg.Progress,
		retry:           retry,
		concurrency:     concurrency,
		failFast:        failFast,
		retryInFailFast: cfg.RetryInFailFast,
		monitor:         monitor,
		pauseInterval:   pauseInterval,
		registry:        cfg.Metrics.Resolve(),
	}, nil
}

// ChunkSize returns the configured chunk size.
func (e *Engine[T, R]) ChunkSize() int { return e.chunkSize }

// Name returns the engine's metrics label.
func (e *Engine[T, R]) Name() string { return e.name }
