/*
Package chunkflow provides a chunked concurrent data-processing engine for Go.

Given a large input slice, the engine splits it into fixed-size chunks,
processes chunks concurrently across a bounded worker pool, and returns
results in chunk order while honoring retry policy, memory-pressure
backpressure, progress reporting, and cooperative cancellation.

Streaming (pkg/streaming):
  - engine: Chunked concurrent processing with ordered results
  - chain: Fluent map/filter/reduce API on top of the engine
  - policy: Pluggable retry and concurrency strategies

Caching (pkg/cache):
  - cache: Bounded adaptive cache with hit-rate-driven eviction
  - distributed: Redis-backed shared memoization with local fallback

Support:
  - memory: Best-effort process memory sampling
  - metrics: Prometheus instrumentation for all components

Example usage:

	import (
		"github.com/vnykmshr/chunkflow/pkg/streaming/engine"
	)

	eng, _ := engine.New[int, int](engine.Config{ChunkSize: 2})
	res, _ := eng.Process(ctx, []int{1, 2, 3, 4, 5},
		func(ctx context.Context, c engine.Chunk[int]) (int, bool, error) {
			sum := 0
			for _, v := range c.View() {
				sum += v
			}
			return sum, true, nil
		})
	// res.Results == [3, 7, 5]
*/
package chunkflow
