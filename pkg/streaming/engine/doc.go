/*
Package engine provides chunked concurrent processing of slices with
ordered results.

An Engine splits its input into fixed-size chunks, processes the chunks
concurrently across a bounded worker pool, and returns one result per
chunk in chunk-index order; completion order never leaks into the output.
Per-chunk failures are retried per a pluggable policy and recorded
alongside the results; partial success is an expected outcome.

Basic usage:

	eng, err := engine.New[int, int](engine.Config{ChunkSize: 2})
	if err != nil {
		log.Fatal(err)
	}

	res, err := eng.Process(ctx, []int{1, 2, 3, 4, 5},
		func(ctx context.Context, c engine.Chunk[int]) (int, bool, error) {
			sum := 0
			for _, v := range c.View() {
				sum += v
			}
			return sum, true, nil
		})
	if err != nil {
		log.Fatal(err) // cancellation or invalid input only
	}

	fmt.Println(res.Results)        // [3 7 5]
	fmt.Println(res.Metrics.TotalChunks) // 3

	for _, cerr := range res.Errors {
		log.Printf("chunk %d failed: %v", cerr.Chunk, cerr.Err)
	}

Failure handling:

Chunk-processing errors never surface as the returned error; they are
collected in Result.Errors with their chunk index attached. The returned
error is reserved for invalid configuration or input and for cancellation.
In fail-fast mode the first terminal chunk failure stops scheduling of
remaining chunks via an internal signal that is distinct from the caller's
context, so the recorded chunk error is what surfaces, not a cancellation.

Backpressure:

Before claiming a chunk, each worker samples memory usage and asks the
concurrency policy whether to pause. A paused worker sleeps for
Config.PauseInterval, records the pause in the metrics, and re-checks.
Callers can take over the decision entirely with Config.Backpressure:

	eng, _ := engine.New[Item, Summary](engine.Config{
		ChunkSize: 500,
		Backpressure: func(active int, memMB float64) bool {
			return memMB > 1024 && active > 2
		},
	})

Cancellation:

The caller owns the context; the engine only observes it. Workers check it
at every chunk boundary and around each processing attempt. Once it trips,
Process fails with an error matching errors.ErrCanceled regardless of how
much work had completed.
*/
package engine
