// Package chain provides a lazy, composable transformation pipeline over
// slices, executed in chunks by the streaming engine.
//
// A Chain stages Map and Filter transforms without materializing
// intermediate slices; each item flows through all stages in registration
// order when a terminal operation runs. Terminals accept a context and
// execute under the engine's concurrency policy:
//
//	evens, err := chain.New([]int{1, 2, 3, 4, 5, 6}).
//		Filter(func(v int) bool { return v%2 == 0 }).
//		Map(func(v int) int { return v * v }).
//		Collect(ctx)
//	// evens == [4, 16, 36]
//
// Collect preserves original sequence order regardless of which worker
// finishes first. ForEach and Reduce observe chunks in completion order;
// pass an engine configuration with policy.Fixed(1) via NewWithConfig when
// sequential observation matters.
//
// Type-changing transforms use the package-level MapTo terminal, since Go
// methods cannot introduce new type parameters.
package chain
