package chain

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/vnykmshr/chunkflow/pkg/streaming/engine"
)

type stageKind int

const (
	stageMap stageKind = iota
	stageFilter
)

// stage is one staged transform. Stages are replayed per item in
// registration order inside the chunk processor; no intermediate slice is
// materialized between them.
type stage[T any] struct {
	kind   stageKind
	mapFn  func(T) T
	predFn func(T) bool
}

// Chain is a lazy, composable view over a slice. Intermediate operations
// (Map, Filter) return derived chains; nothing runs until a terminal
// operation (Collect, ForEach, Reduce, Count) is called with a context.
//
// Chunks execute concurrently under the engine's concurrency policy, so
// Reduce and ForEach observe chunks out of order unless the supplied
// engine configuration uses policy.Fixed(1). Collect is always ordered:
// it inherits the engine's chunk-index ordering.
type Chain[T any] struct {
	items  []T
	stages []stage[T]
	cfg    engine.Config
}

// New creates a Chain over items with the default engine configuration.
func New[T any](items []T) *Chain[T] {
	return NewWithConfig(items, engine.Config{})
}

// NewWithConfig creates a Chain whose terminal operations run with the
// given engine configuration. Configuration errors surface from the
// terminal operation.
func NewWithConfig[T any](items []T, cfg engine.Config) *Chain[T] {
	return &Chain[T]{items: items, cfg: cfg}
}

// Map stages a per-item transformation and returns the derived chain.
func (c *Chain[T]) Map(fn func(T) T) *Chain[T] {
	return c.derive(stage[T]{kind: stageMap, mapFn: fn})
}

// Filter stages a per-item predicate and returns the derived chain.
// Items failing the predicate are dropped before later stages run.
func (c *Chain[T]) Filter(pred func(T) bool) *Chain[T] {
	return c.derive(stage[T]{kind: stageFilter, predFn: pred})
}

func (c *Chain[T]) derive(s stage[T]) *Chain[T] {
	stages := make([]stage[T], len(c.stages)+1)
	copy(stages, c.stages)
	stages[len(c.stages)] = s

	return &Chain[T]{items: c.items, stages: stages, cfg: c.cfg}
}

// apply folds all staged transforms over one item, short-circuiting on the
// first failing filter.
func (c *Chain[T]) apply(v T) (T, bool) {
	for _, s := range c.stages {
		switch s.kind {
		case stageMap:
			v = s.mapFn(v)
		case stageFilter:
			if !s.predFn(v) {
				return v, false
			}
		}
	}
	return v, true
}

// Collect runs the chain and returns the surviving items in original
// sequence order, regardless of chunk completion order.
func (c *Chain[T]) Collect(ctx context.Context) ([]T, error) {
	eng, err := engine.New[T, []T](c.cfg)
	if err != nil {
		return nil, err
	}

	res, err := eng.Process(ctx, c.items, func(_ context.Context, chunk engine.Chunk[T]) ([]T, bool, error) {
		out := make([]T, 0, chunk.Len())
		chunk.Each(func(v T) bool {
			if mapped, keep := c.apply(v); keep {
				out = append(out, mapped)
			}
			return true
		})
		return out, true, nil
	})
	if err != nil {
		return nil, err
	}

	collected := make([]T, 0, len(c.items))
	for _, part := range res.Results {
		collected = append(collected, part...)
	}
	return collected, nil
}

// ForEach applies action to every surviving item. Within a chunk items
// arrive in order; across chunks the order follows chunk scheduling, and
// action may run concurrently from multiple workers.
func (c *Chain[T]) ForEach(ctx context.Context, action func(T)) error {
	eng, err := engine.New[T, struct{}](c.cfg)
	if err != nil {
		return err
	}

	_, err = eng.Process(ctx, c.items, func(_ context.Context, chunk engine.Chunk[T]) (struct{}, bool, error) {
		chunk.Each(func(v T) bool {
			if mapped, keep := c.apply(v); keep {
				action(mapped)
			}
			return true
		})
		return struct{}{}, false, nil
	})
	return err
}

// Reduce folds surviving items into a single value starting from identity.
// The accumulator runs under a mutex; chunk arrival order is unspecified
// unless the chain was configured with a single-worker policy.
func (c *Chain[T]) Reduce(ctx context.Context, identity T, accumulator func(acc, v T) T) (T, error) {
	eng, err := engine.New[T, struct{}](c.cfg)
	if err != nil {
		return identity, err
	}

	var mu sync.Mutex
	acc := identity

	_, err = eng.Process(ctx, c.items, func(_ context.Context, chunk engine.Chunk[T]) (struct{}, bool, error) {
		chunk.Each(func(v T) bool {
			if mapped, keep := c.apply(v); keep {
				mu.Lock()
				acc = accumulator(acc, mapped)
				mu.Unlock()
			}
			return true
		})
		return struct{}{}, false, nil
	})
	if err != nil {
		return identity, err
	}

	mu.Lock()
	defer mu.Unlock()
	return acc, nil
}

// Count returns the number of items surviving all staged filters.
func (c *Chain[T]) Count(ctx context.Context) (int, error) {
	eng, err := engine.New[T, struct{}](c.cfg)
	if err != nil {
		return 0, err
	}

	var count atomic.Int64
	_, err = eng.Process(ctx, c.items, func(_ context.Context, chunk engine.Chunk[T]) (struct{}, bool, error) {
		chunk.Each(func(v T) bool {
			if _, keep := c.apply(v); keep {
				count.Add(1)
			}
			return true
		})
		return struct{}{}, false, nil
	})
	if err != nil {
		return 0, err
	}
	return int(count.Load()), nil
}

// MapTo runs the chain and converts surviving items to a different type.
// Method type parameters cannot introduce a new element type, so the
// type-changing transform is a package-level terminal: staged transforms
// run first, then fn, with output in original sequence order.
func MapTo[T, U any](ctx context.Context, c *Chain[T], fn func(T) U) ([]U, error) {
	eng, err := engine.New[T, []U](c.cfg)
	if err != nil {
		return nil, err
	}

	res, err := eng.Process(ctx, c.items, func(_ context.Context, chunk engine.Chunk[T]) ([]U, bool, error) {
		out := make([]U, 0, chunk.Len())
		chunk.Each(func(v T) bool {
			if mapped, keep := c.apply(v); keep {
				out = append(out, fn(mapped))
			}
			return true
		})
		return out, true, nil
	})
	if err != nil {
		return nil, err
	}

	collected := make([]U, 0, len(c.items))
	for _, part := range res.Results {
		collected = append(collected, part...)
	}
	return collected, nil
}
