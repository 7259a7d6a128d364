package engine

// Chunk is an immutable, zero-copy window over a slice of the input
// sequence. Invariant: 0 <= Start <= End <= len(source). A Chunk must not
// outlive the Process call that produced it; the engine guarantees the
// source slice is not mutated while chunks are being consumed, and callers
// who need to keep elements past the processor's return must Materialize.
type Chunk[T any] struct {
	src   []T
	index int
	start int
	end   int
}

// newChunk builds the window for the given chunk index and size, clamping
// the end bound to the source length.
func newChunk[T any](src []T, index, size int) Chunk[T] {
	start := index * size
	end := start + size
	if end > len(src) {
		end = len(src)
	}
	return Chunk[T]{src: src, index: index, start: start, end: end}
}

// Index returns the chunk's position in the partition, starting at 0.
func (c Chunk[T]) Index() int { return c.index }

// Start returns the inclusive start offset into the source sequence.
func (c Chunk[T]) Start() int { return c.start }

// End returns the exclusive end offset into the source sequence.
func (c Chunk[T]) End() int { return c.end }

// Len returns the number of elements in the window.
func (c Chunk[T]) Len() int { return c.end - c.start }

// View returns the chunk's elements as a zero-copy subslice of the source.
// The capacity is clamped so appends cannot reach beyond the window.
func (c Chunk[T]) View() []T {
	return c.src[c.start:c.end:c.end]
}

// Each calls fn for every element in order, stopping early if fn returns
// false. Iteration is restartable; each call walks the window from the start.
func (c Chunk[T]) Each(fn func(T) bool) {
	for i := c.start; i < c.end; i++ {
		if !fn(c.src[i]) {
			return
		}
	}
}

// Materialize returns an owned copy of the chunk's elements.
func (c Chunk[T]) Materialize() []T {
	out := make([]T, c.Len())
	copy(out, c.src[c.start:c.end])
	return out
}
