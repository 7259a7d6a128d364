package chain

import (
	"context"
	"sort"
	"strconv"
	"sync"
	"testing"

	"github.com/vnykmshr/chunkflow/internal/testutil"
	"github.com/vnykmshr/chunkflow/pkg/streaming/engine"
	"github.com/vnykmshr/chunkflow/pkg/streaming/policy"
)

func TestCollect_FilterThenMap(t *testing.T) {
	got, err := New([]int{1, 2, 3, 4, 5, 6}).
		Filter(func(v int) bool { return v%2 == 0 }).
		Map(func(v int) int { return v * v }).
		Collect(context.Background())
	testutil.AssertNoError(t, err)

	testutil.AssertEqual(t, len(got), 3)
	testutil.AssertEqual(t, got[0], 4)
	testutil.AssertEqual(t, got[1], 16)
	testutil.AssertEqual(t, got[2], 36)
}

func TestCollect_StageOrder(t *testing.T) {
	// Map before filter: the predicate sees mapped values.
	got, err := New([]int{1, 2, 3}).
		Map(func(v int) int { return v * 10 }).
		Filter(func(v int) bool { return v > 15 }).
		Collect(context.Background())
	testutil.AssertNoError(t, err)

	testutil.AssertEqual(t, len(got), 2)
	testutil.AssertEqual(t, got[0], 20)
	testutil.AssertEqual(t, got[1], 30)
}

func TestCollect_NoStages(t *testing.T) {
	items := []int{3, 1, 2}
	got, err := New(items).Collect(context.Background())
	testutil.AssertNoError(t, err)

	testutil.AssertEqual(t, len(got), 3)
	for i := range items {
		testutil.AssertEqual(t, got[i], items[i])
	}
}

func TestCollect_Empty(t *testing.T) {
	got, err := New([]int{}).Collect(context.Background())
	testutil.AssertNoError(t, err)
	testutil.AssertEqual(t, len(got), 0)
}

func TestCollect_OrderedUnderConcurrency(t *testing.T) {
	items := make([]int, 50)
	for i := range items {
		items[i] = i
	}

	got, err := NewWithConfig(items, engine.Config{
		ChunkSize:   1,
		Concurrency: policy.Fixed(8),
	}).Map(func(v int) int { return v + 1 }).Collect(context.Background())
	testutil.AssertNoError(t, err)

	testutil.AssertEqual(t, len(got), 50)
	for i, v := range got {
		testutil.AssertEqual(t, v, i+1)
	}
}

func TestDerivedChainsIndependent(t *testing.T) {
	base := New([]int{1, 2, 3, 4})
	evens := base.Filter(func(v int) bool { return v%2 == 0 })
	odds := base.Filter(func(v int) bool { return v%2 == 1 })

	gotEvens, err := evens.Collect(context.Background())
	testutil.AssertNoError(t, err)
	gotOdds, err := odds.Collect(context.Background())
	testutil.AssertNoError(t, err)

	testutil.AssertEqual(t, len(gotEvens), 2)
	testutil.AssertEqual(t, len(gotOdds), 2)
	testutil.AssertEqual(t, gotEvens[0], 2)
	testutil.AssertEqual(t, gotOdds[0], 1)
}

func TestForEach(t *testing.T) {
	var mu sync.Mutex
	var seen []int

	err := New([]int{1, 2, 3, 4}).
		Filter(func(v int) bool { return v > 2 }).
		ForEach(context.Background(), func(v int) {
			mu.Lock()
			seen = append(seen, v)
			mu.Unlock()
		})
	testutil.AssertNoError(t, err)

	sort.Ints(seen)
	testutil.AssertEqual(t, len(seen), 2)
	testutil.AssertEqual(t, seen[0], 3)
	testutil.AssertEqual(t, seen[1], 4)
}

func TestReduce(t *testing.T) {
	sum, err := New([]int{1, 2, 3, 4, 5}).
		Map(func(v int) int { return v * 2 }).
		Reduce(context.Background(), 0, func(acc, v int) int { return acc + v })
	testutil.AssertNoError(t, err)
	testutil.AssertEqual(t, sum, 30)
}

func TestReduce_Empty(t *testing.T) {
	got, err := New([]int{}).
		Reduce(context.Background(), 42, func(acc, v int) int { return acc + v })
	testutil.AssertNoError(t, err)
	testutil.AssertEqual(t, got, 42)
}

func TestCount(t *testing.T) {
	n, err := New([]int{1, 2, 3, 4, 5, 6, 7}).
		Filter(func(v int) bool { return v%2 == 1 }).
		Count(context.Background())
	testutil.AssertNoError(t, err)
	testutil.AssertEqual(t, n, 4)
}

func TestMapTo(t *testing.T) {
	got, err := MapTo(context.Background(),
		New([]int{1, 2, 3}).Filter(func(v int) bool { return v > 1 }),
		strconv.Itoa)
	testutil.AssertNoError(t, err)

	testutil.AssertEqual(t, len(got), 2)
	testutil.AssertEqual(t, got[0], "2")
	testutil.AssertEqual(t, got[1], "3")
}

func TestTerminal_InvalidConfig(t *testing.T) {
	c := NewWithConfig([]int{1, 2, 3}, engine.Config{ChunkSize: -1})

	_, err := c.Collect(context.Background())
	testutil.AssertError(t, err)

	_, err = c.Count(context.Background())
	testutil.AssertError(t, err)
}

func TestTerminal_Canceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := New([]int{1, 2, 3}).Collect(ctx)
	testutil.AssertError(t, err)
}
