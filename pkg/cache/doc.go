// Package cache provides a bounded, recency-ordered key/value store with
// hit-rate-adaptive eviction.
//
// AdaptiveCache evicts in least-recently-used order, but the size of each
// eviction batch adapts to how well the cache is performing: 30% of
// current entries by default, only 20% when the hit rate exceeds 0.8, and
// 40% when it falls below 0.5. Back-to-back evictions inside one second
// are throttled to 10% so bursty insert patterns cannot thrash the cache.
//
//	c, err := cache.New[string, int](256)
//	if err != nil {
//		log.Fatal(err)
//	}
//	c.Set("answer", 42)
//	if v, ok := c.Get("answer"); ok {
//		fmt.Println(v)
//	}
//
// All operations are safe for concurrent use from multiple goroutines,
// including engine workers sharing one cache as a memoization layer.
//
// Janitor runs scheduled compaction passes over any number of caches and
// exports their statistics to Prometheus; see the distributed subpackage
// for a Redis-backed tier with local fallback.
package cache
