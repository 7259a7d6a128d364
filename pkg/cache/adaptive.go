package cache

import (
	"container/list"
	"sync"
	"time"

	cferrors "github.com/vnykmshr/chunkflow/pkg/common/errors"
	"github.com/vnykmshr/chunkflow/pkg/common/validation"
	"github.com/vnykmshr/chunkflow/pkg/metrics"
)

const (
	// DefaultCapacity is used when Config.Capacity is zero.
	DefaultCapacity = 1024

	// DefaultMinEvictionInterval is the window under which consecutive
	// evictions are throttled to the minimum fraction.
	DefaultMinEvictionInterval = time.Second

	baseEvictFraction       = 0.30
	gentleEvictFraction     = 0.20
	aggressiveEvictFraction = 0.40
	throttledEvictFraction  = 0.10

	highHitRate = 0.8
	lowHitRate  = 0.5
)

// Clock provides the current time. It can be mocked for testing.
type Clock interface {
	Now() time.Time
}

// SystemClock implements Clock using the system time.
type SystemClock struct{}

// Now returns the current system time.
func (SystemClock) Now() time.Time {
	return time.Now()
}

// Stats holds a snapshot of cache statistics. All counters reset on Clear.
type Stats struct {
	Hits        int64
	Misses      int64
	HitRate     float64
	Evictions   int64
	Size        int
	Capacity    int
	LastCleanup time.Time
}

// Config holds configuration for an AdaptiveCache. The zero value is usable:
// every field has a sensible default.
type Config struct {
	// Capacity is the maximum number of entries before eviction triggers.
	// Zero means DefaultCapacity; negative is a configuration error.
	Capacity int

	// MinEvictionInterval throttles back-to-back evictions: when two
	// evictions occur within this window the removal fraction is capped
	// at 10% to avoid thrashing under bursty inserts. Zero means
	// DefaultMinEvictionInterval.
	MinEvictionInterval time.Duration

	// Clock overrides the time source. Nil means SystemClock.
	Clock Clock

	// Name labels this cache in exported metrics. Empty means "default".
	Name string

	// Metrics controls Prometheus export of cache statistics.
	Metrics metrics.Config
}

type entry[K comparable, V any] struct {
	key   K
	value V
}

// AdaptiveCache is a bounded, recency-ordered key/value store whose
// eviction aggressiveness adapts to the observed hit rate: a cache that is
// serving its callers well sheds fewer entries than one that is mostly
// missing. All operations are safe for concurrent use; access is
// serialized, so use one cache per hot path if lock contention matters.
type AdaptiveCache[K comparable, V any] struct {
	mu sync.Mutex

	capacity    int
	minInterval time.Duration
	clock       Clock
	name        string
	registry    *metrics.Registry

	entries map[K]*list.Element
	order   *list.List // front = most recently used

	hits        int64
	misses      int64
	evictions   int64
	lastCleanup time.Time
}

// New creates an AdaptiveCache with the given capacity and default
// configuration.
func New[K comparable, V any](capacity int) (*AdaptiveCache[K, V], error) {
	return NewWithConfig[K, V](Config{Capacity: capacity})
}

// NewWithConfig creates an AdaptiveCache from cfg. Unset fields fall back
// to defaults; a negative capacity is a configuration error.
func NewWithConfig[K comparable, V any](cfg Config) (*AdaptiveCache[K, V], error) {
	if cfg.Capacity == 0 {
		cfg.Capacity = DefaultCapacity
	}
	if err := validation.ValidatePositive("cache", "capacity", cfg.Capacity); err != nil {
		return nil, err
	}
	if cfg.MinEvictionInterval < 0 {
		return nil, cferrors.NewValidationError("cache", "min_eviction_interval", cfg.MinEvictionInterval,
			"must not be negative")
	}
	if cfg.MinEvictionInterval == 0 {
		cfg.MinEvictionInterval = DefaultMinEvictionInterval
	}
	if cfg.Clock == nil {
		cfg.Clock = SystemClock{}
	}
	if cfg.Name == "" {
		cfg.Name = "default"
	}

	return &AdaptiveCache[K, V]{
		capacity:    cfg.Capacity,
		minInterval: cfg.MinEvictionInterval,
		clock:       cfg.Clock,
		name:        cfg.Name,
		registry:    cfg.Metrics.Resolve(),
		entries:     make(map[K]*list.Element, cfg.Capacity),
		order:       list.New(),
	}, nil
}

// Get returns the value stored under key. A hit promotes the entry to
// most-recently-used; hit and miss counters update on every call.
func (c *AdaptiveCache[K, V]) Get(key K) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	elem, ok := c.entries[key]
	if !ok {
		c.misses++
		if c.registry != nil {
			c.registry.CacheMisses.WithLabelValues(c.name).Inc()
			c.registry.CacheHitRate.WithLabelValues(c.name).Set(c.hitRateLocked())
		}
		var zero V
		return zero, false
	}

	c.order.MoveToFront(elem)
	c.hits++
	if c.registry != nil {
		c.registry.CacheHits.WithLabelValues(c.name).Inc()
		c.registry.CacheHitRate.WithLabelValues(c.name).Set(c.hitRateLocked())
	}
	return elem.Value.(*entry[K, V]).value, true
}

// Set inserts or overwrites the value under key. When the insert pushes
// the cache past capacity, a batch of least-recently-used entries is
// evicted per the adaptive policy.
func (c *AdaptiveCache[K, V]) Set(key K, value V) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if elem, ok := c.entries[key]; ok {
		elem.Value.(*entry[K, V]).value = value
		c.order.MoveToFront(elem)
		return
	}

	if len(c.entries) >= c.capacity {
		c.evictLocked()
	}

	c.entries[key] = c.order.PushFront(&entry[K, V]{key: key, value: value})
	if c.registry != nil {
		c.registry.CacheSize.WithLabelValues(c.name).Set(float64(len(c.entries)))
	}
}

// Delete removes the entry under key, reporting whether it was present.
// Deletion is not an eviction; counters and the cleanup timestamp are
// untouched.
func (c *AdaptiveCache[K, V]) Delete(key K) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	elem, ok := c.entries[key]
	if !ok {
		return false
	}

	c.order.Remove(elem)
	delete(c.entries, key)
	if c.registry != nil {
		c.registry.CacheSize.WithLabelValues(c.name).Set(float64(len(c.entries)))
	}
	return true
}

// Compact runs one adaptive eviction pass immediately and reports how many
// entries were removed. Intended for periodic maintenance (see Janitor);
// a compaction on an empty cache removes nothing.
func (c *AdaptiveCache[K, V]) Compact() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	if len(c.entries) == 0 {
		return 0
	}
	return c.evictLocked()
}

// evictLocked removes a batch of least-recently-used entries. The batch is
// a fraction of the current size chosen from the hit rate, throttled when
// the previous eviction was under minInterval ago. At least one entry is
// always removed. Callers must hold mu.
func (c *AdaptiveCache[K, V]) evictLocked() int {
	fraction := baseEvictFraction
	if lookups := c.hits + c.misses; lookups > 0 {
		switch rate := float64(c.hits) / float64(lookups); {
		case rate > highHitRate:
			fraction = gentleEvictFraction
		case rate < lowHitRate:
			fraction = aggressiveEvictFraction
		}
	}

	now := c.clock.Now()
	if !c.lastCleanup.IsZero() && now.Sub(c.lastCleanup) < c.minInterval && fraction > throttledEvictFraction {
		fraction = throttledEvictFraction
	}

	count := int(fraction * float64(len(c.entries)))
	if count < 1 {
		count = 1
	}

	for i := 0; i < count; i++ {
		oldest := c.order.Back()
		if oldest == nil {
			count = i
			break
		}
		c.order.Remove(oldest)
		delete(c.entries, oldest.Value.(*entry[K, V]).key)
	}

	c.evictions += int64(count)
	c.lastCleanup = now

	if c.registry != nil {
		c.registry.CacheEvictions.WithLabelValues(c.name).Add(float64(count))
		c.registry.CacheSize.WithLabelValues(c.name).Set(float64(len(c.entries)))
	}
	return count
}

// Clear empties the cache and resets all statistics to zero.
func (c *AdaptiveCache[K, V]) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries = make(map[K]*list.Element, c.capacity)
	c.order.Init()
	c.hits = 0
	c.misses = 0
	c.evictions = 0
	c.lastCleanup = time.Time{}

	if c.registry != nil {
		c.registry.CacheSize.WithLabelValues(c.name).Set(0)
		c.registry.CacheHitRate.WithLabelValues(c.name).Set(0)
	}
}

// Len returns the current number of entries.
func (c *AdaptiveCache[K, V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// Capacity returns the configured maximum number of entries.
func (c *AdaptiveCache[K, V]) Capacity() int {
	return c.capacity
}

// Name returns the metrics label configured for this cache.
func (c *AdaptiveCache[K, V]) Name() string {
	return c.name
}

// Stats returns a snapshot of the cache statistics.
func (c *AdaptiveCache[K, V]) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()

	return Stats{
		Hits:        c.hits,
		Misses:      c.misses,
		HitRate:     c.hitRateLocked(),
		Evictions:   c.evictions,
		Size:        len(c.entries),
		Capacity:    c.capacity,
		LastCleanup: c.lastCleanup,
	}
}

func (c *AdaptiveCache[K, V]) hitRateLocked() float64 {
	lookups := c.hits + c.misses
	if lookups == 0 {
		return 0
	}
	return float64(c.hits) / float64(lookups)
}
