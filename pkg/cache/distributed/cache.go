package distributed

import (
	"context"
	"errors"
	"sync/atomic"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/vnykmshr/chunkflow/pkg/cache"
	cfcontext "github.com/vnykmshr/chunkflow/pkg/common/context"
	cferrors "github.com/vnykmshr/chunkflow/pkg/common/errors"
	"github.com/vnykmshr/chunkflow/pkg/metrics"
)

const (
	// DefaultKeyPrefix namespaces cache keys in Redis.
	DefaultKeyPrefix = "chunkflow:cache"

	// DefaultTTL is how long entries live in Redis.
	DefaultTTL = time.Hour

	// DefaultRedisTimeout bounds each Redis round trip.
	DefaultRedisTimeout = 500 * time.Millisecond

	clearScanBatch = 100
)

// Config holds configuration for a distributed cache.
type Config struct {
	// Redis client used as the shared backend. Required.
	Redis redis.UniversalClient

	// KeyPrefix namespaces this cache's keys in Redis. Empty means
	// DefaultKeyPrefix.
	KeyPrefix string

	// TTL is the lifetime of entries written to Redis. Zero means
	// DefaultTTL; negative is a configuration error.
	TTL time.Duration

	// RedisTimeout bounds each Redis operation. Zero means
	// DefaultRedisTimeout.
	RedisTimeout time.Duration

	// FallbackToLocal serves from a local in-process cache when Redis is
	// unavailable. Writes are mirrored locally so the fallback stays warm.
	FallbackToLocal bool

	// Local is the fallback cache. Nil means a default AdaptiveCache is
	// created when FallbackToLocal is set.
	Local *cache.AdaptiveCache[string, []byte]

	// Name labels this cache in exported metrics. Empty means "default".
	Name string

	// Metrics controls Prometheus export of fallback statistics.
	Metrics metrics.Config
}

// DefaultConfig returns a distributed cache configuration with fallback
// enabled. The Redis client must still be supplied by the caller.
func DefaultConfig() Config {
	return Config{
		KeyPrefix:       DefaultKeyPrefix,
		TTL:             DefaultTTL,
		RedisTimeout:    DefaultRedisTimeout,
		FallbackToLocal: true,
	}
}

// Stats holds distributed cache statistics.
type Stats struct {
	// Fallbacks counts operations served by the local cache because Redis
	// was unavailable.
	Fallbacks int64

	// RedisErrors counts failed Redis round trips.
	RedisErrors int64

	// Timeouts counts the subset of RedisErrors where the round trip
	// exceeded RedisTimeout.
	Timeouts int64

	// Local is a snapshot of the fallback cache, zero when fallback is
	// disabled.
	Local cache.Stats
}

// Cache is a Redis-backed byte cache shared across application instances,
// with an optional in-process fallback tier for Redis outages. Values are
// opaque byte slices; callers own serialization.
type Cache struct {
	client    redis.UniversalClient
	keyPrefix string
	ttl       time.Duration
	timeout   time.Duration
	local     *cache.AdaptiveCache[string, []byte]
	name      string
	registry  *metrics.Registry

	fallbacks   atomic.Int64
	redisErrors atomic.Int64
	timeouts    atomic.Int64
}

// New creates a distributed cache from cfg.
func New(cfg Config) (*Cache, error) {
	if cfg.Redis == nil {
		return nil, cferrors.NewValidationError("cache.distributed", "redis", nil,
			"client is required")
	}
	if cfg.TTL < 0 {
		return nil, cferrors.NewValidationError("cache.distributed", "ttl", cfg.TTL,
			"must not be negative")
	}

	if cfg.KeyPrefix == "" {
		cfg.KeyPrefix = DefaultKeyPrefix
	}
	if cfg.TTL == 0 {
		cfg.TTL = DefaultTTL
	}
	if cfg.RedisTimeout == 0 {
		cfg.RedisTimeout = DefaultRedisTimeout
	}
	if cfg.Name == "" {
		cfg.Name = "default"
	}

	local := cfg.Local
	if cfg.FallbackToLocal && local == nil {
		var err error
		local, err = cache.NewWithConfig[string, []byte](cache.Config{Name: cfg.Name + "-fallback"})
		if err != nil {
			return nil, err
		}
	}
	if !cfg.FallbackToLocal {
		local = nil
	}

	return &Cache{
		client:    cfg.Redis,
		keyPrefix: cfg.KeyPrefix,
		ttl:       cfg.TTL,
		timeout:   cfg.RedisTimeout,
		local:     local,
		name:      cfg.Name,
		registry:  cfg.Metrics.Resolve(),
	}, nil
}

// Get returns the value stored under key. A Redis failure falls back to
// the local tier when enabled; otherwise the error surfaces.
func (c *Cache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	opCtx, cancel := cfcontext.WithTimeoutOrCancel(ctx, c.timeout)
	defer cancel()

	val, err := c.client.Get(opCtx, c.redisKey(key)).Bytes()
	switch {
	case err == nil:
		return val, true, nil
	case errors.Is(err, redis.Nil):
		return nil, false, nil
	}

	c.recordRedisError(opCtx)
	if c.local == nil || cfcontext.IsCanceled(ctx) {
		// A canceled caller gets the error, not possibly stale data.
		return nil, false, c.operationError("get", err)
	}

	c.recordFallback()
	v, ok := c.local.Get(key)
	return v, ok, nil
}

// Set stores value under key with the configured TTL. Writes mirror to
// the local tier when fallback is enabled so an outage serves warm data.
func (c *Cache) Set(ctx context.Context, key string, value []byte) error {
	if c.local != nil {
		c.local.Set(key, value)
	}

	opCtx, cancel := cfcontext.WithTimeoutOrCancel(ctx, c.timeout)
	defer cancel()

	if err := c.client.Set(opCtx, c.redisKey(key), value, c.ttl).Err(); err != nil {
		c.recordRedisError(opCtx)
		if c.local == nil || cfcontext.IsCanceled(ctx) {
			return c.operationError("set", err)
		}
		c.recordFallback()
	}
	return nil
}

// Delete removes the entry under key from both tiers. The local mirror is
// dropped regardless of the Redis outcome, so a later outage can never
// serve a deleted value.
func (c *Cache) Delete(ctx context.Context, key string) error {
	if c.local != nil {
		c.local.Delete(key)
	}

	opCtx, cancel := cfcontext.WithTimeoutOrCancel(ctx, c.timeout)
	defer cancel()

	if err := c.client.Del(opCtx, c.redisKey(key)).Err(); err != nil {
		c.recordRedisError(opCtx)
		if c.local == nil {
			return c.operationError("delete", err)
		}
		c.recordFallback()
	}
	return nil
}

// Clear removes every entry under this cache's key prefix from Redis and
// empties the local tier.
func (c *Cache) Clear(ctx context.Context) error {
	if c.local != nil {
		c.local.Clear()
	}

	opCtx, cancel := cfcontext.WithTimeoutOrCancel(ctx, c.timeout)
	defer cancel()

	var cursor uint64
	for {
		keys, next, err := c.client.Scan(opCtx, cursor, c.keyPrefix+":*", clearScanBatch).Result()
		if err != nil {
			c.recordRedisError(opCtx)
			return c.operationError("clear", err)
		}
		if len(keys) > 0 {
			if err := c.client.Del(opCtx, keys...).Err(); err != nil {
				c.recordRedisError(opCtx)
				return c.operationError("clear", err)
			}
		}
		cursor = next
		if cursor == 0 {
			return nil
		}
	}
}

// Stats returns a snapshot of fallback statistics.
func (c *Cache) Stats() Stats {
	st := Stats{
		Fallbacks:   c.fallbacks.Load(),
		RedisErrors: c.redisErrors.Load(),
		Timeouts:    c.timeouts.Load(),
	}
	if c.local != nil {
		st.Local = c.local.Stats()
	}
	return st
}

func (c *Cache) redisKey(key string) string {
	return c.keyPrefix + ":" + key
}

// recordRedisError classifies the failed round trip by inspecting the
// operation context: a deadline hit means the RedisTimeout budget elapsed.
func (c *Cache) recordRedisError(opCtx context.Context) {
	c.redisErrors.Add(1)
	if cfcontext.IsTimedOut(opCtx) {
		c.timeouts.Add(1)
	}
}

func (c *Cache) recordFallback() {
	c.fallbacks.Add(1)
	if c.registry != nil {
		c.registry.CacheFallbacks.WithLabelValues(c.name).Inc()
	}
}

func (c *Cache) operationError(op string, err error) error {
	return cferrors.NewOperationError("cache.distributed", op, err)
}
