// Package distributed provides a Redis-backed cache tier shared across
// application instances, with an optional in-process fallback.
//
// Values are opaque byte slices namespaced under a key prefix; callers own
// serialization. When FallbackToLocal is enabled, writes mirror into an
// AdaptiveCache so a Redis outage degrades to warm local reads instead of
// failing:
//
//	cfg := distributed.DefaultConfig()
//	cfg.Redis = redis.NewClient(&redis.Options{Addr: "localhost:6379"})
//	c, err := distributed.New(cfg)
//	if err != nil {
//		log.Fatal(err)
//	}
//	_ = c.Set(ctx, "report:42", payload)
//	data, ok, err := c.Get(ctx, "report:42")
//
// Every Redis round trip is bounded by RedisTimeout independent of the
// caller's context. Fallback activity is counted in Stats and exported to
// Prometheus when metrics are enabled.
package distributed
