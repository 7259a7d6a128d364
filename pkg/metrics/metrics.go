// Package metrics provides Prometheus instrumentation for chunkflow components.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Registry holds all metric instances for chunkflow components.
type Registry struct {
	// Engine Metrics
	ChunksProcessed    *prometheus.CounterVec
	ChunksFailed       *prometheus.CounterVec
	ItemsProcessed     *prometheus.CounterVec
	ChunkDuration      *prometheus.HistogramVec
	RetryAttempts      *prometheus.CounterVec
	WorkersActive      *prometheus.GaugeVec
	BackpressureEvents *prometheus.CounterVec
	ThrottledSeconds   *prometheus.CounterVec

	// Cache Metrics
	CacheHits      *prometheus.CounterVec
	CacheMisses    *prometheus.CounterVec
	CacheEvictions *prometheus.CounterVec
	CacheSize      *prometheus.GaugeVec
	CacheHitRate   *prometheus.GaugeVec
	CacheFallbacks *prometheus.CounterVec
}

// DefaultRegistry is the default metrics registry used by chunkflow components.
var DefaultRegistry *Registry

func init() {
	DefaultRegistry = NewRegistry(prometheus.DefaultRegisterer)
}

// NewRegistry creates a new metrics registry with the given Prometheus registerer.
func NewRegistry(reg prometheus.Registerer) *Registry {
	factory := promauto.With(reg)

	return &Registry{
		// Engine Metrics
		ChunksProcessed: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "chunkflow",
				Subsystem: "engine",
				Name:      "chunks_processed_total",
				Help:      "Total number of chunks processed successfully",
			},
			[]string{"engine_name"},
		),

		ChunksFailed: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "chunkflow",
				Subsystem: "engine",
				Name:      "chunks_failed_total",
				Help:      "Total number of chunks that exhausted retries",
			},
			[]string{"engine_name"},
		),

		ItemsProcessed: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "chunkflow",
				Subsystem: "engine",
				Name:      "items_processed_total",
				Help:      "Total number of input items processed",
			},
			[]string{"engine_name"},
		),

		ChunkDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "chunkflow",
				Subsystem: "engine",
				Name:      "chunk_duration_seconds",
				Help:      "Time spent processing individual chunks",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"engine_name"},
		),

		RetryAttempts: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "chunkflow",
				Subsystem: "engine",
				Name:      "retry_attempts_total",
				Help:      "Total number of chunk retry attempts",
			},
			[]string{"engine_name"},
		),

		WorkersActive: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: "chunkflow",
				Subsystem: "engine",
				Name:      "workers_active",
				Help:      "Number of workers currently processing a chunk",
			},
			[]string{"engine_name"},
		),

		BackpressureEvents: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "chunkflow",
				Subsystem: "engine",
				Name:      "backpressure_events_total",
				Help:      "Total number of backpressure pauses",
			},
			[]string{"engine_name"},
		),

		ThrottledSeconds: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "chunkflow",
				Subsystem: "engine",
				Name:      "throttled_seconds_total",
				Help:      "Cumulative time spent paused on backpressure",
			},
			[]string{"engine_name"},
		),

		// Cache Metrics
		CacheHits: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "chunkflow",
				Subsystem: "cache",
				Name:      "hits_total",
				Help:      "Total number of cache hits",
			},
			[]string{"cache_name"},
		),

		CacheMisses: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "chunkflow",
				Subsystem: "cache",
				Name:      "misses_total",
				Help:      "Total number of cache misses",
			},
			[]string{"cache_name"},
		),

		CacheEvictions: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "chunkflow",
				Subsystem: "cache",
				Name:      "evictions_total",
				Help:      "Total number of entries evicted",
			},
			[]string{"cache_name"},
		),

		CacheSize: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: "chunkflow",
				Subsystem: "cache",
				Name:      "entries",
				Help:      "Current number of cached entries",
			},
			[]string{"cache_name"},
		),

		CacheHitRate: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: "chunkflow",
				Subsystem: "cache",
				Name:      "hit_rate",
				Help:      "Current cache hit rate in [0, 1]",
			},
			[]string{"cache_name"},
		),

		CacheFallbacks: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "chunkflow",
				Subsystem: "cache",
				Name:      "fallbacks_total",
				Help:      "Total number of distributed cache operations served by the local fallback",
			},
			[]string{"cache_name"},
		),
	}
}
