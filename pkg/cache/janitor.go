package cache

import (
	"sync"

	"github.com/robfig/cron/v3"

	cferrors "github.com/vnykmshr/chunkflow/pkg/common/errors"
	"github.com/vnykmshr/chunkflow/pkg/metrics"
)

// DefaultJanitorSchedule compacts attached caches once a minute.
const DefaultJanitorSchedule = "@every 1m"

// Maintainable is the view of a cache the janitor works against.
// AdaptiveCache implements it for every key/value instantiation.
type Maintainable interface {
	Name() string
	Stats() Stats
	Compact() int
}

// JanitorConfig holds configuration for a Janitor.
type JanitorConfig struct {
	// Schedule is a cron expression controlling how often attached caches
	// are compacted. Supports standard five-field cron plus descriptors
	// such as "@every 30s" and "@hourly". Empty means
	// DefaultJanitorSchedule.
	Schedule string

	// Metrics controls Prometheus export of per-cache statistics on each
	// maintenance pass.
	Metrics metrics.Config
}

// Janitor periodically compacts attached caches and refreshes their
// exported statistics. One janitor can maintain any number of caches;
// attach each under its metrics name.
type Janitor struct {
	mu       sync.Mutex
	caches   []Maintainable
	cron     *cron.Cron
	registry *metrics.Registry
	running  bool
}

// NewJanitor creates a Janitor from cfg. The returned janitor is idle
// until Start is called.
func NewJanitor(cfg JanitorConfig) (*Janitor, error) {
	if cfg.Schedule == "" {
		cfg.Schedule = DefaultJanitorSchedule
	}

	j := &Janitor{
		cron:     cron.New(),
		registry: cfg.Metrics.Resolve(),
	}

	if _, err := j.cron.AddFunc(cfg.Schedule, j.sweep); err != nil {
		return nil, cferrors.NewValidationError("cache.janitor", "schedule", cfg.Schedule, err.Error())
	}
	return j, nil
}

// Attach registers a cache for periodic maintenance. Safe to call while
// the janitor is running; the cache joins the next sweep.
func (j *Janitor) Attach(c Maintainable) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.caches = append(j.caches, c)
}

// Start begins the maintenance schedule. Starting a running janitor is a
// no-op.
func (j *Janitor) Start() {
	j.mu.Lock()
	defer j.mu.Unlock()

	if j.running {
		return
	}
	j.cron.Start()
	j.running = true
}

// Stop halts the schedule and waits for an in-flight sweep to finish.
func (j *Janitor) Stop() {
	j.mu.Lock()
	if !j.running {
		j.mu.Unlock()
		return
	}
	j.running = false
	j.mu.Unlock()

	<-j.cron.Stop().Done()
}

// Sweep compacts every attached cache once and refreshes exported
// statistics. It is invoked on the cron schedule but may also be called
// directly for an immediate pass.
func (j *Janitor) Sweep() {
	j.sweep()
}

func (j *Janitor) sweep() {
	j.mu.Lock()
	caches := make([]Maintainable, len(j.caches))
	copy(caches, j.caches)
	j.mu.Unlock()

	for _, c := range caches {
		c.Compact()

		if j.registry == nil {
			continue
		}
		st := c.Stats()
		j.registry.CacheSize.WithLabelValues(c.Name()).Set(float64(st.Size))
		j.registry.CacheHitRate.WithLabelValues(c.Name()).Set(st.HitRate)
	}
}
