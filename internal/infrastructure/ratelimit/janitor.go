package ratelimit

import (
	"fmt"
	"sync"

	"github.com/robfig/cron/v3"

	"github.com/campusportal/admission/internal/shared/logger"
)

const DefaultSweepSchedule = "@every 1m"

// FallbackJanitor periodically evicts idle windows from the local store so
// a long outage with many distinct callers cannot grow memory without bound.
type FallbackJanitor struct {
	store    *LocalStore
	schedule string
	cron     *cron.Cron
	metrics  *Metrics
	logger   logger.Interface

	mu      sync.Mutex
	running bool
}

func NewFallbackJanitor(store *LocalStore, schedule string, metrics *Metrics, log logger.Interface) *FallbackJanitor {
	if schedule == "" {
		schedule = DefaultSweepSchedule
	}
	return &FallbackJanitor{
		store:    store,
		schedule: schedule,
		cron:     cron.New(),
		metrics:  metrics,
		logger:   log,
	}
}

// Start validates the schedule and begins sweeping in the background.
func (j *FallbackJanitor) Start() error {
	j.mu.Lock()
	defer j.mu.Unlock()

	if j.running {
		return nil
	}

	if _, err := j.cron.AddFunc(j.schedule, j.RunOnce); err != nil {
		return fmt.Errorf("invalid fallback sweep schedule %q: %w", j.schedule, err)
	}

	j.cron.Start()
	j.running = true
	j.logger.Infow("fallback janitor started", "schedule", j.schedule)
	return nil
}

// RunOnce performs a single sweep.
func (j *FallbackJanitor) RunOnce() {
	evicted := j.store.Sweep()
	remaining := j.store.Len()
	j.metrics.SetLocalKeys(remaining)

	if evicted > 0 {
		j.logger.Debugw("fallback janitor evicted idle windows",
			"evicted", evicted,
			"remaining", remaining,
		)
	}
}

// Stop halts the schedule and waits for a running sweep to finish.
func (j *FallbackJanitor) Stop() {
	j.mu.Lock()
	defer j.mu.Unlock()

	if !j.running {
		return
	}
	<-j.cron.Stop().Done()
	j.running = false
	j.logger.Infow("fallback janitor stopped")
}
