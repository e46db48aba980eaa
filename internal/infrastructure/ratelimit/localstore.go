package ratelimit

import (
	"context"
	"strings"
	"sync"
	"time"

	domain "github.com/campusportal/admission/internal/domain/ratelimit"
	"github.com/campusportal/admission/internal/shared/biztime"
)

// LocalStore is the in-process fallback used while the shared store is
// unreachable. It runs the same sliding window over a map of timestamp lists.
// Counts are per process, so during an outage the effective global limit is
// roughly limit times the number of running instances.
type LocalStore struct {
	mu      sync.Mutex
	windows map[string]*localWindow
	clock   biztime.Clock
}

type localWindow struct {
	stamps []time.Time
	window time.Duration
}

type LocalStoreOption func(*LocalStore)

// WithLocalClock overrides the time source.
func WithLocalClock(clock biztime.Clock) LocalStoreOption {
	return func(s *LocalStore) {
		s.clock = clock
	}
}

func NewLocalStore(opts ...LocalStoreOption) *LocalStore {
	s := &LocalStore{windows: make(map[string]*localWindow)}
	for _, opt := range opts {
		opt(s)
	}
	s.clock = s.clock.OrDefault()
	return s
}

// CheckAndRecord never reports unavailability.
func (s *LocalStore) CheckAndRecord(_ context.Context, key string, limit, windowSeconds, cost int) CheckOutcome {
	if cost < 1 {
		cost = 1
	}
	now := s.clock()
	window := biztime.Seconds(windowSeconds)
	windowStart := now.Add(-window)

	s.mu.Lock()
	defer s.mu.Unlock()

	w := s.windows[key]
	if w == nil {
		w = &localWindow{}
		s.windows[key] = w
	}
	w.window = window
	w.prune(windowStart)
	for i := 0; i < cost; i++ {
		w.stamps = append(w.stamps, now)
	}

	current := 0
	for _, ts := range w.stamps {
		if !ts.After(now) {
			current++
		}
	}

	return Served(domain.NewWindowResult(current, limit, windowSeconds, now))
}

func (s *LocalStore) ResetIdentifier(_ context.Context, identifier domain.Identifier, endpoint string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if endpoint != "" {
		key := domain.NewKey(identifier, endpoint).String()
		if _, ok := s.windows[key]; !ok {
			return 0, nil
		}
		delete(s.windows, key)
		return 1, nil
	}

	prefix := domain.IdentifierPrefix(identifier)
	removed := 0
	for key := range s.windows {
		if strings.HasPrefix(key, prefix) {
			delete(s.windows, key)
			removed++
		}
	}
	return removed, nil
}

// Sweep drops windows whose newest record has aged out, which is what TTL
// expiry does in the shared store. It returns the number of keys evicted.
func (s *LocalStore) Sweep() int {
	now := s.clock()

	s.mu.Lock()
	defer s.mu.Unlock()

	evicted := 0
	for key, w := range s.windows {
		w.prune(now.Add(-w.window))
		if len(w.stamps) == 0 {
			delete(s.windows, key)
			evicted++
		}
	}
	return evicted
}

// Len returns the number of tracked keys.
func (s *LocalStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.windows)
}

// prune removes records older than windowStart in place.
func (w *localWindow) prune(windowStart time.Time) {
	kept := w.stamps[:0]
	for _, ts := range w.stamps {
		if !ts.Before(windowStart) {
			kept = append(kept, ts)
		}
	}
	clear(w.stamps[len(kept):])
	w.stamps = kept
}
