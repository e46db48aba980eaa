package ratelimit

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	domain "github.com/campusportal/admission/internal/domain/ratelimit"
	"github.com/campusportal/admission/internal/shared/biztime"
)

// fakeClock is a manually advanced time source.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func (c *fakeClock) Clock() biztime.Clock {
	return c.Now
}

func setupTestRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{
		Addr:       mr.Addr(),
		MaxRetries: -1,
	})
	t.Cleanup(func() {
		client.Close()
	})

	return mr, client
}

// stubStore is a CounterStore whose availability is switched by tests.
type stubStore struct {
	mu     sync.Mutex
	down   error
	block  bool
	calls  int
	resets int
	result domain.WindowResult
}

func (s *stubStore) setDown(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.down = err
}

func (s *stubStore) callCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

func (s *stubStore) CheckAndRecord(ctx context.Context, key string, limit, windowSeconds, cost int) CheckOutcome {
	s.mu.Lock()
	s.calls++
	down, block, result := s.down, s.block, s.result
	s.mu.Unlock()

	if block {
		<-ctx.Done()
		return Unavailable(ctx.Err())
	}
	if down != nil {
		return Unavailable(down)
	}
	return Served(result)
}

func (s *stubStore) ResetIdentifier(ctx context.Context, identifier domain.Identifier, endpoint string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.resets++
	if s.down != nil {
		return 0, s.down
	}
	return 1, nil
}

type recordingObserver struct {
	mu      sync.Mutex
	keys    []domain.Key
	results []domain.WindowResult
}

func (o *recordingObserver) Observe(_ context.Context, key domain.Key, result domain.WindowResult) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.keys = append(o.keys, key)
	o.results = append(o.results, result)
}
