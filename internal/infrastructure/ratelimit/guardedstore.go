package ratelimit

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sony/gobreaker/v2"

	domain "github.com/campusportal/admission/internal/domain/ratelimit"
	"github.com/campusportal/admission/internal/shared/logger"
)

const (
	DefaultStoreTimeout     = 100 * time.Millisecond
	DefaultFailureThreshold = 5
	DefaultBreakerCooldown  = 30 * time.Second

	// resets scan the keyspace and get more room than a single check
	resetTimeout = 5 * time.Second
)

// GuardOptions bounds calls into the shared store.
type GuardOptions struct {
	// Timeout caps every round trip. A timeout counts as unavailability.
	Timeout time.Duration
	// FailureThreshold is the number of consecutive failures that opens the breaker.
	FailureThreshold uint32
	// Cooldown is how long the breaker stays open before probing again.
	Cooldown time.Duration
}

func (o GuardOptions) withDefaults() GuardOptions {
	if o.Timeout <= 0 {
		o.Timeout = DefaultStoreTimeout
	}
	if o.FailureThreshold == 0 {
		o.FailureThreshold = DefaultFailureThreshold
	}
	if o.Cooldown <= 0 {
		o.Cooldown = DefaultBreakerCooldown
	}
	return o
}

// GuardedStore puts a timeout and a circuit breaker in front of another
// store. While the breaker is open, checks are reported unavailable without
// touching the network so the limiter goes straight to its fallback.
type GuardedStore struct {
	next    CounterStore
	breaker *gobreaker.CircuitBreaker[domain.WindowResult]
	timeout time.Duration
	logger  logger.Interface
}

func NewGuardedStore(next CounterStore, opts GuardOptions, log logger.Interface, metrics *Metrics) *GuardedStore {
	opts = opts.withDefaults()
	g := &GuardedStore{
		next:    next,
		timeout: opts.Timeout,
		logger:  log,
	}
	metrics.SetBreakerState(gobreaker.StateClosed)
	g.breaker = gobreaker.NewCircuitBreaker[domain.WindowResult](gobreaker.Settings{
		Name:        "ratelimit-store",
		MaxRequests: 1,
		Timeout:     opts.Cooldown,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= opts.FailureThreshold
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			metrics.SetBreakerState(to)
			log.Warnw("rate limit store breaker changed state",
				"breaker", name,
				"from", from.String(),
				"to", to.String(),
			)
		},
	})
	return g
}

func (g *GuardedStore) CheckAndRecord(ctx context.Context, key string, limit, windowSeconds, cost int) CheckOutcome {
	result, err := g.breaker.Execute(func() (domain.WindowResult, error) {
		// A client that hangs up must not count as a store failure, so only
		// the store timeout bounds the call.
		callCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), g.timeout)
		defer cancel()

		outcome := g.next.CheckAndRecord(callCtx, key, limit, windowSeconds, cost)
		if !outcome.Available() {
			return domain.WindowResult{}, outcome.Unavailable
		}
		return outcome.Result, nil
	})
	if err != nil {
		if errors.Is(err, domain.ErrStoreUnavailable) {
			return Unavailable(err)
		}
		// breaker rejections and deadline errors
		return Unavailable(fmt.Errorf("%w: %w", domain.ErrStoreUnavailable, err))
	}
	return Served(result)
}

// ResetIdentifier bypasses the breaker so an admin reset always reaches the
// store when it is up.
func (g *GuardedStore) ResetIdentifier(ctx context.Context, identifier domain.Identifier, endpoint string) (int, error) {
	callCtx, cancel := context.WithTimeout(ctx, max(g.timeout, resetTimeout))
	defer cancel()
	return g.next.ResetIdentifier(callCtx, identifier, endpoint)
}

// State returns the breaker state name: closed, half-open or open.
func (g *GuardedStore) State() string {
	return g.breaker.State().String()
}
