package ratelimit

import (
	"context"
	"fmt"
	"time"

	domain "github.com/campusportal/admission/internal/domain/ratelimit"
	"github.com/campusportal/admission/internal/shared/logger"
)

// Limiter asks the shared store first and falls back to the local store when
// the shared store is unavailable. Both paths produce the same WindowResult.
type Limiter struct {
	primary  CounterStore
	fallback CounterStore
	observer ResultObserver
	metrics  *Metrics
	logger   logger.Interface
}

var _ RateLimiter = (*Limiter)(nil)

type LimiterOption func(*Limiter)

// WithObserver attaches a side channel that sees every decision made by Check.
func WithObserver(observer ResultObserver) LimiterOption {
	return func(l *Limiter) {
		l.observer = observer
	}
}

func WithMetrics(metrics *Metrics) LimiterOption {
	return func(l *Limiter) {
		l.metrics = metrics
	}
}

func NewLimiter(primary, fallback CounterStore, log logger.Interface, opts ...LimiterOption) *Limiter {
	l := &Limiter{
		primary:  primary,
		fallback: fallback,
		logger:   log,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// CheckLimit records cost units against key and reports the decision.
// A cost below 1 counts as 1. The only error is an invalid limit or window;
// store outages are absorbed by the fallback.
func (l *Limiter) CheckLimit(ctx context.Context, key string, limit, windowSeconds, cost int) (domain.WindowResult, error) {
	if cost < 1 {
		cost = 1
	}
	if err := (domain.Policy{Limit: limit, WindowSeconds: windowSeconds, Cost: cost}).Validate(); err != nil {
		return domain.WindowResult{}, fmt.Errorf("check %s: %w", key, err)
	}

	start := time.Now()
	outcome := l.primary.CheckAndRecord(ctx, key, limit, windowSeconds, cost)
	if outcome.Available() {
		l.metrics.ObserveDecision(BackendDistributed, outcome.Result, time.Since(start))
		return outcome.Result, nil
	}

	l.logger.Warnw("distributed rate limit store unavailable, using local fallback",
		"key", key,
		"error", outcome.Unavailable,
	)
	l.metrics.IncFallback()

	start = time.Now()
	outcome = l.fallback.CheckAndRecord(ctx, key, limit, windowSeconds, cost)
	if !outcome.Available() {
		// The local store cannot fail; fail open if a custom one does.
		l.logger.Errorw("local rate limit store unavailable, admitting request",
			"key", key,
			"error", outcome.Unavailable,
		)
		return domain.NewWindowResult(0, limit, windowSeconds, time.Now()), nil
	}
	l.metrics.ObserveDecision(BackendLocal, outcome.Result, time.Since(start))
	return outcome.Result, nil
}

// Check applies policy to key and hands the result to the observer.
func (l *Limiter) Check(ctx context.Context, key domain.Key, policy domain.Policy) (domain.WindowResult, error) {
	result, err := l.CheckLimit(ctx, key.String(), policy.Limit, policy.WindowSeconds, policy.Cost)
	if err != nil {
		return result, err
	}
	if l.observer != nil {
		l.observer.Observe(ctx, key, result)
	}
	return result, nil
}
