package ratelimit

import (
	"context"

	domain "github.com/campusportal/admission/internal/domain/ratelimit"
)

// CheckOutcome is what a counter store reports for one check. A store that
// could not be reached says so through Unavailable instead of returning an
// error; Result is only meaningful when Available is true.
type CheckOutcome struct {
	Result      domain.WindowResult
	Unavailable error
}

// Served wraps a result computed by a reachable store.
func Served(result domain.WindowResult) CheckOutcome {
	return CheckOutcome{Result: result}
}

// Unavailable marks the store as unreachable for this check.
func Unavailable(err error) CheckOutcome {
	if err == nil {
		err = domain.ErrStoreUnavailable
	}
	return CheckOutcome{Unavailable: err}
}

func (o CheckOutcome) Available() bool {
	return o.Unavailable == nil
}

// CounterStore records quota units in a sliding window and resets windows.
type CounterStore interface {
	// CheckAndRecord records cost units for key at the current time and
	// returns the count observed in [now-window, now].
	CheckAndRecord(ctx context.Context, key string, limit, windowSeconds, cost int) CheckOutcome

	// ResetIdentifier deletes the window of one endpoint, or of every
	// endpoint when endpoint is empty. It returns the number of keys removed.
	ResetIdentifier(ctx context.Context, identifier domain.Identifier, endpoint string) (int, error)
}

// RateLimiter is the single seam through which quota decisions flow.
type RateLimiter interface {
	CheckLimit(ctx context.Context, key string, limit, windowSeconds, cost int) (domain.WindowResult, error)
	Check(ctx context.Context, key domain.Key, policy domain.Policy) (domain.WindowResult, error)
}

// ResultObserver inspects every decision made through Check.
type ResultObserver interface {
	Observe(ctx context.Context, key domain.Key, result domain.WindowResult)
}
