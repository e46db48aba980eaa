package ratelimit

import "time"

// WindowResult is the outcome of one admission check. Every backing store
// produces it through NewWindowResult so consumers never see a difference.
type WindowResult struct {
	Allowed    bool      `json:"allowed"`
	Current    int       `json:"current"`
	Limit      int       `json:"limit"`
	Remaining  int       `json:"remaining"`
	ResetAt    time.Time `json:"reset_at"`
	RetryAfter *int      `json:"retry_after"`
}

// NewWindowResult derives the decision from the count observed after recording.
// remaining is max(0, limit-current) and RetryAfter is set only on denial.
func NewWindowResult(current, limit, windowSeconds int, now time.Time) WindowResult {
	result := WindowResult{
		Allowed:   current <= limit,
		Current:   current,
		Limit:     limit,
		Remaining: max(0, limit-current),
		ResetAt:   now.Add(time.Duration(windowSeconds) * time.Second),
	}
	if !result.Allowed {
		retryAfter := windowSeconds
		result.RetryAfter = &retryAfter
	}
	return result
}

// RetryAfterSeconds returns RetryAfter or 0 when the request was allowed.
func (r WindowResult) RetryAfterSeconds() int {
	if r.RetryAfter == nil {
		return 0
	}
	return *r.RetryAfter
}
