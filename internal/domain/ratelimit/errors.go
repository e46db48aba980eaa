package ratelimit

import "errors"

var (
	ErrStoreUnavailable  = errors.New("rate limit store unavailable")
	ErrInvalidPolicy     = errors.New("invalid rate limit policy")
	ErrUnknownEndpoint   = errors.New("no rate limit policy for endpoint")
	ErrInvalidIdentifier = errors.New("invalid rate limit identifier")
)
