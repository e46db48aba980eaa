package ratelimit

import (
	"fmt"
	"strings"
)

// Scope tells whether a subject was identified by account or by network address.
type Scope string

const (
	ScopeUser Scope = "user"
	ScopeIP   Scope = "ip"
)

// Identifier is the rate-limit subject, rendered as "user:<id>" or "ip:<address>".
type Identifier struct {
	Scope Scope
	Value string
}

// ResolveIdentifier picks the subject for a request: the authenticated user
// when there is one, otherwise the client address. It never fails.
func ResolveIdentifier(userID, clientIP string) Identifier {
	if userID = strings.TrimSpace(userID); userID != "" {
		return Identifier{Scope: ScopeUser, Value: userID}
	}
	return Identifier{Scope: ScopeIP, Value: clientIP}
}

func (i Identifier) String() string {
	return string(i.Scope) + ":" + i.Value
}

// ParseIdentifier parses the "scope:value" form used by the admin interface.
func ParseIdentifier(s string) (Identifier, error) {
	scope, value, ok := strings.Cut(strings.TrimSpace(s), ":")
	if !ok || value == "" {
		return Identifier{}, fmt.Errorf("%w: %q", ErrInvalidIdentifier, s)
	}
	switch Scope(scope) {
	case ScopeUser, ScopeIP:
		return Identifier{Scope: Scope(scope), Value: value}, nil
	default:
		return Identifier{}, fmt.Errorf("%w: unknown scope %q", ErrInvalidIdentifier, scope)
	}
}
