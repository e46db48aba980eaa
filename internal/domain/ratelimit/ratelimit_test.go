package ratelimit

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveIdentifier(t *testing.T) {
	assert.Equal(t, "user:42", ResolveIdentifier("42", "10.0.0.1").String())
	assert.Equal(t, "ip:10.0.0.1", ResolveIdentifier("", "10.0.0.1").String())
	assert.Equal(t, "ip:2001:db8::1", ResolveIdentifier("  ", "2001:db8::1").String())
}

func TestParseIdentifier(t *testing.T) {
	id, err := ParseIdentifier("ip:2001:db8::1")
	require.NoError(t, err)
	assert.Equal(t, Identifier{Scope: ScopeIP, Value: "2001:db8::1"}, id)

	id, err = ParseIdentifier("user:abc-123")
	require.NoError(t, err)
	assert.Equal(t, ScopeUser, id.Scope)

	for _, bad := range []string{"", "user:", "42", "tenant:7"} {
		_, err := ParseIdentifier(bad)
		assert.ErrorIs(t, err, ErrInvalidIdentifier, bad)
	}
}

func TestKeySerialization(t *testing.T) {
	key := NewKey(Identifier{Scope: ScopeUser, Value: "42"}, "ai_generate")

	assert.Equal(t, "ratelimit:user:{42}:ai_generate", key.String())
	assert.Equal(t, "ratelimit:user:{42}:*", IdentifierPattern(key.Identifier))
	assert.Equal(t, `ratelimit:ip:{weird\*\[x\]}:*`, IdentifierPattern(Identifier{Scope: ScopeIP, Value: "weird*[x]"}))
	assert.Equal(t, `ratelimit:user:{a\\{b\\}}:*`, IdentifierPattern(Identifier{Scope: ScopeUser, Value: "a{b}"}))
}

func TestIdentifierPrefixIsUnambiguous(t *testing.T) {
	short := Identifier{Scope: ScopeIP, Value: "2001:db8::1"}
	long := Identifier{Scope: ScopeIP, Value: "2001:db8::1:5"}

	assert.Equal(t, "ratelimit:ip:{2001:db8::1}:login", NewKey(short, "login").String())
	assert.False(t, strings.HasPrefix(NewKey(long, "login").String(), IdentifierPrefix(short)))
	assert.False(t, strings.HasPrefix(NewKey(short, "login").String(), IdentifierPrefix(long)))

	// A brace inside a value cannot close the segment early.
	tricky := Identifier{Scope: ScopeUser, Value: "x}:y"}
	other := Identifier{Scope: ScopeUser, Value: "x"}
	assert.False(t, strings.HasPrefix(NewKey(tricky, "login").String(), IdentifierPrefix(other)))
}

func TestNewWindowResultInvariants(t *testing.T) {
	now := time.Date(2025, 5, 1, 12, 0, 0, 0, time.UTC)

	for current := 0; current <= 8; current++ {
		r := NewWindowResult(current, 4, 10, now)

		assert.Equal(t, current <= 4, r.Allowed, "current=%d", current)
		assert.Equal(t, max(0, 4-current), r.Remaining, "current=%d", current)
		assert.Equal(t, now.Add(10*time.Second), r.ResetAt)
		if r.Allowed {
			assert.Nil(t, r.RetryAfter)
			assert.Equal(t, 0, r.RetryAfterSeconds())
		} else {
			require.NotNil(t, r.RetryAfter)
			assert.Equal(t, 10, *r.RetryAfter)
		}
	}
}

func TestClassifyOverage(t *testing.T) {
	tests := []struct {
		current  int
		severity Severity
		abusive  bool
	}{
		{100, "", false},
		{150, "", false},
		{151, SeverityMedium, true},
		{200, SeverityMedium, true},
		{201, SeverityHigh, true},
	}

	for _, tt := range tests {
		severity, abusive := ClassifyOverage(tt.current, 100, DefaultAbuseRatio, DefaultHighRatio)
		assert.Equal(t, tt.abusive, abusive, "current=%d", tt.current)
		assert.Equal(t, tt.severity, severity, "current=%d", tt.current)
	}

	_, abusive := ClassifyOverage(10, 0, DefaultAbuseRatio, DefaultHighRatio)
	assert.False(t, abusive)
}

func TestNewPolicyTable(t *testing.T) {
	table, err := NewPolicyTable(map[string]Policy{
		"login":       {Limit: 5, WindowSeconds: 60},
		"ai_generate": {Limit: 100, WindowSeconds: 3600, Cost: 5},
	})
	require.NoError(t, err)

	login, err := table.Lookup("login")
	require.NoError(t, err)
	assert.Equal(t, 1, login.Cost)
	assert.Equal(t, time.Minute, login.Window())

	_, err = table.Lookup("missing")
	assert.ErrorIs(t, err, ErrUnknownEndpoint)
}

func TestNewPolicyTable_RejectsInvalid(t *testing.T) {
	tests := map[string]map[string]Policy{
		"missing limit":  {"login": {WindowSeconds: 60}},
		"missing window": {"login": {Limit: 5}},
		"negative cost":  {"login": {Limit: 5, WindowSeconds: 60, Cost: -1}},
		"empty endpoint": {"": {Limit: 5, WindowSeconds: 60}},
	}

	for name, policies := range tests {
		t.Run(name, func(t *testing.T) {
			table, err := NewPolicyTable(policies)
			assert.ErrorIs(t, err, ErrInvalidPolicy)
			assert.Nil(t, table)
		})
	}
}
