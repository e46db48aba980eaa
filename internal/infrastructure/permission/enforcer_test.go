package permission

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/campusportal/admission/internal/shared/logger"
)

func TestEnforcer_DefaultPolicies(t *testing.T) {
	e, err := NewEnforcer(nil, nil, logger.NewNopLogger())
	require.NoError(t, err)

	tests := []struct {
		name     string
		subjects []string
		resource string
		action   string
		want     bool
	}{
		{"admin reads alerts", []string{"u1", "admin"}, ResourceAbuseAlerts, ActionRead, true},
		{"admin clears limits", []string{"u1", "admin"}, ResourceRateLimits, ActionClear, true},
		{"operator reads alerts", []string{"u2", "operator"}, ResourceAbuseAlerts, ActionRead, true},
		{"operator cannot clear", []string{"u2", "operator"}, ResourceRateLimits, ActionClear, false},
		{"user cannot read alerts", []string{"u3", "user"}, ResourceAbuseAlerts, ActionRead, false},
		{"no subjects", nil, ResourceAbuseAlerts, ActionRead, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			allowed, err := e.Enforce(tt.resource, tt.action, tt.subjects...)
			require.NoError(t, err)
			assert.Equal(t, tt.want, allowed)
		})
	}
}

func TestEnforcer_RoleBindings(t *testing.T) {
	e, err := NewEnforcer(nil, [][]string{{"registrar-7", "admin"}}, logger.NewNopLogger())
	require.NoError(t, err)

	allowed, err := e.Enforce(ResourceRateLimits, ActionClear, "registrar-7", "user")
	require.NoError(t, err)
	assert.True(t, allowed)

	require.NoError(t, e.AddRoleForUser("ta-3", "operator"))
	roles, err := e.GetRolesForUser("ta-3")
	require.NoError(t, err)
	assert.Equal(t, []string{"operator"}, roles)

	allowed, err = e.Enforce(ResourceAbuseAlerts, ActionRead, "ta-3")
	require.NoError(t, err)
	assert.True(t, allowed)
}

func TestEnforcer_CustomPolicies(t *testing.T) {
	e, err := NewEnforcer([][]string{{"security", ResourceAbuseAlerts, ActionRead}}, nil, logger.NewNopLogger())
	require.NoError(t, err)

	allowed, err := e.Enforce(ResourceAbuseAlerts, ActionRead, "u1", "admin")
	require.NoError(t, err)
	assert.False(t, allowed)

	allowed, err = e.Enforce(ResourceAbuseAlerts, ActionRead, "security")
	require.NoError(t, err)
	assert.True(t, allowed)
}

func TestEnforcer_RejectsMalformedLines(t *testing.T) {
	_, err := NewEnforcer([][]string{{"admin", ResourceAbuseAlerts}}, nil, logger.NewNopLogger())
	assert.Error(t, err)

	_, err = NewEnforcer(nil, [][]string{{"only-subject"}}, logger.NewNopLogger())
	assert.Error(t, err)
}
