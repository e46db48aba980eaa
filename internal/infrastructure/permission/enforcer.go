package permission

import (
	"fmt"
	"sync"

	"github.com/casbin/casbin/v2"
	"github.com/casbin/casbin/v2/model"

	"github.com/campusportal/admission/internal/shared/logger"
)

// Resources and actions guarded by the admin interface.
const (
	ResourceAbuseAlerts = "ratelimit:alerts"
	ResourceRateLimits  = "ratelimit:limits"

	ActionRead  = "read"
	ActionClear = "clear"
)

// rbacModel grants a subject what any of its roles is granted.
const rbacModel = `
[request_definition]
r = sub, obj, act

[policy_definition]
p = sub, obj, act

[role_definition]
g = _, _

[policy_effect]
e = some(where (p.eft == allow))

[matchers]
m = g(r.sub, p.sub) && r.obj == p.obj && r.act == p.act
`

// DefaultPolicies apply when the configuration provides none.
var DefaultPolicies = [][]string{
	{"admin", ResourceAbuseAlerts, ActionRead},
	{"admin", ResourceRateLimits, ActionClear},
	{"operator", ResourceAbuseAlerts, ActionRead},
}

type Enforcer struct {
	enforcer *casbin.Enforcer
	mu       sync.RWMutex
	logger   logger.Interface
}

// NewEnforcer builds an in-memory enforcer from policy lines (sub, obj, act)
// and role lines (subject, role).
func NewEnforcer(policies, roles [][]string, log logger.Interface) (*Enforcer, error) {
	m, err := model.NewModelFromString(rbacModel)
	if err != nil {
		return nil, fmt.Errorf("failed to parse casbin model: %w", err)
	}

	enforcer, err := casbin.NewEnforcer(m)
	if err != nil {
		return nil, fmt.Errorf("failed to create casbin enforcer: %w", err)
	}

	if len(policies) == 0 {
		policies = DefaultPolicies
	}
	for _, policy := range policies {
		if len(policy) != 3 {
			return nil, fmt.Errorf("invalid policy %v: want subject, resource, action", policy)
		}
		if _, err := enforcer.AddPolicy(policy[0], policy[1], policy[2]); err != nil {
			return nil, fmt.Errorf("failed to add policy %v: %w", policy, err)
		}
	}

	for _, role := range roles {
		if len(role) != 2 {
			return nil, fmt.Errorf("invalid role binding %v: want subject, role", role)
		}
		if _, err := enforcer.AddRoleForUser(role[0], role[1]); err != nil {
			return nil, fmt.Errorf("failed to add role binding %v: %w", role, err)
		}
	}

	log.Infow("permission enforcer initialized",
		"policies", len(policies),
		"role_bindings", len(roles),
	)

	return &Enforcer{
		enforcer: enforcer,
		logger:   log,
	}, nil
}

// Enforce reports whether any of subjects may perform action on resource.
// Callers pass the user id first and its token role second.
func (e *Enforcer) Enforce(resource, action string, subjects ...string) (bool, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()

	for _, subject := range subjects {
		if subject == "" {
			continue
		}
		allowed, err := e.enforcer.Enforce(subject, resource, action)
		if err != nil {
			e.logger.Errorw("permission check failed", "error", err, "subject", subject, "resource", resource, "action", action)
			return false, fmt.Errorf("permission check failed: %w", err)
		}
		if allowed {
			return true, nil
		}
	}

	return false, nil
}

func (e *Enforcer) AddRoleForUser(userID string, role string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if _, err := e.enforcer.AddRoleForUser(userID, role); err != nil {
		e.logger.Errorw("failed to add role for user", "error", err, "user_id", userID, "role", role)
		return fmt.Errorf("failed to add role for user: %w", err)
	}
	return nil
}

func (e *Enforcer) GetRolesForUser(userID string) ([]string, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()

	roles, err := e.enforcer.GetRolesForUser(userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get roles for user: %w", err)
	}

	return roles, nil
}
