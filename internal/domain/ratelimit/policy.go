package ratelimit

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

var policyValidate = validator.New()

// Policy is the quota applied to one endpoint: Limit units per WindowSeconds,
// each call consuming Cost units.
type Policy struct {
	Limit         int `validate:"gt=0"`
	WindowSeconds int `validate:"gt=0"`
	Cost          int `validate:"gte=1"`
}

func (p Policy) Window() time.Duration {
	return time.Duration(p.WindowSeconds) * time.Second
}

// Validate rejects policies with a missing or non-positive limit, window or cost.
func (p Policy) Validate() error {
	if err := policyValidate.Struct(p); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidPolicy, err)
	}
	return nil
}

// PolicyTable maps endpoint names to their policies. It is built once at
// startup and read-only afterwards.
type PolicyTable map[string]Policy

// NewPolicyTable validates every entry. A zero Cost defaults to 1; anything
// else invalid fails the whole table.
func NewPolicyTable(policies map[string]Policy) (PolicyTable, error) {
	table := make(PolicyTable, len(policies))
	var problems []string

	for _, endpoint := range sortedEndpoints(policies) {
		policy := policies[endpoint]
		if policy.Cost == 0 {
			policy.Cost = 1
		}
		if strings.TrimSpace(endpoint) == "" {
			problems = append(problems, "empty endpoint name")
			continue
		}
		if err := policy.Validate(); err != nil {
			problems = append(problems, fmt.Sprintf("endpoint %q: %v", endpoint, err))
			continue
		}
		table[endpoint] = policy
	}

	if len(problems) > 0 {
		return nil, fmt.Errorf("%w: %s", ErrInvalidPolicy, strings.Join(problems, "; "))
	}
	return table, nil
}

// Lookup returns the policy for endpoint.
func (t PolicyTable) Lookup(endpoint string) (Policy, error) {
	policy, ok := t[endpoint]
	if !ok {
		return Policy{}, fmt.Errorf("%w: %q", ErrUnknownEndpoint, endpoint)
	}
	return policy, nil
}

func sortedEndpoints(policies map[string]Policy) []string {
	endpoints := make([]string, 0, len(policies))
	for endpoint := range policies {
		endpoints = append(endpoints, endpoint)
	}
	sort.Strings(endpoints)
	return endpoints
}
