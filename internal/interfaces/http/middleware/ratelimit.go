package middleware

import (
	"fmt"
	"strconv"

	"github.com/gin-gonic/gin"

	domain "github.com/campusportal/admission/internal/domain/ratelimit"
	infraratelimit "github.com/campusportal/admission/internal/infrastructure/ratelimit"
	"github.com/campusportal/admission/internal/shared/constants"
	"github.com/campusportal/admission/internal/shared/errors"
	"github.com/campusportal/admission/internal/shared/logger"
	"github.com/campusportal/admission/internal/shared/utils"
)

const throttledMessage = "rate limit exceeded, please try again later"

// RateLimitMiddleware enforces per-endpoint quotas. It is built once from a
// limiter and a validated policy table; every invocation consumes quota,
// including the ones that end up denied.
type RateLimitMiddleware struct {
	limiter  infraratelimit.RateLimiter
	policies domain.PolicyTable
	logger   logger.Interface
}

func NewRateLimitMiddleware(limiter infraratelimit.RateLimiter, policies domain.PolicyTable, logger logger.Interface) *RateLimitMiddleware {
	return &RateLimitMiddleware{
		limiter:  limiter,
		policies: policies,
		logger:   logger,
	}
}

// For returns the handler enforcing the policy registered for endpoint.
// An endpoint without a policy is a configuration error.
func (m *RateLimitMiddleware) For(endpoint string) (gin.HandlerFunc, error) {
	policy, err := m.policies.Lookup(endpoint)
	if err != nil {
		return nil, errors.NewConfigurationError(
			fmt.Sprintf("rate limit policy missing for endpoint %q", endpoint),
		).WithCause(err)
	}
	return m.handler(endpoint, policy), nil
}

// Limit is For for route registration; it panics on a missing policy so a
// misconfigured server fails at startup.
func (m *RateLimitMiddleware) Limit(endpoint string) gin.HandlerFunc {
	h, err := m.For(endpoint)
	if err != nil {
		panic(err)
	}
	return h
}

// Dispatch enforces the policy named by the route parameter param. It backs
// the forward-auth endpoint, where the proxy in front of the portal names
// the endpoint being called. Unknown endpoints get a 404.
func (m *RateLimitMiddleware) Dispatch(param string) gin.HandlerFunc {
	handlers := make(map[string]gin.HandlerFunc, len(m.policies))
	for endpoint, policy := range m.policies {
		handlers[endpoint] = m.handler(endpoint, policy)
	}

	return func(c *gin.Context) {
		endpoint := c.Param(param)
		h, ok := handlers[endpoint]
		if !ok {
			utils.ErrorResponseWithError(c, errors.NewNotFoundError("no rate limit policy for endpoint", endpoint))
			c.Abort()
			return
		}
		h(c)
	}
}

func (m *RateLimitMiddleware) handler(endpoint string, policy domain.Policy) gin.HandlerFunc {
	return func(c *gin.Context) {
		key := domain.NewKey(ResolveIdentifier(c), endpoint)

		result, err := m.limiter.Check(c.Request.Context(), key, policy)
		if err != nil {
			m.logger.Errorw("rate limit check failed, admitting request",
				"endpoint", endpoint,
				"identifier", key.Identifier.String(),
				"error", err,
			)
			c.Next()
			return
		}

		c.Set(constants.ContextKeyRateLimit, result)
		c.Set(constants.ContextKeyRateLimitEndpoint, endpoint)
		setQuotaHeaders(c, result)

		if !result.Allowed {
			retryAfter := result.RetryAfterSeconds()
			c.Header(constants.HeaderRetryAfter, strconv.Itoa(retryAfter))

			m.logger.Warnw("rate limit exceeded",
				"endpoint", endpoint,
				"identifier", key.Identifier.String(),
				"current", result.Current,
				"limit", result.Limit,
			)

			utils.ThrottledResponse(c, throttledMessage,
				result.Limit, result.Remaining, result.ResetAt.Unix(), retryAfter)
			c.Abort()
			return
		}

		c.Next()
	}
}

func setQuotaHeaders(c *gin.Context, result domain.WindowResult) {
	c.Header(constants.HeaderRateLimitLimit, strconv.Itoa(result.Limit))
	c.Header(constants.HeaderRateLimitRemaining, strconv.Itoa(result.Remaining))
	c.Header(constants.HeaderRateLimitReset, strconv.FormatInt(result.ResetAt.Unix(), 10))
}
