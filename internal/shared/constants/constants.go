package constants

const (
	// Environment constants
	EnvDevelopment = "development"
	EnvTest        = "test"
	EnvProduction  = "production"

	// HTTP Headers
	HeaderAuthorization = "Authorization"
	HeaderXRequestID    = "X-Request-ID"

	// Rate limit headers
	HeaderRateLimitLimit     = "X-RateLimit-Limit"
	HeaderRateLimitRemaining = "X-RateLimit-Remaining"
	HeaderRateLimitReset     = "X-RateLimit-Reset"
	HeaderRetryAfter         = "Retry-After"

	// Context keys
	ContextKeyUserID            = "user_id"
	ContextKeyUserRole          = "user_role"
	ContextKeyRateLimit         = "rate_limit"
	ContextKeyRateLimitEndpoint = "rate_limit_endpoint"
)
