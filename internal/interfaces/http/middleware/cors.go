package middleware

import (
	"net/http"
	"slices"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/campusportal/admission/internal/shared/constants"
)

// exposedHeaders lets browser clients of the portal read their quota.
var exposedHeaders = strings.Join([]string{
	constants.HeaderRateLimitLimit,
	constants.HeaderRateLimitRemaining,
	constants.HeaderRateLimitReset,
	constants.HeaderRetryAfter,
	constants.HeaderXRequestID,
}, ", ")

// CORS returns a Gin middleware for handling Cross-Origin Resource Sharing.
// Origins outside allowedOrigins get an empty Allow-Origin and are rejected
// by the browser.
func CORS(allowedOrigins []string) gin.HandlerFunc {
	return func(c *gin.Context) {
		origin := c.Request.Header.Get("Origin")

		if slices.Contains(allowedOrigins, origin) {
			c.Header("Access-Control-Allow-Origin", origin)
			c.Header("Vary", "Origin")
		}
		c.Header("Access-Control-Allow-Credentials", "true")
		c.Header("Access-Control-Allow-Headers", "Content-Type, Authorization, Accept, Origin, X-Request-ID")
		c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, PATCH, OPTIONS")
		c.Header("Access-Control-Expose-Headers", exposedHeaders)
		c.Header("Access-Control-Max-Age", "86400")

		// Preflights never consume quota.
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}

// SecurityHeaders sets response headers for the JSON admin API.
func SecurityHeaders() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("X-Content-Type-Options", "nosniff")
		c.Header("X-Frame-Options", "DENY")
		c.Header("Referrer-Policy", "no-referrer")
		c.Header("Cache-Control", "no-store")

		c.Next()
	}
}
