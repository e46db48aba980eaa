package middleware

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	domain "github.com/campusportal/admission/internal/domain/ratelimit"
	"github.com/campusportal/admission/internal/shared/constants"
	"github.com/campusportal/admission/internal/shared/logger"
)

// CustomLogger logs one line per request with the admission decision that
// applied to it. Throttled requests are expected traffic and log at info.
func CustomLogger(log logger.Interface) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		status := c.Writer.Status()
		args := []any{
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", status,
			"latency", time.Since(start),
			"client_ip", c.ClientIP(),
		}

		if requestID := c.GetHeader(constants.HeaderXRequestID); requestID != "" {
			args = append(args, "request_id", requestID)
		}
		if userID := c.GetString(constants.ContextKeyUserID); userID != "" {
			args = append(args, "user_id", userID)
		}
		if endpoint := c.GetString(constants.ContextKeyRateLimitEndpoint); endpoint != "" {
			args = append(args, "ratelimit_endpoint", endpoint)
		}
		if v, exists := c.Get(constants.ContextKeyRateLimit); exists {
			if result, ok := v.(domain.WindowResult); ok {
				args = append(args,
					"quota_current", result.Current,
					"quota_remaining", result.Remaining,
				)
			}
		}

		switch {
		case status >= http.StatusInternalServerError:
			log.Errorw("request failed", args...)
		case status == http.StatusTooManyRequests:
			log.Infow("request throttled", args...)
		case status >= http.StatusBadRequest:
			log.Warnw("request rejected", args...)
		default:
			log.Debugw("request completed", args...)
		}
	}
}
