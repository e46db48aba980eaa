package middleware

import (
	"github.com/gin-gonic/gin"

	domain "github.com/campusportal/admission/internal/domain/ratelimit"
	"github.com/campusportal/admission/internal/shared/constants"
)

// ResolveIdentifier picks the rate-limit subject of the request: the user
// set by the auth middleware, otherwise the client address as resolved by
// gin's trusted proxy settings.
func ResolveIdentifier(c *gin.Context) domain.Identifier {
	return domain.ResolveIdentifier(c.GetString(constants.ContextKeyUserID), c.ClientIP())
}
