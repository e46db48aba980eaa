package routes

import (
	"github.com/gin-gonic/gin"

	"github.com/campusportal/admission/internal/infrastructure/permission"
	"github.com/campusportal/admission/internal/interfaces/http/handlers"
	"github.com/campusportal/admission/internal/interfaces/http/middleware"
)

// AdmissionRouteConfig holds dependencies for the forward-auth decision route.
type AdmissionRouteConfig struct {
	AdmissionHandler    *handlers.AdmissionHandler
	AuthMiddleware      *middleware.AuthMiddleware
	RateLimitMiddleware *middleware.RateLimitMiddleware
}

// SetupAdmissionRoutes configures the decision route a reverse proxy calls
// before forwarding a portal request. The proxy names the endpoint in the path.
func SetupAdmissionRoutes(engine *gin.Engine, cfg *AdmissionRouteConfig) {
	admission := engine.Group("/api/admission")
	admission.Use(cfg.AuthMiddleware.OptionalAuth())
	{
		admission.Any("/:endpoint", cfg.RateLimitMiddleware.Dispatch("endpoint"), cfg.AdmissionHandler.Admit)
	}
}

// RateLimitAdminRouteConfig holds dependencies for rate limit admin routes.
type RateLimitAdminRouteConfig struct {
	RateLimitAdminHandler *handlers.RateLimitAdminHandler
	AuthMiddleware        *middleware.AuthMiddleware
	PermissionMiddleware  *middleware.PermissionMiddleware
}

// SetupRateLimitAdminRoutes configures abuse alert and limit reset routes.
func SetupRateLimitAdminRoutes(engine *gin.Engine, cfg *RateLimitAdminRouteConfig) {
	rateLimits := engine.Group("/api/admin/rate-limits")
	rateLimits.Use(middleware.SecurityHeaders(), cfg.AuthMiddleware.RequireAuth())
	{
		rateLimits.GET("/alerts",
			cfg.PermissionMiddleware.RequirePermission(permission.ResourceAbuseAlerts, permission.ActionRead),
			cfg.RateLimitAdminHandler.ListAbuseAlerts)
		rateLimits.DELETE("/:identifier",
			cfg.PermissionMiddleware.RequirePermission(permission.ResourceRateLimits, permission.ActionClear),
			cfg.RateLimitAdminHandler.ClearRateLimit)
	}
}
