package http

import (
	"context"
	"fmt"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/campusportal/admission/internal/infrastructure/config"
	"github.com/campusportal/admission/internal/interfaces/http/middleware"
	"github.com/campusportal/admission/internal/interfaces/http/routes"
	"github.com/campusportal/admission/internal/shared/logger"
)

// Router represents the HTTP router configuration
type Router struct {
	container *Container
}

// NewRouter creates a new HTTP router with all dependencies
func NewRouter(cfg *config.Config, redisClient *redis.Client, log logger.Interface) (*Router, error) {
	container, err := NewContainer(cfg, redisClient, log)
	if err != nil {
		return nil, err
	}

	if err := container.engine.SetTrustedProxies(cfg.Server.TrustedProxies); err != nil {
		return nil, fmt.Errorf("invalid trusted proxies: %w", err)
	}

	return &Router{container: container}, nil
}

// SetupRoutes configures all HTTP routes
func (r *Router) SetupRoutes() {
	c := r.container

	c.engine.Use(middleware.CustomLogger(c.log))
	c.engine.Use(middleware.Recovery(c.log))
	c.engine.Use(middleware.CORS(c.cfg.Server.AllowedOrigins))

	c.engine.GET("/health", c.healthHandler.Check)
	c.engine.GET("/metrics", gin.WrapH(promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})))

	routes.SetupAdmissionRoutes(c.engine, &routes.AdmissionRouteConfig{
		AdmissionHandler:    c.admissionHandler,
		AuthMiddleware:      c.authMiddleware,
		RateLimitMiddleware: c.rateLimitMiddleware,
	})

	routes.SetupRateLimitAdminRoutes(c.engine, &routes.RateLimitAdminRouteConfig{
		RateLimitAdminHandler: c.rateLimitAdminHandler,
		AuthMiddleware:        c.authMiddleware,
		PermissionMiddleware:  c.permissionMiddleware,
	})
}

// Start launches background jobs owned by the router's container.
func (r *Router) Start() error {
	return r.container.Start()
}

// GetEngine returns the Gin engine
func (r *Router) GetEngine() *gin.Engine {
	return r.container.engine
}

// Shutdown gracefully shuts down background jobs
func (r *Router) Shutdown(ctx context.Context) {
	r.container.Shutdown(ctx)
}
