package http

import (
	"context"
	"fmt"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"

	appratelimit "github.com/campusportal/admission/internal/application/ratelimit"
	"github.com/campusportal/admission/internal/application/ratelimit/usecases"
	domain "github.com/campusportal/admission/internal/domain/ratelimit"
	"github.com/campusportal/admission/internal/infrastructure/auth"
	"github.com/campusportal/admission/internal/infrastructure/cache"
	"github.com/campusportal/admission/internal/infrastructure/config"
	"github.com/campusportal/admission/internal/infrastructure/permission"
	"github.com/campusportal/admission/internal/infrastructure/pubsub"
	infraratelimit "github.com/campusportal/admission/internal/infrastructure/ratelimit"
	"github.com/campusportal/admission/internal/interfaces/http/handlers"
	"github.com/campusportal/admission/internal/interfaces/http/middleware"
	"github.com/campusportal/admission/internal/shared/logger"
)

// Container holds all infrastructure components, use cases, handlers and
// background jobs. It is responsible for wiring everything together and
// providing a Shutdown() method for graceful termination.
type Container struct {
	// Core infrastructure
	engine   *gin.Engine
	cfg      *config.Config
	log      logger.Interface
	redis    *redis.Client
	registry *prometheus.Registry
	metrics  *infraratelimit.Metrics

	// Rate limiting
	policies      domain.PolicyTable
	redisStore    *infraratelimit.RedisStore
	guardedStore  *infraratelimit.GuardedStore
	localStore    *infraratelimit.LocalStore
	limiter       *infraratelimit.Limiter
	janitor       *infraratelimit.FallbackJanitor
	abuseDetector *appratelimit.AbuseDetector
	alertStore    *cache.AbuseAlertStore
	alertBus      *pubsub.RedisAbuseAlertBus
	adminService  *appratelimit.AdminService

	// Middlewares
	authMiddleware       *middleware.AuthMiddleware
	permissionMiddleware *middleware.PermissionMiddleware
	rateLimitMiddleware  *middleware.RateLimitMiddleware

	// Handlers
	rateLimitAdminHandler *handlers.RateLimitAdminHandler
	admissionHandler      *handlers.AdmissionHandler
	healthHandler         *handlers.HealthHandler
}

// NewContainer wires the admission layer. An invalid policy table or admin
// policy fails here so a misconfigured server never starts.
func NewContainer(cfg *config.Config, redisClient *redis.Client, log logger.Interface) (*Container, error) {
	c := &Container{
		engine: gin.New(),
		cfg:    cfg,
		log:    log,
		redis:  redisClient,
	}

	// Section 1: Metrics
	c.initMetrics()

	// Section 2: Limiter core, fallback and abuse detection
	if err := c.initRateLimiting(); err != nil {
		return nil, err
	}

	// Section 3: Admin use cases and authorization
	if err := c.initAdmin(); err != nil {
		return nil, err
	}

	// Section 4: Handlers
	c.initHandlers()

	return c, nil
}

func (c *Container) initMetrics() {
	c.registry = prometheus.NewRegistry()
	c.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	c.metrics = infraratelimit.NewMetrics(c.registry)
}

func (c *Container) initRateLimiting() error {
	policies, err := BuildPolicyTable(c.cfg)
	if err != nil {
		return err
	}
	c.policies = policies

	c.redisStore = infraratelimit.NewRedisStore(c.redis)
	c.guardedStore = infraratelimit.NewGuardedStore(c.redisStore, infraratelimit.GuardOptions{
		Timeout:          c.cfg.RateLimit.StoreTimeout(),
		FailureThreshold: uint32(max(c.cfg.RateLimit.BreakerFailureThreshold, 0)),
		Cooldown:         c.cfg.RateLimit.BreakerCooldown(),
	}, c.log.Named("ratelimit-breaker"), c.metrics)
	c.localStore = infraratelimit.NewLocalStore()
	c.janitor = infraratelimit.NewFallbackJanitor(c.localStore, c.cfg.RateLimit.FallbackSweepSchedule, c.metrics, c.log.Named("fallback-janitor"))

	c.alertStore = cache.NewAbuseAlertStore(c.redis, c.cfg.Abuse.ListCapacity, c.cfg.Abuse.TTL(), c.log.Named("abuse-alerts"))
	c.alertBus = pubsub.NewRedisAbuseAlertBus(c.redis, c.cfg.Abuse.Channel, c.log.Named("abuse-alert-bus"))
	c.abuseDetector = appratelimit.NewAbuseDetector(c.alertStore, appratelimit.DetectorConfig{
		AbuseRatio: c.cfg.Abuse.ThresholdRatio,
		HighRatio:  c.cfg.Abuse.HighRatio,
		Cooldown:   c.cfg.Abuse.Cooldown(),
	}, c.log.Named("abuse-detector"),
		appratelimit.WithSuppressor(cache.NewAlertDeduplicator(c.redis)),
		appratelimit.WithPublisher(c.alertBus),
		appratelimit.WithDetectorMetrics(c.metrics),
	)

	c.limiter = infraratelimit.NewLimiter(c.guardedStore, c.localStore, c.log.Named("limiter"),
		infraratelimit.WithObserver(c.abuseDetector),
		infraratelimit.WithMetrics(c.metrics),
	)
	c.rateLimitMiddleware = middleware.NewRateLimitMiddleware(c.limiter, c.policies, c.log.Named("ratelimit"))
	return nil
}

func (c *Container) initAdmin() error {
	c.adminService = appratelimit.NewAdminService(
		usecases.NewListAbuseAlertsUseCase(c.alertStore, c.log),
		usecases.NewClearRateLimitUseCase(c.guardedStore, c.localStore, cache.NewAlertDeduplicator(c.redis), c.log),
	)

	enforcer, err := permission.NewEnforcer(c.cfg.Admin.Policies, c.cfg.Admin.Roles, c.log.Named("permission"))
	if err != nil {
		return fmt.Errorf("failed to initialize admin permissions: %w", err)
	}

	jwtService := auth.NewJWTService(c.cfg.Auth.JWT.Secret, c.cfg.Auth.JWT.AccessExpMinutes)
	c.authMiddleware = middleware.NewAuthMiddleware(jwtService, c.log.Named("auth"))
	c.permissionMiddleware = middleware.NewPermissionMiddleware(enforcer, c.log)
	return nil
}

func (c *Container) initHandlers() {
	c.rateLimitAdminHandler = handlers.NewRateLimitAdminHandler(c.adminService, c.log)
	c.admissionHandler = handlers.NewAdmissionHandler()
	c.healthHandler = handlers.NewHealthHandler(c.redisStore, c.guardedStore)
}

// BuildPolicyTable validates the configured endpoint policies.
func BuildPolicyTable(cfg *config.Config) (domain.PolicyTable, error) {
	raw := make(map[string]domain.Policy, len(cfg.Policies))
	for endpoint, p := range cfg.Policies {
		raw[endpoint] = domain.Policy{
			Limit:         p.Limit,
			WindowSeconds: p.WindowSeconds,
			Cost:          p.Cost,
		}
	}

	table, err := domain.NewPolicyTable(raw)
	if err != nil {
		return nil, fmt.Errorf("invalid rate limit policies: %w", err)
	}
	return table, nil
}

// Start launches background jobs.
func (c *Container) Start() error {
	return c.janitor.Start()
}

// Shutdown stops background jobs. The Redis client is owned by the caller.
func (c *Container) Shutdown(_ context.Context) {
	c.janitor.Stop()
	c.log.Infow("container shut down")
}
