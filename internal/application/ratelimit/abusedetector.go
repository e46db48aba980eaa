package ratelimit

import (
	"context"
	"time"

	domain "github.com/campusportal/admission/internal/domain/ratelimit"
	infraratelimit "github.com/campusportal/admission/internal/infrastructure/ratelimit"
	"github.com/campusportal/admission/internal/shared/biztime"
	"github.com/campusportal/admission/internal/shared/logger"
)

const DefaultPersistTimeout = 250 * time.Millisecond

// AlertStore persists abuse alerts newest first.
type AlertStore interface {
	Append(ctx context.Context, alert domain.AbuseAlert) error
	Recent(ctx context.Context, n int) ([]domain.AbuseAlert, error)
}

// AlertSuppressor decides whether an alert is still inside its cooldown.
type AlertSuppressor interface {
	TryAcquire(ctx context.Context, alert domain.AbuseAlert, ttl time.Duration) (bool, error)
}

// AlertPublisher forwards alerts to whoever is watching.
type AlertPublisher interface {
	Publish(ctx context.Context, alert domain.AbuseAlert) error
}

// DetectorConfig tunes when an overage becomes an alert.
type DetectorConfig struct {
	AbuseRatio float64
	HighRatio  float64
	// Cooldown suppresses repeats per identifier, endpoint and severity.
	// Zero emits an alert for every abusive check.
	Cooldown       time.Duration
	PersistTimeout time.Duration
}

func (c DetectorConfig) withDefaults() DetectorConfig {
	if c.AbuseRatio <= 0 {
		c.AbuseRatio = domain.DefaultAbuseRatio
	}
	if c.HighRatio <= 0 {
		c.HighRatio = domain.DefaultHighRatio
	}
	if c.PersistTimeout <= 0 {
		c.PersistTimeout = DefaultPersistTimeout
	}
	return c
}

// AbuseDetector watches limiter decisions for gross overages. It never
// fails the request it is inspecting.
type AbuseDetector struct {
	store      AlertStore
	suppressor AlertSuppressor
	publisher  AlertPublisher
	metrics    *infraratelimit.Metrics
	config     DetectorConfig
	clock      biztime.Clock
	logger     logger.Interface
}

var _ infraratelimit.ResultObserver = (*AbuseDetector)(nil)

type DetectorOption func(*AbuseDetector)

func WithSuppressor(s AlertSuppressor) DetectorOption {
	return func(d *AbuseDetector) {
		d.suppressor = s
	}
}

func WithPublisher(p AlertPublisher) DetectorOption {
	return func(d *AbuseDetector) {
		d.publisher = p
	}
}

func WithDetectorMetrics(m *infraratelimit.Metrics) DetectorOption {
	return func(d *AbuseDetector) {
		d.metrics = m
	}
}

func WithDetectorClock(clock biztime.Clock) DetectorOption {
	return func(d *AbuseDetector) {
		d.clock = clock
	}
}

// NewAbuseDetector creates a detector that persists alerts to store.
func NewAbuseDetector(store AlertStore, config DetectorConfig, log logger.Interface, opts ...DetectorOption) *AbuseDetector {
	d := &AbuseDetector{
		store:  store,
		config: config.withDefaults(),
		logger: log,
	}
	for _, opt := range opts {
		opt(d)
	}
	d.clock = d.clock.OrDefault()
	return d
}

// Observe implements the limiter's observer hook.
func (d *AbuseDetector) Observe(ctx context.Context, key domain.Key, result domain.WindowResult) {
	d.Inspect(ctx, key, result)
}

// Inspect emits an alert when result shows abuse and returns it. It returns
// nil when the count is not abusive or the alert is inside its cooldown.
func (d *AbuseDetector) Inspect(ctx context.Context, key domain.Key, result domain.WindowResult) *domain.AbuseAlert {
	severity, abusive := domain.ClassifyOverage(result.Current, result.Limit, d.config.AbuseRatio, d.config.HighRatio)
	if !abusive {
		return nil
	}

	alert := domain.AbuseAlert{
		Identifier: key.Identifier.String(),
		Endpoint:   key.Endpoint,
		Requests:   result.Current,
		Limit:      result.Limit,
		Timestamp:  d.clock(),
		Severity:   severity,
	}

	// The request may finish before persistence does.
	persistCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), d.config.PersistTimeout)
	defer cancel()

	if d.suppressed(persistCtx, alert) {
		return nil
	}

	d.logger.Errorw("potential abuse detected",
		"identifier", alert.Identifier,
		"endpoint", alert.Endpoint,
		"requests", alert.Requests,
		"limit", alert.Limit,
		"severity", alert.Severity,
	)
	d.metrics.IncAbuseAlert(alert.Severity)

	if err := d.store.Append(persistCtx, alert); err != nil {
		d.logger.Errorw("failed to persist abuse alert",
			"identifier", alert.Identifier,
			"endpoint", alert.Endpoint,
			"error", err,
		)
	}

	if d.publisher != nil {
		if err := d.publisher.Publish(persistCtx, alert); err != nil {
			d.logger.Warnw("failed to publish abuse alert",
				"identifier", alert.Identifier,
				"endpoint", alert.Endpoint,
				"error", err,
			)
		}
	}

	return &alert
}

// suppressed reports whether alert falls inside an earlier alert's cooldown.
// A failing suppressor lets the alert through.
func (d *AbuseDetector) suppressed(ctx context.Context, alert domain.AbuseAlert) bool {
	if d.suppressor == nil || d.config.Cooldown <= 0 {
		return false
	}

	acquired, err := d.suppressor.TryAcquire(ctx, alert, d.config.Cooldown)
	if err != nil {
		d.logger.Warnw("alert cooldown check failed, emitting alert",
			"identifier", alert.Identifier,
			"endpoint", alert.Endpoint,
			"error", err,
		)
		return false
	}
	if !acquired {
		d.logger.Debugw("abuse alert suppressed by cooldown",
			"identifier", alert.Identifier,
			"endpoint", alert.Endpoint,
			"severity", alert.Severity,
		)
		return true
	}
	return false
}
