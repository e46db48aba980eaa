package ratelimit

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/sony/gobreaker/v2"

	domain "github.com/campusportal/admission/internal/domain/ratelimit"
)

const (
	BackendDistributed = "distributed"
	BackendLocal       = "local"
)

// Metrics contains Prometheus collectors for admission decisions.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	decisions     *prometheus.CounterVec
	fallbacks     prometheus.Counter
	checkDuration *prometheus.HistogramVec
	breakerState  prometheus.Gauge
	abuseAlerts   *prometheus.CounterVec
	localKeys     prometheus.Gauge
}

// NewMetrics creates the collectors and registers them with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		decisions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "admission_ratelimit_decisions_total",
				Help: "Total number of rate limit decisions by backend and result",
			},
			[]string{"backend", "result"},
		),
		fallbacks: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "admission_ratelimit_fallbacks_total",
				Help: "Total number of checks served by the local fallback store",
			},
		),
		checkDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "admission_ratelimit_check_duration_seconds",
				Help:    "Latency of rate limit checks by backend",
				Buckets: []float64{.0005, .001, .0025, .005, .01, .025, .05, .1, .25},
			},
			[]string{"backend"},
		),
		breakerState: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "admission_ratelimit_breaker_state",
				Help: "Shared store breaker state (0 closed, 1 half-open, 2 open)",
			},
		),
		abuseAlerts: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "admission_abuse_alerts_total",
				Help: "Total number of abuse alerts emitted by severity",
			},
			[]string{"severity"},
		),
		localKeys: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "admission_ratelimit_local_keys",
				Help: "Number of keys tracked by the local fallback store",
			},
		),
	}

	if reg != nil {
		reg.MustRegister(m.decisions, m.fallbacks, m.checkDuration, m.breakerState, m.abuseAlerts, m.localKeys)
	}
	return m
}

func (m *Metrics) ObserveDecision(backend string, result domain.WindowResult, elapsed time.Duration) {
	if m == nil {
		return
	}
	outcome := "allowed"
	if !result.Allowed {
		outcome = "denied"
	}
	m.decisions.WithLabelValues(backend, outcome).Inc()
	m.checkDuration.WithLabelValues(backend).Observe(elapsed.Seconds())
}

func (m *Metrics) IncFallback() {
	if m == nil {
		return
	}
	m.fallbacks.Inc()
}

func (m *Metrics) SetBreakerState(state gobreaker.State) {
	if m == nil {
		return
	}
	m.breakerState.Set(float64(state))
}

func (m *Metrics) IncAbuseAlert(severity domain.Severity) {
	if m == nil {
		return
	}
	m.abuseAlerts.WithLabelValues(string(severity)).Inc()
}

func (m *Metrics) SetLocalKeys(n int) {
	if m == nil {
		return
	}
	m.localKeys.Set(float64(n))
}
