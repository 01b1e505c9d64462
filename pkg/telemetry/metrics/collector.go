// Package metrics provides Prometheus instrumentation for the
// admission pipeline: admission decisions, quota and rate limit
// denials, committed token usage, raised alerts, and HTTP request
// latency. All metrics live in a collector-owned registry so tests can
// run isolated collectors without global state.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Config contains configuration for the metrics collector.
type Config struct {
	// Enabled controls whether metrics are recorded at all.
	Enabled bool

	// Namespace is the metric name prefix. Default: "turnstile".
	Namespace string

	// RequestDurationBuckets are the histogram buckets for HTTP request
	// latency in seconds.
	RequestDurationBuckets []float64
}

// Collector records admission pipeline metrics.
type Collector struct {
	config   Config
	registry *prometheus.Registry

	// Admission decisions by outcome ("allowed", "denied").
	admissionsTotal *prometheus.CounterVec

	// Token budget denials by scope ("daily", "hourly", "per_request").
	quotaDenialsTotal *prometheus.CounterVec

	// Rate limit denials by window ("minute", "hour", "day").
	rateLimitDenialsTotal *prometheus.CounterVec

	// Committed token usage by category ("prompt", "completion", "embedding").
	tokensCommittedTotal *prometheus.CounterVec

	// Alerts raised by level.
	alertsTotal *prometheus.CounterVec

	// HTTP request duration by endpoint and status class.
	requestDuration *prometheus.HistogramVec

	// Tracked rate limiter clients.
	trackedClients prometheus.Gauge
}

// NewCollector creates a metrics collector with its own registry. If
// registry is nil a fresh one is created.
func NewCollector(cfg Config, registry *prometheus.Registry) *Collector {
	if registry == nil {
		registry = prometheus.NewRegistry()
	}
	if cfg.Namespace == "" {
		cfg.Namespace = "turnstile"
	}
	if len(cfg.RequestDurationBuckets) == 0 {
		cfg.RequestDurationBuckets = []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 5.0, 10.0}
	}

	c := &Collector{
		config:   cfg,
		registry: registry,

		admissionsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Name:      "admissions_total",
				Help:      "Total admission decisions by outcome",
			},
			[]string{"outcome"},
		),

		quotaDenialsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Name:      "quota_denials_total",
				Help:      "Token budget denials by scope",
			},
			[]string{"scope"},
		),

		rateLimitDenialsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Name:      "ratelimit_denials_total",
				Help:      "Rate limit denials by window",
			},
			[]string{"window"},
		),

		tokensCommittedTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Name:      "tokens_committed_total",
				Help:      "Committed token usage by category",
			},
			[]string{"category"},
		),

		alertsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Name:      "alerts_total",
				Help:      "Alerts raised by level",
			},
			[]string{"level"},
		),

		requestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: cfg.Namespace,
				Name:      "request_duration_seconds",
				Help:      "HTTP request duration in seconds",
				Buckets:   cfg.RequestDurationBuckets,
			},
			[]string{"endpoint", "status"},
		),

		trackedClients: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: cfg.Namespace,
				Name:      "ratelimit_tracked_clients",
				Help:      "Client identities currently tracked by the rate limiter",
			},
		),
	}

	registry.MustRegister(
		c.admissionsTotal,
		c.quotaDenialsTotal,
		c.rateLimitDenialsTotal,
		c.tokensCommittedTotal,
		c.alertsTotal,
		c.requestDuration,
		c.trackedClients,
	)

	return c
}

// RecordAdmission records an admission decision.
func (c *Collector) RecordAdmission(allowed bool) {
	if !c.config.Enabled {
		return
	}

	outcome := "allowed"
	if !allowed {
		outcome = "denied"
	}
	c.admissionsTotal.WithLabelValues(outcome).Inc()
}

// RecordQuotaDenial records a token budget denial by scope.
func (c *Collector) RecordQuotaDenial(scope string) {
	if !c.config.Enabled {
		return
	}
	c.quotaDenialsTotal.WithLabelValues(scope).Inc()
}

// RecordRateLimitDenial records a rate limit denial by window.
func (c *Collector) RecordRateLimitDenial(window string) {
	if !c.config.Enabled {
		return
	}
	c.rateLimitDenialsTotal.WithLabelValues(window).Inc()
}

// RecordTokensCommitted records committed token usage per category.
func (c *Collector) RecordTokensCommitted(promptTokens, completionTokens, embeddingTokens int64) {
	if !c.config.Enabled {
		return
	}

	if promptTokens > 0 {
		c.tokensCommittedTotal.WithLabelValues("prompt").Add(float64(promptTokens))
	}
	if completionTokens > 0 {
		c.tokensCommittedTotal.WithLabelValues("completion").Add(float64(completionTokens))
	}
	if embeddingTokens > 0 {
		c.tokensCommittedTotal.WithLabelValues("embedding").Add(float64(embeddingTokens))
	}
}

// RecordAlert records a raised alert by level.
func (c *Collector) RecordAlert(level string) {
	if !c.config.Enabled {
		return
	}
	c.alertsTotal.WithLabelValues(level).Inc()
}

// RecordRequest records an HTTP request's duration and status class.
func (c *Collector) RecordRequest(endpoint string, statusCode int, duration time.Duration) {
	if !c.config.Enabled {
		return
	}
	c.requestDuration.WithLabelValues(endpoint, statusClass(statusCode)).Observe(duration.Seconds())
}

// UpdateTrackedClients updates the tracked client gauge.
func (c *Collector) UpdateTrackedClients(count int) {
	if !c.config.Enabled {
		return
	}
	c.trackedClients.Set(float64(count))
}

// Registry returns the Prometheus registry used by this collector.
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

// statusClass collapses a status code into its class label ("2xx").
func statusClass(code int) string {
	switch {
	case code >= 500:
		return "5xx"
	case code >= 400:
		return "4xx"
	case code >= 300:
		return "3xx"
	default:
		return "2xx"
	}
}
