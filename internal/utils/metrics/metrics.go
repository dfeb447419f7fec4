package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all application metrics.
type Metrics struct {
	// HTTP metrics
	HTTPRequestsTotal    *prometheus.CounterVec
	HTTPRequestDuration  *prometheus.HistogramVec
	HTTPRequestsInFlight prometheus.Gauge

	// Workflow metrics
	ActionsTotal         *prometheus.CounterVec
	ActionDuration       *prometheus.HistogramVec
	DebitFailuresTotal   *prometheus.CounterVec
	CompensationsTotal   *prometheus.CounterVec

	// Storage metrics
	StorageOpsTotal   *prometheus.CounterVec
	StorageOpDuration *prometheus.HistogramVec

	// Credits metrics
	CreditsDebitedTotal  prometheus.Counter
	CreditsCreditedTotal prometheus.Counter

	// AI metrics
	AIRequestsTotal   *prometheus.CounterVec
	AIRequestDuration *prometheus.HistogramVec
	AIProviderHealth  *prometheus.GaugeVec

	// Auth metrics
	AuthEventsTotal *prometheus.CounterVec

	// Cache metrics
	CacheHitsTotal   *prometheus.CounterVec
	CacheMissesTotal *prometheus.CounterVec
}

// New creates a new Metrics instance with all metrics registered.
func New(namespace string) *Metrics {
	if namespace == "" {
		namespace = "noteshare"
	}

	return &Metrics{
		// HTTP metrics
		HTTPRequestsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "http",
				Name:      "requests_total",
				Help:      "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		HTTPRequestDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "http",
				Name:      "request_duration_seconds",
				Help:      "HTTP request duration in seconds",
				Buckets:   []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
			},
			[]string{"method", "path"},
		),
		HTTPRequestsInFlight: promauto.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Subsystem: "http",
				Name:      "requests_in_flight",
				Help:      "Current number of HTTP requests being processed",
			},
		),

		// Workflow metrics
		ActionsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "workflow",
				Name:      "actions_total",
				Help:      "Total number of dispatched priced actions",
			},
			[]string{"action", "outcome"}, // outcome: completed, rejected, failed
		),
		ActionDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "workflow",
				Name:      "action_duration_seconds",
				Help:      "Priced action dispatch duration in seconds",
				Buckets:   []float64{.01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
			},
			[]string{"action"},
		),
		DebitFailuresTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "workflow",
				Name:      "debit_failures_total",
				Help:      "Total number of post-effect debit failures",
			},
			[]string{"action", "reason"}, // reason: insufficient, error
		),
		CompensationsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "workflow",
				Name:      "compensations_total",
				Help:      "Total number of rolled-back action effects",
			},
			[]string{"action", "status"}, // status: ok, failed
		),

		// Storage metrics
		StorageOpsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "storage",
				Name:      "operations_total",
				Help:      "Total number of object storage operations",
			},
			[]string{"operation", "status"}, // operation: upload, delete, presign
		),
		StorageOpDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "storage",
				Name:      "operation_duration_seconds",
				Help:      "Object storage operation duration in seconds",
				Buckets:   []float64{.01, .05, .1, .25, .5, 1, 2.5, 5, 10, 30},
			},
			[]string{"operation"},
		),

		// Credits metrics
		CreditsDebitedTotal: promauto.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "credits",
				Name:      "debited_total",
				Help:      "Total credits debited from wallets",
			},
		),
		CreditsCreditedTotal: promauto.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "credits",
				Name:      "credited_total",
				Help:      "Total credits granted to wallets",
			},
		),

		// AI metrics
		AIRequestsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "ai",
				Name:      "requests_total",
				Help:      "Total number of AI requests",
			},
			[]string{"model", "status"},
		),
		AIRequestDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "ai",
				Name:      "request_duration_seconds",
				Help:      "AI request duration in seconds",
				Buckets:   []float64{.1, .25, .5, 1, 2.5, 5, 10, 30, 60, 120},
			},
			[]string{"model"},
		),
		AIProviderHealth: promauto.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Subsystem: "ai",
				Name:      "provider_health",
				Help:      "Provider health status (1=healthy, 0=unhealthy)",
			},
			[]string{"provider"},
		),

		// Auth metrics
		AuthEventsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "auth",
				Name:      "events_total",
				Help:      "Total number of auth events",
			},
			[]string{"event"}, // event: login_success, login_failed, register, token_refresh
		),

		// Cache metrics
		CacheHitsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "cache",
				Name:      "hits_total",
				Help:      "Total number of cache hits",
			},
			[]string{"cache"},
		),
		CacheMissesTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "cache",
				Name:      "misses_total",
				Help:      "Total number of cache misses",
			},
			[]string{"cache"},
		),
	}
}

// --- Convenience methods ---

// RecordHTTPRequest records an HTTP request.
func (m *Metrics) RecordHTTPRequest(method, path string, status int, duration time.Duration) {
	statusStr := statusCodeToString(status)
	m.HTTPRequestsTotal.WithLabelValues(method, path, statusStr).Inc()
	m.HTTPRequestDuration.WithLabelValues(method, path).Observe(duration.Seconds())
}

// RecordAction records a dispatched priced action.
func (m *Metrics) RecordAction(action, outcome string, duration time.Duration) {
	m.ActionsTotal.WithLabelValues(action, outcome).Inc()
	m.ActionDuration.WithLabelValues(action).Observe(duration.Seconds())
}

// RecordDebitFailure records a debit that failed after the effect ran.
func (m *Metrics) RecordDebitFailure(action, reason string) {
	m.DebitFailuresTotal.WithLabelValues(action, reason).Inc()
}

// RecordCompensation records a rollback of an action effect.
func (m *Metrics) RecordCompensation(action string, ok bool) {
	status := "ok"
	if !ok {
		status = "failed"
	}
	m.CompensationsTotal.WithLabelValues(action, status).Inc()
}

// RecordStorageOp records an object storage operation.
func (m *Metrics) RecordStorageOp(operation string, err error, duration time.Duration) {
	status := "ok"
	if err != nil {
		status = "error"
	}
	m.StorageOpsTotal.WithLabelValues(operation, status).Inc()
	m.StorageOpDuration.WithLabelValues(operation).Observe(duration.Seconds())
}

// RecordDebit records credits removed from a wallet.
func (m *Metrics) RecordDebit(amount int64) {
	if amount > 0 {
		m.CreditsDebitedTotal.Add(float64(amount))
	}
}

// RecordCredit records credits granted to a wallet.
func (m *Metrics) RecordCredit(amount int64) {
	if amount > 0 {
		m.CreditsCreditedTotal.Add(float64(amount))
	}
}

// RecordAIRequest records an AI request.
func (m *Metrics) RecordAIRequest(model, status string, duration time.Duration) {
	m.AIRequestsTotal.WithLabelValues(model, status).Inc()
	m.AIRequestDuration.WithLabelValues(model).Observe(duration.Seconds())
}

// SetProviderHealth sets the health status of a provider.
func (m *Metrics) SetProviderHealth(provider string, healthy bool) {
	value := 0.0
	if healthy {
		value = 1.0
	}
	m.AIProviderHealth.WithLabelValues(provider).Set(value)
}

// RecordAuthEvent records an auth event.
func (m *Metrics) RecordAuthEvent(event string) {
	m.AuthEventsTotal.WithLabelValues(event).Inc()
}

// RecordCacheHit records a cache hit.
func (m *Metrics) RecordCacheHit(cache string) {
	m.CacheHitsTotal.WithLabelValues(cache).Inc()
}

// RecordCacheMiss records a cache miss.
func (m *Metrics) RecordCacheMiss(cache string) {
	m.CacheMissesTotal.WithLabelValues(cache).Inc()
}

// statusCodeToString converts an HTTP status code to a string category.
func statusCodeToString(code int) string {
	switch {
	case code >= 200 && code < 300:
		return "2xx"
	case code >= 300 && code < 400:
		return "3xx"
	case code >= 400 && code < 500:
		return "4xx"
	case code >= 500:
		return "5xx"
	default:
		return "unknown"
	}
}
