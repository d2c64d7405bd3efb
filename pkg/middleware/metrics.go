package middleware

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	perrors "github.com/vango-dev/ladderpulse/internal/errors"
	"github.com/vango-dev/ladderpulse/pkg/nav"
)

// MetricsConfig configures the Prometheus metrics middleware.
type MetricsConfig struct {
	// Namespace is the metrics namespace (default: "ladderpulse").
	Namespace string

	// Subsystem is the metrics subsystem (default: "").
	Subsystem string

	// ConstLabels are constant labels added to all metrics.
	ConstLabels prometheus.Labels

	// Buckets are the histogram buckets for restoration duration.
	// Default: prometheus.DefBuckets
	Buckets []float64

	// Registry is the Prometheus registry to use.
	// Default: prometheus.DefaultRegisterer
	Registry prometheus.Registerer
}

// MetricsOption configures the Prometheus metrics middleware.
type MetricsOption func(*MetricsConfig)

// WithNamespace sets the metrics namespace.
func WithNamespace(namespace string) MetricsOption {
	return func(c *MetricsConfig) {
		c.Namespace = namespace
	}
}

// WithSubsystem sets the metrics subsystem.
func WithSubsystem(subsystem string) MetricsOption {
	return func(c *MetricsConfig) {
		c.Subsystem = subsystem
	}
}

// WithConstLabels sets constant labels for all metrics.
func WithConstLabels(labels prometheus.Labels) MetricsOption {
	return func(c *MetricsConfig) {
		c.ConstLabels = labels
	}
}

// WithBuckets sets the histogram buckets.
func WithBuckets(buckets []float64) MetricsOption {
	return func(c *MetricsConfig) {
		c.Buckets = buckets
	}
}

// WithRegistry sets the Prometheus registry.
func WithRegistry(registry prometheus.Registerer) MetricsOption {
	return func(c *MetricsConfig) {
		c.Registry = registry
	}
}

func defaultMetricsConfig() MetricsConfig {
	return MetricsConfig{
		Namespace: "ladderpulse",
		Buckets:   prometheus.DefBuckets,
		Registry:  prometheus.DefaultRegisterer,
	}
}

// metrics holds the Prometheus collectors.
type metrics struct {
	restorationsTotal   *prometheus.CounterVec
	restorationDuration *prometheus.HistogramVec
	restorationErrors   *prometheus.CounterVec
	historyCommits      *prometheus.CounterVec
	pending             prometheus.Gauge
	settleTimeouts      prometheus.Counter
	activeSessions      prometheus.Gauge
	wsErrors            *prometheus.CounterVec
}

// globalMetrics is created on the first call to Prometheus.
var (
	globalMetrics   *metrics
	globalMetricsMu sync.Mutex
)

func initMetrics(config MetricsConfig) *metrics {
	factory := promauto.With(config.Registry)

	return &metrics{
		restorationsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "restorations_total",
			Help:        "Total number of navigation restorations",
			ConstLabels: config.ConstLabels,
		}, []string{"kind", "status"}),

		restorationDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "restoration_duration_seconds",
			Help:        "Restoration duration in seconds, loads and UI steps included",
			ConstLabels: config.ConstLabels,
			Buckets:     config.Buckets,
		}, []string{"kind"}),

		restorationErrors: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "restoration_errors_total",
			Help:        "Total number of failed restorations",
			ConstLabels: config.ConstLabels,
		}, []string{"kind", "error_type"}),

		historyCommits: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "history_commits_total",
			Help:        "Total number of browser history writes",
			ConstLabels: config.ConstLabels,
		}, []string{"mode"}),

		pending: factory.NewGauge(prometheus.GaugeOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "pending_restorations",
			Help:        "Number of restorations in flight",
			ConstLabels: config.ConstLabels,
		}),

		settleTimeouts: factory.NewCounter(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "settle_timeouts_total",
			Help:        "Total number of transitions that did not report completion in time",
			ConstLabels: config.ConstLabels,
		}),

		activeSessions: factory.NewGauge(prometheus.GaugeOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "active_sessions",
			Help:        "Number of connected websocket sessions",
			ConstLabels: config.ConstLabels,
		}),

		wsErrors: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "websocket_errors_total",
			Help:        "Total websocket errors by type",
			ConstLabels: config.ConstLabels,
		}, []string{"type"}),
	}
}

// Prometheus creates middleware that collects metrics for every
// restoration. The collectors are registered once; later calls reuse them
// and ignore their options.
func Prometheus(opts ...MetricsOption) nav.Middleware {
	m := ensureMetrics(opts...)

	return func(next nav.RestoreFunc) nav.RestoreFunc {
		return func(ctx context.Context, r *nav.Restoration) error {
			kind := kindLabel(r)
			start := time.Now()

			err := next(ctx, r)

			m.restorationDuration.WithLabelValues(kind).Observe(time.Since(start).Seconds())
			status := "success"
			switch {
			case err != nil:
				status = "error"
				m.restorationErrors.WithLabelValues(kind, categorizeError(err)).Inc()
			case r.Replay:
				status = "replay"
			}
			m.restorationsTotal.WithLabelValues(kind, status).Inc()
			return err
		}
	}
}

func ensureMetrics(opts ...MetricsOption) *metrics {
	config := defaultMetricsConfig()
	for _, opt := range opts {
		opt(&config)
	}

	globalMetricsMu.Lock()
	defer globalMetricsMu.Unlock()
	if globalMetrics == nil {
		globalMetrics = initMetrics(config)
	}
	return globalMetrics
}

func kindLabel(r *nav.Restoration) string {
	if k := r.Kind(); k.Known() {
		return string(k)
	}
	return "default"
}

// categorizeError maps an error to a low-cardinality label: its registry
// code when it has one.
func categorizeError(err error) string {
	if code := perrors.CodeOf(err); code != "" {
		return code
	}
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return "timeout"
	case errors.Is(err, context.Canceled):
		return "canceled"
	default:
		return "internal"
	}
}

// =============================================================================
// Engine observer
// =============================================================================

type observer struct{}

// Observer returns a nav.Observer feeding the engine gauges and counters.
// It initializes the collectors with default options when Prometheus has
// not been called yet.
func Observer(opts ...MetricsOption) nav.Observer {
	ensureMetrics(opts...)
	return observer{}
}

func (observer) HistoryCommitted(replace bool) {
	mode := "push"
	if replace {
		mode = "replace"
	}
	if m := current(); m != nil {
		m.historyCommits.WithLabelValues(mode).Inc()
	}
}

func (observer) PendingChanged(n int) {
	if m := current(); m != nil {
		m.pending.Set(float64(n))
	}
}

func (observer) SettleTimedOut(string) {
	if m := current(); m != nil {
		m.settleTimeouts.Inc()
	}
}

func current() *metrics {
	globalMetricsMu.Lock()
	defer globalMetricsMu.Unlock()
	return globalMetrics
}

// =============================================================================
// Metrics Recording Functions
// =============================================================================

// RecordSessionCreate records a new websocket session.
func RecordSessionCreate() {
	if m := current(); m != nil {
		m.activeSessions.Inc()
	}
}

// RecordSessionDestroy records a websocket session ending.
func RecordSessionDestroy() {
	if m := current(); m != nil {
		m.activeSessions.Dec()
	}
}

// RecordWebSocketError records a websocket error.
func RecordWebSocketError(errorType string) {
	if m := current(); m != nil {
		m.wsErrors.WithLabelValues(errorType).Inc()
	}
}
