package middleware

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	werrors "github.com/vango-dev/waypoint/internal/errors"
	"github.com/vango-dev/waypoint/pkg/router"
)

// MetricsConfig configures the Prometheus metrics middleware.
type MetricsConfig struct {
	// Namespace is the metrics namespace (default: "waypoint").
	Namespace string

	// Subsystem is the metrics subsystem (default: "").
	Subsystem string

	// ConstLabels are constant labels added to all metrics.
	ConstLabels prometheus.Labels

	// Buckets are the histogram buckets for navigation duration.
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
		Namespace: "waypoint",
		Buckets:   prometheus.DefBuckets,
		Registry:  prometheus.DefaultRegisterer,
	}
}

type metrics struct {
	navigationsTotal   *prometheus.CounterVec
	navigationDuration *prometheus.HistogramVec
	navigationErrors   *prometheus.CounterVec
	activeSockets      prometheus.Gauge
	socketErrors       *prometheus.CounterVec
	rendersTotal       prometheus.Counter
}

// globalMetrics is shared by every router: a server runs one router per
// connected page and they all report into the same series.
var (
	globalMetrics   *metrics
	globalMetricsMu sync.Mutex
)

func initMetrics(config MetricsConfig) *metrics {
	factory := promauto.With(config.Registry)

	return &metrics{
		navigationsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "navigations_total",
			Help:        "Total number of navigations dispatched",
			ConstLabels: config.ConstLabels,
		}, []string{"pattern", "status"}),

		navigationDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "navigation_duration_seconds",
			Help:        "Navigation dispatch duration in seconds",
			ConstLabels: config.ConstLabels,
			Buckets:     config.Buckets,
		}, []string{"pattern"}),

		navigationErrors: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "navigation_errors_total",
			Help:        "Total number of navigations whose handlers failed",
			ConstLabels: config.ConstLabels,
		}, []string{"pattern", "error_type"}),

		activeSockets: factory.NewGauge(prometheus.GaugeOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "active_sockets",
			Help:        "Number of connected navigation sockets",
			ConstLabels: config.ConstLabels,
		}),

		socketErrors: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "socket_errors_total",
			Help:        "Total navigation socket errors by type",
			ConstLabels: config.ConstLabels,
		}, []string{"type"}),

		rendersTotal: factory.NewCounter(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "renders_total",
			Help:        "Total number of HTML fragments pushed to pages",
			ConstLabels: config.ConstLabels,
		}),
	}
}

// Prometheus creates middleware that collects navigation metrics.
//
// Series are labelled by route pattern, not path, to bound cardinality;
// unmatched navigations use the pattern "notfound". The metrics are
// created on the first call; later calls reuse them and ignore opts.
func Prometheus(opts ...MetricsOption) router.Middleware {
	config := defaultMetricsConfig()
	for _, opt := range opts {
		opt(&config)
	}

	globalMetricsMu.Lock()
	if globalMetrics == nil {
		globalMetrics = initMetrics(config)
	}
	m := globalMetrics
	globalMetricsMu.Unlock()

	return router.MiddlewareFunc(func(ctx context.Context, nav *router.Navigation, next func(context.Context) error) error {
		pattern := "notfound"
		if router.Matched(nav) {
			pattern = nav.Match.Pattern
		}

		start := time.Now()
		err := next(ctx)
		m.navigationDuration.WithLabelValues(pattern).Observe(time.Since(start).Seconds())

		status := "ok"
		switch {
		case err == nil && pattern == "notfound":
			status = "notfound"
		case errors.Is(err, router.ErrStop):
			status = "stopped"
		case err != nil:
			status = "error"
			m.navigationErrors.WithLabelValues(pattern, categorizeError(err)).Inc()
		}
		m.navigationsTotal.WithLabelValues(pattern, status).Inc()

		return err
	})
}

// categorizeError returns a low-cardinality label for err.
func categorizeError(err error) string {
	var we *werrors.WaypointError
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return "timeout"
	case errors.Is(err, context.Canceled):
		return "canceled"
	case errors.As(err, &we):
		if we.Category != "" {
			return string(we.Category)
		}
		return "coded"
	default:
		return "handler"
	}
}

// RecordSocketOpen records a page connecting.
func RecordSocketOpen() {
	if m := current(); m != nil {
		m.activeSockets.Inc()
	}
}

// RecordSocketClose records a page disconnecting.
func RecordSocketClose() {
	if m := current(); m != nil {
		m.activeSockets.Dec()
	}
}

// RecordSocketError records a navigation socket error.
func RecordSocketError(errorType string) {
	if m := current(); m != nil {
		m.socketErrors.WithLabelValues(errorType).Inc()
	}
}

// RecordRender records HTML fragments pushed to a page.
func RecordRender(count int) {
	if m := current(); m != nil {
		m.rendersTotal.Add(float64(count))
	}
}

func current() *metrics {
	globalMetricsMu.Lock()
	defer globalMetricsMu.Unlock()
	return globalMetrics
}
