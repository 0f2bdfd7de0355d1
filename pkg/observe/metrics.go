package observe

import (
	"context"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	serrors "github.com/strand-ui/strand/internal/errors"
	"github.com/strand-ui/strand/pkg/client"
	"github.com/strand-ui/strand/pkg/widget"
)

// MetricsConfig configures the Prometheus batch metrics.
type MetricsConfig struct {
	// Namespace is the metrics namespace (default: "strand").
	Namespace string

	// Subsystem is the metrics subsystem (default: "").
	Subsystem string

	// ConstLabels are constant labels added to all metrics.
	ConstLabels prometheus.Labels

	// Buckets are the histogram buckets for batch duration.
	// Default: prometheus.DefBuckets
	Buckets []float64

	// Registry is the Prometheus registry to use.
	// Default: prometheus.DefaultRegisterer
	Registry prometheus.Registerer
}

// MetricsOption configures the Prometheus batch metrics.
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
		Namespace: "strand",
		Buckets:   prometheus.DefBuckets,
		Registry:  prometheus.DefaultRegisterer,
	}
}

// Metrics records reconciliation activity into Prometheus. It implements
// both client.BatchHook (per-batch counters and duration) and
// widget.Observer (live component gauge). Register one instance per
// registry; repeated registration with the same registry panics in
// promauto, matching the prometheus convention.
type Metrics struct {
	batchesTotal    *prometheus.CounterVec
	batchDuration   prometheus.Histogram
	deltasApplied   prometheus.Counter
	slotsInserted   prometheus.Counter
	slotsRemoved    prometheus.Counter
	componentsLive  prometheus.Gauge
	componentsTotal prometheus.Counter
	reapedTotal     prometheus.Counter
	integrityErrors *prometheus.CounterVec
}

// NewMetrics creates and registers the Prometheus metrics.
func NewMetrics(opts ...MetricsOption) *Metrics {
	config := defaultMetricsConfig()
	for _, opt := range opts {
		opt(&config)
	}
	factory := promauto.With(config.Registry)

	return &Metrics{
		batchesTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "batches_total",
			Help:        "Total number of delta batches processed",
			ConstLabels: config.ConstLabels,
		}, []string{"status"}),

		batchDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "batch_duration_seconds",
			Help:        "Batch reconciliation duration in seconds",
			ConstLabels: config.ConstLabels,
			Buckets:     config.Buckets,
		}),

		deltasApplied: factory.NewCounter(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "deltas_applied_total",
			Help:        "Total number of component deltas applied",
			ConstLabels: config.ConstLabels,
		}),

		slotsInserted: factory.NewCounter(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "child_slots_inserted_total",
			Help:        "Total number of child slots inserted during reconciliation",
			ConstLabels: config.ConstLabels,
		}),

		slotsRemoved: factory.NewCounter(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "child_slots_removed_total",
			Help:        "Total number of child slots removed during reconciliation",
			ConstLabels: config.ConstLabels,
		}),

		componentsLive: factory.NewGauge(prometheus.GaugeOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "components_live",
			Help:        "Number of live components in the tree",
			ConstLabels: config.ConstLabels,
		}),

		componentsTotal: factory.NewCounter(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "components_created_total",
			Help:        "Total number of components created",
			ConstLabels: config.ConstLabels,
		}),

		reapedTotal: factory.NewCounter(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "components_reaped_total",
			Help:        "Total number of components destroyed by the orphan reap",
			ConstLabels: config.ConstLabels,
		}),

		integrityErrors: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "integrity_errors_total",
			Help:        "Total number of batches aborted by integrity errors, by code",
			ConstLabels: config.ConstLabels,
		}, []string{"code"}),
	}
}

// BatchApplied implements client.BatchHook.
func (m *Metrics) BatchApplied(ctx context.Context, info client.BatchInfo) {
	status := "success"
	if info.Err != nil {
		status = "error"
		code := "unknown"
		if se, ok := info.Err.(*serrors.StrandError); ok {
			code = se.Code
		}
		m.integrityErrors.WithLabelValues(code).Inc()
	}
	m.batchesTotal.WithLabelValues(status).Inc()
	m.batchDuration.Observe(info.Duration.Seconds())
	m.deltasApplied.Add(float64(info.Stats.Deltas))
	m.slotsInserted.Add(float64(info.Stats.Inserts))
	m.slotsRemoved.Add(float64(info.Stats.Removes))
	m.reapedTotal.Add(float64(info.Stats.Reaped))
}

// ComponentCreated implements widget.Observer.
func (m *Metrics) ComponentCreated(c *widget.Component) {
	m.componentsLive.Inc()
	m.componentsTotal.Inc()
}

// ComponentUpdated implements widget.Observer.
func (m *Metrics) ComponentUpdated(c *widget.Component, delta widget.Delta, origin widget.Origin) {}

// ComponentDestroyed implements widget.Observer.
func (m *Metrics) ComponentDestroyed(c *widget.Component) {
	m.componentsLive.Dec()
}
