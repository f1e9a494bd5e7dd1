// Package metrics provides Prometheus metrics for the rival rating engine.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Manager manages all Prometheus metrics for the engine.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	enabled          bool
	registry         prometheus.Registerer

	// Dataset metrics
	battlesProcessed prometheus.Counter
	battlesFiltered  prometheus.Counter
	competitors      prometheus.Gauge

	// Fit metrics
	fitDuration     *prometheus.HistogramVec
	fitNonConverged prometheus.Counter

	// Bootstrap metrics
	bootstrapTrials        prometheus.Counter
	bootstrapTrialDuration prometheus.Histogram
	bootstrapWorkers       prometheus.Gauge

	// Outlier detection metrics
	judgesChecked prometheus.Counter
	judgesFlagged prometheus.Counter

	// Report metrics
	reportDuration prometheus.Histogram
}

// Option applies a configuration option to the Manager.
type Option func(*Manager)

// WithNamespace sets the namespace for all metrics.
func WithNamespace(namespace string) Option {
	return func(m *Manager) {
		if namespace != "" {
			m.namespace = namespace
		}
	}
}

// WithHistogramBuckets sets custom histogram buckets for duration metrics.
func WithHistogramBuckets(buckets []float64) Option {
	return func(m *Manager) {
		if len(buckets) > 0 {
			m.histogramBuckets = buckets
		}
	}
}

// WithEnabled enables or disables metrics collection.
func WithEnabled(enabled bool) Option {
	return func(m *Manager) {
		m.enabled = enabled
	}
}

// WithRegistry sets a custom Prometheus registry.
func WithRegistry(registry prometheus.Registerer) Option {
	return func(m *Manager) {
		if registry != nil {
			m.registry = registry
		}
	}
}

// Global metrics manager instance.
var globalManager *Manager //nolint:gochecknoglobals // intentional global for singleton metrics manager

// Custom registry to avoid the default Go runtime metrics.
var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // intentional global for metrics registry

func init() { //nolint:gochecknoinits // intentional init for global metrics setup
	globalManager = NewManager(WithRegistry(customRegistry))
}

// Registry exposes the registry backing the global manager so callers can
// mount an HTTP handler for it.
func Registry() *prometheus.Registry {
	return customRegistry
}

// NewManager creates a new metrics manager with default configuration.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "rival",
		subsystem:        "rating",
		histogramBuckets: prometheus.DefBuckets,
		enabled:          true,
		registry:         prometheus.DefaultRegisterer,
	}

	for _, opt := range opts {
		opt(m)
	}

	m.initializeMetrics()
	return m
}

func (m *Manager) initializeMetrics() {
	auto := promauto.With(m.registry)

	m.battlesProcessed = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "battles_processed_total",
		Help:      "Total number of battles fed into the rating pipeline",
	})

	m.battlesFiltered = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "battles_filtered_total",
		Help:      "Total number of battles dropped by filters or outlier removal",
	})

	m.competitors = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "competitors",
		Help:      "Number of competitors in the most recent encoding pass",
	})

	m.fitDuration = auto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "fit_duration_seconds",
			Help:      "Duration of a single maximum-likelihood fit",
			Buckets:   m.histogramBuckets,
		},
		[]string{"fitter"},
	)

	m.fitNonConverged = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "fit_non_converged_total",
		Help:      "Total number of fits that returned a best-effort estimate at the iteration cap",
	})

	m.bootstrapTrials = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "bootstrap_trials_total",
		Help:      "Total number of completed bootstrap trials",
	})

	m.bootstrapTrialDuration = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "bootstrap_trial_duration_seconds",
		Help:      "Duration of a single bootstrap resample-and-refit trial",
		Buckets:   m.histogramBuckets,
	})

	m.bootstrapWorkers = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "bootstrap_workers",
		Help:      "Size of the bootstrap worker pool",
	})

	m.judgesChecked = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "judges_checked_total",
		Help:      "Total number of judges inspected by the outlier detector",
	})

	m.judgesFlagged = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "judges_flagged_total",
		Help:      "Total number of judges flagged as anomalous",
	})

	m.reportDuration = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "report_duration_seconds",
		Help:      "Duration of a full report computation",
		Buckets:   m.histogramBuckets,
	})
}

// Package-level helpers operating on the global manager.

// RecordBattlesProcessed adds n to the processed-battle counter.
func RecordBattlesProcessed(n int) {
	if globalManager.enabled && n > 0 {
		globalManager.battlesProcessed.Add(float64(n))
	}
}

// RecordBattlesFiltered adds n to the filtered-battle counter.
func RecordBattlesFiltered(n int) {
	if globalManager.enabled && n > 0 {
		globalManager.battlesFiltered.Add(float64(n))
	}
}

// UpdateCompetitors sets the competitor gauge.
func UpdateCompetitors(n int) {
	if globalManager.enabled {
		globalManager.competitors.Set(float64(n))
	}
}

// RecordFitDuration observes a fit duration for the named fitter.
func RecordFitDuration(fitter string, seconds float64) {
	if globalManager.enabled {
		globalManager.fitDuration.WithLabelValues(fitter).Observe(seconds)
	}
}

// RecordFitNonConverged increments the non-converged fit counter.
func RecordFitNonConverged() {
	if globalManager.enabled {
		globalManager.fitNonConverged.Inc()
	}
}

// RecordBootstrapTrial records one completed trial and its duration.
func RecordBootstrapTrial(seconds float64) {
	if globalManager.enabled {
		globalManager.bootstrapTrials.Inc()
		globalManager.bootstrapTrialDuration.Observe(seconds)
	}
}

// UpdateBootstrapWorkers sets the worker pool gauge.
func UpdateBootstrapWorkers(n int) {
	if globalManager.enabled {
		globalManager.bootstrapWorkers.Set(float64(n))
	}
}

// RecordJudgeChecked increments the judges-checked counter.
func RecordJudgeChecked() {
	if globalManager.enabled {
		globalManager.judgesChecked.Inc()
	}
}

// RecordJudgeFlagged increments the judges-flagged counter.
func RecordJudgeFlagged() {
	if globalManager.enabled {
		globalManager.judgesFlagged.Inc()
	}
}

// RecordReportDuration observes a full report duration.
func RecordReportDuration(seconds float64) {
	if globalManager.enabled {
		globalManager.reportDuration.Observe(seconds)
	}
}
