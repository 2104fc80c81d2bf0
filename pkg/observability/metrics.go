package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds all Prometheus metrics
type Metrics struct {
	registry *prometheus.Registry

	// Reduction metrics
	ReductionsTotal      *prometheus.CounterVec
	ReductionDuration    *prometheus.HistogramVec
	UnresolvedTypesTotal *prometheus.CounterVec
	ModulesReduced       *prometheus.GaugeVec

	// Comparison metrics
	ComparisonsTotal *prometheus.CounterVec
	ChangesTotal     *prometheus.CounterVec
	StageDuration    *prometheus.HistogramVec

	// Storage metrics
	StorageOperationsTotal *prometheus.CounterVec
	StorageBytesRead       prometheus.Histogram

	// Cache metrics
	CacheHitsTotal   *prometheus.CounterVec
	CacheMissesTotal *prometheus.CounterVec
}

// NewMetrics creates and registers all Prometheus metrics. A nil registry
// gets a fresh one.
func NewMetrics(registry *prometheus.Registry) *Metrics {
	if registry == nil {
		registry = prometheus.NewRegistry()
	}

	m := &Metrics{
		registry: registry,

		ReductionsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "palletdiff_reductions_total",
				Help: "Total number of metadata reductions",
			},
			[]string{"version", "status"},
		),
		ReductionDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "palletdiff_reduction_duration_seconds",
				Help:    "Metadata reduction duration in seconds",
				Buckets: []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5},
			},
			[]string{"family"},
		),
		UnresolvedTypesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "palletdiff_unresolved_types_total",
				Help: "Total number of type ids that could not be resolved during reduction",
			},
			[]string{"version"},
		),
		ModulesReduced: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "palletdiff_modules",
				Help: "Number of modules in the last reduced runtime per side",
			},
			[]string{"side"},
		),

		ComparisonsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "palletdiff_comparisons_total",
				Help: "Total number of runtime comparisons by verdict",
			},
			[]string{"verdict"},
		),
		ChangesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "palletdiff_changes_total",
				Help: "Total number of detected changes by rule and level",
			},
			[]string{"rule", "level"},
		),
		StageDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "palletdiff_stage_duration_seconds",
				Help:    "Pipeline stage duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"stage"},
		),

		StorageOperationsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "palletdiff_storage_operations_total",
				Help: "Total number of storage operations",
			},
			[]string{"operation", "status"},
		),
		StorageBytesRead: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "palletdiff_storage_bytes_read",
				Help:    "Size of decoded metadata documents in bytes",
				Buckets: prometheus.ExponentialBuckets(1024, 4, 10),
			},
		),

		CacheHitsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "palletdiff_cache_hits_total",
				Help: "Total number of cache hits",
			},
			[]string{"cache_type"},
		),
		CacheMissesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "palletdiff_cache_misses_total",
				Help: "Total number of cache misses",
			},
			[]string{"cache_type"},
		),
	}

	registry.MustRegister(
		m.ReductionsTotal,
		m.ReductionDuration,
		m.UnresolvedTypesTotal,
		m.ModulesReduced,
		m.ComparisonsTotal,
		m.ChangesTotal,
		m.StageDuration,
		m.StorageOperationsTotal,
		m.StorageBytesRead,
		m.CacheHitsTotal,
		m.CacheMissesTotal,
	)

	return m
}

// Registry returns the registry the metrics are registered with.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// ObserveStage records how long a pipeline stage took since start.
func (m *Metrics) ObserveStage(stage string, start time.Time) {
	m.StageDuration.WithLabelValues(stage).Observe(time.Since(start).Seconds())
}

// WriteTextfile writes every gathered metric to path in the text exposition
// format, for collection by the node exporter textfile collector.
func (m *Metrics) WriteTextfile(path string) error {
	return prometheus.WriteToTextfile(path, m.registry)
}
