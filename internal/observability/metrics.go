package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus counters, histograms, and gauges for a runoff batch.
type Metrics struct {
	StormsSegmented  prometheus.Counter
	Subcatchments    prometheus.Gauge
	ResultsComputed  prometheus.Counter
	ResultsExcluded  prometheus.Counter
	ResultsPublished prometheus.Counter
	BatchFailures    *prometheus.CounterVec // labels: stage={read,segment,cancelled,registry,adjust,aggregate,load}
	BatchDuration    prometheus.Histogram
	LastSuccess      prometheus.Gauge
	RunoffTotal      *prometheus.GaugeVec // labels: subcatchment
}

func newMetrics() *Metrics {
	return &Metrics{
		StormsSegmented: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "storm_runoff",
			Name:      "storms_segmented_total",
			Help:      "Total storm events segmented from the rain log.",
		}),
		Subcatchments: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "storm_runoff",
			Name:      "subcatchments",
			Help:      "Number of subcatchments in the last run.",
		}),
		ResultsComputed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "storm_runoff",
			Name:      "results_computed_total",
			Help:      "Total storm x subcatchment runoff results computed.",
		}),
		ResultsExcluded: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "storm_runoff",
			Name:      "results_excluded_total",
			Help:      "Results left out of the monthly summary because their month is outside the configured range.",
		}),
		ResultsPublished: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "storm_runoff",
			Name:      "results_published_total",
			Help:      "Total results written to the Kafka sink topic.",
		}),
		BatchFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "storm_runoff",
			Name:      "batch_failures_total",
			Help:      "Batch runs aborted, by failing stage.",
		}, []string{"stage"}),
		BatchDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "storm_runoff",
			Name:      "batch_duration_seconds",
			Help:      "Duration of a complete read-compute-aggregate-load run.",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.5, 1, 2.5, 5, 10, 30},
		}),
		LastSuccess: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "storm_runoff",
			Name:      "last_success_timestamp_seconds",
			Help:      "Unix time of the last successful run.",
		}),
		RunoffTotal: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "storm_runoff",
			Name:      "runoff_acre_feet",
			Help:      "Total runoff over all storms in the last run, by subcatchment.",
		}, []string{"subcatchment"}),
	}
}

func (m *Metrics) collectors() []prometheus.Collector {
	return []prometheus.Collector{
		m.StormsSegmented,
		m.Subcatchments,
		m.ResultsComputed,
		m.ResultsExcluded,
		m.ResultsPublished,
		m.BatchFailures,
		m.BatchDuration,
		m.LastSuccess,
		m.RunoffTotal,
	}
}

// NewMetrics creates and registers all batch metrics with the default Prometheus registry.
func NewMetrics() *Metrics {
	m := newMetrics()
	prometheus.MustRegister(m.collectors()...)
	return m
}

// NewMetricsForTesting creates Metrics registered on a fresh registry to
// avoid "already registered" panics when called from multiple tests.
func NewMetricsForTesting() (*Metrics, *prometheus.Registry) {
	m := newMetrics()
	reg := prometheus.NewRegistry()
	reg.MustRegister(m.collectors()...)
	return m, reg
}
