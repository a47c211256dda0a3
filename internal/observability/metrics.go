package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "flood_engine"

// Metrics holds the Prometheus counters, histograms, and gauges for the
// assessment pipeline.
type Metrics struct {
	RequestsConsumed    prometheus.Counter
	AssessmentsProduced prometheus.Counter
	AssessmentErrors    prometheus.Counter
	Retries             *prometheus.CounterVec // labels: stage={extract,assess,load}
	PipelineRunning     prometheus.Gauge

	// Batch processing metrics.
	BatchSize               prometheus.Histogram
	BatchProcessingDuration prometheus.Histogram

	// Decision metrics.
	Forecasts      *prometheus.CounterVec // labels: confidence={low,medium,high}
	NoDataGauges   prometheus.Counter
	Allocations    *prometheus.CounterVec // labels: mode={crisp,fuzzy,proportional}
	UnitsAllocated prometheus.Histogram
	UnknownZones   prometheus.Counter

	// Threshold cache lookups. labels: result={hit,miss}
	ThresholdCache *prometheus.CounterVec
}

// NewMetrics creates and registers all metrics with the default Prometheus registry.
func NewMetrics() *Metrics {
	m := newMetrics()
	prometheus.MustRegister(m.collectors()...)
	return m
}

// NewMetricsForTesting creates Metrics that are not registered anywhere, so
// tests can build as many as they need.
func NewMetricsForTesting() *Metrics {
	return newMetrics()
}

func newMetrics() *Metrics {
	return &Metrics{
		RequestsConsumed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "requests_consumed_total",
			Help:      "Total assessment requests read from the source topic.",
		}),
		AssessmentsProduced: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "assessments_produced_total",
			Help:      "Total assessments written to the sink topic.",
		}),
		AssessmentErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "assessment_errors_total",
			Help:      "Total requests skipped because they can never be assessed.",
		}),
		Retries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "retries_total",
			Help:      "Backoff retries after a transient failure, by pipeline stage.",
		}, []string{"stage"}),
		PipelineRunning: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "pipeline_running",
			Help:      "1 when the pipeline is active, 0 when shut down.",
		}),
		BatchSize: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "batch_size",
			Help:      "Number of requests per batch extracted from Kafka.",
			Buckets:   []float64{1, 5, 10, 20, 30, 40, 50, 75, 100},
		}),
		BatchProcessingDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "batch_processing_duration_seconds",
			Help:      "Duration of a complete batch extract-assess-load cycle.",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.5, 1, 2.5, 5, 10},
		}),
		Forecasts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "forecasts_total",
			Help:      "River-level forecasts produced, by confidence.",
		}, []string{"confidence"}),
		NoDataGauges: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "no_data_gauges_total",
			Help:      "Gauges skipped because they had no eligible readings.",
		}),
		Allocations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "allocations_total",
			Help:      "Assessments allocated, by allocation mode.",
		}, []string{"mode"}),
		UnitsAllocated: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "units_allocated",
			Help:      "Total units allocated per assessment.",
			Buckets:   []float64{0, 1, 5, 10, 25, 50, 100, 250, 500, 1000},
		}),
		UnknownZones: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "unknown_zones_total",
			Help:      "Zone ids not found in the zone table.",
		}),
		ThresholdCache: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "threshold_cache_total",
			Help:      "Threshold cache lookups by result.",
		}, []string{"result"}),
	}
}

func (m *Metrics) collectors() []prometheus.Collector {
	return []prometheus.Collector{
		m.RequestsConsumed,
		m.AssessmentsProduced,
		m.AssessmentErrors,
		m.Retries,
		m.PipelineRunning,
		m.BatchSize,
		m.BatchProcessingDuration,
		m.Forecasts,
		m.NoDataGauges,
		m.Allocations,
		m.UnitsAllocated,
		m.UnknownZones,
		m.ThresholdCache,
	}
}
