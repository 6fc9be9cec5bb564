package pipeline

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/inodb/crossbuild/internal/scoring"
)

const namespace = "crossbuild"

// Metrics are the run counters of a pipeline, kept on their own registry so
// they can be written to a node-exporter textfile at the end of a run.
type Metrics struct {
	registry *prometheus.Registry

	analyzed        prometheus.Counter
	cacheHits       prometheus.Counter
	cacheMisses     prometheus.Counter
	cacheReadErrors prometheus.Counter
	skippedRows     *prometheus.CounterVec
	byCategory      *prometheus.GaugeVec
}

// NewMetrics creates and registers the run metrics.
func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		analyzed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "variants_analyzed_total",
			Help:      "Variants whose comparison record was computed in this run.",
		}),
		cacheHits: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_hits_total",
			Help:      "Comparison records served from the cache.",
		}),
		cacheMisses: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_misses_total",
			Help:      "Variants with no cached comparison record.",
		}),
		cacheReadErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_read_errors_total",
			Help:      "Cached comparison records that could not be read and were recomputed.",
		}),
		skippedRows: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "skipped_rows_total",
			Help:      "Malformed input rows skipped, by table.",
		}, []string{"table"}),
		byCategory: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "variants_by_category",
			Help:      "Variants in each review category after the last scoring pass.",
		}, []string{"category"}),
	}
	m.registry.MustRegister(m.analyzed, m.cacheHits, m.cacheMisses, m.cacheReadErrors,
		m.skippedRows, m.byCategory)
	return m
}

// Registry returns the registry holding the run metrics.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// WriteTextfile writes the metrics in the Prometheus text format.
func (m *Metrics) WriteTextfile(path string) error {
	return prometheus.WriteToTextfile(path, m.registry)
}

func (m *Metrics) setCategories(counts map[scoring.Category]int) {
	for _, c := range scoring.Categories {
		m.byCategory.WithLabelValues(string(c)).Set(float64(counts[c]))
	}
}
