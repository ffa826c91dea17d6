package services

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/username/stationetl/src/models"
)

// Metrics exposes pipeline activity to Prometheus. A nil *Metrics records nothing.
type Metrics struct {
	files    *prometheus.CounterVec
	rows     *prometheus.CounterVec
	duration *prometheus.HistogramVec
}

// NewMetrics registers the ETL collectors on reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		files: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "etl_files_total",
			Help: "Files routed, by category and destination (ok, error, unrecognized).",
		}, []string{"category", "result"}),
		rows: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "etl_rows_total",
			Help: "Rows reconciled, by category and outcome.",
		}, []string{"category", "outcome"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "etl_file_duration_seconds",
			Help:    "Time spent running a category pipeline over one file.",
			Buckets: prometheus.DefBuckets,
		}, []string{"category"}),
	}
	reg.MustRegister(m.files, m.rows, m.duration)
	return m
}

// FileRouted counts one file moved (or left in place) under result.
func (m *Metrics) FileRouted(category models.Category, result string) {
	if m == nil {
		return
	}
	m.files.WithLabelValues(string(category), result).Inc()
}

// ObservePipeline records row outcomes and duration of a pipeline run.
func (m *Metrics) ObservePipeline(res *models.FileResult) {
	if m == nil || res == nil {
		return
	}
	cat := string(res.Category)
	c := res.Counters
	m.rows.WithLabelValues(cat, models.OutcomeModified.String()).Add(float64(c.Modified))
	m.rows.WithLabelValues(cat, models.OutcomeUnchanged.String()).Add(float64(c.Skipped))
	m.rows.WithLabelValues(cat, models.OutcomeError.String()).Add(float64(c.Errored))
	m.duration.WithLabelValues(cat).Observe(res.Duration.Seconds())
}
