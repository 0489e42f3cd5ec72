// Package metrics exposes Prometheus instruments for the ingestion pipeline.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Upload outcomes.
const (
	OutcomeOK       = "ok"
	OutcomeRejected = "rejected"
	OutcomeError    = "error"
)

// Metrics records pipeline activity. A nil *Metrics is valid and records
// nothing.
type Metrics struct {
	uploads      *prometheus.CounterVec
	rowsIngested *prometheus.CounterVec
	predictions  *prometheus.CounterVec
	saves        *prometheus.CounterVec
	pipeline     *prometheus.HistogramVec
}

// New registers the instruments on reg.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		uploads: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "finboard_uploads_total",
				Help: "Statement uploads by bank, context and outcome",
			},
			[]string{"bank", "context", "outcome"},
		),
		rowsIngested: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "finboard_rows_ingested_total",
				Help: "Rows produced by accepted uploads",
			},
			[]string{"kind"},
		),
		predictions: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "finboard_predictions_total",
				Help: "Rows labeled by the classifier",
			},
			[]string{"task"},
		),
		saves: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "finboard_saves_total",
				Help: "Table saves by outcome",
			},
			[]string{"outcome"},
		),
		pipeline: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "finboard_pipeline_duration_seconds",
				Help:    "Time spent reading and cleaning one upload",
				Buckets: prometheus.ExponentialBuckets(0.001, 2, 12),
			},
			[]string{"bank"},
		),
	}
}

// Upload counts one upload attempt.
func (m *Metrics) Upload(bank, context, outcome string) {
	if m == nil {
		return
	}
	m.uploads.WithLabelValues(bank, context, outcome).Inc()
}

// RowsIngested adds n rows of the given table kind.
func (m *Metrics) RowsIngested(kind string, n int) {
	if m == nil || n <= 0 {
		return
	}
	m.rowsIngested.WithLabelValues(kind).Add(float64(n))
}

// Predictions adds n classifier predictions for task.
func (m *Metrics) Predictions(task string, n int) {
	if m == nil || n <= 0 {
		return
	}
	m.predictions.WithLabelValues(task).Add(float64(n))
}

// Save counts one save attempt.
func (m *Metrics) Save(outcome string) {
	if m == nil {
		return
	}
	m.saves.WithLabelValues(outcome).Inc()
}

// ObservePipeline records how long bank's pipeline ran since start.
func (m *Metrics) ObservePipeline(bank string, start time.Time) {
	if m == nil {
		return
	}
	m.pipeline.WithLabelValues(bank).Observe(time.Since(start).Seconds())
}
