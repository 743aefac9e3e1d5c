// Package metrics holds the Prometheus collectors of the evaluation engine.
// A nil *Metrics is valid and records nothing.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "pmcoach"

type Metrics struct {
	BackendRequests *prometheus.CounterVec
	BackendDuration *prometheus.HistogramVec
	Evaluations     *prometheus.CounterVec
	ParseStages     *prometheus.CounterVec
	BatchModes      *prometheus.CounterVec
	ReferenceCache  *prometheus.CounterVec
	Scores          prometheus.Histogram
}

// New creates the collectors and registers them with reg when reg is not nil.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		BackendRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "backend_requests_total",
				Help:      "Generative backend calls by provider, operation and outcome",
			},
			[]string{"provider", "operation", "outcome"},
		),
		BackendDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "backend_request_duration_seconds",
				Help:      "Generative backend call duration in seconds",
				Buckets:   []float64{0.1, 0.25, 0.5, 1, 2, 5, 10, 30, 60},
			},
			[]string{"provider", "operation"},
		),
		Evaluations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "evaluations_total",
				Help:      "Evaluations by result source",
			},
			[]string{"source"},
		),
		ParseStages: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "parse_stage_total",
				Help:      "Structured output parse outcomes by stage",
			},
			[]string{"stage"},
		),
		BatchModes: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "batch_mode_total",
				Help:      "Batch executions by kind and mode",
			},
			[]string{"kind", "mode"},
		),
		ReferenceCache: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "reference_cache_total",
				Help:      "Reference answer cache lookups by result",
			},
			[]string{"result"},
		),
		Scores: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "evaluation_score",
				Help:      "Distribution of final evaluation scores",
				Buckets:   []float64{10, 20, 30, 40, 50, 60, 70, 80, 90, 100},
			},
		),
	}

	if reg != nil {
		reg.MustRegister(
			m.BackendRequests,
			m.BackendDuration,
			m.Evaluations,
			m.ParseStages,
			m.BatchModes,
			m.ReferenceCache,
			m.Scores,
		)
	}

	return m
}

// ObserveBackend records one backend call started at start.
func (m *Metrics) ObserveBackend(provider, operation string, start time.Time, err error) {
	if m == nil {
		return
	}
	outcome := "success"
	if err != nil {
		outcome = "error"
	}
	m.BackendRequests.WithLabelValues(provider, operation, outcome).Inc()
	m.BackendDuration.WithLabelValues(provider, operation).Observe(time.Since(start).Seconds())
}

func (m *Metrics) ObserveEvaluation(source string, score int) {
	if m == nil {
		return
	}
	m.Evaluations.WithLabelValues(source).Inc()
	m.Scores.Observe(float64(score))
}

func (m *Metrics) ObserveParse(stage string) {
	if m == nil {
		return
	}
	m.ParseStages.WithLabelValues(stage).Inc()
}

func (m *Metrics) ObserveBatch(kind, mode string) {
	if m == nil {
		return
	}
	m.BatchModes.WithLabelValues(kind, mode).Inc()
}

func (m *Metrics) ObserveCache(hit bool) {
	if m == nil {
		return
	}
	result := "miss"
	if hit {
		result = "hit"
	}
	m.ReferenceCache.WithLabelValues(result).Inc()
}
