package datasync

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/rileyhilliard/aidash/internal/api"
)

// Refresh outcomes recorded by Metrics.
const (
	OutcomeSuccess   = "success"
	OutcomeNotFound  = "not_found"
	OutcomeError     = "error"
	OutcomeDiscarded = "discarded"
	OutcomeCanceled  = "canceled"
)

// Metrics counts refreshes per stream. A nil *Metrics records nothing.
type Metrics struct {
	refreshes *prometheus.CounterVec
	failures  *prometheus.CounterVec
	duration  *prometheus.HistogramVec
}

// NewMetrics registers the sync collectors with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		refreshes: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "aidash",
				Subsystem: "sync",
				Name:      "refreshes_total",
				Help:      "Refreshes by stream and outcome.",
			},
			[]string{"stream", "outcome"},
		),
		failures: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "aidash",
				Subsystem: "sync",
				Name:      "errors_total",
				Help:      "Classified refresh failures by stream and kind.",
			},
			[]string{"stream", "kind"},
		),
		duration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "aidash",
				Subsystem: "sync",
				Name:      "refresh_duration_seconds",
				Help:      "Time from request start to settle, applied results only.",
				Buckets:   []float64{.025, .05, .1, .25, .5, 1, 2.5, 5, 10, 30},
			},
			[]string{"stream"},
		),
	}
}

func (m *Metrics) observe(stream, outcome string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.refreshes.WithLabelValues(stream, outcome).Inc()
	if outcome != OutcomeDiscarded && outcome != OutcomeCanceled {
		m.duration.WithLabelValues(stream).Observe(elapsed.Seconds())
	}
}

func (m *Metrics) classified(stream string, kind api.ErrorKind) {
	if m == nil {
		return
	}
	m.failures.WithLabelValues(stream, string(kind)).Inc()
}
