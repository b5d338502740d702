package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the Prometheus metrics for the recognition workflow.
type Metrics struct {
	MarksTotal          *prometheus.CounterVec
	RecognitionDistance prometheus.Histogram
}

// New creates and registers the attendance metrics.
func New() *Metrics {
	return &Metrics{
		MarksTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "rollcall_marks_total",
			Help: "Mark-attendance requests by terminal outcome",
		}, []string{"outcome"}),
		RecognitionDistance: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "rollcall_recognition_distance",
			Help:    "Best-match Euclidean distance per recognition attempt",
			Buckets: []float64{0.1, 0.2, 0.3, 0.4, 0.5, 0.6, 0.8, 1.0, 1.5},
		}),
	}
}

// IncrementOutcome counts a terminal mark outcome.
func (m *Metrics) IncrementOutcome(outcome string) {
	m.MarksTotal.WithLabelValues(outcome).Inc()
}

// ObserveDistance records the best-match distance of an attempt.
func (m *Metrics) ObserveDistance(d float64) {
	m.RecognitionDistance.Observe(d)
}
