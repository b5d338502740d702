package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the Prometheus metrics for directory administration.
type Metrics struct {
	InstitutionsCreated prometheus.Counter
	DepartmentsCreated  prometheus.Counter
	CandidatesEnrolled  prometheus.Counter
}

// New creates and registers the directory metrics.
func New() *Metrics {
	return &Metrics{
		InstitutionsCreated: promauto.NewCounter(prometheus.CounterOpts{
			Name: "rollcall_institutions_created_total",
			Help: "Total number of institutions registered",
		}),
		DepartmentsCreated: promauto.NewCounter(prometheus.CounterOpts{
			Name: "rollcall_departments_created_total",
			Help: "Total number of departments created",
		}),
		CandidatesEnrolled: promauto.NewCounter(prometheus.CounterOpts{
			Name: "rollcall_candidates_enrolled_total",
			Help: "Total number of candidates enrolled",
		}),
	}
}
