package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the application.
type Metrics struct {
	FormsCreated       prometheus.Counter
	FormsRevised       prometheus.Counter
	ResponsesCompleted prometheus.Counter
	GatingRequests     *prometheus.CounterVec
	RequestDuration    *prometheus.HistogramVec
}

// New creates and registers all Prometheus metrics.
func New() *Metrics {
	return &Metrics{
		FormsCreated: promauto.NewCounter(prometheus.CounterOpts{
			Name: "cohort_forms_created_total",
			Help: "Total number of forms created (version 1 rows)",
		}),
		FormsRevised: promauto.NewCounter(prometheus.CounterOpts{
			Name: "cohort_forms_revised_total",
			Help: "Total number of form revisions (version bump rows)",
		}),
		ResponsesCompleted: promauto.NewCounter(prometheus.CounterOpts{
			Name: "cohort_responses_completed_total",
			Help: "Total number of form responses marked complete",
		}),
		GatingRequests: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "cohort_gating_requests_total",
			Help: "Gating resolutions by resulting phase",
		}, []string{"phase"}),
		RequestDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "cohort_http_request_duration_seconds",
			Help:    "HTTP request latency by route and status",
			Buckets: prometheus.DefBuckets,
		}, []string{"route", "status"}),
	}
}

// ObserveGating records one gating resolution for the given phase label
// ("consent" or "module").
func (m *Metrics) ObserveGating(phase string) {
	if m == nil {
		return
	}
	m.GatingRequests.WithLabelValues(phase).Inc()
}
