package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"simkah/internal/domain"
)

// Metrics holds all Prometheus metrics for the application. Methods are safe
// on a nil receiver so callers without metrics wired skip recording.
type Metrics struct {
	SubmissionsCreated prometheus.Counter
	Transitions        *prometheus.CounterVec
	ClaimConflicts     prometheus.Counter
	GateFailures       *prometheus.CounterVec
	RequestDuration    *prometheus.HistogramVec
}

// New creates and registers all Prometheus metrics.
func New() *Metrics {
	return &Metrics{
		SubmissionsCreated: promauto.NewCounter(prometheus.CounterOpts{
			Name: "simkah_submissions_created_total",
			Help: "Total number of submissions created",
		}),
		Transitions: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "simkah_status_transitions_total",
			Help: "Total number of status transitions, labelled by the new status",
		}, []string{"status"}),
		ClaimConflicts: promauto.NewCounter(prometheus.CounterOpts{
			Name: "simkah_claim_conflicts_total",
			Help: "Total number of claim attempts lost to another actor",
		}),
		GateFailures: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "simkah_gate_failures_total",
			Help: "Total number of submit attempts rejected by a gate",
		}, []string{"gate"}),
		RequestDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "simkah_http_request_duration_seconds",
			Help:    "HTTP request latency by method, path, and status",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "path", "status"}),
	}
}

// ObserveRequest records one HTTP request's latency.
func (m *Metrics) ObserveRequest(method, path string, status int, d time.Duration) {
	if m == nil {
		return
	}
	m.RequestDuration.WithLabelValues(method, path, strconv.Itoa(status)).Observe(d.Seconds())
}

func (m *Metrics) IncSubmissionsCreated() {
	if m == nil {
		return
	}
	m.SubmissionsCreated.Inc()
}

func (m *Metrics) IncTransition(target domain.Status) {
	if m == nil {
		return
	}
	m.Transitions.WithLabelValues(target.String()).Inc()
}

func (m *Metrics) IncClaimConflict() {
	if m == nil {
		return
	}
	m.ClaimConflicts.Inc()
}

func (m *Metrics) IncGateFailure(gate string) {
	if m == nil {
		return
	}
	m.GateFailures.WithLabelValues(gate).Inc()
}
