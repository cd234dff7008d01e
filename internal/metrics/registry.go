package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/mindaccess/opendoor-backend/internal/domain/access"
	"github.com/mindaccess/opendoor-backend/internal/service/accessdecision"
)

// Registry holds the domain metrics for the access controller.
type Registry struct {
	DecisionsTotal     *prometheus.CounterVec
	DecisionLatency    prometheus.Histogram
	ActuationFailures  prometheus.Counter
	AuditWriteFailures prometheus.Counter
	DeniedStreaks      *prometheus.CounterVec
	CaptureCycles      *prometheus.CounterVec
}

// NewRegistry creates and registers all instruments on the given registerer.
func NewRegistry(reg prometheus.Registerer) *Registry {
	r := &Registry{
		DecisionsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "opendoor_decisions_total",
			Help: "Decision cycles by verdict and match status.",
		}, []string{"decision", "match_status"}),
		DecisionLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "opendoor_decision_latency_seconds",
			Help:    "End-to-end latency of one decision cycle.",
			Buckets: prometheus.DefBuckets,
		}),
		ActuationFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "opendoor_actuation_failures_total",
			Help: "Door open commands that failed to transmit.",
		}),
		AuditWriteFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "opendoor_audit_write_failures_total",
			Help: "Audit log entries that could not be persisted.",
		}),
		DeniedStreaks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "opendoor_denied_streaks_total",
			Help: "Denial streaks crossing the configured warning threshold.",
		}, []string{"user_type"}),
		CaptureCycles: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "opendoor_capture_cycles_total",
			Help: "Capture loop cycles by result.",
		}, []string{"result"}),
	}

	reg.MustRegister(
		r.DecisionsTotal,
		r.DecisionLatency,
		r.ActuationFailures,
		r.AuditWriteFailures,
		r.DeniedStreaks,
		r.CaptureCycles,
	)
	return r
}

// RecordDecision implements accessdecision.MetricsCollector.
func (r *Registry) RecordDecision(outcome *accessdecision.Outcome, latency time.Duration) {
	r.DecisionsTotal.WithLabelValues(
		outcome.Decision.String(),
		outcome.MatchStatus.String(),
	).Inc()
	r.DecisionLatency.Observe(latency.Seconds())
}

// RecordActuationFailure implements accessdecision.MetricsCollector.
func (r *Registry) RecordActuationFailure() {
	r.ActuationFailures.Inc()
}

// RecordAuditWriteFailure implements accessdecision.MetricsCollector.
func (r *Registry) RecordAuditWriteFailure() {
	r.AuditWriteFailures.Inc()
}

// RecordDeniedStreak implements accessdecision.MetricsCollector.
func (r *Registry) RecordDeniedStreak(userType access.UserType) {
	r.DeniedStreaks.WithLabelValues(userType.String()).Inc()
}

// RecordCaptureCycle counts one capture loop iteration.
func (r *Registry) RecordCaptureCycle(result string) {
	r.CaptureCycles.WithLabelValues(result).Inc()
}
