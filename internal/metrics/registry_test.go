package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"

	"github.com/mindaccess/opendoor-backend/internal/domain/access"
	"github.com/mindaccess/opendoor-backend/internal/service/accessdecision"
)

func TestRegistry_RecordDecision(t *testing.T) {
	r := NewRegistry(prometheus.NewRegistry())

	out := &accessdecision.Outcome{
		Decision:    access.DecisionGranted,
		MatchStatus: access.MatchStatusRegisteredMatched,
	}
	r.RecordDecision(out, 25*time.Millisecond)
	r.RecordDecision(out, 30*time.Millisecond)

	counter := r.DecisionsTotal.WithLabelValues("access_granted", "registered_user_matched")
	assert.Equal(t, float64(2), testutil.ToFloat64(counter))
}

func TestRegistry_FailureCounters(t *testing.T) {
	r := NewRegistry(prometheus.NewRegistry())

	r.RecordActuationFailure()
	r.RecordAuditWriteFailure()
	r.RecordAuditWriteFailure()
	r.RecordCaptureCycle("ok")
	r.RecordCaptureCycle("skipped")

	assert.Equal(t, float64(1), testutil.ToFloat64(r.ActuationFailures))
	assert.Equal(t, float64(2), testutil.ToFloat64(r.AuditWriteFailures))
	assert.Equal(t, float64(1), testutil.ToFloat64(r.CaptureCycles.WithLabelValues("ok")))
}
