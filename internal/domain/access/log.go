package access

import (
	"github.com/google/uuid"

	"github.com/mindaccess/opendoor-backend/internal/domain/vector"
)

// LogEntry is the append-only audit record. Exactly one entry is written per
// decision cycle regardless of outcome, and entries are never updated or
// deleted by the engine.
type LogEntry struct {
	UserID          *uuid.UUID       `json:"user_id,omitempty"`
	ObservedUserID  *uuid.UUID       `json:"observed_user_id,omitempty"`
	CameraID        *uuid.UUID       `json:"camera_id,omitempty"`
	Result          bool             `json:"result"`
	UserType        UserType         `json:"user_type"`
	VectorAttempted vector.Embedding `json:"vector_attempted"`
	MatchStatus     MatchStatus      `json:"match_status"`
	Decision        Decision         `json:"decision"`
	Reason          string           `json:"reason"`
	ConfidenceScore *float64         `json:"confidence_score,omitempty"`
	RequestedZoneID uuid.UUID        `json:"requested_zone_id"`
}

// NewLogEntry seeds an entry with the no-match defaults; the engine narrows
// it as stages resolve.
func NewLogEntry(embedding vector.Embedding, zoneID uuid.UUID, cameraID *uuid.UUID) *LogEntry {
	return &LogEntry{
		CameraID:        cameraID,
		Result:          false,
		UserType:        UserTypeUnknown,
		VectorAttempted: embedding,
		MatchStatus:     MatchStatusNoMatchFound,
		Decision:        DecisionDenied,
		Reason:          "No match found.",
		RequestedZoneID: zoneID,
	}
}

// Consistent verifies the audit invariant result=true ⇔ decision=access_granted.
func (e *LogEntry) Consistent() bool {
	return e.Result == (e.Decision == DecisionGranted)
}
