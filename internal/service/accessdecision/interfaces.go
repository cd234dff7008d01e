package accessdecision

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/mindaccess/opendoor-backend/internal/domain/access"
	"github.com/mindaccess/opendoor-backend/internal/domain/observed"
	"github.com/mindaccess/opendoor-backend/internal/domain/user"
	"github.com/mindaccess/opendoor-backend/internal/domain/vector"
)

// Service is the access decision engine. Decide runs one full cycle and
// always returns a terminal outcome; collaborator faults surface as the
// error outcome, never as a returned error or panic.
type Service interface {
	Decide(ctx context.Context, embedding vector.Embedding, zoneID uuid.UUID) *Outcome
}

// UserMatch is the enrolled-pool nearest-neighbor result.
type UserMatch struct {
	UserID   uuid.UUID
	Distance float64
}

// ObservedMatch is the observed-pool nearest-neighbor result, carrying the
// full candidate record since no separate detail fetch exists for this pool.
type ObservedMatch struct {
	Observed *observed.Observed
	Distance float64
}

// UserRepository provides enrolled-pool similarity search and user state.
type UserRepository interface {
	// MatchEmbedding returns the single nearest enrolled candidate within
	// threshold, or access.ErrNoMatch when none qualifies.
	MatchEmbedding(ctx context.Context, embedding vector.Embedding, threshold float64) (*UserMatch, error)
	// GetByID retrieves the full enrolled-user record including zones.
	GetByID(ctx context.Context, id uuid.UUID) (*user.User, error)
	// UpdateConsecutiveDenied writes the denial-streak counter.
	UpdateConsecutiveDenied(ctx context.Context, id uuid.UUID, count int) error
}

// ObservedRepository provides observed-pool similarity search and lifecycle
// writes.
type ObservedRepository interface {
	// MatchEmbedding returns the single nearest observed candidate within
	// threshold, or access.ErrNoMatch when none qualifies.
	MatchEmbedding(ctx context.Context, embedding vector.Embedding, threshold float64) (*ObservedMatch, error)
	// Create inserts a new observed record.
	Create(ctx context.Context, o *observed.Observed) error
	// Update persists the mutable cycle fields (access count, last seen,
	// zones, denial streak, status).
	Update(ctx context.Context, o *observed.Observed) error
}

// AccessLogRepository appends audit entries. Entries are write-once.
type AccessLogRepository interface {
	Insert(ctx context.Context, entry *access.LogEntry) error
}

// DoorActuator transmits the open command to the relay. The transmit result
// is secondary: a failure is logged but never alters the decision.
type DoorActuator interface {
	Open(ctx context.Context) error
}

// MetricsCollector records decision telemetry.
type MetricsCollector interface {
	RecordDecision(outcome *Outcome, latency time.Duration)
	RecordActuationFailure()
	RecordAuditWriteFailure()
	RecordDeniedStreak(userType access.UserType)
}

// Clock abstracts time for expiry checks and record timestamps.
type Clock interface {
	Now() time.Time
}

// RealClock implements Clock using system time.
type RealClock struct{}

func (RealClock) Now() time.Time { return time.Now().UTC() }

// Outcome is the terminal result of one decision cycle.
type Outcome struct {
	Granted        bool
	Decision       access.Decision
	MatchStatus    access.MatchStatus
	UserType       access.UserType
	UserID         *uuid.UUID
	ObservedUserID *uuid.UUID
	FullName       string
	Similarity     float64
	Reason         string
	Latency        time.Duration
}
