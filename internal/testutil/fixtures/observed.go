package fixtures

import (
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/mindaccess/opendoor-backend/internal/domain/observed"
	"github.com/mindaccess/opendoor-backend/internal/domain/vector"
)

// ObservedBuilder builds observed test records
type ObservedBuilder struct {
	t           *testing.T
	id          uuid.UUID
	statusID    uuid.UUID
	embedding   vector.Embedding
	firstSeen   time.Time
	lastSeen    time.Time
	accessCount int
	denied      int
	expiresAt   *time.Time
	zones       observed.ZoneSet
}

// NewObservedBuilder creates an ObservedBuilder with defaults: a record first
// seen an hour ago with a week of validity left.
func NewObservedBuilder(t *testing.T) *ObservedBuilder {
	t.Helper()
	now := time.Now().UTC()
	firstSeen := now.Add(-time.Hour)
	expires := now.Add(7 * 24 * time.Hour)
	return &ObservedBuilder{
		t:           t,
		id:          uuid.New(),
		statusID:    uuid.New(),
		embedding:   Embedding(t, 0.5),
		firstSeen:   firstSeen,
		lastSeen:    firstSeen,
		accessCount: 1,
		expiresAt:   &expires,
		zones:       observed.NewZoneSet(),
	}
}

// WithID sets the record ID
func (b *ObservedBuilder) WithID(id uuid.UUID) *ObservedBuilder {
	b.id = id
	return b
}

// WithStatusID sets the status
func (b *ObservedBuilder) WithStatusID(id uuid.UUID) *ObservedBuilder {
	b.statusID = id
	return b
}

// WithEmbedding sets the stored embedding
func (b *ObservedBuilder) WithEmbedding(e vector.Embedding) *ObservedBuilder {
	b.embedding = e
	return b
}

// WithAccessCount sets the visit counter
func (b *ObservedBuilder) WithAccessCount(n int) *ObservedBuilder {
	b.accessCount = n
	return b
}

// WithConsecutiveDenied sets the denial streak counter
func (b *ObservedBuilder) WithConsecutiveDenied(n int) *ObservedBuilder {
	b.denied = n
	return b
}

// WithExpiresAt sets the validity window end
func (b *ObservedBuilder) WithExpiresAt(at time.Time) *ObservedBuilder {
	b.expiresAt = &at
	return b
}

// Expired moves the validity window into the past
func (b *ObservedBuilder) Expired() *ObservedBuilder {
	past := time.Now().UTC().Add(-time.Minute)
	b.expiresAt = &past
	return b
}

// WithZones sets the accessed-zone set
func (b *ObservedBuilder) WithZones(zones ...uuid.UUID) *ObservedBuilder {
	b.zones = observed.NewZoneSet(zones...)
	return b
}

// Build creates the Observed entity
func (b *ObservedBuilder) Build() *observed.Observed {
	return &observed.Observed{
		ID:                        b.id,
		StatusID:                  b.statusID,
		Embedding:                 b.embedding,
		FirstSeenAt:               b.firstSeen,
		LastSeenAt:                b.lastSeen,
		AccessCount:               b.accessCount,
		ConsecutiveDeniedAccesses: b.denied,
		ExpiresAt:                 b.expiresAt,
		LastAccessedZones:         b.zones,
	}
}
