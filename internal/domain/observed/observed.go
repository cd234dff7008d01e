package observed

import (
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/mindaccess/opendoor-backend/internal/domain/vector"
)

// ZoneSet holds the zones an observed user has entered through. Union is
// idempotent by construction; element order is not significant.
type ZoneSet map[uuid.UUID]struct{}

// NewZoneSet builds a set from the given zone IDs.
func NewZoneSet(ids ...uuid.UUID) ZoneSet {
	s := make(ZoneSet, len(ids))
	for _, id := range ids {
		s[id] = struct{}{}
	}
	return s
}

// Add inserts a zone. Re-adding an existing zone does not grow the set.
func (s ZoneSet) Add(id uuid.UUID) {
	s[id] = struct{}{}
}

// Contains reports membership.
func (s ZoneSet) Contains(id uuid.UUID) bool {
	_, ok := s[id]
	return ok
}

// Len returns the number of zones.
func (s ZoneSet) Len() int {
	return len(s)
}

// IDs returns the zones in a stable order for persistence and comparison.
func (s ZoneSet) IDs() []uuid.UUID {
	out := make([]uuid.UUID, 0, len(s))
	for id := range s {
		out = append(out, id)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].String() < out[j].String()
	})
	return out
}

// Observed is a provisional identity created automatically for an
// unrecognized face. Expiry is a read-time classification: the engine never
// deletes observed rows or writes an expired status.
type Observed struct {
	ID                        uuid.UUID        `json:"id"`
	StatusID                  uuid.UUID        `json:"status_id"`
	Embedding                 vector.Embedding `json:"embedding,omitempty"`
	FirstSeenAt               time.Time        `json:"first_seen_at"`
	LastSeenAt                time.Time        `json:"last_seen_at"`
	AccessCount               int              `json:"access_count"`
	ConsecutiveDeniedAccesses int              `json:"consecutive_denied_accesses"`
	ExpiresAt                 *time.Time       `json:"expires_at,omitempty"`
	LastAccessedZones         ZoneSet          `json:"last_accessed_zones"`
	AlertTriggered            bool             `json:"alert_triggered"`
	PotentialMatchUserID      *uuid.UUID       `json:"potential_match_user_id,omitempty"`
	FaceImageURL              *string          `json:"face_image_url,omitempty"`
}

// NewObserved creates a provisional record for an unrecognized face with a
// time-limited access window starting now.
func NewObserved(embedding vector.Embedding, statusID, zoneID uuid.UUID, now time.Time, validity time.Duration) *Observed {
	expires := now.Add(validity)
	return &Observed{
		ID:                uuid.New(),
		StatusID:          statusID,
		Embedding:         embedding,
		FirstSeenAt:       now,
		LastSeenAt:        now,
		AccessCount:       1,
		ExpiresAt:         &expires,
		LastAccessedZones: NewZoneSet(zoneID),
	}
}

// Expired reports whether the validity window has closed. A record with no
// expiry never expires.
func (o *Observed) Expired(now time.Time) bool {
	return o.ExpiresAt != nil && o.ExpiresAt.Before(now)
}

// RecordVisit applies a granted cycle: bumps the access count, refreshes
// last-seen, unions in the zone, and resets the denial streak.
func (o *Observed) RecordVisit(zoneID uuid.UUID, now time.Time) {
	o.AccessCount++
	o.LastSeenAt = now
	if o.LastAccessedZones == nil {
		o.LastAccessedZones = NewZoneSet()
	}
	o.LastAccessedZones.Add(zoneID)
	o.ConsecutiveDeniedAccesses = 0
}

// RecordDenial applies a denied cycle: refreshes last-seen, unions in the
// zone, and increments the denial streak. The access count is untouched.
func (o *Observed) RecordDenial(zoneID uuid.UUID, now time.Time) {
	o.LastSeenAt = now
	if o.LastAccessedZones == nil {
		o.LastAccessedZones = NewZoneSet()
	}
	o.LastAccessedZones.Add(zoneID)
	o.ConsecutiveDeniedAccesses++
}
