package user

import (
	"github.com/google/uuid"
)

// User is a permanently enrolled identity with explicit zone authorizations.
// The record store owns the persisted row; the engine holds a cycle-scoped
// copy and writes back only the denial-streak counter.
type User struct {
	ID                        uuid.UUID      `json:"id"`
	FullName                  string         `json:"full_name"`
	StatusID                  uuid.UUID      `json:"status_id"`
	AuthorizedZones           []uuid.UUID    `json:"authorized_zones"`
	ConsecutiveDeniedAccesses int            `json:"consecutive_denied_accesses"`
	RoleDetails               map[string]any `json:"role_details,omitempty"`
	ProfilePictureURL         *string        `json:"profile_picture_url,omitempty"`
}

// HasZoneAccess reports whether the user is authorized for the zone.
// An absent zone list denies access rather than failing the cycle.
func (u *User) HasZoneAccess(zoneID uuid.UUID) bool {
	for _, z := range u.AuthorizedZones {
		if z == zoneID {
			return true
		}
	}
	return false
}

// IsBlocked reports whether the user's status is the access-denied status.
func (u *User) IsBlocked(accessDeniedStatusID uuid.UUID) bool {
	return u.StatusID == accessDeniedStatusID
}

// RecordGrant resets the denial streak. It returns true when the counter
// actually changed, so callers can skip a redundant store write.
func (u *User) RecordGrant() bool {
	if u.ConsecutiveDeniedAccesses == 0 {
		return false
	}
	u.ConsecutiveDeniedAccesses = 0
	return true
}

// RecordDenial increments the denial streak and returns the new count.
func (u *User) RecordDenial() int {
	u.ConsecutiveDeniedAccesses++
	return u.ConsecutiveDeniedAccesses
}
