package fixtures

import (
	"testing"

	"github.com/google/uuid"

	"github.com/mindaccess/opendoor-backend/internal/domain/user"
)

// UserBuilder builds enrolled test users
type UserBuilder struct {
	t        *testing.T
	id       uuid.UUID
	fullName string
	statusID uuid.UUID
	zones    []uuid.UUID
	denied   int
}

// NewUserBuilder creates a UserBuilder with defaults
func NewUserBuilder(t *testing.T) *UserBuilder {
	t.Helper()
	return &UserBuilder{
		t:        t,
		id:       uuid.New(),
		fullName: "Test User",
		statusID: uuid.New(),
	}
}

// WithID sets the user ID
func (b *UserBuilder) WithID(id uuid.UUID) *UserBuilder {
	b.id = id
	return b
}

// WithFullName sets the display name
func (b *UserBuilder) WithFullName(name string) *UserBuilder {
	b.fullName = name
	return b
}

// WithStatusID sets the status
func (b *UserBuilder) WithStatusID(id uuid.UUID) *UserBuilder {
	b.statusID = id
	return b
}

// WithZones sets the authorized zones
func (b *UserBuilder) WithZones(zones ...uuid.UUID) *UserBuilder {
	b.zones = zones
	return b
}

// WithConsecutiveDenied sets the denial streak counter
func (b *UserBuilder) WithConsecutiveDenied(n int) *UserBuilder {
	b.denied = n
	return b
}

// Build creates the User entity
func (b *UserBuilder) Build() *user.User {
	return &user.User{
		ID:                        b.id,
		FullName:                  b.fullName,
		StatusID:                  b.statusID,
		AuthorizedZones:           b.zones,
		ConsecutiveDeniedAccesses: b.denied,
	}
}
