package accessdecision

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"github.com/mindaccess/opendoor-backend/internal/domain/access"
	"github.com/mindaccess/opendoor-backend/internal/domain/observed"
	"github.com/mindaccess/opendoor-backend/internal/domain/user"
	"github.com/mindaccess/opendoor-backend/internal/domain/vector"
)

type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) MatchEmbedding(ctx context.Context, embedding vector.Embedding, threshold float64) (*UserMatch, error) {
	args := m.Called(ctx, embedding, threshold)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*UserMatch), args.Error(1)
}

func (m *MockUserRepository) GetByID(ctx context.Context, id uuid.UUID) (*user.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*user.User), args.Error(1)
}

func (m *MockUserRepository) UpdateConsecutiveDenied(ctx context.Context, id uuid.UUID, count int) error {
	args := m.Called(ctx, id, count)
	return args.Error(0)
}

type MockObservedRepository struct {
	mock.Mock
}

func (m *MockObservedRepository) MatchEmbedding(ctx context.Context, embedding vector.Embedding, threshold float64) (*ObservedMatch, error) {
	args := m.Called(ctx, embedding, threshold)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*ObservedMatch), args.Error(1)
}

func (m *MockObservedRepository) Create(ctx context.Context, o *observed.Observed) error {
	args := m.Called(ctx, o)
	return args.Error(0)
}

func (m *MockObservedRepository) Update(ctx context.Context, o *observed.Observed) error {
	args := m.Called(ctx, o)
	return args.Error(0)
}

type MockDoorActuator struct {
	mock.Mock
}

func (m *MockDoorActuator) Open(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

// capturingLogRepo records inserted audit entries for assertions.
type capturingLogRepo struct {
	entries []*access.LogEntry
	err     error
}

func (r *capturingLogRepo) Insert(ctx context.Context, entry *access.LogEntry) error {
	r.entries = append(r.entries, entry)
	return r.err
}

// recordingMetrics counts collector calls.
type recordingMetrics struct {
	decisions          int
	lastOutcome        *Outcome
	actuationFailures  int
	auditWriteFailures int
	deniedStreaks      int
}

func (r *recordingMetrics) RecordDecision(outcome *Outcome, latency time.Duration) {
	r.decisions++
	r.lastOutcome = outcome
}

func (r *recordingMetrics) RecordActuationFailure() {
	r.actuationFailures++
}

func (r *recordingMetrics) RecordAuditWriteFailure() {
	r.auditWriteFailures++
}

func (r *recordingMetrics) RecordDeniedStreak(userType access.UserType) {
	r.deniedStreaks++
}

// fixedClock pins Now for deterministic expiry checks.
type fixedClock struct {
	now time.Time
}

func (c fixedClock) Now() time.Time {
	return c.now
}
