package accessdecision

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/mindaccess/opendoor-backend/internal/domain/access"
	"github.com/mindaccess/opendoor-backend/internal/domain/observed"
	"github.com/mindaccess/opendoor-backend/internal/domain/vector"
)

// Policy carries the decision constants. All of them are configuration, not
// code: thresholds are raw dissimilarity distances, statuses are the opaque
// identifiers owned by the record store.
type Policy struct {
	// UserMatchThreshold gates the enrolled pool (stage 1).
	UserMatchThreshold float64
	// ObservedMatchThreshold gates the observed pool (stage 2). Tighter,
	// since observed embeddings are less curated.
	ObservedMatchThreshold float64
	// ObservedValidity is the access window granted to a new observed user.
	ObservedValidity time.Duration
	// NewObservedStatusID marks an observed record as holding temporary access.
	NewObservedStatusID uuid.UUID
	// AccessDeniedStatusID marks an enrolled user as blocked.
	AccessDeniedStatusID uuid.UUID
	// DeniedStreakThreshold is the consecutive-denial count that raises an
	// operator warning. Crossing it never blocks anyone automatically.
	DeniedStreakThreshold int
	// CameraID, when set, is stamped on every audit entry.
	CameraID *uuid.UUID
}

const (
	reasonRegisteredGranted    = "Registered user matched and has access."
	reasonRegisteredDeniedZone = "Registered user does not have access to requested zone."
	reasonObservedGranted      = "Observed user matched and has active temporary access."
	reasonObservedExpired      = "Observed user access expired."
	reasonNewObserved          = "New observed user registered and access granted."
	reasonNoMatch              = "No match found and could not register new observed user."
)

type service struct {
	users    UserRepository
	observed ObservedRepository
	logs     AccessLogRepository
	actuator DoorActuator
	metrics  MetricsCollector
	policy   Policy
	clock    Clock
	logger   *zap.Logger
}

// NewService creates the access decision engine. All collaborators are
// injected; the engine holds no state that survives across cycles.
func NewService(
	users UserRepository,
	observedRepo ObservedRepository,
	logs AccessLogRepository,
	actuator DoorActuator,
	metrics MetricsCollector,
	policy Policy,
	clock Clock,
	logger *zap.Logger,
) Service {
	if clock == nil {
		clock = RealClock{}
	}
	return &service{
		users:    users,
		observed: observedRepo,
		logs:     logs,
		actuator: actuator,
		metrics:  metrics,
		policy:   policy,
		clock:    clock,
		logger:   logger,
	}
}

// Decide runs one capture cycle: enrolled match, then observed match, then
// provisional enrollment. Exactly one audit entry is written per invocation
// and exactly one actuation command is issued iff the outcome grants.
func (s *service) Decide(ctx context.Context, embedding vector.Embedding, zoneID uuid.UUID) *Outcome {
	start := s.clock.Now()
	entry := access.NewLogEntry(embedding, zoneID, s.policy.CameraID)

	out, err := s.evaluate(ctx, embedding, zoneID, entry)
	if err != nil {
		s.logger.Error("decision cycle fault", zap.Stringer("zone_id", zoneID), zap.Error(err))
		entry.Result = false
		entry.Decision = access.DecisionError
		entry.MatchStatus = access.MatchStatusValidationError
		entry.Reason = fmt.Sprintf("Error during validation: %v", err)
		out = &Outcome{
			Granted:     false,
			Decision:    access.DecisionError,
			MatchStatus: access.MatchStatusValidationError,
			UserType:    entry.UserType,
			Reason:      entry.Reason,
		}
	}
	out.Latency = s.clock.Now().Sub(start)

	// Best-effort audit write: a logging failure is a warning, never a new fault.
	if logErr := s.logs.Insert(ctx, entry); logErr != nil {
		s.logger.Warn("audit log write failed", zap.Error(logErr))
		if s.metrics != nil {
			s.metrics.RecordAuditWriteFailure()
		}
	}

	if s.metrics != nil {
		s.metrics.RecordDecision(out, out.Latency)
	}
	return out
}

// evaluate walks the three stages. A returned error means a collaborator
// fault; normal denials return an outcome with err == nil.
func (s *service) evaluate(ctx context.Context, embedding vector.Embedding, zoneID uuid.UUID, entry *access.LogEntry) (*Outcome, error) {
	// Stage 1: enrolled pool.
	match, err := s.users.MatchEmbedding(ctx, embedding, s.policy.UserMatchThreshold)
	switch {
	case err == nil:
		if match.Distance <= s.policy.UserMatchThreshold {
			return s.decideEnrolled(ctx, match, zoneID, entry)
		}
	case errors.Is(err, access.ErrNoMatch):
		// Fall through to the observed pool.
	default:
		return nil, fmt.Errorf("enrolled pool search: %w", err)
	}

	// Stage 2: observed pool.
	obsMatch, err := s.observed.MatchEmbedding(ctx, embedding, s.policy.ObservedMatchThreshold)
	switch {
	case err == nil:
		if obsMatch.Distance <= s.policy.ObservedMatchThreshold {
			return s.decideObserved(ctx, obsMatch, zoneID, entry)
		}
	case errors.Is(err, access.ErrNoMatch):
		// Fall through to provisional enrollment.
	default:
		return nil, fmt.Errorf("observed pool search: %w", err)
	}

	// Stage 3: no match in either pool.
	return s.registerObserved(ctx, embedding, zoneID, entry)
}

func (s *service) decideEnrolled(ctx context.Context, match *UserMatch, zoneID uuid.UUID, entry *access.LogEntry) (*Outcome, error) {
	similarity := vector.Similarity(match.Distance)
	entry.UserID = &match.UserID
	entry.UserType = access.UserTypeRegistered
	entry.ConfidenceScore = &similarity

	u, err := s.users.GetByID(ctx, match.UserID)
	if err != nil {
		return nil, fmt.Errorf("enrolled user fetch %s: %w", match.UserID, err)
	}

	if u.HasZoneAccess(zoneID) && !u.IsBlocked(s.policy.AccessDeniedStatusID) {
		entry.Result = true
		entry.Decision = access.DecisionGranted
		entry.MatchStatus = access.MatchStatusRegisteredMatched
		entry.Reason = reasonRegisteredGranted

		s.openDoor(ctx)

		if u.RecordGrant() {
			if err := s.users.UpdateConsecutiveDenied(ctx, u.ID, 0); err != nil {
				return nil, fmt.Errorf("reset denial streak for %s: %w", u.ID, err)
			}
		}

		return &Outcome{
			Granted:     true,
			Decision:    access.DecisionGranted,
			MatchStatus: access.MatchStatusRegisteredMatched,
			UserType:    access.UserTypeRegistered,
			UserID:      &u.ID,
			FullName:    u.FullName,
			Similarity:  similarity,
			Reason:      reasonRegisteredGranted,
		}, nil
	}

	entry.Result = false
	entry.Decision = access.DecisionDenied
	entry.MatchStatus = access.MatchStatusRegisteredAccessDenied
	entry.Reason = reasonRegisteredDeniedZone

	streak := u.RecordDenial()
	if err := s.users.UpdateConsecutiveDenied(ctx, u.ID, streak); err != nil {
		return nil, fmt.Errorf("increment denial streak for %s: %w", u.ID, err)
	}
	s.warnOnStreak(u.ID, access.UserTypeRegistered, streak)

	return &Outcome{
		Granted:     false,
		Decision:    access.DecisionDenied,
		MatchStatus: access.MatchStatusRegisteredAccessDenied,
		UserType:    access.UserTypeRegistered,
		UserID:      &u.ID,
		FullName:    u.FullName,
		Similarity:  similarity,
		Reason:      reasonRegisteredDeniedZone,
	}, nil
}

func (s *service) decideObserved(ctx context.Context, match *ObservedMatch, zoneID uuid.UUID, entry *access.LogEntry) (*Outcome, error) {
	o := match.Observed
	now := s.clock.Now()
	similarity := vector.Similarity(match.Distance)
	entry.ObservedUserID = &o.ID
	entry.UserType = access.UserTypeObserved
	entry.ConfidenceScore = &similarity

	if o.Expired(now) || o.StatusID != s.policy.NewObservedStatusID {
		entry.Result = false
		entry.Decision = access.DecisionDenied
		entry.MatchStatus = access.MatchStatusObservedAccessDeniedExpired
		entry.Reason = reasonObservedExpired

		o.RecordDenial(zoneID, now)
		if err := s.observed.Update(ctx, o); err != nil {
			return nil, fmt.Errorf("update denied observed user %s: %w", o.ID, err)
		}
		s.warnOnStreak(o.ID, access.UserTypeObserved, o.ConsecutiveDeniedAccesses)

		return &Outcome{
			Granted:        false,
			Decision:       access.DecisionDenied,
			MatchStatus:    access.MatchStatusObservedAccessDeniedExpired,
			UserType:       access.UserTypeObserved,
			ObservedUserID: &o.ID,
			FullName:       observedName(o.ID),
			Similarity:     similarity,
			Reason:         reasonObservedExpired,
		}, nil
	}

	entry.Result = true
	entry.Decision = access.DecisionGranted
	entry.MatchStatus = access.MatchStatusObservedUpdated
	entry.Reason = reasonObservedGranted

	s.openDoor(ctx)

	o.RecordVisit(zoneID, now)
	if err := s.observed.Update(ctx, o); err != nil {
		return nil, fmt.Errorf("update granted observed user %s: %w", o.ID, err)
	}

	return &Outcome{
		Granted:        true,
		Decision:       access.DecisionGranted,
		MatchStatus:    access.MatchStatusObservedUpdated,
		UserType:       access.UserTypeObserved,
		ObservedUserID: &o.ID,
		FullName:       observedName(o.ID),
		Similarity:     similarity,
		Reason:         reasonObservedGranted,
	}, nil
}

func (s *service) registerObserved(ctx context.Context, embedding vector.Embedding, zoneID uuid.UUID, entry *access.LogEntry) (*Outcome, error) {
	now := s.clock.Now()
	o := observed.NewObserved(embedding, s.policy.NewObservedStatusID, zoneID, now, s.policy.ObservedValidity)

	if err := s.observed.Create(ctx, o); err != nil {
		// Per policy the failed provisional insert is a denial, not a fault:
		// the next capture cycle is the retry mechanism.
		s.logger.Warn("could not register observed user", zap.Error(err))
		entry.Result = false
		entry.Decision = access.DecisionDenied
		entry.MatchStatus = access.MatchStatusNoMatchFound
		entry.Reason = reasonNoMatch
		return &Outcome{
			Granted:     false,
			Decision:    access.DecisionDenied,
			MatchStatus: access.MatchStatusNoMatchFound,
			UserType:    access.UserTypeUnknown,
			Reason:      reasonNoMatch,
		}, nil
	}

	entry.ObservedUserID = &o.ID
	entry.UserType = access.UserTypeObserved
	entry.Result = true
	entry.Decision = access.DecisionGranted
	entry.MatchStatus = access.MatchStatusNewObservedRegistered
	entry.Reason = reasonNewObserved

	s.openDoor(ctx)

	return &Outcome{
		Granted:        true,
		Decision:       access.DecisionGranted,
		MatchStatus:    access.MatchStatusNewObservedRegistered,
		UserType:       access.UserTypeObserved,
		ObservedUserID: &o.ID,
		FullName:       observedName(o.ID),
		Reason:         reasonNewObserved,
	}, nil
}

// openDoor issues the actuation command. Transmit failure is surfaced as a
// warning only; the decision and its audit entry stand.
func (s *service) openDoor(ctx context.Context) {
	if err := s.actuator.Open(ctx); err != nil {
		s.logger.Warn("door actuation failed", zap.Error(err))
		if s.metrics != nil {
			s.metrics.RecordActuationFailure()
		}
	}
}

// warnOnStreak flags a denial streak crossing the configured threshold.
// Whether repeated denials should force a blocked status is an unresolved
// policy question, so the engine only makes the condition visible.
func (s *service) warnOnStreak(id uuid.UUID, userType access.UserType, streak int) {
	if s.policy.DeniedStreakThreshold > 0 && streak >= s.policy.DeniedStreakThreshold {
		s.logger.Warn("consecutive denial threshold reached",
			zap.Stringer("id", id),
			zap.Stringer("user_type", userType),
			zap.Int("consecutive_denied_accesses", streak))
		if s.metrics != nil {
			s.metrics.RecordDeniedStreak(userType)
		}
	}
}

func observedName(id uuid.UUID) string {
	return "Observed " + id.String()[:8]
}
