package access

import "errors"

// ErrNoMatch is returned by similarity lookups when no candidate falls
// within the stage threshold. It is normal control flow, not a fault.
var ErrNoMatch = errors.New("no matching candidate within threshold")

// Decision is the terminal verdict of a cycle.
type Decision int

const (
	DecisionDenied Decision = iota
	DecisionGranted
	DecisionError
)

func (d Decision) String() string {
	switch d {
	case DecisionDenied:
		return "access_denied"
	case DecisionGranted:
		return "access_granted"
	case DecisionError:
		return "error"
	default:
		return "unknown"
	}
}

// UserType classifies which population the matched identity belongs to.
type UserType int

const (
	UserTypeUnknown UserType = iota
	UserTypeRegistered
	UserTypeObserved
)

func (t UserType) String() string {
	switch t {
	case UserTypeRegistered:
		return "registered"
	case UserTypeObserved:
		return "observed"
	default:
		return "unknown"
	}
}

// MatchStatus is the closed set of cycle outcomes.
type MatchStatus int

const (
	MatchStatusNoMatchFound MatchStatus = iota
	MatchStatusRegisteredMatched
	MatchStatusRegisteredAccessDenied
	MatchStatusObservedUpdated
	MatchStatusObservedAccessDeniedExpired
	MatchStatusNewObservedRegistered
	MatchStatusValidationError
)

func (s MatchStatus) String() string {
	switch s {
	case MatchStatusNoMatchFound:
		return "no_match_found"
	case MatchStatusRegisteredMatched:
		return "registered_user_matched"
	case MatchStatusRegisteredAccessDenied:
		return "registered_user_access_denied"
	case MatchStatusObservedUpdated:
		return "observed_user_updated"
	case MatchStatusObservedAccessDeniedExpired:
		return "observed_user_access_denied_expired"
	case MatchStatusNewObservedRegistered:
		return "new_observed_user_registered"
	case MatchStatusValidationError:
		return "validation_error"
	default:
		return "unknown"
	}
}

// Granted reports whether the status is one of the granting outcomes.
func (s MatchStatus) Granted() bool {
	switch s {
	case MatchStatusRegisteredMatched, MatchStatusObservedUpdated, MatchStatusNewObservedRegistered:
		return true
	default:
		return false
	}
}
