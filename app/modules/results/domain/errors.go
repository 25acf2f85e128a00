package resultsdomain

import "errors"

// Domain errors raised by lifecycle transitions. They are deterministic
// precondition failures; callers surface the message and do not retry.
var (
	// ErrAlreadyOpen indicates the round already has results.
	ErrAlreadyOpen = errors.New("cannot open this round as it is already open")

	// ErrPreviousRoundInsufficient indicates the previous round has fewer
	// finished results than a subsequent round requires.
	ErrPreviousRoundInsufficient = errors.New("rounds with less than 8 competitors cannot have a subsequent round")

	// ErrNoQualifiers indicates nobody is registered for or qualified to the round.
	ErrNoQualifiers = errors.New("cannot open this round as no one qualified")

	// ErrNextRoundOpen indicates the following round is already open.
	ErrNextRoundOpen = errors.New("cannot clear this round as the next round is already open")

	// ErrCompetitorNotInRound indicates the competitor has no result in the round.
	ErrCompetitorNotInRound = errors.New("competitor is not in this round")

	// ErrCompetitorNotQualified indicates the competitor may not be added to the round.
	ErrCompetitorNotQualified = errors.New("cannot add competitor as they do not qualify")

	// ErrInvalidAttempts indicates the attempt list does not fit the round format or cutoff.
	ErrInvalidAttempts = errors.New("invalid attempts for this round")

	// ErrRoundNotFound indicates the round id does not exist in the competition.
	ErrRoundNotFound = errors.New("round not found")

	// ErrCompetitionNotFound indicates no competition document exists for the id.
	ErrCompetitionNotFound = errors.New("competition not found")
)

// Data-integrity faults. These indicate malformed configuration rather than a
// user mistake and abort the operation.
var (
	ErrUnrecognizedConditionType = errors.New("unrecognized advancement condition type")
	ErrUnrecognizedSortKey       = errors.New("unrecognized sort key")
)

// IsDomainError reports whether err is a user-facing precondition failure.
func IsDomainError(err error) bool {
	for _, target := range []error{
		ErrAlreadyOpen,
		ErrPreviousRoundInsufficient,
		ErrNoQualifiers,
		ErrNextRoundOpen,
		ErrCompetitorNotInRound,
		ErrCompetitorNotQualified,
		ErrInvalidAttempts,
		ErrRoundNotFound,
		ErrCompetitionNotFound,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
