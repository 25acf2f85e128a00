package resultsservice

import (
	"context"

	resultsdomain "github.com/Black-And-White-Club/live-results/app/modules/results/domain"
	"github.com/Black-And-White-Club/live-results/pkg/results"
)

// RoundResult is returned by every round operation: the updated round on
// success, a domain error as failure.
type RoundResult = results.OperationResult[*resultsdomain.Round, error]

// RoundStatusResult is returned by GetRoundStatus.
type RoundStatusResult = results.OperationResult[*RoundStatus, error]

// Service is the round lifecycle API consumed by the HTTP handlers.
type Service interface {
	OpenRound(ctx context.Context, competitionID string, roundID resultsdomain.RoundID) (RoundResult, error)
	ClearRound(ctx context.Context, competitionID string, roundID resultsdomain.RoundID) (RoundResult, error)
	RemoveCompetitorFromRound(ctx context.Context, competitionID string, roundID resultsdomain.RoundID, competitorID int, replace bool) (RoundResult, error)
	AddCompetitorToRound(ctx context.Context, competitionID string, roundID resultsdomain.RoundID, competitorID int) (RoundResult, error)
	RemoveNoShows(ctx context.Context, competitionID string, roundID resultsdomain.RoundID, competitorIDs []int) (RoundResult, error)
	EnterResultAttempts(ctx context.Context, competitionID string, roundID resultsdomain.RoundID, competitorID int, attempts []resultsdomain.Attempt, enteredBy *int) (RoundResult, error)

	GetRound(ctx context.Context, competitionID string, roundID resultsdomain.RoundID) (RoundResult, error)
	GetRoundStatus(ctx context.Context, competitionID string, roundID resultsdomain.RoundID) (RoundStatusResult, error)
}

// CompetitionCache is the in-memory document cache shared by reads and the
// serialized mutations.
type CompetitionCache interface {
	Get(ctx context.Context, competitionID string) (*resultsdomain.Competition, error)
	Put(competitionID string, competition *resultsdomain.Competition)
}

// RecordsProvider hands out the current official records.
type RecordsProvider interface {
	Current() *resultsdomain.RecordsSnapshot
}

// RoundNotifier is told about every committed round change.
type RoundNotifier interface {
	RoundUpdated(ctx context.Context, competitionID string, round *resultsdomain.Round) error
}

// RoundStatus is the administrative view of a round.
type RoundStatus struct {
	RoundID           resultsdomain.RoundID           `json:"round_id"`
	State             resultsdomain.RoundState        `json:"state"`
	ResultCount       int                             `json:"result_count"`
	MissingQualifying resultsdomain.MissingQualifying `json:"missing_qualifying"`
	NextQualifying    []int                           `json:"next_qualifying_ids"`
	Advancing         []int                           `json:"advancing_ids"`
}
