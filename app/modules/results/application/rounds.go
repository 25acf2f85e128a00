package resultsservice

import (
	"context"
	"errors"
	"fmt"

	resultsdomain "github.com/Black-And-White-Club/live-results/app/modules/results/domain"
	resultsqueue "github.com/Black-And-White-Club/live-results/app/modules/results/infrastructure/queue"
	resultsdb "github.com/Black-And-White-Club/live-results/app/modules/results/infrastructure/repositories"
	"github.com/Black-And-White-Club/live-results/pkg/attr"
	"github.com/Black-And-White-Club/live-results/pkg/results"
	"github.com/uptrace/bun"
)

// transition is one lifecycle step applied to a private copy of the competition.
type transition func(lc *resultsdomain.Lifecycle, c *resultsdomain.Competition) (*resultsdomain.Round, error)

// OpenRound creates empty results for everyone who belongs in the round.
func (s *ResultsService) OpenRound(ctx context.Context, competitionID string, roundID resultsdomain.RoundID) (RoundResult, error) {
	return s.mutate(ctx, "OpenRound", competitionID, roundID, func(lc *resultsdomain.Lifecycle, c *resultsdomain.Competition) (*resultsdomain.Round, error) {
		return lc.OpenRound(c, roundID)
	})
}

// ClearRound removes all results of the round.
func (s *ResultsService) ClearRound(ctx context.Context, competitionID string, roundID resultsdomain.RoundID) (RoundResult, error) {
	return s.mutate(ctx, "ClearRound", competitionID, roundID, func(lc *resultsdomain.Lifecycle, c *resultsdomain.Competition) (*resultsdomain.Round, error) {
		return lc.ClearRound(c, roundID)
	})
}

// RemoveCompetitorFromRound quits a competitor, optionally bringing in the next qualifier.
func (s *ResultsService) RemoveCompetitorFromRound(ctx context.Context, competitionID string, roundID resultsdomain.RoundID, competitorID int, replace bool) (RoundResult, error) {
	return s.mutate(ctx, "RemoveCompetitorFromRound", competitionID, roundID, func(lc *resultsdomain.Lifecycle, c *resultsdomain.Competition) (*resultsdomain.Round, error) {
		return lc.QuitCompetitor(c, roundID, competitorID, replace)
	})
}

// AddCompetitorToRound adds a missing qualifier.
func (s *ResultsService) AddCompetitorToRound(ctx context.Context, competitionID string, roundID resultsdomain.RoundID, competitorID int) (RoundResult, error) {
	return s.mutate(ctx, "AddCompetitorToRound", competitionID, roundID, func(lc *resultsdomain.Lifecycle, c *resultsdomain.Competition) (*resultsdomain.Round, error) {
		return lc.AddCompetitor(c, roundID, competitorID)
	})
}

// RemoveNoShows removes competitors who never showed up, as one batch.
func (s *ResultsService) RemoveNoShows(ctx context.Context, competitionID string, roundID resultsdomain.RoundID, competitorIDs []int) (RoundResult, error) {
	return s.mutate(ctx, "RemoveNoShows", competitionID, roundID, func(lc *resultsdomain.Lifecycle, c *resultsdomain.Competition) (*resultsdomain.Round, error) {
		return lc.RemoveNoShows(c, roundID, competitorIDs)
	})
}

// EnterResultAttempts replaces a competitor's attempts.
func (s *ResultsService) EnterResultAttempts(ctx context.Context, competitionID string, roundID resultsdomain.RoundID, competitorID int, attempts []resultsdomain.Attempt, enteredBy *int) (RoundResult, error) {
	return s.mutate(ctx, "EnterResultAttempts", competitionID, roundID, func(lc *resultsdomain.Lifecycle, c *resultsdomain.Competition) (*resultsdomain.Round, error) {
		return lc.EnterAttempts(c, roundID, competitorID, attempts, enteredBy)
	})
}

// GetRound returns the current state of a round.
func (s *ResultsService) GetRound(ctx context.Context, competitionID string, roundID resultsdomain.RoundID) (RoundResult, error) {
	return withTelemetry(s, ctx, "GetRound", identifier(competitionID, roundID), func(ctx context.Context) (RoundResult, error) {
		c, err := s.loadCompetition(ctx, competitionID)
		if err != nil {
			return failureOrError[*resultsdomain.Round](err)
		}
		round, err := c.Round(roundID)
		if err != nil {
			return failureOrError[*resultsdomain.Round](err)
		}
		return results.SuccessResult[*resultsdomain.Round, error](round.Clone()), nil
	})
}

// GetRoundStatus returns the lifecycle state and the advancement bookkeeping
// of a round.
func (s *ResultsService) GetRoundStatus(ctx context.Context, competitionID string, roundID resultsdomain.RoundID) (RoundStatusResult, error) {
	return withTelemetry(s, ctx, "GetRoundStatus", identifier(competitionID, roundID), func(ctx context.Context) (RoundStatusResult, error) {
		c, err := s.loadCompetition(ctx, competitionID)
		if err != nil {
			return failureOrError[*RoundStatus](err)
		}
		round, err := c.Round(roundID)
		if err != nil {
			return failureOrError[*RoundStatus](err)
		}

		status := &RoundStatus{
			RoundID:     round.ID,
			State:       round.State(s.clock()),
			ResultCount: len(round.Results),
		}
		if status.MissingQualifying, err = resultsdomain.MissingQualifyingIDs(c, round); err != nil {
			return RoundStatusResult{}, err
		}
		if status.NextQualifying, err = resultsdomain.NextQualifyingToRound(c, round); err != nil {
			return RoundStatusResult{}, err
		}
		advancing, err := resultsdomain.AdvancingResults(c, round)
		if err != nil {
			return RoundStatusResult{}, err
		}
		for _, r := range advancing {
			status.Advancing = append(status.Advancing, r.CompetitorID)
		}
		return results.SuccessResult[*RoundStatus, error](status), nil
	})
}

// mutate runs one transition inside the competition's serializer queue. The
// transition works on a clone; the clone is persisted and cached only when
// the transition succeeds, so a failure leaves the document untouched.
func (s *ResultsService) mutate(ctx context.Context, operationName, competitionID string, roundID resultsdomain.RoundID, apply transition) (RoundResult, error) {
	return withTelemetry(s, ctx, operationName, identifier(competitionID, roundID), func(ctx context.Context) (RoundResult, error) {
		return resultsqueue.Run(ctx, s.serializer, competitionID, func(ctx context.Context) (RoundResult, error) {
			var updated *resultsdomain.Competition
			result, err := runInTx(s, ctx, func(ctx context.Context, db bun.IDB) (RoundResult, error) {
				c, result, err := s.applyTransition(ctx, db, competitionID, apply)
				updated = c
				return result, err
			})
			if err != nil || !result.IsSuccess() {
				return result, err
			}

			s.cache.Put(competitionID, updated)
			s.notify(ctx, competitionID, *result.Success)
			return results.SuccessResult[*resultsdomain.Round, error]((*result.Success).Clone()), nil
		})
	})
}

func (s *ResultsService) applyTransition(ctx context.Context, db bun.IDB, competitionID string, apply transition) (*resultsdomain.Competition, RoundResult, error) {
	current, err := s.loadCompetition(ctx, competitionID)
	if err != nil {
		result, err := failureOrError[*resultsdomain.Round](err)
		return nil, result, err
	}

	working := current.Clone()
	lc := &resultsdomain.Lifecycle{Records: s.currentRecords(), Now: s.clock}
	round, err := apply(lc, working)
	if err != nil {
		result, err := failureOrError[*resultsdomain.Round](err)
		return nil, result, err
	}

	if err := s.repo.Replace(ctx, db, working); err != nil {
		return nil, RoundResult{}, fmt.Errorf("failed to store competition: %w", err)
	}
	return working, results.SuccessResult[*resultsdomain.Round, error](round), nil
}

// loadCompetition returns the cached document. The returned document is
// shared and must not be modified.
func (s *ResultsService) loadCompetition(ctx context.Context, competitionID string) (*resultsdomain.Competition, error) {
	c, err := s.cache.Get(ctx, competitionID)
	if err != nil {
		if errors.Is(err, resultsdb.ErrNotFound) {
			return nil, fmt.Errorf("%w: %s", resultsdomain.ErrCompetitionNotFound, competitionID)
		}
		return nil, fmt.Errorf("failed to load competition: %w", err)
	}
	return c, nil
}

func (s *ResultsService) currentRecords() *resultsdomain.RecordsSnapshot {
	if s.records == nil {
		return resultsdomain.EmptyRecordsSnapshot()
	}
	return s.records.Current()
}

// notify publishes the updated round. Delivery problems are logged and never
// fail the mutation, which is already committed.
func (s *ResultsService) notify(ctx context.Context, competitionID string, round *resultsdomain.Round) {
	if s.notifier == nil {
		return
	}
	if err := s.notifier.RoundUpdated(ctx, competitionID, round.Clone()); err != nil {
		s.logger.ErrorContext(ctx, "Failed to publish round update",
			attr.ExtractCorrelationID(ctx),
			attr.CompetitionID(competitionID),
			attr.RoundID(round.ID.String()),
			attr.Error(err),
		)
	}
}

func identifier(competitionID string, roundID resultsdomain.RoundID) string {
	return competitionID + "/" + roundID.String()
}

// failureOrError turns user-facing domain errors into failure results and
// passes everything else through as an error.
func failureOrError[S any](err error) (results.OperationResult[S, error], error) {
	if resultsdomain.IsDomainError(err) {
		return results.FailureResult[S, error](err), nil
	}
	return results.OperationResult[S, error]{}, err
}
