package resultshandlers

import (
	"context"
	"sync"

	resultsservice "github.com/Black-And-White-Club/live-results/app/modules/results/application"
	resultsdomain "github.com/Black-And-White-Club/live-results/app/modules/results/domain"
)

// FakeService records calls and delegates to the Func fields.
type FakeService struct {
	mu    sync.Mutex
	trace []string

	OpenRoundFunc                 func(ctx context.Context, competitionID string, roundID resultsdomain.RoundID) (resultsservice.RoundResult, error)
	ClearRoundFunc                func(ctx context.Context, competitionID string, roundID resultsdomain.RoundID) (resultsservice.RoundResult, error)
	RemoveCompetitorFromRoundFunc func(ctx context.Context, competitionID string, roundID resultsdomain.RoundID, competitorID int, replace bool) (resultsservice.RoundResult, error)
	AddCompetitorToRoundFunc      func(ctx context.Context, competitionID string, roundID resultsdomain.RoundID, competitorID int) (resultsservice.RoundResult, error)
	RemoveNoShowsFunc             func(ctx context.Context, competitionID string, roundID resultsdomain.RoundID, competitorIDs []int) (resultsservice.RoundResult, error)
	EnterResultAttemptsFunc       func(ctx context.Context, competitionID string, roundID resultsdomain.RoundID, competitorID int, attempts []resultsdomain.Attempt, enteredBy *int) (resultsservice.RoundResult, error)
	GetRoundFunc                  func(ctx context.Context, competitionID string, roundID resultsdomain.RoundID) (resultsservice.RoundResult, error)
	GetRoundStatusFunc            func(ctx context.Context, competitionID string, roundID resultsdomain.RoundID) (resultsservice.RoundStatusResult, error)
}

func (f *FakeService) record(step string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.trace = append(f.trace, step)
}

func (f *FakeService) Trace() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.trace))
	copy(out, f.trace)
	return out
}

func (f *FakeService) OpenRound(ctx context.Context, competitionID string, roundID resultsdomain.RoundID) (resultsservice.RoundResult, error) {
	f.record("OpenRound")
	if f.OpenRoundFunc != nil {
		return f.OpenRoundFunc(ctx, competitionID, roundID)
	}
	return resultsservice.RoundResult{}, nil
}

func (f *FakeService) ClearRound(ctx context.Context, competitionID string, roundID resultsdomain.RoundID) (resultsservice.RoundResult, error) {
	f.record("ClearRound")
	if f.ClearRoundFunc != nil {
		return f.ClearRoundFunc(ctx, competitionID, roundID)
	}
	return resultsservice.RoundResult{}, nil
}

func (f *FakeService) RemoveCompetitorFromRound(ctx context.Context, competitionID string, roundID resultsdomain.RoundID, competitorID int, replace bool) (resultsservice.RoundResult, error) {
	f.record("RemoveCompetitorFromRound")
	if f.RemoveCompetitorFromRoundFunc != nil {
		return f.RemoveCompetitorFromRoundFunc(ctx, competitionID, roundID, competitorID, replace)
	}
	return resultsservice.RoundResult{}, nil
}

func (f *FakeService) AddCompetitorToRound(ctx context.Context, competitionID string, roundID resultsdomain.RoundID, competitorID int) (resultsservice.RoundResult, error) {
	f.record("AddCompetitorToRound")
	if f.AddCompetitorToRoundFunc != nil {
		return f.AddCompetitorToRoundFunc(ctx, competitionID, roundID, competitorID)
	}
	return resultsservice.RoundResult{}, nil
}

func (f *FakeService) RemoveNoShows(ctx context.Context, competitionID string, roundID resultsdomain.RoundID, competitorIDs []int) (resultsservice.RoundResult, error) {
	f.record("RemoveNoShows")
	if f.RemoveNoShowsFunc != nil {
		return f.RemoveNoShowsFunc(ctx, competitionID, roundID, competitorIDs)
	}
	return resultsservice.RoundResult{}, nil
}

func (f *FakeService) EnterResultAttempts(ctx context.Context, competitionID string, roundID resultsdomain.RoundID, competitorID int, attempts []resultsdomain.Attempt, enteredBy *int) (resultsservice.RoundResult, error) {
	f.record("EnterResultAttempts")
	if f.EnterResultAttemptsFunc != nil {
		return f.EnterResultAttemptsFunc(ctx, competitionID, roundID, competitorID, attempts, enteredBy)
	}
	return resultsservice.RoundResult{}, nil
}

func (f *FakeService) GetRound(ctx context.Context, competitionID string, roundID resultsdomain.RoundID) (resultsservice.RoundResult, error) {
	f.record("GetRound")
	if f.GetRoundFunc != nil {
		return f.GetRoundFunc(ctx, competitionID, roundID)
	}
	return resultsservice.RoundResult{}, nil
}

func (f *FakeService) GetRoundStatus(ctx context.Context, competitionID string, roundID resultsdomain.RoundID) (resultsservice.RoundStatusResult, error) {
	f.record("GetRoundStatus")
	if f.GetRoundStatusFunc != nil {
		return f.GetRoundStatusFunc(ctx, competitionID, roundID)
	}
	return resultsservice.RoundStatusResult{}, nil
}

var _ resultsservice.Service = (*FakeService)(nil)
