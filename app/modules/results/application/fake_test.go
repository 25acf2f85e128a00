package resultsservice

import (
	"context"
	"sync"

	resultsdomain "github.com/Black-And-White-Club/live-results/app/modules/results/domain"
	resultsdb "github.com/Black-And-White-Club/live-results/app/modules/results/infrastructure/repositories"
	"github.com/uptrace/bun"
)

// ------------------------
// Fake Repository
// ------------------------

// FakeRepo keeps documents in memory. The Func fields override the default
// behaviour for a single test.
type FakeRepo struct {
	mu        sync.Mutex
	documents map[string]*resultsdomain.Competition
	trace     []string

	LoadFunc    func(ctx context.Context, db bun.IDB, competitionID string) (*resultsdomain.Competition, error)
	ReplaceFunc func(ctx context.Context, db bun.IDB, competition *resultsdomain.Competition) error
	DeleteFunc  func(ctx context.Context, db bun.IDB, competitionID string) error
}

func NewFakeRepo(competitions ...*resultsdomain.Competition) *FakeRepo {
	f := &FakeRepo{documents: make(map[string]*resultsdomain.Competition)}
	for _, c := range competitions {
		f.documents[c.ID] = c.Clone()
	}
	return f
}

func (f *FakeRepo) record(step string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.trace = append(f.trace, step)
}

func (f *FakeRepo) Trace() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.trace))
	copy(out, f.trace)
	return out
}

func (f *FakeRepo) Count(step string) int {
	n := 0
	for _, s := range f.Trace() {
		if s == step {
			n++
		}
	}
	return n
}

// Stored returns a copy of the persisted document.
func (f *FakeRepo) Stored(competitionID string) *resultsdomain.Competition {
	f.mu.Lock()
	defer f.mu.Unlock()
	if c, ok := f.documents[competitionID]; ok {
		return c.Clone()
	}
	return nil
}

func (f *FakeRepo) Load(ctx context.Context, db bun.IDB, competitionID string) (*resultsdomain.Competition, error) {
	f.record("Load")
	if f.LoadFunc != nil {
		return f.LoadFunc(ctx, db, competitionID)
	}
	if c := f.Stored(competitionID); c != nil {
		return c, nil
	}
	return nil, resultsdb.ErrNotFound
}

func (f *FakeRepo) Replace(ctx context.Context, db bun.IDB, competition *resultsdomain.Competition) error {
	f.record("Replace")
	if f.ReplaceFunc != nil {
		return f.ReplaceFunc(ctx, db, competition)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.documents[competition.ID] = competition.Clone()
	return nil
}

func (f *FakeRepo) Delete(ctx context.Context, db bun.IDB, competitionID string) error {
	f.record("Delete")
	if f.DeleteFunc != nil {
		return f.DeleteFunc(ctx, db, competitionID)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.documents[competitionID]; !ok {
		return resultsdb.ErrNotFound
	}
	delete(f.documents, competitionID)
	return nil
}

var _ resultsdb.Repository = (*FakeRepo)(nil)

// ------------------------
// Fake Records
// ------------------------

type FakeRecords struct {
	Snapshot *resultsdomain.RecordsSnapshot
}

func (f *FakeRecords) Current() *resultsdomain.RecordsSnapshot {
	if f.Snapshot == nil {
		return resultsdomain.EmptyRecordsSnapshot()
	}
	return f.Snapshot
}

var _ RecordsProvider = (*FakeRecords)(nil)

// ------------------------
// Fake Notifier
// ------------------------

type FakeNotifier struct {
	mu     sync.Mutex
	rounds []*resultsdomain.Round

	RoundUpdatedFunc func(ctx context.Context, competitionID string, round *resultsdomain.Round) error
}

func (f *FakeNotifier) RoundUpdated(ctx context.Context, competitionID string, round *resultsdomain.Round) error {
	f.mu.Lock()
	f.rounds = append(f.rounds, round)
	f.mu.Unlock()
	if f.RoundUpdatedFunc != nil {
		return f.RoundUpdatedFunc(ctx, competitionID, round)
	}
	return nil
}

func (f *FakeNotifier) Rounds() []*resultsdomain.Round {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]*resultsdomain.Round(nil), f.rounds...)
}

var _ RoundNotifier = (*FakeNotifier)(nil)
