package recordsservice

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	recordsdb "github.com/Black-And-White-Club/live-results/app/modules/records/infrastructure/repositories"
	resultsdomain "github.com/Black-And-White-Club/live-results/app/modules/results/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"
	"go.opentelemetry.io/otel/trace/noop"
)

var testNow = time.Date(2026, 3, 14, 10, 0, 0, 0, time.UTC)

var worldSingle333 = resultsdomain.RecordKey{
	Scope:     resultsdomain.Scope{Kind: resultsdomain.ScopeWorld},
	EventCode: "333",
	Type:      resultsdomain.StatSingle,
}

type FakeFetcher struct {
	FetchFunc func(ctx context.Context) ([]resultsdomain.RecordEntry, error)
	calls     int
}

func (f *FakeFetcher) Fetch(ctx context.Context) ([]resultsdomain.RecordEntry, error) {
	f.calls++
	return f.FetchFunc(ctx)
}

type FakeRepo struct {
	mu     sync.Mutex
	stored []*resultsdomain.RecordsSnapshot
	trace  []string

	LatestFunc func(ctx context.Context, db bun.IDB) (*resultsdomain.RecordsSnapshot, error)
	SaveFunc   func(ctx context.Context, db bun.IDB, snapshot *resultsdomain.RecordsSnapshot) error
}

func (f *FakeRepo) record(step string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.trace = append(f.trace, step)
}

func (f *FakeRepo) Trace() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.trace...)
}

func (f *FakeRepo) Latest(ctx context.Context, db bun.IDB) (*resultsdomain.RecordsSnapshot, error) {
	f.record("Latest")
	if f.LatestFunc != nil {
		return f.LatestFunc(ctx, db)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.stored) == 0 {
		return nil, recordsdb.ErrNotFound
	}
	return f.stored[len(f.stored)-1], nil
}

func (f *FakeRepo) Save(ctx context.Context, db bun.IDB, snapshot *resultsdomain.RecordsSnapshot) error {
	f.record("Save")
	if f.SaveFunc != nil {
		return f.SaveFunc(ctx, db, snapshot)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.stored = append(f.stored, snapshot)
	return nil
}

func (f *FakeRepo) Prune(ctx context.Context, db bun.IDB, keep int) (int64, error) {
	f.record("Prune")
	return 0, nil
}

var _ recordsdb.Repository = (*FakeRepo)(nil)

func entries(worldSingle int64) []resultsdomain.RecordEntry {
	return []resultsdomain.RecordEntry{{RecordKey: worldSingle333, Value: resultsdomain.AttemptResult(worldSingle)}}
}

func newTestService(fetcher Fetcher, repo recordsdb.Repository) *RecordsService {
	s := NewRecordsService(fetcher, repo, nil, slog.New(slog.NewTextHandler(io.Discard, nil)), noop.NewTracerProvider().Tracer("test"))
	s.clock = func() time.Time { return testNow }
	return s
}

func worldRecord(t *testing.T, s *RecordsService) resultsdomain.AttemptResult {
	t.Helper()
	v, ok := s.Current().Record(worldSingle333)
	require.True(t, ok)
	return v
}

func TestRecordsService_CurrentStartsEmpty(t *testing.T) {
	s := newTestService(&FakeFetcher{}, nil)
	require.NotNil(t, s.Current())
	assert.Zero(t, s.Current().Len())
}

func TestRecordsService_Refresh(t *testing.T) {
	t.Run("success swaps and stores the snapshot", func(t *testing.T) {
		repo := &FakeRepo{}
		s := newTestService(&FakeFetcher{FetchFunc: func(context.Context) ([]resultsdomain.RecordEntry, error) {
			return entries(305), nil
		}}, repo)

		require.NoError(t, s.Refresh(context.Background()))
		assert.Equal(t, resultsdomain.AttemptResult(305), worldRecord(t, s))
		assert.True(t, s.Current().FetchedAt().Equal(testNow))
		assert.Equal(t, []string{"Save", "Prune"}, repo.Trace())
	})

	t.Run("failure keeps the last known good snapshot", func(t *testing.T) {
		fail := false
		repo := &FakeRepo{}
		s := newTestService(&FakeFetcher{FetchFunc: func(context.Context) ([]resultsdomain.RecordEntry, error) {
			if fail {
				return nil, errors.New("registry unavailable")
			}
			return entries(305), nil
		}}, repo)
		require.NoError(t, s.Refresh(context.Background()))

		fail = true
		err := s.Refresh(context.Background())
		require.Error(t, err)
		assert.Contains(t, err.Error(), "registry unavailable")
		assert.Equal(t, resultsdomain.AttemptResult(305), worldRecord(t, s))
		assert.Equal(t, []string{"Save", "Prune"}, repo.Trace())
	})

	t.Run("store failure still serves the new records", func(t *testing.T) {
		repo := &FakeRepo{SaveFunc: func(context.Context, bun.IDB, *resultsdomain.RecordsSnapshot) error {
			return errors.New("disk full")
		}}
		s := newTestService(&FakeFetcher{FetchFunc: func(context.Context) ([]resultsdomain.RecordEntry, error) {
			return entries(299), nil
		}}, repo)

		require.Error(t, s.Refresh(context.Background()))
		assert.Equal(t, resultsdomain.AttemptResult(299), worldRecord(t, s))
	})
}

func TestRecordsService_Init(t *testing.T) {
	t.Run("fresh stored snapshot skips the fetch", func(t *testing.T) {
		repo := &FakeRepo{stored: []*resultsdomain.RecordsSnapshot{
			resultsdomain.NewRecordsSnapshot(testNow.Add(-10*time.Minute), entries(310)),
		}}
		fetcher := &FakeFetcher{FetchFunc: func(context.Context) ([]resultsdomain.RecordEntry, error) {
			return entries(305), nil
		}}
		s := newTestService(fetcher, repo)

		require.NoError(t, s.Init(context.Background(), time.Hour))
		assert.Equal(t, resultsdomain.AttemptResult(310), worldRecord(t, s))
		assert.Zero(t, fetcher.calls)
	})

	t.Run("stale stored snapshot is refreshed", func(t *testing.T) {
		repo := &FakeRepo{stored: []*resultsdomain.RecordsSnapshot{
			resultsdomain.NewRecordsSnapshot(testNow.Add(-2*time.Hour), entries(310)),
		}}
		fetcher := &FakeFetcher{FetchFunc: func(context.Context) ([]resultsdomain.RecordEntry, error) {
			return entries(305), nil
		}}
		s := newTestService(fetcher, repo)

		require.NoError(t, s.Init(context.Background(), time.Hour))
		assert.Equal(t, resultsdomain.AttemptResult(305), worldRecord(t, s))
		assert.Equal(t, 1, fetcher.calls)
	})

	t.Run("fetch failure falls back to the stored snapshot", func(t *testing.T) {
		repo := &FakeRepo{stored: []*resultsdomain.RecordsSnapshot{
			resultsdomain.NewRecordsSnapshot(testNow.Add(-48*time.Hour), entries(310)),
		}}
		s := newTestService(&FakeFetcher{FetchFunc: func(context.Context) ([]resultsdomain.RecordEntry, error) {
			return nil, errors.New("registry unavailable")
		}}, repo)

		require.NoError(t, s.Init(context.Background(), time.Hour))
		assert.Equal(t, resultsdomain.AttemptResult(310), worldRecord(t, s))
	})

	t.Run("nothing stored and fetch failure starts empty", func(t *testing.T) {
		s := newTestService(&FakeFetcher{FetchFunc: func(context.Context) ([]resultsdomain.RecordEntry, error) {
			return nil, errors.New("registry unavailable")
		}}, &FakeRepo{})

		require.NoError(t, s.Init(context.Background(), time.Hour))
		assert.Zero(t, s.Current().Len())
	})

	t.Run("storage error fails startup", func(t *testing.T) {
		repo := &FakeRepo{LatestFunc: func(context.Context, bun.IDB) (*resultsdomain.RecordsSnapshot, error) {
			return nil, errors.New("connection refused")
		}}
		s := newTestService(&FakeFetcher{}, repo)

		require.Error(t, s.Init(context.Background(), time.Hour))
	})
}
