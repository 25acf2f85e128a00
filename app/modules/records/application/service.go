// Package recordsservice keeps the official records used for record tags.
package recordsservice

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	recordsdb "github.com/Black-And-White-Club/live-results/app/modules/records/infrastructure/repositories"
	resultsdomain "github.com/Black-And-White-Club/live-results/app/modules/results/domain"
	"github.com/Black-And-White-Club/live-results/pkg/attr"
	"github.com/uptrace/bun"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// keepSnapshots is how many stored snapshots survive a refresh.
const keepSnapshots = 5

// Fetcher downloads the current official records.
type Fetcher interface {
	Fetch(ctx context.Context) ([]resultsdomain.RecordEntry, error)
}

// RecordsService serves the current records snapshot. A failed refresh keeps
// the last snapshot that was fetched successfully.
type RecordsService struct {
	fetcher Fetcher
	repo    recordsdb.Repository
	db      bun.IDB
	logger  *slog.Logger
	tracer  trace.Tracer
	clock   func() time.Time

	mu      sync.RWMutex
	current *resultsdomain.RecordsSnapshot
}

// NewRecordsService creates the records provider. repo may be nil, in which
// case snapshots live only in memory.
func NewRecordsService(fetcher Fetcher, repo recordsdb.Repository, db bun.IDB, logger *slog.Logger, tracer trace.Tracer) *RecordsService {
	if logger == nil {
		logger = slog.Default()
	}
	return &RecordsService{
		fetcher: fetcher,
		repo:    repo,
		db:      db,
		logger:  logger,
		tracer:  tracer,
		clock:   time.Now,
		current: resultsdomain.EmptyRecordsSnapshot(),
	}
}

// Current returns the snapshot in use. It never returns nil.
func (s *RecordsService) Current() *resultsdomain.RecordsSnapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current
}

// Init restores the last stored snapshot and fetches a fresh one when nothing
// is stored or the stored one is older than maxAge. A failed fetch is logged
// and never fails startup; record tags then use whatever is available.
func (s *RecordsService) Init(ctx context.Context, maxAge time.Duration) error {
	ctx, span := s.startSpan(ctx, "RecordsService.Init")
	defer span.End()

	if s.repo != nil {
		stored, err := s.repo.Latest(ctx, s.db)
		switch {
		case errors.Is(err, recordsdb.ErrNotFound):
			s.logger.InfoContext(ctx, "No stored records snapshot")
		case err != nil:
			span.RecordError(err)
			return fmt.Errorf("failed to restore records: %w", err)
		default:
			s.set(stored)
			s.logger.InfoContext(ctx, "Restored records snapshot",
				attr.Time("fetched_at", stored.FetchedAt()),
				attr.Int("records", stored.Len()),
			)
		}
	}

	current := s.Current()
	if current.Len() > 0 && s.clock().Sub(current.FetchedAt()) < maxAge {
		return nil
	}
	if err := s.Refresh(ctx); err != nil {
		s.logger.WarnContext(ctx, "Starting with last known records",
			attr.Time("fetched_at", current.FetchedAt()),
			attr.Error(err),
		)
	}
	return nil
}

// Refresh fetches the records and swaps them in. On failure the current
// snapshot stays in place and the error is returned so the caller can retry.
func (s *RecordsService) Refresh(ctx context.Context) error {
	ctx, span := s.startSpan(ctx, "RecordsService.Refresh")
	defer span.End()

	entries, err := s.fetcher.Fetch(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "fetch failed")
		return fmt.Errorf("failed to refresh records: %w", err)
	}

	snapshot := resultsdomain.NewRecordsSnapshot(s.clock().UTC(), entries)
	s.set(snapshot)
	span.SetAttributes(attribute.Int("records", snapshot.Len()))
	s.logger.InfoContext(ctx, "Records refreshed",
		attr.Time("fetched_at", snapshot.FetchedAt()),
		attr.Int("records", snapshot.Len()),
	)

	if s.repo == nil {
		return nil
	}
	if err := s.repo.Save(ctx, s.db, snapshot); err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to store records: %w", err)
	}
	if pruned, err := s.repo.Prune(ctx, s.db, keepSnapshots); err != nil {
		s.logger.WarnContext(ctx, "Failed to prune records snapshots", attr.Error(err))
	} else if pruned > 0 {
		s.logger.DebugContext(ctx, "Pruned records snapshots", attr.Int64("pruned", pruned))
	}
	return nil
}

func (s *RecordsService) set(snapshot *resultsdomain.RecordsSnapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.current = snapshot
}

func (s *RecordsService) startSpan(ctx context.Context, name string) (context.Context, trace.Span) {
	if s.tracer == nil {
		return ctx, trace.SpanFromContext(ctx)
	}
	return s.tracer.Start(ctx, name)
}
