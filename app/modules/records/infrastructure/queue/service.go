// Package recordsqueue schedules the periodic records refresh on River.
package recordsqueue

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/Black-And-White-Club/live-results/pkg/attr"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/riverqueue/river"
	"github.com/riverqueue/river/riverdriver/riverpgxv5"
	"github.com/riverqueue/river/rivermigrate"
)

// DefaultRefreshInterval is used when no interval is configured.
const DefaultRefreshInterval = time.Hour

// Service owns the River client that runs the refresh job.
type Service struct {
	client *river.Client[pgx.Tx]
	pool   *pgxpool.Pool
	logger *slog.Logger
}

// NewService connects to Postgres and registers the periodic refresh. The
// first refresh runs as soon as the client starts.
func NewService(ctx context.Context, dsn string, refresher Refresher, interval time.Duration, logger *slog.Logger) (*Service, error) {
	if interval <= 0 {
		interval = DefaultRefreshInterval
	}
	ctxLogger := logger.With(
		attr.String("component", "river_queue"),
		attr.String("queue", QueueName),
	)

	// River requires pgx, not database/sql
	config, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to parse DSN: %w", err)
	}
	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("failed to create pgx pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	workers := river.NewWorkers()
	river.AddWorker(workers, NewRefreshRecordsWorker(refresher, ctxLogger))

	client, err := river.NewClient(riverpgxv5.New(pool), &river.Config{
		Queues: map[string]river.QueueConfig{
			QueueName: {MaxWorkers: 1},
		},
		Workers: workers,
		PeriodicJobs: []*river.PeriodicJob{
			river.NewPeriodicJob(
				river.PeriodicInterval(interval),
				func() (river.JobArgs, *river.InsertOpts) {
					return RefreshRecordsArgs{}, nil
				},
				&river.PeriodicJobOpts{RunOnStart: true},
			),
		},
		Logger: ctxLogger,
	})
	if err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to create River client: %w", err)
	}

	ctxLogger.Info("Records queue service initialized", attr.Duration("interval", interval))
	return &Service{client: client, pool: pool, logger: ctxLogger}, nil
}

// Migrate applies River's own schema migrations.
func (s *Service) Migrate(ctx context.Context) error {
	return MigrateRiver(ctx, s.pool)
}

// Start starts processing jobs.
func (s *Service) Start(ctx context.Context) error {
	if err := s.client.Start(ctx); err != nil {
		return fmt.Errorf("failed to start River client: %w", err)
	}
	s.logger.Info("Records queue service started")
	return nil
}

// Stop waits for the running job and releases the pool.
func (s *Service) Stop(ctx context.Context) error {
	defer s.pool.Close()
	if err := s.client.Stop(ctx); err != nil {
		return fmt.Errorf("failed to stop River client: %w", err)
	}
	s.logger.Info("Records queue service stopped")
	return nil
}

// RefreshNow enqueues an immediate refresh.
func (s *Service) RefreshNow(ctx context.Context) (int64, error) {
	res, err := s.client.Insert(ctx, RefreshRecordsArgs{}, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to enqueue records refresh: %w", err)
	}
	return res.Job.ID, nil
}

// MigrateRiver brings River's tables up to date.
func MigrateRiver(ctx context.Context, pool *pgxpool.Pool) error {
	migrator, err := rivermigrate.New(riverpgxv5.New(pool), nil)
	if err != nil {
		return fmt.Errorf("failed to create river migrator: %w", err)
	}
	if _, err := migrator.Migrate(ctx, rivermigrate.DirectionUp, &rivermigrate.MigrateOpts{}); err != nil {
		return fmt.Errorf("failed to run river migrations: %w", err)
	}
	return nil
}
