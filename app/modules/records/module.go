package records

import (
	"context"
	"fmt"
	"log/slog"

	recordsservice "github.com/Black-And-White-Club/live-results/app/modules/records/application"
	recordsfetcher "github.com/Black-And-White-Club/live-results/app/modules/records/infrastructure/fetcher"
	recordsqueue "github.com/Black-And-White-Club/live-results/app/modules/records/infrastructure/queue"
	recordsdb "github.com/Black-And-White-Club/live-results/app/modules/records/infrastructure/repositories"
	"github.com/Black-And-White-Club/live-results/config"
	"github.com/uptrace/bun"
	"go.opentelemetry.io/otel/trace"
)

// Module represents the records module.
type Module struct {
	Service *recordsservice.RecordsService
	queue   *recordsqueue.Service
	logger  *slog.Logger
}

// NewModule restores the last known records and prepares the periodic
// refresh. Nothing runs until Start.
func NewModule(ctx context.Context, cfg *config.Config, logger *slog.Logger, tracer trace.Tracer, db *bun.DB) (*Module, error) {
	logger.InfoContext(ctx, "Initializing records module")

	fetcher := recordsfetcher.NewClient(cfg.Records.URL, logger)
	service := recordsservice.NewRecordsService(fetcher, recordsdb.NewRepository(db), db, logger, tracer)

	// Fetches only when the stored records are older than MaxAge. The River
	// job keeps them fresh afterwards.
	if err := service.Init(ctx, cfg.Records.MaxAge); err != nil {
		return nil, fmt.Errorf("failed to initialize records: %w", err)
	}

	queue, err := recordsqueue.NewService(ctx, cfg.Postgres.DSN, service, cfg.Records.RefreshInterval, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create records queue: %w", err)
	}
	if err := queue.Migrate(ctx); err != nil {
		return nil, err
	}

	return &Module{Service: service, queue: queue, logger: logger}, nil
}

// Start begins the scheduled refresh.
func (m *Module) Start(ctx context.Context) error {
	return m.queue.Start(ctx)
}

// Close stops the scheduled refresh.
func (m *Module) Close(ctx context.Context) error {
	m.logger.InfoContext(ctx, "Stopping records module")
	return m.queue.Stop(ctx)
}
