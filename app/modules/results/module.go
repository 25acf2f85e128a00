package results

import (
	"context"
	"fmt"
	"log/slog"

	resultsservice "github.com/Black-And-White-Club/live-results/app/modules/results/application"
	resultsdomain "github.com/Black-And-White-Club/live-results/app/modules/results/domain"
	resultshandlers "github.com/Black-And-White-Club/live-results/app/modules/results/infrastructure/handlers"
	resultsmetrics "github.com/Black-And-White-Club/live-results/app/modules/results/infrastructure/metrics"
	resultsnotifier "github.com/Black-And-White-Club/live-results/app/modules/results/infrastructure/notifier"
	resultsqueue "github.com/Black-And-White-Club/live-results/app/modules/results/infrastructure/queue"
	resultsdb "github.com/Black-And-White-Club/live-results/app/modules/results/infrastructure/repositories"
	"github.com/Black-And-White-Club/live-results/config"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/go-chi/chi/v5"
	"github.com/uptrace/bun"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/time/rate"
)

// Module represents the results module.
type Module struct {
	Service    resultsservice.Service
	serializer *resultsqueue.Serializer
	notifier   *resultsnotifier.Notifier
	logger     *slog.Logger
}

// NewModule wires storage, cache, serializer, notifier and HTTP routes.
func NewModule(
	ctx context.Context,
	cfg *config.Config,
	logger *slog.Logger,
	tracer trace.Tracer,
	metrics resultsmetrics.ResultsMetrics,
	db *bun.DB,
	records resultsservice.RecordsProvider,
	publisher message.Publisher,
	httpRouter chi.Router,
) (*Module, error) {
	logger.InfoContext(ctx, "Initializing results module")

	repo := resultsdb.NewRepository(db)
	cache, err := resultsqueue.NewCompetitionCache(cfg.Results.CacheSize, func(ctx context.Context, competitionID string) (*resultsdomain.Competition, error) {
		return repo.Load(ctx, nil, competitionID)
	}, metrics)
	if err != nil {
		return nil, fmt.Errorf("failed to create competition cache: %w", err)
	}

	serializer := resultsqueue.NewSerializer(logger, metrics)
	notifier := resultsnotifier.NewNotifier(publisher, logger)

	service := resultsservice.NewResultsService(repo, serializer, cache, records, notifier, logger, metrics, tracer, db)

	if httpRouter != nil {
		handlers := resultshandlers.NewResultsHandlers(service, logger)
		limiter := resultshandlers.NewClientRateLimiter(rate.Limit(cfg.HTTP.RateLimit), cfg.HTTP.RateBurst)
		httpRouter.Route("/api/v1", func(r chi.Router) {
			r.Use(resultshandlers.RateLimitWrites(limiter))
			handlers.Routes(r)
		})
	}

	return &Module{
		Service:    service,
		serializer: serializer,
		notifier:   notifier,
		logger:     logger,
	}, nil
}

// Close waits for queued mutations to finish and closes the publisher.
func (m *Module) Close(ctx context.Context) error {
	m.logger.InfoContext(ctx, "Stopping results module")
	if err := m.serializer.Wait(ctx); err != nil {
		return fmt.Errorf("results mutations still running: %w", err)
	}
	if err := m.notifier.Close(); err != nil {
		return fmt.Errorf("failed to close round publisher: %w", err)
	}
	return nil
}
