package app

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/Black-And-White-Club/live-results/app/modules/records"
	"github.com/Black-And-White-Club/live-results/app/modules/results"
	resultsmetrics "github.com/Black-And-White-Club/live-results/app/modules/results/infrastructure/metrics"
	resultsnotifier "github.com/Black-And-White-Club/live-results/app/modules/results/infrastructure/notifier"
	"github.com/Black-And-White-Club/live-results/config"
	"github.com/Black-And-White-Club/live-results/pkg/attr"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"
	"go.opentelemetry.io/otel"
	"golang.org/x/sync/errgroup"
)

const shutdownTimeout = 30 * time.Second

// App holds the wired modules and the servers that expose them.
type App struct {
	Config  *config.Config
	Logger  *slog.Logger
	DB      *bun.DB
	Results *results.Module
	Records *records.Module

	httpServer    *http.Server
	metricsServer *http.Server
}

// NewApp connects to Postgres and the message bus and wires every module.
func NewApp(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	pgdb := sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(cfg.Postgres.DSN)))
	db := bun.NewDB(pgdb, pgdialect.New())
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	metrics, err := resultsmetrics.NewPrometheusMetrics(registry)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to register metrics: %w", err)
	}
	tracer := otel.Tracer("live-results")

	publisher, err := newPublisher(cfg, logger)
	if err != nil {
		db.Close()
		return nil, err
	}

	router := chi.NewRouter()
	router.Use(middleware.RequestID, middleware.RealIP, middleware.Recoverer)
	router.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		if err := db.PingContext(r.Context()); err != nil {
			http.Error(w, "database unavailable", http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	})

	recordsModule, err := records.NewModule(ctx, cfg, logger, tracer, db)
	if err != nil {
		publisher.Close()
		db.Close()
		return nil, err
	}

	resultsModule, err := results.NewModule(ctx, cfg, logger, tracer, metrics, db, recordsModule.Service, publisher, router)
	if err != nil {
		publisher.Close()
		db.Close()
		return nil, err
	}

	a := &App{
		Config:  cfg,
		Logger:  logger,
		DB:      db,
		Results: resultsModule,
		Records: recordsModule,
		httpServer: &http.Server{
			Addr:              cfg.HTTP.Address,
			Handler:           router,
			ReadHeaderTimeout: 5 * time.Second,
		},
	}
	if cfg.Observability.MetricsAddress != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{Registry: registry}))
		a.metricsServer = &http.Server{
			Addr:              cfg.Observability.MetricsAddress,
			Handler:           mux,
			ReadHeaderTimeout: 5 * time.Second,
		}
	}
	return a, nil
}

func newPublisher(cfg *config.Config, logger *slog.Logger) (message.Publisher, error) {
	if cfg.NATS.URL == "" {
		logger.Warn("NATS URL not configured, round updates are published in-process only")
		return resultsnotifier.NewInProcessPubSub(logger), nil
	}
	publisher, err := resultsnotifier.NewNATSPublisher(cfg.NATS.URL, logger)
	if err != nil {
		return nil, err
	}
	return publisher, nil
}

// Run serves HTTP and runs the records refresh until ctx is cancelled, then
// shuts everything down.
func (a *App) Run(ctx context.Context) error {
	if err := a.Records.Start(ctx); err != nil {
		return err
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		a.Logger.Info("HTTP server listening", attr.String("address", a.httpServer.Addr))
		if err := a.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	if a.metricsServer != nil {
		g.Go(func() error {
			a.Logger.Info("Metrics server listening", attr.String("address", a.metricsServer.Addr))
			if err := a.metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("metrics server: %w", err)
			}
			return nil
		})
	}
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
		defer cancel()
		return a.Close(shutdownCtx)
	})
	return g.Wait()
}

// Close stops accepting requests, lets queued mutations finish and releases
// every connection.
func (a *App) Close(ctx context.Context) error {
	a.Logger.InfoContext(ctx, "Shutting down")
	var errs []error
	if err := a.httpServer.Shutdown(ctx); err != nil {
		errs = append(errs, fmt.Errorf("http server shutdown: %w", err))
	}
	if a.metricsServer != nil {
		if err := a.metricsServer.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("metrics server shutdown: %w", err))
		}
	}
	if err := a.Records.Close(ctx); err != nil {
		errs = append(errs, err)
	}
	// Closes the publisher as well.
	if err := a.Results.Close(ctx); err != nil {
		errs = append(errs, err)
	}
	if err := a.DB.Close(); err != nil {
		errs = append(errs, fmt.Errorf("database close: %w", err))
	}
	return errors.Join(errs...)
}
