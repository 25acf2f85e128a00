package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/Black-And-White-Club/live-results/app"
	"github.com/Black-And-White-Club/live-results/config"
	"github.com/Black-And-White-Club/live-results/pkg/attr"
)

func main() {
	configFile := flag.String("config", "config.yaml", "Path to the configuration file")
	flag.Parse()

	cfg, err := config.LoadConfig(*configFile)
	if err != nil {
		slog.Error("Failed to load config", attr.Error(err))
		os.Exit(1)
	}

	logger := newLogger(cfg)
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	application, err := app.NewApp(ctx, cfg, logger)
	if err != nil {
		logger.Error("Failed to initialize app", attr.Error(err))
		os.Exit(1)
	}

	if err := application.Run(ctx); err != nil {
		logger.Error("Application stopped with error", attr.Error(err))
		os.Exit(1)
	}
	logger.Info("Application shut down gracefully")
}

func newLogger(cfg *config.Config) *slog.Logger {
	level := slog.LevelInfo
	if cfg.Observability.LogLevel != "" {
		if err := level.UnmarshalText([]byte(cfg.Observability.LogLevel)); err != nil {
			level = slog.LevelInfo
		}
	}
	handler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level})
	logger := slog.New(handler)
	if cfg.Observability.Environment != "" {
		logger = logger.With(attr.String("env", cfg.Observability.Environment))
	}
	return logger.With(attr.String("service", "live-results"))
}
