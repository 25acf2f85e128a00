package testutils

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"log"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/testcontainers/testcontainers-go/modules/nats"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/migrate"

	_ "github.com/jackc/pgx/v5/stdlib"

	recordsqueue "github.com/Black-And-White-Club/live-results/app/modules/records/infrastructure/queue"
	recordsmigrations "github.com/Black-And-White-Club/live-results/app/modules/records/infrastructure/repositories/migrations"
	resultsmigrations "github.com/Black-And-White-Club/live-results/app/modules/results/infrastructure/repositories/migrations"
	"github.com/Black-And-White-Club/live-results/config"
	"github.com/Black-And-White-Club/live-results/integration_tests/containers"
)

// TestEnvironment holds all resources needed for integration testing
type TestEnvironment struct {
	Ctx           context.Context
	CancelContext context.CancelFunc
	PgContainer   *postgres.PostgresContainer
	NatsContainer *nats.NATSContainer
	DB            *bun.DB
	Config        *config.Config
	Logger        *slog.Logger
}

// NewTestEnvironment starts Postgres and NATS and applies every migration.
func NewTestEnvironment() (*TestEnvironment, error) {
	ctx, cancel := context.WithCancel(context.Background())
	env := &TestEnvironment{
		Ctx:           ctx,
		CancelContext: cancel,
		Logger:        slog.New(slog.NewTextHandler(io.Discard, nil)),
	}

	pgContainer, pgConnStr, err := containers.SetupPostgresContainer(ctx)
	if err != nil {
		cancel()
		return nil, fmt.Errorf("failed to setup postgres container: %w", err)
	}
	env.PgContainer = pgContainer

	natsContainer, natsURL, err := containers.SetupNatsContainer(ctx)
	if err != nil {
		env.Cleanup()
		return nil, fmt.Errorf("failed to setup nats container: %w", err)
	}
	env.NatsContainer = natsContainer

	sqlDB, err := sql.Open("pgx", pgConnStr)
	if err != nil {
		env.Cleanup()
		return nil, fmt.Errorf("failed to open sql DB connection: %w", err)
	}
	env.DB = bun.NewDB(sqlDB, pgdialect.New())

	env.Config = &config.Config{
		Postgres: config.PostgresConfig{DSN: pgConnStr},
		NATS:     config.NATSConfig{URL: natsURL},
	}

	if err := env.runMigrations(ctx); err != nil {
		env.Cleanup()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}
	return env, nil
}

func (env *TestEnvironment) runMigrations(ctx context.Context) error {
	for name, migrations := range map[string]*migrate.Migrations{
		"results": resultsmigrations.Migrations,
		"records": recordsmigrations.Migrations,
	} {
		migrator := migrate.NewMigrator(env.DB, migrations,
			migrate.WithTableName("bun_migrations_"+name),
			migrate.WithLocksTableName("bun_migration_locks_"+name),
		)
		if err := migrator.Init(ctx); err != nil {
			return fmt.Errorf("init %s migrations: %w", name, err)
		}
		if _, err := migrator.Migrate(ctx); err != nil {
			return fmt.Errorf("migrate %s: %w", name, err)
		}
	}

	pool, err := pgxpool.New(ctx, env.Config.Postgres.DSN)
	if err != nil {
		return fmt.Errorf("failed to create pgx pool: %w", err)
	}
	defer pool.Close()
	return recordsqueue.MigrateRiver(ctx, pool)
}

// Reset empties every table written by the tests.
func (env *TestEnvironment) Reset(ctx context.Context) error {
	_, err := env.DB.ExecContext(ctx, "TRUNCATE competitions, records_snapshots, river_job RESTART IDENTITY CASCADE")
	if err != nil {
		return fmt.Errorf("failed to truncate tables: %w", err)
	}
	return nil
}

// Cleanup closes connections and terminates the containers.
func (env *TestEnvironment) Cleanup() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if env.DB != nil {
		if err := env.DB.Close(); err != nil {
			log.Printf("Error closing database: %v", err)
		}
	}
	if env.NatsContainer != nil {
		if err := env.NatsContainer.Terminate(ctx); err != nil {
			log.Printf("Error terminating NATS container: %v", err)
		}
	}
	if env.PgContainer != nil {
		if err := env.PgContainer.Terminate(ctx); err != nil {
			log.Printf("Error terminating Postgres container: %v", err)
		}
	}
	env.CancelContext()
}
