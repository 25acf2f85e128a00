package main

import (
	"database/sql"
	"fmt"
	"log"
	"os"
	"strings"

	recordsqueue "github.com/Black-And-White-Club/live-results/app/modules/records/infrastructure/queue"
	"github.com/Black-And-White-Club/live-results/config"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"
	"github.com/uptrace/bun/migrate"
	"github.com/urfave/cli/v2"

	// Import for migrator creation
	recordsmigrations "github.com/Black-And-White-Club/live-results/app/modules/records/infrastructure/repositories/migrations"
	resultsmigrations "github.com/Black-And-White-Club/live-results/app/modules/results/infrastructure/repositories/migrations"
)

// moduleMigrator pairs a module with its migrator so commands run in a fixed order.
type moduleMigrator struct {
	name     string
	migrator *migrate.Migrator
}

func newMigrators(db *bun.DB) []moduleMigrator {
	return []moduleMigrator{
		{"results", migrate.NewMigrator(db, resultsmigrations.Migrations,
			migrate.WithTableName("bun_migrations_results"),
			migrate.WithLocksTableName("bun_migration_locks_results"))},
		{"records", migrate.NewMigrator(db, recordsmigrations.Migrations,
			migrate.WithTableName("bun_migrations_records"),
			migrate.WithLocksTableName("bun_migration_locks_records"))},
	}
}

func main() {
	var (
		cfg       *config.Config
		db        *bun.DB
		migrators []moduleMigrator
	)

	cliApp := &cli.App{
		Name:  "bun",
		Usage: "live-results database tooling",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "config", Value: "config.yaml", Usage: "Path to the configuration file"},
		},
		Before: func(c *cli.Context) error {
			var err error
			if cfg, err = config.LoadConfig(c.String("config")); err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}
			// Database connection using pgdriver
			pgdb := sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(cfg.Postgres.DSN)))
			db = bun.NewDB(pgdb, pgdialect.New())
			migrators = newMigrators(db)
			return nil
		},
		After: func(c *cli.Context) error {
			if db != nil {
				return db.Close()
			}
			return nil
		},
		Commands: []*cli.Command{
			newMultiModuleDBCommand(func() []moduleMigrator { return migrators }),
			newRiverCommand(func() string { return cfg.Postgres.DSN }),
		},
	}

	if err := cliApp.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func findMigrator(migrators []moduleMigrator, name string) (*migrate.Migrator, error) {
	for _, m := range migrators {
		if m.name == name {
			return m.migrator, nil
		}
	}
	return nil, fmt.Errorf("invalid module name: %s", name)
}

func newMultiModuleDBCommand(migrators func() []moduleMigrator) *cli.Command {
	return &cli.Command{
		Name:  "migrate",
		Usage: "database migrations",
		Subcommands: []*cli.Command{
			{
				Name:  "init",
				Usage: "create migration tables",
				Action: func(c *cli.Context) error {
					for _, m := range migrators() {
						fmt.Printf("Initializing migrations for module: %s\n", m.name)
						if err := m.migrator.Init(c.Context); err != nil {
							return fmt.Errorf("init %s: %w", m.name, err)
						}
					}
					return nil
				},
			},
			{
				Name:  "migrate",
				Usage: "migrate database",
				Action: func(c *cli.Context) error {
					for _, m := range migrators() {
						if err := m.migrator.Lock(c.Context); err != nil {
							return err
						}
						group, err := m.migrator.Migrate(c.Context)
						unlockErr := m.migrator.Unlock(c.Context)
						if err != nil {
							return fmt.Errorf("migrate %s: %w", m.name, err)
						}
						if unlockErr != nil {
							return unlockErr
						}
						if group.IsZero() {
							fmt.Printf("No new migrations to run for module: %s\n", m.name)
						} else {
							fmt.Printf("Migrated module: %s to %s\n", m.name, group)
						}
					}
					return nil
				},
			},
			{
				Name:  "rollback",
				Usage: "rollback the last migration group",
				Action: func(c *cli.Context) error {
					all := migrators()
					// Roll back in reverse dependency order.
					for i := len(all) - 1; i >= 0; i-- {
						m := all[i]
						group, err := m.migrator.Rollback(c.Context)
						if err != nil {
							return fmt.Errorf("rollback %s: %w", m.name, err)
						}
						if group.IsZero() {
							fmt.Printf("No groups to roll back for module: %s\n", m.name)
						} else {
							fmt.Printf("Rolled back module: %s to %s\n", m.name, group)
						}
					}
					return nil
				},
			},
			{
				Name:      "create_go",
				Usage:     "create Go migration",
				ArgsUsage: "<module> <name...>",
				Action: func(c *cli.Context) error {
					moduleName := c.Args().First()
					migrator, err := findMigrator(migrators(), moduleName)
					if err != nil {
						return err
					}
					name := strings.Join(c.Args().Tail(), "_")
					mf, err := migrator.CreateGoMigration(c.Context, name)
					if err != nil {
						return err
					}
					fmt.Printf("Created migration for module %s: %s (%s)\n", moduleName, mf.Name, mf.Path)
					return nil
				},
			},
			{
				Name:      "create_sql",
				Usage:     "create up and down SQL migrations",
				ArgsUsage: "<module> <name...>",
				Action: func(c *cli.Context) error {
					moduleName := c.Args().First()
					migrator, err := findMigrator(migrators(), moduleName)
					if err != nil {
						return err
					}
					name := strings.Join(c.Args().Tail(), "_")
					files, err := migrator.CreateSQLMigrations(c.Context, name)
					if err != nil {
						return err
					}
					for _, mf := range files {
						fmt.Printf("Created migration for module %s: %s (%s)\n", moduleName, mf.Name, mf.Path)
					}
					return nil
				},
			},
			{
				Name:  "status",
				Usage: "print migrations status",
				Action: func(c *cli.Context) error {
					for _, m := range migrators() {
						ms, err := m.migrator.MigrationsWithStatus(c.Context)
						if err != nil {
							return err
						}
						fmt.Printf("Migrations for module: %s\n", m.name)
						fmt.Printf("  %s\n", ms)
						fmt.Printf("  Applied: %s\n", ms.Applied())
						fmt.Printf("  Unapplied: %s\n", ms.Unapplied())
					}
					return nil
				},
			},
		},
	}
}

func newRiverCommand(dsn func() string) *cli.Command {
	return &cli.Command{
		Name:  "river",
		Usage: "apply River job queue migrations",
		Action: func(c *cli.Context) error {
			pool, err := pgxpool.New(c.Context, dsn())
			if err != nil {
				return fmt.Errorf("failed to create pgx pool: %w", err)
			}
			defer pool.Close()
			if err := recordsqueue.MigrateRiver(c.Context, pool); err != nil {
				return err
			}
			fmt.Println("River migrations applied")
			return nil
		},
	}
}
