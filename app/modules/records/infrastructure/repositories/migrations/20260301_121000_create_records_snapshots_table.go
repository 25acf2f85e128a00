package recordsmigrations

import (
	"context"
	"fmt"

	recordsdb "github.com/Black-And-White-Club/live-results/app/modules/records/infrastructure/repositories"
	"github.com/uptrace/bun"
)

func init() {
	Migrations.MustRegister(
		func(ctx context.Context, db *bun.DB) error {
			fmt.Println("Creating records_snapshots table...")
			if _, err := db.NewCreateTable().Model((*recordsdb.RecordsSnapshot)(nil)).IfNotExists().Exec(ctx); err != nil {
				return fmt.Errorf("failed to create records_snapshots table: %w", err)
			}
			if _, err := db.NewCreateIndex().
				Model((*recordsdb.RecordsSnapshot)(nil)).
				Index("idx_records_snapshots_fetched_at").
				Column("fetched_at").
				IfNotExists().
				Exec(ctx); err != nil {
				return fmt.Errorf("failed to create fetched_at index: %w", err)
			}
			fmt.Println("records_snapshots table created successfully!")
			return nil
		},
		func(ctx context.Context, db *bun.DB) error {
			fmt.Println("Dropping records_snapshots table...")
			if _, err := db.NewDropTable().Model((*recordsdb.RecordsSnapshot)(nil)).IfExists().Cascade().Exec(ctx); err != nil {
				return fmt.Errorf("failed to drop records_snapshots table: %w", err)
			}
			fmt.Println("records_snapshots table dropped successfully!")
			return nil
		},
	)
}
