package resultsmigrations

import (
	"context"
	"fmt"

	resultsdb "github.com/Black-And-White-Club/live-results/app/modules/results/infrastructure/repositories"
	"github.com/uptrace/bun"
)

func init() {
	Migrations.MustRegister(
		func(ctx context.Context, db *bun.DB) error {
			fmt.Println("Creating competitions table...")
			if _, err := db.NewCreateTable().Model((*resultsdb.CompetitionDocument)(nil)).IfNotExists().Exec(ctx); err != nil {
				return fmt.Errorf("failed to create competitions table: %w", err)
			}
			fmt.Println("competitions table created successfully!")
			return nil
		},
		func(ctx context.Context, db *bun.DB) error {
			fmt.Println("Dropping competitions table...")
			if _, err := db.NewDropTable().Model((*resultsdb.CompetitionDocument)(nil)).IfExists().Cascade().Exec(ctx); err != nil {
				return fmt.Errorf("failed to drop competitions table: %w", err)
			}
			fmt.Println("competitions table dropped successfully!")
			return nil
		},
	)
}
