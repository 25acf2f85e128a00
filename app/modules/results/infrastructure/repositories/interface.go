package resultsdb

import (
	"context"

	resultsdomain "github.com/Black-And-White-Club/live-results/app/modules/results/domain"
	"github.com/uptrace/bun"
)

// Repository defines the contract for competition document persistence.
type Repository interface {
	// Load retrieves a competition document by id.
	Load(ctx context.Context, db bun.IDB, competitionID string) (*resultsdomain.Competition, error)

	// Replace stores the whole document, creating it if it does not exist.
	Replace(ctx context.Context, db bun.IDB, competition *resultsdomain.Competition) error

	// Delete removes a competition document.
	Delete(ctx context.Context, db bun.IDB, competitionID string) error
}
