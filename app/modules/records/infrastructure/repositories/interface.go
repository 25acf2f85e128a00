package recordsdb

import (
	"context"

	resultsdomain "github.com/Black-And-White-Club/live-results/app/modules/results/domain"
	"github.com/uptrace/bun"
)

// Repository persists record snapshots so that a failed fetch can fall back
// to the last one that succeeded.
type Repository interface {
	Latest(ctx context.Context, db bun.IDB) (*resultsdomain.RecordsSnapshot, error)
	Save(ctx context.Context, db bun.IDB, snapshot *resultsdomain.RecordsSnapshot) error
	Prune(ctx context.Context, db bun.IDB, keep int) (int64, error)
}
