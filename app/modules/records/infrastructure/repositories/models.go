package recordsdb

import (
	"time"

	resultsdomain "github.com/Black-And-White-Club/live-results/app/modules/results/domain"
	"github.com/uptrace/bun"
)

// RecordsSnapshot is one successful fetch of the official records.
type RecordsSnapshot struct {
	bun.BaseModel `bun:"table:records_snapshots,alias:rs"`

	ID        int64                       `bun:"id,pk,autoincrement"`
	FetchedAt time.Time                   `bun:"fetched_at,notnull"`
	Entries   []resultsdomain.RecordEntry `bun:"entries,type:jsonb,notnull"`
	CreatedAt time.Time                   `bun:"created_at,nullzero,notnull,default:current_timestamp"`
}
