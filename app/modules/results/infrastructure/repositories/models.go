package resultsdb

import (
	"time"

	resultsdomain "github.com/Black-And-White-Club/live-results/app/modules/results/domain"
	"github.com/uptrace/bun"
)

// CompetitionDocument stores a whole competition aggregate as one jsonb value
// so that a lifecycle transition is persisted by a single row replace.
type CompetitionDocument struct {
	bun.BaseModel `bun:"table:competitions,alias:c"`

	ID        string                     `bun:"id,pk"`
	Document  *resultsdomain.Competition `bun:"document,type:jsonb,notnull"`
	CreatedAt time.Time                  `bun:"created_at,notnull,default:current_timestamp"`
	UpdatedAt time.Time                  `bun:"updated_at,notnull,default:current_timestamp"`
}
