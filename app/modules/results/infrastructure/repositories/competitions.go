package resultsdb

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	resultsdomain "github.com/Black-And-White-Club/live-results/app/modules/results/domain"
	"github.com/uptrace/bun"
)

// ErrNotFound is returned when a competition document does not exist.
var ErrNotFound = errors.New("competition not found")

// Impl implements the Repository interface using Bun ORM.
type Impl struct {
	db bun.IDB
}

// NewRepository creates a new competition repository.
func NewRepository(db bun.IDB) Repository {
	return &Impl{db: db}
}

// resolveDB returns the provided db handle, falling back to the repository's
// default connection if db is nil.
func (r *Impl) resolveDB(db bun.IDB) bun.IDB {
	if db == nil {
		return r.db
	}
	return db
}

// Load retrieves a competition document by id.
func (r *Impl) Load(ctx context.Context, db bun.IDB, competitionID string) (*resultsdomain.Competition, error) {
	db = r.resolveDB(db)
	row := new(CompetitionDocument)
	err := db.NewSelect().
		Model(row).
		Where("id = ?", competitionID).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to load competition: %w", err)
	}
	if row.Document == nil {
		return nil, fmt.Errorf("competition %s has an empty document", competitionID)
	}
	return row.Document, nil
}

// Replace stores the whole document, creating it if it does not exist.
func (r *Impl) Replace(ctx context.Context, db bun.IDB, competition *resultsdomain.Competition) error {
	db = r.resolveDB(db)
	row := &CompetitionDocument{
		ID:        competition.ID,
		Document:  competition,
		CreatedAt: time.Now().UTC(),
		UpdatedAt: time.Now().UTC(),
	}
	_, err := db.NewInsert().
		Model(row).
		On("CONFLICT (id) DO UPDATE").
		Set("document = EXCLUDED.document").
		Set("updated_at = EXCLUDED.updated_at").
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to replace competition: %w", err)
	}
	return nil
}

// Delete removes a competition document.
func (r *Impl) Delete(ctx context.Context, db bun.IDB, competitionID string) error {
	db = r.resolveDB(db)
	result, err := db.NewDelete().
		Model((*CompetitionDocument)(nil)).
		Where("id = ?", competitionID).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to delete competition: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return ErrNotFound
	}
	return nil
}
