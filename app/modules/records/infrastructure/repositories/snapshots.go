package recordsdb

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	resultsdomain "github.com/Black-And-White-Club/live-results/app/modules/results/domain"
	"github.com/uptrace/bun"
)

// ErrNotFound is returned when no snapshot has been stored yet.
var ErrNotFound = errors.New("records snapshot not found")

// Impl implements the Repository interface using Bun ORM.
type Impl struct {
	db bun.IDB
}

// NewRepository creates a new records snapshot repository.
func NewRepository(db bun.IDB) Repository {
	return &Impl{db: db}
}

func (r *Impl) resolveDB(db bun.IDB) bun.IDB {
	if db == nil {
		return r.db
	}
	return db
}

// Latest returns the most recently fetched snapshot.
func (r *Impl) Latest(ctx context.Context, db bun.IDB) (*resultsdomain.RecordsSnapshot, error) {
	db = r.resolveDB(db)
	row := new(RecordsSnapshot)
	err := db.NewSelect().
		Model(row).
		Order("fetched_at DESC").
		Limit(1).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to load records snapshot: %w", err)
	}
	return resultsdomain.NewRecordsSnapshot(row.FetchedAt, row.Entries), nil
}

// Save stores a snapshot.
func (r *Impl) Save(ctx context.Context, db bun.IDB, snapshot *resultsdomain.RecordsSnapshot) error {
	db = r.resolveDB(db)
	row := &RecordsSnapshot{
		FetchedAt: snapshot.FetchedAt().UTC(),
		Entries:   snapshot.Entries(),
	}
	if _, err := db.NewInsert().Model(row).Exec(ctx); err != nil {
		return fmt.Errorf("failed to save records snapshot: %w", err)
	}
	return nil
}

// Prune deletes all but the keep most recent snapshots and returns how many
// were removed.
func (r *Impl) Prune(ctx context.Context, db bun.IDB, keep int) (int64, error) {
	db = r.resolveDB(db)
	newest := db.NewSelect().
		Model((*RecordsSnapshot)(nil)).
		Column("id").
		Order("fetched_at DESC").
		Limit(keep)
	result, err := db.NewDelete().
		Model((*RecordsSnapshot)(nil)).
		Where("id NOT IN (?)", newest).
		Exec(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to prune records snapshots: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return rows, nil
}
