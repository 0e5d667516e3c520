package postgres

import (
	"context"

	"pricesheet/internal/errors"
	"pricesheet/models"
	"pricesheet/ports"

	"github.com/jmoiron/sqlx"
)

const (
	insertRunSQL = `
		INSERT INTO comparison_runs (id, kind, old_name, new_name, old_hash, new_hash, total, changed, created_at)
		VALUES (:id, :kind, :old_name, :new_name, :old_hash, :new_hash, :total, :changed, :created_at)`

	selectRunsSQL = `
		SELECT id, kind, old_name, new_name, old_hash, new_hash, total, changed, created_at
		FROM comparison_runs
		ORDER BY created_at DESC
		LIMIT $1`

	defaultRunLimit = 50
)

// RunRepositoryImpl implements RunRepository for PostgreSQL
type RunRepositoryImpl struct {
	db *sqlx.DB
}

// NewRunRepository creates a new PostgreSQL run repository
func NewRunRepository(db *sqlx.DB) ports.RunRepository {
	return &RunRepositoryImpl{db: db}
}

// Record inserts a finished run
func (r *RunRepositoryImpl) Record(ctx context.Context, run *models.ComparisonRun) error {
	if run == nil {
		return errors.ValidationError("run cannot be nil")
	}
	if _, err := r.db.NamedExecContext(ctx, insertRunSQL, run); err != nil {
		return errors.DatabaseError("failed to record comparison run", err)
	}
	return nil
}

// ListRecent returns the newest runs first
func (r *RunRepositoryImpl) ListRecent(ctx context.Context, limit int) ([]*models.ComparisonRun, error) {
	if limit <= 0 {
		limit = defaultRunLimit
	}
	var runs []*models.ComparisonRun
	if err := r.db.SelectContext(ctx, &runs, selectRunsSQL, limit); err != nil {
		return nil, errors.DatabaseError("failed to list comparison runs", err)
	}
	return runs, nil
}
