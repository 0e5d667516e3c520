package migration

import (
	"context"

	"pricesheet/internal/errors"

	"github.com/jmoiron/sqlx"
)

// ComparisonRunsTable creates the run audit table. Repositories select and
// insert exactly these columns.
const ComparisonRunsTable = `
CREATE TABLE IF NOT EXISTS comparison_runs (
	id UUID PRIMARY KEY,
	kind VARCHAR(20) NOT NULL,
	old_name TEXT NOT NULL DEFAULT '',
	new_name TEXT NOT NULL DEFAULT '',
	old_hash CHAR(64) NOT NULL DEFAULT '',
	new_hash CHAR(64) NOT NULL DEFAULT '',
	total INTEGER NOT NULL DEFAULT 0,
	changed INTEGER NOT NULL DEFAULT 0,
	created_at TIMESTAMP WITH TIME ZONE DEFAULT NOW()
)`

// Migrator defines the interface for database migration operations
type Migrator interface {
	Run(ctx context.Context, db *sqlx.DB) error
	Version() string
}

// MigrationRunner handles database schema migrations
type MigrationRunner struct {
	version string
}

// NewRunner creates a new migration runner
func NewRunner() *MigrationRunner {
	return &MigrationRunner{
		version: "1.0.0",
	}
}

// Version returns the migration version
func (r *MigrationRunner) Version() string {
	return r.version
}

// Run executes all database migrations in the correct order
func (r *MigrationRunner) Run(ctx context.Context, db *sqlx.DB) error {
	if err := r.createComparisonRunsTable(ctx, db); err != nil {
		return errors.Wrap(err, "failed to create comparison_runs table")
	}

	if err := r.createIndexes(ctx, db); err != nil {
		return errors.Wrap(err, "failed to create indexes")
	}

	return nil
}

func (r *MigrationRunner) createComparisonRunsTable(ctx context.Context, db *sqlx.DB) error {
	_, err := db.ExecContext(ctx, ComparisonRunsTable)
	return err
}

func (r *MigrationRunner) createIndexes(ctx context.Context, db *sqlx.DB) error {
	_, err := db.ExecContext(ctx, `
		CREATE INDEX IF NOT EXISTS idx_comparison_runs_created_at ON comparison_runs(created_at DESC)
	`)
	return err
}
