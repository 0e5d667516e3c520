package container

import (
	"context"
	"fmt"

	"pricesheet/adapters/excel"
	"pricesheet/adapters/postgres"
	"pricesheet/app"
	"pricesheet/internal"
	"pricesheet/internal/config"
	"pricesheet/internal/errors"
	"pricesheet/internal/migration"
	"pricesheet/internal/storage"
	"pricesheet/ports"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
)

// Container holds all application dependencies and manages their lifecycle
type Container struct {
	Config *config.Config

	// Infrastructure
	DB     *sqlx.DB
	Reader *excel.DataReader

	// Optional; nil when DATABASE_URL is unset
	RunRepo ports.RunRepository

	Service *app.ComparisonService
	logger  *internal.Logger
}

// New creates a container without a database. Call InitWithDatabase to
// enable run auditing before building the service.
func New(cfg *config.Config) (*Container, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config cannot be nil")
	}

	c := &Container{
		Config: cfg,
		Reader: excel.NewDataReader(cfg.ReaderConfig()),
		logger: internal.DefaultLogger.Named("Container"),
	}
	c.buildService()
	return c, nil
}

// Connect opens the audit database when one is configured, runs migrations
// and rebuilds the service with auditing enabled
func (c *Container) Connect(ctx context.Context) error {
	if !c.Config.Database.Enabled() {
		c.logger.Info("DATABASE_URL not set, run auditing disabled")
		return nil
	}

	db, err := sqlx.ConnectContext(ctx, "postgres", c.Config.Database.URL)
	if err != nil {
		return errors.DatabaseError("failed to connect to database", err)
	}
	return c.InitWithDatabase(ctx, db)
}

// InitWithDatabase wires components that require database access
func (c *Container) InitWithDatabase(ctx context.Context, db *sqlx.DB) error {
	if db == nil {
		return fmt.Errorf("database connection cannot be nil")
	}

	if err := db.PingContext(ctx); err != nil {
		return errors.DatabaseError("failed to ping database", err)
	}

	if err := migration.NewRunner().Run(ctx, db); err != nil {
		return errors.Wrap(err, "database migration failed")
	}

	c.DB = db
	c.RunRepo = postgres.NewRunRepository(db)
	c.buildService()
	c.logger.Info("run auditing enabled")
	return nil
}

func (c *Container) buildService() {
	storageConfig := storage.DefaultConfig()
	storageConfig.BaseDir = c.Config.Upload.ScratchDir
	storageConfig.MaxBytes = c.Config.Upload.MaxBytes

	c.Service = app.NewComparisonService(c.Reader, storageConfig, c.Config.Excel.HeaderRow, c.RunRepo)
}

// Shutdown releases held resources
func (c *Container) Shutdown(ctx context.Context) error {
	if c.DB != nil {
		return c.DB.Close()
	}
	return nil
}
