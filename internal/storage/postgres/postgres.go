// Package postgres implements the storage.Backend interface using GORM/PostgreSQL.
// Queries and the call log writer are shared with the other GORM backends; this
// package owns the connection.
package postgres

import (
	"fmt"
	"time"

	"github.com/vgccalc/vgccalc/internal/database"
	"github.com/vgccalc/vgccalc/internal/logging"
	gormstorage "github.com/vgccalc/vgccalc/internal/storage/gorm"
	"gorm.io/gorm"
)

// Dependencies holds all dependencies for the Postgres storage backend.
type Dependencies struct {
	// DB is optional. When nil, Init connects using the db.* config keys.
	DB            *gorm.DB
	LogManager    *logging.SlogManager
	MaxOpenConns  int
	FlushInterval time.Duration
}

// Backend wraps the GORM backend with a Postgres connection.
type Backend struct {
	*gormstorage.Backend
	deps Dependencies
}

// New creates a new Postgres storage backend. Nothing connects until Init.
func New(deps Dependencies) *Backend {
	if deps.LogManager == nil {
		deps.LogManager = logging.NewSlogManager()
	}
	if deps.MaxOpenConns <= 0 {
		deps.MaxOpenConns = 10
	}
	return &Backend{deps: deps}
}

// Init connects if needed, migrates the schema and starts the DB writer goroutine.
func (b *Backend) Init() error {
	if b.deps.DB == nil {
		db, err := database.GetPostgresDBStandalone()
		if err != nil {
			return fmt.Errorf("failed to connect to postgres: %w", err)
		}
		sqlDB, err := db.DB()
		if err != nil {
			return fmt.Errorf("failed to access sql interface: %w", err)
		}
		if err = sqlDB.Ping(); err != nil {
			return fmt.Errorf("failed to validate connection: %w", err)
		}
		sqlDB.SetMaxOpenConns(b.deps.MaxOpenConns)
		b.deps.DB = db
		b.deps.LogManager.WriteLog("postgres:Init", "Connected to database", "INFO")
	}

	b.Backend = gormstorage.New(gormstorage.Dependencies{
		DB:            b.deps.DB,
		LogManager:    b.deps.LogManager,
		FlushInterval: b.deps.FlushInterval,
	})
	return b.Backend.Init()
}

// Close flushes queued writes and closes the connection.
func (b *Backend) Close() error {
	if b.Backend == nil {
		return nil
	}
	if err := b.Backend.Close(); err != nil {
		return err
	}
	sqlDB, err := b.deps.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
