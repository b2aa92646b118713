// Package sqlitestorage implements the storage.Backend interface using SQLite.
// It wraps the GORM backend via composition. The only SQLite-specific concerns are
// creating the database, restoring the last dump on start and periodic disk dumps.
package sqlitestorage

import (
	"errors"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/vgccalc/vgccalc/internal/database"
	"github.com/vgccalc/vgccalc/internal/logging"
	"github.com/vgccalc/vgccalc/internal/model"
	gormstorage "github.com/vgccalc/vgccalc/internal/storage/gorm"
	"gorm.io/gorm"
)

// Config holds configuration for the SQLite storage backend.
type Config struct {
	// Path opens a file database. Empty means in-memory.
	Path         string
	DumpInterval time.Duration
	DumpPath     string // Path for periodic VACUUM INTO dumps of the in-memory DB
}

// Backend wraps the GORM backend for SQLite-specific behavior.
type Backend struct {
	*gormstorage.Backend
	db       *gorm.DB
	cfg      Config
	log      *logging.SlogManager
	stopChan chan struct{}
	wg       sync.WaitGroup
}

// New creates a new SQLite storage backend.
func New(cfg Config, logManager *logging.SlogManager) (*Backend, error) {
	if logManager == nil {
		logManager = logging.NewSlogManager()
	}
	db, err := database.GetSqliteDBStandalone(cfg.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to create SQLite DB: %w", err)
	}

	gormBackend := gormstorage.New(gormstorage.Dependencies{
		DB:         db,
		LogManager: logManager,
	})

	return &Backend{
		Backend:  gormBackend,
		db:       db,
		cfg:      cfg,
		log:      logManager,
		stopChan: make(chan struct{}),
	}, nil
}

func (b *Backend) inMemory() bool {
	return b.cfg.Path == ""
}

// Init initializes the embedded GORM backend, restores the last dump and
// starts the dump goroutine.
func (b *Backend) Init() error {
	if err := b.Backend.Init(); err != nil {
		return err
	}

	if !b.inMemory() || b.cfg.DumpPath == "" {
		return nil
	}

	if err := b.restore(); err != nil {
		b.log.WriteLog("sqlite:Init", fmt.Sprintf("Starting empty, could not restore dump: %v", err), "WARN")
	}

	if b.cfg.DumpInterval > 0 {
		b.wg.Add(1)
		go b.dumpLoop()
	}
	return nil
}

func (b *Backend) restore() error {
	if _, err := os.Stat(b.cfg.DumpPath); errors.Is(err, os.ErrNotExist) {
		return nil
	}

	tables := make([]string, 0, len(model.DatabaseModels))
	for _, m := range model.DatabaseModels {
		if t, ok := m.(interface{ TableName() string }); ok {
			tables = append(tables, t.TableName())
		}
	}
	if err := database.RestoreFromDisk(b.db, b.cfg.DumpPath, tables); err != nil {
		return err
	}
	b.log.WriteLog("sqlite:Init", fmt.Sprintf("Restored %s", b.cfg.DumpPath), "INFO")
	return nil
}

// Close stops the dump goroutine, flushes the GORM backend and writes a last dump.
func (b *Backend) Close() error {
	select {
	case <-b.stopChan:
		return nil
	default:
		close(b.stopChan)
	}
	b.wg.Wait()

	if err := b.Backend.Close(); err != nil {
		return err
	}
	if b.inMemory() && b.cfg.DumpPath != "" {
		if err := database.DumpMemoryDBToDisk(b.db, b.cfg.DumpPath); err != nil {
			return err
		}
	}

	sqlDB, err := b.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// Dump writes the in-memory database to DumpPath now.
func (b *Backend) Dump() error {
	if err := b.Backend.Flush(); err != nil {
		return err
	}
	return database.DumpMemoryDBToDisk(b.db, b.cfg.DumpPath)
}

// dumpLoop periodically dumps the in-memory SQLite database to disk via VACUUM INTO.
// VACUUM INTO creates a point-in-time snapshot, so no pause mechanism is needed.
func (b *Backend) dumpLoop() {
	defer b.wg.Done()
	ticker := time.NewTicker(b.cfg.DumpInterval)
	defer ticker.Stop()

	for {
		select {
		case <-b.stopChan:
			return
		case <-ticker.C:
			start := time.Now()
			if err := b.Dump(); err != nil {
				b.log.WriteLog("sqlite:dumpLoop", fmt.Sprintf("Error dumping to disk: %v", err), "ERROR")
			} else {
				b.log.WriteLog("sqlite:dumpLoop", fmt.Sprintf("Dumped to disk in %s", time.Since(start)), "DEBUG")
			}
		}
	}
}
