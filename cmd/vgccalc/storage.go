package main

import (
	"fmt"

	"github.com/vgccalc/vgccalc/internal/config"
	"github.com/vgccalc/vgccalc/internal/logging"
	"github.com/vgccalc/vgccalc/internal/storage"
	"github.com/vgccalc/vgccalc/internal/storage/memory"
	pgstorage "github.com/vgccalc/vgccalc/internal/storage/postgres"
	sqlitestorage "github.com/vgccalc/vgccalc/internal/storage/sqlite"
)

func createStorageBackend(storageCfg config.StorageConfig, logManager *logging.SlogManager) (storage.Backend, error) {
	logger := logManager.Logger()
	switch storageCfg.Type {
	case "postgres":
		logger.Info("Postgres storage backend selected")
		return pgstorage.New(pgstorage.Dependencies{
			LogManager:    logManager,
			MaxOpenConns:  storageCfg.Postgres.MaxOpenConns,
			FlushInterval: storageCfg.Postgres.FlushInterval,
		}), nil

	case "sqlite":
		backend, err := sqlitestorage.New(sqlitestorage.Config{
			Path:         storageCfg.SQLite.Path,
			DumpInterval: storageCfg.SQLite.DumpInterval,
			DumpPath:     storageCfg.SQLite.DumpPath,
		}, logManager)
		if err != nil {
			return nil, fmt.Errorf("failed to create SQLite backend: %w", err)
		}
		logger.Info("SQLite storage backend selected", "path", storageCfg.SQLite.Path, "dumpPath", storageCfg.SQLite.DumpPath)
		return backend, nil

	case "memory", "":
		logger.Info("Memory storage backend selected", "outputDir", storageCfg.Memory.OutputDir)
		return memory.New(storageCfg.Memory), nil

	default:
		return nil, fmt.Errorf("unknown storage type: %q", storageCfg.Type)
	}
}
