package database

import (
	"fmt"
	"os"
	"strings"
	"sync/atomic"

	"github.com/glebarez/sqlite"
	"github.com/spf13/viper"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Config holds Postgres connection settings.
type Config struct {
	Host     string
	Port     string
	Username string
	Password string
	Database string
	SSLMode  string
}

// ConfigFromViper reads the db.* keys.
func ConfigFromViper() Config {
	return Config{
		Host:     viper.GetString("db.host"),
		Port:     viper.GetString("db.port"),
		Username: viper.GetString("db.username"),
		Password: viper.GetString("db.password"),
		Database: viper.GetString("db.database"),
		SSLMode:  viper.GetString("db.sslmode"),
	}
}

// DSN builds a libpq connection string.
func (c Config) DSN() string {
	sslmode := c.SSLMode
	if sslmode == "" {
		sslmode = "disable"
	}
	return fmt.Sprintf(`host=%s port=%s user=%s password=%s dbname=%s sslmode=%s`,
		c.Host, c.Port, c.Username, c.Password, c.Database, sslmode)
}

// GetPostgresDBStandalone returns a connection to the Postgres database using viper config.
func GetPostgresDBStandalone() (*gorm.DB, error) {
	return GetPostgresDB(ConfigFromViper())
}

// GetPostgresDB returns a connection to the Postgres database.
func GetPostgresDB(cfg Config) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.New(postgres.Config{
		DSN:                  cfg.DSN(),
		PreferSimpleProtocol: true,
	}), &gorm.Config{
		SkipDefaultTransaction: true,
		CreateBatchSize:        1000,
		Logger:                 logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, err
	}
	return db, nil
}

var memoryDBs atomic.Uint64

// GetSqliteDBStandalone returns a connection to a SQLite database.
// If path is empty, uses a new in-memory database. Every call gets its own
// in-memory database, shared by all connections of the returned pool.
func GetSqliteDBStandalone(path string) (*gorm.DB, error) {
	dsn := path
	if dsn == "" {
		dsn = fmt.Sprintf("file:vgccalc-%d?mode=memory&cache=shared", memoryDBs.Add(1))
	}

	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		PrepareStmt:            true,
		SkipDefaultTransaction: true,
		CreateBatchSize:        500,
		Logger:                 logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, err
	}

	// set PRAGMAS
	pragmas := []string{
		"PRAGMA user_version = 1;",
		"PRAGMA journal_mode = MEMORY;",
		"PRAGMA synchronous = OFF;",
		"PRAGMA cache_size = -32000;",
		"PRAGMA temp_store = MEMORY;",
	}

	for _, pragma := range pragmas {
		if err := db.Exec(pragma).Error; err != nil {
			return nil, fmt.Errorf("error setting PRAGMA: %s", err)
		}
	}

	return db, nil
}

// DumpMemoryDBToDisk vacuums the in-memory database to a disk file.
func DumpMemoryDBToDisk(db *gorm.DB, sqliteFilePath string) error {
	if sqliteFilePath == "" {
		return fmt.Errorf("sqlite file path not set")
	}

	// VACUUM INTO refuses to overwrite, so dump next to the target and rename.
	tmp := sqliteFilePath + ".tmp"
	if err := os.Remove(tmp); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("error removing stale dump: %w", err)
	}

	if err := db.Exec("VACUUM INTO ?", tmp).Error; err != nil {
		return fmt.Errorf("error dumping memory DB to disk: %w", err)
	}

	if err := os.Rename(tmp, sqliteFilePath); err != nil {
		return fmt.Errorf("error replacing DB file: %w", err)
	}
	return nil
}

// RestoreFromDisk copies the given tables from a dump file into db. The
// schema must already exist in db. Tables are copied in order, so parents
// must come before children.
func RestoreFromDisk(db *gorm.DB, sqliteFilePath string, tables []string) error {
	if _, err := os.Stat(sqliteFilePath); err != nil {
		return fmt.Errorf("no dump to restore: %w", err)
	}

	return db.Connection(func(conn *gorm.DB) error {
		if err := conn.Exec("ATTACH DATABASE ? AS dump", sqliteFilePath).Error; err != nil {
			return fmt.Errorf("error attaching dump: %w", err)
		}
		defer conn.Exec("DETACH DATABASE dump")

		for _, table := range tables {
			if !validIdentifier(table) {
				return fmt.Errorf("invalid table name %q", table)
			}
			var present int64
			err := conn.Raw("SELECT count(*) FROM dump.sqlite_master WHERE type = 'table' AND name = ?", table).Scan(&present).Error
			if err != nil {
				return fmt.Errorf("error inspecting dump: %w", err)
			}
			if present == 0 {
				continue
			}
			if err := conn.Exec(fmt.Sprintf("INSERT OR REPLACE INTO main.%s SELECT * FROM dump.%s", table, table)).Error; err != nil {
				return fmt.Errorf("error restoring %s: %w", table, err)
			}
		}
		return nil
	})
}

func validIdentifier(s string) bool {
	if s == "" {
		return false
	}
	return strings.IndexFunc(s, func(r rune) bool {
		return !(r == '_' || (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9'))
	}) < 0
}
