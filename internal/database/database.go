package database

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/xelth-com/fieldopsgo/internal/config"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// DB wraps gorm.DB over the local SQLite store.
type DB struct {
	*gorm.DB
}

// Open opens (or creates) the local store and brings its schema to the
// current version. Idempotent: reopening an up-to-date store is a no-op
// beyond the connection itself. Opening a store whose schema version is
// NEWER than this build refuses with an error; see Migrate.
func Open(cfg config.DatabaseConfig) (*DB, error) {
	if dir := filepath.Dir(cfg.Path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create data directory: %w", err)
		}
	}

	logLevel := logger.Silent
	if cfg.Verbose {
		logLevel = logger.Info
	}

	db, err := gorm.Open(sqlite.Open(cfg.Path), &gorm.Config{
		Logger: logger.Default.LogMode(logLevel),
		NowFunc: func() time.Time {
			return time.Now().UTC()
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to access connection pool: %w", err)
	}
	// Single writer: every mutating operation serializes through one
	// connection, which is the transaction-lock discipline the sync engine
	// and the workflow rely on.
	sqlDB.SetMaxOpenConns(1)
	sqlDB.SetMaxIdleConns(1)

	if err := db.Exec("PRAGMA journal_mode=WAL;").Error; err != nil {
		return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
	}
	if err := db.Exec("PRAGMA foreign_keys=ON;").Error; err != nil {
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}
	if err := db.Exec("PRAGMA busy_timeout=5000;").Error; err != nil {
		return nil, fmt.Errorf("failed to set busy timeout: %w", err)
	}

	store := &DB{DB: db}

	if err := store.Migrate(); err != nil {
		return nil, err
	}

	log.Printf("✅ Local store ready at %s (schema v%d)", cfg.Path, TargetVersion())
	return store, nil
}

// Close shuts down the underlying connection.
func (db *DB) Close() error {
	sqlDB, err := db.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// SchemaVersion reads the store's native version marker.
func (db *DB) SchemaVersion() (int, error) {
	var version int
	if err := db.Raw("PRAGMA user_version;").Scan(&version).Error; err != nil {
		return 0, fmt.Errorf("failed to read schema version: %w", err)
	}
	return version, nil
}
