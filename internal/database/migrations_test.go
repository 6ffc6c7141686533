package database

import (
	"fmt"
	"path/filepath"
	"testing"

	"github.com/xelth-com/fieldopsgo/internal/config"
)

func openTestStore(t *testing.T, path string) *DB {
	t.Helper()
	db, err := Open(config.DatabaseConfig{Path: path})
	if err != nil {
		t.Fatalf("Failed to open store: %v", err)
	}
	return db
}

func TestMigrateFreshStore(t *testing.T) {
	path := filepath.Join(t.TempDir(), "store.db")
	db := openTestStore(t, path)
	defer db.Close()

	version, err := db.SchemaVersion()
	if err != nil {
		t.Fatalf("Failed to read schema version: %v", err)
	}
	if version != TargetVersion() {
		t.Errorf("Fresh store should be at v%d, got v%d", TargetVersion(), version)
	}

	// Every table of the cumulative schema must exist.
	tables := []string{
		"units", "categories", "brands", "sales_routes", "user_accounts",
		"products", "customers", "orders", "order_lines",
		"out_of_stock_masters", "out_of_stock_lines",
		"sync_watermarks", "failed_operations", "packing_entries",
	}
	for _, table := range tables {
		var count int64
		err := db.Raw("SELECT count(*) FROM sqlite_master WHERE type='table' AND name=?", table).Scan(&count).Error
		if err != nil {
			t.Fatalf("Failed to inspect schema: %v", err)
		}
		if count != 1 {
			t.Errorf("Table %s missing after migration", table)
		}
	}
}

func TestMigrateReopenIsIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "store.db")
	db := openTestStore(t, path)
	if err := db.Close(); err != nil {
		t.Fatalf("Failed to close store: %v", err)
	}

	db = openTestStore(t, path)
	defer db.Close()

	version, err := db.SchemaVersion()
	if err != nil {
		t.Fatalf("Failed to read schema version: %v", err)
	}
	if version != TargetVersion() {
		t.Errorf("Reopened store should stay at v%d, got v%d", TargetVersion(), version)
	}
}

func TestMigrateRefusesDowngrade(t *testing.T) {
	path := filepath.Join(t.TempDir(), "store.db")
	db := openTestStore(t, path)

	// Simulate a store written by a newer build.
	future := TargetVersion() + 1
	if err := db.Exec(fmt.Sprintf("PRAGMA user_version = %d", future)).Error; err != nil {
		t.Fatalf("Failed to bump schema version: %v", err)
	}
	if err := db.Close(); err != nil {
		t.Fatalf("Failed to close store: %v", err)
	}

	if _, err := Open(config.DatabaseConfig{Path: path}); err == nil {
		t.Fatal("Opening a store with a newer schema version must fail")
	}
}

func TestMigrateSurvivesExistingRows(t *testing.T) {
	path := filepath.Join(t.TempDir(), "store.db")
	db := openTestStore(t, path)

	if err := db.Exec("INSERT INTO units (server_id, name) VALUES (1, 'pcs')").Error; err != nil {
		t.Fatalf("Failed to seed row: %v", err)
	}
	if err := db.Close(); err != nil {
		t.Fatalf("Failed to close store: %v", err)
	}

	db = openTestStore(t, path)
	defer db.Close()

	var name string
	if err := db.Raw("SELECT name FROM units WHERE server_id = 1").Scan(&name).Error; err != nil {
		t.Fatalf("Failed to read seeded row: %v", err)
	}
	if name != "pcs" {
		t.Errorf("Reopen must not disturb rows, got %q", name)
	}
}
