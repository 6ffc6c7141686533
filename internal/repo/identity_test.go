package repo

import (
	"path/filepath"
	"testing"

	"github.com/xelth-com/fieldopsgo/internal/config"
	"github.com/xelth-com/fieldopsgo/internal/database"
	"github.com/xelth-com/fieldopsgo/internal/models"
)

func openTestStore(t *testing.T) *database.DB {
	t.Helper()
	db, err := database.Open(config.DatabaseConfig{Path: filepath.Join(t.TempDir(), "store.db")})
	if err != nil {
		t.Fatalf("Failed to open store: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

// The local key assigned on the first upsert must survive every later
// upsert for the same server key.
func TestUpsertLocalKeyStability(t *testing.T) {
	db := openTestStore(t)

	localID, err := Upsert[models.Customer, *models.Customer](db.DB, 11, func(c *models.Customer) {
		c.ServerID = 11
		c.Name = "Acme"
		c.PhoneNo = "555-1212"
	})
	if err != nil {
		t.Fatalf("First upsert failed: %v", err)
	}
	if localID <= 0 {
		t.Fatalf("Expected assigned local key, got %d", localID)
	}

	again, err := Upsert[models.Customer, *models.Customer](db.DB, 11, func(c *models.Customer) {
		c.ServerID = 11
		c.Name = "Acme Renamed"
	})
	if err != nil {
		t.Fatalf("Second upsert failed: %v", err)
	}
	if again != localID {
		t.Errorf("Local key must be stable: first %d, second %d", localID, again)
	}

	var count int64
	if err := db.Model(&models.Customer{}).Count(&count).Error; err != nil {
		t.Fatalf("Count failed: %v", err)
	}
	if count != 1 {
		t.Errorf("Upsert must update in place, found %d rows", count)
	}

	row, err := FindByServerKey[models.Customer](db.DB, 11)
	if err != nil {
		t.Fatalf("Lookup failed: %v", err)
	}
	if row.Name != "Acme Renamed" {
		t.Errorf("Second upsert should have updated the name, got %q", row.Name)
	}
	if row.PhoneNo != "555-1212" {
		t.Errorf("Fields untouched by the second apply must survive, got %q", row.PhoneNo)
	}
}

// The unassigned server key never matches an existing row; every upsert
// with it inserts.
func TestUpsertUnassignedAlwaysInserts(t *testing.T) {
	db := openTestStore(t)

	first, err := Upsert[models.Customer, *models.Customer](db.DB, models.ServerKeyUnassigned, func(c *models.Customer) {
		c.ServerID = models.ServerKeyUnassigned
		c.Name = "Local One"
	})
	if err != nil {
		t.Fatalf("First insert failed: %v", err)
	}
	second, err := Upsert[models.Customer, *models.Customer](db.DB, models.ServerKeyUnassigned, func(c *models.Customer) {
		c.ServerID = models.ServerKeyUnassigned
		c.Name = "Local Two"
	})
	if err != nil {
		t.Fatalf("Second insert failed: %v", err)
	}
	if first == second {
		t.Error("Unassigned server key must insert new rows, not match")
	}
}

func TestWatermarkLifecycle(t *testing.T) {
	db := openTestStore(t)

	wm, err := Watermark(db.DB, models.TableCustomers)
	if err != nil {
		t.Fatalf("Reading missing watermark failed: %v", err)
	}
	if wm != "" {
		t.Errorf("Never-synced table should have an empty watermark, got %q", wm)
	}

	if err := AdvanceWatermark(db.DB, models.TableCustomers, "2026-08-01 10:00:00"); err != nil {
		t.Fatalf("Advance failed: %v", err)
	}
	if err := AdvanceWatermark(db.DB, models.TableCustomers, "2026-08-02 09:30:00"); err != nil {
		t.Fatalf("Second advance failed: %v", err)
	}

	wm, err = Watermark(db.DB, models.TableCustomers)
	if err != nil {
		t.Fatalf("Reading watermark failed: %v", err)
	}
	if wm != "2026-08-02 09:30:00" {
		t.Errorf("Watermark should hold the latest cursor, got %q", wm)
	}

	// Other tables are untouched.
	other, err := Watermark(db.DB, models.TableProducts)
	if err != nil {
		t.Fatalf("Reading other watermark failed: %v", err)
	}
	if other != "" {
		t.Errorf("Products watermark should be empty, got %q", other)
	}
}

func TestFailedOpsQueue(t *testing.T) {
	db := openTestStore(t)
	ops := NewFailedOps(db.DB)

	exists, err := ops.Exists(models.TableCustomers, 7, "download")
	if err != nil {
		t.Fatalf("Exists failed: %v", err)
	}
	if exists {
		t.Error("Fresh queue should be empty")
	}

	if err := ops.Record(models.TableCustomers, 7, "download", "decode: boom", []byte(`{"id":7}`)); err != nil {
		t.Fatalf("Record failed: %v", err)
	}
	if err := ops.Record(models.TableOrders, 3, "upload", "server rejected", nil); err != nil {
		t.Fatalf("Record failed: %v", err)
	}

	exists, err = ops.Exists(models.TableCustomers, 7, "download")
	if err != nil {
		t.Fatalf("Exists failed: %v", err)
	}
	if !exists {
		t.Error("Recorded entry should exist")
	}

	pending, err := ops.ListPending()
	if err != nil {
		t.Fatalf("ListPending failed: %v", err)
	}
	if len(pending) != 2 {
		t.Fatalf("Expected 2 pending entries, got %d", len(pending))
	}
	if pending[0].TableID != models.TableCustomers {
		t.Errorf("Entries should list oldest first, got %s", pending[0].TableID)
	}

	if err := ops.Clear(models.TableCustomers, 7, "download"); err != nil {
		t.Fatalf("Clear failed: %v", err)
	}
	count, err := ops.CountPending()
	if err != nil {
		t.Fatalf("CountPending failed: %v", err)
	}
	if count != 1 {
		t.Errorf("Expected 1 entry after clear, got %d", count)
	}
}
