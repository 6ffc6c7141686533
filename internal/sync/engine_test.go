package sync

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/xelth-com/fieldopsgo/internal/config"
	"github.com/xelth-com/fieldopsgo/internal/database"
	"github.com/xelth-com/fieldopsgo/internal/models"
	"github.com/xelth-com/fieldopsgo/internal/repo"
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

// customersOnlyConfig enables exactly one table so a test exercises a
// single page loop without serving the whole catalog.
func customersOnlyConfig() *config.SyncConfig {
	cfg := &config.SyncConfig{
		Enabled:  true,
		PageSize: 10,
		Tables:   map[string]config.TableSyncConfig{},
	}
	for _, table := range models.SyncOrder {
		cfg.Tables[string(table)] = config.TableSyncConfig{
			Enabled: table == models.TableCustomers,
		}
	}
	return cfg
}

func newTestEngine(t *testing.T, handler http.Handler) (*Engine, *database.DB) {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	db := openTestStore(t)
	client := NewClient(server.URL, 5*time.Second)
	return NewEngine(db, client, customersOnlyConfig(), nil), db
}

// A record that fails to decode must not poison its page: the clean
// records around it merge, the failure is tracked for replay, and the
// watermark stays frozen so nothing gets skipped next cycle.
func TestDownloadQuarantinesMalformedRecord(t *testing.T) {
	// Record 2 carries a numeric phone_no where the wire format requires
	// a string, so its decode fails after the key has been read.
	good1 := `{"id":1,"customer_name":"Acme","phone_no":"555-0001"}`
	bad := `{"id":2,"phone_no":12345}`
	good3 := `{"id":3,"customer_name":"Globex","phone_no":"555-0003"}`

	mux := http.NewServeMux()
	mux.HandleFunc("/download/customer", func(w http.ResponseWriter, r *http.Request) {
		if id := r.URL.Query().Get("id"); id != "" {
			// The replay path re-fetches the same broken record.
			fmt.Fprintf(w, `{"status":1,"message":"","data":[%s],"updated_date":""}`, bad)
			return
		}
		fmt.Fprintf(w, `{"status":1,"message":"","data":[%s,%s,%s],"updated_date":"2026-08-29 10:00:00"}`,
			good1, bad, good3)
	})
	engine, db := newTestEngine(t, mux)

	res, err := engine.FullSync(context.Background())
	if err != nil {
		t.Fatalf("FullSync failed: %v", err)
	}
	if res.Merged != 2 {
		t.Errorf("Expected 2 merged records, got %d", res.Merged)
	}
	if res.Failed != 1 {
		t.Errorf("Expected 1 failed record, got %d", res.Failed)
	}

	for _, serverID := range []int64{1, 3} {
		var c models.Customer
		if err := db.DB.Where("server_id = ?", serverID).First(&c).Error; err != nil {
			t.Errorf("Customer %d should have merged: %v", serverID, err)
		}
	}
	var count int64
	if err := db.DB.Model(&models.Customer{}).Count(&count).Error; err != nil {
		t.Fatalf("Count failed: %v", err)
	}
	if count != 2 {
		t.Errorf("Expected 2 customers in store, got %d", count)
	}

	ops := repo.NewFailedOps(db.DB)
	tracked, err := ops.Exists(models.TableCustomers, 2, "download")
	if err != nil {
		t.Fatalf("Failed-op lookup failed: %v", err)
	}
	if !tracked {
		t.Error("Expected a tracked download failure for customer 2")
	}

	cursor, err := repo.Watermark(db.DB, models.TableCustomers)
	if err != nil {
		t.Fatalf("Watermark lookup failed: %v", err)
	}
	if cursor != "" {
		t.Errorf("Watermark must stay frozen after a record failure, got %q", cursor)
	}
}

func TestDownloadAdvancesWatermarkOnCleanPage(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/download/customer", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"status":1,"message":"","data":[`+
			`{"id":1,"customer_name":"Acme"},{"id":2,"customer_name":"Globex"}`+
			`],"updated_date":"2026-08-29 10:00:00"}`)
	})
	engine, db := newTestEngine(t, mux)

	res, err := engine.FullSync(context.Background())
	if err != nil {
		t.Fatalf("FullSync failed: %v", err)
	}
	if !res.Success {
		t.Fatalf("Expected clean cycle, errors: %v", res.Errors)
	}
	if res.Merged != 2 || res.Failed != 0 {
		t.Errorf("Expected 2 merged / 0 failed, got %d / %d", res.Merged, res.Failed)
	}

	cursor, err := repo.Watermark(db.DB, models.TableCustomers)
	if err != nil {
		t.Fatalf("Watermark lookup failed: %v", err)
	}
	if cursor != "2026-08-29 10:00:00" {
		t.Errorf("Expected watermark to advance to page cursor, got %q", cursor)
	}
}

// A second cycle must forward the stored watermark so the server only
// returns records changed since the last clean page.
func TestDownloadForwardsWatermark(t *testing.T) {
	var gotUpdateDate string
	calls := 0
	mux := http.NewServeMux()
	mux.HandleFunc("/download/customer", func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls > 1 {
			gotUpdateDate = r.URL.Query().Get("update_date")
			fmt.Fprint(w, `{"status":1,"message":"","data":[],"updated_date":""}`)
			return
		}
		fmt.Fprint(w, `{"status":1,"message":"","data":[{"id":1}],"updated_date":"2026-08-29 10:00:00"}`)
	})
	engine, _ := newTestEngine(t, mux)

	if _, err := engine.FullSync(context.Background()); err != nil {
		t.Fatalf("First cycle failed: %v", err)
	}
	if _, err := engine.FullSync(context.Background()); err != nil {
		t.Fatalf("Second cycle failed: %v", err)
	}
	if gotUpdateDate != "2026-08-29 10:00:00" {
		t.Errorf("Expected second cycle to send the stored cursor, got %q", gotUpdateDate)
	}
}

// Locally created rows upload and take the server-assigned key. The local
// key must never appear in the request body.
func TestUploadAssignsServerKey(t *testing.T) {
	var uploadedBody map[string]interface{}
	mux := http.NewServeMux()
	mux.HandleFunc("/download/customer", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"status":1,"message":"","data":[],"updated_date":""}`)
	})
	mux.HandleFunc("/upload/customer", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "method", http.StatusMethodNotAllowed)
			return
		}
		if err := json.NewDecoder(r.Body).Decode(&uploadedBody); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		fmt.Fprint(w, `{"status":1,"message":"","data":{"id":501}}`)
	})
	engine, db := newTestEngine(t, mux)

	local := models.Customer{
		ServerID: models.ServerKeyUnassigned,
		Name:     "New Corner Shop",
		PhoneNo:  "555-0042",
	}
	if err := db.DB.Create(&local).Error; err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	res, err := engine.FullSync(context.Background())
	if err != nil {
		t.Fatalf("FullSync failed: %v", err)
	}
	if res.Uploaded != 1 {
		t.Fatalf("Expected 1 uploaded row, got %d", res.Uploaded)
	}

	if uploadedBody["customer_name"] != "New Corner Shop" {
		t.Errorf("Upload body missing customer_name: %v", uploadedBody)
	}
	if uploadedBody["id"] != float64(models.ServerKeyUnassigned) {
		t.Errorf("Upload body should carry the unassigned key, got %v", uploadedBody["id"])
	}
	if _, ok := uploadedBody["local_id"]; ok {
		t.Error("Local key leaked into the upload body")
	}

	var stored models.Customer
	if err := db.DB.First(&stored, local.LocalID).Error; err != nil {
		t.Fatalf("Reload failed: %v", err)
	}
	if stored.ServerID != 501 {
		t.Errorf("Expected server key 501 after upload, got %d", stored.ServerID)
	}
	if stored.LastSyncedAt.IsZero() {
		t.Error("Expected sync stamp after upload")
	}
}

// An unreachable server fails the cycle with classified errors but leaves
// the store and watermark untouched.
func TestSyncOfflineLeavesStoreUntouched(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	server.Close() // connection refused from here on
	db := openTestStore(t)
	engine := NewEngine(db, NewClient(server.URL, 2*time.Second), customersOnlyConfig(), nil)

	res, err := engine.FullSync(context.Background())
	if err != nil {
		t.Fatalf("FullSync should report failures in the result, got: %v", err)
	}
	if res.Success {
		t.Error("Expected failed cycle against unreachable server")
	}
	if len(res.Errors) == 0 {
		t.Error("Expected table errors in the result")
	}

	cursor, err := repo.Watermark(db.DB, models.TableCustomers)
	if err != nil {
		t.Fatalf("Watermark lookup failed: %v", err)
	}
	if cursor != "" {
		t.Errorf("Watermark must not move when the server is unreachable, got %q", cursor)
	}
}

// Replaying a tracked failure through the single-record endpoint merges
// the record and clears the tracker entry.
func TestRetryClearsTrackedFailure(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/download/customer", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("id") == "7" {
			fmt.Fprint(w, `{"status":1,"message":"","data":[{"id":7,"customer_name":"Initech","phone_no":"555-0007"}],"updated_date":""}`)
			return
		}
		fmt.Fprint(w, `{"status":1,"message":"","data":[],"updated_date":""}`)
	})
	engine, db := newTestEngine(t, mux)

	ops := repo.NewFailedOps(db.DB)
	if err := ops.Record(models.TableCustomers, 7, "download", "decode: test", []byte(`{"id":7}`)); err != nil {
		t.Fatalf("Record failed: %v", err)
	}

	retried, err := engine.RetryFailed(context.Background())
	if err != nil {
		t.Fatalf("RetryFailed failed: %v", err)
	}
	if retried != 1 {
		t.Errorf("Expected 1 replayed operation, got %d", retried)
	}

	var c models.Customer
	if err := db.DB.Where("server_id = ?", int64(7)).First(&c).Error; err != nil {
		t.Fatalf("Replayed record should have merged: %v", err)
	}
	if c.Name != "Initech" {
		t.Errorf("Expected merged name, got %q", c.Name)
	}

	tracked, err := ops.Exists(models.TableCustomers, 7, "download")
	if err != nil {
		t.Fatalf("Failed-op lookup failed: %v", err)
	}
	if tracked {
		t.Error("Tracker entry should clear after a successful replay")
	}
}

func TestConcurrentSyncRejected(t *testing.T) {
	db := openTestStore(t)
	engine := NewEngine(db, NewClient("http://127.0.0.1:1", time.Second), customersOnlyConfig(), nil)

	engine.mu.Lock()
	engine.inProgress = true
	engine.mu.Unlock()

	if _, err := engine.FullSync(context.Background()); err == nil {
		t.Fatal("Expected second concurrent cycle to be rejected")
	}
}
