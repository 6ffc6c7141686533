package sync

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"sync"
	"time"

	"gorm.io/gorm"

	"github.com/xelth-com/fieldopsgo/internal/apperr"
	"github.com/xelth-com/fieldopsgo/internal/config"
	"github.com/xelth-com/fieldopsgo/internal/database"
	"github.com/xelth-com/fieldopsgo/internal/models"
	"github.com/xelth-com/fieldopsgo/internal/repo"
)

// Notifier receives progress events from the engine. The websocket hub
// implements it; a nil notifier disables event delivery.
type Notifier interface {
	Broadcast(event string, payload interface{})
}

// Result summarizes one reconciliation cycle.
type Result struct {
	Success   bool          `json:"success"`
	Tables    int           `json:"tables"`
	Merged    int           `json:"merged"`
	Failed    int           `json:"failed"`
	Uploaded  int           `json:"uploaded"`
	Retried   int           `json:"retried"`
	Duration  time.Duration `json:"duration_ms"`
	Timestamp time.Time     `json:"timestamp"`
	Errors    []string      `json:"errors,omitempty"`
}

// Engine reconciles the local store with the server. One cycle walks every
// enabled table in dependency order, pulls changed records page by page,
// pushes locally created rows, then replays previously failed operations.
type Engine struct {
	db       *database.DB
	client   *Client
	cfg      *config.SyncConfig
	failed   *repo.FailedOps
	notifier Notifier

	userType int
	userID   int64

	mu         sync.RWMutex
	inProgress bool
	lastSync   time.Time
	lastResult *Result
}

func NewEngine(db *database.DB, client *Client, cfg *config.SyncConfig, notifier Notifier) *Engine {
	return &Engine{
		db:       db,
		client:   client,
		cfg:      cfg,
		failed:   repo.NewFailedOps(db.DB),
		notifier: notifier,
	}
}

// SetIdentity sets the role code and server-side user id forwarded on
// download requests so the server can scope results.
func (e *Engine) SetIdentity(userType int, userID int64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.userType = userType
	e.userID = userID
}

// InProgress reports whether a cycle is currently running.
func (e *Engine) InProgress() bool {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.inProgress
}

// LastResult returns the outcome of the most recent cycle, or nil if no
// cycle has completed since startup.
func (e *Engine) LastResult() *Result {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.lastResult
}

func (e *Engine) emit(event string, payload interface{}) {
	if e.notifier != nil {
		e.notifier.Broadcast(event, payload)
	}
}

// wire entity names, keyed by local table.
var entityNames = map[models.SyncTable]string{
	models.TableUnits:      "unit",
	models.TableCategories: "category",
	models.TableBrands:     "brand",
	models.TableRoutes:     "route",
	models.TableUsers:      "user",
	models.TableProducts:   "product",
	models.TableCustomers:  "customer",
	models.TableOrders:     "order",
	models.TableOrderLines: "order_line",
	models.TableOOSMasters: "out_of_stock_master",
	models.TableOOSLines:   "out_of_stock_line",
}

// tables whose rows can be created locally and therefore upload.
var uploadTables = map[models.SyncTable]bool{
	models.TableCustomers:  true,
	models.TableOrders:     true,
	models.TableOrderLines: true,
	models.TableOOSMasters: true,
	models.TableOOSLines:   true,
}

// FullSync runs one complete reconciliation cycle. It never aborts the
// cycle because a single table or record failed: failures are recorded and
// the remaining tables still run, so one bad payload cannot wedge the app.
func (e *Engine) FullSync(ctx context.Context) (*Result, error) {
	e.mu.Lock()
	if e.inProgress {
		e.mu.Unlock()
		return nil, apperr.New(apperr.KindValidation, "sync already in progress")
	}
	e.inProgress = true
	userType, userID := e.userType, e.userID
	e.mu.Unlock()

	start := time.Now()
	res := &Result{Timestamp: start}
	defer func() {
		res.Duration = time.Since(start)
		e.mu.Lock()
		e.inProgress = false
		e.lastSync = time.Now()
		e.lastResult = res
		e.mu.Unlock()
	}()

	log.Printf("🔄 Sync cycle started (user_type=%d user_id=%d)", userType, userID)
	e.emit("sync_started", map[string]interface{}{"timestamp": start})

	for _, table := range models.SyncOrder {
		if !e.cfg.TableEnabled(string(table)) {
			continue
		}
		entity := entityNames[table]
		merged, failed, err := e.downloadTable(ctx, table, entity, userType, userID)
		res.Merged += merged
		res.Failed += failed
		res.Tables++
		if err != nil {
			res.Errors = append(res.Errors, fmt.Sprintf("%s: %v", table, err))
			log.Printf("⚠️ Sync: table %s aborted: %v", table, err)
			continue
		}
		e.emit("sync_progress", map[string]interface{}{
			"table": string(table), "merged": merged, "failed": failed,
		})
	}

	for _, table := range models.SyncOrder {
		if !uploadTables[table] || !e.cfg.TableEnabled(string(table)) {
			continue
		}
		uploaded, err := e.uploadTable(ctx, table, entityNames[table])
		res.Uploaded += uploaded
		if err != nil {
			res.Errors = append(res.Errors, fmt.Sprintf("upload %s: %v", table, err))
			log.Printf("⚠️ Sync: upload pass for %s aborted: %v", table, err)
		}
	}

	retried, err := e.RetryFailed(ctx)
	res.Retried = retried
	if err != nil {
		res.Errors = append(res.Errors, fmt.Sprintf("retry: %v", err))
	}

	res.Success = len(res.Errors) == 0
	if res.Success {
		log.Printf("✅ Sync cycle completed: %d merged, %d failed, %d uploaded, %d retried in %s",
			res.Merged, res.Failed, res.Uploaded, res.Retried, time.Since(start).Round(time.Millisecond))
	} else {
		log.Printf("⚠️ Sync cycle finished with errors: %v", res.Errors)
	}
	e.emit("sync_completed", res)
	return res, nil
}

// downloadTable dispatches to the typed page loop for the given table.
func (e *Engine) downloadTable(ctx context.Context, table models.SyncTable, entity string, userType int, userID int64) (int, int, error) {
	switch table {
	case models.TableUnits:
		return downloadPages[models.Unit, *models.Unit, models.UnitPayload](e, ctx, table, entity, userType, userID)
	case models.TableCategories:
		return downloadPages[models.Category, *models.Category, models.CategoryPayload](e, ctx, table, entity, userType, userID)
	case models.TableBrands:
		return downloadPages[models.Brand, *models.Brand, models.BrandPayload](e, ctx, table, entity, userType, userID)
	case models.TableRoutes:
		return downloadPages[models.SalesRoute, *models.SalesRoute, models.RoutePayload](e, ctx, table, entity, userType, userID)
	case models.TableUsers:
		return downloadPages[models.UserAccount, *models.UserAccount, models.UserPayload](e, ctx, table, entity, userType, userID)
	case models.TableProducts:
		return downloadPages[models.Product, *models.Product, models.ProductPayload](e, ctx, table, entity, userType, userID)
	case models.TableCustomers:
		return downloadPages[models.Customer, *models.Customer, models.CustomerPayload](e, ctx, table, entity, userType, userID)
	case models.TableOrders:
		return downloadPages[models.Order, *models.Order, models.OrderPayload](e, ctx, table, entity, userType, userID)
	case models.TableOrderLines:
		return downloadPages[models.OrderLine, *models.OrderLine, models.OrderLinePayload](e, ctx, table, entity, userType, userID)
	case models.TableOOSMasters:
		return downloadPages[models.OutOfStockMaster, *models.OutOfStockMaster, models.OOSMasterPayload](e, ctx, table, entity, userType, userID)
	case models.TableOOSLines:
		return downloadPages[models.OutOfStockLine, *models.OutOfStockLine, models.OOSLinePayload](e, ctx, table, entity, userType, userID)
	default:
		return 0, 0, apperr.Newf(apperr.KindValidation, "unknown sync table %q", table)
	}
}

// downloadPages pulls all pages for one table since its watermark.
//
// Watermark policy: the cursor advances after every page whose records all
// merged cleanly. The first record-level failure freezes the cursor for the
// rest of the table, so nothing is skipped on the next cycle; the failed
// records themselves are replayed individually by the retry pass.
func downloadPages[T any, PT interface {
	*T
	models.LocalKeyed
	models.SyncStamped
}, P models.Payload[T]](e *Engine, ctx context.Context, table models.SyncTable, entity string, userType int, userID int64) (int, int, error) {
	cursor, err := repo.Watermark(e.db.DB, table)
	if err != nil {
		return 0, 0, err
	}
	size := e.cfg.TablePageSize(string(table))
	merged, failedCount := 0, 0
	clean := true

	for page := 0; ; page++ {
		env, err := e.client.DownloadPage(ctx, entity, page, size, userType, userID, cursor)
		if err != nil {
			return merged, failedCount, err
		}
		now := time.Now().UTC()
		txErr := e.db.DB.Transaction(func(tx *gorm.DB) error {
			ops := repo.NewFailedOps(tx)
			for _, raw := range env.Data {
				var p P
				if err := json.Unmarshal(raw, &p); err != nil {
					clean = false
					failedCount++
					recordFailure(ops, table, p.Key(), "download",
						fmt.Sprintf("decode: %v", err), raw)
					continue
				}
				_, err := repo.Upsert[T, PT](tx, p.Key(), func(row *T) {
					p.MergeInto(row)
					PT(row).StampSynced(now)
				})
				if err != nil {
					clean = false
					failedCount++
					recordFailure(ops, table, p.Key(), "download", err.Error(), raw)
					continue
				}
				merged++
			}
			return nil
		})
		if txErr != nil {
			return merged, failedCount, apperr.ClassifyDatabase("sync merge", txErr)
		}
		if clean && env.UpdatedDate != "" {
			if err := repo.AdvanceWatermark(e.db.DB, table, env.UpdatedDate); err != nil {
				return merged, failedCount, err
			}
		}
		if len(env.Data) < size {
			return merged, failedCount, nil
		}
	}
}

// recordFailure logs a failed operation exactly once per (table, entity,
// operation). Recording errors are logged and swallowed so one broken row
// never takes the rest of the page down with it.
func recordFailure(ops *repo.FailedOps, table models.SyncTable, entityID int64, operation, reason string, payload []byte) {
	exists, err := ops.Exists(table, entityID, operation)
	if err != nil {
		log.Printf("❌ Sync: failed-op lookup for %s/%d: %v", table, entityID, err)
		return
	}
	if exists {
		return
	}
	if err := ops.Record(table, entityID, operation, reason, payload); err != nil {
		log.Printf("❌ Sync: could not record failed op for %s/%d: %v", table, entityID, err)
	}
}

// uploadTable pushes locally created rows (server key still unassigned)
// and stores the server-assigned id on success.
func (e *Engine) uploadTable(ctx context.Context, table models.SyncTable, entity string) (int, error) {
	switch table {
	case models.TableCustomers:
		return uploadRows[models.Customer, *models.Customer](e, ctx, table, entity)
	case models.TableOrders:
		return uploadRows[models.Order, *models.Order](e, ctx, table, entity)
	case models.TableOrderLines:
		return uploadRows[models.OrderLine, *models.OrderLine](e, ctx, table, entity)
	case models.TableOOSMasters:
		return uploadRows[models.OutOfStockMaster, *models.OutOfStockMaster](e, ctx, table, entity)
	case models.TableOOSLines:
		return uploadRows[models.OutOfStockLine, *models.OutOfStockLine](e, ctx, table, entity)
	default:
		return 0, apperr.Newf(apperr.KindValidation, "table %q does not upload", table)
	}
}

func uploadRows[T any, PT interface {
	*T
	models.LocalKeyed
	models.ServerKeySettable
	models.SyncStamped
}](e *Engine, ctx context.Context, table models.SyncTable, entity string) (int, error) {
	var rows []T
	if err := e.db.DB.Where("server_id = ?", models.ServerKeyUnassigned).Find(&rows).Error; err != nil {
		return 0, apperr.ClassifyDatabase("load pending uploads", err)
	}
	uploaded := 0
	for i := range rows {
		row := PT(&rows[i])
		if err := e.uploadOne(ctx, table, entity, row); err != nil {
			if apperr.KindOf(err) == apperr.KindNetwork {
				// offline: the remaining rows will fail the same way
				return uploaded, err
			}
			body, _ := json.Marshal(&rows[i])
			recordFailure(e.failed, table, row.LocalKey(), "upload", err.Error(), body)
			continue
		}
		uploaded++
	}
	return uploaded, nil
}

// uploadOne sends a single row and persists the server-assigned key.
// The local key never goes over the wire.
func (e *Engine) uploadOne(ctx context.Context, table models.SyncTable, entity string, row interface {
	models.LocalKeyed
	models.ServerKeySettable
	models.SyncStamped
}) error {
	body, err := json.Marshal(row)
	if err != nil {
		return apperr.Wrap(apperr.KindValidation, "encode upload", err)
	}
	env, err := e.client.Upload(ctx, entity, json.RawMessage(body))
	if err != nil {
		return err
	}
	var assigned struct {
		ID int64 `json:"id"`
	}
	if len(env.Data) > 0 {
		if err := json.Unmarshal(env.Data, &assigned); err != nil {
			return apperr.Wrap(apperr.KindServer, "decode upload response", err)
		}
	}
	if assigned.ID <= 0 {
		return apperr.Newf(apperr.KindServer, "server returned no id for uploaded %s", entity)
	}
	row.SetServerKey(assigned.ID)
	row.StampSynced(time.Now().UTC())
	if err := e.db.DB.Save(row).Error; err != nil {
		return apperr.ClassifyDatabase("store server id", err)
	}
	log.Printf("📡 Sync: uploaded %s local=%d → server=%d", entity, row.LocalKey(), assigned.ID)
	return nil
}
