package sync

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"time"

	"gorm.io/gorm"

	"github.com/xelth-com/fieldopsgo/internal/apperr"
	"github.com/xelth-com/fieldopsgo/internal/models"
	"github.com/xelth-com/fieldopsgo/internal/repo"
)

// RetryFailed replays every pending failed operation, oldest first.
// Download failures are re-fetched individually through the single-id
// endpoint; upload failures are re-sent. Entries are cleared only after
// the replay succeeds. A network error stops the pass early because the
// remaining entries would fail the same way.
func (e *Engine) RetryFailed(ctx context.Context) (int, error) {
	ops, err := e.failed.ListPending()
	if err != nil {
		return 0, err
	}
	if len(ops) == 0 {
		return 0, nil
	}
	log.Printf("🔄 Sync: replaying %d failed operation(s)", len(ops))

	retried := 0
	for i := range ops {
		op := &ops[i]
		var replayErr error
		switch op.Operation {
		case "download":
			replayErr = e.retryDownload(ctx, op)
		case "upload":
			replayErr = e.retryUpload(ctx, op)
		default:
			replayErr = apperr.Newf(apperr.KindValidation, "unknown failed operation %q", op.Operation)
		}
		if replayErr != nil {
			if apperr.KindOf(replayErr) == apperr.KindNetwork {
				return retried, replayErr
			}
			log.Printf("⚠️ Sync: retry of %s %s/%d still failing: %v",
				op.Operation, op.TableID, op.EntityID, replayErr)
			continue
		}
		if err := e.failed.Clear(op.TableID, op.EntityID, op.Operation); err != nil {
			return retried, err
		}
		retried++
	}
	return retried, nil
}

// retryDownload fetches one record by its server key and merges it.
func (e *Engine) retryDownload(ctx context.Context, op *models.FailedOperation) error {
	if op.EntityID <= 0 {
		// The original payload never decoded far enough to yield a key.
		// The frozen watermark redelivers the record through the page
		// path, so the entry can be dropped.
		return nil
	}
	env, err := e.client.DownloadByID(ctx, entityNames[op.TableID], op.EntityID)
	if err != nil {
		return err
	}
	if len(env.Data) == 0 {
		// Gone on the server; nothing left to merge.
		return nil
	}
	return e.mergeOne(op.TableID, env.Data[0])
}

// mergeOne dispatches a single raw record to the typed merge for its table.
func (e *Engine) mergeOne(table models.SyncTable, raw json.RawMessage) error {
	switch table {
	case models.TableUnits:
		return mergeRecord[models.Unit, *models.Unit, models.UnitPayload](e, raw)
	case models.TableCategories:
		return mergeRecord[models.Category, *models.Category, models.CategoryPayload](e, raw)
	case models.TableBrands:
		return mergeRecord[models.Brand, *models.Brand, models.BrandPayload](e, raw)
	case models.TableRoutes:
		return mergeRecord[models.SalesRoute, *models.SalesRoute, models.RoutePayload](e, raw)
	case models.TableUsers:
		return mergeRecord[models.UserAccount, *models.UserAccount, models.UserPayload](e, raw)
	case models.TableProducts:
		return mergeRecord[models.Product, *models.Product, models.ProductPayload](e, raw)
	case models.TableCustomers:
		return mergeRecord[models.Customer, *models.Customer, models.CustomerPayload](e, raw)
	case models.TableOrders:
		return mergeRecord[models.Order, *models.Order, models.OrderPayload](e, raw)
	case models.TableOrderLines:
		return mergeRecord[models.OrderLine, *models.OrderLine, models.OrderLinePayload](e, raw)
	case models.TableOOSMasters:
		return mergeRecord[models.OutOfStockMaster, *models.OutOfStockMaster, models.OOSMasterPayload](e, raw)
	case models.TableOOSLines:
		return mergeRecord[models.OutOfStockLine, *models.OutOfStockLine, models.OOSLinePayload](e, raw)
	default:
		return apperr.Newf(apperr.KindValidation, "unknown sync table %q", table)
	}
}

func mergeRecord[T any, PT interface {
	*T
	models.LocalKeyed
	models.SyncStamped
}, P models.Payload[T]](e *Engine, raw json.RawMessage) error {
	var p P
	if err := json.Unmarshal(raw, &p); err != nil {
		return apperr.Wrap(apperr.KindValidation, "decode record", err)
	}
	now := time.Now().UTC()
	return e.db.DB.Transaction(func(tx *gorm.DB) error {
		_, err := repo.Upsert[T, PT](tx, p.Key(), func(row *T) {
			p.MergeInto(row)
			PT(row).StampSynced(now)
		})
		return err
	})
}

// retryUpload re-sends one locally created row. The entity id of an upload
// entry is the row's local key.
func (e *Engine) retryUpload(ctx context.Context, op *models.FailedOperation) error {
	entity := entityNames[op.TableID]
	switch op.TableID {
	case models.TableCustomers:
		return retryUploadRow[models.Customer, *models.Customer](e, ctx, op.TableID, entity, op.EntityID)
	case models.TableOrders:
		return retryUploadRow[models.Order, *models.Order](e, ctx, op.TableID, entity, op.EntityID)
	case models.TableOrderLines:
		return retryUploadRow[models.OrderLine, *models.OrderLine](e, ctx, op.TableID, entity, op.EntityID)
	case models.TableOOSMasters:
		return retryUploadRow[models.OutOfStockMaster, *models.OutOfStockMaster](e, ctx, op.TableID, entity, op.EntityID)
	case models.TableOOSLines:
		return retryUploadRow[models.OutOfStockLine, *models.OutOfStockLine](e, ctx, op.TableID, entity, op.EntityID)
	default:
		return apperr.Newf(apperr.KindValidation, "table %q does not upload", op.TableID)
	}
}

func retryUploadRow[T any, PT interface {
	*T
	models.LocalKeyed
	models.ServerKeySettable
	models.SyncStamped
}](e *Engine, ctx context.Context, table models.SyncTable, entity string, localID int64) error {
	var row T
	err := e.db.DB.First(&row, localID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		// Deleted locally since the failure; drop the entry.
		return nil
	}
	if err != nil {
		return apperr.ClassifyDatabase("load row for retry", err)
	}
	if PT(&row).ServerKey() != models.ServerKeyUnassigned {
		// A later cycle already uploaded it.
		return nil
	}
	return e.uploadOne(ctx, table, entity, PT(&row))
}
