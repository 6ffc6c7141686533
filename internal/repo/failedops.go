package repo

import (
	"time"

	"github.com/xelth-com/fieldopsgo/internal/apperr"
	"github.com/xelth-com/fieldopsgo/internal/models"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// FailedOps is the durable retry queue. It performs no network I/O itself;
// the sync engine's retry pass replays pending entries and clears them.
type FailedOps struct {
	db *gorm.DB
}

// NewFailedOps creates a tracker over the store.
func NewFailedOps(db *gorm.DB) *FailedOps {
	return &FailedOps{db: db}
}

// Record stores one failed (table, entity) pair. Recording is not
// deduplicated implicitly; use Exists first when idempotency matters.
func (f *FailedOps) Record(table models.SyncTable, entityID int64, operation, reason string, payload []byte) error {
	op := models.FailedOperation{
		TableID:   table,
		EntityID:  entityID,
		Operation: operation,
		Reason:    reason,
		CreatedAt: time.Now().UTC(),
	}
	if len(payload) > 0 {
		op.Payload = datatypes.JSON(payload)
	}
	if err := f.db.Create(&op).Error; err != nil {
		return apperr.ClassifyDatabase("failed-op record", err)
	}
	return nil
}

// Exists reports whether a pending entry for (table, entity, operation)
// is recorded. Downloads key on the server id and uploads on the local id,
// so the operation is part of the identity.
func (f *FailedOps) Exists(table models.SyncTable, entityID int64, operation string) (bool, error) {
	var count int64
	err := f.db.Model(&models.FailedOperation{}).
		Where("table_id = ? AND entity_id = ? AND operation = ?", string(table), entityID, operation).
		Count(&count).Error
	if err != nil {
		return false, apperr.ClassifyDatabase("failed-op lookup", err)
	}
	return count > 0, nil
}

// ListPending returns every recorded failure, oldest first.
func (f *FailedOps) ListPending() ([]models.FailedOperation, error) {
	var ops []models.FailedOperation
	if err := f.db.Order("local_id ASC").Find(&ops).Error; err != nil {
		return nil, apperr.ClassifyDatabase("failed-op list", err)
	}
	return ops, nil
}

// Clear deletes the entry for (table, entity, operation) once a retry
// succeeds.
func (f *FailedOps) Clear(table models.SyncTable, entityID int64, operation string) error {
	err := f.db.Where("table_id = ? AND entity_id = ? AND operation = ?", string(table), entityID, operation).
		Delete(&models.FailedOperation{}).Error
	if err != nil {
		return apperr.ClassifyDatabase("failed-op clear", err)
	}
	return nil
}

// CountPending returns the queue depth.
func (f *FailedOps) CountPending() (int64, error) {
	var count int64
	if err := f.db.Model(&models.FailedOperation{}).Count(&count).Error; err != nil {
		return 0, apperr.ClassifyDatabase("failed-op count", err)
	}
	return count, nil
}
