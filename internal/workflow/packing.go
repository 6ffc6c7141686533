package workflow

import (
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/xelth-com/fieldopsgo/internal/apperr"
	"github.com/xelth-com/fieldopsgo/internal/models"
)

// Packing is the storekeeper's side channel: it never transitions the
// workflow, it only records which shortage lines have been physically
// packed. Existence of a ledger row means "packed"; unpacking deletes it.

// Pack records a shortage line as packed. Packing twice is rejected so two
// storekeepers cannot both claim the same line.
func (w *Workflow) Pack(lineID, packedBy int64, qty float64) error {
	if qty <= 0 {
		return apperr.New(apperr.KindValidation, "packed quantity must be positive")
	}
	return w.db.DB.Transaction(func(tx *gorm.DB) error {
		var existing models.PackingEntry
		err := tx.Where("line_id = ?", lineID).First(&existing).Error
		if err == nil {
			return apperr.Newf(apperr.KindValidation, "line %d is already packed", lineID)
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return apperr.ClassifyDatabase("packing lookup", err)
		}
		entry := models.PackingEntry{
			LineID:    lineID,
			PackedQty: qty,
			PackedBy:  packedBy,
			CreatedAt: time.Now().UTC(),
		}
		if err := tx.Create(&entry).Error; err != nil {
			return apperr.ClassifyDatabase("record packing", err)
		}
		return nil
	})
}

// Unpack removes the ledger row for a line. Unpacking a line that was never
// packed is a no-op.
func (w *Workflow) Unpack(lineID int64) error {
	err := w.db.DB.Where("line_id = ?", lineID).Delete(&models.PackingEntry{}).Error
	if err != nil {
		return apperr.ClassifyDatabase("remove packing", err)
	}
	return nil
}

// IsPacked reports whether a ledger row exists for the line.
func (w *Workflow) IsPacked(lineID int64) (bool, error) {
	var count int64
	err := w.db.DB.Model(&models.PackingEntry{}).Where("line_id = ?", lineID).Count(&count).Error
	if err != nil {
		return false, apperr.ClassifyDatabase("packing lookup", err)
	}
	return count > 0, nil
}

// PackedEntries lists the ledger rows for a set of lines, keyed by line id.
func (w *Workflow) PackedEntries(lineIDs []int64) (map[int64]models.PackingEntry, error) {
	var entries []models.PackingEntry
	if err := w.db.DB.Where("line_id IN ?", lineIDs).Find(&entries).Error; err != nil {
		return nil, apperr.ClassifyDatabase("packing list", err)
	}
	byLine := make(map[int64]models.PackingEntry, len(entries))
	for _, e := range entries {
		byLine[e.LineID] = e
	}
	return byLine, nil
}
