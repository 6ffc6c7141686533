package repo

import (
	"errors"
	"time"

	"github.com/xelth-com/fieldopsgo/internal/apperr"
	"github.com/xelth-com/fieldopsgo/internal/models"
	"gorm.io/gorm"
)

// Watermark reads the last-sync cursor for a table. A table that was never
// synced returns the empty cursor, which the API treats as "from the
// beginning".
func Watermark(tx *gorm.DB, table models.SyncTable) (string, error) {
	var wm models.SyncWatermark
	err := tx.Where("table_name = ?", string(table)).First(&wm).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", nil
	}
	if err != nil {
		return "", apperr.ClassifyDatabase("watermark read", err)
	}
	return wm.LastUpdate, nil
}

// AdvanceWatermark persists the cursor after a fully successful pass.
// The sync engine is the only caller; passes for the same table never run
// concurrently.
func AdvanceWatermark(tx *gorm.DB, table models.SyncTable, cursor string) error {
	wm := models.SyncWatermark{
		TableName:  string(table),
		LastUpdate: cursor,
		UpdatedAt:  time.Now().UTC(),
	}
	err := tx.Where("table_name = ?", string(table)).
		Assign(map[string]interface{}{"last_update": cursor, "updated_at": wm.UpdatedAt}).
		FirstOrCreate(&wm).Error
	if err != nil {
		return apperr.ClassifyDatabase("watermark write", err)
	}
	return nil
}
