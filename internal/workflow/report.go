package workflow

import (
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/xelth-com/fieldopsgo/internal/apperr"
	"github.com/xelth-com/fieldopsgo/internal/models"
)

// ReportShortage opens a shortage report for a product. orderLineID is the
// server key of the originating order line, or the unassigned sentinel for
// an ad hoc report. The master is born locally and uploads on the next
// sync cycle.
func (w *Workflow) ReportShortage(orderLineID, productID int64, qty float64, reportedBy int64) (int64, error) {
	if productID <= 0 {
		return 0, apperr.New(apperr.KindValidation, "product id required")
	}
	if qty <= 0 {
		return 0, apperr.New(apperr.KindValidation, "requested quantity must be positive")
	}
	master := models.OutOfStockMaster{
		ServerID:           models.ServerKeyUnassigned,
		OrderLineID:        orderLineID,
		ProductID:          productID,
		RequestedQty:       qty,
		Status:             models.StatusUnresolved,
		AssignedSupplierID: models.ServerKeyUnassigned,
		ReportedBy:         reportedBy,
		ReportedDate:       time.Now().UTC().Format("2006-01-02 15:04:05"),
	}
	if err := w.db.DB.Create(&master).Error; err != nil {
		return 0, apperr.ClassifyDatabase("report shortage", err)
	}
	w.emit("shortage_reported", map[string]interface{}{
		"master_id":  master.LocalID,
		"product_id": productID,
	})
	return master.LocalID, nil
}

// AddLine opens a supplier-facing line under a master. The master must have
// synced at least once: lines join on its server key.
func (w *Workflow) AddLine(masterLocalID int64, role models.Role) (int64, error) {
	if role != models.RoleAdmin {
		return 0, apperr.Newf(apperr.KindValidation, "role %q may not add shortage lines", role)
	}
	var lineID int64
	err := w.db.DB.Transaction(func(tx *gorm.DB) error {
		var master models.OutOfStockMaster
		err := tx.First(&master, masterLocalID).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperr.Newf(apperr.KindValidation, "shortage master %d not found", masterLocalID)
		}
		if err != nil {
			return apperr.ClassifyDatabase("load shortage master", err)
		}
		if master.ServerID == models.ServerKeyUnassigned {
			return apperr.New(apperr.KindValidation, "shortage has not synced yet; lines need the master's server id")
		}
		if master.Status == models.StatusResolved || master.Status == models.StatusCancelled {
			return apperr.InvalidTransition("add_line", master.Status)
		}
		line := models.OutOfStockLine{
			ServerID:           models.ServerKeyUnassigned,
			MasterID:           master.ServerID,
			AssignedSupplierID: models.ServerKeyUnassigned,
			Status:             models.StatusUnresolved,
		}
		if err := tx.Create(&line).Error; err != nil {
			return apperr.ClassifyDatabase("add shortage line", err)
		}
		lineID = line.LocalID
		return nil
	})
	if err != nil {
		return 0, err
	}
	return lineID, nil
}
