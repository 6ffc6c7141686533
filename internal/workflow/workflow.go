package workflow

import (
	"errors"
	"log"

	"gorm.io/gorm"

	"github.com/xelth-com/fieldopsgo/internal/apperr"
	"github.com/xelth-com/fieldopsgo/internal/database"
	"github.com/xelth-com/fieldopsgo/internal/models"
)

// Notifier receives workflow events; the websocket hub implements it.
type Notifier interface {
	Broadcast(event string, payload interface{})
}

// Workflow executes fulfillment transitions against the local store. Every
// transition re-reads the current status inside the transaction that writes
// it, so two roles racing the same line serialize on the store and the
// loser fails its guard instead of double-applying.
type Workflow struct {
	db       *database.DB
	notifier Notifier
}

func New(db *database.DB, notifier Notifier) *Workflow {
	return &Workflow{db: db, notifier: notifier}
}

func (w *Workflow) emit(event string, payload interface{}) {
	if w.notifier != nil {
		w.notifier.Broadcast(event, payload)
	}
}

func loadLine(tx *gorm.DB, lineID int64) (*models.OutOfStockLine, error) {
	var line models.OutOfStockLine
	err := tx.First(&line, lineID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperr.Newf(apperr.KindValidation, "shortage line %d not found", lineID)
	}
	if err != nil {
		return nil, apperr.ClassifyDatabase("load shortage line", err)
	}
	return &line, nil
}

func loadMasterForLine(tx *gorm.DB, line *models.OutOfStockLine) (*models.OutOfStockMaster, error) {
	var master models.OutOfStockMaster
	err := tx.Where("server_id = ?", line.MasterID).First(&master).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperr.Newf(apperr.KindValidation, "shortage master %d not found for line %d", line.MasterID, line.LocalID)
	}
	if err != nil {
		return nil, apperr.ClassifyDatabase("load shortage master", err)
	}
	return &master, nil
}

// AssignSupplier points a line at a supplier. Legal from Unresolved and
// from PartiallyOrNotAvailable, so a rejected line can be retried with a
// different supplier. The status itself does not move.
func (w *Workflow) AssignSupplier(lineID, supplierID int64, role models.Role) error {
	if supplierID <= 0 {
		return apperr.New(apperr.KindValidation, "supplier id required")
	}
	err := w.db.DB.Transaction(func(tx *gorm.DB) error {
		line, err := loadLine(tx, lineID)
		if err != nil {
			return err
		}
		if err := Check(line.Status, ActionAssignSupplier, role); err != nil {
			return err
		}
		line.AssignedSupplierID = supplierID
		if err := tx.Save(line).Error; err != nil {
			return apperr.ClassifyDatabase("assign supplier", err)
		}
		return nil
	})
	if err != nil {
		return err
	}
	w.emit("shortage_updated", map[string]interface{}{"line_id": lineID, "action": ActionAssignSupplier})
	return nil
}

// SendToSupplier moves a line from Unresolved to AwaitingSupplierResponse.
// A supplier must already be assigned.
func (w *Workflow) SendToSupplier(lineID int64, role models.Role) error {
	err := w.db.DB.Transaction(func(tx *gorm.DB) error {
		line, err := loadLine(tx, lineID)
		if err != nil {
			return err
		}
		if err := Check(line.Status, ActionSendToSupplier, role); err != nil {
			return err
		}
		if line.AssignedSupplierID == models.ServerKeyUnassigned {
			return apperr.New(apperr.KindValidation, "cannot send to supplier: no supplier assigned")
		}
		line.Status = models.StatusAwaitingSupplierResponse
		if err := tx.Save(line).Error; err != nil {
			return apperr.ClassifyDatabase("send to supplier", err)
		}

		master, err := loadMasterForLine(tx, line)
		if err != nil {
			return err
		}
		if master.Status == models.StatusUnresolved {
			master.Status = models.StatusAwaitingSupplierResponse
			if err := tx.Save(master).Error; err != nil {
				return apperr.ClassifyDatabase("advance master status", err)
			}
		}
		return nil
	})
	if err != nil {
		return err
	}
	w.emit("shortage_updated", map[string]interface{}{"line_id": lineID, "action": ActionSendToSupplier})
	return nil
}

// SupplierRespond records a supplier's answer. A full offer moves the line
// to Available. Anything less moves it to PartiallyOrNotAvailable with the
// offered quantity clamped strictly below the requested quantity, so a
// "partial" line can never claim full coverage.
func (w *Workflow) SupplierRespond(lineID int64, role models.Role, available bool, qty float64) error {
	if qty < 0 {
		return apperr.New(apperr.KindValidation, "offered quantity cannot be negative")
	}
	err := w.db.DB.Transaction(func(tx *gorm.DB) error {
		line, err := loadLine(tx, lineID)
		if err != nil {
			return err
		}
		if err := Check(line.Status, ActionSupplierRespond, role); err != nil {
			return err
		}
		master, err := loadMasterForLine(tx, line)
		if err != nil {
			return err
		}

		if available && qty >= master.RequestedQty {
			line.Status = models.StatusAvailable
			line.AvailableQty = qty
		} else {
			line.Status = models.StatusPartiallyOrNotAvailable
			if qty >= master.RequestedQty {
				qty = master.RequestedQty - 1
			}
			line.AvailableQty = qty
		}
		line.IsChecked = 1
		if err := tx.Save(line).Error; err != nil {
			return apperr.ClassifyDatabase("record supplier response", err)
		}
		_, err = w.tryComplete(tx, master)
		return err
	})
	if err != nil {
		return err
	}
	w.emit("shortage_updated", map[string]interface{}{"line_id": lineID, "action": ActionSupplierRespond})
	return nil
}

// AdminAccept takes the offered partial quantity as final.
func (w *Workflow) AdminAccept(lineID int64, role models.Role) error {
	err := w.db.DB.Transaction(func(tx *gorm.DB) error {
		line, err := loadLine(tx, lineID)
		if err != nil {
			return err
		}
		if err := Check(line.Status, ActionAdminAccept, role); err != nil {
			return err
		}
		line.Status = models.StatusAvailable
		if err := tx.Save(line).Error; err != nil {
			return apperr.ClassifyDatabase("accept partial offer", err)
		}
		master, err := loadMasterForLine(tx, line)
		if err != nil {
			return err
		}
		_, err = w.tryComplete(tx, master)
		return err
	})
	if err != nil {
		return err
	}
	w.emit("shortage_updated", map[string]interface{}{"line_id": lineID, "action": ActionAdminAccept})
	return nil
}

// AdminReject refuses a partial offer. A line with something on the table
// cycles back to Unresolved for re-assignment; a line with nothing offered
// falls through to the not-available path.
func (w *Workflow) AdminReject(lineID int64, role models.Role) error {
	var notAvailable bool
	err := w.db.DB.Transaction(func(tx *gorm.DB) error {
		line, err := loadLine(tx, lineID)
		if err != nil {
			return err
		}
		if err := Check(line.Status, ActionAdminReject, role); err != nil {
			return err
		}
		if line.AvailableQty > 0 {
			line.Status = models.StatusUnresolved
			line.AvailableQty = 0
			line.IsChecked = 0
			if err := tx.Save(line).Error; err != nil {
				return apperr.ClassifyDatabase("reject partial offer", err)
			}
			return nil
		}
		notAvailable = true
		return w.markNotAvailable(tx, line)
	})
	if err != nil {
		return err
	}
	action := ActionAdminReject
	if notAvailable {
		action = ActionMarkNotAvailable
	}
	w.emit("shortage_updated", map[string]interface{}{"line_id": lineID, "action": action})
	return nil
}

// AdminMarkNotAvailable closes a line as unfulfillable.
func (w *Workflow) AdminMarkNotAvailable(lineID int64, role models.Role) error {
	err := w.db.DB.Transaction(func(tx *gorm.DB) error {
		line, err := loadLine(tx, lineID)
		if err != nil {
			return err
		}
		if err := Check(line.Status, ActionMarkNotAvailable, role); err != nil {
			return err
		}
		return w.markNotAvailable(tx, line)
	})
	if err != nil {
		return err
	}
	w.emit("shortage_updated", map[string]interface{}{"line_id": lineID, "action": ActionMarkNotAvailable})
	return nil
}

// markNotAvailable records the rejection and re-evaluates the master. The
// caller holds the transaction and has already validated the transition.
func (w *Workflow) markNotAvailable(tx *gorm.DB, line *models.OutOfStockLine) error {
	line.Status = models.StatusPartiallyOrNotAvailable
	line.AvailableQty = 0
	line.IsChecked = 1
	if err := tx.Save(line).Error; err != nil {
		return apperr.ClassifyDatabase("mark not available", err)
	}
	master, err := loadMasterForLine(tx, line)
	if err != nil {
		return err
	}
	_, err = w.tryComplete(tx, master)
	return err
}

// CancelLine abandons a line from any non-terminal state.
func (w *Workflow) CancelLine(lineID int64, role models.Role) error {
	err := w.db.DB.Transaction(func(tx *gorm.DB) error {
		line, err := loadLine(tx, lineID)
		if err != nil {
			return err
		}
		if err := Check(line.Status, ActionCancel, role); err != nil {
			return err
		}
		line.Status = models.StatusCancelled
		if err := tx.Save(line).Error; err != nil {
			return apperr.ClassifyDatabase("cancel shortage line", err)
		}
		master, err := loadMasterForLine(tx, line)
		if err != nil {
			return err
		}
		_, err = w.tryComplete(tx, master)
		return err
	})
	if err != nil {
		return err
	}
	w.emit("shortage_updated", map[string]interface{}{"line_id": lineID, "action": ActionCancel})
	return nil
}

// Complete runs the aggregate guard explicitly. It fails with an invalid
// transition when any line is still Unresolved or awaiting a supplier.
func (w *Workflow) Complete(masterLocalID int64, role models.Role) error {
	if role != models.RoleAdmin {
		return apperr.Newf(apperr.KindValidation, "role %q may not complete a shortage", role)
	}
	return w.db.DB.Transaction(func(tx *gorm.DB) error {
		var master models.OutOfStockMaster
		err := tx.First(&master, masterLocalID).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperr.Newf(apperr.KindValidation, "shortage master %d not found", masterLocalID)
		}
		if err != nil {
			return apperr.ClassifyDatabase("load shortage master", err)
		}
		resolved, err := w.tryComplete(tx, &master)
		if err != nil {
			return err
		}
		if !resolved {
			return apperr.InvalidTransition("complete", master.Status)
		}
		return nil
	})
}

// MarkViewed flags a shortage report as seen by the admin.
func (w *Workflow) MarkViewed(masterLocalID int64) error {
	err := w.db.DB.Model(&models.OutOfStockMaster{}).
		Where("local_id = ?", masterLocalID).
		Update("is_viewed", 1).Error
	if err != nil {
		return apperr.ClassifyDatabase("mark shortage viewed", err)
	}
	return nil
}

// tryComplete re-evaluates the aggregate guard after a per-line transition.
// The master moves to Resolved only when every line has reached a terminal
// state; the guard is always recomputed from the store, never cached. When
// the master originates from an order line, resolution informs the salesman
// first.
func (w *Workflow) tryComplete(tx *gorm.DB, master *models.OutOfStockMaster) (bool, error) {
	if master.Status == models.StatusResolved || master.Status == models.StatusCancelled {
		return false, nil
	}
	if master.ServerID == models.ServerKeyUnassigned {
		// Lines join on the master's server key; before the first upload
		// there is nothing to aggregate.
		return false, nil
	}
	var lines []models.OutOfStockLine
	if err := tx.Where("master_id = ?", master.ServerID).Find(&lines).Error; err != nil {
		return false, apperr.ClassifyDatabase("load shortage lines", err)
	}
	if len(lines) == 0 {
		return false, nil
	}
	for _, line := range lines {
		if !models.TerminalLineStatus(line.Status) {
			return false, nil
		}
	}

	if master.OrderLineID != models.ServerKeyUnassigned {
		if err := w.informSalesman(tx, master, lines); err != nil {
			return false, err
		}
	}
	master.Status = models.StatusResolved
	if err := tx.Save(master).Error; err != nil {
		return false, apperr.ClassifyDatabase("resolve shortage", err)
	}
	log.Printf("✅ Shortage %d resolved (%d lines)", master.LocalID, len(lines))
	return true, nil
}

// informSalesman writes the negotiated outcome back onto the originating
// order line so the salesman sees what can actually ship.
func (w *Workflow) informSalesman(tx *gorm.DB, master *models.OutOfStockMaster, lines []models.OutOfStockLine) error {
	var total float64
	for _, line := range lines {
		if line.Status == models.StatusAvailable || line.Status == models.StatusPartiallyOrNotAvailable {
			total += line.AvailableQty
		}
	}

	var orderLine models.OrderLine
	err := tx.Where("server_id = ?", master.OrderLineID).First(&orderLine).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		// The order line has not reached this device yet; resolution
		// still proceeds, the next sync carries the server's view.
		log.Printf("⚠️ Shortage %d: originating order line %d not in local store", master.LocalID, master.OrderLineID)
		return nil
	}
	if err != nil {
		return apperr.ClassifyDatabase("load originating order line", err)
	}
	orderLine.AvailableQty = total
	orderLine.IsChecked = 1
	if err := tx.Save(&orderLine).Error; err != nil {
		return apperr.ClassifyDatabase("inform salesman", err)
	}
	w.emit("salesman_informed", map[string]interface{}{
		"order_line_id": master.OrderLineID,
		"available_qty": total,
	})
	return nil
}
