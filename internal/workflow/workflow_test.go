package workflow

import (
	"path/filepath"
	"testing"

	"github.com/xelth-com/fieldopsgo/internal/apperr"
	"github.com/xelth-com/fieldopsgo/internal/config"
	"github.com/xelth-com/fieldopsgo/internal/database"
	"github.com/xelth-com/fieldopsgo/internal/models"
)

func newTestWorkflow(t *testing.T) (*Workflow, *database.DB) {
	t.Helper()
	db, err := database.Open(config.DatabaseConfig{Path: filepath.Join(t.TempDir(), "store.db")})
	if err != nil {
		t.Fatalf("Failed to open store: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return New(db, nil), db
}

// seedShortage creates a synced master with n lines and returns the master
// and the line local ids.
func seedShortage(t *testing.T, db *database.DB, requestedQty float64, lineStatuses ...int) (*models.OutOfStockMaster, []int64) {
	t.Helper()
	master := models.OutOfStockMaster{
		ServerID:           100,
		OrderLineID:        models.ServerKeyUnassigned,
		ProductID:          1,
		RequestedQty:       requestedQty,
		Status:             models.StatusUnresolved,
		AssignedSupplierID: models.ServerKeyUnassigned,
	}
	if err := db.DB.Create(&master).Error; err != nil {
		t.Fatalf("Failed to seed master: %v", err)
	}
	lineIDs := make([]int64, 0, len(lineStatuses))
	for i, status := range lineStatuses {
		line := models.OutOfStockLine{
			ServerID:           int64(200 + i),
			MasterID:           master.ServerID,
			AssignedSupplierID: 9,
			Status:             status,
		}
		if err := db.DB.Create(&line).Error; err != nil {
			t.Fatalf("Failed to seed line: %v", err)
		}
		lineIDs = append(lineIDs, line.LocalID)
	}
	return &master, lineIDs
}

func lineStatus(t *testing.T, db *database.DB, lineID int64) models.OutOfStockLine {
	t.Helper()
	var line models.OutOfStockLine
	if err := db.DB.First(&line, lineID).Error; err != nil {
		t.Fatalf("Failed to reload line: %v", err)
	}
	return line
}

func TestTransitionTableLegality(t *testing.T) {
	cases := []struct {
		name   string
		status int
		action Action
		role   models.Role
		legal  bool
	}{
		{"assign from unresolved", models.StatusUnresolved, ActionAssignSupplier, models.RoleAdmin, true},
		{"assign after rejection", models.StatusPartiallyOrNotAvailable, ActionAssignSupplier, models.RoleAdmin, true},
		{"assign while awaiting", models.StatusAwaitingSupplierResponse, ActionAssignSupplier, models.RoleAdmin, false},
		{"send from unresolved", models.StatusUnresolved, ActionSendToSupplier, models.RoleAdmin, true},
		{"send twice", models.StatusAwaitingSupplierResponse, ActionSendToSupplier, models.RoleAdmin, false},
		{"respond while awaiting", models.StatusAwaitingSupplierResponse, ActionSupplierRespond, models.RoleSupplier, true},
		{"respond before send", models.StatusUnresolved, ActionSupplierRespond, models.RoleSupplier, false},
		{"accept partial", models.StatusPartiallyOrNotAvailable, ActionAdminAccept, models.RoleAdmin, true},
		{"accept available", models.StatusAvailable, ActionAdminAccept, models.RoleAdmin, false},
		{"cancel awaiting", models.StatusAwaitingSupplierResponse, ActionCancel, models.RoleAdmin, true},
		{"cancel available", models.StatusAvailable, ActionCancel, models.RoleAdmin, false},
		{"cancel cancelled", models.StatusCancelled, ActionCancel, models.RoleAdmin, false},
	}
	for _, tc := range cases {
		err := Check(tc.status, tc.action, tc.role)
		if tc.legal && err != nil {
			t.Errorf("%s: expected legal, got %v", tc.name, err)
		}
		if !tc.legal && !apperr.IsInvalidTransition(err) {
			t.Errorf("%s: expected InvalidTransition, got %v", tc.name, err)
		}
	}
}

func TestTransitionTableRoleGating(t *testing.T) {
	// Wrong roles are rejected even from a legal source state.
	wrongRole := []struct {
		status int
		action Action
		role   models.Role
	}{
		{models.StatusUnresolved, ActionAssignSupplier, models.RoleSupplier},
		{models.StatusUnresolved, ActionAssignSupplier, models.RoleSalesman},
		{models.StatusAwaitingSupplierResponse, ActionSupplierRespond, models.RoleAdmin},
		{models.StatusPartiallyOrNotAvailable, ActionAdminAccept, models.RoleSupplier},
		{models.StatusUnresolved, ActionSendToSupplier, models.RoleStorekeeper},
		{models.StatusUnresolved, ActionCancel, models.RoleStorekeeper},
	}
	for _, tc := range wrongRole {
		err := Check(tc.status, tc.action, tc.role)
		if err == nil {
			t.Errorf("Role %q must not perform %q", tc.role, tc.action)
		}
		if apperr.IsInvalidTransition(err) {
			t.Errorf("Role rejection should not read as a state error: %v", err)
		}
	}
}

func TestIllegalTransitionLeavesStatusUnchanged(t *testing.T) {
	wf, db := newTestWorkflow(t)
	_, lines := seedShortage(t, db, 10, models.StatusAwaitingSupplierResponse)

	err := wf.SendToSupplier(lines[0], models.RoleAdmin)
	if !apperr.IsInvalidTransition(err) {
		t.Fatalf("Expected InvalidTransition, got %v", err)
	}
	if got := lineStatus(t, db, lines[0]); got.Status != models.StatusAwaitingSupplierResponse {
		t.Errorf("Rejected transition must not change status, got %d", got.Status)
	}
}

func TestSendToSupplierRequiresAssignment(t *testing.T) {
	wf, db := newTestWorkflow(t)
	_, lines := seedShortage(t, db, 10, models.StatusUnresolved)
	if err := db.DB.Model(&models.OutOfStockLine{}).Where("local_id = ?", lines[0]).
		Update("assigned_supplier_id", models.ServerKeyUnassigned).Error; err != nil {
		t.Fatalf("Failed to unassign supplier: %v", err)
	}

	err := wf.SendToSupplier(lines[0], models.RoleAdmin)
	if err == nil {
		t.Fatal("Sending without an assigned supplier must fail")
	}
	if got := lineStatus(t, db, lines[0]); got.Status != models.StatusUnresolved {
		t.Errorf("Status must stay Unresolved, got %d", got.Status)
	}
}

func TestSupplierRespondFullAvailability(t *testing.T) {
	wf, db := newTestWorkflow(t)
	_, lines := seedShortage(t, db, 10, models.StatusAwaitingSupplierResponse)

	if err := wf.SupplierRespond(lines[0], models.RoleSupplier, true, 12); err != nil {
		t.Fatalf("Respond failed: %v", err)
	}
	got := lineStatus(t, db, lines[0])
	if got.Status != models.StatusAvailable {
		t.Errorf("Full offer should move to Available, got %d", got.Status)
	}
	if got.AvailableQty != 12 {
		t.Errorf("Offered quantity should be stored, got %v", got.AvailableQty)
	}
	if got.IsChecked != 1 {
		t.Error("Responding must set is_checked")
	}
}

// A "not fully available" response claiming the full quantity is clamped
// strictly below the requested amount.
func TestSupplierRespondClamp(t *testing.T) {
	wf, db := newTestWorkflow(t)
	_, lines := seedShortage(t, db, 10, models.StatusAwaitingSupplierResponse)

	if err := wf.SupplierRespond(lines[0], models.RoleSupplier, false, 10); err != nil {
		t.Fatalf("Respond failed: %v", err)
	}
	got := lineStatus(t, db, lines[0])
	if got.Status != models.StatusPartiallyOrNotAvailable {
		t.Errorf("Partial offer should move to PartiallyOrNotAvailable, got %d", got.Status)
	}
	if got.AvailableQty != 9 {
		t.Errorf("Quantity must clamp to requested-1 (9), got %v", got.AvailableQty)
	}
}

func TestAdminRejectCyclesBack(t *testing.T) {
	wf, db := newTestWorkflow(t)
	_, lines := seedShortage(t, db, 10, models.StatusPartiallyOrNotAvailable)
	if err := db.DB.Model(&models.OutOfStockLine{}).Where("local_id = ?", lines[0]).
		Updates(map[string]interface{}{"available_qty": 4, "is_checked": 1}).Error; err != nil {
		t.Fatalf("Failed to seed offer: %v", err)
	}

	if err := wf.AdminReject(lines[0], models.RoleAdmin); err != nil {
		t.Fatalf("Reject failed: %v", err)
	}
	got := lineStatus(t, db, lines[0])
	if got.Status != models.StatusUnresolved {
		t.Errorf("Rejecting a partial offer should cycle back to Unresolved, got %d", got.Status)
	}
	if got.AvailableQty != 0 || got.IsChecked != 0 {
		t.Errorf("Cycle back should reset the offer, got qty=%v checked=%d", got.AvailableQty, got.IsChecked)
	}
	// The supplier assignment survives so the admin can retry or reassign.
	if got.AssignedSupplierID != 9 {
		t.Errorf("Assignment should survive a reject, got %d", got.AssignedSupplierID)
	}
}

// The aggregate guard: a master with one line still awaiting a supplier
// must refuse to resolve.
func TestCompleteRejectsWithPendingLine(t *testing.T) {
	wf, db := newTestWorkflow(t)
	master, _ := seedShortage(t, db, 10,
		models.StatusAvailable,
		models.StatusAwaitingSupplierResponse,
	)

	err := wf.Complete(master.LocalID, models.RoleAdmin)
	if !apperr.IsInvalidTransition(err) {
		t.Fatalf("Expected InvalidTransition while a line is pending, got %v", err)
	}

	var reloaded models.OutOfStockMaster
	if err := db.DB.First(&reloaded, master.LocalID).Error; err != nil {
		t.Fatalf("Failed to reload master: %v", err)
	}
	if reloaded.Status == models.StatusResolved {
		t.Error("Master must not resolve while a line is pending")
	}
}

// Once the last pending line reaches a terminal state the master resolves
// automatically, without an explicit Complete call.
func TestResolutionAfterLastLineTerminal(t *testing.T) {
	wf, db := newTestWorkflow(t)
	master, lines := seedShortage(t, db, 10,
		models.StatusAvailable,
		models.StatusAwaitingSupplierResponse,
	)

	if err := wf.SupplierRespond(lines[1], models.RoleSupplier, true, 10); err != nil {
		t.Fatalf("Respond failed: %v", err)
	}

	var reloaded models.OutOfStockMaster
	if err := db.DB.First(&reloaded, master.LocalID).Error; err != nil {
		t.Fatalf("Failed to reload master: %v", err)
	}
	if reloaded.Status != models.StatusResolved {
		t.Errorf("Master should auto-resolve once all lines are terminal, got %d", reloaded.Status)
	}
}

// Resolution of an order-linked shortage writes the negotiated quantity
// back onto the originating order line.
func TestResolutionInformsSalesman(t *testing.T) {
	wf, db := newTestWorkflow(t)

	orderLine := models.OrderLine{ServerID: 77, OrderID: 1, ProductID: 1, Qty: 24}
	if err := db.DB.Create(&orderLine).Error; err != nil {
		t.Fatalf("Failed to seed order line: %v", err)
	}

	master, lines := seedShortage(t, db, 24, models.StatusAwaitingSupplierResponse)
	if err := db.DB.Model(&models.OutOfStockMaster{}).Where("local_id = ?", master.LocalID).
		Update("order_line_id", int64(77)).Error; err != nil {
		t.Fatalf("Failed to link order line: %v", err)
	}

	if err := wf.SupplierRespond(lines[0], models.RoleSupplier, false, 16); err != nil {
		t.Fatalf("Respond failed: %v", err)
	}

	var reloaded models.OrderLine
	if err := db.DB.First(&reloaded, orderLine.LocalID).Error; err != nil {
		t.Fatalf("Failed to reload order line: %v", err)
	}
	if reloaded.AvailableQty != 16 {
		t.Errorf("Order line should carry the negotiated quantity, got %v", reloaded.AvailableQty)
	}
	if reloaded.IsChecked != 1 {
		t.Error("Order line should be marked checked")
	}
}

func TestPackingLedger(t *testing.T) {
	wf, _ := newTestWorkflow(t)

	if err := wf.Pack(200, 3, 5); err != nil {
		t.Fatalf("Pack failed: %v", err)
	}
	packed, err := wf.IsPacked(200)
	if err != nil {
		t.Fatalf("IsPacked failed: %v", err)
	}
	if !packed {
		t.Error("Line should be packed")
	}

	// Double pack is rejected.
	if err := wf.Pack(200, 4, 5); err == nil {
		t.Error("Packing an already packed line must fail")
	}

	if err := wf.Unpack(200); err != nil {
		t.Fatalf("Unpack failed: %v", err)
	}
	packed, err = wf.IsPacked(200)
	if err != nil {
		t.Fatalf("IsPacked failed: %v", err)
	}
	if packed {
		t.Error("Line should be unpacked")
	}

	// Unpacking a never-packed line is a no-op.
	if err := wf.Unpack(999); err != nil {
		t.Errorf("Unpacking an unknown line should be a no-op, got %v", err)
	}
}
