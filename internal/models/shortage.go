package models

import (
	"time"
)

// Shortage status codes. Master and line share the lattice; a line advances
// independently per supplier, the master aggregates.
//
//	0 Unresolved -> 1 AwaitingSupplierResponse -> {2 Available | 3 PartiallyOrNotAvailable}
//	5 Cancelled is reachable from any non-terminal state; 4 Resolved is
//	master-only, set by the aggregate completion check.
const (
	StatusUnresolved               = 0
	StatusAwaitingSupplierResponse = 1
	StatusAvailable                = 2
	StatusPartiallyOrNotAvailable  = 3
	StatusResolved                 = 4
	StatusCancelled                = 5
)

// TerminalLineStatus reports whether a line status feeds the master's
// completion check (no supplier action pending).
func TerminalLineStatus(status int) bool {
	return status == StatusAvailable || status == StatusPartiallyOrNotAvailable || status == StatusCancelled
}

// OutOfStockMaster is one shortage report, raised against an order line
// (OrderLineID holds the server key) or ad hoc (OrderLineID == -1).
type OutOfStockMaster struct {
	LocalID            int64   `gorm:"column:local_id;primaryKey;autoIncrement" json:"-"`
	ServerID           int64   `gorm:"column:server_id;index;default:-1" json:"id"`
	OrderLineID        int64   `gorm:"index;default:-1" json:"order_line_id"`
	ProductID          int64   `gorm:"index;default:-1" json:"product_id"`
	RequestedQty       float64 `json:"requested_qty"`
	Status             int     `gorm:"default:0;index" json:"oos_status"`
	AssignedSupplierID int64   `gorm:"default:-1" json:"assigned_supplier_id"`
	ReportedBy         int64   `gorm:"default:-1" json:"reported_by"`
	IsViewed           int     `gorm:"default:0" json:"is_viewed"`
	ReportedDate       string  `json:"reported_date"`

	LastSyncedAt time.Time `json:"-"`
}

func (OutOfStockMaster) TableName() string { return "out_of_stock_masters" }

// OutOfStockLine is one supplier-facing line under a master. IsPacked is not
// stored here: it is derived by joining the packing ledger.
type OutOfStockLine struct {
	LocalID            int64   `gorm:"column:local_id;primaryKey;autoIncrement" json:"-"`
	ServerID           int64   `gorm:"column:server_id;index;default:-1" json:"id"`
	MasterID           int64   `gorm:"index;default:-1" json:"oos_master_id"`
	AssignedSupplierID int64   `gorm:"default:-1" json:"assigned_supplier_id"`
	Status             int     `gorm:"default:0;index" json:"oos_status"`
	AvailableQty       float64 `json:"available_qty"`
	IsChecked          int     `gorm:"default:0" json:"is_checked"`

	LastSyncedAt time.Time `json:"-"`
}

func (OutOfStockLine) TableName() string { return "out_of_stock_lines" }

// PackingEntry is the storekeeper's local packing ledger. Existence of a row
// means "packed"; unpacking deletes the row. LineID holds the server key of
// the shortage line. Never synced.
type PackingEntry struct {
	LocalID   int64     `gorm:"column:local_id;primaryKey;autoIncrement" json:"-"`
	LineID    int64     `gorm:"uniqueIndex" json:"line_id"`
	PackedQty float64   `json:"packed_qty"`
	PackedBy  int64     `gorm:"default:-1" json:"packed_by"`
	CreatedAt time.Time `json:"created_at"`
}

func (PackingEntry) TableName() string { return "packing_entries" }
