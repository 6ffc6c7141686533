package models

import (
	"time"

	"gorm.io/datatypes"
)

// SyncTable identifies a syncable table. The declaration order below is the
// dependency order of a full sync pass: reference data before transactional
// data, so joined read views resolve server keys once dependents arrive.
type SyncTable string

const (
	TableUnits      SyncTable = "units"
	TableCategories SyncTable = "categories"
	TableBrands     SyncTable = "brands"
	TableRoutes     SyncTable = "sales_routes"
	TableUsers      SyncTable = "user_accounts"
	TableProducts   SyncTable = "products"
	TableCustomers  SyncTable = "customers"
	TableOrders     SyncTable = "orders"
	TableOrderLines SyncTable = "order_lines"
	TableOOSMasters SyncTable = "out_of_stock_masters"
	TableOOSLines   SyncTable = "out_of_stock_lines"
)

// SyncOrder is the fixed table order of a full sync cycle.
var SyncOrder = []SyncTable{
	TableUnits,
	TableCategories,
	TableBrands,
	TableRoutes,
	TableUsers,
	TableProducts,
	TableCustomers,
	TableOrders,
	TableOrderLines,
	TableOOSMasters,
	TableOOSLines,
}

// SyncWatermark marks how far the download pass for one table has
// progressed. LastUpdate carries the server's updated_date cursor verbatim.
// Read before a pass, written after a fully successful pass.
type SyncWatermark struct {
	LocalID    int64  `gorm:"column:local_id;primaryKey;autoIncrement" json:"-"`
	TableName  string `gorm:"uniqueIndex" json:"table_name"`
	LastUpdate string `json:"last_update"`

	UpdatedAt time.Time `json:"updated_at"`
}

// FailedOperation is one durable retry entry: a record whose merge or upload
// failed while the rest of its batch succeeded. Replayed by the engine's
// retry pass via the single-id download form; deleted once the retry
// succeeds. Not deduplicated implicitly - callers check existence first when
// they need idempotent recording.
type FailedOperation struct {
	LocalID   int64          `gorm:"column:local_id;primaryKey;autoIncrement" json:"-"`
	TableID   SyncTable      `gorm:"column:table_id;index" json:"table_id"`
	EntityID  int64          `gorm:"index" json:"entity_id"`
	Operation string         `json:"operation"` // download | upload
	Reason    string         `json:"reason"`
	Payload   datatypes.JSON `json:"payload,omitempty"` // snapshot of the record that failed, when available
	CreatedAt time.Time      `json:"created_at"`
}

func (FailedOperation) TableName() string { return "failed_operations" }
