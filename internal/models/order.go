package models

import (
	"time"
)

// OrderStatus defines possible order statuses.
type OrderStatus string

const (
	OrderStatusPending   OrderStatus = "pending"   // taken in the field, not fulfilled
	OrderStatusCompleted OrderStatus = "completed" // every line delivered or resolved
	OrderStatusCancelled OrderStatus = "cancelled"
)

// Order is a sales order taken in the field. CustomerID and SalesmanID hold
// server keys. An order completes only after every shortage reported against
// its lines has reached a terminal state.
type Order struct {
	LocalID     int64       `gorm:"column:local_id;primaryKey;autoIncrement" json:"-"`
	ServerID    int64       `gorm:"column:server_id;index;default:-1" json:"id"`
	OrderNumber string      `gorm:"index" json:"order_no"`
	CustomerID  int64       `gorm:"index;default:-1" json:"customer_id"`
	SalesmanID  int64       `gorm:"default:-1" json:"salesman_id"`
	OrderDate   string      `json:"order_date"`
	Status      OrderStatus `gorm:"default:pending;index" json:"order_status"`
	TotalAmount float64     `json:"total_amount"`

	LastSyncedAt time.Time `json:"-"`
}

func (Order) TableName() string { return "orders" }

// OrderLine is one product position of an order. AvailableQty and IsChecked
// are written back by the fulfillment workflow when a shortage against this
// line resolves (the informSalesman side effect).
type OrderLine struct {
	LocalID      int64   `gorm:"column:local_id;primaryKey;autoIncrement" json:"-"`
	ServerID     int64   `gorm:"column:server_id;index;default:-1" json:"id"`
	OrderID      int64   `gorm:"index;default:-1" json:"order_id"`
	ProductID    int64   `gorm:"index;default:-1" json:"product_id"`
	Qty          float64 `json:"qty"`
	UnitPrice    float64 `json:"unit_price"`
	AvailableQty float64 `json:"available_qty"`
	IsChecked    int     `gorm:"default:0" json:"is_checked"`

	LastSyncedAt time.Time `json:"-"`
}

func (OrderLine) TableName() string { return "order_lines" }
