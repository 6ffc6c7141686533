package models

import (
	"time"
)

// Unit is a unit of measure. Reference data, synced before products so that
// joined product views can resolve unit names offline.
type Unit struct {
	LocalID  int64  `gorm:"column:local_id;primaryKey;autoIncrement" json:"-"`
	ServerID int64  `gorm:"column:server_id;index;default:-1" json:"id"`
	Name     string `json:"unit_name"`

	LastSyncedAt time.Time `json:"-"`
}

func (Unit) TableName() string { return "units" }

// Category is a product category. Reference data.
type Category struct {
	LocalID  int64  `gorm:"column:local_id;primaryKey;autoIncrement" json:"-"`
	ServerID int64  `gorm:"column:server_id;index;default:-1" json:"id"`
	Name     string `json:"category_name"`

	LastSyncedAt time.Time `json:"-"`
}

func (Category) TableName() string { return "categories" }

// Brand is a product brand. Reference data.
type Brand struct {
	LocalID  int64  `gorm:"column:local_id;primaryKey;autoIncrement" json:"-"`
	ServerID int64  `gorm:"column:server_id;index;default:-1" json:"id"`
	Name     string `json:"brand_name"`

	LastSyncedAt time.Time `json:"-"`
}

func (Brand) TableName() string { return "brands" }

// Product is a sellable item. UnitID/CategoryID/BrandID hold the SERVER key
// of the referenced row (-1 when unset), never a local key.
type Product struct {
	LocalID       int64   `gorm:"column:local_id;primaryKey;autoIncrement" json:"-"`
	ServerID      int64   `gorm:"column:server_id;index;default:-1" json:"id"`
	Name          string  `gorm:"index" json:"product_name"`
	Code          string  `gorm:"index" json:"product_code"`
	Barcode       string  `json:"barcode"`
	UnitID        int64   `gorm:"default:-1" json:"unit_id"`
	CategoryID    int64   `gorm:"default:-1" json:"category_id"`
	BrandID       int64   `gorm:"default:-1" json:"brand_id"`
	SalePrice     float64 `json:"sale_price"`
	PurchasePrice float64 `json:"purchase_price"`
	StockQty      float64 `json:"stock_qty"`
	IsActive      int     `gorm:"default:1" json:"is_active"`

	LastSyncedAt time.Time `json:"-"`
}

func (Product) TableName() string { return "products" }
