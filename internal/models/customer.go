package models

import (
	"time"
)

// SalesRoute is the route a salesman covers. Reference data.
type SalesRoute struct {
	LocalID  int64  `gorm:"column:local_id;primaryKey;autoIncrement" json:"-"`
	ServerID int64  `gorm:"column:server_id;index;default:-1" json:"id"`
	Name     string `json:"route_name"`
	Area     string `json:"area_name"`

	LastSyncedAt time.Time `json:"-"`
}

func (SalesRoute) TableName() string { return "sales_routes" }

// Customer is a buyer visited on a route. RouteID holds the server key of the
// route (-1 when the customer is not assigned to one).
type Customer struct {
	LocalID  int64   `gorm:"column:local_id;primaryKey;autoIncrement" json:"-"`
	ServerID int64   `gorm:"column:server_id;index;default:-1" json:"id"`
	Name     string  `gorm:"index" json:"customer_name"`
	Address  string  `json:"address"`
	PhoneNo  string  `json:"phone_no"`
	Email    string  `json:"email"`
	RouteID  int64   `gorm:"default:-1" json:"route_id"`
	Balance  float64 `json:"balance"`
	IsActive int     `gorm:"default:1" json:"is_active"`

	LastSyncedAt time.Time `json:"-"`
}

func (Customer) TableName() string { return "customers" }
