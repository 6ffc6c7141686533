package models

import (
	"time"
)

// Role is the workflow role a user acts under. The fulfillment state machine
// gates every transition on it.
type Role string

const (
	RoleAdmin       Role = "admin"       // assigns suppliers, accepts/rejects offers
	RoleSupplier    Role = "supplier"    // responds to availability requests
	RoleStorekeeper Role = "storekeeper" // read-only plus the packing side-channel
	RoleSalesman    Role = "salesman"    // reports shortages, receives outcomes
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleSupplier, RoleStorekeeper, RoleSalesman:
		return true
	}
	return false
}

// UserTypeCode maps a role onto the numeric user_type the upstream API
// expects in download requests.
func UserTypeCode(r Role) int {
	switch r {
	case RoleAdmin:
		return 1
	case RoleSupplier:
		return 2
	case RoleStorekeeper:
		return 3
	case RoleSalesman:
		return 4
	default:
		return 0
	}
}

// UserAccount is a field user. The bcrypt hash is synced down so credentials
// verify offline; reads never depend on connectivity.
type UserAccount struct {
	LocalID      int64  `gorm:"column:local_id;primaryKey;autoIncrement" json:"-"`
	ServerID     int64  `gorm:"column:server_id;index;default:-1" json:"id"`
	Name         string `json:"name"`
	Username     string `gorm:"index" json:"username"`
	PasswordHash string `json:"password"`
	Role         Role   `gorm:"index" json:"user_role"`
	PhoneNo      string `json:"phone_no"`
	Email        string `json:"email"`
	RouteID      int64  `gorm:"default:-1" json:"route_id"`
	IsActive     int    `gorm:"default:1" json:"is_active"`

	LastSyncedAt time.Time `json:"-"`
}

func (UserAccount) TableName() string { return "user_accounts" }
