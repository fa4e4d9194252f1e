package models

import "time"

type UserType string

const (
	UserTypeEmployee UserType = "employee"
	UserTypeCustomer UserType = "customer"
)

type Role string

const (
	RoleAdmin     Role = "admin"
	RoleOwner     Role = "pemilik"
	RoleTreasurer Role = "bendahara"
	RoleWarehouse Role = "gudang"
	RoleKitchen   Role = "dapur"
	RoleCashier   Role = "kasir"
)

func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleOwner, RoleTreasurer, RoleWarehouse, RoleKitchen, RoleCashier:
		return true
	}
	return false
}

// User is the actor identity referenced by created_by/updated_by columns.
// Every Employee and every Customer owns exactly one User row.
type User struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Type      UserType  `gorm:"size:20;not null" json:"type"`
	CreatedAt time.Time `json:"created_at"`
}

type Employee struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	UserID       uint      `gorm:"uniqueIndex;not null" json:"user_id"`
	User         *User     `json:"-"`
	UID          string    `gorm:"column:uid;size:128;uniqueIndex;not null" json:"uid"` // identity provider subject
	Name         string    `gorm:"size:100;not null" json:"name"`
	Email        string    `gorm:"size:100;uniqueIndex;not null" json:"email"`
	PasswordHash string    `gorm:"size:255" json:"-"`
	Role         Role      `gorm:"size:20;not null" json:"role"`
	BranchID     *uint     `gorm:"index" json:"branch_id"`
	Branch       *Branch   `json:"branch,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

type Customer struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    uint      `gorm:"uniqueIndex;not null" json:"user_id"`
	User      *User     `json:"-"`
	Name      string    `gorm:"size:100" json:"name"`
	Phone     string    `gorm:"size:30;uniqueIndex;not null" json:"phone"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
