package models

import "time"

type Menu struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	BranchID    uint      `gorm:"index;not null" json:"branch_id"`
	Name        string    `gorm:"size:150;not null" json:"name"`
	Description string    `gorm:"size:255" json:"description"`
	Price       int64     `gorm:"not null" json:"price"` // rupiah
	Threshold   int       `gorm:"default:0" json:"threshold"`
	IsAvailable bool      `gorm:"not null" json:"is_available"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}
