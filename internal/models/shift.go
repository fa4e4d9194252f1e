package models

import "time"

// Shifts share the same lifecycle: Start is set when the shift is opened and
// End stays NULL until it is closed. OpenKey holds the scope key while the
// shift is open and is cleared on close; its unique index guarantees a single
// open shift per scope.

const WarehouseOpenKey uint = 1

type EmployeeShift struct {
	ID         uint       `gorm:"primaryKey" json:"id"`
	EmployeeID uint       `gorm:"index;not null" json:"employee_id"`
	Employee   *Employee  `json:"employee,omitempty"`
	BranchID   *uint      `gorm:"index" json:"branch_id"`
	Start      time.Time  `gorm:"column:started_at;index;not null" json:"start"`
	End        *time.Time `gorm:"column:ended_at" json:"end"`
	OpenKey    *uint      `gorm:"uniqueIndex" json:"-"`
	Notes      string     `gorm:"size:255" json:"notes"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`
}

type KitchenShift struct {
	ID        uint       `gorm:"primaryKey" json:"id"`
	BranchID  uint       `gorm:"index;not null" json:"branch_id"`
	Branch    *Branch    `json:"branch,omitempty"`
	OpenedBy  uint       `gorm:"not null" json:"opened_by"`
	ClosedBy  *uint      `json:"closed_by"`
	Start     time.Time  `gorm:"column:started_at;index;not null" json:"start"`
	End       *time.Time `gorm:"column:ended_at" json:"end"`
	OpenKey   *uint      `gorm:"uniqueIndex" json:"-"`
	Notes     string     `gorm:"size:255" json:"notes"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`

	Details []KitchenShiftDetail `gorm:"foreignKey:KitchenShiftID;constraint:OnDelete:CASCADE" json:"details,omitempty"`
}

// KitchenShiftDetail is the per-menu stock counter of a kitchen shift.
// InitialStock is fixed at shift start; EndStock is the running remainder.
type KitchenShiftDetail struct {
	ID             uint      `gorm:"primaryKey" json:"id"`
	KitchenShiftID uint      `gorm:"uniqueIndex:idx_kitchen_detail_menu;not null" json:"kitchen_shift_id"`
	MenuID         uint      `gorm:"uniqueIndex:idx_kitchen_detail_menu;not null" json:"menu_id"`
	Menu           *Menu     `json:"menu,omitempty"`
	InitialStock   int       `gorm:"not null;default:0" json:"initial_stock"`
	EndStock       int       `gorm:"not null;default:0" json:"end_stock"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

type CashierShift struct {
	ID          uint       `gorm:"primaryKey" json:"id"`
	BranchID    uint       `gorm:"index;not null" json:"branch_id"`
	Branch      *Branch    `json:"branch,omitempty"`
	OpenedBy    uint       `gorm:"not null" json:"opened_by"`
	ClosedBy    *uint      `json:"closed_by"`
	Start       time.Time  `gorm:"column:started_at;index;not null" json:"start"`
	End         *time.Time `gorm:"column:ended_at" json:"end"`
	OpenKey     *uint      `gorm:"uniqueIndex" json:"-"`
	InitialCash int64      `gorm:"not null;default:0" json:"initial_cash"`
	FinalCash   *int64     `json:"final_cash"`
	Notes       string     `gorm:"size:255" json:"notes"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`

	CashIns  []CashierShiftCashIn  `gorm:"foreignKey:CashierShiftID;constraint:OnDelete:CASCADE" json:"cash_in,omitempty"`
	CashOuts []CashierShiftCashOut `gorm:"foreignKey:CashierShiftID;constraint:OnDelete:CASCADE" json:"cash_out,omitempty"`
}

type CashierShiftCashIn struct {
	ID             uint      `gorm:"primaryKey" json:"id"`
	CashierShiftID uint      `gorm:"index;not null" json:"cashier_shift_id"`
	Description    string    `gorm:"size:255" json:"description"`
	Amount         int64     `gorm:"not null" json:"amount"`
	CreatedBy      uint      `json:"created_by"`
	CreatedAt      time.Time `json:"created_at"`
}

// CashierShiftCashOut records an expense paid from the till.
// Amount is always Quantity * UnitPrice.
type CashierShiftCashOut struct {
	ID             uint      `gorm:"primaryKey" json:"id"`
	CashierShiftID uint      `gorm:"index;not null" json:"cashier_shift_id"`
	Description    string    `gorm:"size:255" json:"description"`
	Quantity       int       `gorm:"not null" json:"quantity"`
	UnitPrice      int64     `gorm:"not null" json:"unit_price"`
	Amount         int64     `gorm:"not null" json:"amount"`
	CreatedBy      uint      `json:"created_by"`
	CreatedAt      time.Time `json:"created_at"`
}

type WarehouseShift struct {
	ID        uint       `gorm:"primaryKey" json:"id"`
	OpenedBy  uint       `gorm:"not null" json:"opened_by"`
	ClosedBy  *uint      `json:"closed_by"`
	Start     time.Time  `gorm:"column:started_at;index;not null" json:"start"`
	End       *time.Time `gorm:"column:ended_at" json:"end"`
	OpenKey   *uint      `gorm:"uniqueIndex" json:"-"`
	Notes     string     `gorm:"size:255" json:"notes"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}
