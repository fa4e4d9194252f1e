package models

import (
	"time"

	"github.com/google/uuid"
)

type OrderStatus string

const (
	OrderPending  OrderStatus = "Pending"
	OrderProcess  OrderStatus = "Diproses"
	OrderServed   OrderStatus = "Tersaji"
	OrderFinished OrderStatus = "Selesai"
	OrderCanceled OrderStatus = "Batal"
	OrderRefunded OrderStatus = "Refund"
)

// Terminal reports whether no further lifecycle transition is allowed.
func (s OrderStatus) Terminal() bool {
	return s == OrderFinished || s == OrderCanceled || s == OrderRefunded
}

type PaymentStatus string

const (
	PaymentPending  PaymentStatus = "Pending"
	PaymentPaid     PaymentStatus = "Lunas"
	PaymentFailed   PaymentStatus = "Gagal"
	PaymentRefunded PaymentStatus = "Refund"
)

const (
	PaymentMethodCash     = "cash"
	PaymentMethodMidtrans = "midtrans"
)

type Order struct {
	ID             uuid.UUID   `gorm:"type:char(36);primaryKey" json:"id"`
	Code           string      `gorm:"size:32;uniqueIndex;not null" json:"code"`
	BranchID       uint        `gorm:"index;not null" json:"branch_id"`
	Branch         *Branch     `json:"branch,omitempty"`
	KitchenShiftID uint        `gorm:"index;not null" json:"kitchen_shift_id"`
	CashierShiftID uint        `gorm:"index;not null" json:"cashier_shift_id"`
	CustomerID     uint        `gorm:"index;not null" json:"customer_id"`
	Customer       *Customer   `json:"customer,omitempty"`
	TableNumber    *int        `json:"table_number"`
	IsTakeAway     bool        `gorm:"not null" json:"is_take_away"`
	Status         OrderStatus `gorm:"size:20;index;not null" json:"status"`
	OrderedAt      time.Time   `gorm:"index;not null" json:"ordered_at"`
	CreatedBy      uint        `gorm:"index" json:"created_by"`
	UpdatedBy      uint        `json:"updated_by"`
	CreatedAt      time.Time   `json:"created_at"`
	UpdatedAt      time.Time   `json:"updated_at"`

	Items   []OrderItem   `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE" json:"items,omitempty"`
	Payment *OrderPayment `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE" json:"payment,omitempty"`
}

type OrderItem struct {
	ID        uint        `gorm:"primaryKey" json:"id"`
	OrderID   uuid.UUID   `gorm:"type:char(36);index;not null" json:"order_id"`
	MenuID    uint        `gorm:"index;not null" json:"menu_id"`
	Menu      *Menu       `json:"menu,omitempty"`
	Quantity  int         `gorm:"not null" json:"quantity"`
	Note      string      `gorm:"size:255" json:"note"`
	Status    OrderStatus `gorm:"size:20;not null" json:"status"`
	CreatedAt time.Time   `json:"created_at"`
	UpdatedAt time.Time   `json:"updated_at"`
}

type OrderPayment struct {
	ID        uint          `gorm:"primaryKey" json:"id"`
	OrderID   uuid.UUID     `gorm:"type:char(36);uniqueIndex;not null" json:"order_id"`
	Method    string        `gorm:"size:30" json:"method"`
	Amount    int64         `gorm:"not null" json:"amount"`
	Status    PaymentStatus `gorm:"size:20;index;not null" json:"status"`
	SnapToken *string       `gorm:"size:255" json:"snap_token"`
	CreatedAt time.Time     `json:"created_at"`
	UpdatedAt time.Time     `json:"updated_at"`
}

type RefundItem struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	OrderItemID uint      `gorm:"index;not null" json:"order_item_id"`
	Amount      int64     `gorm:"not null" json:"amount"`
	Method      string    `gorm:"size:30;not null" json:"method"`
	Reason      string    `gorm:"size:255" json:"reason"`
	CreatedBy   uint      `json:"created_by"`
	CreatedAt   time.Time `json:"created_at"`
}
