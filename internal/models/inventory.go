package models

import "time"

type InventoryItem struct {
	ID            uint       `gorm:"primaryKey" json:"id"`
	Name          string     `gorm:"size:150;not null" json:"name"`
	Unit          string     `gorm:"size:30;not null" json:"unit"`
	PurchasePrice int64      `gorm:"not null;default:0" json:"purchase_price"`
	Threshold     int        `gorm:"not null;default:0" json:"threshold"`
	Quantity      int        `gorm:"not null;default:0" json:"quantity"`
	ExpiredDate   *time.Time `json:"expired_date"`
	IsNew         bool       `gorm:"not null" json:"is_new"`
	CreatedBy     uint       `json:"created_by"`
	UpdatedBy     uint       `json:"updated_by"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
}

type MovementType string

const (
	MovementIn         MovementType = "Masuk"
	MovementOut        MovementType = "Keluar"
	MovementAdjustment MovementType = "Pengurangan"
)

func (t MovementType) Valid() bool {
	return t == MovementIn || t == MovementOut || t == MovementAdjustment
}

// Delta returns the signed quantity change the movement applies to its item.
func (t MovementType) Delta(qty int) int {
	if t == MovementIn {
		return qty
	}
	return -qty
}

type StockMovement struct {
	ID               uint           `gorm:"primaryKey" json:"id"`
	WarehouseShiftID uint           `gorm:"index;not null" json:"warehouse_shift_id"`
	InventoryItemID  uint           `gorm:"index;not null" json:"inventory_item_id"`
	InventoryItem    *InventoryItem `json:"item,omitempty"`
	BranchID         *uint          `gorm:"index" json:"branch_id"`
	Type             MovementType   `gorm:"size:20;not null" json:"type"`
	Quantity         int            `gorm:"not null" json:"quantity"`
	Reason           string         `gorm:"size:255" json:"reason"`
	CreatedBy        uint           `json:"created_by"`
	UpdatedBy        uint           `json:"updated_by"`
	CreatedAt        time.Time      `json:"created_at"`
	UpdatedAt        time.Time      `json:"updated_at"`
}

type StockRequestStatus string

const (
	RequestPending  StockRequestStatus = "Pending"
	RequestProcess  StockRequestStatus = "Diproses"
	RequestReady    StockRequestStatus = "Siap"
	RequestRejected StockRequestStatus = "Ditolak"
	RequestFinished StockRequestStatus = "Selesai"
)

type StockRequest struct {
	ID               uint               `gorm:"primaryKey" json:"id"`
	BranchID         uint               `gorm:"index;not null" json:"branch_id"`
	Branch           *Branch            `json:"branch,omitempty"`
	KitchenShiftID   uint               `gorm:"index;not null" json:"kitchen_shift_id"`
	WarehouseShiftID uint               `gorm:"index;not null" json:"warehouse_shift_id"`
	Status           StockRequestStatus `gorm:"size:20;index;not null" json:"status"`
	Note             string             `gorm:"size:255" json:"note"`
	RequestedBy      uint               `json:"requested_by"`
	UpdatedBy        uint               `json:"updated_by"`
	CreatedAt        time.Time          `json:"created_at"`
	UpdatedAt        time.Time          `json:"updated_at"`

	Items []StockRequestItem `gorm:"foreignKey:StockRequestID;constraint:OnDelete:CASCADE" json:"items,omitempty"`
}

type StockRequestItem struct {
	ID              uint               `gorm:"primaryKey" json:"id"`
	StockRequestID  uint               `gorm:"index;not null" json:"stock_request_id"`
	InventoryItemID uint               `gorm:"index;not null" json:"inventory_item_id"`
	InventoryItem   *InventoryItem     `json:"item,omitempty"`
	Quantity        int                `gorm:"not null" json:"quantity"`
	Status          StockRequestStatus `gorm:"size:20;not null" json:"status"`
	CreatedAt       time.Time          `json:"created_at"`
	UpdatedAt       time.Time          `json:"updated_at"`
}
