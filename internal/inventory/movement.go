package inventory

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/PramesRay/pos-service/internal/apperr"
	"github.com/PramesRay/pos-service/internal/auth"
	"github.com/PramesRay/pos-service/internal/models"
	"github.com/PramesRay/pos-service/internal/shift"

	"gorm.io/gorm"
)

const (
	msgMovementNotFound = "Pergerakan stok tidak ditemukan"
	msgShortfall        = "Jumlah pengurangan melebihi kuantitas barang gudang"
	msgShiftEnded       = "Sif Gudang telah diakhiri"
)

type MovementInput struct {
	InventoryItemID uint                `json:"item_id" validate:"required"`
	BranchID        *uint               `json:"branch_id"`
	Type            models.MovementType `json:"type" validate:"required"`
	Quantity        int                 `json:"quantity" validate:"gt=0"`
	Reason          string              `json:"reason" validate:"max=255"`
}

func (in MovementInput) check() error {
	if !in.Type.Valid() {
		return apperr.BadRequest(fmt.Sprintf("Tipe pergerakan %q tidak valid", in.Type))
	}
	if in.Quantity <= 0 {
		return apperr.BadRequest("Jumlah harus lebih dari 0")
	}
	return nil
}

// CreateMovement records a movement in the open warehouse shift and applies
// it to the item quantity in the same transaction.
func (s *Service) CreateMovement(ctx context.Context, actor auth.Actor, in MovementInput) (*models.StockMovement, error) {
	if err := in.check(); err != nil {
		return nil, err
	}
	var m models.StockMovement
	err := s.tx(ctx, func(tx *gorm.DB) error {
		ws, err := shift.OpenWarehouseShift(tx)
		if errors.Is(err, shift.ErrNoOpenShift) {
			return apperr.NotFound("Sif Gudang tidak ditemukan")
		}
		if err != nil {
			return err
		}
		if err := apply(tx, in.InventoryItemID, in.Type.Delta(in.Quantity), in.Type == models.MovementIn); err != nil {
			return err
		}
		m = models.StockMovement{
			WarehouseShiftID: ws.ID,
			InventoryItemID:  in.InventoryItemID,
			BranchID:         in.BranchID,
			Type:             in.Type,
			Quantity:         in.Quantity,
			Reason:           in.Reason,
			CreatedBy:        actor.UserID,
			UpdatedBy:        actor.UserID,
		}
		if err := tx.Create(&m).Error; err != nil {
			return err
		}
		return logInventory(tx, actor, "stock_movement", m.ID, models.AuditActionCreate,
			fmt.Sprintf("Stok %s %d", m.Type, m.Quantity), nil, m)
	})
	if err != nil {
		return nil, err
	}
	return s.movement(ctx, m.ID)
}

type MovementUpdate struct {
	Type     models.MovementType `json:"type" validate:"required"`
	Quantity int                 `json:"quantity" validate:"gt=0"`
	Reason   string              `json:"reason" validate:"max=255"`
}

// UpdateMovement replaces the movement's effect on the item with the new
// one, applied as a single net change.
func (s *Service) UpdateMovement(ctx context.Context, actor auth.Actor, id uint, in MovementUpdate) (*models.StockMovement, error) {
	if err := (MovementInput{Type: in.Type, Quantity: in.Quantity}).check(); err != nil {
		return nil, err
	}
	err := s.tx(ctx, func(tx *gorm.DB) error {
		m, err := findMovement(tx, id)
		if err != nil {
			return err
		}
		if err := ensureShiftOpen(tx, m.WarehouseShiftID); err != nil {
			return err
		}
		before := *m

		delta := in.Type.Delta(in.Quantity) - m.Type.Delta(m.Quantity)
		if err := apply(tx, m.InventoryItemID, delta, in.Type == models.MovementIn); err != nil {
			return err
		}
		if err := tx.Model(&models.StockMovement{}).Where("id = ?", m.ID).Updates(map[string]any{
			"type":       in.Type,
			"quantity":   in.Quantity,
			"reason":     in.Reason,
			"updated_by": actor.UserID,
		}).Error; err != nil {
			return err
		}
		return logInventory(tx, actor, "stock_movement", m.ID, models.AuditActionUpdate,
			"Pergerakan stok diubah", before, in)
	})
	if err != nil {
		return nil, err
	}
	return s.movement(ctx, id)
}

// DeleteMovement removes the movement and reverses its effect.
func (s *Service) DeleteMovement(ctx context.Context, actor auth.Actor, id uint) error {
	return s.tx(ctx, func(tx *gorm.DB) error {
		m, err := findMovement(tx, id)
		if err != nil {
			return err
		}
		if err := ensureShiftOpen(tx, m.WarehouseShiftID); err != nil {
			return err
		}
		if err := apply(tx, m.InventoryItemID, -m.Type.Delta(m.Quantity), false); err != nil {
			return err
		}
		if err := tx.Delete(&models.StockMovement{}, m.ID).Error; err != nil {
			return err
		}
		return logInventory(tx, actor, "stock_movement", m.ID, models.AuditActionDelete,
			"Pergerakan stok dihapus", m, nil)
	})
}

// apply changes an item quantity by delta with a single conditional update,
// so concurrent movements can never drive it below zero.
func apply(tx *gorm.DB, itemID uint, delta int, incoming bool) error {
	if delta == 0 && !incoming {
		return nil
	}
	q := tx.Model(&models.InventoryItem{}).Where("id = ?", itemID)
	updates := map[string]any{"quantity": gorm.Expr("quantity + ?", delta)}
	if delta < 0 {
		q = q.Where("quantity >= ?", -delta)
	}
	if incoming {
		updates["is_new"] = false
	}
	res := q.Updates(updates)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected > 0 {
		return nil
	}

	var n int64
	if err := tx.Model(&models.InventoryItem{}).Where("id = ?", itemID).Count(&n).Error; err != nil {
		return err
	}
	if n == 0 {
		return apperr.NotFound(msgItemNotFound)
	}
	return apperr.Conflict(msgShortfall)
}

// ensureShiftOpen locks the movement's warehouse shift; an ended shift is
// frozen.
func ensureShiftOpen(tx *gorm.DB, shiftID uint) error {
	ws, err := shift.LockWarehouseShift(tx, shiftID)
	if err != nil {
		return err
	}
	if ws.End != nil {
		return apperr.Conflict(msgShiftEnded)
	}
	return nil
}

func findMovement(tx *gorm.DB, id uint) (*models.StockMovement, error) {
	var m models.StockMovement
	err := tx.First(&m, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperr.NotFound(msgMovementNotFound)
	}
	if err != nil {
		return nil, err
	}
	return &m, nil
}

func (s *Service) movement(ctx context.Context, id uint) (*models.StockMovement, error) {
	var m models.StockMovement
	if err := s.db.WithContext(ctx).Preload("InventoryItem").First(&m, id).Error; err != nil {
		return nil, err
	}
	return &m, nil
}

type MovementFilter struct {
	InventoryItemID  *uint
	WarehouseShiftID *uint
	BranchID         *uint
	Type             models.MovementType
	From             *time.Time
	To               *time.Time
	Limit            int
	Offset           int
}

func (s *Service) ListMovements(ctx context.Context, f MovementFilter) ([]models.StockMovement, error) {
	q := s.db.WithContext(ctx).Model(&models.StockMovement{}).Preload("InventoryItem")
	if f.InventoryItemID != nil {
		q = q.Where("inventory_item_id = ?", *f.InventoryItemID)
	}
	if f.WarehouseShiftID != nil {
		q = q.Where("warehouse_shift_id = ?", *f.WarehouseShiftID)
	}
	if f.BranchID != nil {
		q = q.Where("branch_id = ?", *f.BranchID)
	}
	if f.Type != "" {
		q = q.Where("type = ?", f.Type)
	}
	if f.From != nil {
		q = q.Where("created_at >= ?", *f.From)
	}
	if f.To != nil {
		q = q.Where("created_at < ?", *f.To)
	}
	limit := f.Limit
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	if f.Offset > 0 {
		q = q.Offset(f.Offset)
	}
	var out []models.StockMovement
	err := q.Order("created_at DESC").Order("id DESC").Limit(limit).Find(&out).Error
	return out, err
}
