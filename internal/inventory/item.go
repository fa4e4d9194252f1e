// Package inventory keeps the warehouse catalogue and the stock movement
// ledger that changes its quantities.
package inventory

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/PramesRay/pos-service/internal/apperr"
	"github.com/PramesRay/pos-service/internal/audit"
	"github.com/PramesRay/pos-service/internal/auth"
	"github.com/PramesRay/pos-service/internal/models"

	"gorm.io/gorm"
)

const msgItemNotFound = "Barang gudang tidak ditemukan"

type Service struct {
	db *gorm.DB
}

func NewService(db *gorm.DB) *Service {
	return &Service{db: db}
}

func (s *Service) tx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return s.db.WithContext(ctx).Transaction(fn)
}

type ItemInput struct {
	Name          string     `json:"name" validate:"required,max=150"`
	Unit          string     `json:"unit" validate:"required,max=30"`
	PurchasePrice int64      `json:"purchase_price" validate:"gte=0"`
	Threshold     int        `json:"threshold" validate:"gte=0"`
	Quantity      int        `json:"quantity" validate:"gte=0"`
	ExpiredDate   *time.Time `json:"expired_date"`
}

// CreateItem adds an item to the catalogue. It stays flagged as new until
// its first incoming movement.
func (s *Service) CreateItem(ctx context.Context, actor auth.Actor, in ItemInput) (*models.InventoryItem, error) {
	item := models.InventoryItem{
		Name:          strings.TrimSpace(in.Name),
		Unit:          strings.TrimSpace(in.Unit),
		PurchasePrice: in.PurchasePrice,
		Threshold:     in.Threshold,
		Quantity:      in.Quantity,
		ExpiredDate:   in.ExpiredDate,
		IsNew:         true,
		CreatedBy:     actor.UserID,
		UpdatedBy:     actor.UserID,
	}
	err := s.tx(ctx, func(tx *gorm.DB) error {
		if err := tx.Create(&item).Error; err != nil {
			return err
		}
		return logInventory(tx, actor, "inventory_item", item.ID, models.AuditActionCreate, "Barang gudang dibuat", nil, item)
	})
	if err != nil {
		return nil, err
	}
	return &item, nil
}

// ItemUpdate edits catalogue fields. Quantity only changes through stock
// movements.
type ItemUpdate struct {
	Name          *string    `json:"name" validate:"omitempty,min=1,max=150"`
	Unit          *string    `json:"unit" validate:"omitempty,min=1,max=30"`
	PurchasePrice *int64     `json:"purchase_price" validate:"omitempty,gte=0"`
	Threshold     *int       `json:"threshold" validate:"omitempty,gte=0"`
	ExpiredDate   *time.Time `json:"expired_date"`
}

func (s *Service) UpdateItem(ctx context.Context, actor auth.Actor, id uint, in ItemUpdate) (*models.InventoryItem, error) {
	var item models.InventoryItem
	err := s.tx(ctx, func(tx *gorm.DB) error {
		if err := tx.First(&item, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperr.NotFound(msgItemNotFound)
			}
			return err
		}
		before := item

		updates := map[string]any{"updated_by": actor.UserID}
		if in.Name != nil {
			updates["name"] = strings.TrimSpace(*in.Name)
		}
		if in.Unit != nil {
			updates["unit"] = strings.TrimSpace(*in.Unit)
		}
		if in.PurchasePrice != nil {
			updates["purchase_price"] = *in.PurchasePrice
		}
		if in.Threshold != nil {
			updates["threshold"] = *in.Threshold
		}
		if in.ExpiredDate != nil {
			updates["expired_date"] = *in.ExpiredDate
		}
		if err := tx.Model(&item).Updates(updates).Error; err != nil {
			return err
		}
		if err := tx.First(&item, id).Error; err != nil {
			return err
		}
		return logInventory(tx, actor, "inventory_item", item.ID, models.AuditActionUpdate, "Barang gudang diubah", before, item)
	})
	if err != nil {
		return nil, err
	}
	return &item, nil
}

type ItemFilter struct {
	Search   string
	LowStock bool
	Limit    int
	Offset   int
}

// ListItems lists the catalogue by name. LowStock keeps items at or below
// their threshold.
func (s *Service) ListItems(ctx context.Context, f ItemFilter) ([]models.InventoryItem, error) {
	q := s.db.WithContext(ctx).Model(&models.InventoryItem{})
	if term := strings.TrimSpace(f.Search); term != "" {
		q = q.Where("LOWER(name) LIKE ?", "%"+strings.ToLower(term)+"%")
	}
	if f.LowStock {
		q = q.Where("quantity <= threshold")
	}
	limit := f.Limit
	if limit <= 0 || limit > 500 {
		limit = 200
	}
	if f.Offset > 0 {
		q = q.Offset(f.Offset)
	}
	var items []models.InventoryItem
	err := q.Order("name ASC").Limit(limit).Find(&items).Error
	return items, err
}

func logInventory(tx *gorm.DB, actor auth.Actor, entity string, id uint, action models.AuditAction, desc string, before, after any) error {
	return audit.WriteLog(tx, audit.LogOptions{
		BranchID:    actor.BranchID,
		UserID:      actor.UserID,
		UserName:    actor.Name,
		EntityType:  entity,
		EntityID:    id,
		Action:      action,
		Description: desc,
		Before:      before,
		After:       after,
	})
}
