package order

import (
	"context"
	"fmt"

	"github.com/PramesRay/pos-service/internal/apperr"
	"github.com/PramesRay/pos-service/internal/models"
	"github.com/PramesRay/pos-service/internal/payment"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type RefundLine struct {
	ID     uint   `json:"id" validate:"required"`
	Amount *int64 `json:"amount" validate:"omitempty,gte=0"`
}

type RefundRequest struct {
	Items  []RefundLine `json:"items" validate:"required,min=1,dive"`
	Method string       `json:"method" validate:"required,max=30"`
	Reason string       `json:"reason" validate:"max=255"`
}

// RefundOrderItems refunds the given items. An item's refund amount defaults
// to quantity x menu price and only settled orders can be refunded. Once
// every item is refunded the order and its payment move to Refund as well.
func (s *Service) RefundOrderItems(ctx context.Context, caller Caller, id uuid.UUID, req RefundRequest) (*models.Order, error) {
	err := s.tx(ctx, func(tx *gorm.DB) error {
		o, err := loadOrder(tx, id, true)
		if err != nil {
			return err
		}
		if caller, err = caller.on(o); err != nil {
			return err
		}
		if o.Status == models.OrderCanceled || o.Status == models.OrderRefunded {
			return apperr.Conflict(msgOrderClosed)
		}
		if o.Payment == nil || o.Payment.Status != models.PaymentPaid {
			return apperr.Conflict("Pembayaran pesanan belum lunas")
		}

		items := make(map[uint]*models.OrderItem, len(o.Items))
		for i := range o.Items {
			items[o.Items[i].ID] = &o.Items[i]
		}

		seen := make(map[uint]bool, len(req.Items))
		for _, line := range req.Items {
			it, ok := items[line.ID]
			if !ok {
				return apperr.BadRequest(fmt.Sprintf("Item %d bukan bagian dari pesanan", line.ID))
			}
			if seen[line.ID] {
				continue
			}
			seen[line.ID] = true
			switch it.Status {
			case models.OrderRefunded:
				return apperr.Conflict(fmt.Sprintf("Item %d sudah direfund", it.ID))
			case models.OrderCanceled:
				return apperr.Conflict(fmt.Sprintf("Item %d sudah dibatalkan", it.ID))
			}

			amount := int64(it.Quantity)
			if it.Menu != nil {
				amount *= it.Menu.Price
			}
			if line.Amount != nil {
				amount = *line.Amount
			}
			if err := tx.Model(&models.OrderItem{}).Where("id = ?", it.ID).
				Update("status", models.OrderRefunded).Error; err != nil {
				return err
			}
			if err := tx.Create(&models.RefundItem{
				OrderItemID: it.ID,
				Amount:      amount,
				Method:      req.Method,
				Reason:      req.Reason,
				CreatedBy:   caller.UserID,
			}).Error; err != nil {
				return err
			}
			it.Status = models.OrderRefunded
		}

		all := true
		for _, it := range o.Items {
			if it.Status != models.OrderRefunded {
				all = false
				break
			}
		}
		if all {
			if err := tx.Model(&models.Order{}).Where("id = ?", o.ID).
				Updates(map[string]any{"status": models.OrderRefunded, "updated_by": caller.UserID}).Error; err != nil {
				return err
			}
			if payment.CanTransition(o.Payment.Status, models.PaymentRefunded) {
				if err := tx.Model(&models.OrderPayment{}).Where("id = ?", o.Payment.ID).
					Update("status", models.PaymentRefunded).Error; err != nil {
					return err
				}
			}
		}
		return logOrder(tx, caller, o, models.AuditActionUpdate,
			fmt.Sprintf("Refund %d item pesanan %s", len(seen), o.Code), nil, req)
	})
	if err != nil {
		return nil, err
	}
	return s.Get(ctx, id)
}
