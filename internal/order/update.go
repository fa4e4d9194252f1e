package order

import (
	"context"
	"fmt"

	"github.com/PramesRay/pos-service/internal/apperr"
	"github.com/PramesRay/pos-service/internal/kitchenstock"
	"github.com/PramesRay/pos-service/internal/models"
	"github.com/PramesRay/pos-service/internal/payment"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const (
	msgOrderClosed  = "Pesanan telah selesai atau dibatalkan"
	msgPaymentFinal = "Pembayaran telah selesai atau direfund"
)

// rank orders the forward lifecycle; Batal and Refund sit outside it.
var rank = map[models.OrderStatus]int{
	models.OrderPending:  0,
	models.OrderProcess:  1,
	models.OrderServed:   2,
	models.OrderFinished: 3,
}

// UpdateOrder applies one action in its own transaction and returns the
// reloaded order.
func (s *Service) UpdateOrder(ctx context.Context, caller Caller, id uuid.UUID, a Action) (*models.Order, error) {
	if _, ok := a.(UpdatePayment); !ok && caller.Source == SourceCustomer {
		return nil, apperr.Forbidden("Pelanggan hanya dapat memperbarui pembayaran")
	}

	var err error
	switch a := a.(type) {
	case UpdateStatus:
		err = s.updateStatus(ctx, caller, id, a)
	case UpdateItems:
		err = s.updateItems(ctx, caller, id, a)
	case UpdatePayment:
		err = s.updatePayment(ctx, caller, id, a)
	case UpdateWholeOrder:
		err = s.updateWholeOrder(ctx, caller, id, a)
	default:
		err = apperr.BadRequest("Tipe pembaruan tidak dikenal")
	}
	if err != nil {
		return nil, err
	}
	return s.Get(ctx, id)
}

func (s *Service) updateStatus(ctx context.Context, caller Caller, id uuid.UUID, a UpdateStatus) error {
	return s.tx(ctx, func(tx *gorm.DB) error {
		o, err := loadOrder(tx, id, true)
		if err != nil {
			return err
		}
		if caller, err = caller.on(o); err != nil {
			return err
		}
		if o.Status.Terminal() {
			return apperr.Conflict(msgOrderClosed)
		}
		if a.Status == o.Status {
			return nil
		}
		before := o.Status

		switch a.Status {
		case models.OrderCanceled:
			if err := cancel(tx, o, caller.UserID); err != nil {
				return err
			}
		case models.OrderRefunded:
			return apperr.BadRequest("Gunakan refund item untuk mengembalikan dana pesanan")
		case models.OrderPending, models.OrderProcess, models.OrderServed, models.OrderFinished:
			if rank[a.Status] < rank[o.Status] {
				return apperr.Conflict(fmt.Sprintf("Status pesanan tidak dapat kembali dari %s ke %s", o.Status, a.Status))
			}
			if a.Status == models.OrderFinished && o.Payment.Status != models.PaymentPaid {
				return apperr.Conflict("Pesanan belum dibayar")
			}
			itemStatus := a.Status
			if itemStatus == models.OrderFinished {
				itemStatus = models.OrderServed
			}
			if err := tx.Model(&models.OrderItem{}).
				Where("order_id = ? AND status IN ?", o.ID, behind(itemStatus)).
				Update("status", itemStatus).Error; err != nil {
				return err
			}
			if err := tx.Model(&models.Order{}).Where("id = ?", o.ID).
				Updates(map[string]any{"status": a.Status, "updated_by": caller.UserID}).Error; err != nil {
				return err
			}
		default:
			return apperr.BadRequest("Status pesanan tidak valid")
		}

		return logOrder(tx, caller, o, models.AuditActionUpdate,
			fmt.Sprintf("Status pesanan %s: %s -> %s", o.Code, before, a.Status),
			map[string]any{"status": before}, map[string]any{"status": a.Status})
	})
}

// behind lists the live item statuses ranked below s.
func behind(s models.OrderStatus) []models.OrderStatus {
	var out []models.OrderStatus
	for st, r := range rank {
		if r < rank[s] {
			out = append(out, st)
		}
	}
	return out
}

func (s *Service) updateItems(ctx context.Context, caller Caller, id uuid.UUID, a UpdateItems) error {
	return s.tx(ctx, func(tx *gorm.DB) error {
		o, err := loadOrder(tx, id, true)
		if err != nil {
			return err
		}
		if caller, err = caller.on(o); err != nil {
			return err
		}
		if o.Status.Terminal() {
			return apperr.Conflict(msgOrderClosed)
		}

		want := make(map[uint]models.OrderStatus, len(a.Items))
		for _, it := range a.Items {
			switch it.Status {
			case models.OrderPending, models.OrderProcess, models.OrderServed:
			default:
				return apperr.BadRequest(fmt.Sprintf("Status item %s tidak valid", it.Status))
			}
			want[it.ID] = it.Status
		}
		owned := make(map[uint]bool, len(o.Items))
		for _, it := range o.Items {
			owned[it.ID] = true
		}
		for itemID := range want {
			if !owned[itemID] {
				return apperr.BadRequest(fmt.Sprintf("Item %d bukan bagian dari pesanan", itemID))
			}
		}

		for i, it := range o.Items {
			next, ok := want[it.ID]
			if !ok || !live(it) || next == it.Status {
				continue
			}
			if err := tx.Model(&models.OrderItem{}).Where("id = ?", it.ID).Update("status", next).Error; err != nil {
				return err
			}
			o.Items[i].Status = next
		}

		next := aggregateStatus(o.Status, o.Items, o.Payment.Status)
		if next != o.Status {
			if err := tx.Model(&models.Order{}).Where("id = ?", o.ID).
				Updates(map[string]any{"status": next, "updated_by": caller.UserID}).Error; err != nil {
				return err
			}
		}
		return logOrder(tx, caller, o, models.AuditActionUpdate,
			fmt.Sprintf("Status item pesanan %s diperbarui", o.Code), nil, a)
	})
}

// aggregateStatus derives the order status from its live items: Selesai when
// every item is served and the payment is Lunas, Tersaji when every item is
// served, Diproses when any item is being prepared, otherwise unchanged.
func aggregateStatus(current models.OrderStatus, items []models.OrderItem, paid models.PaymentStatus) models.OrderStatus {
	n, served, processing := 0, 0, 0
	for _, it := range items {
		if !live(it) {
			continue
		}
		n++
		switch it.Status {
		case models.OrderServed:
			served++
		case models.OrderProcess:
			processing++
		}
	}
	switch {
	case n > 0 && served == n && paid == models.PaymentPaid:
		return models.OrderFinished
	case n > 0 && served == n:
		return models.OrderServed
	case processing > 0:
		return models.OrderProcess
	}
	return current
}

func (s *Service) updatePayment(ctx context.Context, caller Caller, id uuid.UUID, a UpdatePayment) error {
	return s.tx(ctx, func(tx *gorm.DB) error {
		o, err := loadOrder(tx, id, true)
		if err != nil {
			return err
		}
		if caller, err = caller.on(o); err != nil {
			return err
		}
		if payment.Final(o.Payment.Status) || o.Status == models.OrderCanceled {
			return apperr.Conflict(msgPaymentFinal)
		}

		amount := amountOf(o.Items)
		before := *o.Payment
		updates := map[string]any{"amount": amount, "method": a.PaymentMethod}

		if a.PaymentMethod == models.PaymentMethodMidtrans {
			token, err := s.gatewayToken(ctx, o, amount)
			if err != nil {
				return err
			}
			updates["snap_token"] = token.Token
		} else {
			if !payment.CanTransition(o.Payment.Status, models.PaymentPaid) {
				return apperr.Conflict(msgPaymentFinal)
			}
			updates["status"] = models.PaymentPaid
		}
		if err := tx.Model(&models.OrderPayment{}).Where("id = ?", o.Payment.ID).Updates(updates).Error; err != nil {
			return err
		}

		orderUpdates := map[string]any{"updated_by": caller.UserID}
		if updates["status"] == models.PaymentPaid && o.Status == models.OrderServed {
			orderUpdates["status"] = models.OrderFinished
		}
		if err := tx.Model(&models.Order{}).Where("id = ?", o.ID).Updates(orderUpdates).Error; err != nil {
			return err
		}
		return logOrder(tx, caller, o, models.AuditActionUpdate,
			fmt.Sprintf("Pembayaran pesanan %s via %s", o.Code, a.PaymentMethod), before, updates)
	})
}

func (s *Service) updateWholeOrder(ctx context.Context, caller Caller, id uuid.UUID, a UpdateWholeOrder) error {
	return s.tx(ctx, func(tx *gorm.DB) error {
		o, err := loadOrder(tx, id, true)
		if err != nil {
			return err
		}
		if caller, err = caller.on(o); err != nil {
			return err
		}
		if o.Status.Terminal() {
			return apperr.Conflict(msgOrderClosed)
		}
		if payment.Final(o.Payment.Status) {
			return apperr.Conflict(msgPaymentFinal)
		}
		if a.BranchID != 0 && a.BranchID != o.BranchID {
			return apperr.BadRequest("Cabang pesanan tidak dapat diubah")
		}
		if !a.IsTakeAway && a.TableNumber == nil {
			return apperr.BadRequest("Nomor meja wajib diisi untuk makan di tempat")
		}

		var ks models.KitchenShift
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&ks, o.KitchenShiftID).Error; err != nil {
			return err
		}
		if ks.End != nil {
			return apperr.Conflict(kitchenstock.MsgShiftClosed)
		}
		if !a.IsTakeAway {
			if err := ensureTableFree(tx, ks.ID, *a.TableNumber, &o.ID); err != nil {
				return err
			}
		}

		newLines := make([]kitchenstock.Line, 0, len(a.Items))
		for _, it := range a.Items {
			newLines = append(newLines, kitchenstock.Line{MenuID: it.MenuID, Quantity: it.Quantity})
		}
		menus, err := branchMenus(tx, o.BranchID, kitchenstock.Aggregate(newLines))
		if err != nil {
			return err
		}

		reserve, release := stockDelta(stockLines(o.Items), newLines)
		if err := kitchenstock.Reserve(tx, ks.ID, reserve); err != nil {
			return err
		}
		if err := kitchenstock.Release(tx, ks.ID, release); err != nil {
			return err
		}

		existing := make(map[uint]models.OrderItem, len(o.Items))
		for _, it := range o.Items {
			existing[it.ID] = it
		}
		kept := make(map[uint]bool, len(a.Items))
		var amount int64
		for _, p := range a.Items {
			amount += int64(p.Quantity) * menus[p.MenuID].Price
			if p.ID != nil {
				cur, ok := existing[*p.ID]
				if !ok {
					return apperr.BadRequest(fmt.Sprintf("Item %d bukan bagian dari pesanan", *p.ID))
				}
				if !live(cur) {
					return apperr.Conflict(fmt.Sprintf("Item %d sudah dibatalkan atau direfund", *p.ID))
				}
				kept[cur.ID] = true
				if err := tx.Model(&models.OrderItem{}).Where("id = ?", cur.ID).Updates(map[string]any{
					"menu_id":  p.MenuID,
					"quantity": p.Quantity,
					"note":     p.Note,
				}).Error; err != nil {
					return err
				}
				continue
			}
			item := models.OrderItem{OrderID: o.ID, MenuID: p.MenuID, Quantity: p.Quantity, Note: p.Note, Status: models.OrderPending}
			if err := tx.Create(&item).Error; err != nil {
				return err
			}
		}
		for _, it := range o.Items {
			if live(it) && !kept[it.ID] {
				if err := tx.Delete(&models.OrderItem{}, it.ID).Error; err != nil {
					return err
				}
			}
		}

		var table *int
		if !a.IsTakeAway {
			table = a.TableNumber
		}
		if err := tx.Model(&models.Order{}).Where("id = ?", o.ID).Updates(map[string]any{
			"table_number": table,
			"is_take_away": a.IsTakeAway,
			"updated_by":   caller.UserID,
		}).Error; err != nil {
			return err
		}
		if err := tx.Model(&models.OrderPayment{}).Where("id = ?", o.Payment.ID).
			Update("amount", amount).Error; err != nil {
			return err
		}
		return logOrder(tx, caller, o, models.AuditActionUpdate,
			fmt.Sprintf("Pesanan %s diubah", o.Code), o, a)
	})
}

// stockDelta compares per-menu quantities and returns what must be reserved
// (increases) and released (decreases).
func stockDelta(old, next []kitchenstock.Line) (reserve, release []kitchenstock.Line) {
	diff := make(map[uint]int)
	for _, l := range kitchenstock.Aggregate(next) {
		diff[l.MenuID] += l.Quantity
	}
	for _, l := range kitchenstock.Aggregate(old) {
		diff[l.MenuID] -= l.Quantity
	}
	for menuID, d := range diff {
		switch {
		case d > 0:
			reserve = append(reserve, kitchenstock.Line{MenuID: menuID, Quantity: d})
		case d < 0:
			release = append(release, kitchenstock.Line{MenuID: menuID, Quantity: -d})
		}
	}
	return reserve, release
}
