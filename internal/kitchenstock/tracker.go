// Package kitchenstock maintains the per-shift, per-menu stock counters of a
// kitchen shift. All functions run inside the caller's transaction so the
// counters change atomically with the business record that triggers them.
package kitchenstock

import (
	"errors"
	"sort"

	"github.com/PramesRay/pos-service/internal/apperr"
	"github.com/PramesRay/pos-service/internal/metrics"
	"github.com/PramesRay/pos-service/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const (
	MsgInsufficient = "Menu yang tersedia tidak mencukupi"
	MsgNoneLeft     = "Tidak ada menu yang tersedia"
	MsgShiftClosed  = "Sif Dapur telah diakhiri"
)

type Line struct {
	MenuID   uint `json:"menu_id" validate:"required"`
	Quantity int  `json:"quantity" validate:"gte=0"`
}

// Aggregate merges lines by menu and drops non-positive quantities. The
// result is sorted by menu id so rows are always locked in the same order.
func Aggregate(lines []Line) []Line {
	sum := make(map[uint]int, len(lines))
	for _, l := range lines {
		if l.Quantity > 0 {
			sum[l.MenuID] += l.Quantity
		}
	}
	out := make([]Line, 0, len(sum))
	for id, q := range sum {
		out = append(out, Line{MenuID: id, Quantity: q})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].MenuID < out[j].MenuID })
	return out
}

// Reserve decrements end_stock for every line. The affected rows are locked
// and validated first; each decrement is additionally guarded by
// end_stock >= qty, so a concurrent writer can never drive a counter negative.
func Reserve(tx *gorm.DB, shiftID uint, lines []Line) error {
	agg := Aggregate(lines)
	if len(agg) == 0 {
		return nil
	}

	ids := make([]uint, len(agg))
	for i, l := range agg {
		ids[i] = l.MenuID
	}

	var details []models.KitchenShiftDetail
	if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("kitchen_shift_id = ? AND menu_id IN ?", shiftID, ids).
		Order("menu_id").
		Find(&details).Error; err != nil {
		return err
	}
	stock := make(map[uint]int, len(details))
	for _, d := range details {
		stock[d.MenuID] = d.EndStock
	}

	for _, l := range agg {
		if have, ok := stock[l.MenuID]; !ok || have < l.Quantity {
			metrics.StockConflicts.Inc()
			return apperr.Conflict(MsgInsufficient)
		}
	}

	for _, l := range agg {
		res := tx.Model(&models.KitchenShiftDetail{}).
			Where("kitchen_shift_id = ? AND menu_id = ? AND end_stock >= ?", shiftID, l.MenuID, l.Quantity).
			Update("end_stock", gorm.Expr("end_stock - ?", l.Quantity))
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			metrics.StockConflicts.Inc()
			return apperr.Conflict(MsgInsufficient)
		}
	}
	return nil
}

// Release gives quantities back with an atomic increment. Counters of a
// closed shift hold the physical count and are left untouched.
func Release(tx *gorm.DB, shiftID uint, lines []Line) error {
	agg := Aggregate(lines)
	if len(agg) == 0 {
		return nil
	}

	open, err := isOpen(tx, shiftID)
	if err != nil || !open {
		return err
	}

	for _, l := range agg {
		if err := tx.Model(&models.KitchenShiftDetail{}).
			Where("kitchen_shift_id = ? AND menu_id = ?", shiftID, l.MenuID).
			Update("end_stock", gorm.Expr("COALESCE(end_stock, 0) + ?", l.Quantity)).Error; err != nil {
			return err
		}
	}
	return nil
}

// SetFinal overwrites end_stock with a declared physical count. Menus the
// shift does not track yet get a new row with initial_stock 0.
func SetFinal(tx *gorm.DB, shiftID uint, lines []Line) error {
	if len(lines) == 0 {
		return nil
	}

	open, err := isOpen(tx, shiftID)
	if err != nil {
		return err
	}
	if !open {
		return apperr.Conflict(MsgShiftClosed)
	}

	var details []models.KitchenShiftDetail
	if err := tx.Where("kitchen_shift_id = ?", shiftID).Find(&details).Error; err != nil {
		return err
	}
	tracked := make(map[uint]uint, len(details))
	for _, d := range details {
		tracked[d.MenuID] = d.ID
	}

	for _, l := range lines {
		if l.Quantity < 0 {
			return apperr.BadRequest("Stok akhir tidak boleh negatif")
		}
		if id, ok := tracked[l.MenuID]; ok {
			if err := tx.Model(&models.KitchenShiftDetail{}).Where("id = ?", id).
				Update("end_stock", l.Quantity).Error; err != nil {
				return err
			}
			continue
		}
		detail := models.KitchenShiftDetail{KitchenShiftID: shiftID, MenuID: l.MenuID, EndStock: l.Quantity}
		if err := tx.Create(&detail).Error; err != nil {
			return err
		}
		tracked[l.MenuID] = detail.ID
	}
	return nil
}

// Available reports whether any menu of the shift still has stock.
func Available(tx *gorm.DB, shiftID uint) (bool, error) {
	var n int64
	err := tx.Model(&models.KitchenShiftDetail{}).
		Where("kitchen_shift_id = ? AND end_stock > 0", shiftID).
		Count(&n).Error
	return n > 0, err
}

func isOpen(tx *gorm.DB, shiftID uint) (bool, error) {
	var ks models.KitchenShift
	err := tx.Select("id", "ended_at").First(&ks, shiftID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return false, apperr.NotFound("Sif Dapur tidak ditemukan")
	}
	if err != nil {
		return false, err
	}
	return ks.End == nil, nil
}
