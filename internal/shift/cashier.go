package shift

import (
	"context"

	"github.com/PramesRay/pos-service/internal/apperr"
	"github.com/PramesRay/pos-service/internal/auth"
	"github.com/PramesRay/pos-service/internal/metrics"
	"github.com/PramesRay/pos-service/internal/models"

	"gorm.io/gorm"
)

type CashInInput struct {
	Description string `json:"description" validate:"required"`
	Amount      int64  `json:"amount" validate:"gt=0"`
}

type CashOutInput struct {
	Description string `json:"description" validate:"required"`
	Quantity    int    `json:"quantity" validate:"gt=0"`
	UnitPrice   int64  `json:"unit_price" validate:"gte=0"`
}

type UpdateCashierInput struct {
	CashIn        []CashInInput  `json:"cash_in" validate:"dive"`
	CashOut       []CashOutInput `json:"cash_out" validate:"dive"`
	DeleteCashIn  []uint         `json:"delete_cash_in"`
	DeleteCashOut []uint         `json:"delete_cash_out"`
	Notes         *string        `json:"notes"`
}

func (s *Service) StartCashierShift(ctx context.Context, actor auth.Actor, branchID uint, initialCash int64) (*models.CashierShift, error) {
	if initialCash < 0 {
		return nil, apperr.BadRequest("Kas awal tidak boleh negatif")
	}

	var shift models.CashierShift
	err := s.tx(ctx, func(tx *gorm.DB) error {
		if err := branchExists(tx, branchID); err != nil {
			return err
		}
		err := ensureNoneOpen(func() (*models.CashierShift, error) {
			return OpenCashierShift(tx, branchID)
		}, "Sif Kasir sudah dimulai")
		if err != nil {
			return err
		}

		key := branchID
		shift = models.CashierShift{
			BranchID:    branchID,
			OpenedBy:    actor.UserID,
			Start:       s.now(),
			OpenKey:     &key,
			InitialCash: initialCash,
		}
		if err := insertOpen(tx, &shift, "Sif Kasir sudah dimulai"); err != nil {
			return err
		}
		return logShift(tx, actor, "cashier", shift.ID, &branchID, models.AuditActionStart, shift)
	})
	if err != nil {
		return nil, err
	}
	metrics.ShiftsStarted.WithLabelValues("cashier").Inc()
	return &shift, nil
}

// UpdateCashierShift adds and removes till entries and updates notes in one
// transaction. Deletions are scoped to the shift so foreign ids are ignored.
func (s *Service) UpdateCashierShift(ctx context.Context, actor auth.Actor, id uint, in UpdateCashierInput) (*models.CashierShift, error) {
	err := s.tx(ctx, func(tx *gorm.DB) error {
		shift, err := lockByID[models.CashierShift](tx, id, "Sif Kasir tidak ditemukan")
		if err != nil {
			return err
		}
		if shift.End != nil {
			return apperr.Conflict("Sif Kasir telah diakhiri")
		}

		if len(in.CashIn) > 0 {
			rows := make([]models.CashierShiftCashIn, 0, len(in.CashIn))
			for _, ci := range in.CashIn {
				rows = append(rows, models.CashierShiftCashIn{
					CashierShiftID: shift.ID,
					Description:    ci.Description,
					Amount:         ci.Amount,
					CreatedBy:      actor.UserID,
				})
			}
			if err := tx.Create(&rows).Error; err != nil {
				return err
			}
		}

		if len(in.CashOut) > 0 {
			rows := make([]models.CashierShiftCashOut, 0, len(in.CashOut))
			for _, co := range in.CashOut {
				rows = append(rows, models.CashierShiftCashOut{
					CashierShiftID: shift.ID,
					Description:    co.Description,
					Quantity:       co.Quantity,
					UnitPrice:      co.UnitPrice,
					Amount:         int64(co.Quantity) * co.UnitPrice,
					CreatedBy:      actor.UserID,
				})
			}
			if err := tx.Create(&rows).Error; err != nil {
				return err
			}
		}

		if len(in.DeleteCashIn) > 0 {
			if err := tx.Where("cashier_shift_id = ? AND id IN ?", shift.ID, in.DeleteCashIn).
				Delete(&models.CashierShiftCashIn{}).Error; err != nil {
				return err
			}
		}
		if len(in.DeleteCashOut) > 0 {
			if err := tx.Where("cashier_shift_id = ? AND id IN ?", shift.ID, in.DeleteCashOut).
				Delete(&models.CashierShiftCashOut{}).Error; err != nil {
				return err
			}
		}

		if in.Notes != nil {
			if err := tx.Model(&models.CashierShift{}).Where("id = ?", shift.ID).Update("notes", *in.Notes).Error; err != nil {
				return err
			}
		}
		return logShift(tx, actor, "cashier", shift.ID, &shift.BranchID, models.AuditActionUpdate, in)
	})
	if err != nil {
		return nil, err
	}
	return s.cashierWithEntries(ctx, id)
}

// EndCashierShift closes the till with the counted cash.
func (s *Service) EndCashierShift(ctx context.Context, actor auth.Actor, id uint, actualCash int64) (*models.CashierShift, error) {
	if actualCash < 0 {
		return nil, apperr.BadRequest("Kas akhir tidak boleh negatif")
	}
	err := s.tx(ctx, func(tx *gorm.DB) error {
		shift, err := lockByID[models.CashierShift](tx, id, "Sif Kasir tidak ditemukan")
		if err != nil {
			return err
		}
		if shift.End != nil {
			return apperr.Conflict("Sif Kasir telah diakhiri")
		}
		if err := closeShift(tx, &models.CashierShift{}, shift.ID, &actor.UserID, s.now(),
			map[string]any{"final_cash": actualCash}); err != nil {
			return err
		}
		return logShift(tx, actor, "cashier", shift.ID, &shift.BranchID, models.AuditActionEnd,
			map[string]int64{"final_cash": actualCash})
	})
	if err != nil {
		return nil, err
	}
	return s.cashierWithEntries(ctx, id)
}

func (s *Service) cashierWithEntries(ctx context.Context, id uint) (*models.CashierShift, error) {
	var shift models.CashierShift
	err := s.db.WithContext(ctx).Preload("CashIns").Preload("CashOuts").First(&shift, id).Error
	if err != nil {
		return nil, err
	}
	return &shift, nil
}
