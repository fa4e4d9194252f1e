package shift

import (
	"context"

	"github.com/PramesRay/pos-service/internal/apperr"
	"github.com/PramesRay/pos-service/internal/auth"
	"github.com/PramesRay/pos-service/internal/kitchenstock"
	"github.com/PramesRay/pos-service/internal/metrics"
	"github.com/PramesRay/pos-service/internal/models"

	"gorm.io/gorm"
)

type StartKitchenInput struct {
	InitialMenu []kitchenstock.Line `json:"initial_menu" validate:"dive"`
	Notes       string              `json:"notes"`
}

type UpdateKitchenInput struct {
	FinalMenu []kitchenstock.Line `json:"final_menu" validate:"dive"`
	Notes     *string             `json:"notes"`
}

func (s *Service) StartKitchenShift(ctx context.Context, actor auth.Actor, branchID uint, in StartKitchenInput) (*models.KitchenShift, error) {
	var shift models.KitchenShift
	err := s.tx(ctx, func(tx *gorm.DB) error {
		if err := branchExists(tx, branchID); err != nil {
			return err
		}
		err := ensureNoneOpen(func() (*models.KitchenShift, error) {
			return OpenKitchenShift(tx, branchID)
		}, "Sif Dapur sudah dimulai")
		if err != nil {
			return err
		}

		lines := kitchenstock.Aggregate(in.InitialMenu)
		if err := menusBelongTo(tx, branchID, lines); err != nil {
			return err
		}

		key := branchID
		shift = models.KitchenShift{
			BranchID: branchID,
			OpenedBy: actor.UserID,
			Start:    s.now(),
			OpenKey:  &key,
			Notes:    in.Notes,
		}
		if err := insertOpen(tx, &shift, "Sif Dapur sudah dimulai"); err != nil {
			return err
		}

		if len(lines) > 0 {
			details := make([]models.KitchenShiftDetail, 0, len(lines))
			for _, l := range lines {
				details = append(details, models.KitchenShiftDetail{
					KitchenShiftID: shift.ID,
					MenuID:         l.MenuID,
					InitialStock:   l.Quantity,
					EndStock:       l.Quantity,
				})
			}
			if err := tx.Create(&details).Error; err != nil {
				return err
			}
			shift.Details = details
		}
		return logShift(tx, actor, "kitchen", shift.ID, &branchID, models.AuditActionStart, shift)
	})
	if err != nil {
		return nil, err
	}
	metrics.ShiftsStarted.WithLabelValues("kitchen").Inc()
	return &shift, nil
}

// UpdateKitchenShift records a physical stock count and/or notes on an open
// kitchen shift.
func (s *Service) UpdateKitchenShift(ctx context.Context, actor auth.Actor, id uint, in UpdateKitchenInput) (*models.KitchenShift, error) {
	var shift *models.KitchenShift
	err := s.tx(ctx, func(tx *gorm.DB) error {
		var err error
		shift, err = lockByID[models.KitchenShift](tx, id, "Sif Dapur tidak ditemukan")
		if err != nil {
			return err
		}
		if shift.End != nil {
			return apperr.Conflict("Sif telah diakhiri")
		}
		if err := menusBelongTo(tx, shift.BranchID, in.FinalMenu); err != nil {
			return err
		}
		if err := kitchenstock.SetFinal(tx, shift.ID, in.FinalMenu); err != nil {
			return err
		}
		if in.Notes != nil {
			shift.Notes = *in.Notes
			if err := tx.Model(&models.KitchenShift{}).Where("id = ?", shift.ID).Update("notes", *in.Notes).Error; err != nil {
				return err
			}
		}
		return logShift(tx, actor, "kitchen", shift.ID, &shift.BranchID, models.AuditActionUpdate, in)
	})
	if err != nil {
		return nil, err
	}
	return s.kitchenWithDetails(ctx, shift.ID)
}

// EndKitchenShift optionally applies a final count, then closes the shift.
// From then on its detail rows are frozen.
func (s *Service) EndKitchenShift(ctx context.Context, actor auth.Actor, id uint, finalMenu []kitchenstock.Line) (*models.KitchenShift, error) {
	err := s.tx(ctx, func(tx *gorm.DB) error {
		shift, err := lockByID[models.KitchenShift](tx, id, "Sif Dapur tidak ditemukan")
		if err != nil {
			return err
		}
		if shift.End != nil {
			return apperr.Conflict("Sif telah diakhiri")
		}
		if err := menusBelongTo(tx, shift.BranchID, finalMenu); err != nil {
			return err
		}
		if err := kitchenstock.SetFinal(tx, shift.ID, finalMenu); err != nil {
			return err
		}
		if err := closeShift(tx, &models.KitchenShift{}, shift.ID, &actor.UserID, s.now(), nil); err != nil {
			return err
		}
		return logShift(tx, actor, "kitchen", shift.ID, &shift.BranchID, models.AuditActionEnd, finalMenu)
	})
	if err != nil {
		return nil, err
	}
	return s.kitchenWithDetails(ctx, id)
}

func (s *Service) kitchenWithDetails(ctx context.Context, id uint) (*models.KitchenShift, error) {
	var shift models.KitchenShift
	if err := s.db.WithContext(ctx).Preload("Details").First(&shift, id).Error; err != nil {
		return nil, err
	}
	return &shift, nil
}

func branchExists(tx *gorm.DB, branchID uint) error {
	var n int64
	if err := tx.Model(&models.Branch{}).Where("id = ?", branchID).Count(&n).Error; err != nil {
		return err
	}
	if n == 0 {
		return apperr.NotFound("Cabang tidak ditemukan")
	}
	return nil
}

// menusBelongTo rejects stock lines for menus of another branch.
func menusBelongTo(tx *gorm.DB, branchID uint, lines []kitchenstock.Line) error {
	if len(lines) == 0 {
		return nil
	}
	ids := make([]uint, 0, len(lines))
	seen := make(map[uint]bool, len(lines))
	for _, l := range lines {
		if !seen[l.MenuID] {
			seen[l.MenuID] = true
			ids = append(ids, l.MenuID)
		}
	}
	var n int64
	if err := tx.Model(&models.Menu{}).Where("branch_id = ? AND id IN ?", branchID, ids).Count(&n).Error; err != nil {
		return err
	}
	if int(n) != len(ids) {
		return apperr.BadRequest("Menu tidak terdaftar di cabang ini")
	}
	return nil
}
