// Package shift implements the shift ledger: employee attendance, kitchen,
// cashier and warehouse shifts, each with at most one open shift per scope.
package shift

import (
	"context"
	"errors"
	"time"

	"github.com/PramesRay/pos-service/internal/apperr"
	"github.com/PramesRay/pos-service/internal/audit"
	"github.com/PramesRay/pos-service/internal/auth"
	"github.com/PramesRay/pos-service/internal/metrics"
	"github.com/PramesRay/pos-service/internal/models"

	"gorm.io/gorm"
)

type Service struct {
	db  *gorm.DB
	now func() time.Time
}

func NewService(db *gorm.DB) *Service {
	return &Service{db: db, now: time.Now}
}

func (s *Service) tx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return s.db.WithContext(ctx).Transaction(fn)
}

func logShift(tx *gorm.DB, actor auth.Actor, kind string, id uint, branchID *uint, action models.AuditAction, after any) error {
	return audit.WriteLog(tx, audit.LogOptions{
		BranchID:    branchID,
		UserID:      actor.UserID,
		UserName:    actor.Name,
		EntityType:  kind + "_shift",
		EntityID:    id,
		Action:      action,
		Description: kind + " shift " + string(action),
		After:       after,
	})
}

// -------------------------------------------------
// Employee shift (attendance)
// -------------------------------------------------

func (s *Service) StartEmployeeShift(ctx context.Context, actor auth.Actor) (*models.EmployeeShift, error) {
	var shift models.EmployeeShift
	err := s.tx(ctx, func(tx *gorm.DB) error {
		err := ensureNoneOpen(func() (*models.EmployeeShift, error) {
			return OpenEmployeeShift(tx, actor.EmployeeID)
		}, "Sif sudah dimulai")
		if err != nil {
			return err
		}

		key := actor.EmployeeID
		shift = models.EmployeeShift{
			EmployeeID: actor.EmployeeID,
			BranchID:   actor.BranchID,
			Start:      s.now(),
			OpenKey:    &key,
		}
		if err := insertOpen(tx, &shift, "Sif sudah dimulai"); err != nil {
			return err
		}
		return logShift(tx, actor, "employee", shift.ID, actor.BranchID, models.AuditActionStart, shift)
	})
	if err != nil {
		return nil, err
	}
	metrics.ShiftsStarted.WithLabelValues("employee").Inc()
	return &shift, nil
}

// EndEmployeeShift ends shift id, or the actor's own open shift when id is
// nil. Only managers may end someone else's shift.
func (s *Service) EndEmployeeShift(ctx context.Context, actor auth.Actor, id *uint) (*models.EmployeeShift, error) {
	var shift *models.EmployeeShift
	err := s.tx(ctx, func(tx *gorm.DB) error {
		var err error
		if id == nil {
			shift, err = OpenEmployeeShift(tx, actor.EmployeeID)
			if errors.Is(err, ErrNoOpenShift) {
				return apperr.NotFound("Sif tidak ditemukan")
			}
		} else {
			shift, err = lockByID[models.EmployeeShift](tx, *id, "Sif tidak ditemukan")
		}
		if err != nil {
			return err
		}
		if shift.EmployeeID != actor.EmployeeID && !auth.Can(actor, auth.ActionManageEmployees) {
			return apperr.Forbidden("Tidak dapat mengakhiri sif karyawan lain")
		}
		if shift.End != nil {
			return apperr.Conflict("Sif telah diakhiri")
		}

		now := s.now()
		if err := closeShift(tx, &models.EmployeeShift{}, shift.ID, nil, now, nil); err != nil {
			return err
		}
		shift.End = &now
		shift.OpenKey = nil
		return logShift(tx, actor, "employee", shift.ID, shift.BranchID, models.AuditActionEnd, shift)
	})
	if err != nil {
		return nil, err
	}
	return shift, nil
}

// CurrentEmployeeShift returns the latest shift of the employee, open or not.
func (s *Service) CurrentEmployeeShift(ctx context.Context, employeeID uint) (*models.EmployeeShift, error) {
	var shift models.EmployeeShift
	err := s.db.WithContext(ctx).Where("employee_id = ?", employeeID).
		Order("started_at DESC").Order("id DESC").First(&shift).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &shift, nil
}

func (s *Service) ListEmployeeShifts(ctx context.Context, f ListFilter) ([]models.EmployeeShift, error) {
	q := s.db.WithContext(ctx).Model(&models.EmployeeShift{}).Preload("Employee")
	if f.EmployeeID != nil {
		q = q.Where("employee_id = ?", *f.EmployeeID)
	}
	var list []models.EmployeeShift
	err := f.scope(q, true).Find(&list).Error
	return list, err
}

// -------------------------------------------------
// Warehouse shift (global scope)
// -------------------------------------------------

func (s *Service) StartWarehouseShift(ctx context.Context, actor auth.Actor, notes string) (*models.WarehouseShift, error) {
	var shift models.WarehouseShift
	err := s.tx(ctx, func(tx *gorm.DB) error {
		err := ensureNoneOpen(func() (*models.WarehouseShift, error) {
			return OpenWarehouseShift(tx)
		}, "Sif Gudang sudah dimulai")
		if err != nil {
			return err
		}

		key := models.WarehouseOpenKey
		shift = models.WarehouseShift{
			OpenedBy: actor.UserID,
			Start:    s.now(),
			OpenKey:  &key,
			Notes:    notes,
		}
		if err := insertOpen(tx, &shift, "Sif Gudang sudah dimulai"); err != nil {
			return err
		}
		return logShift(tx, actor, "warehouse", shift.ID, nil, models.AuditActionStart, shift)
	})
	if err != nil {
		return nil, err
	}
	metrics.ShiftsStarted.WithLabelValues("warehouse").Inc()
	return &shift, nil
}

func (s *Service) UpdateWarehouseShift(ctx context.Context, actor auth.Actor, id uint, notes string) (*models.WarehouseShift, error) {
	var shift *models.WarehouseShift
	err := s.tx(ctx, func(tx *gorm.DB) error {
		var err error
		shift, err = lockByID[models.WarehouseShift](tx, id, "Sif Gudang tidak ditemukan")
		if err != nil {
			return err
		}
		if shift.End != nil {
			return apperr.Conflict("Sif Gudang telah diakhiri")
		}
		shift.Notes = notes
		if err := tx.Model(&models.WarehouseShift{}).Where("id = ?", shift.ID).Update("notes", notes).Error; err != nil {
			return err
		}
		return logShift(tx, actor, "warehouse", shift.ID, nil, models.AuditActionUpdate, shift)
	})
	if err != nil {
		return nil, err
	}
	return shift, nil
}

func (s *Service) EndWarehouseShift(ctx context.Context, actor auth.Actor, id uint) (*models.WarehouseShift, error) {
	var shift *models.WarehouseShift
	err := s.tx(ctx, func(tx *gorm.DB) error {
		var err error
		shift, err = lockByID[models.WarehouseShift](tx, id, "Sif Gudang tidak ditemukan")
		if err != nil {
			return err
		}
		if shift.End != nil {
			return apperr.Conflict("Sif Gudang telah diakhiri")
		}
		now := s.now()
		if err := closeShift(tx, &models.WarehouseShift{}, shift.ID, &actor.UserID, now, nil); err != nil {
			return err
		}
		shift.End = &now
		shift.ClosedBy = &actor.UserID
		shift.OpenKey = nil
		return logShift(tx, actor, "warehouse", shift.ID, nil, models.AuditActionEnd, shift)
	})
	if err != nil {
		return nil, err
	}
	return shift, nil
}
