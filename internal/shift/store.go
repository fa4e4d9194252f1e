package shift

import (
	"errors"
	"time"

	"github.com/PramesRay/pos-service/internal/apperr"
	"github.com/PramesRay/pos-service/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ErrNoOpenShift is returned by the open lookups; callers turn it into the
// NotFound message that fits their operation.
var ErrNoOpenShift = errors.New("no open shift")

// Open lookups go through the open_key unique index, so they never have to
// reason about "latest shift with end IS NULL".

func OpenEmployeeShift(tx *gorm.DB, employeeID uint) (*models.EmployeeShift, error) {
	return findOpen[models.EmployeeShift](tx, employeeID, false)
}

func OpenKitchenShift(tx *gorm.DB, branchID uint) (*models.KitchenShift, error) {
	return findOpen[models.KitchenShift](tx, branchID, false)
}

// LockOpenKitchenShift also takes a row lock; order creation uses it to
// serialize table and stock checks per kitchen shift.
func LockOpenKitchenShift(tx *gorm.DB, branchID uint) (*models.KitchenShift, error) {
	return findOpen[models.KitchenShift](tx, branchID, true)
}

func OpenCashierShift(tx *gorm.DB, branchID uint) (*models.CashierShift, error) {
	return findOpen[models.CashierShift](tx, branchID, false)
}

func OpenWarehouseShift(tx *gorm.DB) (*models.WarehouseShift, error) {
	return findOpen[models.WarehouseShift](tx, models.WarehouseOpenKey, false)
}

// LockWarehouseShift loads a warehouse shift by id for update. Movements use
// it to refuse changes once the shift has ended.
func LockWarehouseShift(tx *gorm.DB, id uint) (*models.WarehouseShift, error) {
	return lockByID[models.WarehouseShift](tx, id, "Sif Gudang tidak ditemukan")
}

func findOpen[T any](tx *gorm.DB, key uint, lock bool) (*T, error) {
	q := tx.Where("open_key = ?", key)
	if lock {
		q = q.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	var s T
	err := q.First(&s).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNoOpenShift
	}
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// lockByID loads a shift row for update, mapping a missing row to NotFound.
func lockByID[T any](tx *gorm.DB, id uint, notFound string) (*T, error) {
	var s T
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&s, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperr.NotFound(notFound)
	}
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// ensureNoneOpen fails with Conflict when lookup finds an open shift.
func ensureNoneOpen[T any](lookup func() (*T, error), msg string) error {
	_, err := lookup()
	if err == nil {
		return apperr.Conflict(msg)
	}
	if errors.Is(err, ErrNoOpenShift) {
		return nil
	}
	return err
}

// insertOpen maps a unique violation on open_key to Conflict. It covers the
// race the pre-check cannot see.
func insertOpen(tx *gorm.DB, shift any, msg string) error {
	err := tx.Create(shift).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return apperr.Conflict(msg)
	}
	return err
}

// closeShift sets the end timestamp and releases the open_key slot.
func closeShift(tx *gorm.DB, model any, id uint, closedBy *uint, now time.Time, extra map[string]any) error {
	updates := map[string]any{
		"ended_at": now,
		"open_key": nil,
	}
	if closedBy != nil {
		updates["closed_by"] = *closedBy
	}
	for k, v := range extra {
		updates[k] = v
	}
	return tx.Model(model).Where("id = ?", id).Updates(updates).Error
}

type ListFilter struct {
	BranchID   *uint
	EmployeeID *uint
	From       *time.Time
	To         *time.Time
	Limit      int
}

// scope applies the filter with open shifts first, newest start next.
func (f ListFilter) scope(q *gorm.DB, branchColumn bool) *gorm.DB {
	if branchColumn && f.BranchID != nil {
		q = q.Where("branch_id = ?", *f.BranchID)
	}
	if f.From != nil {
		q = q.Where("started_at >= ?", *f.From)
	}
	if f.To != nil {
		q = q.Where("started_at < ?", *f.To)
	}
	limit := f.Limit
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	return q.Order("CASE WHEN ended_at IS NULL THEN 0 ELSE 1 END").Order("started_at DESC").Limit(limit)
}
