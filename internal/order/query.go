package order

import (
	"context"
	"errors"
	"time"

	"github.com/PramesRay/pos-service/internal/models"
	"github.com/PramesRay/pos-service/internal/shift"
)

// statusPriority keeps the kitchen queue on top: Pending, Diproses, Tersaji,
// then everything that is finished.
const statusPriority = `CASE orders.status
	WHEN 'Pending' THEN 0
	WHEN 'Diproses' THEN 1
	WHEN 'Tersaji' THEN 2
	ELSE 3 END`

type ListFilter struct {
	BranchID       *uint
	KitchenShiftID *uint
	AllShifts      bool
	CreatedBy      *uint
	CustomerPhone  string
	Status         models.OrderStatus
	Limit          int
	Offset         int
}

// ListOrders lists orders with their items and payment. With a branch and no
// explicit shift, only orders of the branch's open kitchen shift are shown
// unless AllShifts is set.
func (s *Service) ListOrders(ctx context.Context, f ListFilter) ([]models.Order, error) {
	db := s.db.WithContext(ctx)
	q := withDetails(db.Model(&models.Order{}))

	if f.BranchID != nil {
		q = q.Where("orders.branch_id = ?", *f.BranchID)
		if f.KitchenShiftID == nil && !f.AllShifts {
			ks, err := shift.OpenKitchenShift(db, *f.BranchID)
			switch {
			case err == nil:
				q = q.Where("orders.kitchen_shift_id = ?", ks.ID)
			case !errors.Is(err, shift.ErrNoOpenShift):
				return nil, err
			}
		}
	}
	if f.KitchenShiftID != nil {
		q = q.Where("orders.kitchen_shift_id = ?", *f.KitchenShiftID)
	}
	if f.CreatedBy != nil {
		q = q.Where("orders.created_by = ?", *f.CreatedBy)
	}
	if f.CustomerPhone != "" {
		q = q.Joins("JOIN customers ON customers.id = orders.customer_id").
			Where("customers.phone = ?", f.CustomerPhone)
	}
	if f.Status != "" {
		q = q.Where("orders.status = ?", f.Status)
	}

	limit := f.Limit
	if limit <= 0 || limit > 200 {
		limit = 100
	}
	offset := f.Offset
	if offset < 0 {
		offset = 0
	}

	var orders []models.Order
	err := q.Order(statusPriority).Order("orders.created_at ASC").
		Limit(limit).Offset(offset).Find(&orders).Error
	return orders, err
}

type BranchSummary struct {
	BranchID   uint   `json:"branch_id"`
	BranchName string `json:"branch_name"`
	Orders     int64  `json:"orders"`
	Amount     int64  `json:"amount"`
}

type SummaryFilter struct {
	BranchID *uint
	Status   models.OrderStatus
	Day      time.Time
}

// Summary counts orders per branch for one calendar day in the service time
// zone. Status defaults to Selesai and Day to today.
func (s *Service) Summary(ctx context.Context, f SummaryFilter) ([]BranchSummary, error) {
	status := f.Status
	if status == "" {
		status = models.OrderFinished
	}
	day := f.Day
	if day.IsZero() {
		day = s.now()
	}
	day = day.In(s.loc)
	from := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, s.loc)
	to := from.AddDate(0, 0, 1)

	q := s.db.WithContext(ctx).Model(&models.Order{}).
		Select("orders.branch_id AS branch_id, branches.name AS branch_name, COUNT(orders.id) AS orders, COALESCE(SUM(order_payments.amount), 0) AS amount").
		Joins("JOIN branches ON branches.id = orders.branch_id").
		Joins("LEFT JOIN order_payments ON order_payments.order_id = orders.id").
		Where("orders.status = ?", status).
		Where("orders.ordered_at >= ? AND orders.ordered_at < ?", from, to)
	if f.BranchID != nil {
		q = q.Where("orders.branch_id = ?", *f.BranchID)
	}

	var out []BranchSummary
	err := q.Group("orders.branch_id, branches.name").Order("orders.branch_id").Scan(&out).Error
	return out, err
}
