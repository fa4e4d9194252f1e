package shift

import (
	"context"
	"errors"

	"github.com/PramesRay/pos-service/internal/apperr"
	"github.com/PramesRay/pos-service/internal/models"

	"gorm.io/gorm"
)

type OrderCounts struct {
	Total     int64 `json:"total"`
	Completed int64 `json:"completed"`
	Canceled  int64 `json:"canceled"`
}

type RequestCounts struct {
	Total    int64 `json:"total"`
	Approved int64 `json:"approved"`
	Rejected int64 `json:"rejected"`
	Pending  int64 `json:"pending"`
}

type MenuStock struct {
	MenuID  uint   `json:"menu_id"`
	Name    string `json:"name"`
	Initial int    `json:"initial"`
	Final   int    `json:"final"`
}

type KitchenReport struct {
	models.KitchenShift
	QuantityMenu []MenuStock   `json:"quantity_menu"`
	Orders       OrderCounts   `json:"orders"`
	Requests     RequestCounts `json:"requests"`
}

type CashierReport struct {
	models.CashierShift
	Totals
	Orders OrderCounts `json:"orders"`
}

type WarehouseReport struct {
	models.WarehouseShift
	MovementsIn  int64         `json:"stock_in"`
	MovementsOut int64         `json:"stock_out"`
	Requests     RequestCounts `json:"requests"`
}

// -------------------------------------------------
// Kitchen
// -------------------------------------------------

// CurrentKitchenShift reports on the latest kitchen shift of the branch,
// whether or not it is still open. nil when the branch never had one.
func (s *Service) CurrentKitchenShift(ctx context.Context, branchID uint) (*KitchenReport, error) {
	var shift models.KitchenShift
	if err := latest(s.db.WithContext(ctx).Where("branch_id = ?", branchID), &shift); err != nil || shift.ID == 0 {
		return nil, err
	}
	reports, err := s.kitchenReports(ctx, []models.KitchenShift{shift})
	if err != nil {
		return nil, err
	}
	return &reports[0], nil
}

func (s *Service) ListKitchenShifts(ctx context.Context, f ListFilter) ([]KitchenReport, error) {
	var shifts []models.KitchenShift
	if err := f.scope(s.db.WithContext(ctx).Model(&models.KitchenShift{}), true).Find(&shifts).Error; err != nil {
		return nil, err
	}
	return s.kitchenReports(ctx, shifts)
}

func (s *Service) kitchenReports(ctx context.Context, shifts []models.KitchenShift) ([]KitchenReport, error) {
	out := make([]KitchenReport, len(shifts))
	if len(shifts) == 0 {
		return out, nil
	}
	ids := make([]uint, len(shifts))
	index := make(map[uint]int, len(shifts))
	for i, sh := range shifts {
		ids[i] = sh.ID
		index[sh.ID] = i
		out[i] = KitchenReport{KitchenShift: sh, QuantityMenu: []MenuStock{}}
	}
	db := s.db.WithContext(ctx)

	var details []models.KitchenShiftDetail
	if err := db.Preload("Menu").Where("kitchen_shift_id IN ?", ids).Order("menu_id").Find(&details).Error; err != nil {
		return nil, err
	}
	for _, d := range details {
		ms := MenuStock{MenuID: d.MenuID, Initial: d.InitialStock, Final: d.EndStock}
		if d.Menu != nil {
			ms.Name = d.Menu.Name
		}
		r := &out[index[d.KitchenShiftID]]
		r.QuantityMenu = append(r.QuantityMenu, ms)
	}

	orders, err := countByStatus(db.Model(&models.Order{}), "kitchen_shift_id", ids)
	if err != nil {
		return nil, err
	}
	for _, row := range orders {
		out[index[row.ShiftID]].Orders.add(models.OrderStatus(row.Status), row.Count)
	}

	requests, err := countByStatus(db.Model(&models.StockRequest{}), "kitchen_shift_id", ids)
	if err != nil {
		return nil, err
	}
	for _, row := range requests {
		out[index[row.ShiftID]].Requests.add(models.StockRequestStatus(row.Status), row.Count)
	}
	return out, nil
}

// -------------------------------------------------
// Cashier
// -------------------------------------------------

func (s *Service) CurrentCashierShift(ctx context.Context, branchID uint) (*CashierReport, error) {
	var shift models.CashierShift
	q := s.db.WithContext(ctx).Preload("CashIns").Preload("CashOuts").Where("branch_id = ?", branchID)
	if err := latest(q, &shift); err != nil || shift.ID == 0 {
		return nil, err
	}
	reports, err := s.cashierReports(ctx, []models.CashierShift{shift})
	if err != nil {
		return nil, err
	}
	return &reports[0], nil
}

func (s *Service) CashierShiftReport(ctx context.Context, id uint) (*CashierReport, error) {
	var shift models.CashierShift
	err := s.db.WithContext(ctx).Preload("CashIns").Preload("CashOuts").Preload("Branch").First(&shift, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperr.NotFound("Sif Kasir tidak ditemukan")
	}
	if err != nil {
		return nil, err
	}
	reports, err := s.cashierReports(ctx, []models.CashierShift{shift})
	if err != nil {
		return nil, err
	}
	return &reports[0], nil
}

func (s *Service) ListCashierShifts(ctx context.Context, f ListFilter) ([]CashierReport, error) {
	var shifts []models.CashierShift
	q := s.db.WithContext(ctx).Model(&models.CashierShift{}).Preload("CashIns").Preload("CashOuts")
	if err := f.scope(q, true).Find(&shifts).Error; err != nil {
		return nil, err
	}
	return s.cashierReports(ctx, shifts)
}

type paymentRow struct {
	ShiftID uint
	Method  string
	Status  string
	Amount  int64
}

type refundRow struct {
	ShiftID uint
	Method  string
	Amount  int64
}

func (s *Service) cashierReports(ctx context.Context, shifts []models.CashierShift) ([]CashierReport, error) {
	out := make([]CashierReport, len(shifts))
	if len(shifts) == 0 {
		return out, nil
	}
	ids := make([]uint, len(shifts))
	index := make(map[uint]int, len(shifts))
	for i, sh := range shifts {
		ids[i] = sh.ID
		index[sh.ID] = i
	}
	db := s.db.WithContext(ctx)

	var payments []paymentRow
	if err := db.Model(&models.OrderPayment{}).
		Select("orders.cashier_shift_id AS shift_id, order_payments.method AS method, order_payments.status AS status, SUM(order_payments.amount) AS amount").
		Joins("JOIN orders ON orders.id = order_payments.order_id").
		Where("orders.cashier_shift_id IN ?", ids).
		Group("orders.cashier_shift_id, order_payments.method, order_payments.status").
		Scan(&payments).Error; err != nil {
		return nil, err
	}

	var refunds []refundRow
	if err := db.Model(&models.RefundItem{}).
		Select("orders.cashier_shift_id AS shift_id, refund_items.method AS method, SUM(refund_items.amount) AS amount").
		Joins("JOIN order_items ON order_items.id = refund_items.order_item_id").
		Joins("JOIN orders ON orders.id = order_items.order_id").
		Where("orders.cashier_shift_id IN ?", ids).
		Group("orders.cashier_shift_id, refund_items.method").
		Scan(&refunds).Error; err != nil {
		return nil, err
	}

	orders, err := countByStatus(db.Model(&models.Order{}), "cashier_shift_id", ids)
	if err != nil {
		return nil, err
	}

	inputs := make([]ReconcileInput, len(shifts))
	for i, sh := range shifts {
		inputs[i] = ReconcileInput{InitialCash: sh.InitialCash, FinalCash: sh.FinalCash, Refunds: map[string]int64{}}
		for _, ci := range sh.CashIns {
			inputs[i].CashIn += ci.Amount
		}
		for _, co := range sh.CashOuts {
			inputs[i].CashOut += co.Amount
		}
	}
	for _, p := range payments {
		in := &inputs[index[p.ShiftID]]
		in.Payments = append(in.Payments, PaymentTotal{Method: p.Method, Status: models.PaymentStatus(p.Status), Amount: p.Amount})
	}
	for _, r := range refunds {
		inputs[index[r.ShiftID]].Refunds[r.Method] += r.Amount
	}

	for i, sh := range shifts {
		out[i] = CashierReport{CashierShift: sh, Totals: Reconcile(inputs[i])}
	}
	for _, row := range orders {
		out[index[row.ShiftID]].Orders.add(models.OrderStatus(row.Status), row.Count)
	}
	return out, nil
}

// -------------------------------------------------
// Warehouse
// -------------------------------------------------

func (s *Service) CurrentWarehouseShift(ctx context.Context) (*WarehouseReport, error) {
	var shift models.WarehouseShift
	if err := latest(s.db.WithContext(ctx), &shift); err != nil || shift.ID == 0 {
		return nil, err
	}
	reports, err := s.warehouseReports(ctx, []models.WarehouseShift{shift})
	if err != nil {
		return nil, err
	}
	return &reports[0], nil
}

func (s *Service) ListWarehouseShifts(ctx context.Context, f ListFilter) ([]WarehouseReport, error) {
	var shifts []models.WarehouseShift
	if err := f.scope(s.db.WithContext(ctx).Model(&models.WarehouseShift{}), false).Find(&shifts).Error; err != nil {
		return nil, err
	}
	return s.warehouseReports(ctx, shifts)
}

type movementRow struct {
	ShiftID uint
	Type    string
	Count   int64
}

func (s *Service) warehouseReports(ctx context.Context, shifts []models.WarehouseShift) ([]WarehouseReport, error) {
	out := make([]WarehouseReport, len(shifts))
	if len(shifts) == 0 {
		return out, nil
	}
	ids := make([]uint, len(shifts))
	index := make(map[uint]int, len(shifts))
	for i, sh := range shifts {
		ids[i] = sh.ID
		index[sh.ID] = i
		out[i] = WarehouseReport{WarehouseShift: sh}
	}
	db := s.db.WithContext(ctx)

	var moves []movementRow
	if err := db.Model(&models.StockMovement{}).
		Select("warehouse_shift_id AS shift_id, type, COUNT(*) AS count").
		Where("warehouse_shift_id IN ?", ids).
		Group("warehouse_shift_id, type").
		Scan(&moves).Error; err != nil {
		return nil, err
	}
	for _, m := range moves {
		r := &out[index[m.ShiftID]]
		if models.MovementType(m.Type) == models.MovementIn {
			r.MovementsIn += m.Count
		} else {
			r.MovementsOut += m.Count
		}
	}

	requests, err := countByStatus(db.Model(&models.StockRequest{}), "warehouse_shift_id", ids)
	if err != nil {
		return nil, err
	}
	for _, row := range requests {
		out[index[row.ShiftID]].Requests.add(models.StockRequestStatus(row.Status), row.Count)
	}
	return out, nil
}

// -------------------------------------------------
// helpers
// -------------------------------------------------

type statusRow struct {
	ShiftID uint
	Status  string
	Count   int64
}

func countByStatus(q *gorm.DB, column string, ids []uint) ([]statusRow, error) {
	var rows []statusRow
	err := q.Select(column+" AS shift_id, status, COUNT(*) AS count").
		Where(column+" IN ?", ids).
		Group(column + ", status").
		Scan(&rows).Error
	return rows, err
}

// latest loads the most recently started row into dst; dst stays zero when
// there is none.
func latest(q *gorm.DB, dst any) error {
	err := q.Order("started_at DESC").Order("id DESC").First(dst).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil
	}
	return err
}

func (c *OrderCounts) add(status models.OrderStatus, n int64) {
	c.Total += n
	switch status {
	case models.OrderFinished:
		c.Completed += n
	case models.OrderCanceled:
		c.Canceled += n
	}
}

func (c *RequestCounts) add(status models.StockRequestStatus, n int64) {
	c.Total += n
	switch status {
	case models.RequestFinished:
		c.Approved += n
	case models.RequestRejected:
		c.Rejected += n
	case models.RequestPending:
		c.Pending += n
	}
}
