package order

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/PramesRay/pos-service/internal/apperr"
	"github.com/PramesRay/pos-service/internal/idgen"
	"github.com/PramesRay/pos-service/internal/kitchenstock"
	"github.com/PramesRay/pos-service/internal/metrics"
	"github.com/PramesRay/pos-service/internal/models"
	"github.com/PramesRay/pos-service/internal/payment"
	"github.com/PramesRay/pos-service/internal/shift"

	"github.com/gofiber/fiber/v2/log"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type CustomerInput struct {
	Name  string `json:"name" validate:"max=100"`
	Phone string `json:"phone" validate:"required,max=30"`
}

type ItemInput struct {
	MenuID   uint   `json:"item_id" validate:"required"`
	Quantity int    `json:"quantity"`
	Note     string `json:"note" validate:"max=255"`
}

type CreateRequest struct {
	BranchID      uint          `json:"branch_id"`
	Customer      CustomerInput `json:"customer" validate:"required"`
	Items         []ItemInput   `json:"items" validate:"required,min=1,dive"`
	IsTakeAway    bool          `json:"is_take_away"`
	TableNumber   *int          `json:"table_number" validate:"omitempty,gt=0"`
	PaymentMethod string        `json:"payment_method" validate:"max=30"`
}

func (r CreateRequest) lines() []kitchenstock.Line {
	lines := make([]kitchenstock.Line, 0, len(r.Items))
	for _, it := range r.Items {
		lines = append(lines, kitchenstock.Line{MenuID: it.MenuID, Quantity: it.Quantity})
	}
	return kitchenstock.Aggregate(lines)
}

func (r CreateRequest) check() error {
	if len(r.lines()) == 0 {
		return apperr.BadRequest("Item pesanan tidak valid")
	}
	if r.BranchID == 0 {
		return apperr.BadRequest("branch_id wajib diisi")
	}
	if !r.IsTakeAway && r.TableNumber == nil {
		return apperr.BadRequest("Nomor meja wajib diisi untuk makan di tempat")
	}
	return nil
}

// CreateOrder records an order whose payment is settled later. Stock is
// reserved in the same transaction.
func (s *Service) CreateOrder(ctx context.Context, caller Caller, req CreateRequest) (*models.Order, error) {
	return s.create(ctx, caller, req, false)
}

// CreateDirectPaymentOrder also settles the payment up front: cash is Lunas
// immediately, the gateway method gets a snap token before commit.
func (s *Service) CreateDirectPaymentOrder(ctx context.Context, caller Caller, req CreateRequest) (*models.Order, error) {
	if strings.TrimSpace(req.PaymentMethod) == "" {
		return nil, apperr.BadRequest("Metode pembayaran wajib diisi")
	}
	return s.create(ctx, caller, req, true)
}

func (s *Service) create(ctx context.Context, caller Caller, req CreateRequest, direct bool) (*models.Order, error) {
	if err := req.check(); err != nil {
		return nil, err
	}
	if caller.Source == SourceStaff && !caller.AllBranches &&
		(caller.BranchID == nil || *caller.BranchID != req.BranchID) {
		return nil, apperr.Forbidden("Tidak dapat membuat pesanan untuk cabang lain")
	}
	lines := req.lines()

	var order models.Order
	err := s.tx(ctx, func(tx *gorm.DB) error {
		ks, err := shift.LockOpenKitchenShift(tx, req.BranchID)
		if errors.Is(err, shift.ErrNoOpenShift) {
			return apperr.NotFound("Tidak ada Sif Dapur yang aktif")
		}
		if err != nil {
			return err
		}
		cs, err := shift.OpenCashierShift(tx, req.BranchID)
		if errors.Is(err, shift.ErrNoOpenShift) {
			return apperr.NotFound("Tidak ada Sif Kasir yang aktif")
		}
		if err != nil {
			return err
		}

		customer, err := findOrCreateCustomer(tx, req.Customer)
		if err != nil {
			return err
		}
		if caller.Source == SourceCustomer {
			caller.UserID, caller.Name = customer.UserID, customer.Name
			if direct {
				if err := ensureNoUnpaid(tx, customer); err != nil {
					return err
				}
			}
		}

		if !req.IsTakeAway {
			if err := ensureTableFree(tx, ks.ID, *req.TableNumber, nil); err != nil {
				return err
			}
		}

		menus, err := branchMenus(tx, req.BranchID, lines)
		if err != nil {
			return err
		}
		ok, err := kitchenstock.Available(tx, ks.ID)
		if err != nil {
			return err
		}
		if !ok {
			metrics.StockConflicts.Inc()
			return apperr.Conflict(kitchenstock.MsgNoneLeft)
		}
		if err := kitchenstock.Reserve(tx, ks.ID, lines); err != nil {
			return err
		}

		order = models.Order{
			ID:             uuid.New(),
			Code:           idgen.Code(),
			BranchID:       req.BranchID,
			KitchenShiftID: ks.ID,
			CashierShiftID: cs.ID,
			CustomerID:     customer.ID,
			IsTakeAway:     req.IsTakeAway,
			Status:         models.OrderPending,
			OrderedAt:      s.now(),
			CreatedBy:      caller.UserID,
			UpdatedBy:      caller.UserID,
		}
		if !req.IsTakeAway {
			order.TableNumber = req.TableNumber
		}
		for _, it := range req.Items {
			if it.Quantity <= 0 {
				continue
			}
			order.Items = append(order.Items, models.OrderItem{
				MenuID:   it.MenuID,
				Quantity: it.Quantity,
				Note:     it.Note,
				Status:   models.OrderPending,
			})
		}

		var amount int64
		for _, it := range order.Items {
			amount += int64(it.Quantity) * menus[it.MenuID].Price
		}
		order.Payment = &models.OrderPayment{
			Method: strings.TrimSpace(req.PaymentMethod),
			Amount: amount,
			Status: models.PaymentPending,
		}
		if direct && order.Payment.Method != models.PaymentMethodMidtrans {
			order.Payment.Status = models.PaymentPaid
		}

		if err := tx.Create(&order).Error; err != nil {
			return err
		}

		for i := range order.Items {
			m := menus[order.Items[i].MenuID]
			order.Items[i].Menu = &m
		}
		order.Customer = customer

		if direct && order.Payment.Method == models.PaymentMethodMidtrans {
			token, err := s.gatewayToken(ctx, &order, amount)
			if err != nil {
				return err
			}
			order.Payment.SnapToken = &token.Token
			if err := tx.Model(&models.OrderPayment{}).Where("id = ?", order.Payment.ID).
				Update("snap_token", token.Token).Error; err != nil {
				return err
			}
		}

		return logOrder(tx, caller, &order, models.AuditActionCreate,
			fmt.Sprintf("Pesanan %s dibuat", order.Code), nil, order)
	})
	if err != nil {
		return nil, err
	}

	label := string(caller.Source)
	if direct {
		label += "_direct"
	}
	metrics.OrdersCreated.WithLabelValues(label).Inc()
	return &order, nil
}

// findOrCreateCustomer resolves a customer by phone. The insert runs in a
// savepoint so a concurrent first order with the same phone loses the race
// cleanly and re-reads the winner's row.
func findOrCreateCustomer(tx *gorm.DB, in CustomerInput) (*models.Customer, error) {
	phone := strings.TrimSpace(in.Phone)
	if phone == "" {
		return nil, apperr.BadRequest("Nomor telepon pelanggan wajib diisi")
	}

	var c models.Customer
	err := tx.Where("phone = ?", phone).First(&c).Error
	if err == nil {
		return &c, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	err = tx.Transaction(func(sp *gorm.DB) error {
		user := models.User{Type: models.UserTypeCustomer}
		if err := sp.Create(&user).Error; err != nil {
			return err
		}
		c = models.Customer{UserID: user.ID, Name: strings.TrimSpace(in.Name), Phone: phone}
		return sp.Create(&c).Error
	})
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		c = models.Customer{}
		if err := tx.Where("phone = ?", phone).First(&c).Error; err != nil {
			return nil, err
		}
		return &c, nil
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// ensureNoUnpaid blocks a customer from stacking self-service orders while a
// previous one is still waiting for payment.
func ensureNoUnpaid(tx *gorm.DB, c *models.Customer) error {
	var n int64
	err := tx.Model(&models.Order{}).
		Joins("JOIN order_payments ON order_payments.order_id = orders.id").
		Where("orders.customer_id = ? AND orders.created_by = ?", c.ID, c.UserID).
		Where("order_payments.status = ?", models.PaymentPending).
		Where("orders.status NOT IN ?", terminalStatuses).
		Count(&n).Error
	if err != nil {
		return err
	}
	if n > 0 {
		return apperr.Conflict("Masih ada pesanan yang belum dibayar")
	}
	return nil
}

var terminalStatuses = []models.OrderStatus{models.OrderFinished, models.OrderCanceled, models.OrderRefunded}

// ensureTableFree fails when another live order of the kitchen shift sits at
// the table. The caller holds the kitchen shift lock.
func ensureTableFree(tx *gorm.DB, kitchenShiftID uint, table int, except *uuid.UUID) error {
	q := tx.Model(&models.Order{}).
		Where("kitchen_shift_id = ? AND is_take_away = ? AND table_number = ?", kitchenShiftID, false, table).
		Where("status NOT IN ?", terminalStatuses)
	if except != nil {
		q = q.Where("id <> ?", *except)
	}
	var n int64
	if err := q.Count(&n).Error; err != nil {
		return err
	}
	if n > 0 {
		return apperr.Conflict(fmt.Sprintf("Meja %d sedang digunakan", table))
	}
	return nil
}

// branchMenus loads the menus referenced by lines, all of which must belong
// to the branch and be available.
func branchMenus(tx *gorm.DB, branchID uint, lines []kitchenstock.Line) (map[uint]models.Menu, error) {
	ids := make([]uint, len(lines))
	for i, l := range lines {
		ids[i] = l.MenuID
	}
	var menus []models.Menu
	if err := tx.Where("branch_id = ? AND id IN ?", branchID, ids).Find(&menus).Error; err != nil {
		return nil, err
	}
	out := make(map[uint]models.Menu, len(menus))
	for _, m := range menus {
		out[m.ID] = m
	}
	for _, id := range ids {
		m, ok := out[id]
		if !ok {
			return nil, apperr.BadRequest(fmt.Sprintf("Menu %d tidak ditemukan di cabang ini", id))
		}
		if !m.IsAvailable {
			return nil, apperr.Conflict(fmt.Sprintf("Menu %s sedang tidak tersedia", m.Name))
		}
	}
	return out, nil
}

// gatewayToken asks the gateway for a snap token covering the live items.
func (s *Service) gatewayToken(ctx context.Context, o *models.Order, amount int64) (payment.Token, error) {
	token, err := s.gateway.CreateTransaction(ctx, gatewayRequest(o, o.Customer, o.Items, amount))
	if err != nil {
		log.Errorf("order %s: %v", o.ID, err)
		return payment.Token{}, apperr.BadRequest("Gagal membuat pembayaran Midtrans")
	}
	return token, nil
}
