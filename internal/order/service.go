// Package order runs the order lifecycle: creation against the open kitchen
// and cashier shifts, status transitions, refunds and payment
// reconciliation.
package order

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/PramesRay/pos-service/internal/apperr"
	"github.com/PramesRay/pos-service/internal/audit"
	"github.com/PramesRay/pos-service/internal/auth"
	"github.com/PramesRay/pos-service/internal/kitchenstock"
	"github.com/PramesRay/pos-service/internal/metrics"
	"github.com/PramesRay/pos-service/internal/models"
	"github.com/PramesRay/pos-service/internal/payment"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const msgOrderNotFound = "Pesanan tidak ditemukan"

type Source string

const (
	SourceStaff    Source = "employee"
	SourceCustomer Source = "customer"
)

// Caller is who drives an operation. Customers are anonymous until their
// phone number resolves them, so UserID is only known for staff.
type Caller struct {
	Source      Source
	UserID      uint
	Name        string
	BranchID    *uint
	AllBranches bool
	Phone       string
}

func Staff(actor auth.Actor) Caller {
	return Caller{
		Source:      SourceStaff,
		UserID:      actor.UserID,
		Name:        actor.Name,
		BranchID:    actor.BranchID,
		AllBranches: auth.Can(actor, auth.ActionViewAllBranches),
	}
}

// AsCustomer identifies a self-service customer by phone number.
func AsCustomer(phone string) Caller {
	return Caller{Source: SourceCustomer, Name: "customer", Phone: strings.TrimSpace(phone)}
}

// on checks that the caller may touch o and returns the caller with its user
// resolved. Customers only see their own orders; staff only their branch.
func (c Caller) on(o *models.Order) (Caller, error) {
	switch c.Source {
	case SourceCustomer:
		if o.Customer == nil || c.Phone == "" || o.Customer.Phone != c.Phone {
			return c, apperr.NotFound(msgOrderNotFound)
		}
		c.UserID = o.Customer.UserID
		c.Name = o.Customer.Name
	default:
		if !c.AllBranches && (c.BranchID == nil || *c.BranchID != o.BranchID) {
			return c, apperr.Forbidden("Tidak dapat mengakses pesanan cabang lain")
		}
	}
	return c, nil
}

type Service struct {
	db        *gorm.DB
	gateway   payment.Gateway
	serverKey string
	loc       *time.Location
	now       func() time.Time
}

func NewService(db *gorm.DB, gateway payment.Gateway, serverKey string, loc *time.Location) *Service {
	if loc == nil {
		loc = time.Local
	}
	return &Service{db: db, gateway: gateway, serverKey: serverKey, loc: loc, now: time.Now}
}

func (s *Service) tx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return s.db.WithContext(ctx).Transaction(fn)
}

// Get loads an order with its items, menus, payment and customer.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	return loadOrder(s.db.WithContext(ctx), id, false)
}

func withDetails(q *gorm.DB) *gorm.DB {
	return q.Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("id") }).
		Preload("Items.Menu").
		Preload("Payment").
		Preload("Customer")
}

func loadOrder(tx *gorm.DB, id uuid.UUID, lock bool) (*models.Order, error) {
	q := tx
	if lock {
		q = q.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	var o models.Order
	err := withDetails(q).Where("id = ?", id).First(&o).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperr.NotFound(msgOrderNotFound)
	}
	if err != nil {
		return nil, err
	}
	if o.Payment == nil {
		return nil, apperr.NotFound("Pembayaran pesanan tidak ditemukan")
	}
	return &o, nil
}

func logOrder(tx *gorm.DB, caller Caller, o *models.Order, action models.AuditAction, desc string, before, after any) error {
	branchID := o.BranchID
	return audit.WriteLog(tx, audit.LogOptions{
		BranchID:    &branchID,
		UserID:      caller.UserID,
		UserName:    caller.Name,
		EntityType:  "order",
		EntityID:    o.ID,
		Action:      action,
		Description: desc,
		Before:      before,
		After:       after,
	})
}

// live reports whether an item still counts toward stock and amount.
func live(it models.OrderItem) bool {
	return it.Status != models.OrderCanceled && it.Status != models.OrderRefunded
}

func stockLines(items []models.OrderItem) []kitchenstock.Line {
	lines := make([]kitchenstock.Line, 0, len(items))
	for _, it := range items {
		if live(it) {
			lines = append(lines, kitchenstock.Line{MenuID: it.MenuID, Quantity: it.Quantity})
		}
	}
	return lines
}

// amountOf sums quantity x menu price over live items. Items must have
// their Menu loaded.
func amountOf(items []models.OrderItem) int64 {
	var total int64
	for _, it := range items {
		if live(it) && it.Menu != nil {
			total += int64(it.Quantity) * it.Menu.Price
		}
	}
	return total
}

// cancel moves the order and its live items to Batal, fails a pending
// payment and gives the reserved stock back to the kitchen shift.
func cancel(tx *gorm.DB, o *models.Order, by uint) error {
	lines := stockLines(o.Items)

	if err := tx.Model(&models.OrderItem{}).
		Where("order_id = ? AND status <> ?", o.ID, models.OrderRefunded).
		Update("status", models.OrderCanceled).Error; err != nil {
		return err
	}
	if err := tx.Model(&models.Order{}).Where("id = ?", o.ID).
		Updates(map[string]any{"status": models.OrderCanceled, "updated_by": by}).Error; err != nil {
		return err
	}
	if payment.CanTransition(o.Payment.Status, models.PaymentFailed) {
		if err := tx.Model(&models.OrderPayment{}).Where("id = ?", o.Payment.ID).
			Update("status", models.PaymentFailed).Error; err != nil {
			return err
		}
		o.Payment.Status = models.PaymentFailed
	}
	if err := kitchenstock.Release(tx, o.KitchenShiftID, lines); err != nil {
		return err
	}

	o.Status = models.OrderCanceled
	for i := range o.Items {
		if o.Items[i].Status != models.OrderRefunded {
			o.Items[i].Status = models.OrderCanceled
		}
	}
	metrics.OrdersCanceled.Inc()
	return nil
}

func gatewayRequest(o *models.Order, customer *models.Customer, items []models.OrderItem, amount int64) payment.TransactionRequest {
	req := payment.TransactionRequest{OrderID: o.ID.String(), Amount: amount}
	if customer != nil {
		req.Customer = payment.Customer{Name: customer.Name, Phone: customer.Phone}
	}
	for _, it := range items {
		if !live(it) || it.Menu == nil {
			continue
		}
		req.Items = append(req.Items, payment.Item{
			ID:       strconv.FormatUint(uint64(it.MenuID), 10),
			Name:     it.Menu.Name,
			Price:    it.Menu.Price,
			Quantity: it.Quantity,
		})
	}
	return req
}
