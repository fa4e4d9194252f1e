package order

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/PramesRay/pos-service/internal/apperr"
	"github.com/PramesRay/pos-service/internal/auth"
	"github.com/PramesRay/pos-service/internal/models"
	"github.com/PramesRay/pos-service/internal/payment"
	"github.com/PramesRay/pos-service/internal/request"
	"github.com/PramesRay/pos-service/internal/response"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

func orderID(c *fiber.Ctx) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return uuid.Nil, apperr.BadRequest("ID pesanan tidak valid")
	}
	return id, nil
}

// GET /api/orders?branch_id=&status=&created_by=&kitchen_shift_id=&all=true&phone=
func ListOrdersHandler(svc *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		actor, err := auth.MustActor(c)
		if err != nil {
			return err
		}
		requested, err := request.QueryUint(c, "branch_id")
		if err != nil {
			return err
		}
		f := ListFilter{
			CustomerPhone: strings.TrimSpace(c.Query("phone")),
			Status:        models.OrderStatus(c.Query("status")),
			AllShifts:     c.QueryBool("all", false),
			Limit:         c.QueryInt("limit", 100),
			Offset:        c.QueryInt("offset", 0),
		}
		if f.BranchID, err = auth.BranchFilter(actor, requested); err != nil {
			return err
		}
		if f.CreatedBy, err = request.QueryUint(c, "created_by"); err != nil {
			return err
		}
		if f.KitchenShiftID, err = request.QueryUint(c, "kitchen_shift_id"); err != nil {
			return err
		}
		orders, err := svc.ListOrders(c.UserContext(), f)
		if err != nil {
			return err
		}
		return response.OK(c, "Daftar pesanan", orders)
	}
}

// GET /api/orders/summary?branch_id=&status=Selesai&date=2024-01-31
func SummaryHandler(svc *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		actor, err := auth.MustActor(c)
		if err != nil {
			return err
		}
		requested, err := request.QueryUint(c, "branch_id")
		if err != nil {
			return err
		}
		f := SummaryFilter{Status: models.OrderStatus(c.Query("status"))}
		if f.BranchID, err = auth.BranchFilter(actor, requested); err != nil {
			return err
		}
		if raw := c.Query("date"); raw != "" {
			day, err := time.ParseInLocation("2006-01-02", raw, svc.loc)
			if err != nil {
				return apperr.BadRequest("Format tanggal harus YYYY-MM-DD")
			}
			f.Day = day
		}
		out, err := svc.Summary(c.UserContext(), f)
		if err != nil {
			return err
		}
		return response.OK(c, "Ringkasan pesanan", out)
	}
}

func bindCreate(c *fiber.Ctx, actor auth.Actor) (CreateRequest, error) {
	var req CreateRequest
	if err := request.Bind(c, &req); err != nil {
		return req, err
	}
	var requested *uint
	if req.BranchID != 0 {
		requested = &req.BranchID
	}
	branchID, err := auth.BranchForRequest(actor, requested)
	if err != nil {
		return req, err
	}
	req.BranchID = branchID
	return req, nil
}

// POST /api/orders
func CreateOrderHandler(svc *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		actor, err := auth.MustActor(c)
		if err != nil {
			return err
		}
		req, err := bindCreate(c, actor)
		if err != nil {
			return err
		}
		order, err := svc.CreateOrder(c.UserContext(), Staff(actor), req)
		if err != nil {
			return err
		}
		return response.Created(c, "Pesanan berhasil dibuat", order)
	}
}

// POST /api/orders/direct-payment
func CreateDirectPaymentOrderHandler(svc *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		actor, err := auth.MustActor(c)
		if err != nil {
			return err
		}
		req, err := bindCreate(c, actor)
		if err != nil {
			return err
		}
		order, err := svc.CreateDirectPaymentOrder(c.UserContext(), Staff(actor), req)
		if err != nil {
			return err
		}
		return response.Created(c, "Pesanan berhasil dibuat", order)
	}
}

// PUT /api/orders/:id  body: {"type": "updateStatus" | "updateItems" | "updatePayment" | "updateOrder", ...}
func UpdateOrderHandler(svc *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		actor, err := auth.MustActor(c)
		if err != nil {
			return err
		}
		id, err := orderID(c)
		if err != nil {
			return err
		}
		action, err := DecodeAction(c.Body())
		if err != nil {
			return err
		}
		order, err := svc.UpdateOrder(c.UserContext(), Staff(actor), id, action)
		if err != nil {
			return err
		}
		return response.OK(c, "Pesanan berhasil diperbarui", order)
	}
}

// PUT /api/orders/:id/refund
func RefundOrderHandler(svc *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		actor, err := auth.MustActor(c)
		if err != nil {
			return err
		}
		id, err := orderID(c)
		if err != nil {
			return err
		}
		var req RefundRequest
		if err := request.Bind(c, &req); err != nil {
			return err
		}
		order, err := svc.RefundOrderItems(c.UserContext(), Staff(actor), id, req)
		if err != nil {
			return err
		}
		return response.OK(c, "Refund berhasil", order)
	}
}

// -------------------------------------------------
// Customer self-service (public)
// -------------------------------------------------

// GET /api/orders/customer?phone=0812...
func ListCustomerOrdersHandler(svc *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		phone := strings.TrimSpace(c.Query("phone"))
		if phone == "" {
			return apperr.BadRequest("Nomor telepon wajib diisi")
		}
		orders, err := svc.ListOrders(c.UserContext(), ListFilter{
			CustomerPhone: phone,
			AllShifts:     true,
			Limit:         c.QueryInt("limit", 20),
		})
		if err != nil {
			return err
		}
		return response.OK(c, "Daftar pesanan", orders)
	}
}

// POST /api/orders/customer
func CreateCustomerOrderHandler(svc *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req CreateRequest
		if err := request.Bind(c, &req); err != nil {
			return err
		}
		order, err := svc.CreateDirectPaymentOrder(c.UserContext(), AsCustomer(req.Customer.Phone), req)
		if err != nil {
			return err
		}
		return response.Created(c, "Pesanan berhasil dibuat", order)
	}
}

// PUT /api/orders/customer/:id  body: {"type": "updatePayment", "phone": "...", "payment_method": "..."}
func UpdateCustomerOrderHandler(svc *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := orderID(c)
		if err != nil {
			return err
		}
		var who struct {
			Phone string `json:"phone"`
		}
		if err := json.Unmarshal(c.Body(), &who); err != nil || strings.TrimSpace(who.Phone) == "" {
			return apperr.BadRequest("Nomor telepon wajib diisi")
		}
		action, err := DecodeAction(c.Body())
		if err != nil {
			return err
		}
		order, err := svc.UpdateOrder(c.UserContext(), AsCustomer(who.Phone), id, action)
		if err != nil {
			return err
		}
		return response.OK(c, "Pesanan berhasil diperbarui", order)
	}
}

// POST /api/orders/webhook
func WebhookHandler(svc *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var n payment.Notification
		if err := c.BodyParser(&n); err != nil {
			return apperr.BadRequest("Format notifikasi tidak valid")
		}
		if err := svc.HandleWebhook(c.UserContext(), n); err != nil {
			return err
		}
		return response.OK(c, "OK", nil)
	}
}
