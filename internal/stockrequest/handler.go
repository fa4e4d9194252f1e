package stockrequest

import (
	"github.com/PramesRay/pos-service/internal/apperr"
	"github.com/PramesRay/pos-service/internal/auth"
	"github.com/PramesRay/pos-service/internal/models"
	"github.com/PramesRay/pos-service/internal/request"
	"github.com/PramesRay/pos-service/internal/response"

	"github.com/gofiber/fiber/v2"
)

// GET /api/inventory/stock-requests?branch_id=&kitchen_shift_id=&warehouse_shift_id=&status=
func ListHandler(svc *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		actor, err := auth.MustActor(c)
		if err != nil {
			return err
		}
		var f ListFilter
		requested, err := request.QueryUint(c, "branch_id")
		if err != nil {
			return err
		}
		if f.BranchID, err = auth.BranchFilter(actor, requested); err != nil {
			return err
		}
		if f.KitchenShiftID, err = request.QueryUint(c, "kitchen_shift_id"); err != nil {
			return err
		}
		if f.WarehouseShiftID, err = request.QueryUint(c, "warehouse_shift_id"); err != nil {
			return err
		}
		f.Status = models.StockRequestStatus(c.Query("status"))
		f.Limit = c.QueryInt("limit", 100)
		f.Offset = c.QueryInt("offset", 0)

		list, err := svc.List(c.UserContext(), f)
		if err != nil {
			return err
		}
		return response.OK(c, "Daftar permintaan stok", list)
	}
}

// POST /api/inventory/stock-requests
func CreateHandler(svc *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		actor, err := auth.MustActor(c)
		if err != nil {
			return err
		}
		var body CreateRequest
		if err := request.Bind(c, &body); err != nil {
			return err
		}
		branch := body.BranchID
		if body.BranchID, err = auth.BranchForRequest(actor, &branch); err != nil {
			return err
		}
		sr, err := svc.Create(c.UserContext(), actor, body)
		if err != nil {
			return err
		}
		return response.Created(c, "Permintaan stok dibuat", sr)
	}
}

// PUT /api/inventory/stock-requests/:id
// Body carries "type": "updateStock" (kitchen) or "approveStock" (warehouse).
func UpdateHandler(svc *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		actor, err := auth.MustActor(c)
		if err != nil {
			return err
		}
		id, err := request.ParamUint(c, "id")
		if err != nil {
			return err
		}
		a, err := DecodeAction(c.Body())
		if err != nil {
			return err
		}
		switch a.(type) {
		case Approve:
			if !auth.Can(actor, auth.ActionApproveStock) {
				return apperr.Forbidden("Tidak memiliki akses untuk menyetujui permintaan stok")
			}
		default:
			if !auth.Can(actor, auth.ActionRequestStock) {
				return apperr.Forbidden("Tidak memiliki akses untuk mengubah permintaan stok")
			}
		}
		sr, err := svc.Update(c.UserContext(), actor, id, a)
		if err != nil {
			return err
		}
		return response.OK(c, "Permintaan stok diperbarui", sr)
	}
}

// PUT /api/inventory/stock-requests/:id/ready
func ReadyHandler(svc *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		actor, err := auth.MustActor(c)
		if err != nil {
			return err
		}
		id, err := request.ParamUint(c, "id")
		if err != nil {
			return err
		}
		sr, err := svc.Ready(c.UserContext(), actor, id)
		if err != nil {
			return err
		}
		return response.OK(c, "Permintaan stok siap", sr)
	}
}

// PUT /api/inventory/stock-requests/:id/finish
func FinishHandler(svc *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		actor, err := auth.MustActor(c)
		if err != nil {
			return err
		}
		id, err := request.ParamUint(c, "id")
		if err != nil {
			return err
		}
		sr, err := svc.Finish(c.UserContext(), actor, id)
		if err != nil {
			return err
		}
		return response.OK(c, "Permintaan stok selesai", sr)
	}
}
