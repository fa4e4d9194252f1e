package inventory

import (
	"time"

	"github.com/PramesRay/pos-service/internal/apperr"
	"github.com/PramesRay/pos-service/internal/auth"
	"github.com/PramesRay/pos-service/internal/models"
	"github.com/PramesRay/pos-service/internal/request"
	"github.com/PramesRay/pos-service/internal/response"

	"github.com/gofiber/fiber/v2"
)

// GET /api/inventory/items?search=&low_stock=true
func ListItemsHandler(svc *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		items, err := svc.ListItems(c.UserContext(), ItemFilter{
			Search:   c.Query("search"),
			LowStock: c.QueryBool("low_stock"),
			Limit:    c.QueryInt("limit", 200),
			Offset:   c.QueryInt("offset", 0),
		})
		if err != nil {
			return err
		}
		return response.OK(c, "Daftar barang gudang", items)
	}
}

// POST /api/inventory/items
func CreateItemHandler(svc *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		actor, err := auth.MustActor(c)
		if err != nil {
			return err
		}
		var body ItemInput
		if err := request.Bind(c, &body); err != nil {
			return err
		}
		item, err := svc.CreateItem(c.UserContext(), actor, body)
		if err != nil {
			return err
		}
		return response.Created(c, "Barang gudang dibuat", item)
	}
}

// PUT /api/inventory/items/:id
func UpdateItemHandler(svc *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		actor, err := auth.MustActor(c)
		if err != nil {
			return err
		}
		id, err := request.ParamUint(c, "id")
		if err != nil {
			return err
		}
		var body ItemUpdate
		if err := request.Bind(c, &body); err != nil {
			return err
		}
		item, err := svc.UpdateItem(c.UserContext(), actor, id, body)
		if err != nil {
			return err
		}
		return response.OK(c, "Barang gudang diperbarui", item)
	}
}

// GET /api/inventory/stock-movements?item_id=&warehouse_shift_id=&branch_id=&type=&from=&to=
func ListMovementsHandler(svc *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var f MovementFilter
		var err error
		if f.InventoryItemID, err = request.QueryUint(c, "item_id"); err != nil {
			return err
		}
		if f.WarehouseShiftID, err = request.QueryUint(c, "warehouse_shift_id"); err != nil {
			return err
		}
		if f.BranchID, err = request.QueryUint(c, "branch_id"); err != nil {
			return err
		}
		f.Type = models.MovementType(c.Query("type"))
		if f.From, err = queryDate(c, "from"); err != nil {
			return err
		}
		if f.To, err = queryDate(c, "to"); err != nil {
			return err
		}
		if f.To != nil {
			next := f.To.AddDate(0, 0, 1)
			f.To = &next
		}
		f.Limit = c.QueryInt("limit", 100)
		f.Offset = c.QueryInt("offset", 0)

		list, err := svc.ListMovements(c.UserContext(), f)
		if err != nil {
			return err
		}
		return response.OK(c, "Daftar pergerakan stok", list)
	}
}

// POST /api/inventory/stock-movements
func CreateMovementHandler(svc *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		actor, err := auth.MustActor(c)
		if err != nil {
			return err
		}
		var body MovementInput
		if err := request.Bind(c, &body); err != nil {
			return err
		}
		m, err := svc.CreateMovement(c.UserContext(), actor, body)
		if err != nil {
			return err
		}
		return response.Created(c, "Pergerakan stok dicatat", m)
	}
}

// PUT /api/inventory/stock-movements/:id
func UpdateMovementHandler(svc *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		actor, err := auth.MustActor(c)
		if err != nil {
			return err
		}
		id, err := request.ParamUint(c, "id")
		if err != nil {
			return err
		}
		var body MovementUpdate
		if err := request.Bind(c, &body); err != nil {
			return err
		}
		m, err := svc.UpdateMovement(c.UserContext(), actor, id, body)
		if err != nil {
			return err
		}
		return response.OK(c, "Pergerakan stok diperbarui", m)
	}
}

// DELETE /api/inventory/stock-movements/:id
func DeleteMovementHandler(svc *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		actor, err := auth.MustActor(c)
		if err != nil {
			return err
		}
		id, err := request.ParamUint(c, "id")
		if err != nil {
			return err
		}
		if err := svc.DeleteMovement(c.UserContext(), actor, id); err != nil {
			return err
		}
		return response.OK(c, "Pergerakan stok dihapus", nil)
	}
}

func queryDate(c *fiber.Ctx, name string) (*time.Time, error) {
	raw := c.Query(name)
	if raw == "" {
		return nil, nil
	}
	t, err := time.ParseInLocation("2006-01-02", raw, time.Local)
	if err != nil {
		return nil, apperr.BadRequest("Format tanggal " + name + " harus YYYY-MM-DD")
	}
	return &t, nil
}
