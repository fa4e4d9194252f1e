package shift

import (
	"fmt"
	"time"

	"github.com/PramesRay/pos-service/internal/apperr"
	"github.com/PramesRay/pos-service/internal/auth"
	"github.com/PramesRay/pos-service/internal/kitchenstock"
	"github.com/PramesRay/pos-service/internal/request"
	"github.com/PramesRay/pos-service/internal/response"

	"github.com/gofiber/fiber/v2"
)

// listFilter reads ?branch_id=&employee_id=&from=2024-01-01&to=2024-01-31&limit=
func listFilter(c *fiber.Ctx, actor auth.Actor) (ListFilter, error) {
	var f ListFilter
	requested, err := request.QueryUint(c, "branch_id")
	if err != nil {
		return f, err
	}
	if f.BranchID, err = auth.BranchFilter(actor, requested); err != nil {
		return f, err
	}
	if f.EmployeeID, err = request.QueryUint(c, "employee_id"); err != nil {
		return f, err
	}
	if f.From, err = queryDate(c, "from"); err != nil {
		return f, err
	}
	if f.To, err = queryDate(c, "to"); err != nil {
		return f, err
	}
	if f.To != nil {
		next := f.To.AddDate(0, 0, 1)
		f.To = &next
	}
	f.Limit = c.QueryInt("limit", 50)
	return f, nil
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

// branchParam resolves :branchId against the actor's own branch.
func branchParam(c *fiber.Ctx, actor auth.Actor) (uint, error) {
	id, err := request.ParamUint(c, "branchId")
	if err != nil {
		return 0, err
	}
	return auth.BranchForRequest(actor, &id)
}

// -------------------------------------------------
// Employee
// -------------------------------------------------

// GET /api/shift/employee/current
func CurrentEmployeeShiftHandler(svc *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		actor, err := auth.MustActor(c)
		if err != nil {
			return err
		}
		shift, err := svc.CurrentEmployeeShift(c.UserContext(), actor.EmployeeID)
		if err != nil {
			return err
		}
		return response.OK(c, "Sif karyawan saat ini", shift)
	}
}

// GET /api/shift/employees
func ListEmployeeShiftsHandler(svc *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		actor, err := auth.MustActor(c)
		if err != nil {
			return err
		}
		f, err := listFilter(c, actor)
		if err != nil {
			return err
		}
		// staff without manager rights only see their own attendance
		if !auth.Can(actor, auth.ActionManageEmployees) {
			f.EmployeeID = &actor.EmployeeID
		}
		list, err := svc.ListEmployeeShifts(c.UserContext(), f)
		if err != nil {
			return err
		}
		return response.OK(c, "Daftar sif karyawan", list)
	}
}

// POST /api/shift/employee/start
func StartEmployeeShiftHandler(svc *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		actor, err := auth.MustActor(c)
		if err != nil {
			return err
		}
		shift, err := svc.StartEmployeeShift(c.UserContext(), actor)
		if err != nil {
			return err
		}
		return response.Created(c, "Sif dimulai", shift)
	}
}

// PUT /api/shift/employee/end and PUT /api/shift/employee/:id/end
func EndEmployeeShiftHandler(svc *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		actor, err := auth.MustActor(c)
		if err != nil {
			return err
		}
		var id *uint
		if c.Params("id") != "" {
			v, err := request.ParamUint(c, "id")
			if err != nil {
				return err
			}
			id = &v
		}
		shift, err := svc.EndEmployeeShift(c.UserContext(), actor, id)
		if err != nil {
			return err
		}
		return response.OK(c, "Sif diakhiri", shift)
	}
}

// -------------------------------------------------
// Kitchen
// -------------------------------------------------

// GET /api/shift/kitchen/current?branch_id=
func CurrentKitchenShiftHandler(svc *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		actor, err := auth.MustActor(c)
		if err != nil {
			return err
		}
		requested, err := request.QueryUint(c, "branch_id")
		if err != nil {
			return err
		}
		branchID, err := auth.BranchForRequest(actor, requested)
		if err != nil {
			return err
		}
		report, err := svc.CurrentKitchenShift(c.UserContext(), branchID)
		if err != nil {
			return err
		}
		return response.OK(c, "Sif dapur saat ini", report)
	}
}

// GET /api/shift/kitchens
func ListKitchenShiftsHandler(svc *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		actor, err := auth.MustActor(c)
		if err != nil {
			return err
		}
		f, err := listFilter(c, actor)
		if err != nil {
			return err
		}
		list, err := svc.ListKitchenShifts(c.UserContext(), f)
		if err != nil {
			return err
		}
		return response.OK(c, "Daftar sif dapur", list)
	}
}

// POST /api/shift/kitchen/:branchId/start
func StartKitchenShiftHandler(svc *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		actor, err := auth.MustActor(c)
		if err != nil {
			return err
		}
		branchID, err := branchParam(c, actor)
		if err != nil {
			return err
		}
		var body StartKitchenInput
		if err := request.Bind(c, &body); err != nil {
			return err
		}
		shift, err := svc.StartKitchenShift(c.UserContext(), actor, branchID, body)
		if err != nil {
			return err
		}
		return response.Created(c, "Sif dapur dimulai", shift)
	}
}

// PUT /api/shift/kitchen/:id
func UpdateKitchenShiftHandler(svc *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		actor, err := auth.MustActor(c)
		if err != nil {
			return err
		}
		id, err := request.ParamUint(c, "id")
		if err != nil {
			return err
		}
		var body UpdateKitchenInput
		if err := request.Bind(c, &body); err != nil {
			return err
		}
		shift, err := svc.UpdateKitchenShift(c.UserContext(), actor, id, body)
		if err != nil {
			return err
		}
		return response.OK(c, "Sif dapur diperbarui", shift)
	}
}

// PUT /api/shift/kitchen/:id/end
func EndKitchenShiftHandler(svc *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		actor, err := auth.MustActor(c)
		if err != nil {
			return err
		}
		id, err := request.ParamUint(c, "id")
		if err != nil {
			return err
		}
		var body struct {
			FinalMenu []kitchenstock.Line `json:"final_menu" validate:"dive"`
		}
		if len(c.Body()) > 0 {
			if err := request.Bind(c, &body); err != nil {
				return err
			}
		}
		shift, err := svc.EndKitchenShift(c.UserContext(), actor, id, body.FinalMenu)
		if err != nil {
			return err
		}
		return response.OK(c, "Sif dapur diakhiri", shift)
	}
}

// -------------------------------------------------
// Cashier
// -------------------------------------------------

// GET /api/shift/cashier/current?branch_id=
func CurrentCashierShiftHandler(svc *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		actor, err := auth.MustActor(c)
		if err != nil {
			return err
		}
		requested, err := request.QueryUint(c, "branch_id")
		if err != nil {
			return err
		}
		branchID, err := auth.BranchForRequest(actor, requested)
		if err != nil {
			return err
		}
		report, err := svc.CurrentCashierShift(c.UserContext(), branchID)
		if err != nil {
			return err
		}
		return response.OK(c, "Sif kasir saat ini", report)
	}
}

// GET /api/shift/cashiers
func ListCashierShiftsHandler(svc *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		actor, err := auth.MustActor(c)
		if err != nil {
			return err
		}
		f, err := listFilter(c, actor)
		if err != nil {
			return err
		}
		list, err := svc.ListCashierShifts(c.UserContext(), f)
		if err != nil {
			return err
		}
		return response.OK(c, "Daftar sif kasir", list)
	}
}

// POST /api/shift/cashier/:branchId/start
func StartCashierShiftHandler(svc *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		actor, err := auth.MustActor(c)
		if err != nil {
			return err
		}
		branchID, err := branchParam(c, actor)
		if err != nil {
			return err
		}
		var body struct {
			InitialCash int64 `json:"initial_cash" validate:"gte=0"`
		}
		if err := request.Bind(c, &body); err != nil {
			return err
		}
		shift, err := svc.StartCashierShift(c.UserContext(), actor, branchID, body.InitialCash)
		if err != nil {
			return err
		}
		return response.Created(c, "Sif kasir dimulai", shift)
	}
}

// PUT /api/shift/cashier/:id
func UpdateCashierShiftHandler(svc *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		actor, err := auth.MustActor(c)
		if err != nil {
			return err
		}
		id, err := request.ParamUint(c, "id")
		if err != nil {
			return err
		}
		var body UpdateCashierInput
		if err := request.Bind(c, &body); err != nil {
			return err
		}
		shift, err := svc.UpdateCashierShift(c.UserContext(), actor, id, body)
		if err != nil {
			return err
		}
		return response.OK(c, "Sif kasir diperbarui", shift)
	}
}

// PUT /api/shift/cashier/:id/end
func EndCashierShiftHandler(svc *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		actor, err := auth.MustActor(c)
		if err != nil {
			return err
		}
		id, err := request.ParamUint(c, "id")
		if err != nil {
			return err
		}
		var body struct {
			ActualCash int64 `json:"actual_cash" validate:"gte=0"`
		}
		if err := request.Bind(c, &body); err != nil {
			return err
		}
		shift, err := svc.EndCashierShift(c.UserContext(), actor, id, body.ActualCash)
		if err != nil {
			return err
		}
		return response.OK(c, "Sif kasir diakhiri", shift)
	}
}

// GET /api/shift/cashiers/:id/export
func ExportCashierShiftHandler(svc *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		actor, err := auth.MustActor(c)
		if err != nil {
			return err
		}
		id, err := request.ParamUint(c, "id")
		if err != nil {
			return err
		}
		report, err := svc.CashierShiftReport(c.UserContext(), id)
		if err != nil {
			return err
		}
		if _, err := auth.BranchForRequest(actor, &report.BranchID); err != nil {
			return err
		}

		data, err := CashierReportXLSX(report)
		if err != nil {
			return err
		}
		c.Set(fiber.HeaderContentType, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
		c.Set(fiber.HeaderContentDisposition, fmt.Sprintf("attachment; filename=\"sif_kasir_%d_%s.xlsx\"", report.ID, report.Start.Format("20060102")))
		return c.Send(data)
	}
}

// -------------------------------------------------
// Warehouse
// -------------------------------------------------

// GET /api/shift/warehouse/current
func CurrentWarehouseShiftHandler(svc *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		report, err := svc.CurrentWarehouseShift(c.UserContext())
		if err != nil {
			return err
		}
		return response.OK(c, "Sif gudang saat ini", report)
	}
}

// GET /api/shift/warehouses
func ListWarehouseShiftsHandler(svc *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		actor, err := auth.MustActor(c)
		if err != nil {
			return err
		}
		f, err := listFilter(c, actor)
		if err != nil {
			return err
		}
		list, err := svc.ListWarehouseShifts(c.UserContext(), f)
		if err != nil {
			return err
		}
		return response.OK(c, "Daftar sif gudang", list)
	}
}

type warehouseBody struct {
	Notes string `json:"notes" validate:"max=255"`
}

// POST /api/shift/warehouse/start
func StartWarehouseShiftHandler(svc *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		actor, err := auth.MustActor(c)
		if err != nil {
			return err
		}
		var body warehouseBody
		if len(c.Body()) > 0 {
			if err := request.Bind(c, &body); err != nil {
				return err
			}
		}
		shift, err := svc.StartWarehouseShift(c.UserContext(), actor, body.Notes)
		if err != nil {
			return err
		}
		return response.Created(c, "Sif gudang dimulai", shift)
	}
}

// PUT /api/shift/warehouse/:id
func UpdateWarehouseShiftHandler(svc *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		actor, err := auth.MustActor(c)
		if err != nil {
			return err
		}
		id, err := request.ParamUint(c, "id")
		if err != nil {
			return err
		}
		var body warehouseBody
		if err := request.Bind(c, &body); err != nil {
			return err
		}
		shift, err := svc.UpdateWarehouseShift(c.UserContext(), actor, id, body.Notes)
		if err != nil {
			return err
		}
		return response.OK(c, "Sif gudang diperbarui", shift)
	}
}

// PUT /api/shift/warehouse/:id/end
func EndWarehouseShiftHandler(svc *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		actor, err := auth.MustActor(c)
		if err != nil {
			return err
		}
		id, err := request.ParamUint(c, "id")
		if err != nil {
			return err
		}
		shift, err := svc.EndWarehouseShift(c.UserContext(), actor, id)
		if err != nil {
			return err
		}
		return response.OK(c, "Sif gudang diakhiri", shift)
	}
}
