package main

import (
	"strings"
	"time"

	"github.com/PramesRay/pos-service/internal/admin"
	"github.com/PramesRay/pos-service/internal/audit"
	"github.com/PramesRay/pos-service/internal/auth"
	"github.com/PramesRay/pos-service/internal/config"
	"github.com/PramesRay/pos-service/internal/database"
	"github.com/PramesRay/pos-service/internal/idgen"
	"github.com/PramesRay/pos-service/internal/inventory"
	"github.com/PramesRay/pos-service/internal/notify"
	"github.com/PramesRay/pos-service/internal/order"
	"github.com/PramesRay/pos-service/internal/payment"
	"github.com/PramesRay/pos-service/internal/response"
	"github.com/PramesRay/pos-service/internal/shift"
	"github.com/PramesRay/pos-service/internal/stockrequest"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func main() {
	cfg := config.Load()
	database.Init(cfg)
	db := database.DB
	idgen.Init(cfg.SnowflakeNode)

	loc, err := time.LoadLocation(cfg.TimeZone)
	if err != nil {
		log.Warnf("[WARN] unknown APP_TIMEZONE %q, using local time: %v", cfg.TimeZone, err)
		loc = time.Local
	}

	shifts := shift.NewService(db)
	orders := order.NewService(db, payment.NewMidtransGateway(cfg.MidtransServerKey, cfg.MidtransProduction), cfg.MidtransServerKey, loc)
	requests := stockrequest.NewService(db, notify.New(cfg))
	stock := inventory.NewService(db)

	app := fiber.New(fiber.Config{
		ErrorHandler: response.ErrorHandler,
	})
	app.Use(recover.New())
	app.Use(logger.New())

	// CORS_ALLOWED_ORIGINS is comma separated
	corsOrigins := strings.Split(cfg.CORSOrigins, ",")
	for i := range corsOrigins {
		corsOrigins[i] = strings.TrimSpace(corsOrigins[i])
	}
	app.Use(cors.New(cors.Config{
		AllowOrigins: strings.Join(corsOrigins, ","),
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
		AllowMethods: "GET,POST,PUT,DELETE,OPTIONS",
	}))

	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	api := app.Group("/api")

	// Public
	api.Get("/health", func(c *fiber.Ctx) error {
		return response.OK(c, "OK", fiber.Map{"time": time.Now().In(loc)})
	})
	api.Post("/auth/register-owner", auth.RegisterOwnerHandler(db))
	api.Post("/auth/login", auth.LoginHandler(db, cfg))
	api.Get("/branches", admin.ListBranchesHandler(db))

	api.Get("/orders/customer", order.ListCustomerOrdersHandler(orders))
	api.Post("/orders/customer", order.CreateCustomerOrderHandler(orders))
	api.Put("/orders/customer/:id", order.UpdateCustomerOrderHandler(orders))
	api.Post("/orders/webhook", limiter.New(limiter.Config{
		Max:        120,
		Expiration: time.Minute,
	}), order.WebhookHandler(orders))

	// Protected
	protected := api.Group("", auth.Middleware(auth.JWTVerifier{Secret: cfg.JWTSecret}, auth.GormProfileStore{DB: db}))

	protected.Get("/auth/me", auth.MeHandler(db))

	// Admin catalogue
	protected.Get("/branches/:id", admin.GetBranchHandler(db))
	protected.Post("/branches", auth.Require(auth.ActionManageBranches), admin.CreateBranchHandler(db))
	protected.Put("/branches/:id", auth.Require(auth.ActionManageBranches), admin.UpdateBranchHandler(db))
	protected.Delete("/branches/:id", auth.Require(auth.ActionManageBranches), admin.DeleteBranchHandler(db))
	protected.Post("/employees", auth.Require(auth.ActionManageEmployees), auth.CreateEmployeeHandler(db))
	protected.Get("/employees", auth.Require(auth.ActionManageEmployees), auth.ListEmployeesHandler(db))
	protected.Get("/menus", admin.ListMenusHandler(db))
	protected.Post("/menus", auth.Require(auth.ActionManageMenus), admin.CreateMenuHandler(db))
	protected.Put("/menus/:id", auth.Require(auth.ActionManageMenus), admin.UpdateMenuHandler(db))

	// Shifts
	sh := protected.Group("/shift")

	sh.Get("/employee/current", auth.Require(auth.ActionEmployeeShift), shift.CurrentEmployeeShiftHandler(shifts))
	sh.Get("/employees", auth.Require(auth.ActionViewShifts), shift.ListEmployeeShiftsHandler(shifts))
	sh.Post("/employee/start", auth.Require(auth.ActionEmployeeShift), shift.StartEmployeeShiftHandler(shifts))
	sh.Put("/employee/end", auth.Require(auth.ActionEmployeeShift), shift.EndEmployeeShiftHandler(shifts))
	sh.Put("/employee/:id/end", auth.Require(auth.ActionEmployeeShift), shift.EndEmployeeShiftHandler(shifts))

	sh.Get("/kitchen/current", auth.Require(auth.ActionViewShifts), shift.CurrentKitchenShiftHandler(shifts))
	sh.Get("/kitchens", auth.Require(auth.ActionViewShifts), shift.ListKitchenShiftsHandler(shifts))
	sh.Post("/kitchen/:branchId/start", auth.Require(auth.ActionKitchenShift), shift.StartKitchenShiftHandler(shifts))
	sh.Put("/kitchen/:id", auth.Require(auth.ActionKitchenShift), shift.UpdateKitchenShiftHandler(shifts))
	sh.Put("/kitchen/:id/end", auth.Require(auth.ActionKitchenShift), shift.EndKitchenShiftHandler(shifts))

	sh.Get("/cashier/current", auth.Require(auth.ActionViewShifts), shift.CurrentCashierShiftHandler(shifts))
	sh.Get("/cashiers", auth.Require(auth.ActionViewShifts), shift.ListCashierShiftsHandler(shifts))
	sh.Get("/cashiers/:id/export", auth.Require(auth.ActionExportCashierShift), shift.ExportCashierShiftHandler(shifts))
	sh.Post("/cashier/:branchId/start", auth.Require(auth.ActionCashierShift), shift.StartCashierShiftHandler(shifts))
	sh.Put("/cashier/:id", auth.Require(auth.ActionCashierShift), shift.UpdateCashierShiftHandler(shifts))
	sh.Put("/cashier/:id/end", auth.Require(auth.ActionCashierShift), shift.EndCashierShiftHandler(shifts))

	sh.Get("/warehouse/current", auth.Require(auth.ActionViewShifts), shift.CurrentWarehouseShiftHandler(shifts))
	sh.Get("/warehouses", auth.Require(auth.ActionViewShifts), shift.ListWarehouseShiftsHandler(shifts))
	sh.Post("/warehouse/start", auth.Require(auth.ActionWarehouseShift), shift.StartWarehouseShiftHandler(shifts))
	sh.Put("/warehouse/:id", auth.Require(auth.ActionWarehouseShift), shift.UpdateWarehouseShiftHandler(shifts))
	sh.Put("/warehouse/:id/end", auth.Require(auth.ActionWarehouseShift), shift.EndWarehouseShiftHandler(shifts))

	// Orders
	protected.Get("/orders", auth.Require(auth.ActionViewOrders), order.ListOrdersHandler(orders))
	protected.Get("/orders/summary", auth.Require(auth.ActionViewOrders), order.SummaryHandler(orders))
	protected.Post("/orders", auth.Require(auth.ActionCreateOrder), order.CreateOrderHandler(orders))
	protected.Post("/orders/direct-payment", auth.Require(auth.ActionCreateOrder), order.CreateDirectPaymentOrderHandler(orders))
	protected.Put("/orders/:id", auth.Require(auth.ActionUpdateOrder), order.UpdateOrderHandler(orders))
	protected.Put("/orders/:id/refund", auth.Require(auth.ActionRefundOrder), order.RefundOrderHandler(orders))

	// Inventory
	inv := protected.Group("/inventory")

	inv.Get("/stock-requests", auth.Require(auth.ActionViewInventory), stockrequest.ListHandler(requests))
	inv.Post("/stock-requests", auth.Require(auth.ActionRequestStock), stockrequest.CreateHandler(requests))
	inv.Put("/stock-requests/:id", stockrequest.UpdateHandler(requests))
	inv.Put("/stock-requests/:id/ready", auth.Require(auth.ActionApproveStock), stockrequest.ReadyHandler(requests))
	inv.Put("/stock-requests/:id/finish", auth.Require(auth.ActionReceiveStock), stockrequest.FinishHandler(requests))

	inv.Get("/stock-movements", auth.Require(auth.ActionViewInventory), inventory.ListMovementsHandler(stock))
	inv.Post("/stock-movements", auth.Require(auth.ActionManageInventory), inventory.CreateMovementHandler(stock))
	inv.Put("/stock-movements/:id", auth.Require(auth.ActionManageInventory), inventory.UpdateMovementHandler(stock))
	inv.Delete("/stock-movements/:id", auth.Require(auth.ActionManageInventory), inventory.DeleteMovementHandler(stock))

	inv.Get("/items", auth.Require(auth.ActionViewInventory), inventory.ListItemsHandler(stock))
	inv.Post("/items", auth.Require(auth.ActionManageInventory), inventory.CreateItemHandler(stock))
	inv.Put("/items/:id", auth.Require(auth.ActionManageInventory), inventory.UpdateItemHandler(stock))

	// Audit logs
	protected.Get("/audit-logs", auth.Require(auth.ActionViewAudit), audit.ListAuditLogsHandler(db))

	log.Infof("server listening on port %s", cfg.HTTPPort)
	if err := app.Listen(":" + cfg.HTTPPort); err != nil {
		log.Fatal(err)
	}
}
