package order

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http/httptest"
	"testing"

	"github.com/PramesRay/pos-service/internal/auth"
	"github.com/PramesRay/pos-service/internal/models"
	"github.com/PramesRay/pos-service/internal/response"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newOrderApp mounts the order routes the way the server does, with the
// protected ones running as the given employee.
func newOrderApp(e *env, as models.Employee) *fiber.App {
	app := fiber.New(fiber.Config{ErrorHandler: response.ErrorHandler})

	app.Get("/orders/customer", ListCustomerOrdersHandler(e.svc))
	app.Post("/orders/customer", CreateCustomerOrderHandler(e.svc))
	app.Put("/orders/customer/:id", UpdateCustomerOrderHandler(e.svc))
	app.Post("/orders/webhook", WebhookHandler(e.svc))

	staff := app.Group("", func(c *fiber.Ctx) error {
		c.Locals(auth.CtxActorKey, auth.ActorOf(&as))
		return c.Next()
	})
	staff.Get("/orders", ListOrdersHandler(e.svc))
	staff.Post("/orders", CreateOrderHandler(e.svc))
	staff.Put("/orders/:id", UpdateOrderHandler(e.svc))
	staff.Put("/orders/:id/refund", RefundOrderHandler(e.svc))
	return app
}

func send(t *testing.T, app *fiber.App, method, path string, body any) (int, map[string]any) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	var out map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return resp.StatusCode, out
}

func TestStaffOrderRoutes(t *testing.T) {
	e := newEnv(t, menuStock)
	app := newOrderApp(e, e.Cashier)

	code, out := send(t, app, "POST", "/orders", map[string]any{
		"customer":     map[string]any{"name": "Budi", "phone": "081234567890"},
		"items":        []map[string]any{{"item_id": e.Menus[0].ID, "quantity": 2}},
		"table_number": 4,
	})
	require.Equal(t, 201, code, out)
	data := out["data"].(map[string]any)
	assert.Equal(t, string(models.OrderPending), data["status"])
	id := data["id"].(string)
	assert.Equal(t, 3, e.EndStock(t, e.ks.ID, e.Menus[0].ID))

	code, out = send(t, app, "PUT", "/orders/"+id, map[string]any{"type": "updateStatus", "status": "Diproses"})
	require.Equal(t, 200, code, out)
	assert.Equal(t, string(models.OrderProcess), out["data"].(map[string]any)["status"])

	code, out = send(t, app, "PUT", "/orders/"+id, map[string]any{"type": "gantiSemua"})
	assert.Equal(t, 400, code)
	assert.Equal(t, response.StatusError, out["status"])
	assert.Equal(t, "Tipe pembaruan tidak dikenal", out["message"])

	code, _ = send(t, app, "PUT", "/orders/"+id, map[string]any{"type": "updateItems", "items": []any{}})
	assert.Equal(t, 400, code)

	code, _ = send(t, app, "PUT", "/orders/bukan-uuid", map[string]any{"type": "updateStatus", "status": "Batal"})
	assert.Equal(t, 400, code)

	code, out = send(t, app, "PUT", "/orders/"+id+"/refund", map[string]any{
		"items":  []map[string]any{{"id": uint(data["items"].([]any)[0].(map[string]any)["id"].(float64))}},
		"method": "cash",
	})
	assert.Equal(t, 409, code, "unpaid orders cannot be refunded")
	assert.Equal(t, "Pembayaran pesanan belum lunas", out["message"])

	code, out = send(t, app, "GET", "/orders", nil)
	require.Equal(t, 200, code)
	assert.Len(t, out["data"].([]any), 1)
}

func TestCustomerOrderRoutes(t *testing.T) {
	e := newEnv(t, menuStock)
	app := newOrderApp(e, e.Cashier)
	phone := "081298765432"

	code, out := send(t, app, "POST", "/orders/customer", map[string]any{
		"branch_id":      e.Branch.ID,
		"customer":       map[string]any{"name": "Sari", "phone": phone},
		"items":          []map[string]any{{"item_id": e.Menus[1].ID, "quantity": 1}},
		"is_take_away":   true,
		"payment_method": models.PaymentMethodMidtrans,
	})
	require.Equal(t, 201, code, out)
	data := out["data"].(map[string]any)
	id := data["id"].(string)
	pay := data["payment"].(map[string]any)
	assert.Equal(t, "snap-"+id, pay["snap_token"])
	assert.Equal(t, string(models.PaymentPending), pay["status"])

	code, _ = send(t, app, "PUT", "/orders/customer/"+id, map[string]any{"type": "updatePayment", "payment_method": "midtrans"})
	assert.Equal(t, 400, code, "phone is required")

	code, out = send(t, app, "PUT", "/orders/customer/"+id, map[string]any{"type": "updateStatus", "status": "Batal", "phone": phone})
	assert.Equal(t, 403, code)
	assert.Equal(t, "Pelanggan hanya dapat memperbarui pembayaran", out["message"])

	code, _ = send(t, app, "PUT", "/orders/customer/"+id, map[string]any{"type": "updatePayment", "payment_method": "midtrans", "phone": "0800000"})
	assert.Equal(t, 404, code)

	code, out = send(t, app, "PUT", "/orders/customer/"+id, map[string]any{"type": "updatePayment", "payment_method": "midtrans", "phone": phone})
	require.Equal(t, 200, code, out)
	assert.Equal(t, string(models.OrderPending), out["data"].(map[string]any)["status"])

	code, out = send(t, app, "GET", "/orders/customer?phone="+phone, nil)
	require.Equal(t, 200, code)
	assert.Len(t, out["data"].([]any), 1)

	code, _ = send(t, app, "GET", "/orders/customer", nil)
	assert.Equal(t, 400, code)
}

func TestWebhookRouteStatusCodes(t *testing.T) {
	e := newEnv(t, menuStock)
	app := newOrderApp(e, e.Cashier)

	o, err := e.svc.CreateOrder(context.Background(), e.cashier, e.request(2, e.item(0, 1)))
	require.NoError(t, err)
	_, err = e.svc.UpdateOrder(context.Background(), e.cashier, o.ID, UpdatePayment{PaymentMethod: models.PaymentMethodMidtrans})
	require.NoError(t, err)

	forged := notification(o.ID.String(), "200", "25000.00", "settlement", "")
	forged.SignatureKey = "palsu"
	code, out := send(t, app, "POST", "/orders/webhook", forged)
	assert.Equal(t, 401, code)
	assert.Equal(t, response.StatusError, out["status"])
	assert.Equal(t, "Signature Key Salah", out["message"])

	code, out = send(t, app, "POST", "/orders/webhook", notification(o.ID.String(), "200", "1.00", "settlement", ""))
	assert.Equal(t, 409, code)
	assert.Equal(t, "Jumlah pembayaran tidak sesuai", out["message"])

	code, _ = send(t, app, "POST", "/orders/webhook", notification(o.ID.String(), "200", "25000.00", "settlement", ""))
	require.Equal(t, 200, code)

	got, err := e.svc.Get(context.Background(), o.ID)
	require.NoError(t, err)
	assert.Equal(t, models.PaymentPaid, got.Payment.Status)
}
