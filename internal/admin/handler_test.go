package admin

import (
	"bytes"
	"encoding/json"
	"net/http/httptest"
	"strconv"
	"testing"

	"github.com/PramesRay/pos-service/internal/auth"
	"github.com/PramesRay/pos-service/internal/models"
	"github.com/PramesRay/pos-service/internal/response"
	"github.com/PramesRay/pos-service/internal/testutil"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newApp(f *testutil.Fixture, as models.Employee) *fiber.App {
	app := fiber.New(fiber.Config{ErrorHandler: response.ErrorHandler})
	app.Use(func(c *fiber.Ctx) error {
		c.Locals(auth.CtxActorKey, auth.ActorOf(&as))
		return c.Next()
	})
	app.Get("/branches", ListBranchesHandler(f.DB))
	app.Post("/branches", CreateBranchHandler(f.DB))
	app.Get("/branches/:id", GetBranchHandler(f.DB))
	app.Put("/branches/:id", UpdateBranchHandler(f.DB))
	app.Delete("/branches/:id", DeleteBranchHandler(f.DB))
	app.Get("/menus", ListMenusHandler(f.DB))
	app.Post("/menus", CreateMenuHandler(f.DB))
	app.Put("/menus/:id", UpdateMenuHandler(f.DB))
	return app
}

func call(t *testing.T, app *fiber.App, method, path string, body any) (int, map[string]any) {
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

func TestBranchCRUD(t *testing.T) {
	f := testutil.NewFixture(t)
	app := newApp(f, f.Admin)

	code, out := call(t, app, "POST", "/branches", map[string]any{"name": " Cabang Timur ", "address": "Jl. Timur 2"})
	require.Equal(t, 201, code)
	data := out["data"].(map[string]any)
	assert.Equal(t, "Cabang Timur", data["name"])
	id := uint(data["id"].(float64))

	code, _ = call(t, app, "POST", "/branches", map[string]any{"name": "Cabang Timur"})
	assert.Equal(t, 409, code)

	code, _ = call(t, app, "POST", "/branches", map[string]any{"name": ""})
	assert.Equal(t, 400, code)

	code, out = call(t, app, "PUT", "/branches/"+itoa(id), map[string]any{"phone": " 0211234 "})
	require.Equal(t, 200, code)
	assert.Equal(t, "0211234", out["data"].(map[string]any)["phone"])

	code, out = call(t, app, "GET", "/branches", nil)
	require.Equal(t, 200, code)
	assert.Len(t, out["data"].([]any), 2)

	code, _ = call(t, app, "DELETE", "/branches/"+itoa(f.Branch.ID), nil)
	assert.Equal(t, 409, code, "branch with employees stays")

	code, _ = call(t, app, "DELETE", "/branches/"+itoa(id), nil)
	assert.Equal(t, 200, code)
	code, _ = call(t, app, "GET", "/branches/"+itoa(id), nil)
	assert.Equal(t, 404, code)
}

func TestMenus(t *testing.T) {
	f := testutil.NewFixture(t)
	admin := newApp(f, f.Admin)

	code, out := call(t, admin, "POST", "/menus", map[string]any{"branch_id": f.Branch.ID, "name": "Soto", "price": 18000})
	require.Equal(t, 201, code)
	menu := out["data"].(map[string]any)
	assert.Equal(t, true, menu["is_available"])
	id := uint(menu["id"].(float64))

	code, _ = call(t, admin, "POST", "/menus", map[string]any{"branch_id": 999, "name": "Soto", "price": 18000})
	assert.Equal(t, 404, code)
	code, _ = call(t, admin, "POST", "/menus", map[string]any{"branch_id": f.Branch.ID, "name": "Soto", "price": 0})
	assert.Equal(t, 400, code)

	code, out = call(t, admin, "PUT", "/menus/"+itoa(id), map[string]any{"is_available": false, "price": 20000})
	require.Equal(t, 200, code)
	assert.Equal(t, false, out["data"].(map[string]any)["is_available"])
	assert.Equal(t, float64(20000), out["data"].(map[string]any)["price"])

	cashier := newApp(f, f.Cashier)
	code, out = call(t, cashier, "GET", "/menus?available=true", nil)
	require.Equal(t, 200, code)
	assert.Len(t, out["data"].([]any), 3)

	other := models.Branch{Name: "Cabang Lain"}
	require.NoError(t, f.DB.Create(&other).Error)
	code, _ = call(t, cashier, "GET", "/menus?branch_id="+itoa(other.ID), nil)
	assert.Equal(t, 403, code)
}

func itoa(v uint) string {
	return strconv.FormatUint(uint64(v), 10)
}
