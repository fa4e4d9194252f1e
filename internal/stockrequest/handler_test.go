package stockrequest

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http/httptest"
	"testing"

	"github.com/PramesRay/pos-service/internal/auth"
	"github.com/PramesRay/pos-service/internal/models"
	"github.com/PramesRay/pos-service/internal/response"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newRequestApp serves the stock request routes; each call picks its actor
// through the X-Employee header so one app covers the kitchen and the
// warehouse side.
func newRequestApp(e *env) *fiber.App {
	actors := map[string]auth.Actor{"dapur": e.kitchen, "gudang": e.gudang}
	app := fiber.New(fiber.Config{ErrorHandler: response.ErrorHandler})
	app.Use(func(c *fiber.Ctx) error {
		if a, ok := actors[c.Get("X-Employee")]; ok {
			c.Locals(auth.CtxActorKey, a)
		}
		return c.Next()
	})
	app.Get("/stock-requests", ListHandler(e.svc))
	app.Post("/stock-requests", CreateHandler(e.svc))
	app.Put("/stock-requests/:id", UpdateHandler(e.svc))
	app.Put("/stock-requests/:id/ready", ReadyHandler(e.svc))
	app.Put("/stock-requests/:id/finish", FinishHandler(e.svc))
	return app
}

func as(t *testing.T, app *fiber.App, who, method, path string, body any) (int, map[string]any) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Employee", who)
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	var out map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return resp.StatusCode, out
}

func TestStockRequestRoutes(t *testing.T) {
	e := newEnv(t, true)
	app := newRequestApp(e)

	code, out := as(t, app, "dapur", "POST", "/stock-requests", map[string]any{
		"note":  "untuk besok",
		"items": []map[string]any{{"id": e.Items[0].ID, "quantity": 5}},
	})
	require.Equal(t, 201, code, out)
	data := out["data"].(map[string]any)
	assert.Equal(t, float64(e.Branch.ID), data["branch_id"])
	path := fmt.Sprintf("/stock-requests/%d", uint(data["id"].(float64)))
	itemID := data["items"].([]any)[0].(map[string]any)["id"]

	code, out = as(t, app, "dapur", "PUT", path, map[string]any{
		"type":  "approveStock",
		"items": []map[string]any{{"id": e.Items[0].ID, "approved": true}},
	})
	assert.Equal(t, 403, code, "kitchen cannot approve")
	assert.Equal(t, response.StatusError, out["status"])

	code, _ = as(t, app, "gudang", "PUT", path, map[string]any{
		"type":  "updateStock",
		"note":  "diganti gudang",
		"items": []map[string]any{{"id": itemID, "quantity": 1}},
	})
	assert.Equal(t, 403, code, "warehouse cannot edit the request")

	code, _ = as(t, app, "dapur", "PUT", path, map[string]any{"type": "hapus"})
	assert.Equal(t, 400, code)

	code, out = as(t, app, "dapur", "PUT", path, map[string]any{
		"type":  "updateStock",
		"note":  "tambah sedikit",
		"items": []map[string]any{{"id": itemID, "quantity": 7}},
	})
	require.Equal(t, 200, code, out)
	assert.Equal(t, "tambah sedikit", out["data"].(map[string]any)["note"])

	code, _ = as(t, app, "gudang", "PUT", path+"/finish", nil)
	assert.Equal(t, 409, code)

	code, out = as(t, app, "gudang", "PUT", path, map[string]any{
		"type":  "approveStock",
		"items": []map[string]any{{"id": e.Items[0].ID, "approved": true}},
	})
	require.Equal(t, 200, code, out)
	assert.Equal(t, string(models.RequestProcess), out["data"].(map[string]any)["status"])

	code, out = as(t, app, "gudang", "PUT", path+"/ready", nil)
	require.Equal(t, 200, code, out)
	code, out = as(t, app, "dapur", "PUT", path+"/finish", nil)
	require.Equal(t, 200, code, out)
	assert.Equal(t, string(models.RequestFinished), out["data"].(map[string]any)["status"])

	code, out = as(t, app, "gudang", "GET", "/stock-requests", nil)
	require.Equal(t, 200, code)
	assert.Len(t, out["data"].([]any), 1)

	code, _ = as(t, app, "", "GET", "/stock-requests", nil)
	assert.Equal(t, 401, code)
}
