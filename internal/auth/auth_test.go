package auth

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/PramesRay/pos-service/internal/apperr"
	"github.com/PramesRay/pos-service/internal/config"
	"github.com/PramesRay/pos-service/internal/models"
	"github.com/PramesRay/pos-service/internal/response"
	"github.com/PramesRay/pos-service/internal/testutil"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

var testSecret = strings.Repeat("k", 32)

func TestVerifyRoundTrip(t *testing.T) {
	emp := &models.Employee{UID: "uid-1", Name: "Sari", Email: "sari@pos.test"}
	token, err := GenerateToken(testSecret, emp)
	require.NoError(t, err)

	id, err := JWTVerifier{Secret: testSecret}.Verify(context.Background(), token)
	require.NoError(t, err)
	assert.Equal(t, Identity{UID: "uid-1", Name: "Sari", Email: "sari@pos.test"}, id)

	_, err = JWTVerifier{Secret: strings.Repeat("x", 32)}.Verify(context.Background(), token)
	assert.True(t, apperr.Is(err, 401))
}

func newAuthApp(db *gorm.DB) *fiber.App {
	cfg := &config.Config{JWTSecret: testSecret}
	app := fiber.New(fiber.Config{ErrorHandler: response.ErrorHandler})
	app.Post("/register-owner", RegisterOwnerHandler(db))
	app.Post("/login", LoginHandler(db, cfg))

	protected := app.Group("", Middleware(JWTVerifier{Secret: testSecret}, GormProfileStore{DB: db}))
	protected.Get("/me", MeHandler(db))
	protected.Post("/employees", Require(ActionManageEmployees), CreateEmployeeHandler(db))
	return app
}

func call(t *testing.T, app *fiber.App, method, path, token string, body any) (int, map[string]any) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	var out map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return resp.StatusCode, out
}

func TestOwnerLoginAndEmployeeCreation(t *testing.T) {
	db := testutil.NewDB(t)
	app := newAuthApp(db)

	code, _ := call(t, app, "POST", "/register-owner", "", RegisterOwnerRequest{Name: "Budi", Email: "budi@pos.test", Password: "rahasia123"})
	require.Equal(t, 201, code)

	code, _ = call(t, app, "POST", "/register-owner", "", RegisterOwnerRequest{Name: "Lain", Email: "lain@pos.test", Password: "rahasia123"})
	assert.Equal(t, 403, code)

	code, _ = call(t, app, "POST", "/login", "", LoginRequest{Email: "budi@pos.test", Password: "salah"})
	assert.Equal(t, 401, code)

	code, body := call(t, app, "POST", "/login", "", LoginRequest{Email: "BUDI@pos.test", Password: "rahasia123"})
	require.Equal(t, 200, code)
	token := body["data"].(map[string]any)["token"].(string)

	code, body = call(t, app, "GET", "/me", token, nil)
	require.Equal(t, 200, code)
	assert.Equal(t, "pemilik", body["data"].(map[string]any)["role"])

	branch := models.Branch{Name: "Cabang A"}
	require.NoError(t, db.Create(&branch).Error)

	code, _ = call(t, app, "POST", "/employees", token, CreateEmployeeRequest{
		Name: "Kasir", Email: "kasir@pos.test", Password: "rahasia123", Role: models.RoleCashier,
	})
	assert.Equal(t, 400, code, "cashier without branch")

	code, _ = call(t, app, "POST", "/employees", token, CreateEmployeeRequest{
		Name: "Kasir", Email: "kasir@pos.test", Password: "rahasia123", Role: models.RoleCashier, BranchID: &branch.ID,
	})
	require.Equal(t, 201, code)

	code, _ = call(t, app, "POST", "/employees", token, CreateEmployeeRequest{
		Name: "Kasir 2", Email: "kasir@pos.test", Password: "rahasia123", Role: models.RoleCashier, BranchID: &branch.ID,
	})
	assert.Equal(t, 409, code)

	code, body = call(t, app, "POST", "/login", "", LoginRequest{Email: "kasir@pos.test", Password: "rahasia123"})
	require.Equal(t, 200, code)
	kasirToken := body["data"].(map[string]any)["token"].(string)

	code, _ = call(t, app, "POST", "/employees", kasirToken, CreateEmployeeRequest{
		Name: "X", Email: "x@pos.test", Password: "rahasia123", Role: models.RoleAdmin,
	})
	assert.Equal(t, 403, code)
}

func TestMiddlewareRejectsMissingToken(t *testing.T) {
	app := newAuthApp(testutil.NewDB(t))

	code, body := call(t, app, "GET", "/me", "", nil)
	assert.Equal(t, 401, code)
	assert.Equal(t, "error", body["status"])

	code, _ = call(t, app, "GET", "/me", "not-a-jwt", nil)
	assert.Equal(t, 401, code)
}

func TestMiddlewareUnknownProfile(t *testing.T) {
	app := newAuthApp(testutil.NewDB(t))
	token, err := GenerateToken(testSecret, &models.Employee{UID: "ghost"})
	require.NoError(t, err)

	code, _ := call(t, app, "GET", "/me", token, nil)
	assert.Equal(t, 401, code)
}
