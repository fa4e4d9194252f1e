package notify

import (
	"testing"

	"github.com/PramesRay/pos-service/internal/config"
	"github.com/PramesRay/pos-service/internal/models"

	"github.com/stretchr/testify/assert"
)

func TestNewWithoutSMTPIsNop(t *testing.T) {
	m := New(&config.Config{})
	_, ok := m.(Nop)
	assert.True(t, ok)
}

func TestNewWithSMTP(t *testing.T) {
	m := New(&config.Config{SMTPHost: "smtp.example.com", SMTPPort: 587, WarehouseNotifyEmails: []string{"g@example.com"}})
	_, ok := m.(*SMTPMailer)
	assert.True(t, ok)
}

func TestRenderRequest(t *testing.T) {
	html := renderRequest("Permintaan stok baru", models.StockRequest{
		ID:     7,
		Status: models.RequestPending,
		Note:   "untuk akhir pekan",
		Items: []models.StockRequestItem{
			{InventoryItemID: 1, InventoryItem: &models.InventoryItem{Name: "Beras"}, Quantity: 5, Status: models.RequestPending},
			{InventoryItemID: 2, Quantity: 1, Status: models.RequestPending},
		},
	})
	assert.Contains(t, html, "Beras")
	assert.Contains(t, html, "#2")
	assert.Contains(t, html, "untuk akhir pekan")
}
