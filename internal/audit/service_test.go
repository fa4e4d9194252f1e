package audit

import (
	"strings"
	"testing"

	"github.com/PramesRay/pos-service/internal/models"
	"github.com/PramesRay/pos-service/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func TestWriteLog(t *testing.T) {
	db := testutil.NewDB(t)
	branch := uint(3)

	err := db.Transaction(func(tx *gorm.DB) error {
		return WriteLog(tx, LogOptions{
			BranchID:    &branch,
			UserID:      9,
			UserName:    "Sari",
			EntityType:  "order",
			EntityID:    "0b6f0c1e-0000-4000-8000-000000000001",
			Action:      models.AuditActionUpdate,
			Description: strings.Repeat("x", 300),
			Before:      map[string]string{"status": "Pending"},
			After:       map[string]string{"status": "Batal"},
		})
	})
	require.NoError(t, err)

	var got models.AuditLog
	require.NoError(t, db.First(&got).Error)
	assert.Equal(t, "order", got.EntityType)
	assert.Equal(t, "0b6f0c1e-0000-4000-8000-000000000001", got.EntityID)
	assert.Len(t, got.Description, 255)
	assert.JSONEq(t, `{"status":"Pending"}`, got.BeforeData)
	assert.JSONEq(t, `{"status":"Batal"}`, got.AfterData)
}

func TestWriteLogRollsBackWithTransaction(t *testing.T) {
	db := testutil.NewDB(t)

	_ = db.Transaction(func(tx *gorm.DB) error {
		require.NoError(t, WriteLog(tx, LogOptions{EntityType: "kitchen_shift", EntityID: uint(1), Action: models.AuditActionStart}))
		return gorm.ErrInvalidTransaction
	})

	var n int64
	require.NoError(t, db.Model(&models.AuditLog{}).Count(&n).Error)
	assert.Zero(t, n)
}
