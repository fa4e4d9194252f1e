package shift

import (
	"testing"

	"github.com/PramesRay/pos-service/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReconcile(t *testing.T) {
	final := int64(150000)
	got := Reconcile(ReconcileInput{
		InitialCash: 100000,
		FinalCash:   &final,
		CashIn:      20000,
		CashOut:     6000,
		Payments: []PaymentTotal{
			{Method: models.PaymentMethodCash, Status: models.PaymentPaid, Amount: 30000},
			{Method: models.PaymentMethodCash, Status: models.PaymentRefunded, Amount: 10000},
			{Method: models.PaymentMethodCash, Status: models.PaymentPending, Amount: 99000},
			{Method: "qris", Status: models.PaymentPaid, Amount: 45000},
			{Method: "qris", Status: models.PaymentFailed, Amount: 12000},
		},
		Refunds: map[string]int64{models.PaymentMethodCash: 5000, "qris": 8000},
	})

	assert.Equal(t, int64(40000), got.CashPayment)
	assert.Equal(t, int64(45000), got.DigitalPayment)
	assert.Equal(t, int64(85000), got.Income)
	assert.Equal(t, int64(13000), got.TotalRefund)
	assert.Equal(t, int64(85000-6000-13000), got.NetIncome)
	// 100000 + 20000 + 40000 - 6000 - 5000
	assert.Equal(t, int64(149000), got.ExpectedCash)
	require.NotNil(t, got.Variance)
	assert.Equal(t, int64(1000), *got.Variance)
}

func TestReconcileOpenShiftHasNoVariance(t *testing.T) {
	got := Reconcile(ReconcileInput{InitialCash: 50000})
	assert.Equal(t, int64(50000), got.ExpectedCash)
	assert.Nil(t, got.Variance)
	assert.NotNil(t, got.Refunds)
}
