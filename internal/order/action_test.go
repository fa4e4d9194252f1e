package order

import (
	"testing"

	"github.com/PramesRay/pos-service/internal/apperr"
	"github.com/PramesRay/pos-service/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeAction(t *testing.T) {
	a, err := DecodeAction([]byte(`{"type":"updateStatus","status":"Diproses"}`))
	require.NoError(t, err)
	assert.Equal(t, UpdateStatus{Status: models.OrderProcess}, a)

	a, err = DecodeAction([]byte(`{"type":"updateItems","items":[{"id":3,"status":"Tersaji"}]}`))
	require.NoError(t, err)
	assert.Equal(t, UpdateItems{Items: []ItemStatus{{ID: 3, Status: models.OrderServed}}}, a)

	a, err = DecodeAction([]byte(`{"type":"updatePayment","payment_method":"cash"}`))
	require.NoError(t, err)
	assert.Equal(t, UpdatePayment{PaymentMethod: "cash"}, a)

	a, err = DecodeAction([]byte(`{"type":"updateOrder","is_take_away":true,"items":[{"item_id":1,"quantity":2}]}`))
	require.NoError(t, err)
	whole, ok := a.(UpdateWholeOrder)
	require.True(t, ok)
	assert.True(t, whole.IsTakeAway)
	require.Len(t, whole.Items, 1)
	assert.Equal(t, uint(1), whole.Items[0].MenuID)
}

func TestDecodeActionRejects(t *testing.T) {
	for name, body := range map[string]string{
		"unknown type":    `{"type":"deleteOrder"}`,
		"missing type":    `{"status":"Diproses"}`,
		"malformed":       `{"type":`,
		"missing status":  `{"type":"updateStatus"}`,
		"empty items":     `{"type":"updateItems","items":[]}`,
		"zero quantity":   `{"type":"updateOrder","is_take_away":true,"items":[{"item_id":1,"quantity":0}]}`,
		"no payment type": `{"type":"updatePayment"}`,
	} {
		t.Run(name, func(t *testing.T) {
			_, err := DecodeAction([]byte(body))
			assert.Equal(t, 400, apperr.Code(err))
		})
	}
}
