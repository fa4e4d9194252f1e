package payment

import (
	"context"
	"errors"
	"testing"

	"github.com/PramesRay/pos-service/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVerifySignature(t *testing.T) {
	const key = "SB-Mid-server-test"
	sig := Signature("order-1", "200", "25000.00", key)
	assert.Len(t, sig, 128)

	assert.True(t, VerifySignature("order-1", "200", "25000.00", key, sig))
	assert.False(t, VerifySignature("order-1", "200", "25001.00", key, sig))
	assert.False(t, VerifySignature("order-2", "200", "25000.00", key, sig))
	assert.False(t, VerifySignature("order-1", "200", "25000.00", "other", sig))
	assert.False(t, VerifySignature("order-1", "200", "25000.00", key, ""))
	assert.False(t, VerifySignature("order-1", "200", "25000.00", "", Signature("order-1", "200", "25000.00", "")))
}

func TestCanTransitionIsMonotonic(t *testing.T) {
	all := []models.PaymentStatus{models.PaymentPending, models.PaymentPaid, models.PaymentFailed, models.PaymentRefunded}
	for _, from := range []models.PaymentStatus{models.PaymentPaid, models.PaymentRefunded} {
		for _, to := range []models.PaymentStatus{models.PaymentPending, models.PaymentFailed} {
			assert.False(t, CanTransition(from, to), "%s -> %s", from, to)
		}
	}
	for _, s := range all {
		assert.True(t, CanTransition(s, s), "%s is idempotent", s)
	}
	assert.True(t, CanTransition(models.PaymentPending, models.PaymentPaid))
	assert.True(t, CanTransition(models.PaymentFailed, models.PaymentPaid))
	assert.True(t, CanTransition(models.PaymentPaid, models.PaymentRefunded))
	assert.False(t, CanTransition(models.PaymentPending, models.PaymentRefunded))
	assert.False(t, CanTransition(models.PaymentRefunded, models.PaymentPaid))
}

func TestParseGrossAmount(t *testing.T) {
	n, err := ParseGrossAmount("25000.00")
	require.NoError(t, err)
	assert.Equal(t, int64(25000), n)

	n, err = ParseGrossAmount(" 125000 ")
	require.NoError(t, err)
	assert.Equal(t, int64(125000), n)

	_, err = ParseGrossAmount("100.50")
	assert.ErrorIs(t, err, ErrFractionalAmount)

	_, err = ParseGrossAmount("abc")
	assert.Error(t, err)
}

func TestNotificationOutcome(t *testing.T) {
	cases := []struct {
		n    Notification
		want Outcome
	}{
		{Notification{StatusCode: "200", TransactionStatus: "settlement"}, OutcomeSettled},
		{Notification{StatusCode: "201", TransactionStatus: "settlement"}, OutcomeIgnored},
		{Notification{StatusCode: "200", TransactionStatus: "capture", FraudStatus: "accept"}, OutcomeSettled},
		{Notification{StatusCode: "200", TransactionStatus: "capture", FraudStatus: "challenge"}, OutcomeIgnored},
		{Notification{StatusCode: "202", TransactionStatus: "deny"}, OutcomeFailed},
		{Notification{StatusCode: "202", TransactionStatus: "expire"}, OutcomeFailed},
		{Notification{StatusCode: "202", TransactionStatus: "CANCEL"}, OutcomeFailed},
		{Notification{StatusCode: "201", TransactionStatus: "pending"}, OutcomeIgnored},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, c.n.Outcome(), "%+v", c.n)
	}
}

func TestGatewayFunc(t *testing.T) {
	var got TransactionRequest
	g := GatewayFunc(func(_ context.Context, req TransactionRequest) (Token, error) {
		got = req
		return Token{Token: "snap-123"}, nil
	})
	tok, err := g.CreateTransaction(context.Background(), TransactionRequest{OrderID: "o-1", Amount: 5000})
	require.NoError(t, err)
	assert.Equal(t, "snap-123", tok.Token)
	assert.Equal(t, "o-1", got.OrderID)

	failing := GatewayFunc(func(context.Context, TransactionRequest) (Token, error) {
		return Token{}, ErrGateway
	})
	_, err = failing.CreateTransaction(context.Background(), TransactionRequest{})
	assert.True(t, errors.Is(err, ErrGateway))
}

func TestMidtransGatewayHonoursCanceledContext(t *testing.T) {
	g := NewMidtransGateway("SB-Mid-server-test", false)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := g.CreateTransaction(ctx, TransactionRequest{OrderID: "o-1", Amount: 1})
	assert.ErrorIs(t, err, context.Canceled)
}
