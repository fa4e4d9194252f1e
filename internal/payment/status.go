package payment

import (
	"errors"
	"strings"

	"github.com/PramesRay/pos-service/internal/models"

	"github.com/shopspring/decimal"
)

var ErrFractionalAmount = errors.New("gross amount has a fractional part")

var transitions = map[models.PaymentStatus][]models.PaymentStatus{
	models.PaymentPending:  {models.PaymentPending, models.PaymentPaid, models.PaymentFailed},
	models.PaymentFailed:   {models.PaymentFailed, models.PaymentPaid},
	models.PaymentPaid:     {models.PaymentPaid, models.PaymentRefunded},
	models.PaymentRefunded: {models.PaymentRefunded},
}

// CanTransition reports whether a payment may move from one status to
// another. Lunas and Refund only ever move forward to Refund.
func CanTransition(from, to models.PaymentStatus) bool {
	for _, s := range transitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// Final reports whether the payment has been settled or refunded.
func Final(s models.PaymentStatus) bool {
	return s == models.PaymentPaid || s == models.PaymentRefunded
}

// ParseGrossAmount parses the gateway's "25000.00" style amount into whole
// rupiah. Fractional rupiah are rejected.
func ParseGrossAmount(s string) (int64, error) {
	d, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil {
		return 0, err
	}
	if !d.Equal(d.Truncate(0)) {
		return 0, ErrFractionalAmount
	}
	return d.IntPart(), nil
}
