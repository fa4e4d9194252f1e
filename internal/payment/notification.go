package payment

import "strings"

// Notification is the HTTP notification the gateway posts after a
// transaction changes state.
type Notification struct {
	OrderID           string `json:"order_id"`
	StatusCode        string `json:"status_code"`
	GrossAmount       string `json:"gross_amount"`
	SignatureKey      string `json:"signature_key"`
	TransactionStatus string `json:"transaction_status"`
	FraudStatus       string `json:"fraud_status"`
	PaymentType       string `json:"payment_type"`
	TransactionID     string `json:"transaction_id"`
}

type Outcome int

const (
	OutcomeIgnored Outcome = iota
	OutcomeSettled
	OutcomeFailed
)

func (o Outcome) String() string {
	switch o {
	case OutcomeSettled:
		return "settled"
	case OutcomeFailed:
		return "failed"
	default:
		return "ignored"
	}
}

// Outcome classifies the notification. A settlement with status code 200, or
// a capture the fraud check accepted, settles the payment; deny, cancel,
// expire and failure fail it; anything else (pending, authorize) is ignored.
func (n Notification) Outcome() Outcome {
	status := strings.ToLower(n.TransactionStatus)
	switch status {
	case "settlement":
		if n.StatusCode == "200" {
			return OutcomeSettled
		}
	case "capture":
		if n.StatusCode == "200" && strings.EqualFold(n.FraudStatus, "accept") {
			return OutcomeSettled
		}
	case "deny", "cancel", "expire", "failure":
		return OutcomeFailed
	}
	return OutcomeIgnored
}

func (n Notification) Verify(serverKey string) bool {
	return VerifySignature(n.OrderID, n.StatusCode, n.GrossAmount, serverKey, n.SignatureKey)
}
