package shift

import "github.com/PramesRay/pos-service/internal/models"

// PaymentTotal is the summed amount of one payment method/status pair.
type PaymentTotal struct {
	Method string
	Status models.PaymentStatus
	Amount int64
}

type ReconcileInput struct {
	InitialCash int64
	FinalCash   *int64
	CashIn      int64
	CashOut     int64
	Payments    []PaymentTotal
	Refunds     map[string]int64 // by payment method
}

type Totals struct {
	CashPayment    int64            `json:"cash_payment"`
	DigitalPayment int64            `json:"digital_payment"`
	Refunds        map[string]int64 `json:"refunds"`
	TotalRefund    int64            `json:"total_refund"`
	TotalCashIn    int64            `json:"total_cash_in"`
	TotalExpense   int64            `json:"total_expense"`
	Income         int64            `json:"income"`
	NetIncome      int64            `json:"net_income"`
	ExpectedCash   int64            `json:"expected_cash"`
	Variance       *int64           `json:"variance"`
}

// Reconcile computes the cashier shift totals. Money counts as received once
// a payment is Lunas; a later Refund keeps it in income and books the
// returned amount under Refunds instead.
func Reconcile(in ReconcileInput) Totals {
	t := Totals{
		Refunds:      map[string]int64{},
		TotalCashIn:  in.CashIn,
		TotalExpense: in.CashOut,
	}
	for _, p := range in.Payments {
		if p.Status != models.PaymentPaid && p.Status != models.PaymentRefunded {
			continue
		}
		if p.Method == models.PaymentMethodCash {
			t.CashPayment += p.Amount
		} else {
			t.DigitalPayment += p.Amount
		}
	}
	for method, amount := range in.Refunds {
		t.Refunds[method] += amount
		t.TotalRefund += amount
	}

	t.Income = t.CashPayment + t.DigitalPayment
	t.NetIncome = t.Income - t.TotalExpense - t.TotalRefund
	t.ExpectedCash = in.InitialCash + t.TotalCashIn + t.CashPayment - t.TotalExpense - t.Refunds[models.PaymentMethodCash]
	if in.FinalCash != nil {
		v := *in.FinalCash - t.ExpectedCash
		t.Variance = &v
	}
	return t
}
