// Package payment talks to the payment gateway and owns the payment status
// rules shared by order handling and webhook reconciliation.
package payment

import (
	"context"
	"errors"
	"fmt"

	"github.com/gofiber/fiber/v2/log"
	"github.com/midtrans/midtrans-go"
	"github.com/midtrans/midtrans-go/snap"
)

// ErrGateway wraps every failure reported by the gateway.
var ErrGateway = errors.New("payment gateway")

type Customer struct {
	Name  string
	Phone string
}

type Item struct {
	ID       string
	Name     string
	Price    int64
	Quantity int
}

type TransactionRequest struct {
	OrderID  string
	Customer Customer
	Amount   int64
	Items    []Item
}

type Token struct {
	Token       string `json:"token"`
	RedirectURL string `json:"redirect_url"`
}

type Gateway interface {
	CreateTransaction(ctx context.Context, req TransactionRequest) (Token, error)
}

// GatewayFunc adapts a function to Gateway.
type GatewayFunc func(ctx context.Context, req TransactionRequest) (Token, error)

func (f GatewayFunc) CreateTransaction(ctx context.Context, req TransactionRequest) (Token, error) {
	return f(ctx, req)
}

// expiryMinutes is how long a snap token stays payable.
const expiryMinutes = 15

type MidtransGateway struct {
	client snap.Client
}

func NewMidtransGateway(serverKey string, production bool) *MidtransGateway {
	env := midtrans.Sandbox
	if production {
		env = midtrans.Production
	}
	g := &MidtransGateway{}
	g.client.New(serverKey, env)
	return g
}

func (g *MidtransGateway) CreateTransaction(ctx context.Context, req TransactionRequest) (Token, error) {
	if err := ctx.Err(); err != nil {
		return Token{}, err
	}

	items := make([]midtrans.ItemDetails, 0, len(req.Items))
	for _, it := range req.Items {
		items = append(items, midtrans.ItemDetails{
			ID:    it.ID,
			Name:  truncate(it.Name, 50),
			Price: it.Price,
			Qty:   int32(it.Quantity),
		})
	}

	resp, merr := g.client.CreateTransaction(&snap.Request{
		TransactionDetails: midtrans.TransactionDetails{
			OrderID:  req.OrderID,
			GrossAmt: req.Amount,
		},
		CustomerDetail: &midtrans.CustomerDetails{
			FName: req.Customer.Name,
			Phone: req.Customer.Phone,
		},
		Items: &items,
		Expiry: &snap.ExpiryDetails{
			Unit:     "minute",
			Duration: expiryMinutes,
		},
	})
	if merr != nil {
		log.Errorf("midtrans create transaction %s: %s (status %d)", req.OrderID, merr.GetMessage(), merr.GetStatusCode())
		return Token{}, fmt.Errorf("%w: status %d: %s", ErrGateway, merr.GetStatusCode(), merr.GetMessage())
	}
	if resp == nil || resp.Token == "" {
		return Token{}, fmt.Errorf("%w: empty token", ErrGateway)
	}
	return Token{Token: resp.Token, RedirectURL: resp.RedirectURL}, nil
}

// midtrans rejects item names longer than 50 characters.
func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
