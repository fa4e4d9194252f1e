package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	OrdersCreated = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "pos_orders_created_total",
		Help: "Orders created, by source (employee, customer, direct).",
	}, []string{"source"})

	OrdersCanceled = promauto.NewCounter(prometheus.CounterOpts{
		Name: "pos_orders_canceled_total",
		Help: "Orders moved to Batal.",
	})

	StockConflicts = promauto.NewCounter(prometheus.CounterOpts{
		Name: "pos_kitchen_stock_conflicts_total",
		Help: "Order operations rejected because kitchen stock was insufficient.",
	})

	WebhookOutcomes = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "pos_payment_webhook_total",
		Help: "Payment gateway notifications, by outcome.",
	}, []string{"outcome"})

	ShiftsStarted = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "pos_shifts_started_total",
		Help: "Shifts opened, by kind.",
	}, []string{"kind"})

	StockRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "pos_stock_requests_total",
		Help: "Stock request transitions, by resulting status.",
	}, []string{"status"})
)
