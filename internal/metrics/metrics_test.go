package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestCountersIncrement(t *testing.T) {
	before := testutil.ToFloat64(OrdersCreated.WithLabelValues("employee"))
	OrdersCreated.WithLabelValues("employee").Inc()
	assert.Equal(t, before+1, testutil.ToFloat64(OrdersCreated.WithLabelValues("employee")))

	before = testutil.ToFloat64(StockConflicts)
	StockConflicts.Inc()
	assert.Equal(t, before+1, testutil.ToFloat64(StockConflicts))
}
