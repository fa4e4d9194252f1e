package shift

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/PramesRay/pos-service/internal/auth"
	"github.com/PramesRay/pos-service/internal/models"
	"github.com/PramesRay/pos-service/internal/testutil"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
	"gorm.io/gorm"
)

type seededOrder struct {
	status  models.OrderStatus
	method  string
	payment models.PaymentStatus
	amount  int64
}

func seedOrders(t *testing.T, db *gorm.DB, branchID, kitchenID, cashierID uint, menuID uint, orders []seededOrder) []models.Order {
	t.Helper()
	cust := testutil.Customer(t, db, "Budi", "0812"+uuid.NewString()[:6])
	out := make([]models.Order, 0, len(orders))
	for i, o := range orders {
		order := models.Order{
			ID:             uuid.New(),
			Code:           uuid.NewString()[:12],
			BranchID:       branchID,
			KitchenShiftID: kitchenID,
			CashierShiftID: cashierID,
			CustomerID:     cust.ID,
			IsTakeAway:     true,
			Status:         o.status,
			OrderedAt:      time.Now().Add(time.Duration(i) * time.Second),
			Items:          []models.OrderItem{{MenuID: menuID, Quantity: 1, Status: o.status}},
			Payment:        &models.OrderPayment{Method: o.method, Amount: o.amount, Status: o.payment},
		}
		require.NoError(t, db.Create(&order).Error)
		out = append(out, order)
	}
	return out
}

func TestKitchenReport(t *testing.T) {
	f := testutil.NewFixture(t)
	svc := NewService(f.DB)
	ctx := context.Background()
	a := f.Menus[0].ID

	ks := f.OpenKitchenShift(t, map[uint]int{a: 10})
	cs := f.OpenCashierShift(t)
	ws := f.OpenWarehouseShift(t)
	seedOrders(t, f.DB, f.Branch.ID, ks.ID, cs.ID, a, []seededOrder{
		{models.OrderFinished, models.PaymentMethodCash, models.PaymentPaid, 25000},
		{models.OrderCanceled, models.PaymentMethodCash, models.PaymentFailed, 25000},
		{models.OrderProcess, models.PaymentMethodCash, models.PaymentPending, 25000},
	})
	for _, st := range []models.StockRequestStatus{models.RequestFinished, models.RequestRejected, models.RequestPending} {
		require.NoError(t, f.DB.Create(&models.StockRequest{
			BranchID: f.Branch.ID, KitchenShiftID: ks.ID, WarehouseShiftID: ws.ID, Status: st, RequestedBy: f.Kitchen.UserID,
		}).Error)
	}

	report, err := svc.CurrentKitchenShift(ctx, f.Branch.ID)
	require.NoError(t, err)
	require.NotNil(t, report)
	assert.Equal(t, ks.ID, report.ID)
	require.Len(t, report.QuantityMenu, 1)
	assert.Equal(t, MenuStock{MenuID: a, Name: "Nasi Goreng", Initial: 10, Final: 10}, report.QuantityMenu[0])
	assert.Equal(t, OrderCounts{Total: 3, Completed: 1, Canceled: 1}, report.Orders)
	assert.Equal(t, RequestCounts{Total: 3, Approved: 1, Rejected: 1, Pending: 1}, report.Requests)

	wr, err := svc.CurrentWarehouseShift(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(3), wr.Requests.Total)

	list, err := svc.ListKitchenShifts(ctx, ListFilter{BranchID: &f.Branch.ID})
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, report.Orders, list[0].Orders)
}

func TestCurrentShiftWithoutHistory(t *testing.T) {
	f := testutil.NewFixture(t)
	svc := NewService(f.DB)

	kr, err := svc.CurrentKitchenShift(context.Background(), f.Branch.ID)
	require.NoError(t, err)
	assert.Nil(t, kr)

	cr, err := svc.CurrentCashierShift(context.Background(), f.Branch.ID)
	require.NoError(t, err)
	assert.Nil(t, cr)
}

func TestCashierReportAndExport(t *testing.T) {
	f := testutil.NewFixture(t)
	svc := NewService(f.DB)
	ctx := context.Background()
	cashier := auth.ActorOf(&f.Cashier)
	a := f.Menus[0].ID

	ks := f.OpenKitchenShift(t, map[uint]int{a: 10})
	cs, err := svc.StartCashierShift(ctx, cashier, f.Branch.ID, 100000)
	require.NoError(t, err)
	orders := seedOrders(t, f.DB, f.Branch.ID, ks.ID, cs.ID, a, []seededOrder{
		{models.OrderFinished, models.PaymentMethodCash, models.PaymentPaid, 25000},
		{models.OrderRefunded, models.PaymentMethodCash, models.PaymentRefunded, 25000},
		{models.OrderFinished, "qris", models.PaymentPaid, 50000},
		{models.OrderCanceled, "qris", models.PaymentFailed, 25000},
	})
	require.NoError(t, f.DB.Create(&models.RefundItem{
		OrderItemID: orders[1].Items[0].ID, Amount: 25000, Method: models.PaymentMethodCash, CreatedBy: f.Cashier.UserID,
	}).Error)

	_, err = svc.UpdateCashierShift(ctx, cashier, cs.ID, UpdateCashierInput{
		CashIn:  []CashInInput{{Description: "Modal", Amount: 10000}},
		CashOut: []CashOutInput{{Description: "Gas", Quantity: 1, UnitPrice: 20000}},
	})
	require.NoError(t, err)
	_, err = svc.EndCashierShift(ctx, cashier, cs.ID, 90000)
	require.NoError(t, err)

	report, err := svc.CashierShiftReport(ctx, cs.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(50000), report.CashPayment)
	assert.Equal(t, int64(50000), report.DigitalPayment)
	assert.Equal(t, int64(25000), report.TotalRefund)
	assert.Equal(t, int64(100000-20000-25000), report.NetIncome)
	// 100000 + 10000 + 50000 - 20000 - 25000
	assert.Equal(t, int64(115000), report.ExpectedCash)
	require.NotNil(t, report.Variance)
	assert.Equal(t, int64(-25000), *report.Variance)
	assert.Equal(t, OrderCounts{Total: 4, Completed: 2, Canceled: 1}, report.Orders)

	data, err := CashierReportXLSX(report)
	require.NoError(t, err)
	wb, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer wb.Close()
	v, err := wb.GetCellValue(cashierSheet, "B14")
	require.NoError(t, err)
	assert.Equal(t, "115000", v)
}

func TestSheetWriterKeepsFirstError(t *testing.T) {
	f := excelize.NewFile()
	defer f.Close()
	_, err := f.NewSheet(cashierSheet)
	require.NoError(t, err)

	w := &sheetWriter{f: f}
	w.row(1, "ok")
	require.NoError(t, w.err)

	w.row(0, "baris nol")
	require.Error(t, w.err)
	first := w.err

	w.width("A", "A", 500)
	w.row(2, "dilewati")
	assert.Equal(t, first, w.err)

	v, err := f.GetCellValue(cashierSheet, "A2")
	require.NoError(t, err)
	assert.Empty(t, v)
}
