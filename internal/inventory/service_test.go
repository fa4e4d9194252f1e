package inventory

import (
	"context"
	"sync"
	"testing"

	"github.com/PramesRay/pos-service/internal/apperr"
	"github.com/PramesRay/pos-service/internal/auth"
	"github.com/PramesRay/pos-service/internal/models"
	"github.com/PramesRay/pos-service/internal/shift"
	"github.com/PramesRay/pos-service/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setup(t *testing.T, open bool) (*testutil.Fixture, *Service, auth.Actor) {
	t.Helper()
	f := testutil.NewFixture(t)
	if open {
		f.OpenWarehouseShift(t)
	}
	return f, NewService(f.DB), auth.ActorOf(&f.Gudang)
}

func quantity(t *testing.T, f *testutil.Fixture, id uint) models.InventoryItem {
	t.Helper()
	var item models.InventoryItem
	require.NoError(t, f.DB.First(&item, id).Error)
	return item
}

func TestItemCatalogue(t *testing.T) {
	f, svc, actor := setup(t, false)
	ctx := context.Background()

	item, err := svc.CreateItem(ctx, actor, ItemInput{Name: " Minyak Goreng ", Unit: "liter", Threshold: 5, Quantity: 3})
	require.NoError(t, err)
	assert.Equal(t, "Minyak Goreng", item.Name)
	assert.True(t, item.IsNew)

	price := int64(18000)
	item, err = svc.UpdateItem(ctx, actor, item.ID, ItemUpdate{PurchasePrice: &price})
	require.NoError(t, err)
	assert.Equal(t, price, item.PurchasePrice)
	assert.Equal(t, "liter", item.Unit)

	_, err = svc.UpdateItem(ctx, actor, 999, ItemUpdate{})
	assert.True(t, apperr.IsNotFound(err))

	low, err := svc.ListItems(ctx, ItemFilter{LowStock: true})
	require.NoError(t, err)
	require.Len(t, low, 1)
	assert.Equal(t, item.ID, low[0].ID)

	found, err := svc.ListItems(ctx, ItemFilter{Search: "bera"})
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, f.Items[0].ID, found[0].ID)
}

func TestMovementNeedsOpenWarehouseShift(t *testing.T) {
	f, svc, actor := setup(t, false)

	_, err := svc.CreateMovement(context.Background(), actor, MovementInput{
		InventoryItemID: f.Items[0].ID, Type: models.MovementIn, Quantity: 1,
	})
	require.Error(t, err)
	assert.True(t, apperr.IsNotFound(err))
	assert.Equal(t, 50, quantity(t, f, f.Items[0].ID).Quantity)
}

func TestIncomingMovementClearsNewFlag(t *testing.T) {
	f, svc, actor := setup(t, true)
	gula := f.Items[1]
	require.True(t, gula.IsNew)

	m, err := svc.CreateMovement(context.Background(), actor, MovementInput{
		InventoryItemID: gula.ID, Type: models.MovementIn, Quantity: 15, Reason: "pembelian",
	})
	require.NoError(t, err)
	require.NotNil(t, m.InventoryItem)

	got := quantity(t, f, gula.ID)
	assert.Equal(t, 25, got.Quantity)
	assert.False(t, got.IsNew)
}

func TestOutgoingMovementCannotOverdraw(t *testing.T) {
	f, svc, actor := setup(t, true)
	ctx := context.Background()
	beras := f.Items[0].ID

	_, err := svc.CreateMovement(ctx, actor, MovementInput{InventoryItemID: beras, Type: models.MovementOut, Quantity: 51})
	require.Error(t, err)
	assert.True(t, apperr.IsConflict(err))
	assert.Equal(t, msgShortfall, err.Error())

	var n int64
	require.NoError(t, f.DB.Model(&models.StockMovement{}).Count(&n).Error)
	assert.Zero(t, n)

	_, err = svc.CreateMovement(ctx, actor, MovementInput{InventoryItemID: beras, Type: models.MovementAdjustment, Quantity: 50})
	require.NoError(t, err)
	assert.Equal(t, 0, quantity(t, f, beras).Quantity)

	_, err = svc.CreateMovement(ctx, actor, MovementInput{InventoryItemID: 999, Type: models.MovementOut, Quantity: 1})
	assert.True(t, apperr.IsNotFound(err))
}

func TestUpdateAndDeleteMovementRebalance(t *testing.T) {
	f, svc, actor := setup(t, true)
	ctx := context.Background()
	beras := f.Items[0].ID

	m, err := svc.CreateMovement(ctx, actor, MovementInput{InventoryItemID: beras, Type: models.MovementOut, Quantity: 10})
	require.NoError(t, err)
	assert.Equal(t, 40, quantity(t, f, beras).Quantity)

	m, err = svc.UpdateMovement(ctx, actor, m.ID, MovementUpdate{Type: models.MovementOut, Quantity: 4})
	require.NoError(t, err)
	assert.Equal(t, 4, m.Quantity)
	assert.Equal(t, 46, quantity(t, f, beras).Quantity)

	_, err = svc.UpdateMovement(ctx, actor, m.ID, MovementUpdate{Type: models.MovementOut, Quantity: 60})
	assert.True(t, apperr.IsConflict(err))
	assert.Equal(t, 46, quantity(t, f, beras).Quantity)

	_, err = svc.UpdateMovement(ctx, actor, m.ID, MovementUpdate{Type: models.MovementIn, Quantity: 4})
	require.NoError(t, err)
	assert.Equal(t, 54, quantity(t, f, beras).Quantity)

	require.NoError(t, svc.DeleteMovement(ctx, actor, m.ID))
	assert.Equal(t, 50, quantity(t, f, beras).Quantity)

	err = svc.DeleteMovement(ctx, actor, m.ID)
	assert.True(t, apperr.IsNotFound(err))
}

func TestMovementsOfEndedShiftAreFrozen(t *testing.T) {
	f, svc, actor := setup(t, false)
	ctx := context.Background()
	beras := f.Items[0].ID
	ws := f.OpenWarehouseShift(t)

	m, err := svc.CreateMovement(ctx, actor, MovementInput{InventoryItemID: beras, Type: models.MovementOut, Quantity: 5})
	require.NoError(t, err)
	assert.Equal(t, 45, quantity(t, f, beras).Quantity)

	_, err = shift.NewService(f.DB).EndWarehouseShift(ctx, actor, ws.ID)
	require.NoError(t, err)

	_, err = svc.UpdateMovement(ctx, actor, m.ID, MovementUpdate{Type: models.MovementOut, Quantity: 40})
	require.Error(t, err)
	assert.True(t, apperr.IsConflict(err))
	assert.Equal(t, msgShiftEnded, err.Error())

	err = svc.DeleteMovement(ctx, actor, m.ID)
	require.Error(t, err)
	assert.True(t, apperr.IsConflict(err))

	assert.Equal(t, 45, quantity(t, f, beras).Quantity)
	var kept models.StockMovement
	require.NoError(t, f.DB.First(&kept, m.ID).Error)
	assert.Equal(t, 5, kept.Quantity)
}

func TestConcurrentOutgoingMovementsNeverGoNegative(t *testing.T) {
	f, svc, actor := setup(t, true)
	gula := f.Items[1].ID

	var wg sync.WaitGroup
	var mu sync.Mutex
	ok := 0
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.CreateMovement(context.Background(), actor, MovementInput{InventoryItemID: gula, Type: models.MovementOut, Quantity: 3})
			if err == nil {
				mu.Lock()
				ok++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 3, ok)
	assert.Equal(t, 1, quantity(t, f, gula).Quantity)
}

func TestListMovements(t *testing.T) {
	f, svc, actor := setup(t, true)
	ctx := context.Background()

	_, err := svc.CreateMovement(ctx, actor, MovementInput{InventoryItemID: f.Items[0].ID, Type: models.MovementIn, Quantity: 1})
	require.NoError(t, err)
	_, err = svc.CreateMovement(ctx, actor, MovementInput{InventoryItemID: f.Items[1].ID, Type: models.MovementOut, Quantity: 1, BranchID: &f.Branch.ID})
	require.NoError(t, err)

	all, err := svc.ListMovements(ctx, MovementFilter{})
	require.NoError(t, err)
	assert.Len(t, all, 2)

	out, err := svc.ListMovements(ctx, MovementFilter{Type: models.MovementOut})
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, f.Items[1].ID, out[0].InventoryItemID)

	branch, err := svc.ListMovements(ctx, MovementFilter{BranchID: &f.Branch.ID})
	require.NoError(t, err)
	assert.Len(t, branch, 1)

	_, err = svc.CreateMovement(ctx, actor, MovementInput{InventoryItemID: f.Items[0].ID, Type: "Hilang", Quantity: 1})
	assert.Equal(t, 400, apperr.Code(err))
}
