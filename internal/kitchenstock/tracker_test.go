package kitchenstock

import (
	"testing"
	"time"

	"github.com/PramesRay/pos-service/internal/apperr"
	"github.com/PramesRay/pos-service/internal/models"
	"github.com/PramesRay/pos-service/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func TestAggregate(t *testing.T) {
	got := Aggregate([]Line{
		{MenuID: 3, Quantity: 1},
		{MenuID: 1, Quantity: 2},
		{MenuID: 3, Quantity: 4},
		{MenuID: 2, Quantity: 0},
		{MenuID: 4, Quantity: -1},
	})
	assert.Equal(t, []Line{{MenuID: 1, Quantity: 2}, {MenuID: 3, Quantity: 5}}, got)
}

func TestReserveAndRelease(t *testing.T) {
	f := testutil.NewFixture(t)
	a, b := f.Menus[0].ID, f.Menus[1].ID
	ks := f.OpenKitchenShift(t, map[uint]int{a: 5, b: 3})

	err := f.DB.Transaction(func(tx *gorm.DB) error {
		return Reserve(tx, ks.ID, []Line{{MenuID: a, Quantity: 2}, {MenuID: b, Quantity: 1}})
	})
	require.NoError(t, err)
	assert.Equal(t, 3, f.EndStock(t, ks.ID, a))
	assert.Equal(t, 2, f.EndStock(t, ks.ID, b))

	err = f.DB.Transaction(func(tx *gorm.DB) error {
		return Release(tx, ks.ID, []Line{{MenuID: a, Quantity: 2}, {MenuID: b, Quantity: 1}})
	})
	require.NoError(t, err)
	assert.Equal(t, 5, f.EndStock(t, ks.ID, a))
	assert.Equal(t, 3, f.EndStock(t, ks.ID, b))
}

func TestReserveInsufficientChangesNothing(t *testing.T) {
	f := testutil.NewFixture(t)
	a, b := f.Menus[0].ID, f.Menus[1].ID
	ks := f.OpenKitchenShift(t, map[uint]int{a: 5, b: 1})

	err := f.DB.Transaction(func(tx *gorm.DB) error {
		return Reserve(tx, ks.ID, []Line{{MenuID: a, Quantity: 2}, {MenuID: b, Quantity: 2}})
	})
	require.Error(t, err)
	assert.True(t, apperr.IsConflict(err))
	assert.Equal(t, 5, f.EndStock(t, ks.ID, a))
	assert.Equal(t, 1, f.EndStock(t, ks.ID, b))
}

func TestReserveDuplicateLinesAreSummed(t *testing.T) {
	f := testutil.NewFixture(t)
	a := f.Menus[0].ID
	ks := f.OpenKitchenShift(t, map[uint]int{a: 3})

	err := f.DB.Transaction(func(tx *gorm.DB) error {
		return Reserve(tx, ks.ID, []Line{{MenuID: a, Quantity: 2}, {MenuID: a, Quantity: 2}})
	})
	assert.True(t, apperr.IsConflict(err))
	assert.Equal(t, 3, f.EndStock(t, ks.ID, a))
}

func TestReserveUntrackedMenu(t *testing.T) {
	f := testutil.NewFixture(t)
	ks := f.OpenKitchenShift(t, map[uint]int{f.Menus[0].ID: 3})

	err := f.DB.Transaction(func(tx *gorm.DB) error {
		return Reserve(tx, ks.ID, []Line{{MenuID: f.Menus[2].ID, Quantity: 1}})
	})
	assert.True(t, apperr.IsConflict(err))
}

func TestStockNeverNegative(t *testing.T) {
	f := testutil.NewFixture(t)
	a := f.Menus[0].ID
	ks := f.OpenKitchenShift(t, map[uint]int{a: 4})

	ok := 0
	for i := 0; i < 10; i++ {
		err := f.DB.Transaction(func(tx *gorm.DB) error {
			return Reserve(tx, ks.ID, []Line{{MenuID: a, Quantity: 1}})
		})
		if err == nil {
			ok++
		}
		assert.GreaterOrEqual(t, f.EndStock(t, ks.ID, a), 0)
	}
	assert.Equal(t, 4, ok)
	assert.Equal(t, 0, f.EndStock(t, ks.ID, a))
}

func TestSetFinal(t *testing.T) {
	f := testutil.NewFixture(t)
	a, c := f.Menus[0].ID, f.Menus[2].ID
	ks := f.OpenKitchenShift(t, map[uint]int{a: 5})

	err := f.DB.Transaction(func(tx *gorm.DB) error {
		return SetFinal(tx, ks.ID, []Line{{MenuID: a, Quantity: 1}, {MenuID: c, Quantity: 4}})
	})
	require.NoError(t, err)
	assert.Equal(t, 1, f.EndStock(t, ks.ID, a))
	assert.Equal(t, 4, f.EndStock(t, ks.ID, c))

	err = f.DB.Transaction(func(tx *gorm.DB) error {
		return SetFinal(tx, ks.ID, []Line{{MenuID: a, Quantity: -1}})
	})
	assert.True(t, apperr.Is(err, 400))
}

func TestClosedShiftIsFrozen(t *testing.T) {
	f := testutil.NewFixture(t)
	a := f.Menus[0].ID
	ks := f.OpenKitchenShift(t, map[uint]int{a: 5})
	now := time.Now()
	require.NoError(t, f.DB.Model(&models.KitchenShift{}).Where("id = ?", ks.ID).
		Updates(map[string]any{"ended_at": now, "open_key": nil}).Error)

	err := f.DB.Transaction(func(tx *gorm.DB) error {
		return SetFinal(tx, ks.ID, []Line{{MenuID: a, Quantity: 1}})
	})
	assert.True(t, apperr.IsConflict(err))

	err = f.DB.Transaction(func(tx *gorm.DB) error {
		return Release(tx, ks.ID, []Line{{MenuID: a, Quantity: 3}})
	})
	require.NoError(t, err)
	assert.Equal(t, 5, f.EndStock(t, ks.ID, a))
}

func TestAvailable(t *testing.T) {
	f := testutil.NewFixture(t)
	ks := f.OpenKitchenShift(t, map[uint]int{f.Menus[0].ID: 0})
	ok, err := Available(f.DB, ks.ID)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, f.DB.Transaction(func(tx *gorm.DB) error {
		return SetFinal(tx, ks.ID, []Line{{MenuID: f.Menus[1].ID, Quantity: 2}})
	}))
	ok, err = Available(f.DB, ks.ID)
	require.NoError(t, err)
	assert.True(t, ok)
}
