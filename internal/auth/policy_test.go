package auth

import (
	"testing"

	"github.com/PramesRay/pos-service/internal/apperr"
	"github.com/PramesRay/pos-service/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func uptr(v uint) *uint { return &v }

func TestCan(t *testing.T) {
	cases := []struct {
		role   models.Role
		action Action
		want   bool
	}{
		{models.RoleAdmin, ActionManageBranches, true},
		{models.RoleOwner, ActionApproveStock, true},
		{models.RoleCashier, ActionCreateOrder, true},
		{models.RoleCashier, ActionApproveStock, false},
		{models.RoleKitchen, ActionRequestStock, true},
		{models.RoleKitchen, ActionCreateOrder, false},
		{models.RoleWarehouse, ActionApproveStock, true},
		{models.RoleWarehouse, ActionKitchenShift, false},
		{models.RoleTreasurer, ActionRefundOrder, true},
		{models.RoleTreasurer, ActionManageMenus, false},
		{models.Role("tamu"), ActionViewOrders, false},
	}
	for _, tc := range cases {
		got := Can(Actor{Role: tc.role}, tc.action)
		assert.Equal(t, tc.want, got, "%s %s", tc.role, tc.action)
	}
}

func TestBranchForRequest(t *testing.T) {
	cashier := Actor{Role: models.RoleCashier, BranchID: uptr(2)}

	id, err := BranchForRequest(cashier, nil)
	require.NoError(t, err)
	assert.Equal(t, uint(2), id)

	_, err = BranchForRequest(cashier, uptr(3))
	assert.True(t, apperr.Is(err, 403))

	_, err = BranchForRequest(Actor{Role: models.RoleKitchen}, nil)
	assert.True(t, apperr.Is(err, 403))

	owner := Actor{Role: models.RoleOwner}
	id, err = BranchForRequest(owner, uptr(5))
	require.NoError(t, err)
	assert.Equal(t, uint(5), id)

	_, err = BranchForRequest(owner, nil)
	assert.True(t, apperr.Is(err, 400))
}

func TestBranchFilter(t *testing.T) {
	f, err := BranchFilter(Actor{Role: models.RoleOwner}, nil)
	require.NoError(t, err)
	assert.Nil(t, f)

	f, err = BranchFilter(Actor{Role: models.RoleKitchen, BranchID: uptr(4)}, nil)
	require.NoError(t, err)
	require.NotNil(t, f)
	assert.Equal(t, uint(4), *f)
}
