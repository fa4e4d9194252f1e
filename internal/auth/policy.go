package auth

import (
	"github.com/PramesRay/pos-service/internal/apperr"
	"github.com/PramesRay/pos-service/internal/models"
)

type Action string

const (
	ActionManageBranches     Action = "branch:manage"
	ActionManageEmployees    Action = "employee:manage"
	ActionManageMenus        Action = "menu:manage"
	ActionViewAllBranches    Action = "branch:view-all"
	ActionEmployeeShift      Action = "shift:employee"
	ActionKitchenShift       Action = "shift:kitchen"
	ActionCashierShift       Action = "shift:cashier"
	ActionWarehouseShift     Action = "shift:warehouse"
	ActionViewShifts         Action = "shift:view"
	ActionCreateOrder        Action = "order:create"
	ActionUpdateOrder        Action = "order:update"
	ActionRefundOrder        Action = "order:refund"
	ActionViewOrders         Action = "order:view"
	ActionRequestStock       Action = "stock-request:create"
	ActionApproveStock       Action = "stock-request:approve"
	ActionReceiveStock       Action = "stock-request:finish"
	ActionManageInventory    Action = "inventory:manage"
	ActionViewInventory      Action = "inventory:view"
	ActionViewAudit          Action = "audit:view"
	ActionExportCashierShift Action = "shift:cashier-export"
)

// policy lists the roles allowed for each action besides admin and owner,
// who may do everything.
var policy = map[Action][]models.Role{
	ActionViewAllBranches:    {models.RoleTreasurer, models.RoleWarehouse},
	ActionEmployeeShift:      {models.RoleTreasurer, models.RoleWarehouse, models.RoleKitchen, models.RoleCashier},
	ActionKitchenShift:       {models.RoleKitchen},
	ActionCashierShift:       {models.RoleCashier},
	ActionWarehouseShift:     {models.RoleWarehouse},
	ActionViewShifts:         {models.RoleTreasurer, models.RoleWarehouse, models.RoleKitchen, models.RoleCashier},
	ActionCreateOrder:        {models.RoleCashier},
	ActionUpdateOrder:        {models.RoleCashier, models.RoleKitchen},
	ActionRefundOrder:        {models.RoleCashier, models.RoleTreasurer},
	ActionViewOrders:         {models.RoleTreasurer, models.RoleKitchen, models.RoleCashier},
	ActionRequestStock:       {models.RoleKitchen},
	ActionApproveStock:       {models.RoleWarehouse},
	ActionReceiveStock:       {models.RoleKitchen},
	ActionManageInventory:    {models.RoleWarehouse},
	ActionViewInventory:      {models.RoleWarehouse, models.RoleKitchen, models.RoleTreasurer},
	ActionViewAudit:          {models.RoleTreasurer},
	ActionExportCashierShift: {models.RoleTreasurer, models.RoleCashier},
}

func isManager(r models.Role) bool {
	return r == models.RoleAdmin || r == models.RoleOwner
}

// Can reports whether actor may perform action.
func Can(actor Actor, action Action) bool {
	if isManager(actor.Role) {
		return true
	}
	for _, r := range policy[action] {
		if r == actor.Role {
			return true
		}
	}
	return false
}

// BranchForRequest resolves the branch a request operates on. Staff bound to
// a branch always act on their own branch; roles that see every branch must
// name one.
func BranchForRequest(actor Actor, requested *uint) (uint, error) {
	if Can(actor, ActionViewAllBranches) {
		if requested != nil && *requested > 0 {
			return *requested, nil
		}
		if actor.BranchID != nil {
			return *actor.BranchID, nil
		}
		return 0, apperr.BadRequest("branch_id wajib diisi")
	}
	if actor.BranchID == nil {
		return 0, apperr.Forbidden("Karyawan belum ditempatkan di cabang")
	}
	if requested != nil && *requested > 0 && *requested != *actor.BranchID {
		return 0, apperr.Forbidden("Tidak dapat mengakses cabang lain")
	}
	return *actor.BranchID, nil
}

// BranchFilter is BranchForRequest for list endpoints: roles that see every
// branch may omit the branch and get nil (no filter).
func BranchFilter(actor Actor, requested *uint) (*uint, error) {
	if Can(actor, ActionViewAllBranches) && (requested == nil || *requested == 0) {
		return nil, nil
	}
	id, err := BranchForRequest(actor, requested)
	if err != nil {
		return nil, err
	}
	return &id, nil
}
