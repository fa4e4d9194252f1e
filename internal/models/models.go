package models

// All lists every persisted model in migration order.
func All() []any {
	return []any{
		&Branch{},
		&User{},
		&Employee{},
		&Customer{},
		&Menu{},
		&EmployeeShift{},
		&KitchenShift{},
		&KitchenShiftDetail{},
		&CashierShift{},
		&CashierShiftCashIn{},
		&CashierShiftCashOut{},
		&WarehouseShift{},
		&Order{},
		&OrderItem{},
		&OrderPayment{},
		&RefundItem{},
		&InventoryItem{},
		&StockMovement{},
		&StockRequest{},
		&StockRequestItem{},
		&AuditLog{},
	}
}
