// Package testutil provides an in-memory database for package tests.
package testutil

import (
	"fmt"
	"testing"
	"time"

	"github.com/PramesRay/pos-service/internal/database"
	"github.com/PramesRay/pos-service/internal/models"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// NewDB returns a migrated SQLite database private to the test.
// A single connection keeps every statement on the same in-memory database.
func NewDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("sql db: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	if err := database.Migrate(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

// Fixture creates the rows most service tests start from.
type Fixture struct {
	DB      *gorm.DB
	Branch  models.Branch
	Admin   models.Employee
	Cashier models.Employee
	Kitchen models.Employee
	Gudang  models.Employee
	Menus   []models.Menu
	Items   []models.InventoryItem
}

func NewFixture(t *testing.T) *Fixture {
	t.Helper()
	db := NewDB(t)
	f := &Fixture{DB: db}

	f.Branch = models.Branch{Name: "Cabang Utama", Address: "Jl. Merdeka 1"}
	must(t, db.Create(&f.Branch).Error)

	f.Admin = Employee(t, db, "admin", models.RoleAdmin, nil)
	f.Cashier = Employee(t, db, "kasir", models.RoleCashier, &f.Branch.ID)
	f.Kitchen = Employee(t, db, "dapur", models.RoleKitchen, &f.Branch.ID)
	f.Gudang = Employee(t, db, "gudang", models.RoleWarehouse, nil)

	f.Menus = []models.Menu{
		{BranchID: f.Branch.ID, Name: "Nasi Goreng", Price: 25000, IsAvailable: true},
		{BranchID: f.Branch.ID, Name: "Es Teh", Price: 5000, IsAvailable: true},
		{BranchID: f.Branch.ID, Name: "Mie Ayam", Price: 20000, IsAvailable: true},
	}
	must(t, db.Create(&f.Menus).Error)

	f.Items = []models.InventoryItem{
		{Name: "Beras", Unit: "kg", Quantity: 50, IsNew: false},
		{Name: "Gula", Unit: "kg", Quantity: 10, IsNew: true},
	}
	must(t, db.Create(&f.Items).Error)
	return f
}

// Employee creates an employee together with its user row.
func Employee(t *testing.T, db *gorm.DB, name string, role models.Role, branchID *uint) models.Employee {
	t.Helper()
	user := models.User{Type: models.UserTypeEmployee}
	must(t, db.Create(&user).Error)
	emp := models.Employee{
		UserID:   user.ID,
		UID:      "uid-" + name + "-" + uuid.NewString()[:8],
		Name:     name,
		Email:    name + "-" + uuid.NewString()[:8] + "@pos.test",
		Role:     role,
		BranchID: branchID,
	}
	must(t, db.Create(&emp).Error)
	return emp
}

// OpenKitchenShift inserts an open kitchen shift with the given stock per menu.
func (f *Fixture) OpenKitchenShift(t *testing.T, stock map[uint]int) models.KitchenShift {
	t.Helper()
	key := f.Branch.ID
	ks := models.KitchenShift{BranchID: f.Branch.ID, OpenedBy: f.Kitchen.UserID, Start: time.Now(), OpenKey: &key}
	must(t, f.DB.Create(&ks).Error)
	for menuID, qty := range stock {
		must(t, f.DB.Create(&models.KitchenShiftDetail{
			KitchenShiftID: ks.ID, MenuID: menuID, InitialStock: qty, EndStock: qty,
		}).Error)
	}
	return ks
}

func (f *Fixture) OpenCashierShift(t *testing.T) models.CashierShift {
	t.Helper()
	key := f.Branch.ID
	cs := models.CashierShift{BranchID: f.Branch.ID, OpenedBy: f.Cashier.UserID, Start: time.Now(), OpenKey: &key, InitialCash: 100000}
	must(t, f.DB.Create(&cs).Error)
	return cs
}

func (f *Fixture) OpenWarehouseShift(t *testing.T) models.WarehouseShift {
	t.Helper()
	key := models.WarehouseOpenKey
	ws := models.WarehouseShift{OpenedBy: f.Gudang.UserID, Start: time.Now(), OpenKey: &key}
	must(t, f.DB.Create(&ws).Error)
	return ws
}

// EndStock reads the remaining stock of a menu in a kitchen shift.
func (f *Fixture) EndStock(t *testing.T, shiftID, menuID uint) int {
	t.Helper()
	var d models.KitchenShiftDetail
	must(t, f.DB.Where("kitchen_shift_id = ? AND menu_id = ?", shiftID, menuID).First(&d).Error)
	return d.EndStock
}

func must(t *testing.T, err error) {
	t.Helper()
	if err != nil {
		t.Fatalf("fixture: %v", err)
	}
}

// Customer creates a customer together with its user row.
func Customer(t *testing.T, db *gorm.DB, name, phone string) models.Customer {
	t.Helper()
	user := models.User{Type: models.UserTypeCustomer}
	must(t, db.Create(&user).Error)
	c := models.Customer{UserID: user.ID, Name: name, Phone: phone}
	must(t, db.Create(&c).Error)
	return c
}
