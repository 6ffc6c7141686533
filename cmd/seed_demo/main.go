package main

import (
	"fmt"
	"log"
	"time"

	"github.com/xelth-com/fieldopsgo/internal/config"
	"github.com/xelth-com/fieldopsgo/internal/database"
	"github.com/xelth-com/fieldopsgo/internal/models"
	"github.com/xelth-com/fieldopsgo/internal/utils"
)

// Seeds a local store with demo data for manual testing: one user per
// role, a small catalog, an order and an open shortage.
func main() {
	fmt.Println("🌱 FieldOps Demo Data Seeder")

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("❌ Failed to load config: %v", err)
	}

	db, err := database.Open(cfg.Database)
	if err != nil {
		log.Fatalf("❌ Failed to open local store: %v", err)
	}
	defer db.Close()

	var userCount int64
	db.DB.Model(&models.UserAccount{}).Count(&userCount)
	if userCount > 0 {
		fmt.Printf("⚠️  Store already has %d users. Clear it first? (y/N): ", userCount)
		var answer string
		fmt.Scanln(&answer)
		if answer != "y" && answer != "Y" {
			fmt.Println("❌ Aborted. Store not modified.")
			return
		}
		fmt.Println("🗑️  Clearing existing data...")
		for _, table := range []string{
			"packing_entries", "out_of_stock_lines", "out_of_stock_masters",
			"order_lines", "orders", "customers", "products", "user_accounts",
			"sales_routes", "brands", "categories", "units",
			"sync_watermarks", "failed_operations",
		} {
			db.DB.Exec("DELETE FROM " + table)
		}
	}

	fmt.Println("👤 Creating users...")
	hash, err := utils.HashPassword("demo1234")
	if err != nil {
		log.Fatalf("❌ Failed to hash demo password: %v", err)
	}
	users := []models.UserAccount{
		{ServerID: 1, Name: "Ada Admin", Username: "admin", PasswordHash: hash, Role: models.RoleAdmin, IsActive: 1},
		{ServerID: 2, Name: "Sam Supplier", Username: "supplier", PasswordHash: hash, Role: models.RoleSupplier, IsActive: 1},
		{ServerID: 3, Name: "Kim Storekeeper", Username: "storekeeper", PasswordHash: hash, Role: models.RoleStorekeeper, IsActive: 1},
		{ServerID: 4, Name: "Sal Salesman", Username: "salesman", PasswordHash: hash, Role: models.RoleSalesman, IsActive: 1},
	}
	for i := range users {
		if err := db.DB.Create(&users[i]).Error; err != nil {
			log.Fatalf("❌ Failed to create user %s: %v", users[i].Username, err)
		}
	}

	fmt.Println("📦 Creating catalog...")
	unit := models.Unit{ServerID: 1, Name: "pcs"}
	db.DB.Create(&unit)
	category := models.Category{ServerID: 1, Name: "Beverages"}
	db.DB.Create(&category)
	brand := models.Brand{ServerID: 1, Name: "Acme"}
	db.DB.Create(&brand)
	route := models.SalesRoute{ServerID: 1, Name: "North Loop", Area: "District 4"}
	db.DB.Create(&route)

	products := []models.Product{
		{ServerID: 1, Name: "Sparkling Water 1L", Code: "SW-1000", UnitID: 1, CategoryID: 1, BrandID: 1, SalePrice: 1.8, StockQty: 240, IsActive: 1},
		{ServerID: 2, Name: "Cold Brew 330ml", Code: "CB-0330", UnitID: 1, CategoryID: 1, BrandID: 1, SalePrice: 3.2, StockQty: 0, IsActive: 1},
	}
	for i := range products {
		db.DB.Create(&products[i])
	}

	fmt.Println("🧾 Creating order with a shortage...")
	customer := models.Customer{ServerID: 1, Name: "Corner Market", Address: "12 Main St", RouteID: 1, IsActive: 1}
	db.DB.Create(&customer)

	order := models.Order{
		ServerID:    1,
		OrderNumber: "SO-2026-0001",
		CustomerID:  1,
		SalesmanID:  4,
		OrderDate:   time.Now().UTC().Format("2006-01-02"),
		Status:      models.OrderStatusPending,
	}
	db.DB.Create(&order)

	line := models.OrderLine{ServerID: 1, OrderID: 1, ProductID: 2, Qty: 24, UnitPrice: 3.2}
	db.DB.Create(&line)

	master := models.OutOfStockMaster{
		ServerID:           1,
		OrderLineID:        1,
		ProductID:          2,
		RequestedQty:       24,
		Status:             models.StatusUnresolved,
		AssignedSupplierID: models.ServerKeyUnassigned,
		ReportedBy:         4,
		ReportedDate:       time.Now().UTC().Format("2006-01-02 15:04:05"),
	}
	db.DB.Create(&master)

	oosLine := models.OutOfStockLine{
		ServerID:           1,
		MasterID:           1,
		AssignedSupplierID: models.ServerKeyUnassigned,
		Status:             models.StatusUnresolved,
	}
	db.DB.Create(&oosLine)

	fmt.Println("✅ Demo data ready. Users admin/supplier/storekeeper/salesman, password demo1234")
}
