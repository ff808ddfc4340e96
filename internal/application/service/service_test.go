package service

import (
	"context"
	"testing"

	"github.com/dukaanpos/dukaan-api/internal/domain/entity"
	"github.com/dukaanpos/dukaan-api/internal/infrastructure/database"
	infraRepo "github.com/dukaanpos/dukaan-api/internal/infrastructure/repository"
	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// testEnv is a shop with a live in-memory database and a context scoped
// to it, the way requests arrive below the shop middleware.
type testEnv struct {
	db   *gorm.DB
	ctx  context.Context
	shop *entity.Shop
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open database: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("unwrap database: %v", err)
	}
	// One connection keeps the shared in-memory database alive and
	// serializes concurrent test writers the way sqlite requires.
	sqlDB.SetMaxOpenConns(1)

	if err := database.AutoMigrate(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	owner := &entity.User{Name: "Owner", Email: uuid.NewString() + "@example.com", Provider: "local"}
	if err := db.Create(owner).Error; err != nil {
		t.Fatalf("create owner: %v", err)
	}

	shop := &entity.Shop{Name: "Corner Store", Slug: "corner-store-" + uuid.NewString()[:8], OwnerID: owner.ID}
	if err := infraRepo.NewShopRepository(db).Create(context.Background(), shop); err != nil {
		t.Fatalf("create shop: %v", err)
	}

	return &testEnv{
		db:   db,
		ctx:  infraRepo.WithShop(context.Background(), shop.ID),
		shop: shop,
	}
}

func (e *testEnv) createCustomer(t *testing.T, name string) *entity.Customer {
	t.Helper()
	customer := &entity.Customer{ShopID: e.shop.ID, Name: name}
	if err := e.db.Create(customer).Error; err != nil {
		t.Fatalf("create customer: %v", err)
	}
	return customer
}

func (e *testEnv) createProduct(t *testing.T, name string, priceCents int64, stock int) *entity.Product {
	t.Helper()
	product := &entity.Product{ShopID: e.shop.ID, Name: name, Price: priceCents, Stock: stock, StockAlert: 5}
	if err := e.db.Create(product).Error; err != nil {
		t.Fatalf("create product: %v", err)
	}
	return product
}

func (e *testEnv) customerBalance(t *testing.T, id uuid.UUID) int64 {
	t.Helper()
	var customer entity.Customer
	if err := e.db.First(&customer, "id = ?", id).Error; err != nil {
		t.Fatalf("reload customer: %v", err)
	}
	return customer.TotalDue
}
