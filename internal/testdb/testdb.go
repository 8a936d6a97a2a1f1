// Package testdb opens throwaway sqlite databases migrated with the storefront models.
package testdb

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/vinhvuiver2003/doantotnghiep-sub000/pkg/db/models"
	"github.com/vinhvuiver2003/doantotnghiep-sub000/pkg/enums"
)

// Models lists every table the services touch, in dependency order.
var Models = []any{
	&models.Product{},
	&models.ProductVariant{},
	&models.Cart{},
	&models.CartLine{},
	&models.Promotion{},
	&models.Order{},
	&models.OrderLine{},
	&models.Delivery{},
	&models.Payment{},
	&models.OutboxEvent{},
	&models.OutboxDLQ{},
}

// New opens a private in-memory database. The pool is pinned to one connection so
// concurrent tests serialize on it instead of failing with SQLITE_LOCKED.
func New(t *testing.T, name string) *gorm.DB {
	t.Helper()
	dsn := "file:" + name + "_" + uuid.NewString() + "?mode=memory&cache=shared&_foreign_keys=1"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("sql db: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	if err := db.AutoMigrate(Models...); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

// SeedVariant creates an active product with one variant and returns both.
func SeedVariant(t *testing.T, db *gorm.DB, basePriceCents, adjustmentCents, stock int) (models.Product, models.ProductVariant) {
	t.Helper()
	product := models.Product{
		Name:           "Product " + uuid.NewString()[:8],
		BasePriceCents: basePriceCents,
		Status:         enums.ProductStatusActive,
	}
	if err := db.Create(&product).Error; err != nil {
		t.Fatalf("seed product: %v", err)
	}
	variant := AddVariant(t, db, product.ID, adjustmentCents, stock)
	return product, variant
}

// AddVariant attaches another variant to an existing product.
func AddVariant(t *testing.T, db *gorm.DB, productID uuid.UUID, adjustmentCents, stock int) models.ProductVariant {
	t.Helper()
	status := enums.VariantStatusActive
	if stock == 0 {
		status = enums.VariantStatusOutOfStock
	}
	variant := models.ProductVariant{
		ProductID:            productID,
		SKU:                  "SKU-" + uuid.NewString()[:12],
		Name:                 "Default",
		PriceAdjustmentCents: adjustmentCents,
		StockQuantity:        stock,
		Status:               status,
	}
	if err := db.Create(&variant).Error; err != nil {
		t.Fatalf("seed variant: %v", err)
	}
	return variant
}

// SeedPromotion creates an active promotion valid for a day on either side of now.
func SeedPromotion(t *testing.T, db *gorm.DB, code string, discountType enums.DiscountType, value string, minimumCents int, limit *int) models.Promotion {
	t.Helper()
	now := time.Now().UTC()
	promo := models.Promotion{
		Code:              &code,
		Name:              code,
		DiscountType:      discountType,
		Value:             decimal.RequireFromString(value),
		MinimumOrderCents: minimumCents,
		UsageLimit:        limit,
		StartDate:         now.Add(-24 * time.Hour),
		EndDate:           now.Add(24 * time.Hour),
		Status:            enums.PromotionStatusActive,
	}
	if err := db.Create(&promo).Error; err != nil {
		t.Fatalf("seed promotion: %v", err)
	}
	return promo
}

// ReloadVariant reads the current row for assertions.
func ReloadVariant(t *testing.T, db *gorm.DB, id uuid.UUID) models.ProductVariant {
	t.Helper()
	var variant models.ProductVariant
	if err := db.First(&variant, "id = ?", id).Error; err != nil {
		t.Fatalf("reload variant: %v", err)
	}
	return variant
}

// Count returns the row count for a model, failing the test on error.
func Count(t *testing.T, db *gorm.DB, model any) int64 {
	t.Helper()
	var n int64
	if err := db.Model(model).Count(&n).Error; err != nil {
		t.Fatalf("count: %v", err)
	}
	return n
}
