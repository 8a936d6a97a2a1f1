package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/vinhvuiver2003/doantotnghiep-sub000/pkg/enums"
)

// ProductVariant owns the stock counter. Status is derived from StockQuantity by the
// inventory ledger and is never written independently while stock is zero.
type ProductVariant struct {
	ID                   uuid.UUID           `gorm:"column:id;type:uuid;primaryKey"`
	ProductID            uuid.UUID           `gorm:"column:product_id;type:uuid;not null;index"`
	SKU                  string              `gorm:"column:sku;not null;uniqueIndex"`
	Name                 string              `gorm:"column:name;not null"`
	PriceAdjustmentCents int                 `gorm:"column:price_adjustment_cents;not null"`
	StockQuantity        int                 `gorm:"column:stock_quantity;not null;check:chk_product_variants_stock,stock_quantity >= 0"`
	Status               enums.VariantStatus `gorm:"column:status;type:text;not null"`
	CreatedAt            time.Time           `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt            time.Time           `gorm:"column:updated_at;autoUpdateTime"`
}

func (v *ProductVariant) BeforeCreate(*gorm.DB) error {
	if v.ID == uuid.Nil {
		v.ID = uuid.New()
	}
	return nil
}
