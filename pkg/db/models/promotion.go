package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/vinhvuiver2003/doantotnghiep-sub000/pkg/enums"
)

// Promotion is a discount code. Value is a percentage for percentage promotions and
// a currency amount (not cents) for fixed_amount promotions.
type Promotion struct {
	ID                uuid.UUID             `gorm:"column:id;type:uuid;primaryKey"`
	Code              *string               `gorm:"column:code;uniqueIndex"`
	Name              string                `gorm:"column:name;not null"`
	DiscountType      enums.DiscountType    `gorm:"column:discount_type;type:text;not null"`
	Value             decimal.Decimal       `gorm:"column:value;type:numeric(12,2);not null"`
	MinimumOrderCents int                   `gorm:"column:minimum_order_cents;not null"`
	UsageLimit        *int                  `gorm:"column:usage_limit"`
	UsageCount        int                   `gorm:"column:usage_count;not null"`
	StartDate         time.Time             `gorm:"column:start_date;not null"`
	EndDate           time.Time             `gorm:"column:end_date;not null"`
	Status            enums.PromotionStatus `gorm:"column:status;type:text;not null"`
	CreatedAt         time.Time             `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt         time.Time             `gorm:"column:updated_at;autoUpdateTime"`
}

func (p *Promotion) BeforeCreate(*gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}
