package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/vinhvuiver2003/doantotnghiep-sub000/pkg/enums"
	"github.com/vinhvuiver2003/doantotnghiep-sub000/pkg/types"
)

// Order is the aggregate root produced by checkout. Everything except Status,
// Version and UpdatedAt is fixed at creation.
type Order struct {
	ID                  uuid.UUID             `gorm:"column:id;type:uuid;primaryKey"`
	UserID              *uuid.UUID            `gorm:"column:user_id;type:uuid;index"`
	GuestName           *string               `gorm:"column:guest_name"`
	GuestEmail          *string               `gorm:"column:guest_email"`
	GuestPhone          *string               `gorm:"column:guest_phone"`
	SourceCartID        *uuid.UUID            `gorm:"column:source_cart_id;type:uuid"`
	Status              enums.OrderStatus     `gorm:"column:status;type:text;not null;index"`
	TotalAmountCents    int                   `gorm:"column:total_amount_cents;not null"`
	DiscountAmountCents int                   `gorm:"column:discount_amount_cents;not null"`
	ShippingFeeCents    int                   `gorm:"column:shipping_fee_cents;not null"`
	FinalAmountCents    int                   `gorm:"column:final_amount_cents;not null"`
	PromotionID         *uuid.UUID            `gorm:"column:promotion_id;type:uuid"`
	PromotionCode       *string               `gorm:"column:promotion_code"`
	ShippingAddress     types.ShippingAddress `gorm:"column:shipping_address;type:jsonb;not null"`
	ShippingMethod      enums.ShippingMethod  `gorm:"column:shipping_method;type:text;not null"`
	PaymentMethod       enums.PaymentMethod   `gorm:"column:payment_method;type:text;not null"`
	Notes               *string               `gorm:"column:notes"`
	Version             int                   `gorm:"column:version;not null"`
	Lines               []OrderLine           `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	Delivery            *Delivery             `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	Payment             *Payment              `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	CreatedAt           time.Time             `gorm:"column:created_at;autoCreateTime;index"`
	UpdatedAt           time.Time             `gorm:"column:updated_at;autoUpdateTime"`
}

func (o *Order) BeforeCreate(*gorm.DB) error {
	if o.ID == uuid.Nil {
		o.ID = uuid.New()
	}
	if o.Version == 0 {
		o.Version = 1
	}
	return nil
}

// IsGuest reports whether the order was placed without a registered user.
func (o *Order) IsGuest() bool {
	return o.UserID == nil
}
