package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/vinhvuiver2003/doantotnghiep-sub000/pkg/enums"
)

// Payment tracks settlement for exactly one order.
type Payment struct {
	ID               uuid.UUID           `gorm:"column:id;type:uuid;primaryKey"`
	OrderID          uuid.UUID           `gorm:"column:order_id;type:uuid;not null;uniqueIndex"`
	Status           enums.PaymentStatus `gorm:"column:status;type:text;not null"`
	Method           enums.PaymentMethod `gorm:"column:method;type:text;not null"`
	AmountCents      int                 `gorm:"column:amount_cents;not null"`
	GatewayReference *string             `gorm:"column:gateway_reference;index"`
	FailureReason    *string             `gorm:"column:failure_reason"`
	PaymentDate      *time.Time          `gorm:"column:payment_date"`
	CreatedAt        time.Time           `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt        time.Time           `gorm:"column:updated_at;autoUpdateTime"`
}

func (p *Payment) BeforeCreate(*gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}
