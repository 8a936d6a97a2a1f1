package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/vinhvuiver2003/doantotnghiep-sub000/pkg/enums"
	"github.com/vinhvuiver2003/doantotnghiep-sub000/pkg/types"
)

// Delivery tracks fulfillment for exactly one order.
type Delivery struct {
	ID             uuid.UUID             `gorm:"column:id;type:uuid;primaryKey"`
	OrderID        uuid.UUID             `gorm:"column:order_id;type:uuid;not null;uniqueIndex"`
	Status         enums.DeliveryStatus  `gorm:"column:status;type:text;not null"`
	ShippingMethod enums.ShippingMethod  `gorm:"column:shipping_method;type:text;not null"`
	Address        types.ShippingAddress `gorm:"column:address;type:jsonb;not null"`
	TrackingNumber *string               `gorm:"column:tracking_number"`
	ShippedDate    *time.Time            `gorm:"column:shipped_date"`
	DeliveredDate  *time.Time            `gorm:"column:delivered_date"`
	CreatedAt      time.Time             `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt      time.Time             `gorm:"column:updated_at;autoUpdateTime"`
}

func (d *Delivery) BeforeCreate(*gorm.DB) error {
	if d.ID == uuid.Nil {
		d.ID = uuid.New()
	}
	return nil
}
