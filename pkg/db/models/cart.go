package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Cart is owned by exactly one of a registered user or a hashed guest session token.
type Cart struct {
	ID               uuid.UUID  `gorm:"column:id;type:uuid;primaryKey"`
	UserID           *uuid.UUID `gorm:"column:user_id;type:uuid;index;check:chk_carts_owner,(user_id IS NULL) <> (session_token_hash IS NULL)"`
	SessionTokenHash *string    `gorm:"column:session_token_hash;index"`
	CheckedOut       bool       `gorm:"column:checked_out;not null"`
	CheckedOutAt     *time.Time `gorm:"column:checked_out_at"`
	Lines            []CartLine `gorm:"foreignKey:CartID;constraint:OnDelete:CASCADE"`
	CreatedAt        time.Time  `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt        time.Time  `gorm:"column:updated_at;autoUpdateTime"`
}

func (c *Cart) BeforeCreate(*gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return nil
}

// IsGuest reports whether the cart is keyed by a session token.
func (c *Cart) IsGuest() bool {
	return c.UserID == nil
}
