package checkout

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/vinhvuiver2003/doantotnghiep-sub000/pkg/db/models"
)

// Repository exposes checkout lookups that span carts and orders.
type Repository struct {
	db *gorm.DB
}

// NewRepository builds a checkout repository backed by the provided DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	if tx == nil {
		return r
	}
	return &Repository{db: tx}
}

// FindBySourceCart returns the order a cart was converted into, or nil when the
// cart never completed checkout.
func (r *Repository) FindBySourceCart(ctx context.Context, cartID uuid.UUID) (*models.Order, error) {
	if cartID == uuid.Nil {
		return nil, nil
	}
	var order models.Order
	err := r.db.WithContext(ctx).
		Preload("Lines").
		Preload("Delivery").
		Preload("Payment").
		Where("source_cart_id = ?", cartID).
		Order("created_at DESC").
		First(&order).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &order, nil
}
