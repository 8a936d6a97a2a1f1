package cart

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/vinhvuiver2003/doantotnghiep-sub000/pkg/db/models"
)

// Repository exposes persistence operations for carts and their lines.
type Repository struct {
	db *gorm.DB
}

// NewRepository constructs a cart repository bound to the provided DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// WithTx binds the repository to a transaction.
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	if tx == nil {
		return r
	}
	return &Repository{db: tx}
}

// forUpdate row-locks the selected carts until the surrounding transaction ends,
// so cart mutations and checkout of the same cart run one after the other.
func forUpdate(db *gorm.DB) *gorm.DB {
	return db.Clauses(clause.Locking{Strength: "UPDATE"})
}

// FindActiveByOwner locks and loads the most recently updated cart that is not
// checked out. Returns gorm.ErrRecordNotFound when the owner has none.
func (r *Repository) FindActiveByOwner(ctx context.Context, owner OwnerKey) (*models.Cart, error) {
	q := forUpdate(r.db.WithContext(ctx)).Where("checked_out = ?", false)
	if owner.IsGuest() {
		q = q.Where("session_token_hash = ?", HashSessionToken(owner.SessionToken))
	} else {
		q = q.Where("user_id = ?", owner.UserID)
	}
	var c models.Cart
	if err := q.Order("updated_at DESC").Preload("Lines", orderLines).First(&c).Error; err != nil {
		return nil, err
	}
	return &c, nil
}

// FindLatestGuest locks and loads the newest cart for a hashed session token
// regardless of its checkout state.
func (r *Repository) FindLatestGuest(ctx context.Context, tokenHash string) (*models.Cart, error) {
	var c models.Cart
	err := forUpdate(r.db.WithContext(ctx)).
		Where("session_token_hash = ?", tokenHash).
		Order("updated_at DESC").
		Preload("Lines", orderLines).
		First(&c).Error
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// FindByID loads a cart with its lines.
func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Cart, error) {
	var c models.Cart
	if err := r.db.WithContext(ctx).Preload("Lines", orderLines).First(&c, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &c, nil
}

// LockByID is FindByID holding the cart row lock for the rest of the transaction.
func (r *Repository) LockByID(ctx context.Context, id uuid.UUID) (*models.Cart, error) {
	var c models.Cart
	if err := forUpdate(r.db.WithContext(ctx)).Preload("Lines", orderLines).First(&c, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &c, nil
}

// Create inserts a new cart.
func (r *Repository) Create(ctx context.Context, c *models.Cart) error {
	return r.db.WithContext(ctx).Create(c).Error
}

// Touch bumps updated_at so the cart sorts as most recent for its owner.
func (r *Repository) Touch(ctx context.Context, id uuid.UUID, at time.Time) error {
	return r.db.WithContext(ctx).Model(&models.Cart{}).Where("id = ?", id).Update("updated_at", at).Error
}

// MarkCheckedOut flips the cart to its terminal state. It reports false when the cart
// was already checked out by a concurrent request.
func (r *Repository) MarkCheckedOut(ctx context.Context, id uuid.UUID, at time.Time) (bool, error) {
	res := r.db.WithContext(ctx).Model(&models.Cart{}).
		Where("id = ? AND checked_out = ?", id, false).
		Updates(map[string]any{"checked_out": true, "checked_out_at": at, "updated_at": at})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

// FindLine returns the line for (cart, product, variant) or nil.
func (r *Repository) FindLine(ctx context.Context, cartID, productID, variantID uuid.UUID) (*models.CartLine, error) {
	var line models.CartLine
	err := r.db.WithContext(ctx).
		Where("cart_id = ? AND product_id = ? AND variant_id = ?", cartID, productID, variantID).
		First(&line).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &line, nil
}

// FindLineByID returns a line scoped to its cart or gorm.ErrRecordNotFound.
func (r *Repository) FindLineByID(ctx context.Context, cartID, lineID uuid.UUID) (*models.CartLine, error) {
	var line models.CartLine
	if err := r.db.WithContext(ctx).Where("id = ? AND cart_id = ?", lineID, cartID).First(&line).Error; err != nil {
		return nil, err
	}
	return &line, nil
}

// CreateLine inserts a line. A concurrent insert for the same item fails on
// ux_cart_lines_item.
func (r *Repository) CreateLine(ctx context.Context, line *models.CartLine) error {
	return r.db.WithContext(ctx).Create(line).Error
}

// AddLineQuantity adds delta to a line in place.
func (r *Repository) AddLineQuantity(ctx context.Context, lineID uuid.UUID, delta int) error {
	return r.db.WithContext(ctx).Model(&models.CartLine{}).Where("id = ?", lineID).
		Update("quantity", gorm.Expr("quantity + ?", delta)).Error
}

// SetLineQuantity overwrites the quantity of a line.
func (r *Repository) SetLineQuantity(ctx context.Context, lineID uuid.UUID, qty int) error {
	return r.db.WithContext(ctx).Model(&models.CartLine{}).Where("id = ?", lineID).Update("quantity", qty).Error
}

// DeleteLine removes a single line. Missing lines are ignored.
func (r *Repository) DeleteLine(ctx context.Context, cartID, lineID uuid.UUID) error {
	return r.db.WithContext(ctx).Where("id = ? AND cart_id = ?", lineID, cartID).Delete(&models.CartLine{}).Error
}

// DeleteLines removes every line of a cart.
func (r *Repository) DeleteLines(ctx context.Context, cartID uuid.UUID) error {
	return r.db.WithContext(ctx).Where("cart_id = ?", cartID).Delete(&models.CartLine{}).Error
}

// Delete removes a cart and its lines.
func (r *Repository) Delete(ctx context.Context, cartID uuid.UUID) error {
	if err := r.DeleteLines(ctx, cartID); err != nil {
		return err
	}
	return r.db.WithContext(ctx).Where("id = ?", cartID).Delete(&models.Cart{}).Error
}

// DeleteExpiredGuest removes abandoned guest carts last touched before cutoff.
func (r *Repository) DeleteExpiredGuest(ctx context.Context, cutoff time.Time) (int64, error) {
	var ids []uuid.UUID
	err := r.db.WithContext(ctx).Model(&models.Cart{}).
		Where("user_id IS NULL AND checked_out = ? AND updated_at < ?", false, cutoff).
		Pluck("id", &ids).Error
	if err != nil || len(ids) == 0 {
		return 0, err
	}
	if err := r.db.WithContext(ctx).Where("cart_id IN ?", ids).Delete(&models.CartLine{}).Error; err != nil {
		return 0, err
	}
	res := r.db.WithContext(ctx).Where("id IN ? AND checked_out = ?", ids, false).Delete(&models.Cart{})
	return res.RowsAffected, res.Error
}

func orderLines(db *gorm.DB) *gorm.DB {
	return db.Order("created_at ASC")
}
