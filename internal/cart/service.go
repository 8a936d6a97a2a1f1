package cart

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/vinhvuiver2003/doantotnghiep-sub000/internal/catalog"
	"github.com/vinhvuiver2003/doantotnghiep-sub000/pkg/db"
	"github.com/vinhvuiver2003/doantotnghiep-sub000/pkg/db/models"
	pkgerrors "github.com/vinhvuiver2003/doantotnghiep-sub000/pkg/errors"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Service exposes cart operations. Every cart-scoped call takes the caller's owner
// key and rejects carts that belong to someone else.
type Service interface {
	GetOrCreate(ctx context.Context, owner OwnerKey) (*models.Cart, error)
	Get(ctx context.Context, owner OwnerKey, cartID uuid.UUID) (*View, error)
	AddLine(ctx context.Context, owner OwnerKey, cartID, productID, variantID uuid.UUID, qty int) (*models.CartLine, error)
	UpdateLine(ctx context.Context, owner OwnerKey, cartID, lineID uuid.UUID, qty int) error
	RemoveLine(ctx context.Context, owner OwnerKey, cartID, lineID uuid.UUID) error
	Clear(ctx context.Context, owner OwnerKey, cartID uuid.UUID) error
	MergeGuestIntoUser(ctx context.Context, sessionToken string, userID uuid.UUID) (*MergeResult, error)
	DeleteExpired(ctx context.Context, olderThan time.Time) (int64, error)
}

// MergeResult reports the destination cart of a guest merge.
type MergeResult struct {
	Cart        *models.Cart
	GuestCartID uuid.UUID
	MergedLines int
	Skipped     bool
}

type service struct {
	tx      txRunner
	repo    *Repository
	catalog *catalog.Repository
	retry   db.RetryPolicy
	now     func() time.Time
}

// NewService builds a cart service backed by the provided stack.
func NewService(tx txRunner, repo *Repository, catalogRepo *catalog.Repository, retry db.RetryPolicy) (Service, error) {
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if repo == nil {
		return nil, fmt.Errorf("cart repository required")
	}
	if catalogRepo == nil {
		return nil, fmt.Errorf("catalog repository required")
	}
	return &service{
		tx:      tx,
		repo:    repo,
		catalog: catalogRepo,
		retry:   retry,
		now:     func() time.Time { return time.Now().UTC() },
	}, nil
}

// GetOrCreate returns the owner's open cart, creating an empty one when the
// latest cart is checked out or none exists.
func (s *service) GetOrCreate(ctx context.Context, owner OwnerKey) (*models.Cart, error) {
	if err := owner.Validate(); err != nil {
		return nil, err
	}
	var out *models.Cart
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		c, err := s.getOrCreateTx(ctx, s.repo.WithTx(tx), owner)
		out = c
		return err
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (s *service) getOrCreateTx(ctx context.Context, repo *Repository, owner OwnerKey) (*models.Cart, error) {
	existing, err := repo.FindActiveByOwner(ctx, owner)
	if err == nil {
		return existing, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load cart")
	}
	c := owner.newCart()
	if err := repo.Create(ctx, c); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create cart")
	}
	c.Lines = []models.CartLine{}
	return c, nil
}

// AddLine adds qty of a variant, summing into an existing line for the same item.
func (s *service) AddLine(ctx context.Context, owner OwnerKey, cartID, productID, variantID uuid.UUID, qty int) (*models.CartLine, error) {
	if qty < 1 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "quantity must be at least 1")
	}
	var out *models.CartLine
	err := db.RetryOnConflict(ctx, s.retry, func(ctx context.Context) error {
		return s.tx.WithTx(ctx, func(tx *gorm.DB) error {
			repo := s.repo.WithTx(tx)
			if _, err := s.loadOpenCart(ctx, repo, owner, cartID); err != nil {
				return err
			}
			item, err := s.catalog.WithTx(tx).GetItem(ctx, productID, variantID)
			if err != nil {
				return err
			}
			if err := item.EnsureSellable(); err != nil {
				return err
			}

			existing, err := repo.FindLine(ctx, cartID, productID, variantID)
			if err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load cart line")
			}
			total := qty
			if existing != nil {
				total += existing.Quantity
			}
			if err := checkStock(item.Variant, total); err != nil {
				return err
			}

			if existing != nil {
				if err := repo.AddLineQuantity(ctx, existing.ID, qty); err != nil {
					return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "update cart line")
				}
				existing.Quantity = total
				out = existing
			} else {
				line := &models.CartLine{CartID: cartID, ProductID: productID, VariantID: variantID, Quantity: total}
				if err := repo.CreateLine(ctx, line); err != nil {
					if db.IsUniqueViolation(err, "") {
						return pkgerrors.Wrap(pkgerrors.CodeConflict, err, "cart line added concurrently")
					}
					return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create cart line")
				}
				out = line
			}
			return s.touch(ctx, repo, cartID)
		})
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// UpdateLine sets a line's quantity. qty <= 0 removes the line.
func (s *service) UpdateLine(ctx context.Context, owner OwnerKey, cartID, lineID uuid.UUID, qty int) error {
	return s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		if _, err := s.loadOpenCart(ctx, repo, owner, cartID); err != nil {
			return err
		}
		line, err := repo.FindLineByID(ctx, cartID, lineID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "cart line not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load cart line")
		}
		if qty <= 0 {
			if err := repo.DeleteLine(ctx, cartID, lineID); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "delete cart line")
			}
			return s.touch(ctx, repo, cartID)
		}
		variant, err := s.catalog.WithTx(tx).GetVariant(ctx, line.VariantID)
		if err != nil {
			return err
		}
		if err := checkStock(*variant, qty); err != nil {
			return err
		}
		if err := repo.SetLineQuantity(ctx, lineID, qty); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "update cart line")
		}
		return s.touch(ctx, repo, cartID)
	})
}

// RemoveLine deletes a line; removing a missing line succeeds.
func (s *service) RemoveLine(ctx context.Context, owner OwnerKey, cartID, lineID uuid.UUID) error {
	return s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		if _, err := s.loadOpenCart(ctx, repo, owner, cartID); err != nil {
			return err
		}
		if err := repo.DeleteLine(ctx, cartID, lineID); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "delete cart line")
		}
		return s.touch(ctx, repo, cartID)
	})
}

// Clear empties the cart.
func (s *service) Clear(ctx context.Context, owner OwnerKey, cartID uuid.UUID) error {
	return s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		if _, err := s.loadOpenCart(ctx, repo, owner, cartID); err != nil {
			return err
		}
		if err := repo.DeleteLines(ctx, cartID); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "clear cart")
		}
		return s.touch(ctx, repo, cartID)
	})
}

// MergeGuestIntoUser moves every line of the guest cart into the user's open cart
// and deletes the guest cart, all in one transaction.
func (s *service) MergeGuestIntoUser(ctx context.Context, sessionToken string, userID uuid.UUID) (*MergeResult, error) {
	guestOwner, err := GuestOwner(sessionToken)
	if err != nil {
		return nil, err
	}
	userOwner, err := UserOwner(userID)
	if err != nil {
		return nil, err
	}

	var result *MergeResult
	err = db.RetryOnConflict(ctx, s.retry, func(ctx context.Context) error {
		return s.tx.WithTx(ctx, func(tx *gorm.DB) error {
			repo := s.repo.WithTx(tx)
			guest, err := repo.FindLatestGuest(ctx, HashSessionToken(guestOwner.SessionToken))
			if err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return pkgerrors.New(pkgerrors.CodeNotFound, "guest cart not found")
				}
				return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load guest cart")
			}
			if guest.CheckedOut {
				result = &MergeResult{GuestCartID: guest.ID, Skipped: true}
				return nil
			}

			dest, err := s.getOrCreateTx(ctx, repo, userOwner)
			if err != nil {
				return err
			}
			merged := 0
			for _, line := range guest.Lines {
				existing, err := repo.FindLine(ctx, dest.ID, line.ProductID, line.VariantID)
				if err != nil {
					return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load cart line")
				}
				if existing != nil {
					if err := repo.AddLineQuantity(ctx, existing.ID, line.Quantity); err != nil {
						return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "merge cart line")
					}
				} else {
					copied := &models.CartLine{CartID: dest.ID, ProductID: line.ProductID, VariantID: line.VariantID, Quantity: line.Quantity}
					if err := repo.CreateLine(ctx, copied); err != nil {
						if db.IsUniqueViolation(err, "") {
							return pkgerrors.Wrap(pkgerrors.CodeConflict, err, "cart line added concurrently")
						}
						return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "copy cart line")
					}
				}
				merged++
			}
			if err := repo.Delete(ctx, guest.ID); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "delete guest cart")
			}
			if merged > 0 {
				if err := s.touch(ctx, repo, dest.ID); err != nil {
					return err
				}
			}
			reloaded, err := repo.FindByID(ctx, dest.ID)
			if err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "reload cart")
			}
			result = &MergeResult{Cart: reloaded, GuestCartID: guest.ID, MergedLines: merged}
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// DeleteExpired removes open guest carts not updated since olderThan.
func (s *service) DeleteExpired(ctx context.Context, olderThan time.Time) (int64, error) {
	var deleted int64
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		n, err := s.repo.WithTx(tx).DeleteExpiredGuest(ctx, olderThan)
		deleted = n
		return err
	})
	if err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "delete expired carts")
	}
	return deleted, nil
}

// loadOpenCart locks the cart row, so the checked-out flag it reads holds until commit.
func (s *service) loadOpenCart(ctx context.Context, repo *Repository, owner OwnerKey, cartID uuid.UUID) (*models.Cart, error) {
	c, err := repo.LockByID(ctx, cartID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "cart not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load cart")
	}
	if err := EnsureOwner(c, owner); err != nil {
		return nil, err
	}
	if c.CheckedOut {
		return nil, pkgerrors.New(pkgerrors.CodeInvalidState, "cart is already checked out")
	}
	return c, nil
}

func (s *service) touch(ctx context.Context, repo *Repository, cartID uuid.UUID) error {
	if err := repo.Touch(ctx, cartID, s.now()); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "touch cart")
	}
	return nil
}

func checkStock(variant models.ProductVariant, qty int) error {
	if qty > variant.StockQuantity {
		return pkgerrors.New(pkgerrors.CodeInvalidState, fmt.Sprintf("insufficient stock for variant %s", variant.SKU)).
			WithDetails(map[string]any{"variant_id": variant.ID, "requested": qty, "available": variant.StockQuantity})
	}
	return nil
}
