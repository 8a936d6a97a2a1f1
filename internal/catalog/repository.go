package catalog

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/vinhvuiver2003/doantotnghiep-sub000/pkg/db/models"
	"github.com/vinhvuiver2003/doantotnghiep-sub000/pkg/enums"
	pkgerrors "github.com/vinhvuiver2003/doantotnghiep-sub000/pkg/errors"
)

// Item pairs a variant with its product at the moment it was read.
type Item struct {
	Product models.Product
	Variant models.ProductVariant
}

// UnitPriceCents is the product base price plus the variant adjustment.
func (i Item) UnitPriceCents() int {
	return i.Product.BasePriceCents + i.Variant.PriceAdjustmentCents
}

// EnsureSellable rejects inactive products and inactive variants. Stock is checked
// separately by the caller.
func (i Item) EnsureSellable() error {
	if i.Product.Status != enums.ProductStatusActive {
		return pkgerrors.New(pkgerrors.CodeInvalidState, fmt.Sprintf("product %s is not available", i.Product.Name))
	}
	if i.Variant.Status == enums.VariantStatusInactive {
		return pkgerrors.New(pkgerrors.CodeInvalidState, fmt.Sprintf("variant %s is not available", i.Variant.SKU))
	}
	return nil
}

// Repository reads current catalog state. It never writes stock; that belongs to
// the inventory ledger.
type Repository struct {
	db *gorm.DB
}

// NewRepository builds a catalog repository tied to db.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// WithTx returns a repository bound to the provided transaction.
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	if tx == nil {
		return r
	}
	return &Repository{db: tx}
}

// GetProduct loads a product without its variants.
func (r *Repository) GetProduct(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	var product models.Product
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&product).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, fmt.Sprintf("product %s not found", id))
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load product")
	}
	return &product, nil
}

// GetVariant loads a single variant.
func (r *Repository) GetVariant(ctx context.Context, id uuid.UUID) (*models.ProductVariant, error) {
	var variant models.ProductVariant
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&variant).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, fmt.Sprintf("variant %s not found", id))
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load variant")
	}
	return &variant, nil
}

// GetItem loads a product and variant and checks the variant belongs to the product.
func (r *Repository) GetItem(ctx context.Context, productID, variantID uuid.UUID) (*Item, error) {
	product, err := r.GetProduct(ctx, productID)
	if err != nil {
		return nil, err
	}
	variant, err := r.GetVariant(ctx, variantID)
	if err != nil {
		return nil, err
	}
	if variant.ProductID != product.ID {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, fmt.Sprintf("variant %s not found for product %s", variantID, productID))
	}
	return &Item{Product: *product, Variant: *variant}, nil
}

// GetItems loads every referenced variant with its product in two queries, keyed by
// variant id. Missing variants are absent from the map.
func (r *Repository) GetItems(ctx context.Context, variantIDs []uuid.UUID) (map[uuid.UUID]Item, error) {
	out := make(map[uuid.UUID]Item, len(variantIDs))
	if len(variantIDs) == 0 {
		return out, nil
	}
	var variants []models.ProductVariant
	if err := r.db.WithContext(ctx).Where("id IN ?", variantIDs).Find(&variants).Error; err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load variants")
	}
	productIDs := make([]uuid.UUID, 0, len(variants))
	seen := map[uuid.UUID]struct{}{}
	for _, v := range variants {
		if _, ok := seen[v.ProductID]; ok {
			continue
		}
		seen[v.ProductID] = struct{}{}
		productIDs = append(productIDs, v.ProductID)
	}
	var products []models.Product
	if len(productIDs) > 0 {
		if err := r.db.WithContext(ctx).Where("id IN ?", productIDs).Find(&products).Error; err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load products")
		}
	}
	byID := make(map[uuid.UUID]models.Product, len(products))
	for _, p := range products {
		byID[p.ID] = p
	}
	for _, v := range variants {
		product, ok := byID[v.ProductID]
		if !ok {
			continue
		}
		out[v.ID] = Item{Product: product, Variant: v}
	}
	return out, nil
}
