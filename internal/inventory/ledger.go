package inventory

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/vinhvuiver2003/doantotnghiep-sub000/pkg/db/models"
	"github.com/vinhvuiver2003/doantotnghiep-sub000/pkg/enums"
	pkgerrors "github.com/vinhvuiver2003/doantotnghiep-sub000/pkg/errors"
)

// Ledger owns every write to product_variants.stock_quantity. Each mutation is a
// single conditional UPDATE, so the row lock taken by the statement linearizes it
// against every other mutation of the same variant.
type Ledger struct {
	db  *gorm.DB
	now func() time.Time
}

// NewLedger builds a ledger bound to db.
func NewLedger(db *gorm.DB) *Ledger {
	return &Ledger{db: db, now: time.Now}
}

// WithTx returns a ledger whose statements run inside tx.
func (l *Ledger) WithTx(tx *gorm.DB) *Ledger {
	if tx == nil {
		return l
	}
	return &Ledger{db: tx, now: l.now}
}

// DeriveStatus returns the status a variant must carry for the given stock level.
// Inactive is administrative and survives any stock change.
func DeriveStatus(current enums.VariantStatus, stock int) enums.VariantStatus {
	if current == enums.VariantStatusInactive {
		return current
	}
	if stock <= 0 {
		return enums.VariantStatusOutOfStock
	}
	return enums.VariantStatusActive
}

// statusExpr is DeriveStatus rendered as SQL. newStock is evaluated against the
// pre-update row, matching the stock_quantity assignment in the same statement.
func statusExpr(newStock string, args ...any) clause.Expr {
	sql := "CASE WHEN status = ? THEN status WHEN (" + newStock + ") <= 0 THEN ? ELSE ? END"
	vars := []any{enums.VariantStatusInactive}
	vars = append(vars, args...)
	vars = append(vars, enums.VariantStatusOutOfStock, enums.VariantStatusActive)
	return gorm.Expr(sql, vars...)
}

// Reserve removes qty units only when at least qty are available.
func (l *Ledger) Reserve(ctx context.Context, variantID uuid.UUID, qty int) error {
	if err := validateQty(qty); err != nil {
		return err
	}
	res := l.db.WithContext(ctx).
		Model(&models.ProductVariant{}).
		Where("id = ? AND stock_quantity >= ?", variantID, qty).
		Updates(map[string]any{
			"stock_quantity": gorm.Expr("stock_quantity - ?", qty),
			"status":         statusExpr("stock_quantity - ?", qty),
			"updated_at":     l.now().UTC(),
		})
	if res.Error != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, res.Error, "reserve stock")
	}
	if res.RowsAffected == 1 {
		return nil
	}

	variant, err := l.load(ctx, variantID)
	if err != nil {
		return err
	}
	return pkgerrors.New(pkgerrors.CodeInvalidState, fmt.Sprintf("insufficient stock for variant %s", variant.SKU)).
		WithDetails(map[string]any{
			"variant_id": variantID.String(),
			"requested":  qty,
			"available":  variant.StockQuantity,
		})
}

// Decrement removes up to qty units, clamping the counter at zero.
func (l *Ledger) Decrement(ctx context.Context, variantID uuid.UUID, qty int) error {
	if err := validateQty(qty); err != nil {
		return err
	}
	res := l.db.WithContext(ctx).
		Model(&models.ProductVariant{}).
		Where("id = ?", variantID).
		Updates(map[string]any{
			"stock_quantity": gorm.Expr("CASE WHEN stock_quantity > ? THEN stock_quantity - ? ELSE 0 END", qty, qty),
			"status":         statusExpr("stock_quantity - ?", qty),
			"updated_at":     l.now().UTC(),
		})
	if res.Error != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, res.Error, "decrement stock")
	}
	if res.RowsAffected == 0 {
		return variantNotFound(variantID)
	}
	return nil
}

// Restore returns qty units to the counter, reviving out_of_stock variants.
func (l *Ledger) Restore(ctx context.Context, variantID uuid.UUID, qty int) error {
	if err := validateQty(qty); err != nil {
		return err
	}
	res := l.db.WithContext(ctx).
		Model(&models.ProductVariant{}).
		Where("id = ?", variantID).
		Updates(map[string]any{
			"stock_quantity": gorm.Expr("stock_quantity + ?", qty),
			"status":         statusExpr("stock_quantity + ?", qty),
			"updated_at":     l.now().UTC(),
		})
	if res.Error != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, res.Error, "restore stock")
	}
	if res.RowsAffected == 0 {
		return variantNotFound(variantID)
	}
	return nil
}

// Available returns the current counter for a variant.
func (l *Ledger) Available(ctx context.Context, variantID uuid.UUID) (int, error) {
	variant, err := l.load(ctx, variantID)
	if err != nil {
		return 0, err
	}
	return variant.StockQuantity, nil
}

func (l *Ledger) load(ctx context.Context, variantID uuid.UUID) (*models.ProductVariant, error) {
	var variant models.ProductVariant
	err := l.db.WithContext(ctx).
		Select("id", "sku", "stock_quantity", "status").
		Where("id = ?", variantID).
		First(&variant).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, variantNotFound(variantID)
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load variant stock")
	}
	return &variant, nil
}

func validateQty(qty int) error {
	if qty < 1 {
		return pkgerrors.New(pkgerrors.CodeValidation, "quantity must be at least 1")
	}
	return nil
}

func variantNotFound(id uuid.UUID) error {
	return pkgerrors.New(pkgerrors.CodeNotFound, fmt.Sprintf("variant %s not found", id))
}
