package cart

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/vinhvuiver2003/doantotnghiep-sub000/pkg/db/models"
	"github.com/vinhvuiver2003/doantotnghiep-sub000/pkg/enums"
	pkgerrors "github.com/vinhvuiver2003/doantotnghiep-sub000/pkg/errors"
)

// View is a cart priced at current catalog prices.
type View struct {
	Cart          *models.Cart
	Lines         []LineView
	SubtotalCents int
}

// LineView joins a cart line with its catalog entry. Available is false when the
// product or variant can no longer be bought or stock is short.
type LineView struct {
	Line           models.CartLine
	ProductName    string
	VariantName    string
	SKU            string
	UnitPriceCents int
	LineTotalCents int
	StockQuantity  int
	Available      bool
}

// Get loads a cart owned by owner and prices each line.
func (s *service) Get(ctx context.Context, owner OwnerKey, cartID uuid.UUID) (*View, error) {
	c, err := s.repo.FindByID(ctx, cartID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "cart not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load cart")
	}
	if err := EnsureOwner(c, owner); err != nil {
		return nil, err
	}

	ids := make([]uuid.UUID, 0, len(c.Lines))
	for _, line := range c.Lines {
		ids = append(ids, line.VariantID)
	}
	items, err := s.catalog.GetItems(ctx, ids)
	if err != nil {
		return nil, err
	}

	view := &View{Cart: c, Lines: make([]LineView, 0, len(c.Lines))}
	for _, line := range c.Lines {
		lv := LineView{Line: line}
		if item, ok := items[line.VariantID]; ok {
			lv.ProductName = item.Product.Name
			lv.VariantName = item.Variant.Name
			lv.SKU = item.Variant.SKU
			lv.UnitPriceCents = item.UnitPriceCents()
			lv.LineTotalCents = lv.UnitPriceCents * line.Quantity
			lv.StockQuantity = item.Variant.StockQuantity
			lv.Available = item.EnsureSellable() == nil &&
				item.Variant.Status != enums.VariantStatusOutOfStock &&
				line.Quantity <= item.Variant.StockQuantity
			view.SubtotalCents += lv.LineTotalCents
		}
		view.Lines = append(view.Lines, lv)
	}
	return view, nil
}
