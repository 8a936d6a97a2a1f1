package dto

import (
	"time"

	"github.com/google/uuid"

	cartsvc "github.com/vinhvuiver2003/doantotnghiep-sub000/internal/cart"
	"github.com/vinhvuiver2003/doantotnghiep-sub000/pkg/db/models"
	"github.com/vinhvuiver2003/doantotnghiep-sub000/pkg/types"
)

// Cart is a cart priced at current catalog prices.
type Cart struct {
	ID            uuid.UUID  `json:"id"`
	Guest         bool       `json:"guest"`
	Lines         []CartLine `json:"lines"`
	ItemCount     int        `json:"item_count"`
	SubtotalCents int        `json:"subtotal_cents"`
	Subtotal      string     `json:"subtotal"`
	UpdatedAt     time.Time  `json:"updated_at"`
}

type CartLine struct {
	ID             uuid.UUID `json:"id"`
	ProductID      uuid.UUID `json:"product_id"`
	VariantID      uuid.UUID `json:"variant_id"`
	ProductName    string    `json:"product_name"`
	VariantName    string    `json:"variant_name"`
	SKU            string    `json:"sku"`
	Quantity       int       `json:"quantity"`
	UnitPriceCents int       `json:"unit_price_cents"`
	LineTotalCents int       `json:"line_total_cents"`
	StockQuantity  int       `json:"stock_quantity"`
	Available      bool      `json:"available"`
}

// NewCart maps a priced cart view.
func NewCart(view *cartsvc.View) Cart {
	if view == nil || view.Cart == nil {
		return Cart{Lines: []CartLine{}}
	}
	out := Cart{
		ID:            view.Cart.ID,
		Guest:         view.Cart.IsGuest(),
		Lines:         make([]CartLine, 0, len(view.Lines)),
		SubtotalCents: view.SubtotalCents,
		Subtotal:      types.FormatCents(view.SubtotalCents),
		UpdatedAt:     view.Cart.UpdatedAt,
	}
	for _, lv := range view.Lines {
		out.ItemCount += lv.Line.Quantity
		out.Lines = append(out.Lines, CartLine{
			ID:             lv.Line.ID,
			ProductID:      lv.Line.ProductID,
			VariantID:      lv.Line.VariantID,
			ProductName:    lv.ProductName,
			VariantName:    lv.VariantName,
			SKU:            lv.SKU,
			Quantity:       lv.Line.Quantity,
			UnitPriceCents: lv.UnitPriceCents,
			LineTotalCents: lv.LineTotalCents,
			StockQuantity:  lv.StockQuantity,
			Available:      lv.Available,
		})
	}
	return out
}

// NewCartLine maps a bare cart line, as returned by an add.
func NewCartLine(line *models.CartLine) CartLine {
	if line == nil {
		return CartLine{}
	}
	return CartLine{
		ID:        line.ID,
		ProductID: line.ProductID,
		VariantID: line.VariantID,
		Quantity:  line.Quantity,
	}
}
