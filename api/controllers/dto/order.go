package dto

import (
	"time"

	"github.com/google/uuid"

	"github.com/vinhvuiver2003/doantotnghiep-sub000/pkg/db/models"
	"github.com/vinhvuiver2003/doantotnghiep-sub000/pkg/types"
)

// Order is the API view of an order with its lines, delivery and payment.
type Order struct {
	ID                  uuid.UUID             `json:"id"`
	UserID              *uuid.UUID            `json:"user_id,omitempty"`
	Guest               *GuestContact         `json:"guest,omitempty"`
	Status              string                `json:"status"`
	TotalAmountCents    int                   `json:"total_amount_cents"`
	DiscountAmountCents int                   `json:"discount_amount_cents"`
	ShippingFeeCents    int                   `json:"shipping_fee_cents"`
	FinalAmountCents    int                   `json:"final_amount_cents"`
	FinalAmount         string                `json:"final_amount"`
	PromotionCode       *string               `json:"promotion_code,omitempty"`
	ShippingAddress     types.ShippingAddress `json:"shipping_address"`
	ShippingMethod      string                `json:"shipping_method"`
	PaymentMethod       string                `json:"payment_method"`
	Notes               *string               `json:"notes,omitempty"`
	Lines               []OrderLine           `json:"lines"`
	Delivery            *Delivery             `json:"delivery,omitempty"`
	Payment             *Payment              `json:"payment,omitempty"`
	CreatedAt           time.Time             `json:"created_at"`
	UpdatedAt           time.Time             `json:"updated_at"`
}

type GuestContact struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	Phone string `json:"phone,omitempty"`
}

type OrderLine struct {
	ID             uuid.UUID `json:"id"`
	ProductID      uuid.UUID `json:"product_id"`
	VariantID      uuid.UUID `json:"variant_id"`
	ProductName    string    `json:"product_name"`
	VariantName    string    `json:"variant_name"`
	SKU            string    `json:"sku"`
	UnitPriceCents int       `json:"unit_price_cents"`
	Quantity       int       `json:"quantity"`
	DiscountCents  int       `json:"discount_cents"`
	TotalCents     int       `json:"total_cents"`
}

type Delivery struct {
	Status         string     `json:"status"`
	ShippingMethod string     `json:"shipping_method"`
	TrackingNumber *string    `json:"tracking_number,omitempty"`
	ShippedDate    *time.Time `json:"shipped_date,omitempty"`
	DeliveredDate  *time.Time `json:"delivered_date,omitempty"`
}

type Payment struct {
	Status        string     `json:"status"`
	Method        string     `json:"method"`
	AmountCents   int        `json:"amount_cents"`
	FailureReason *string    `json:"failure_reason,omitempty"`
	PaymentDate   *time.Time `json:"payment_date,omitempty"`
}

// OrderPage is one page of an order listing.
type OrderPage struct {
	Orders []Order `json:"orders"`
	Cursor string  `json:"cursor,omitempty"`
}

// NewOrder maps an order model to its API view.
func NewOrder(order *models.Order) Order {
	if order == nil {
		return Order{}
	}
	out := Order{
		ID:                  order.ID,
		UserID:              order.UserID,
		Status:              string(order.Status),
		TotalAmountCents:    order.TotalAmountCents,
		DiscountAmountCents: order.DiscountAmountCents,
		ShippingFeeCents:    order.ShippingFeeCents,
		FinalAmountCents:    order.FinalAmountCents,
		FinalAmount:         types.FormatCents(order.FinalAmountCents),
		PromotionCode:       order.PromotionCode,
		ShippingAddress:     order.ShippingAddress,
		ShippingMethod:      string(order.ShippingMethod),
		PaymentMethod:       string(order.PaymentMethod),
		Notes:               order.Notes,
		Lines:               make([]OrderLine, 0, len(order.Lines)),
		CreatedAt:           order.CreatedAt,
		UpdatedAt:           order.UpdatedAt,
	}
	if order.IsGuest() {
		out.Guest = &GuestContact{
			Name:  deref(order.GuestName),
			Email: deref(order.GuestEmail),
			Phone: deref(order.GuestPhone),
		}
	}
	for _, line := range order.Lines {
		out.Lines = append(out.Lines, OrderLine{
			ID:             line.ID,
			ProductID:      line.ProductID,
			VariantID:      line.VariantID,
			ProductName:    line.ProductName,
			VariantName:    line.VariantName,
			SKU:            line.SKU,
			UnitPriceCents: line.UnitPriceCents,
			Quantity:       line.Quantity,
			DiscountCents:  line.DiscountCents,
			TotalCents:     line.TotalCents,
		})
	}
	if d := order.Delivery; d != nil {
		out.Delivery = &Delivery{
			Status:         string(d.Status),
			ShippingMethod: string(d.ShippingMethod),
			TrackingNumber: d.TrackingNumber,
			ShippedDate:    d.ShippedDate,
			DeliveredDate:  d.DeliveredDate,
		}
	}
	if p := order.Payment; p != nil {
		out.Payment = &Payment{
			Status:        string(p.Status),
			Method:        string(p.Method),
			AmountCents:   p.AmountCents,
			FailureReason: p.FailureReason,
			PaymentDate:   p.PaymentDate,
		}
	}
	return out
}

// NewOrderPage maps a list of orders and its continuation cursor.
func NewOrderPage(orders []models.Order, cursor string) OrderPage {
	page := OrderPage{Orders: make([]Order, 0, len(orders)), Cursor: cursor}
	for i := range orders {
		page.Orders = append(page.Orders, NewOrder(&orders[i]))
	}
	return page
}

func deref(value *string) string {
	if value == nil {
		return ""
	}
	return *value
}
