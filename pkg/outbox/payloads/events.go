package payloads

import (
	"time"

	"github.com/google/uuid"

	"github.com/vinhvuiver2003/doantotnghiep-sub000/pkg/enums"
)

// OrderPlacedEvent carries what an order confirmation message needs.
type OrderPlacedEvent struct {
	OrderID          uuid.UUID           `json:"order_id"`
	UserID           *uuid.UUID          `json:"user_id,omitempty"`
	GuestEmail       *string             `json:"guest_email,omitempty"`
	FinalAmountCents int                 `json:"final_amount_cents"`
	PaymentMethod    enums.PaymentMethod `json:"payment_method"`
	LineCount        int                 `json:"line_count"`
	PlacedAt         time.Time           `json:"placed_at"`
}

// OrderStatusChangedEvent is emitted after every committed lifecycle transition.
type OrderStatusChangedEvent struct {
	OrderID    uuid.UUID         `json:"order_id"`
	UserID     *uuid.UUID        `json:"user_id,omitempty"`
	GuestEmail *string           `json:"guest_email,omitempty"`
	From       enums.OrderStatus `json:"from"`
	To         enums.OrderStatus `json:"to"`
	Event      enums.OrderEvent  `json:"event"`
	ChangedAt  time.Time         `json:"changed_at"`
}

// PaymentResultEvent reports a gateway callback outcome for an order.
type PaymentResultEvent struct {
	OrderID          uuid.UUID           `json:"order_id"`
	PaymentID        uuid.UUID           `json:"payment_id"`
	Status           enums.PaymentStatus `json:"status"`
	GatewayReference *string             `json:"gateway_reference,omitempty"`
	Reason           string              `json:"reason,omitempty"`
}

// CartMergedEvent records a guest cart folded into a user's cart at sign-in.
type CartMergedEvent struct {
	UserCartID  uuid.UUID `json:"user_cart_id"`
	GuestCartID uuid.UUID `json:"guest_cart_id"`
	UserID      uuid.UUID `json:"user_id"`
	LinesMoved  int       `json:"lines_moved"`
}
