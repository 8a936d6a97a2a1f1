package orders

import (
	"time"

	"github.com/google/uuid"

	"github.com/vinhvuiver2003/doantotnghiep-sub000/pkg/db/models"
	"github.com/vinhvuiver2003/doantotnghiep-sub000/pkg/enums"
)

// TransitionInput names the event an actor applies to an order.
type TransitionInput struct {
	OrderID uuid.UUID
	Event   enums.OrderEvent
	Actor   Actor
}

// PaymentResult is a gateway outcome for an order, addressed by order id or by the
// gateway reference stored at initiation.
type PaymentResult struct {
	OrderID       uuid.UUID
	Reference     string
	Succeeded     bool
	FailureReason string
}

// ListFilters narrow the admin order list.
type ListFilters struct {
	Status   *enums.OrderStatus
	UserID   *uuid.UUID
	DateFrom *time.Time
	DateTo   *time.Time
}

// ListResult wraps a page of orders plus the cursor for the next page.
type ListResult struct {
	Orders []models.Order `json:"orders"`
	Cursor string         `json:"cursor"`
}
