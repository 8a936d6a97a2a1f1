package payments

import (
	"context"
	"fmt"
	"strings"

	"github.com/vinhvuiver2003/doantotnghiep-sub000/pkg/db/models"
	pkgerrors "github.com/vinhvuiver2003/doantotnghiep-sub000/pkg/errors"
	"github.com/vinhvuiver2003/doantotnghiep-sub000/pkg/square"
)

type squarePayments interface {
	Charge(ctx context.Context, req square.ChargeRequest) (*square.Charge, error)
}

// SquareGateway charges card orders through Square. The idempotency key is derived
// from the order id, so re-initiating an order never charges twice.
type SquareGateway struct {
	client squarePayments
}

// NewSquareGateway wraps a configured Square client.
func NewSquareGateway(client squarePayments) (*SquareGateway, error) {
	if client == nil {
		return nil, fmt.Errorf("square client required")
	}
	return &SquareGateway{client: client}, nil
}

// Initiate creates a Square payment for the order's final amount and returns the
// Square payment id.
func (g *SquareGateway) Initiate(ctx context.Context, order *models.Order, sourceID string) (string, error) {
	if order == nil {
		return "", pkgerrors.New(pkgerrors.CodeValidation, "order required")
	}
	sourceID = strings.TrimSpace(sourceID)
	if sourceID == "" {
		return "", pkgerrors.New(pkgerrors.CodeValidation, "payment source id required")
	}
	if order.FinalAmountCents <= 0 {
		return "", pkgerrors.New(pkgerrors.CodeInvalidState, "order has nothing to charge")
	}

	req := square.ChargeRequest{
		IdempotencyKey: IdempotencyKeyFor(order),
		SourceID:       sourceID,
		AmountCents:    int64(order.FinalAmountCents),
		ReferenceID:    order.ID.String(),
		Note:           fmt.Sprintf("storefront order %s", order.ID),
	}
	if order.GuestEmail != nil {
		req.BuyerEmail = *order.GuestEmail
	}

	charge, err := g.client.Charge(ctx, req)
	if err != nil {
		return "", err
	}
	if charge == nil || charge.PaymentID == "" {
		return "", pkgerrors.New(pkgerrors.CodeDependency, "square returned no payment id")
	}
	return charge.PaymentID, nil
}

// IdempotencyKeyFor is the Square idempotency key used for an order's payment.
func IdempotencyKeyFor(order *models.Order) string {
	return "sf-" + order.ID.String()
}
