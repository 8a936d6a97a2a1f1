package controllers

import (
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/vinhvuiver2003/doantotnghiep-sub000/api/controllers/dto"
	"github.com/vinhvuiver2003/doantotnghiep-sub000/api/middleware"
	"github.com/vinhvuiver2003/doantotnghiep-sub000/api/responses"
	"github.com/vinhvuiver2003/doantotnghiep-sub000/api/validators"
	checkoutsvc "github.com/vinhvuiver2003/doantotnghiep-sub000/internal/checkout"
	"github.com/vinhvuiver2003/doantotnghiep-sub000/pkg/enums"
	pkgerrors "github.com/vinhvuiver2003/doantotnghiep-sub000/pkg/errors"
	"github.com/vinhvuiver2003/doantotnghiep-sub000/pkg/logger"
	"github.com/vinhvuiver2003/doantotnghiep-sub000/pkg/types"
)

const maxNotesLength = 1000

// Checkout converts the caller's cart into an order.
func Checkout(svc checkoutsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "checkout service unavailable"))
			return
		}
		owner, ok := middleware.OwnerFromContext(ctx)
		if !ok {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "cart owner missing"))
			return
		}

		var payload checkoutRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		shippingMethod, err := enums.ParseShippingMethod(payload.ShippingMethod)
		if err != nil {
			responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid shipping method"))
			return
		}
		paymentMethod, err := enums.ParsePaymentMethod(payload.PaymentMethod)
		if err != nil {
			responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid payment method"))
			return
		}

		input := checkoutsvc.Input{
			CartID:          payload.CartID,
			Owner:           owner,
			ShippingAddress: payload.ShippingAddress,
			ShippingMethod:  shippingMethod,
			PaymentMethod:   paymentMethod,
			PromotionCode:   payload.PromotionCode,
			PaymentSourceID: strings.TrimSpace(payload.PaymentSourceID),
			Notes:           validators.Clean(payload.Notes, maxNotesLength),
		}
		if payload.Contact != nil {
			input.Contact = checkoutsvc.Contact{
				Name:  strings.TrimSpace(payload.Contact.Name),
				Email: strings.TrimSpace(payload.Contact.Email),
				Phone: strings.TrimSpace(payload.Contact.Phone),
			}
		}

		order, err := svc.Execute(ctx, input)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, dto.NewOrder(order))
	}
}

type checkoutRequest struct {
	CartID          uuid.UUID             `json:"cart_id" validate:"required"`
	ShippingAddress types.ShippingAddress `json:"shipping_address"`
	ShippingMethod  string                `json:"shipping_method" validate:"required,shipping_method"`
	PaymentMethod   string                `json:"payment_method" validate:"required,payment_method"`
	PromotionCode   string                `json:"promotion_code,omitempty" validate:"max=64"`
	Contact         *contactRequest       `json:"contact,omitempty"`
	PaymentSourceID string                `json:"payment_source_id,omitempty"`
	Notes           string                `json:"notes,omitempty"`
}

type contactRequest struct {
	Name  string `json:"name" validate:"required,max=200"`
	Email string `json:"email" validate:"required,email"`
	Phone string `json:"phone,omitempty" validate:"max=32"`
}
