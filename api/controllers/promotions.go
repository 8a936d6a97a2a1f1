package controllers

import (
	"context"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/vinhvuiver2003/doantotnghiep-sub000/api/responses"
	"github.com/vinhvuiver2003/doantotnghiep-sub000/api/validators"
	"github.com/vinhvuiver2003/doantotnghiep-sub000/internal/promotions"
	pkgerrors "github.com/vinhvuiver2003/doantotnghiep-sub000/pkg/errors"
	"github.com/vinhvuiver2003/doantotnghiep-sub000/pkg/logger"
	"github.com/vinhvuiver2003/doantotnghiep-sub000/pkg/types"
)

// PromotionValidator previews a promotion code against a subtotal.
type PromotionValidator interface {
	Validate(ctx context.Context, code string, subtotalCents int, now time.Time) (*promotions.Result, error)
}

type validatePromotionRequest struct {
	Code          string `json:"code" validate:"required,max=64"`
	SubtotalCents int    `json:"subtotal_cents" validate:"min=0"`
}

type validatePromotionResponse struct {
	PromotionID   uuid.UUID `json:"promotion_id"`
	Code          string    `json:"code"`
	Name          string    `json:"name"`
	DiscountType  string    `json:"discount_type"`
	DiscountCents int       `json:"discount_cents"`
	Discount      string    `json:"discount"`
}

// PromotionValidate previews the discount a code would give on a subtotal without
// consuming a use.
func PromotionValidate(svc PromotionValidator, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "promotion service unavailable"))
			return
		}
		var payload validatePromotionRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		result, err := svc.Validate(r.Context(), promotions.NormalizeCode(payload.Code), payload.SubtotalCents, time.Now().UTC())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		resp := validatePromotionResponse{
			PromotionID:   result.Promotion.ID,
			Name:          result.Promotion.Name,
			DiscountType:  string(result.Promotion.DiscountType),
			DiscountCents: result.DiscountCents,
			Discount:      types.FormatCents(result.DiscountCents),
		}
		if result.Promotion.Code != nil {
			resp.Code = *result.Promotion.Code
		}
		responses.WriteSuccess(w, resp)
	}
}
