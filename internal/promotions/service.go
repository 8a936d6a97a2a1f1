package promotions

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/vinhvuiver2003/doantotnghiep-sub000/pkg/db/models"
	"github.com/vinhvuiver2003/doantotnghiep-sub000/pkg/enums"
	pkgerrors "github.com/vinhvuiver2003/doantotnghiep-sub000/pkg/errors"
	"github.com/vinhvuiver2003/doantotnghiep-sub000/pkg/types"
)

var hundred = decimal.NewFromInt(100)

// Result is the outcome of a successful validation.
type Result struct {
	Promotion     *models.Promotion
	DiscountCents int
}

// Service validates and redeems promotion codes.
type Service struct {
	repo Repository
}

// NewService builds the promotion evaluator.
func NewService(repo Repository) (*Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("promotions repository required")
	}
	return &Service{repo: repo}, nil
}

// NormalizeCode trims and upper-cases a customer-entered code.
func NormalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// Validate checks the code against subtotalCents at now and computes the discount.
// It never touches usage_count.
func (s *Service) Validate(ctx context.Context, code string, subtotalCents int, now time.Time) (*Result, error) {
	return s.validate(ctx, s.repo, code, subtotalCents, now)
}

// ValidateTx is Validate reading through tx, used by checkout so the promotion row
// is read in the same transaction that redeems it.
func (s *Service) ValidateTx(ctx context.Context, tx *gorm.DB, code string, subtotalCents int, now time.Time) (*Result, error) {
	return s.validate(ctx, s.repo.WithTx(tx), code, subtotalCents, now)
}

func (s *Service) validate(ctx context.Context, repo Repository, code string, subtotalCents int, now time.Time) (*Result, error) {
	normalized := NormalizeCode(code)
	if normalized == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "promotion code required")
	}
	if subtotalCents < 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "subtotal must not be negative")
	}
	promo, err := repo.FindByCode(ctx, normalized)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "lookup promotion")
	}
	if promo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, fmt.Sprintf("promotion %s not found", normalized))
	}
	if err := CheckEligibility(promo, subtotalCents, now); err != nil {
		return nil, err
	}
	return &Result{Promotion: promo, DiscountCents: ComputeDiscount(promo, subtotalCents)}, nil
}

// Redeem consumes one use of the promotion inside tx.
func (s *Service) Redeem(ctx context.Context, tx *gorm.DB, promotionID uuid.UUID) error {
	ok, err := s.repo.WithTx(tx).IncrementUsage(ctx, promotionID)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "redeem promotion")
	}
	if !ok {
		return pkgerrors.New(pkgerrors.CodeInvalidState, "promotion usage limit reached")
	}
	return nil
}

// CheckEligibility applies the status, window, usage and minimum-order rules in order.
func CheckEligibility(promo *models.Promotion, subtotalCents int, now time.Time) error {
	switch promo.Status {
	case enums.PromotionStatusActive:
	case enums.PromotionStatusExpired:
		return pkgerrors.New(pkgerrors.CodeInvalidState, "promotion expired")
	default:
		return pkgerrors.New(pkgerrors.CodeInvalidState, "promotion inactive")
	}
	if now.Before(promo.StartDate) {
		return pkgerrors.New(pkgerrors.CodeInvalidState, "promotion not yet active")
	}
	if now.After(promo.EndDate) {
		return pkgerrors.New(pkgerrors.CodeInvalidState, "promotion expired")
	}
	if promo.UsageLimit != nil && promo.UsageCount >= *promo.UsageLimit {
		return pkgerrors.New(pkgerrors.CodeInvalidState, "promotion usage limit reached")
	}
	if subtotalCents < promo.MinimumOrderCents {
		return pkgerrors.New(pkgerrors.CodeInvalidState, "order subtotal below promotion minimum").
			WithDetails(map[string]any{
				"minimum_order": types.FormatCents(promo.MinimumOrderCents),
				"subtotal":      types.FormatCents(subtotalCents),
			})
	}
	return nil
}

// ComputeDiscount returns the discount in cents, never more than the subtotal.
// Percentages round half-up to the cent.
func ComputeDiscount(promo *models.Promotion, subtotalCents int) int {
	var discount int
	switch promo.DiscountType {
	case enums.DiscountTypePercentage:
		amount := decimal.NewFromInt(int64(subtotalCents)).Mul(promo.Value).Div(hundred).Round(0)
		discount = int(amount.IntPart())
	case enums.DiscountTypeFixedAmount:
		discount = types.CentsFromDecimal(promo.Value)
	}
	if discount < 0 {
		return 0
	}
	if discount > subtotalCents {
		return subtotalCents
	}
	return discount
}
