package checkout

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/vinhvuiver2003/doantotnghiep-sub000/internal/cart"
	"github.com/vinhvuiver2003/doantotnghiep-sub000/internal/catalog"
	"github.com/vinhvuiver2003/doantotnghiep-sub000/internal/checkout/helpers"
	"github.com/vinhvuiver2003/doantotnghiep-sub000/internal/inventory"
	"github.com/vinhvuiver2003/doantotnghiep-sub000/internal/orders"
	"github.com/vinhvuiver2003/doantotnghiep-sub000/internal/promotions"
	"github.com/vinhvuiver2003/doantotnghiep-sub000/internal/shipping"
	"github.com/vinhvuiver2003/doantotnghiep-sub000/pkg/db"
	"github.com/vinhvuiver2003/doantotnghiep-sub000/pkg/db/models"
	"github.com/vinhvuiver2003/doantotnghiep-sub000/pkg/enums"
	pkgerrors "github.com/vinhvuiver2003/doantotnghiep-sub000/pkg/errors"
	"github.com/vinhvuiver2003/doantotnghiep-sub000/pkg/logger"
	"github.com/vinhvuiver2003/doantotnghiep-sub000/pkg/types"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// PaymentGateway starts settlement of a placed order and returns the gateway's
// reference for it.
type PaymentGateway interface {
	Initiate(ctx context.Context, order *models.Order, sourceID string) (string, error)
}

// Notifier receives placed orders after commit.
type Notifier interface {
	OrderPlaced(ctx context.Context, order *models.Order)
}

type checkoutRecorder interface {
	ObserveCheckout(outcome string, duration time.Duration)
}

// Service executes checkout orchestration.
type Service interface {
	Execute(ctx context.Context, input Input) (*models.Order, error)
}

// Contact is the guest buyer's contact detail.
type Contact = helpers.Contact

// Input captures everything a checkout request carries.
type Input struct {
	CartID          uuid.UUID
	Owner           cart.OwnerKey
	ShippingAddress types.ShippingAddress
	ShippingMethod  enums.ShippingMethod
	PaymentMethod   enums.PaymentMethod
	PromotionCode   string
	Contact         Contact
	PaymentSourceID string
	Notes           string
}

// Deps bundles the collaborators of the checkout service.
type Deps struct {
	Tx         txRunner
	Repo       *Repository
	Carts      *cart.Repository
	Catalog    *catalog.Repository
	Promotions *promotions.Service
	Shipping   *shipping.Calculator
	Ledger     *inventory.Ledger
	Orders     *orders.Repository
	Gateway    PaymentGateway
	Notifier   Notifier
	Metrics    checkoutRecorder
	Logger     *logger.Logger
	Retry      db.RetryPolicy
}

type service struct {
	tx         txRunner
	repo       *Repository
	carts      *cart.Repository
	catalog    *catalog.Repository
	promotions *promotions.Service
	shipping   *shipping.Calculator
	ledger     *inventory.Ledger
	orders     *orders.Repository
	gateway    PaymentGateway
	notifier   Notifier
	metrics    checkoutRecorder
	logg       *logger.Logger
	retry      db.RetryPolicy
	now        func() time.Time
}

// NewService builds the checkout service.
func NewService(deps Deps) (Service, error) {
	if deps.Tx == nil {
		return nil, fmt.Errorf("tx runner required")
	}
	if deps.Carts == nil {
		return nil, fmt.Errorf("cart repository required")
	}
	if deps.Catalog == nil {
		return nil, fmt.Errorf("catalog repository required")
	}
	if deps.Promotions == nil {
		return nil, fmt.Errorf("promotion service required")
	}
	if deps.Shipping == nil {
		return nil, fmt.Errorf("shipping calculator required")
	}
	if deps.Ledger == nil {
		return nil, fmt.Errorf("inventory ledger required")
	}
	if deps.Orders == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	repo := deps.Repo
	if repo == nil {
		return nil, fmt.Errorf("checkout repository required")
	}
	return &service{
		tx:         deps.Tx,
		repo:       repo,
		carts:      deps.Carts,
		catalog:    deps.Catalog,
		promotions: deps.Promotions,
		shipping:   deps.Shipping,
		ledger:     deps.Ledger,
		orders:     deps.Orders,
		gateway:    deps.Gateway,
		notifier:   deps.Notifier,
		metrics:    deps.Metrics,
		logg:       deps.Logger,
		retry:      deps.Retry,
		now:        func() time.Time { return time.Now().UTC() },
	}, nil
}

// Execute converts the cart into a pending order. Every write happens in one
// transaction that is retried when it loses a race; side effects outside the
// database run only after commit and never fail the checkout.
func (s *service) Execute(ctx context.Context, input Input) (*models.Order, error) {
	started := time.Now()
	order, err := s.place(ctx, input)
	s.observe(err, time.Since(started))
	if err != nil {
		return nil, err
	}

	if s.logg != nil {
		logCtx := s.logg.WithFields(ctx, map[string]any{
			"order_id":    order.ID.String(),
			"cart_id":     input.CartID.String(),
			"final_cents": order.FinalAmountCents,
		})
		s.logg.Info(logCtx, "order placed")
	}
	if s.notifier != nil {
		s.notifier.OrderPlaced(ctx, order)
	}
	s.initiatePayment(ctx, order, input.PaymentSourceID)
	return order, nil
}

func (s *service) place(ctx context.Context, input Input) (*models.Order, error) {
	input, err := normalizeInput(input)
	if err != nil {
		return nil, err
	}

	var placed *models.Order
	err = db.RetryOnConflict(ctx, s.retry, func(ctx context.Context) error {
		return s.tx.WithTx(ctx, func(tx *gorm.DB) error {
			order, err := s.placeTx(ctx, tx, input)
			if err != nil {
				return err
			}
			placed = order
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return placed, nil
}

func (s *service) placeTx(ctx context.Context, tx *gorm.DB, input Input) (*models.Order, error) {
	now := s.now()
	carts := s.carts.WithTx(tx)

	record, err := s.loadCart(ctx, tx, carts, input)
	if err != nil {
		return nil, err
	}

	priced, lines, err := s.reprice(ctx, tx, record)
	if err != nil {
		return nil, err
	}
	subtotal := helpers.ComputeSubtotal(priced)

	var (
		discount    int
		promotionID *uuid.UUID
		promoCode   *string
	)
	if input.PromotionCode != "" {
		result, err := s.promotions.ValidateTx(ctx, tx, input.PromotionCode, subtotal, now)
		if err != nil {
			return nil, err
		}
		if err := s.promotions.Redeem(ctx, tx, result.Promotion.ID); err != nil {
			return nil, err
		}
		discount = result.DiscountCents
		id := result.Promotion.ID
		promotionID = &id
		promoCode = optional(input.PromotionCode)
	}

	fee, err := s.shipping.ComputeFee(input.ShippingAddress, input.ShippingMethod, subtotal-discount)
	if err != nil {
		return nil, err
	}
	totals := helpers.ComputeTotals(subtotal, discount, fee)

	allocations := helpers.AllocateDiscount(priced, totals.DiscountCents)
	for i := range lines {
		lines[i].DiscountCents = allocations[i]
		lines[i].TotalCents = priced[i].SubtotalCents() - allocations[i]
	}

	ledger := s.ledger.WithTx(tx)
	for _, line := range lines {
		if err := ledger.Reserve(ctx, line.VariantID, line.Quantity); err != nil {
			return nil, err
		}
	}

	order := &models.Order{
		ID:                  uuid.New(),
		SourceCartID:        &record.ID,
		Status:              enums.OrderStatusPending,
		TotalAmountCents:    totals.SubtotalCents,
		DiscountAmountCents: totals.DiscountCents,
		ShippingFeeCents:    totals.ShippingFeeCents,
		FinalAmountCents:    totals.FinalCents,
		PromotionID:         promotionID,
		PromotionCode:       promoCode,
		ShippingAddress:     input.ShippingAddress,
		ShippingMethod:      input.ShippingMethod,
		PaymentMethod:       input.PaymentMethod,
		Notes:               optional(input.Notes),
		Lines:               lines,
		Delivery: &models.Delivery{
			Status:         enums.DeliveryStatusPending,
			ShippingMethod: input.ShippingMethod,
			Address:        input.ShippingAddress,
		},
		Payment: &models.Payment{
			Status:      enums.PaymentStatusPending,
			Method:      input.PaymentMethod,
			AmountCents: totals.FinalCents,
		},
	}
	if input.Owner.IsGuest() {
		order.GuestName = optional(input.Contact.Name)
		order.GuestEmail = optional(input.Contact.Email)
		order.GuestPhone = optional(input.Contact.Phone)
	} else {
		userID := input.Owner.UserID
		order.UserID = &userID
	}

	ordersRepo := s.orders.WithTx(tx)
	if err := ordersRepo.Create(ctx, order); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create order")
	}

	ok, err := carts.MarkCheckedOut(ctx, record.ID, now)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "mark cart checked out")
	}
	if !ok {
		return nil, pkgerrors.New(pkgerrors.CodeConflict, "cart was checked out concurrently")
	}
	if err := carts.DeleteLines(ctx, record.ID); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "clear cart lines")
	}

	created, err := ordersRepo.FindByID(ctx, order.ID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "reload order")
	}
	return created, nil
}

func (s *service) loadCart(ctx context.Context, tx *gorm.DB, carts *cart.Repository, input Input) (*models.Cart, error) {
	record, err := carts.LockByID(ctx, input.CartID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "cart not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load cart")
	}
	if err := cart.EnsureOwner(record, input.Owner); err != nil {
		return nil, err
	}
	if record.CheckedOut {
		checkedOut := pkgerrors.New(pkgerrors.CodeInvalidState, "cart is already checked out")
		if existing, err := s.repo.WithTx(tx).FindBySourceCart(ctx, record.ID); err == nil && existing != nil {
			return nil, checkedOut.WithDetails(map[string]any{"order_id": existing.ID.String()})
		}
		return nil, checkedOut
	}
	if len(record.Lines) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeInvalidState, "cart is empty")
	}
	return record, nil
}

// reprice snapshots every cart line at the catalog's current price.
func (s *service) reprice(ctx context.Context, tx *gorm.DB, record *models.Cart) ([]helpers.PricedLine, []models.OrderLine, error) {
	variantIDs := make([]uuid.UUID, 0, len(record.Lines))
	for _, line := range record.Lines {
		variantIDs = append(variantIDs, line.VariantID)
	}
	items, err := s.catalog.WithTx(tx).GetItems(ctx, variantIDs)
	if err != nil {
		return nil, nil, err
	}

	priced := make([]helpers.PricedLine, 0, len(record.Lines))
	lines := make([]models.OrderLine, 0, len(record.Lines))
	for _, line := range record.Lines {
		item, ok := items[line.VariantID]
		if !ok || item.Product.ID != line.ProductID {
			return nil, nil, pkgerrors.New(pkgerrors.CodeInvalidState, "a product in the cart is no longer available").
				WithDetails(map[string]any{"variant_id": line.VariantID.String()})
		}
		if err := item.EnsureSellable(); err != nil {
			return nil, nil, err
		}
		p := helpers.PricedLine{UnitPriceCents: item.UnitPriceCents(), Quantity: line.Quantity}
		priced = append(priced, p)
		lines = append(lines, models.OrderLine{
			ProductID:      item.Product.ID,
			VariantID:      item.Variant.ID,
			ProductName:    item.Product.Name,
			VariantName:    item.Variant.Name,
			SKU:            item.Variant.SKU,
			UnitPriceCents: p.UnitPriceCents,
			Quantity:       p.Quantity,
			TotalCents:     p.SubtotalCents(),
		})
	}
	return priced, lines, nil
}

func (s *service) initiatePayment(ctx context.Context, order *models.Order, sourceID string) {
	if s.gateway == nil || !order.PaymentMethod.RequiresGateway() {
		return
	}
	reference, err := s.gateway.Initiate(ctx, order, sourceID)
	if err == nil && strings.TrimSpace(reference) != "" {
		err = s.orders.SetPaymentReference(ctx, order.ID, reference)
		if err == nil && order.Payment != nil {
			order.Payment.GatewayReference = &reference
		}
	}
	if err != nil && s.logg != nil {
		logCtx := s.logg.WithField(ctx, "order_id", order.ID.String())
		s.logg.Error(logCtx, "payment initiation failed", err)
	}
}

func (s *service) observe(err error, duration time.Duration) {
	if s.metrics == nil {
		return
	}
	outcome := "success"
	if err != nil {
		outcome = string(pkgerrors.CodeInternal)
		if typed := pkgerrors.As(err); typed != nil {
			outcome = string(typed.Code())
		}
	}
	s.metrics.ObserveCheckout(outcome, duration)
}

func normalizeInput(input Input) (Input, error) {
	if input.CartID == uuid.Nil {
		return input, pkgerrors.New(pkgerrors.CodeValidation, "cart id required")
	}
	if err := input.Owner.Validate(); err != nil {
		return input, err
	}
	if !input.ShippingMethod.IsValid() {
		return input, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("unsupported shipping method %q", input.ShippingMethod))
	}
	if !input.PaymentMethod.IsValid() {
		return input, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("unsupported payment method %q", input.PaymentMethod))
	}
	address := input.ShippingAddress.Normalized()
	if err := address.Validate(); err != nil {
		return input, pkgerrors.Wrap(pkgerrors.CodeValidation, err, err.Error())
	}
	input.ShippingAddress = address
	if input.Owner.IsGuest() {
		if err := helpers.ValidateGuestContact(input.Contact); err != nil {
			return input, err
		}
	}
	input.Contact = input.Contact.Normalized()
	input.PromotionCode = promotions.NormalizeCode(input.PromotionCode)
	input.Notes = strings.TrimSpace(input.Notes)
	return input, nil
}

func optional(value string) *string {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil
	}
	return &value
}
