package orders

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/vinhvuiver2003/doantotnghiep-sub000/internal/inventory"
	"github.com/vinhvuiver2003/doantotnghiep-sub000/pkg/db"
	"github.com/vinhvuiver2003/doantotnghiep-sub000/pkg/db/models"
	"github.com/vinhvuiver2003/doantotnghiep-sub000/pkg/enums"
	pkgerrors "github.com/vinhvuiver2003/doantotnghiep-sub000/pkg/errors"
	"github.com/vinhvuiver2003/doantotnghiep-sub000/pkg/logger"
	"github.com/vinhvuiver2003/doantotnghiep-sub000/pkg/pagination"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Notifier receives committed order changes. Implementations must not block on or
// report delivery failures.
type Notifier interface {
	OrderStatusChanged(ctx context.Context, order *models.Order, from enums.OrderStatus, event enums.OrderEvent)
	PaymentResult(ctx context.Context, order *models.Order)
}

type transitionRecorder interface {
	ObserveTransition(from, to string)
	AddStockRestored(units int)
}

// Service owns the order state machine and the order read side.
type Service interface {
	Transition(ctx context.Context, input TransitionInput) (*models.Order, error)
	Cancel(ctx context.Context, orderID uuid.UUID, actor Actor) (*models.Order, error)
	ConfirmDelivery(ctx context.Context, orderID, userID uuid.UUID) (*models.Order, error)
	AdminUpdateStatus(ctx context.Context, orderID, adminID uuid.UUID, status enums.OrderStatus) (*models.Order, error)
	HandlePaymentResult(ctx context.Context, result PaymentResult) (*models.Order, error)
	Delete(ctx context.Context, orderID uuid.UUID) error
	Get(ctx context.Context, actor Actor, orderID uuid.UUID) (*models.Order, error)
	ListForUser(ctx context.Context, userID uuid.UUID, params pagination.Params) (*ListResult, error)
	ListAll(ctx context.Context, filters ListFilters, params pagination.Params) (*ListResult, error)
}

// Deps bundles the collaborators of the order service.
type Deps struct {
	Tx       txRunner
	Repo     *Repository
	Ledger   *inventory.Ledger
	Notifier Notifier
	Metrics  transitionRecorder
	Logger   *logger.Logger
	Retry    db.RetryPolicy
}

type service struct {
	tx       txRunner
	repo     *Repository
	ledger   *inventory.Ledger
	notifier Notifier
	metrics  transitionRecorder
	logg     *logger.Logger
	retry    db.RetryPolicy
	now      func() time.Time
}

type transitionOutcome struct {
	order    *models.Order
	from     enums.OrderStatus
	event    enums.OrderEvent
	restored int
	changed  bool
}

// NewService wires the order lifecycle manager.
func NewService(deps Deps) (Service, error) {
	if deps.Tx == nil {
		return nil, fmt.Errorf("tx runner required")
	}
	if deps.Repo == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if deps.Ledger == nil {
		return nil, fmt.Errorf("inventory ledger required")
	}
	return &service{
		tx:       deps.Tx,
		repo:     deps.Repo,
		ledger:   deps.Ledger,
		notifier: deps.Notifier,
		metrics:  deps.Metrics,
		logg:     deps.Logger,
		retry:    deps.Retry,
		now:      func() time.Time { return time.Now().UTC() },
	}, nil
}

// Transition applies one event under optimistic concurrency, retrying when another
// writer bumped the version first.
func (s *service) Transition(ctx context.Context, input TransitionInput) (*models.Order, error) {
	if input.OrderID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id required")
	}
	var outcome transitionOutcome
	err := db.RetryOnConflict(ctx, s.retry, func(ctx context.Context) error {
		return s.tx.WithTx(ctx, func(tx *gorm.DB) error {
			repo := s.repo.WithTx(tx)
			order, err := s.load(ctx, repo, input.OrderID)
			if err != nil {
				return err
			}
			if err := authorize(order, input.Actor); err != nil {
				return err
			}
			outcome, err = s.apply(ctx, tx, order, input.Event, input.Actor.Kind)
			return err
		})
	})
	if err != nil {
		return nil, err
	}
	s.afterCommit(ctx, outcome)
	return outcome.order, nil
}

// Cancel cancels an order. Owners may only cancel pending orders.
func (s *service) Cancel(ctx context.Context, orderID uuid.UUID, actor Actor) (*models.Order, error) {
	return s.Transition(ctx, TransitionInput{OrderID: orderID, Event: enums.OrderEventCancel, Actor: actor})
}

// ConfirmDelivery lets the owner acknowledge receipt of a shipped order.
func (s *service) ConfirmDelivery(ctx context.Context, orderID, userID uuid.UUID) (*models.Order, error) {
	return s.Transition(ctx, TransitionInput{OrderID: orderID, Event: enums.OrderEventConfirmDelivery, Actor: OwnerActor(userID)})
}

// AdminUpdateStatus moves an order to status. Requesting the current status
// returns the order untouched.
func (s *service) AdminUpdateStatus(ctx context.Context, orderID, adminID uuid.UUID, status enums.OrderStatus) (*models.Order, error) {
	if !status.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("unknown order status %q", status))
	}
	current, err := s.load(ctx, s.repo, orderID)
	if err != nil {
		return nil, err
	}
	if current.Status == status {
		return current, nil
	}
	event, err := EventForStatus(status)
	if err != nil {
		return nil, err
	}
	return s.Transition(ctx, TransitionInput{OrderID: orderID, Event: event, Actor: AdminActor(adminID)})
}

// HandlePaymentResult records a gateway outcome. Success completes the payment and
// advances a pending order to processing; failure marks the payment failed and
// leaves the order where it is.
func (s *service) HandlePaymentResult(ctx context.Context, result PaymentResult) (*models.Order, error) {
	reference := strings.TrimSpace(result.Reference)
	if result.OrderID == uuid.Nil && reference == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id or payment reference required")
	}

	var outcome transitionOutcome
	paymentChanged := false
	err := db.RetryOnConflict(ctx, s.retry, func(ctx context.Context) error {
		paymentChanged = false
		outcome = transitionOutcome{}
		return s.tx.WithTx(ctx, func(tx *gorm.DB) error {
			repo := s.repo.WithTx(tx)
			order, err := s.loadForPayment(ctx, repo, result.OrderID, reference)
			if err != nil {
				return err
			}
			if order.Payment == nil {
				return pkgerrors.New(pkgerrors.CodeInvalidState, "order has no payment record")
			}
			if order.Payment.Status == enums.PaymentStatusCompleted {
				outcome.order = order
				return nil
			}

			if !result.Succeeded {
				reason := result.FailureReason
				if reason == "" {
					reason = "payment declined"
				}
				if err := repo.FailPayment(ctx, order.ID, reason, s.now()); err != nil {
					return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "fail payment")
				}
				paymentChanged = true
				outcome.order, err = s.load(ctx, repo, order.ID)
				return err
			}

			paymentChanged = true
			if order.Status != enums.OrderStatusPending {
				if err := repo.CompletePayment(ctx, order.ID, s.now()); err != nil {
					return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "complete payment")
				}
				outcome.order, err = s.load(ctx, repo, order.ID)
				return err
			}
			outcome, err = s.apply(ctx, tx, order, enums.OrderEventPaymentCompleted, ActorSystem)
			return err
		})
	})
	if err != nil {
		return nil, err
	}
	if paymentChanged && s.notifier != nil {
		s.notifier.PaymentResult(ctx, outcome.order)
	}
	s.afterCommit(ctx, outcome)
	return outcome.order, nil
}

// Delete removes an order with its lines, delivery and payment.
func (s *service) Delete(ctx context.Context, orderID uuid.UUID) error {
	return s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		deleted, err := s.repo.WithTx(tx).Delete(ctx, orderID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "delete order")
		}
		if !deleted {
			return pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil
	})
}

// Get loads an order visible to actor.
func (s *service) Get(ctx context.Context, actor Actor, orderID uuid.UUID) (*models.Order, error) {
	order, err := s.load(ctx, s.repo, orderID)
	if err != nil {
		return nil, err
	}
	if err := authorize(order, actor); err != nil {
		return nil, err
	}
	return order, nil
}

// ListForUser pages through a customer's orders, newest first.
func (s *service) ListForUser(ctx context.Context, userID uuid.UUID, params pagination.Params) (*ListResult, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id required")
	}
	return s.list(ctx, ListFilters{UserID: &userID}, params)
}

// ListAll pages through every order for administrators.
func (s *service) ListAll(ctx context.Context, filters ListFilters, params pagination.Params) (*ListResult, error) {
	if filters.Status != nil && !filters.Status.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid status filter")
	}
	return s.list(ctx, filters, params)
}

func (s *service) list(ctx context.Context, filters ListFilters, params pagination.Params) (*ListResult, error) {
	size := params.Size()
	query := listQuery{
		userID:   filters.UserID,
		status:   filters.Status,
		dateFrom: filters.DateFrom,
		dateTo:   filters.DateTo,
		limit:    size,
	}
	if params.Cursor != "" {
		cursor, err := pagination.ParseCursor(params.Cursor)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
		}
		query.cursor = cursor
	}

	rows, err := s.repo.List(ctx, query)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list orders")
	}

	rows, next := pagination.Trim(rows, size, func(o models.Order) pagination.Cursor {
		return pagination.Cursor{CreatedAt: o.CreatedAt, ID: o.ID}
	})
	return &ListResult{Orders: rows, Cursor: next}, nil
}

func (s *service) apply(ctx context.Context, tx *gorm.DB, order *models.Order, event enums.OrderEvent, kind ActorKind) (transitionOutcome, error) {
	to, effects, err := Resolve(order.Status, event, kind)
	if err != nil {
		return transitionOutcome{}, err
	}
	repo := s.repo.WithTx(tx)
	now := s.now()
	restored := 0

	for _, effect := range effects {
		switch effect {
		case EffectMarkDeliveryProcessing:
			err = repo.UpdateDeliveryStatus(ctx, order.ID, enums.DeliveryStatusProcessing, "", now)
		case EffectMarkShipped:
			err = repo.UpdateDeliveryStatus(ctx, order.ID, enums.DeliveryStatusShipped, "shipped_date", now)
		case EffectMarkDelivered:
			err = repo.UpdateDeliveryStatus(ctx, order.ID, enums.DeliveryStatusDelivered, "delivered_date", now)
		case EffectFailDelivery:
			err = repo.UpdateDeliveryStatus(ctx, order.ID, enums.DeliveryStatusFailed, "", now)
		case EffectCompletePayment:
			err = repo.CompletePayment(ctx, order.ID, now)
		case EffectFailPayment:
			err = repo.VoidPayment(ctx, order.ID, "order "+string(to), now)
		case EffectRestoreStock:
			restored, err = s.restoreStock(ctx, tx, order)
		}
		if err != nil {
			if pkgerrors.As(err) != nil {
				return transitionOutcome{}, err
			}
			return transitionOutcome{}, pkgerrors.Wrap(pkgerrors.CodeInternal, err, string(effect))
		}
	}

	swapped, err := repo.CompareAndSwapStatus(ctx, order.ID, order.Version, to, now)
	if err != nil {
		return transitionOutcome{}, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "update order status")
	}
	if !swapped {
		return transitionOutcome{}, pkgerrors.New(pkgerrors.CodeConflict, "order was modified concurrently")
	}

	updated, err := s.load(ctx, repo, order.ID)
	if err != nil {
		return transitionOutcome{}, err
	}
	return transitionOutcome{order: updated, from: order.Status, event: event, restored: restored, changed: true}, nil
}

func (s *service) restoreStock(ctx context.Context, tx *gorm.DB, order *models.Order) (int, error) {
	ledger := s.ledger.WithTx(tx)
	units := 0
	for _, line := range order.Lines {
		if err := ledger.Restore(ctx, line.VariantID, line.Quantity); err != nil {
			if pkgerrors.IsCode(err, pkgerrors.CodeNotFound) {
				if s.logg != nil {
					s.logg.Warn(s.logg.WithField(ctx, "variant_id", line.VariantID.String()), "variant removed from catalog; stock not restored")
				}
				continue
			}
			return 0, err
		}
		units += line.Quantity
	}
	return units, nil
}

func (s *service) afterCommit(ctx context.Context, outcome transitionOutcome) {
	if !outcome.changed || outcome.order == nil {
		return
	}
	if s.metrics != nil {
		s.metrics.ObserveTransition(string(outcome.from), string(outcome.order.Status))
		s.metrics.AddStockRestored(outcome.restored)
	}
	if s.logg != nil {
		logCtx := s.logg.WithFields(ctx, map[string]any{
			"order_id": outcome.order.ID.String(),
			"from":     outcome.from,
			"to":       outcome.order.Status,
			"event":    outcome.event,
		})
		s.logg.Info(logCtx, "order transitioned")
	}
	if s.notifier != nil {
		s.notifier.OrderStatusChanged(ctx, outcome.order, outcome.from, outcome.event)
	}
}

func (s *service) load(ctx context.Context, repo *Repository, id uuid.UUID) (*models.Order, error) {
	order, err := repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load order")
	}
	return order, nil
}

func (s *service) loadForPayment(ctx context.Context, repo *Repository, orderID uuid.UUID, reference string) (*models.Order, error) {
	if orderID != uuid.Nil {
		return s.load(ctx, repo, orderID)
	}
	order, err := repo.FindByPaymentReference(ctx, reference)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "no order for payment reference")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load order by payment reference")
	}
	return order, nil
}

func authorize(order *models.Order, actor Actor) error {
	switch actor.Kind {
	case ActorSystem, ActorAdmin:
		return nil
	case ActorOwner:
		if actor.UserID != uuid.Nil && order.UserID != nil && *order.UserID == actor.UserID {
			return nil
		}
		return pkgerrors.New(pkgerrors.CodeForbidden, "order belongs to another customer")
	default:
		return pkgerrors.New(pkgerrors.CodeForbidden, "unknown actor")
	}
}
