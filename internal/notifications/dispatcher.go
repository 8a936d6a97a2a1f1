// Package notifications queues customer-facing order events for the outbox publisher.
package notifications

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/vinhvuiver2003/doantotnghiep-sub000/pkg/db/models"
	"github.com/vinhvuiver2003/doantotnghiep-sub000/pkg/enums"
	"github.com/vinhvuiver2003/doantotnghiep-sub000/pkg/logger"
	"github.com/vinhvuiver2003/doantotnghiep-sub000/pkg/outbox"
	"github.com/vinhvuiver2003/doantotnghiep-sub000/pkg/outbox/payloads"
)

type emitter interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

// Dispatcher is fire-and-forget: callers invoke it after their own transaction has
// committed and a failure here is logged, never returned. A nil Dispatcher drops
// every event.
type Dispatcher struct {
	db      *gorm.DB
	emitter emitter
	logg    *logger.Logger
	now     func() time.Time
}

// NewDispatcher builds a dispatcher that writes outbox rows on db.
func NewDispatcher(db *gorm.DB, emitter emitter, logg *logger.Logger) *Dispatcher {
	return &Dispatcher{db: db, emitter: emitter, logg: logg, now: func() time.Time { return time.Now().UTC() }}
}

// OrderPlaced announces a freshly created order.
func (d *Dispatcher) OrderPlaced(ctx context.Context, order *models.Order) {
	if d == nil || order == nil {
		return
	}
	d.emit(ctx, outbox.DomainEvent{
		EventType:     enums.EventOrderPlaced,
		AggregateType: enums.AggregateOrder,
		AggregateID:   order.ID,
		Actor:         orderActor(order),
		Data: payloads.OrderPlacedEvent{
			OrderID:          order.ID,
			UserID:           order.UserID,
			GuestEmail:       order.GuestEmail,
			FinalAmountCents: order.FinalAmountCents,
			PaymentMethod:    order.PaymentMethod,
			LineCount:        len(order.Lines),
			PlacedAt:         order.CreatedAt,
		},
	})
}

// OrderStatusChanged announces a committed lifecycle transition.
func (d *Dispatcher) OrderStatusChanged(ctx context.Context, order *models.Order, from enums.OrderStatus, event enums.OrderEvent) {
	if d == nil || order == nil {
		return
	}
	d.emit(ctx, outbox.DomainEvent{
		EventType:     enums.EventOrderStatusChanged,
		AggregateType: enums.AggregateOrder,
		AggregateID:   order.ID,
		Data: payloads.OrderStatusChangedEvent{
			OrderID:    order.ID,
			UserID:     order.UserID,
			GuestEmail: order.GuestEmail,
			From:       from,
			To:         order.Status,
			Event:      event,
			ChangedAt:  d.now(),
		},
	})
}

// PaymentResult announces the settled state of an order's payment.
func (d *Dispatcher) PaymentResult(ctx context.Context, order *models.Order) {
	if d == nil || order == nil || order.Payment == nil {
		return
	}
	eventType := enums.EventPaymentFailed
	if order.Payment.Status == enums.PaymentStatusCompleted {
		eventType = enums.EventPaymentCompleted
	}
	reason := ""
	if order.Payment.FailureReason != nil {
		reason = *order.Payment.FailureReason
	}
	d.emit(ctx, outbox.DomainEvent{
		EventType:     eventType,
		AggregateType: enums.AggregateOrder,
		AggregateID:   order.ID,
		Data: payloads.PaymentResultEvent{
			OrderID:          order.ID,
			PaymentID:        order.Payment.ID,
			Status:           order.Payment.Status,
			GatewayReference: order.Payment.GatewayReference,
			Reason:           reason,
		},
	})
}

// CartMerged records a guest cart folded into a user's cart.
func (d *Dispatcher) CartMerged(ctx context.Context, userID, guestCartID, userCartID uuid.UUID, lines int) {
	if d == nil {
		return
	}
	uid := userID
	d.emit(ctx, outbox.DomainEvent{
		EventType:     enums.EventCartMerged,
		AggregateType: enums.AggregateCart,
		AggregateID:   userCartID,
		Actor:         &outbox.ActorRef{UserID: &uid, Role: string(enums.RoleCustomer)},
		Data: payloads.CartMergedEvent{
			UserCartID:  userCartID,
			GuestCartID: guestCartID,
			UserID:      userID,
			LinesMoved:  lines,
		},
	})
}

func (d *Dispatcher) emit(ctx context.Context, event outbox.DomainEvent) {
	if d.db == nil || d.emitter == nil {
		return
	}
	err := d.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return d.emitter.Emit(ctx, tx, event)
	})
	if err != nil && d.logg != nil {
		logCtx := d.logg.WithFields(ctx, map[string]any{
			"event_type":   event.EventType,
			"aggregate_id": event.AggregateID.String(),
		})
		d.logg.Error(logCtx, "notification dispatch failed", err)
	}
}

func orderActor(order *models.Order) *outbox.ActorRef {
	if order.UserID == nil {
		return &outbox.ActorRef{Guest: true}
	}
	uid := *order.UserID
	return &outbox.ActorRef{UserID: &uid, Role: string(enums.RoleCustomer)}
}
