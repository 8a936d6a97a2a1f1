package orders

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/vinhvuiver2003/doantotnghiep-sub000/pkg/enums"
	pkgerrors "github.com/vinhvuiver2003/doantotnghiep-sub000/pkg/errors"
)

// ActorKind is the capacity in which a caller drives a transition.
type ActorKind string

const (
	ActorSystem ActorKind = "system"
	ActorAdmin  ActorKind = "admin"
	ActorOwner  ActorKind = "owner"
)

// Actor is the explicit identity behind a transition request.
type Actor struct {
	Kind   ActorKind
	UserID uuid.UUID
}

// SystemActor drives gateway-originated transitions.
func SystemActor() Actor { return Actor{Kind: ActorSystem} }

// AdminActor drives back-office transitions.
func AdminActor(userID uuid.UUID) Actor { return Actor{Kind: ActorAdmin, UserID: userID} }

// OwnerActor drives customer transitions on their own orders.
func OwnerActor(userID uuid.UUID) Actor { return Actor{Kind: ActorOwner, UserID: userID} }

// SideEffect is applied to the order's children in the same transaction as the
// status change.
type SideEffect string

const (
	EffectMarkDeliveryProcessing SideEffect = "mark_delivery_processing"
	EffectMarkShipped            SideEffect = "mark_shipped"
	EffectMarkDelivered          SideEffect = "mark_delivered"
	EffectFailDelivery           SideEffect = "fail_delivery"
	EffectCompletePayment        SideEffect = "complete_payment"
	EffectFailPayment            SideEffect = "fail_payment"
	EffectRestoreStock           SideEffect = "restore_stock"
)

type rule struct {
	event   enums.OrderEvent
	from    []enums.OrderStatus
	actors  []ActorKind
	to      enums.OrderStatus
	effects []SideEffect
}

var transitionTable = []rule{
	{
		event:   enums.OrderEventPaymentCompleted,
		from:    []enums.OrderStatus{enums.OrderStatusPending},
		actors:  []ActorKind{ActorSystem},
		to:      enums.OrderStatusProcessing,
		effects: []SideEffect{EffectCompletePayment, EffectMarkDeliveryProcessing},
	},
	{
		event:   enums.OrderEventProcess,
		from:    []enums.OrderStatus{enums.OrderStatusPending},
		actors:  []ActorKind{ActorAdmin},
		to:      enums.OrderStatusProcessing,
		effects: []SideEffect{EffectMarkDeliveryProcessing},
	},
	{
		event:   enums.OrderEventShip,
		from:    []enums.OrderStatus{enums.OrderStatusProcessing},
		actors:  []ActorKind{ActorAdmin},
		to:      enums.OrderStatusShipped,
		effects: []SideEffect{EffectMarkShipped},
	},
	{
		event:   enums.OrderEventDeliver,
		from:    []enums.OrderStatus{enums.OrderStatusShipped},
		actors:  []ActorKind{ActorAdmin},
		to:      enums.OrderStatusDelivered,
		effects: []SideEffect{EffectMarkDelivered, EffectCompletePayment},
	},
	{
		event:   enums.OrderEventConfirmDelivery,
		from:    []enums.OrderStatus{enums.OrderStatusShipped},
		actors:  []ActorKind{ActorOwner},
		to:      enums.OrderStatusDelivered,
		effects: []SideEffect{EffectMarkDelivered, EffectCompletePayment},
	},
	{
		event:   enums.OrderEventCancel,
		from:    []enums.OrderStatus{enums.OrderStatusPending},
		actors:  []ActorKind{ActorOwner},
		to:      enums.OrderStatusCancelled,
		effects: []SideEffect{EffectRestoreStock, EffectFailPayment, EffectFailDelivery},
	},
	{
		event:   enums.OrderEventCancel,
		from:    []enums.OrderStatus{enums.OrderStatusPending, enums.OrderStatusProcessing, enums.OrderStatusShipped},
		actors:  []ActorKind{ActorAdmin},
		to:      enums.OrderStatusCancelled,
		effects: []SideEffect{EffectRestoreStock, EffectFailPayment, EffectFailDelivery},
	},
	{
		event:   enums.OrderEventRefund,
		from:    []enums.OrderStatus{enums.OrderStatusPending, enums.OrderStatusProcessing},
		actors:  []ActorKind{ActorAdmin},
		to:      enums.OrderStatusRefunded,
		effects: []SideEffect{EffectFailDelivery},
	},
	{
		// refunds never touch stock; cancellation is the inventory event.
		event:  enums.OrderEventRefund,
		from:   []enums.OrderStatus{enums.OrderStatusShipped, enums.OrderStatusDelivered},
		actors: []ActorKind{ActorAdmin},
		to:     enums.OrderStatusRefunded,
	},
}

// IsTerminal reports whether no event can move an order out of status.
func IsTerminal(status enums.OrderStatus) bool {
	return status == enums.OrderStatusCancelled || status == enums.OrderStatusRefunded
}

// Resolve looks up the target status and side effects for applying event to an
// order in status from, on behalf of kind. It touches no storage.
func Resolve(from enums.OrderStatus, event enums.OrderEvent, kind ActorKind) (enums.OrderStatus, []SideEffect, error) {
	if !event.IsValid() {
		return "", nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("unknown order event %q", event))
	}
	if IsTerminal(from) {
		return "", nil, pkgerrors.New(pkgerrors.CodeInvalidState, fmt.Sprintf("order is %s and can no longer change", from))
	}

	permitted := false
	for _, r := range transitionTable {
		if r.event != event || !containsActor(r.actors, kind) {
			continue
		}
		permitted = true
		if containsStatus(r.from, from) {
			return r.to, append([]SideEffect(nil), r.effects...), nil
		}
	}
	if !permitted {
		return "", nil, pkgerrors.New(pkgerrors.CodeForbidden, fmt.Sprintf("%s may not apply %s", kind, event))
	}
	if event == enums.OrderEventCancel && kind == ActorOwner {
		return "", nil, pkgerrors.New(pkgerrors.CodeInvalidState, "only pending orders can be cancelled by the customer")
	}
	return "", nil, pkgerrors.New(pkgerrors.CodeInvalidState, fmt.Sprintf("cannot %s an order that is %s", event, from))
}

// EventForStatus maps an administrative target status to the event that reaches it.
func EventForStatus(to enums.OrderStatus) (enums.OrderEvent, error) {
	switch to {
	case enums.OrderStatusProcessing:
		return enums.OrderEventProcess, nil
	case enums.OrderStatusShipped:
		return enums.OrderEventShip, nil
	case enums.OrderStatusDelivered:
		return enums.OrderEventDeliver, nil
	case enums.OrderStatusCancelled:
		return enums.OrderEventCancel, nil
	case enums.OrderStatusRefunded:
		return enums.OrderEventRefund, nil
	case enums.OrderStatusPending:
		return "", pkgerrors.New(pkgerrors.CodeInvalidState, "orders cannot be moved back to pending")
	default:
		return "", pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("unknown order status %q", to))
	}
}

func containsActor(actors []ActorKind, kind ActorKind) bool {
	for _, a := range actors {
		if a == kind {
			return true
		}
	}
	return false
}

func containsStatus(statuses []enums.OrderStatus, status enums.OrderStatus) bool {
	for _, s := range statuses {
		if s == status {
			return true
		}
	}
	return false
}
