package orders

import (
	"testing"

	"github.com/vinhvuiver2003/doantotnghiep-sub000/pkg/enums"
	pkgerrors "github.com/vinhvuiver2003/doantotnghiep-sub000/pkg/errors"
)

func TestResolveAllowedTransitions(t *testing.T) {
	cases := []struct {
		from    enums.OrderStatus
		event   enums.OrderEvent
		actor   ActorKind
		to      enums.OrderStatus
		effects []SideEffect
	}{
		{enums.OrderStatusPending, enums.OrderEventPaymentCompleted, ActorSystem, enums.OrderStatusProcessing, []SideEffect{EffectCompletePayment, EffectMarkDeliveryProcessing}},
		{enums.OrderStatusPending, enums.OrderEventProcess, ActorAdmin, enums.OrderStatusProcessing, []SideEffect{EffectMarkDeliveryProcessing}},
		{enums.OrderStatusProcessing, enums.OrderEventShip, ActorAdmin, enums.OrderStatusShipped, []SideEffect{EffectMarkShipped}},
		{enums.OrderStatusShipped, enums.OrderEventDeliver, ActorAdmin, enums.OrderStatusDelivered, []SideEffect{EffectMarkDelivered, EffectCompletePayment}},
		{enums.OrderStatusShipped, enums.OrderEventConfirmDelivery, ActorOwner, enums.OrderStatusDelivered, []SideEffect{EffectMarkDelivered, EffectCompletePayment}},
		{enums.OrderStatusPending, enums.OrderEventCancel, ActorOwner, enums.OrderStatusCancelled, []SideEffect{EffectRestoreStock, EffectFailPayment, EffectFailDelivery}},
		{enums.OrderStatusShipped, enums.OrderEventCancel, ActorAdmin, enums.OrderStatusCancelled, []SideEffect{EffectRestoreStock, EffectFailPayment, EffectFailDelivery}},
		{enums.OrderStatusProcessing, enums.OrderEventRefund, ActorAdmin, enums.OrderStatusRefunded, []SideEffect{EffectFailDelivery}},
		{enums.OrderStatusDelivered, enums.OrderEventRefund, ActorAdmin, enums.OrderStatusRefunded, nil},
	}
	for _, tc := range cases {
		to, effects, err := Resolve(tc.from, tc.event, tc.actor)
		if err != nil {
			t.Fatalf("%s/%s/%s: unexpected error: %v", tc.from, tc.event, tc.actor, err)
		}
		if to != tc.to {
			t.Fatalf("%s/%s: got %s want %s", tc.from, tc.event, to, tc.to)
		}
		if len(effects) != len(tc.effects) {
			t.Fatalf("%s/%s: effects %v want %v", tc.from, tc.event, effects, tc.effects)
		}
		for i := range effects {
			if effects[i] != tc.effects[i] {
				t.Fatalf("%s/%s: effects %v want %v", tc.from, tc.event, effects, tc.effects)
			}
		}
	}
}

func TestResolveRejections(t *testing.T) {
	cases := []struct {
		name  string
		from  enums.OrderStatus
		event enums.OrderEvent
		actor ActorKind
		code  pkgerrors.Code
	}{
		{"owner cancels processing", enums.OrderStatusProcessing, enums.OrderEventCancel, ActorOwner, pkgerrors.CodeInvalidState},
		{"owner ships", enums.OrderStatusProcessing, enums.OrderEventShip, ActorOwner, pkgerrors.CodeForbidden},
		{"admin confirms delivery", enums.OrderStatusShipped, enums.OrderEventConfirmDelivery, ActorAdmin, pkgerrors.CodeForbidden},
		{"owner confirms pending", enums.OrderStatusPending, enums.OrderEventConfirmDelivery, ActorOwner, pkgerrors.CodeInvalidState},
		{"ship pending", enums.OrderStatusPending, enums.OrderEventShip, ActorAdmin, pkgerrors.CodeInvalidState},
		{"cancel delivered", enums.OrderStatusDelivered, enums.OrderEventCancel, ActorAdmin, pkgerrors.CodeInvalidState},
		{"cancelled is terminal", enums.OrderStatusCancelled, enums.OrderEventRefund, ActorAdmin, pkgerrors.CodeInvalidState},
		{"refunded is terminal", enums.OrderStatusRefunded, enums.OrderEventCancel, ActorAdmin, pkgerrors.CodeInvalidState},
		{"payment after processing", enums.OrderStatusProcessing, enums.OrderEventPaymentCompleted, ActorSystem, pkgerrors.CodeInvalidState},
		{"unknown event", enums.OrderStatusPending, enums.OrderEvent("teleport"), ActorAdmin, pkgerrors.CodeValidation},
	}
	for _, tc := range cases {
		_, _, err := Resolve(tc.from, tc.event, tc.actor)
		if !pkgerrors.IsCode(err, tc.code) {
			t.Fatalf("%s: expected %s, got %v", tc.name, tc.code, err)
		}
	}
}

func TestEventForStatus(t *testing.T) {
	event, err := EventForStatus(enums.OrderStatusShipped)
	if err != nil || event != enums.OrderEventShip {
		t.Fatalf("unexpected mapping %s %v", event, err)
	}
	if _, err := EventForStatus(enums.OrderStatusPending); !pkgerrors.IsCode(err, pkgerrors.CodeInvalidState) {
		t.Fatalf("expected invalid state for pending, got %v", err)
	}
	if _, err := EventForStatus(enums.OrderStatus("lost")); !pkgerrors.IsCode(err, pkgerrors.CodeValidation) {
		t.Fatalf("expected validation for unknown status, got %v", err)
	}
}
