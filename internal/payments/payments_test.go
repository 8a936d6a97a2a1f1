package payments

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/vinhvuiver2003/doantotnghiep-sub000/internal/orders"
	"github.com/vinhvuiver2003/doantotnghiep-sub000/pkg/db/models"
	pkgerrors "github.com/vinhvuiver2003/doantotnghiep-sub000/pkg/errors"
	"github.com/vinhvuiver2003/doantotnghiep-sub000/pkg/idempotency"
	"github.com/vinhvuiver2003/doantotnghiep-sub000/pkg/square"
)

type fakeSquare struct {
	params []square.ChargeRequest
	id     string
	err    error
}

func (f *fakeSquare) Charge(_ context.Context, req square.ChargeRequest) (*square.Charge, error) {
	f.params = append(f.params, req)
	if f.err != nil {
		return nil, f.err
	}
	return &square.Charge{PaymentID: f.id, Status: square.PaymentStatusCompleted}, nil
}

func TestSquareGatewayInitiate(t *testing.T) {
	client := &fakeSquare{id: "pay_123"}
	gateway, err := NewSquareGateway(client)
	require.NoError(t, err)

	email := "ana@example.com"
	order := &models.Order{ID: uuid.New(), FinalAmountCents: 2500, GuestEmail: &email}
	ref, err := gateway.Initiate(context.Background(), order, " cnon:card-nonce-ok ")
	require.NoError(t, err)
	require.Equal(t, "pay_123", ref)

	require.Len(t, client.params, 1)
	params := client.params[0]
	require.EqualValues(t, 2500, params.AmountCents)
	require.Equal(t, "cnon:card-nonce-ok", params.SourceID)
	require.Equal(t, order.ID.String(), params.ReferenceID)
	require.Equal(t, email, params.BuyerEmail)
	require.Equal(t, IdempotencyKeyFor(order), params.IdempotencyKey)
	require.LessOrEqual(t, len(params.IdempotencyKey), 45)

	_, err = gateway.Initiate(context.Background(), order, "")
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))

	_, err = gateway.Initiate(context.Background(), &models.Order{ID: uuid.New()}, "nonce")
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeInvalidState))

	client.err = pkgerrors.New(pkgerrors.CodeDependency, "square create payment failed")
	_, err = gateway.Initiate(context.Background(), order, "nonce")
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeDependency))

	client.err = nil
	client.id = ""
	_, err = gateway.Initiate(context.Background(), order, "nonce")
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeDependency))
}

type fakeOrders struct {
	results []orders.PaymentResult
	err     error
}

func (f *fakeOrders) HandlePaymentResult(_ context.Context, result orders.PaymentResult) (*models.Order, error) {
	f.results = append(f.results, result)
	if f.err != nil {
		return nil, f.err
	}
	return &models.Order{ID: result.OrderID}, nil
}

func paymentEvent(eventType, status string, orderID uuid.UUID) *square.WebhookEvent {
	return &square.WebhookEvent{
		EventID: "evt_" + uuid.NewString(),
		Type:    eventType,
		Data: square.WebhookData{
			Type: "payment",
			ID:   "pay_1",
			Object: square.WebhookObject{Payment: &square.WebhookPayment{
				ID:          "pay_1",
				Status:      status,
				ReferenceID: orderID.String(),
			}},
		},
	}
}

func TestWebhookServiceHandleEvent(t *testing.T) {
	handler := &fakeOrders{}
	svc, err := NewWebhookService(handler, nil)
	require.NoError(t, err)
	ctx := context.Background()
	orderID := uuid.New()

	require.NoError(t, svc.HandleEvent(ctx, paymentEvent("payment.updated", "COMPLETED", orderID)))
	require.NoError(t, svc.HandleEvent(ctx, paymentEvent("payment.updated", "FAILED", orderID)))
	require.NoError(t, svc.HandleEvent(ctx, paymentEvent("payment.updated", "CANCELED", orderID)))
	require.NoError(t, svc.HandleEvent(ctx, paymentEvent("payment.updated", "APPROVED", orderID)))
	require.NoError(t, svc.HandleEvent(ctx, paymentEvent("refund.created", "COMPLETED", orderID)))

	require.Len(t, handler.results, 3)
	require.True(t, handler.results[0].Succeeded)
	require.Equal(t, orderID, handler.results[0].OrderID)
	require.Equal(t, "pay_1", handler.results[0].Reference)
	require.False(t, handler.results[1].Succeeded)
	require.Equal(t, "square payment failed", handler.results[1].FailureReason)
	require.Equal(t, "square payment canceled", handler.results[2].FailureReason)

	missing := paymentEvent("payment.updated", "COMPLETED", orderID)
	missing.Data.Object.Payment = nil
	require.True(t, pkgerrors.IsCode(svc.HandleEvent(ctx, missing), pkgerrors.CodeValidation))

	handler.err = pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
	require.True(t, pkgerrors.IsCode(svc.HandleEvent(ctx, paymentEvent("payment.updated", "COMPLETED", orderID)), pkgerrors.CodeNotFound))
}

func TestWebhookResultWithoutOrderReference(t *testing.T) {
	result, ok := resultFor(&square.WebhookPayment{ID: "pay_9", Status: "completed", ReferenceID: "not-a-uuid"})
	require.True(t, ok)
	require.Equal(t, uuid.Nil, result.OrderID)
	require.Equal(t, "pay_9", result.Reference)
}

type memoryStore struct {
	mu   sync.Mutex
	data map[string]string
}

func (s *memoryStore) Get(_ context.Context, key string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.data[key], nil
}

func (s *memoryStore) SetNX(_ context.Context, key string, value any, _ time.Duration) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.data[key]; ok {
		return false, nil
	}
	s.data[key] = fmt.Sprint(value)
	return true, nil
}

func (s *memoryStore) IdempotencyKey(scope, id string) string {
	return "sf:idempotency:" + scope + ":" + id
}

func (s *memoryStore) Del(_ context.Context, keys ...string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, key := range keys {
		delete(s.data, key)
	}
	return nil
}

func TestGuardMarksAndForgets(t *testing.T) {
	manager, err := idempotency.NewManager(&memoryStore{data: map[string]string{}}, time.Hour)
	require.NoError(t, err)
	guard, err := NewGuard(manager)
	require.NoError(t, err)
	ctx := context.Background()

	seen, err := guard.CheckAndMark(ctx, "evt_1")
	require.NoError(t, err)
	require.False(t, seen)

	seen, err = guard.CheckAndMark(ctx, "evt_1")
	require.NoError(t, err)
	require.True(t, seen)

	require.NoError(t, guard.Delete(ctx, "evt_1"))
	seen, err = guard.CheckAndMark(ctx, "evt_1")
	require.NoError(t, err)
	require.False(t, seen)

	_, err = NewGuard(nil)
	require.Error(t, err)
}
