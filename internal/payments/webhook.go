package payments

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/vinhvuiver2003/doantotnghiep-sub000/internal/orders"
	"github.com/vinhvuiver2003/doantotnghiep-sub000/pkg/db/models"
	pkgerrors "github.com/vinhvuiver2003/doantotnghiep-sub000/pkg/errors"
	"github.com/vinhvuiver2003/doantotnghiep-sub000/pkg/logger"
	"github.com/vinhvuiver2003/doantotnghiep-sub000/pkg/square"
)

type paymentResultHandler interface {
	HandlePaymentResult(ctx context.Context, result orders.PaymentResult) (*models.Order, error)
}

// WebhookService turns Square payment notifications into payment results.
type WebhookService struct {
	orders paymentResultHandler
	logg   *logger.Logger
}

func NewWebhookService(ordersSvc paymentResultHandler, logg *logger.Logger) (*WebhookService, error) {
	if ordersSvc == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "orders service required")
	}
	return &WebhookService{orders: ordersSvc, logg: logg}, nil
}

// HandleEvent applies payment.created / payment.updated events that carry a final
// status. Other events and intermediate statuses are acknowledged and ignored.
func (s *WebhookService) HandleEvent(ctx context.Context, event *square.WebhookEvent) error {
	if event == nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "square event required")
	}
	switch strings.ToLower(event.Type) {
	case "payment.created", "payment.updated":
	default:
		return nil
	}

	payment := event.Data.Object.Payment
	if payment == nil || strings.TrimSpace(payment.ID) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "payment payload missing")
	}

	result, ok := resultFor(payment)
	if !ok {
		return nil
	}

	order, err := s.orders.HandlePaymentResult(ctx, result)
	if err != nil {
		return err
	}
	if s.logg != nil {
		logCtx := s.logg.WithFields(ctx, map[string]any{
			"order_id":       order.ID.String(),
			"payment_id":     payment.ID,
			"payment_status": payment.Status,
		})
		s.logg.Info(logCtx, "square payment applied")
	}
	return nil
}

func resultFor(payment *square.WebhookPayment) (orders.PaymentResult, bool) {
	result := orders.PaymentResult{Reference: strings.TrimSpace(payment.ID)}
	if id, err := uuid.Parse(strings.TrimSpace(payment.ReferenceID)); err == nil {
		result.OrderID = id
	}
	switch strings.ToUpper(payment.Status) {
	case square.PaymentStatusCompleted:
		result.Succeeded = true
	case square.PaymentStatusFailed, square.PaymentStatusCanceled:
		result.FailureReason = fmt.Sprintf("square payment %s", strings.ToLower(payment.Status))
	default:
		return result, false
	}
	return result, true
}
