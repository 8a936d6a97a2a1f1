package payments

import (
	"context"
	"errors"

	"github.com/vinhvuiver2003/doantotnghiep-sub000/pkg/idempotency"
)

// WebhookConsumer scopes processed-event markers for Square payment notifications.
const WebhookConsumer = "square-payments"

// Guard remembers which webhook events were already applied.
type Guard struct {
	manager  *idempotency.Manager
	consumer string
}

func NewGuard(manager *idempotency.Manager) (*Guard, error) {
	if manager == nil {
		return nil, errors.New("idempotency manager is required")
	}
	return &Guard{manager: manager, consumer: WebhookConsumer}, nil
}

// CheckAndMark reports true when eventID was seen before, marking it otherwise.
func (g *Guard) CheckAndMark(ctx context.Context, eventID string) (bool, error) {
	return g.manager.CheckAndMarkProcessed(ctx, g.consumer, eventID)
}

// Delete forgets eventID so a redelivery is processed again.
func (g *Guard) Delete(ctx context.Context, eventID string) error {
	return g.manager.Delete(ctx, g.consumer, eventID)
}
