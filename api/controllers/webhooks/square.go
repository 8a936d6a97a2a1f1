package webhooks

import (
	"context"
	"errors"
	"io"
	"net/http"

	"github.com/vinhvuiver2003/doantotnghiep-sub000/api/responses"
	pkgerrors "github.com/vinhvuiver2003/doantotnghiep-sub000/pkg/errors"
	"github.com/vinhvuiver2003/doantotnghiep-sub000/pkg/logger"
	"github.com/vinhvuiver2003/doantotnghiep-sub000/pkg/square"
)

const maxWebhookBody = 1 << 20

type SquareWebhookService interface {
	HandleEvent(ctx context.Context, event *square.WebhookEvent) error
}

// SquareWebhookGuard remembers delivered event ids so redeliveries are acknowledged
// without reprocessing.
type SquareWebhookGuard interface {
	CheckAndMark(ctx context.Context, eventID string) (bool, error)
	Delete(ctx context.Context, eventID string) error
}

// SquareWebhookConfig carries the signature key and the exact URL Square signs.
type SquareWebhookConfig struct {
	SignatureKey    string
	NotificationURL string
}

// receipt is the acknowledgement body; Square only looks at the status code.
type receipt struct {
	EventID   string `json:"event_id"`
	Duplicate bool   `json:"duplicate"`
}

// SquareWebhook verifies and applies Square payment notifications. A failed
// event releases its guard entry so Square's retry is processed again.
func SquareWebhook(svc SquareWebhookService, cfg SquareWebhookConfig, guard SquareWebhookGuard, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil || guard == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "square webhooks not configured"))
			return
		}

		event, err := verifiedEvent(w, r, cfg)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		if logg != nil {
			ctx = logg.WithFields(ctx, map[string]any{"event_id": event.EventID, "event_type": event.Type})
		}

		seen, err := guard.CheckAndMark(ctx, event.EventID)
		if err != nil {
			responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check webhook idempotency"))
			return
		}
		if seen {
			responses.WriteSuccess(w, receipt{EventID: event.EventID, Duplicate: true})
			return
		}

		if err := svc.HandleEvent(ctx, event); err != nil {
			if relErr := guard.Delete(ctx, event.EventID); relErr != nil && logg != nil {
				logg.Error(ctx, "webhook guard release failed", relErr)
			}
			responses.WriteError(ctx, logg, w, err)
			return
		}
		if logg != nil {
			logg.Info(ctx, "square event processed")
		}
		responses.WriteSuccess(w, receipt{EventID: event.EventID})
	}
}

// verifiedEvent reads the body, checks Square's HMAC over URL+body and decodes it.
func verifiedEvent(w http.ResponseWriter, r *http.Request, cfg SquareWebhookConfig) (*square.WebhookEvent, error) {
	payload, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxWebhookBody))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "webhook body too large")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "read webhook body")
	}
	signature := r.Header.Get(square.SignatureHeader)
	if signature == "" {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "square signature missing")
	}
	if !square.VerifySignature(cfg.SignatureKey, cfg.NotificationURL, payload, signature) {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid square signature")
	}
	return square.ParseWebhookEvent(payload)
}
