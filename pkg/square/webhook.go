package square

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"strings"

	pkgerrors "github.com/vinhvuiver2003/doantotnghiep-sub000/pkg/errors"
)

// SignatureHeader carries the HMAC Square computes over the notification URL and body.
const SignatureHeader = "X-Square-Hmacsha256-Signature"

// Payment statuses reported by Square.
const (
	PaymentStatusApproved  = "APPROVED"
	PaymentStatusPending   = "PENDING"
	PaymentStatusCompleted = "COMPLETED"
	PaymentStatusCanceled  = "CANCELED"
	PaymentStatusFailed    = "FAILED"
)

// WebhookEvent is the envelope Square posts for payment notifications.
type WebhookEvent struct {
	MerchantID string      `json:"merchant_id"`
	EventID    string      `json:"event_id"`
	Type       string      `json:"type"`
	CreatedAt  string      `json:"created_at"`
	Data       WebhookData `json:"data"`
}

type WebhookData struct {
	Type   string        `json:"type"`
	ID     string        `json:"id"`
	Object WebhookObject `json:"object"`
}

type WebhookObject struct {
	Payment *WebhookPayment `json:"payment"`
}

// WebhookPayment is the subset of a Square payment the storefront reacts to.
type WebhookPayment struct {
	ID          string         `json:"id"`
	Status      string         `json:"status"`
	ReferenceID string         `json:"reference_id"`
	OrderID     string         `json:"order_id"`
	Note        string         `json:"note"`
	AmountMoney *WebhookAmount `json:"amount_money"`
}

type WebhookAmount struct {
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
}

// ComputeSignature returns the base64 HMAC-SHA256 of url+payload keyed by secret.
func ComputeSignature(secret, notificationURL string, payload []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(notificationURL))
	mac.Write(payload)
	return base64.StdEncoding.EncodeToString(mac.Sum(nil))
}

// VerifySignature checks a webhook signature in constant time.
func VerifySignature(secret, notificationURL string, payload []byte, signature string) bool {
	signature = strings.TrimSpace(signature)
	if secret == "" || signature == "" {
		return false
	}
	expected := ComputeSignature(secret, notificationURL, payload)
	return hmac.Equal([]byte(expected), []byte(signature))
}

// ParseWebhookEvent decodes a webhook body.
func ParseWebhookEvent(payload []byte) (*WebhookEvent, error) {
	var event WebhookEvent
	if err := json.Unmarshal(payload, &event); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "decode square event")
	}
	if strings.TrimSpace(event.EventID) == "" {
		event.EventID = event.Data.ID
	}
	if strings.TrimSpace(event.EventID) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "square event id missing")
	}
	return &event, nil
}
