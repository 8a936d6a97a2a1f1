package square

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	sq "github.com/square/square-go-sdk"
	sqclient "github.com/square/square-go-sdk/client"
	sqoption "github.com/square/square-go-sdk/option"

	"github.com/vinhvuiver2003/doantotnghiep-sub000/pkg/config"
	"github.com/vinhvuiver2003/doantotnghiep-sub000/pkg/logger"
)

const defaultCurrency = "USD"

// environments maps SQUARE_ENV values to API hosts.
var environments = map[string]string{
	"sandbox":    "https://connect.squareupsandbox.com",
	"production": "https://connect.squareup.com",
}

type createPayment func(ctx context.Context, req *sq.CreatePaymentRequest) (*sq.CreatePaymentResponse, error)

// Client takes card payments for one Square location in one currency.
type Client struct {
	create     createPayment
	locationID string
	currency   string
	logg       *logger.Logger
}

// ChargeRequest is a single card charge. IdempotencyKey is mandatory: Square
// deduplicates on it, so retrying the same order never charges twice.
type ChargeRequest struct {
	IdempotencyKey string
	SourceID       string
	AmountCents    int64
	ReferenceID    string
	BuyerEmail     string
	Note           string
}

// Charge is Square's answer to a ChargeRequest.
type Charge struct {
	PaymentID string
	Status    string
}

// NewClient checks credentials and targets the configured environment.
func NewClient(ctx context.Context, cfg config.SquareConfig, logg *logger.Logger) (*Client, error) {
	if logg == nil {
		return nil, errors.New("square: logger required")
	}
	env := cfg.Environment()
	baseURL, ok := environments[env]
	if !ok {
		return nil, fmt.Errorf("square: unknown environment %q", env)
	}
	token := strings.TrimSpace(cfg.AccessToken)
	location := strings.TrimSpace(cfg.LocationID)
	switch {
	case token == "":
		return nil, errors.New("square: access token required")
	case location == "":
		return nil, errors.New("square: location id required")
	}

	sdk := sqclient.NewClient(sqoption.WithBaseURL(baseURL), sqoption.WithToken(token))
	create := func(ctx context.Context, req *sq.CreatePaymentRequest) (*sq.CreatePaymentResponse, error) {
		return sdk.Payments.Create(ctx, req)
	}
	c := newClient(create, location, cfg.Currency, logg)
	logg.Info(logg.WithFields(ctx, map[string]any{
		"square_env":  env,
		"location_id": location,
		"currency":    c.currency,
	}), "square client ready")
	return c, nil
}

func newClient(create createPayment, location, currency string, logg *logger.Logger) *Client {
	currency = strings.ToUpper(strings.TrimSpace(currency))
	if currency == "" {
		currency = defaultCurrency
	}
	return &Client{create: create, locationID: location, currency: currency, logg: logg}
}

// Charge creates and autocompletes a payment for req.
func (c *Client) Charge(ctx context.Context, req ChargeRequest) (*Charge, error) {
	if strings.TrimSpace(req.IdempotencyKey) == "" {
		return nil, errors.New("square: idempotency key required")
	}
	ctx = c.logg.WithFields(ctx, map[string]any{
		"square_op":    "create_payment",
		"reference_id": req.ReferenceID,
		"amount_cents": req.AmountCents,
	})

	start := time.Now()
	resp, err := c.create(ctx, c.paymentRequest(req))
	elapsed := c.logg.WithField(ctx, "duration_ms", time.Since(start).Milliseconds())
	if err != nil {
		mapped := classify(err, "create payment")
		c.logg.Warn(c.logg.WithField(elapsed, "error", err.Error()), "square call failed")
		return nil, mapped
	}

	payment := resp.GetPayment()
	charge := &Charge{
		PaymentID: deref(payment.GetID()),
		Status:    deref(payment.GetStatus()),
	}
	c.logg.Info(c.logg.WithFields(elapsed, map[string]any{
		"payment_id": charge.PaymentID,
		"status":     charge.Status,
	}), "square payment created")
	return charge, nil
}

func (c *Client) paymentRequest(req ChargeRequest) *sq.CreatePaymentRequest {
	currency := sq.Currency(c.currency)
	autocomplete := true
	out := &sq.CreatePaymentRequest{
		IdempotencyKey: strings.TrimSpace(req.IdempotencyKey),
		SourceID:       strings.TrimSpace(req.SourceID),
		LocationID:     optional(c.locationID),
		Autocomplete:   &autocomplete,
		ReferenceID:    optional(req.ReferenceID),
		Note:           optional(req.Note),
		BuyerEmailAddress: optional(req.BuyerEmail),
	}
	if req.AmountCents > 0 {
		amount := req.AmountCents
		out.AmountMoney = &sq.Money{Amount: &amount, Currency: &currency}
	}
	return out
}

func optional(s string) *string {
	if s = strings.TrimSpace(s); s == "" {
		return nil
	}
	return &s
}

func deref(p *string) string {
	if p == nil {
		return ""
	}
	return *p
}
