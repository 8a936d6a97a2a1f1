package square

import (
	"context"
	"errors"
	"io"
	"net/http"
	"testing"

	sq "github.com/square/square-go-sdk"
	sqcore "github.com/square/square-go-sdk/core"
	"github.com/stretchr/testify/require"

	"github.com/vinhvuiver2003/doantotnghiep-sub000/pkg/config"
	pkgerrors "github.com/vinhvuiver2003/doantotnghiep-sub000/pkg/errors"
	"github.com/vinhvuiver2003/doantotnghiep-sub000/pkg/logger"
)

func quietLogger() *logger.Logger {
	return logger.New(logger.Options{ServiceName: "square-test", Output: io.Discard})
}

func TestChargeBuildsAutocompletedPayment(t *testing.T) {
	var sent *sq.CreatePaymentRequest
	id, status := "pay_123", "COMPLETED"
	c := newClient(func(_ context.Context, req *sq.CreatePaymentRequest) (*sq.CreatePaymentResponse, error) {
		sent = req
		return &sq.CreatePaymentResponse{Payment: &sq.Payment{ID: &id, Status: &status}}, nil
	}, "LOC-1", "", quietLogger())

	charge, err := c.Charge(context.Background(), ChargeRequest{
		IdempotencyKey: "sf-order-1",
		SourceID:       " cnon:card-nonce-ok ",
		AmountCents:    2599,
		ReferenceID:    "order-1",
		BuyerEmail:     "ana@example.com",
	})
	require.NoError(t, err)
	require.Equal(t, &Charge{PaymentID: "pay_123", Status: "COMPLETED"}, charge)

	require.Equal(t, "sf-order-1", sent.IdempotencyKey)
	require.Equal(t, "cnon:card-nonce-ok", sent.SourceID)
	require.Equal(t, "LOC-1", *sent.LocationID)
	require.True(t, *sent.Autocomplete)
	require.EqualValues(t, 2599, *sent.AmountMoney.Amount)
	require.Equal(t, sq.Currency("USD"), *sent.AmountMoney.Currency)
	require.Equal(t, "order-1", *sent.ReferenceID)
	require.Equal(t, "ana@example.com", *sent.BuyerEmailAddress)
	require.Nil(t, sent.Note)
}

func TestChargeRequiresIdempotencyKey(t *testing.T) {
	called := false
	c := newClient(func(context.Context, *sq.CreatePaymentRequest) (*sq.CreatePaymentResponse, error) {
		called = true
		return nil, nil
	}, "LOC-1", "usd", quietLogger())

	_, err := c.Charge(context.Background(), ChargeRequest{SourceID: "nonce", AmountCents: 100})
	require.Error(t, err)
	require.False(t, called)
}

func TestChargeClassifiesSquareFailures(t *testing.T) {
	c := newClient(func(context.Context, *sq.CreatePaymentRequest) (*sq.CreatePaymentResponse, error) {
		return nil, sqcore.NewAPIError(http.StatusPaymentRequired, errors.New(`{"errors":[{"category":"PAYMENT_METHOD_ERROR","code":"CARD_DECLINED"}]}`))
	}, "LOC-1", "USD", quietLogger())

	_, err := c.Charge(context.Background(), ChargeRequest{IdempotencyKey: "k", SourceID: "nonce", AmountCents: 100})
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeInvalidState))
	require.Equal(t, map[string]any{"square_errors": []string{"CARD_DECLINED"}}, pkgerrors.As(err).Details())
}

func TestClassify(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want pkgerrors.Code
	}{
		{"transport failure", errors.New("dial tcp: timeout"), pkgerrors.CodeDependency},
		{"server error", sqcore.NewAPIError(http.StatusBadGateway, errors.New("bad gateway")), pkgerrors.CodeDependency},
		{"unlisted client error", sqcore.NewAPIError(http.StatusRequestEntityTooLarge, errors.New("")), pkgerrors.CodeValidation},
		{"not found", sqcore.NewAPIError(http.StatusNotFound, errors.New(`{"errors":[]}`)), pkgerrors.CodeNotFound},
		{"throttled", sqcore.NewAPIError(http.StatusTooManyRequests, errors.New("")), pkgerrors.CodeRateLimit},
		{
			"rejected credentials",
			sqcore.NewAPIError(http.StatusForbidden, errors.New(`{"errors":[{"category":"AUTHENTICATION_ERROR","code":"UNAUTHORIZED"}]}`)),
			pkgerrors.CodeUnauthorized,
		},
		{
			"idempotency key reused",
			sqcore.NewAPIError(http.StatusBadRequest, errors.New(`{"errors":[{"category":"INVALID_REQUEST_ERROR","code":"IDEMPOTENCY_KEY_REUSED"}]}`)),
			pkgerrors.CodeIdempotency,
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			require.Equal(t, tc.want, pkgerrors.As(classify(tc.err, "create payment")).Code())
		})
	}
	require.NoError(t, classify(nil, "noop"))
}

func TestNewClientValidatesConfig(t *testing.T) {
	ctx := context.Background()
	_, err := NewClient(ctx, config.SquareConfig{AccessToken: "t", LocationID: "L"}, nil)
	require.Error(t, err)
	_, err = NewClient(ctx, config.SquareConfig{Env: "staging", AccessToken: "t", LocationID: "L"}, quietLogger())
	require.ErrorContains(t, err, "staging")
	_, err = NewClient(ctx, config.SquareConfig{LocationID: "L"}, quietLogger())
	require.ErrorContains(t, err, "access token")
	_, err = NewClient(ctx, config.SquareConfig{AccessToken: "t"}, quietLogger())
	require.ErrorContains(t, err, "location")

	c, err := NewClient(ctx, config.SquareConfig{Env: "Production", AccessToken: "t", LocationID: " L1 ", Currency: "eur"}, quietLogger())
	require.NoError(t, err)
	require.Equal(t, "L1", c.locationID)
	require.Equal(t, "EUR", c.currency)
}
