package errors

import (
	stdErrors "errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/require"
)

func TestMetadataForKnownCodes(t *testing.T) {
	tests := []struct {
		code      Code
		status    int
		retryable bool
	}{
		{CodeValidation, http.StatusBadRequest, false},
		{CodeUnauthorized, http.StatusUnauthorized, false},
		{CodeForbidden, http.StatusForbidden, false},
		{CodeNotFound, http.StatusNotFound, false},
		{CodeConflict, http.StatusConflict, true},
		{CodeInvalidState, http.StatusBadRequest, false},
		{CodeIdempotency, http.StatusConflict, false},
		{CodeRateLimit, http.StatusTooManyRequests, false},
		{CodeInternal, http.StatusInternalServerError, true},
		{CodeDependency, http.StatusServiceUnavailable, true},
	}
	for _, tt := range tests {
		meta := MetadataFor(tt.code)
		require.Equal(t, tt.status, meta.HTTPStatus, tt.code)
		require.Equal(t, tt.retryable, meta.Retryable, tt.code)
	}
	require.Equal(t, http.StatusInternalServerError, MetadataFor("SOMETHING_UNKNOWN").HTTPStatus)
}

func TestPublicMessageHidesServerFailures(t *testing.T) {
	require.Equal(t, "cart is empty", New(CodeInvalidState, "cart is empty").PublicMessage())
	require.Equal(t, "resource not found", New(CodeNotFound, "").PublicMessage())
	require.Equal(t, "internal server error", New(CodeInternal, "pool exhausted").PublicMessage())
	require.Equal(t, "dependency unavailable", New(CodeDependency, "square timeout").PublicMessage())
}

func TestPublicDetailsRespectsCode(t *testing.T) {
	details := map[string]any{"field": "email"}
	require.Equal(t, details, New(CodeValidation, "bad").WithDetails(details).PublicDetails())
	require.Nil(t, New(CodeForbidden, "no").WithDetails(details).PublicDetails())
}

func TestWrapPreservesCause(t *testing.T) {
	cause := stdErrors.New("boom")
	wrapped := Wrap(CodeConflict, cause, "reserve stock")
	require.ErrorIs(t, wrapped, cause)
	require.Equal(t, CodeConflict, wrapped.Code())
	require.Contains(t, wrapped.Error(), "boom")
	require.True(t, Retryable(wrapped))
	require.False(t, Retryable(New(CodeValidation, "x")))
	require.False(t, Retryable(cause))
}

func TestIsCodeFollowsWrappedChain(t *testing.T) {
	outer := fmt.Errorf("checkout: %w", Newf(CodeInvalidState, "insufficient stock for %s", "SKU-1"))
	require.True(t, IsCode(outer, CodeInvalidState))
	require.False(t, IsCode(outer, CodeNotFound))
	require.False(t, IsCode(stdErrors.New("plain"), CodeInternal))
	require.Nil(t, As(nil))
}

func TestEnsureWrapsUncodedErrors(t *testing.T) {
	require.Equal(t, CodeInternal, Ensure(stdErrors.New("plain")).Code())
	require.Equal(t, CodeInternal, Ensure(nil).Code())
	coded := New(CodeNotFound, "order not found")
	require.Same(t, coded, Ensure(fmt.Errorf("lookup: %w", coded)))
}

func TestLogFieldsIncludesPostgresDiagnostics(t *testing.T) {
	pgErr := &pgconn.PgError{Code: "23505", ConstraintName: "ux_orders_number", TableName: "orders"}
	err := Wrap(CodeConflict, pgErr, "insert order").WithDetails(map[string]any{"step": "insert_order"})

	fields := LogFields(fmt.Errorf("place order: %w", err))
	require.Equal(t, string(CodeConflict), fields["error_code"])
	require.Equal(t, "23505", fields["pg_code"])
	require.Equal(t, "ux_orders_number", fields["pg_constraint"])
	require.Equal(t, "orders", fields["pg_table"])
	require.Equal(t, "insert_order", fields["step"])
	require.Len(t, fields["error_chain"], 3)
	require.Empty(t, LogFields(nil))
}
