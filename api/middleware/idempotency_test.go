package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	pkgerrors "github.com/vinhvuiver2003/doantotnghiep-sub000/pkg/errors"
	"github.com/vinhvuiver2003/doantotnghiep-sub000/pkg/idempotency"
)

type memoryStore struct {
	data map[string]string
}

func (m *memoryStore) Get(_ context.Context, key string) (string, error) {
	if v, ok := m.data[key]; ok {
		return v, nil
	}
	return "", redis.Nil
}

func (m *memoryStore) SetNX(_ context.Context, key string, value any, _ time.Duration) (bool, error) {
	if _, ok := m.data[key]; ok {
		return false, nil
	}
	m.data[key] = value.(string)
	return true, nil
}

func (m *memoryStore) IdempotencyKey(scope, id string) string { return scope + ":" + id }

func (m *memoryStore) Del(_ context.Context, keys ...string) error {
	for _, k := range keys {
		delete(m.data, k)
	}
	return nil
}

type countingHandler struct {
	calls  int
	status int
}

func (h *countingHandler) ServeHTTP(w http.ResponseWriter, _ *http.Request) {
	h.calls++
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(h.status)
	_, _ = w.Write([]byte(`{"data":{"order_number":"ORD-1"}}`))
}

func newKeyedStack(policy KeyPolicy, status int) (http.Handler, *countingHandler, *memoryStore) {
	store := &memoryStore{data: map[string]string{}}
	h := &countingHandler{status: status}
	cache := idempotency.NewResponseCache(store, time.Hour)
	return Idempotent(cache, policy, nil)(h), h, store
}

func post(handler http.Handler, key, body string, mutate ...func(*http.Request) *http.Request) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/api/v1/checkout", strings.NewReader(body))
	if key != "" {
		req.Header.Set(IdempotencyHeader, key)
	}
	for _, m := range mutate {
		req = m(req)
	}
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func TestIdempotentRequiresKey(t *testing.T) {
	handler, h, _ := newKeyedStack(KeyRequired, http.StatusCreated)
	rec := post(handler, "", `{}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Zero(t, h.calls)
}

func TestIdempotentReplaysFirstResponse(t *testing.T) {
	handler, h, _ := newKeyedStack(KeyRequired, http.StatusCreated)

	first := post(handler, "abc", `{"cart_id":"1"}`)
	require.Equal(t, http.StatusCreated, first.Code)

	replay := post(handler, "abc", `{"cart_id":"1"}`)
	require.Equal(t, http.StatusCreated, replay.Code)
	require.Equal(t, "application/json", replay.Header().Get("Content-Type"))
	require.Equal(t, "true", replay.Header().Get("Idempotent-Replayed"))
	require.JSONEq(t, first.Body.String(), replay.Body.String())
	require.Equal(t, 1, h.calls)
}

func TestIdempotentRejectsChangedBody(t *testing.T) {
	handler, _, _ := newKeyedStack(KeyRequired, http.StatusOK)
	post(handler, "xyz", `{"cart_id":"1"}`)

	rec := post(handler, "xyz", `{"cart_id":"2"}`)
	require.Equal(t, http.StatusConflict, rec.Code)
	var payload struct {
		Error struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &payload))
	require.Equal(t, string(pkgerrors.CodeIdempotency), payload.Error.Code)
}

func TestIdempotentOptionalKeyPassesThrough(t *testing.T) {
	handler, h, store := newKeyedStack(KeyOptional, http.StatusOK)
	post(handler, "", `{}`)
	post(handler, "", `{}`)
	require.Equal(t, 2, h.calls)
	require.Empty(t, store.data)
}

func TestIdempotentDoesNotStoreRetryableFailures(t *testing.T) {
	for _, status := range []int{http.StatusServiceUnavailable, http.StatusConflict} {
		handler, h, store := newKeyedStack(KeyRequired, status)
		post(handler, "retry-me", `{}`)
		post(handler, "retry-me", `{}`)
		require.Equal(t, 2, h.calls, status)
		require.Empty(t, store.data, status)
	}
}

func TestIdempotentScopesByCaller(t *testing.T) {
	handler, h, _ := newKeyedStack(KeyRequired, http.StatusCreated)
	asGuest := func(token string) func(*http.Request) *http.Request {
		return func(r *http.Request) *http.Request {
			return r.WithContext(WithSessionToken(r.Context(), token))
		}
	}
	post(handler, "same", `{}`, asGuest("guest-token-aaaaaaaaaaaa"))
	post(handler, "same", `{}`, asGuest("guest-token-bbbbbbbbbbbb"))
	require.Equal(t, 2, h.calls)
}

func TestIdempotentWithoutCacheStillEnforcesKey(t *testing.T) {
	h := &countingHandler{status: http.StatusCreated}
	handler := Idempotent(nil, KeyRequired, nil)(h)
	require.Equal(t, http.StatusBadRequest, post(handler, "", `{}`).Code)
	require.Equal(t, http.StatusCreated, post(handler, "k", `{}`).Code)
	require.Equal(t, http.StatusCreated, post(handler, "k", `{}`).Code)
	require.Equal(t, 2, h.calls)
}
