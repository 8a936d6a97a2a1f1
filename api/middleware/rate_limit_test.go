package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	pkgredis "github.com/vinhvuiver2003/doantotnghiep-sub000/pkg/redis"
)

type countingLimiter struct {
	hits   map[string]int64
	scopes []string
	reset  time.Time
}

func (c *countingLimiter) CountHit(_ context.Context, scope string, limit int64, _ time.Duration) (pkgredis.Window, error) {
	c.hits[scope]++
	c.scopes = append(c.scopes, scope)
	n := c.hits[scope]
	return pkgredis.Window{Allowed: n <= limit, Count: n, Limit: limit, ResetAt: c.reset}, nil
}

func TestRateLimitBlocksAfterLimit(t *testing.T) {
	limiter := &countingLimiter{hits: map[string]int64{}, reset: time.Now().Add(30 * time.Second)}
	handler := RateLimit(NewRateLimitPolicy("Promotions", time.Minute, 2), limiter, nil)(
		http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusOK) }),
	)

	var last *httptest.ResponseRecorder
	var codes []int
	for i := 0; i < 3; i++ {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/promotions/validate", nil)
		req.Header.Set("X-Forwarded-For", "203.0.113.9, 10.0.0.1")
		last = httptest.NewRecorder()
		handler.ServeHTTP(last, req)
		codes = append(codes, last.Code)
	}

	require.Equal(t, []int{http.StatusOK, http.StatusOK, http.StatusTooManyRequests}, codes)
	require.Equal(t, "promotions:ip:203.0.113.9", limiter.scopes[0])
	require.Equal(t, "2", last.Header().Get("X-RateLimit-Limit"))
	require.Equal(t, "0", last.Header().Get("X-RateLimit-Remaining"))
	retry := last.Header().Get("Retry-After")
	require.Contains(t, []string{"30", "29"}, retry)
}

func TestRateLimitDisabledPolicySkipsLimiter(t *testing.T) {
	limiter := &countingLimiter{hits: map[string]int64{}}
	handler := RateLimit(NewRateLimitPolicy("off", 0, 0), limiter, nil)(
		http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusNoContent) }),
	)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	require.Equal(t, http.StatusNoContent, rec.Code)
	require.Empty(t, limiter.scopes)
}

func TestRetryAfterSecondsRoundsUp(t *testing.T) {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	require.Equal(t, 2, retryAfterSeconds(now.Add(1500*time.Millisecond), now))
	require.Equal(t, 1, retryAfterSeconds(now.Add(-time.Second), now))
}

func TestClientIPPrefersForwardedHeaders(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "10.0.0.7:5123"
	require.Equal(t, "10.0.0.7", clientIP(req))
	req.Header.Set("X-Real-IP", "198.51.100.4")
	require.Equal(t, "198.51.100.4", clientIP(req))
	req.Header.Set("X-Forwarded-For", " , 203.0.113.1")
	require.Equal(t, "203.0.113.1", clientIP(req))
}
