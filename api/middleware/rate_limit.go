package middleware

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/vinhvuiver2003/doantotnghiep-sub000/api/responses"
	pkgerrors "github.com/vinhvuiver2003/doantotnghiep-sub000/pkg/errors"
	"github.com/vinhvuiver2003/doantotnghiep-sub000/pkg/logger"
	pkgredis "github.com/vinhvuiver2003/doantotnghiep-sub000/pkg/redis"
)

// RateLimitPolicy caps requests per client IP within a fixed window.
type RateLimitPolicy struct {
	name   string
	window time.Duration
	limit  int
}

// NewRateLimitPolicy builds a policy; a non-positive window or limit disables it.
func NewRateLimitPolicy(name string, window time.Duration, limit int) RateLimitPolicy {
	return RateLimitPolicy{
		name:   strings.ToLower(strings.TrimSpace(name)),
		window: window,
		limit:  limit,
	}
}

func (p RateLimitPolicy) enabled() bool {
	return p.window > 0 && p.limit > 0
}

func (p RateLimitPolicy) scope(ip string) string {
	name := p.name
	if name == "" {
		name = "default"
	}
	return fmt.Sprintf("%s:ip:%s", name, ip)
}

// RateLimit throttles a route per client IP using redis fixed-window counters.
// Promotion validation uses it to slow down code guessing.
func RateLimit(policy RateLimitPolicy, limiter pkgredis.RateLimiter, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if !policy.enabled() || limiter == nil {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			ip := clientIP(r)
			win, err := limiter.CountHit(ctx, policy.scope(ip), int64(policy.limit), policy.window)
			if err != nil {
				responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "rate limiting"))
				return
			}
			h := w.Header()
			h.Set("X-RateLimit-Limit", strconv.FormatInt(win.Limit, 10))
			h.Set("X-RateLimit-Remaining", strconv.FormatInt(win.Remaining(), 10))
			if !win.Allowed {
				logBlocked(ctx, logg, policy, ip, win.Count)
				h.Set("Retry-After", strconv.Itoa(retryAfterSeconds(win.ResetAt, time.Now())))
				responses.WriteError(ctx, nil, w, pkgerrors.New(pkgerrors.CodeRateLimit, "rate limit exceeded"))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// retryAfterSeconds rounds up so clients never retry inside the same window.
func retryAfterSeconds(reset, now time.Time) int {
	wait := reset.Sub(now)
	if wait <= 0 {
		return 1
	}
	return int((wait + time.Second - 1) / time.Second)
}

func logBlocked(ctx context.Context, logg *logger.Logger, policy RateLimitPolicy, ip string, count int64) {
	if logg == nil {
		return
	}
	logg.Warn(logg.WithFields(ctx, map[string]any{
		"policy":         policy.name,
		"ip":             ip,
		"attempts":       count,
		"limit":          policy.limit,
		"window_seconds": int(policy.window.Seconds()),
	}), "rate_limit.blocked")
}

func clientIP(r *http.Request) string {
	if r == nil {
		return ""
	}
	if header := r.Header.Get("X-Forwarded-For"); header != "" {
		for _, part := range strings.Split(header, ",") {
			if ip := strings.TrimSpace(part); ip != "" {
				return ip
			}
		}
	}
	if ip := strings.TrimSpace(r.Header.Get("X-Real-IP")); ip != "" {
		return ip
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err == nil && host != "" {
		return host
	}
	return r.RemoteAddr
}
