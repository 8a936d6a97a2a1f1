package redis

import (
	"context"
	"strconv"
	"time"
)

// Window is the state of a fixed-window counter after one hit.
type Window struct {
	Allowed bool
	Count   int64
	Limit   int64
	ResetAt time.Time
}

// Remaining is how many more hits the window accepts.
func (w Window) Remaining() int64 {
	return max(w.Limit-w.Count, 0)
}

// RateLimiter counts hits per scope in fixed, wall-clock aligned windows.
type RateLimiter interface {
	CountHit(ctx context.Context, scope string, limit int64, window time.Duration) (Window, error)
}

// CountHit records one hit against scope. Each window gets its own key so a
// missed EXPIRE can never stretch a window; the key outlives the window by a
// second to absorb clock skew between replicas.
func (c *Client) CountHit(ctx context.Context, scope string, limit int64, window time.Duration) (Window, error) {
	cmds, err := c.commands()
	if err != nil {
		return Window{}, err
	}
	if window <= 0 {
		window = time.Second
	}
	start := c.now().Truncate(window)
	key := c.RateLimitKey(scope) + ":" + strconv.FormatInt(start.Unix(), 10)

	count, err := cmds.Incr(ctx, key).Result()
	if err != nil {
		return Window{}, err
	}
	if count == 1 {
		if err := cmds.Expire(ctx, key, window+time.Second).Err(); err != nil {
			return Window{}, err
		}
	}
	return Window{
		Allowed: count <= limit,
		Count:   count,
		Limit:   limit,
		ResetAt: start.Add(window),
	}, nil
}
