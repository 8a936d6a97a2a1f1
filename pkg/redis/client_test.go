package redis

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/vinhvuiver2003/doantotnghiep-sub000/pkg/config"
)

// memoryCommands is a single-threaded stand-in for a redis server.
type memoryCommands struct {
	values  map[string]string
	ttls    map[string]time.Duration
	counter map[string]int64
}

func newMemoryClient(now time.Time) (*Client, *memoryCommands) {
	mem := &memoryCommands{values: map[string]string{}, ttls: map[string]time.Duration{}, counter: map[string]int64{}}
	c := newClient(mem, nil)
	c.now = func() time.Time { return now }
	return c, mem
}

func (m *memoryCommands) Ping(context.Context) *redis.StatusCmd {
	return redis.NewStatusResult("PONG", nil)
}

func (m *memoryCommands) Set(_ context.Context, key string, value any, ttl time.Duration) *redis.StatusCmd {
	m.values[key], m.ttls[key] = fmt.Sprint(value), ttl
	return redis.NewStatusResult("OK", nil)
}

func (m *memoryCommands) Get(_ context.Context, key string) *redis.StringCmd {
	v, ok := m.values[key]
	if !ok {
		return redis.NewStringResult("", redis.Nil)
	}
	return redis.NewStringResult(v, nil)
}

func (m *memoryCommands) SetNX(_ context.Context, key string, value any, ttl time.Duration) *redis.BoolCmd {
	if _, ok := m.values[key]; ok {
		return redis.NewBoolResult(false, nil)
	}
	m.values[key], m.ttls[key] = fmt.Sprint(value), ttl
	return redis.NewBoolResult(true, nil)
}

func (m *memoryCommands) Incr(_ context.Context, key string) *redis.IntCmd {
	m.counter[key]++
	return redis.NewIntResult(m.counter[key], nil)
}

func (m *memoryCommands) Expire(_ context.Context, key string, ttl time.Duration) *redis.BoolCmd {
	m.ttls[key] = ttl
	return redis.NewBoolResult(true, nil)
}

func (m *memoryCommands) Del(_ context.Context, keys ...string) *redis.IntCmd {
	for _, key := range keys {
		delete(m.values, key)
		delete(m.ttls, key)
	}
	return redis.NewIntResult(int64(len(keys)), nil)
}

func TestCountHitAllowsUpToLimitWithinWindow(t *testing.T) {
	now := time.Date(2026, 5, 4, 10, 0, 42, 0, time.UTC)
	c, mem := newMemoryClient(now)
	ctx := context.Background()

	var last Window
	for i := 0; i < 3; i++ {
		w, err := c.CountHit(ctx, "promotions:ip:203.0.113.9", 2, time.Minute)
		require.NoError(t, err)
		last = w
		require.Equal(t, i < 2, w.Allowed, "hit %d", i+1)
	}
	require.EqualValues(t, 3, last.Count)
	require.Zero(t, last.Remaining())
	require.Equal(t, time.Date(2026, 5, 4, 10, 1, 0, 0, time.UTC), last.ResetAt)

	key := fmt.Sprintf("sf:rate_limit:promotions:ip:203.0.113.9:%d", now.Truncate(time.Minute).Unix())
	require.EqualValues(t, 3, mem.counter[key])
	require.Equal(t, time.Minute+time.Second, mem.ttls[key], "expiry set on the first hit only")
}

func TestCountHitStartsFreshInNextWindow(t *testing.T) {
	c, _ := newMemoryClient(time.Date(2026, 5, 4, 10, 0, 59, 0, time.UTC))
	ctx := context.Background()

	w, err := c.CountHit(ctx, "checkout", 1, time.Minute)
	require.NoError(t, err)
	require.True(t, w.Allowed)

	c.now = func() time.Time { return time.Date(2026, 5, 4, 10, 1, 0, 0, time.UTC) }
	w, err = c.CountHit(ctx, "checkout", 1, time.Minute)
	require.NoError(t, err)
	require.True(t, w.Allowed)
	require.EqualValues(t, 1, w.Count)
}

func TestSetNXFirstWriterWins(t *testing.T) {
	c, _ := newMemoryClient(time.Now())
	ctx := context.Background()
	key := c.IdempotencyKey("square_webhook", "evt-1")

	won, err := c.SetNX(ctx, key, "1", time.Minute)
	require.NoError(t, err)
	require.True(t, won)
	won, err = c.SetNX(ctx, key, "2", time.Minute)
	require.NoError(t, err)
	require.False(t, won)

	v, err := c.Get(ctx, key)
	require.NoError(t, err)
	require.Equal(t, "1", v)

	require.NoError(t, c.Del(ctx, key))
	_, err = c.Get(ctx, key)
	require.ErrorIs(t, err, redis.Nil)
}

func TestZeroClientReportsNotInitialized(t *testing.T) {
	var c *Client
	require.ErrorIs(t, c.Ping(context.Background()), errClosed)
	_, err := (&Client{}).CountHit(context.Background(), "x", 1, time.Second)
	require.ErrorIs(t, err, errClosed)
	require.NoError(t, c.Close())
}

func TestKeyspace(t *testing.T) {
	cases := map[string]string{
		DefaultKeyspace.IdempotencyKey("resp:user:1", "abc"): "sf:idempotency:resp:user:1:abc",
		DefaultKeyspace.IdempotencyKey("scope", " "):         "sf:idempotency:scope",
		DefaultKeyspace.RateLimitKey("promotions"):           "sf:rate_limit:promotions",
		DefaultKeyspace.LockKey("cron-worker"):               "sf:lock:cron-worker",
		DefaultKeyspace.GuestSessionKey("deadbeef"):          "sf:guest_session:deadbeef",
		Keyspace("test").Key("a", "", "b"):                   "test:a:b",
	}
	for got, want := range cases {
		require.Equal(t, want, got)
	}
}

func TestOptionsFromConfig(t *testing.T) {
	_, err := options(config.RedisConfig{})
	require.Error(t, err)

	opts, err := options(config.RedisConfig{URL: "redis://:secret@cache:6380/0", DB: 3, PoolSize: 20, DialTimeout: 2 * time.Second})
	require.NoError(t, err)
	require.Equal(t, "cache:6380", opts.Addr)
	require.Equal(t, "secret", opts.Password)
	require.Equal(t, 3, opts.DB)
	require.Equal(t, 20, opts.PoolSize)
	require.Equal(t, 2*time.Second, opts.DialTimeout)

	opts, err = options(config.RedisConfig{Address: "localhost:6379", DB: 1})
	require.NoError(t, err)
	require.Equal(t, "localhost:6379", opts.Addr)
	require.Equal(t, 1, opts.DB)
}
