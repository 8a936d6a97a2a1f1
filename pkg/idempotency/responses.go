package idempotency

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/vinhvuiver2003/doantotnghiep-sub000/pkg/redis"
)

// StoredResponse is the first response produced for a client idempotency key.
// Body is base64 in the JSON form.
type StoredResponse struct {
	Status      int    `json:"status"`
	ContentType string `json:"content_type,omitempty"`
	Body        []byte `json:"body"`
	RequestHash string `json:"request_hash"`
}

// ResponseCache keeps StoredResponses under `sf:idempotency:resp:<scope>:<key>`.
type ResponseCache struct {
	store redis.IdempotencyStore
	ttl   time.Duration
}

// NewResponseCache returns nil when store is nil; a nil cache stores nothing.
func NewResponseCache(store redis.IdempotencyStore, ttl time.Duration) *ResponseCache {
	if store == nil {
		return nil
	}
	return &ResponseCache{store: store, ttl: ttl}
}

// Lookup returns nil without error when nothing is stored for key.
func (c *ResponseCache) Lookup(ctx context.Context, scope, key string) (*StoredResponse, error) {
	if c == nil {
		return nil, nil
	}
	raw, err := c.store.Get(ctx, c.key(scope, key))
	if errors.Is(err, goredis.Nil) || (err == nil && raw == "") {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var resp StoredResponse
	if err := json.Unmarshal([]byte(raw), &resp); err != nil {
		return nil, fmt.Errorf("decode stored response: %w", err)
	}
	return &resp, nil
}

// Save records resp unless another request already did.
func (c *ResponseCache) Save(ctx context.Context, scope, key string, resp StoredResponse) error {
	if c == nil {
		return nil
	}
	payload, err := json.Marshal(resp)
	if err != nil {
		return fmt.Errorf("encode stored response: %w", err)
	}
	_, err = c.store.SetNX(ctx, c.key(scope, key), string(payload), c.ttl)
	return err
}

func (c *ResponseCache) key(scope, key string) string {
	return c.store.IdempotencyKey("resp:"+scope, key)
}

// HashRequest fingerprints a request body so a reused key with different
// input can be told apart from a retry.
func HashRequest(body []byte) string {
	sum := sha256.Sum256(body)
	return hex.EncodeToString(sum[:])
}
