// Package session issues and tracks anonymous guest sessions. A guest session
// token keys a guest cart until the shopper signs in and the cart is merged.
package session

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	redislib "github.com/redis/go-redis/v9"
	"golang.org/x/crypto/blake2b"
)

const guestTokenBytes = 32

var ErrUnknownGuestSession = errors.New("unknown guest session")

type sessionStore interface {
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	Get(ctx context.Context, key string) (string, error)
	Expire(ctx context.Context, key string, ttl time.Duration) error
	Del(ctx context.Context, keys ...string) error
}

type sessionKeyer interface {
	GuestSessionKey(tokenHash string) string
}

// GuestSessionChecker is the read surface used by the identity middleware.
type GuestSessionChecker interface {
	Touch(ctx context.Context, token string) (bool, error)
}

// Manager stores guest sessions in redis under the hash of their token, so the
// raw token only ever lives with the client.
type Manager struct {
	store sessionStore
	keyer sessionKeyer
	ttl   time.Duration
	now   func() time.Time
}

type redisClient interface {
	sessionStore
	sessionKeyer
}

// NewManager builds a guest session manager. ttl matches the guest cart TTL so
// the session and its cart age out together.
func NewManager(client redisClient, ttl time.Duration) (*Manager, error) {
	if client == nil {
		return nil, fmt.Errorf("redis client is required")
	}
	if ttl <= 0 {
		return nil, fmt.Errorf("guest session ttl must be positive")
	}
	return &Manager{store: client, keyer: client, ttl: ttl, now: time.Now}, nil
}

// Issue creates a new guest session and returns its token.
func (m *Manager) Issue(ctx context.Context) (string, error) {
	token, err := generateToken()
	if err != nil {
		return "", err
	}
	if err := m.store.Set(ctx, m.key(token), m.now().UTC().Format(time.RFC3339), m.ttl); err != nil {
		return "", fmt.Errorf("store guest session: %w", err)
	}
	return token, nil
}

// Touch reports whether token is a live guest session and extends its TTL.
func (m *Manager) Touch(ctx context.Context, token string) (bool, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return false, nil
	}
	key := m.key(token)
	if _, err := m.store.Get(ctx, key); err != nil {
		if errors.Is(err, redislib.Nil) {
			return false, nil
		}
		return false, err
	}
	if err := m.store.Expire(ctx, key, m.ttl); err != nil {
		return false, fmt.Errorf("extend guest session: %w", err)
	}
	return true, nil
}

// Revoke ends a guest session, typically after its cart was merged into a user cart.
func (m *Manager) Revoke(ctx context.Context, token string) error {
	token = strings.TrimSpace(token)
	if token == "" {
		return ErrUnknownGuestSession
	}
	return m.store.Del(ctx, m.key(token))
}

func (m *Manager) key(token string) string {
	sum := blake2b.Sum256([]byte(strings.TrimSpace(token)))
	return m.keyer.GuestSessionKey(hex.EncodeToString(sum[:]))
}

func generateToken() (string, error) {
	raw := make([]byte, guestTokenBytes)
	if _, err := rand.Read(raw); err != nil {
		return "", fmt.Errorf("generating guest token: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(raw), nil
}
