package redis

import "strings"

// DefaultKeyspace prefixes every key the storefront writes.
const DefaultKeyspace Keyspace = "sf"

// Keyspace builds colon-separated keys under a fixed prefix, e.g.
// sf:lock:cron-worker. Blank parts are dropped.
type Keyspace string

func (k Keyspace) Key(parts ...string) string {
	var b strings.Builder
	b.WriteString(string(k))
	for _, part := range parts {
		if part = strings.TrimSpace(part); part != "" {
			b.WriteByte(':')
			b.WriteString(part)
		}
	}
	return b.String()
}

func (k Keyspace) IdempotencyKey(scope, id string) string {
	return k.Key("idempotency", scope, id)
}

func (k Keyspace) RateLimitKey(scope string) string {
	return k.Key("rate_limit", scope)
}

// LockKey names a fleet-wide lock.
func (k Keyspace) LockKey(name string) string {
	return k.Key("lock", name)
}

// GuestSessionKey addresses a guest session by the hash of its token.
func (k Keyspace) GuestSessionKey(tokenHash string) string {
	return k.Key("guest_session", tokenHash)
}
