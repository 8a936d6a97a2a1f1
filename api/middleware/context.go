package middleware

import (
	"context"

	"github.com/google/uuid"

	"github.com/vinhvuiver2003/doantotnghiep-sub000/internal/cart"
	"github.com/vinhvuiver2003/doantotnghiep-sub000/pkg/enums"
)

type contextKey string

const (
	ctxUserID       contextKey = "user_id"
	ctxRole         contextKey = "actor_role"
	ctxSessionToken contextKey = "session_token"
)

// UserIDFromContext returns the authenticated user, or uuid.Nil for guests.
func UserIDFromContext(ctx context.Context) uuid.UUID {
	if ctx == nil {
		return uuid.Nil
	}
	if v, ok := ctx.Value(ctxUserID).(uuid.UUID); ok {
		return v
	}
	return uuid.Nil
}

func RoleFromContext(ctx context.Context) enums.Role {
	if ctx == nil {
		return ""
	}
	if v, ok := ctx.Value(ctxRole).(enums.Role); ok {
		return v
	}
	return ""
}

// SessionTokenFromContext returns the verified guest session token, if any. It is
// also set for signed-in users that still carry their guest token, so the guest
// cart can be merged.
func SessionTokenFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if v, ok := ctx.Value(ctxSessionToken).(string); ok {
		return v
	}
	return ""
}

// OwnerFromContext resolves the cart owner key for the request. A signed-in user
// always wins over a guest token.
func OwnerFromContext(ctx context.Context) (cart.OwnerKey, bool) {
	if userID := UserIDFromContext(ctx); userID != uuid.Nil {
		return cart.OwnerKey{UserID: userID}, true
	}
	if token := SessionTokenFromContext(ctx); token != "" {
		return cart.OwnerKey{SessionToken: token}, true
	}
	return cart.OwnerKey{}, false
}

// WithUser injects an authenticated identity into the context.
func WithUser(ctx context.Context, userID uuid.UUID, role enums.Role) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx = context.WithValue(ctx, ctxUserID, userID)
	return context.WithValue(ctx, ctxRole, role)
}

// WithSessionToken injects a verified guest session token into the context.
func WithSessionToken(ctx context.Context, token string) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, ctxSessionToken, token)
}
