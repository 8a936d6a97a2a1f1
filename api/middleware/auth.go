package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/vinhvuiver2003/doantotnghiep-sub000/api/responses"
	pkgAuth "github.com/vinhvuiver2003/doantotnghiep-sub000/pkg/auth"
	"github.com/vinhvuiver2003/doantotnghiep-sub000/pkg/auth/session"
	"github.com/vinhvuiver2003/doantotnghiep-sub000/pkg/config"
	pkgerrors "github.com/vinhvuiver2003/doantotnghiep-sub000/pkg/errors"
	"github.com/vinhvuiver2003/doantotnghiep-sub000/pkg/logger"
)

// SessionTokenHeader carries the anonymous guest session token.
const SessionTokenHeader = "X-Session-Token"

// Auth requires a valid bearer token and seeds the request context with its claims.
func Auth(cfg config.JWTConfig, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := bearerToken(r)
			if token == "" {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing credentials"))
				return
			}
			claims, err := pkgAuth.ParseAccessToken(cfg, token)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "invalid token"))
				return
			}
			next.ServeHTTP(w, r.WithContext(withClaims(r, logg, claims)))
		})
	}
}

// Identity resolves the caller as a signed-in user (bearer token) or a guest
// (live X-Session-Token). Requests with neither are rejected. A bad bearer token
// is rejected rather than downgraded to guest.
func Identity(cfg config.JWTConfig, guests session.GuestSessionChecker, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			authenticated := false

			if token := bearerToken(r); token != "" {
				claims, err := pkgAuth.ParseAccessToken(cfg, token)
				if err != nil {
					responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "invalid token"))
					return
				}
				ctx = withClaims(r, logg, claims)
				authenticated = true
			}

			if guestToken := strings.TrimSpace(r.Header.Get(SessionTokenHeader)); guestToken != "" && guests != nil {
				live, err := guests.Touch(ctx, guestToken)
				if err != nil {
					responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "validate guest session"))
					return
				}
				switch {
				case live:
					ctx = WithSessionToken(ctx, guestToken)
					if !authenticated && logg != nil {
						ctx = logg.WithGuest(ctx, true)
					}
				case !authenticated:
					responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "guest session expired or unknown"))
					return
				}
			}

			if _, ok := OwnerFromContext(ctx); !ok {
				responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing credentials"))
				return
			}
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func withClaims(r *http.Request, logg *logger.Logger, claims *pkgAuth.AccessTokenClaims) context.Context {
	ctx := WithUser(r.Context(), claims.UserID, claims.Role)
	if logg != nil {
		ctx = logg.WithUserID(ctx, claims.UserID.String())
		ctx = logg.WithActorRole(ctx, string(claims.Role))
	}
	return ctx
}

func bearerToken(r *http.Request) string {
	raw := strings.TrimSpace(r.Header.Get("Authorization"))
	if len(raw) > 7 && strings.EqualFold(raw[:7], "bearer ") {
		return strings.TrimSpace(raw[7:])
	}
	return ""
}
