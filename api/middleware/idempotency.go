package middleware

import (
	"bytes"
	"io"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/vinhvuiver2003/doantotnghiep-sub000/api/responses"
	"github.com/vinhvuiver2003/doantotnghiep-sub000/internal/cart"
	pkgerrors "github.com/vinhvuiver2003/doantotnghiep-sub000/pkg/errors"
	"github.com/vinhvuiver2003/doantotnghiep-sub000/pkg/idempotency"
	"github.com/vinhvuiver2003/doantotnghiep-sub000/pkg/logger"
)

// IdempotencyHeader names the client-chosen replay key.
const IdempotencyHeader = "Idempotency-Key"

type KeyPolicy int

const (
	// KeyOptional replays only when the client sends a key.
	KeyOptional KeyPolicy = iota
	// KeyRequired rejects requests without a key.
	KeyRequired
)

// Idempotent replays the first stored response for a repeated key from the
// same caller on the same path. A reused key with a different body is a
// CodeIdempotency error. 5xx and 409 responses are not stored so the client
// may retry them under the same key.
func Idempotent(cache *idempotency.ResponseCache, policy KeyPolicy, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			key := strings.TrimSpace(r.Header.Get(IdempotencyHeader))
			if key == "" {
				if policy == KeyRequired {
					responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeValidation, "Idempotency-Key header required"))
					return
				}
				next.ServeHTTP(w, r)
				return
			}
			if cache == nil {
				next.ServeHTTP(w, r)
				return
			}

			body, err := io.ReadAll(r.Body)
			if err != nil {
				responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "read request body"))
				return
			}
			r.Body = io.NopCloser(bytes.NewReader(body))
			hash := idempotency.HashRequest(body)
			scope := callerScope(r)

			stored, err := cache.Lookup(ctx, scope, key)
			if err != nil {
				responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check idempotency"))
				return
			}
			if stored != nil {
				if stored.RequestHash != hash {
					responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeIdempotency, "idempotency key reused with different request body"))
					return
				}
				if stored.ContentType != "" {
					w.Header().Set("Content-Type", stored.ContentType)
				}
				w.Header().Set("Idempotent-Replayed", "true")
				w.WriteHeader(stored.Status)
				_, _ = w.Write(stored.Body)
				return
			}

			rec := &statusRecorder{ResponseWriter: w, capture: &bytes.Buffer{}}
			next.ServeHTTP(rec, r)

			status := rec.statusOrOK()
			if status >= http.StatusInternalServerError || status == http.StatusConflict {
				return
			}
			err = cache.Save(ctx, scope, key, idempotency.StoredResponse{
				Status:      status,
				ContentType: rec.Header().Get("Content-Type"),
				Body:        rec.capture.Bytes(),
				RequestHash: hash,
			})
			if err != nil && logg != nil {
				logg.Error(ctx, "persist idempotency record", err)
			}
		})
	}
}

// callerScope keeps keys from different callers or endpoints apart.
func callerScope(r *http.Request) string {
	caller := "anonymous"
	if userID := UserIDFromContext(r.Context()); userID != uuid.Nil {
		caller = "user:" + userID.String()
	} else if token := SessionTokenFromContext(r.Context()); token != "" {
		caller = "guest:" + cart.HashSessionToken(token)
	}
	return caller + "|" + r.Method + "|" + r.URL.Path
}
