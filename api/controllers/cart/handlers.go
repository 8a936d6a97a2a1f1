package cart

import (
	"context"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/vinhvuiver2003/doantotnghiep-sub000/api/controllers/dto"
	"github.com/vinhvuiver2003/doantotnghiep-sub000/api/middleware"
	"github.com/vinhvuiver2003/doantotnghiep-sub000/api/responses"
	"github.com/vinhvuiver2003/doantotnghiep-sub000/api/validators"
	cartsvc "github.com/vinhvuiver2003/doantotnghiep-sub000/internal/cart"
	pkgerrors "github.com/vinhvuiver2003/doantotnghiep-sub000/pkg/errors"
	"github.com/vinhvuiver2003/doantotnghiep-sub000/pkg/logger"
)

// MergeNotifier announces a completed guest cart merge.
type MergeNotifier interface {
	CartMerged(ctx context.Context, userID, guestCartID, userCartID uuid.UUID, lines int)
}

// GuestSessionRevoker ends a guest session once its cart has been merged.
type GuestSessionRevoker interface {
	Revoke(ctx context.Context, token string) error
}

// CartFetch returns the caller's open cart, creating an empty one when none exists.
func CartFetch(svc cartsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		owner, ok := ownerOrFail(w, r, svc, logg)
		if !ok {
			return
		}
		view, err := loadView(r.Context(), svc, owner)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, dto.NewCart(view))
	}
}

// CartAddLine adds a variant to the caller's cart, summing into an existing line.
func CartAddLine(svc cartsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		owner, ok := ownerOrFail(w, r, svc, logg)
		if !ok {
			return
		}
		var payload addLineRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		c, err := svc.GetOrCreate(r.Context(), owner)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if _, err := svc.AddLine(r.Context(), owner, c.ID, payload.ProductID, payload.VariantID, payload.Quantity); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		view, err := svc.Get(r.Context(), owner, c.ID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, dto.NewCart(view))
	}
}

// CartUpdateLine sets a line's quantity; zero removes the line.
func CartUpdateLine(svc cartsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		owner, ok := ownerOrFail(w, r, svc, logg)
		if !ok {
			return
		}
		lineID, err := parseLineID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var payload updateLineRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		c, err := svc.GetOrCreate(r.Context(), owner)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if err := svc.UpdateLine(r.Context(), owner, c.ID, lineID, *payload.Quantity); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		view, err := svc.Get(r.Context(), owner, c.ID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, dto.NewCart(view))
	}
}

func CartRemoveLine(svc cartsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		owner, ok := ownerOrFail(w, r, svc, logg)
		if !ok {
			return
		}
		lineID, err := parseLineID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		c, err := svc.GetOrCreate(r.Context(), owner)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if err := svc.RemoveLine(r.Context(), owner, c.ID, lineID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		view, err := svc.Get(r.Context(), owner, c.ID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, dto.NewCart(view))
	}
}

func CartClear(svc cartsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		owner, ok := ownerOrFail(w, r, svc, logg)
		if !ok {
			return
		}
		c, err := svc.GetOrCreate(r.Context(), owner)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if err := svc.Clear(r.Context(), owner, c.ID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

// CartMerge folds the guest cart named by the session header into the signed-in
// user's cart and retires the guest session.
func CartMerge(svc cartsvc.Service, notifier MergeNotifier, sessions GuestSessionRevoker, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "cart service unavailable"))
			return
		}
		userID := middleware.UserIDFromContext(ctx)
		if userID == uuid.Nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "sign in required"))
			return
		}
		token := middleware.SessionTokenFromContext(ctx)
		if token == "" {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeValidation, "guest session token is required"))
			return
		}

		result, err := svc.MergeGuestIntoUser(ctx, token, userID)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		if !result.Skipped {
			if notifier != nil {
				notifier.CartMerged(ctx, userID, result.GuestCartID, result.Cart.ID, result.MergedLines)
			}
			if sessions != nil {
				if err := sessions.Revoke(ctx, token); err != nil && logg != nil {
					logg.Warn(logg.WithField(ctx, "error", err.Error()), "guest session revoke failed after merge")
				}
			}
		}

		owner, _ := cartsvc.UserOwner(userID)
		view, err := svc.Get(ctx, owner, result.Cart.ID)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, mergeResponse{
			Cart:        dto.NewCart(view),
			MergedLines: result.MergedLines,
			Skipped:     result.Skipped,
		})
	}
}

func ownerOrFail(w http.ResponseWriter, r *http.Request, svc cartsvc.Service, logg *logger.Logger) (cartsvc.OwnerKey, bool) {
	if svc == nil {
		responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "cart service unavailable"))
		return cartsvc.OwnerKey{}, false
	}
	owner, ok := middleware.OwnerFromContext(r.Context())
	if !ok {
		responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "cart owner missing"))
		return cartsvc.OwnerKey{}, false
	}
	return owner, true
}

func loadView(ctx context.Context, svc cartsvc.Service, owner cartsvc.OwnerKey) (*cartsvc.View, error) {
	c, err := svc.GetOrCreate(ctx, owner)
	if err != nil {
		return nil, err
	}
	return svc.Get(ctx, owner, c.ID)
}

func parseLineID(r *http.Request) (uuid.UUID, error) {
	raw := strings.TrimSpace(chi.URLParam(r, "lineId"))
	if raw == "" {
		return uuid.Nil, pkgerrors.New(pkgerrors.CodeValidation, "line id is required")
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid line id")
	}
	return id, nil
}
