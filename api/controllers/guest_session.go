package controllers

import (
	"context"
	"net/http"

	"github.com/vinhvuiver2003/doantotnghiep-sub000/api/middleware"
	"github.com/vinhvuiver2003/doantotnghiep-sub000/api/responses"
	pkgerrors "github.com/vinhvuiver2003/doantotnghiep-sub000/pkg/errors"
	"github.com/vinhvuiver2003/doantotnghiep-sub000/pkg/logger"
)

// GuestSessionIssuer mints guest session tokens.
type GuestSessionIssuer interface {
	Issue(ctx context.Context) (string, error)
}

type guestSessionResponse struct {
	SessionToken string `json:"session_token"`
	Header       string `json:"header"`
}

// GuestSessionIssue starts an anonymous shopping session. The token is returned once
// and must be echoed in the session header on later cart and checkout calls.
func GuestSessionIssue(issuer GuestSessionIssuer, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if issuer == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "guest sessions unavailable"))
			return
		}
		token, err := issuer.Issue(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "issue guest session"))
			return
		}
		w.Header().Set(middleware.SessionTokenHeader, token)
		responses.WriteSuccessStatus(w, http.StatusCreated, guestSessionResponse{
			SessionToken: token,
			Header:       middleware.SessionTokenHeader,
		})
	}
}
