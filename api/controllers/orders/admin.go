package orders

import (
	"net/http"
	"strings"

	"github.com/vinhvuiver2003/doantotnghiep-sub000/api/controllers/dto"
	"github.com/vinhvuiver2003/doantotnghiep-sub000/api/middleware"
	"github.com/vinhvuiver2003/doantotnghiep-sub000/api/responses"
	"github.com/vinhvuiver2003/doantotnghiep-sub000/api/validators"
	internalorders "github.com/vinhvuiver2003/doantotnghiep-sub000/internal/orders"
	"github.com/vinhvuiver2003/doantotnghiep-sub000/pkg/enums"
	pkgerrors "github.com/vinhvuiver2003/doantotnghiep-sub000/pkg/errors"
	"github.com/vinhvuiver2003/doantotnghiep-sub000/pkg/logger"
)

type adminStatusRequest struct {
	Status string `json:"status" validate:"required,order_status"`
}

// AdminList pages through all orders with optional status, user and date filters.
func AdminList(svc internalorders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if _, ok := userOrFail(w, r, svc, logg); !ok {
			return
		}
		params, err := parsePage(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		filters, err := buildAdminFilters(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		list, err := svc.ListAll(r.Context(), filters, params)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, dto.NewOrderPage(list.Orders, list.Cursor))
	}
}

func AdminDetail(svc internalorders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		adminID, ok := userOrFail(w, r, svc, logg)
		if !ok {
			return
		}
		orderID, err := parseOrderID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		order, err := svc.Get(r.Context(), internalorders.AdminActor(adminID), orderID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, dto.NewOrder(order))
	}
}

// AdminUpdateStatus moves an order to the requested status through the state machine.
func AdminUpdateStatus(svc internalorders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		adminID, ok := userOrFail(w, r, svc, logg)
		if !ok {
			return
		}
		orderID, err := parseOrderID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var payload adminStatusRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		status, err := enums.ParseOrderStatus(payload.Status)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid status"))
			return
		}
		order, err := svc.AdminUpdateStatus(r.Context(), orderID, adminID, status)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if logg != nil {
			ctx := logg.WithFields(r.Context(), map[string]any{
				"order_id": orderID.String(),
				"status":   string(order.Status),
				"actor":    middleware.RoleFromContext(r.Context()).String(),
			})
			logg.Info(ctx, "admin order status updated")
		}
		responses.WriteSuccess(w, dto.NewOrder(order))
	}
}

// AdminDelete removes an order and its dependents.
func AdminDelete(svc internalorders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if _, ok := userOrFail(w, r, svc, logg); !ok {
			return
		}
		orderID, err := parseOrderID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if err := svc.Delete(r.Context(), orderID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func buildAdminFilters(r *http.Request) (internalorders.ListFilters, error) {
	var filters internalorders.ListFilters

	if raw := strings.TrimSpace(r.URL.Query().Get("status")); raw != "" {
		status, err := enums.ParseOrderStatus(raw)
		if err != nil {
			return filters, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid status filter")
		}
		filters.Status = &status
	}
	userID, err := validators.ParseQueryUUID(r, "user_id")
	if err != nil {
		return filters, err
	}
	from, err := validators.ParseQueryTime(r, "date_from")
	if err != nil {
		return filters, err
	}
	to, err := validators.ParseQueryTime(r, "date_to")
	if err != nil {
		return filters, err
	}
	if from != nil && to != nil && to.Before(*from) {
		return filters, pkgerrors.New(pkgerrors.CodeValidation, "date_to must not be before date_from")
	}
	filters.UserID = userID
	filters.DateFrom = from
	filters.DateTo = to
	return filters, nil
}
