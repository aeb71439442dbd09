package controllers

import (
	"net/http"

	"github.com/angelmondragon/cogsdesk-backend/api/responses"
	"github.com/angelmondragon/cogsdesk-backend/api/validators"
	"github.com/angelmondragon/cogsdesk-backend/internal/orders"
	pkgerrors "github.com/angelmondragon/cogsdesk-backend/pkg/errors"
	"github.com/angelmondragon/cogsdesk-backend/pkg/logger"
)

type upsertOrdersBody struct {
	Orders []orders.OrderInput `json:"orders" validate:"required,min=1,max=500,dive"`
}

// OrderUpsert imports orders from a source other than the Shopify sync.
func OrderUpsert(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "orders service unavailable"))
			return
		}
		tenantID, err := tenantFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body upsertOrdersBody
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.Upsert(r.Context(), tenantID, body.Orders)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}

// OrderList returns orders processed on the inclusive day range ?from&to.
func OrderList(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "orders service unavailable"))
			return
		}
		tenantID, err := tenantFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		from, err := validators.ParseQueryDate(r, "from")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		to, err := validators.ParseQueryDate(r, "to")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		list, err := svc.ListInRange(r.Context(), tenantID, from, to.AddDate(0, 0, 1))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]any{"orders": list})
	}
}
