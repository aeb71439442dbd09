package controllers

import (
	"net/http"

	"github.com/angelmondragon/cogsdesk-backend/api/responses"
	"github.com/angelmondragon/cogsdesk-backend/api/validators"
	"github.com/angelmondragon/cogsdesk-backend/internal/combos"
	pkgerrors "github.com/angelmondragon/cogsdesk-backend/pkg/errors"
	"github.com/angelmondragon/cogsdesk-backend/pkg/logger"
)

func combosUnavailable(w http.ResponseWriter, r *http.Request, logg *logger.Logger) {
	responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "combo service unavailable"))
}

func ComboCreate(svc combos.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			combosUnavailable(w, r, logg)
			return
		}
		tenantID, err := tenantFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body combos.ComboInput
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		combo, err := svc.Create(r.Context(), tenantID, body)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, combo)
	}
}

// ComboList returns all combos; ?active=true hides deactivated ones.
func ComboList(svc combos.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			combosUnavailable(w, r, logg)
			return
		}
		tenantID, err := tenantFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		activeOnly, err := validators.ParseQueryBool(r, "active", false)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		list, err := svc.List(r.Context(), tenantID, activeOnly)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]any{"combos": list})
	}
}

func ComboGet(svc combos.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			combosUnavailable(w, r, logg)
			return
		}
		tenantID, err := tenantFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		comboID, err := requiredParam(r, "comboId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		combo, err := svc.Get(r.Context(), tenantID, comboID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, combo)
	}
}

func ComboUpdate(svc combos.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			combosUnavailable(w, r, logg)
			return
		}
		tenantID, err := tenantFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		comboID, err := requiredParam(r, "comboId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body combos.ComboInput
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		combo, err := svc.Update(r.Context(), tenantID, comboID, body)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, combo)
	}
}

func ComboDeactivate(svc combos.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			combosUnavailable(w, r, logg)
			return
		}
		tenantID, err := tenantFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		comboID, err := requiredParam(r, "comboId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		combo, err := svc.Deactivate(r.Context(), tenantID, comboID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, combo)
	}
}

func ComboDelete(svc combos.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			combosUnavailable(w, r, logg)
			return
		}
		tenantID, err := tenantFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		comboID, err := requiredParam(r, "comboId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := svc.Delete(r.Context(), tenantID, comboID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteNoContent(w)
	}
}
