package controllers

import (
	"net/http"

	"github.com/angelmondragon/cogsdesk-backend/api/responses"
	"github.com/angelmondragon/cogsdesk-backend/api/validators"
	"github.com/angelmondragon/cogsdesk-backend/internal/adspend"
	pkgerrors "github.com/angelmondragon/cogsdesk-backend/pkg/errors"
	"github.com/angelmondragon/cogsdesk-backend/pkg/logger"
)

type recordSpendBody struct {
	Days []adspend.DailySpend `json:"days" validate:"required,min=1,max=1000,dive"`
}

// AdSpendRecord upserts daily spend rows entered by hand.
func AdSpendRecord(svc adspend.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "ad spend service unavailable"))
			return
		}
		tenantID, err := tenantFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body recordSpendBody
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := svc.Record(r.Context(), tenantID, body.Days); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]int{"recorded": len(body.Days)})
	}
}

func AdSpendSummary(svc adspend.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "ad spend service unavailable"))
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

		summary, err := svc.Summarize(r.Context(), tenantID, from, to)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, summary)
	}
}
