package controllers

import (
	"net/http"

	"github.com/shopspring/decimal"

	"github.com/angelmondragon/cogsdesk-backend/api/responses"
	"github.com/angelmondragon/cogsdesk-backend/api/validators"
	"github.com/angelmondragon/cogsdesk-backend/internal/pricebooks"
	pkgerrors "github.com/angelmondragon/cogsdesk-backend/pkg/errors"
	"github.com/angelmondragon/cogsdesk-backend/pkg/logger"
)

type replaceTiersBody struct {
	Tiers []pricebooks.TierInput `json:"tiers"`
}

type replaceOverridesBody struct {
	VariantOverrides map[string]decimal.Decimal `json:"variant_overrides"`
}

type importPriceBooksBody struct {
	PriceBooks []pricebooks.PriceBookInput `json:"price_books" validate:"required,min=1,max=500,dive"`
}

func priceBooksUnavailable(w http.ResponseWriter, r *http.Request, logg *logger.Logger) {
	responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "price book service unavailable"))
}

func PriceBookCreate(svc pricebooks.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			priceBooksUnavailable(w, r, logg)
			return
		}
		tenantID, err := tenantFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body pricebooks.PriceBookInput
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		book, err := svc.Create(r.Context(), tenantID, body)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, book)
	}
}

func PriceBookList(svc pricebooks.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			priceBooksUnavailable(w, r, logg)
			return
		}
		tenantID, err := tenantFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		books, err := svc.List(r.Context(), tenantID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]any{"price_books": books})
	}
}

func PriceBookGet(svc pricebooks.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			priceBooksUnavailable(w, r, logg)
			return
		}
		tenantID, err := tenantFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		id, err := uuidParam(r, "priceBookId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		book, err := svc.Get(r.Context(), tenantID, id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, book)
	}
}

func PriceBookDelete(svc pricebooks.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			priceBooksUnavailable(w, r, logg)
			return
		}
		tenantID, err := tenantFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		id, err := uuidParam(r, "priceBookId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := svc.Delete(r.Context(), tenantID, id); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteNoContent(w)
	}
}

// PriceBookReplaceTiers swaps the whole tier table; the service validates
// contiguity before anything is written.
func PriceBookReplaceTiers(svc pricebooks.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			priceBooksUnavailable(w, r, logg)
			return
		}
		tenantID, err := tenantFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		id, err := uuidParam(r, "priceBookId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body replaceTiersBody
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		book, err := svc.ReplaceTiers(r.Context(), tenantID, id, body.Tiers)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, book)
	}
}

func PriceBookReplaceVariantOverrides(svc pricebooks.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			priceBooksUnavailable(w, r, logg)
			return
		}
		tenantID, err := tenantFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		id, err := uuidParam(r, "priceBookId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body replaceOverridesBody
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		book, err := svc.ReplaceVariantOverrides(r.Context(), tenantID, id, body.VariantOverrides)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, book)
	}
}

func PriceBookPutComboOverride(svc pricebooks.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			priceBooksUnavailable(w, r, logg)
			return
		}
		tenantID, err := tenantFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		id, err := uuidParam(r, "priceBookId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		comboID, err := requiredParam(r, "comboId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body pricebooks.ComboOverrideInput
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		book, err := svc.PutComboOverride(r.Context(), tenantID, id, comboID, body)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, book)
	}
}

func PriceBookDeleteComboOverride(svc pricebooks.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			priceBooksUnavailable(w, r, logg)
			return
		}
		tenantID, err := tenantFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		id, err := uuidParam(r, "priceBookId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		comboID, err := requiredParam(r, "comboId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		book, err := svc.DeleteComboOverride(r.Context(), tenantID, id, comboID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, book)
	}
}

// PriceBookImport applies a batch of price books in one transaction.
func PriceBookImport(svc pricebooks.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			priceBooksUnavailable(w, r, logg)
			return
		}
		tenantID, err := tenantFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body importPriceBooksBody
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.Import(r.Context(), tenantID, body.PriceBooks)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}
