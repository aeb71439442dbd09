package controllers

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/angelmondragon/cogsdesk-backend/api/responses"
	"github.com/angelmondragon/cogsdesk-backend/api/validators"
	"github.com/angelmondragon/cogsdesk-backend/internal/pricing"
	"github.com/angelmondragon/cogsdesk-backend/internal/quotes"
	"github.com/angelmondragon/cogsdesk-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/cogsdesk-backend/pkg/errors"
	"github.com/angelmondragon/cogsdesk-backend/pkg/logger"
)

type quoteLine struct {
	VariantID string `json:"variant_id" validate:"required,max=128"`
	Quantity  int    `json:"quantity" validate:"gte=1"`
}

// quoteRequestBody is the wire form of a quote. Mode selects the request
// variant; combo_id is only meaningful in combo mode.
type quoteRequestBody struct {
	Mode            string      `json:"mode" validate:"required,oneof=line combo"`
	CountryCode     string      `json:"country_code,omitempty" validate:"omitempty,country"`
	ShippingCarrier string      `json:"shipping_carrier,omitempty" validate:"max=64"`
	ComboID         string      `json:"combo_id,omitempty" validate:"max=128,excluded_if=Mode line"`
	Lines           []quoteLine `json:"lines" validate:"required_if=Mode line,dive"`
}

type quoteBatchBody struct {
	Requests []quoteRequestBody `json:"requests" validate:"required,min=1,dive"`
}

func (b quoteRequestBody) toRequest() (pricing.Request, error) {
	sel := pricing.Selector{
		CountryCode:     pricing.NormalizeCountry(b.CountryCode),
		ShippingCarrier: strings.TrimSpace(b.ShippingCarrier),
	}
	if (sel.CountryCode == "") != (sel.ShippingCarrier == "") {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "country_code and shipping_carrier must be provided together")
	}

	lines := make([]pricing.OrderLine, 0, len(b.Lines))
	for _, line := range b.Lines {
		lines = append(lines, pricing.OrderLine{
			VariantID: strings.TrimSpace(line.VariantID),
			Quantity:  line.Quantity,
		})
	}

	switch enums.QuoteMode(b.Mode) {
	case enums.QuoteModeLine:
		return pricing.LineModeRequest{Selector: sel, Lines: lines}, nil
	case enums.QuoteModeCombo:
		return pricing.ComboModeRequest{Selector: sel, ComboID: strings.TrimSpace(b.ComboID), Lines: lines}, nil
	default:
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("unsupported quote mode %q", b.Mode))
	}
}

// QuoteCreate prices a single order.
func QuoteCreate(svc quotes.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "quote service unavailable"))
			return
		}
		tenantID, err := tenantFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body quoteRequestBody
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		req, err := body.toRequest()
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		quote, err := svc.Quote(r.Context(), tenantID, req)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, quote)
	}
}

// QuoteBatch prices many orders against one snapshot. Per-item failures,
// including malformed selectors, are reported inline; the response is 200
// unless the batch itself is rejected.
func QuoteBatch(svc quotes.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "quote service unavailable"))
			return
		}
		tenantID, err := tenantFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body quoteBatchBody
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		// items rejected at the boundary keep their slot; the rest are quoted
		items := make([]quotes.BatchItem, len(body.Requests))
		reqs := make([]pricing.Request, 0, len(body.Requests))
		positions := make([]int, 0, len(body.Requests))
		rejected := 0
		for i, item := range body.Requests {
			req, err := item.toRequest()
			if err != nil {
				items[i] = quotes.BatchItem{Index: i, Error: quotes.ItemErrorFrom(err)}
				rejected++
				continue
			}
			reqs = append(reqs, req)
			positions = append(positions, i)
		}

		result := &quotes.BatchResult{}
		if len(reqs) > 0 {
			quoted, err := svc.QuoteBatch(r.Context(), tenantID, reqs)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}
			for k, item := range quoted.Items {
				item.Index = positions[k]
				items[positions[k]] = item
			}
			result.Succeeded = quoted.Succeeded
			result.Failed = quoted.Failed
		}
		result.Items = items
		result.Failed += rejected

		responses.WriteSuccess(w, result)
	}
}
