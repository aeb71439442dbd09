package controllers

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"testing"

	"github.com/angelmondragon/cogsdesk-backend/internal/pricing"
	"github.com/angelmondragon/cogsdesk-backend/internal/quotes"
	"github.com/angelmondragon/cogsdesk-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/cogsdesk-backend/pkg/errors"
)

type stubQuoteService struct {
	quotes.Service
	quoteFn  func(pricing.Request) (*quotes.QuoteDTO, error)
	requests []pricing.Request
}

func (s *stubQuoteService) Quote(ctx context.Context, tenantID string, req pricing.Request) (*quotes.QuoteDTO, error) {
	s.requests = append(s.requests, req)
	if s.quoteFn != nil {
		return s.quoteFn(req)
	}
	return &quotes.QuoteDTO{Mode: req.Mode(), TotalCost: "0.00"}, nil
}

func (s *stubQuoteService) QuoteBatch(ctx context.Context, tenantID string, reqs []pricing.Request) (*quotes.BatchResult, error) {
	s.requests = append(s.requests, reqs...)
	result := &quotes.BatchResult{}
	for i, req := range reqs {
		result.Items = append(result.Items, quotes.BatchItem{Index: i, Quote: &quotes.QuoteDTO{Mode: req.Mode()}})
		result.Succeeded++
	}
	return result, nil
}

func TestQuoteCreateLineMode(t *testing.T) {
	svc := &stubQuoteService{quoteFn: func(req pricing.Request) (*quotes.QuoteDTO, error) {
		return &quotes.QuoteDTO{Mode: req.Mode(), TotalCost: "14.50"}, nil
	}}
	body := `{"mode":"line","country_code":" us ","shipping_carrier":"YunTu","lines":[{"variant_id":" v1 ","quantity":3}]}`

	resp := serve(QuoteCreate(svc, testLogger()), newRequest(http.MethodPost, "/api/v1/quotes", body, nil))
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d: %s", resp.Code, resp.Body.String())
	}

	line, ok := svc.requests[0].(pricing.LineModeRequest)
	if !ok {
		t.Fatalf("expected LineModeRequest, got %T", svc.requests[0])
	}
	if line.Selector.CountryCode != "US" || line.Selector.ShippingCarrier != "YunTu" {
		t.Fatalf("unexpected selector %+v", line.Selector)
	}
	if len(line.Lines) != 1 || line.Lines[0].VariantID != "v1" || line.Lines[0].Quantity != 3 {
		t.Fatalf("unexpected lines %+v", line.Lines)
	}

	var quote quotes.QuoteDTO
	if err := json.Unmarshal(decodeEnvelope(t, resp).Data, &quote); err != nil {
		t.Fatalf("decode quote: %v", err)
	}
	if quote.TotalCost != "14.50" {
		t.Fatalf("expected total 14.50 got %s", quote.TotalCost)
	}
}

func TestQuoteCreateComboMode(t *testing.T) {
	svc := &stubQuoteService{}
	body := `{"mode":"combo","combo_id":"bundle-a","lines":[{"variant_id":"v1","quantity":2}]}`

	resp := serve(QuoteCreate(svc, testLogger()), newRequest(http.MethodPost, "/api/v1/quotes", body, nil))
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d: %s", resp.Code, resp.Body.String())
	}
	combo, ok := svc.requests[0].(pricing.ComboModeRequest)
	if !ok {
		t.Fatalf("expected ComboModeRequest, got %T", svc.requests[0])
	}
	if combo.ComboID != "bundle-a" {
		t.Fatalf("expected combo id bundle-a got %q", combo.ComboID)
	}
	if !combo.Selector.IsZero() {
		t.Fatalf("expected empty selector to pass through, got %+v", combo.Selector)
	}
}

func TestQuoteCreateRejectsInvalidBodies(t *testing.T) {
	cases := map[string]string{
		"unknown mode":          `{"mode":"bundle","lines":[{"variant_id":"v1","quantity":1}]}`,
		"line mode no lines":    `{"mode":"line","country_code":"US","shipping_carrier":"YunTu"}`,
		"combo id in line mode": `{"mode":"line","combo_id":"c1","lines":[{"variant_id":"v1","quantity":1}]}`,
		"zero quantity":         `{"mode":"line","lines":[{"variant_id":"v1","quantity":0}]}`,
		"half selector":         `{"mode":"line","country_code":"US","lines":[{"variant_id":"v1","quantity":1}]}`,
		"unknown field":         `{"mode":"line","lines":[],"coupon":"x"}`,
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			svc := &stubQuoteService{}
			resp := serve(QuoteCreate(svc, testLogger()), newRequest(http.MethodPost, "/api/v1/quotes", body, nil))
			expectErrorCode(t, resp, http.StatusBadRequest, string(pkgerrors.CodeValidation))
			if len(svc.requests) != 0 {
				t.Fatal("service must not be called for an invalid body")
			}
		})
	}
}

func TestQuoteCreatePropagatesDomainErrors(t *testing.T) {
	svc := &stubQuoteService{quoteFn: func(pricing.Request) (*quotes.QuoteDTO, error) {
		return nil, pkgerrors.New(pkgerrors.CodeUnknownVariant, "unknown variant v9").WithDetails(map[string]any{"variant_id": "v9"})
	}}
	body := `{"mode":"line","lines":[{"variant_id":"v9","quantity":1}]}`

	resp := serve(QuoteCreate(svc, testLogger()), newRequest(http.MethodPost, "/api/v1/quotes", body, nil))
	env := expectErrorCode(t, resp, http.StatusUnprocessableEntity, string(pkgerrors.CodeUnknownVariant))
	if env.Error.Message != "unknown variant v9" {
		t.Fatalf("expected message passthrough, got %q", env.Error.Message)
	}
	if !strings.Contains(string(env.Error.Details), "v9") {
		t.Fatalf("expected details to name the variant, got %s", env.Error.Details)
	}
}

func TestQuoteCreateRequiresTenant(t *testing.T) {
	req, _ := http.NewRequest(http.MethodPost, "/api/v1/quotes", strings.NewReader(`{}`))
	resp := serve(QuoteCreate(&stubQuoteService{}, testLogger()), req)
	expectErrorCode(t, resp, http.StatusForbidden, string(pkgerrors.CodeForbidden))
}

func TestQuoteBatchMixedModes(t *testing.T) {
	svc := &stubQuoteService{}
	body := `{"requests":[
		{"mode":"line","lines":[{"variant_id":"v1","quantity":1}]},
		{"mode":"combo","lines":[{"variant_id":"v1","quantity":2}]}
	]}`

	resp := serve(QuoteBatch(svc, testLogger()), newRequest(http.MethodPost, "/api/v1/quotes/batch", body, nil))
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d: %s", resp.Code, resp.Body.String())
	}
	if len(svc.requests) != 2 {
		t.Fatalf("expected 2 requests, got %d", len(svc.requests))
	}
	if _, ok := svc.requests[1].(pricing.ComboModeRequest); !ok {
		t.Fatalf("expected second request in combo mode, got %T", svc.requests[1])
	}

	var result quotes.BatchResult
	if err := json.Unmarshal(decodeEnvelope(t, resp).Data, &result); err != nil {
		t.Fatalf("decode batch: %v", err)
	}
	if result.Succeeded != 2 || len(result.Items) != 2 {
		t.Fatalf("unexpected batch result %+v", result)
	}
}

func TestQuoteBatchReportsMalformedItemInline(t *testing.T) {
	svc := &stubQuoteService{}
	body := `{"requests":[
		{"mode":"line","country_code":"US","lines":[{"variant_id":"v1","quantity":1}]},
		{"mode":"combo","lines":[{"variant_id":"v1","quantity":2}]}
	]}`

	resp := serve(QuoteBatch(svc, testLogger()), newRequest(http.MethodPost, "/api/v1/quotes/batch", body, nil))
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d: %s", resp.Code, resp.Body.String())
	}
	if len(svc.requests) != 1 {
		t.Fatalf("expected only the well-formed item to be quoted, got %d", len(svc.requests))
	}

	var result quotes.BatchResult
	if err := json.Unmarshal(decodeEnvelope(t, resp).Data, &result); err != nil {
		t.Fatalf("decode batch: %v", err)
	}
	if result.Succeeded != 1 || result.Failed != 1 || len(result.Items) != 2 {
		t.Fatalf("unexpected batch counts %+v", result)
	}
	first := result.Items[0]
	if first.Index != 0 || first.Quote != nil || first.Error == nil || first.Error.Code != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error in slot 0, got %+v", first)
	}
	second := result.Items[1]
	if second.Index != 1 || second.Quote == nil || second.Quote.Mode != enums.QuoteModeCombo {
		t.Fatalf("expected combo quote in slot 1, got %+v", second)
	}
}

func TestQuoteBatchAllItemsMalformed(t *testing.T) {
	svc := &stubQuoteService{}
	body := `{"requests":[{"mode":"line","shipping_carrier":"YunTu","lines":[{"variant_id":"v1","quantity":1}]}]}`

	resp := serve(QuoteBatch(svc, testLogger()), newRequest(http.MethodPost, "/api/v1/quotes/batch", body, nil))
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d: %s", resp.Code, resp.Body.String())
	}
	if len(svc.requests) != 0 {
		t.Fatal("service must not be called when no item is well-formed")
	}
	var result quotes.BatchResult
	if err := json.Unmarshal(decodeEnvelope(t, resp).Data, &result); err != nil {
		t.Fatalf("decode batch: %v", err)
	}
	if result.Failed != 1 || result.Succeeded != 0 || result.Items[0].Error == nil {
		t.Fatalf("unexpected batch result %+v", result)
	}
}

func TestQuoteBatchRejectsEmpty(t *testing.T) {
	resp := serve(QuoteBatch(&stubQuoteService{}, testLogger()), newRequest(http.MethodPost, "/api/v1/quotes/batch", `{"requests":[]}`, nil))
	expectErrorCode(t, resp, http.StatusBadRequest, string(pkgerrors.CodeValidation))
}
