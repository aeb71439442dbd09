package controllers

import (
	"context"
	"net/http"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/cogsdesk-backend/internal/pricebooks"
	pkgerrors "github.com/angelmondragon/cogsdesk-backend/pkg/errors"
)

type stubPriceBookService struct {
	pricebooks.Service
	created   []pricebooks.PriceBookInput
	tiers     []pricebooks.TierInput
	overrides map[string]decimal.Decimal
	comboID   string
	combo     pricebooks.ComboOverrideInput
	deleted   uuid.UUID
	getErr    error
}

func (s *stubPriceBookService) Create(ctx context.Context, tenantID string, input pricebooks.PriceBookInput) (*pricebooks.PriceBookDTO, error) {
	s.created = append(s.created, input)
	return &pricebooks.PriceBookDTO{ID: uuid.New(), CountryCode: input.CountryCode}, nil
}

func (s *stubPriceBookService) Get(ctx context.Context, tenantID string, id uuid.UUID) (*pricebooks.PriceBookDTO, error) {
	if s.getErr != nil {
		return nil, s.getErr
	}
	return &pricebooks.PriceBookDTO{ID: id}, nil
}

func (s *stubPriceBookService) Delete(ctx context.Context, tenantID string, id uuid.UUID) error {
	s.deleted = id
	return nil
}

func (s *stubPriceBookService) ReplaceTiers(ctx context.Context, tenantID string, id uuid.UUID, tiers []pricebooks.TierInput) (*pricebooks.PriceBookDTO, error) {
	s.tiers = tiers
	return &pricebooks.PriceBookDTO{ID: id}, nil
}

func (s *stubPriceBookService) ReplaceVariantOverrides(ctx context.Context, tenantID string, id uuid.UUID, overrides map[string]decimal.Decimal) (*pricebooks.PriceBookDTO, error) {
	s.overrides = overrides
	return &pricebooks.PriceBookDTO{ID: id}, nil
}

func (s *stubPriceBookService) PutComboOverride(ctx context.Context, tenantID string, id uuid.UUID, comboID string, input pricebooks.ComboOverrideInput) (*pricebooks.PriceBookDTO, error) {
	s.comboID = comboID
	s.combo = input
	return &pricebooks.PriceBookDTO{ID: id}, nil
}

func TestPriceBookCreateReturns201(t *testing.T) {
	svc := &stubPriceBookService{}
	body := `{"country_code":"US","shipping_carrier":"YunTu","tiers":[{"min_items":1,"max_items":2,"shipping_cost":"4.00"}]}`

	resp := serve(PriceBookCreate(svc, testLogger()), newRequest(http.MethodPost, "/api/v1/price-books", body, nil))
	if resp.Code != http.StatusCreated {
		t.Fatalf("expected 201 got %d: %s", resp.Code, resp.Body.String())
	}
	if len(svc.created) != 1 || !svc.created[0].Tiers[0].ShippingCost.Equal(decimal.RequireFromString("4")) {
		t.Fatalf("unexpected create input %+v", svc.created)
	}
}

func TestPriceBookCreateValidatesSelector(t *testing.T) {
	svc := &stubPriceBookService{}
	body := `{"country_code":"USA","shipping_carrier":"YunTu","tiers":[]}`

	resp := serve(PriceBookCreate(svc, testLogger()), newRequest(http.MethodPost, "/api/v1/price-books", body, nil))
	expectErrorCode(t, resp, http.StatusBadRequest, string(pkgerrors.CodeValidation))
	if len(svc.created) != 0 {
		t.Fatal("service must not be called")
	}
}

func TestPriceBookGetRejectsMalformedID(t *testing.T) {
	resp := serve(PriceBookGet(&stubPriceBookService{}, testLogger()),
		newRequest(http.MethodGet, "/api/v1/price-books/nope", "", map[string]string{"priceBookId": "nope"}))
	expectErrorCode(t, resp, http.StatusBadRequest, string(pkgerrors.CodeValidation))
}

func TestPriceBookGetNotFound(t *testing.T) {
	svc := &stubPriceBookService{getErr: pkgerrors.New(pkgerrors.CodeNotFound, "price book not found")}
	id := uuid.NewString()
	resp := serve(PriceBookGet(svc, testLogger()),
		newRequest(http.MethodGet, "/api/v1/price-books/"+id, "", map[string]string{"priceBookId": id}))
	expectErrorCode(t, resp, http.StatusNotFound, string(pkgerrors.CodeNotFound))
}

func TestPriceBookDeleteReturns204(t *testing.T) {
	svc := &stubPriceBookService{}
	id := uuid.New()
	resp := serve(PriceBookDelete(svc, testLogger()),
		newRequest(http.MethodDelete, "/api/v1/price-books/"+id.String(), "", map[string]string{"priceBookId": id.String()}))
	if resp.Code != http.StatusNoContent {
		t.Fatalf("expected 204 got %d", resp.Code)
	}
	if svc.deleted != id {
		t.Fatalf("expected delete of %s got %s", id, svc.deleted)
	}
}

func TestPriceBookReplaceTiersAndOverrides(t *testing.T) {
	svc := &stubPriceBookService{}
	id := uuid.NewString()
	params := map[string]string{"priceBookId": id}

	resp := serve(PriceBookReplaceTiers(svc, testLogger()), newRequest(http.MethodPut, "/", `{"tiers":[
		{"min_items":1,"max_items":1,"shipping_cost":"3.5"},
		{"min_items":2,"max_items":5,"shipping_cost":"5"}
	]}`, params))
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d: %s", resp.Code, resp.Body.String())
	}
	if len(svc.tiers) != 2 || svc.tiers[1].MinItems != 2 {
		t.Fatalf("unexpected tiers %+v", svc.tiers)
	}

	resp = serve(PriceBookReplaceVariantOverrides(svc, testLogger()), newRequest(http.MethodPut, "/", `{"variant_overrides":{"v1":"2.25"}}`, params))
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d: %s", resp.Code, resp.Body.String())
	}
	if !svc.overrides["v1"].Equal(decimal.RequireFromString("2.25")) {
		t.Fatalf("unexpected overrides %+v", svc.overrides)
	}
}

func TestPriceBookPutComboOverride(t *testing.T) {
	svc := &stubPriceBookService{}
	params := map[string]string{"priceBookId": uuid.NewString(), "comboId": "bundle-a"}

	resp := serve(PriceBookPutComboOverride(svc, testLogger()),
		newRequest(http.MethodPut, "/", `{"override_shipping_cost":"0"}`, params))
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d: %s", resp.Code, resp.Body.String())
	}
	if svc.comboID != "bundle-a" {
		t.Fatalf("expected combo bundle-a got %q", svc.comboID)
	}
	if svc.combo.OverrideProductCost != nil || svc.combo.OverrideShippingCost == nil || !svc.combo.OverrideShippingCost.IsZero() {
		t.Fatalf("unexpected override input %+v", svc.combo)
	}
}

func TestPriceBookImportRequiresBooks(t *testing.T) {
	resp := serve(PriceBookImport(&stubPriceBookService{}, testLogger()),
		newRequest(http.MethodPost, "/api/v1/price-books/import", `{"price_books":[]}`, nil))
	expectErrorCode(t, resp, http.StatusBadRequest, string(pkgerrors.CodeValidation))
}
