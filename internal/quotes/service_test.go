package quotes

import (
	"context"
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/cogsdesk-backend/internal/pricing"
	"github.com/angelmondragon/cogsdesk-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/cogsdesk-backend/pkg/errors"
	"github.com/angelmondragon/cogsdesk-backend/pkg/metrics"
)

type stubLoader struct {
	snap  *pricing.Snapshot
	err   error
	loads int
}

func (s *stubLoader) Load(context.Context, string) (*pricing.Snapshot, error) {
	s.loads++
	return s.snap, s.err
}

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func testSnapshot() *pricing.Snapshot {
	fixed := enums.DiscountTypeFixed
	return pricing.NewSnapshot(
		[]pricing.Variant{{ID: "V1", BaseCost: d("5")}, {ID: "V2", BaseCost: d("7")}},
		[]pricing.PriceBook{{
			ID:              "pb-1",
			CountryCode:     "US",
			ShippingCarrier: "YunTu",
			Currency:        "USD",
			Tiers: []pricing.ShippingTier{
				{MinItems: 1, MaxItems: 2, Cost: d("4")},
				{MinItems: 3, MaxItems: 10, Cost: d("6")},
			},
			VariantOverrides: map[string]decimal.Decimal{"V1": d("4.5")},
			ComboOverrides:   map[string]pricing.ComboOverride{},
		}},
		[]pricing.Combo{{
			ID:              "C1",
			Name:            "Pair",
			Items:           []pricing.ComboItem{{VariantID: "V1", Qty: 1}, {VariantID: "V2", Qty: 1}},
			DiscountType:    fixed,
			DiscountValue:   d("1"),
			TriggerQuantity: 2,
			IsActive:        true,
		}},
	)
}

var usYunTu = pricing.Selector{CountryCode: "US", ShippingCarrier: "YunTu"}

func newQuoteService(t *testing.T, loader snapshotLoader, opts Options) Service {
	t.Helper()
	svc, err := NewService(loader, pricing.NewEngine(pricing.Options{}), opts, nil, discardLogger())
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return svc
}

func TestQuoteLineMode(t *testing.T) {
	svc := newQuoteService(t, &stubLoader{snap: testSnapshot()}, Options{})

	got, err := svc.Quote(context.Background(), "t1", pricing.LineModeRequest{
		Selector: usYunTu,
		Lines:    []pricing.OrderLine{{VariantID: "V1", Quantity: 2}, {VariantID: "V2", Quantity: 1}},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.ProductCost != "16.00" || got.ShippingCost != "6.00" || got.TotalCost != "22.00" {
		t.Fatalf("unexpected totals %+v", got)
	}
	if got.Breakdown.ShippingTier == nil || got.Breakdown.ShippingTier.MinItems != 3 {
		t.Fatalf("expected tier 3-10, got %+v", got.Breakdown.ShippingTier)
	}
	if len(got.Breakdown.Lines) != 2 || !got.Breakdown.Lines[0].Overridden {
		t.Fatalf("expected overridden first line, got %+v", got.Breakdown.Lines)
	}
}

func TestQuoteAppliesDefaultSelectorOnlyWhenUnset(t *testing.T) {
	opts := Options{DefaultSelector: usYunTu}
	svc := newQuoteService(t, &stubLoader{snap: testSnapshot()}, opts)

	got, err := svc.Quote(context.Background(), "t1", pricing.ComboModeRequest{ComboID: "C1"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Mode != enums.QuoteModeCombo || got.TotalCost != "14.50" {
		t.Fatalf("unexpected combo quote %+v", got)
	}

	_, err = svc.Quote(context.Background(), "t1", pricing.LineModeRequest{
		Selector: pricing.Selector{CountryCode: "DE", ShippingCarrier: "DHL"},
		Lines:    []pricing.OrderLine{{VariantID: "V1", Quantity: 1}},
	})
	if pkgerrors.CodeOf(err) != pkgerrors.CodeNotFound {
		t.Fatalf("explicit selector must not fall back, got %v", err)
	}
}

func TestQuoteWithoutDefaultRequiresSelector(t *testing.T) {
	svc := newQuoteService(t, &stubLoader{snap: testSnapshot()}, Options{})
	_, err := svc.Quote(context.Background(), "t1", pricing.LineModeRequest{
		Lines: []pricing.OrderLine{{VariantID: "V1", Quantity: 1}},
	})
	if pkgerrors.CodeOf(err) != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestQuoteBatchPartialSuccess(t *testing.T) {
	reg := prometheus.NewRegistry()
	loader := &stubLoader{snap: testSnapshot()}
	svc, err := NewService(loader, pricing.NewEngine(pricing.Options{}), Options{Workers: 2}, metrics.NewQuoteMetrics(reg), discardLogger())
	if err != nil {
		t.Fatalf("new service: %v", err)
	}

	reqs := []pricing.Request{
		pricing.LineModeRequest{Selector: usYunTu, Lines: []pricing.OrderLine{{VariantID: "V1", Quantity: 1}}},
		pricing.LineModeRequest{Selector: usYunTu, Lines: []pricing.OrderLine{{VariantID: "GHOST", Quantity: 1}}},
		pricing.ComboModeRequest{Selector: usYunTu, ComboID: "C1"},
		pricing.LineModeRequest{Selector: pricing.Selector{CountryCode: "FR", ShippingCarrier: "UPS"}, Lines: []pricing.OrderLine{{VariantID: "V1", Quantity: 1}}},
	}
	got, err := svc.QuoteBatch(context.Background(), "t1", reqs)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if loader.loads != 1 {
		t.Fatalf("expected one snapshot load per batch, got %d", loader.loads)
	}
	if got.Succeeded != 2 || got.Failed != 2 {
		t.Fatalf("expected 2/2 split, got %d/%d", got.Succeeded, got.Failed)
	}
	for i, item := range got.Items {
		if item.Index != i {
			t.Fatalf("item %d out of order: index %d", i, item.Index)
		}
	}
	if got.Items[0].Quote == nil || got.Items[0].Quote.TotalCost != "8.50" {
		t.Fatalf("unexpected first item %+v", got.Items[0])
	}
	if got.Items[1].Error == nil || got.Items[1].Error.Code != pkgerrors.CodeUnknownVariant {
		t.Fatalf("expected unknown variant, got %+v", got.Items[1])
	}
	if got.Items[3].Error == nil || got.Items[3].Error.Code != pkgerrors.CodeNotFound {
		t.Fatalf("expected not found, got %+v", got.Items[3])
	}

	mfs, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather: %v", err)
	}
	var okCount float64
	for _, mf := range mfs {
		if mf.GetName() != "quote_batch_items_total" {
			continue
		}
		for _, m := range mf.GetMetric() {
			for _, l := range m.GetLabel() {
				if l.GetName() == "outcome" && l.GetValue() == "ok" {
					okCount = m.GetCounter().GetValue()
				}
			}
		}
	}
	if okCount != 2 {
		t.Fatalf("expected 2 ok batch items, got %f", okCount)
	}
}

func TestQuoteBatchLimits(t *testing.T) {
	svc := newQuoteService(t, &stubLoader{snap: testSnapshot()}, Options{MaxBatchSize: 1})
	if _, err := svc.QuoteBatch(context.Background(), "t1", nil); pkgerrors.CodeOf(err) != pkgerrors.CodeValidation {
		t.Fatalf("expected validation for empty batch, got %v", err)
	}
	reqs := []pricing.Request{pricing.ComboModeRequest{ComboID: "C1"}, pricing.ComboModeRequest{ComboID: "C1"}}
	if _, err := svc.QuoteBatch(context.Background(), "t1", reqs); pkgerrors.CodeOf(err) != pkgerrors.CodeValidation {
		t.Fatalf("expected validation for oversize batch, got %v", err)
	}
}

func TestQuoteAllPropagatesLoadFailure(t *testing.T) {
	loadErr := pkgerrors.Wrap(pkgerrors.CodeDependency, errors.New("db down"), "load pricing snapshot")
	svc := newQuoteService(t, &stubLoader{err: loadErr}, Options{})
	_, err := svc.QuoteAll(context.Background(), "t1", []pricing.Request{pricing.ComboModeRequest{ComboID: "C1"}})
	if pkgerrors.CodeOf(err) != pkgerrors.CodeDependency {
		t.Fatalf("expected dependency error, got %v", err)
	}
}

func TestQuoteAllHonoursCancellation(t *testing.T) {
	svc := newQuoteService(t, &stubLoader{snap: testSnapshot()}, Options{Workers: 1})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := svc.QuoteAll(ctx, "t1", []pricing.Request{pricing.ComboModeRequest{Selector: usYunTu, ComboID: "C1"}})
	if err == nil {
		t.Fatal("expected error for cancelled context")
	}
}
