package reports

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/angelmondragon/cogsdesk-backend/internal/adspend"
	"github.com/angelmondragon/cogsdesk-backend/internal/orders"
	"github.com/angelmondragon/cogsdesk-backend/internal/pricing"
	"github.com/angelmondragon/cogsdesk-backend/internal/quotes"
	pkgerrors "github.com/angelmondragon/cogsdesk-backend/pkg/errors"
	"github.com/angelmondragon/cogsdesk-backend/pkg/logger"
)

type stubOrders struct {
	rows     []orders.OrderDTO
	from, to time.Time
}

func (s *stubOrders) ListInRange(_ context.Context, _ string, from, to time.Time) ([]orders.OrderDTO, error) {
	s.from, s.to = from, to
	return s.rows, nil
}

type stubSpend struct{ total decimal.Decimal }

func (s stubSpend) Summarize(context.Context, string, time.Time, time.Time) (*adspend.Summary, error) {
	return &adspend.Summary{Total: s.total}, nil
}

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func newReportService(t *testing.T, ord *stubOrders, spend stubSpend) Service {
	t.Helper()
	snap := pricing.NewSnapshot(
		[]pricing.Variant{{ID: "V1", BaseCost: d("5")}, {ID: "V2", BaseCost: d("7")}},
		[]pricing.PriceBook{{
			ID:              "pb-us",
			CountryCode:     "US",
			ShippingCarrier: "YunTu",
			Currency:        "USD",
			Tiers:           []pricing.ShippingTier{{MinItems: 1, MaxItems: 10, Cost: d("3")}},
		}},
		nil,
	)
	logg := logger.New(logger.Options{Output: io.Discard})
	quoteSvc, err := quotes.NewService(fixedLoader{snap}, pricing.NewEngine(pricing.Options{}), quotes.Options{
		DefaultSelector: pricing.Selector{CountryCode: "US", ShippingCarrier: "YunTu"},
	}, nil, logg)
	if err != nil {
		t.Fatalf("quote service: %v", err)
	}
	svc, err := NewService(ord, spend, quoteSvc, logg)
	if err != nil {
		t.Fatalf("report service: %v", err)
	}
	return svc
}

type fixedLoader struct{ snap *pricing.Snapshot }

func (f fixedLoader) Load(context.Context, string) (*pricing.Snapshot, error) { return f.snap, nil }

func TestProfitabilityMath(t *testing.T) {
	ord := &stubOrders{rows: []orders.OrderDTO{
		{
			ExternalID: "1001", CountryCode: "US", ShippingCarrier: "YunTu", Revenue: d("30"),
			Lines: []orders.LineDTO{{VariantID: "V1", Quantity: 2}},
		},
		{
			// no destination: default selector applies
			ExternalID: "1002", Revenue: d("20"),
			Lines: []orders.LineDTO{{VariantID: "V2", Quantity: 1}},
		},
		{
			ExternalID: "1003", CountryCode: "DE", ShippingCarrier: "DHL", Revenue: d("99"),
			Lines: []orders.LineDTO{{VariantID: "V1", Quantity: 1}},
		},
		{
			ExternalID: "1004", CountryCode: "US", ShippingCarrier: "YunTu", Revenue: d("99"),
			Lines: []orders.LineDTO{{VariantID: "GONE", Quantity: 1}},
		},
	}}
	svc := newReportService(t, ord, stubSpend{total: d("5.5")})

	from := time.Date(2026, 3, 1, 15, 0, 0, 0, time.UTC)
	to := time.Date(2026, 3, 7, 0, 0, 0, 0, time.UTC)
	got, err := svc.Profitability(context.Background(), "t1", from, to)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !ord.from.Equal(time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)) || !ord.to.Equal(time.Date(2026, 3, 8, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("unexpected order window %v - %v", ord.from, ord.to)
	}
	if got.From != "2026-03-01" || got.To != "2026-03-07" {
		t.Fatalf("unexpected range labels %s..%s", got.From, got.To)
	}
	if got.OrderCount != 4 || got.QuotedOrders != 2 || len(got.FailedOrders) != 2 {
		t.Fatalf("unexpected counts %d/%d/%d", got.OrderCount, got.QuotedOrders, len(got.FailedOrders))
	}
	// revenue 50, product 10+7, shipping 3+3, ad spend 5.5
	checks := map[string]struct {
		got  decimal.Decimal
		want string
	}{
		"revenue":  {got.Revenue, "50"},
		"product":  {got.ProductCost, "17"},
		"shipping": {got.ShippingCost, "6"},
		"gross":    {got.GrossProfit, "27"},
		"net":      {got.NetProfit, "21.5"},
		"margin":   {got.MarginPercent, "43"},
	}
	for name, c := range checks {
		if !c.got.Equal(d(c.want)) {
			t.Fatalf("%s: expected %s, got %s", name, c.want, c.got)
		}
	}
	if got.FailedOrders[0].ExternalID != "1003" || got.FailedOrders[0].Code != pkgerrors.CodeNotFound {
		t.Fatalf("unexpected first failure %+v", got.FailedOrders[0])
	}
	if got.FailedOrders[1].Code != pkgerrors.CodeUnknownVariant {
		t.Fatalf("unexpected second failure %+v", got.FailedOrders[1])
	}
	if !got.Orders[1].GrossProfit.Equal(d("10")) {
		t.Fatalf("unexpected per-order profit %s", got.Orders[1].GrossProfit)
	}
}

func TestProfitabilityEmptyRange(t *testing.T) {
	svc := newReportService(t, &stubOrders{}, stubSpend{total: d("12")})
	day := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	got, err := svc.Profitability(context.Background(), "t1", day, day)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !got.NetProfit.Equal(d("-12")) || !got.MarginPercent.IsZero() {
		t.Fatalf("expected pure ad spend loss, got net=%s margin=%s", got.NetProfit, got.MarginPercent)
	}
}

func TestProfitabilityRejectsInvertedRange(t *testing.T) {
	svc := newReportService(t, &stubOrders{}, stubSpend{})
	from := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)
	_, err := svc.Profitability(context.Background(), "t1", from, from.AddDate(0, 0, -1))
	if pkgerrors.CodeOf(err) != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
}
