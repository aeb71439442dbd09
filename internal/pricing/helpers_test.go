package pricing

import (
	"testing"

	"github.com/shopspring/decimal"

	pkgerrors "github.com/angelmondragon/cogsdesk-backend/pkg/errors"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func decPtr(s string) *decimal.Decimal {
	v := dec(s)
	return &v
}

func assertMoney(t *testing.T, label string, got decimal.Decimal, want string) {
	t.Helper()
	if !got.Equal(dec(want)) {
		t.Fatalf("%s: expected %s, got %s", label, want, got.String())
	}
}

func assertCode(t *testing.T, err error, want pkgerrors.Code) {
	t.Helper()
	if err == nil {
		t.Fatalf("expected %s error, got nil", want)
	}
	if got := pkgerrors.CodeOf(err); got != want {
		t.Fatalf("expected %s error, got %s (%v)", want, got, err)
	}
}

func usYunTu(tiers ...ShippingTier) PriceBook {
	return PriceBook{
		ID:               "pb-us-yuntu",
		CountryCode:      "US",
		ShippingCarrier:  "YunTu",
		Currency:         "USD",
		Tiers:            tiers,
		VariantOverrides: map[string]decimal.Decimal{},
		ComboOverrides:   map[string]ComboOverride{},
	}
}
