package enums

import (
	"fmt"
	"strings"
)

// Currency is an ISO 4217 code. Costs are stored in the currency of the
// price book, order or ad account that produced them; nothing converts.
type Currency string

const (
	CurrencyUSD Currency = "USD"
	CurrencyEUR Currency = "EUR"
	CurrencyGBP Currency = "GBP"
	CurrencyCNY Currency = "CNY"
)

// DefaultCurrency applies when a source omits the currency.
const DefaultCurrency = CurrencyUSD

// String implements fmt.Stringer.
func (c Currency) String() string {
	return string(c)
}

// IsValid reports whether the value has the shape of an ISO 4217 code.
func (c Currency) IsValid() bool {
	if len(c) != 3 {
		return false
	}
	for _, r := range c {
		if r < 'A' || r > 'Z' {
			return false
		}
	}
	return true
}

// NormalizeCurrency upper-cases the value and falls back to DefaultCurrency
// when it is blank.
func NormalizeCurrency(value string) Currency {
	trimmed := strings.ToUpper(strings.TrimSpace(value))
	if trimmed == "" {
		return DefaultCurrency
	}
	return Currency(trimmed)
}

// ParseCurrency normalizes the value and rejects malformed codes.
func ParseCurrency(value string) (Currency, error) {
	c := NormalizeCurrency(value)
	if !c.IsValid() {
		return "", fmt.Errorf("invalid currency %q", value)
	}
	return c, nil
}
