package enums

import "fmt"

// QuoteMode discriminates the two mutually exclusive ways an order can be priced.
type QuoteMode string

const (
	QuoteModeLine  QuoteMode = "line"
	QuoteModeCombo QuoteMode = "combo"
)

var validQuoteModes = []QuoteMode{
	QuoteModeLine,
	QuoteModeCombo,
}

// String implements fmt.Stringer.
func (q QuoteMode) String() string {
	return string(q)
}

// IsValid reports whether the value is a known QuoteMode.
func (q QuoteMode) IsValid() bool {
	for _, candidate := range validQuoteModes {
		if candidate == q {
			return true
		}
	}
	return false
}

// ParseQuoteMode converts raw input into a QuoteMode.
func ParseQuoteMode(value string) (QuoteMode, error) {
	for _, candidate := range validQuoteModes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid quote mode %q", value)
}
