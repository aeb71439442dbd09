package enums

import (
	"fmt"
	"strings"
)

// DiscountType selects how a combo discount is applied to the summed item cost.
type DiscountType string

const (
	DiscountTypePercent DiscountType = "percent"
	DiscountTypeFixed   DiscountType = "fixed"
)

var validDiscountTypes = []DiscountType{
	DiscountTypePercent,
	DiscountTypeFixed,
}

// String implements fmt.Stringer.
func (d DiscountType) String() string {
	return string(d)
}

// IsValid reports whether the value is a known DiscountType.
func (d DiscountType) IsValid() bool {
	for _, candidate := range validDiscountTypes {
		if candidate == d {
			return true
		}
	}
	return false
}

// ParseDiscountType converts raw input into a DiscountType. "percentage" is
// accepted as an alias because older combo exports use it.
func ParseDiscountType(value string) (DiscountType, error) {
	normalized := strings.ToLower(strings.TrimSpace(value))
	if normalized == "percentage" {
		return DiscountTypePercent, nil
	}
	for _, candidate := range validDiscountTypes {
		if string(candidate) == normalized {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid discount type %q", value)
}
