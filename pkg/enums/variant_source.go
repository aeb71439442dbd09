package enums

import "fmt"

// VariantSource records which collaborator last wrote a catalog variant.
type VariantSource string

const (
	VariantSourceManual  VariantSource = "manual"
	VariantSourceShopify VariantSource = "shopify"
)

var validVariantSources = []VariantSource{
	VariantSourceManual,
	VariantSourceShopify,
}

// String implements fmt.Stringer.
func (v VariantSource) String() string {
	return string(v)
}

// IsValid reports whether the value is a known VariantSource.
func (v VariantSource) IsValid() bool {
	for _, candidate := range validVariantSources {
		if candidate == v {
			return true
		}
	}
	return false
}

// ParseVariantSource converts raw input into a VariantSource.
func ParseVariantSource(value string) (VariantSource, error) {
	for _, candidate := range validVariantSources {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid variant source %q", value)
}
