package pricing

import (
	"fmt"
	"sort"
	"strings"

	"github.com/shopspring/decimal"
	"go.uber.org/multierr"

	"github.com/angelmondragon/cogsdesk-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/cogsdesk-backend/pkg/errors"
)

// ValidateTiers checks the write-time tier invariants: 1 <= min <= max,
// non-negative cost, and a contiguous run starting at 1 with no overlaps.
// An empty tier list is valid.
func ValidateTiers(tiers []ShippingTier) error {
	var errs error
	sorted := SortTiers(tiers)
	for i, tier := range sorted {
		label := fmt.Sprintf("tier [%d,%d]", tier.MinItems, tier.MaxItems)
		if tier.MinItems < 1 {
			errs = multierr.Append(errs, fmt.Errorf("%s: min_items must be at least 1", label))
		}
		if tier.MaxItems < tier.MinItems {
			errs = multierr.Append(errs, fmt.Errorf("%s: max_items must be >= min_items", label))
		}
		if tier.Cost.IsNegative() {
			errs = multierr.Append(errs, fmt.Errorf("%s: shipping_cost must not be negative", label))
		}
		if i == 0 {
			if tier.MinItems != 1 {
				errs = multierr.Append(errs, fmt.Errorf("%s: first tier must start at 1", label))
			}
			continue
		}
		prev := sorted[i-1]
		switch {
		case tier.MinItems <= prev.MaxItems:
			errs = multierr.Append(errs, fmt.Errorf("%s overlaps tier [%d,%d]", label, prev.MinItems, prev.MaxItems))
		case tier.MinItems > prev.MaxItems+1:
			errs = multierr.Append(errs, fmt.Errorf("gap between tier [%d,%d] and %s", prev.MinItems, prev.MaxItems, label))
		}
	}
	return invalidConfiguration("shipping tiers are invalid", errs)
}

// ValidatePriceBook checks a whole price book before it is written.
func ValidatePriceBook(pb PriceBook) error {
	var errs error
	country := NormalizeCountry(pb.CountryCode)
	if len(country) != 2 || !isAlpha(country) {
		errs = multierr.Append(errs, fmt.Errorf("country_code %q must be a two-letter ISO code", pb.CountryCode))
	}
	if strings.TrimSpace(pb.ShippingCarrier) == "" {
		errs = multierr.Append(errs, fmt.Errorf("shipping_carrier is required"))
	}
	if pb.Currency != "" && (len(pb.Currency) != 3 || !isAlpha(pb.Currency)) {
		errs = multierr.Append(errs, fmt.Errorf("currency %q must be a three-letter code", pb.Currency))
	}
	if tierErr := pkgerrors.As(ValidateTiers(pb.Tiers)); tierErr != nil {
		errs = multierr.Append(errs, tierErr.Unwrap())
	}
	if err := ValidateVariantOverrides(pb.VariantOverrides); err != nil {
		errs = multierr.Append(errs, pkgerrors.As(err).Unwrap())
	}
	for _, comboID := range sortedKeys(pb.ComboOverrides) {
		if err := ValidateComboOverride(comboID, pb.ComboOverrides[comboID]); err != nil {
			errs = multierr.Append(errs, pkgerrors.As(err).Unwrap())
		}
	}
	return invalidConfiguration("price book is invalid", errs)
}

// ValidateVariantOverrides rejects empty variant ids and negative costs.
func ValidateVariantOverrides(overrides map[string]decimal.Decimal) error {
	var errs error
	for _, variantID := range sortedKeys(overrides) {
		cost := overrides[variantID]
		if strings.TrimSpace(variantID) == "" {
			errs = multierr.Append(errs, fmt.Errorf("variant override with empty variant_id"))
		}
		if cost.IsNegative() {
			errs = multierr.Append(errs, fmt.Errorf("variant override %s: cost must not be negative", variantID))
		}
	}
	return invalidConfiguration("variant overrides are invalid", errs)
}

// ValidateComboOverride requires at least one replacement value and no negatives.
func ValidateComboOverride(comboID string, override ComboOverride) error {
	var errs error
	if strings.TrimSpace(comboID) == "" {
		errs = multierr.Append(errs, fmt.Errorf("combo override with empty combo_id"))
	}
	if override.ProductCost == nil && override.ShippingCost == nil {
		errs = multierr.Append(errs, fmt.Errorf("combo override %s: set override_product_cost or override_shipping_cost", comboID))
	}
	if override.ProductCost != nil && override.ProductCost.IsNegative() {
		errs = multierr.Append(errs, fmt.Errorf("combo override %s: override_product_cost must not be negative", comboID))
	}
	if override.ShippingCost != nil && override.ShippingCost.IsNegative() {
		errs = multierr.Append(errs, fmt.Errorf("combo override %s: override_shipping_cost must not be negative", comboID))
	}
	return invalidConfiguration("combo override is invalid", errs)
}

// ValidateCombo checks a combo definition before it is written.
func ValidateCombo(combo Combo) error {
	var errs error
	if strings.TrimSpace(combo.ID) == "" {
		errs = multierr.Append(errs, fmt.Errorf("combo_id is required"))
	}
	if strings.TrimSpace(combo.Name) == "" {
		errs = multierr.Append(errs, fmt.Errorf("name is required"))
	}
	if len(combo.Items) == 0 {
		errs = multierr.Append(errs, fmt.Errorf("combo must list at least one item"))
	}
	seen := make(map[string]struct{}, len(combo.Items))
	for i, item := range combo.Items {
		if strings.TrimSpace(item.VariantID) == "" {
			errs = multierr.Append(errs, fmt.Errorf("items[%d]: variant_id is required", i))
		}
		if item.Qty < 1 {
			errs = multierr.Append(errs, fmt.Errorf("items[%d]: qty must be at least 1", i))
		}
		if _, dup := seen[item.VariantID]; dup {
			errs = multierr.Append(errs, fmt.Errorf("items[%d]: variant %s is listed more than once", i, item.VariantID))
		}
		seen[item.VariantID] = struct{}{}
	}
	if combo.TriggerQuantity < 1 {
		errs = multierr.Append(errs, fmt.Errorf("trigger_quantity must be at least 1"))
	}
	if combo.DiscountValue.IsNegative() {
		errs = multierr.Append(errs, fmt.Errorf("discount_value must not be negative"))
	}
	switch combo.DiscountType {
	case "":
		if !combo.DiscountValue.IsZero() {
			errs = multierr.Append(errs, fmt.Errorf("discount_value requires a discount_type"))
		}
	case enums.DiscountTypePercent:
		if combo.DiscountValue.GreaterThan(hundred) {
			errs = multierr.Append(errs, fmt.Errorf("percent discount_value must not exceed 100"))
		}
	case enums.DiscountTypeFixed:
	default:
		errs = multierr.Append(errs, fmt.Errorf("discount_type %q is not supported", combo.DiscountType))
	}
	return invalidConfiguration("combo is invalid", errs)
}

// Violations lists the individual messages aggregated in err.
func Violations(err error) []string {
	errs := multierr.Errors(err)
	out := make([]string, 0, len(errs))
	for _, e := range errs {
		out = append(out, e.Error())
	}
	return out
}

func invalidConfiguration(message string, errs error) error {
	if errs == nil {
		return nil
	}
	return pkgerrors.Wrap(pkgerrors.CodeInvalidConfiguration, errs, message).WithDetails(map[string]any{
		"violations": Violations(errs),
	})
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func isAlpha(s string) bool {
	for _, r := range s {
		if (r < 'A' || r > 'Z') && (r < 'a' || r > 'z') {
			return false
		}
	}
	return true
}
