package pricing

import (
	"sort"

	"github.com/shopspring/decimal"
)

// SortTiers returns a copy of tiers ordered by ascending MinItems.
func SortTiers(tiers []ShippingTier) []ShippingTier {
	sorted := make([]ShippingTier, len(tiers))
	copy(sorted, tiers)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].MinItems < sorted[j].MinItems })
	return sorted
}

// ResolveShippingCost returns the cost of the first tier, by ascending MinItems,
// that contains totalItems. No match yields zero and a nil tier.
func ResolveShippingCost(tiers []ShippingTier, totalItems int) (decimal.Decimal, *ShippingTier) {
	for _, tier := range SortTiers(tiers) {
		if tier.Contains(totalItems) {
			matched := tier
			return tier.Cost, &matched
		}
	}
	return decimal.Zero, nil
}
