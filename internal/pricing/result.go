package pricing

import (
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/cogsdesk-backend/pkg/enums"
)

// Override markers recorded in Breakdown.OverridesApplied.
const (
	OverrideVariant       = "variant_override"
	OverrideComboProduct  = "combo_product_override"
	OverrideComboShipping = "combo_shipping_override"
)

// QuoteResult is the rounded outcome of one quote.
type QuoteResult struct {
	PriceBookID  string
	ProductCost  decimal.Decimal
	ShippingCost decimal.Decimal
	TotalCost    decimal.Decimal
	Currency     string
	Mode         enums.QuoteMode
	Breakdown    Breakdown
}

type Breakdown struct {
	Lines            []LineCost
	Combo            *ComboCost
	ShippingTier     *ShippingTier
	TotalItems       int
	OverridesApplied []string
}

// LineCost is one priced order line.
type LineCost struct {
	VariantID  string
	Quantity   int
	UnitCost   decimal.Decimal
	TotalCost  decimal.Decimal
	Overridden bool
}

// ComboCost explains how a combo's product cost was reached. ItemsCost and
// DiscountAmount are zero when a product override replaced the computation.
type ComboCost struct {
	ComboID         string
	Name            string
	TriggerQuantity int
	DiscountType    enums.DiscountType
	DiscountValue   decimal.Decimal
	Items           []LineCost
	ItemsCost       decimal.Decimal
	DiscountAmount  decimal.Decimal
	ProductOverride bool
	ShipOverride    bool
}

const moneyPlaces = 2

// Round applies output rounding: two places, half away from zero.
func Round(d decimal.Decimal) decimal.Decimal {
	return d.Round(moneyPlaces)
}
