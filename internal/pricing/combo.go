package pricing

import (
	"sort"

	"github.com/shopspring/decimal"

	"github.com/angelmondragon/cogsdesk-backend/pkg/enums"
)

var hundred = decimal.NewFromInt(100)

// RelevantUnits sums the quantities of lines whose variant belongs to the combo.
func RelevantUnits(lines []OrderLine, combo Combo) int {
	set := combo.variantSet()
	units := 0
	for _, line := range lines {
		if _, ok := set[line.VariantID]; ok {
			units += line.Quantity
		}
	}
	return units
}

// MatchCombo picks the active combo triggered by lines. Ties go to the largest
// trigger quantity, then the smallest combo id.
func MatchCombo(lines []OrderLine, combos []Combo) (Combo, bool) {
	eligible := make([]Combo, 0, len(combos))
	for _, combo := range combos {
		if !combo.IsActive || len(combo.Items) == 0 {
			continue
		}
		if RelevantUnits(lines, combo) >= combo.TriggerQuantity {
			eligible = append(eligible, combo)
		}
	}
	if len(eligible) == 0 {
		return Combo{}, false
	}
	sort.Slice(eligible, func(i, j int) bool {
		if eligible[i].TriggerQuantity != eligible[j].TriggerQuantity {
			return eligible[i].TriggerQuantity > eligible[j].TriggerQuantity
		}
		return eligible[i].ID < eligible[j].ID
	})
	return eligible[0], true
}

// ApplyDiscount applies the combo discount to the summed item cost, clamped at zero.
func ApplyDiscount(itemsCost decimal.Decimal, discountType enums.DiscountType, value decimal.Decimal) decimal.Decimal {
	var out decimal.Decimal
	switch discountType {
	case enums.DiscountTypePercent:
		out = itemsCost.Mul(decimal.NewFromInt(1).Sub(value.Div(hundred)))
	case enums.DiscountTypeFixed:
		out = itemsCost.Sub(value)
	default:
		out = itemsCost
	}
	if out.IsNegative() {
		return decimal.Zero
	}
	return out
}

// ComboApplication carries the unrounded costs of one priced combo.
type ComboApplication struct {
	Combo        Combo
	ProductCost  decimal.Decimal
	ShippingCost decimal.Decimal
	Tier         *ShippingTier
	Cost         ComboCost
	Overrides    []string
}

// PriceCombo computes the product and shipping cost of combo inside pb.
// Overrides replace the computed values outright.
func (e *Engine) PriceCombo(combo Combo, pb *PriceBook, src Source) (ComboApplication, error) {
	app := ComboApplication{
		Combo: combo,
		Cost: ComboCost{
			ComboID:         combo.ID,
			Name:            combo.Name,
			TriggerQuantity: combo.TriggerQuantity,
			DiscountType:    combo.DiscountType,
			DiscountValue:   combo.DiscountValue,
		},
	}
	override, hasOverride := pb.ComboOverrides[combo.ID]

	if hasOverride && override.ProductCost != nil {
		app.ProductCost = *override.ProductCost
		app.Cost.ProductOverride = true
		app.Overrides = append(app.Overrides, OverrideComboProduct+":"+combo.ID)
	} else {
		itemsCost := decimal.Zero
		for _, item := range combo.Items {
			variant, ok := src.Variant(item.VariantID)
			if !ok {
				return ComboApplication{}, unknownVariant(item.VariantID)
			}
			unit, overridden := ResolveUnitCost(pb, variant)
			if overridden {
				app.Overrides = append(app.Overrides, OverrideVariant+":"+variant.ID)
			}
			lineTotal := unit.Mul(decimal.NewFromInt(int64(item.Qty)))
			itemsCost = itemsCost.Add(lineTotal)
			app.Cost.Items = append(app.Cost.Items, LineCost{
				VariantID:  item.VariantID,
				Quantity:   item.Qty,
				UnitCost:   unit,
				TotalCost:  lineTotal,
				Overridden: overridden,
			})
		}
		app.ProductCost = ApplyDiscount(itemsCost, combo.DiscountType, combo.DiscountValue)
		app.Cost.ItemsCost = itemsCost
		app.Cost.DiscountAmount = itemsCost.Sub(app.ProductCost)
	}

	if hasOverride && override.ShippingCost != nil {
		app.ShippingCost = *override.ShippingCost
		app.Cost.ShipOverride = true
		app.Overrides = append(app.Overrides, OverrideComboShipping+":"+combo.ID)
		return app, nil
	}

	shipping, tier, err := e.resolveShipping(pb, combo.TotalQty())
	if err != nil {
		return ComboApplication{}, err
	}
	app.ShippingCost = shipping
	app.Tier = tier
	return app, nil
}
