package models

// All lists every persisted model in dependency order. Used for sqlite
// schemas where goose's postgres migrations cannot run.
func All() []any {
	return []any{
		&Variant{},
		&PriceBook{},
		&ShippingTier{},
		&VariantCostOverride{},
		&ComboOverride{},
		&Combo{},
		&ComboItem{},
		&Order{},
		&OrderLine{},
		&AdSpendDaily{},
	}
}
