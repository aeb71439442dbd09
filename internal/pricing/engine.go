package pricing

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/angelmondragon/cogsdesk-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/cogsdesk-backend/pkg/errors"
)

// Options tune engine behavior that is a policy decision rather than data.
type Options struct {
	// StrictShipping turns an unmatched shipping tier into INVALID_CONFIGURATION
	// instead of zero shipping.
	StrictShipping bool
}

// Engine resolves quotes. It holds no mutable state and is safe for concurrent use.
type Engine struct {
	opts Options
}

func NewEngine(opts Options) *Engine {
	return &Engine{opts: opts}
}

// ResolveUnitCost returns the price book override for the variant when present,
// otherwise its base cost. The bool reports whether the override was used.
func ResolveUnitCost(pb *PriceBook, variant Variant) (decimal.Decimal, bool) {
	if pb != nil {
		if cost, ok := pb.VariantOverrides[variant.ID]; ok {
			return cost, true
		}
	}
	return variant.BaseCost, false
}

// Quote prices req against src. Errors are typed: NOT_FOUND, UNKNOWN_VARIANT,
// VALIDATION_ERROR or, with strict shipping, INVALID_CONFIGURATION. No partial
// results are returned.
func (e *Engine) Quote(req Request, src Source) (QuoteResult, error) {
	if req == nil {
		return QuoteResult{}, pkgerrors.New(pkgerrors.CodeValidation, "quote request is required")
	}
	if src == nil {
		return QuoteResult{}, pkgerrors.New(pkgerrors.CodeInternal, "pricing source is required")
	}

	sel := req.PriceBookSelector()
	if err := validateSelector(sel); err != nil {
		return QuoteResult{}, err
	}

	pb, ok := src.PriceBook(sel.CountryCode, sel.ShippingCarrier)
	if !ok || pb == nil {
		return QuoteResult{}, pkgerrors.New(pkgerrors.CodeNotFound, "price book not found").WithDetails(map[string]any{
			"country_code":     NormalizeCountry(sel.CountryCode),
			"shipping_carrier": strings.TrimSpace(sel.ShippingCarrier),
		})
	}

	switch r := req.(type) {
	case LineModeRequest:
		return e.quoteLines(r, pb, src)
	case ComboModeRequest:
		return e.quoteCombo(r, pb, src)
	default:
		return QuoteResult{}, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("unsupported quote mode %q", req.Mode()))
	}
}

func (e *Engine) quoteLines(req LineModeRequest, pb *PriceBook, src Source) (QuoteResult, error) {
	if err := validateLines(req.Lines, true); err != nil {
		return QuoteResult{}, err
	}

	product := decimal.Zero
	totalItems := 0
	lines := make([]LineCost, 0, len(req.Lines))
	var overrides []string

	for _, line := range req.Lines {
		variant, ok := src.Variant(line.VariantID)
		if !ok {
			return QuoteResult{}, unknownVariant(line.VariantID)
		}
		unit, overridden := ResolveUnitCost(pb, variant)
		if overridden {
			overrides = append(overrides, OverrideVariant+":"+variant.ID)
		}
		lineTotal := unit.Mul(decimal.NewFromInt(int64(line.Quantity)))
		product = product.Add(lineTotal)
		totalItems += line.Quantity
		lines = append(lines, LineCost{
			VariantID:  line.VariantID,
			Quantity:   line.Quantity,
			UnitCost:   unit,
			TotalCost:  lineTotal,
			Overridden: overridden,
		})
	}

	shipping, tier, err := e.resolveShipping(pb, totalItems)
	if err != nil {
		return QuoteResult{}, err
	}

	for i := range lines {
		lines[i].UnitCost = Round(lines[i].UnitCost)
		lines[i].TotalCost = Round(lines[i].TotalCost)
	}

	return QuoteResult{
		PriceBookID:  pb.ID,
		ProductCost:  Round(product),
		ShippingCost: Round(shipping),
		TotalCost:    Round(product.Add(shipping)),
		Currency:     pb.Currency,
		Mode:         enums.QuoteModeLine,
		Breakdown: Breakdown{
			Lines:            lines,
			ShippingTier:     roundTier(tier),
			TotalItems:       totalItems,
			OverridesApplied: dedupe(overrides),
		},
	}, nil
}

func (e *Engine) quoteCombo(req ComboModeRequest, pb *PriceBook, src Source) (QuoteResult, error) {
	comboID := strings.TrimSpace(req.ComboID)
	var combo Combo

	if comboID == "" {
		if err := validateLines(req.Lines, true); err != nil {
			return QuoteResult{}, err
		}
		matched, ok := MatchCombo(req.Lines, src.Combos())
		if !ok {
			return QuoteResult{}, pkgerrors.New(pkgerrors.CodeNotFound, "no active combo is triggered by the order lines")
		}
		combo = matched
	} else {
		found, ok := src.Combo(comboID)
		if !ok || !found.IsActive {
			return QuoteResult{}, pkgerrors.New(pkgerrors.CodeNotFound, "combo not found").WithDetails(map[string]any{
				"combo_id": comboID,
			})
		}
		if len(req.Lines) > 0 {
			if err := validateLines(req.Lines, false); err != nil {
				return QuoteResult{}, err
			}
			if units := RelevantUnits(req.Lines, found); units < found.TriggerQuantity {
				return QuoteResult{}, pkgerrors.New(pkgerrors.CodeValidation, "order lines do not trigger the combo").WithDetails(map[string]any{
					"combo_id":         found.ID,
					"trigger_quantity": found.TriggerQuantity,
					"relevant_units":   units,
				})
			}
		}
		combo = found
	}

	app, err := e.PriceCombo(combo, pb, src)
	if err != nil {
		return QuoteResult{}, err
	}

	cost := app.Cost
	cost.ItemsCost = Round(cost.ItemsCost)
	cost.DiscountAmount = Round(cost.DiscountAmount)
	items := make([]LineCost, len(cost.Items))
	for i, item := range cost.Items {
		item.UnitCost = Round(item.UnitCost)
		item.TotalCost = Round(item.TotalCost)
		items[i] = item
	}
	cost.Items = items

	return QuoteResult{
		PriceBookID:  pb.ID,
		ProductCost:  Round(app.ProductCost),
		ShippingCost: Round(app.ShippingCost),
		TotalCost:    Round(app.ProductCost.Add(app.ShippingCost)),
		Currency:     pb.Currency,
		Mode:         enums.QuoteModeCombo,
		Breakdown: Breakdown{
			Lines:            []LineCost{},
			Combo:            &cost,
			ShippingTier:     roundTier(app.Tier),
			TotalItems:       combo.TotalQty(),
			OverridesApplied: dedupe(app.Overrides),
		},
	}, nil
}

func (e *Engine) resolveShipping(pb *PriceBook, totalItems int) (decimal.Decimal, *ShippingTier, error) {
	cost, tier := ResolveShippingCost(pb.Tiers, totalItems)
	if tier == nil && e.opts.StrictShipping {
		return decimal.Zero, nil, pkgerrors.New(pkgerrors.CodeInvalidConfiguration, "no shipping tier matches the item count").WithDetails(map[string]any{
			"price_book_id": pb.ID,
			"total_items":   totalItems,
		})
	}
	return cost, tier, nil
}

func validateSelector(sel Selector) error {
	var missing []string
	if strings.TrimSpace(sel.CountryCode) == "" {
		missing = append(missing, "country_code")
	}
	if strings.TrimSpace(sel.ShippingCarrier) == "" {
		missing = append(missing, "shipping_carrier")
	}
	if len(missing) > 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "price book selector is incomplete").WithDetails(map[string]any{
			"missing": missing,
		})
	}
	return nil
}

func validateLines(lines []OrderLine, required bool) error {
	if len(lines) == 0 {
		if required {
			return pkgerrors.New(pkgerrors.CodeValidation, "at least one order line is required")
		}
		return nil
	}
	for i, line := range lines {
		if strings.TrimSpace(line.VariantID) == "" {
			return pkgerrors.New(pkgerrors.CodeValidation, "order line variant_id is required").WithDetails(map[string]any{
				"line": i,
			})
		}
		if line.Quantity < 1 {
			return pkgerrors.New(pkgerrors.CodeValidation, "order line quantity must be at least 1").WithDetails(map[string]any{
				"line":     i,
				"quantity": line.Quantity,
			})
		}
	}
	return nil
}

func unknownVariant(id string) error {
	return pkgerrors.New(pkgerrors.CodeUnknownVariant, "variant is not in the catalog").WithDetails(map[string]any{
		"variant_id": id,
	})
}

func roundTier(tier *ShippingTier) *ShippingTier {
	if tier == nil {
		return nil
	}
	out := *tier
	out.Cost = Round(out.Cost)
	return &out
}

func dedupe(values []string) []string {
	out := make([]string, 0, len(values))
	seen := make(map[string]struct{}, len(values))
	for _, v := range values {
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}
