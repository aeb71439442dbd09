package quotes

import (
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/cogsdesk-backend/internal/pricing"
	"github.com/angelmondragon/cogsdesk-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/cogsdesk-backend/pkg/errors"
)

// QuoteDTO is the wire form of a quote. Money is rendered with two places.
type QuoteDTO struct {
	PriceBookID  string          `json:"price_book_id"`
	Mode         enums.QuoteMode `json:"mode"`
	Currency     string          `json:"currency"`
	ProductCost  string          `json:"product_cost"`
	ShippingCost string          `json:"shipping_cost"`
	TotalCost    string          `json:"total_cost"`
	Breakdown    BreakdownDTO    `json:"breakdown"`
}

type BreakdownDTO struct {
	Lines            []LineDTO `json:"lines"`
	Combo            *ComboDTO `json:"combo,omitempty"`
	ShippingTier     *TierDTO  `json:"shipping_tier"`
	TotalItems       int       `json:"total_items"`
	OverridesApplied []string  `json:"overrides_applied"`
}

type LineDTO struct {
	VariantID  string `json:"variant_id"`
	Quantity   int    `json:"quantity"`
	UnitCost   string `json:"unit_cost"`
	TotalCost  string `json:"total_cost"`
	Overridden bool   `json:"overridden"`
}

type TierDTO struct {
	MinItems     int    `json:"min_items"`
	MaxItems     int    `json:"max_items"`
	ShippingCost string `json:"shipping_cost"`
}

type ComboDTO struct {
	ComboID            string             `json:"combo_id"`
	Name               string             `json:"name"`
	TriggerQuantity    int                `json:"trigger_quantity"`
	DiscountType       enums.DiscountType `json:"discount_type,omitempty"`
	DiscountValue      string             `json:"discount_value"`
	Items              []LineDTO          `json:"items"`
	ItemsCost          string             `json:"items_cost"`
	DiscountAmount     string             `json:"discount_amount"`
	ProductOverridden  bool               `json:"product_overridden"`
	ShippingOverridden bool               `json:"shipping_overridden"`
}

// ItemError is the per-item failure reported by batch quoting.
type ItemError struct {
	Code    pkgerrors.Code `json:"code"`
	Message string         `json:"message"`
	Details any            `json:"details,omitempty"`
}

// BatchItem is one batch slot; exactly one of Quote and Error is set.
type BatchItem struct {
	Index int        `json:"index"`
	Quote *QuoteDTO  `json:"quote,omitempty"`
	Error *ItemError `json:"error,omitempty"`
}

// BatchResult keeps items in request order.
type BatchResult struct {
	Items     []BatchItem `json:"items"`
	Succeeded int         `json:"succeeded"`
	Failed    int         `json:"failed"`
}

func money(d decimal.Decimal) string {
	return d.StringFixed(2)
}

// FromResult converts an engine result to its wire form.
func FromResult(r pricing.QuoteResult) QuoteDTO {
	dto := QuoteDTO{
		PriceBookID:  r.PriceBookID,
		Mode:         r.Mode,
		Currency:     r.Currency,
		ProductCost:  money(r.ProductCost),
		ShippingCost: money(r.ShippingCost),
		TotalCost:    money(r.TotalCost),
		Breakdown: BreakdownDTO{
			Lines:            linesFromResult(r.Breakdown.Lines),
			TotalItems:       r.Breakdown.TotalItems,
			OverridesApplied: r.Breakdown.OverridesApplied,
		},
	}
	if dto.Breakdown.OverridesApplied == nil {
		dto.Breakdown.OverridesApplied = []string{}
	}
	if tier := r.Breakdown.ShippingTier; tier != nil {
		dto.Breakdown.ShippingTier = &TierDTO{
			MinItems:     tier.MinItems,
			MaxItems:     tier.MaxItems,
			ShippingCost: money(tier.Cost),
		}
	}
	if c := r.Breakdown.Combo; c != nil {
		dto.Breakdown.Combo = &ComboDTO{
			ComboID:            c.ComboID,
			Name:               c.Name,
			TriggerQuantity:    c.TriggerQuantity,
			DiscountType:       c.DiscountType,
			DiscountValue:      c.DiscountValue.String(),
			Items:              linesFromResult(c.Items),
			ItemsCost:          money(c.ItemsCost),
			DiscountAmount:     money(c.DiscountAmount),
			ProductOverridden:  c.ProductOverride,
			ShippingOverridden: c.ShipOverride,
		}
	}
	return dto
}

func linesFromResult(lines []pricing.LineCost) []LineDTO {
	out := make([]LineDTO, 0, len(lines))
	for _, line := range lines {
		out = append(out, LineDTO{
			VariantID:  line.VariantID,
			Quantity:   line.Quantity,
			UnitCost:   money(line.UnitCost),
			TotalCost:  money(line.TotalCost),
			Overridden: line.Overridden,
		})
	}
	return out
}

// ItemErrorFrom maps err onto the per-item error shape, hiding details the
// code does not allow.
func ItemErrorFrom(err error) *ItemError {
	if typed := pkgerrors.As(err); typed != nil {
		item := &ItemError{Code: typed.Code(), Message: typed.Message()}
		if pkgerrors.MetadataFor(typed.Code()).DetailsAllowed {
			item.Details = typed.Details()
		}
		return item
	}
	return &ItemError{Code: pkgerrors.CodeInternal, Message: pkgerrors.MetadataFor(pkgerrors.CodeInternal).PublicMessage}
}
