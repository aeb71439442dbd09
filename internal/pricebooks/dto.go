package pricebooks

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/cogsdesk-backend/internal/pricing"
	"github.com/angelmondragon/cogsdesk-backend/pkg/db/models"
	"github.com/angelmondragon/cogsdesk-backend/pkg/enums"
)


// TierInput is one shipping tier as written by clients.
type TierInput struct {
	MinItems     int             `json:"min_items"`
	MaxItems     int             `json:"max_items"`
	ShippingCost decimal.Decimal `json:"shipping_cost"`
}

// ComboOverrideInput sets either or both replacement costs for a combo.
type ComboOverrideInput struct {
	OverrideProductCost  *decimal.Decimal `json:"override_product_cost,omitempty"`
	OverrideShippingCost *decimal.Decimal `json:"override_shipping_cost,omitempty"`
}

// PriceBookInput creates a price book, or replaces one during import.
type PriceBookInput struct {
	CountryCode      string                        `json:"country_code" validate:"required,country"`
	ShippingCarrier  string                        `json:"shipping_carrier" validate:"required,notblank,max=64"`
	Currency         string                        `json:"currency,omitempty" validate:"omitempty,currency"`
	Tiers            []TierInput                   `json:"tiers"`
	VariantOverrides map[string]decimal.Decimal    `json:"variant_overrides,omitempty"`
	ComboOverrides   map[string]ComboOverrideInput `json:"combo_overrides,omitempty"`
}

func (in PriceBookInput) currency() string {
	return enums.NormalizeCurrency(in.Currency).String()
}

func (in PriceBookInput) toPricing() pricing.PriceBook {
	pb := pricing.PriceBook{
		CountryCode:      pricing.NormalizeCountry(in.CountryCode),
		ShippingCarrier:  strings.TrimSpace(in.ShippingCarrier),
		Currency:         in.currency(),
		Tiers:            tiersToPricing(in.Tiers),
		VariantOverrides: in.VariantOverrides,
		ComboOverrides:   make(map[string]pricing.ComboOverride, len(in.ComboOverrides)),
	}
	for id, o := range in.ComboOverrides {
		pb.ComboOverrides[id] = pricing.ComboOverride{ProductCost: o.OverrideProductCost, ShippingCost: o.OverrideShippingCost}
	}
	return pb
}

func (in PriceBookInput) toModel(tenantID string) *models.PriceBook {
	return &models.PriceBook{
		TenantID:         tenantID,
		CountryCode:      pricing.NormalizeCountry(in.CountryCode),
		ShippingCarrier:  strings.TrimSpace(in.ShippingCarrier),
		CarrierKey:       pricing.CarrierKey(in.ShippingCarrier),
		Currency:         in.currency(),
		Tiers:            tiersToModels(in.Tiers),
		VariantOverrides: variantOverridesToModels(in.VariantOverrides),
		ComboOverrides:   comboOverridesToModels(in.ComboOverrides),
	}
}

func tiersToPricing(in []TierInput) []pricing.ShippingTier {
	out := make([]pricing.ShippingTier, 0, len(in))
	for _, t := range in {
		out = append(out, pricing.ShippingTier{MinItems: t.MinItems, MaxItems: t.MaxItems, Cost: t.ShippingCost})
	}
	return out
}

func tiersToModels(in []TierInput) []models.ShippingTier {
	out := make([]models.ShippingTier, 0, len(in))
	for _, t := range pricing.SortTiers(tiersToPricing(in)) {
		out = append(out, models.ShippingTier{MinItems: t.MinItems, MaxItems: t.MaxItems, ShippingCost: t.Cost})
	}
	return out
}

func variantOverridesToModels(in map[string]decimal.Decimal) []models.VariantCostOverride {
	out := make([]models.VariantCostOverride, 0, len(in))
	for id, cost := range in {
		out = append(out, models.VariantCostOverride{VariantID: strings.TrimSpace(id), OverrideCost: cost})
	}
	return out
}

func comboOverridesToModels(in map[string]ComboOverrideInput) []models.ComboOverride {
	out := make([]models.ComboOverride, 0, len(in))
	for id, o := range in {
		out = append(out, models.ComboOverride{
			ComboID:              strings.TrimSpace(id),
			OverrideProductCost:  o.OverrideProductCost,
			OverrideShippingCost: o.OverrideShippingCost,
		})
	}
	return out
}

// TierDTO is a persisted tier.
type TierDTO struct {
	MinItems     int             `json:"min_items"`
	MaxItems     int             `json:"max_items"`
	ShippingCost decimal.Decimal `json:"shipping_cost"`
}

// PriceBookDTO is the API shape of a price book.
type PriceBookDTO struct {
	ID               uuid.UUID                     `json:"id"`
	CountryCode      string                        `json:"country_code"`
	ShippingCarrier  string                        `json:"shipping_carrier"`
	Currency         string                        `json:"currency"`
	Tiers            []TierDTO                     `json:"tiers"`
	VariantOverrides map[string]decimal.Decimal    `json:"variant_overrides"`
	ComboOverrides   map[string]ComboOverrideInput `json:"combo_overrides"`
	CreatedAt        time.Time                     `json:"created_at"`
	UpdatedAt        time.Time                     `json:"updated_at"`
}

// FromModel maps a persisted price book (children preloaded) to its DTO.
func FromModel(pb models.PriceBook) PriceBookDTO {
	dto := PriceBookDTO{
		ID:               pb.ID,
		CountryCode:      pb.CountryCode,
		ShippingCarrier:  pb.ShippingCarrier,
		Currency:         pb.Currency,
		Tiers:            make([]TierDTO, 0, len(pb.Tiers)),
		VariantOverrides: make(map[string]decimal.Decimal, len(pb.VariantOverrides)),
		ComboOverrides:   make(map[string]ComboOverrideInput, len(pb.ComboOverrides)),
		CreatedAt:        pb.CreatedAt,
		UpdatedAt:        pb.UpdatedAt,
	}
	for _, t := range pb.Tiers {
		dto.Tiers = append(dto.Tiers, TierDTO{MinItems: t.MinItems, MaxItems: t.MaxItems, ShippingCost: t.ShippingCost})
	}
	for _, o := range pb.VariantOverrides {
		dto.VariantOverrides[o.VariantID] = o.OverrideCost
	}
	for _, o := range pb.ComboOverrides {
		dto.ComboOverrides[o.ComboID] = ComboOverrideInput{
			OverrideProductCost:  o.OverrideProductCost,
			OverrideShippingCost: o.OverrideShippingCost,
		}
	}
	return dto
}

// ToPricing maps a persisted price book (children preloaded) to the engine view.
func ToPricing(pb models.PriceBook) pricing.PriceBook {
	out := pricing.PriceBook{
		ID:               pb.ID.String(),
		CountryCode:      pb.CountryCode,
		ShippingCarrier:  pb.ShippingCarrier,
		Currency:         pb.Currency,
		Tiers:            make([]pricing.ShippingTier, 0, len(pb.Tiers)),
		VariantOverrides: make(map[string]decimal.Decimal, len(pb.VariantOverrides)),
		ComboOverrides:   make(map[string]pricing.ComboOverride, len(pb.ComboOverrides)),
	}
	for _, t := range pb.Tiers {
		out.Tiers = append(out.Tiers, pricing.ShippingTier{MinItems: t.MinItems, MaxItems: t.MaxItems, Cost: t.ShippingCost})
	}
	for _, o := range pb.VariantOverrides {
		out.VariantOverrides[o.VariantID] = o.OverrideCost
	}
	for _, o := range pb.ComboOverrides {
		out.ComboOverrides[o.ComboID] = pricing.ComboOverride{ProductCost: o.OverrideProductCost, ShippingCost: o.OverrideShippingCost}
	}
	return out
}
