package catalog

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/angelmondragon/cogsdesk-backend/internal/pricing"
	"github.com/angelmondragon/cogsdesk-backend/pkg/db/models"
	"github.com/angelmondragon/cogsdesk-backend/pkg/enums"
)

// VariantDTO is the API shape of a catalog variant.
type VariantDTO struct {
	VariantID string              `json:"variant_id"`
	SKU       *string             `json:"sku,omitempty"`
	Title     *string             `json:"title,omitempty"`
	BaseCost  decimal.Decimal     `json:"base_cost"`
	Source    enums.VariantSource `json:"source"`
	UpdatedAt time.Time           `json:"updated_at"`
}

// VariantPage is one cursor page of variants.
type VariantPage struct {
	Variants   []VariantDTO `json:"variants"`
	NextCursor string       `json:"next_cursor,omitempty"`
}

// UpsertVariantInput is one manual catalog write.
type UpsertVariantInput struct {
	VariantID string          `json:"variant_id" validate:"required,max=128"`
	SKU       *string         `json:"sku,omitempty" validate:"omitempty,max=128"`
	Title     *string         `json:"title,omitempty" validate:"omitempty,max=255"`
	BaseCost  decimal.Decimal `json:"base_cost"`
}

// FromModel maps a persisted variant to its DTO.
func FromModel(v models.Variant) VariantDTO {
	return VariantDTO{
		VariantID: v.VariantID,
		SKU:       v.SKU,
		Title:     v.Title,
		BaseCost:  v.BaseCost,
		Source:    v.Source,
		UpdatedAt: v.UpdatedAt,
	}
}

// ToPricing maps a persisted variant to the engine view.
func ToPricing(v models.Variant) pricing.Variant {
	out := pricing.Variant{ID: v.VariantID, BaseCost: v.BaseCost}
	if v.SKU != nil {
		out.SKU = *v.SKU
	}
	return out
}
