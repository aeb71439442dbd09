package combos

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/angelmondragon/cogsdesk-backend/internal/pricing"
	"github.com/angelmondragon/cogsdesk-backend/pkg/db/models"
	"github.com/angelmondragon/cogsdesk-backend/pkg/enums"
)

type ComboItemInput struct {
	VariantID string `json:"variant_id" validate:"required,max=128"`
	Qty       int    `json:"qty"`
}

// ComboInput creates or fully replaces a combo. IsActive defaults to true.
type ComboInput struct {
	ComboID         string           `json:"combo_id" validate:"omitempty,max=128"`
	Name            string           `json:"name" validate:"required,max=255"`
	Items           []ComboItemInput `json:"items" validate:"dive"`
	DiscountType    *string          `json:"discount_type,omitempty"`
	DiscountValue   decimal.Decimal  `json:"discount_value"`
	TriggerQuantity int              `json:"trigger_quantity"`
	IsActive        *bool            `json:"is_active,omitempty"`
}

func (in ComboInput) discountType() enums.DiscountType {
	if in.DiscountType == nil || strings.TrimSpace(*in.DiscountType) == "" {
		return ""
	}
	parsed, err := enums.ParseDiscountType(*in.DiscountType)
	if err != nil {
		// left unparsed so validation reports it
		return enums.DiscountType(*in.DiscountType)
	}
	return parsed
}

func (in ComboInput) active() bool {
	return in.IsActive == nil || *in.IsActive
}

func (in ComboInput) toPricing() pricing.Combo {
	c := pricing.Combo{
		ID:              strings.TrimSpace(in.ComboID),
		Name:            strings.TrimSpace(in.Name),
		DiscountType:    in.discountType(),
		DiscountValue:   in.DiscountValue,
		TriggerQuantity: in.TriggerQuantity,
		IsActive:        in.active(),
	}
	for _, item := range in.Items {
		c.Items = append(c.Items, pricing.ComboItem{VariantID: strings.TrimSpace(item.VariantID), Qty: item.Qty})
	}
	return c
}

func (in ComboInput) items() []models.ComboItem {
	out := make([]models.ComboItem, 0, len(in.Items))
	for i, item := range in.Items {
		out = append(out, models.ComboItem{Position: i, VariantID: strings.TrimSpace(item.VariantID), Qty: item.Qty})
	}
	return out
}

func (in ComboInput) toModel(tenantID string) *models.Combo {
	c := &models.Combo{
		TenantID:        tenantID,
		ComboID:         strings.TrimSpace(in.ComboID),
		Name:            strings.TrimSpace(in.Name),
		DiscountValue:   in.DiscountValue,
		TriggerQuantity: in.TriggerQuantity,
		IsActive:        in.active(),
		Items:           in.items(),
	}
	if dt := in.discountType(); dt != "" {
		c.DiscountType = &dt
	}
	return c
}

type ComboItemDTO struct {
	VariantID string `json:"variant_id"`
	Qty       int    `json:"qty"`
}

// ComboDTO is the API shape of a combo.
type ComboDTO struct {
	ComboID         string              `json:"combo_id"`
	Name            string              `json:"name"`
	Items           []ComboItemDTO      `json:"items"`
	DiscountType    *enums.DiscountType `json:"discount_type"`
	DiscountValue   decimal.Decimal     `json:"discount_value"`
	TriggerQuantity int                 `json:"trigger_quantity"`
	IsActive        bool                `json:"is_active"`
	CreatedAt       time.Time           `json:"created_at"`
	UpdatedAt       time.Time           `json:"updated_at"`
}

func FromModel(c models.Combo) ComboDTO {
	dto := ComboDTO{
		ComboID:         c.ComboID,
		Name:            c.Name,
		Items:           make([]ComboItemDTO, 0, len(c.Items)),
		DiscountType:    c.DiscountType,
		DiscountValue:   c.DiscountValue,
		TriggerQuantity: c.TriggerQuantity,
		IsActive:        c.IsActive,
		CreatedAt:       c.CreatedAt,
		UpdatedAt:       c.UpdatedAt,
	}
	for _, item := range c.Items {
		dto.Items = append(dto.Items, ComboItemDTO{VariantID: item.VariantID, Qty: item.Qty})
	}
	return dto
}

// ToPricing maps a persisted combo (items preloaded) to the engine view.
func ToPricing(c models.Combo) pricing.Combo {
	out := pricing.Combo{
		ID:              c.ComboID,
		Name:            c.Name,
		Items:           make([]pricing.ComboItem, 0, len(c.Items)),
		DiscountValue:   c.DiscountValue,
		TriggerQuantity: c.TriggerQuantity,
		IsActive:        c.IsActive,
	}
	if c.DiscountType != nil {
		out.DiscountType = *c.DiscountType
	}
	for _, item := range c.Items {
		out.Items = append(out.Items, pricing.ComboItem{VariantID: item.VariantID, Qty: item.Qty})
	}
	return out
}
