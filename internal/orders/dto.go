package orders

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/cogsdesk-backend/internal/pricing"
	"github.com/angelmondragon/cogsdesk-backend/pkg/db/models"
	"github.com/angelmondragon/cogsdesk-backend/pkg/enums"
)

// LineInput is one purchased variant.
type LineInput struct {
	VariantID string `json:"variant_id" validate:"required"`
	Quantity  int    `json:"quantity" validate:"gte=1"`
}

// OrderInput is an order as delivered by the storefront sync or a manual import.
type OrderInput struct {
	ExternalID      string          `json:"external_id" validate:"required"`
	Name            string          `json:"name"`
	CountryCode     string          `json:"country_code" validate:"omitempty,country"`
	ShippingCarrier string          `json:"shipping_carrier"`
	Revenue         decimal.Decimal `json:"revenue"`
	Currency        string          `json:"currency" validate:"omitempty,currency"`
	ProcessedAt     time.Time       `json:"processed_at" validate:"required"`
	Lines           []LineInput     `json:"lines" validate:"required,min=1,dive"`
}

func (in OrderInput) toModel(tenantID string) *models.Order {
	currency := enums.NormalizeCurrency(in.Currency).String()
	order := &models.Order{
		TenantID:        tenantID,
		ExternalID:      strings.TrimSpace(in.ExternalID),
		Name:            in.Name,
		CountryCode:     pricing.NormalizeCountry(in.CountryCode),
		ShippingCarrier: strings.TrimSpace(in.ShippingCarrier),
		Revenue:         in.Revenue,
		Currency:        currency,
		ProcessedAt:     in.ProcessedAt.UTC(),
	}
	for _, line := range in.Lines {
		order.Lines = append(order.Lines, models.OrderLine{
			VariantID: strings.TrimSpace(line.VariantID),
			Quantity:  line.Quantity,
		})
	}
	return order
}

type LineDTO struct {
	VariantID string `json:"variant_id"`
	Quantity  int    `json:"quantity"`
}

type OrderDTO struct {
	ID              uuid.UUID       `json:"id"`
	ExternalID      string          `json:"external_id"`
	Name            string          `json:"name,omitempty"`
	CountryCode     string          `json:"country_code,omitempty"`
	ShippingCarrier string          `json:"shipping_carrier,omitempty"`
	Revenue         decimal.Decimal `json:"revenue"`
	Currency        string          `json:"currency"`
	ProcessedAt     time.Time       `json:"processed_at"`
	Lines           []LineDTO       `json:"lines"`
}

func FromModel(o models.Order) OrderDTO {
	dto := OrderDTO{
		ID:              o.ID,
		ExternalID:      o.ExternalID,
		Name:            o.Name,
		CountryCode:     o.CountryCode,
		ShippingCarrier: o.ShippingCarrier,
		Revenue:         o.Revenue,
		Currency:        o.Currency,
		ProcessedAt:     o.ProcessedAt,
		Lines:           make([]LineDTO, 0, len(o.Lines)),
	}
	for _, line := range o.Lines {
		dto.Lines = append(dto.Lines, LineDTO{VariantID: line.VariantID, Quantity: line.Quantity})
	}
	return dto
}

// QuoteRequest turns an order into a line-mode quote request. An order
// without a destination gets a zero selector so the default can apply.
func (o OrderDTO) QuoteRequest() pricing.LineModeRequest {
	req := pricing.LineModeRequest{
		Selector: pricing.Selector{CountryCode: o.CountryCode, ShippingCarrier: o.ShippingCarrier},
		Lines:    make([]pricing.OrderLine, 0, len(o.Lines)),
	}
	for _, line := range o.Lines {
		req.Lines = append(req.Lines, pricing.OrderLine{VariantID: line.VariantID, Quantity: line.Quantity})
	}
	return req
}
