package shopify

import (
	"strings"
	"time"
)

// Order is the subset of the Shopify order resource used for costing.
type Order struct {
	ID              int64          `json:"id"`
	Name            string         `json:"name"`
	ProcessedAt     time.Time      `json:"processed_at"`
	CancelledAt     *time.Time     `json:"cancelled_at"`
	Currency        string         `json:"currency"`
	TotalPrice      string         `json:"total_price"`
	ShippingAddress *Address       `json:"shipping_address"`
	ShippingLines   []ShippingLine `json:"shipping_lines"`
	Fulfillments    []Fulfillment  `json:"fulfillments"`
	LineItems       []LineItem     `json:"line_items"`
}

type Address struct {
	CountryCode string `json:"country_code"`
}

type ShippingLine struct {
	Title  string `json:"title"`
	Source string `json:"source"`
}

type Fulfillment struct {
	TrackingCompany string `json:"tracking_company"`
}

type LineItem struct {
	VariantID *int64 `json:"variant_id"`
	Quantity  int    `json:"quantity"`
}

// CountryCode is the shipping destination, empty for orders without one.
func (o Order) CountryCode() string {
	if o.ShippingAddress == nil {
		return ""
	}
	return strings.ToUpper(strings.TrimSpace(o.ShippingAddress.CountryCode))
}

// Carrier prefers the fulfilment's tracking company and falls back to the
// checkout shipping line title.
func (o Order) Carrier() string {
	for _, f := range o.Fulfillments {
		if c := strings.TrimSpace(f.TrackingCompany); c != "" {
			return c
		}
	}
	for _, line := range o.ShippingLines {
		if t := strings.TrimSpace(line.Title); t != "" {
			return t
		}
	}
	return ""
}

type Product struct {
	ID       int64     `json:"id"`
	Title    string    `json:"title"`
	Variants []Variant `json:"variants"`
}

// Variant is a product variant. Cost is filled from its inventory item and is
// nil when the merchant never entered one.
type Variant struct {
	ID              int64   `json:"id"`
	Title           string  `json:"title"`
	SKU             string  `json:"sku"`
	InventoryItemID int64   `json:"inventory_item_id"`
	ProductTitle    string  `json:"-"`
	Cost            *string `json:"-"`
}

type InventoryItem struct {
	ID   int64   `json:"id"`
	Cost *string `json:"cost"`
}
