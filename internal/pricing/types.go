package pricing

import (
	"sort"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/angelmondragon/cogsdesk-backend/pkg/enums"
)

// Variant is the catalog view the engine needs: identity and base cost.
type Variant struct {
	ID       string
	SKU      string
	BaseCost decimal.Decimal
}

// ShippingTier charges Cost for total item counts in [MinItems, MaxItems], both inclusive.
type ShippingTier struct {
	MinItems int             `json:"min_items"`
	MaxItems int             `json:"max_items"`
	Cost     decimal.Decimal `json:"shipping_cost"`
}

// Contains reports whether n falls inside the tier.
func (t ShippingTier) Contains(n int) bool {
	return t.MinItems <= n && n <= t.MaxItems
}

// ComboOverride replaces, never adjusts, the computed combo costs.
type ComboOverride struct {
	ProductCost  *decimal.Decimal
	ShippingCost *decimal.Decimal
}

// PriceBook is an immutable rate card for one (country, carrier) pair.
type PriceBook struct {
	ID               string
	CountryCode      string
	ShippingCarrier  string
	Currency         string
	Tiers            []ShippingTier
	VariantOverrides map[string]decimal.Decimal
	ComboOverrides   map[string]ComboOverride
}

// ComboItem is one (variant, qty) entry of a combo.
type ComboItem struct {
	VariantID string
	Qty       int
}

// Combo is a bundle priced as a unit once TriggerQuantity relevant units are ordered.
// An empty DiscountType means no discount.
type Combo struct {
	ID              string
	Name            string
	Items           []ComboItem
	DiscountType    enums.DiscountType
	DiscountValue   decimal.Decimal
	TriggerQuantity int
	IsActive        bool
}

// TotalQty is the literal sum of item quantities, used for combo shipping.
func (c Combo) TotalQty() int {
	total := 0
	for _, item := range c.Items {
		total += item.Qty
	}
	return total
}

func (c Combo) variantSet() map[string]struct{} {
	set := make(map[string]struct{}, len(c.Items))
	for _, item := range c.Items {
		set[item.VariantID] = struct{}{}
	}
	return set
}

// OrderLine is a single engine input line.
type OrderLine struct {
	VariantID string `json:"variant_id"`
	Quantity  int    `json:"quantity"`
}

// Selector picks exactly one price book.
type Selector struct {
	CountryCode     string `json:"country_code"`
	ShippingCarrier string `json:"shipping_carrier"`
}

// IsZero reports whether neither half of the selector is set.
func (s Selector) IsZero() bool {
	return strings.TrimSpace(s.CountryCode) == "" && strings.TrimSpace(s.ShippingCarrier) == ""
}

// NormalizeCountry upper-cases and trims an ISO country code.
func NormalizeCountry(country string) string {
	return strings.ToUpper(strings.TrimSpace(country))
}

// CarrierKey is the case-folded form carriers are matched on.
func CarrierKey(carrier string) string {
	return strings.ToLower(strings.TrimSpace(carrier))
}

// Source is the read-only view the engine queries while resolving one quote.
type Source interface {
	Variant(id string) (Variant, bool)
	PriceBook(country, carrier string) (*PriceBook, bool)
	Combo(id string) (Combo, bool)
	Combos() []Combo
}

// Snapshot is an in-memory Source. It must not be mutated after construction.
type Snapshot struct {
	variants   map[string]Variant
	priceBooks map[string]*PriceBook
	combos     map[string]Combo
	comboList  []Combo
}

// NewSnapshot indexes the provided data. Later entries win on duplicate keys.
func NewSnapshot(variants []Variant, priceBooks []PriceBook, combos []Combo) *Snapshot {
	s := &Snapshot{
		variants:   make(map[string]Variant, len(variants)),
		priceBooks: make(map[string]*PriceBook, len(priceBooks)),
		combos:     make(map[string]Combo, len(combos)),
	}
	for _, v := range variants {
		s.variants[v.ID] = v
	}
	for i := range priceBooks {
		pb := priceBooks[i]
		s.priceBooks[priceBookKey(pb.CountryCode, pb.ShippingCarrier)] = &pb
	}
	for _, c := range combos {
		s.combos[c.ID] = c
	}
	s.comboList = make([]Combo, 0, len(s.combos))
	for _, c := range s.combos {
		s.comboList = append(s.comboList, c)
	}
	sort.Slice(s.comboList, func(i, j int) bool { return s.comboList[i].ID < s.comboList[j].ID })
	return s
}

func priceBookKey(country, carrier string) string {
	return NormalizeCountry(country) + "|" + CarrierKey(carrier)
}

func (s *Snapshot) Variant(id string) (Variant, bool) {
	v, ok := s.variants[id]
	return v, ok
}

func (s *Snapshot) PriceBook(country, carrier string) (*PriceBook, bool) {
	pb, ok := s.priceBooks[priceBookKey(country, carrier)]
	return pb, ok
}

func (s *Snapshot) Combo(id string) (Combo, bool) {
	c, ok := s.combos[id]
	return c, ok
}

// Combos returns every combo, active or not, ordered by id.
func (s *Snapshot) Combos() []Combo {
	return s.comboList
}
