package reports

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/angelmondragon/cogsdesk-backend/internal/adspend"
	"github.com/angelmondragon/cogsdesk-backend/internal/orders"
	"github.com/angelmondragon/cogsdesk-backend/internal/quotes"
	pkgerrors "github.com/angelmondragon/cogsdesk-backend/pkg/errors"
)

// Profitability is revenue minus product cost, shipping and ad spend over a
// date range. Orders that could not be quoted are listed but left out of
// every total, revenue included.
type Profitability struct {
	From          string          `json:"from"`
	To            string          `json:"to"`
	OrderCount    int             `json:"order_count"`
	QuotedOrders  int             `json:"quoted_orders"`
	Revenue       decimal.Decimal `json:"revenue"`
	ProductCost   decimal.Decimal `json:"product_cost"`
	ShippingCost  decimal.Decimal `json:"shipping_cost"`
	AdSpend       decimal.Decimal `json:"ad_spend"`
	GrossProfit   decimal.Decimal `json:"gross_profit"`
	NetProfit     decimal.Decimal `json:"net_profit"`
	MarginPercent decimal.Decimal `json:"margin_percent"`
	Orders        []OrderProfit   `json:"orders"`
	FailedOrders  []FailedOrder   `json:"failed_orders"`
}

type OrderProfit struct {
	ExternalID   string          `json:"external_id"`
	Name         string          `json:"name,omitempty"`
	ProcessedAt  time.Time       `json:"processed_at"`
	Revenue      decimal.Decimal `json:"revenue"`
	ProductCost  decimal.Decimal `json:"product_cost"`
	ShippingCost decimal.Decimal `json:"shipping_cost"`
	GrossProfit  decimal.Decimal `json:"gross_profit"`
	PriceBookID  string          `json:"price_book_id"`
}

type FailedOrder struct {
	ExternalID string         `json:"external_id"`
	Code       pkgerrors.Code `json:"code"`
	Message    string         `json:"message"`
}

var hundred = decimal.NewFromInt(100)

func newProfitability(from, to time.Time, adSpend decimal.Decimal) *Profitability {
	return &Profitability{
		From:         from.Format(adspend.DayLayout),
		To:           to.Format(adspend.DayLayout),
		AdSpend:      adSpend,
		Orders:       []OrderProfit{},
		FailedOrders: []FailedOrder{},
	}
}

func (p *Profitability) add(order orders.OrderDTO, outcome quotes.Outcome) {
	p.OrderCount++
	if outcome.Err != nil {
		failed := FailedOrder{ExternalID: order.ExternalID, Code: pkgerrors.CodeOf(outcome.Err), Message: outcome.Err.Error()}
		if typed := pkgerrors.As(outcome.Err); typed != nil {
			failed.Message = typed.Message()
		}
		p.FailedOrders = append(p.FailedOrders, failed)
		return
	}
	result := outcome.Result
	p.QuotedOrders++
	p.Revenue = p.Revenue.Add(order.Revenue)
	p.ProductCost = p.ProductCost.Add(result.ProductCost)
	p.ShippingCost = p.ShippingCost.Add(result.ShippingCost)
	p.Orders = append(p.Orders, OrderProfit{
		ExternalID:   order.ExternalID,
		Name:         order.Name,
		ProcessedAt:  order.ProcessedAt,
		Revenue:      order.Revenue,
		ProductCost:  result.ProductCost,
		ShippingCost: result.ShippingCost,
		GrossProfit:  order.Revenue.Sub(result.TotalCost),
		PriceBookID:  result.PriceBookID,
	})
}

func (p *Profitability) finish() {
	p.GrossProfit = p.Revenue.Sub(p.ProductCost).Sub(p.ShippingCost)
	p.NetProfit = p.GrossProfit.Sub(p.AdSpend)
	if p.Revenue.IsPositive() {
		p.MarginPercent = p.NetProfit.Div(p.Revenue).Mul(hundred).Round(2)
	}
	p.Revenue = p.Revenue.Round(2)
	p.AdSpend = p.AdSpend.Round(2)
	p.GrossProfit = p.GrossProfit.Round(2)
	p.NetProfit = p.NetProfit.Round(2)
}
