package reports

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/angelmondragon/cogsdesk-backend/internal/adspend"
	"github.com/angelmondragon/cogsdesk-backend/internal/orders"
	"github.com/angelmondragon/cogsdesk-backend/internal/pricing"
	"github.com/angelmondragon/cogsdesk-backend/internal/quotes"
	pkgerrors "github.com/angelmondragon/cogsdesk-backend/pkg/errors"
	"github.com/angelmondragon/cogsdesk-backend/pkg/logger"
)

const maxRangeDays = 366

type orderLister interface {
	ListInRange(ctx context.Context, tenantID string, from, to time.Time) ([]orders.OrderDTO, error)
}

type spendSummarizer interface {
	Summarize(ctx context.Context, tenantID string, from, to time.Time) (*adspend.Summary, error)
}

type quoter interface {
	QuoteAll(ctx context.Context, tenantID string, reqs []pricing.Request) ([]quotes.Outcome, error)
}

// Service builds profitability reports from imported orders, quotes and ad spend.
type Service interface {
	Profitability(ctx context.Context, tenantID string, from, to time.Time) (*Profitability, error)
}

type service struct {
	orders orderLister
	spend  spendSummarizer
	quoter quoter
	logg   *logger.Logger
}

func NewService(orderSvc orderLister, spendSvc spendSummarizer, quoteSvc quoter, logg *logger.Logger) (Service, error) {
	if orderSvc == nil {
		return nil, fmt.Errorf("orders service required")
	}
	if spendSvc == nil {
		return nil, fmt.Errorf("ad spend service required")
	}
	if quoteSvc == nil {
		return nil, fmt.Errorf("quote service required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{orders: orderSvc, spend: spendSvc, quoter: quoteSvc, logg: logg}, nil
}

// Profitability covers the calendar days from..to inclusive, in UTC.
func (s *service) Profitability(ctx context.Context, tenantID string, from, to time.Time) (*Profitability, error) {
	from = truncateDay(from)
	to = truncateDay(to)
	if to.Before(from) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "to must not precede from")
	}
	if to.Sub(from) > maxRangeDays*24*time.Hour {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "report range too long").WithDetails(map[string]any{"max_days": maxRangeDays})
	}

	var (
		rows    []orders.OrderDTO
		summary *adspend.Summary
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		rows, err = s.orders.ListInRange(gctx, tenantID, from, to.AddDate(0, 0, 1))
		return err
	})
	g.Go(func() error {
		var err error
		summary, err = s.spend.Summarize(gctx, tenantID, from, to)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	reqs := make([]pricing.Request, 0, len(rows))
	for _, row := range rows {
		reqs = append(reqs, row.QuoteRequest())
	}
	var outcomes []quotes.Outcome
	if len(reqs) > 0 {
		var err error
		outcomes, err = s.quoter.QuoteAll(ctx, tenantID, reqs)
		if err != nil {
			return nil, err
		}
	}

	report := newProfitability(from, to, summary.Total)
	for i, row := range rows {
		report.add(row, outcomes[i])
	}
	report.finish()

	ctx = s.logg.WithFields(s.logg.WithTenantID(ctx, tenantID), map[string]any{
		"from":   report.From,
		"to":     report.To,
		"orders": len(rows),
		"failed": len(report.FailedOrders),
	})
	s.logg.Info(ctx, "report.profitability.built")
	return report, nil
}

func truncateDay(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
