package quotes

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/angelmondragon/cogsdesk-backend/internal/pricing"
	pkgerrors "github.com/angelmondragon/cogsdesk-backend/pkg/errors"
	"github.com/angelmondragon/cogsdesk-backend/pkg/logger"
	"github.com/angelmondragon/cogsdesk-backend/pkg/metrics"
)

const (
	defaultWorkers  = 8
	defaultMaxBatch = 500
)

type snapshotLoader interface {
	Load(ctx context.Context, tenantID string) (*pricing.Snapshot, error)
}

// Options configures the quote service.
type Options struct {
	// DefaultSelector is applied to requests that name neither a country nor a
	// carrier. Leave it zero to require an explicit selector.
	DefaultSelector pricing.Selector
	Workers         int
	MaxBatchSize    int
}

// Outcome pairs a request with its result or error.
type Outcome struct {
	Result *pricing.QuoteResult
	Err    error
}

// Service loads tenant pricing data and runs the resolution engine over it.
type Service interface {
	Quote(ctx context.Context, tenantID string, req pricing.Request) (*QuoteDTO, error)
	QuoteBatch(ctx context.Context, tenantID string, reqs []pricing.Request) (*BatchResult, error)
	QuoteAll(ctx context.Context, tenantID string, reqs []pricing.Request) ([]Outcome, error)
}

type service struct {
	loader  snapshotLoader
	engine  *pricing.Engine
	opts    Options
	metrics *metrics.QuoteMetrics
	logg    *logger.Logger
}

// NewService wires the quote service. quoteMetrics may be nil.
func NewService(loader snapshotLoader, engine *pricing.Engine, opts Options, quoteMetrics *metrics.QuoteMetrics, logg *logger.Logger) (Service, error) {
	if loader == nil {
		return nil, fmt.Errorf("snapshot loader required")
	}
	if engine == nil {
		return nil, fmt.Errorf("pricing engine required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	if opts.Workers <= 0 {
		opts.Workers = defaultWorkers
	}
	if opts.MaxBatchSize <= 0 {
		opts.MaxBatchSize = defaultMaxBatch
	}
	return &service{loader: loader, engine: engine, opts: opts, metrics: quoteMetrics, logg: logg}, nil
}

func (s *service) Quote(ctx context.Context, tenantID string, req pricing.Request) (*QuoteDTO, error) {
	snap, err := s.loader.Load(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	result, err := s.resolve(snap, req)
	if err != nil {
		ctx = s.logg.WithFields(s.logg.WithTenantID(ctx, tenantID), map[string]any{
			"mode": modeOf(req),
			"code": string(pkgerrors.CodeOf(err)),
		})
		s.logg.Warn(ctx, "quote.failed")
		return nil, err
	}
	dto := FromResult(result)
	return &dto, nil
}

func (s *service) QuoteBatch(ctx context.Context, tenantID string, reqs []pricing.Request) (*BatchResult, error) {
	if len(reqs) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "batch must contain at least one quote")
	}
	if len(reqs) > s.opts.MaxBatchSize {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "batch too large").WithDetails(map[string]any{
			"max_batch_size": s.opts.MaxBatchSize,
			"received":       len(reqs),
		})
	}

	outcomes, err := s.QuoteAll(ctx, tenantID, reqs)
	if err != nil {
		return nil, err
	}

	out := &BatchResult{Items: make([]BatchItem, len(outcomes))}
	for i, outcome := range outcomes {
		item := BatchItem{Index: i}
		if outcome.Err != nil {
			item.Error = ItemErrorFrom(outcome.Err)
			out.Failed++
			s.metrics.IncBatchItem("error")
		} else {
			dto := FromResult(*outcome.Result)
			item.Quote = &dto
			out.Succeeded++
			s.metrics.IncBatchItem("ok")
		}
		out.Items[i] = item
	}

	ctx = s.logg.WithFields(s.logg.WithTenantID(ctx, tenantID), map[string]any{
		"items":     len(reqs),
		"succeeded": out.Succeeded,
		"failed":    out.Failed,
	})
	s.logg.Info(ctx, "quote.batch.completed")
	return out, nil
}

// QuoteAll prices every request against one snapshot. Individual failures are
// reported in the matching Outcome; only a snapshot load failure or context
// cancellation fails the whole call.
func (s *service) QuoteAll(ctx context.Context, tenantID string, reqs []pricing.Request) ([]Outcome, error) {
	snap, err := s.loader.Load(ctx, tenantID)
	if err != nil {
		return nil, err
	}

	outcomes := make([]Outcome, len(reqs))
	var g errgroup.Group
	g.SetLimit(s.opts.Workers)
	for i, req := range reqs {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			result, err := s.resolve(snap, req)
			if err != nil {
				outcomes[i] = Outcome{Err: err}
				return nil
			}
			outcomes[i] = Outcome{Result: &result}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "quote batch interrupted")
	}
	return outcomes, nil
}

func (s *service) resolve(snap pricing.Source, req pricing.Request) (pricing.QuoteResult, error) {
	if req != nil && req.PriceBookSelector().IsZero() && !s.opts.DefaultSelector.IsZero() {
		req = pricing.WithSelector(req, s.opts.DefaultSelector)
	}
	start := time.Now()
	result, err := s.engine.Quote(req, snap)
	s.metrics.ObserveDuration(modeOf(req), time.Since(start))
	if err != nil {
		s.metrics.IncFailure(string(pkgerrors.CodeOf(err)))
	}
	return result, err
}

func modeOf(req pricing.Request) string {
	if req == nil {
		return "unknown"
	}
	return string(req.Mode())
}
