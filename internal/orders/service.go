package orders

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	pkgerrors "github.com/angelmondragon/cogsdesk-backend/pkg/errors"
	"github.com/angelmondragon/cogsdesk-backend/pkg/logger"
)

// UpsertResult counts how an import landed.
type UpsertResult struct {
	Created int `json:"created"`
	Updated int `json:"updated"`
}

// Service stores imported orders and serves them to reporting.
type Service interface {
	Upsert(ctx context.Context, tenantID string, inputs []OrderInput) (*UpsertResult, error)
	ListInRange(ctx context.Context, tenantID string, from, to time.Time) ([]OrderDTO, error)
}

type service struct {
	repo Repository
	tx   txRunner
	logg *logger.Logger
}

func NewService(repo Repository, tx txRunner, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{repo: repo, tx: tx, logg: logg}, nil
}

// Upsert writes orders keyed by external id. Re-importing an order replaces
// its header and lines.
func (s *service) Upsert(ctx context.Context, tenantID string, inputs []OrderInput) (*UpsertResult, error) {
	for i, in := range inputs {
		if len(in.Lines) == 0 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "order has no lines").WithDetails(map[string]any{
				"index":       i,
				"external_id": in.ExternalID,
			})
		}
		for _, line := range in.Lines {
			if line.VariantID == "" || line.Quantity < 1 {
				return nil, pkgerrors.New(pkgerrors.CodeValidation, "order line requires a variant and a positive quantity").WithDetails(map[string]any{
					"index":       i,
					"external_id": in.ExternalID,
				})
			}
		}
	}

	result := &UpsertResult{}
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		for _, in := range inputs {
			row := in.toModel(tenantID)
			existing, err := repo.FindByExternalID(ctx, tenantID, row.ExternalID)
			switch {
			case errors.Is(err, gorm.ErrRecordNotFound):
				if err := repo.Create(ctx, row); err != nil {
					return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create order")
				}
				result.Created++
			case err != nil:
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
			default:
				row.ID = existing.ID
				if err := repo.UpdateHeader(ctx, row); err != nil {
					return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update order")
				}
				if err := repo.ReplaceLines(ctx, existing.ID, row.Lines); err != nil {
					return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "replace order lines")
				}
				result.Updated++
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	ctx = s.logg.WithFields(s.logg.WithTenantID(ctx, tenantID), map[string]any{
		"created": result.Created,
		"updated": result.Updated,
	})
	s.logg.Info(ctx, "orders.upserted")
	return result, nil
}

func (s *service) ListInRange(ctx context.Context, tenantID string, from, to time.Time) ([]OrderDTO, error) {
	if !to.After(from) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "range end must be after start")
	}
	rows, err := s.repo.ListInRange(ctx, tenantID, from, to)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list orders")
	}
	out := make([]OrderDTO, 0, len(rows))
	for _, row := range rows {
		out = append(out, FromModel(row))
	}
	return out, nil
}
