package catalog

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"github.com/angelmondragon/cogsdesk-backend/pkg/db/models"
	"github.com/angelmondragon/cogsdesk-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/cogsdesk-backend/pkg/errors"
	"github.com/angelmondragon/cogsdesk-backend/pkg/logger"
	"github.com/angelmondragon/cogsdesk-backend/pkg/pagination"
)

type variantStore interface {
	Get(ctx context.Context, tenantID, variantID string) (*models.Variant, error)
	List(ctx context.Context, tenantID, afterID string, limit int) ([]models.Variant, error)
	Upsert(ctx context.Context, variants []models.Variant) error
}

// Invalidator drops cached pricing snapshots after a tenant's data changes.
type Invalidator interface {
	Invalidate(ctx context.Context, tenantID string) error
}

// Service exposes catalog reads and writes from manual edits or the storefront sync.
type Service interface {
	Get(ctx context.Context, tenantID, variantID string) (*VariantDTO, error)
	List(ctx context.Context, tenantID string, params pagination.Params) (*VariantPage, error)
	Upsert(ctx context.Context, tenantID string, source enums.VariantSource, inputs []UpsertVariantInput) ([]VariantDTO, error)
}

type service struct {
	repo        variantStore
	invalidator Invalidator
	logg        *logger.Logger
}

// NewService builds a catalog service backed by the provided repository.
// invalidator may be nil.
func NewService(repo variantStore, invalidator Invalidator, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("catalog repository required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{repo: repo, invalidator: invalidator, logg: logg}, nil
}

func (s *service) Get(ctx context.Context, tenantID, variantID string) (*VariantDTO, error) {
	variant, err := s.repo.Get(ctx, tenantID, strings.TrimSpace(variantID))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "variant not found").WithDetails(map[string]any{"variant_id": variantID})
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load variant")
	}
	dto := FromModel(*variant)
	return &dto, nil
}

func (s *service) List(ctx context.Context, tenantID string, params pagination.Params) (*VariantPage, error) {
	cursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
	}
	after := ""
	if cursor != nil {
		after = cursor.Key
	}

	rows, err := s.repo.List(ctx, tenantID, after, pagination.LimitWithBuffer(params.Limit))
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list variants")
	}
	rows, next := pagination.Page(rows, params.Limit, func(v models.Variant) string { return v.VariantID })

	page := &VariantPage{Variants: make([]VariantDTO, 0, len(rows)), NextCursor: next}
	for _, row := range rows {
		page.Variants = append(page.Variants, FromModel(row))
	}
	return page, nil
}

func (s *service) Upsert(ctx context.Context, tenantID string, source enums.VariantSource, inputs []UpsertVariantInput) ([]VariantDTO, error) {
	if !source.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "unknown variant source").WithDetails(map[string]any{"source": string(source)})
	}
	if len(inputs) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "at least one variant is required")
	}

	rows := make([]models.Variant, 0, len(inputs))
	seen := make(map[string]struct{}, len(inputs))
	for i, in := range inputs {
		id := strings.TrimSpace(in.VariantID)
		if id == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "variant_id is required").WithDetails(map[string]any{"index": i})
		}
		if in.BaseCost.IsNegative() {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "base_cost must not be negative").WithDetails(map[string]any{"variant_id": id})
		}
		if _, dup := seen[id]; dup {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "variant listed more than once").WithDetails(map[string]any{"variant_id": id})
		}
		seen[id] = struct{}{}
		rows = append(rows, models.Variant{
			TenantID:  tenantID,
			VariantID: id,
			SKU:       in.SKU,
			Title:     in.Title,
			BaseCost:  in.BaseCost,
			Source:    source,
		})
	}

	if err := s.repo.Upsert(ctx, rows); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "upsert variants")
	}

	ctx = s.logg.WithFields(s.logg.WithTenantID(ctx, tenantID), map[string]any{
		"source":   string(source),
		"variants": len(rows),
	})
	s.logg.Info(ctx, "catalog.variants.upserted")
	if s.invalidator != nil {
		if err := s.invalidator.Invalidate(ctx, tenantID); err != nil {
			s.logg.Warn(ctx, "pricing snapshot invalidation failed: "+err.Error())
		}
	}

	out := make([]VariantDTO, 0, len(rows))
	for _, row := range rows {
		out = append(out, FromModel(row))
	}
	return out, nil
}
