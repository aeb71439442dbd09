package combos

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"github.com/angelmondragon/cogsdesk-backend/internal/pricing"
	"github.com/angelmondragon/cogsdesk-backend/pkg/db"
	pkgerrors "github.com/angelmondragon/cogsdesk-backend/pkg/errors"
	"github.com/angelmondragon/cogsdesk-backend/pkg/logger"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Invalidator drops cached pricing snapshots after a tenant's data changes.
type Invalidator interface {
	Invalidate(ctx context.Context, tenantID string) error
}

// Service manages the combo registry.
type Service interface {
	Create(ctx context.Context, tenantID string, input ComboInput) (*ComboDTO, error)
	Get(ctx context.Context, tenantID, comboID string) (*ComboDTO, error)
	List(ctx context.Context, tenantID string, activeOnly bool) ([]ComboDTO, error)
	Update(ctx context.Context, tenantID, comboID string, input ComboInput) (*ComboDTO, error)
	Deactivate(ctx context.Context, tenantID, comboID string) (*ComboDTO, error)
	Delete(ctx context.Context, tenantID, comboID string) error
}

type service struct {
	repo        ComboRepository
	tx          txRunner
	invalidator Invalidator
	logg        *logger.Logger
}

// NewService builds a combo service. invalidator may be nil.
func NewService(repo ComboRepository, tx txRunner, invalidator Invalidator, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("combo repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{repo: repo, tx: tx, invalidator: invalidator, logg: logg}, nil
}

func (s *service) Create(ctx context.Context, tenantID string, input ComboInput) (*ComboDTO, error) {
	if err := pricing.ValidateCombo(input.toPricing()); err != nil {
		return nil, err
	}
	row := input.toModel(tenantID)

	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		_, err := repo.Get(ctx, tenantID, row.ComboID)
		switch {
		case err == nil:
			return duplicateCombo(row.ComboID)
		case !errors.Is(err, gorm.ErrRecordNotFound):
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check combo id")
		}
		if err := repo.Create(ctx, row); err != nil {
			if db.IsUniqueViolation(err, "") {
				return duplicateCombo(row.ComboID)
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create combo")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.afterWrite(ctx, tenantID, row.ComboID, "combo.created")
	return s.Get(ctx, tenantID, row.ComboID)
}

func (s *service) Get(ctx context.Context, tenantID, comboID string) (*ComboDTO, error) {
	row, err := s.repo.Get(ctx, tenantID, strings.TrimSpace(comboID))
	if err != nil {
		return nil, mapLoadError(err, comboID)
	}
	dto := FromModel(*row)
	return &dto, nil
}

func (s *service) List(ctx context.Context, tenantID string, activeOnly bool) ([]ComboDTO, error) {
	rows, err := s.repo.List(ctx, tenantID, activeOnly)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list combos")
	}
	out := make([]ComboDTO, 0, len(rows))
	for _, row := range rows {
		out = append(out, FromModel(row))
	}
	return out, nil
}

// Update replaces the definition of an existing combo. The combo id comes
// from the path; a differing id in the body is rejected.
func (s *service) Update(ctx context.Context, tenantID, comboID string, input ComboInput) (*ComboDTO, error) {
	comboID = strings.TrimSpace(comboID)
	if body := strings.TrimSpace(input.ComboID); body != "" && body != comboID {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "combo_id in body does not match path").WithDetails(map[string]any{
			"path": comboID,
			"body": body,
		})
	}
	input.ComboID = comboID
	if err := pricing.ValidateCombo(input.toPricing()); err != nil {
		return nil, err
	}

	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		existing, err := repo.Get(ctx, tenantID, comboID)
		if err != nil {
			return mapLoadError(err, comboID)
		}
		next := input.toModel(tenantID)
		next.ID = existing.ID
		if err := repo.UpdateHeader(ctx, next); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update combo")
		}
		if err := repo.ReplaceItems(ctx, existing.ID, next.Items); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "replace combo items")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.afterWrite(ctx, tenantID, comboID, "combo.updated")
	return s.Get(ctx, tenantID, comboID)
}

func (s *service) Deactivate(ctx context.Context, tenantID, comboID string) (*ComboDTO, error) {
	comboID = strings.TrimSpace(comboID)
	n, err := s.repo.SetActive(ctx, tenantID, comboID, false)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "deactivate combo")
	}
	if n == 0 {
		return nil, notFound(comboID)
	}
	s.afterWrite(ctx, tenantID, comboID, "combo.deactivated")
	return s.Get(ctx, tenantID, comboID)
}

func (s *service) Delete(ctx context.Context, tenantID, comboID string) error {
	comboID = strings.TrimSpace(comboID)
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		n, err := s.repo.WithTx(tx).Delete(ctx, tenantID, comboID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete combo")
		}
		if n == 0 {
			return notFound(comboID)
		}
		return nil
	})
	if err != nil {
		return err
	}
	s.afterWrite(ctx, tenantID, comboID, "combo.deleted")
	return nil
}

func (s *service) afterWrite(ctx context.Context, tenantID, comboID, event string) {
	ctx = s.logg.WithFields(s.logg.WithTenantID(ctx, tenantID), map[string]any{"combo_id": comboID})
	s.logg.Info(ctx, event)
	if s.invalidator == nil {
		return
	}
	if err := s.invalidator.Invalidate(ctx, tenantID); err != nil {
		s.logg.Warn(ctx, "pricing snapshot invalidation failed: "+err.Error())
	}
}

func duplicateCombo(comboID string) error {
	return pkgerrors.New(pkgerrors.CodeConflict, "combo id already exists").WithDetails(map[string]any{"combo_id": comboID})
}

func mapLoadError(err error, comboID string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return notFound(comboID)
	}
	return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load combo")
}

func notFound(comboID string) error {
	return pkgerrors.New(pkgerrors.CodeNotFound, "combo not found").WithDetails(map[string]any{"combo_id": comboID})
}
