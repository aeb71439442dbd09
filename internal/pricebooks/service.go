package pricebooks

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/angelmondragon/cogsdesk-backend/internal/pricing"
	"github.com/angelmondragon/cogsdesk-backend/pkg/db"
	"github.com/angelmondragon/cogsdesk-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/cogsdesk-backend/pkg/errors"
	"github.com/angelmondragon/cogsdesk-backend/pkg/logger"
)

// Service manages price books. Every write runs in one transaction and is
// validated before it reaches storage.
type Service interface {
	Create(ctx context.Context, tenantID string, input PriceBookInput) (*PriceBookDTO, error)
	Get(ctx context.Context, tenantID string, id uuid.UUID) (*PriceBookDTO, error)
	List(ctx context.Context, tenantID string) ([]PriceBookDTO, error)
	Delete(ctx context.Context, tenantID string, id uuid.UUID) error
	ReplaceTiers(ctx context.Context, tenantID string, id uuid.UUID, tiers []TierInput) (*PriceBookDTO, error)
	ReplaceVariantOverrides(ctx context.Context, tenantID string, id uuid.UUID, overrides map[string]decimal.Decimal) (*PriceBookDTO, error)
	PutComboOverride(ctx context.Context, tenantID string, id uuid.UUID, comboID string, input ComboOverrideInput) (*PriceBookDTO, error)
	DeleteComboOverride(ctx context.Context, tenantID string, id uuid.UUID, comboID string) (*PriceBookDTO, error)
	Import(ctx context.Context, tenantID string, inputs []PriceBookInput) (*ImportResult, error)
}

// ImportResult summarises a bulk import.
type ImportResult struct {
	Created int            `json:"created"`
	Updated int            `json:"updated"`
	Books   []PriceBookDTO `json:"price_books"`
}

type service struct {
	repo        PriceBookRepository
	tx          txRunner
	invalidator Invalidator
	logg        *logger.Logger
}

// NewService builds a price book service. invalidator may be nil.
func NewService(repo PriceBookRepository, tx txRunner, invalidator Invalidator, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("price book repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{repo: repo, tx: tx, invalidator: invalidator, logg: logg}, nil
}

func (s *service) Create(ctx context.Context, tenantID string, input PriceBookInput) (*PriceBookDTO, error) {
	if err := pricing.ValidatePriceBook(input.toPricing()); err != nil {
		return nil, err
	}

	row := input.toModel(tenantID)
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		if err := ensureSelectorFree(ctx, repo, tenantID, row); err != nil {
			return err
		}
		if err := repo.Create(ctx, row); err != nil {
			if db.IsUniqueViolation(err, "") {
				return duplicateSelector(row)
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create price book")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.afterWrite(ctx, tenantID, "price_book.created", row.ID)
	return s.Get(ctx, tenantID, row.ID)
}

func (s *service) Get(ctx context.Context, tenantID string, id uuid.UUID) (*PriceBookDTO, error) {
	row, err := s.repo.Get(ctx, tenantID, id)
	if err != nil {
		return nil, mapLoadError(err, id)
	}
	dto := FromModel(*row)
	return &dto, nil
}

func (s *service) List(ctx context.Context, tenantID string) ([]PriceBookDTO, error) {
	rows, err := s.repo.List(ctx, tenantID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list price books")
	}
	out := make([]PriceBookDTO, 0, len(rows))
	for _, row := range rows {
		out = append(out, FromModel(row))
	}
	return out, nil
}

func (s *service) Delete(ctx context.Context, tenantID string, id uuid.UUID) error {
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		n, err := s.repo.WithTx(tx).Delete(ctx, tenantID, id)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete price book")
		}
		if n == 0 {
			return notFound(id)
		}
		return nil
	})
	if err != nil {
		return err
	}
	s.afterWrite(ctx, tenantID, "price_book.deleted", id)
	return nil
}

func (s *service) ReplaceTiers(ctx context.Context, tenantID string, id uuid.UUID, tiers []TierInput) (*PriceBookDTO, error) {
	if err := pricing.ValidateTiers(tiersToPricing(tiers)); err != nil {
		return nil, err
	}
	return s.mutate(ctx, tenantID, id, "price_book.tiers_replaced", func(repo PriceBookRepository, _ *models.PriceBook) error {
		return repo.ReplaceTiers(ctx, id, tiersToModels(tiers))
	})
}

func (s *service) ReplaceVariantOverrides(ctx context.Context, tenantID string, id uuid.UUID, overrides map[string]decimal.Decimal) (*PriceBookDTO, error) {
	if err := pricing.ValidateVariantOverrides(overrides); err != nil {
		return nil, err
	}
	return s.mutate(ctx, tenantID, id, "price_book.variant_overrides_replaced", func(repo PriceBookRepository, _ *models.PriceBook) error {
		return repo.ReplaceVariantOverrides(ctx, id, variantOverridesToModels(overrides))
	})
}

func (s *service) PutComboOverride(ctx context.Context, tenantID string, id uuid.UUID, comboID string, input ComboOverrideInput) (*PriceBookDTO, error) {
	comboID = strings.TrimSpace(comboID)
	override := pricing.ComboOverride{ProductCost: input.OverrideProductCost, ShippingCost: input.OverrideShippingCost}
	if err := pricing.ValidateComboOverride(comboID, override); err != nil {
		return nil, err
	}
	return s.mutate(ctx, tenantID, id, "price_book.combo_override_set", func(repo PriceBookRepository, _ *models.PriceBook) error {
		return repo.UpsertComboOverride(ctx, &models.ComboOverride{
			PriceBookID:          id,
			ComboID:              comboID,
			OverrideProductCost:  input.OverrideProductCost,
			OverrideShippingCost: input.OverrideShippingCost,
		})
	})
}

func (s *service) DeleteComboOverride(ctx context.Context, tenantID string, id uuid.UUID, comboID string) (*PriceBookDTO, error) {
	comboID = strings.TrimSpace(comboID)
	return s.mutate(ctx, tenantID, id, "price_book.combo_override_deleted", func(repo PriceBookRepository, _ *models.PriceBook) error {
		n, err := repo.DeleteComboOverride(ctx, id, comboID)
		if err != nil {
			return err
		}
		if n == 0 {
			return pkgerrors.New(pkgerrors.CodeNotFound, "combo override not found").WithDetails(map[string]any{
				"price_book_id": id.String(),
				"combo_id":      comboID,
			})
		}
		return nil
	})
}

// Import creates or replaces every book in one transaction. Any invalid book
// rejects the whole import.
func (s *service) Import(ctx context.Context, tenantID string, inputs []PriceBookInput) (*ImportResult, error) {
	if len(inputs) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "at least one price book is required")
	}

	seen := make(map[string]int, len(inputs))
	for i, in := range inputs {
		if err := pricing.ValidatePriceBook(in.toPricing()); err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeInvalidConfiguration, err, fmt.Sprintf("price book %d is invalid", i)).WithDetails(map[string]any{
				"index":      i,
				"violations": pricing.Violations(errors.Unwrap(err)),
			})
		}
		key := pricing.NormalizeCountry(in.CountryCode) + "|" + pricing.CarrierKey(in.ShippingCarrier)
		if prev, dup := seen[key]; dup {
			return nil, pkgerrors.New(pkgerrors.CodeInvalidConfiguration, "import lists the same country and carrier twice").WithDetails(map[string]any{
				"index":          i,
				"previous_index": prev,
			})
		}
		seen[key] = i
	}

	result := &ImportResult{}
	ids := make([]uuid.UUID, 0, len(inputs))
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		for _, in := range inputs {
			row := in.toModel(tenantID)
			existing, err := repo.FindBySelector(ctx, tenantID, row.CountryCode, row.CarrierKey)
			switch {
			case err == nil:
				if err := replaceContents(ctx, repo, existing.ID, row); err != nil {
					return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "replace price book")
				}
				ids = append(ids, existing.ID)
				result.Updated++
			case errors.Is(err, gorm.ErrRecordNotFound):
				if err := repo.Create(ctx, row); err != nil {
					return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create price book")
				}
				ids = append(ids, row.ID)
				result.Created++
			default:
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load price book")
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.afterWrite(s.logg.WithFields(ctx, map[string]any{"created": result.Created, "updated": result.Updated}), tenantID, "price_book.imported", uuid.Nil)
	for _, id := range ids {
		dto, err := s.Get(ctx, tenantID, id)
		if err != nil {
			return nil, err
		}
		result.Books = append(result.Books, *dto)
	}
	return result, nil
}

func replaceContents(ctx context.Context, repo PriceBookRepository, id uuid.UUID, row *models.PriceBook) error {
	header := *row
	header.ID = id
	if err := repo.UpdateHeader(ctx, &header); err != nil {
		return err
	}
	if err := repo.ReplaceTiers(ctx, id, row.Tiers); err != nil {
		return err
	}
	if err := repo.ReplaceVariantOverrides(ctx, id, row.VariantOverrides); err != nil {
		return err
	}
	return repo.ReplaceComboOverrides(ctx, id, row.ComboOverrides)
}

func (s *service) mutate(ctx context.Context, tenantID string, id uuid.UUID, event string, fn func(repo PriceBookRepository, pb *models.PriceBook) error) (*PriceBookDTO, error) {
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		pb, err := repo.Get(ctx, tenantID, id)
		if err != nil {
			return mapLoadError(err, id)
		}
		if err := fn(repo, pb); err != nil {
			if pkgerrors.As(err) != nil {
				return err
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update price book")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.afterWrite(ctx, tenantID, event, id)
	return s.Get(ctx, tenantID, id)
}

func (s *service) afterWrite(ctx context.Context, tenantID, event string, id uuid.UUID) {
	ctx = s.logg.WithTenantID(ctx, tenantID)
	if id != uuid.Nil {
		ctx = s.logg.WithField(ctx, "price_book_id", id.String())
	}
	s.logg.Info(ctx, event)
	if s.invalidator == nil {
		return
	}
	if err := s.invalidator.Invalidate(ctx, tenantID); err != nil {
		s.logg.Warn(ctx, "pricing snapshot invalidation failed: "+err.Error())
	}
}

func ensureSelectorFree(ctx context.Context, repo PriceBookRepository, tenantID string, row *models.PriceBook) error {
	_, err := repo.FindBySelector(ctx, tenantID, row.CountryCode, row.CarrierKey)
	switch {
	case err == nil:
		return duplicateSelector(row)
	case errors.Is(err, gorm.ErrRecordNotFound):
		return nil
	default:
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check price book selector")
	}
}

func duplicateSelector(row *models.PriceBook) error {
	return pkgerrors.New(pkgerrors.CodeInvalidConfiguration, "a price book already exists for this country and carrier").WithDetails(map[string]any{
		"country_code":     row.CountryCode,
		"shipping_carrier": row.ShippingCarrier,
	})
}

func mapLoadError(err error, id uuid.UUID) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return notFound(id)
	}
	return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load price book")
}

func notFound(id uuid.UUID) error {
	return pkgerrors.New(pkgerrors.CodeNotFound, "price book not found").WithDetails(map[string]any{"price_book_id": id.String()})
}
