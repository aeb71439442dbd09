package orders

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/cogsdesk-backend/pkg/db/models"
)

// Repository persists imported storefront orders.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	FindByExternalID(ctx context.Context, tenantID, externalID string) (*models.Order, error)
	Create(ctx context.Context, order *models.Order) error
	UpdateHeader(ctx context.Context, order *models.Order) error
	ReplaceLines(ctx context.Context, orderID uuid.UUID, lines []models.OrderLine) error
	ListInRange(ctx context.Context, tenantID string, from, to time.Time) ([]models.Order, error)
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}
