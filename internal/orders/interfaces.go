package orders

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/storiqateam/stq-orders/pkg/db/models"
	"github.com/storiqateam/stq-orders/pkg/enums"
)

// Repository defines persistence operations for orders and their diff log.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, order models.Order) (models.Order, error)
	CreateDiff(ctx context.Context, diff models.OrderDiff) (models.OrderDiff, error)
	GetByID(ctx context.Context, id uuid.UUID) (models.Order, error)
	GetBySlug(ctx context.Context, slug int64) (models.Order, error)
	ListByCustomer(ctx context.Context, userID int64) ([]models.Order, error)
	ListByStore(ctx context.Context, storeID int64) ([]models.Order, error)
	Search(ctx context.Context, terms SearchTerms) ([]models.Order, error)
	SearchByDiff(ctx context.Context, filter DiffFilter) ([]models.Order, error)
	ListDiffs(ctx context.Context, orderID uuid.UUID) ([]models.OrderDiff, error)
	OrdersOlderThan(ctx context.Context, state enums.OrderState, maxAge time.Duration) ([]models.Order, error)
	UpdateState(ctx context.Context, id uuid.UUID, state enums.OrderState, trackID, deliveryCompany *string) (models.Order, error)
	DeleteByConversion(ctx context.Context, conversionID uuid.UUID) ([]models.Order, error)
	NextSlug(ctx context.Context) (int64, error)
}
