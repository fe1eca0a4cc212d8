package cart

import (
	"context"

	"gorm.io/gorm"

	"github.com/storiqateam/stq-orders/pkg/db/models"
	"github.com/storiqateam/stq-orders/pkg/enums"
)

// CartRepository defines the persistence surface required by the cart service.
// One logical surface spans the user and session partitions.
type CartRepository interface {
	WithTx(tx *gorm.DB) CartRepository
	Insert(ctx context.Context, item models.CartItem, strategy enums.InsertStrategy) (models.CartItem, error)
	Select(ctx context.Context, filter CartFilter) ([]models.CartItem, error)
	Update(ctx context.Context, customer models.Customer, productID int64, patch CartPatch) (models.CartItem, error)
	Delete(ctx context.Context, filter CartFilter) ([]models.CartItem, error)
}
