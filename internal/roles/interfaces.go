package roles

import (
	"context"

	"gorm.io/gorm"

	"github.com/storiqateam/stq-orders/pkg/db/models"
	"github.com/storiqateam/stq-orders/pkg/enums"
)

// RolesRepository defines the persistence surface required by the roles service.
type RolesRepository interface {
	WithTx(tx *gorm.DB) RolesRepository
	ListByUser(ctx context.Context, userID int64) ([]models.Role, error)
	Grant(ctx context.Context, role *models.Role) (*models.Role, error)
	Revoke(ctx context.Context, userID int64, name enums.UserRole) ([]models.Role, error)
}
