package roles

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/storiqateam/stq-orders/pkg/db"
	"github.com/storiqateam/stq-orders/pkg/db/models"
	"github.com/storiqateam/stq-orders/pkg/enums"
	"github.com/storiqateam/stq-orders/pkg/errors"
)

// Repository exposes persistence operations for role grants.
type Repository struct {
	db *gorm.DB
}

// NewRepository constructs a roles repository bound to the provided DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// WithTx binds the repository to a transaction.
func (r *Repository) WithTx(tx *gorm.DB) RolesRepository {
	if tx == nil {
		return r
	}
	return &Repository{db: tx}
}

// ListByUser returns every role granted to the user.
func (r *Repository) ListByUser(ctx context.Context, userID int64) ([]models.Role, error) {
	var rows []models.Role
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("name").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// Grant persists a new role grant. Duplicate grants map to a conflict error.
func (r *Repository) Grant(ctx context.Context, role *models.Role) (*models.Role, error) {
	if role.ID == uuid.Nil {
		role.ID = uuid.New()
	}
	if err := r.db.WithContext(ctx).Create(role).Error; err != nil {
		if db.IsUniqueViolation(err, "uniq_roles_user_id_name_store_id") {
			return nil, errors.Wrap(errors.CodeConflict, err, "role already granted")
		}
		return nil, err
	}
	return role, nil
}

// Revoke removes all grants of the named role from the user and returns them.
func (r *Repository) Revoke(ctx context.Context, userID int64, name enums.UserRole) ([]models.Role, error) {
	var rows []models.Role
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND name = ?", userID, name).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	err = r.db.WithContext(ctx).
		Where("user_id = ? AND name = ?", userID, name).
		Delete(&models.Role{}).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}
