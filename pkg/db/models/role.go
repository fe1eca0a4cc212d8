package models

import (
	"github.com/google/uuid"

	"github.com/storiqateam/stq-orders/pkg/enums"
)

// Role grants a user a platform role. StoreID scopes store_manager grants to
// one store and is null for the other roles.
type Role struct {
	ID      uuid.UUID      `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	UserID  int64          `gorm:"column:user_id;not null;uniqueIndex:uniq_roles_user_id_name_store_id;index:idx_roles_user_id" json:"user_id"`
	Name    enums.UserRole `gorm:"column:name;not null;uniqueIndex:uniq_roles_user_id_name_store_id" json:"name"`
	StoreID *int64         `gorm:"column:store_id;uniqueIndex:uniq_roles_user_id_name_store_id" json:"store_id,omitempty"`
}
