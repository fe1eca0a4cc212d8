package roles

import (
	"context"
	"fmt"

	"github.com/storiqateam/stq-orders/internal/acl"
	"github.com/storiqateam/stq-orders/pkg/db/models"
	"github.com/storiqateam/stq-orders/pkg/enums"
	pkgerrors "github.com/storiqateam/stq-orders/pkg/errors"
)

// Service exposes role administration operations.
type Service interface {
	ListByUser(ctx context.Context, caller acl.Caller, userID int64) ([]models.Role, error)
	OwnRoles(ctx context.Context, caller acl.Caller) ([]models.Role, error)
	Grant(ctx context.Context, caller acl.Caller, input GrantInput) (*models.Role, error)
	Revoke(ctx context.Context, caller acl.Caller, userID int64, name enums.UserRole) ([]models.Role, error)
}

// GrantInput captures a role grant request.
type GrantInput struct {
	UserID  int64          `json:"user_id" validate:"required"`
	Name    enums.UserRole `json:"name" validate:"required"`
	StoreID *int64         `json:"store_id,omitempty"`
}

type service struct {
	repo RolesRepository
}

// NewService builds a roles service backed by the provided repository.
func NewService(repo RolesRepository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("roles repository required")
	}
	return &service{repo: repo}, nil
}

// ListByUser returns the roles of userID. Only superadmins may inspect
// other users.
func (s *service) ListByUser(ctx context.Context, caller acl.Caller, userID int64) ([]models.Role, error) {
	self := caller.UserID != nil && *caller.UserID == userID
	if !self && !caller.IsSuperadmin() {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "not allowed to view roles")
	}
	return s.repo.ListByUser(ctx, userID)
}

// OwnRoles returns the caller's own role grants.
func (s *service) OwnRoles(ctx context.Context, caller acl.Caller) ([]models.Role, error) {
	if caller.UserID == nil {
		return nil, nil
	}
	return s.repo.ListByUser(ctx, *caller.UserID)
}

// Grant creates a role grant. Superadmin only.
func (s *service) Grant(ctx context.Context, caller acl.Caller, input GrantInput) (*models.Role, error) {
	if !caller.IsSuperadmin() {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "not allowed to grant roles")
	}
	if !input.Name.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid role %q", input.Name))
	}
	if input.Name == enums.UserRoleStoreManager && input.StoreID == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "store_manager grant requires store_id")
	}
	if input.Name != enums.UserRoleStoreManager && input.StoreID != nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "store_id only applies to store_manager")
	}

	role := &models.Role{
		UserID:  input.UserID,
		Name:    input.Name,
		StoreID: input.StoreID,
	}
	return s.repo.Grant(ctx, role)
}

// Revoke removes all grants of the named role from userID. Superadmin only.
func (s *service) Revoke(ctx context.Context, caller acl.Caller, userID int64, name enums.UserRole) ([]models.Role, error) {
	if !caller.IsSuperadmin() {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "not allowed to revoke roles")
	}
	if !name.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid role %q", name))
	}
	return s.repo.Revoke(ctx, userID, name)
}
