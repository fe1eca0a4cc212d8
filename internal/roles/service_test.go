package roles

import (
	"context"
	"testing"

	"gorm.io/gorm"

	"github.com/storiqateam/stq-orders/internal/acl"
	"github.com/storiqateam/stq-orders/pkg/db/models"
	"github.com/storiqateam/stq-orders/pkg/enums"
	pkgerrors "github.com/storiqateam/stq-orders/pkg/errors"
)

type stubRolesRepo struct {
	byUser  map[int64][]models.Role
	granted []*models.Role
}

func (s *stubRolesRepo) WithTx(tx *gorm.DB) RolesRepository { return s }

func (s *stubRolesRepo) ListByUser(ctx context.Context, userID int64) ([]models.Role, error) {
	return s.byUser[userID], nil
}

func (s *stubRolesRepo) Grant(ctx context.Context, role *models.Role) (*models.Role, error) {
	s.granted = append(s.granted, role)
	return role, nil
}

func (s *stubRolesRepo) Revoke(ctx context.Context, userID int64, name enums.UserRole) ([]models.Role, error) {
	var removed []models.Role
	var kept []models.Role
	for _, role := range s.byUser[userID] {
		if role.Name == name {
			removed = append(removed, role)
			continue
		}
		kept = append(kept, role)
	}
	s.byUser[userID] = kept
	return removed, nil
}

func adminCaller() acl.Caller {
	id := int64(1)
	return acl.Caller{UserID: &id, Roles: []models.Role{{UserID: 1, Name: enums.UserRoleSuperadmin}}}
}

func plainCaller(id int64) acl.Caller {
	return acl.Caller{UserID: &id, Roles: []models.Role{{UserID: id, Name: enums.UserRoleUser}}}
}

func requireCode(t *testing.T, err error, code pkgerrors.Code) {
	t.Helper()
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != code {
		t.Fatalf("expected %s, got %v", code, err)
	}
}

func TestServiceListByUserSelfAllowed(t *testing.T) {
	t.Parallel()

	repo := &stubRolesRepo{byUser: map[int64][]models.Role{
		7: {{UserID: 7, Name: enums.UserRoleUser}},
	}}
	svc, err := NewService(repo)
	if err != nil {
		t.Fatalf("NewService failed: %v", err)
	}

	list, err := svc.ListByUser(context.Background(), plainCaller(7), 7)
	if err != nil {
		t.Fatalf("self lookup failed: %v", err)
	}
	if len(list) != 1 {
		t.Fatalf("expected 1 role, got %d", len(list))
	}

	_, err = svc.ListByUser(context.Background(), plainCaller(8), 7)
	requireCode(t, err, pkgerrors.CodeForbidden)

	if _, err := svc.ListByUser(context.Background(), adminCaller(), 7); err != nil {
		t.Fatalf("superadmin lookup failed: %v", err)
	}
}

func TestServiceGrantRequiresSuperadmin(t *testing.T) {
	t.Parallel()

	repo := &stubRolesRepo{byUser: map[int64][]models.Role{}}
	svc, err := NewService(repo)
	if err != nil {
		t.Fatalf("NewService failed: %v", err)
	}

	input := GrantInput{UserID: 7, Name: enums.UserRoleUser}
	_, err = svc.Grant(context.Background(), plainCaller(7), input)
	requireCode(t, err, pkgerrors.CodeForbidden)

	granted, err := svc.Grant(context.Background(), adminCaller(), input)
	if err != nil {
		t.Fatalf("grant failed: %v", err)
	}
	if granted.UserID != 7 || granted.Name != enums.UserRoleUser {
		t.Fatalf("unexpected grant %+v", granted)
	}
}

func TestServiceGrantValidatesStoreScope(t *testing.T) {
	t.Parallel()

	repo := &stubRolesRepo{byUser: map[int64][]models.Role{}}
	svc, err := NewService(repo)
	if err != nil {
		t.Fatalf("NewService failed: %v", err)
	}

	_, err = svc.Grant(context.Background(), adminCaller(), GrantInput{UserID: 7, Name: enums.UserRoleStoreManager})
	requireCode(t, err, pkgerrors.CodeValidation)

	storeID := int64(3)
	_, err = svc.Grant(context.Background(), adminCaller(), GrantInput{UserID: 7, Name: enums.UserRoleUser, StoreID: &storeID})
	requireCode(t, err, pkgerrors.CodeValidation)

	_, err = svc.Grant(context.Background(), adminCaller(), GrantInput{UserID: 7, Name: "owner"})
	requireCode(t, err, pkgerrors.CodeValidation)

	if _, err := svc.Grant(context.Background(), adminCaller(), GrantInput{UserID: 7, Name: enums.UserRoleStoreManager, StoreID: &storeID}); err != nil {
		t.Fatalf("store manager grant failed: %v", err)
	}
}

func TestServiceRevokeRequiresSuperadmin(t *testing.T) {
	t.Parallel()

	repo := &stubRolesRepo{byUser: map[int64][]models.Role{
		7: {{UserID: 7, Name: enums.UserRoleUser}},
	}}
	svc, err := NewService(repo)
	if err != nil {
		t.Fatalf("NewService failed: %v", err)
	}

	_, err = svc.Revoke(context.Background(), plainCaller(7), 7, enums.UserRoleUser)
	requireCode(t, err, pkgerrors.CodeForbidden)

	removed, err := svc.Revoke(context.Background(), adminCaller(), 7, enums.UserRoleUser)
	if err != nil {
		t.Fatalf("revoke failed: %v", err)
	}
	if len(removed) != 1 {
		t.Fatalf("expected 1 removed role, got %d", len(removed))
	}
	if len(repo.byUser[7]) != 0 {
		t.Fatalf("expected roles cleared, got %+v", repo.byUser[7])
	}
}
