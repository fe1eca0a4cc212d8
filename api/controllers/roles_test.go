package controllers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"

	"github.com/storiqateam/stq-orders/internal/acl"
	rolesvc "github.com/storiqateam/stq-orders/internal/roles"
	"github.com/storiqateam/stq-orders/pkg/db/models"
	"github.com/storiqateam/stq-orders/pkg/enums"
	pkgerrors "github.com/storiqateam/stq-orders/pkg/errors"
)

type stubRolesService struct {
	listByUser func(ctx context.Context, caller acl.Caller, userID int64) ([]models.Role, error)
	ownRoles   func(ctx context.Context, caller acl.Caller) ([]models.Role, error)
	grant      func(ctx context.Context, caller acl.Caller, input rolesvc.GrantInput) (*models.Role, error)
	revoke     func(ctx context.Context, caller acl.Caller, userID int64, name enums.UserRole) ([]models.Role, error)
}

func (s *stubRolesService) ListByUser(ctx context.Context, caller acl.Caller, userID int64) ([]models.Role, error) {
	if s.listByUser != nil {
		return s.listByUser(ctx, caller, userID)
	}
	return []models.Role{}, nil
}

func (s *stubRolesService) OwnRoles(ctx context.Context, caller acl.Caller) ([]models.Role, error) {
	if s.ownRoles != nil {
		return s.ownRoles(ctx, caller)
	}
	return []models.Role{}, nil
}

func (s *stubRolesService) Grant(ctx context.Context, caller acl.Caller, input rolesvc.GrantInput) (*models.Role, error) {
	if s.grant != nil {
		return s.grant(ctx, caller, input)
	}
	return &models.Role{}, nil
}

func (s *stubRolesService) Revoke(ctx context.Context, caller acl.Caller, userID int64, name enums.UserRole) ([]models.Role, error) {
	if s.revoke != nil {
		return s.revoke(ctx, caller, userID, name)
	}
	return []models.Role{}, nil
}

func TestRolesOwnReturnsCallerGrants(t *testing.T) {
	svc := &stubRolesService{
		ownRoles: func(_ context.Context, caller acl.Caller) ([]models.Role, error) {
			if caller.UserID == nil || *caller.UserID != 7 {
				t.Fatalf("expected caller user 7, got %+v", caller.UserID)
			}
			return []models.Role{{UserID: 7, Name: enums.UserRoleUser}}, nil
		},
	}

	handler := RolesOwn(svc, nil)
	req := withCaller(httptest.NewRequest(http.MethodGet, "/roles", nil), userCaller(7))
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
	var body struct {
		Data []models.Role `json:"data"`
	}
	if err := json.Unmarshal(resp.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(body.Data) != 1 || body.Data[0].Name != enums.UserRoleUser {
		t.Fatalf("unexpected grants %+v", body.Data)
	}
}

func TestRolesByUserIDParsesParam(t *testing.T) {
	var gotUser int64
	svc := &stubRolesService{
		listByUser: func(_ context.Context, _ acl.Caller, userID int64) ([]models.Role, error) {
			gotUser = userID
			return []models.Role{}, nil
		},
	}

	handler := RolesByUserID(svc, nil)
	req := withCaller(httptest.NewRequest(http.MethodGet, "/roles/by-user-id/42", nil), userCaller(7))
	req = withURLParam(req, "userID", "42")
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
	if gotUser != 42 {
		t.Fatalf("expected user 42 got %d", gotUser)
	}
}

func TestRoleGrantCreates(t *testing.T) {
	var gotInput rolesvc.GrantInput
	svc := &stubRolesService{
		grant: func(_ context.Context, _ acl.Caller, input rolesvc.GrantInput) (*models.Role, error) {
			gotInput = input
			return &models.Role{ID: uuid.New(), UserID: input.UserID, Name: input.Name, StoreID: input.StoreID}, nil
		},
	}

	handler := RoleGrant(svc, nil)
	req := withCaller(httptest.NewRequest(http.MethodPost, "/roles",
		strings.NewReader(`{"user_id":42,"name":"store_manager","store_id":12}`)), userCaller(1))
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusCreated {
		t.Fatalf("expected 201 got %d: %s", resp.Code, resp.Body.String())
	}
	if gotInput.UserID != 42 || gotInput.Name != enums.UserRoleStoreManager {
		t.Fatalf("unexpected input %+v", gotInput)
	}
	if gotInput.StoreID == nil || *gotInput.StoreID != 12 {
		t.Fatalf("expected store 12 got %+v", gotInput.StoreID)
	}
}

func TestRoleGrantMapsForbidden(t *testing.T) {
	svc := &stubRolesService{
		grant: func(_ context.Context, _ acl.Caller, _ rolesvc.GrantInput) (*models.Role, error) {
			return nil, pkgerrors.New(pkgerrors.CodeForbidden, "not allowed to grant roles")
		},
	}

	handler := RoleGrant(svc, nil)
	req := withCaller(httptest.NewRequest(http.MethodPost, "/roles",
		strings.NewReader(`{"user_id":42,"name":"superadmin"}`)), userCaller(9))
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusForbidden {
		t.Fatalf("expected 403 got %d", resp.Code)
	}
}

func TestRoleRevokeReturnsRemaining(t *testing.T) {
	var gotUser int64
	var gotName enums.UserRole
	svc := &stubRolesService{
		revoke: func(_ context.Context, _ acl.Caller, userID int64, name enums.UserRole) ([]models.Role, error) {
			gotUser = userID
			gotName = name
			return []models.Role{{UserID: userID, Name: enums.UserRoleUser}}, nil
		},
	}

	handler := RoleRevoke(svc, nil)
	req := withCaller(httptest.NewRequest(http.MethodDelete, "/roles",
		strings.NewReader(`{"user_id":42,"name":"store_manager"}`)), userCaller(1))
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
	if gotUser != 42 || gotName != enums.UserRoleStoreManager {
		t.Fatalf("unexpected revoke(%d, %s)", gotUser, gotName)
	}
}
