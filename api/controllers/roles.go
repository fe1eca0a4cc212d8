package controllers

import (
	"net/http"

	"github.com/storiqateam/stq-orders/api/middleware"
	"github.com/storiqateam/stq-orders/api/responses"
	"github.com/storiqateam/stq-orders/api/validators"
	rolesvc "github.com/storiqateam/stq-orders/internal/roles"
	"github.com/storiqateam/stq-orders/pkg/enums"
	pkgerrors "github.com/storiqateam/stq-orders/pkg/errors"
	"github.com/storiqateam/stq-orders/pkg/logger"
)

type revokeRoleRequest struct {
	UserID int64          `json:"user_id" validate:"required,gt=0"`
	Name   enums.UserRole `json:"name" validate:"required"`
}

// RolesOwn returns the caller's role grants.
func RolesOwn(svc rolesvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "roles service unavailable"))
			return
		}

		caller := middleware.CallerFromContext(r.Context())
		grants, err := svc.OwnRoles(r.Context(), caller)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, grants)
	}
}

// RolesByUserID returns the role grants of one user.
func RolesByUserID(svc rolesvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "roles service unavailable"))
			return
		}

		userID, err := int64Param(r, "userID", "user id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		caller := middleware.CallerFromContext(r.Context())
		grants, err := svc.ListByUser(r.Context(), caller, userID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, grants)
	}
}

// RoleGrant attaches a role to a user.
func RoleGrant(svc rolesvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "roles service unavailable"))
			return
		}

		var payload rolesvc.GrantInput
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		caller := middleware.CallerFromContext(r.Context())
		grant, err := svc.Grant(r.Context(), caller, payload)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, grant)
	}
}

// RoleRevoke removes all grants of the named role from a user and returns
// the grants that remain.
func RoleRevoke(svc rolesvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "roles service unavailable"))
			return
		}

		var payload revokeRoleRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		caller := middleware.CallerFromContext(r.Context())
		remaining, err := svc.Revoke(r.Context(), caller, payload.UserID, payload.Name)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, remaining)
	}
}
