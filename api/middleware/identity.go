package middleware

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/storiqateam/stq-orders/api/responses"
	"github.com/storiqateam/stq-orders/internal/acl"
	"github.com/storiqateam/stq-orders/pkg/db/models"
	pkgerrors "github.com/storiqateam/stq-orders/pkg/errors"
	"github.com/storiqateam/stq-orders/pkg/logger"
)

const (
	authorizationHeader = "Authorization"
	sessionIDHeader     = "X-Session-Id"
)

// RoleLister loads the role grants attached to a user id.
type RoleLister interface {
	ListByUser(ctx context.Context, userID int64) ([]models.Role, error)
}

// Identity resolves the caller from the identity headers. Authorization
// carries the numeric id of the authenticated user, X-Session-Id the UUID of
// an anonymous session. Requests without either header pass through with no
// caller attached; routes that need one are guarded by RequireIdentity.
func Identity(roles RoleLister, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			caller := acl.Caller{}

			if raw := strings.TrimSpace(r.Header.Get(authorizationHeader)); raw != "" {
				userID, err := strconv.ParseInt(raw, 10, 64)
				if err != nil || userID <= 0 {
					responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "Authorization header must carry a numeric user id"))
					return
				}
				caller.UserID = &userID
				if roles != nil {
					grants, rolesErr := roles.ListByUser(ctx, userID)
					if rolesErr != nil {
						responses.WriteError(ctx, logg, w, rolesErr)
						return
					}
					caller.Roles = grants
				}
				if logg != nil {
					ctx = logg.WithUserID(ctx, raw)
				}
			}

			if raw := strings.TrimSpace(r.Header.Get(sessionIDHeader)); raw != "" {
				sessionID, err := uuid.Parse(raw)
				if err != nil {
					responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "X-Session-Id header must carry a UUID"))
					return
				}
				caller.SessionID = &sessionID
				if logg != nil {
					ctx = logg.WithSessionID(ctx, raw)
				}
			}

			next.ServeHTTP(w, r.WithContext(WithCaller(ctx, caller)))
		})
	}
}

// RequireIdentity rejects requests that carry neither a user nor a session
// identity.
func RequireIdentity(logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			caller := CallerFromContext(r.Context())
			if caller.UserID == nil && caller.SessionID == nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "caller identity required"))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequireUser rejects requests whose caller is not an authenticated user.
func RequireUser(logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			caller := CallerFromContext(r.Context())
			if caller.UserID == nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "authenticated user required"))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
