package controllers

import (
	"net/http"

	"github.com/storiqateam/stq-orders/api/middleware"
	"github.com/storiqateam/stq-orders/api/responses"
	ordersvc "github.com/storiqateam/stq-orders/internal/orders"
	pkgerrors "github.com/storiqateam/stq-orders/pkg/errors"
	"github.com/storiqateam/stq-orders/pkg/logger"
)

// OrderDiffsByID returns the order's state history, oldest first.
func OrderDiffsByID(svc ordersvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "orders service unavailable"))
			return
		}

		orderID, err := orderIDParam(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		caller := middleware.CallerFromContext(r.Context())
		diffs, err := svc.ListDiffs(r.Context(), caller, orderID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, diffs)
	}
}
