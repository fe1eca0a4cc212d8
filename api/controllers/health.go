package controllers

import (
	"context"
	"net/http"
	"time"

	"github.com/storiqateam/stq-orders/api/responses"
	"github.com/storiqateam/stq-orders/pkg/config"
	pkgerrors "github.com/storiqateam/stq-orders/pkg/errors"
	"github.com/storiqateam/stq-orders/pkg/logger"
)

const readyPingTimeout = 2 * time.Second

// Pinger is the readiness surface a backing store exposes.
type Pinger interface {
	Ping(ctx context.Context) error
}

func HealthLive(cfg *config.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Stq-Env", cfg.App.Env)
		responses.WriteSuccess(w, map[string]string{"status": "live"})
	}
}

// HealthReady reports ready only when every backing store answers a ping.
func HealthReady(cfg *config.Config, logg *logger.Logger, pingers ...Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Stq-Env", cfg.App.Env)

		ctx, cancel := context.WithTimeout(r.Context(), readyPingTimeout)
		defer cancel()

		for _, pinger := range pingers {
			if pinger == nil {
				continue
			}
			if err := pinger.Ping(ctx); err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeConnection, err, "readiness ping"))
				return
			}
		}

		responses.WriteSuccess(w, map[string]string{"status": "ready"})
	}
}
