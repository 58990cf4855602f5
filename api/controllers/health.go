package controllers

import (
	"context"
	"net/http"
	"time"

	"github.com/NeatNerdPrime/bluedoc/api/responses"
	"github.com/NeatNerdPrime/bluedoc/pkg/config"
	"github.com/NeatNerdPrime/bluedoc/pkg/db"
	pkgerrors "github.com/NeatNerdPrime/bluedoc/pkg/errors"
	"github.com/NeatNerdPrime/bluedoc/pkg/logger"
)

const readinessTimeout = 3 * time.Second

// ReadinessCheck names one dependency probed by /health/ready. A nil Pinger is skipped.
type ReadinessCheck struct {
	Name   string
	Pinger db.Pinger
}

func HealthLive(cfg *config.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-BlueDoc-Env", cfg.App.Env)
		responses.WriteSuccess(w, map[string]string{"status": "live"})
	}
}

func HealthReady(cfg *config.Config, logg *logger.Logger, checks ...ReadinessCheck) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-BlueDoc-Env", cfg.App.Env)

		ctx, cancel := context.WithTimeout(r.Context(), readinessTimeout)
		defer cancel()

		failed := map[string]string{}
		for _, check := range checks {
			if check.Pinger == nil {
				continue
			}
			if err := check.Pinger.Ping(ctx); err != nil {
				failed[check.Name] = err.Error()
			}
		}
		if len(failed) > 0 {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeDependency, "not ready").WithDetails(failed))
			return
		}
		responses.WriteSuccess(w, map[string]string{"status": "ready"})
	}
}
