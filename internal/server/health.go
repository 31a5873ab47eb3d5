package server

import (
	"context"
	"log/slog"
	"net/http"
	"time"
)

const healthProbeTimeout = 2 * time.Second

// HealthService defines behaviour for readiness probes.
type HealthService interface {
	Probe(ctx context.Context) error
}

// Pinger is implemented by every account store.
type Pinger interface {
	Ping(ctx context.Context) error
}

// StoreHealthService verifies account store connectivity as part of health checks.
type StoreHealthService struct {
	Store Pinger
}

// Probe implements the HealthService interface.
func (s StoreHealthService) Probe(ctx context.Context) error {
	if s.Store == nil {
		return nil
	}
	return s.Store.Ping(ctx)
}

type healthResponse struct {
	Status      string `json:"status"`
	Database    string `json:"database"`
	Environment string `json:"environment"`
}

// healthHandler always answers 200; a failing probe is reported in the body
// so load balancers keep routing while the store reconnects.
func healthHandler(logger *slog.Logger, health HealthService, env string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), healthProbeTimeout)
		defer cancel()

		resp := healthResponse{Status: "ok", Database: "connected", Environment: env}
		if health != nil {
			if err := health.Probe(ctx); err != nil {
				logger.Error("health probe failed", "error", err)
				resp.Status = "degraded"
				resp.Database = "disconnected"
			}
		}
		respondJSON(w, http.StatusOK, resp)
	}
}
