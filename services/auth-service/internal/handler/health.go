package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/rs/zerolog/hlog"

	"github.com/vasapolrittideah/tezrent-api/services/auth-service/internal/payload"
)

const healthCheckTimeout = 2 * time.Second

func (h *httpHandler) Health(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), healthCheckTimeout)
	defer cancel()

	resp := payload.HealthResponse{
		Status:       "ok",
		Dependencies: make(map[string]string, len(h.healthChecks)),
	}
	status := http.StatusOK

	for name, check := range h.healthChecks {
		if err := check(ctx); err != nil {
			hlog.FromRequest(r).Warn().Err(err).Str("dependency", name).Msg("health check failed")
			resp.Dependencies[name] = "down"
			resp.Status = "degraded"
			status = http.StatusServiceUnavailable
			continue
		}
		resp.Dependencies[name] = "up"
	}

	writeJSON(w, status, resp)
}
