package app

import (
	"context"
	"net/http"
	"time"

	"github.com/Vasu1712/dronepilot-backend/internal/api"
	"github.com/Vasu1712/dronepilot-backend/internal/logging"
	"github.com/Vasu1712/dronepilot-backend/internal/storage"
)

// isoMillis is ISO-8601 in UTC with millisecond precision.
const isoMillis = "2006-01-02T15:04:05.000Z07:00"

type healthResponse struct {
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
	Service   string `json:"service"`
}

type healthHandler struct {
	service string
	store   storage.SceneStore
	logger  logging.Logger
	now     func() time.Time
}

func (h *healthHandler) response(status string) healthResponse {
	return healthResponse{
		Status:    status,
		Timestamp: h.now().UTC().Format(isoMillis),
		Service:   h.service,
	}
}

// Liveness always answers ok.
func (h *healthHandler) Liveness(w http.ResponseWriter, _ *http.Request) {
	api.WriteJSON(w, http.StatusOK, h.response("ok"))
}

// Readiness pings the store.
func (h *healthHandler) Readiness(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	if err := h.store.Ping(ctx); err != nil {
		h.logger.Warn(ctx, "readiness check failed", "error", err)
		api.WriteJSON(w, http.StatusServiceUnavailable, h.response("unavailable"))
		return
	}
	api.WriteJSON(w, http.StatusOK, h.response("ok"))
}
