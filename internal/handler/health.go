package handler

import (
	"log/slog"
	"net/http"

	"github.com/openshelf/circulate/internal/service"
)

// HealthHandler handles liveness and readiness endpoints.
type HealthHandler struct {
	library *service.LibraryService
	logger  *slog.Logger
}

// NewHealthHandler creates a health handler
func NewHealthHandler(library *service.LibraryService, logger *slog.Logger) *HealthHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &HealthHandler{library: library, logger: logger}
}

// HealthResponse represents the health status response
type HealthResponse struct {
	Status string `json:"status"`
}

// ReadinessResponse represents the readiness check response
type ReadinessResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks"`
}

// Health handles GET /healthz - simple liveness check.
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{Status: "ok"})
}

// Ready handles GET /readyz. State is in-process, so readiness reduces
// to the orchestrator being wired.
func (h *HealthHandler) Ready(w http.ResponseWriter, r *http.Request) {
	checks := map[string]string{"library": "ok"}
	status := "ready"
	code := http.StatusOK

	if h.library == nil {
		checks["library"] = "not configured"
		status = "not_ready"
		code = http.StatusServiceUnavailable
	}

	writeJSON(w, code, ReadinessResponse{Status: status, Checks: checks})
}
