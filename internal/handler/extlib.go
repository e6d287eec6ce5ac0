package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/openshelf/circulate/internal/infrastructure/extlib"
)

// ExternalAvailabilityResponse reports a partner catalog lookup.
type ExternalAvailabilityResponse struct {
	ISBN      string `json:"isbn"`
	Available bool   `json:"available"`
}

// ExternalRequest places an inter-library loan request.
type ExternalRequest struct {
	ISBN   string `json:"isbn"`
	UserID string `json:"userId"`
}

// ExtLibHandler fronts the partner library catalog.
type ExtLibHandler struct {
	client *extlib.Client
	logger *slog.Logger
}

// NewExtLibHandler creates a partner catalog handler
func NewExtLibHandler(client *extlib.Client, logger *slog.Logger) *ExtLibHandler {
	return &ExtLibHandler{client: client, logger: logger}
}

// Availability handles GET /api/extlib/{isbn}/availability
func (h *ExtLibHandler) Availability(w http.ResponseWriter, r *http.Request) {
	isbn := r.PathValue("isbn")

	available, err := h.client.CheckAvailability(r.Context(), isbn)
	if err != nil {
		h.logger.Warn("partner catalog lookup failed",
			slog.String("isbn", isbn),
			slog.String("error", err.Error()),
		)
		writeJSON(w, http.StatusBadGateway, ErrorResponse{Error: "partner catalog unavailable"})
		return
	}

	writeJSON(w, http.StatusOK, ExternalAvailabilityResponse{ISBN: isbn, Available: available})
}

// Request handles POST /api/extlib/request
func (h *ExtLibHandler) Request(w http.ResponseWriter, r *http.Request) {
	var req ExternalRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Error("failed to decode request", slog.String("error", err.Error()))
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "invalid request"})
		return
	}
	if req.ISBN == "" {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "isbn is required"})
		return
	}

	if err := h.client.RequestBook(r.Context(), req.ISBN, req.UserID); err != nil {
		writeJSON(w, http.StatusBadGateway, ErrorResponse{Error: "partner request failed"})
		return
	}
	w.WriteHeader(http.StatusAccepted)
}
