package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/openshelf/circulate/internal/service"
)

// CirculationRequest names the member and book a desk action applies to.
type CirculationRequest struct {
	UserID string `json:"userId"`
	BookID string `json:"bookId"`
}

// CirculationHandler handles borrow, return, reserve and cancel actions.
type CirculationHandler struct {
	library *service.LibraryService
	logger  *slog.Logger
}

// NewCirculationHandler creates a circulation handler
func NewCirculationHandler(library *service.LibraryService, logger *slog.Logger) *CirculationHandler {
	return &CirculationHandler{library: library, logger: logger}
}

func (h *CirculationHandler) decode(w http.ResponseWriter, r *http.Request) (CirculationRequest, bool) {
	var req CirculationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Error("failed to decode request", slog.String("error", err.Error()))
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "invalid request"})
		return req, false
	}
	if req.UserID == "" || req.BookID == "" {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "userId and bookId are required"})
		return req, false
	}
	return req, true
}

// Borrow handles POST /api/borrow
func (h *CirculationHandler) Borrow(w http.ResponseWriter, r *http.Request) {
	req, ok := h.decode(w, r)
	if !ok {
		return
	}

	if err := h.library.BorrowBook(req.UserID, req.BookID); err != nil {
		writeDomainError(w, err)
		return
	}

	user, err := h.library.GetUser(req.UserID)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, memberView(user))
}

// Return handles POST /api/return
func (h *CirculationHandler) Return(w http.ResponseWriter, r *http.Request) {
	req, ok := h.decode(w, r)
	if !ok {
		return
	}

	if err := h.library.ReturnBook(req.UserID, req.BookID); err != nil {
		writeDomainError(w, err)
		return
	}

	user, err := h.library.GetUser(req.UserID)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, memberView(user))
}

// Reserve handles POST /api/reserve
func (h *CirculationHandler) Reserve(w http.ResponseWriter, r *http.Request) {
	req, ok := h.decode(w, r)
	if !ok {
		return
	}

	if err := h.library.ReserveBook(req.UserID, req.BookID); err != nil {
		writeDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Cancel handles POST /api/reserve/cancel
func (h *CirculationHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	req, ok := h.decode(w, r)
	if !ok {
		return
	}

	if err := h.library.CancelReservation(req.UserID, req.BookID); err != nil {
		writeDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
