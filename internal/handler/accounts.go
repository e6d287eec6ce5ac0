package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/openshelf/circulate/internal/service"
)

// PaymentRequest carries a member payment toward fines or credit repair.
type PaymentRequest struct {
	UserID string  `json:"userId"`
	Amount float64 `json:"amount"`
}

// AccountHandler handles fine settlement and credit repair.
type AccountHandler struct {
	library *service.LibraryService
	logger  *slog.Logger
}

// NewAccountHandler creates an account handler
func NewAccountHandler(library *service.LibraryService, logger *slog.Logger) *AccountHandler {
	return &AccountHandler{library: library, logger: logger}
}

func (h *AccountHandler) decode(w http.ResponseWriter, r *http.Request) (PaymentRequest, bool) {
	var req PaymentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Error("failed to decode request", slog.String("error", err.Error()))
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "invalid request"})
		return req, false
	}
	if req.UserID == "" {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "userId is required"})
		return req, false
	}
	if req.Amount <= 0 {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "amount must be positive"})
		return req, false
	}
	return req, true
}

// PayFine handles POST /api/fines/pay
func (h *AccountHandler) PayFine(w http.ResponseWriter, r *http.Request) {
	req, ok := h.decode(w, r)
	if !ok {
		return
	}

	if err := h.library.PayFine(req.UserID, req.Amount); err != nil {
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

// RepairCredit handles POST /api/credit/repair
func (h *AccountHandler) RepairCredit(w http.ResponseWriter, r *http.Request) {
	req, ok := h.decode(w, r)
	if !ok {
		return
	}

	if err := h.library.RepairUserCredit(req.UserID, req.Amount); err != nil {
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
