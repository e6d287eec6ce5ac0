package handler

import (
	"log/slog"
	"net/http"

	"github.com/openshelf/circulate/internal/service"
)

// LoanHandler handles renewal and inventory settlement for open loans.
type LoanHandler struct {
	library *service.LibraryService
	logger  *slog.Logger
}

// NewLoanHandler creates a loan handler
func NewLoanHandler(library *service.LibraryService, logger *slog.Logger) *LoanHandler {
	return &LoanHandler{library: library, logger: logger}
}

func (h *LoanHandler) circulate(w http.ResponseWriter, r *http.Request, op func(userID, bookID string) error) {
	ch := CirculationHandler{library: h.library, logger: h.logger}
	req, ok := ch.decode(w, r)
	if !ok {
		return
	}

	if err := op(req.UserID, req.BookID); err != nil {
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

// Renew handles POST /api/renew
func (h *LoanHandler) Renew(w http.ResponseWriter, r *http.Request) {
	h.circulate(w, r, h.library.AutoRenewBook)
}

// ReportLost handles POST /api/inventory/lost
func (h *LoanHandler) ReportLost(w http.ResponseWriter, r *http.Request) {
	h.circulate(w, r, h.library.ReportLostBook)
}

// ReportDamaged handles POST /api/inventory/damage
func (h *LoanHandler) ReportDamaged(w http.ResponseWriter, r *http.Request) {
	h.circulate(w, r, h.library.ReportDamagedBook)
}
