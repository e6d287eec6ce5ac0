package handler

import (
	"log/slog"
	"net/http"

	"github.com/openshelf/circulate/internal/service"
)

// ReservationHandler triggers fulfillment passes over a book's queue.
type ReservationHandler struct {
	library *service.LibraryService
	logger  *slog.Logger
}

// NewReservationHandler creates a reservation handler
func NewReservationHandler(library *service.LibraryService, logger *slog.Logger) *ReservationHandler {
	return &ReservationHandler{library: library, logger: logger}
}

// Process handles POST /api/books/{id}/process
func (h *ReservationHandler) Process(w http.ResponseWriter, r *http.Request) {
	bookID := r.PathValue("id")

	if err := h.library.ProcessReservations(r.Context(), bookID); err != nil {
		writeDomainError(w, err)
		return
	}

	book, err := h.library.GetBook(bookID)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, bookView(book))
}
