package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/openshelf/circulate/internal/domain"
	"github.com/openshelf/circulate/internal/service"
)

// AddBookRequest represents a catalog admission
type AddBookRequest struct {
	ID       string `json:"id"`
	Title    string `json:"title"`
	Author   string `json:"author"`
	Category string `json:"category"` // GENERAL, JOURNAL, RARE
	Copies   int    `json:"copies"`
}

// BookResponse is the JSON view of a catalog entry
type BookResponse struct {
	ID              string `json:"id"`
	Title           string `json:"title"`
	Author          string `json:"author"`
	Category        string `json:"category"`
	TotalCopies     int    `json:"totalCopies"`
	AvailableCopies int    `json:"availableCopies"`
	Damaged         bool   `json:"damaged"`
	InRepair        bool   `json:"inRepair"`
	Reservations    int    `json:"reservations"`
}

// BookHandler handles catalog admission and lookup
type BookHandler struct {
	library *service.LibraryService
	logger  *slog.Logger
}

// NewBookHandler creates a book handler
func NewBookHandler(library *service.LibraryService, logger *slog.Logger) *BookHandler {
	return &BookHandler{library: library, logger: logger}
}

// Add handles POST /api/books
func (h *BookHandler) Add(w http.ResponseWriter, r *http.Request) {
	var req AddBookRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Error("failed to decode request", slog.String("error", err.Error()))
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "invalid request"})
		return
	}

	if req.ID == "" || req.Title == "" {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "id and title are required"})
		return
	}
	if req.Copies <= 0 {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "copies must be positive"})
		return
	}

	var category domain.Category
	switch req.Category {
	case "", string(domain.CategoryGeneral):
		category = domain.CategoryGeneral
	case string(domain.CategoryJournal):
		category = domain.CategoryJournal
	case string(domain.CategoryRare):
		category = domain.CategoryRare
	default:
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "category must be GENERAL, JOURNAL or RARE"})
		return
	}

	book := domain.NewBook(req.Title, req.Author, req.ID, category, req.Copies)
	if err := h.library.AddBook(book); err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, bookView(book))
}

// Get handles GET /api/books/{id}
func (h *BookHandler) Get(w http.ResponseWriter, r *http.Request) {
	book, err := h.library.GetBook(r.PathValue("id"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, bookView(book))
}

// List handles GET /api/books
func (h *BookHandler) List(w http.ResponseWriter, r *http.Request) {
	books := h.library.ListBooks()
	out := make([]BookResponse, 0, len(books))
	for _, b := range books {
		out = append(out, bookView(b))
	}
	writeJSON(w, http.StatusOK, out)
}

func bookView(b *domain.Book) BookResponse {
	return BookResponse{
		ID:              b.ID,
		Title:           b.Title,
		Author:          b.Author,
		Category:        string(b.Category),
		TotalCopies:     b.TotalCopies(),
		AvailableCopies: b.AvailableCopies(),
		Damaged:         b.IsDamaged(),
		InRepair:        b.InRepair(),
		Reservations:    len(b.Reservations()),
	}
}
