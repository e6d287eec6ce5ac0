package repository

import (
	"fmt"
	"log/slog"
	"sort"
	"sync"

	"github.com/openshelf/circulate/internal/domain"
)

// BookRepository is an in-memory catalog of books keyed by ID.
type BookRepository struct {
	mu     sync.RWMutex
	books  map[string]*domain.Book
	logger *slog.Logger
}

// NewBookRepository creates an empty book repository.
func NewBookRepository(logger *slog.Logger) *BookRepository {
	if logger == nil {
		logger = slog.Default()
	}
	return &BookRepository{
		books:  make(map[string]*domain.Book),
		logger: logger,
	}
}

// Save stores a book. An existing entry with the same ID is an error;
// catalog updates mutate the shared *Book directly.
func (r *BookRepository) Save(book *domain.Book) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.books[book.ID]; exists {
		return fmt.Errorf("book %q already in catalog: %w", book.ID, domain.ErrInvalidOperation)
	}
	r.books[book.ID] = book

	r.logger.Debug("book saved", slog.String("book_id", book.ID), slog.String("title", book.Title))
	return nil
}

// GetByID retrieves a book by ID.
func (r *BookRepository) GetByID(id string) (*domain.Book, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	book, ok := r.books[id]
	if !ok {
		return nil, fmt.Errorf("book %q not found: %w", id, domain.ErrNotFound)
	}
	return book, nil
}

// Exists reports whether a book with the given ID is in the catalog.
func (r *BookRepository) Exists(id string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.books[id]
	return ok
}

// Delete removes a book from the catalog.
func (r *BookRepository) Delete(id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.books[id]; !ok {
		return fmt.Errorf("book %q not found: %w", id, domain.ErrNotFound)
	}
	delete(r.books, id)

	r.logger.Debug("book deleted", slog.String("book_id", id))
	return nil
}

// List returns all books ordered by ID.
func (r *BookRepository) List() []*domain.Book {
	r.mu.RLock()
	defer r.mu.RUnlock()

	books := make([]*domain.Book, 0, len(r.books))
	for _, b := range r.books {
		books = append(books, b)
	}
	sort.Slice(books, func(i, j int) bool { return books[i].ID < books[j].ID })
	return books
}
