package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"

	"github.com/openshelf/circulate/internal/domain"
	"github.com/openshelf/circulate/internal/observability/metrics"
	"github.com/openshelf/circulate/internal/repository"
)

// minRegistrationCredit is the floor below which a membership
// application is refused outright.
const minRegistrationCredit = 50

// LibraryService orchestrates the circulation desk: registration,
// catalog admission, borrow/return/reserve flows, fine settlement, and
// reservation fulfillment. A single mutex serializes every operation so
// the aggregate rules hold without per-entity locking.
type LibraryService struct {
	mu sync.Mutex

	books    *repository.BookRepository
	users    *repository.UserRepository
	arena    *domain.ReservationArena
	notifier *NotificationService
	rec      domain.Recorder
	logger   *slog.Logger

	creditRepair *CreditRepairService
	autoRenewal  *AutoRenewalService
	inventory    *InventoryService
}

// NewLibraryService creates the circulation orchestrator.
func NewLibraryService(
	books *repository.BookRepository,
	users *repository.UserRepository,
	arena *domain.ReservationArena,
	notifier *NotificationService,
	rec domain.Recorder,
	logger *slog.Logger,
) *LibraryService {
	if rec == nil {
		rec = domain.NopRecorder()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &LibraryService{
		books:    books,
		users:    users,
		arena:    arena,
		notifier: notifier,
		rec:      rec,
		logger:   logger,

		creditRepair: NewCreditRepairService(logger),
		autoRenewal:  NewAutoRenewalService(logger),
		inventory:    NewInventoryService(logger),
	}
}

// Arena exposes the reservation arena for handlers and workers.
func (s *LibraryService) Arena() *domain.ReservationArena { return s.arena }

// RegisterUser admits a member. Applicants below the credit floor and
// duplicate IDs are refused.
func (s *LibraryService) RegisterUser(user *domain.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if user.CreditScore() < minRegistrationCredit {
		s.rec.Record(domain.NewEvent(domain.EventRegistrationDenied, "", user.ID,
			fmt.Sprintf("credit score %d below registration floor", user.CreditScore())))
		return fmt.Errorf("register user %q: credit score %d below %d: %w",
			user.ID, user.CreditScore(), minRegistrationCredit, domain.ErrInsufficientCredit)
	}
	if err := s.users.Save(user); err != nil {
		s.rec.Record(domain.NewEvent(domain.EventRegistrationDenied, "", user.ID, "duplicate user id"))
		return fmt.Errorf("register user: %w", err)
	}

	user.SetRecorder(s.rec)
	s.rec.Record(domain.NewEvent(domain.EventUserRegistered, "", user.ID, user.Name))
	s.logger.Info("user registered",
		slog.String("user_id", user.ID),
		slog.String("tier", string(user.Tier())),
	)
	return nil
}

// AddBook admits a book into the catalog. Duplicate IDs are refused.
func (s *LibraryService) AddBook(book *domain.Book) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.books.Save(book); err != nil {
		s.rec.Record(domain.NewEvent(domain.EventBookDuplicate, book.ID, "", "duplicate book id"))
		return fmt.Errorf("add book: %w", err)
	}

	book.SetRecorder(s.rec)
	s.rec.Record(domain.NewEvent(domain.EventBookAdded, book.ID, "", book.Title))
	s.logger.Info("book added",
		slog.String("book_id", book.ID),
		slog.String("title", book.Title),
		slog.Int("copies", book.TotalCopies()),
	)
	return nil
}

// GetUser looks up a member by ID.
func (s *LibraryService) GetUser(id string) (*domain.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.users.GetByID(id)
}

// GetBook looks up a catalog entry by ID.
func (s *LibraryService) GetBook(id string) (*domain.Book, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.books.GetByID(id)
}

// ListBooks returns the catalog.
func (s *LibraryService) ListBooks() []*domain.Book {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.books.List()
}

// ListUsers returns all members.
func (s *LibraryService) ListUsers() []*domain.User {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.users.List()
}

// BorrowBook runs the borrow flow for the given member and book.
func (s *LibraryService) BorrowBook(userID, bookID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	user, book, err := s.lookup(userID, bookID)
	if err != nil {
		return err
	}

	if err := user.BorrowBook(book, s.arena); err != nil {
		metrics.ObserveBorrow("denied")
		s.logger.Warn("borrow denied",
			slog.String("user_id", userID),
			slog.String("book_id", bookID),
			slog.String("error", err.Error()),
		)
		return err
	}

	if user.HasOpenLoan(book) {
		metrics.ObserveBorrow("granted")
		metrics.IncrementOpenLoans()
		s.rec.Record(domain.NewEvent(domain.EventBookBorrowed, bookID, userID, book.Title))
	} else {
		// No copies on shelf: the request joined the reservation queue.
		metrics.ObserveBorrow("waitlisted")
	}
	metrics.SetReservationQueueDepth(s.arena.Len())
	return nil
}

// ReturnBook runs the return flow. The book goes back on the shelf even
// when the settled fines freeze the account.
func (s *LibraryService) ReturnBook(userID, bookID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	user, book, err := s.lookup(userID, bookID)
	if err != nil {
		return err
	}

	if err := user.ReturnBook(book); err != nil {
		metrics.ObserveReturn("error")
		s.logger.Warn("return completed with error",
			slog.String("user_id", userID),
			slog.String("book_id", bookID),
			slog.String("error", err.Error()),
		)
		// A fine-limit freeze still closes the loan; the copy is shelved.
		if errors.Is(err, domain.ErrOverdueFine) {
			metrics.DecrementOpenLoans()
			s.refreshFrozenGauge()
		}
		return err
	}

	metrics.ObserveReturn("ok")
	metrics.DecrementOpenLoans()
	s.rec.Record(domain.NewEvent(domain.EventBookReturned, bookID, userID, book.Title))
	return nil
}

// ReserveBook queues a reservation for the member.
func (s *LibraryService) ReserveBook(userID, bookID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	user, book, err := s.lookup(userID, bookID)
	if err != nil {
		return err
	}

	if err := user.ReserveBook(book, s.arena); err != nil {
		return err
	}
	metrics.SetReservationQueueDepth(s.arena.Len())
	return nil
}

// CancelReservation withdraws the member's reservation of the book.
func (s *LibraryService) CancelReservation(userID, bookID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	user, book, err := s.lookup(userID, bookID)
	if err != nil {
		return err
	}

	if err := user.CancelReservation(book, s.arena); err != nil {
		return err
	}
	s.rec.Record(domain.NewEvent(domain.EventReservationRemoved, bookID, userID, "reservation cancelled"))
	metrics.SetReservationQueueDepth(s.arena.Len())
	return nil
}

// PayFine settles part of a member's fine balance.
func (s *LibraryService) PayFine(userID string, amount float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	user, err := s.users.GetByID(userID)
	if err != nil {
		return err
	}

	if err := user.PayFine(amount); err != nil {
		return err
	}
	metrics.ObserveFinePayment(amount)
	s.refreshFrozenGauge()
	return nil
}

// RepairUserCredit converts a repair payment into credit score points.
func (s *LibraryService) RepairUserCredit(userID string, payment float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	user, err := s.users.GetByID(userID)
	if err != nil {
		return err
	}
	if err := s.creditRepair.RepairCredit(user, payment); err != nil {
		return err
	}
	s.refreshFrozenGauge()
	return nil
}

// AutoRenewBook extends the member's open loan of the book.
func (s *LibraryService) AutoRenewBook(userID, bookID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	user, book, err := s.lookup(userID, bookID)
	if err != nil {
		return err
	}
	return s.autoRenewal.AutoRenew(user, book)
}

// ReportLostBook settles a lost copy against the borrower.
func (s *LibraryService) ReportLostBook(userID, bookID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	user, book, err := s.lookup(userID, bookID)
	if err != nil {
		return err
	}
	if err := s.inventory.ReportLost(user, book); err != nil {
		s.logger.Warn("reporting loss failed",
			slog.String("user_id", userID),
			slog.String("book_id", bookID),
			slog.String("error", err.Error()),
		)
		return err
	}
	s.refreshFrozenGauge()
	return nil
}

// ReportDamagedBook settles a damaged copy against the borrower.
func (s *LibraryService) ReportDamagedBook(userID, bookID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	user, book, err := s.lookup(userID, bookID)
	if err != nil {
		return err
	}
	if err := s.inventory.ReportDamaged(user, book); err != nil {
		s.logger.Warn("reporting damage failed",
			slog.String("user_id", userID),
			slog.String("book_id", bookID),
			slog.String("error", err.Error()),
		)
		return err
	}
	s.refreshFrozenGauge()
	return nil
}

// ProcessReservations fulfills the book's reservation queue while copies
// remain, highest priority first with arrival order breaking ties. The
// first member whose borrow fails stops the pass; their reservation
// stays queued.
func (s *LibraryService) ProcessReservations(ctx context.Context, bookID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	book, err := s.books.GetByID(bookID)
	if err != nil {
		return err
	}

	if !book.IsAvailable() || book.AvailableCopies() == 0 {
		s.rec.Record(domain.NewEvent(domain.EventQueueSkipped, bookID, "", "no copies available for the queue"))
		return nil
	}

	queue := s.rankedQueue(book)
	for _, r := range queue {
		if book.AvailableCopies() == 0 {
			break
		}

		user, err := s.users.GetByID(r.UserID())
		if err != nil {
			// Orphaned reservation; drop it and keep going.
			book.RemoveReservation(r.ID())
			s.arena.Remove(r.ID())
			continue
		}

		if err := user.BorrowBook(book, nil); err != nil {
			metrics.ObserveReservation("failed")
			s.rec.Record(domain.NewEvent(domain.EventQueueFailed, bookID, user.ID, err.Error()))
			s.logger.Warn("reservation fulfillment stopped",
				slog.String("book_id", bookID),
				slog.String("user_id", user.ID),
				slog.String("error", err.Error()),
			)
			break
		}

		book.RemoveReservation(r.ID())
		user.DropReservation(r.ID())
		s.arena.Remove(r.ID())

		metrics.ObserveReservation("fulfilled")
		metrics.IncrementOpenLoans()
		s.rec.Record(domain.NewEvent(domain.EventQueueFulfilled, bookID, user.ID, book.Title))

		if s.notifier != nil {
			if err := s.notifier.Notify(ctx, user, fmt.Sprintf("Your reserved book %q is ready for pickup.", book.Title)); err != nil {
				s.logger.Warn("pickup notification failed",
					slog.String("user_id", user.ID),
					slog.String("error", err.Error()),
				)
			}
		}
	}

	metrics.SetReservationQueueDepth(s.arena.Len())
	return nil
}

// BooksWithReservations lists catalog IDs that currently have a queue.
func (s *LibraryService) BooksWithReservations() []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	var ids []string
	for _, b := range s.books.List() {
		if b.HasReservations() {
			ids = append(ids, b.ID)
		}
	}
	return ids
}

// rankedQueue resolves the book's reservation queue to live records,
// ordered by priority descending with queue position breaking ties.
func (s *LibraryService) rankedQueue(book *domain.Book) []*domain.Reservation {
	ids := book.Reservations()
	queue := make([]*domain.Reservation, 0, len(ids))
	for _, id := range ids {
		if r, ok := s.arena.Get(id); ok {
			queue = append(queue, r)
		}
	}
	sort.SliceStable(queue, func(i, j int) bool {
		return queue[i].Priority() > queue[j].Priority()
	})
	return queue
}

func (s *LibraryService) lookup(userID, bookID string) (*domain.User, *domain.Book, error) {
	user, err := s.users.GetByID(userID)
	if err != nil {
		return nil, nil, err
	}
	book, err := s.books.GetByID(bookID)
	if err != nil {
		return nil, nil, err
	}
	return user, book, nil
}

func (s *LibraryService) refreshFrozenGauge() {
	n := 0
	for _, u := range s.users.List() {
		if u.Status() == domain.StatusFrozen {
			n++
		}
	}
	metrics.SetFrozenAccounts(n)
}
