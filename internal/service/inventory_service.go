package service

import (
	"fmt"
	"log/slog"

	"github.com/openshelf/circulate/internal/domain"
)

const (
	lostChargePerCopy = 50.0
	damageCharge      = 30.0
)

// Borrower is the slice of account behavior inventory settlement needs.
type Borrower interface {
	HasOpenLoan(book *domain.Book) bool
	PayFine(amount float64) error
	Fines() float64
	SetFines(amount float64)
}

// InventoryService settles lost and damaged copies: it charges the
// borrower and adjusts the catalog stock or condition.
type InventoryService struct {
	logger *slog.Logger
}

// NewInventoryService creates an inventory service.
func NewInventoryService(logger *slog.Logger) *InventoryService {
	if logger == nil {
		logger = slog.Default()
	}
	return &InventoryService{logger: logger}
}

// ReportLost settles a lost copy: the borrower is charged fifty per copy
// in stock and one copy is retired.
func (s *InventoryService) ReportLost(borrower Borrower, book *domain.Book) error {
	if !borrower.HasOpenLoan(book) {
		return fmt.Errorf("report lost %q: no open loan: %w", book.Title, domain.ErrInvalidOperation)
	}

	charge := float64(book.TotalCopies()) * lostChargePerCopy
	if err := s.charge(borrower, charge); err != nil {
		return fmt.Errorf("report lost %q: %w", book.Title, err)
	}

	book.RemoveCopy()
	s.logger.Info("lost copy settled",
		slog.String("book_id", book.ID),
		slog.Float64("charge", charge),
		slog.Int("copies_remaining", book.TotalCopies()),
	)
	return nil
}

// ReportDamaged settles a damaged copy: the borrower is charged a flat
// fee and the book goes into repair.
func (s *InventoryService) ReportDamaged(borrower Borrower, book *domain.Book) error {
	if !borrower.HasOpenLoan(book) {
		return fmt.Errorf("report damaged %q: no open loan: %w", book.Title, domain.ErrInvalidOperation)
	}

	if err := s.charge(borrower, damageCharge); err != nil {
		return fmt.Errorf("report damaged %q: %w", book.Title, err)
	}

	book.ReportRepair()
	s.logger.Info("damaged copy settled",
		slog.String("book_id", book.ID),
		slog.Float64("charge", damageCharge),
	)
	return nil
}

// charge books the amount as an immediately-settled fine: the balance is
// raised and paid in one step so frozen-account thaw rules still apply.
func (s *InventoryService) charge(borrower Borrower, amount float64) error {
	borrower.SetFines(borrower.Fines() + amount)
	return borrower.PayFine(amount)
}
