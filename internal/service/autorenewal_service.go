package service

import (
	"fmt"
	"log/slog"

	"github.com/openshelf/circulate/internal/domain"
)

const (
	renewalExtensionDays = 14
	renewalCreditFloor   = 60
)

// AutoRenewalService extends open loans when the account is in good
// standing and nobody is waiting on the book.
type AutoRenewalService struct {
	logger *slog.Logger
}

// NewAutoRenewalService creates an auto-renewal service.
func NewAutoRenewalService(logger *slog.Logger) *AutoRenewalService {
	if logger == nil {
		logger = slog.Default()
	}
	return &AutoRenewalService{logger: logger}
}

// AutoRenew pushes the due date of the user's open loan of book out by
// fourteen days from its current due date.
func (s *AutoRenewalService) AutoRenew(user *domain.User, book *domain.Book) error {
	record := user.FindBorrowRecord(book)
	if record == nil {
		return fmt.Errorf("auto-renew %q: no open loan: %w", book.Title, domain.ErrInvalidOperation)
	}
	if user.Status() != domain.StatusActive {
		return fmt.Errorf("auto-renew for %q: account is %s: %w",
			user.ID, user.Status(), domain.ErrAccountFrozen)
	}
	if user.CreditScore() < renewalCreditFloor {
		return fmt.Errorf("auto-renew for %q: credit score %d below %d: %w",
			user.ID, user.CreditScore(), renewalCreditFloor, domain.ErrInsufficientCredit)
	}
	if book.HasReservations() {
		return fmt.Errorf("auto-renew %q: the book has reservations waiting: %w",
			book.Title, domain.ErrInvalidOperation)
	}

	record.ExtendDueDate(renewalExtensionDays)
	s.logger.Info("loan renewed",
		slog.String("user_id", user.ID),
		slog.String("book_id", book.ID),
		slog.Time("due_at", record.DueAt()),
	)
	return nil
}
