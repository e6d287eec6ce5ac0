package service

import (
	"fmt"
	"log/slog"

	"github.com/openshelf/circulate/internal/domain"
)

const (
	minRepairPayment    = 10.0
	creditPerTenPaid    = 1
	repairRestoreCredit = 60
)

// CreditRepairService converts payments into credit score: one point per
// full ten paid. Reaching the restore threshold thaws a frozen account.
type CreditRepairService struct {
	logger *slog.Logger
}

// NewCreditRepairService creates a credit repair service.
func NewCreditRepairService(logger *slog.Logger) *CreditRepairService {
	if logger == nil {
		logger = slog.Default()
	}
	return &CreditRepairService{logger: logger}
}

// RepairCredit applies a repair payment to the user's credit score.
func (s *CreditRepairService) RepairCredit(user *domain.User, payment float64) error {
	if payment < minRepairPayment {
		return fmt.Errorf("repair payment %.2f below minimum %.0f: %w",
			payment, minRepairPayment, domain.ErrInvalidOperation)
	}

	points := int(payment/minRepairPayment) * creditPerTenPaid
	if err := user.AddScore(points); err != nil {
		return fmt.Errorf("repair credit for %q: %w", user.ID, err)
	}

	if user.CreditScore() >= repairRestoreCredit && user.Status() == domain.StatusFrozen {
		user.SetStatus(domain.StatusActive)
		s.logger.Info("account restored after credit repair",
			slog.String("user_id", user.ID),
			slog.Int("credit_score", user.CreditScore()),
		)
	}

	s.logger.Info("credit repaired",
		slog.String("user_id", user.ID),
		slog.Int("points", points),
		slog.Int("credit_score", user.CreditScore()),
	)
	return nil
}
