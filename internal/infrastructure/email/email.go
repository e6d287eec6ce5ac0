package email

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/openshelf/circulate/internal/domain"
)

// Sender delivers notifications over email. There is no real SMTP
// backend; deliveries are logged, and a missing address is the failure
// mode the fallback chain exists for.
type Sender struct {
	logger *slog.Logger
}

// NewSender creates an email sender.
func NewSender(logger *slog.Logger) *Sender {
	if logger == nil {
		logger = slog.Default()
	}
	return &Sender{logger: logger}
}

// Name identifies the channel in logs and fallback decisions.
func (s *Sender) Name() string { return "email" }

// Send delivers msg to the user's email address.
func (s *Sender) Send(ctx context.Context, user *domain.User, msg string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if user.Email == "" {
		return fmt.Errorf("user %q has no email address", user.ID)
	}

	s.logger.Info("email sent",
		slog.String("user_id", user.ID),
		slog.String("to", user.Email),
		slog.String("message", msg),
	)
	return nil
}
