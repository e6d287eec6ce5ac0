package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/openshelf/circulate/internal/domain"
	"github.com/openshelf/circulate/internal/observability/metrics"
	"github.com/openshelf/circulate/internal/reliability/retry"
)

// Channel is a single notification transport.
type Channel interface {
	Name() string
	Send(ctx context.Context, user *domain.User, msg string) error
}

// NotificationService delivers messages to users, walking a chain of
// channels in order and falling back to in-app delivery when every
// external channel fails. Blacklisted users are never contacted.
type NotificationService struct {
	channels []Channel
	policy   retry.Policy
	logger   *slog.Logger
}

// NewNotificationService creates a notification service that tries the
// given channels in order.
func NewNotificationService(logger *slog.Logger, channels ...Channel) *NotificationService {
	if logger == nil {
		logger = slog.Default()
	}
	return &NotificationService{
		channels: channels,
		policy:   retry.DefaultPolicy(),
		logger:   logger,
	}
}

// SetRetryPolicy overrides the per-channel retry policy.
func (s *NotificationService) SetRetryPolicy(p retry.Policy) { s.policy = p }

// Notify delivers msg to user. Each channel is retried before falling
// through to the next; the in-app inbox is the terminal fallback and
// cannot fail, so Notify only errors for blacklisted recipients.
func (s *NotificationService) Notify(ctx context.Context, user *domain.User, msg string) error {
	if user.Status() == domain.StatusBlacklisted {
		metrics.ObserveNotification("none", "blocked")
		return fmt.Errorf("notify user %q: %w", user.ID, domain.ErrBlacklisted)
	}

	for _, ch := range s.channels {
		err := retry.Do(ctx, s.policy, s.logger, "notify/"+ch.Name(), func(ctx context.Context) error {
			return ch.Send(ctx, user, msg)
		})
		if err == nil {
			metrics.ObserveNotification(ch.Name(), "delivered")
			return nil
		}

		metrics.ObserveNotification(ch.Name(), "failed")
		s.logger.Warn("notification channel exhausted, falling back",
			slog.String("channel", ch.Name()),
			slog.String("user_id", user.ID),
			slog.String("error", err.Error()),
		)
	}

	user.ReceiveNotification(msg)
	metrics.ObserveNotification("in_app", "delivered")
	return nil
}
