package worker

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/openshelf/circulate/internal/service"
)

// OverdueWorker runs a scheduled sweep over open loans and sends
// reminder notifications for anything past due.
type OverdueWorker struct {
	library  *service.LibraryService
	notifier *service.NotificationService
	logger   *slog.Logger
	schedule string
	cron     *cron.Cron
	now      func() time.Time
}

// NewOverdueWorker creates an overdue sweep on a cron schedule
// (e.g. "0 9 * * *" for a daily 9am pass).
func NewOverdueWorker(library *service.LibraryService, notifier *service.NotificationService, logger *slog.Logger, schedule string) *OverdueWorker {
	return &OverdueWorker{
		library:  library,
		notifier: notifier,
		logger:   logger,
		schedule: schedule,
		now:      time.Now,
	}
}

// SetClock replaces the time source, for tests.
func (w *OverdueWorker) SetClock(now func() time.Time) {
	if now != nil {
		w.now = now
	}
}

// Start schedules the sweep and blocks until ctx is cancelled.
func (w *OverdueWorker) Start(ctx context.Context) error {
	w.cron = cron.New()
	_, err := w.cron.AddFunc(w.schedule, func() { w.Sweep(ctx) })
	if err != nil {
		return fmt.Errorf("invalid overdue sweep schedule %q: %w", w.schedule, err)
	}

	w.cron.Start()
	w.logger.Info("overdue worker started", slog.String("schedule", w.schedule))

	<-ctx.Done()
	stopCtx := w.cron.Stop()
	<-stopCtx.Done()
	w.logger.Info("overdue worker stopped")
	return nil
}

// Sweep runs one reminder pass over every member's open loans.
func (w *OverdueWorker) Sweep(ctx context.Context) {
	now := w.now()
	reminded := 0

	for _, user := range w.library.ListUsers() {
		for _, record := range user.Records() {
			if !record.Open() || !now.After(record.DueAt()) {
				continue
			}

			days := int(now.Sub(record.DueAt()).Hours() / 24)
			msg := fmt.Sprintf("Your loan of %q is %d day(s) overdue. Please return it to avoid further fines.",
				record.Book().Title, days)
			if err := w.notifier.Notify(ctx, user, msg); err != nil {
				w.logger.Warn("overdue reminder failed",
					slog.String("user_id", user.ID),
					slog.String("book_id", record.Book().ID),
					slog.String("error", err.Error()),
				)
				continue
			}
			reminded++
		}
	}

	if reminded > 0 {
		w.logger.Info("overdue sweep complete", slog.Int("reminders", reminded))
	}
}
