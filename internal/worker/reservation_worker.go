package worker

import (
	"context"
	"log/slog"
	"time"

	"github.com/openshelf/circulate/internal/service"
)

// ReservationWorker periodically sweeps the catalog and fulfills
// reservation queues for books with copies on the shelf.
type ReservationWorker struct {
	library  *service.LibraryService
	logger   *slog.Logger
	interval time.Duration
}

// NewReservationWorker creates a reservation fulfillment worker.
func NewReservationWorker(library *service.LibraryService, logger *slog.Logger, interval time.Duration) *ReservationWorker {
	return &ReservationWorker{
		library:  library,
		logger:   logger,
		interval: interval,
	}
}

// Start begins the fulfillment loop. It blocks until ctx is cancelled.
func (w *ReservationWorker) Start(ctx context.Context) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	w.logger.Info("reservation worker started", slog.Duration("interval", w.interval))

	for {
		select {
		case <-ctx.Done():
			w.logger.Info("reservation worker stopped")
			return
		case <-ticker.C:
			w.sweep(ctx)
		}
	}
}

// sweep runs one fulfillment pass across every queued book.
func (w *ReservationWorker) sweep(ctx context.Context) {
	ids := w.library.BooksWithReservations()
	if len(ids) == 0 {
		return
	}

	w.logger.Debug("processing reservation queues", slog.Int("books", len(ids)))
	for _, id := range ids {
		if err := w.library.ProcessReservations(ctx, id); err != nil {
			w.logger.Error("reservation pass failed",
				slog.String("book_id", id),
				slog.String("error", err.Error()),
			)
		}
	}
}
