package extlib

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand"
	"time"

	"github.com/openshelf/circulate/internal/domain"
	"github.com/openshelf/circulate/internal/reliability/circuitbreaker"
	"github.com/openshelf/circulate/pkg/cache"
)

const availabilityTTL = 30 * time.Second

// Client talks to a partner library's catalog. The real integration is
// stubbed: availability is probabilistic unless a probe is injected.
// Lookups go through a circuit breaker and a short-lived cache so a
// flapping partner does not stall reservation processing.
type Client struct {
	breaker *circuitbreaker.Breaker
	results *cache.Cache[bool]
	probe   func(isbn string) (bool, error)
	rec     domain.Recorder
	logger  *slog.Logger
}

// NewClient creates a catalog client with the default random probe.
func NewClient(logger *slog.Logger, rec domain.Recorder) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	if rec == nil {
		rec = domain.NopRecorder()
	}
	c := &Client{
		breaker: circuitbreaker.New(3, 1, 15*time.Second),
		results: cache.New[bool](),
		rec:     rec,
		logger:  logger,
	}
	c.probe = func(string) (bool, error) { return rand.Intn(2) == 0, nil }

	c.breaker.OnTransition(func(from, to circuitbreaker.State) {
		logger.Warn("partner catalog circuit state changed",
			slog.String("from", from.String()),
			slog.String("to", to.String()),
		)
	})
	return c
}

// SetProbe overrides the availability lookup, for tests.
func (c *Client) SetProbe(probe func(isbn string) (bool, error)) {
	if probe != nil {
		c.probe = probe
	}
}

// CheckAvailability reports whether the partner catalog holds a lendable
// copy of the given ISBN. Results are cached briefly.
func (c *Client) CheckAvailability(ctx context.Context, isbn string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}

	key := "extlib:" + isbn
	if v, ok := c.results.Get(key); ok {
		return v, nil
	}

	var available bool
	err := c.breaker.Do(func() error {
		var probeErr error
		available, probeErr = c.probe(isbn)
		return probeErr
	})
	if err != nil {
		return false, fmt.Errorf("partner catalog lookup for %q: %w", isbn, err)
	}

	c.results.Set(key, available, availabilityTTL)
	return available, nil
}

// RequestBook places an inter-library loan request for the given ISBN on
// behalf of a user.
func (c *Client) RequestBook(ctx context.Context, isbn, userID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	c.logger.Info("inter-library loan requested",
		slog.String("isbn", isbn),
		slog.String("user_id", userID),
	)
	c.rec.Record(domain.Event{
		Type:    domain.EventExternalRequested,
		At:      time.Now(),
		BookID:  isbn,
		UserID:  userID,
		Message: "requested from partner library",
	})
	return nil
}
