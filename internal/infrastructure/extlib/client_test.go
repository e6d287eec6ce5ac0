package extlib

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openshelf/circulate/internal/domain"
	"github.com/openshelf/circulate/internal/reliability/circuitbreaker"
)

func newTestClient() *Client {
	return NewClient(slog.New(slog.NewTextHandler(io.Discard, nil)), nil)
}

func TestCheckAvailability(t *testing.T) {
	t.Run("probe result is cached", func(t *testing.T) {
		c := newTestClient()
		calls := 0
		c.SetProbe(func(string) (bool, error) {
			calls++
			return true, nil
		})

		for i := 0; i < 3; i++ {
			ok, err := c.CheckAvailability(context.Background(), "978-0")
			require.NoError(t, err)
			assert.True(t, ok)
		}
		assert.Equal(t, 1, calls)
	})

	t.Run("distinct isbns probe separately", func(t *testing.T) {
		c := newTestClient()
		c.SetProbe(func(isbn string) (bool, error) {
			return isbn == "978-1", nil
		})

		ok, err := c.CheckAvailability(context.Background(), "978-1")
		require.NoError(t, err)
		assert.True(t, ok)

		ok, err = c.CheckAvailability(context.Background(), "978-2")
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("repeated failures trip the breaker", func(t *testing.T) {
		c := newTestClient()
		c.SetProbe(func(string) (bool, error) {
			return false, errors.New("partner down")
		})

		for i := 0; i < 3; i++ {
			_, err := c.CheckAvailability(context.Background(), "978-3")
			require.Error(t, err)
		}

		_, err := c.CheckAvailability(context.Background(), "978-3")
		assert.ErrorIs(t, err, circuitbreaker.ErrOpen)
	})

	t.Run("cancelled context short-circuits", func(t *testing.T) {
		c := newTestClient()
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		_, err := c.CheckAvailability(ctx, "978-4")
		assert.ErrorIs(t, err, context.Canceled)
	})
}

func TestRequestBook(t *testing.T) {
	log := domain.NewEventLog()
	c := NewClient(slog.New(slog.NewTextHandler(io.Discard, nil)), log)

	require.NoError(t, c.RequestBook(context.Background(), "978-5", "U1"))

	events := log.OfType(domain.EventExternalRequested)
	require.Len(t, events, 1)
	assert.Equal(t, "978-5", events[0].BookID)
	assert.Equal(t, "U1", events[0].UserID)
}
