package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCategoryFinePerDay(t *testing.T) {
	assert.Equal(t, 1.0, CategoryGeneral.FinePerDay())
	assert.Equal(t, 2.0, CategoryJournal.FinePerDay())
	assert.Equal(t, 5.0, CategoryRare.FinePerDay())
}

func TestBookAvailability(t *testing.T) {
	t.Run("in stock", func(t *testing.T) {
		book := NewBook("Dune", "Herbert", "B1", CategoryGeneral, 1)
		assert.True(t, book.IsAvailable())
	})

	t.Run("no copies", func(t *testing.T) {
		book := NewBook("Dune", "Herbert", "B1", CategoryGeneral, 0)
		log := NewEventLog()
		book.SetRecorder(log)

		assert.False(t, book.IsAvailable())
		assert.Len(t, log.OfType(EventBookUnavailable), 1)
	})

	t.Run("damaged", func(t *testing.T) {
		book := NewBook("Dune", "Herbert", "B1", CategoryGeneral, 1)
		book.ReportDamage()
		assert.False(t, book.IsAvailable())
	})

	t.Run("under repair", func(t *testing.T) {
		book := NewBook("Dune", "Herbert", "B1", CategoryGeneral, 1)
		book.ReportRepair()
		assert.False(t, book.IsAvailable())
	})

	t.Run("probe overrides the derived signal", func(t *testing.T) {
		book := NewBook("Dune", "Herbert", "B1", CategoryGeneral, 0)
		book.SetAvailabilityProbe(func() bool { return true })
		assert.True(t, book.IsAvailable())
	})
}

func TestBookBorrowReturn(t *testing.T) {
	book := NewBook("Dune", "Herbert", "B1", CategoryGeneral, 2)

	require.NoError(t, book.Borrow())
	require.NoError(t, book.Borrow())
	assert.Zero(t, book.AvailableCopies())

	assert.ErrorIs(t, book.Borrow(), ErrBookNotAvailable)

	require.NoError(t, book.Return())
	require.NoError(t, book.Return())
	assert.Equal(t, 2, book.AvailableCopies())

	assert.ErrorIs(t, book.Return(), ErrInvalidOperation)
}

func TestBookRemoveCopy(t *testing.T) {
	book := NewBook("Dune", "Herbert", "B1", CategoryGeneral, 2)

	book.RemoveCopy()
	assert.Equal(t, 1, book.TotalCopies())
	assert.Equal(t, 1, book.AvailableCopies())

	require.NoError(t, book.Borrow())
	book.RemoveCopy()
	assert.Zero(t, book.TotalCopies())
	assert.Zero(t, book.AvailableCopies())

	// Draining an empty book stays at zero.
	book.RemoveCopy()
	assert.Zero(t, book.TotalCopies())
	assert.Zero(t, book.AvailableCopies())
}

func TestDamageAndRepairAreIdempotent(t *testing.T) {
	book := NewBook("Dune", "Herbert", "B1", CategoryGeneral, 1)
	log := NewEventLog()
	book.SetRecorder(log)

	book.ReportDamage()
	book.ReportDamage()
	assert.True(t, book.IsDamaged())
	assert.Len(t, log.OfType(EventDamageReported), 1)
	assert.Len(t, log.OfType(EventDamageDuplicate), 1)

	book.ReportRepair()
	book.ReportRepair()
	assert.True(t, book.InRepair())
	assert.Len(t, log.OfType(EventRepairReported), 1)
	assert.Len(t, log.OfType(EventRepairDuplicate), 1)
}

func TestBookReservationQueue(t *testing.T) {
	book := NewBook("Dune", "Herbert", "B1", CategoryGeneral, 1)
	log := NewEventLog()
	book.SetRecorder(log)

	book.AddReservation(1)
	book.AddReservation(2)
	assert.Equal(t, []ReservationID{1, 2}, book.Reservations())

	book.RemoveReservation(1)
	assert.Equal(t, []ReservationID{2}, book.Reservations())

	book.RemoveReservation(99)
	assert.Len(t, log.OfType(EventReservationMissing), 1)
	assert.True(t, book.HasReservations())
}
