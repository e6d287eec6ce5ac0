package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func TestBorrowBook(t *testing.T) {
	t.Run("happy path opens a loan and rewards credit", func(t *testing.T) {
		user := NewRegularUser("Asha", "U1")
		book := NewBook("Dune", "Herbert", "B1", CategoryGeneral, 2)

		require.NoError(t, user.BorrowBook(book, nil))

		assert.Equal(t, 1, book.AvailableCopies())
		assert.Equal(t, 101, user.CreditScore())
		record := user.FindBorrowRecord(book)
		require.NotNil(t, record)
		assert.Equal(t, record.BorrowedAt().AddDate(0, 0, 14), record.DueAt())
	})

	t.Run("vip loan period is 30 days", func(t *testing.T) {
		user := NewVIPUser("Vik", "U2")
		book := NewBook("Dune", "Herbert", "B1", CategoryGeneral, 1)

		require.NoError(t, user.BorrowBook(book, nil))

		record := user.FindBorrowRecord(book)
		require.NotNil(t, record)
		assert.Equal(t, record.BorrowedAt().AddDate(0, 0, 30), record.DueAt())
		assert.Equal(t, 102, user.CreditScore())
	})

	t.Run("blacklisted account is refused", func(t *testing.T) {
		user := NewRegularUser("Bad", "U3")
		user.SetStatus(StatusBlacklisted)
		book := NewBook("Dune", "Herbert", "B1", CategoryGeneral, 1)

		assert.ErrorIs(t, user.BorrowBook(book, nil), ErrBlacklisted)
	})

	t.Run("frozen account is refused", func(t *testing.T) {
		user := NewRegularUser("Cold", "U4")
		user.SetStatus(StatusFrozen)
		book := NewBook("Dune", "Herbert", "B1", CategoryGeneral, 1)

		assert.ErrorIs(t, user.BorrowBook(book, nil), ErrAccountFrozen)
	})

	t.Run("fines above 50 freeze the account", func(t *testing.T) {
		user := NewRegularUser("Debt", "U5")
		user.SetFines(51)
		book := NewBook("Dune", "Herbert", "B1", CategoryGeneral, 1)

		err := user.BorrowBook(book, nil)
		assert.ErrorIs(t, err, ErrOverdueFine)
		assert.Equal(t, StatusFrozen, user.Status())
	})

	t.Run("fines of exactly 50 still borrow", func(t *testing.T) {
		user := NewRegularUser("Edge", "U6")
		user.SetFines(50)
		book := NewBook("Dune", "Herbert", "B1", CategoryGeneral, 1)

		require.NoError(t, user.BorrowBook(book, nil))
		assert.Equal(t, StatusActive, user.Status())
	})

	t.Run("regular credit floor is 60", func(t *testing.T) {
		user := NewRegularUser("Low", "U7")
		user.SetCreditScore(59)
		book := NewBook("Dune", "Herbert", "B1", CategoryGeneral, 1)

		assert.ErrorIs(t, user.BorrowBook(book, nil), ErrInsufficientCredit)

		user.SetCreditScore(60)
		assert.NoError(t, user.BorrowBook(book, nil))
	})

	t.Run("vip credit floor is 50", func(t *testing.T) {
		user := NewVIPUser("Vik", "U8")
		user.SetCreditScore(49)
		book := NewBook("Dune", "Herbert", "B1", CategoryGeneral, 1)

		assert.ErrorIs(t, user.BorrowBook(book, nil), ErrInsufficientCredit)

		user.SetCreditScore(50)
		assert.NoError(t, user.BorrowBook(book, nil))
	})

	t.Run("rare books are vip only", func(t *testing.T) {
		rare := NewBook("Folio", "Anon", "B2", CategoryRare, 1)

		regular := NewRegularUser("Reg", "U9")
		assert.ErrorIs(t, regular.BorrowBook(rare, nil), ErrInvalidOperation)

		vip := NewVIPUser("Vik", "U10")
		assert.NoError(t, vip.BorrowBook(rare, nil))
	})

	t.Run("loan limit of 5 for regular members", func(t *testing.T) {
		user := NewRegularUser("Max", "U11")
		for i := 0; i < 5; i++ {
			book := NewBook("Vol", "A", string(rune('a'+i)), CategoryGeneral, 1)
			require.NoError(t, user.BorrowBook(book, nil))
		}

		extra := NewBook("One More", "A", "B3", CategoryGeneral, 1)
		assert.ErrorIs(t, user.BorrowBook(extra, nil), ErrInvalidOperation)
	})

	t.Run("unavailable book is refused", func(t *testing.T) {
		user := NewRegularUser("Late", "U12")
		book := NewBook("Gone", "A", "B4", CategoryGeneral, 0)

		assert.ErrorIs(t, user.BorrowBook(book, nil), ErrBookNotAvailable)
	})

	t.Run("available signal with no copies joins the waitlist", func(t *testing.T) {
		user := NewRegularUser("Wait", "U13")
		log := NewEventLog()
		user.SetRecorder(log)
		arena := NewReservationArena()

		book := NewBook("Hot", "A", "B5", CategoryGeneral, 0)
		book.SetAvailabilityProbe(func() bool { return true })

		require.NoError(t, user.BorrowBook(book, arena))

		assert.True(t, book.HasReservations())
		assert.Len(t, user.Reservations(), 1)
		assert.Nil(t, user.FindBorrowRecord(book))
		assert.Len(t, log.OfType(EventReservationWaitlist), 1)
	})
}

func TestReturnBook(t *testing.T) {
	borrow := func(t *testing.T, user *User, book *Book, at time.Time) {
		t.Helper()
		user.SetClock(fixedClock(at))
		require.NoError(t, user.BorrowBook(book, nil))
	}

	t.Run("on-time return rewards credit and closes the record", func(t *testing.T) {
		start := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
		user := NewRegularUser("Asha", "U1")
		book := NewBook("Dune", "Herbert", "B1", CategoryGeneral, 1)
		borrow(t, user, book, start)

		user.SetClock(fixedClock(start.AddDate(0, 0, 10)))
		require.NoError(t, user.ReturnBook(book))

		assert.Equal(t, 103, user.CreditScore()) // +1 borrow, +2 on time
		assert.Equal(t, 1, book.AvailableCopies())
		assert.Empty(t, user.Records())
	})

	t.Run("late return fines per day and deducts credit", func(t *testing.T) {
		start := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
		user := NewRegularUser("Late", "U2")
		book := NewBook("Dune", "Herbert", "B1", CategoryGeneral, 1)
		borrow(t, user, book, start)

		user.SetClock(fixedClock(start.AddDate(0, 0, 17))) // 3 days past due
		require.NoError(t, user.ReturnBook(book))

		assert.Equal(t, 3.0, user.Fines())
		assert.Equal(t, 96, user.CreditScore()) // 101 - 5
		assert.Equal(t, StatusActive, user.Status())
	})

	t.Run("credit dropping below 50 freezes", func(t *testing.T) {
		start := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
		user := NewRegularUser("Frost", "U3")
		user.SetCreditScore(60)
		book := NewBook("Dune", "Herbert", "B1", CategoryGeneral, 1)
		borrow(t, user, book, start) // credit now 61

		user.SetClock(fixedClock(start.AddDate(0, 0, 20)))
		require.NoError(t, user.ReturnBook(book))

		assert.Equal(t, 56, user.CreditScore())
		assert.Equal(t, StatusActive, user.Status())

		// Credit eroded further while a second loan was out.
		user.SetCreditScore(60)
		borrow(t, user, book, start)
		user.SetCreditScore(52)
		user.SetClock(fixedClock(start.AddDate(0, 0, 20)))
		require.NoError(t, user.ReturnBook(book))
		assert.Equal(t, 47, user.CreditScore())
		assert.Equal(t, StatusFrozen, user.Status())
	})

	t.Run("fines above 100 freeze and keep the record", func(t *testing.T) {
		start := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
		user := NewRegularUser("Debt", "U4")
		book := NewBook("Dune", "Herbert", "B1", CategoryGeneral, 1)
		borrow(t, user, book, start)
		user.SetFines(99)

		user.SetClock(fixedClock(start.AddDate(0, 0, 17)))
		err := user.ReturnBook(book)
		assert.ErrorIs(t, err, ErrOverdueFine)
		assert.Equal(t, StatusFrozen, user.Status())
		assert.Equal(t, 102.0, user.Fines())
		assert.Equal(t, 1, book.AvailableCopies(), "copy is back on the shelf despite the error")
		assert.Len(t, user.Records(), 1, "record survives for settlement")
	})

	t.Run("fines of exactly 100 do not freeze", func(t *testing.T) {
		start := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
		user := NewRegularUser("Edge", "U5")
		book := NewBook("Dune", "Herbert", "B1", CategoryGeneral, 1)
		borrow(t, user, book, start)
		user.SetFines(97)

		user.SetClock(fixedClock(start.AddDate(0, 0, 17)))
		require.NoError(t, user.ReturnBook(book))
		assert.Equal(t, 100.0, user.Fines())
		assert.Equal(t, StatusActive, user.Status())
	})

	t.Run("renewal does not waive the account-level overdue charge", func(t *testing.T) {
		start := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
		user := NewRegularUser("Renew", "U6")
		book := NewBook("Dune", "Herbert", "B1", CategoryGeneral, 1)
		borrow(t, user, book, start)

		record := user.FindBorrowRecord(book)
		record.ExtendDueDate(14)

		// Inside the extended window, but six days past the base period.
		user.SetClock(fixedClock(start.AddDate(0, 0, 20)))
		require.NoError(t, user.ReturnBook(book))
		assert.Equal(t, 6.0, user.Fines())
		assert.Zero(t, record.FineAmount(), "the record's own fine respects the renewed due date")
	})

	t.Run("returning without a loan fails", func(t *testing.T) {
		user := NewRegularUser("None", "U7")
		book := NewBook("Dune", "Herbert", "B1", CategoryGeneral, 1)

		assert.ErrorIs(t, user.ReturnBook(book), ErrInvalidOperation)
	})
}

func TestPayFine(t *testing.T) {
	t.Run("partial payment leaves the account frozen", func(t *testing.T) {
		user := NewRegularUser("Debt", "U1")
		user.SetFines(60)
		user.SetStatus(StatusFrozen)

		require.NoError(t, user.PayFine(20))
		assert.Equal(t, 40.0, user.Fines())
		assert.Equal(t, StatusFrozen, user.Status())
	})

	t.Run("clearing the balance thaws", func(t *testing.T) {
		user := NewRegularUser("Debt", "U2")
		user.SetFines(60)
		user.SetStatus(StatusFrozen)
		log := NewEventLog()
		user.SetRecorder(log)

		require.NoError(t, user.PayFine(60))
		assert.Zero(t, user.Fines())
		assert.Equal(t, StatusActive, user.Status())
		assert.Len(t, log.OfType(EventAccountRestored), 1)
	})

	t.Run("overpayment is rejected", func(t *testing.T) {
		user := NewRegularUser("Debt", "U3")
		user.SetFines(10)

		assert.ErrorIs(t, user.PayFine(10.01), ErrInvalidOperation)
		assert.Equal(t, 10.0, user.Fines())
	})

	t.Run("blacklisted accounts cannot pay", func(t *testing.T) {
		user := NewRegularUser("Bad", "U4")
		user.SetStatus(StatusBlacklisted)
		user.SetFines(10)

		assert.ErrorIs(t, user.PayFine(10), ErrBlacklisted)
	})
}

func TestCreditScoreAdjustments(t *testing.T) {
	t.Run("deduction floors at zero and freezes below 50", func(t *testing.T) {
		user := NewRegularUser("Low", "U1")
		user.SetCreditScore(30)

		require.NoError(t, user.DeductScore(40))
		assert.Zero(t, user.CreditScore())
		assert.Equal(t, StatusFrozen, user.Status())
	})

	t.Run("deduction to exactly 50 does not freeze", func(t *testing.T) {
		user := NewRegularUser("Edge", "U2")
		require.NoError(t, user.DeductScore(50))
		assert.Equal(t, 50, user.CreditScore())
		assert.Equal(t, StatusActive, user.Status())
	})

	t.Run("blacklisted accounts reject adjustments", func(t *testing.T) {
		user := NewRegularUser("Bad", "U3")
		user.SetStatus(StatusBlacklisted)

		assert.ErrorIs(t, user.AddScore(5), ErrBlacklisted)
		assert.ErrorIs(t, user.DeductScore(5), ErrBlacklisted)
	})
}

func TestReservations(t *testing.T) {
	t.Run("reserve and cancel round trip", func(t *testing.T) {
		user := NewRegularUser("Res", "U1")
		book := NewBook("Dune", "Herbert", "B1", CategoryGeneral, 1)
		arena := NewReservationArena()

		require.NoError(t, user.ReserveBook(book, arena))
		assert.True(t, book.HasReservations())
		assert.Equal(t, 1, arena.Len())

		require.NoError(t, user.CancelReservation(book, arena))
		assert.False(t, book.HasReservations())
		assert.Empty(t, user.Reservations())
		assert.Zero(t, arena.Len())
	})

	t.Run("cancelling a missing reservation fails", func(t *testing.T) {
		user := NewRegularUser("Res", "U2")
		book := NewBook("Dune", "Herbert", "B1", CategoryGeneral, 1)
		arena := NewReservationArena()

		assert.ErrorIs(t, user.CancelReservation(book, arena), ErrInvalidOperation)
	})

	t.Run("reserve is gated by status and credit", func(t *testing.T) {
		book := NewBook("Dune", "Herbert", "B1", CategoryGeneral, 1)
		arena := NewReservationArena()

		frozen := NewRegularUser("Cold", "U3")
		frozen.SetStatus(StatusFrozen)
		assert.ErrorIs(t, frozen.ReserveBook(book, arena), ErrAccountFrozen)

		broke := NewRegularUser("Broke", "U4")
		broke.SetCreditScore(49)
		assert.ErrorIs(t, broke.ReserveBook(book, arena), ErrInsufficientCredit)
	})

	t.Run("duplicate reservations by the same user are permitted", func(t *testing.T) {
		user := NewRegularUser("Dup", "U5")
		book := NewBook("Dune", "Herbert", "B1", CategoryGeneral, 1)
		arena := NewReservationArena()

		require.NoError(t, user.ReserveBook(book, arena))
		require.NoError(t, user.ReserveBook(book, arena))
		assert.Len(t, book.Reservations(), 2)
	})
}

func TestReceiveNotification(t *testing.T) {
	log := NewEventLog()

	user := NewRegularUser("Asha", "U1")
	user.SetRecorder(log)
	user.ReceiveNotification("your book is ready")
	assert.Len(t, log.OfType(EventNotificationSent), 1)

	user.SetStatus(StatusBlacklisted)
	user.ReceiveNotification("ignored")
	assert.Len(t, log.OfType(EventNotificationBlocked), 1)
	assert.Len(t, log.OfType(EventNotificationSent), 1)
}
