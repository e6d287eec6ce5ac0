package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestCalculateFine(t *testing.T) {
	borrowed := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	due := borrowed.AddDate(0, 0, 14)

	t.Run("open loan carries no fine", func(t *testing.T) {
		r := NewBorrowRecord(NewBook("Dune", "H", "B1", CategoryGeneral, 1), nil, borrowed, due)
		assert.Zero(t, r.CalculateFine())
	})

	t.Run("on-time return carries no fine", func(t *testing.T) {
		r := NewBorrowRecord(NewBook("Dune", "H", "B1", CategoryGeneral, 1), nil, borrowed, due)
		r.SetReturnDate(due.Add(-time.Hour))
		assert.Zero(t, r.FineAmount())
		assert.False(t, r.ReturnedLate())
	})

	t.Run("full days only at the category rate", func(t *testing.T) {
		cases := []struct {
			category Category
			lateBy   time.Duration
			want     float64
		}{
			{CategoryGeneral, 72 * time.Hour, 3},
			{CategoryGeneral, 71 * time.Hour, 2}, // partial day does not count
			{CategoryJournal, 72 * time.Hour, 6},
			{CategoryRare, 72 * time.Hour, 15},
			{CategoryGeneral, 12 * time.Hour, 0},
		}
		for _, tc := range cases {
			r := NewBorrowRecord(NewBook("Dune", "H", "B1", tc.category, 1), nil, borrowed, due)
			r.SetReturnDate(due.Add(tc.lateBy))
			assert.Equal(t, tc.want, r.FineAmount(), "category %s late by %s", tc.category, tc.lateBy)
		}
	})

	t.Run("blacklisted borrower pays double", func(t *testing.T) {
		user := NewRegularUser("Bad", "U1")
		user.SetStatus(StatusBlacklisted)
		r := NewBorrowRecord(NewBook("Dune", "H", "B1", CategoryJournal, 1), user, borrowed, due)
		r.SetReturnDate(due.Add(48 * time.Hour))
		assert.Equal(t, 8.0, r.FineAmount())
	})

	t.Run("damaged book adds 50 to the per-day rate", func(t *testing.T) {
		book := NewBook("Dune", "H", "B1", CategoryGeneral, 1)
		book.ReportDamage()
		r := NewBorrowRecord(book, nil, borrowed, due)
		r.SetReturnDate(due.Add(48 * time.Hour))
		assert.Equal(t, 102.0, r.FineAmount(), "2 days x (1 + 50)")
	})

	t.Run("damaged rare book with blacklisted borrower", func(t *testing.T) {
		user := NewRegularUser("Bad", "U1")
		user.SetStatus(StatusBlacklisted)
		book := NewBook("Dune", "H", "B1", CategoryRare, 1)
		book.ReportDamage()
		r := NewBorrowRecord(book, user, borrowed, due)
		r.SetReturnDate(due.Add(72 * time.Hour))
		assert.Equal(t, 180.0, r.FineAmount(), "3 days x ((5 x 2) + 50)")
	})

	t.Run("fine freezes at return time", func(t *testing.T) {
		book := NewBook("Dune", "H", "B1", CategoryGeneral, 1)
		r := NewBorrowRecord(book, nil, borrowed, due)
		r.SetReturnDate(due.Add(48 * time.Hour))
		assert.Equal(t, 2.0, r.FineAmount())

		book.ReportDamage()
		assert.Equal(t, 2.0, r.FineAmount(), "later damage must not change the settled fine")
	})
}

func TestExtendDueDate(t *testing.T) {
	borrowed := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	due := borrowed.AddDate(0, 0, 14)
	r := NewBorrowRecord(NewBook("Dune", "H", "B1", CategoryGeneral, 1), nil, borrowed, due)

	r.ExtendDueDate(14)
	assert.Equal(t, due.AddDate(0, 0, 14), r.DueAt())
}

func TestOpenAndReturned(t *testing.T) {
	borrowed := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	r := NewBorrowRecord(NewBook("Dune", "H", "B1", CategoryGeneral, 1), nil, borrowed, borrowed.AddDate(0, 0, 14))

	assert.True(t, r.Open())
	_, closed := r.ReturnedAt()
	assert.False(t, closed)

	r.SetReturnDate(borrowed.AddDate(0, 0, 20))
	assert.False(t, r.Open())
	assert.True(t, r.ReturnedLate())
	at, closed := r.ReturnedAt()
	assert.True(t, closed)
	assert.Equal(t, borrowed.AddDate(0, 0, 20), at)
}
