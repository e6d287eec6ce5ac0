package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openshelf/circulate/internal/domain"
)

// chargeRecorder captures settlement amounts passed through PayFine.
type chargeRecorder struct {
	hasLoan bool
	fines   float64
	paid    []float64
}

func (c *chargeRecorder) HasOpenLoan(*domain.Book) bool { return c.hasLoan }
func (c *chargeRecorder) Fines() float64                { return c.fines }
func (c *chargeRecorder) SetFines(amount float64)       { c.fines = amount }
func (c *chargeRecorder) PayFine(amount float64) error {
	c.paid = append(c.paid, amount)
	c.fines -= amount
	return nil
}

func TestReportLost(t *testing.T) {
	svc := NewInventoryService(nil)

	t.Run("charges fifty per copy and retires one", func(t *testing.T) {
		book := domain.NewBook("Dune", "Herbert", "B1", domain.CategoryGeneral, 3)
		borrower := &chargeRecorder{hasLoan: true}

		require.NoError(t, svc.ReportLost(borrower, book))

		assert.Equal(t, []float64{150}, borrower.paid)
		assert.Zero(t, borrower.fines, "the charge settles immediately")
		assert.Equal(t, 2, book.TotalCopies())
	})

	t.Run("requires an open loan", func(t *testing.T) {
		book := domain.NewBook("Dune", "Herbert", "B1", domain.CategoryGeneral, 3)
		borrower := &chargeRecorder{hasLoan: false}

		assert.ErrorIs(t, svc.ReportLost(borrower, book), domain.ErrInvalidOperation)
		assert.Empty(t, borrower.paid)
		assert.Equal(t, 3, book.TotalCopies())
	})

	t.Run("works against a real account", func(t *testing.T) {
		user := domain.NewRegularUser("Asha", "U1")
		book := domain.NewBook("Dune", "Herbert", "B1", domain.CategoryGeneral, 2)
		require.NoError(t, user.BorrowBook(book, nil))

		require.NoError(t, svc.ReportLost(user, book))
		assert.Zero(t, user.Fines())
		assert.Equal(t, 1, book.TotalCopies())
		assert.Zero(t, book.AvailableCopies(), "the lost copy was the one on loan")
	})
}

func TestReportDamaged(t *testing.T) {
	svc := NewInventoryService(nil)

	t.Run("flat charge and repair state", func(t *testing.T) {
		book := domain.NewBook("Dune", "Herbert", "B1", domain.CategoryGeneral, 1)
		borrower := &chargeRecorder{hasLoan: true}

		require.NoError(t, svc.ReportDamaged(borrower, book))

		assert.Equal(t, []float64{30}, borrower.paid)
		assert.False(t, book.IsDamaged(), "repair does not flag the book as damaged")
		assert.True(t, book.InRepair())
		assert.False(t, book.IsAvailable())
	})

	t.Run("requires an open loan", func(t *testing.T) {
		book := domain.NewBook("Dune", "Herbert", "B1", domain.CategoryGeneral, 1)
		borrower := &chargeRecorder{hasLoan: false}

		assert.ErrorIs(t, svc.ReportDamaged(borrower, book), domain.ErrInvalidOperation)
		assert.False(t, book.InRepair())
	})
}
