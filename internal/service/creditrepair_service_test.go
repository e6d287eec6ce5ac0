package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openshelf/circulate/internal/domain"
)

func TestRepairCredit(t *testing.T) {
	svc := NewCreditRepairService(nil)

	t.Run("payment below minimum is rejected", func(t *testing.T) {
		user := domain.NewRegularUser("Asha", "U1")
		err := svc.RepairCredit(user, 9.99)
		assert.ErrorIs(t, err, domain.ErrInvalidOperation)
		assert.Equal(t, 100, user.CreditScore())
	})

	t.Run("one point per full ten paid", func(t *testing.T) {
		user := domain.NewRegularUser("Asha", "U2")
		user.SetCreditScore(40)

		require.NoError(t, svc.RepairCredit(user, 35))
		assert.Equal(t, 43, user.CreditScore(), "the partial ten does not count")
	})

	t.Run("reaching sixty thaws a frozen account", func(t *testing.T) {
		user := domain.NewRegularUser("Cold", "U3")
		user.SetCreditScore(55)
		user.SetStatus(domain.StatusFrozen)

		require.NoError(t, svc.RepairCredit(user, 50))
		assert.Equal(t, 60, user.CreditScore())
		assert.Equal(t, domain.StatusActive, user.Status())
	})

	t.Run("fifty-nine stays frozen", func(t *testing.T) {
		user := domain.NewRegularUser("Cold", "U4")
		user.SetCreditScore(49)
		user.SetStatus(domain.StatusFrozen)

		require.NoError(t, svc.RepairCredit(user, 100))
		assert.Equal(t, 59, user.CreditScore())
		assert.Equal(t, domain.StatusFrozen, user.Status())
	})

	t.Run("blacklisted accounts cannot repair", func(t *testing.T) {
		user := domain.NewRegularUser("Bad", "U5")
		user.SetStatus(domain.StatusBlacklisted)

		assert.ErrorIs(t, svc.RepairCredit(user, 50), domain.ErrBlacklisted)
	})
}
