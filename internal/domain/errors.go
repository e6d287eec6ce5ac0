package domain

import "errors"

// Circulation rule violations. Operations wrap these with context via
// fmt.Errorf("...: %w", Err...) so callers branch with errors.Is.
var (
	// ErrAccountFrozen rejects operations attempted while the account is FROZEN.
	ErrAccountFrozen = errors.New("account is frozen")

	// ErrBlacklisted rejects operations attempted while the account is
	// BLACKLISTED. There is no transition back from BLACKLISTED.
	ErrBlacklisted = errors.New("account is blacklisted")

	// ErrBookNotAvailable means the book's inventory is exhausted or the
	// copy is unusable (damaged, under repair).
	ErrBookNotAvailable = errors.New("book is not available")

	// ErrInsufficientCredit means the credit score is below the tier threshold.
	ErrInsufficientCredit = errors.New("insufficient credit score")

	// ErrInvalidOperation covers violated preconditions: loan limits,
	// missing records, duplicate state, category restrictions.
	ErrInvalidOperation = errors.New("invalid operation")

	// ErrOverdueFine means an outstanding-fines threshold was breached.
	// The account is frozen before this error is returned.
	ErrOverdueFine = errors.New("outstanding fines exceed limit")

	// ErrNotFound means the referenced book or user is not registered.
	ErrNotFound = errors.New("not found")

	// ErrReservationNotAllowed is reserved for a duplicate-reservation
	// policy. No code path returns it today; the permissive behavior is
	// deliberate pending a product decision.
	ErrReservationNotAllowed = errors.New("reservation not allowed")
)
