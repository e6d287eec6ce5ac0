package domain

import "time"

const damagedPerDaySurcharge = 50.0

// BorrowRecord is a single loan. Identity is fixed at creation; the only
// later mutations are a renewal extending the due date and the one-time
// return that freezes the fine.
type BorrowRecord struct {
	book *Book
	user *User

	borrowedAt time.Time
	dueAt      time.Time
	returnedAt time.Time // zero while the loan is open

	fine         float64
	fineComputed bool
}

// NewBorrowRecord opens a loan of book to user with the given dates.
func NewBorrowRecord(book *Book, user *User, borrowedAt, dueAt time.Time) *BorrowRecord {
	return &BorrowRecord{book: book, user: user, borrowedAt: borrowedAt, dueAt: dueAt}
}

func (r *BorrowRecord) Book() *Book          { return r.book }
func (r *BorrowRecord) User() *User          { return r.user }
func (r *BorrowRecord) BorrowedAt() time.Time { return r.borrowedAt }
func (r *BorrowRecord) DueAt() time.Time      { return r.dueAt }

// ReturnedAt reports the return time, and whether the loan is closed.
func (r *BorrowRecord) ReturnedAt() (time.Time, bool) {
	return r.returnedAt, !r.returnedAt.IsZero()
}

// Open reports whether the loan has not been returned yet.
func (r *BorrowRecord) Open() bool { return r.returnedAt.IsZero() }

// ReturnedLate reports whether the loan was returned after its due date.
func (r *BorrowRecord) ReturnedLate() bool {
	return !r.returnedAt.IsZero() && r.returnedAt.After(r.dueAt)
}

// SetReturnDate closes the loan at t and freezes the fine. The frozen
// amount reflects the book and account state at this moment; a later
// damage report does not change it.
func (r *BorrowRecord) SetReturnDate(t time.Time) {
	r.returnedAt = t
	r.fineComputed = false
	r.CalculateFine()
}

// ExtendDueDate pushes the due date out by the given number of days,
// counted from the current due date rather than from now.
func (r *BorrowRecord) ExtendDueDate(days int) {
	r.dueAt = r.dueAt.AddDate(0, 0, days)
	if r.book != nil {
		r.book.rec.Record(NewEvent(EventDueDateExtended, r.book.ID, r.userID(), "due date extended"))
	}
}

// CalculateFine computes the overdue fine for this loan. The per-day
// rate starts at the category rate, doubles for a blacklisted borrower,
// and gains a 50-per-day surcharge when the book is marked damaged; the
// fine is that rate times the number of full 24h overdue periods.
// The result is cached; repeated calls return the first value.
func (r *BorrowRecord) CalculateFine() float64 {
	if r.fineComputed {
		return r.fine
	}
	if r.returnedAt.IsZero() {
		return 0
	}
	if !r.returnedAt.After(r.dueAt) {
		r.fine = 0
		r.fineComputed = true
		return 0
	}

	overdueDays := int(r.returnedAt.Sub(r.dueAt).Hours() / 24)
	perDay := r.book.Category.FinePerDay()
	if r.user != nil && r.user.Status() == StatusBlacklisted {
		perDay *= 2
	}
	if r.book.IsDamaged() {
		perDay += damagedPerDaySurcharge
	}
	fine := float64(overdueDays) * perDay

	r.fine = fine
	r.fineComputed = true
	return fine
}

// FineAmount returns the frozen fine, computing it on first use.
func (r *BorrowRecord) FineAmount() float64 { return r.CalculateFine() }

func (r *BorrowRecord) userID() string {
	if r.user == nil {
		return ""
	}
	return r.user.ID
}
