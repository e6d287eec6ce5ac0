package domain

import (
	"fmt"
	"time"
)

// AccountStatus is the user account state. ACTIVE and FROZEN flip back and
// forth as side effects of credit and fine operations; BLACKLISTED is
// terminal in this core.
type AccountStatus string

const (
	StatusActive      AccountStatus = "ACTIVE"
	StatusFrozen      AccountStatus = "FROZEN"
	StatusBlacklisted AccountStatus = "BLACKLISTED"
)

// Tier selects the borrowing policy for a user.
type Tier string

const (
	TierRegular Tier = "REGULAR"
	TierVIP     Tier = "VIP"
)

// tierPolicy carries every tier-specific constant so the state machine
// itself is written once.
type tierPolicy struct {
	loanDays    int
	maxLoans    int
	creditFloor int // minimum credit score to borrow
	borrowBonus int // credit gained on a successful borrow
	onTimeBonus int // credit gained on an on-time return
	latePenalty int // credit lost on a late return
}

var tierPolicies = map[Tier]tierPolicy{
	TierRegular: {loanDays: 14, maxLoans: 5, creditFloor: 60, borrowBonus: 1, onTimeBonus: 2, latePenalty: 5},
	TierVIP:     {loanDays: 30, maxLoans: 10, creditFloor: 50, borrowBonus: 2, onTimeBonus: 3, latePenalty: 3},
}

const (
	initialCreditScore = 100
	borrowFineLimit    = 50  // fines strictly above this block borrowing
	returnFineLimit    = 100 // fines strictly above this freeze on return
	freezeCreditFloor  = 50  // credit strictly below this freezes
	reserveCreditFloor = 50
)

// User is a library account: credit score, outstanding fines, the loan
// list, and the borrow/return/reserve state machine. Tier-specific
// behavior comes from the policy table, not from separate user kinds.
type User struct {
	ID    string
	Name  string
	Email string
	Phone string

	tier        Tier
	status      AccountStatus
	creditScore int
	fines       float64

	records      []*BorrowRecord
	reservations []ReservationID

	rec Recorder
	now func() time.Time
}

// NewRegularUser creates an active regular account with full credit.
func NewRegularUser(name, id string) *User { return newUser(name, id, TierRegular) }

// NewVIPUser creates an active VIP account with full credit.
func NewVIPUser(name, id string) *User { return newUser(name, id, TierVIP) }

func newUser(name, id string, tier Tier) *User {
	return &User{
		ID:          id,
		Name:        name,
		tier:        tier,
		status:      StatusActive,
		creditScore: initialCreditScore,
		rec:         nopRecorder{},
		now:         time.Now,
	}
}

func (u *User) policy() tierPolicy { return tierPolicies[u.tier] }

func (u *User) Tier() Tier            { return u.tier }
func (u *User) IsVIP() bool           { return u.tier == TierVIP }
func (u *User) Status() AccountStatus { return u.status }
func (u *User) CreditScore() int      { return u.creditScore }
func (u *User) Fines() float64        { return u.fines }
func (u *User) LoanPeriodDays() int   { return u.policy().loanDays }

// SetStatus overrides the account status. Used by administrative flows
// and tests; normal transitions happen inside the operations below.
func (u *User) SetStatus(s AccountStatus) { u.status = s }

// SetCreditScore overrides the credit score without side effects.
func (u *User) SetCreditScore(score int) { u.creditScore = score }

// SetFines overrides the outstanding fine balance without side effects.
func (u *User) SetFines(amount float64) { u.fines = amount }

// SetRecorder routes the user's events to r.
func (u *User) SetRecorder(r Recorder) {
	if r == nil {
		r = nopRecorder{}
	}
	u.rec = r
}

// SetClock replaces the time source, for deterministic overdue tests.
func (u *User) SetClock(now func() time.Time) {
	if now != nil {
		u.now = now
	}
}

// Records returns the user's loan list. Closed records normally leave the
// list on return; one survives only when the return itself tripped the
// fine limit.
func (u *User) Records() []*BorrowRecord {
	out := make([]*BorrowRecord, len(u.records))
	copy(out, u.records)
	return out
}

// AddRecord attaches an existing loan record to the user.
func (u *User) AddRecord(r *BorrowRecord) { u.records = append(u.records, r) }

// Reservations returns the user's live reservation handles.
func (u *User) Reservations() []ReservationID {
	out := make([]ReservationID, len(u.reservations))
	copy(out, u.reservations)
	return out
}

// FindBorrowRecord returns the user's open loan of book, or nil.
func (u *User) FindBorrowRecord(book *Book) *BorrowRecord {
	for _, r := range u.records {
		if r.Book() == book && r.Open() {
			return r
		}
	}
	return nil
}

// HasOpenLoan reports whether the user currently holds a copy of book.
func (u *User) HasOpenLoan(book *Book) bool { return u.FindBorrowRecord(book) != nil }

func (u *User) openLoanCount() int {
	n := 0
	for _, r := range u.records {
		if r.Open() {
			n++
		}
	}
	return n
}

func (u *User) freeze() {
	u.status = StatusFrozen
	u.rec.Record(NewEvent(EventAccountFrozen, "", u.ID, "account has been frozen"))
}

// BorrowBook runs the borrow state machine against book. On success the
// book loses a copy, a loan record is opened for the tier's loan period,
// and the borrower earns the tier's credit bonus.
func (u *User) BorrowBook(book *Book, arena *ReservationArena) error {
	pol := u.policy()

	if u.status == StatusBlacklisted {
		return fmt.Errorf("borrow: %w", ErrBlacklisted)
	}
	if u.status == StatusFrozen {
		return fmt.Errorf("borrow: %w", ErrAccountFrozen)
	}
	if u.fines > borrowFineLimit {
		// Freeze first so the error and the state change are observed together.
		u.freeze()
		return fmt.Errorf("the fine is too high and the account has been frozen: %w", ErrOverdueFine)
	}
	if u.creditScore < pol.creditFloor {
		return fmt.Errorf("credit score %d below %d: %w", u.creditScore, pol.creditFloor, ErrInsufficientCredit)
	}
	if book.Category == CategoryRare && !u.IsVIP() {
		return fmt.Errorf("rare books are restricted to VIP accounts: %w", ErrInvalidOperation)
	}
	if u.openLoanCount() >= pol.maxLoans {
		return fmt.Errorf("loan limit of %d reached: %w", pol.maxLoans, ErrInvalidOperation)
	}

	if !book.IsAvailable() {
		return fmt.Errorf("the book is unavailable and cannot be borrowed: %w", ErrBookNotAvailable)
	}
	if book.AvailableCopies() == 0 {
		// The availability signal and the stock counter disagree: the
		// book claims lendable while no copies remain. The request joins
		// the reservation queue instead of failing.
		if arena != nil {
			r := arena.Create(book, u)
			book.AddReservation(r.ID())
			u.reservations = append(u.reservations, r.ID())
		}
		u.rec.Record(NewEvent(EventReservationWaitlist, book.ID, u.ID, "no copies on shelf, added to the reservation queue"))
		return nil
	}

	if err := book.Borrow(); err != nil {
		return err
	}

	borrowedAt := u.now()
	record := NewBorrowRecord(book, u, borrowedAt, borrowedAt.AddDate(0, 0, pol.loanDays))
	u.records = append(u.records, record)
	u.creditScore += pol.borrowBonus
	return nil
}

// ReturnBook closes the user's open loan of book, settling overdue fines
// and credit before the record leaves the loan list. A fine balance above
// the return limit freezes the account and surfaces as an error after the
// book is back on the shelf.
func (u *User) ReturnBook(book *Book) error {
	record := u.FindBorrowRecord(book)
	if record == nil {
		return fmt.Errorf("no open loan of %q: %w", book.Title, ErrInvalidOperation)
	}

	pol := u.policy()
	returnedAt := u.now()
	record.SetReturnDate(returnedAt)

	// The account-level charge keys off the tier loan period from the
	// borrow date. A renewal moves only the record's own due date, so a
	// renewed loan held past the original period is still charged here.
	borrowedDays := int(returnedAt.Sub(record.BorrowedAt()).Hours() / 24)
	if overdueDays := borrowedDays - pol.loanDays; overdueDays > 0 {
		u.fines += float64(overdueDays)
		u.creditScore -= pol.latePenalty
		if u.creditScore < 0 {
			u.creditScore = 0
		}
		if u.creditScore < freezeCreditFloor {
			u.freeze()
		}
	} else {
		u.creditScore += pol.onTimeBonus
	}

	if err := book.Return(); err != nil {
		return err
	}

	if u.fines > returnFineLimit {
		u.freeze()
		return fmt.Errorf("outstanding fines of %.0f: %w", u.fines, ErrOverdueFine)
	}

	u.removeRecord(record)
	return nil
}

func (u *User) removeRecord(record *BorrowRecord) {
	for i, r := range u.records {
		if r == record {
			u.records = append(u.records[:i], u.records[i+1:]...)
			return
		}
	}
}

// ReserveBook queues a reservation for book. The book does not have to be
// unavailable, and duplicate reservations by the same user are currently
// permitted.
func (u *User) ReserveBook(book *Book, arena *ReservationArena) error {
	if u.status == StatusBlacklisted {
		return fmt.Errorf("reserve: %w", ErrBlacklisted)
	}
	if u.status == StatusFrozen {
		return fmt.Errorf("reserve: %w", ErrAccountFrozen)
	}
	if u.creditScore < reserveCreditFloor {
		return fmt.Errorf("credit score %d below %d: %w", u.creditScore, reserveCreditFloor, ErrInsufficientCredit)
	}

	r := arena.Create(book, u)
	book.AddReservation(r.ID())
	u.reservations = append(u.reservations, r.ID())
	return nil
}

// CancelReservation withdraws the user's reservation of book from both
// queues and destroys the record.
func (u *User) CancelReservation(book *Book, arena *ReservationArena) error {
	for i, id := range u.reservations {
		r, ok := arena.Get(id)
		if !ok || r.BookID() != book.ID {
			continue
		}
		u.reservations = append(u.reservations[:i], u.reservations[i+1:]...)
		book.RemoveReservation(id)
		arena.Remove(id)
		return nil
	}
	return fmt.Errorf("no reservation of %q to cancel: %w", book.Title, ErrInvalidOperation)
}

// DropReservation removes a fulfilled reservation handle from the user
// without touching the book queue.
func (u *User) DropReservation(id ReservationID) {
	for i, rid := range u.reservations {
		if rid == id {
			u.reservations = append(u.reservations[:i], u.reservations[i+1:]...)
			return
		}
	}
}

// PayFine pays amount toward the outstanding balance. Paying the balance
// down to exactly zero thaws a frozen account.
func (u *User) PayFine(amount float64) error {
	if u.status == StatusBlacklisted {
		return fmt.Errorf("pay fine: %w", ErrBlacklisted)
	}
	if amount > u.fines {
		return fmt.Errorf("payment %.2f exceeds outstanding fines %.2f: %w", amount, u.fines, ErrInvalidOperation)
	}
	u.fines -= amount
	if u.fines == 0 && u.status == StatusFrozen {
		u.status = StatusActive
		u.rec.Record(NewEvent(EventAccountRestored, "", u.ID, "fines cleared, account active again"))
	} else {
		u.rec.Record(NewEvent(EventFinePaid, "", u.ID, fmt.Sprintf("remaining fines %.2f", u.fines)))
	}
	return nil
}

// AddScore raises the credit score by n.
func (u *User) AddScore(n int) error {
	if u.status == StatusBlacklisted {
		return fmt.Errorf("add score: %w", ErrBlacklisted)
	}
	u.creditScore += n
	return nil
}

// DeductScore lowers the credit score by n, flooring at zero. Dropping
// strictly below 50 freezes the account.
func (u *User) DeductScore(n int) error {
	if u.status == StatusBlacklisted {
		return fmt.Errorf("deduct score: %w", ErrBlacklisted)
	}
	u.creditScore -= n
	if u.creditScore < 0 {
		u.creditScore = 0
	}
	if u.creditScore < freezeCreditFloor {
		u.freeze()
	}
	return nil
}

// ReceiveNotification records delivery of a message to this user.
// Blacklisted accounts are never contacted.
func (u *User) ReceiveNotification(msg string) {
	if u.status == StatusBlacklisted {
		u.rec.Record(NewEvent(EventNotificationBlocked, "", u.ID, "blacklisted users cannot receive notifications"))
		return
	}
	u.rec.Record(NewEvent(EventNotificationSent, "", u.ID, msg))
}
