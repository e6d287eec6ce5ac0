package domain

import "fmt"

// Category classifies a book for fine and borrowing purposes.
type Category string

const (
	CategoryGeneral Category = "GENERAL"
	CategoryJournal Category = "JOURNAL"
	CategoryRare    Category = "RARE"
)

// FinePerDay returns the overdue fine charged per full day for this category.
func (c Category) FinePerDay() float64 {
	switch c {
	case CategoryJournal:
		return 2
	case CategoryRare:
		return 5
	default:
		return 1
	}
}

// Book is the lending unit: stock counters, physical condition, and the
// FIFO reservation queue. A Book never reaches into User state; the user
// side of the rules lives on User.
type Book struct {
	ID       string
	Title    string
	Author   string
	Category Category

	totalCopies     int
	availableCopies int
	damaged         bool
	inRepair        bool

	// Arrival-ordered reservation queue. Entries are arena IDs, not live
	// references, so Book and User never alias the same record.
	queue []ReservationID

	rec Recorder

	// availabilityProbe, when set, replaces the derived availability
	// signal. The reserve-on-exhaustion branch of borrowing is reachable
	// only when the probe reports available while no copies remain, so
	// the two signals must stay independently controllable.
	availabilityProbe func() bool
}

// NewBook creates a book with full stock.
func NewBook(title, author, id string, category Category, copies int) *Book {
	return &Book{
		ID:              id,
		Title:           title,
		Author:          author,
		Category:        category,
		totalCopies:     copies,
		availableCopies: copies,
		rec:             nopRecorder{},
	}
}

// SetRecorder routes the book's events to r.
func (b *Book) SetRecorder(r Recorder) {
	if r == nil {
		r = nopRecorder{}
	}
	b.rec = r
}

// SetAvailabilityProbe overrides the derived availability signal.
func (b *Book) SetAvailabilityProbe(probe func() bool) { b.availabilityProbe = probe }

func (b *Book) TotalCopies() int     { return b.totalCopies }
func (b *Book) AvailableCopies() int { return b.availableCopies }
func (b *Book) IsDamaged() bool      { return b.damaged }
func (b *Book) InRepair() bool       { return b.inRepair }

// IsAvailable reports whether the book can be lent. When it cannot, the
// reason is recorded as a book_unavailable event for caller diagnostics.
func (b *Book) IsAvailable() bool {
	if b.availabilityProbe != nil {
		return b.availabilityProbe()
	}
	switch {
	case b.inRepair:
		b.rec.Record(NewEvent(EventBookUnavailable, b.ID, "", "the book is under repair"))
		return false
	case b.damaged:
		b.rec.Record(NewEvent(EventBookUnavailable, b.ID, "", "the book is damaged and cannot be borrowed"))
		return false
	case b.availableCopies <= 0:
		b.rec.Record(NewEvent(EventBookUnavailable, b.ID, "", "there are no available copies"))
		return false
	}
	return true
}

// Borrow takes one copy off the shelf.
func (b *Book) Borrow() error {
	if !b.IsAvailable() {
		return fmt.Errorf("borrow %q: %w", b.Title, ErrBookNotAvailable)
	}
	b.availableCopies--
	b.rec.Record(NewEvent(EventBookBorrowed, b.ID, "", "successfully borrowed the book"))
	return nil
}

// Return puts one copy back. It fails if every copy is already shelved.
func (b *Book) Return() error {
	if b.availableCopies == b.totalCopies {
		return fmt.Errorf("return %q: no copies are out: %w", b.Title, ErrInvalidOperation)
	}
	b.availableCopies++
	b.rec.Record(NewEvent(EventBookReturned, b.ID, "", "successfully returned the book"))
	return nil
}

// RemoveCopy retires one copy from stock, for loss settlement.
func (b *Book) RemoveCopy() {
	if b.totalCopies > 0 {
		b.totalCopies--
	}
	if b.availableCopies > 0 {
		b.availableCopies--
	}
	if b.availableCopies > b.totalCopies {
		b.availableCopies = b.totalCopies
	}
}

// ReportDamage marks the book damaged. Reporting twice is a warning, not
// an error.
func (b *Book) ReportDamage() {
	if b.damaged {
		b.rec.Record(NewEvent(EventDamageDuplicate, b.ID, "", "this book is damaged, no need to report it again"))
		return
	}
	b.damaged = true
	b.rec.Record(NewEvent(EventDamageReported, b.ID, "", "book damage reported"))
}

// ReportRepair marks the book as under repair. Idempotent like ReportDamage.
func (b *Book) ReportRepair() {
	if b.inRepair {
		b.rec.Record(NewEvent(EventRepairDuplicate, b.ID, "", "the book is already under repair"))
		return
	}
	b.inRepair = true
	b.rec.Record(NewEvent(EventRepairReported, b.ID, "", "book repair reported"))
}

// AddReservation appends a reservation to the arrival-ordered queue.
func (b *Book) AddReservation(id ReservationID) {
	b.queue = append(b.queue, id)
	b.rec.Record(NewEvent(EventReservationQueued, b.ID, "", "reservation added successfully"))
}

// RemoveReservation removes a queued reservation by identity. Removing an
// absent reservation is a warning, not an error.
func (b *Book) RemoveReservation(id ReservationID) {
	for i, qid := range b.queue {
		if qid == id {
			b.queue = append(b.queue[:i], b.queue[i+1:]...)
			b.rec.Record(NewEvent(EventReservationRemoved, b.ID, "", "reservation cancelled successfully"))
			return
		}
	}
	b.rec.Record(NewEvent(EventReservationMissing, b.ID, "", "reservation is not in the queue"))
}

// Reservations returns the queue in arrival order.
func (b *Book) Reservations() []ReservationID {
	out := make([]ReservationID, len(b.queue))
	copy(out, b.queue)
	return out
}

// HasReservations reports whether anyone is waiting on this book.
func (b *Book) HasReservations() bool { return len(b.queue) > 0 }
