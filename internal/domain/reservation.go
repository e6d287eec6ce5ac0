package domain

import (
	"sync"
	"time"
)

// ReservationID is an opaque handle into the reservation arena. Books and
// users carry IDs instead of pointers so the two queues can never alias a
// live record.
type ReservationID int64

const vipPriorityBonus = 10
const latePenaltyPerRecord = 5

// Reservation is a queued request for a book. Priority is computed once,
// at creation, and never recomputed.
type Reservation struct {
	id        ReservationID
	bookID    string
	userID    string
	priority  int
	createdAt time.Time
}

func (r *Reservation) ID() ReservationID   { return r.id }
func (r *Reservation) BookID() string      { return r.bookID }
func (r *Reservation) UserID() string      { return r.userID }
func (r *Reservation) Priority() int       { return r.priority }
func (r *Reservation) CreatedAt() time.Time { return r.createdAt }

// ReservationPriority scores a would-be reservation for user:
// the credit score as base, +10 for VIP, -5 per record returned late,
// and a -1 sentinel overriding everything for a blacklisted account.
// The score has no floor; repeated late returns can push it below zero.
func ReservationPriority(user *User) int {
	if user.Status() == StatusBlacklisted {
		return -1
	}
	priority := user.CreditScore()
	if user.IsVIP() {
		priority += vipPriorityBonus
	}
	for _, rec := range user.Records() {
		if rec.ReturnedLate() {
			priority -= latePenaltyPerRecord
		}
	}
	return priority
}

// ReservationArena owns every live reservation record. It hands out IDs;
// Book queues and User reservation sets store only those.
type ReservationArena struct {
	mu     sync.Mutex
	nextID ReservationID
	byID   map[ReservationID]*Reservation
}

func NewReservationArena() *ReservationArena {
	return &ReservationArena{byID: make(map[ReservationID]*Reservation)}
}

// Create allocates a reservation of book for user, scoring it at creation
// time. A blacklisted user still gets a record with the -1 sentinel;
// rejecting the attempt is the caller's job.
func (a *ReservationArena) Create(book *Book, user *User) *Reservation {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.nextID++
	r := &Reservation{
		id:        a.nextID,
		bookID:    book.ID,
		userID:    user.ID,
		priority:  ReservationPriority(user),
		createdAt: time.Now(),
	}
	a.byID[r.id] = r
	return r
}

// Get looks up a live reservation.
func (a *ReservationArena) Get(id ReservationID) (*Reservation, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	r, ok := a.byID[id]
	return r, ok
}

// Remove destroys a reservation record. Queues holding the ID must be
// pruned by the caller.
func (a *ReservationArena) Remove(id ReservationID) {
	a.mu.Lock()
	defer a.mu.Unlock()
	delete(a.byID, id)
}

// Len reports the number of live reservations.
func (a *ReservationArena) Len() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.byID)
}
