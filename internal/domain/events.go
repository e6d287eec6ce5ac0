package domain

import (
	"log/slog"
	"sync"
	"time"
)

// EventType identifies a circulation event.
type EventType string

const (
	EventBookUnavailable     EventType = "book_unavailable"
	EventBookBorrowed        EventType = "book_borrowed"
	EventBookReturned        EventType = "book_returned"
	EventDamageReported      EventType = "damage_reported"
	EventDamageDuplicate     EventType = "damage_already_reported"
	EventRepairReported      EventType = "repair_reported"
	EventRepairDuplicate     EventType = "repair_already_reported"
	EventReservationQueued   EventType = "reservation_queued"
	EventReservationRemoved  EventType = "reservation_removed"
	EventReservationMissing  EventType = "reservation_not_in_queue"
	EventReservationWaitlist EventType = "reservation_waitlisted"
	EventDueDateExtended     EventType = "due_date_extended"
	EventFinePaid            EventType = "fine_paid"
	EventAccountFrozen       EventType = "account_frozen"
	EventAccountRestored     EventType = "account_restored"
	EventNotificationBlocked EventType = "notification_blocked"
	EventNotificationSent    EventType = "notification_sent"
	EventUserRegistered      EventType = "user_registered"
	EventRegistrationDenied  EventType = "registration_denied"
	EventBookAdded           EventType = "book_added"
	EventBookDuplicate       EventType = "book_already_in_catalog"
	EventQueueSkipped        EventType = "reservation_queue_skipped"
	EventQueueFulfilled      EventType = "reservation_fulfilled"
	EventQueueFailed         EventType = "reservation_processing_failed"
	EventExternalRequested   EventType = "external_request_placed"
)

// Event is a structured record of something the circulation rules decided
// or observed. Behaviors that are informational rather than errors (an
// unavailable book's reason, a duplicate damage report, a skipped queue)
// surface as events so callers and tests can observe them without
// scraping log output.
type Event struct {
	Type    EventType
	At      time.Time
	BookID  string
	UserID  string
	Message string
}

// Recorder receives domain events. Implementations must be safe for use
// from a single logical caller per aggregate; fan-out recorders add their
// own locking.
type Recorder interface {
	Record(e Event)
}

type nopRecorder struct{}

func (nopRecorder) Record(Event) {}

// NopRecorder discards all events.
func NopRecorder() Recorder { return nopRecorder{} }

// EventLog is an in-memory Recorder. Tests assert against it; the server
// keeps a bounded one behind the event stream endpoint.
type EventLog struct {
	mu     sync.Mutex
	events []Event
	limit  int
}

// NewEventLog creates an unbounded event log.
func NewEventLog() *EventLog { return &EventLog{} }

// NewBoundedEventLog keeps only the most recent limit events.
func NewBoundedEventLog(limit int) *EventLog { return &EventLog{limit: limit} }

func (l *EventLog) Record(e Event) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.events = append(l.events, e)
	if l.limit > 0 && len(l.events) > l.limit {
		l.events = l.events[len(l.events)-l.limit:]
	}
}

// Events returns a copy of everything recorded so far.
func (l *EventLog) Events() []Event {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]Event, len(l.events))
	copy(out, l.events)
	return out
}

// OfType returns recorded events matching t, oldest first.
func (l *EventLog) OfType(t EventType) []Event {
	l.mu.Lock()
	defer l.mu.Unlock()
	var out []Event
	for _, e := range l.events {
		if e.Type == t {
			out = append(out, e)
		}
	}
	return out
}

// Reset drops all recorded events.
func (l *EventLog) Reset() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.events = nil
}

// SlogRecorder forwards events to a structured logger.
type SlogRecorder struct {
	logger *slog.Logger
}

func NewSlogRecorder(logger *slog.Logger) *SlogRecorder {
	if logger == nil {
		logger = slog.Default()
	}
	return &SlogRecorder{logger: logger}
}

func (r *SlogRecorder) Record(e Event) {
	r.logger.Info("circulation event",
		slog.String("type", string(e.Type)),
		slog.String("book_id", e.BookID),
		slog.String("user_id", e.UserID),
		slog.String("message", e.Message),
	)
}

// MultiRecorder fans an event out to several recorders.
type MultiRecorder struct {
	recorders []Recorder
}

func NewMultiRecorder(recorders ...Recorder) *MultiRecorder {
	return &MultiRecorder{recorders: recorders}
}

func (m *MultiRecorder) Record(e Event) {
	for _, r := range m.recorders {
		r.Record(e)
	}
}

// NewEvent stamps a new event with the current time.
func NewEvent(t EventType, bookID, userID, msg string) Event {
	return Event{Type: t, At: time.Now(), BookID: bookID, UserID: userID, Message: msg}
}
