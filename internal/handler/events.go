package handler

import (
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	jsoniter "github.com/json-iterator/go"

	"github.com/openshelf/circulate/internal/domain"
)

var eventJSON = jsoniter.ConfigCompatibleWithStandardLibrary

// EventView is the wire form of a circulation event.
type EventView struct {
	Type    string    `json:"type"`
	At      time.Time `json:"at"`
	BookID  string    `json:"bookId,omitempty"`
	UserID  string    `json:"userId,omitempty"`
	Message string    `json:"message,omitempty"`
}

func eventView(e domain.Event) EventView {
	return EventView{
		Type:    string(e.Type),
		At:      e.At,
		BookID:  e.BookID,
		UserID:  e.UserID,
		Message: e.Message,
	}
}

// EventHub fans circulation events out to websocket subscribers. It is a
// domain.Recorder, so it slots into the same MultiRecorder as the event
// log and the slog bridge.
type EventHub struct {
	mu   sync.Mutex
	subs map[chan domain.Event]struct{}
}

// NewEventHub creates an empty hub.
func NewEventHub() *EventHub {
	return &EventHub{subs: make(map[chan domain.Event]struct{})}
}

// Record fans the event out. Slow subscribers drop events rather than
// stalling the circulation desk.
func (h *EventHub) Record(e domain.Event) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for ch := range h.subs {
		select {
		case ch <- e:
		default:
		}
	}
}

// Subscribe returns a buffered event channel and a cancel func.
func (h *EventHub) Subscribe() (<-chan domain.Event, func()) {
	ch := make(chan domain.Event, 64)
	h.mu.Lock()
	h.subs[ch] = struct{}{}
	h.mu.Unlock()

	cancel := func() {
		h.mu.Lock()
		delete(h.subs, ch)
		h.mu.Unlock()
	}
	return ch, cancel
}

// EventsHandler serves the recent event feed and the live stream.
type EventsHandler struct {
	log      *domain.EventLog
	hub      *EventHub
	upgrader websocket.Upgrader
	logger   *slog.Logger
}

// NewEventsHandler creates an events handler over the shared log and hub.
func NewEventsHandler(log *domain.EventLog, hub *EventHub, logger *slog.Logger) *EventsHandler {
	return &EventsHandler{
		log: log,
		hub: hub,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
		logger: logger,
	}
}

// Recent handles GET /api/events, optionally filtered by ?type=.
func (h *EventsHandler) Recent(w http.ResponseWriter, r *http.Request) {
	var events []domain.Event
	if t := r.URL.Query().Get("type"); t != "" {
		events = h.log.OfType(domain.EventType(t))
	} else {
		events = h.log.Events()
	}

	out := make([]EventView, 0, len(events))
	for _, e := range events {
		out = append(out, eventView(e))
	}
	writeJSON(w, http.StatusOK, out)
}

// Stream handles GET /ws/events, pushing live events over a websocket.
func (h *EventsHandler) Stream(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Error("websocket upgrade failed", slog.String("error", err.Error()))
		return
	}
	defer conn.Close()

	events, cancel := h.hub.Subscribe()
	defer cancel()

	// Drain client frames so close messages are noticed.
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ping := time.NewTicker(30 * time.Second)
	defer ping.Stop()

	for {
		select {
		case <-r.Context().Done():
			return
		case <-done:
			return
		case <-ping.C:
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case e := <-events:
			payload, err := eventJSON.Marshal(eventView(e))
			if err != nil {
				h.logger.Error("failed to marshal event", slog.String("error", err.Error()))
				continue
			}
			if err := conn.WriteMessage(websocket.TextMessage, payload); err != nil {
				return
			}
		}
	}
}
