package test

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/openshelf/circulate/internal/domain"
	"github.com/openshelf/circulate/internal/handler"
	"github.com/openshelf/circulate/internal/infrastructure/email"
	"github.com/openshelf/circulate/internal/repository"
	"github.com/openshelf/circulate/internal/security/auth"
	"github.com/openshelf/circulate/internal/security/middleware"
	"github.com/openshelf/circulate/internal/service"
)

// TestServerHelper wires the full HTTP surface against in-memory state,
// without workers, tracing or rate limiting.
type TestServerHelper struct {
	Server   *httptest.Server
	Logger   *slog.Logger
	Library  *service.LibraryService
	EventLog *domain.EventLog
	Token    string
}

func NewTestServer(t *testing.T) *TestServerHelper {
	t.Helper()

	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	eventLog := domain.NewEventLog()

	bookRepo := repository.NewBookRepository(log)
	userRepo := repository.NewUserRepository(log)
	arena := domain.NewReservationArena()
	notifier := service.NewNotificationService(log, email.NewSender(log))
	library := service.NewLibraryService(bookRepo, userRepo, arena, notifier, eventLog, log)

	staffStore := auth.NewStaffStore()
	tokenManager := auth.NewTokenManager("test-secret", "circulate-test")
	authService := service.NewAuthService(staffStore, tokenManager, log)
	if err := authService.AddStaff("desk@example.com", "desk-password", "librarian", "staff-1"); err != nil {
		t.Fatalf("seeding staff: %v", err)
	}

	loginHandler := handler.NewLoginHandler(authService, nil, log)
	memberHandler := handler.NewMemberHandler(library, log)
	bookHandler := handler.NewBookHandler(library, log)
	circHandler := handler.NewCirculationHandler(library, log)
	accountHandler := handler.NewAccountHandler(library, log)
	loanHandler := handler.NewLoanHandler(library, log)
	reservationHandler := handler.NewReservationHandler(library, log)
	eventsHandler := handler.NewEventsHandler(eventLog, handler.NewEventHub(), log)
	healthHandler := handler.NewHealthHandler(library, log)

	mux := http.NewServeMux()
	mux.Handle("POST /api/login", loginHandler)
	mux.HandleFunc("POST /api/members", memberHandler.Register)
	mux.HandleFunc("GET /api/members", memberHandler.List)
	mux.HandleFunc("GET /api/members/{id}", memberHandler.Get)
	mux.HandleFunc("POST /api/books", bookHandler.Add)
	mux.HandleFunc("GET /api/books", bookHandler.List)
	mux.HandleFunc("GET /api/books/{id}", bookHandler.Get)
	mux.HandleFunc("POST /api/borrow", circHandler.Borrow)
	mux.HandleFunc("POST /api/return", circHandler.Return)
	mux.HandleFunc("POST /api/reserve", circHandler.Reserve)
	mux.HandleFunc("POST /api/reserve/cancel", circHandler.Cancel)
	mux.HandleFunc("POST /api/fines/pay", accountHandler.PayFine)
	mux.HandleFunc("POST /api/credit/repair", accountHandler.RepairCredit)
	mux.HandleFunc("POST /api/renew", loanHandler.Renew)
	mux.HandleFunc("POST /api/inventory/lost", loanHandler.ReportLost)
	mux.HandleFunc("POST /api/inventory/damage", loanHandler.ReportDamaged)
	mux.HandleFunc("POST /api/books/{id}/process", reservationHandler.Process)
	mux.HandleFunc("GET /api/events", eventsHandler.Recent)
	mux.HandleFunc("GET /healthz", healthHandler.Health)
	mux.HandleFunc("GET /readyz", healthHandler.Ready)

	protected := middleware.JWTMiddleware(tokenManager, log)(mux)
	server := httptest.NewServer(protected)

	token, err := tokenManager.GenerateToken("staff-1", "desk@example.com", "librarian", 15*time.Minute)
	if err != nil {
		t.Fatalf("generating token: %v", err)
	}

	return &TestServerHelper{
		Server:   server,
		Logger:   log,
		Library:  library,
		EventLog: eventLog,
		Token:    token,
	}
}

func (h *TestServerHelper) Close() {
	h.Server.Close()
}

func (h *TestServerHelper) URL() string {
	return h.Server.URL
}

// PostJSON sends an authenticated POST and decodes the JSON response body.
func (h *TestServerHelper) PostJSON(t *testing.T, path string, payload any) (int, map[string]any) {
	t.Helper()

	data, err := json.Marshal(payload)
	if err != nil {
		t.Fatalf("marshaling payload: %v", err)
	}
	req, err := http.NewRequest(http.MethodPost, h.URL()+path, bytes.NewReader(data))
	if err != nil {
		t.Fatalf("building request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+h.Token)

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("request to %s failed: %v", path, err)
	}
	defer resp.Body.Close()

	var body map[string]any
	_ = json.NewDecoder(resp.Body).Decode(&body)
	return resp.StatusCode, body
}

// GetJSON sends an authenticated GET and decodes the JSON response into out.
func (h *TestServerHelper) GetJSON(t *testing.T, path string, out any) int {
	t.Helper()

	req, err := http.NewRequest(http.MethodGet, h.URL()+path, nil)
	if err != nil {
		t.Fatalf("building request: %v", err)
	}
	req.Header.Set("Authorization", "Bearer "+h.Token)

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("request to %s failed: %v", path, err)
	}
	defer resp.Body.Close()

	if out != nil {
		_ = json.NewDecoder(resp.Body).Decode(out)
	}
	return resp.StatusCode
}
