package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/openshelf/circulate/internal/domain"
	"github.com/openshelf/circulate/internal/featureflags"
	"github.com/openshelf/circulate/internal/handler"
	"github.com/openshelf/circulate/internal/infrastructure/email"
	"github.com/openshelf/circulate/internal/infrastructure/extlib"
	"github.com/openshelf/circulate/internal/infrastructure/logger"
	"github.com/openshelf/circulate/internal/infrastructure/sms"
	"github.com/openshelf/circulate/internal/observability/metrics"
	"github.com/openshelf/circulate/internal/observability/tracing"
	"github.com/openshelf/circulate/internal/repository"
	"github.com/openshelf/circulate/internal/security"
	"github.com/openshelf/circulate/internal/security/audit"
	"github.com/openshelf/circulate/internal/security/auth"
	"github.com/openshelf/circulate/internal/security/middleware"
	"github.com/openshelf/circulate/internal/security/ratelimit"
	"github.com/openshelf/circulate/internal/service"
	"github.com/openshelf/circulate/internal/worker"
	"github.com/openshelf/circulate/pkg/config"
)

func main() {
	// 1. Load configuration (.env is optional)
	_ = godotenv.Load()
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	// 2. Initialize structured logger
	log := logger.NewLogger(cfg.LogLevel)
	log.Info("starting circulate server", slog.String("environment", cfg.Environment))

	// 3. Initialize tracing
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	shutdownTracing, err := tracing.Init(ctx, log, "circulate", cfg.Environment, cfg.TracingEndpoint)
	if err != nil {
		log.Error("failed to initialize tracing", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// 4. Event plumbing: bounded log for the API feed, slog bridge, and
	// the websocket hub.
	eventLog := domain.NewBoundedEventLog(cfg.EventLogLimit)
	eventHub := handler.NewEventHub()
	recorder := domain.NewMultiRecorder(eventLog, eventHub, domain.NewSlogRecorder(log))

	// 5. Repositories and the circulation orchestrator
	bookRepo := repository.NewBookRepository(log)
	userRepo := repository.NewUserRepository(log)
	arena := domain.NewReservationArena()

	notifier := service.NewNotificationService(log,
		email.NewSender(log),
		sms.NewSender(log),
	)
	library := service.NewLibraryService(bookRepo, userRepo, arena, notifier, recorder, log)

	// 6. Staff authentication
	staffStore := auth.NewStaffStore()
	tokenManager := auth.NewTokenManager(cfg.JWTSecret, "circulate")
	authService := service.NewAuthService(staffStore, tokenManager, log)
	if cfg.SeedDemoData {
		seedDemoData(authService, library, log)
	}

	rateLimiter := ratelimit.NewLimiter(cfg.RateLimitRequests, time.Duration(cfg.RateLimitWindowSeconds)*time.Second)
	auditLogger := audit.NewLogger(log)
	authzService := security.NewAuthorizationService(log)

	// 7. Handlers
	loginHandler := handler.NewLoginHandler(authService, rateLimiter, log)
	memberHandler := handler.NewMemberHandler(library, log)
	bookHandler := handler.NewBookHandler(library, log)
	circulationHandler := handler.NewCirculationHandler(library, log)
	accountHandler := handler.NewAccountHandler(library, log)
	loanHandler := handler.NewLoanHandler(library, log)
	reservationHandler := handler.NewReservationHandler(library, log)
	eventsHandler := handler.NewEventsHandler(eventLog, eventHub, log)
	healthHandler := handler.NewHealthHandler(library, log)
	extLibHandler := handler.NewExtLibHandler(extlib.NewClient(log, recorder), log)

	// 8. Routes
	mux := http.NewServeMux()
	mux.Handle("POST /api/login", loginHandler)
	mux.HandleFunc("POST /api/members", memberHandler.Register)
	mux.HandleFunc("GET /api/members", memberHandler.List)
	mux.HandleFunc("GET /api/members/{id}", memberHandler.Get)
	mux.HandleFunc("POST /api/books", bookHandler.Add)
	mux.HandleFunc("GET /api/books", bookHandler.List)
	mux.HandleFunc("GET /api/books/{id}", bookHandler.Get)
	mux.HandleFunc("POST /api/borrow", circulationHandler.Borrow)
	mux.HandleFunc("POST /api/return", circulationHandler.Return)
	mux.HandleFunc("POST /api/reserve", circulationHandler.Reserve)
	mux.HandleFunc("POST /api/reserve/cancel", circulationHandler.Cancel)
	mux.HandleFunc("POST /api/fines/pay", accountHandler.PayFine)
	mux.HandleFunc("POST /api/credit/repair", accountHandler.RepairCredit)
	mux.HandleFunc("POST /api/renew", loanHandler.Renew)
	mux.HandleFunc("POST /api/inventory/lost", loanHandler.ReportLost)
	mux.HandleFunc("POST /api/inventory/damage", loanHandler.ReportDamaged)
	mux.HandleFunc("POST /api/books/{id}/process", reservationHandler.Process)
	mux.HandleFunc("GET /api/extlib/{isbn}/availability", extLibHandler.Availability)
	mux.HandleFunc("POST /api/extlib/request", extLibHandler.Request)
	mux.HandleFunc("GET /api/events", eventsHandler.Recent)
	mux.HandleFunc("GET /ws/events", eventsHandler.Stream)
	mux.HandleFunc("GET /healthz", healthHandler.Health)
	mux.HandleFunc("GET /readyz", healthHandler.Ready)
	mux.Handle("/metrics", promhttp.Handler())

	// CORS middleware honoring configured origins
	handlerWithCORS := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		if originAllowed(cfg.CORSAllowedOrigins, origin) {
			w.Header().Set("Access-Control-Allow-Origin", origin)
		} else if len(cfg.CORSAllowedOrigins) > 0 {
			w.Header().Set("Access-Control-Allow-Origin", cfg.CORSAllowedOrigins[0])
		}
		w.Header().Set("Vary", "Origin")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Accept, Authorization")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}

		mux.ServeHTTP(w, r)
	})

	// Chain: request ID -> JWT -> rate limit -> permissions -> audit -> validation -> CORS.
	// JWT runs first so the claim-keyed layers below it see the staff identity.
	rootHandler := withRequestID(
		middleware.JWTMiddleware(tokenManager, log)(
			middleware.RateLimitMiddleware(rateLimiter, log)(
				middleware.PermissionMiddleware(authzService, log)(
					middleware.AuditMiddleware(auditLogger)(
						middleware.ValidateJSONContentType(log)(handlerWithCORS),
					),
				),
			),
		),
		log,
	)
	rootHandler = metrics.HTTPMetricsMiddleware(rootHandler)
	rootHandler = otelhttp.NewHandler(rootHandler, "circulate.http")

	// 9. Background workers
	reservationWorker := worker.NewReservationWorker(library, log,
		time.Duration(cfg.ReservationIntervalSeconds)*time.Second)
	go reservationWorker.Start(ctx)

	if featureflags.EnabledDefault("overdue_sweep", true) {
		overdueWorker := worker.NewOverdueWorker(library, notifier, log, cfg.OverdueSweepSchedule)
		go func() {
			if err := overdueWorker.Start(ctx); err != nil {
				log.Error("overdue worker failed", slog.String("error", err.Error()))
			}
		}()
	}

	// 10. HTTP server with graceful shutdown
	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.ServerPort),
		Handler:      rootHandler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	log.Info("server starting",
		slog.Int("port", cfg.ServerPort),
		slog.String("auth", "jwt"),
		slog.Int("rate_limit", cfg.RateLimitRequests),
		slog.Int("rate_limit_window_seconds", cfg.RateLimitWindowSeconds),
	)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("server error", slog.String("error", err.Error()))
		}
	}()

	<-sigChan
	log.Info("shutdown signal received")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("shutdown error", slog.String("error", err.Error()))
	}

	cancel() // Stop workers
	rateLimiter.Stop()
	if err := shutdownTracing(shutdownCtx); err != nil {
		log.Error("tracing shutdown error", slog.String("error", err.Error()))
	}
	log.Info("server stopped")
}

// seedDemoData loads a small staff roster and catalog so a fresh server
// is usable immediately.
func seedDemoData(authService *service.AuthService, library *service.LibraryService, log *slog.Logger) {
	if err := authService.AddStaff("admin@openshelf.io", "admin-secret-1", "admin", uuid.NewString()); err != nil {
		log.Warn("failed to seed admin account", slog.String("error", err.Error()))
	}
	if err := authService.AddStaff("desk@openshelf.io", "desk-secret-1", "librarian", uuid.NewString()); err != nil {
		log.Warn("failed to seed librarian account", slog.String("error", err.Error()))
	}

	books := []*domain.Book{
		domain.NewBook("The Go Programming Language", "Donovan", "B001", domain.CategoryGeneral, 3),
		domain.NewBook("Journal of Distributed Systems", "ACM", "B002", domain.CategoryJournal, 2),
		domain.NewBook("First Folio", "Shakespeare", "B003", domain.CategoryRare, 1),
	}
	for _, b := range books {
		if err := library.AddBook(b); err != nil {
			log.Warn("failed to seed book", slog.String("book_id", b.ID), slog.String("error", err.Error()))
		}
	}
}

type requestIDKey struct{}

// withRequestID attaches a request ID to the context and response headers for traceability
func withRequestID(next http.Handler, log *slog.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		reqID := uuid.NewString()
		w.Header().Set("X-Request-ID", reqID)

		ctx := context.WithValue(r.Context(), requestIDKey{}, reqID)
		start := time.Now()

		next.ServeHTTP(w, r.WithContext(ctx))

		log.Info("request completed",
			slog.String("request_id", reqID),
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
			slog.Duration("duration_ms", time.Since(start)),
		)
	})
}

func originAllowed(allowed []string, origin string) bool {
	if origin == "" {
		return false
	}
	for _, a := range allowed {
		if a == "*" || a == origin {
			return true
		}
	}
	return false
}
