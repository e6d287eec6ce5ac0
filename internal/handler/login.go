package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/openshelf/circulate/internal/security/ratelimit"
	"github.com/openshelf/circulate/internal/service"
)

// LoginRequest represents staff login credentials
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginHandler authenticates desk staff
type LoginHandler struct {
	auth    *service.AuthService
	limiter *ratelimit.Limiter
	logger  *slog.Logger
}

// NewLoginHandler creates a new login handler
func NewLoginHandler(auth *service.AuthService, limiter *ratelimit.Limiter, logger *slog.Logger) *LoginHandler {
	return &LoginHandler{
		auth:    auth,
		limiter: limiter,
		logger:  logger,
	}
}

// ServeHTTP handles POST /api/login requests
func (h *LoginHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Error("failed to decode login request", slog.String("error", err.Error()))
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "invalid request"})
		return
	}

	if req.Email == "" || req.Password == "" {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "email and password required"})
		return
	}

	// Tighter window on login to slow credential stuffing.
	if h.limiter != nil && !h.limiter.AllowStrict(r.RemoteAddr, 10, time.Minute) {
		writeJSON(w, http.StatusTooManyRequests, ErrorResponse{Error: "too many login attempts"})
		return
	}

	result, err := h.auth.Login(req.Email, req.Password)
	if err != nil {
		h.logger.Warn("authentication failed", slog.String("email", req.Email))
		// Generic error to prevent account enumeration
		writeJSON(w, http.StatusUnauthorized, ErrorResponse{Error: "invalid credentials"})
		return
	}

	writeJSON(w, http.StatusOK, result)
}
