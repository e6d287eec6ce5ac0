package service

import (
	"errors"
	"log/slog"
	"time"

	"github.com/openshelf/circulate/internal/security/auth"
)

const tokenLifetime = 15 * time.Minute

// AuthService handles staff authentication for the desk API.
type AuthService struct {
	staff  *auth.StaffStore
	tokens *auth.TokenManager
	logger *slog.Logger
}

// NewAuthService creates a staff authentication service.
func NewAuthService(staff *auth.StaffStore, tokens *auth.TokenManager, logger *slog.Logger) *AuthService {
	if logger == nil {
		logger = slog.Default()
	}
	return &AuthService{
		staff:  staff,
		tokens: tokens,
		logger: logger,
	}
}

// LoginResult represents login response
type LoginResult struct {
	StaffID   string `json:"staff_id"`
	Email     string `json:"email"`
	Role      string `json:"role"`
	Token     string `json:"token"`
	ExpiresIn int    `json:"expires_in"` // seconds
	TokenType string `json:"token_type"`
}

// Login authenticates a staff account and returns a JWT token.
func (s *AuthService) Login(email, password string) (*LoginResult, error) {
	if email == "" || password == "" {
		return nil, errors.New("email and password are required")
	}

	account, err := s.staff.Authenticate(email, password)
	if err != nil {
		s.logger.Info("login failed", slog.String("email", email))
		return nil, errors.New("invalid credentials")
	}

	token, err := s.tokens.GenerateToken(account.ID, account.Email, account.Role, tokenLifetime)
	if err != nil {
		s.logger.Error("failed to sign token", slog.String("error", err.Error()))
		return nil, errors.New("failed to generate token")
	}

	s.logger.Info("staff logged in",
		slog.String("staff_id", account.ID),
		slog.String("email", account.Email),
	)

	return &LoginResult{
		StaffID:   account.ID,
		Email:     account.Email,
		Role:      account.Role,
		Token:     token,
		ExpiresIn: int(tokenLifetime.Seconds()),
		TokenType: "Bearer",
	}, nil
}

// AddStaff registers a new desk account.
func (s *AuthService) AddStaff(email, password, role, id string) error {
	if email == "" || id == "" {
		return errors.New("email and id are required")
	}
	if len(password) < 8 {
		return errors.New("password must be at least 8 characters")
	}

	if err := s.staff.Add(email, password, role, id); err != nil {
		return err
	}
	s.logger.Info("staff account added",
		slog.String("staff_id", id),
		slog.String("role", role),
	)
	return nil
}

// VerifyToken verifies and parses a staff token.
func (s *AuthService) VerifyToken(tokenString string) (*auth.Claims, error) {
	return s.tokens.ValidateToken(tokenString)
}
