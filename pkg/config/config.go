package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

// Config holds the application configuration
type Config struct {
	Environment                string
	ServerPort                 int
	LogLevel                   string
	JWTSecret                  string
	CORSAllowedOrigins         []string
	RateLimitRequests          int
	RateLimitWindowSeconds     int
	ReservationIntervalSeconds int
	OverdueSweepSchedule       string // cron expression
	EventLogLimit              int
	TracingEndpoint            string
	SeedDemoData               bool
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	port, err := strconv.Atoi(getEnv("SERVER_PORT", "8080"))
	if err != nil {
		return nil, fmt.Errorf("invalid SERVER_PORT: %w", err)
	}

	rateLimit, err := strconv.Atoi(getEnv("RATE_LIMIT_REQUESTS", "100"))
	if err != nil {
		return nil, fmt.Errorf("invalid RATE_LIMIT_REQUESTS: %w", err)
	}

	rateWindow, err := strconv.Atoi(getEnv("RATE_LIMIT_WINDOW_SECONDS", "60"))
	if err != nil {
		return nil, fmt.Errorf("invalid RATE_LIMIT_WINDOW_SECONDS: %w", err)
	}

	reservationInterval, err := strconv.Atoi(getEnv("RESERVATION_INTERVAL_SECONDS", "30"))
	if err != nil {
		return nil, fmt.Errorf("invalid RESERVATION_INTERVAL_SECONDS: %w", err)
	}

	eventLogLimit, err := strconv.Atoi(getEnv("EVENT_LOG_LIMIT", "1000"))
	if err != nil {
		return nil, fmt.Errorf("invalid EVENT_LOG_LIMIT: %w", err)
	}

	return &Config{
		Environment:                getEnv("ENVIRONMENT", "development"),
		ServerPort:                 port,
		LogLevel:                   getEnv("LOG_LEVEL", "info"),
		JWTSecret:                  getEnv("JWT_SECRET", ""),
		CORSAllowedOrigins:         parseCSVEnv("CORS_ALLOWED_ORIGINS", []string{"http://localhost:5173", "http://localhost:3000"}),
		RateLimitRequests:          rateLimit,
		RateLimitWindowSeconds:     rateWindow,
		ReservationIntervalSeconds: reservationInterval,
		OverdueSweepSchedule:       getEnv("OVERDUE_SWEEP_SCHEDULE", "0 9 * * *"),
		EventLogLimit:              eventLogLimit,
		TracingEndpoint:            getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", ""),
		SeedDemoData:               getEnv("SEED_DEMO_DATA", "true") == "true",
	}, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func parseCSVEnv(key string, defaultValue []string) []string {
	if value := os.Getenv(key); value != "" {
		parts := strings.Split(value, ",")
		out := make([]string, 0, len(parts))
		for _, p := range parts {
			trimmed := strings.TrimSpace(p)
			if trimmed != "" {
				out = append(out, trimmed)
			}
		}
		if len(out) > 0 {
			return out
		}
	}
	return defaultValue
}
