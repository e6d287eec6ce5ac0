package audit

import (
	"context"
	"log/slog"
	"time"
)

type contextKey string

// RequestIDKey carries the request ID through the context.
const RequestIDKey contextKey = "request_id"

// Logger writes an audit trail of desk actions to the structured log.
type Logger struct {
	logger *slog.Logger
}

func NewLogger(logger *slog.Logger) *Logger {
	return &Logger{logger: logger}
}

func (al *Logger) LogAction(ctx context.Context, staffID, action, resource, resourceID, status, details string) {
	requestID := ""
	if reqID, ok := ctx.Value(RequestIDKey).(string); ok {
		requestID = reqID
	}

	al.logger.Info("audit",
		slog.String("action", action),
		slog.String("resource", resource),
		slog.String("resource_id", resourceID),
		slog.String("staff_id", staffID),
		slog.String("status", status),
		slog.String("details", details),
		slog.String("request_id", requestID),
		slog.Time("timestamp", time.Now()),
	)
}

func (al *Logger) LogCirculation(ctx context.Context, staffID, action, bookID, userID, status string) {
	al.LogAction(ctx, staffID, action, "loan", bookID, status, "member="+userID)
}

func (al *Logger) LogPayment(ctx context.Context, staffID, userID, status, details string) {
	al.LogAction(ctx, staffID, "pay_fine", "account", userID, status, details)
}

func (al *Logger) LogDenied(ctx context.Context, staffID, reason string) {
	al.LogAction(ctx, staffID, "access_denied", "api", "", "denied", reason)
}
