package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/openshelf/circulate/internal/security"
	"github.com/openshelf/circulate/internal/security/audit"
	"github.com/openshelf/circulate/internal/security/auth"
	"github.com/openshelf/circulate/internal/security/ratelimit"
)

type ClaimsContextKey struct{}

// publicPath reports whether a request needs no staff token.
func publicPath(path string) bool {
	switch path {
	case "/healthz", "/readyz", "/metrics", "/api/login":
		return true
	}
	return strings.HasPrefix(path, "/ws/events")
}

func JWTMiddleware(tm *auth.TokenManager, log *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if publicPath(r.URL.Path) {
				next.ServeHTTP(w, r)
				return
			}

			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				http.Error(w, `{"error":"missing auth"}`, http.StatusUnauthorized)
				return
			}

			tokenString, err := auth.ExtractToken(authHeader)
			if err != nil {
				http.Error(w, `{"error":"invalid auth"}`, http.StatusUnauthorized)
				return
			}

			claims, err := tm.ValidateToken(tokenString)
			if err != nil {
				log.Debug("token rejected", slog.String("error", err.Error()))
				http.Error(w, `{"error":"invalid token"}`, http.StatusUnauthorized)
				return
			}

			ctx := context.WithValue(r.Context(), ClaimsContextKey{}, claims)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func RateLimitMiddleware(limiter *ratelimit.Limiter, log *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if publicPath(r.URL.Path) {
				next.ServeHTTP(w, r)
				return
			}

			key := r.RemoteAddr
			if claims := GetClaimsFromContext(r.Context()); claims != nil {
				key = claims.StaffID
			}

			if !limiter.Allow(key) {
				log.Warn("rate limit exceeded", slog.String("key", key), slog.String("path", r.URL.Path))
				http.Error(w, `{"error":"rate limit exceeded"}`, http.StatusTooManyRequests)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// requiredPermissions maps mutating endpoints to the permission a staff
// role needs for them. Reads are open to any authenticated role.
var requiredPermissions = map[string]security.Permission{
	"/api/members":          security.PermRegisterMember,
	"/api/books":            security.PermAddBook,
	"/api/borrow":           security.PermCirculate,
	"/api/return":           security.PermCirculate,
	"/api/reserve":          security.PermCirculate,
	"/api/reserve/cancel":   security.PermCirculate,
	"/api/fines/pay":        security.PermCollectFines,
	"/api/credit/repair":    security.PermRepairCredit,
	"/api/renew":            security.PermRenewLoans,
	"/api/inventory/lost":   security.PermSettleInventory,
	"/api/inventory/damage": security.PermSettleInventory,
}

func requiredPermission(r *http.Request) (security.Permission, bool) {
	if r.Method != http.MethodPost {
		return "", false
	}
	if strings.HasPrefix(r.URL.Path, "/api/books/") && strings.HasSuffix(r.URL.Path, "/process") {
		return security.PermProcessQueue, true
	}
	perm, ok := requiredPermissions[r.URL.Path]
	return perm, ok
}

func PermissionMiddleware(authz *security.AuthorizationService, log *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			perm, ok := requiredPermission(r)
			if !ok {
				next.ServeHTTP(w, r)
				return
			}

			claims := GetClaimsFromContext(r.Context())
			if claims == nil {
				http.Error(w, `{"error":"missing auth"}`, http.StatusUnauthorized)
				return
			}

			if err := authz.ValidatePermission(security.Role(claims.Role), perm); err != nil {
				log.Warn("request refused",
					slog.String("staff_id", claims.StaffID),
					slog.String("role", claims.Role),
					slog.String("path", r.URL.Path),
				)
				http.Error(w, `{"error":"permission denied"}`, http.StatusForbidden)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// auditedActions maps mutating circulation endpoints to audit action names.
var auditedActions = map[string]string{
	"/api/borrow":           "borrow",
	"/api/return":           "return",
	"/api/reserve":          "reserve",
	"/api/reserve/cancel":   "cancel_reservation",
	"/api/fines/pay":        "pay_fine",
	"/api/credit/repair":    "repair_credit",
	"/api/renew":            "renew_loan",
	"/api/inventory/lost":   "report_lost",
	"/api/inventory/damage": "report_damaged",
}

func AuditMiddleware(auditLog *audit.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method == http.MethodPost {
				if action, ok := auditedActions[r.URL.Path]; ok {
					staffID := ""
					if claims := GetClaimsFromContext(r.Context()); claims != nil {
						staffID = claims.StaffID
					}
					auditLog.LogAction(r.Context(), staffID, action, "circulation", "", "initiated", "")
				}
			}
			next.ServeHTTP(w, r)
		})
	}
}

func GetClaimsFromContext(ctx context.Context) *auth.Claims {
	if c := ctx.Value(ClaimsContextKey{}); c != nil {
		return c.(*auth.Claims)
	}
	return nil
}
