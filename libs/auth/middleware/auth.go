package middleware

import (
	"context"
	"net/http"
	"slices"
	"strings"

	"github.com/lmsplatform/backend/libs/auth/service"
)

type contextKey string

const (
	userIDKey contextKey = "userID"
	roleKey   contextKey = "role"
)

// TokenValidator validates access tokens
type TokenValidator interface {
	ValidateAccessToken(token string) (int, int, error)
}

var _ TokenValidator = (*service.TokenGenerator)(nil)

// AuthMiddleware validates the access token and stores userID and role in the request context
func AuthMiddleware(validator TokenValidator) func(http.Handler) http.Handler {
	return RoleMiddleware(validator)
}

// RoleMiddleware validates the access token and admits only the listed roles.
// An empty role list admits any authenticated user.
func RoleMiddleware(validator TokenValidator, allowedRoles ...int) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := extractToken(r)
			if token == "" {
				writeError(w, http.StatusUnauthorized, "authentication required")
				return
			}

			userID, role, err := validator.ValidateAccessToken(token)
			if err != nil {
				writeError(w, http.StatusUnauthorized, "invalid or expired token")
				return
			}

			if len(allowedRoles) > 0 && !slices.Contains(allowedRoles, role) {
				writeError(w, http.StatusForbidden, "insufficient permissions")
				return
			}

			ctx := context.WithValue(r.Context(), userIDKey, userID)
			ctx = context.WithValue(ctx, roleKey, role)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// GetUserID retrieves the user ID from context
func GetUserID(ctx context.Context) (int, bool) {
	userID, ok := ctx.Value(userIDKey).(int)
	return userID, ok
}

// GetRole retrieves the user role from context
func GetRole(ctx context.Context) (int, bool) {
	role, ok := ctx.Value(roleKey).(int)
	return role, ok
}

// WithUser returns a context carrying userID and role, as the middleware would set them
func WithUser(ctx context.Context, userID, role int) context.Context {
	ctx = context.WithValue(ctx, userIDKey, userID)
	return context.WithValue(ctx, roleKey, role)
}

// extractToken reads a bearer token from the Authorization header, falling back to the access_token cookie
func extractToken(r *http.Request) string {
	if authHeader := r.Header.Get("Authorization"); authHeader != "" {
		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) == 2 && strings.EqualFold(parts[0], "bearer") {
			return strings.TrimSpace(parts[1])
		}
	}
	if cookie, err := r.Cookie("access_token"); err == nil {
		return cookie.Value
	}
	return ""
}

func writeError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write([]byte(`{"error":"` + message + `"}`))
}
