package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/xelth-com/fieldopsgo/internal/models"
	"github.com/xelth-com/fieldopsgo/internal/utils"
)

type contextKey string

const UserContextKey contextKey = "user"

// AuthMiddleware verifies JWT tokens
func AuthMiddleware(secret string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				http.Error(w, "Authorization header required", http.StatusUnauthorized)
				return
			}

			// Bearer token
			parts := strings.Split(authHeader, " ")
			if len(parts) != 2 || parts[0] != "Bearer" {
				http.Error(w, "Invalid authorization header format", http.StatusUnauthorized)
				return
			}

			claims, err := utils.ValidateToken(parts[1], secret)
			if err != nil {
				http.Error(w, "Invalid or expired token", http.StatusUnauthorized)
				return
			}

			// Add claims to context
			ctx := context.WithValue(r.Context(), UserContextKey, claims)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// Claims extracts the token claims stored by AuthMiddleware.
func Claims(r *http.Request) (jwt.MapClaims, bool) {
	claims, ok := r.Context().Value(UserContextKey).(jwt.MapClaims)
	return claims, ok
}

// RoleOf returns the caller's role from the token claims.
func RoleOf(r *http.Request) models.Role {
	claims, ok := Claims(r)
	if !ok {
		return ""
	}
	role, _ := claims["role"].(string)
	return models.Role(role)
}

// UserIDOf returns the caller's server-side user id from the token claims.
func UserIDOf(r *http.Request) int64 {
	claims, ok := Claims(r)
	if !ok {
		return models.ServerKeyUnassigned
	}
	id, ok := claims["server_id"].(float64)
	if !ok {
		return models.ServerKeyUnassigned
	}
	return int64(id)
}

// RequireRole rejects callers whose token does not carry one of the
// allowed roles. Workflow handlers still re-check the role against the
// transition table; this gate only fails fast.
func RequireRole(roles ...models.Role) func(http.Handler) http.Handler {
	allowed := make(map[models.Role]bool, len(roles))
	for _, role := range roles {
		allowed[role] = true
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !allowed[RoleOf(r)] {
				http.Error(w, "Forbidden for this role", http.StatusForbidden)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
