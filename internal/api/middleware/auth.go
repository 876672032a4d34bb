package middleware

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/example/celulex-store/internal/auth"
)

// respondError writes a JSON error response
func respondError(w http.ResponseWriter, message string, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": message})
}

// ExtractToken extracts a bearer token from the Authorization header.
func ExtractToken(r *http.Request) string {
	if authHeader := r.Header.Get("Authorization"); strings.HasPrefix(authHeader, "Bearer ") {
		return strings.TrimPrefix(authHeader, "Bearer ")
	}
	return ""
}

// RequireAdmin gates admin-only routes. Browser clients are authorized by
// the session's admin flag; API clients may instead present a bearer token
// with the admin role.
func RequireAdmin(jwtService *auth.JWTService) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if sess, ok := GetSession(r.Context()); ok && sess.IsAdmin {
				next.ServeHTTP(w, r)
				return
			}

			if token := ExtractToken(r); token != "" {
				claims, err := jwtService.ValidateToken(token)
				if err == nil && claims.Role == auth.RoleAdmin {
					next.ServeHTTP(w, r)
					return
				}
			}

			respondError(w, "unauthorized", http.StatusUnauthorized)
		})
	}
}
