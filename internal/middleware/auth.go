package middleware

import (
	"context"
	"encoding/json"
	"net/http"

	log "github.com/sirupsen/logrus"
	"github.com/ukydev/claims-portal/internal/auth"
)

// contextKey is a custom type for context keys to avoid collisions
type contextKey string

const (
	PrincipalContextKey contextKey = "principal"
	RequestIDContextKey contextKey = "request_id"
)

// TokenValidator is implemented by auth.Service.
type TokenValidator interface {
	ValidateToken(tokenString string) (*auth.Principal, error)
}

// AuthMiddleware guards handlers with bearer tokens. A nil validator lets
// every request through.
type AuthMiddleware struct {
	validator TokenValidator
}

// NewAuthMiddleware creates a new authentication middleware
func NewAuthMiddleware(validator TokenValidator) *AuthMiddleware {
	return &AuthMiddleware{validator: validator}
}

// Enabled reports whether tokens are checked.
func (m *AuthMiddleware) Enabled() bool {
	return m != nil && m.validator != nil
}

// Authenticate validates the bearer token and adds the principal to the context.
func (m *AuthMiddleware) Authenticate(next http.Handler) http.Handler {
	if !m.Enabled() {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, err := auth.ExtractTokenFromHeader(r.Header.Get("Authorization"))
		if err != nil {
			writeMessage(w, http.StatusUnauthorized, "Authorization header required")
			return
		}

		principal, err := m.validator.ValidateToken(token)
		if err != nil {
			log.WithError(err).WithField("path", r.URL.Path).Warn("Rejected bearer token")
			writeMessage(w, http.StatusUnauthorized, "Invalid token")
			return
		}

		ctx := context.WithValue(r.Context(), PrincipalContextKey, principal)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// GetPrincipalFromContext extracts the authenticated principal from request context
func GetPrincipalFromContext(ctx context.Context) (*auth.Principal, bool) {
	principal, ok := ctx.Value(PrincipalContextKey).(*auth.Principal)
	return principal, ok
}

func writeMessage(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"message": message})
}
