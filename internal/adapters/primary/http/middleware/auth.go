package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/lorrc/service-desk-analytics/internal/auth"
	"github.com/lorrc/service-desk-analytics/internal/infrastructure/logging"
)

// contextKey is a custom type for context keys to avoid collisions.
type contextKey string

// OperatorClaimsKey is the key used to store operator claims in the request context.
const OperatorClaimsKey contextKey = "operatorClaims"

// TokenValidator validates bearer tokens. *auth.TokenManager implements it.
type TokenValidator interface {
	ValidateToken(token string) (*auth.Claims, error)
}

// JWTMiddleware validates the operator JWT from the Authorization header.
func JWTMiddleware(tv TokenValidator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				writeUnauthorized(w, "Authorization header is required")
				return
			}

			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
				writeUnauthorized(w, "Authorization header format must be Bearer {token}")
				return
			}

			claims, err := tv.ValidateToken(strings.TrimSpace(parts[1]))
			if err != nil {
				writeUnauthorized(w, "Invalid or expired token")
				return
			}

			// Add the claims to the context for downstream handlers to use.
			ctx := context.WithValue(r.Context(), OperatorClaimsKey, claims)
			ctx = logging.WithOperator(ctx, claims.Subject)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// GetOperatorClaims returns the claims stored by JWTMiddleware.
func GetOperatorClaims(ctx context.Context) (*auth.Claims, bool) {
	claims, ok := ctx.Value(OperatorClaimsKey).(*auth.Claims)
	return claims, ok && claims != nil
}

func writeUnauthorized(w http.ResponseWriter, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("WWW-Authenticate", `Bearer realm="service-desk-analytics"`)
	w.WriteHeader(http.StatusUnauthorized)
	_, _ = w.Write([]byte(`{"error":"` + message + `","code":"UNAUTHORIZED"}`))
}
