package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"household/internal/adapters/auth"
)

// contextKey is an unexported type for context keys in this package.
type contextKey string

const claimsContextKey contextKey = "claims"

// TokenVerifier checks a bearer token.
type TokenVerifier interface {
	Verify(token string) (auth.Claims, error)
}

// Auth returns middleware that verifies the bearer token, when present, and sets the
// claims in context. It does NOT block unauthenticated requests; use RequireBearer for that.
func Auth(verifier TokenVerifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if token, ok := bearerToken(r); ok && verifier != nil {
				claims, err := verifier.Verify(token)
				if err != nil {
					slog.Info("auth_event", "event", "token_rejected", "path", r.URL.Path, "error", err)
				} else {
					r = r.WithContext(ContextWithClaims(r.Context(), claims))
				}
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequireBearer returns middleware that blocks requests without verified claims (401)
// or whose role is not in roles (403). No roles means any verified token passes.
func RequireBearer(roles ...string) func(http.Handler) http.Handler {
	roleSet := make(map[string]bool, len(roles))
	for _, r := range roles {
		roleSet[r] = true
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims, ok := ClaimsFromContext(r.Context())
			if !ok {
				w.Header().Set("WWW-Authenticate", `Bearer realm="household"`)
				writeJSONError(w, http.StatusUnauthorized, "unauthorized", "a valid bearer token is required")
				return
			}
			if len(roleSet) > 0 && !roleSet[claims.Role] {
				writeJSONError(w, http.StatusForbidden, "forbidden", "your role may not perform this action")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// ClaimsFromContext extracts verified claims from the request context.
func ClaimsFromContext(ctx context.Context) (auth.Claims, bool) {
	claims, ok := ctx.Value(claimsContextKey).(auth.Claims)
	return claims, ok
}

// ContextWithClaims returns a context carrying claims.
// Intended for use in tests.
func ContextWithClaims(ctx context.Context, claims auth.Claims) context.Context {
	return context.WithValue(ctx, claimsContextKey, claims)
}

func bearerToken(r *http.Request) (string, bool) {
	h := r.Header.Get("Authorization")
	scheme, token, ok := strings.Cut(h, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

// HasBearer reports whether the request carries a bearer Authorization header.
func HasBearer(r *http.Request) bool {
	_, ok := bearerToken(r)
	return ok
}
