// Package middleware contains the HTTP middleware mounted by the router:
// bearer-token authentication, login throttling, request logging and
// request metrics.
package middleware

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/andrestovio/module10-is601/internal/security"
	"github.com/andrestovio/module10-is601/internal/utils/response"
)

// TokenParser verifies a raw bearer token.
type TokenParser interface {
	Parse(raw string) (*security.Claims, error)
}

type claimsKey struct{}

var (
	errMissingToken = errors.New("missing bearer token")
	errBadToken     = errors.New("invalid or expired token")
)

// Authenticate rejects requests without a valid "Authorization: Bearer"
// token with 401 and stores the verified claims in the request context.
func Authenticate(tokens TokenParser) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw, ok := BearerToken(r)
			if !ok {
				w.Header().Set("WWW-Authenticate", `Bearer realm="users-api"`)
				response.WriteJSON(w, http.StatusUnauthorized, response.GeneralError(errMissingToken))
				return
			}

			claims, err := tokens.Parse(raw)
			if err != nil {
				slog.Debug("rejected bearer token",
					slog.String("path", r.URL.Path),
					slog.String("error", err.Error()))
				w.Header().Set("WWW-Authenticate", `Bearer realm="users-api", error="invalid_token"`)
				response.WriteJSON(w, http.StatusUnauthorized, response.GeneralError(errBadToken))
				return
			}

			next.ServeHTTP(w, r.WithContext(WithClaims(r.Context(), claims)))
		})
	}
}

// BearerToken extracts the token from the Authorization header. The scheme
// is matched case-insensitively.
func BearerToken(r *http.Request) (string, bool) {
	h := r.Header.Get("Authorization")
	scheme, token, found := strings.Cut(h, " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

// WithClaims returns a copy of ctx carrying claims.
func WithClaims(ctx context.Context, claims *security.Claims) context.Context {
	return context.WithValue(ctx, claimsKey{}, claims)
}

// ClaimsFromContext returns the claims stored by Authenticate.
func ClaimsFromContext(ctx context.Context) (*security.Claims, bool) {
	c, ok := ctx.Value(claimsKey{}).(*security.Claims)
	return c, ok && c != nil
}
