package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/vaughan-dsouza/BeAuth/internal/auth"
	"github.com/vaughan-dsouza/BeAuth/internal/session"
	"github.com/vaughan-dsouza/BeAuth/internal/utils"
)

type ctxKey string

const ctxClaimsKey ctxKey = "claims"

// Authenticator verifies a presented session token.
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (*auth.Claims, error)
}

// ClaimsFromContext returns the claims stored by AuthMiddleware.
func ClaimsFromContext(ctx context.Context) (*auth.Claims, bool) {
	c, ok := ctx.Value(ctxClaimsKey).(*auth.Claims)
	return c, ok
}

// AuthMiddleware accepts the session cookie or an "Authorization: Bearer"
// header, in that order.
func AuthMiddleware(authn Authenticator, transport *session.Transport) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, ok := transport.Get(r, session.CookieName)
			if !ok || token == "" {
				token = bearerToken(r)
			}
			if token == "" {
				utils.JSONError(w, http.StatusUnauthorized, auth.CodeAuthRequired, "Authentication required")
				return
			}

			claims, err := authn.Authenticate(r.Context(), token)
			if err != nil {
				utils.JSONError(w, http.StatusUnauthorized, auth.CodeTokenInvalid, auth.ErrTokenVerify.Error())
				return
			}

			ctx := context.WithValue(r.Context(), ctxClaimsKey, claims)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func bearerToken(r *http.Request) string {
	h := r.Header.Get("Authorization")
	if h == "" {
		return ""
	}

	parts := strings.SplitN(h, " ", 2)
	if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
		return ""
	}

	return strings.TrimSpace(parts[1])
}
