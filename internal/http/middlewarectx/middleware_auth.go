// Package middlewarectx contains the HTTP middleware guarding protected
// routes: bearer-token session resolution, the subscription gate, the admin
// gate, rate limiting and request metrics.
//
// JWTMiddleware resolves the live principal behind the Authorization header
// and stores it in the request context; any failure is a 401. The
// subscription and admin gates run after it and answer 403, never 401: the
// caller is authenticated, just not entitled.
package middlewarectx

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/kwachatech/streamgate/internal/http/response"
	"github.com/kwachatech/streamgate/internal/lib/sl"
	"github.com/kwachatech/streamgate/internal/models"
)

// Key is the type for request-context keys set by this package.
type Key string

// PrincipalKey holds the resolved *models.User for the request.
const PrincipalKey Key = "principal"

// SessionResolver recovers the live principal behind an access token.
type SessionResolver interface {
	Resolve(ctx context.Context, token string) (*models.User, error)
}

// Principal extracts the resolved principal from the request context.
func Principal(ctx context.Context) (*models.User, bool) {
	user, ok := ctx.Value(PrincipalKey).(*models.User)
	return user, ok
}

// JWTMiddleware checks the bearer token in the Authorization header and
// stores the freshly resolved principal in the request context. Missing,
// malformed, expired and wrong-kind tokens, and tokens for deleted
// accounts, all collapse to 401.
func JWTMiddleware(resolver SessionResolver, log *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			const op = "middlewarectx.JWTMiddleware"

			log := log.With(
				slog.String("op", op),
				slog.String("request_id", middleware.GetReqID(r.Context())),
			)

			authHeader := r.Header.Get("Authorization")
			if !strings.HasPrefix(authHeader, "Bearer ") {
				log.Error("missing or invalid authorization header")
				w.WriteHeader(http.StatusUnauthorized)
				render.JSON(w, r, response.Error("missing or invalid authorization header"))
				return
			}
			tokenStr := strings.TrimPrefix(authHeader, "Bearer ")

			user, err := resolver.Resolve(r.Context(), tokenStr)
			if err != nil {
				log.Error("invalid or expired token", sl.Err(err))
				w.WriteHeader(http.StatusUnauthorized)
				render.JSON(w, r, response.Error("invalid or expired token"))
				return
			}
			ctx := context.WithValue(r.Context(), PrincipalKey, user)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
