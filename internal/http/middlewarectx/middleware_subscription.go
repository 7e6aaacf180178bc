package middlewarectx

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/render"

	"github.com/kwachatech/streamgate/internal/http/response"
	"github.com/kwachatech/streamgate/internal/lib/sl"
	"github.com/kwachatech/streamgate/internal/models"
)

// SubscriptionGuard decides whether a principal may reach gated content.
type SubscriptionGuard interface {
	RequireActive(user *models.User) error
}

// SubscriptionMiddleware gates subscription-only routes. Must run after
// JWTMiddleware; entitlement is computed from the live principal in the
// context, never from token claims.
func SubscriptionMiddleware(guard SubscriptionGuard, log *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user, ok := Principal(r.Context())
			if !ok {
				log.Error("principal missing from context")
				w.WriteHeader(http.StatusUnauthorized)
				render.JSON(w, r, response.Error("user identification missing"))
				return
			}

			if err := guard.RequireActive(user); err != nil {
				log.Info("subscription required, access denied",
					slog.String("user_id", user.ID), sl.Err(err))
				w.WriteHeader(http.StatusForbidden)
				render.JSON(w, r, response.Error("subscription required to access this content"))
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// AdminMiddleware restricts a route to administrators. Must run after
// JWTMiddleware.
func AdminMiddleware(log *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user, ok := Principal(r.Context())
			if !ok {
				log.Error("principal missing from context")
				w.WriteHeader(http.StatusUnauthorized)
				render.JSON(w, r, response.Error("user identification missing"))
				return
			}

			if !user.IsAdmin {
				log.Info("admin access denied", slog.String("user_id", user.ID))
				w.WriteHeader(http.StatusForbidden)
				render.JSON(w, r, response.Error("admin access required"))
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
