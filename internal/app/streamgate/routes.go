package streamgate

import (
	"log/slog"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	httpSwagger "github.com/swaggo/http-swagger"
	"golang.org/x/time/rate"

	"github.com/kwachatech/streamgate/internal/config"
	"github.com/kwachatech/streamgate/internal/http/handlers/auth/forgotpassword"
	"github.com/kwachatech/streamgate/internal/http/handlers/auth/login"
	"github.com/kwachatech/streamgate/internal/http/handlers/auth/refresh"
	"github.com/kwachatech/streamgate/internal/http/handlers/auth/register"
	"github.com/kwachatech/streamgate/internal/http/handlers/auth/resetpassword"
	"github.com/kwachatech/streamgate/internal/http/handlers/health"
	"github.com/kwachatech/streamgate/internal/http/handlers/subscription/paymentinitiate"
	"github.com/kwachatech/streamgate/internal/http/handlers/subscription/paymentverify"
	"github.com/kwachatech/streamgate/internal/http/handlers/subscription/paymentwebhook"
	"github.com/kwachatech/streamgate/internal/http/handlers/subscription/plancreate"
	"github.com/kwachatech/streamgate/internal/http/handlers/subscription/planlist"
	"github.com/kwachatech/streamgate/internal/http/handlers/subscription/planread"
	"github.com/kwachatech/streamgate/internal/http/handlers/subscription/planupdate"
	"github.com/kwachatech/streamgate/internal/http/handlers/subscription/status"
	"github.com/kwachatech/streamgate/internal/http/handlers/user/remove"
	"github.com/kwachatech/streamgate/internal/http/handlers/video/videolist"
	"github.com/kwachatech/streamgate/internal/http/handlers/video/videoread"
	"github.com/kwachatech/streamgate/internal/http/middlewarectx"
	authservice "github.com/kwachatech/streamgate/internal/services/auth"
	subservice "github.com/kwachatech/streamgate/internal/services/subscription"
	"github.com/kwachatech/streamgate/internal/storage/repository"
)

// RegisterRoutes mounts every endpoint of the API server.
//
// Three tiers: public (register, login, token flows, webhook, health),
// authenticated (plans, payments, status, account) and gated (videos require
// an active subscription on top of authentication). Admin routes add the
// admin gate.
func RegisterRoutes(
	r chi.Router,
	logger *slog.Logger,
	cfg *config.Config,
	authService *authservice.AuthService,
	subscriptionService *subservice.Service,
	store *repository.Storage,
) {
	r.Use(
		middleware.RequestID,
		middleware.Logger,
		middleware.Recoverer,
		middleware.URLFormat,
		middlewarectx.MetricsMiddleware,
	)

	limiter := rate.NewLimiter(rate.Limit(100), 200)

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middlewarectx.RateLimitMiddleware(limiter, logger))

		r.Post("/register", register.New(logger, authService).ServeHTTP)
		r.Post("/login", login.New(logger, authService).ServeHTTP)
		r.Post("/refresh", refresh.New(logger, authService).ServeHTTP)
		r.Post("/forgot-password", forgotpassword.New(logger, authService).ServeHTTP)
		r.Post("/reset-password", resetpassword.New(logger, authService).ServeHTTP)

		// Provider notifications carry an HMAC signature, not a bearer token.
		r.Post("/subscriptions/webhook", paymentwebhook.New(logger, subscriptionService, cfg.WebhookSecret).ServeHTTP)

		r.Group(func(r chi.Router) {
			r.Use(middlewarectx.JWTMiddleware(authService, logger))

			r.Get("/plans", planlist.New(logger, subscriptionService, true).ServeHTTP)
			r.Get("/plans/{id}", planread.New(logger, subscriptionService).ServeHTTP)

			r.Get("/subscriptions/status", status.New(logger, subscriptionService).ServeHTTP)
			r.Post("/subscriptions/initiate-payment", paymentinitiate.New(logger, subscriptionService).ServeHTTP)
			r.Get("/subscriptions/verify-payment/{tx_ref}", paymentverify.New(logger, subscriptionService).ServeHTTP)

			r.Group(func(r chi.Router) {
				r.Use(middlewarectx.SubscriptionMiddleware(subscriptionService, logger))
				r.Get("/videos", videolist.New(logger, store).ServeHTTP)
				r.Get("/videos/{id}", videoread.New(logger, store).ServeHTTP)
			})

			r.Route("/admin", func(r chi.Router) {
				r.Use(middlewarectx.AdminMiddleware(logger))
				r.Post("/plans", plancreate.New(logger, subscriptionService).ServeHTTP)
				r.Put("/plans/{id}", planupdate.New(logger, subscriptionService).ServeHTTP)
				r.Get("/plans", planlist.New(logger, subscriptionService, false).ServeHTTP)
				r.Delete("/users/{id}", remove.New(logger, authService).ServeHTTP)
			})
		})
	})

	r.Get("/health", health.New())
	r.Handle("/metrics", promhttp.Handler())
	r.Get("/docs/*", httpSwagger.WrapHandler)
}
