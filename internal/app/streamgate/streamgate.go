// Package streamgate assembles and runs the API server: storage,
// migrations, cache, mail queue, payment provider, services and routes.
package streamgate

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi"
	"github.com/streadway/amqp"

	"github.com/kwachatech/streamgate/internal/cache"
	"github.com/kwachatech/streamgate/internal/config"
	"github.com/kwachatech/streamgate/internal/lib/jwt"
	"github.com/kwachatech/streamgate/internal/migrations"
	"github.com/kwachatech/streamgate/internal/paymentprovider"
	"github.com/kwachatech/streamgate/internal/rabbitmq"
	authservice "github.com/kwachatech/streamgate/internal/services/auth"
	subservice "github.com/kwachatech/streamgate/internal/services/subscription"
	"github.com/kwachatech/streamgate/internal/storage/repository"
)

// App is the assembled API server with its owned connections.
type App struct {
	server     *http.Server
	logger     *slog.Logger
	db         *repository.Storage
	rabbitConn *amqp.Connection
}

// New wires the full dependency graph and returns a ready-to-run App.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	db, err := repository.New(cfg.StorageConnectionString)
	if err != nil {
		return nil, err
	}
	if err = migrations.Run(db.DB, cfg.MigrationsPath); err != nil {
		return nil, err
	}

	cacheRedis, err := cache.InitServer(ctx, cfg.RedisConnection)
	if err != nil {
		return nil, err
	}

	rabbitConn, err := rabbitmq.Connect(cfg.RabbitURL, cfg.RabbitRetries, cfg.RabbitDelay)
	if err != nil {
		return nil, err
	}
	rabbitCh, err := rabbitmq.SetupChannel(rabbitConn)
	if err != nil {
		return nil, err
	}
	mailPublisher := rabbitmq.NewPublisher(rabbitCh)

	jwtMaker := jwt.NewMaker(
		cfg.JWTSecretKey,
		cfg.AccessTokenTTL,
		cfg.RefreshTokenTTL,
		cfg.ResetTokenTTL,
	)
	providerClient := paymentprovider.NewClient(cfg.ProviderSecretKey, cfg.ProviderAPIURL)

	authService := authservice.New(db, jwtMaker, mailPublisher)
	subscriptionService := subservice.New(db, providerClient, cacheRedis, logger)

	router := chi.NewRouter()
	RegisterRoutes(router, logger, cfg, authService, subscriptionService, db)

	srv := &http.Server{
		Addr:         cfg.AddressHTTP,
		Handler:      router,
		ReadTimeout:  cfg.TimeoutHTTP,
		WriteTimeout: cfg.TimeoutHTTP,
		IdleTimeout:  cfg.IdleTimeout,
	}

	return &App{
		server:     srv,
		logger:     logger,
		db:         db,
		rabbitConn: rabbitConn,
	}, nil
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (a *App) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		a.logger.Info("HTTP server starting on", slog.String("address", a.server.Addr))
		err := a.server.ListenAndServe()
		if errors.Is(err, http.ErrServerClosed) {
			errCh <- nil
		} else {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		timeoutCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		a.logger.Info("shutting down HTTP server gracefully")
		err := a.server.Shutdown(timeoutCtx)
		if closeErr := a.rabbitConn.Close(); closeErr != nil {
			a.logger.Error("failed to close rabbitmq connection", slog.String("error", closeErr.Error()))
		}
		if closeErr := a.db.DB.Close(); closeErr != nil {
			a.logger.Error("failed to close database", slog.String("error", closeErr.Error()))
		}
		return err
	}
}
