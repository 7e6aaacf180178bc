// Package mailsender assembles and runs the mail worker that consumes
// password-reset messages from the queue and delivers them over SMTP.
package mailsender

import (
	"context"
	"log/slog"

	"github.com/streadway/amqp"

	"github.com/kwachatech/streamgate/internal/config"
	libsmtp "github.com/kwachatech/streamgate/internal/lib/smtp"
	"github.com/kwachatech/streamgate/internal/rabbitmq"
	senderservice "github.com/kwachatech/streamgate/internal/services/sender"
)

// App is the assembled mail worker.
type App struct {
	conn          *amqp.Connection
	ch            *amqp.Channel
	senderService *senderservice.SenderService
	logger        *slog.Logger
}

// New connects to the broker and wires the SMTP transport.
func New(cfg *config.Config, logger *slog.Logger) (*App, error) {
	conn, err := rabbitmq.Connect(cfg.RabbitURL, cfg.RabbitRetries, cfg.RabbitDelay)
	if err != nil {
		return nil, err
	}
	ch, err := rabbitmq.SetupChannel(conn)
	if err != nil {
		if closeErr := conn.Close(); closeErr != nil {
			logger.Error("failed to close connection", slog.Any("err", closeErr))
		}
		return nil, err
	}

	transport := libsmtp.NewTransport(cfg.SMTPConnection, logger)
	senderService := senderservice.New(transport, logger)

	return &App{
		conn:          conn,
		ch:            ch,
		senderService: senderService,
		logger:        logger,
	}, nil
}

// Run consumes the reset queue until ctx is cancelled.
func (a *App) Run(ctx context.Context) error {
	err := rabbitmq.ConsumeMessages(ctx, a.ch, rabbitmq.ResetQueue, a.senderService.SendPasswordResetEmail)
	if err != nil {
		a.logger.Error("failed to start reset queue consumer", slog.Any("err", err))
		return err
	}

	<-ctx.Done()
	a.logger.Info("mail sender shutting down gracefully")

	if err := a.ch.Close(); err != nil {
		a.logger.Error("failed to close channel", slog.Any("err", err))
	}
	if err := a.conn.Close(); err != nil {
		a.logger.Error("failed to close connection", slog.Any("err", err))
	}
	return nil
}
