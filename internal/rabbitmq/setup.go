package rabbitmq

import (
	"fmt"

	"github.com/streadway/amqp"
)

const (
	// MailExchange is the direct exchange for outbound account mail.
	MailExchange = "mail"
	// ResetQueue holds password-reset email messages.
	ResetQueue = "mail.password_reset"
	// ResetRoutingKey routes reset messages into ResetQueue.
	ResetRoutingKey = "password_reset"
)

// SetupChannel opens a channel and declares the mail exchange and queues.
func SetupChannel(conn *amqp.Connection) (*amqp.Channel, error) {
	const op = "rabbitmq.SetupChannel"

	ch, err := conn.Channel()
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if err := ch.Qos(10, 0, false); err != nil {
		return nil, fmt.Errorf("%s: failed to set QoS: %w", op, err)
	}

	err = ch.ExchangeDeclare(
		MailExchange,
		"direct",
		true,
		false,
		false,
		false,
		nil,
	)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	_, err = ch.QueueDeclare(
		ResetQueue,
		true,
		false,
		false,
		false,
		nil,
	)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to declare queue %s: %w", op, ResetQueue, err)
	}

	err = ch.QueueBind(ResetQueue, ResetRoutingKey, MailExchange, false, nil)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to bind queue %s: %w", op, ResetQueue, err)
	}

	return ch, nil
}
