package worker

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/rabbitmq/amqp091-go"
	"github.com/rs/zerolog"
	"github.com/skillstage/skillstage-backend/internal/event"
	"github.com/skillstage/skillstage-backend/internal/service"
)

// CertificateWorker consumes level.awarded events and issues certificates.
// The session_id uniqueness in storage makes redeliveries harmless.
type CertificateWorker struct {
	conn         *amqp091.Connection
	channel      *amqp091.Channel
	queueName    string
	certificates *service.CertificateService
	enabled      bool
	log          zerolog.Logger
}

// NewCertificateWorker connects to the broker and binds the certificate queue
// to level.awarded. An empty URI disables the worker instead of failing.
func NewCertificateWorker(amqpURI string, certificates *service.CertificateService, log zerolog.Logger) (*CertificateWorker, error) {
	log = log.With().Str("component", "certificate_worker").Logger()

	if amqpURI == "" {
		log.Warn().Msg("AMQP URI is empty, certificate issuance disabled")
		return &CertificateWorker{enabled: false, log: log}, nil
	}

	conn, err := amqp091.Dial(amqpURI)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}

	channel, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to open a channel: %w", err)
	}

	err = channel.ExchangeDeclare(
		event.ExchangeName, // name
		"topic",            // type
		true,               // durable
		false,              // auto-deleted
		false,              // internal
		false,              // no-wait
		nil,                // arguments
	)
	if err != nil {
		channel.Close()
		conn.Close()
		return nil, fmt.Errorf("failed to declare exchange: %w", err)
	}

	queue, err := channel.QueueDeclare(
		event.CertificateQueueName, // name
		true,                       // durable
		false,                      // delete when unused
		false,                      // exclusive
		false,                      // no-wait
		nil,                        // arguments
	)
	if err != nil {
		channel.Close()
		conn.Close()
		return nil, fmt.Errorf("failed to declare queue: %w", err)
	}

	err = channel.QueueBind(
		queue.Name,                   // queue name
		event.RoutingKeyLevelAwarded, // routing key
		event.ExchangeName,           // exchange
		false,                        // no-wait
		nil,                          // arguments
	)
	if err != nil {
		channel.Close()
		conn.Close()
		return nil, fmt.Errorf("failed to bind queue: %w", err)
	}

	return &CertificateWorker{
		conn:         conn,
		channel:      channel,
		queueName:    queue.Name,
		certificates: certificates,
		enabled:      true,
		log:          log,
	}, nil
}

// Start begins consuming. It returns once the consume channel is registered;
// message handling runs until the delivery channel closes.
func (w *CertificateWorker) Start(ctx context.Context) error {
	if !w.enabled {
		return nil
	}

	if err := w.channel.Qos(10, 0, false); err != nil {
		return fmt.Errorf("failed to set QoS: %w", err)
	}

	msgs, err := w.channel.Consume(
		w.queueName, // queue
		"",          // consumer
		false,       // auto-ack
		false,       // exclusive
		false,       // no-local
		false,       // no-wait
		nil,         // args
	)
	if err != nil {
		return fmt.Errorf("failed to register consumer: %w", err)
	}

	go func() {
		w.log.Info().Msg("CertificateWorker started")
		for msg := range msgs {
			if err := w.processMessage(ctx, msg); err != nil {
				w.log.Error().Err(err).Msg("Failed to process message, requeueing")
				msg.Nack(false, true)
			} else {
				msg.Ack(false)
			}
		}
		w.log.Info().Msg("CertificateWorker delivery channel closed")
	}()

	return nil
}

func (w *CertificateWorker) processMessage(ctx context.Context, msg amqp091.Delivery) error {
	switch msg.RoutingKey {
	case event.RoutingKeyLevelAwarded:
		var evt event.LevelAwardedEvent
		if err := json.Unmarshal(msg.Body, &evt); err != nil {
			// Malformed payloads never get better on redelivery.
			w.log.Error().Err(err).Msg("Discarding malformed level.awarded payload")
			return nil
		}
		return w.certificates.IssueForAward(ctx, &evt)
	default:
		w.log.Warn().Str("routing_key", msg.RoutingKey).Msg("Unknown routing key, dropping")
		return nil
	}
}

// Close tears down the channel and connection.
func (w *CertificateWorker) Close() error {
	if !w.enabled {
		return nil
	}
	if w.channel != nil {
		if err := w.channel.Close(); err != nil {
			w.log.Error().Err(err).Msg("Error closing RabbitMQ channel")
		}
	}
	if w.conn != nil {
		return w.conn.Close()
	}
	return nil
}
