package event

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/rabbitmq/amqp091-go"
	"github.com/rs/zerolog"
)

// Publisher pushes platform events to the message broker.
type Publisher struct {
	conn    *amqp091.Connection
	channel *amqp091.Channel
	enabled bool
	log     zerolog.Logger
}

// NewPublisher connects to the broker and declares the topic exchange. An
// empty URI disables publishing instead of failing, so the engine keeps
// working without a broker (certificates are simply not issued).
func NewPublisher(amqpURI string, log zerolog.Logger) (*Publisher, error) {
	log = log.With().Str("component", "event_publisher").Logger()

	if amqpURI == "" {
		log.Warn().Msg("AMQP URI is empty, event publishing disabled")
		return &Publisher{enabled: false, log: log}, nil
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
		ExchangeName, // name
		"topic",      // type
		true,         // durable
		false,        // auto-deleted
		false,        // internal
		false,        // no-wait
		nil,          // arguments
	)
	if err != nil {
		channel.Close()
		conn.Close()
		return nil, fmt.Errorf("failed to declare exchange: %w", err)
	}

	return &Publisher{
		conn:    conn,
		channel: channel,
		enabled: true,
		log:     log,
	}, nil
}

// PublishLevelAwarded announces an awarded level for downstream consumers
// (certificate issuance).
func (p *Publisher) PublishLevelAwarded(ctx context.Context, evt *LevelAwardedEvent) error {
	return p.publish(ctx, RoutingKeyLevelAwarded, evt)
}

func (p *Publisher) publish(ctx context.Context, routingKey string, event any) error {
	if !p.enabled {
		p.log.Debug().Str("routing_key", routingKey).Msg("Publishing disabled, dropping event")
		return nil
	}

	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	pubCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	err = p.channel.PublishWithContext(
		pubCtx,
		ExchangeName,
		routingKey,
		false, // mandatory
		false, // immediate
		amqp091.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp091.Persistent,
			Timestamp:    time.Now(),
			Body:         body,
		},
	)
	if err != nil {
		return fmt.Errorf("failed to publish event: %w", err)
	}

	p.log.Debug().Str("routing_key", routingKey).Msg("Published event")
	return nil
}

// Close tears down the channel and connection.
func (p *Publisher) Close() error {
	if !p.enabled {
		return nil
	}

	if p.channel != nil {
		if err := p.channel.Close(); err != nil {
			p.log.Error().Err(err).Msg("Error closing RabbitMQ channel")
		}
	}

	if p.conn != nil {
		if err := p.conn.Close(); err != nil {
			return fmt.Errorf("error closing RabbitMQ connection: %w", err)
		}
	}

	return nil
}
