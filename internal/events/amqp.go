package events

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/rs/zerolog"
)

type amqpChannel interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
	Close() error
}

// AMQPForwarder republishes bus events on a durable topic exchange.
// Routing keys are "velorent.<event type>".
type AMQPForwarder struct {
	conn     *amqp.Connection
	ch       amqpChannel
	exchange string
	timeout  time.Duration
	logger   *zerolog.Logger
}

func DialAMQP(url, exchange string, logger *zerolog.Logger) (*AMQPForwarder, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("dial rabbitmq: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("open channel: %w", err)
	}
	if err := ch.ExchangeDeclare(exchange, "topic", true, false, false, false, nil); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, fmt.Errorf("declare exchange: %w", err)
	}
	f := newAMQPForwarder(ch, exchange, logger)
	f.conn = conn
	return f, nil
}

func newAMQPForwarder(ch amqpChannel, exchange string, logger *zerolog.Logger) *AMQPForwarder {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	return &AMQPForwarder{ch: ch, exchange: exchange, timeout: 5 * time.Second, logger: logger}
}

// Attach forwards every event published on bus.
func (f *AMQPForwarder) Attach(bus *EventBus) {
	bus.SubscribeAll(f.Handle)
}

func (f *AMQPForwarder) Handle(event *Event) error {
	ctx, cancel := context.WithTimeout(context.Background(), f.timeout)
	defer cancel()

	err := f.ch.PublishWithContext(ctx, f.exchange, RoutingKey(event.Type), false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		MessageId:    uuid.NewString(),
		Type:         event.Type,
		Timestamp:    event.CreatedAt,
		Body:         event.Payload,
	})
	if err != nil {
		f.logger.Error().Err(err).Str("event_type", event.Type).Msg("amqp publish failed")
		return err
	}
	return nil
}

func RoutingKey(eventType string) string {
	return "velorent." + eventType
}

func (f *AMQPForwarder) Close() error {
	if f.ch != nil {
		_ = f.ch.Close()
	}
	if f.conn != nil {
		return f.conn.Close()
	}
	return nil
}
