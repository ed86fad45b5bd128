package notify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/rs/zerolog"
)

// ErrConnectionLost is returned by Publish once the broker connection has
// dropped. The publisher does not reconnect; restart the process.
var ErrConnectionLost = errors.New("notification broker connection lost")

// AMQPPublisher publishes notifications as JSON to a durable topic exchange,
// routed by Kind.
type AMQPPublisher struct {
	conn     *amqp.Connection
	mu       sync.Mutex
	channel  *amqp.Channel
	exchange string
	log      zerolog.Logger
	lost     atomic.Bool
}

// NewAMQPPublisher dials url and declares exchange.
func NewAMQPPublisher(url, exchange string, log zerolog.Logger) (*AMQPPublisher, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("connect to broker: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("open channel: %w", err)
	}

	if err := ch.ExchangeDeclare(
		exchange,
		amqp.ExchangeTopic,
		true,
		false,
		false,
		false,
		nil,
	); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, fmt.Errorf("declare exchange %s: %w", exchange, err)
	}

	log.Info().Str("exchange", exchange).Msg("notification broker connected")

	p := &AMQPPublisher{conn: conn, channel: ch, exchange: exchange, log: log}
	go p.watch(conn.NotifyClose(make(chan *amqp.Error, 1)))
	return p, nil
}

// watch logs the connection closing once. A graceful Close closes the
// channel without an error.
func (p *AMQPPublisher) watch(closed <-chan *amqp.Error) {
	err, ok := <-closed
	if !ok || err == nil {
		return
	}
	p.lost.Store(true)
	p.log.Error().
		Int("code", err.Code).
		Str("reason", err.Reason).
		Bool("server", err.Server).
		Str("exchange", p.exchange).
		Msg("notification broker connection closed, notifications will be dropped")
}

// Publish sends n with its Kind as routing key.
func (p *AMQPPublisher) Publish(ctx context.Context, n Notification) error {
	if p.lost.Load() {
		return ErrConnectionLost
	}
	body, err := json.Marshal(n)
	if err != nil {
		return fmt.Errorf("encode notification: %w", err)
	}

	// amqp channels are not safe for concurrent publishing.
	p.mu.Lock()
	defer p.mu.Unlock()

	err = p.channel.PublishWithContext(
		ctx,
		p.exchange,
		string(n.Kind),
		false,
		false,
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			MessageId:    n.EventID.String(),
			Timestamp:    n.At,
			Type:         string(n.Kind),
			Body:         body,
		},
	)
	if err != nil {
		return fmt.Errorf("publish %s: %w", n.Kind, err)
	}

	p.log.Debug().Str("kind", string(n.Kind)).Str("event_id", n.EventID.String()).Msg("notification published")
	return nil
}

// Close closes the channel and the connection.
func (p *AMQPPublisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.channel != nil {
		_ = p.channel.Close()
	}
	if p.conn != nil {
		return p.conn.Close()
	}
	return nil
}
