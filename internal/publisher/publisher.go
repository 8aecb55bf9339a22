// Package publisher announces check-ins to a message broker. Publishing is
// fire-and-forget: a broker failure is logged and never undoes a check-in.
package publisher

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/gravadigital/eventmaster-api/internal/logger"
)

// RoutingCheckedIn is the routing key of CheckedIn messages.
const RoutingCheckedIn = "guest.checked_in"

// CheckedIn is the body published after a successful check-in.
type CheckedIn struct {
	GuestID      uuid.UUID `json:"guest_id"`
	EventID      uuid.UUID `json:"event_id"`
	Name         string    `json:"name"`
	Method       string    `json:"method"`
	AuthorizedBy string    `json:"authorized_by"`
	CheckedInAt  time.Time `json:"checked_in_at"`
}

// Publisher sends check-in notifications.
type Publisher interface {
	PublishCheckIn(ctx context.Context, msg CheckedIn)
	Close() error
}

// Noop discards every message.
type Noop struct{}

func (Noop) PublishCheckIn(context.Context, CheckedIn) {}
func (Noop) Close() error                              { return nil }

// Rabbit publishes to a durable topic exchange.
type Rabbit struct {
	mu       sync.Mutex
	conn     *amqp.Connection
	channel  *amqp.Channel
	exchange string
	log      *log.Logger
}

// NewRabbit dials url and declares exchange.
func NewRabbit(url, exchange string) (*Rabbit, error) {
	log := logger.Integration("rabbitmq")

	conn, err := amqp.Dial(url)
	if err != nil {
		log.Error("Failed to connect to RabbitMQ", "error", err)
		return nil, err
	}

	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		log.Error("Failed to open RabbitMQ channel", "error", err)
		return nil, err
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
		log.Error("Failed to declare exchange", "exchange", exchange, "error", err)
		return nil, err
	}

	log.Info("RabbitMQ publisher initialized", "exchange", exchange)
	return &Rabbit{conn: conn, channel: ch, exchange: exchange, log: log}, nil
}

func (r *Rabbit) PublishCheckIn(ctx context.Context, msg CheckedIn) {
	body, err := json.Marshal(msg)
	if err != nil {
		r.log.Error("Failed to encode check-in message", "error", err)
		return
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	err = r.channel.PublishWithContext(ctx,
		r.exchange,
		RoutingCheckedIn,
		false,
		false,
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			MessageId:    uuid.NewString(),
			Timestamp:    time.Now(),
			Body:         body,
		},
	)
	if err != nil {
		r.log.Warn("Failed to publish check-in", "guest_id", msg.GuestID, "error", err)
		return
	}
	r.log.Debug("Check-in published", "guest_id", msg.GuestID, "exchange", r.exchange)
}

func (r *Rabbit) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.channel != nil {
		_ = r.channel.Close()
	}
	if r.conn != nil {
		if err := r.conn.Close(); err != nil {
			return err
		}
	}
	r.log.Info("RabbitMQ connection closed")
	return nil
}
