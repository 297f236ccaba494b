package feed

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/rabbitmq/amqp091-go"
)

const publishTimeout = 5 * time.Second

var ErrRelayClosed = errors.New("relay delivery channel closed")

// Relay carries change events between processes through a RabbitMQ fanout
// exchange. Every process binds its own exclusive queue and re-broadcasts
// received events on its local hub, including the ones it published itself.
type Relay struct {
	conn     *amqp091.Connection
	channel  *amqp091.Channel
	exchange string
	queue    string
	hub      *Hub
	pubMu    sync.Mutex
	// Set once Run returns. Nothing relays events back to the local hub
	// from then on, so Publish delivers locally.
	stopped atomic.Bool
}

type envelope struct {
	UserID uuid.UUID `json:"user_id"`
	Event  Event     `json:"event"`
}

func NewRelay(url, exchange string, hub *Hub) (*Relay, error) {
	conn, err := amqp091.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("dialing amqp: %w", err)
	}

	channel, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("opening channel: %w", err)
	}

	r := &Relay{
		conn:     conn,
		channel:  channel,
		exchange: exchange,
		hub:      hub,
	}

	if err := r.setup(); err != nil {
		r.Close()
		return nil, fmt.Errorf("setting up relay: %w", err)
	}

	return r, nil
}

func (r *Relay) setup() error {
	err := r.channel.ExchangeDeclare(
		r.exchange, // name
		"fanout",   // type
		true,       // durable
		false,      // auto-deleted
		false,      // internal
		false,      // no-wait
		nil,        // arguments
	)
	if err != nil {
		return fmt.Errorf("declaring exchange: %w", err)
	}

	q, err := r.channel.QueueDeclare(
		"",    // server-named
		false, // durable
		true,  // delete when unused
		true,  // exclusive
		false, // no-wait
		nil,   // arguments
	)
	if err != nil {
		return fmt.Errorf("declaring queue: %w", err)
	}

	if err := r.channel.QueueBind(q.Name, "", r.exchange, false, nil); err != nil {
		return fmt.Errorf("binding queue: %w", err)
	}

	r.queue = q.Name

	return nil
}

// Publish sends the event to every relay process. If the broker is
// unreachable, or the consumer has stopped, the event is still delivered to
// local subscribers.
func (r *Relay) Publish(userID uuid.UUID, event Event) {
	if r.stopped.Load() {
		r.hub.Broadcast(userID, event)
		return
	}

	body, err := encodeEnvelope(userID, event)
	if err != nil {
		slog.Error("failed to encode relay message", "error", err, "event_type", event.Type)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), publishTimeout)
	defer cancel()

	r.pubMu.Lock()
	err = r.channel.PublishWithContext(
		ctx,
		r.exchange, // exchange
		"",         // routing key, ignored by fanout
		false,      // mandatory
		false,      // immediate
		amqp091.Publishing{
			ContentType: "application/json",
			Timestamp:   event.Timestamp,
			Body:        body,
		},
	)
	r.pubMu.Unlock()

	if err != nil {
		slog.Warn("relay publish failed, delivering locally", "error", err, "event_type", event.Type)
		r.hub.Broadcast(userID, event)
	}
}

// Run consumes relayed events until ctx is cancelled or the channel closes.
// Once it returns, Publish falls back to the local hub.
func (r *Relay) Run(ctx context.Context) error {
	deliveries, err := r.channel.Consume(
		r.queue, // queue
		"",      // consumer
		true,    // auto-ack
		true,    // exclusive
		false,   // no-local
		false,   // no-wait
		nil,     // args
	)
	if err != nil {
		r.stopped.Store(true)
		return fmt.Errorf("starting consumer: %w", err)
	}

	slog.Info("relay consuming change events", "exchange", r.exchange, "queue", r.queue)

	return r.consume(ctx, deliveries)
}

func (r *Relay) consume(ctx context.Context, deliveries <-chan amqp091.Delivery) error {
	defer r.stopped.Store(true)

	for {
		select {
		case <-ctx.Done():
			return nil
		case d, ok := <-deliveries:
			if !ok {
				return ErrRelayClosed
			}

			userID, event, err := decodeEnvelope(d.Body)
			if err != nil {
				slog.Error("failed to decode relay message", "error", err)
				continue
			}

			r.hub.Broadcast(userID, event)
		}
	}
}

func (r *Relay) Close() error {
	if r.channel != nil {
		r.channel.Close()
	}

	if r.conn != nil {
		return r.conn.Close()
	}

	return nil
}

func encodeEnvelope(userID uuid.UUID, event Event) ([]byte, error) {
	return json.Marshal(envelope{UserID: userID, Event: event})
}

func decodeEnvelope(body []byte) (uuid.UUID, Event, error) {
	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return uuid.Nil, Event{}, err
	}

	if env.UserID == uuid.Nil {
		return uuid.Nil, Event{}, errors.New("missing user id")
	}

	return env.UserID, env.Event, nil
}
