package feed

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func receive(t *testing.T, sub *Subscription) Event {
	t.Helper()

	select {
	case event := <-sub.Events():
		return event
	case <-time.After(time.Second):
		t.Fatal("no event delivered")
		return Event{}
	}
}

func TestRelay_ConsumeBroadcastsDeliveries(t *testing.T) {
	hub := NewHub()
	userID := uuid.New()
	sub := hub.Subscribe(userID)
	defer sub.Close()

	body, err := encodeEnvelope(userID, ExpenseCreated(uuid.New()))
	require.NoError(t, err)

	deliveries := make(chan amqp091.Delivery, 2)
	deliveries <- amqp091.Delivery{Body: []byte("garbage")}
	deliveries <- amqp091.Delivery{Body: body}
	close(deliveries)

	r := &Relay{hub: hub}
	err = r.consume(context.Background(), deliveries)
	assert.ErrorIs(t, err, ErrRelayClosed)

	assert.Equal(t, "expense.created", receive(t, sub).Type)
}

func TestRelay_PublishesLocallyAfterConsumerStops(t *testing.T) {
	hub := NewHub()
	userID := uuid.New()
	sub := hub.Subscribe(userID)
	defer sub.Close()

	deliveries := make(chan amqp091.Delivery)
	close(deliveries)

	// No broker channel: a publish that reached the broker would panic.
	r := &Relay{hub: hub}
	require.ErrorIs(t, r.consume(context.Background(), deliveries), ErrRelayClosed)

	r.Publish(userID, BudgetCreated(uuid.New()))

	assert.Equal(t, "budget.created", receive(t, sub).Type)
}

func TestRelay_StopsOnCancel(t *testing.T) {
	hub := NewHub()
	userID := uuid.New()
	sub := hub.Subscribe(userID)
	defer sub.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	r := &Relay{hub: hub}
	assert.NoError(t, r.consume(ctx, make(chan amqp091.Delivery)))

	r.Publish(userID, ExpensesImported(2))

	assert.Equal(t, "expense.imported", receive(t, sub).Type)
}
