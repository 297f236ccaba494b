package feed

import (
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mockClient captures sent messages.
type mockClient struct {
	id       string
	userID   uuid.UUID
	messages [][]byte
	mu       sync.Mutex
	closed   bool
}

func newMockClient(id string, userID uuid.UUID) *mockClient {
	return &mockClient{id: id, userID: userID}
}

func (m *mockClient) ID() string        { return m.id }
func (m *mockClient) UserID() uuid.UUID { return m.userID }

func (m *mockClient) Send(data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return ErrClientClosed
	}

	m.messages = append(m.messages, data)

	return nil
}

func (m *mockClient) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.closed = true

	return nil
}

func (m *mockClient) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	return len(m.messages)
}

func TestHub_RegisterUnregister(t *testing.T) {
	hub := NewHub()
	alice, bob := uuid.New(), uuid.New()

	c1 := newMockClient("c1", alice)
	c2 := newMockClient("c2", alice)
	c3 := newMockClient("c3", bob)

	hub.Register(c1)
	hub.Register(c2)
	hub.Register(c3)

	assert.Equal(t, 2, hub.ClientCount(alice))
	assert.Equal(t, 1, hub.ClientCount(bob))
	assert.Equal(t, 0, hub.ClientCount(uuid.New()))
	assert.Equal(t, 3, hub.TotalClientCount())

	hub.Unregister(c1)
	assert.Equal(t, 1, hub.ClientCount(alice))

	// Unregistering twice is a no-op.
	hub.Unregister(c1)
	hub.Unregister(c2)
	hub.Unregister(c3)
	assert.Equal(t, 0, hub.TotalClientCount())
}

func TestHub_BroadcastOnlyReachesOwner(t *testing.T) {
	hub := NewHub()
	alice, bob := uuid.New(), uuid.New()

	aliceClient := newMockClient("a", alice)
	bobClient := newMockClient("b", bob)
	hub.Register(aliceClient)
	hub.Register(bobClient)

	hub.Publish(alice, ExpenseCreated(uuid.New()))

	require.Eventually(t, func() bool { return aliceClient.count() == 1 }, time.Second, 10*time.Millisecond)
	assert.Equal(t, 0, bobClient.count())

	event, err := EventFromJSON(aliceClient.messages[0])
	require.NoError(t, err)
	assert.Equal(t, "expense.created", event.Type)
	assert.Equal(t, EntityTypeExpense, event.Entity)
}

func TestHub_BroadcastWithoutClients(t *testing.T) {
	hub := NewHub()

	assert.NotPanics(t, func() {
		hub.Broadcast(uuid.New(), BudgetCreated(uuid.New()))
	})
}

func TestSubscription_ReceivesEvents(t *testing.T) {
	hub := NewHub()
	userID := uuid.New()

	sub := hub.Subscribe(userID)
	defer sub.Close()

	assert.Equal(t, 1, hub.ClientCount(userID))

	hub.Publish(userID, ExpenseDeleted(uuid.New()))

	select {
	case event := <-sub.Events():
		assert.Equal(t, "expense.deleted", event.Type)
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for event")
	}
}

func TestSubscription_Close(t *testing.T) {
	hub := NewHub()
	userID := uuid.New()

	sub := hub.Subscribe(userID)
	require.NoError(t, sub.Close())
	require.NoError(t, sub.Close())

	assert.Equal(t, 0, hub.ClientCount(userID))

	_, open := <-sub.Events()
	assert.False(t, open)

	data, err := ExpenseCreated(uuid.New()).ToJSON()
	require.NoError(t, err)
	assert.ErrorIs(t, sub.Send(data), ErrClientClosed)
}

func TestSubscription_FullBufferDropsEvents(t *testing.T) {
	hub := NewHub()
	sub := hub.Subscribe(uuid.New())
	defer sub.Close()

	data, err := ExpenseCreated(uuid.New()).ToJSON()
	require.NoError(t, err)

	for range subscriptionBuffer + 5 {
		require.NoError(t, sub.Send(data))
	}

	assert.Len(t, sub.events, subscriptionBuffer)
}
