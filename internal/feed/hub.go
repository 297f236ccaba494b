package feed

import (
	"errors"
	"log/slog"
	"sync"

	"github.com/google/uuid"
)

// ErrClientClosed is returned when sending to a closed client.
var ErrClientClosed = errors.New("client is closed")

// ClientInterface is implemented by websocket clients and in-process subscriptions.
type ClientInterface interface {
	ID() string
	UserID() uuid.UUID
	Send(data []byte) error
	Close() error
}

// Hub fans events out to the clients of each user.
// It is safe for concurrent use.
type Hub struct {
	users map[uuid.UUID]map[string]ClientInterface
	mu    sync.RWMutex
}

func NewHub() *Hub {
	return &Hub{
		users: make(map[uuid.UUID]map[string]ClientInterface),
	}
}

func (h *Hub) Register(client ClientInterface) {
	h.mu.Lock()
	defer h.mu.Unlock()

	userID := client.UserID()

	if h.users[userID] == nil {
		h.users[userID] = make(map[string]ClientInterface)
	}

	h.users[userID][client.ID()] = client

	slog.Debug("feed client registered", "user_id", userID, "client_id", client.ID())
}

func (h *Hub) Unregister(client ClientInterface) {
	h.mu.Lock()
	defer h.mu.Unlock()

	userID := client.UserID()

	clients, ok := h.users[userID]
	if !ok {
		return
	}

	if _, exists := clients[client.ID()]; !exists {
		return
	}

	delete(clients, client.ID())

	if len(clients) == 0 {
		delete(h.users, userID)
	}

	slog.Debug("feed client unregistered", "user_id", userID, "client_id", client.ID())
}

// Broadcast sends an event to every client of the given user.
func (h *Hub) Broadcast(userID uuid.UUID, event Event) {
	data, err := event.ToJSON()
	if err != nil {
		slog.Error("failed to serialize event", "error", err, "user_id", userID, "event_type", event.Type)
		return
	}

	h.mu.RLock()
	clients, ok := h.users[userID]
	if !ok || len(clients) == 0 {
		h.mu.RUnlock()
		return
	}

	// Copy so no lock is held while sending.
	targets := make([]ClientInterface, 0, len(clients))
	for _, c := range clients {
		targets = append(targets, c)
	}
	h.mu.RUnlock()

	for _, c := range targets {
		go func(c ClientInterface) {
			if err := c.Send(data); err != nil {
				slog.Warn("failed to send to feed client", "error", err, "user_id", userID, "client_id", c.ID())
			}
		}(c)
	}

	slog.Debug("broadcast event", "user_id", userID, "event_type", event.Type, "client_count", len(targets))
}

func (h *Hub) ClientCount(userID uuid.UUID) int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	return len(h.users[userID])
}

func (h *Hub) TotalClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	total := 0
	for _, clients := range h.users {
		total += len(clients)
	}

	return total
}
