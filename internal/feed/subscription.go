package feed

import (
	"log/slog"
	"sync"

	"github.com/google/uuid"
)

const subscriptionBuffer = 16

// Subscription is an in-process feed client. Events arrive on Events() until
// Close is called.
type Subscription struct {
	id        string
	userID    uuid.UUID
	hub       *Hub
	events    chan Event
	closed    bool
	mu        sync.RWMutex
	closeOnce sync.Once
}

// Subscribe registers a new in-process subscription for the user's events.
func (h *Hub) Subscribe(userID uuid.UUID) *Subscription {
	s := &Subscription{
		id:     uuid.NewString(),
		userID: userID,
		hub:    h,
		events: make(chan Event, subscriptionBuffer),
	}

	h.Register(s)

	return s
}

func (s *Subscription) ID() string        { return s.id }
func (s *Subscription) UserID() uuid.UUID { return s.userID }

func (s *Subscription) Events() <-chan Event {
	return s.events
}

func (s *Subscription) Send(data []byte) error {
	event, err := EventFromJSON(data)
	if err != nil {
		return err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return ErrClientClosed
	}

	select {
	case s.events <- event:
	default:
		// A queued event already triggers a refresh.
		slog.Debug("subscription buffer full, dropping event", "client_id", s.id, "event_type", event.Type)
	}

	return nil
}

func (s *Subscription) Close() error {
	s.closeOnce.Do(func() {
		s.hub.Unregister(s)

		s.mu.Lock()
		s.closed = true
		close(s.events)
		s.mu.Unlock()
	})

	return nil
}
