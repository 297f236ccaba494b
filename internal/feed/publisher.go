package feed

import "github.com/google/uuid"

// Publisher delivers change events to a user's subscribers.
type Publisher interface {
	Publish(userID uuid.UUID, event Event)
}

var (
	_ Publisher = (*Hub)(nil)
	_ Publisher = (*Relay)(nil)
	_ Publisher = NoOpPublisher{}
)

func (h *Hub) Publish(userID uuid.UUID, event Event) {
	h.Broadcast(userID, event)
}

// NoOpPublisher drops every event.
type NoOpPublisher struct{}

func (NoOpPublisher) Publish(uuid.UUID, Event) {}
