package feed

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// EventType represents what happened to an entity.
type EventType string

const (
	EventTypeCreated  EventType = "created"
	EventTypeUpdated  EventType = "updated"
	EventTypeDeleted  EventType = "deleted"
	EventTypeImported EventType = "imported"
)

// EntityType represents the kind of record an event is about.
type EntityType string

const (
	EntityTypeExpense EntityType = "expense"
	EntityTypeBudget  EntityType = "budget"
)

// Event is a change notification delivered to a user's subscribers.
// Format: { type, entity, payload, timestamp }
type Event struct {
	Type      string     `json:"type"` // e.g. "expense.created"
	Entity    EntityType `json:"entity"`
	Payload   any        `json:"payload,omitempty"`
	Timestamp time.Time  `json:"timestamp"`
}

// Ref identifies the changed record.
type Ref struct {
	ID uuid.UUID `json:"id"`
}

// ImportRef describes a batch of records created in one go.
type ImportRef struct {
	Count int `json:"count"`
}

func NewEvent(eventType EventType, entityType EntityType, payload any) Event {
	return Event{
		Type:      fmt.Sprintf("%s.%s", entityType, eventType),
		Entity:    entityType,
		Payload:   payload,
		Timestamp: time.Now().UTC(),
	}
}

func (e Event) ToJSON() ([]byte, error) {
	return json.Marshal(e)
}

func EventFromJSON(data []byte) (Event, error) {
	var e Event
	if err := json.Unmarshal(data, &e); err != nil {
		return Event{}, fmt.Errorf("decoding event: %w", err)
	}

	return e, nil
}

func ExpenseCreated(id uuid.UUID) Event {
	return NewEvent(EventTypeCreated, EntityTypeExpense, Ref{ID: id})
}

func ExpenseUpdated(id uuid.UUID) Event {
	return NewEvent(EventTypeUpdated, EntityTypeExpense, Ref{ID: id})
}

func ExpenseDeleted(id uuid.UUID) Event {
	return NewEvent(EventTypeDeleted, EntityTypeExpense, Ref{ID: id})
}

func ExpensesImported(count int) Event {
	return NewEvent(EventTypeImported, EntityTypeExpense, ImportRef{Count: count})
}

func BudgetCreated(id uuid.UUID) Event {
	return NewEvent(EventTypeCreated, EntityTypeBudget, Ref{ID: id})
}
