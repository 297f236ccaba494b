package feed

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewEvent(t *testing.T) {
	id := uuid.New()

	tests := []struct {
		event  Event
		typ    string
		entity EntityType
	}{
		{ExpenseCreated(id), "expense.created", EntityTypeExpense},
		{ExpenseUpdated(id), "expense.updated", EntityTypeExpense},
		{ExpenseDeleted(id), "expense.deleted", EntityTypeExpense},
		{ExpensesImported(3), "expense.imported", EntityTypeExpense},
		{BudgetCreated(id), "budget.created", EntityTypeBudget},
	}

	for _, tt := range tests {
		t.Run(tt.typ, func(t *testing.T) {
			assert.Equal(t, tt.typ, tt.event.Type)
			assert.Equal(t, tt.entity, tt.event.Entity)
			assert.False(t, tt.event.Timestamp.IsZero())
		})
	}
}

func TestEventFromJSON_Invalid(t *testing.T) {
	_, err := EventFromJSON([]byte("{"))
	assert.Error(t, err)
}

func TestEnvelope(t *testing.T) {
	userID := uuid.New()
	event := BudgetCreated(uuid.New())

	body, err := encodeEnvelope(userID, event)
	require.NoError(t, err)

	gotUser, gotEvent, err := decodeEnvelope(body)
	require.NoError(t, err)
	assert.Equal(t, userID, gotUser)
	assert.Equal(t, event.Type, gotEvent.Type)
	assert.Equal(t, event.Entity, gotEvent.Entity)
	assert.True(t, event.Timestamp.Equal(gotEvent.Timestamp))

	_, _, err = decodeEnvelope([]byte(`{"event":{"type":"expense.created"}}`))
	assert.Error(t, err)

	_, _, err = decodeEnvelope([]byte(`not json`))
	assert.Error(t, err)
}
