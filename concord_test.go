package concord

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/concord-labs/concord/core"
	"github.com/concord-labs/concord/model"
	"github.com/concord-labs/concord/provider"
	"github.com/concord-labs/concord/status"
)

func TestAssistantEndToEnd(t *testing.T) {
	mock := model.NewMockModel(
		model.MockStep{Delta: "Adding that now. "},
		model.MockStep{ToolUse: &core.ToolInvocation{
			ID:        "call-1",
			Name:      "add_calendar_event",
			Arguments: json.RawMessage(`{"title":"Dentist","start":"2026-09-01 09:00","end":"2026-09-01 09:30"}`),
		}},
		model.MockStep{Delta: "Booked your dentist appointment."},
	)
	calendar := provider.NewInMemoryCalendar()
	assistant := New(mock, func(o *Options) {
		o.Calendar = calendar
		o.Reminders = provider.NewInMemoryReminders()
		o.Memory = provider.NewInMemoryMemory()
	})

	require.NoError(t, assistant.Send(context.Background(), "Book a dentist appointment for Sept 1 at 9"))

	msgs := assistant.Messages()
	require.Len(t, msgs, 2)
	last := msgs[1]
	assert.Equal(t, "Adding that now. Booked your dentist appointment.", last.Text)
	assert.True(t, last.Complete)

	events, err := calendar.ListUpcoming(context.Background(), 3650)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, "Dentist", events[0].Title)

	records := assistant.StatusFor(last.ID)
	require.Len(t, records, 1)
	assert.Equal(t, status.KindCalendarCreate, records[0].Kind)
	assert.Equal(t, status.StateSuccess, records[0].State)

	assistant.ClearConversation()
	assert.Empty(t, assistant.Messages())
	assert.Empty(t, assistant.StatusFor(last.ID))
}
