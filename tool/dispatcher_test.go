package tool

import (
	"context"
	"encoding/json"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/concord-labs/concord/core"
	"github.com/concord-labs/concord/provider"
	"github.com/concord-labs/concord/status"
)

type countingRefresher struct {
	n atomic.Int64
}

func (r *countingRefresher) Refresh(context.Context) { r.n.Add(1) }

type testEnv struct {
	dispatcher *Dispatcher
	calendar   *provider.InMemoryCalendar
	reminders  *provider.InMemoryReminders
	memory     *provider.InMemoryMemory
	tracker    *status.Tracker
	refresher  *countingRefresher
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	env := &testEnv{
		calendar:  provider.NewInMemoryCalendar(),
		reminders: provider.NewInMemoryReminders(),
		memory:    provider.NewInMemoryMemory(),
		tracker:   status.NewTracker(nil, nil),
		refresher: &countingRefresher{},
	}
	env.dispatcher = NewDispatcher(Deps{
		Calendar:  env.calendar,
		Reminders: env.reminders,
		Memory:    env.memory,
		Tracker:   env.tracker,
		Refresher: env.refresher,
	})
	return env
}

func (env *testEnv) dispatch(t *testing.T, name, args string) string {
	t.Helper()
	inv := core.ToolInvocation{ID: "inv-1", Name: name, Arguments: json.RawMessage(args)}
	return env.dispatcher.Dispatch(context.Background(), inv, Scope{MessageID: "msg-1"})
}

func TestDispatchUnknownTool(t *testing.T) {
	env := newTestEnv(t)

	result := env.dispatch(t, "transfer_funds", `{}`)

	assert.Equal(t, "Error: unknown tool", result)
	assert.Empty(t, env.tracker.For("msg-1"))
}

func TestDispatchMalformedArguments(t *testing.T) {
	env := newTestEnv(t)

	result := env.dispatch(t, "add_calendar_event", `{"title":`)

	assert.Contains(t, result, "Error:")
	events, err := env.calendar.ListUpcoming(context.Background(), 365)
	require.NoError(t, err)
	assert.Empty(t, events)
}

func TestAddCalendarEvent(t *testing.T) {
	env := newTestEnv(t)

	result := env.dispatch(t, "add_calendar_event",
		`{"title":"Dentist","start":"2026-09-01 09:00","end":"2026-09-01 09:30"}`)

	assert.Equal(t, `Added calendar event "Dentist".`, result)

	events, err := env.calendar.ListUpcoming(context.Background(), 3650)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, "Dentist", events[0].Title)

	records := env.tracker.For("msg-1")
	require.Len(t, records, 1)
	assert.Equal(t, status.KindCalendarCreate, records[0].Kind)
	assert.Equal(t, status.StateSuccess, records[0].State)
	assert.EqualValues(t, 1, env.refresher.n.Load())
}

func TestValidationFailureHasNoSideEffects(t *testing.T) {
	env := newTestEnv(t)

	tests := []struct {
		name string
		tool string
		args string
	}{
		{"missing event id", "modify_calendar_event", `{"title":"New"}`},
		{"no patch fields", "modify_calendar_event", `{"id":"ev-1"}`},
		{"missing title", "add_calendar_event", `{"start":"2026-09-01 09:00","end":"2026-09-01 10:00"}`},
		{"unparseable date", "add_reminder", `{"title":"Call","due":"the day after whenever"}`},
		{"missing memory content", "add_memory", `{"category":"preference"}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := env.dispatch(t, tt.tool, tt.args)
			assert.Contains(t, result, "Error:")
		})
	}

	assert.Empty(t, env.tracker.For("msg-1"))
	assert.EqualValues(t, 0, env.refresher.n.Load())
}

func TestDeleteCalendarEventRedirectsToReminder(t *testing.T) {
	env := newTestEnv(t)
	env.reminders.Put(provider.Reminder{ID: "rem-7", Title: "Water plants"})

	result := env.dispatch(t, "delete_calendar_event", `{"id":"rem-7"}`)

	assert.Equal(t, `Deleted reminder "rem-7".`, result)
	_, err := env.reminders.Fetch(context.Background(), "rem-7")
	assert.ErrorIs(t, err, provider.ErrNotFound)

	records := env.tracker.For("msg-1")
	require.Len(t, records, 1)
	assert.Equal(t, status.KindReminderDelete, records[0].Kind)
}

func TestDeleteCalendarEventNotFound(t *testing.T) {
	env := newTestEnv(t)

	result := env.dispatch(t, "delete_calendar_event", `{"id":"ev-404"}`)

	assert.Contains(t, result, "Error:")
	records := env.tracker.For("msg-1")
	require.Len(t, records, 1)
	assert.Equal(t, status.StateFailure, records[0].State)
	assert.EqualValues(t, 0, env.refresher.n.Load())
}

func TestModifyReminderClearsDueDate(t *testing.T) {
	env := newTestEnv(t)
	id, err := env.reminders.Create(context.Background(), provider.ReminderFields{Title: "Renew passport"})
	require.NoError(t, err)
	_ = env.dispatch(t, "modify_reminder", `{"id":"`+id+`","due":"2026-09-15 12:00"}`)

	result := env.dispatch(t, "modify_reminder", `{"id":"`+id+`","due":"none"}`)
	assert.Equal(t, `Updated reminder "`+id+`".`, result)

	rem, err := env.reminders.Fetch(context.Background(), id)
	require.NoError(t, err)
	assert.Nil(t, rem.Due)
}

func TestRemoveMemoryByContent(t *testing.T) {
	env := newTestEnv(t)
	_, err := env.memory.Create(context.Background(), provider.MemoryFields{
		Content: "Prefers tea over coffee", Category: "preference", Importance: 2,
	})
	require.NoError(t, err)

	result := env.dispatch(t, "remove_memory", `{"content":"Prefers tea over coffee"}`)

	assert.Equal(t, "Forgotten.", result)
	items, err := env.memory.ListAll(context.Background())
	require.NoError(t, err)
	assert.Empty(t, items)
}

func TestUpdateMemoryFallsBackToContentMatch(t *testing.T) {
	env := newTestEnv(t)
	_, err := env.memory.Create(context.Background(), provider.MemoryFields{
		Content: "Lives in Lisbon", Category: "biography", Importance: 3,
	})
	require.NoError(t, err)

	// Stale id plus a content match: the content match wins.
	result := env.dispatch(t, "update_memory",
		`{"id":"mem-gone","old_content":"Lives in Lisbon","content":"Lives in Porto"}`)

	assert.Equal(t, "Memory updated.", result)
	items, err := env.memory.ListAll(context.Background())
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "Lives in Porto", items[0].Content)
	assert.Equal(t, "biography", items[0].Category)
}

func TestDispatchWithoutProvider(t *testing.T) {
	d := NewDispatcher(Deps{Tracker: status.NewTracker(nil, nil)})

	result := d.Dispatch(context.Background(), core.ToolInvocation{
		Name:      "add_reminder",
		Arguments: json.RawMessage(`{"title":"Call mum"}`),
	}, Scope{MessageID: "msg-1"})

	assert.Contains(t, result, "Error:")
	assert.Contains(t, result, "not configured")
}

func TestDefinitionsCoverFullCatalog(t *testing.T) {
	env := newTestEnv(t)

	defs := env.dispatcher.Definitions()
	require.Len(t, defs, 18)

	names := make(map[string]bool, len(defs))
	for _, def := range defs {
		assert.NotEmpty(t, def.Description, def.Name)
		assert.NotNil(t, def.Parameters, def.Name)
		names[def.Name] = true
	}
	for _, want := range []string{
		"add_calendar_event", "delete_calendar_events_batch",
		"add_reminder", "modify_reminders_batch",
		"add_memory", "update_memories_batch",
	} {
		assert.True(t, names[want], want)
	}
}
