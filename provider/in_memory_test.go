package provider

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInMemoryCalendar_CRUD(t *testing.T) {
	ctx := context.Background()
	cal := NewInMemoryCalendar()

	start := time.Now().Add(24 * time.Hour)
	id, err := cal.Create(ctx, EventFields{Title: "Standup", Start: start, End: start.Add(time.Hour)})
	require.NoError(t, err)
	require.NotEmpty(t, id)

	ev, err := cal.Fetch(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "Standup", ev.Title)

	title := "Planning"
	require.NoError(t, cal.Update(ctx, id, EventPatch{Title: &title}))
	ev, _ = cal.Fetch(ctx, id)
	assert.Equal(t, "Planning", ev.Title)
	// Untouched fields survive a partial update
	assert.Equal(t, start.Unix(), ev.Start.Unix())

	require.NoError(t, cal.Delete(ctx, id))
	assert.ErrorIs(t, cal.Delete(ctx, id), ErrNotFound)
	_, err = cal.Fetch(ctx, id)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestInMemoryCalendar_ListUpcoming(t *testing.T) {
	ctx := context.Background()
	cal := NewInMemoryCalendar()

	now := time.Now()
	mk := func(title string, offset time.Duration) {
		_, err := cal.Create(ctx, EventFields{Title: title, Start: now.Add(offset), End: now.Add(offset + time.Hour)})
		require.NoError(t, err)
	}
	mk("tomorrow", 24*time.Hour)
	mk("next week", 6*24*time.Hour)
	mk("beyond window", 10*24*time.Hour)
	mk("yesterday", -24*time.Hour)

	events, err := cal.ListUpcoming(ctx, 7)
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, "tomorrow", events[0].Title)
	assert.Equal(t, "next week", events[1].Title)
}

func TestInMemoryReminders_DuePatch(t *testing.T) {
	ctx := context.Background()
	rems := NewInMemoryReminders()

	due := time.Now().Add(48 * time.Hour)
	id, err := rems.Create(ctx, ReminderFields{Title: "Pay rent", Due: &due})
	require.NoError(t, err)

	// Zero patch leaves the due date unchanged
	require.NoError(t, rems.Update(ctx, id, ReminderPatch{}))
	rem, _ := rems.Fetch(ctx, id)
	require.NotNil(t, rem.Due)

	// Explicit clear removes it
	require.NoError(t, rems.Update(ctx, id, ReminderPatch{Due: TimePatch{Set: true, Clear: true}}))
	rem, _ = rems.Fetch(ctx, id)
	assert.Nil(t, rem.Due)

	// And a set patch restores it
	require.NoError(t, rems.Update(ctx, id, ReminderPatch{Due: TimePatch{Set: true, Value: due}}))
	rem, _ = rems.Fetch(ctx, id)
	require.NotNil(t, rem.Due)
	assert.Equal(t, due.Unix(), rem.Due.Unix())
}

func TestInMemoryMemory_CRUD(t *testing.T) {
	ctx := context.Background()
	mem := NewInMemoryMemory()

	id, err := mem.Create(ctx, MemoryFields{Content: "prefers tea", Category: "preference", Importance: 2})
	require.NoError(t, err)

	imp := 5
	require.NoError(t, mem.Update(ctx, id, MemoryPatch{Importance: &imp}))
	item, err := mem.Fetch(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, 5, item.Importance)
	assert.Equal(t, "prefers tea", item.Content)

	all, err := mem.ListAll(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 1)

	require.NoError(t, mem.Delete(ctx, id))
	assert.ErrorIs(t, mem.Delete(ctx, id), ErrNotFound)
}
