package session

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/concord-labs/concord/model"
	"github.com/concord-labs/concord/provider"
)

type captureSink struct {
	blocks []model.ContextBlock
	calls  int
}

func (s *captureSink) SetBlocks(blocks []model.ContextBlock) {
	s.blocks = blocks
	s.calls++
}

func (s *captureSink) byName(name string) (model.ContextBlock, bool) {
	for _, b := range s.blocks {
		if b.Name == name {
			return b, true
		}
	}
	return model.ContextBlock{}, false
}

func TestRefreshPublishesAllBlocks(t *testing.T) {
	ctx := context.Background()
	memory := provider.NewInMemoryMemory()
	calendar := provider.NewInMemoryCalendar()
	reminders := provider.NewInMemoryReminders()

	_, err := memory.Create(ctx, provider.MemoryFields{Content: "Vegetarian", Category: "diet", Importance: 3})
	require.NoError(t, err)

	start := time.Now().Add(24 * time.Hour)
	_, err = calendar.Create(ctx, provider.EventFields{Title: "Team lunch", Start: start, End: start.Add(time.Hour)})
	require.NoError(t, err)

	due := time.Now().Add(48 * time.Hour)
	_, err = reminders.Create(ctx, provider.ReminderFields{Title: "Book table", Due: &due})
	require.NoError(t, err)

	sink := &captureSink{}
	c := NewCoordinator(CoordinatorDeps{
		Memory:    memory,
		Calendar:  calendar,
		Reminders: reminders,
		Location:  provider.StaticLocation{Description: "Berlin, Germany"},
	})
	c.Bind(sink)
	c.Refresh(ctx)

	require.Len(t, sink.blocks, 4)

	mem, ok := sink.byName("Memories")
	require.True(t, ok)
	assert.Contains(t, mem.Text, "[diet] Vegetarian (importance 3)")

	cal, ok := sink.byName("Calendar (next 7 days)")
	require.True(t, ok)
	assert.Contains(t, cal.Text, "Team lunch")

	rem, ok := sink.byName("Reminders")
	require.True(t, ok)
	assert.Contains(t, rem.Text, "Book table")
	assert.Contains(t, rem.Text, "- [ ]")

	loc, ok := sink.byName("Location")
	require.True(t, ok)
	assert.Equal(t, "Berlin, Germany", loc.Text)
}

func TestRefreshWithEmptyProviders(t *testing.T) {
	sink := &captureSink{}
	c := NewCoordinator(CoordinatorDeps{
		Memory:    provider.NewInMemoryMemory(),
		Calendar:  provider.NewInMemoryCalendar(),
		Reminders: provider.NewInMemoryReminders(),
	})
	c.Bind(sink)
	c.Refresh(context.Background())

	// Empty state still publishes blocks so the model knows there is
	// nothing, and no location block without a location provider.
	require.Len(t, sink.blocks, 3)
	mem, _ := sink.byName("Memories")
	assert.Equal(t, "No stored memories.", mem.Text)
	cal, _ := sink.byName("Calendar (next 7 days)")
	assert.Equal(t, "No events in the next 7 days.", cal.Text)
	rem, _ := sink.byName("Reminders")
	assert.Equal(t, "No reminders.", rem.Text)
}

func TestRefreshOmitsEventsOutsideWindow(t *testing.T) {
	ctx := context.Background()
	calendar := provider.NewInMemoryCalendar()
	far := time.Now().Add(30 * 24 * time.Hour)
	_, err := calendar.Create(ctx, provider.EventFields{Title: "Conference", Start: far, End: far.Add(2 * time.Hour)})
	require.NoError(t, err)

	sink := &captureSink{}
	c := NewCoordinator(CoordinatorDeps{Calendar: calendar})
	c.Bind(sink)
	c.Refresh(ctx)

	cal, ok := sink.byName("Calendar (next 7 days)")
	require.True(t, ok)
	assert.NotContains(t, cal.Text, "Conference")
}

func TestRefreshIsIdempotent(t *testing.T) {
	sink := &captureSink{}
	c := NewCoordinator(CoordinatorDeps{Reminders: provider.NewInMemoryReminders()})
	c.Bind(sink)

	ctx := context.Background()
	c.Refresh(ctx)
	first := sink.blocks
	c.Refresh(ctx)

	assert.Equal(t, 2, sink.calls)
	assert.Equal(t, first, sink.blocks)
}

func TestRefreshWithoutSinkIsNoOp(t *testing.T) {
	c := NewCoordinator(CoordinatorDeps{Memory: provider.NewInMemoryMemory()})
	assert.NotPanics(t, func() { c.Refresh(context.Background()) })
}
