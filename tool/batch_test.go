package tool

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/concord-labs/concord/provider"
	"github.com/concord-labs/concord/status"
)

func TestRunBatchCountsOutcomes(t *testing.T) {
	items := []int{1, 2, 3, 4, 5}
	failing := errors.New("boom")

	succeeded, failed := runBatch(context.Background(), items, func(_ context.Context, n int) error {
		if n%2 == 0 {
			return failing
		}
		return nil
	})

	assert.Equal(t, 3, succeeded)
	assert.Equal(t, 2, failed)
}

func TestDedupePreservesOrder(t *testing.T) {
	assert.Equal(t, []string{"a", "b", "c"}, dedupe([]string{"a", "a", "b", "c", "b", "a"}))
	assert.Empty(t, dedupe(nil))
}

func TestBatchDeleteDeduplicatesIDs(t *testing.T) {
	env := newTestEnv(t)
	env.calendar.Put(provider.Event{ID: "ev-a", Title: "Standup"})
	env.calendar.Put(provider.Event{ID: "ev-b", Title: "Review"})

	result := env.dispatch(t, "delete_calendar_events_batch", `{"ids":["ev-a","ev-a","ev-b"]}`)

	assert.Equal(t, "Processed 2 calendar events successfully.", result)

	records := env.tracker.For("msg-1")
	require.Len(t, records, 1)
	assert.Equal(t, status.KindCalendarDelete, records[0].Kind)
	assert.Equal(t, status.StateSuccess, records[0].State)
	assert.Equal(t, 2, records[0].Count)
}

func TestBatchDeleteTreatsNotFoundAsSuccess(t *testing.T) {
	env := newTestEnv(t)
	env.reminders.Put(provider.Reminder{ID: "rem-a", Title: "Pay rent"})

	result := env.dispatch(t, "delete_reminders_batch", `{"ids":["rem-a","rem-gone"]}`)

	assert.Equal(t, "Processed 2 reminders successfully.", result)
	records := env.tracker.For("msg-1")
	require.Len(t, records, 1)
	assert.Equal(t, "2 of 2 succeeded", records[0].Detail)
}

func TestBatchAddMemoriesPartialFailure(t *testing.T) {
	env := newTestEnv(t)

	result := env.dispatch(t, "add_memories_batch", `{"memories":[
		{"content":"Allergic to peanuts","category":"health"},
		{"category":"preference"},
		{"content":"Runs on Sundays","category":"habit"}
	]}`)

	assert.Equal(t, "Processed 3 memories: 2 succeeded, 1 failed.", result)

	items, err := env.memory.ListAll(context.Background())
	require.NoError(t, err)
	assert.Len(t, items, 2)

	// One aggregate record for the whole batch, not one per item.
	records := env.tracker.For("msg-1")
	require.Len(t, records, 1)
	assert.Equal(t, status.KindMemoryCreate, records[0].Kind)
	assert.Equal(t, status.StateSuccess, records[0].State)
	assert.Equal(t, "2 of 3 succeeded", records[0].Detail)
	assert.Equal(t, 2, records[0].Count)
}

func TestBatchAddMemoriesAllFail(t *testing.T) {
	env := newTestEnv(t)

	result := env.dispatch(t, "add_memories_batch", `{"memories":[
		{"category":"health"},
		{"category":"preference"}
	]}`)

	assert.Equal(t, "Processed 2 memories: 0 succeeded, 2 failed.", result)

	items, err := env.memory.ListAll(context.Background())
	require.NoError(t, err)
	assert.Empty(t, items)

	// The aggregate record ends with the real success count, zero included.
	records := env.tracker.For("msg-1")
	require.Len(t, records, 1)
	assert.Equal(t, status.StateSuccess, records[0].State)
	assert.Equal(t, "0 of 2 succeeded", records[0].Detail)
	assert.Equal(t, 0, records[0].Count)
}

func TestBatchRefreshesContextOnce(t *testing.T) {
	env := newTestEnv(t)

	_ = env.dispatch(t, "add_reminders_batch", `{"reminders":[
		{"title":"Buy milk"},
		{"title":"Book flights"},
		{"title":"Return library books"}
	]}`)

	assert.EqualValues(t, 1, env.refresher.n.Load())
	reminders, err := env.reminders.ListAll(context.Background())
	require.NoError(t, err)
	assert.Len(t, reminders, 3)
}

func TestBatchRemoveMemoriesByContent(t *testing.T) {
	env := newTestEnv(t)
	for _, content := range []string{"Fact one", "Fact two"} {
		_, err := env.memory.Create(context.Background(), provider.MemoryFields{
			Content: content, Category: "misc", Importance: 1,
		})
		require.NoError(t, err)
	}

	// "Fact three" was never stored; in a batch that counts as already gone.
	result := env.dispatch(t, "remove_memories_batch",
		`{"contents":["Fact one","Fact two","Fact three"]}`)

	assert.Equal(t, "Processed 3 memories successfully.", result)
	items, err := env.memory.ListAll(context.Background())
	require.NoError(t, err)
	assert.Empty(t, items)
}

func TestDeleteCalendarEventWithIDsUsesBatchPath(t *testing.T) {
	env := newTestEnv(t)
	env.calendar.Put(provider.Event{ID: "ev-a", Title: "One"})
	env.calendar.Put(provider.Event{ID: "ev-b", Title: "Two"})

	result := env.dispatch(t, "delete_calendar_event", `{"ids":["ev-a","ev-b"]}`)

	assert.Equal(t, "Processed 2 calendar events successfully.", result)
}
