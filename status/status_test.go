package status

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeIndex map[string]bool

func (f fakeIndex) Has(id string) bool { return f[id] }

func TestTracker_AddRequiresKnownMessage(t *testing.T) {
	tr := NewTracker(fakeIndex{"m1": true}, nil)

	id, err := tr.Add("m1", KindCalendarCreate, StatePending, "", 1)
	require.NoError(t, err)
	assert.NotEmpty(t, id)

	_, err = tr.Add("ghost", KindCalendarCreate, StatePending, "", 1)
	assert.ErrorIs(t, err, ErrUnknownMessage)
}

func TestTracker_UpdateAndRemove(t *testing.T) {
	tr := NewTracker(nil, nil)
	id, err := tr.Add("m1", KindReminderDelete, StatePending, "", 3)
	require.NoError(t, err)

	tr.Update("m1", id, StateSuccess, "2 of 3 succeeded", 2)
	recs := tr.For("m1")
	require.Len(t, recs, 1)
	assert.Equal(t, StateSuccess, recs[0].State)
	assert.Equal(t, "2 of 3 succeeded", recs[0].Detail)
	assert.Equal(t, 2, recs[0].Count)

	// Unknown pairs are silent no-ops
	tr.Update("m1", "nope", StateFailure, "", 0)
	tr.Update("ghost", id, StateFailure, "", 0)
	tr.Remove("m1", "nope")
	assert.Len(t, tr.For("m1"), 1)

	tr.Remove("m1", id)
	assert.Empty(t, tr.For("m1"))
}

func TestTracker_UpdateKeepsDetailAndCountWithKeepCount(t *testing.T) {
	tr := NewTracker(nil, nil)
	id, _ := tr.Add("m1", KindMemoryCreate, StatePending, "adding", 4)
	tr.Update("m1", id, StateFailure, "", KeepCount)
	rec := tr.For("m1")[0]
	assert.Equal(t, StateFailure, rec.State)
	assert.Equal(t, "adding", rec.Detail)
	assert.Equal(t, 4, rec.Count)

	// An explicit zero is written: a batch where every item failed
	// resolves to count 0.
	tr.Update("m1", id, StateSuccess, "0 of 4 succeeded", 0)
	rec = tr.For("m1")[0]
	assert.Equal(t, 0, rec.Count)
	assert.Equal(t, "0 of 4 succeeded", rec.Detail)
}

func TestTracker_CombinedFor(t *testing.T) {
	tr := NewTracker(nil, nil)
	_, err := tr.Add("m1", KindCalendarCreate, StateSuccess, "first", 2)
	require.NoError(t, err)
	time.Sleep(2 * time.Millisecond) // ensure a later Updated timestamp
	_, err = tr.Add("m1", KindCalendarCreate, StateFailure, "second", 3)
	require.NoError(t, err)
	_, err = tr.Add("m1", KindMemoryCreate, StateSuccess, "", 1)
	require.NoError(t, err)

	combined := tr.CombinedFor("m1")
	require.Len(t, combined, 2)
	assert.Equal(t, KindCalendarCreate, combined[0].Kind)
	assert.Equal(t, 5, combined[0].Count)
	assert.Equal(t, StateFailure, combined[0].State)
	assert.Equal(t, "second", combined[0].Detail)
	assert.Equal(t, KindMemoryCreate, combined[1].Kind)

	// Projection does not mutate the underlying records
	recs := tr.For("m1")
	require.Len(t, recs, 3)
	assert.Equal(t, 2, recs[0].Count)
}

func TestTracker_Clear(t *testing.T) {
	tr := NewTracker(nil, nil)
	_, _ = tr.Add("m1", KindCalendarCreate, StatePending, "", 1)
	tr.Clear()
	assert.Empty(t, tr.For("m1"))
}
