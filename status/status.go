// Package status tracks the lifecycle of side-effecting operations as
// user-visible metadata attached to the message that triggered them.
// Tracking is best-effort UI metadata, not a correctness-critical ledger:
// updates and removals of unknown records are silent no-ops.
package status

import (
	"errors"
	"sync"
	"time"

	"github.com/concord-labs/concord/core"
	"github.com/concord-labs/concord/logging"
)

// Kind enumerates the fixed set of tracked operations:
// create/update/delete crossed with calendar events, reminders and memory
// items.
type Kind string

const (
	KindCalendarCreate Kind = "calendar.create"
	KindCalendarUpdate Kind = "calendar.update"
	KindCalendarDelete Kind = "calendar.delete"
	KindReminderCreate Kind = "reminder.create"
	KindReminderUpdate Kind = "reminder.update"
	KindReminderDelete Kind = "reminder.delete"
	KindMemoryCreate   Kind = "memory.create"
	KindMemoryUpdate   Kind = "memory.update"
	KindMemoryDelete   Kind = "memory.delete"
)

// State is the progress of a tracked operation.
type State string

const (
	StatePending State = "pending"
	StateSuccess State = "success"
	StateFailure State = "failure"
)

// Record describes one dispatched operation owned by a message. Records
// accumulate per message and are never reassigned.
type Record struct {
	ID        string    `json:"id"`
	MessageID string    `json:"message_id"`
	Kind      Kind      `json:"kind"`
	State     State     `json:"state"`
	Detail    string    `json:"detail,omitempty"`
	Count     int       `json:"count"`
	Updated   time.Time `json:"updated"`
}

// ErrUnknownMessage reports an Add against a message id missing from the log.
var ErrUnknownMessage = errors.New("status: unknown message id")

// MessageIndex answers whether a message id exists. The transcript log
// implements it; a record's owning message must exist at creation time.
type MessageIndex interface {
	Has(id string) bool
}

// Store persists the message-id to records mapping.
type Store interface {
	SaveStatus(records map[string][]Record) error
	LoadStatus() (map[string][]Record, error)
}

// Tracker holds status records keyed by owning message id. Safe for
// concurrent access.
type Tracker struct {
	mu      sync.RWMutex
	records map[string][]Record
	index   MessageIndex
	store   Store
	logger  logging.Logger
}

// Option configures a Tracker.
type Option func(*Tracker)

// WithLogger sets a structured logger for the tracker.
func WithLogger(l logging.Logger) Option {
	return func(t *Tracker) { t.logger = l }
}

// NewTracker constructs a Tracker. index may be nil to skip the
// message-existence check (tests); store may be nil for a purely in-memory
// tracker. Any previously persisted records are restored.
func NewTracker(index MessageIndex, store Store, opts ...Option) *Tracker {
	t := &Tracker{records: make(map[string][]Record), index: index, store: store, logger: logging.NoOpLogger{}}
	for _, o := range opts {
		o(t)
	}
	if store != nil {
		loaded, err := store.LoadStatus()
		if err != nil {
			t.logger.Warn("status.load_failed", "error", err.Error())
		} else if loaded != nil {
			t.records = loaded
		}
	}
	return t
}

// Add creates a record owned by messageID and returns its id. The owning
// message must exist in the log at creation time.
func (t *Tracker) Add(messageID string, kind Kind, state State, detail string, count int) (string, error) {
	if t.index != nil && !t.index.Has(messageID) {
		return "", ErrUnknownMessage
	}
	if count <= 0 {
		count = 1
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	rec := Record{
		ID:        core.NewID(),
		MessageID: messageID,
		Kind:      kind,
		State:     state,
		Detail:    detail,
		Count:     count,
		Updated:   time.Now().UTC(),
	}
	t.records[messageID] = append(t.records[messageID], rec)
	t.persistLocked()
	return rec.ID, nil
}

// KeepCount leaves a record's count unchanged on Update. Any non-negative
// count is written as-is, including zero: a batch where every item failed
// legitimately resolves to count 0.
const KeepCount = -1

// Update rewrites a record's state, its detail when non-empty, and its
// count when non-negative (pass KeepCount to leave it unchanged). An
// unknown (messageID, recordID) pair is a silent no-op.
func (t *Tracker) Update(messageID, recordID string, state State, detail string, count int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	recs := t.records[messageID]
	for i := range recs {
		if recs[i].ID != recordID {
			continue
		}
		recs[i].State = state
		if detail != "" {
			recs[i].Detail = detail
		}
		if count >= 0 {
			recs[i].Count = count
		}
		recs[i].Updated = time.Now().UTC()
		t.persistLocked()
		return
	}
	t.logger.Debug("status.update_missed", "message_id", messageID, "record_id", recordID)
}

// Remove deletes a record. An unknown pair is a silent no-op.
func (t *Tracker) Remove(messageID, recordID string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	recs := t.records[messageID]
	for i := range recs {
		if recs[i].ID == recordID {
			t.records[messageID] = append(recs[:i:i], recs[i+1:]...)
			t.persistLocked()
			return
		}
	}
}

// For returns a copy of the records owned by messageID in creation order.
func (t *Tracker) For(messageID string) []Record {
	t.mu.RLock()
	defer t.mu.RUnlock()
	recs := t.records[messageID]
	res := make([]Record, len(recs))
	copy(res, recs)
	return res
}

// CombinedFor returns a read-time projection of the records owned by
// messageID: records sharing a kind merge into one entry with summed counts
// and the state/detail of the most recently written record. The underlying
// records are not mutated.
func (t *Tracker) CombinedFor(messageID string) []Record {
	t.mu.RLock()
	defer t.mu.RUnlock()
	var order []Kind
	merged := make(map[Kind]Record)
	for _, rec := range t.records[messageID] {
		cur, ok := merged[rec.Kind]
		if !ok {
			order = append(order, rec.Kind)
			merged[rec.Kind] = rec
			continue
		}
		count := cur.Count + rec.Count
		if !rec.Updated.Before(cur.Updated) {
			cur = rec
		}
		cur.Count = count
		merged[rec.Kind] = cur
	}
	res := make([]Record, 0, len(order))
	for _, k := range order {
		res = append(res, merged[k])
	}
	return res
}

// Clear drops all records. Callers resetting a conversation clear both the
// transcript and the tracker.
func (t *Tracker) Clear() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.records = make(map[string][]Record)
	t.persistLocked()
}

// persistLocked saves all records through the store; caller holds the lock.
func (t *Tracker) persistLocked() {
	if t.store == nil {
		return
	}
	snap := make(map[string][]Record, len(t.records))
	for k, v := range t.records {
		cp := make([]Record, len(v))
		copy(cp, v)
		snap[k] = cp
	}
	if err := t.store.SaveStatus(snap); err != nil {
		t.logger.Error("status.persist_failed", "error", err.Error())
	}
}
