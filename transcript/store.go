package transcript

import (
	"sync"

	"github.com/concord-labs/concord/core"
)

// Snapshot is the durable view of the log: the ordered message sequence plus
// the id of the currently-streaming message (empty when none).
type Snapshot struct {
	Messages    []core.Message `json:"messages"`
	StreamingID string         `json:"streaming_id,omitempty"`
}

// Store persists transcript snapshots. Implementations must make the whole
// snapshot durable before returning from Save.
type Store interface {
	Save(snap Snapshot) error
	Load() (Snapshot, error)
}

// InMemoryStore is a volatile Store keeping the latest snapshot in memory.
// Suited for tests and ephemeral sessions.
type InMemoryStore struct {
	mu   sync.Mutex
	snap Snapshot
}

// NewInMemoryStore constructs an empty in-memory store.
func NewInMemoryStore() *InMemoryStore { return &InMemoryStore{} }

// Save keeps a copy of the snapshot.
func (s *InMemoryStore) Save(snap Snapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := Snapshot{Messages: make([]core.Message, len(snap.Messages)), StreamingID: snap.StreamingID}
	copy(cp.Messages, snap.Messages)
	s.snap = cp
	return nil
}

// Load returns the last saved snapshot.
func (s *InMemoryStore) Load() (Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := Snapshot{Messages: make([]core.Message, len(s.snap.Messages)), StreamingID: s.snap.StreamingID}
	copy(cp.Messages, s.snap.Messages)
	return cp, nil
}
