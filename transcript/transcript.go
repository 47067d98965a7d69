// Package transcript implements the ordered, append-only conversation log.
//
// The log holds at most one mutable "streaming" message: the entry currently
// receiving incremental text from an in-progress model response. While it
// exists it is always the most recently appended entry. Every mutating call
// synchronously persists the resulting snapshot through the Store
// collaborator, so after any public method returns the durable view matches
// in-memory state.
package transcript

import (
	"sync"

	"github.com/concord-labs/concord/core"
	"github.com/concord-labs/concord/logging"
)

// Log is the conversation message log. It is safe for concurrent access,
// though the session controller mutates it from a single coordination
// context so the streaming invariant cannot be raced.
type Log struct {
	mu        sync.RWMutex
	messages  []core.Message
	streaming int // index of the streaming message, -1 when none
	store     Store
	logger    logging.Logger
}

// Option configures a Log.
type Option func(*Log)

// WithLogger sets a structured logger for the log.
func WithLogger(l logging.Logger) Option {
	return func(lg *Log) { lg.logger = l }
}

// NewLog constructs a Log persisting through store. A nil store keeps the
// log purely in-memory. Any previously persisted snapshot is restored.
func NewLog(store Store, opts ...Option) *Log {
	l := &Log{streaming: -1, store: store, logger: logging.NoOpLogger{}}
	for _, o := range opts {
		o(l)
	}
	if store != nil {
		snap, err := store.Load()
		if err != nil {
			l.logger.Warn("transcript.load_failed", "error", err.Error())
		} else {
			l.restore(snap)
		}
	}
	return l
}

func (l *Log) restore(snap Snapshot) {
	l.messages = append([]core.Message(nil), snap.Messages...)
	l.streaming = -1
	if snap.StreamingID == "" {
		return
	}
	for i := range l.messages {
		if l.messages[i].ID == snap.StreamingID {
			l.streaming = i
			return
		}
	}
}

// AppendUser appends a completed user message and returns it.
func (l *Log) AppendUser(text string) core.Message {
	l.mu.Lock()
	defer l.mu.Unlock()
	msg := core.NewMessage(core.RoleUser, text, true)
	l.messages = append(l.messages, msg)
	l.persistLocked()
	return msg
}

// AppendAssistant appends an assistant message. With complete=false it
// either overwrites the content of the existing streaming message or, when
// none is active, creates a new entry and marks it as the streaming message.
func (l *Log) AppendAssistant(text string, complete bool) core.Message {
	l.mu.Lock()
	defer l.mu.Unlock()
	if !complete && l.streaming >= 0 {
		l.messages[l.streaming].Text = text
		msg := l.messages[l.streaming]
		l.persistLocked()
		return msg
	}
	msg := core.NewMessage(core.RoleAssistant, text, complete)
	l.messages = append(l.messages, msg)
	if !complete {
		l.streaming = len(l.messages) - 1
	}
	l.persistLocked()
	return msg
}

// AppendDelta concatenates text onto the streaming message verbatim and
// returns the full accumulated content. Without an active streaming message
// it is a no-op returning the empty string.
func (l *Log) AppendDelta(text string) string {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.streaming < 0 {
		l.logger.Warn("transcript.delta_without_streaming")
		return ""
	}
	l.messages[l.streaming].Text += text
	full := l.messages[l.streaming].Text
	l.persistLocked()
	return full
}

// FinalizeStreaming marks the streaming message complete and clears the
// streaming pointer. Idempotent: a call with no active streaming message is
// a no-op.
func (l *Log) FinalizeStreaming() {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.streaming < 0 {
		return
	}
	l.messages[l.streaming].Complete = true
	l.streaming = -1
	l.persistLocked()
}

// Clear empties the log and the streaming pointer. Status records are owned
// by the status tracker; callers resetting a conversation clear both.
func (l *Log) Clear() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.messages = nil
	l.streaming = -1
	l.persistLocked()
}

// Messages returns a copy of the full message slice.
func (l *Log) Messages() []core.Message {
	l.mu.RLock()
	defer l.mu.RUnlock()
	res := make([]core.Message, len(l.messages))
	copy(res, l.messages)
	return res
}

// Streaming returns the current streaming message, if any.
func (l *Log) Streaming() (core.Message, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if l.streaming < 0 {
		return core.Message{}, false
	}
	return l.messages[l.streaming], true
}

// Has reports whether a message with the given id exists in the log.
func (l *Log) Has(id string) bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	for i := range l.messages {
		if l.messages[i].ID == id {
			return true
		}
	}
	return false
}

// persistLocked saves the current snapshot through the store. The caller
// must hold the write lock. Store failures are logged, not propagated:
// the in-memory log remains the source of truth for the ongoing session.
func (l *Log) persistLocked() {
	if l.store == nil {
		return
	}
	snap := Snapshot{Messages: make([]core.Message, len(l.messages))}
	copy(snap.Messages, l.messages)
	if l.streaming >= 0 {
		snap.StreamingID = l.messages[l.streaming].ID
	}
	if err := l.store.Save(snap); err != nil {
		l.logger.Error("transcript.persist_failed", "error", err.Error())
	}
}
