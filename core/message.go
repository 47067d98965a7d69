package core

import (
	"time"

	"github.com/google/uuid"
)

// Role identifies the author of a conversation message.
type Role string

const (
	// RoleUser marks a message entered by the user (or an automatic trigger
	// speaking on the user's behalf).
	RoleUser Role = "user"
	// RoleAssistant marks a message produced by the model.
	RoleAssistant Role = "assistant"
)

// Message is one turn in the conversation log.
//
// A message with Complete=false is the streaming message: the single entry
// currently receiving incremental text from an in-progress model response.
// The transcript guarantees at most one such entry exists and that it is
// always the most recently appended one. Once Complete is set true the
// message is never mutated again.
type Message struct {
	ID       string    `json:"id"`
	Role     Role      `json:"role"`
	Text     string    `json:"text"`
	Complete bool      `json:"complete"`
	Created  time.Time `json:"created"`
}

// NewMessage creates a message authored by role with the given text.
func NewMessage(role Role, text string, complete bool) Message {
	return Message{
		ID:       NewID(),
		Role:     role,
		Text:     text,
		Complete: complete,
		Created:  time.Now().UTC(),
	}
}

// NewID generates a new unique identifier for messages and status records.
func NewID() string { return uuid.NewString() }
