package model

import (
	"context"
	"fmt"

	"github.com/concord-labs/concord/core"
)

// ContextBlock is a labeled block of domain state (memory, calendar,
// reminders, location) republished into each request so the model sees
// mutations from prior turns and tool calls.
type ContextBlock struct {
	Name string `json:"name"`
	Text string `json:"text"`
}

// ToolDefinition declaratively exposes a callable tool to the model.
// Parameters is a JSON Schema object (minimal subset).
type ToolDefinition struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Parameters  map[string]any `json:"parameters"`
}

// Request captures the normalized model input for one turn.
type Request struct {
	System  string           `json:"system,omitempty"`
	Blocks  []ContextBlock   `json:"blocks,omitempty"`
	History []core.Message   `json:"history"`
	Tools   []ToolDefinition `json:"tools,omitempty"`
}

// EventKind identifies the kind of streaming event.
type EventKind string

const (
	// EventTextDelta carries an incremental text chunk.
	EventTextDelta EventKind = "text_delta"
	// EventToolUse carries a tool invocation; the consumer must answer it
	// with Stream.ToolResult before the stream resumes.
	EventToolUse EventKind = "tool_use"
	// EventEnd signals the response is complete.
	EventEnd EventKind = "end"
)

// Event is one unit of model output.
type Event struct {
	Kind       EventKind
	Text       string              // set for text_delta
	Invocation core.ToolInvocation // set for tool_use
}

// ToolResult is the textual outcome of a tool invocation, correlated by the
// invocation id.
type ToolResult struct {
	ID   string
	Text string
}

// Info contains metadata about a model implementation.
type Info struct {
	Name     string `json:"name"`
	Provider string `json:"provider"`
}

// Model is the interface the session controller drives generation through.
type Model interface {
	// Stream opens a streaming request. Returned streams run until EventEnd
	// or a transport failure; ctx cancellation terminates them.
	Stream(ctx context.Context, req Request) (*Stream, error)

	// ValidateCredential reports whether the configured credential is
	// structurally usable, without a network round trip.
	ValidateCredential() error

	// Info returns information about the model implementation.
	Info() Info
}

// MockModel is a lightweight in-memory Model scripted by tests. Each call to
// Stream replays the configured steps: text deltas are emitted as-is and
// tool steps block until the consumer supplies the matching result.
type MockModel struct {
	info     Info
	credErr  error
	steps    []MockStep
	Requests []Request    // recorded requests, in order
	Results  []ToolResult // tool results received back from the consumer
}

// MockStep is one scripted event. Exactly one field should be set.
type MockStep struct {
	Delta   string
	ToolUse *core.ToolInvocation
	Err     error
}

// NewMockModel constructs a MockModel replaying the given steps.
func NewMockModel(steps ...MockStep) *MockModel {
	return &MockModel{info: Info{Name: "mock", Provider: "mock"}, steps: steps}
}

// SetCredentialError makes ValidateCredential fail with err.
func (m *MockModel) SetCredentialError(err error) { m.credErr = err }

// ValidateCredential implements Model.
func (m *MockModel) ValidateCredential() error { return m.credErr }

// Info implements Model.
func (m *MockModel) Info() Info { return m.info }

// Stream implements Model by replaying the scripted steps.
func (m *MockModel) Stream(ctx context.Context, req Request) (*Stream, error) {
	m.Requests = append(m.Requests, req)
	s := NewStream()
	go func() {
		for _, step := range m.steps {
			switch {
			case step.Err != nil:
				s.Close(step.Err)
				return
			case step.ToolUse != nil:
				if err := s.Emit(ctx, Event{Kind: EventToolUse, Invocation: *step.ToolUse}); err != nil {
					s.Close(err)
					return
				}
				res, err := s.AwaitToolResult(ctx)
				if err != nil {
					s.Close(err)
					return
				}
				if res.ID != step.ToolUse.ID {
					s.Close(fmt.Errorf("mock: tool result id %q does not match invocation %q", res.ID, step.ToolUse.ID))
					return
				}
				m.Results = append(m.Results, res)
			default:
				if err := s.Emit(ctx, Event{Kind: EventTextDelta, Text: step.Delta}); err != nil {
					s.Close(err)
					return
				}
			}
		}
		_ = s.Emit(ctx, Event{Kind: EventEnd})
		s.Close(nil)
	}()
	return s, nil
}
