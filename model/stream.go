package model

import (
	"context"
	"sync"
)

// Stream is one in-flight model response. The consumer ranges over Events()
// and answers each tool_use event via ToolResult; producers (adapters) push
// with Emit/AwaitToolResult and finish with Close. The events channel closes
// when the stream ends; Err reports a transport failure, if any.
type Stream struct {
	events  chan Event
	results chan ToolResult

	mu     sync.Mutex
	err    error
	closed bool
}

// NewStream constructs a Stream. Adapters call it; consumers receive it
// from Model.Stream.
func NewStream() *Stream {
	return &Stream{
		events:  make(chan Event, 32),
		results: make(chan ToolResult, 1),
	}
}

// Events returns the event channel. It is closed when the stream ends.
func (s *Stream) Events() <-chan Event { return s.events }

// ToolResult supplies the textual result for the pending tool invocation.
// Must be called exactly once after each tool_use event.
func (s *Stream) ToolResult(id, text string) {
	s.results <- ToolResult{ID: id, Text: text}
}

// Err returns the terminal error, if any. Valid after Events() is closed.
func (s *Stream) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

// Emit pushes an event to the consumer, honoring ctx cancellation.
func (s *Stream) Emit(ctx context.Context, ev Event) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case s.events <- ev:
		return nil
	}
}

// AwaitToolResult blocks until the consumer supplies the result for the
// previously emitted tool_use event.
func (s *Stream) AwaitToolResult(ctx context.Context) (ToolResult, error) {
	select {
	case <-ctx.Done():
		return ToolResult{}, ctx.Err()
	case res := <-s.results:
		return res, nil
	}
}

// Close records a terminal error (nil for normal completion) and closes the
// event channel. Safe to call once.
func (s *Stream) Close(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.closed = true
	s.err = err
	close(s.events)
}
