// Package tool implements the dispatcher for the fixed catalog of capability
// tools the model can invoke: calendar, reminder and memory operations in
// single-item and batch variants.
//
// Dispatch follows a registry design: each tool name maps to a typed
// parameter decoder plus a handler, registered independently so both halves
// are testable in isolation. Validation and provider failures are recovered
// at this boundary and turned into textual results for the model to narrate;
// they never abort the enclosing session.
package tool

import (
	"context"
	"fmt"
)

// Error codes carried by ToolError.
const (
	CodeValidation          = "VALIDATION_ERROR"
	CodeProviderUnavailable = "PROVIDER_UNAVAILABLE"
	CodeExecution           = "EXECUTION_ERROR"
	CodeUnknownTool         = "UNKNOWN_TOOL"
)

// ToolError represents errors that occur during tool dispatch.
type ToolError struct {
	Tool    string `json:"tool"`    // Name of the tool that failed
	Message string `json:"message"` // Error message
	Code    string `json:"code"`    // Error code for categorization
}

func (e *ToolError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("tool error [%s] in %s: %s", e.Code, e.Tool, e.Message)
	}
	return fmt.Sprintf("tool error in %s: %s", e.Tool, e.Message)
}

// NewToolError creates a new ToolError with the specified details.
func NewToolError(tool, message, code string) *ToolError {
	return &ToolError{Tool: tool, Message: message, Code: code}
}

// validationErr is shorthand for a CodeValidation ToolError.
func validationErr(tool, format string, args ...any) *ToolError {
	return NewToolError(tool, fmt.Sprintf(format, args...), CodeValidation)
}

// Scope carries per-dispatch context. MessageID names the message that owns
// any status records the dispatch creates; an empty MessageID marks an
// internal sub-step (a batch item) whose individual records are suppressed.
type Scope struct {
	MessageID string
}

// Internal reports whether this dispatch is a batch sub-step.
func (s Scope) Internal() bool { return s.MessageID == "" }

// ContextRefresher republishes current domain state into the next model
// request. The dispatcher invokes it after every successful mutation (once
// per batch, not per item).
type ContextRefresher interface {
	Refresh(ctx context.Context)
}
