package core

import "encoding/json"

// ToolInvocation is a model-issued request to call a named tool. It is
// transient: routed through the dispatcher and never persisted. The ID is an
// opaque correlation token supplied by the model; the result returned for
// this invocation must carry the same ID so the underlying stream can resume.
type ToolInvocation struct {
	ID        string          `json:"id"`
	Name      string          `json:"name"`
	Arguments json.RawMessage `json:"arguments,omitempty"`
}
