package tool

import (
	"context"
	"encoding/json"

	"github.com/concord-labs/concord/internal/util"
	"github.com/concord-labs/concord/model"
)

// Registry maps tool names to their definition and execution closure. Tools
// are added by registration, never by extending a conditional; the catalog
// published to the model preserves registration order.
type Registry struct {
	entries map[string]entry
	order   []string
}

type entry struct {
	def model.ToolDefinition
	run func(ctx context.Context, scope Scope, raw json.RawMessage) (string, error)
}

// NewRegistry constructs an empty registry.
func NewRegistry() *Registry {
	return &Registry{entries: make(map[string]entry)}
}

// Register adds a tool under name with a typed parameter decoder and
// handler. The parameter schema published to the model is derived from P by
// reflection. Registering a duplicate name panics: the catalog is a fixed
// set wired at construction time.
func Register[P any](r *Registry, name, description string, decode func(json.RawMessage) (P, error), handle func(context.Context, Scope, P) (string, error)) {
	if _, exists := r.entries[name]; exists {
		panic("tool: duplicate registration of " + name)
	}
	var proto P
	r.entries[name] = entry{
		def: model.ToolDefinition{
			Name:        name,
			Description: description,
			Parameters:  util.CreateSchema(proto),
		},
		run: func(ctx context.Context, scope Scope, raw json.RawMessage) (string, error) {
			params, err := decode(raw)
			if err != nil {
				return "", err
			}
			return handle(ctx, scope, params)
		},
	}
	r.order = append(r.order, name)
}

// Definitions returns the tool catalog in registration order.
func (r *Registry) Definitions() []model.ToolDefinition {
	defs := make([]model.ToolDefinition, 0, len(r.order))
	for _, name := range r.order {
		defs = append(defs, r.entries[name].def)
	}
	return defs
}

// lookup returns the entry for name.
func (r *Registry) lookup(name string) (entry, bool) {
	e, ok := r.entries[name]
	return e, ok
}

// decodeParams unmarshals raw arguments into P, reporting malformed payloads
// as validation errors. A nil/empty payload decodes the zero value so that
// required-field checks produce the precise complaint.
func decodeParams[P any](toolName string, raw json.RawMessage) (P, error) {
	var params P
	if len(raw) == 0 {
		return params, nil
	}
	if err := json.Unmarshal(raw, &params); err != nil {
		return params, validationErr(toolName, "malformed arguments: %v", err)
	}
	return params, nil
}
