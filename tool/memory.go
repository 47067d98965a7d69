package tool

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/concord-labs/concord/provider"
	"github.com/concord-labs/concord/status"
)

// registerMemoryTools wires the memory portion of the catalog.
func (d *Dispatcher) registerMemoryTools() {
	Register(d.registry, "add_memory",
		"Remember a fact about the user.",
		func(raw json.RawMessage) (AddMemoryParams, error) {
			return decodeParams[AddMemoryParams]("add_memory", raw)
		}, d.handleAddMemory)

	Register(d.registry, "add_memories_batch",
		"Remember multiple facts at once.",
		func(raw json.RawMessage) (AddMemoriesBatchParams, error) {
			p, err := decodeParams[AddMemoriesBatchParams]("add_memories_batch", raw)
			if err != nil {
				return p, err
			}
			if len(p.Memories) == 0 {
				return p, validationErr("add_memories_batch", "missing required parameter %q", "memories")
			}
			return p, nil
		}, d.handleAddMemoriesBatch)

	Register(d.registry, "remove_memory",
		"Forget a remembered fact, identified by its exact content.",
		func(raw json.RawMessage) (RemoveMemoryParams, error) {
			p, err := decodeParams[RemoveMemoryParams]("remove_memory", raw)
			if err != nil {
				return p, err
			}
			if p.Content == "" {
				return p, validationErr("remove_memory", "missing required parameter %q", "content")
			}
			return p, nil
		}, d.handleRemoveMemory)

	Register(d.registry, "remove_memories_batch",
		"Forget multiple remembered facts at once.",
		func(raw json.RawMessage) (RemoveMemoriesBatchParams, error) {
			p, err := decodeParams[RemoveMemoriesBatchParams]("remove_memories_batch", raw)
			if err != nil {
				return p, err
			}
			if len(p.Contents) == 0 {
				return p, validationErr("remove_memories_batch", "missing required parameter %q", "contents")
			}
			return p, nil
		}, d.handleRemoveMemoriesBatch)

	Register(d.registry, "update_memory",
		"Update a remembered fact's content, category or importance.",
		func(raw json.RawMessage) (UpdateMemoryParams, error) {
			return decodeParams[UpdateMemoryParams]("update_memory", raw)
		}, d.handleUpdateMemory)

	Register(d.registry, "update_memories_batch",
		"Update multiple remembered facts at once.",
		func(raw json.RawMessage) (UpdateMemoriesBatchParams, error) {
			p, err := decodeParams[UpdateMemoriesBatchParams]("update_memories_batch", raw)
			if err != nil {
				return p, err
			}
			if len(p.Updates) == 0 {
				return p, validationErr("update_memories_batch", "missing required parameter %q", "updates")
			}
			return p, nil
		}, d.handleUpdateMemoriesBatch)
}

func (d *Dispatcher) handleAddMemory(ctx context.Context, scope Scope, p AddMemoryParams) (string, error) {
	if d.memory == nil {
		return "", unavailable("add_memory", "memory")
	}
	fields, err := p.fields("add_memory")
	if err != nil {
		return "", err
	}
	recID := d.track(scope, status.KindMemoryCreate, status.StatePending, "", 1)
	if _, err := d.memory.Create(ctx, fields); err != nil {
		d.resolve(scope, recID, status.StateFailure, err.Error(), status.KeepCount)
		return "", NewToolError("add_memory", fmt.Sprintf("could not store memory: %v", err), CodeExecution)
	}
	d.resolve(scope, recID, status.StateSuccess, "", status.KeepCount)
	d.refresh(ctx, scope)
	return "Remembered.", nil
}

func (d *Dispatcher) handleAddMemoriesBatch(ctx context.Context, scope Scope, p AddMemoriesBatchParams) (string, error) {
	if d.memory == nil {
		return "", unavailable("add_memories_batch", "memory")
	}
	return dispatchBatch(d, ctx, scope, status.KindMemoryCreate, "memories", p.Memories,
		func(ctx context.Context, item AddMemoryParams) error {
			fields, err := item.fields("add_memories_batch")
			if err != nil {
				return err
			}
			_, err = d.memory.Create(ctx, fields)
			return err
		})
}

func (d *Dispatcher) handleRemoveMemory(ctx context.Context, scope Scope, p RemoveMemoryParams) (string, error) {
	if d.memory == nil {
		return "", unavailable("remove_memory", "memory")
	}
	recID := d.track(scope, status.KindMemoryDelete, status.StatePending, "", 1)
	id, err := d.resolveMemory(ctx, "", p.Content)
	if err != nil {
		d.resolve(scope, recID, status.StateFailure, err.Error(), status.KeepCount)
		return "", NewToolError("remove_memory", err.Error(), CodeExecution)
	}
	if err := d.memory.Delete(ctx, id); err != nil {
		d.resolve(scope, recID, status.StateFailure, err.Error(), status.KeepCount)
		return "", NewToolError("remove_memory", fmt.Sprintf("could not remove memory: %v", err), CodeExecution)
	}
	d.resolve(scope, recID, status.StateSuccess, "", status.KeepCount)
	d.refresh(ctx, scope)
	return "Forgotten.", nil
}

func (d *Dispatcher) handleRemoveMemoriesBatch(ctx context.Context, scope Scope, p RemoveMemoriesBatchParams) (string, error) {
	if d.memory == nil {
		return "", unavailable("remove_memories_batch", "memory")
	}
	return dispatchBatch(d, ctx, scope, status.KindMemoryDelete, "memories", dedupe(p.Contents),
		func(ctx context.Context, content string) error {
			id, err := d.resolveMemory(ctx, "", content)
			if err != nil {
				// Already absent counts as removed in a batch context.
				return nil
			}
			err = d.memory.Delete(ctx, id)
			if errors.Is(err, provider.ErrNotFound) {
				return nil
			}
			return err
		})
}

func (d *Dispatcher) handleUpdateMemory(ctx context.Context, scope Scope, p UpdateMemoryParams) (string, error) {
	if d.memory == nil {
		return "", unavailable("update_memory", "memory")
	}
	patch, err := p.patch("update_memory")
	if err != nil {
		return "", err
	}
	recID := d.track(scope, status.KindMemoryUpdate, status.StatePending, "", 1)
	id, err := d.resolveMemory(ctx, p.ID, p.OldContent)
	if err != nil {
		d.resolve(scope, recID, status.StateFailure, err.Error(), status.KeepCount)
		return "", NewToolError("update_memory", err.Error(), CodeExecution)
	}
	if err := d.memory.Update(ctx, id, patch); err != nil {
		d.resolve(scope, recID, status.StateFailure, err.Error(), status.KeepCount)
		return "", NewToolError("update_memory", fmt.Sprintf("could not update memory: %v", err), CodeExecution)
	}
	d.resolve(scope, recID, status.StateSuccess, "", status.KeepCount)
	d.refresh(ctx, scope)
	return "Memory updated.", nil
}

func (d *Dispatcher) handleUpdateMemoriesBatch(ctx context.Context, scope Scope, p UpdateMemoriesBatchParams) (string, error) {
	if d.memory == nil {
		return "", unavailable("update_memories_batch", "memory")
	}
	return dispatchBatch(d, ctx, scope, status.KindMemoryUpdate, "memories", p.Updates,
		func(ctx context.Context, item UpdateMemoryParams) error {
			patch, err := item.patch("update_memories_batch")
			if err != nil {
				return err
			}
			id, err := d.resolveMemory(ctx, item.ID, item.OldContent)
			if err != nil {
				return err
			}
			return d.memory.Update(ctx, id, patch)
		})
}

// resolveMemory finds the target memory item either by a provided id or, if
// the id is absent or stale, by an exact content match against the current
// set.
func (d *Dispatcher) resolveMemory(ctx context.Context, id, content string) (string, error) {
	if id != "" {
		if _, err := d.memory.Fetch(ctx, id); err == nil {
			return id, nil
		}
		// Stale id: fall through to a content match if one was supplied.
	}
	if content == "" {
		return "", fmt.Errorf("no memory with id %q", id)
	}
	items, err := d.memory.ListAll(ctx)
	if err != nil {
		return "", fmt.Errorf("could not list memories: %v", err)
	}
	for _, item := range items {
		if item.Content == content {
			return item.ID, nil
		}
	}
	return "", fmt.Errorf("no memory matching %q", content)
}
