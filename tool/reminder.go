package tool

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/concord-labs/concord/provider"
	"github.com/concord-labs/concord/status"
)

// registerReminderTools wires the reminder portion of the catalog.
func (d *Dispatcher) registerReminderTools() {
	Register(d.registry, "add_reminder",
		"Create a reminder with a title and optional due time.",
		func(raw json.RawMessage) (AddReminderParams, error) {
			return decodeParams[AddReminderParams]("add_reminder", raw)
		}, d.handleAddReminder)

	Register(d.registry, "add_reminders_batch",
		"Create multiple reminders at once.",
		func(raw json.RawMessage) (AddRemindersBatchParams, error) {
			p, err := decodeParams[AddRemindersBatchParams]("add_reminders_batch", raw)
			if err != nil {
				return p, err
			}
			if len(p.Reminders) == 0 {
				return p, validationErr("add_reminders_batch", "missing required parameter %q", "reminders")
			}
			return p, nil
		}, d.handleAddRemindersBatch)

	Register(d.registry, "modify_reminder",
		"Modify an existing reminder. Only supplied fields change; due \"none\" clears the due time.",
		func(raw json.RawMessage) (ModifyReminderParams, error) {
			return decodeParams[ModifyReminderParams]("modify_reminder", raw)
		}, d.handleModifyReminder)

	Register(d.registry, "modify_reminders_batch",
		"Modify multiple reminders at once.",
		func(raw json.RawMessage) (ModifyRemindersBatchParams, error) {
			p, err := decodeParams[ModifyRemindersBatchParams]("modify_reminders_batch", raw)
			if err != nil {
				return p, err
			}
			if len(p.Reminders) == 0 {
				return p, validationErr("modify_reminders_batch", "missing required parameter %q", "reminders")
			}
			return p, nil
		}, d.handleModifyRemindersBatch)

	Register(d.registry, "delete_reminder",
		"Delete a reminder by id, or several by ids.",
		func(raw json.RawMessage) (DeleteReminderParams, error) {
			p, err := decodeParams[DeleteReminderParams]("delete_reminder", raw)
			if err != nil {
				return p, err
			}
			if p.ID == "" && len(p.IDs) == 0 {
				return p, validationErr("delete_reminder", "one of %q or %q is required", "id", "ids")
			}
			return p, nil
		}, d.handleDeleteReminder)

	Register(d.registry, "delete_reminders_batch",
		"Delete multiple reminders by id.",
		func(raw json.RawMessage) (DeleteRemindersBatchParams, error) {
			p, err := decodeParams[DeleteRemindersBatchParams]("delete_reminders_batch", raw)
			if err != nil {
				return p, err
			}
			if len(p.IDs) == 0 {
				return p, validationErr("delete_reminders_batch", "missing required parameter %q", "ids")
			}
			return p, nil
		}, d.handleDeleteRemindersBatch)
}

func (d *Dispatcher) handleAddReminder(ctx context.Context, scope Scope, p AddReminderParams) (string, error) {
	if d.reminders == nil {
		return "", unavailable("add_reminder", "reminder")
	}
	fields, err := p.fields("add_reminder")
	if err != nil {
		return "", err
	}
	recID := d.track(scope, status.KindReminderCreate, status.StatePending, fields.Title, 1)
	if _, err := d.reminders.Create(ctx, fields); err != nil {
		d.resolve(scope, recID, status.StateFailure, err.Error(), status.KeepCount)
		return "", NewToolError("add_reminder", fmt.Sprintf("could not create reminder: %v", err), CodeExecution)
	}
	d.resolve(scope, recID, status.StateSuccess, "", status.KeepCount)
	d.refresh(ctx, scope)
	return fmt.Sprintf("Added reminder %q.", fields.Title), nil
}

func (d *Dispatcher) handleAddRemindersBatch(ctx context.Context, scope Scope, p AddRemindersBatchParams) (string, error) {
	if d.reminders == nil {
		return "", unavailable("add_reminders_batch", "reminder")
	}
	return dispatchBatch(d, ctx, scope, status.KindReminderCreate, "reminders", p.Reminders,
		func(ctx context.Context, item AddReminderParams) error {
			fields, err := item.fields("add_reminders_batch")
			if err != nil {
				return err
			}
			_, err = d.reminders.Create(ctx, fields)
			return err
		})
}

func (d *Dispatcher) handleModifyReminder(ctx context.Context, scope Scope, p ModifyReminderParams) (string, error) {
	if d.reminders == nil {
		return "", unavailable("modify_reminder", "reminder")
	}
	patch, err := p.patch("modify_reminder")
	if err != nil {
		return "", err
	}
	recID := d.track(scope, status.KindReminderUpdate, status.StatePending, "", 1)
	if err := d.reminders.Update(ctx, p.ID, patch); err != nil {
		d.resolve(scope, recID, status.StateFailure, err.Error(), status.KeepCount)
		return "", NewToolError("modify_reminder", fmt.Sprintf("could not modify reminder %q: %v", p.ID, err), CodeExecution)
	}
	d.resolve(scope, recID, status.StateSuccess, "", status.KeepCount)
	d.refresh(ctx, scope)
	return fmt.Sprintf("Updated reminder %q.", p.ID), nil
}

func (d *Dispatcher) handleModifyRemindersBatch(ctx context.Context, scope Scope, p ModifyRemindersBatchParams) (string, error) {
	if d.reminders == nil {
		return "", unavailable("modify_reminders_batch", "reminder")
	}
	return dispatchBatch(d, ctx, scope, status.KindReminderUpdate, "reminders", p.Reminders,
		func(ctx context.Context, item ModifyReminderParams) error {
			patch, err := item.patch("modify_reminders_batch")
			if err != nil {
				return err
			}
			return d.reminders.Update(ctx, item.ID, patch)
		})
}

func (d *Dispatcher) handleDeleteReminder(ctx context.Context, scope Scope, p DeleteReminderParams) (string, error) {
	if d.reminders == nil {
		return "", unavailable("delete_reminder", "reminder")
	}
	if len(p.IDs) > 0 {
		return d.deleteReminderBatch(ctx, scope, p.IDs)
	}
	return d.deleteReminderByID(ctx, scope, "delete_reminder", p.ID)
}

func (d *Dispatcher) handleDeleteRemindersBatch(ctx context.Context, scope Scope, p DeleteRemindersBatchParams) (string, error) {
	if d.reminders == nil {
		return "", unavailable("delete_reminders_batch", "reminder")
	}
	return d.deleteReminderBatch(ctx, scope, p.IDs)
}

// deleteReminderByID is the single-item delete path, also reached by the
// calendar-delete redirect when its id turns out to identify a reminder.
func (d *Dispatcher) deleteReminderByID(ctx context.Context, scope Scope, toolName, id string) (string, error) {
	recID := d.track(scope, status.KindReminderDelete, status.StatePending, "", 1)
	if err := d.reminders.Delete(ctx, id); err != nil {
		d.resolve(scope, recID, status.StateFailure, err.Error(), status.KeepCount)
		if errors.Is(err, provider.ErrNotFound) {
			return "", NewToolError(toolName, fmt.Sprintf("no reminder with id %q", id), CodeExecution)
		}
		return "", NewToolError(toolName, fmt.Sprintf("could not delete reminder %q: %v", id, err), CodeExecution)
	}
	d.resolve(scope, recID, status.StateSuccess, "", status.KeepCount)
	d.refresh(ctx, scope)
	return fmt.Sprintf("Deleted reminder %q.", id), nil
}

// deleteReminderBatch deletes a set of reminders with the same dedup and
// not-found reclassification rules as the calendar batch.
func (d *Dispatcher) deleteReminderBatch(ctx context.Context, scope Scope, ids []string) (string, error) {
	return dispatchBatch(d, ctx, scope, status.KindReminderDelete, "reminders", dedupe(ids),
		func(ctx context.Context, id string) error {
			err := d.reminders.Delete(ctx, id)
			if errors.Is(err, provider.ErrNotFound) {
				return nil
			}
			return err
		})
}
