package tool

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/concord-labs/concord/provider"
	"github.com/concord-labs/concord/status"
)

// registerCalendarTools wires the calendar portion of the catalog.
func (d *Dispatcher) registerCalendarTools() {
	Register(d.registry, "add_calendar_event",
		"Create a calendar event with a title, start and end time.",
		func(raw json.RawMessage) (AddCalendarEventParams, error) {
			return decodeParams[AddCalendarEventParams]("add_calendar_event", raw)
		}, d.handleAddCalendarEvent)

	Register(d.registry, "add_calendar_events_batch",
		"Create multiple calendar events at once.",
		func(raw json.RawMessage) (AddCalendarEventsBatchParams, error) {
			p, err := decodeParams[AddCalendarEventsBatchParams]("add_calendar_events_batch", raw)
			if err != nil {
				return p, err
			}
			if len(p.Events) == 0 {
				return p, validationErr("add_calendar_events_batch", "missing required parameter %q", "events")
			}
			return p, nil
		}, d.handleAddCalendarEventsBatch)

	Register(d.registry, "modify_calendar_event",
		"Modify an existing calendar event. Only supplied fields change.",
		func(raw json.RawMessage) (ModifyCalendarEventParams, error) {
			return decodeParams[ModifyCalendarEventParams]("modify_calendar_event", raw)
		}, d.handleModifyCalendarEvent)

	Register(d.registry, "modify_calendar_events_batch",
		"Modify multiple calendar events at once.",
		func(raw json.RawMessage) (ModifyCalendarEventsBatchParams, error) {
			p, err := decodeParams[ModifyCalendarEventsBatchParams]("modify_calendar_events_batch", raw)
			if err != nil {
				return p, err
			}
			if len(p.Events) == 0 {
				return p, validationErr("modify_calendar_events_batch", "missing required parameter %q", "events")
			}
			return p, nil
		}, d.handleModifyCalendarEventsBatch)

	Register(d.registry, "delete_calendar_event",
		"Delete a calendar event by id, or several by ids.",
		func(raw json.RawMessage) (DeleteCalendarEventParams, error) {
			p, err := decodeParams[DeleteCalendarEventParams]("delete_calendar_event", raw)
			if err != nil {
				return p, err
			}
			if p.ID == "" && len(p.IDs) == 0 {
				return p, validationErr("delete_calendar_event", "one of %q or %q is required", "id", "ids")
			}
			return p, nil
		}, d.handleDeleteCalendarEvent)

	Register(d.registry, "delete_calendar_events_batch",
		"Delete multiple calendar events by id.",
		func(raw json.RawMessage) (DeleteCalendarEventsBatchParams, error) {
			p, err := decodeParams[DeleteCalendarEventsBatchParams]("delete_calendar_events_batch", raw)
			if err != nil {
				return p, err
			}
			if len(p.IDs) == 0 {
				return p, validationErr("delete_calendar_events_batch", "missing required parameter %q", "ids")
			}
			return p, nil
		}, d.handleDeleteCalendarEventsBatch)
}

func (d *Dispatcher) handleAddCalendarEvent(ctx context.Context, scope Scope, p AddCalendarEventParams) (string, error) {
	if d.calendar == nil {
		return "", unavailable("add_calendar_event", "calendar")
	}
	fields, err := p.fields("add_calendar_event")
	if err != nil {
		return "", err
	}
	recID := d.track(scope, status.KindCalendarCreate, status.StatePending, fields.Title, 1)
	if _, err := d.calendar.Create(ctx, fields); err != nil {
		d.resolve(scope, recID, status.StateFailure, err.Error(), status.KeepCount)
		return "", NewToolError("add_calendar_event", fmt.Sprintf("could not create event: %v", err), CodeExecution)
	}
	d.resolve(scope, recID, status.StateSuccess, "", status.KeepCount)
	d.refresh(ctx, scope)
	return fmt.Sprintf("Added calendar event %q.", fields.Title), nil
}

func (d *Dispatcher) handleAddCalendarEventsBatch(ctx context.Context, scope Scope, p AddCalendarEventsBatchParams) (string, error) {
	if d.calendar == nil {
		return "", unavailable("add_calendar_events_batch", "calendar")
	}
	return dispatchBatch(d, ctx, scope, status.KindCalendarCreate, "calendar events", p.Events,
		func(ctx context.Context, item AddCalendarEventParams) error {
			fields, err := item.fields("add_calendar_events_batch")
			if err != nil {
				return err
			}
			_, err = d.calendar.Create(ctx, fields)
			return err
		})
}

func (d *Dispatcher) handleModifyCalendarEvent(ctx context.Context, scope Scope, p ModifyCalendarEventParams) (string, error) {
	if d.calendar == nil {
		return "", unavailable("modify_calendar_event", "calendar")
	}
	patch, err := p.patch("modify_calendar_event")
	if err != nil {
		return "", err
	}
	recID := d.track(scope, status.KindCalendarUpdate, status.StatePending, "", 1)
	if err := d.calendar.Update(ctx, p.ID, patch); err != nil {
		d.resolve(scope, recID, status.StateFailure, err.Error(), status.KeepCount)
		return "", NewToolError("modify_calendar_event", fmt.Sprintf("could not modify event %q: %v", p.ID, err), CodeExecution)
	}
	d.resolve(scope, recID, status.StateSuccess, "", status.KeepCount)
	d.refresh(ctx, scope)
	return fmt.Sprintf("Updated calendar event %q.", p.ID), nil
}

func (d *Dispatcher) handleModifyCalendarEventsBatch(ctx context.Context, scope Scope, p ModifyCalendarEventsBatchParams) (string, error) {
	if d.calendar == nil {
		return "", unavailable("modify_calendar_events_batch", "calendar")
	}
	return dispatchBatch(d, ctx, scope, status.KindCalendarUpdate, "calendar events", p.Events,
		func(ctx context.Context, item ModifyCalendarEventParams) error {
			patch, err := item.patch("modify_calendar_events_batch")
			if err != nil {
				return err
			}
			return d.calendar.Update(ctx, item.ID, patch)
		})
}

func (d *Dispatcher) handleDeleteCalendarEvent(ctx context.Context, scope Scope, p DeleteCalendarEventParams) (string, error) {
	if d.calendar == nil {
		return "", unavailable("delete_calendar_event", "calendar")
	}
	if len(p.IDs) > 0 {
		return d.deleteCalendarBatch(ctx, scope, p.IDs)
	}
	// Calendar and reminder ids are not type-disjoint in the upstream data
	// source. An id that actually identifies a reminder is redirected to the
	// reminder-delete path instead of failing in the wrong domain.
	if d.reminders != nil {
		if _, err := d.reminders.Fetch(ctx, p.ID); err == nil {
			d.logger.Info("tool.delete_calendar_event.redirect", "id", p.ID)
			return d.deleteReminderByID(ctx, scope, "delete_calendar_event", p.ID)
		}
	}
	return d.deleteCalendarByID(ctx, scope, p.ID)
}

func (d *Dispatcher) handleDeleteCalendarEventsBatch(ctx context.Context, scope Scope, p DeleteCalendarEventsBatchParams) (string, error) {
	if d.calendar == nil {
		return "", unavailable("delete_calendar_events_batch", "calendar")
	}
	return d.deleteCalendarBatch(ctx, scope, p.IDs)
}

// deleteCalendarByID is the single-item delete path. Unlike the batch path
// it reports a missing event as a failure.
func (d *Dispatcher) deleteCalendarByID(ctx context.Context, scope Scope, id string) (string, error) {
	recID := d.track(scope, status.KindCalendarDelete, status.StatePending, "", 1)
	if err := d.calendar.Delete(ctx, id); err != nil {
		d.resolve(scope, recID, status.StateFailure, err.Error(), status.KeepCount)
		if errors.Is(err, provider.ErrNotFound) {
			return "", NewToolError("delete_calendar_event", fmt.Sprintf("no calendar event with id %q", id), CodeExecution)
		}
		return "", NewToolError("delete_calendar_event", fmt.Sprintf("could not delete event %q: %v", id, err), CodeExecution)
	}
	d.resolve(scope, recID, status.StateSuccess, "", status.KeepCount)
	d.refresh(ctx, scope)
	return fmt.Sprintf("Deleted calendar event %q.", id), nil
}

// deleteCalendarBatch deletes a set of events. Ids are deduplicated before
// dispatch and per-item "not found" failures count as success: overlapping
// deletions and server-side expiry between read and write are expected when
// operating over a set.
func (d *Dispatcher) deleteCalendarBatch(ctx context.Context, scope Scope, ids []string) (string, error) {
	return dispatchBatch(d, ctx, scope, status.KindCalendarDelete, "calendar events", dedupe(ids),
		func(ctx context.Context, id string) error {
			err := d.calendar.Delete(ctx, id)
			if errors.Is(err, provider.ErrNotFound) {
				return nil
			}
			return err
		})
}
