package tool

import (
	"time"

	"github.com/concord-labs/concord/internal/dates"
	"github.com/concord-labs/concord/provider"
)

// Typed parameter structs for the fixed tool catalog. The JSON tags define
// the wire shape published to the model; omitempty marks optional fields.
// Date-like parameters are free-form strings handed to the shared date
// parser; an unparseable date is a validation failure for that item only.

// AddCalendarEventParams are the arguments of add_calendar_event and the
// per-item shape of add_calendar_events_batch.
type AddCalendarEventParams struct {
	Title string `json:"title" description:"Event title"`
	Start string `json:"start" description:"Start date/time, free-form"`
	End   string `json:"end" description:"End date/time, free-form"`
	Notes string `json:"notes,omitempty" description:"Optional notes"`
}

// fields validates the item and converts it to provider fields.
func (p AddCalendarEventParams) fields(toolName string) (provider.EventFields, error) {
	if p.Title == "" {
		return provider.EventFields{}, validationErr(toolName, "missing required parameter %q", "title")
	}
	start, err := parseRequiredDate(toolName, "start", p.Start)
	if err != nil {
		return provider.EventFields{}, err
	}
	end, err := parseRequiredDate(toolName, "end", p.End)
	if err != nil {
		return provider.EventFields{}, err
	}
	return provider.EventFields{Title: p.Title, Start: start, End: end, Notes: p.Notes}, nil
}

// AddCalendarEventsBatchParams are the arguments of add_calendar_events_batch.
type AddCalendarEventsBatchParams struct {
	Events []AddCalendarEventParams `json:"events" description:"Events to create"`
}

// ModifyCalendarEventParams are the arguments of modify_calendar_event and
// the per-item shape of modify_calendar_events_batch. Omitted fields are
// left unchanged.
type ModifyCalendarEventParams struct {
	ID    string  `json:"id" description:"Id of the event to modify"`
	Title *string `json:"title,omitempty" description:"New title"`
	Start *string `json:"start,omitempty" description:"New start date/time"`
	End   *string `json:"end,omitempty" description:"New end date/time"`
	Notes *string `json:"notes,omitempty" description:"New notes"`
}

// patch validates the item and converts it to a provider patch.
func (p ModifyCalendarEventParams) patch(toolName string) (provider.EventPatch, error) {
	if p.ID == "" {
		return provider.EventPatch{}, validationErr(toolName, "missing required parameter %q", "id")
	}
	if p.Title == nil && p.Start == nil && p.End == nil && p.Notes == nil {
		return provider.EventPatch{}, validationErr(toolName, "nothing to modify for event %q", p.ID)
	}
	patch := provider.EventPatch{Title: p.Title, Notes: p.Notes}
	if p.Start != nil {
		start, err := parseRequiredDate(toolName, "start", *p.Start)
		if err != nil {
			return provider.EventPatch{}, err
		}
		patch.Start = &start
	}
	if p.End != nil {
		end, err := parseRequiredDate(toolName, "end", *p.End)
		if err != nil {
			return provider.EventPatch{}, err
		}
		patch.End = &end
	}
	return patch, nil
}

// ModifyCalendarEventsBatchParams are the arguments of
// modify_calendar_events_batch.
type ModifyCalendarEventsBatchParams struct {
	Events []ModifyCalendarEventParams `json:"events" description:"Events to modify"`
}

// DeleteCalendarEventParams are the arguments of delete_calendar_event,
// which accepts a single id or a list of ids.
type DeleteCalendarEventParams struct {
	ID  string   `json:"id,omitempty" description:"Id of the event to delete"`
	IDs []string `json:"ids,omitempty" description:"Ids of multiple events to delete"`
}

// DeleteCalendarEventsBatchParams are the arguments of
// delete_calendar_events_batch.
type DeleteCalendarEventsBatchParams struct {
	IDs []string `json:"ids" description:"Ids of the events to delete"`
}

// AddReminderParams are the arguments of add_reminder and the per-item shape
// of add_reminders_batch.
type AddReminderParams struct {
	Title string `json:"title" description:"Reminder title"`
	Due   string `json:"due,omitempty" description:"Optional due date/time, free-form"`
	Notes string `json:"notes,omitempty" description:"Optional notes"`
}

func (p AddReminderParams) fields(toolName string) (provider.ReminderFields, error) {
	if p.Title == "" {
		return provider.ReminderFields{}, validationErr(toolName, "missing required parameter %q", "title")
	}
	fields := provider.ReminderFields{Title: p.Title, Notes: p.Notes}
	if p.Due != "" {
		due, err := parseRequiredDate(toolName, "due", p.Due)
		if err != nil {
			return provider.ReminderFields{}, err
		}
		fields.Due = &due
	}
	return fields, nil
}

// AddRemindersBatchParams are the arguments of add_reminders_batch.
type AddRemindersBatchParams struct {
	Reminders []AddReminderParams `json:"reminders" description:"Reminders to create"`
}

// ModifyReminderParams are the arguments of modify_reminder and the per-item
// shape of modify_reminders_batch. Omitted fields are left unchanged; a due
// value of "none" clears the due date.
type ModifyReminderParams struct {
	ID        string  `json:"id" description:"Id of the reminder to modify"`
	Title     *string `json:"title,omitempty" description:"New title"`
	Due       *string `json:"due,omitempty" description:"New due date/time, or \"none\" to clear"`
	Notes     *string `json:"notes,omitempty" description:"New notes"`
	Completed *bool   `json:"completed,omitempty" description:"Mark complete or incomplete"`
}

func (p ModifyReminderParams) patch(toolName string) (provider.ReminderPatch, error) {
	if p.ID == "" {
		return provider.ReminderPatch{}, validationErr(toolName, "missing required parameter %q", "id")
	}
	if p.Title == nil && p.Due == nil && p.Notes == nil && p.Completed == nil {
		return provider.ReminderPatch{}, validationErr(toolName, "nothing to modify for reminder %q", p.ID)
	}
	patch := provider.ReminderPatch{Title: p.Title, Notes: p.Notes, Completed: p.Completed}
	if p.Due != nil {
		switch *p.Due {
		case "", "none":
			patch.Due = provider.TimePatch{Set: true, Clear: true}
		default:
			due, err := parseRequiredDate(toolName, "due", *p.Due)
			if err != nil {
				return provider.ReminderPatch{}, err
			}
			patch.Due = provider.TimePatch{Set: true, Value: due}
		}
	}
	return patch, nil
}

// ModifyRemindersBatchParams are the arguments of modify_reminders_batch.
type ModifyRemindersBatchParams struct {
	Reminders []ModifyReminderParams `json:"reminders" description:"Reminders to modify"`
}

// DeleteReminderParams are the arguments of delete_reminder, which accepts a
// single id or a list of ids.
type DeleteReminderParams struct {
	ID  string   `json:"id,omitempty" description:"Id of the reminder to delete"`
	IDs []string `json:"ids,omitempty" description:"Ids of multiple reminders to delete"`
}

// DeleteRemindersBatchParams are the arguments of delete_reminders_batch.
type DeleteRemindersBatchParams struct {
	IDs []string `json:"ids" description:"Ids of the reminders to delete"`
}

// AddMemoryParams are the arguments of add_memory and the per-item shape of
// add_memories_batch.
type AddMemoryParams struct {
	Content    string `json:"content" description:"Fact to remember"`
	Category   string `json:"category" description:"Category, e.g. preference or biography"`
	Importance int    `json:"importance,omitempty" description:"Importance from 1 (low) to 5 (high)"`
}

func (p AddMemoryParams) fields(toolName string) (provider.MemoryFields, error) {
	if p.Content == "" {
		return provider.MemoryFields{}, validationErr(toolName, "missing required parameter %q", "content")
	}
	if p.Category == "" {
		return provider.MemoryFields{}, validationErr(toolName, "missing required parameter %q", "category")
	}
	importance := p.Importance
	if importance == 0 {
		importance = 1
	}
	return provider.MemoryFields{Content: p.Content, Category: p.Category, Importance: importance}, nil
}

// AddMemoriesBatchParams are the arguments of add_memories_batch.
type AddMemoriesBatchParams struct {
	Memories []AddMemoryParams `json:"memories" description:"Facts to remember"`
}

// RemoveMemoryParams are the arguments of remove_memory. The target memory
// is resolved by exact content match.
type RemoveMemoryParams struct {
	Content string `json:"content" description:"Exact content of the memory to remove"`
}

// RemoveMemoriesBatchParams are the arguments of remove_memories_batch.
type RemoveMemoriesBatchParams struct {
	Contents []string `json:"contents" description:"Exact contents of the memories to remove"`
}

// UpdateMemoryParams are the arguments of update_memory and the per-item
// shape of update_memories_batch. The target is resolved by id or, when the
// id is absent or stale, by exact old_content match. At least one of
// content, category or importance must be supplied.
type UpdateMemoryParams struct {
	ID         string  `json:"id,omitempty" description:"Id of the memory to update"`
	OldContent string  `json:"old_content,omitempty" description:"Exact current content, used when id is unknown"`
	Content    *string `json:"content,omitempty" description:"New content"`
	Category   *string `json:"category,omitempty" description:"New category"`
	Importance *int    `json:"importance,omitempty" description:"New importance"`
}

func (p UpdateMemoryParams) patch(toolName string) (provider.MemoryPatch, error) {
	if p.ID == "" && p.OldContent == "" {
		return provider.MemoryPatch{}, validationErr(toolName, "one of %q or %q is required", "id", "old_content")
	}
	if p.Content == nil && p.Category == nil && p.Importance == nil {
		return provider.MemoryPatch{}, validationErr(toolName, "at least one of content, category or importance is required")
	}
	return provider.MemoryPatch{Content: p.Content, Category: p.Category, Importance: p.Importance}, nil
}

// UpdateMemoriesBatchParams are the arguments of update_memories_batch.
type UpdateMemoriesBatchParams struct {
	Updates []UpdateMemoryParams `json:"updates" description:"Memory updates to apply"`
}

// parseRequiredDate parses a date-valued parameter, reporting failures as
// validation errors naming the field.
func parseRequiredDate(toolName, field, value string) (time.Time, error) {
	t, err := dates.Parse(value)
	if err != nil {
		return time.Time{}, validationErr(toolName, "invalid %q: %v", field, err)
	}
	return t, nil
}
