// Package provider declares the capability provider interfaces the
// orchestration core dispatches to: calendar, reminder, memory and location
// subsystems. Providers own their domain entities; the core holds only
// transient string ids and never assumes they stay valid across turns,
// because providers are shared resources that may be mutated externally
// between (or during) sessions.
package provider

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound reports that the target entity does not exist (or no longer
// exists). Batch deletion relies on this being distinguishable from other
// failures: a concurrent external deletion or server-side expiry between
// read and write is expected, not an error worth surfacing.
var ErrNotFound = errors.New("not found")

// Event is a calendar entry owned by the calendar provider.
type Event struct {
	ID    string
	Title string
	Start time.Time
	End   time.Time
	Notes string
}

// EventFields carries the fields for creating a calendar event.
type EventFields struct {
	Title string
	Start time.Time
	End   time.Time
	Notes string
}

// EventPatch is a partial update to a calendar event. Nil fields are left
// unchanged.
type EventPatch struct {
	Title *string
	Start *time.Time
	End   *time.Time
	Notes *string
}

// Calendar exposes create/update/delete/query operations on calendar events.
type Calendar interface {
	Create(ctx context.Context, fields EventFields) (string, error)
	Update(ctx context.Context, id string, patch EventPatch) error
	Delete(ctx context.Context, id string) error
	Fetch(ctx context.Context, id string) (Event, error)
	ListUpcoming(ctx context.Context, windowDays int) ([]Event, error)
}

// Reminder is a reminder entry owned by the reminder provider. Due is nil
// for reminders without a due date.
type Reminder struct {
	ID        string
	Title     string
	Due       *time.Time
	Notes     string
	Completed bool
}

// ReminderFields carries the fields for creating a reminder.
type ReminderFields struct {
	Title string
	Due   *time.Time
	Notes string
}

// TimePatch distinguishes three intents for an optional time field:
// the zero value leaves it unchanged, Clear removes it, otherwise
// Value replaces it.
type TimePatch struct {
	Set   bool
	Clear bool
	Value time.Time
}

// ReminderPatch is a partial update to a reminder. Nil fields are left
// unchanged; Due uses TimePatch so "clear the due date" is distinguishable
// from "leave it alone".
type ReminderPatch struct {
	Title     *string
	Due       TimePatch
	Notes     *string
	Completed *bool
}

// Reminders exposes create/update/delete/query operations on reminders.
type Reminders interface {
	Create(ctx context.Context, fields ReminderFields) (string, error)
	Update(ctx context.Context, id string, patch ReminderPatch) error
	Delete(ctx context.Context, id string) error
	Fetch(ctx context.Context, id string) (Reminder, error)
	ListAll(ctx context.Context) ([]Reminder, error)
}

// MemoryItem is one remembered fact owned by the memory provider.
type MemoryItem struct {
	ID         string
	Content    string
	Category   string
	Importance int
}

// MemoryFields carries the fields for creating a memory item.
type MemoryFields struct {
	Content    string
	Category   string
	Importance int
}

// MemoryPatch is a partial update to a memory item. Nil fields are left
// unchanged.
type MemoryPatch struct {
	Content    *string
	Category   *string
	Importance *int
}

// Memory exposes create/update/delete/query operations on memory items.
type Memory interface {
	Create(ctx context.Context, fields MemoryFields) (string, error)
	Update(ctx context.Context, id string, patch MemoryPatch) error
	Delete(ctx context.Context, id string) error
	Fetch(ctx context.Context, id string) (MemoryItem, error)
	ListAll(ctx context.Context) ([]MemoryItem, error)
}

// Location describes the user's current whereabouts as free text.
type Location interface {
	Describe(ctx context.Context) (string, error)
}
