package provider

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/concord-labs/concord/core"
)

// InMemoryCalendar is a volatile Calendar implementation backed by a process
// local map. Safe for concurrent access; returned entities are copies so
// callers cannot mutate internal state. Suited for tests and demos.
type InMemoryCalendar struct {
	mu     sync.RWMutex
	events map[string]Event
}

// NewInMemoryCalendar constructs an empty in-memory calendar.
func NewInMemoryCalendar() *InMemoryCalendar {
	return &InMemoryCalendar{events: make(map[string]Event)}
}

// Create stores a new event and returns its id.
func (c *InMemoryCalendar) Create(_ context.Context, fields EventFields) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	ev := Event{ID: core.NewID(), Title: fields.Title, Start: fields.Start, End: fields.End, Notes: fields.Notes}
	c.events[ev.ID] = ev
	return ev.ID, nil
}

// Put inserts an event with a caller-chosen id, overwriting any existing
// entry. Tests use it to stage id collisions across domains.
func (c *InMemoryCalendar) Put(ev Event) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.events[ev.ID] = ev
}

// Update applies a partial update; nil patch fields are left unchanged.
func (c *InMemoryCalendar) Update(_ context.Context, id string, patch EventPatch) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	ev, ok := c.events[id]
	if !ok {
		return ErrNotFound
	}
	if patch.Title != nil {
		ev.Title = *patch.Title
	}
	if patch.Start != nil {
		ev.Start = *patch.Start
	}
	if patch.End != nil {
		ev.End = *patch.End
	}
	if patch.Notes != nil {
		ev.Notes = *patch.Notes
	}
	c.events[id] = ev
	return nil
}

// Delete removes an event; returns ErrNotFound if it does not exist.
func (c *InMemoryCalendar) Delete(_ context.Context, id string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.events[id]; !ok {
		return ErrNotFound
	}
	delete(c.events, id)
	return nil
}

// Fetch returns a copy of the event or ErrNotFound.
func (c *InMemoryCalendar) Fetch(_ context.Context, id string) (Event, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	ev, ok := c.events[id]
	if !ok {
		return Event{}, ErrNotFound
	}
	return ev, nil
}

// ListUpcoming returns events starting within the next windowDays days,
// ordered by start time.
func (c *InMemoryCalendar) ListUpcoming(_ context.Context, windowDays int) ([]Event, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	now := time.Now()
	cutoff := now.AddDate(0, 0, windowDays)
	var res []Event
	for _, ev := range c.events {
		if ev.Start.Before(now) || !ev.Start.Before(cutoff) {
			continue
		}
		res = append(res, ev)
	}
	sort.Slice(res, func(i, j int) bool { return res[i].Start.Before(res[j].Start) })
	return res, nil
}

// InMemoryReminders is a volatile Reminders implementation mirroring
// InMemoryCalendar.
type InMemoryReminders struct {
	mu        sync.RWMutex
	reminders map[string]Reminder
}

// NewInMemoryReminders constructs an empty in-memory reminder store.
func NewInMemoryReminders() *InMemoryReminders {
	return &InMemoryReminders{reminders: make(map[string]Reminder)}
}

// Create stores a new reminder and returns its id.
func (r *InMemoryReminders) Create(_ context.Context, fields ReminderFields) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	rem := Reminder{ID: core.NewID(), Title: fields.Title, Notes: fields.Notes}
	if fields.Due != nil {
		due := *fields.Due
		rem.Due = &due
	}
	r.reminders[rem.ID] = rem
	return rem.ID, nil
}

// Put inserts a reminder with a caller-chosen id, overwriting any existing
// entry.
func (r *InMemoryReminders) Put(rem Reminder) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.reminders[rem.ID] = rem
}

// Update applies a partial update. A zero Due patch leaves the due date
// untouched; Due.Clear removes it.
func (r *InMemoryReminders) Update(_ context.Context, id string, patch ReminderPatch) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	rem, ok := r.reminders[id]
	if !ok {
		return ErrNotFound
	}
	if patch.Title != nil {
		rem.Title = *patch.Title
	}
	if patch.Notes != nil {
		rem.Notes = *patch.Notes
	}
	if patch.Completed != nil {
		rem.Completed = *patch.Completed
	}
	switch {
	case patch.Due.Clear:
		rem.Due = nil
	case patch.Due.Set:
		due := patch.Due.Value
		rem.Due = &due
	}
	r.reminders[id] = rem
	return nil
}

// Delete removes a reminder; returns ErrNotFound if it does not exist.
func (r *InMemoryReminders) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.reminders[id]; !ok {
		return ErrNotFound
	}
	delete(r.reminders, id)
	return nil
}

// Fetch returns a copy of the reminder or ErrNotFound.
func (r *InMemoryReminders) Fetch(_ context.Context, id string) (Reminder, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	rem, ok := r.reminders[id]
	if !ok {
		return Reminder{}, ErrNotFound
	}
	return rem, nil
}

// ListAll returns all reminders ordered by title for stable output.
func (r *InMemoryReminders) ListAll(_ context.Context) ([]Reminder, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	res := make([]Reminder, 0, len(r.reminders))
	for _, rem := range r.reminders {
		res = append(res, rem)
	}
	sort.Slice(res, func(i, j int) bool { return res[i].Title < res[j].Title })
	return res, nil
}

// InMemoryMemory is a volatile Memory implementation mirroring
// InMemoryCalendar.
type InMemoryMemory struct {
	mu    sync.RWMutex
	items map[string]MemoryItem
}

// NewInMemoryMemory constructs an empty in-memory memory store.
func NewInMemoryMemory() *InMemoryMemory {
	return &InMemoryMemory{items: make(map[string]MemoryItem)}
}

// Create stores a new memory item and returns its id.
func (m *InMemoryMemory) Create(_ context.Context, fields MemoryFields) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	item := MemoryItem{ID: core.NewID(), Content: fields.Content, Category: fields.Category, Importance: fields.Importance}
	m.items[item.ID] = item
	return item.ID, nil
}

// Update applies a partial update; nil patch fields are left unchanged.
func (m *InMemoryMemory) Update(_ context.Context, id string, patch MemoryPatch) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	item, ok := m.items[id]
	if !ok {
		return ErrNotFound
	}
	if patch.Content != nil {
		item.Content = *patch.Content
	}
	if patch.Category != nil {
		item.Category = *patch.Category
	}
	if patch.Importance != nil {
		item.Importance = *patch.Importance
	}
	m.items[id] = item
	return nil
}

// Delete removes a memory item; returns ErrNotFound if it does not exist.
func (m *InMemoryMemory) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.items[id]; !ok {
		return ErrNotFound
	}
	delete(m.items, id)
	return nil
}

// Fetch returns a copy of the memory item or ErrNotFound.
func (m *InMemoryMemory) Fetch(_ context.Context, id string) (MemoryItem, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	item, ok := m.items[id]
	if !ok {
		return MemoryItem{}, ErrNotFound
	}
	return item, nil
}

// ListAll returns all memory items ordered by content for stable output.
func (m *InMemoryMemory) ListAll(_ context.Context) ([]MemoryItem, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	res := make([]MemoryItem, 0, len(m.items))
	for _, item := range m.items {
		res = append(res, item)
	}
	sort.Slice(res, func(i, j int) bool { return res[i].Content < res[j].Content })
	return res, nil
}

// StaticLocation is a Location returning a fixed description.
type StaticLocation struct {
	Description string
}

// Describe returns the configured description.
func (s StaticLocation) Describe(context.Context) (string, error) {
	return s.Description, nil
}

// Interface compliance (compile-time assertions).
var (
	_ Calendar  = (*InMemoryCalendar)(nil)
	_ Reminders = (*InMemoryReminders)(nil)
	_ Memory    = (*InMemoryMemory)(nil)
	_ Location  = StaticLocation{}
)
