package session

import (
	"context"
	"fmt"
	"strings"

	"github.com/concord-labs/concord/logging"
	"github.com/concord-labs/concord/model"
	"github.com/concord-labs/concord/provider"
)

// calendarWindowDays is the forward window republished into each request.
const calendarWindowDays = 7

// BlockSink receives the freshly formatted context blocks. The Controller
// implements it; Refresh replaces the sink's block set wholesale.
type BlockSink interface {
	SetBlocks(blocks []model.ContextBlock)
}

// Coordinator republishes current domain state as textual context blocks:
// stored memories, a 7-day calendar window, all reminders and, when
// configured, a location description. Refresh is idempotent and safe to call
// redundantly; it runs at the start of every session and after every
// mutating tool operation.
type Coordinator struct {
	memory    provider.Memory
	calendar  provider.Calendar
	reminders provider.Reminders
	location  provider.Location
	sink      BlockSink
	logger    logging.Logger
}

// CoordinatorDeps are the providers a Coordinator reads from. Any of them
// may be nil; the corresponding block is omitted.
type CoordinatorDeps struct {
	Memory    provider.Memory
	Calendar  provider.Calendar
	Reminders provider.Reminders
	Location  provider.Location
}

// CoordinatorOption configures a Coordinator.
type CoordinatorOption func(*Coordinator)

// WithCoordinatorLogger sets a structured logger for the coordinator.
func WithCoordinatorLogger(l logging.Logger) CoordinatorOption {
	return func(c *Coordinator) { c.logger = l }
}

// NewCoordinator constructs a Coordinator. Bind attaches the sink once the
// consuming controller exists.
func NewCoordinator(deps CoordinatorDeps, opts ...CoordinatorOption) *Coordinator {
	c := &Coordinator{
		memory:    deps.Memory,
		calendar:  deps.Calendar,
		reminders: deps.Reminders,
		location:  deps.Location,
		logger:    logging.NoOpLogger{},
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// Bind attaches the sink that receives refreshed blocks.
func (c *Coordinator) Bind(sink BlockSink) { c.sink = sink }

// Refresh pulls current provider state, formats it and republishes the
// blocks into the sink. Side effects only; provider read failures drop the
// affected block and are logged, never propagated.
func (c *Coordinator) Refresh(ctx context.Context) {
	if c.sink == nil {
		return
	}
	var blocks []model.ContextBlock
	if b, ok := c.memoryBlock(ctx); ok {
		blocks = append(blocks, b)
	}
	if b, ok := c.calendarBlock(ctx); ok {
		blocks = append(blocks, b)
	}
	if b, ok := c.remindersBlock(ctx); ok {
		blocks = append(blocks, b)
	}
	if b, ok := c.locationBlock(ctx); ok {
		blocks = append(blocks, b)
	}
	c.sink.SetBlocks(blocks)
	c.logger.Debug("session.refresh", "blocks", len(blocks))
}

func (c *Coordinator) memoryBlock(ctx context.Context) (model.ContextBlock, bool) {
	if c.memory == nil {
		return model.ContextBlock{}, false
	}
	items, err := c.memory.ListAll(ctx)
	if err != nil {
		c.logger.Warn("session.refresh.memory", "error", err.Error())
		return model.ContextBlock{}, false
	}
	var b strings.Builder
	if len(items) == 0 {
		b.WriteString("No stored memories.")
	}
	for _, item := range items {
		fmt.Fprintf(&b, "- [%s] %s (importance %d)\n", item.Category, item.Content, item.Importance)
	}
	return model.ContextBlock{Name: "Memories", Text: strings.TrimRight(b.String(), "\n")}, true
}

func (c *Coordinator) calendarBlock(ctx context.Context) (model.ContextBlock, bool) {
	if c.calendar == nil {
		return model.ContextBlock{}, false
	}
	events, err := c.calendar.ListUpcoming(ctx, calendarWindowDays)
	if err != nil {
		c.logger.Warn("session.refresh.calendar", "error", err.Error())
		return model.ContextBlock{}, false
	}
	var b strings.Builder
	if len(events) == 0 {
		b.WriteString("No events in the next 7 days.")
	}
	for _, ev := range events {
		fmt.Fprintf(&b, "- %s: %s to %s (id %s)", ev.Title,
			ev.Start.Format("Mon Jan 2 15:04"), ev.End.Format("Mon Jan 2 15:04"), ev.ID)
		if ev.Notes != "" {
			fmt.Fprintf(&b, ". Notes: %s", ev.Notes)
		}
		b.WriteString("\n")
	}
	return model.ContextBlock{Name: "Calendar (next 7 days)", Text: strings.TrimRight(b.String(), "\n")}, true
}

func (c *Coordinator) remindersBlock(ctx context.Context) (model.ContextBlock, bool) {
	if c.reminders == nil {
		return model.ContextBlock{}, false
	}
	reminders, err := c.reminders.ListAll(ctx)
	if err != nil {
		c.logger.Warn("session.refresh.reminders", "error", err.Error())
		return model.ContextBlock{}, false
	}
	var b strings.Builder
	if len(reminders) == 0 {
		b.WriteString("No reminders.")
	}
	for _, rem := range reminders {
		mark := " "
		if rem.Completed {
			mark = "x"
		}
		fmt.Fprintf(&b, "- [%s] %s (id %s", mark, rem.Title, rem.ID)
		if rem.Due != nil {
			fmt.Fprintf(&b, ", due %s", rem.Due.Format("Mon Jan 2 15:04"))
		}
		b.WriteString(")\n")
	}
	return model.ContextBlock{Name: "Reminders", Text: strings.TrimRight(b.String(), "\n")}, true
}

func (c *Coordinator) locationBlock(ctx context.Context) (model.ContextBlock, bool) {
	if c.location == nil {
		return model.ContextBlock{}, false
	}
	desc, err := c.location.Describe(ctx)
	if err != nil {
		c.logger.Warn("session.refresh.location", "error", err.Error())
		return model.ContextBlock{}, false
	}
	if desc == "" {
		return model.ContextBlock{}, false
	}
	return model.ContextBlock{Name: "Location", Text: desc}, true
}
