package tool

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/concord-labs/concord/core"
	"github.com/concord-labs/concord/logging"
	"github.com/concord-labs/concord/model"
	"github.com/concord-labs/concord/provider"
	"github.com/concord-labs/concord/status"
)

// Deps are the collaborators a Dispatcher drives. Any provider may be nil;
// dispatching a tool whose provider is missing yields a provider-unavailable
// result instead of a call.
type Deps struct {
	Calendar  provider.Calendar
	Reminders provider.Reminders
	Memory    provider.Memory
	Tracker   *status.Tracker
	Refresher ContextRefresher
}

// Dispatcher routes tool invocations to capability providers, tracking
// side-effecting operations as status records and republishing context after
// mutations. Safe for concurrent use; batch fan-out happens internally.
type Dispatcher struct {
	registry  *Registry
	calendar  provider.Calendar
	reminders provider.Reminders
	memory    provider.Memory
	tracker   *status.Tracker
	refresher ContextRefresher
	logger    logging.Logger
}

// Option configures a Dispatcher.
type Option func(*Dispatcher)

// WithLogger sets a structured logger for the dispatcher.
func WithLogger(l logging.Logger) Option {
	return func(d *Dispatcher) { d.logger = l }
}

// NewDispatcher constructs a Dispatcher and registers the full fixed tool
// catalog.
func NewDispatcher(deps Deps, opts ...Option) *Dispatcher {
	d := &Dispatcher{
		registry:  NewRegistry(),
		calendar:  deps.Calendar,
		reminders: deps.Reminders,
		memory:    deps.Memory,
		tracker:   deps.Tracker,
		refresher: deps.Refresher,
		logger:    logging.NoOpLogger{},
	}
	for _, o := range opts {
		o(d)
	}
	d.registerCalendarTools()
	d.registerReminderTools()
	d.registerMemoryTools()
	return d
}

// Definitions returns the tool catalog published to the model.
func (d *Dispatcher) Definitions() []model.ToolDefinition {
	return d.registry.Definitions()
}

// Dispatch routes one invocation and returns the textual result for the
// model. All failures are recovered here: validation and provider errors
// become error-kind result strings, never panics or session aborts.
func (d *Dispatcher) Dispatch(ctx context.Context, inv core.ToolInvocation, scope Scope) string {
	start := time.Now()
	e, ok := d.registry.lookup(inv.Name)
	if !ok {
		d.logger.Warn("tool.dispatch.unknown", "tool", inv.Name)
		return errorResult(NewToolError(inv.Name, "unknown tool", CodeUnknownTool))
	}

	d.logger.Debug("tool.dispatch.start", "tool", inv.Name, "invocation_id", inv.ID)
	result, err := e.run(ctx, scope, inv.Arguments)
	if err != nil {
		d.logger.Warn("tool.dispatch.failed", "tool", inv.Name, "error", err.Error(), "duration_ms", time.Since(start).Milliseconds())
		return errorResult(err)
	}
	d.logger.Info("tool.dispatch.success", "tool", inv.Name, "duration_ms", time.Since(start).Milliseconds())
	return result
}

// errorResult renders an error as the error-kind result string relayed to
// the model.
func errorResult(err error) string {
	var te *ToolError
	if errors.As(err, &te) {
		return fmt.Sprintf("Error: %s", te.Message)
	}
	return fmt.Sprintf("Error: %v", err)
}

// track creates a status record for a single-item operation. Suppressed for
// batch sub-steps and tolerant of tracker failures: status is best-effort
// UI metadata.
func (d *Dispatcher) track(scope Scope, kind status.Kind, st status.State, detail string, count int) string {
	if scope.Internal() || d.tracker == nil {
		return ""
	}
	id, err := d.tracker.Add(scope.MessageID, kind, st, detail, count)
	if err != nil {
		d.logger.Warn("tool.track_failed", "kind", string(kind), "error", err.Error())
		return ""
	}
	return id
}

// resolve updates a previously created status record, if any.
func (d *Dispatcher) resolve(scope Scope, recordID string, st status.State, detail string, count int) {
	if recordID == "" || d.tracker == nil {
		return
	}
	d.tracker.Update(scope.MessageID, recordID, st, detail, count)
}

// refresh republishes context after a successful mutation. Batch sub-steps
// skip it; the batch refreshes once at the end.
func (d *Dispatcher) refresh(ctx context.Context, scope Scope) {
	if scope.Internal() || d.refresher == nil {
		return
	}
	d.refresher.Refresh(ctx)
}

// refreshAfterBatch republishes context once at the end of a batch.
func (d *Dispatcher) refreshAfterBatch(ctx context.Context) {
	if d.refresher == nil {
		return
	}
	d.refresher.Refresh(ctx)
}

// unavailable reports a missing provider as a tool error.
func unavailable(toolName, providerName string) error {
	return NewToolError(toolName, fmt.Sprintf("%s provider is not configured", providerName), CodeProviderUnavailable)
}
