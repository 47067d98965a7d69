// Package concord provides a high-level façade over the conversational
// assistant core: the transcript log, operation status tracker, tool
// dispatcher and streaming session controller. Most applications interact
// with this package by:
//  1. Creating an Assistant via New() with a model and capability providers
//  2. Calling Send (user turns) or SendAutomatic (timer / lifecycle turns)
//  3. Reading Messages and StatusFor to render the conversation
//
// The façade delegates streaming orchestration to session.Controller while
// keeping setup ergonomics concise. All defaults are safe for local
// development and testing; production deployments typically supply a
// durable store (store/sqlite) and a structured logger.
package concord

import (
	"context"

	"github.com/concord-labs/concord/core"
	"github.com/concord-labs/concord/logging"
	"github.com/concord-labs/concord/model"
	"github.com/concord-labs/concord/provider"
	"github.com/concord-labs/concord/session"
	"github.com/concord-labs/concord/status"
	"github.com/concord-labs/concord/tool"
	"github.com/concord-labs/concord/transcript"
)

// Store is the combined persistence collaborator: one backend holding both
// the transcript snapshot and the status records. store/sqlite implements
// it.
type Store interface {
	transcript.Store
	status.Store
}

// Options configures the Assistant.
type Options struct {
	// Capability providers. Any nil provider disables its tool family
	// with a provider-unavailable result instead of a call.
	Calendar  provider.Calendar
	Reminders provider.Reminders
	Memory    provider.Memory
	Location  provider.Location

	// Store persists transcript and status records across restarts. Nil
	// keeps everything in memory.
	Store Store

	// System is the base system prompt for every turn.
	System string

	// Logger (defaults to NoOp logger if nil).
	Logger logging.Logger
}

// Assistant is the high-level façade aggregating the core components.
type Assistant struct {
	log        *transcript.Log
	tracker    *status.Tracker
	dispatcher *tool.Dispatcher
	controller *session.Controller
}

// New creates an Assistant around the given model with optional overrides.
func New(m model.Model, optFns ...func(o *Options)) *Assistant {
	opts := Options{Logger: logging.NoOpLogger{}}
	for _, fn := range optFns {
		fn(&opts)
	}

	var (
		transcriptStore transcript.Store
		statusStore     status.Store
	)
	if opts.Store != nil {
		transcriptStore = opts.Store
		statusStore = opts.Store
	}

	log := transcript.NewLog(transcriptStore, transcript.WithLogger(opts.Logger))
	tracker := status.NewTracker(log, statusStore, status.WithLogger(opts.Logger))
	refresher := session.NewCoordinator(session.CoordinatorDeps{
		Memory:    opts.Memory,
		Calendar:  opts.Calendar,
		Reminders: opts.Reminders,
		Location:  opts.Location,
	}, session.WithCoordinatorLogger(opts.Logger))
	dispatcher := tool.NewDispatcher(tool.Deps{
		Calendar:  opts.Calendar,
		Reminders: opts.Reminders,
		Memory:    opts.Memory,
		Tracker:   tracker,
		Refresher: refresher,
	}, tool.WithLogger(opts.Logger))
	controller := session.NewController(session.Config{
		Model:      m,
		Log:        log,
		Dispatcher: dispatcher,
		Refresher:  refresher,
		Memory:     opts.Memory,
		System:     opts.System,
		Logger:     opts.Logger,
	})

	return &Assistant{
		log:        log,
		tracker:    tracker,
		dispatcher: dispatcher,
		controller: controller,
	}
}

// Send runs one user turn to completion: the user message is appended, the
// model's response streams into the transcript, and tool invocations are
// dispatched along the way.
func (a *Assistant) Send(ctx context.Context, text string) error {
	return a.controller.SendMessage(ctx, text)
}

// SendAutomatic runs a system-triggered turn (timer fire, app
// foregrounding) without appending a user message.
func (a *Assistant) SendAutomatic(ctx context.Context, instruction string) error {
	return a.controller.SendAutomatic(ctx, instruction)
}

// Messages returns the conversation so far.
func (a *Assistant) Messages() []core.Message {
	return a.log.Messages()
}

// StatusFor returns the merged status records for one message, ready for
// display.
func (a *Assistant) StatusFor(messageID string) []status.Record {
	return a.tracker.CombinedFor(messageID)
}

// ClearConversation drops all messages and their status records.
func (a *Assistant) ClearConversation() {
	a.log.Clear()
	a.tracker.Clear()
}
