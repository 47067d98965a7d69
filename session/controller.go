// Package session drives one conversational turn end to end: it refreshes
// the request context, opens the model stream, routes text deltas into the
// transcript, pauses for tool invocations, and finalizes the streaming
// message when the stream ends.
package session

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"sync"

	"github.com/concord-labs/concord/logging"
	"github.com/concord-labs/concord/model"
	"github.com/concord-labs/concord/provider"
	"github.com/concord-labs/concord/tool"
	"github.com/concord-labs/concord/transcript"
)

// Phase is the controller's lifecycle state for the current turn.
type Phase string

const (
	PhaseIdle             Phase = "idle"
	PhaseContextGathering Phase = "context_gathering"
	PhaseStreaming        Phase = "streaming"
	PhaseToolPause        Phase = "tool_pause"
	PhaseFinalizing       Phase = "finalizing"
)

// ErrSessionActive reports an attempt to start a turn while one is already
// running for this conversation.
var ErrSessionActive = errors.New("session: a session is already active")

// ErrCredential reports an empty or structurally invalid credential. The
// turn short-circuits before any context gathering.
var ErrCredential = errors.New("session: invalid credential")

// rememberDirective matches the legacy inline [[remember: ...]] form older
// response formats used instead of the add_memory tool.
var rememberDirective = regexp.MustCompile(`\[\[remember:\s*([^\]]+)\]\]`)

// Controller is the streaming session controller for one conversation.
// Turns are single-flight: a second SendMessage while one is in progress
// fails with ErrSessionActive. The transcript and tracker are mutated only
// from the turn's own goroutine.
type Controller struct {
	model      model.Model
	log        *transcript.Log
	dispatcher *tool.Dispatcher
	refresher  *Coordinator
	memory     provider.Memory
	system     string
	logger     logging.Logger

	mu     sync.Mutex
	active bool
	phase  Phase
	blocks []model.ContextBlock
}

// Config wires a Controller. Model, Log and Dispatcher are required;
// Refresher and Memory are optional (no context refresh, no legacy
// directive application).
type Config struct {
	Model      model.Model
	Log        *transcript.Log
	Dispatcher *tool.Dispatcher
	Refresher  *Coordinator
	Memory     provider.Memory
	System     string
	Logger     logging.Logger
}

// NewController constructs a Controller and binds it as the refresher's
// block sink.
func NewController(cfg Config) *Controller {
	c := &Controller{
		model:      cfg.Model,
		log:        cfg.Log,
		dispatcher: cfg.Dispatcher,
		refresher:  cfg.Refresher,
		memory:     cfg.Memory,
		system:     cfg.System,
		logger:     cfg.Logger,
		phase:      PhaseIdle,
	}
	if c.logger == nil {
		c.logger = logging.NoOpLogger{}
	}
	if c.refresher != nil {
		c.refresher.Bind(c)
	}
	return c
}

// Phase returns the current lifecycle phase.
func (c *Controller) Phase() Phase {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.phase
}

// SetBlocks implements BlockSink: it replaces the context blocks attached
// to the next model request.
func (c *Controller) SetBlocks(blocks []model.ContextBlock) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.blocks = blocks
}

// SendMessage appends the user's message and runs one full streamed turn.
// It returns once the assistant's response is finalized. Cancelling ctx
// terminates the stream; the partial response is finalized as-is and the
// cancellation error is returned.
func (c *Controller) SendMessage(ctx context.Context, text string) error {
	return c.run(ctx, text, "")
}

// SendAutomatic runs a turn triggered by the system rather than the user
// (timer fire, app foregrounding). No user message is appended; the
// instruction rides along as a system addendum for this turn only.
func (c *Controller) SendAutomatic(ctx context.Context, instruction string) error {
	return c.run(ctx, "", instruction)
}

func (c *Controller) run(ctx context.Context, userText, instruction string) error {
	if err := c.begin(); err != nil {
		return err
	}
	defer c.end()

	if err := c.model.ValidateCredential(); err != nil {
		if userText != "" {
			c.log.AppendUser(userText)
		}
		c.log.AppendAssistant(
			"I can't reach the assistant service because no valid API key is configured. "+
				"Please check the key in settings and try again.", true)
		c.logger.Warn("session.credential", "error", err.Error())
		return fmt.Errorf("%w: %v", ErrCredential, err)
	}

	c.setPhase(PhaseContextGathering)
	if c.refresher != nil {
		c.refresher.Refresh(ctx)
	}

	if userText != "" {
		c.log.AppendUser(userText)
	}
	assistant := c.log.AppendAssistant("", false)

	req := model.Request{
		System:  c.buildSystem(instruction),
		Blocks:  c.snapshotBlocks(),
		History: c.log.Messages(),
	}
	if c.dispatcher != nil {
		req.Tools = c.dispatcher.Definitions()
	}

	c.setPhase(PhaseStreaming)
	stream, err := c.model.Stream(ctx, req)
	if err != nil {
		c.finalize(ctx)
		return fmt.Errorf("session: opening stream: %w", err)
	}

	for ev := range stream.Events() {
		switch ev.Kind {
		case model.EventTextDelta:
			c.log.AppendDelta(ev.Text)
		case model.EventToolUse:
			c.setPhase(PhaseToolPause)
			result := c.dispatch(ctx, ev, assistant.ID)
			stream.ToolResult(ev.Invocation.ID, result)
			c.setPhase(PhaseStreaming)
		case model.EventEnd:
			// Channel close follows; nothing to do.
		}
	}

	streamErr := stream.Err()
	c.finalize(ctx)
	if streamErr != nil {
		return fmt.Errorf("session: stream failed: %w", streamErr)
	}
	return nil
}

// begin takes the single-flight guard. The phase stays Idle until context
// gathering actually starts so a credential short-circuit never reports a
// started turn.
func (c *Controller) begin() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.active {
		return ErrSessionActive
	}
	c.active = true
	return nil
}

func (c *Controller) end() {
	c.mu.Lock()
	c.active = false
	c.phase = PhaseIdle
	c.mu.Unlock()
}

func (c *Controller) setPhase(p Phase) {
	c.mu.Lock()
	c.phase = p
	c.mu.Unlock()
	c.logger.Debug("session.phase", "phase", string(p))
}

func (c *Controller) snapshotBlocks() []model.ContextBlock {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]model.ContextBlock, len(c.blocks))
	copy(out, c.blocks)
	return out
}

func (c *Controller) buildSystem(instruction string) string {
	if instruction == "" {
		return c.system
	}
	if c.system == "" {
		return instruction
	}
	return c.system + "\n\n" + instruction
}

func (c *Controller) dispatch(ctx context.Context, ev model.Event, messageID string) string {
	if c.dispatcher == nil {
		return "Error: no tools are available"
	}
	return c.dispatcher.Dispatch(ctx, ev.Invocation, tool.Scope{MessageID: messageID})
}

// finalize runs the Finalizing phase: apply any legacy inline directives
// still present in the streamed text, then seal the streaming message.
func (c *Controller) finalize(ctx context.Context) {
	c.setPhase(PhaseFinalizing)
	if msg, ok := c.log.Streaming(); ok {
		if stripped, facts := extractRememberDirectives(msg.Text); len(facts) > 0 {
			c.applyRememberDirectives(ctx, facts)
			c.log.AppendAssistant(stripped, false)
		}
	}
	c.log.FinalizeStreaming()
}

func (c *Controller) applyRememberDirectives(ctx context.Context, facts []string) {
	if c.memory == nil {
		return
	}
	for _, fact := range facts {
		if _, err := c.memory.Create(ctx, provider.MemoryFields{
			Content: fact, Category: "general", Importance: 1,
		}); err != nil {
			c.logger.Warn("session.directive.remember", "error", err.Error())
			continue
		}
		c.logger.Info("session.directive.remember", "content", fact)
	}
	if c.refresher != nil {
		c.refresher.Refresh(ctx)
	}
}

// extractRememberDirectives strips [[remember: ...]] directives from text
// and returns the cleaned text plus the captured facts.
func extractRememberDirectives(text string) (string, []string) {
	matches := rememberDirective.FindAllStringSubmatch(text, -1)
	if len(matches) == 0 {
		return text, nil
	}
	facts := make([]string, 0, len(matches))
	for _, m := range matches {
		if fact := strings.TrimSpace(m[1]); fact != "" {
			facts = append(facts, fact)
		}
	}
	if len(facts) == 0 {
		facts = nil
	}
	stripped := strings.TrimSpace(rememberDirective.ReplaceAllString(text, ""))
	return stripped, facts
}
