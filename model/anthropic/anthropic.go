// Package anthropic provides a streaming model adapter for the Anthropic
// Claude Messages API.
package anthropic

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/anthropics/anthropic-sdk-go/shared/constant"

	"github.com/concord-labs/concord/core"
	"github.com/concord-labs/concord/model"
)

// credentialPrefix is the structural marker of an Anthropic API key. Keys
// without it are rejected before any session work starts.
const credentialPrefix = "sk-ant"

// Options configures the Anthropic model adapter.
type Options struct {
	Model       anthropic.Model
	Temperature float64
	MaxTokens   int64
	APIKey      string
}

// Model wraps the Anthropic Messages API behind the generic model.Model
// interface, adapting its event stream into model.Event values and feeding
// tool results back as follow-up requests so a turn with tool calls looks
// like one continuous stream to the caller.
type Model struct {
	client *anthropic.Client
	opts   Options
}

// NewModel creates a new Anthropic model using the official client.
func NewModel(optFns ...func(o *Options)) *Model {
	opts := Options{
		Model:       anthropic.ModelClaude3_5Sonnet20241022,
		Temperature: 0.7,
		MaxTokens:   4096,
	}

	for _, fn := range optFns {
		fn(&opts)
	}

	var clientOpts []option.RequestOption
	if opts.APIKey != "" {
		clientOpts = append(clientOpts, option.WithAPIKey(opts.APIKey))
	}

	client := anthropic.NewClient(clientOpts...)

	return &Model{
		client: &client,
		opts:   opts,
	}
}

// ValidateCredential checks the configured API key structurally: it must be
// present and carry the sk-ant prefix. No network round trip is made.
func (m *Model) ValidateCredential() error {
	key := strings.TrimSpace(m.opts.APIKey)
	if key == "" {
		return fmt.Errorf("anthropic API key is not configured")
	}
	if !strings.HasPrefix(key, credentialPrefix) {
		return fmt.Errorf("anthropic API key is malformed: expected %q prefix", credentialPrefix)
	}
	return nil
}

// Info returns metadata describing this Anthropic model implementation.
func (m *Model) Info() model.Info {
	return model.Info{
		Name:     string(m.opts.Model),
		Provider: "anthropic",
	}
}

// Stream implements model.Model. Tool invocations pause the event flow until
// the consumer answers via Stream.ToolResult; the adapter then issues a
// follow-up request carrying the tool results and keeps streaming.
func (m *Model) Stream(ctx context.Context, req model.Request) (*model.Stream, error) {
	s := model.NewStream()

	go func() {
		messages := m.buildMessages(req.History)

		for {
			params := anthropic.MessageNewParams{
				Model:       m.opts.Model,
				Messages:    messages,
				MaxTokens:   m.opts.MaxTokens,
				Temperature: anthropic.Float(m.opts.Temperature),
			}
			if system := m.buildSystem(req); len(system) > 0 {
				params.System = system
			}
			if len(req.Tools) > 0 {
				params.Tools = m.buildTools(req.Tools)
			}

			message, err := m.streamOnce(ctx, s, params)
			if err != nil {
				s.Close(err)
				return
			}

			if string(message.StopReason) != "tool_use" {
				if err := s.Emit(ctx, model.Event{Kind: model.EventEnd}); err != nil {
					s.Close(err)
					return
				}
				s.Close(nil)
				return
			}

			// Relay each tool_use block and gather results before resuming.
			var results []anthropic.ContentBlockParamUnion
			for _, block := range message.Content {
				if block.Type != "tool_use" {
					continue
				}
				toolBlock := block.AsToolUse()
				args := json.RawMessage(nil)
				if toolBlock.Input != nil {
					if raw, err := json.Marshal(toolBlock.Input); err == nil {
						args = raw
					}
				}
				ev := model.Event{
					Kind: model.EventToolUse,
					Invocation: core.ToolInvocation{
						ID:        toolBlock.ID,
						Name:      toolBlock.Name,
						Arguments: args,
					},
				}
				if err := s.Emit(ctx, ev); err != nil {
					s.Close(err)
					return
				}
				res, err := s.AwaitToolResult(ctx)
				if err != nil {
					s.Close(err)
					return
				}
				results = append(results, anthropic.NewToolResultBlock(res.ID, res.Text, false))
			}

			messages = append(messages, message.ToParam())
			messages = append(messages, anthropic.NewUserMessage(results...))
		}
	}()

	return s, nil
}

// streamOnce runs one streaming request, emitting text deltas as they
// arrive, and returns the accumulated final message.
func (m *Model) streamOnce(ctx context.Context, s *model.Stream, params anthropic.MessageNewParams) (anthropic.Message, error) {
	stream := m.client.Messages.NewStreaming(ctx, params)
	var message anthropic.Message

	for stream.Next() {
		event := stream.Current()
		if err := message.Accumulate(event); err != nil {
			return message, fmt.Errorf("anthropic stream accumulate: %w", err)
		}
		switch eventVariant := event.AsAny().(type) {
		case anthropic.ContentBlockDeltaEvent:
			switch deltaVariant := eventVariant.Delta.AsAny().(type) {
			case anthropic.TextDelta:
				if deltaVariant.Text == "" {
					continue
				}
				if err := s.Emit(ctx, model.Event{Kind: model.EventTextDelta, Text: deltaVariant.Text}); err != nil {
					return message, err
				}
			}
		}
	}
	if err := stream.Err(); err != nil {
		return message, fmt.Errorf("anthropic api error: %w", err)
	}
	return message, nil
}

// buildSystem assembles the system blocks: instructions first, then one
// labeled block per republished context section.
func (m *Model) buildSystem(req model.Request) []anthropic.TextBlockParam {
	var blocks []anthropic.TextBlockParam
	if req.System != "" {
		blocks = append(blocks, anthropic.TextBlockParam{Text: req.System})
	}
	for _, b := range req.Blocks {
		if b.Text == "" {
			continue
		}
		blocks = append(blocks, anthropic.TextBlockParam{Text: fmt.Sprintf("## %s\n%s", b.Name, b.Text)})
	}
	return blocks
}

// buildMessages converts the conversation history to Anthropic message
// params. Incomplete (streaming) entries never reach the request.
func (m *Model) buildMessages(history []core.Message) []anthropic.MessageParam {
	var messages []anthropic.MessageParam
	for _, msg := range history {
		if !msg.Complete || msg.Text == "" {
			continue
		}
		switch msg.Role {
		case core.RoleAssistant:
			messages = append(messages, anthropic.NewAssistantMessage(anthropic.NewTextBlock(msg.Text)))
		default:
			messages = append(messages, anthropic.NewUserMessage(anthropic.NewTextBlock(msg.Text)))
		}
	}
	return messages
}

// buildTools converts the tool catalog to Anthropic tool params.
func (m *Model) buildTools(tools []model.ToolDefinition) []anthropic.ToolUnionParam {
	anthropicTools := make([]anthropic.ToolUnionParam, len(tools))

	for i, tool := range tools {
		inputSchema := anthropic.ToolInputSchemaParam{
			Type: constant.Object("object"),
		}

		if tool.Parameters != nil {
			if properties, exists := tool.Parameters["properties"]; exists {
				inputSchema.Properties = properties
			}
			if required, exists := tool.Parameters["required"]; exists {
				if reqSlice, ok := required.([]string); ok {
					inputSchema.Required = reqSlice
				} else if reqInterface, ok := required.([]interface{}); ok {
					var reqStrings []string
					for _, r := range reqInterface {
						if s, ok := r.(string); ok {
							reqStrings = append(reqStrings, s)
						}
					}
					inputSchema.Required = reqStrings
				}
			}
		}

		anthropicTools[i] = anthropic.ToolUnionParamOfTool(inputSchema, tool.Name)
	}

	return anthropicTools
}
