// Package openai provides a streaming model adapter for the OpenAI Chat
// Completions API, including function/tool calling. It adapts the SDK's
// chunked responses into model.Event values.
package openai

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"github.com/concord-labs/concord/core"
	"github.com/concord-labs/concord/model"
)

// credentialPrefix is the structural marker of an OpenAI API key.
const credentialPrefix = "sk-"

// aggCall aggregates partial tool call streaming deltas (id, name, arguments)
// allowing reconstruction of complete invocations when the finish reason is
// emitted. Internal helper (unexported).
type aggCall struct {
	index          int64
	id, name, args string
}

// Options configure the OpenAI model adapter.
type Options struct {
	Model               string
	Temperature         float64
	MaxCompletionTokens int64
	APIKey              string
}

// Model wraps the OpenAI Chat Completions API behind the generic model.Model
// interface.
type Model struct {
	client *openai.Client
	opts   Options
}

// NewModel creates a new OpenAI model using the official client.
func NewModel(optFns ...func(o *Options)) *Model {
	opts := Options{
		Model:               openai.ChatModelGPT4oMini,
		Temperature:         0.7,
		MaxCompletionTokens: 4096,
	}
	for _, fn := range optFns {
		fn(&opts)
	}

	var clientOpts []option.RequestOption
	if opts.APIKey != "" {
		clientOpts = append(clientOpts, option.WithAPIKey(opts.APIKey))
	}
	client := openai.NewClient(clientOpts...)

	return &Model{client: &client, opts: opts}
}

// ValidateCredential checks the configured API key structurally.
func (m *Model) ValidateCredential() error {
	key := strings.TrimSpace(m.opts.APIKey)
	if key == "" {
		return fmt.Errorf("openai API key is not configured")
	}
	if !strings.HasPrefix(key, credentialPrefix) {
		return fmt.Errorf("openai API key is malformed: expected %q prefix", credentialPrefix)
	}
	return nil
}

// Info returns metadata describing this OpenAI model implementation.
func (m *Model) Info() model.Info {
	return model.Info{
		Name:     m.opts.Model,
		Provider: "openai",
	}
}

// Stream implements model.Model. Tool invocations pause the event flow until
// the consumer answers via Stream.ToolResult; the adapter then issues a
// follow-up request carrying the tool results and keeps streaming.
func (m *Model) Stream(ctx context.Context, req model.Request) (*model.Stream, error) {
	s := model.NewStream()

	go func() {
		messages := m.buildMessages(req)

		for {
			params := m.buildParams(req, messages)

			text, calls, err := m.streamOnce(ctx, s, params)
			if err != nil {
				s.Close(err)
				return
			}

			if len(calls) == 0 {
				if err := s.Emit(ctx, model.Event{Kind: model.EventEnd}); err != nil {
					s.Close(err)
					return
				}
				s.Close(nil)
				return
			}

			toolCalls := make([]openai.ChatCompletionMessageToolCallParam, 0, len(calls))
			for _, ac := range calls {
				toolCalls = append(toolCalls, openai.ChatCompletionMessageToolCallParam{
					ID:   ac.id,
					Type: "function",
					Function: openai.ChatCompletionMessageToolCallFunctionParam{
						Name:      ac.name,
						Arguments: ac.args,
					},
				})
			}
			assistant := openai.ChatCompletionAssistantMessageParam{Role: "assistant", ToolCalls: toolCalls}
			if text != "" {
				assistant.Content.OfString = openai.String(text)
			}
			messages = append(messages, openai.ChatCompletionMessageParamUnion{OfAssistant: &assistant})

			for _, ac := range calls {
				ev := model.Event{
					Kind: model.EventToolUse,
					Invocation: core.ToolInvocation{
						ID:        ac.id,
						Name:      ac.name,
						Arguments: []byte(ac.args),
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
				messages = append(messages, openai.ToolMessage(res.Text, res.ID))
			}
		}
	}()

	return s, nil
}

// streamOnce runs one streaming completion, emitting text deltas as they
// arrive. It returns the accumulated text plus any aggregated tool calls in
// index order.
func (m *Model) streamOnce(
	ctx context.Context,
	s *model.Stream,
	params openai.ChatCompletionNewParams,
) (string, []*aggCall, error) {
	stream := m.client.Chat.Completions.NewStreaming(ctx, params)
	var textBuilder strings.Builder
	toolAgg := map[int64]*aggCall{}

	for stream.Next() {
		ck := stream.Current()
		for _, ch := range ck.Choices {
			if ch.Delta.Content != "" {
				textBuilder.WriteString(ch.Delta.Content)
				if err := s.Emit(ctx, model.Event{Kind: model.EventTextDelta, Text: ch.Delta.Content}); err != nil {
					return "", nil, err
				}
			}
			for _, tc := range ch.Delta.ToolCalls {
				ac, ok := toolAgg[tc.Index]
				if !ok {
					ac = &aggCall{index: tc.Index}
					toolAgg[tc.Index] = ac
				}
				if tc.ID != "" {
					ac.id = tc.ID
				}
				if tc.Function.Name != "" {
					ac.name = tc.Function.Name
				}
				if tc.Function.Arguments != "" {
					ac.args += tc.Function.Arguments
				}
			}
		}
	}
	if err := stream.Err(); err != nil {
		return "", nil, fmt.Errorf("openai streaming error: %w", err)
	}

	calls := make([]*aggCall, 0, len(toolAgg))
	for _, ac := range toolAgg {
		calls = append(calls, ac)
	}
	sort.Slice(calls, func(i, j int) bool { return calls[i].index < calls[j].index })
	return textBuilder.String(), calls, nil
}

// buildMessages converts the request into OpenAI chat messages: system
// instructions, labeled context blocks, then the completed history.
func (m *Model) buildMessages(req model.Request) []openai.ChatCompletionMessageParamUnion {
	var messages []openai.ChatCompletionMessageParamUnion
	if req.System != "" {
		messages = append(messages, openai.SystemMessage(req.System))
	}
	for _, b := range req.Blocks {
		if b.Text == "" {
			continue
		}
		messages = append(messages, openai.SystemMessage(fmt.Sprintf("## %s\n%s", b.Name, b.Text)))
	}
	for _, msg := range req.History {
		if !msg.Complete || msg.Text == "" {
			continue
		}
		switch msg.Role {
		case core.RoleAssistant:
			messages = append(messages, openai.AssistantMessage(msg.Text))
		default:
			messages = append(messages, openai.UserMessage(msg.Text))
		}
	}
	return messages
}

// buildParams assembles the OpenAI request parameters including tool
// definitions.
func (m *Model) buildParams(
	req model.Request,
	messages []openai.ChatCompletionMessageParamUnion,
) openai.ChatCompletionNewParams {
	params := openai.ChatCompletionNewParams{
		Messages:            messages,
		Model:               m.opts.Model,
		Temperature:         openai.Float(m.opts.Temperature),
		MaxCompletionTokens: openai.Int(m.opts.MaxCompletionTokens),
	}
	if len(req.Tools) == 0 {
		return params
	}
	tools := make([]openai.ChatCompletionToolParam, len(req.Tools))
	for i, tdef := range req.Tools {
		tools[i] = openai.ChatCompletionToolParam{
			Type: "function",
			Function: openai.FunctionDefinitionParam{
				Name:        tdef.Name,
				Description: openai.String(tdef.Description),
				Parameters:  tdef.Parameters,
			},
		}
	}
	params.Tools = tools
	return params
}
