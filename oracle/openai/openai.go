// Package openai implements the oracle contract on top of the OpenAI Chat
// Completions API (function/tool calling included). It adapts the
// assistant's normalized messages and tool schemas into the SDK's message
// format and back.
package openai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/openai/openai-go"

	"github.com/RubenCasal/Data-Assistant/oracle"
)

// Options configure the OpenAI oracle adapter. Fields mirror a deliberately
// small subset of Chat Completion parameters; extend via functional options.
type Options struct {
	Model               string
	Temperature         float64
	MaxCompletionTokens int64
}

// Oracle wraps the OpenAI Chat Completions API behind oracle.Oracle.
type Oracle struct {
	client *openai.Client
	opts   Options
}

// New creates an OpenAI oracle using the official client with credentials
// taken from the environment.
func New(optFns ...func(o *Options)) *Oracle {
	client := openai.NewClient()
	return NewFromClient(&client, optFns...)
}

// NewFromClient creates an OpenAI oracle from an existing client.
func NewFromClient(client *openai.Client, optFns ...func(o *Options)) *Oracle {
	opts := Options{
		Model:               openai.ChatModelGPT4oMini,
		Temperature:         0,
		MaxCompletionTokens: 1024,
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &Oracle{client: client, opts: opts}
}

// Classify asks the model to pick exactly one label for the conversation.
// The returned string is the raw trimmed model output; membership checking
// and fallback routing are the caller's concern.
func (o *Oracle) Classify(ctx context.Context, msgs []oracle.Message, labels []string) (string, error) {
	messages := buildMessages(msgs)
	messages = append(messages, openai.SystemMessage(fmt.Sprintf(
		"Respond with exactly one of the following labels and nothing else: %s",
		strings.Join(labels, ", "),
	)))

	resp, err := o.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Messages:            messages,
		Model:               o.opts.Model,
		Temperature:         openai.Float(o.opts.Temperature),
		MaxCompletionTokens: openai.Int(o.opts.MaxCompletionTokens),
	})
	if err != nil {
		return "", mapErr(ctx, err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("openai: no choices returned")
	}
	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}

// InvokeWithTools runs a completion with the given tool schemas attached and
// surfaces the model's text plus any tool calls.
func (o *Oracle) InvokeWithTools(ctx context.Context, msgs []oracle.Message, tools []oracle.ToolSchema) (*oracle.Completion, error) {
	params := openai.ChatCompletionNewParams{
		Messages:            buildMessages(msgs),
		Model:               o.opts.Model,
		Temperature:         openai.Float(o.opts.Temperature),
		MaxCompletionTokens: openai.Int(o.opts.MaxCompletionTokens),
	}
	if len(tools) > 0 {
		defs := make([]openai.ChatCompletionToolParam, len(tools))
		for i, t := range tools {
			defs[i] = openai.ChatCompletionToolParam{
				Type: "function",
				Function: openai.FunctionDefinitionParam{
					Name:        t.Name,
					Description: openai.String(t.Description),
					Parameters:  t.Parameters,
				},
			}
		}
		params.Tools = defs
	}

	resp, err := o.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return nil, mapErr(ctx, err)
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("openai: no choices returned")
	}

	msg := resp.Choices[0].Message
	completion := &oracle.Completion{Content: msg.Content}
	for _, tc := range msg.ToolCalls {
		completion.ToolCalls = append(completion.ToolCalls, oracle.ToolCall{
			ID:   tc.ID,
			Name: tc.Function.Name,
			Args: parseArgs(tc.Function.Arguments),
		})
	}
	return completion, nil
}

// buildMessages converts history entries into SDK chat messages. Tool results
// are carried as system messages; the dialogue engine stores them as plain
// text, not provider-correlated tool responses.
func buildMessages(msgs []oracle.Message) []openai.ChatCompletionMessageParamUnion {
	out := make([]openai.ChatCompletionMessageParamUnion, 0, len(msgs))
	for _, m := range msgs {
		switch m.Role {
		case oracle.RoleSystem:
			out = append(out, openai.SystemMessage(m.Content))
		case oracle.RoleAssistant:
			out = append(out, openai.AssistantMessage(m.Content))
		case oracle.RoleTool:
			out = append(out, openai.SystemMessage(m.Content))
		default:
			out = append(out, openai.UserMessage(m.Content))
		}
	}
	return out
}

func parseArgs(raw string) map[string]any {
	args := map[string]any{}
	if raw == "" {
		return args
	}
	if err := json.Unmarshal([]byte(raw), &args); err != nil {
		return map[string]any{}
	}
	return args
}

func mapErr(ctx context.Context, err error) error {
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return oracle.ErrTimeout
	}
	return fmt.Errorf("openai api error: %w", err)
}
