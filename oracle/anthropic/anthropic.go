// Package anthropic implements the oracle contract on top of the Anthropic
// Messages API (tool use included).
package anthropic

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/anthropics/anthropic-sdk-go/shared/constant"

	"github.com/RubenCasal/Data-Assistant/oracle"
)

// Options configure the Anthropic oracle adapter.
type Options struct {
	Model       anthropic.Model
	Temperature float64
	MaxTokens   int64
	APIKey      string
}

// Oracle wraps the Anthropic Messages API behind oracle.Oracle.
type Oracle struct {
	client *anthropic.Client
	opts   Options
}

// New creates an Anthropic oracle using the official client.
func New(optFns ...func(o *Options)) *Oracle {
	opts := defaultOptions()
	for _, fn := range optFns {
		fn(&opts)
	}

	var clientOpts []option.RequestOption
	if opts.APIKey != "" {
		clientOpts = append(clientOpts, option.WithAPIKey(opts.APIKey))
	}
	client := anthropic.NewClient(clientOpts...)
	return &Oracle{client: &client, opts: opts}
}

// NewFromClient creates an Anthropic oracle from an existing client.
func NewFromClient(client *anthropic.Client, optFns ...func(o *Options)) *Oracle {
	opts := defaultOptions()
	for _, fn := range optFns {
		fn(&opts)
	}
	return &Oracle{client: client, opts: opts}
}

func defaultOptions() Options {
	return Options{
		Model:       anthropic.ModelClaude3_5Sonnet20241022,
		Temperature: 0,
		MaxTokens:   1024,
	}
}

// Classify asks the model to pick exactly one label for the conversation.
func (o *Oracle) Classify(ctx context.Context, msgs []oracle.Message, labels []string) (string, error) {
	system, messages := buildMessages(msgs)
	system = append(system, anthropic.TextBlockParam{Text: fmt.Sprintf(
		"Respond with exactly one of the following labels and nothing else: %s",
		strings.Join(labels, ", "),
	)})

	resp, err := o.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:       o.opts.Model,
		Messages:    messages,
		System:      system,
		MaxTokens:   o.opts.MaxTokens,
		Temperature: anthropic.Float(o.opts.Temperature),
	})
	if err != nil {
		return "", mapErr(ctx, err)
	}

	var text strings.Builder
	for _, block := range resp.Content {
		if block.Type == "text" {
			text.WriteString(block.AsText().Text)
		}
	}
	return strings.TrimSpace(text.String()), nil
}

// InvokeWithTools runs a completion with the given tool schemas attached and
// surfaces the model's text plus any tool-use blocks as tool calls.
func (o *Oracle) InvokeWithTools(ctx context.Context, msgs []oracle.Message, tools []oracle.ToolSchema) (*oracle.Completion, error) {
	system, messages := buildMessages(msgs)
	params := anthropic.MessageNewParams{
		Model:       o.opts.Model,
		Messages:    messages,
		MaxTokens:   o.opts.MaxTokens,
		Temperature: anthropic.Float(o.opts.Temperature),
	}
	if len(system) > 0 {
		params.System = system
	}
	if len(tools) > 0 {
		params.Tools = buildTools(tools)
	}

	resp, err := o.client.Messages.New(ctx, params)
	if err != nil {
		return nil, mapErr(ctx, err)
	}

	completion := &oracle.Completion{}
	var text strings.Builder
	for _, block := range resp.Content {
		switch block.Type {
		case "text":
			text.WriteString(block.AsText().Text)
		case "tool_use":
			tu := block.AsToolUse()
			args := map[string]any{}
			if tu.Input != nil {
				if b, err := json.Marshal(tu.Input); err == nil {
					_ = json.Unmarshal(b, &args)
				}
			}
			completion.ToolCalls = append(completion.ToolCalls, oracle.ToolCall{
				ID:   tu.ID,
				Name: tu.Name,
				Args: args,
			})
		}
	}
	completion.Content = text.String()
	return completion, nil
}

// buildMessages converts history entries into Anthropic message params.
// System entries are collected separately; tool results are carried as user
// text since the dialogue engine stores them as plain conversation entries.
func buildMessages(msgs []oracle.Message) ([]anthropic.TextBlockParam, []anthropic.MessageParam) {
	var system []anthropic.TextBlockParam
	var messages []anthropic.MessageParam
	for _, m := range msgs {
		switch m.Role {
		case oracle.RoleSystem:
			system = append(system, anthropic.TextBlockParam{Text: m.Content})
		case oracle.RoleAssistant:
			messages = append(messages, anthropic.NewAssistantMessage(anthropic.NewTextBlock(m.Content)))
		default:
			messages = append(messages, anthropic.NewUserMessage(anthropic.NewTextBlock(m.Content)))
		}
	}
	return system, messages
}

// buildTools converts tool schemas to the Anthropic tool format.
func buildTools(tools []oracle.ToolSchema) []anthropic.ToolUnionParam {
	out := make([]anthropic.ToolUnionParam, len(tools))
	for i, t := range tools {
		inputSchema := anthropic.ToolInputSchemaParam{
			Type: constant.Object("object"),
		}
		if t.Parameters != nil {
			if properties, ok := t.Parameters["properties"]; ok {
				inputSchema.Properties = properties
			}
			if required, ok := t.Parameters["required"].([]string); ok {
				inputSchema.Required = required
			}
		}
		out[i] = anthropic.ToolUnionParamOfTool(inputSchema, t.Name)
	}
	return out
}

func mapErr(ctx context.Context, err error) error {
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return oracle.ErrTimeout
	}
	return fmt.Errorf("anthropic api error: %w", err)
}
