// Package oracle defines the natural-language capability the assistant
// consumes: single-label classification of a conversation and tool-enabled
// invocation returning structured tool calls. Concrete providers live in the
// openai and anthropic subpackages; MockOracle serves tests and examples.
package oracle

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"
)

// Conversation roles stored in session history.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleTool      = "tool"
	RoleSystem    = "system"
)

// ErrTimeout reports that a classification or tool-selection call exceeded
// its deadline. Callers may retry; no state transition happened.
var ErrTimeout = errors.New("oracle: call timed out")

// Message is one conversation entry. History is append-only and ordered;
// the core never reorders or truncates it.
type Message struct {
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

// NewMessage builds a timestamped message for the given role.
func NewMessage(role, content string) Message {
	return Message{Role: role, Content: content, Timestamp: time.Now().UTC()}
}

// ToolCall is one concrete invocation request produced by the oracle.
type ToolCall struct {
	ID   string         `json:"id"`
	Name string         `json:"name"`
	Args map[string]any `json:"args"`
}

// ToolSchema declaratively exposes a callable operation to the oracle.
// Parameters is a minimal JSON-Schema object map.
type ToolSchema struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Parameters  map[string]any `json:"parameters"`
}

// Completion is the outcome of a tool-enabled invocation: free text, zero or
// more tool calls, or both.
type Completion struct {
	Content   string     `json:"content"`
	ToolCalls []ToolCall `json:"tool_calls,omitempty"`
}

// Oracle is the external classification / tool-selection capability.
//
// Classify returns, best effort, exactly one member of labels. Callers must
// treat any non-member response as their designated default label rather
// than failing. InvokeWithTools runs a completion with the given tool
// schemas attached and surfaces any tool calls the model produced.
type Oracle interface {
	Classify(ctx context.Context, msgs []Message, labels []string) (string, error)
	InvokeWithTools(ctx context.Context, msgs []Message, tools []ToolSchema) (*Completion, error)
}

// MockOracle is a scripted in-memory Oracle for tests. Labels and
// completions are consumed in FIFO order; when a queue is empty Classify
// returns the first offered label and InvokeWithTools echoes the last user
// message. Safe for concurrent use.
type MockOracle struct {
	mu          sync.Mutex
	labels      []string
	completions []Completion
}

// NewMockOracle constructs an empty MockOracle.
func NewMockOracle() *MockOracle { return &MockOracle{} }

// QueueLabel appends a canned classification label.
func (m *MockOracle) QueueLabel(label string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.labels = append(m.labels, label)
}

// QueueCompletion appends a canned tool-enabled completion.
func (m *MockOracle) QueueCompletion(c Completion) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.completions = append(m.completions, c)
}

// QueueToolCall is shorthand for queueing a completion holding one tool call.
func (m *MockOracle) QueueToolCall(name string, args map[string]any) {
	m.QueueCompletion(Completion{ToolCalls: []ToolCall{{ID: fmt.Sprintf("call-%s", name), Name: name, Args: args}}})
}

// Classify pops the next scripted label, honoring context cancellation.
func (m *MockOracle) Classify(ctx context.Context, msgs []Message, labels []string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.labels) == 0 {
		if len(labels) == 0 {
			return "", fmt.Errorf("no labels offered")
		}
		return labels[0], nil
	}
	label := m.labels[0]
	m.labels = m.labels[1:]
	return label, nil
}

// InvokeWithTools pops the next scripted completion, honoring context
// cancellation.
func (m *MockOracle) InvokeWithTools(ctx context.Context, msgs []Message, tools []ToolSchema) (*Completion, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.completions) == 0 {
		content := ""
		for i := len(msgs) - 1; i >= 0; i-- {
			if msgs[i].Role == RoleUser {
				content = msgs[i].Content
				break
			}
		}
		return &Completion{Content: content}, nil
	}
	c := m.completions[0]
	m.completions = m.completions[1:]
	return &c, nil
}
