package llms

import (
	"context"
	"fmt"
)

const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleTool      = "tool"
)

// Message is one conversation entry. Assistant messages may carry
// ToolCalls; tool messages carry the ToolCallID they answer.
type Message struct {
	Role       string     `json:"role"`
	Content    string     `json:"content"`
	ToolCalls  []ToolCall `json:"tool_calls,omitempty"`
	ToolCallID string     `json:"tool_call_id,omitempty"`
}

// ToolCall is one tool invocation requested by the model. Arguments are
// already decoded from the wire's JSON string.
type ToolCall struct {
	ID        string         `json:"id"`
	Name      string         `json:"name"`
	Arguments map[string]any `json:"arguments"`
}

// ToolDefinition is one tool schema offered to the model.
type ToolDefinition struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Parameters  map[string]any `json:"parameters"`
}

// Completion is one model response: final text, or tool call requests,
// or both.
type Completion struct {
	Text       string
	ToolCalls  []ToolCall
	TokensUsed int
}

type StreamChunk struct {
	Text string
	Err  error
}

// Provider is a completion backend. A nil/empty tools slice means the
// request carries no tools parameter at all.
type Provider interface {
	Chat(ctx context.Context, systemPrompt string, messages []Message, tools []ToolDefinition) (*Completion, error)
	Stream(ctx context.Context, systemPrompt string, messages []Message) (<-chan StreamChunk, error)
	ModelName() string
}

// BackendError marks a failure of the completion backend itself. It is the
// only error a chat turn propagates; everything else is downgraded to a
// textual tool result.
type BackendError struct {
	Provider string
	Err      error
}

func (e *BackendError) Error() string {
	return fmt.Sprintf("completion backend %s: %v", e.Provider, e.Err)
}

func (e *BackendError) Unwrap() error { return e.Err }
