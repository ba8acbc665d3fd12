// Package llm defines the uniform tool-calling contract every model vendor
// is adapted to. A request carries the conversation plus the tool schemas;
// a response carries plain text, tool calls, or both. Vendor-specific
// request shaping stays inside the individual clients.
package llm

import (
	"context"

	"concord/internal/tools"
)

// Role values used in conversation messages.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleTool      = "tool"
)

// Message is one conversation turn.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
	// ToolCalls is set on assistant messages that request tool execution.
	ToolCalls []tools.ToolCall `json:"tool_calls,omitempty"`
	// ToolCallID correlates a RoleTool message with the call it answers.
	ToolCallID string `json:"tool_call_id,omitempty"`
}

// CompletionRequest contains all parameters for one model call.
type CompletionRequest struct {
	Messages    []Message              `json:"messages"`
	Tools       []tools.ToolDefinition `json:"tools,omitempty"`
	Temperature float64                `json:"temperature,omitempty"`
	MaxTokens   int                    `json:"max_tokens,omitempty"`
	// User attributes the call for per-user smoothing; optional.
	User string `json:"user,omitempty"`
}

// CompletionResponse is the model's normalized reply.
type CompletionResponse struct {
	Content    string           `json:"content"`
	ToolCalls  []tools.ToolCall `json:"tool_calls,omitempty"`
	StopReason string           `json:"stop_reason,omitempty"`
	Usage      TokenUsage       `json:"usage"`
}

// TokenUsage tracks token consumption.
type TokenUsage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// Client represents any LLM provider.
type Client interface {
	// Complete sends messages and returns a normalized response.
	Complete(ctx context.Context, req CompletionRequest) (*CompletionResponse, error)

	// Model returns the model identifier.
	Model() string
}
