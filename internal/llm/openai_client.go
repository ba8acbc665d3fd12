package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"concord/internal/logging"
	"concord/internal/tools"
)

// OpenAIClient speaks the OpenAI chat-completions dialect. Groq and the
// Gemini compatibility endpoint use the same wire shape, so one client
// covers all three; only the base URL and key differ.
type OpenAIClient struct {
	baseURL string
	apiKey  string
	model   string
	http    *http.Client
	logger  logging.Logger
}

// OpenAIConfig configures an OpenAIClient.
type OpenAIConfig struct {
	BaseURL string // default https://api.openai.com/v1
	APIKey  string
	Model   string
	Timeout time.Duration
	Logger  logging.Logger
}

func NewOpenAIClient(cfg OpenAIConfig) *OpenAIClient {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://api.openai.com/v1"
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 2 * time.Minute
	}
	return &OpenAIClient{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:  cfg.APIKey,
		model:   cfg.Model,
		http:    &http.Client{Timeout: cfg.Timeout},
		logger:  logging.OrNop(cfg.Logger),
	}
}

func (c *OpenAIClient) Model() string { return c.model }

// Wire types for the chat-completions endpoint.

type oaToolCall struct {
	ID       string `json:"id,omitempty"`
	Type     string `json:"type"`
	Function struct {
		Name      string `json:"name"`
		Arguments string `json:"arguments"`
	} `json:"function"`
}

type oaMessage struct {
	Role       string       `json:"role"`
	Content    *string      `json:"content"`
	ToolCalls  []oaToolCall `json:"tool_calls,omitempty"`
	ToolCallID string       `json:"tool_call_id,omitempty"`
}

type oaRequest struct {
	Model       string      `json:"model"`
	Messages    []oaMessage `json:"messages"`
	Tools       []any       `json:"tools,omitempty"`
	ToolChoice  string      `json:"tool_choice,omitempty"`
	Temperature *float64    `json:"temperature,omitempty"`
	MaxTokens   int         `json:"max_tokens,omitempty"`
}

type oaResponse struct {
	Choices []struct {
		Message      oaMessage `json:"message"`
		FinishReason string    `json:"finish_reason"`
	} `json:"choices"`
	Usage TokenUsage `json:"usage"`
	Error *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error"`
}

func (c *OpenAIClient) Complete(ctx context.Context, req CompletionRequest) (*CompletionResponse, error) {
	body := oaRequest{
		Model:     c.model,
		Messages:  encodeMessages(req.Messages),
		MaxTokens: req.MaxTokens,
	}
	if req.Temperature > 0 {
		temp := req.Temperature
		body.Temperature = &temp
	}
	if len(req.Tools) > 0 {
		body.Tools = encodeToolSchemas(req.Tools)
		body.ToolChoice = "auto"
	}

	encoded, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("encode completion request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(encoded))
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("model request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 10<<20))
	if err != nil {
		return nil, fmt.Errorf("read model response: %w", err)
	}

	var decoded oaResponse
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return nil, fmt.Errorf("decode model response (status %d): %w", resp.StatusCode, err)
	}
	if decoded.Error != nil {
		return nil, fmt.Errorf("model API error (%s): %s", decoded.Error.Type, decoded.Error.Message)
	}
	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("model API status %d: %s", resp.StatusCode, string(raw))
	}
	if len(decoded.Choices) == 0 {
		return nil, fmt.Errorf("model returned no choices")
	}

	choice := decoded.Choices[0]
	out := &CompletionResponse{
		StopReason: choice.FinishReason,
		Usage:      decoded.Usage,
	}
	if choice.Message.Content != nil {
		out.Content = *choice.Message.Content
	}
	for _, tc := range choice.Message.ToolCalls {
		args, err := decodeArgs(tc.Function.Arguments)
		if err != nil {
			c.logger.Warn("dropping tool call %s: %v", tc.Function.Name, err)
			continue
		}
		id := tc.ID
		if id == "" {
			id = "call_" + uuid.NewString()
		}
		out.ToolCalls = append(out.ToolCalls, tools.ToolCall{
			ID:   id,
			Name: tc.Function.Name,
			Args: args,
		})
	}
	return out, nil
}

func encodeMessages(messages []Message) []oaMessage {
	out := make([]oaMessage, 0, len(messages))
	for _, m := range messages {
		encoded := oaMessage{Role: m.Role, ToolCallID: m.ToolCallID}
		// The API requires content present (possibly null) on assistant
		// messages that carry tool calls.
		if m.Content != "" || len(m.ToolCalls) == 0 {
			content := m.Content
			encoded.Content = &content
		}
		for _, tc := range m.ToolCalls {
			args, err := json.Marshal(tc.Args)
			if err != nil {
				args = []byte("{}")
			}
			call := oaToolCall{ID: tc.ID, Type: "function"}
			call.Function.Name = tc.Name
			call.Function.Arguments = string(args)
			encoded.ToolCalls = append(encoded.ToolCalls, call)
		}
		out = append(out, encoded)
	}
	return out
}

// encodeToolSchemas converts registry definitions into the OpenAI function
// schema shape.
func encodeToolSchemas(defs []tools.ToolDefinition) []any {
	out := make([]any, 0, len(defs))
	for _, def := range defs {
		properties := map[string]any{}
		var required []string
		for _, p := range def.Params {
			prop := map[string]any{"type": string(p.Type)}
			if p.Description != "" {
				prop["description"] = p.Description
			}
			if len(p.Enum) > 0 {
				prop["enum"] = p.Enum
			}
			if p.Type == tools.TypeArray {
				prop["items"] = map[string]any{"type": "string"}
			}
			properties[p.Name] = prop
			if p.Required {
				required = append(required, p.Name)
			}
		}
		params := map[string]any{
			"type":       "object",
			"properties": properties,
		}
		if len(required) > 0 {
			params["required"] = required
		}
		out = append(out, map[string]any{
			"type": "function",
			"function": map[string]any{
				"name":        def.Name,
				"description": def.Description,
				"parameters":  params,
			},
		})
	}
	return out
}
