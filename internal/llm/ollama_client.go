package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"concord/internal/tools"
)

// OllamaClient talks to a local Ollama daemon. Ollama returns tool-call
// arguments as a JSON object rather than a string and assigns no call IDs,
// so both are normalized here.
type OllamaClient struct {
	baseURL string
	model   string
	http    *http.Client
}

// OllamaConfig configures an OllamaClient.
type OllamaConfig struct {
	BaseURL string // default http://localhost:11434
	Model   string
	Timeout time.Duration
}

func NewOllamaClient(cfg OllamaConfig) *OllamaClient {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "http://localhost:11434"
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 2 * time.Minute
	}
	return &OllamaClient{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		model:   cfg.Model,
		http:    &http.Client{Timeout: cfg.Timeout},
	}
}

func (c *OllamaClient) Model() string { return c.model }

type ollamaMessage struct {
	Role      string `json:"role"`
	Content   string `json:"content"`
	ToolCalls []struct {
		Function struct {
			Name      string         `json:"name"`
			Arguments map[string]any `json:"arguments"`
		} `json:"function"`
	} `json:"tool_calls,omitempty"`
}

type ollamaResponse struct {
	Message    ollamaMessage `json:"message"`
	DoneReason string        `json:"done_reason"`
	Error      string        `json:"error"`
}

func (c *OllamaClient) Complete(ctx context.Context, req CompletionRequest) (*CompletionResponse, error) {
	messages := make([]map[string]any, 0, len(req.Messages))
	for _, m := range req.Messages {
		entry := map[string]any{"role": m.Role, "content": m.Content}
		messages = append(messages, entry)
	}

	body := map[string]any{
		"model":    c.model,
		"messages": messages,
		"stream":   false,
	}
	if len(req.Tools) > 0 {
		body["tools"] = encodeToolSchemas(req.Tools)
	}
	options := map[string]any{}
	if req.Temperature > 0 {
		options["temperature"] = req.Temperature
	}
	if req.MaxTokens > 0 {
		options["num_predict"] = req.MaxTokens
	}
	if len(options) > 0 {
		body["options"] = options
	}

	encoded, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("encode ollama request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/chat", bytes.NewReader(encoded))
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("ollama request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	var decoded ollamaResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, fmt.Errorf("decode ollama response (status %d): %w", resp.StatusCode, err)
	}
	if decoded.Error != "" {
		return nil, fmt.Errorf("ollama error: %s", decoded.Error)
	}

	out := &CompletionResponse{
		Content:    decoded.Message.Content,
		StopReason: decoded.DoneReason,
	}
	for _, tc := range decoded.Message.ToolCalls {
		args := tc.Function.Arguments
		if args == nil {
			args = map[string]any{}
		}
		out.ToolCalls = append(out.ToolCalls, tools.ToolCall{
			ID:   "call_" + uuid.NewString(),
			Name: tc.Function.Name,
			Args: args,
		})
	}
	return out, nil
}
