package llm

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// MockClient implements Client for tests. It replays a scripted sequence of
// responses; when the script runs out it repeats the final entry, which
// makes "model that always requests a tool call" scenarios trivial.
type MockClient struct {
	mu        sync.Mutex
	script    []MockTurn
	calls     int
	requests  []CompletionRequest
	CallDelay time.Duration
}

// MockTurn is one scripted model reply.
type MockTurn struct {
	Response *CompletionResponse
	Err      error
}

func NewMockClient(script ...MockTurn) *MockClient {
	return &MockClient{script: script}
}

func (m *MockClient) Model() string { return "mock" }

func (m *MockClient) Complete(ctx context.Context, req CompletionRequest) (*CompletionResponse, error) {
	if d := m.callDelay(); d > 0 {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(d):
		}
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if len(m.script) == 0 {
		return nil, fmt.Errorf("mock client has no scripted turns")
	}
	m.requests = append(m.requests, req)

	idx := m.calls
	if idx >= len(m.script) {
		idx = len(m.script) - 1
	}
	m.calls++

	turn := m.script[idx]
	if turn.Err != nil {
		return nil, turn.Err
	}
	// Copy so callers mutating the response do not corrupt the script.
	resp := *turn.Response
	return &resp, nil
}

// Calls returns how many completions were requested.
func (m *MockClient) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

// Requests returns the recorded completion requests.
func (m *MockClient) Requests() []CompletionRequest {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]CompletionRequest, len(m.requests))
	copy(out, m.requests)
	return out
}

func (m *MockClient) callDelay() time.Duration {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.CallDelay
}
