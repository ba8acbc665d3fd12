package agent

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"concord/internal/llm"
	"concord/internal/tools"
)

// fakeInvoker maps tool names to canned results and records calls.
type fakeInvoker struct {
	mu      sync.Mutex
	results map[string]*tools.ToolResult
	calls   []tools.ToolCall
	delay   time.Duration
}

func (f *fakeInvoker) Invoke(ctx context.Context, call tools.ToolCall) *tools.ToolResult {
	if f.delay > 0 {
		select {
		case <-ctx.Done():
			return tools.Failure(call.ID, tools.KindToolTimeout, "cancelled")
		case <-time.After(f.delay):
		}
	}
	f.mu.Lock()
	f.calls = append(f.calls, call)
	f.mu.Unlock()
	if res, ok := f.results[call.Name]; ok {
		out := *res
		out.CallID = call.ID
		return &out
	}
	return tools.Failure(call.ID, tools.KindUnknownTool, "unknown tool: %s", call.Name)
}

func testRegistry(t *testing.T) *tools.Registry {
	t.Helper()
	reg, err := tools.NewRegistry(
		tools.ToolDefinition{Name: "get_server_info", MinRole: tools.RoleReader},
		tools.ToolDefinition{Name: "send_message", MinRole: tools.RoleWriter, Params: []tools.Param{
			{Name: "channel_id", Type: tools.TypeString, Required: true},
			{Name: "content", Type: tools.TypeString, Required: true},
		}},
	)
	require.NoError(t, err)
	return reg
}

func newTestLoop(t *testing.T, client llm.Client, inv Invoker, opts ...func(*Config)) *Loop {
	t.Helper()
	cfg := Config{
		Client:       client,
		Invoker:      inv,
		Registry:     testRegistry(t),
		SystemPrompt: "You are a helpful assistant.",
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	loop, err := NewLoop(cfg)
	require.NoError(t, err)
	return loop
}

func toolCallTurn(calls ...tools.ToolCall) llm.MockTurn {
	return llm.MockTurn{Response: &llm.CompletionResponse{ToolCalls: calls}}
}

func textTurn(content string) llm.MockTurn {
	return llm.MockTurn{Response: &llm.CompletionResponse{Content: content}}
}

func TestRunPlainAnswer(t *testing.T) {
	mock := llm.NewMockClient(textTurn("hello back"))
	loop := newTestLoop(t, mock, &fakeInvoker{})

	answer, err := loop.Run(context.Background(), "hi")
	require.NoError(t, err)
	assert.Equal(t, "hello back", answer)
	assert.Equal(t, 1, mock.Calls())
}

func TestRunSingleToolRound(t *testing.T) {
	mock := llm.NewMockClient(
		toolCallTurn(tools.ToolCall{ID: "c1", Name: "get_server_info"}),
		textTurn("The server has 3 members."),
	)
	inv := &fakeInvoker{results: map[string]*tools.ToolResult{
		"get_server_info": {Success: true, Content: "3 members, 2 online"},
	}}
	loop := newTestLoop(t, mock, inv)

	answer, err := loop.Run(context.Background(), "how many members?")
	require.NoError(t, err)
	assert.Equal(t, "The server has 3 members.", answer)
	require.Len(t, inv.calls, 1)

	// The second completion must carry the tool result, correlated by ID.
	reqs := mock.Requests()
	require.Len(t, reqs, 2)
	last := reqs[1].Messages[len(reqs[1].Messages)-1]
	assert.Equal(t, llm.RoleTool, last.Role)
	assert.Equal(t, "c1", last.ToolCallID)
	assert.Equal(t, "3 members, 2 online", last.Content)
}

func TestRunStopsAtRoundCap(t *testing.T) {
	// The mock repeats its last turn, so the model asks for tools forever.
	mock := llm.NewMockClient(toolCallTurn(tools.ToolCall{ID: "c1", Name: "get_server_info"}))
	inv := &fakeInvoker{results: map[string]*tools.ToolResult{
		"get_server_info": {Success: true, Content: "ok"},
	}}
	loop := newTestLoop(t, mock, inv, func(c *Config) { c.MaxRounds = 3 })

	answer, err := loop.Run(context.Background(), "loop forever")
	require.NoError(t, err)
	assert.Equal(t, maxRoundsNotice, answer)
	assert.Equal(t, 3, mock.Calls())
	assert.Len(t, inv.calls, 3)
}

func TestRunToolFailureIsFedBack(t *testing.T) {
	mock := llm.NewMockClient(
		toolCallTurn(
			tools.ToolCall{ID: "c1", Name: "get_server_info"},
			tools.ToolCall{ID: "c2", Name: "launch_rockets"},
		),
		textTurn("done"),
	)
	inv := &fakeInvoker{results: map[string]*tools.ToolResult{
		"get_server_info": {Success: true, Content: "ok"},
	}}
	loop := newTestLoop(t, mock, inv)

	_, err := loop.Run(context.Background(), "do two things")
	require.NoError(t, err)

	reqs := mock.Requests()
	require.Len(t, reqs, 2)
	msgs := reqs[1].Messages
	// Tool results in call order: success for c1, structured error for c2.
	require.GreaterOrEqual(t, len(msgs), 2)
	m1, m2 := msgs[len(msgs)-2], msgs[len(msgs)-1]
	assert.Equal(t, "c1", m1.ToolCallID)
	assert.Equal(t, "ok", m1.Content)
	assert.Equal(t, "c2", m2.ToolCallID)
	assert.Contains(t, m2.Content, string(tools.KindUnknownTool))
}

func TestRunToolFanOutBoundedByRoundTimeout(t *testing.T) {
	mock := llm.NewMockClient(
		toolCallTurn(tools.ToolCall{ID: "c1", Name: "get_server_info"}),
		textTurn("gave up on the slow tool"),
	)
	inv := &fakeInvoker{
		delay: 300 * time.Millisecond,
		results: map[string]*tools.ToolResult{
			"get_server_info": {Success: true, Content: "ok"},
		},
	}
	loop := newTestLoop(t, mock, inv, func(c *Config) {
		c.RoundTimeout = 30 * time.Millisecond
	})

	start := time.Now()
	answer, err := loop.Run(context.Background(), "slow tool")
	require.NoError(t, err)
	assert.Equal(t, "gave up on the slow tool", answer)
	assert.Less(t, time.Since(start), 200*time.Millisecond, "round must not outlive its timeout")

	// The overrun came back to the model as a structured timeout result.
	reqs := mock.Requests()
	require.Len(t, reqs, 2)
	last := reqs[1].Messages[len(reqs[1].Messages)-1]
	assert.Equal(t, llm.RoleTool, last.Role)
	assert.Equal(t, "c1", last.ToolCallID)
	assert.Contains(t, last.Content, string(tools.KindToolTimeout))
}

func TestRunModelTimeout(t *testing.T) {
	mock := llm.NewMockClient(textTurn("too slow"))
	mock.CallDelay = 200 * time.Millisecond
	loop := newTestLoop(t, mock, &fakeInvoker{}, func(c *Config) {
		c.RoundTimeout = 20 * time.Millisecond
	})

	_, err := loop.Run(context.Background(), "hi")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrModelTimeout)
}

func TestRunModelError(t *testing.T) {
	mock := llm.NewMockClient(llm.MockTurn{Err: fmt.Errorf("upstream unavailable")})
	loop := newTestLoop(t, mock, &fakeInvoker{})

	_, err := loop.Run(context.Background(), "hi")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "upstream unavailable")
}

func TestHistoryPersistsAcrossTurns(t *testing.T) {
	mock := llm.NewMockClient(textTurn("first"), textTurn("second"))
	loop := newTestLoop(t, mock, &fakeInvoker{})

	_, err := loop.Run(context.Background(), "one")
	require.NoError(t, err)
	_, err = loop.Run(context.Background(), "two")
	require.NoError(t, err)

	reqs := mock.Requests()
	require.Len(t, reqs, 2)
	// system + user + assistant + user
	assert.Len(t, reqs[1].Messages, 4)

	loop.Reset()
	hist := loop.History()
	require.Len(t, hist, 1)
	assert.Equal(t, llm.RoleSystem, hist[0].Role)
}
