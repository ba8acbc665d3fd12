package agent

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"concord/internal/llm"
	"concord/internal/logging"
	"concord/internal/tools"
)

const (
	defaultMaxRounds    = 5
	defaultRoundTimeout = 120 * time.Second

	// maxRoundsNotice is surfaced to the user when the model keeps asking
	// for tools past the round cap.
	maxRoundsNotice = "I stopped after reaching the tool-call round limit without a final answer. The results gathered so far may be incomplete."
)

// ErrModelTimeout reports that a model completion exceeded the round timeout.
var ErrModelTimeout = errors.New("model completion timed out")

// Config wires a Loop.
type Config struct {
	Client  llm.Client
	Invoker Invoker
	// Registry supplies the tool schemas offered to the model.
	Registry *tools.Registry

	SystemPrompt string
	// User attributes completions for per-user smoothing; optional.
	User        string
	Temperature float64

	// MaxRounds caps completion/tool cycles per Run (default 5).
	MaxRounds int
	// RoundTimeout bounds each completion and its tool fan-out (default 120s).
	RoundTimeout time.Duration

	Logger logging.Logger
}

// Loop drives one conversation. It is not safe for concurrent Run calls;
// each conversation owns its Loop.
type Loop struct {
	cfg      Config
	logger   logging.Logger
	messages []llm.Message
}

func NewLoop(cfg Config) (*Loop, error) {
	if cfg.Client == nil {
		return nil, fmt.Errorf("loop requires a model client")
	}
	if cfg.Invoker == nil {
		return nil, fmt.Errorf("loop requires a tool invoker")
	}
	if cfg.Registry == nil {
		return nil, fmt.Errorf("loop requires a tool registry")
	}
	if cfg.MaxRounds <= 0 {
		cfg.MaxRounds = defaultMaxRounds
	}
	if cfg.RoundTimeout <= 0 {
		cfg.RoundTimeout = defaultRoundTimeout
	}

	l := &Loop{cfg: cfg, logger: logging.OrNop(cfg.Logger)}
	if cfg.SystemPrompt != "" {
		l.messages = append(l.messages, llm.Message{Role: llm.RoleSystem, Content: cfg.SystemPrompt})
	}
	return l, nil
}

// History returns a copy of the conversation so far.
func (l *Loop) History() []llm.Message {
	out := make([]llm.Message, len(l.messages))
	copy(out, l.messages)
	return out
}

// Reset drops the conversation history, keeping the system prompt.
func (l *Loop) Reset() {
	if len(l.messages) > 0 && l.messages[0].Role == llm.RoleSystem {
		l.messages = l.messages[:1]
		return
	}
	l.messages = nil
}

// Run processes one user turn: completions and tool rounds until the model
// produces a plain answer, the round cap fires, or the context ends. The
// conversation history persists across Run calls.
func (l *Loop) Run(ctx context.Context, userInput string) (string, error) {
	l.messages = append(l.messages, llm.Message{Role: llm.RoleUser, Content: userInput})

	for round := 0; round < l.cfg.MaxRounds; round++ {
		answer, done, err := l.round(ctx, round)
		if err != nil {
			return "", err
		}
		if done {
			return answer, nil
		}
	}

	l.messages = append(l.messages, llm.Message{Role: llm.RoleAssistant, Content: maxRoundsNotice})
	return maxRoundsNotice, nil
}

// round runs one completion and, when the model asks for tools, their
// fan-out. The round timeout spans both: a tool that overruns the budget
// comes back as a tool_timeout result instead of stalling the loop.
func (l *Loop) round(ctx context.Context, round int) (string, bool, error) {
	rctx, cancel := context.WithTimeout(ctx, l.cfg.RoundTimeout)
	defer cancel()

	resp, err := l.cfg.Client.Complete(rctx, llm.CompletionRequest{
		Messages:    l.messages,
		Tools:       l.cfg.Registry.List(),
		Temperature: l.cfg.Temperature,
		User:        l.cfg.User,
	})
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) && ctx.Err() == nil {
			return "", false, fmt.Errorf("%w after %s", ErrModelTimeout, l.cfg.RoundTimeout)
		}
		return "", false, fmt.Errorf("model completion: %w", err)
	}

	if len(resp.ToolCalls) == 0 {
		l.messages = append(l.messages, llm.Message{Role: llm.RoleAssistant, Content: resp.Content})
		return resp.Content, true, nil
	}

	l.logger.Debug("round %d: model requested %d tool call(s)", round+1, len(resp.ToolCalls))
	l.messages = append(l.messages, llm.Message{
		Role:      llm.RoleAssistant,
		Content:   resp.Content,
		ToolCalls: resp.ToolCalls,
	})

	results := l.invokeAll(rctx, resp.ToolCalls)
	for _, res := range results {
		l.messages = append(l.messages, toolMessage(res))
	}
	if ctx.Err() != nil {
		return "", false, ctx.Err()
	}
	return "", false, nil
}

// invokeAll runs one round's tool calls concurrently. Results come back in
// call order regardless of completion order, so the transcript stays
// deterministic.
func (l *Loop) invokeAll(ctx context.Context, calls []tools.ToolCall) []*tools.ToolResult {
	results := make([]*tools.ToolResult, len(calls))

	g, gctx := errgroup.WithContext(ctx)
	for i, call := range calls {
		g.Go(func() error {
			results[i] = l.cfg.Invoker.Invoke(gctx, call)
			if results[i] == nil {
				results[i] = tools.Failure(call.ID, tools.KindExecutionFailed, "invoker returned no result for %s", call.Name)
			}
			return nil
		})
	}
	// Invokers report failure inside results, so the group never errors.
	_ = g.Wait()
	return results
}

func toolMessage(res *tools.ToolResult) llm.Message {
	content := res.Content
	if !res.Success {
		content = fmt.Sprintf("tool error (%s): %s", res.Kind, res.Error)
	}
	return llm.Message{Role: llm.RoleTool, Content: content, ToolCallID: res.CallID}
}
