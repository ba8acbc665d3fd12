// Package executor performs tool calls against the platform collaborator.
// It owns argument validation and the closed dispatch table; every failure
// comes back as a structured ToolResult, never as a fault crossing the
// package boundary.
package executor

import (
	"context"
	"errors"
	"fmt"
	"time"

	"concord/internal/llm"
	"concord/internal/logging"
	"concord/internal/platform"
	"concord/internal/tools"
)

// handler executes one tool with already-validated arguments.
type handler func(ctx context.Context, args map[string]any) *tools.ToolResult

// Executor resolves a ToolCall to a ToolResult. Side effects happen exactly
// once per successful execution; retry policy belongs to the caller.
type Executor struct {
	registry *tools.Registry
	api      platform.API
	// summarizer backs summarize_channel; optional.
	summarizer llm.Client
	logger     logging.Logger
	now        func() time.Time

	handlers map[string]handler
}

// Config wires an Executor.
type Config struct {
	Registry   *tools.Registry
	Platform   platform.API
	Summarizer llm.Client
	Logger     logging.Logger
}

func New(cfg Config) (*Executor, error) {
	if cfg.Registry == nil {
		return nil, fmt.Errorf("executor requires a tool registry")
	}
	if cfg.Platform == nil {
		return nil, fmt.Errorf("executor requires a platform client")
	}
	e := &Executor{
		registry:   cfg.Registry,
		api:        cfg.Platform,
		summarizer: cfg.Summarizer,
		logger:     logging.OrNop(cfg.Logger),
		now:        time.Now,
	}

	// The closed dispatch table. Bound once at startup and validated
	// against the registry, not resolved per call.
	e.handlers = map[string]handler{
		"create_event":                e.createEvent,
		"list_upcoming_events":        e.listUpcomingEvents,
		"list_events_on_specific_day": e.listEventsOnDay,
		"delete_event_by_name":        e.deleteEventByName,
		"update_event":                e.updateEvent,
		"send_message":                e.sendMessage,
		"get_server_info":             func(ctx context.Context, _ map[string]any) *tools.ToolResult { return e.serverInfo(ctx) },
		"list_channels":               e.listChannels,
		"get_online_members_count":    func(ctx context.Context, _ map[string]any) *tools.ToolResult { return e.onlineMembersCount(ctx) },
		"list_online_members":         e.listOnlineMembers,
		"delete_message":              e.deleteMessage,
		"delete_last_message":         e.deleteLastMessage,
		"get_channel_messages":        e.channelMessages,
		"summarize_channel":           e.summarizeChannel,
	}

	if err := e.verifyCatalog(); err != nil {
		return nil, err
	}
	return e, nil
}

// Execute runs one tool call. The returned result always carries the
// call's identifier.
func (e *Executor) Execute(ctx context.Context, call tools.ToolCall) *tools.ToolResult {
	def, err := e.registry.Lookup(call.Name)
	if err != nil {
		return tools.Failure(call.ID, tools.KindUnknownTool, "unknown tool: %s", call.Name)
	}

	args := call.Args
	if args == nil {
		args = map[string]any{}
	}
	if err := validateArgs(def, args); err != nil {
		return tools.Failure(call.ID, tools.KindInvalidArguments, "%v", err)
	}

	fn, ok := e.handlers[def.Name]
	if !ok {
		return tools.Failure(call.ID, tools.KindUnknownTool, "tool %s has no handler", def.Name)
	}

	start := time.Now()
	result := fn(ctx, args)
	result.CallID = call.ID

	if result.Success {
		e.logger.Debug("tool %s completed in %s", def.Name, time.Since(start))
	} else {
		e.logger.Warn("tool %s failed (%s): %s", def.Name, result.Kind, result.Error)
	}
	return result
}

// verifyCatalog checks that every registered tool has a handler, so a
// registry/dispatch mismatch fails at startup rather than on first use.
func (e *Executor) verifyCatalog() error {
	for _, def := range e.registry.List() {
		if _, ok := e.handlers[def.Name]; !ok {
			return fmt.Errorf("registered tool %s has no handler", def.Name)
		}
	}
	return nil
}

// platformFailure maps collaborator errors onto the result taxonomy.
func platformFailure(err error) *tools.ToolResult {
	if errors.Is(err, context.DeadlineExceeded) {
		return tools.Failure("", tools.KindToolTimeout, "platform call timed out")
	}
	var apiErr *platform.APIError
	switch {
	case errors.Is(err, platform.ErrNotFound):
		return tools.Failure("", tools.KindExecutionFailed, "%v", err)
	case errors.As(err, &apiErr):
		return tools.Failure("", tools.KindExecutionFailed, "%v", apiErr)
	default:
		return tools.Failure("", tools.KindExecutionFailed, "platform call failed: %v", err)
	}
}

func success(content string, data map[string]any) *tools.ToolResult {
	return &tools.ToolResult{Success: true, Content: content, Data: data}
}
