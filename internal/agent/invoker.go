// Package agent runs the orchestration loop: model completion, tool fan-out,
// result feedback, until the model stops asking for tools or the round cap
// fires. Tool execution itself happens behind the Invoker seam so the loop
// does not know whether tools run in-process or on a remote tool server.
package agent

import (
	"context"

	"concord/internal/audit"
	"concord/internal/executor"
	"concord/internal/logging"
	"concord/internal/tools"
)

// Invoker executes one tool call. Failures come back inside the result,
// never as errors; a nil result is a contract violation.
type Invoker interface {
	Invoke(ctx context.Context, call tools.ToolCall) *tools.ToolResult
}

// LocalInvoker runs tools in-process and records every call in the audit
// log. It is the single-binary chat mode counterpart of the remote server's
// call pipeline.
type LocalInvoker struct {
	exec     *executor.Executor
	auditor  audit.Store
	clientID string
	logger   logging.Logger
}

func NewLocalInvoker(exec *executor.Executor, auditor audit.Store, clientID string, logger logging.Logger) *LocalInvoker {
	if clientID == "" {
		clientID = "local"
	}
	return &LocalInvoker{exec: exec, auditor: auditor, clientID: clientID, logger: logging.OrNop(logger)}
}

func (l *LocalInvoker) Invoke(ctx context.Context, call tools.ToolCall) *tools.ToolResult {
	result := l.exec.Execute(ctx, call)

	if l.auditor != nil {
		outcome := audit.OutcomeOK
		detail := audit.Summarize(result.Content)
		if !result.Success {
			outcome = audit.OutcomeError
			detail = result.Error
		}
		rec := audit.Record{
			ClientID: l.clientID,
			Tool:     call.Name,
			Args:     call.Args,
			Outcome:  outcome,
			Detail:   detail,
		}
		// The tool action already happened; a broken audit trail is logged
		// but never alters the result the caller sees.
		if err := l.auditor.Record(ctx, rec); err != nil {
			l.logger.Error("audit write failed for tool %s: %v", call.Name, err)
		}
	}
	return result
}
