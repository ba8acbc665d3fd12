package tools

import "errors"

// ErrorKind is the closed failure taxonomy carried inside ToolResults and
// across the remote protocol.
type ErrorKind string

const (
	KindUnknownTool      ErrorKind = "unknown_tool"
	KindInvalidArguments ErrorKind = "invalid_arguments"
	KindInsufficientRole ErrorKind = "insufficient_role"
	KindRateLimited      ErrorKind = "rate_limited"
	KindAuthFailed       ErrorKind = "auth_failed"
	KindExecutionFailed  ErrorKind = "execution_failed"
	KindModelTimeout     ErrorKind = "model_timeout"
	KindToolTimeout      ErrorKind = "tool_timeout"
	KindAuditWriteFailed ErrorKind = "audit_write_failed"
	KindMaxRoundsReached ErrorKind = "max_rounds_reached"
)

// ErrUnknownTool is returned by registry lookups for absent names.
var ErrUnknownTool = errors.New("unknown tool")
