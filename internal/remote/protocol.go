// Package remote exposes the tool executor over a websocket protocol and
// consumes it from the orchestration side. One frame type travels in both
// directions; the ID field correlates calls with their results so a single
// connection can carry concurrent calls.
package remote

import (
	"fmt"

	"concord/internal/tools"
)

// Frame type tags.
const (
	FrameCall   = "call"
	FrameResult = "result"
	FrameError  = "error"
)

// Frame is one protocol message. Call frames carry Tool and Args; result
// and error frames carry the outcome fields.
type Frame struct {
	Type string `json:"type"`
	ID   string `json:"id"`

	Tool string         `json:"tool,omitempty"`
	Args map[string]any `json:"args,omitempty"`

	Success bool            `json:"success,omitempty"`
	Content string          `json:"content,omitempty"`
	Data    map[string]any  `json:"data,omitempty"`
	Kind    tools.ErrorKind `json:"kind,omitempty"`
	Error   string          `json:"error,omitempty"`
}

func callFrame(call tools.ToolCall) Frame {
	return Frame{Type: FrameCall, ID: call.ID, Tool: call.Name, Args: call.Args}
}

func resultFrame(res *tools.ToolResult) Frame {
	return Frame{
		Type:    FrameResult,
		ID:      res.CallID,
		Success: res.Success,
		Content: res.Content,
		Data:    res.Data,
		Kind:    res.Kind,
		Error:   res.Error,
	}
}

func errorFrame(id string, kind tools.ErrorKind, format string, args ...any) Frame {
	return Frame{Type: FrameError, ID: id, Kind: kind, Error: fmt.Sprintf(format, args...)}
}

// toResult converts an inbound result or error frame back into the
// executor's result shape.
func (f Frame) toResult() *tools.ToolResult {
	if f.Type == FrameError {
		return &tools.ToolResult{CallID: f.ID, Kind: f.Kind, Error: f.Error}
	}
	return &tools.ToolResult{
		CallID:  f.ID,
		Success: f.Success,
		Content: f.Content,
		Data:    f.Data,
		Kind:    f.Kind,
		Error:   f.Error,
	}
}
