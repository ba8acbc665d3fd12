package tools

import "fmt"

// Role is the ordered permission level gating tool access.
type Role int

const (
	RoleReader Role = iota
	RoleWriter
	RoleAdmin
)

// ParseRole maps a configuration string to a Role.
func ParseRole(s string) (Role, error) {
	switch s {
	case "reader":
		return RoleReader, nil
	case "writer":
		return RoleWriter, nil
	case "admin":
		return RoleAdmin, nil
	default:
		return RoleReader, fmt.Errorf("unknown role: %q", s)
	}
}

func (r Role) String() string {
	switch r {
	case RoleReader:
		return "reader"
	case RoleWriter:
		return "writer"
	case RoleAdmin:
		return "admin"
	default:
		return fmt.Sprintf("role(%d)", int(r))
	}
}

// Allows reports whether a caller holding r may use a tool gated at min.
func (r Role) Allows(min Role) bool {
	return r >= min
}

// ParamType is the type tag of a tool parameter.
type ParamType string

const (
	TypeString  ParamType = "string"
	TypeInteger ParamType = "integer"
	TypeNumber  ParamType = "number"
	TypeBoolean ParamType = "boolean"
	TypeArray   ParamType = "array"
	TypeObject  ParamType = "object"
)

// Param describes one named tool parameter.
type Param struct {
	Name        string    `json:"name"`
	Type        ParamType `json:"type"`
	Description string    `json:"description,omitempty"`
	Required    bool      `json:"required"`
	Enum        []string  `json:"enum,omitempty"`
}

// ToolDefinition is the immutable schema of one tool. Defined once at
// startup and shared read-only by the registry's consumers.
type ToolDefinition struct {
	Name        string  `json:"name"`
	Description string  `json:"description"`
	Params      []Param `json:"params"`
	MinRole     Role    `json:"min_role"`
}

// Param returns the named parameter declaration, if present.
func (d ToolDefinition) Param(name string) (Param, bool) {
	for _, p := range d.Params {
		if p.Name == name {
			return p, true
		}
	}
	return Param{}, false
}

// ToolCall is one requested invocation. The ID is assigned by the model
// (or generated when missing) and correlates the eventual result.
type ToolCall struct {
	ID   string         `json:"id"`
	Name string         `json:"name"`
	Args map[string]any `json:"args"`
}

// ToolResult is the structured outcome of one ToolCall.
type ToolResult struct {
	CallID  string         `json:"call_id"`
	Success bool           `json:"success"`
	Content string         `json:"content,omitempty"`
	Data    map[string]any `json:"data,omitempty"`
	Kind    ErrorKind      `json:"error_kind,omitempty"`
	Error   string         `json:"error,omitempty"`
}

// Failure builds a failed result correlated to the call.
func Failure(callID string, kind ErrorKind, format string, args ...any) *ToolResult {
	return &ToolResult{
		CallID:  callID,
		Success: false,
		Kind:    kind,
		Error:   fmt.Sprintf(format, args...),
	}
}
