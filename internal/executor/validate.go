package executor

import (
	"fmt"
	"math"

	"concord/internal/tools"
)

// validateArgs checks supplied arguments against the tool's parameter
// schema: every required parameter present, every supplied value matching
// its declared type tag, no undeclared parameters. The error names the
// offending parameter.
func validateArgs(def tools.ToolDefinition, args map[string]any) error {
	for _, p := range def.Params {
		value, ok := args[p.Name]
		if !ok {
			if p.Required {
				return fmt.Errorf("missing required parameter %q", p.Name)
			}
			continue
		}
		if err := checkType(p, value); err != nil {
			return err
		}
	}

	for name := range args {
		if _, ok := def.Param(name); !ok {
			return fmt.Errorf("unexpected parameter %q", name)
		}
	}
	return nil
}

func checkType(p tools.Param, value any) error {
	switch p.Type {
	case tools.TypeString:
		s, ok := value.(string)
		if !ok {
			return typeError(p, value)
		}
		if len(p.Enum) > 0 && !containsString(p.Enum, s) {
			return fmt.Errorf("parameter %q must be one of %v, got %q", p.Name, p.Enum, s)
		}
	case tools.TypeInteger:
		// JSON decoding yields float64; accept it only when integral.
		switch v := value.(type) {
		case int:
		case int64:
		case float64:
			if v != math.Trunc(v) {
				return fmt.Errorf("parameter %q must be an integer, got %v", p.Name, v)
			}
		default:
			return typeError(p, value)
		}
	case tools.TypeNumber:
		switch value.(type) {
		case int, int64, float64:
		default:
			return typeError(p, value)
		}
	case tools.TypeBoolean:
		if _, ok := value.(bool); !ok {
			return typeError(p, value)
		}
	case tools.TypeArray:
		if _, ok := value.([]any); !ok {
			if _, ok := value.([]string); !ok {
				return typeError(p, value)
			}
		}
	case tools.TypeObject:
		if _, ok := value.(map[string]any); !ok {
			return typeError(p, value)
		}
	default:
		return fmt.Errorf("parameter %q has unsupported type tag %q", p.Name, p.Type)
	}
	return nil
}

func typeError(p tools.Param, value any) error {
	return fmt.Errorf("parameter %q must be of type %s, got %T", p.Name, p.Type, value)
}

func containsString(haystack []string, needle string) bool {
	for _, s := range haystack {
		if s == needle {
			return true
		}
	}
	return false
}

// Argument accessors for validated argument maps. Validation has already
// established the types, so these only normalize representations.

func argString(args map[string]any, name, fallback string) string {
	if v, ok := args[name].(string); ok && v != "" {
		return v
	}
	return fallback
}

func argInt(args map[string]any, name string, fallback int) int {
	switch v := args[name].(type) {
	case int:
		return v
	case int64:
		return int(v)
	case float64:
		return int(v)
	default:
		return fallback
	}
}

func argFloat(args map[string]any, name string, fallback float64) float64 {
	switch v := args[name].(type) {
	case int:
		return float64(v)
	case int64:
		return float64(v)
	case float64:
		return v
	default:
		return fallback
	}
}

func argBool(args map[string]any, name string, fallback bool) bool {
	if v, ok := args[name].(bool); ok {
		return v
	}
	return fallback
}

func argStringSlice(args map[string]any, name string) []string {
	switch v := args[name].(type) {
	case []string:
		return v
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		return out
	default:
		return nil
	}
}

func argObject(args map[string]any, name string) map[string]any {
	if v, ok := args[name].(map[string]any); ok {
		return v
	}
	return nil
}

// clampInt bounds v to [1, max], substituting fallback for non-positive v.
func clampInt(v, fallback, max int) int {
	if v <= 0 {
		v = fallback
	}
	if v > max {
		v = max
	}
	return v
}
