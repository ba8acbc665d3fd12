package tools

import "fmt"

// Registry is the static tool catalog. It is populated once at startup and
// read-only afterwards, so lookups need no synchronization.
type Registry struct {
	defs  map[string]ToolDefinition
	order []string
}

// NewRegistry builds a registry from the given definitions. Duplicate names
// and definitions without a name are rejected.
func NewRegistry(defs ...ToolDefinition) (*Registry, error) {
	r := &Registry{defs: make(map[string]ToolDefinition, len(defs))}
	for _, def := range defs {
		if def.Name == "" {
			return nil, fmt.Errorf("tool definition without a name")
		}
		if _, exists := r.defs[def.Name]; exists {
			return nil, fmt.Errorf("tool already exists: %s", def.Name)
		}
		r.defs[def.Name] = def
		r.order = append(r.order, def.Name)
	}
	return r, nil
}

// Lookup returns the definition for name, or ErrUnknownTool.
func (r *Registry) Lookup(name string) (ToolDefinition, error) {
	def, ok := r.defs[name]
	if !ok {
		return ToolDefinition{}, fmt.Errorf("%w: %s", ErrUnknownTool, name)
	}
	return def, nil
}

// List returns all definitions in registration order. The order is stable
// across calls so the schema payload sent to the model does not churn.
func (r *Registry) List() []ToolDefinition {
	defs := make([]ToolDefinition, 0, len(r.order))
	for _, name := range r.order {
		defs = append(defs, r.defs[name])
	}
	return defs
}

// Len returns the number of registered tools.
func (r *Registry) Len() int {
	return len(r.order)
}
