package assistant

import "github.com/neyugncol/jewelry-design-platform-api/internal/gateway"

// Registry maps tool names to implementations and distinguishes the terminal
// tool that ends a turn. The terminal tool is recognized by identity, not by
// name, so renaming it cannot break termination.
type Registry struct {
	order    []string
	tools    map[string]Tool
	terminal Tool
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{tools: map[string]Tool{}}
}

// Register adds a tool. Re-registering a name overwrites the previous tool
// and keeps its position in the menu, so tests can swap in fakes.
func (r *Registry) Register(t Tool) {
	if _, exists := r.tools[t.Name()]; !exists {
		r.order = append(r.order, t.Name())
	}
	r.tools[t.Name()] = t
}

// RegisterTerminal adds the tool whose invocation ends a turn. Its Invoke is
// never called; the loop parses its arguments directly.
func (r *Registry) RegisterTerminal(t Tool) {
	r.Register(t)
	r.terminal = t
}

// Lookup returns the tool registered under name.
func (r *Registry) Lookup(name string) (Tool, bool) {
	t, ok := r.tools[name]
	return t, ok
}

// Terminal returns the terminal tool, or nil if none is registered.
func (r *Registry) Terminal() Tool {
	return r.terminal
}

// Schemas returns the tool menu in registration order.
func (r *Registry) Schemas() []gateway.ToolSchema {
	out := make([]gateway.ToolSchema, 0, len(r.order))
	for _, name := range r.order {
		t := r.tools[name]
		out = append(out, gateway.ToolSchema{
			Name:        t.Name(),
			Description: t.Description(),
			Parameters:  t.Schema(),
		})
	}
	return out
}
