package tools

import (
	"fmt"
	"sync"
)

// Registry tool registry. Lookup is by name; listing keeps registration order.
type Registry struct {
	tools map[string]Descriptor
	order []string
	mu    sync.RWMutex
}

// NewRegistry creates a new tool registry
func NewRegistry() *Registry {
	return &Registry{
		tools: make(map[string]Descriptor),
	}
}

// Register registers a tool
func (r *Registry) Register(desc Descriptor) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if desc.Name == "" {
		return fmt.Errorf("tool name cannot be empty")
	}
	if _, exists := r.tools[desc.Name]; exists {
		return fmt.Errorf("tool %s already exists", desc.Name)
	}

	r.tools[desc.Name] = desc
	r.order = append(r.order, desc.Name)
	return nil
}

// Lookup gets a tool by name
func (r *Registry) Lookup(name string) (Descriptor, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	desc, exists := r.tools[name]
	return desc, exists
}

// List lists all tools in registration order
func (r *Registry) List() []Descriptor {
	r.mu.RLock()
	defer r.mu.RUnlock()

	list := make([]Descriptor, 0, len(r.order))
	for _, name := range r.order {
		list = append(list, r.tools[name])
	}
	return list
}

// ToolSchema tool schema (for Function Calling)
type ToolSchema struct {
	Type     string         `json:"type"`
	Function FunctionSchema `json:"function"`
}

// FunctionSchema function schema
type FunctionSchema struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Parameters  map[string]any `json:"parameters"`
}

// GetSchemas gets all tool schemas for Function Calling, in registration order
func (r *Registry) GetSchemas() []ToolSchema {
	list := r.List()

	schemas := make([]ToolSchema, 0, len(list))
	for _, desc := range list {
		schemas = append(schemas, ToolSchema{
			Type: "function",
			Function: FunctionSchema{
				Name:        desc.Name,
				Description: desc.Description,
				Parameters:  buildParameterSchema(desc.Parameters),
			},
		})
	}
	return schemas
}

// buildParameterSchema builds parameter schema
func buildParameterSchema(params []ParameterDef) map[string]any {
	properties := make(map[string]any)
	required := make([]string, 0)

	for _, param := range params {
		prop := map[string]any{
			"type":        param.Type,
			"description": param.Description,
		}
		if param.Default != nil {
			prop["default"] = param.Default
		}
		if param.Minimum != nil {
			prop["minimum"] = param.Minimum
		}
		if param.Maximum != nil {
			prop["maximum"] = param.Maximum
		}
		properties[param.Name] = prop
		if param.Required {
			required = append(required, param.Name)
		}
	}

	schema := map[string]any{
		"type":       "object",
		"properties": properties,
	}

	if len(required) > 0 {
		schema["required"] = required
	}

	return schema
}

// NewDefaultRegistry creates and registers all built-in tools
func NewDefaultRegistry() (*Registry, error) {
	registry := NewRegistry()

	for _, id := range AllToolIDs() {
		desc, err := Describe(id)
		if err != nil {
			return nil, err
		}
		if err := registry.Register(desc); err != nil {
			return nil, err
		}
	}

	return registry, nil
}
