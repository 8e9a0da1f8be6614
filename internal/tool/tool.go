// Package tool defines the actions the agent can take on the model's
// behalf and the closed registry that holds them.
package tool

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"

	"github.com/google/jsonschema-go/jsonschema"

	"github.com/tutorgraph/tutorgraph/internal/llm"
)

// Tool is one callable action. Invoke returns the textual result fed
// back to the model; implementations report failures as errors and the
// caller decides how to surface them.
type Tool interface {
	Name() string
	Description() string
	Schema() *jsonschema.Schema
	Invoke(ctx context.Context, args json.RawMessage) (string, error)
}

// Registry is the closed set of tools available to the agent. It is
// fixed at construction: there is no way to add or remove tools later,
// so a routed tool name either resolves or is a hard error.
type Registry struct {
	tools map[string]Tool
	defs  []llm.ToolDef
}

// NewRegistry builds a registry from the given tools. Duplicate names
// are a programming error and panic.
func NewRegistry(tools ...Tool) *Registry {
	r := &Registry{tools: make(map[string]Tool, len(tools))}
	for _, t := range tools {
		name := t.Name()
		if _, dup := r.tools[name]; dup {
			panic(fmt.Sprintf("tool: duplicate name %q", name))
		}
		r.tools[name] = t
	}

	names := make([]string, 0, len(r.tools))
	for name := range r.tools {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		t := r.tools[name]
		r.defs = append(r.defs, llm.ToolDef{
			Name:        t.Name(),
			Description: t.Description(),
			Schema:      t.Schema(),
		})
	}
	return r
}

// Lookup resolves a tool by name.
func (r *Registry) Lookup(name string) (Tool, error) {
	t, ok := r.tools[name]
	if !ok {
		return nil, fmt.Errorf("tool: unknown tool %q", name)
	}
	return t, nil
}

// Has reports whether name is registered.
func (r *Registry) Has(name string) bool {
	_, ok := r.tools[name]
	return ok
}

// Defs returns the tool definitions to bind to a completion request,
// in name order.
func (r *Registry) Defs() []llm.ToolDef {
	return r.defs
}

// Names returns the registered tool names in sorted order.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.defs))
	for _, def := range r.defs {
		names = append(names, def.Name)
	}
	return names
}

// Len reports the number of registered tools.
func (r *Registry) Len() int { return len(r.tools) }

// mustSchema derives a JSON schema from an input struct type. Schema
// derivation only fails on malformed struct tags, which is a build
// defect, so tools resolve their schemas at construction and panic.
func mustSchema[T any]() *jsonschema.Schema {
	schema, err := jsonschema.For[T](nil)
	if err != nil {
		panic(fmt.Sprintf("tool: derive schema: %v", err))
	}
	return schema
}
