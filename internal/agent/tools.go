package agent

import (
	"context"
	"encoding/json"

	"github.com/ripinlibinus/rag-property-assistant/internal/llm"
)

// Tool is an executable capability the agent can call, grounded on
// internal/tools/types.go's Tool/Registry shape (Name/JSONSchema/Call over
// raw JSON args rather than a pre-decoded map, so argument validation stays
// the tool's own concern).
type Tool interface {
	Name() string
	JSONSchema() map[string]any
	Call(ctx context.Context, raw json.RawMessage) (any, error)
}

// Registry is the bounded tool set the agent loop consults each PLAN step
// (spec §4.7: "bounded tool registry").
type Registry struct {
	byName map[string]Tool
	order  []string
}

func NewRegistry() *Registry {
	return &Registry{byName: make(map[string]Tool)}
}

func (r *Registry) Register(t Tool) {
	name := t.Name()
	if _, exists := r.byName[name]; !exists {
		r.order = append(r.order, name)
	}
	r.byName[name] = t
}

// Schemas returns the tool schemas in registration order, so the same
// request always presents tools to the model in a stable order.
func (r *Registry) Schemas() []llm.ToolSchema {
	out := make([]llm.ToolSchema, 0, len(r.order))
	for _, name := range r.order {
		t := r.byName[name]
		schema := t.JSONSchema()
		out = append(out, llm.ToolSchema{
			Name:        name,
			Description: strFrom(schema["description"]),
			Parameters:  mapFrom(schema["parameters"]),
		})
	}
	return out
}

// Dispatch executes the named tool and always returns a JSON payload — tool
// errors are surfaced as a structured {"error":...} body rather than a Go
// error, so a failed tool call degrades the conversation instead of
// aborting the turn.
func (r *Registry) Dispatch(ctx context.Context, name string, raw json.RawMessage) ([]byte, error) {
	t, ok := r.byName[name]
	if !ok {
		return json.Marshal(map[string]any{"error": "unknown tool: " + name})
	}
	val, err := t.Call(ctx, raw)
	if err != nil {
		return json.Marshal(map[string]any{"error": err.Error()})
	}
	return json.Marshal(val)
}

func strFrom(v any) string         { s, _ := v.(string); return s }
func mapFrom(v any) map[string]any { m, _ := v.(map[string]any); return m }
