// Package tools provides the tool registry and the built-in tools the
// assistant can call during a conversation.
package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sort"
	"sync"

	"github.com/valet-ai/valet/internal/llm"
)

// Handler executes one tool call. Args is the decoded argument object;
// malformed or absent arguments arrive as an empty map, never nil.
// The returned value is serialized for the model: strings pass through,
// nil becomes "Done", anything else is JSON-encoded.
type Handler func(ctx context.Context, args map[string]any) (any, error)

// Tool couples a handler with its descriptor.
type Tool struct {
	Name        string
	Description string
	Parameters  any
	Handler     Handler
}

// Registry holds the registered tools. Registering a name twice keeps
// the later registration.
//
// Registry is safe for concurrent use by multiple goroutines.
type Registry struct {
	mu     sync.RWMutex
	tools  map[string]Tool
	logger *slog.Logger
}

// NewRegistry creates an empty Registry.
func NewRegistry(logger *slog.Logger) *Registry {
	if logger == nil {
		logger = slog.Default()
	}
	return &Registry{
		tools:  make(map[string]Tool),
		logger: logger,
	}
}

// Register adds a tool, replacing any prior tool with the same name.
func (r *Registry) Register(t Tool) error {
	if t.Name == "" {
		return fmt.Errorf("tool name is empty")
	}
	if t.Handler == nil {
		return fmt.Errorf("tool %s has no handler", t.Name)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.tools[t.Name]; exists {
		r.logger.Warn("tool replaced", "name", t.Name)
	}
	r.tools[t.Name] = t
	return nil
}

// Descriptors returns the registered tools as model-facing descriptors,
// sorted by name for a stable request shape.
func (r *Registry) Descriptors() []llm.ToolDescriptor {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]llm.ToolDescriptor, 0, len(r.tools))
	for _, t := range r.tools {
		out = append(out, llm.ToolDescriptor{
			Name:        t.Name,
			Description: t.Description,
			Parameters:  t.Parameters,
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Names returns the registered tool names, sorted.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.tools))
	for name := range r.tools {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Len reports the number of registered tools.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.tools)
}

// Execute runs the named tool with the raw JSON arguments and returns
// the string payload to hand back to the model. Execute never returns
// an error to the conversation loop: unknown tools, handler failures,
// and panics all become a JSON object with an "error" key, so the model
// can see what went wrong and react.
func (r *Registry) Execute(ctx context.Context, name, rawArgs string) string {
	r.mu.RLock()
	t, ok := r.tools[name]
	r.mu.RUnlock()

	if !ok {
		r.logger.Warn("unknown tool requested", "name", name)
		return errorPayload(fmt.Sprintf("Unknown tool: %s", name))
	}

	args := map[string]any{}
	if rawArgs != "" {
		if err := json.Unmarshal([]byte(rawArgs), &args); err != nil {
			r.logger.Warn("malformed tool arguments", "name", name, "error", err)
			args = map[string]any{}
		}
	}

	result, err := r.run(ctx, t, args)
	if err != nil {
		r.logger.Error("tool failed", "name", name, "error", err)
		return errorPayload(err.Error())
	}
	return serializeResult(result)
}

// run invokes the handler, converting a panic into an error.
func (r *Registry) run(ctx context.Context, t Tool, args map[string]any) (result any, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("tool %s panicked: %v", t.Name, rec)
		}
	}()
	return t.Handler(ctx, args)
}

func serializeResult(result any) string {
	switch v := result.(type) {
	case nil:
		return "Done"
	case string:
		return v
	default:
		out, err := json.Marshal(v)
		if err != nil {
			return errorPayload(fmt.Sprintf("unserializable tool result: %v", err))
		}
		return string(out)
	}
}

func errorPayload(msg string) string {
	out, err := json.Marshal(map[string]string{"error": msg})
	if err != nil {
		return `{"error":"internal error"}`
	}
	return string(out)
}
