package toolset

import (
	"context"
	"sort"
	"sync"

	"github.com/jonwraymond/toolfoundation/model"
	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/jonwraymond/rigorexec/backend"
)

// HandlerFunc handles one tool call.
type HandlerFunc func(ctx context.Context, args map[string]any) (any, error)

// ToolDef defines a tool served by a Local backend.
type ToolDef struct {
	Name        string
	Title       string
	Description string
	InputSchema map[string]any
	Annotations *mcp.ToolAnnotations
	Tags        []string

	// Summary and Notes feed the discovery documentation.
	Summary string
	Notes   string

	Handler HandlerFunc
}

// Local is an in-process backend.Backend.
type Local struct {
	name string

	mu      sync.RWMutex
	enabled bool
	defs    map[string]ToolDef
}

var _ backend.Backend = (*Local)(nil)

// NewLocal creates an enabled backend with no tools.
func NewLocal(name string) *Local {
	return &Local{name: name, enabled: true, defs: make(map[string]ToolDef)}
}

// Kind implements backend.Backend.
func (l *Local) Kind() string { return "local" }

// Name implements backend.Backend.
func (l *Local) Name() string { return l.name }

// Enabled implements backend.Backend.
func (l *Local) Enabled() bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.enabled
}

// SetEnabled enables or disables the backend.
func (l *Local) SetEnabled(enabled bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.enabled = enabled
}

// Register adds or replaces a tool.
func (l *Local) Register(def ToolDef) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.defs[def.Name] = def
}

// Def returns the definition of a registered tool.
func (l *Local) Def(name string) (ToolDef, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	def, ok := l.defs[name]
	return def, ok
}

// ListTools implements backend.Backend. Tools are sorted by name.
func (l *Local) ListTools(_ context.Context) ([]model.Tool, error) {
	l.mu.RLock()
	out := make([]model.Tool, 0, len(l.defs))
	for _, def := range l.defs {
		schema := def.InputSchema
		if schema == nil {
			schema = map[string]any{"type": "object"}
		}
		out = append(out, model.Tool{
			Tool: mcp.Tool{
				Name:        def.Name,
				Title:       def.Title,
				Description: def.Description,
				InputSchema: schema,
				Annotations: def.Annotations,
			},
			Namespace: l.name,
			Tags:      model.NormalizeTags(def.Tags),
		})
	}
	l.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

// Execute implements backend.Backend.
func (l *Local) Execute(ctx context.Context, tool string, args map[string]any) (any, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	l.mu.RLock()
	enabled := l.enabled
	def, ok := l.defs[tool]
	l.mu.RUnlock()

	if !enabled {
		return nil, backend.ErrBackendDisabled
	}
	if !ok || def.Handler == nil {
		return nil, backend.ErrToolNotFound
	}
	if args == nil {
		args = map[string]any{}
	}
	return def.Handler(ctx, args)
}

// Start implements backend.Backend.
func (l *Local) Start(_ context.Context) error { return nil }

// Stop implements backend.Backend.
func (l *Local) Stop() error { return nil }
