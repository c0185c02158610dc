package backend

import (
	"context"
	"errors"
	"testing"

	"github.com/jonwraymond/toolfoundation/model"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

func TestAggregator_ListAllTools(t *testing.T) {
	registry := NewRegistry()
	_ = registry.Register(&mockBackend{
		kind:    "local",
		name:    "rigor",
		enabled: true,
		tools: []model.Tool{
			{Tool: mcp.Tool{Name: "execute_code"}},
			{Tool: mcp.Tool{Name: "validate_code"}},
		},
	})
	_ = registry.Register(&mockBackend{
		kind:    "local",
		name:    "files",
		enabled: true,
		tools:   []model.Tool{{Tool: mcp.Tool{Name: "read"}, Namespace: "fs"}},
	})
	_ = registry.Register(&mockBackend{
		kind:    "local",
		name:    "disabled",
		enabled: false,
		tools:   []model.Tool{{Tool: mcp.Tool{Name: "should_not_appear"}}},
	})

	tools, err := NewAggregator(registry).ListAllTools(context.Background())
	if err != nil {
		t.Fatalf("ListAllTools() error = %v", err)
	}
	if len(tools) != 3 {
		t.Fatalf("ListAllTools() returned %d tools, want 3", len(tools))
	}
	if tools[0].Namespace != "fs" {
		t.Errorf("explicit namespace overwritten: %q", tools[0].Namespace)
	}
	if tools[1].Namespace != "rigor" || tools[1].Name != "execute_code" {
		t.Errorf("tools[1] = %s/%s, want rigor/execute_code", tools[1].Namespace, tools[1].Name)
	}
}

func TestAggregator_Execute(t *testing.T) {
	registry := NewRegistry()
	_ = registry.Register(&mockBackend{
		kind:    "local",
		name:    "local",
		enabled: true,
		execFn: func(_ context.Context, tool string, args map[string]any) (any, error) {
			if tool == "echo" {
				return args["msg"], nil
			}
			return nil, ErrToolNotFound
		},
	})
	agg := NewAggregator(registry)

	result, err := agg.Execute(context.Background(), "local:echo", map[string]any{"msg": "hello"})
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if result != "hello" {
		t.Errorf("Execute() = %v, want hello", result)
	}

	if _, err := agg.Execute(context.Background(), "local:missing", nil); !errors.Is(err, ErrToolNotFound) {
		t.Errorf("Execute(missing) error = %v, want ErrToolNotFound", err)
	}
}

func TestAggregator_ExecuteErrors(t *testing.T) {
	registry := NewRegistry()
	_ = registry.Register(&mockBackend{kind: "local", name: "off", enabled: false})
	agg := NewAggregator(registry)

	tests := []struct {
		id   string
		want error
	}{
		{"nonexistent:tool", ErrBackendNotFound},
		{"off:tool", ErrBackendDisabled},
		{"no_namespace", ErrInvalidToolID},
		{"", ErrInvalidToolID},
	}
	for _, tt := range tests {
		if _, err := agg.Execute(context.Background(), tt.id, nil); !errors.Is(err, tt.want) {
			t.Errorf("Execute(%q) error = %v, want %v", tt.id, err, tt.want)
		}
	}
}

func TestParseToolID(t *testing.T) {
	tests := []struct {
		id          string
		wantBackend string
		wantTool    string
		wantErr     bool
	}{
		{"rigor:execute_code", "rigor", "execute_code", false},
		{"my-backend:my_tool", "my-backend", "my_tool", false},
		{"no_namespace", "", "no_namespace", false},
		{"", "", "", true},
		{"bad:format:tool", "", "", true},
	}

	for _, tt := range tests {
		backend, tool, err := ParseToolID(tt.id)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseToolID(%q) error = %v, wantErr = %v", tt.id, err, tt.wantErr)
			continue
		}
		if backend != tt.wantBackend || tool != tt.wantTool {
			t.Errorf("ParseToolID(%q) = %q, %q, want %q, %q", tt.id, backend, tool, tt.wantBackend, tt.wantTool)
		}
	}
	if got := FormatToolID("rigor", "validate_code"); got != "rigor:validate_code" {
		t.Errorf("FormatToolID() = %q", got)
	}
	if got := FormatToolID("", "validate_code"); got != "validate_code" {
		t.Errorf("FormatToolID() without backend = %q", got)
	}
}
