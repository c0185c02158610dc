package backend

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"github.com/jonwraymond/rigorexec/policy"
)

func newGuarded(t *testing.T, level policy.Level, enabled *bool) (*Interceptor, *mockBackend) {
	t.Helper()
	files := &mockBackend{kind: "local", name: "files", enabled: true}
	rigor := &mockBackend{kind: "local", name: "rigor", enabled: true}
	registry := NewRegistry()
	_ = registry.Register(files)
	_ = registry.Register(rigor)

	cfg := InterceptConfig{
		Checker: policy.NewDefaultScanner(level),
		Exempt:  []string{"rigor"},
	}
	if enabled != nil {
		cfg.Enabled = func() bool { return *enabled }
	}
	ic, err := Intercept(NewAggregator(registry), cfg)
	if err != nil {
		t.Fatalf("Intercept() error = %v", err)
	}
	return ic, files
}

func TestIntercept_RequiresCheckerAndExecutor(t *testing.T) {
	if _, err := Intercept(nil, InterceptConfig{Checker: policy.NewScanner(policy.LevelStandard)}); err == nil {
		t.Error("Intercept(nil executor) should fail")
	}
	if _, err := Intercept(NewAggregator(NewRegistry()), InterceptConfig{}); err == nil {
		t.Error("Intercept() without checker should fail")
	}
}

func TestIntercept_Routing(t *testing.T) {
	tests := []struct {
		name    string
		level   policy.Level
		args    map[string]any
		wantErr error
	}{
		{
			name:  "clean",
			level: policy.LevelStandard,
			args:  map[string]any{"path": "data/run1.csv"},
		},
		{
			name:    "violation nested in map",
			level:   policy.LevelStandard,
			args:    map[string]any{"opts": map[string]any{"body": "result = expected"}},
			wantErr: ErrToolBlocked,
		},
		{
			name:    "warning needs confirmation",
			level:   policy.LevelStandard,
			args:    map[string]any{"lines": []any{"ok", "use dummy values"}},
			wantErr: ErrConfirmationRequired,
		},
		{
			name:  "warning confirmed",
			level: policy.LevelStandard,
			args:  map[string]any{"text": "use dummy values", "confirmed": true},
		},
		{
			name:    "confirmed string is not a confirmation",
			level:   policy.LevelStandard,
			args:    map[string]any{"text": "use dummy values", "confirmed": "true"},
			wantErr: ErrConfirmationRequired,
		},
		{
			name:    "critical under relaxed cannot be confirmed",
			level:   policy.LevelRelaxed,
			args:    map[string]any{"text": "result = target", "confirmed": true},
			wantErr: ErrToolBlocked,
		},
		{
			name:  "warning under relaxed passes",
			level: policy.LevelRelaxed,
			args:  map[string]any{"text": "use dummy values"},
		},
		{
			name:  "bypass",
			level: policy.LevelBypass,
			args:  map[string]any{"text": "result = expected"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ic, files := newGuarded(t, tt.level, nil)
			_, err := ic.Execute(context.Background(), "files:write", tt.args)
			if tt.wantErr == nil {
				if err != nil {
					t.Fatalf("Execute() error = %v", err)
				}
				if files.callCount() != 1 {
					t.Errorf("backend calls = %d, want 1", files.callCount())
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("Execute() error = %v, want %v", err, tt.wantErr)
			}
			if files.callCount() != 0 {
				t.Error("backend ran a rejected call")
			}
		})
	}
}

func TestIntercept_ExemptAndDisabled(t *testing.T) {
	args := map[string]any{"code": "result = expected"}

	ic, _ := newGuarded(t, policy.LevelStrict, nil)
	if _, err := ic.Execute(context.Background(), "rigor:execute_code", args); err != nil {
		t.Errorf("exempt backend call error = %v", err)
	}

	enabled := false
	ic, files := newGuarded(t, policy.LevelStrict, &enabled)
	if _, err := ic.Execute(context.Background(), "files:write", args); err != nil {
		t.Errorf("disabled interceptor error = %v", err)
	}
	enabled = true
	if _, err := ic.Execute(context.Background(), "files:write", args); !errors.Is(err, ErrToolBlocked) {
		t.Errorf("re-enabled interceptor error = %v, want ErrToolBlocked", err)
	}
	if files.callCount() != 1 {
		t.Errorf("backend calls = %d, want 1", files.callCount())
	}
}

func TestIntercept_CanceledContext(t *testing.T) {
	ic, files := newGuarded(t, policy.LevelStandard, nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := ic.Execute(ctx, "files:write", nil); !errors.Is(err, context.Canceled) {
		t.Errorf("Execute() error = %v, want context.Canceled", err)
	}
	if files.callCount() != 0 {
		t.Error("backend ran after cancellation")
	}
}

func TestStringArgs(t *testing.T) {
	args := map[string]any{
		"b": []any{"two", 3, map[string]any{"z": "four"}},
		"a": "one",
		"c": []string{"five", "six"},
		"d": 7.5,
	}
	want := []string{"one", "two", "four", "five", "six"}
	if got := StringArgs(args); !reflect.DeepEqual(got, want) {
		t.Errorf("StringArgs() = %v, want %v", got, want)
	}
}
