package code

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/jonwraymond/rigorexec/policy"
	"github.com/jonwraymond/rigorexec/session"
)

// mockEngine implements Engine for testing.
type mockEngine struct {
	mu sync.Mutex

	// Configurable returns
	outcome Outcome
	err     error
	run     func(prog Program) (Outcome, error)

	// Call tracking
	programs []Program
}

func (m *mockEngine) Run(ctx context.Context, prog Program) (Outcome, error) {
	m.mu.Lock()
	m.programs = append(m.programs, prog)
	run, outcome, err := m.run, m.outcome, m.err
	m.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return Outcome{}, err
	}
	if run != nil {
		return run(prog)
	}
	return outcome, err
}

func (m *mockEngine) calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.programs)
}

func (m *mockEngine) last() Program {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.programs[len(m.programs)-1]
}

// newTestExecutor builds an executor over a fresh context rooted in a temp
// dir.
func newTestExecutor(t *testing.T, level policy.Level, engine Engine) (*Executor, *session.ExecutionContext) {
	t.Helper()
	ctx, err := session.NewExecutionContext(session.Options{
		OutputDir: t.TempDir(),
		Scanner:   policy.NewDefaultScanner(level),
	})
	if err != nil {
		t.Fatalf("NewExecutionContext failed: %v", err)
	}
	exec, err := NewExecutor(Config{Context: ctx, Engine: engine})
	if err != nil {
		t.Fatalf("NewExecutor failed: %v", err)
	}
	return exec, ctx
}

func bindingValue(prog Program, name string) (any, bool) {
	var (
		v     any
		found bool
	)
	for _, b := range prog.Bindings {
		if b.Name == name {
			v, found = b.Value, true
		}
	}
	return v, found
}

func containsStr(s, substr string) bool {
	return strings.Contains(s, substr)
}

type stepClock struct {
	mu  sync.Mutex
	now time.Time
	inc time.Duration
}

func (c *stepClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(c.inc)
	return c.now
}
