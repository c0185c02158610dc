package backend

import (
	"context"
	"errors"
	"sync"

	"github.com/jonwraymond/toolfoundation/model"
)

// mockBackend implements Backend for testing.
type mockBackend struct {
	kind    string
	name    string
	enabled bool
	tools   []model.Tool
	execFn  func(ctx context.Context, tool string, args map[string]any) (any, error)
	stopErr error

	mu      sync.Mutex
	started int
	stopped int
	calls   []string
}

func (m *mockBackend) Kind() string  { return m.kind }
func (m *mockBackend) Name() string  { return m.name }
func (m *mockBackend) Enabled() bool { return m.enabled }

func (m *mockBackend) ListTools(_ context.Context) ([]model.Tool, error) {
	return append([]model.Tool(nil), m.tools...), nil
}

func (m *mockBackend) Execute(ctx context.Context, tool string, args map[string]any) (any, error) {
	m.mu.Lock()
	m.calls = append(m.calls, tool)
	m.mu.Unlock()
	if m.execFn != nil {
		return m.execFn(ctx, tool, args)
	}
	return "ok", nil
}

func (m *mockBackend) Start(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.started++
	return nil
}

func (m *mockBackend) Stop() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.stopped++
	return m.stopErr
}

func (m *mockBackend) callCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.calls)
}

var errStop = errors.New("stop failed")
