package backend

import (
	"context"
	"errors"

	"github.com/jonwraymond/toolfoundation/model"
)

// Common errors for backend operations.
var (
	ErrBackendNotFound = errors.New("backend not found")
	ErrBackendDisabled = errors.New("backend disabled")
	ErrToolNotFound    = errors.New("tool not found in backend")
)

// Backend is a named source of tools.
//
// Contract:
// - Concurrency: implementations must be safe for concurrent use.
// - Context: Execute must honor cancellation before doing work.
// - Errors: use ErrBackendDisabled and ErrToolNotFound where applicable.
//   Tool-level failures are returned as results, not errors, when the
//   backend can describe them.
type Backend interface {
	// Kind returns the backend type, for example "local".
	Kind() string

	// Name returns the unique instance name. It is the namespace part of
	// every tool ID the backend serves.
	Name() string

	// Enabled reports whether calls are accepted.
	Enabled() bool

	// ListTools returns the tools this backend serves.
	ListTools(ctx context.Context) ([]model.Tool, error)

	// Execute invokes one of the backend's tools by its bare name.
	Execute(ctx context.Context, tool string, args map[string]any) (any, error)

	// Start prepares the backend for calls.
	Start(ctx context.Context) error

	// Stop releases the backend's resources.
	Stop() error
}
