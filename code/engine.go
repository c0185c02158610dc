package code

import (
	"context"
	"io"

	"github.com/jonwraymond/rigorexec/figures"
)

// Binding is one name injected into the script namespace.
type Binding struct {
	Name  string
	Value any
}

// Program is everything an Engine needs for one run.
type Program struct {
	// Code is the caller's script, without the sanity preamble.
	Code string

	// Preamble is declaration-form source evaluated before Code in the
	// same namespace. Empty means none.
	Preamble string

	// Natives are importable packages implemented in Go, keyed by import
	// path then symbol name.
	Natives map[string]map[string]any

	// Bindings are declared in order before Code runs; a later binding
	// with the same name replaces an earlier one.
	Bindings []Binding

	// Figures receives plots created through the plotting package.
	Figures *figures.Registry

	// Stdout and Stderr receive the script's output.
	Stdout io.Writer
	Stderr io.Writer
}

// Outcome is what a successful run leaves behind.
type Outcome struct {
	// Value is the script's __out variable if set, else the value of the
	// final expression, else nil.
	Value any

	// Globals holds every package-level variable of the script namespace,
	// including bindings.
	Globals map[string]any
}

// Engine runs a Program in a fresh namespace.
//
// The Engine should:
//   - Import a standard set of numeric and plotting packages, silently
//     skipping any that are unavailable
//   - Declare Bindings, then evaluate Preamble, then Code
//   - Convert panics and interpreter errors into CodeError with line and
//     column when available
//
// Contract:
// - Concurrency: implementations must be safe for concurrent use; each Run
//   uses its own namespace.
// - Context: checked before evaluation starts. Evaluation itself is not
//   pre-emptible.
// - Errors: script failures return an error matching ErrCodeExecution. The
//   Outcome is zero on error.
// - Ownership: the Program is read-only; the returned Outcome is caller-owned.
type Engine interface {
	Run(ctx context.Context, prog Program) (Outcome, error)
}
