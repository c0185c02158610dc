package code

import (
	"errors"
	"fmt"
)

// Sentinel errors for error classification.
var (
	// ErrCodeExecution indicates the executed script raised: a parse or
	// type error reported by the interpreter, a panic, or an explicit
	// failure from a sanity helper.
	ErrCodeExecution = errors.New("code execution error")

	// ErrConfiguration indicates an invalid or incomplete configuration.
	ErrConfiguration = errors.New("configuration error")

	// ErrPolicyViolation indicates the scanner produced a violation. It is
	// never lifted by confirmation.
	ErrPolicyViolation = errors.New("rigor policy violation")

	// ErrConfirmationRequired indicates the call was suspended until the
	// caller resubmits with Confirmed set.
	ErrConfirmationRequired = errors.New("rigor confirmation required")

	// ErrDataIntegrity indicates an injected array failed validation.
	ErrDataIntegrity = errors.New("data integrity failure")

	// ErrExportSyntax indicates a curated script did not parse.
	ErrExportSyntax = errors.New("export syntax error")

	// ErrNoOutputDir indicates an operation needed an output directory and
	// none was configured or passed.
	ErrNoOutputDir = errors.New("no output directory configured")
)

// CodeError represents an error that occurred while running a script.
// It includes optional source location information for debugging.
type CodeError struct {
	// Message describes the error.
	Message string

	// Line is the 1-based line number where the error occurred.
	// Zero indicates the line is unknown.
	Line int

	// Column is the 1-based column number where the error occurred.
	// Zero indicates the column is unknown.
	Column int

	// Trace holds the interpreter or Go stack captured on panic, if any.
	Trace string

	// Err is the underlying error, if any.
	Err error
}

// Error returns the error message, including line and column if available.
func (e *CodeError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("%s (line %d, col %d)", e.Message, e.Line, e.Column)
	}
	return e.Message
}

// Unwrap returns the underlying error for use with errors.Is and errors.As.
func (e *CodeError) Unwrap() error {
	return e.Err
}

// Is reports whether this error matches the target.
// CodeError matches ErrCodeExecution to allow sentinel-style error checking.
func (e *CodeError) Is(target error) bool {
	return target == ErrCodeExecution
}

// summary renders the error with its trace for ExecuteResult.Error.
func (e *CodeError) summary() string {
	if e.Trace == "" {
		return e.Error()
	}
	return e.Error() + "\n" + e.Trace
}
