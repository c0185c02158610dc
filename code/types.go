package code

import (
	"time"

	"github.com/jonwraymond/rigorexec/figures"
)

// ExecuteParams specifies one execute_code call.
type ExecuteParams struct {
	// Code is the script to run.
	Code string `json:"code"`

	// Vars are injected into the namespace by name. Numeric arrays are
	// validated before anything runs; JSON number lists are bound as
	// []float64.
	Vars map[string]any `json:"context,omitempty"`

	// Confirmed acknowledges needs-confirmation findings from a previous
	// call with the same code. It never lifts a violation.
	Confirmed bool `json:"confirmed,omitempty"`

	// OutputDir overrides the context's output directory for this call.
	OutputDir string `json:"output_dir,omitempty"`

	// ExtraEnv adds bindings for host-provided helpers. They are declared
	// before Vars, and are not reported in ExecuteResult.Variables.
	ExtraEnv map[string]any `json:"-"`

	// DisableRigor skips the policy scan.
	DisableRigor bool `json:"-"`

	// DisableSanityChecks skips the validateInput/checkRange preamble.
	DisableSanityChecks bool `json:"-"`

	// Timeout is an advisory budget; zero means the configured default.
	Timeout time.Duration `json:"timeout,omitempty"`

	// Description is stored with the session log entry.
	Description string `json:"description,omitempty"`
}

// Status is the terminal category of an execute_code call.
type Status string

const (
	StatusSucceeded           Status = "succeeded"
	StatusBlocked             Status = "blocked"
	StatusPendingConfirmation Status = "pending_confirmation"
	StatusRaised              Status = "raised"
)

// ExecuteResult is the structured outcome of ExecuteCode. NeedsConfirmation
// implies Success is false.
type ExecuteResult struct {
	Success           bool             `json:"success"`
	Output            string           `json:"output"`
	Error             string           `json:"error"`
	Result            any              `json:"result"`
	Variables         map[string]any   `json:"variables"`
	Figures           []figures.Figure `json:"figures"`
	RigorWarnings     []string         `json:"rigor_warnings"`
	NeedsConfirmation bool             `json:"needs_confirmation,omitempty"`
	Message           string           `json:"message,omitempty"`

	Status Status `json:"status"`

	// ScriptPath is the archived copy of the code, when one was written.
	ScriptPath string `json:"script_path,omitempty"`

	// Step is the session log step recorded for this call.
	Step int `json:"step"`

	DurationMs int64 `json:"duration_ms"`

	cause error
}

// Err maps the terminal category to a sentinel error for use with errors.Is.
// It returns nil on success.
func (r ExecuteResult) Err() error {
	return r.cause
}

// ValidationResult is the outcome of ValidateCode.
type ValidationResult struct {
	Valid    bool     `json:"valid"`
	Errors   []string `json:"errors"`
	Warnings []string `json:"warnings"`
}

// ExportResult is the outcome of SaveReproducibleScript.
type ExportResult struct {
	Success bool   `json:"success"`
	Path    string `json:"path"`
	Message string `json:"message"`

	cause error
}

// Err returns nil on success, otherwise an error matching ErrExportSyntax,
// ErrNoOutputDir or the underlying filesystem error.
func (r ExportResult) Err() error {
	return r.cause
}
