package code

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"go/token"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gonum.org/v1/plot"

	"github.com/jonwraymond/rigorexec/figures"
	"github.com/jonwraymond/rigorexec/integrity"
	"github.com/jonwraymond/rigorexec/policy"
)

// Names bound into every namespace.
const (
	OutputDirBinding = "OutputDir"
	BoundsBinding    = "Bounds"
)

// Executor runs scripts under the integrity policy of its ExecutionContext
// and records every attempt.
//
// Contract:
// - Concurrency: calls against the same ExecutionContext must be serialized
//   by the caller; step numbers and the figure registry assume one writer.
// - Context: checked before the engine starts; evaluation is not pre-empted.
// - Errors: ExecuteCode never returns a Go error; every failure is a
//   structured ExecuteResult whose Err() matches one of the sentinels.
// - Ownership: params are read-only; returned results are caller-owned.
type Executor struct {
	cfg Config
}

// NewExecutor creates an Executor with the given configuration.
// Returns ErrConfiguration if any required field is missing.
func NewExecutor(cfg Config) (*Executor, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	cfg.applyDefaults()
	return &Executor{cfg: cfg}, nil
}

// ExecuteCode scans, validates, archives and runs params.Code, then records
// the attempt in the session log.
func (e *Executor) ExecuteCode(ctx context.Context, params ExecuteParams) ExecuteResult {
	start := e.cfg.Now()
	res := e.execute(ctx, params)
	if res.Variables == nil {
		res.Variables = map[string]any{}
	}
	if res.Figures == nil {
		res.Figures = []figures.Figure{}
	}
	if res.RigorWarnings == nil {
		res.RigorWarnings = []string{}
	}
	res.DurationMs = e.cfg.Now().Sub(start).Milliseconds()

	entry := e.cfg.Context.Log().Record(params.Code, res.Success, res.Error, params.Description)
	res.Step = entry.Step

	e.cfg.Logger.Info("execute_code finished",
		"step", res.Step,
		"status", string(res.Status),
		"duration_ms", res.DurationMs,
	)
	return res
}

func (e *Executor) execute(ctx context.Context, p ExecuteParams) ExecuteResult {
	var warnings []string

	if !p.DisableRigor {
		scan := e.cfg.Context.Scanner().Check(p.Code)
		if res, stop := e.applyScan(scan, p.Confirmed); stop {
			return res
		}
		warnings = append(warnings, scan.Warnings...)
	}

	vars, integrityWarnings, blocked := e.checkVars(p.Vars)
	if blocked != nil {
		return *blocked
	}
	warnings = append(warnings, integrityWarnings...)

	outDir, err := e.resolveOutputDir(p.OutputDir)
	if err != nil {
		e.cfg.Logger.Warn("output directory unavailable", "dir", p.OutputDir, "error", err)
		warnings = append(warnings, fmt.Sprintf("output directory unavailable: %v", err))
	}

	res := ExecuteResult{RigorWarnings: warnings}

	if outDir != "" {
		path, err := e.cfg.Archiver.Save(outDir, p.Code)
		if err != nil {
			e.cfg.Logger.Warn("script archive failed", "dir", outDir, "error", err)
		}
		res.ScriptPath = path
	}

	var stdout, stderr bytes.Buffer
	reg := figures.NewRegistry()
	prog := Program{
		Code:     p.Code,
		Natives:  map[string]map[string]any{},
		Bindings: e.bindings(outDir, p.ExtraEnv, vars),
		Figures:  reg,
		Stdout:   &stdout,
		Stderr:   &stderr,
	}
	if !p.DisableSanityChecks {
		prog.Preamble = sanityPreamble
		prog.Natives[SanityPackage] = sanityNatives(&stdout)
	}

	timeout := p.Timeout
	if timeout == 0 {
		timeout = e.cfg.DefaultTimeout
	}
	runStart := e.cfg.Now()
	out, runErr := e.cfg.Engine.Run(ctx, prog)
	if elapsed := e.cfg.Now().Sub(runStart); timeout > 0 && elapsed > timeout {
		e.cfg.Logger.Warn("execution exceeded advisory timeout", "timeout", timeout.String(), "elapsed", elapsed.String())
	}
	// The registry is drained on every path so no plot outlives its call.
	plots := reg.Drain()

	res.Output = stdout.String()
	if stderr.Len() > 0 {
		res.Output += "\n[stderr]: " + stderr.String()
	}

	if runErr != nil {
		res.Status = StatusRaised
		res.Error = errorSummary(runErr)
		res.cause = runErr
		if !errors.Is(runErr, ErrCodeExecution) {
			res.cause = fmt.Errorf("%w: %w", ErrCodeExecution, runErr)
		}
		e.cfg.Logger.Warn("script raised", "error", firstLine(res.Error))
		return res
	}

	res.Success = true
	res.Status = StatusSucceeded
	res.Result = jsonValue(out.Value)
	res.Variables = snapshot(out.Globals, e.internalNames(p.ExtraEnv))
	res.Figures = e.captureFigures(plots, outDir)
	return res
}

// applyScan turns a scan into a terminal result when the call must stop.
func (e *Executor) applyScan(scan policy.ScanResult, confirmed bool) (ExecuteResult, bool) {
	if !scan.Passed() {
		e.cfg.Logger.Warn("rigor violation", "count", len(scan.Violations))
		return blockedResult(ErrPolicyViolation,
			"SCIENTIFIC RIGOR VIOLATION: code blocked.\n"+strings.Join(scan.Violations, "\n"),
			scan.Violations), true
	}
	if critical := scan.CriticalPending(); confirmed && len(critical) > 0 {
		e.cfg.Logger.Warn("confirmation cannot lift critical findings", "count", len(critical))
		return blockedResult(ErrPolicyViolation,
			"SCIENTIFIC RIGOR VIOLATION: critical findings cannot be confirmed.\n"+strings.Join(critical, "\n"),
			critical), true
	}
	if len(scan.NeedsConfirmation) > 0 && !confirmed {
		e.cfg.Logger.Info("rigor confirmation required", "count", len(scan.NeedsConfirmation))
		return ExecuteResult{
			NeedsConfirmation: true,
			Status:            StatusPendingConfirmation,
			RigorWarnings:     scan.NeedsConfirmation,
			Message:           confirmationMessage(scan.NeedsConfirmation),
			cause:             ErrConfirmationRequired,
		}, true
	}
	return ExecuteResult{}, false
}

func confirmationMessage(items []string) string {
	var b strings.Builder
	b.WriteString("RIGOR WARNING: the following concerns were detected:\n")
	for _, it := range items {
		b.WriteString("  - ")
		b.WriteString(it)
		b.WriteByte('\n')
	}
	b.WriteString("\nPresent these warnings to the user and ask whether to proceed. " +
		"If they confirm, call execute_code again with the same code and confirmed=true.")
	return b.String()
}

func blockedResult(cause error, msg string, items []string) ExecuteResult {
	return ExecuteResult{
		Status:        StatusBlocked,
		Error:         msg,
		RigorWarnings: items,
		cause:         cause,
	}
}

// checkVars validates every numeric array in vars and returns the values to
// bind. JSON number lists are bound as []float64.
func (e *Executor) checkVars(vars map[string]any) (map[string]any, []string, *ExecuteResult) {
	if len(vars) == 0 {
		return nil, nil, nil
	}
	bound := make(map[string]any, len(vars))
	var warnings []string
	for _, name := range sortedKeys(vars) {
		v := vars[name]
		if !token.IsIdentifier(name) {
			warnings = append(warnings, fmt.Sprintf("context variable %q is not a valid identifier and was not bound", name))
			continue
		}
		bound[name] = v
		values, ok := integrity.ToFloat64s(v)
		if !ok {
			continue
		}
		r := integrity.Validate(name, values)
		if !r.Valid {
			e.cfg.Logger.Warn("data integrity failure", "name", name, "issues", len(r.Issues))
			res := blockedResult(ErrDataIntegrity,
				"DATA INTEGRITY ISSUE: analysis blocked.\n"+strings.Join(r.Issues, "\n"),
				r.Issues)
			return nil, nil, &res
		}
		warnings = append(warnings, r.Warnings...)
		if _, isJSON := v.([]any); isJSON {
			bound[name] = values
		}
	}
	return bound, warnings, nil
}

// resolveOutputDir prefers the per-call override and creates it.
func (e *Executor) resolveOutputDir(override string) (string, error) {
	if override == "" {
		return e.cfg.Context.OutputDir(), nil
	}
	abs, err := filepath.Abs(override)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(abs, 0o755); err != nil {
		return "", err
	}
	return abs, nil
}

// bindings orders the namespace: fixed names, then host helpers, then the
// caller's variables.
func (e *Executor) bindings(outDir string, extra, vars map[string]any) []Binding {
	var out []Binding
	if outDir != "" {
		out = append(out, Binding{Name: OutputDirBinding, Value: outDir})
	}
	out = append(out,
		Binding{Name: BoundsBinding, Value: e.cfg.Bounds},
		Binding{Name: LoadCSVBinding, Value: e.loadCSV()},
	)
	for _, k := range sortedKeys(extra) {
		if token.IsIdentifier(k) {
			out = append(out, Binding{Name: k, Value: extra[k]})
		}
	}
	for _, k := range sortedKeys(vars) {
		out = append(out, Binding{Name: k, Value: vars[k]})
	}
	return out
}

func (e *Executor) internalNames(extra map[string]any) map[string]bool {
	names := map[string]bool{OutputDirBinding: true, BoundsBinding: true, LoadCSVBinding: true}
	for _, n := range preambleNames {
		names[n] = true
	}
	for k := range extra {
		names[k] = true
	}
	return names
}

func (e *Executor) captureFigures(plots []*plot.Plot, outDir string) []figures.Figure {
	if len(plots) == 0 {
		return nil
	}
	opts := figures.Options{Push: e.cfg.FigurePush}
	if e.cfg.SaveFigures {
		opts.SaveDir = outDir
	}
	figs, err := figures.Capture(plots, opts)
	if err != nil {
		e.cfg.Logger.Warn("figure capture incomplete", "error", err)
	}
	return figs
}

func errorSummary(err error) string {
	var ce *CodeError
	if errors.As(err, &ce) {
		return ce.summary()
	}
	return err.Error()
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
