package toolset

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/jonwraymond/rigorexec/archive"
	"github.com/jonwraymond/rigorexec/code"
	"github.com/jonwraymond/rigorexec/logging"
	"github.com/jonwraymond/rigorexec/session"
)

// Namespace is the backend name of the engine's tools.
const Namespace = "rigor"

// Tool names within Namespace.
const (
	ToolExecuteCode    = "execute_code"
	ToolValidateCode   = "validate_code"
	ToolGetSessionLog  = "get_session_log"
	ToolSaveScript     = "save_reproducible_script"
	defaultToolTimeout = 30 * time.Second
)

// ErrInvalidArgs is returned when a tool call's arguments do not decode.
var ErrInvalidArgs = errors.New("invalid tool arguments")

// Operations is the engine surface the tools call. *code.Executor
// implements it.
type Operations interface {
	ExecuteCode(ctx context.Context, params code.ExecuteParams) code.ExecuteResult
	ValidateCode(src string) code.ValidationResult
	RetrieveSessionLog() session.Retrieval
	SaveReproducibleScriptTo(src, filename, outputDir string) code.ExportResult
}

var _ Operations = (*code.Executor)(nil)

type executeArgs struct {
	Code        string         `json:"code"`
	Context     map[string]any `json:"context"`
	Confirmed   bool           `json:"confirmed"`
	OutputDir   string         `json:"output_dir"`
	Timeout     *float64       `json:"timeout"`
	Description string         `json:"description"`
}

type validateArgs struct {
	Code string `json:"code"`
}

type saveArgs struct {
	Code      string `json:"code"`
	Filename  string `json:"filename"`
	OutputDir string `json:"output_dir"`
}

// NewRigor builds the engine's tool backend over ops.
func NewRigor(ops Operations, logger logging.Logger) *Local {
	logger = logging.OrNop(logger)
	l := NewLocal(Namespace)

	l.Register(ToolDef{
		Name:  ToolExecuteCode,
		Title: "Execute analysis code",
		Description: "Run a Go analysis script under the scientific rigor policy. " +
			"Bare statements, top-level declarations or a complete package main are accepted. " +
			"If the result has needs_confirmation=true, show the warnings to the user and " +
			"call again with the same code and confirmed=true only if they agree.",
		InputSchema: objectSchema(map[string]any{
			"code":        stringProp("Go source to run."),
			"context":     map[string]any{"type": "object", "description": "Values bound into the namespace by name. Number arrays become []float64."},
			"confirmed":   map[string]any{"type": "boolean", "description": "Acknowledges the warnings of a previous call with the same code."},
			"output_dir":  stringProp("Overrides the session output directory for this call."),
			"timeout":     map[string]any{"type": "number", "description": "Advisory time budget in seconds. Overruns are logged, never interrupted."},
			"description": stringProp("Short note stored with the session log entry."),
		}, "code"),
		Annotations: &mcp.ToolAnnotations{Title: "Execute analysis code", OpenWorldHint: boolPtr(false)},
		Tags:        []string{"analysis", "execute", "rigor"},
		Summary:     "Runs analysis code with rigor checks, data validation and figure capture.",
		Notes:       "Violations always block. Needs-confirmation findings suspend the call until it is resubmitted with confirmed=true.",
		Handler: func(ctx context.Context, args map[string]any) (any, error) {
			var a executeArgs
			if err := decodeArgs(args, &a); err != nil {
				return nil, err
			}
			if strings.TrimSpace(a.Code) == "" {
				return nil, fmt.Errorf("%w: code is required", ErrInvalidArgs)
			}
			params := code.ExecuteParams{
				Code:        a.Code,
				Vars:        a.Context,
				Confirmed:   a.Confirmed,
				OutputDir:   a.OutputDir,
				Timeout:     defaultToolTimeout,
				Description: a.Description,
			}
			if a.Timeout != nil {
				params.Timeout = seconds(*a.Timeout)
			}
			res := ops.ExecuteCode(ctx, params)
			logger.Debug("tool call", "tool", ToolExecuteCode, "status", res.Status, "step", res.Step)
			return res, nil
		},
	})

	l.Register(ToolDef{
		Name:        ToolValidateCode,
		Title:       "Validate analysis code",
		Description: "Check Go analysis code for syntax errors and risky operations without running it.",
		InputSchema: objectSchema(map[string]any{
			"code": stringProp("Go source to check."),
		}, "code"),
		Annotations: &mcp.ToolAnnotations{Title: "Validate analysis code", ReadOnlyHint: true, IdempotentHint: true},
		Tags:        []string{"analysis", "lint", "syntax"},
		Summary:     "Parses and lints code. Never executes anything.",
		Handler: func(_ context.Context, args map[string]any) (any, error) {
			var a validateArgs
			if err := decodeArgs(args, &a); err != nil {
				return nil, err
			}
			return ops.ValidateCode(a.Code), nil
		},
	})

	l.Register(ToolDef{
		Name:  ToolGetSessionLog,
		Title: "Get session log",
		Description: "Return every code execution of this session with a summary. " +
			"Review it before composing a reproducible script.",
		InputSchema: objectSchema(map[string]any{}),
		Annotations: &mcp.ToolAnnotations{Title: "Get session log", ReadOnlyHint: true, IdempotentHint: true},
		Tags:        []string{"session", "audit", "history"},
		Summary:     "Lists the session's executions, loaded files and step counts.",
		Handler: func(_ context.Context, _ map[string]any) (any, error) {
			return ops.RetrieveSessionLog(), nil
		},
	})

	l.Register(ToolDef{
		Name:  ToolSaveScript,
		Title: "Save reproducible script",
		Description: "Save a curated reproducible script: a standalone Go program that reproduces the analysis. " +
			"Compose it from the working steps of the session log. Existing files are overwritten.",
		InputSchema: objectSchema(map[string]any{
			"code":       stringProp("Complete, runnable Go source."),
			"filename":   stringProp("File name inside the output directory. Defaults to " + archive.DefaultExportName + "."),
			"output_dir": stringProp("Overrides the session output directory."),
		}, "code"),
		Annotations: &mcp.ToolAnnotations{Title: "Save reproducible script", IdempotentHint: true},
		Tags:        []string{"export", "reproducibility", "script"},
		Summary:     "Writes a reproducible script after checking that it parses.",
		Notes:       "A script that does not parse is rejected and nothing is written.",
		Handler: func(_ context.Context, args map[string]any) (any, error) {
			var a saveArgs
			if err := decodeArgs(args, &a); err != nil {
				return nil, err
			}
			return ops.SaveReproducibleScriptTo(a.Code, a.Filename, a.OutputDir), nil
		},
	})

	return l
}

// decodeArgs converts a decoded JSON object into v.
func decodeArgs(args map[string]any, v any) error {
	raw, err := json.Marshal(args)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidArgs, err)
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidArgs, err)
	}
	return nil
}

func seconds(s float64) time.Duration {
	if s <= 0 || math.IsNaN(s) {
		return 0
	}
	if s > math.MaxInt64/float64(time.Second) {
		return time.Duration(math.MaxInt64)
	}
	return time.Duration(s * float64(time.Second))
}

func objectSchema(props map[string]any, required ...string) map[string]any {
	s := map[string]any{"type": "object", "properties": props}
	if len(required) > 0 {
		req := make([]any, len(required))
		for i, r := range required {
			req[i] = r
		}
		s["required"] = req
	}
	return s
}

func stringProp(desc string) map[string]any {
	return map[string]any{"type": "string", "description": desc}
}

func boolPtr(b bool) *bool { return &b }
