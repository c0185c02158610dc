package backend

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/jonwraymond/rigorexec/logging"
	"github.com/jonwraymond/rigorexec/policy"
)

// Errors returned by the interceptor.
var (
	ErrToolBlocked          = errors.New("tool call blocked by rigor policy")
	ErrConfirmationRequired = errors.New("tool call requires confirmation")
)

// ConfirmedArg is the argument that acknowledges needs-confirmation findings.
const ConfirmedArg = "confirmed"

// Executor invokes a tool by its fully qualified ID.
type Executor interface {
	Execute(ctx context.Context, toolID string, args map[string]any) (any, error)
}

// Checker classifies text. *policy.Scanner implements it.
type Checker interface {
	Check(text string) policy.ScanResult
}

// InterceptConfig configures an Interceptor.
type InterceptConfig struct {
	// Checker scans the string arguments of every call. Required.
	Checker Checker

	// Enabled is consulted on each call. Nil means always enabled.
	Enabled func() bool

	// Exempt lists backend names whose calls are not scanned. The engine's
	// own tools scan their code themselves.
	Exempt []string

	Logger logging.Logger
}

// Interceptor scans tool arguments before handing the call on.
//
// Contract:
// - Concurrency: safe for concurrent use if the wrapped Executor is.
// - Violations are never lifted. Needs-confirmation findings pass only when
//   the call carries confirmed=true, and never when they come from a
//   critical rule.
type Interceptor struct {
	next    Executor
	checker Checker
	enabled func() bool
	exempt  map[string]bool
	logger  logging.Logger
}

// Intercept wraps next with argument scanning.
func Intercept(next Executor, cfg InterceptConfig) (*Interceptor, error) {
	if next == nil || cfg.Checker == nil {
		return nil, fmt.Errorf("intercept: executor and checker are required")
	}
	exempt := make(map[string]bool, len(cfg.Exempt))
	for _, name := range cfg.Exempt {
		exempt[name] = true
	}
	return &Interceptor{
		next:    next,
		checker: cfg.Checker,
		enabled: cfg.Enabled,
		exempt:  exempt,
		logger:  logging.OrNop(cfg.Logger),
	}, nil
}

// Execute scans the call's arguments and forwards it when allowed.
func (i *Interceptor) Execute(ctx context.Context, toolID string, args map[string]any) (any, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if i.active(toolID) {
		if err := i.screen(toolID, args); err != nil {
			return nil, err
		}
	}
	return i.next.Execute(ctx, toolID, args)
}

func (i *Interceptor) active(toolID string) bool {
	if i.enabled != nil && !i.enabled() {
		return false
	}
	backendName, _, err := ParseToolID(toolID)
	if err != nil {
		return true
	}
	return !i.exempt[backendName]
}

func (i *Interceptor) screen(toolID string, args map[string]any) error {
	text := strings.Join(StringArgs(args), "\n")
	if text == "" {
		return nil
	}
	scan := i.checker.Check(text)
	confirmed, _ := args[ConfirmedArg].(bool)

	if !scan.Passed() {
		i.logger.Warn("tool call blocked", "tool", toolID, "violations", scan.Violations)
		return fmt.Errorf("%w: %s: %s", ErrToolBlocked, toolID, strings.Join(scan.Violations, "; "))
	}
	if critical := scan.CriticalPending(); confirmed && len(critical) > 0 {
		i.logger.Warn("tool call blocked", "tool", toolID, "violations", critical)
		return fmt.Errorf("%w: %s: %s", ErrToolBlocked, toolID, strings.Join(critical, "; "))
	}
	if len(scan.NeedsConfirmation) > 0 && !confirmed {
		i.logger.Info("tool call needs confirmation", "tool", toolID, "items", scan.NeedsConfirmation)
		return fmt.Errorf("%w: %s: %s (resubmit with %s=true)",
			ErrConfirmationRequired, toolID, strings.Join(scan.NeedsConfirmation, "; "), ConfirmedArg)
	}
	if len(scan.Warnings) > 0 {
		i.logger.Info("tool call warnings", "tool", toolID, "warnings", scan.Warnings)
	}
	return nil
}

// StringArgs collects every string found in args, descending into maps and
// slices. Map keys are visited in sorted order.
func StringArgs(args map[string]any) []string {
	var out []string
	collectStrings(args, &out)
	return out
}

func collectStrings(v any, out *[]string) {
	switch t := v.(type) {
	case string:
		*out = append(*out, t)
	case map[string]any:
		keys := make([]string, 0, len(t))
		for k := range t {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			collectStrings(t[k], out)
		}
	case []any:
		for _, e := range t {
			collectStrings(e, out)
		}
	case []string:
		*out = append(*out, t...)
	}
}
