package session

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/jonwraymond/rigorexec/logging"
	"github.com/jonwraymond/rigorexec/policy"
)

// FileLoadedFunc is invoked after a data file load is recorded.
type FileLoadedFunc func(path string)

// Options configures an ExecutionContext. Zero values select defaults.
type Options struct {
	// OutputDir is created on construction when non-empty.
	OutputDir string

	// Scanner defaults to policy.NewDefaultScanner(policy.LevelStandard).
	Scanner *policy.Scanner

	// Log defaults to NewLog().
	Log *Log

	OnFileLoaded FileLoadedFunc

	// InterceptAllTools gates the tool-argument scanning middleware.
	InterceptAllTools bool

	Logger logging.Logger
}

// ExecutionContext is the runtime state shared across engine calls within
// one agent. It is the sole owner of its scanner and log.
type ExecutionContext struct {
	mu           sync.RWMutex
	outputDir    string
	onFileLoaded FileLoadedFunc

	scanner   *policy.Scanner
	log       *Log
	intercept bool
	logger    logging.Logger
}

// NewExecutionContext builds a context and creates its output directory.
func NewExecutionContext(opts Options) (*ExecutionContext, error) {
	c := &ExecutionContext{
		scanner:      opts.Scanner,
		log:          opts.Log,
		onFileLoaded: opts.OnFileLoaded,
		intercept:    opts.InterceptAllTools,
		logger:       logging.OrNop(opts.Logger),
	}
	if c.scanner == nil {
		c.scanner = policy.NewDefaultScanner(policy.LevelStandard)
	}
	if c.log == nil {
		c.log = NewLog(WithLogger(c.logger))
	}
	if opts.OutputDir != "" {
		if err := c.SetOutputDir(opts.OutputDir); err != nil {
			return nil, err
		}
	}
	return c, nil
}

// Scanner returns the context's scanner.
func (c *ExecutionContext) Scanner() *policy.Scanner { return c.scanner }

// Log returns the context's session log.
func (c *ExecutionContext) Log() *Log { return c.log }

// InterceptAllTools reports whether other tools' arguments are scanned.
func (c *ExecutionContext) InterceptAllTools() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.intercept
}

// SetInterceptAllTools toggles tool-argument scanning.
func (c *ExecutionContext) SetInterceptAllTools(v bool) {
	c.mu.Lock()
	c.intercept = v
	c.mu.Unlock()
}

// OutputDir returns the current output directory, or "" if unset.
func (c *ExecutionContext) OutputDir() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.outputDir
}

// SetOutputDir switches the output directory, creating it if needed. The
// previous directory is left untouched.
func (c *ExecutionContext) SetOutputDir(dir string) error {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return fmt.Errorf("resolve output dir %q: %w", dir, err)
	}
	if err := os.MkdirAll(abs, 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}
	c.mu.Lock()
	prev := c.outputDir
	c.outputDir = abs
	c.mu.Unlock()
	if prev != abs {
		c.logger.Info("output directory set", "dir", abs, "previous", prev)
	}
	return nil
}

// SetOnFileLoaded replaces the file-loaded hook.
func (c *ExecutionContext) SetOnFileLoaded(fn FileLoadedFunc) {
	c.mu.Lock()
	c.onFileLoaded = fn
	c.mu.Unlock()
}

// NotifyFileLoaded records path in the log and invokes the hook. A panic in
// the hook is recovered and logged; the load stays recorded.
func (c *ExecutionContext) NotifyFileLoaded(path string) {
	c.log.RecordFileLoad(path)

	c.mu.RLock()
	fn := c.onFileLoaded
	c.mu.RUnlock()
	if fn == nil {
		return
	}
	defer func() {
		if r := recover(); r != nil {
			c.logger.Warn("file-loaded hook failed", "path", path, "panic", fmt.Sprint(r))
		}
	}()
	fn(path)
}
