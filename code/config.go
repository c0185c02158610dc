package code

import (
	"fmt"
	"strings"
	"time"

	"github.com/jonwraymond/rigorexec/archive"
	"github.com/jonwraymond/rigorexec/figures"
	"github.com/jonwraymond/rigorexec/integrity"
	"github.com/jonwraymond/rigorexec/logging"
	"github.com/jonwraymond/rigorexec/session"
)

// Config holds the configuration for an Executor.
type Config struct {
	// Context supplies the scanner, session log and output directory.
	// Required.
	Context *session.ExecutionContext

	// Engine is the interpreter that runs scripts.
	// Required.
	Engine Engine

	// Bounds is exposed to scripts as the Bounds binding. Defaults to an
	// empty checker.
	Bounds *integrity.Bounds

	// Archiver stores every attempted script. The zero value is used when
	// unset.
	Archiver archive.Archiver

	// Exporter writes curated reproducible scripts.
	Exporter archive.Exporter

	// SaveFigures persists captured figures under <output dir>/figures.
	SaveFigures bool

	// FigurePush, if set, receives each captured figure for live display.
	FigurePush func(figures.Figure) error

	// DefaultTimeout is the advisory time budget when ExecuteParams.Timeout
	// is zero. Overruns are logged; execution is never interrupted.
	DefaultTimeout time.Duration

	// Logger is an optional logger for observability.
	Logger logging.Logger

	// Now overrides the clock used for durations.
	Now func() time.Time
}

// Validate checks that all required fields are set.
// Returns ErrConfiguration if any required field is missing.
func (c *Config) Validate() error {
	var missing []string

	if c.Context == nil {
		missing = append(missing, "Context")
	}
	if c.Engine == nil {
		missing = append(missing, "Engine")
	}

	if len(missing) > 0 {
		return fmt.Errorf("%w: missing required fields: %s",
			ErrConfiguration, strings.Join(missing, ", "))
	}
	if c.DefaultTimeout < 0 {
		return fmt.Errorf("%w: negative DefaultTimeout %v", ErrConfiguration, c.DefaultTimeout)
	}
	return nil
}

// applyDefaults sets default values for optional fields.
func (c *Config) applyDefaults() {
	if c.Bounds == nil {
		c.Bounds = integrity.NewBounds(nil)
	}
	c.Logger = logging.OrNop(c.Logger)
	if c.Archiver.Logger == nil {
		c.Archiver.Logger = c.Logger
	}
	if c.Now == nil {
		c.Now = time.Now
	}
}
