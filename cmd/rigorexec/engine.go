package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/jonwraymond/rigorexec/auditstore"
	"github.com/jonwraymond/rigorexec/backend"
	"github.com/jonwraymond/rigorexec/code"
	"github.com/jonwraymond/rigorexec/config"
	"github.com/jonwraymond/rigorexec/integrity"
	"github.com/jonwraymond/rigorexec/logging"
	"github.com/jonwraymond/rigorexec/policy"
	"github.com/jonwraymond/rigorexec/runtime/yaegi"
	"github.com/jonwraymond/rigorexec/session"
	"github.com/jonwraymond/rigorexec/toolset"
)

// engine is the composed execution stack for one process.
type engine struct {
	scanner  *policy.Scanner
	bounds   *integrity.Bounds
	context  *session.ExecutionContext
	executor *code.Executor
	store    *auditstore.Store

	registry *backend.Registry
	tools    *backend.Aggregator
	guarded  *backend.Interceptor
	logger   logging.Logger
}

func buildEngine(cfg *config.Config, logger logging.Logger) (*engine, error) {
	e := &engine{
		scanner: policy.NewDefaultScanner(cfg.Level()),
		bounds:  cfg.BoundsChecker(),
		logger:  logger,
	}
	if err := cfg.Apply(e.scanner); err != nil {
		return nil, fmt.Errorf("apply config: %w", err)
	}

	logOpts := []session.LogOption{session.WithLogger(logger)}
	if cfg.AuditDB != "" {
		store, err := auditstore.Open(cfg.AuditDB)
		if err != nil {
			return nil, err
		}
		e.store = store
		logOpts = append(logOpts, session.WithSink(store))
	}

	ctx, err := session.NewExecutionContext(session.Options{
		OutputDir:         cfg.OutputDir,
		Scanner:           e.scanner,
		Log:               session.NewLog(logOpts...),
		InterceptAllTools: cfg.Intercept(),
		Logger:            logger,
	})
	if err != nil {
		e.Close()
		return nil, err
	}
	e.context = ctx

	e.executor, err = code.NewExecutor(code.Config{
		Context:        ctx,
		Engine:         yaegi.New(yaegi.Config{Logger: logger}),
		Bounds:         e.bounds,
		SaveFigures:    cfg.SaveFigures,
		DefaultTimeout: cfg.Timeout.Duration,
		Logger:         logger,
	})
	if err != nil {
		e.Close()
		return nil, err
	}

	e.registry = backend.NewRegistry()
	if err := e.registry.Register(toolset.NewRigor(e.executor, logger)); err != nil {
		e.Close()
		return nil, err
	}
	e.tools = backend.NewAggregator(e.registry)
	// The rigor backend scans its own code, so the interceptor only acts on
	// backends an embedder registers next to it.
	e.guarded, err = backend.Intercept(e.tools, backend.InterceptConfig{
		Checker: e.scanner,
		Enabled: ctx.InterceptAllTools,
		Exempt:  []string{toolset.Namespace},
		Logger:  logger,
	})
	if err != nil {
		e.Close()
		return nil, err
	}
	return e, nil
}

// reload applies the settings that may change at runtime. Extra patterns
// are append-only and need a restart.
func (e *engine) reload(cfg *config.Config) error {
	if err := e.scanner.SetLevel(cfg.Level()); err != nil {
		return err
	}
	e.context.SetInterceptAllTools(cfg.Intercept())
	e.bounds.Update(cfg.BoundsChecker().Ranges())
	if cfg.OutputDir != "" && cfg.OutputDir != e.context.OutputDir() {
		if err := e.context.SetOutputDir(cfg.OutputDir); err != nil {
			return err
		}
	}
	return nil
}

func (e *engine) start(ctx context.Context) error {
	return e.registry.StartAll(ctx)
}

func (e *engine) Close() error {
	var errs []error
	if e.registry != nil {
		errs = append(errs, e.registry.StopAll())
	}
	if e.store != nil {
		errs = append(errs, e.store.Close())
	}
	return errors.Join(errs...)
}
