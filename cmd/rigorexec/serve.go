package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/jonwraymond/rigorexec/config"
	"github.com/jonwraymond/rigorexec/mcpserver"
)

// version is stamped at build time with -ldflags "-X main.version=...".
var version = "dev"

func newServeCmd(opts *options) *cobra.Command {
	var noWatch bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the rigor tools over MCP on stdio",
		Long: `Serve exposes execute_code, validate_code, get_session_log and
save_reproducible_script to an MCP client on stdin/stdout.

When --config is given the file is watched and the rigor level, the
intercept flag and the integrity bounds are reloaded on change.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd.Context(), opts, !noWatch)
		},
	}
	cmd.Flags().BoolVar(&noWatch, "no-watch", false, "do not reload the config file on change")
	return cmd
}

func runServe(ctx context.Context, opts *options, watch bool) error {
	eng, err := buildEngine(opts.cfg, opts.logger)
	if err != nil {
		return err
	}
	defer eng.Close()

	if err := eng.start(ctx); err != nil {
		return err
	}

	srv, err := mcpserver.New(ctx, mcpserver.Config{
		Name:     opts.cfg.Name,
		Version:  version,
		Tools:    eng.tools,
		Executor: eng.guarded,
		Logger:   opts.logger,
	})
	if err != nil {
		return err
	}

	parent := ctx
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		// The client closing stdin ends the session, and with it the watcher.
		defer cancel()
		return srv.Run(gctx)
	})
	if watch && opts.configPath != "" {
		g.Go(func() error {
			return config.Watch(gctx, opts.configPath, func(c *config.Config, err error) {
				if err := reloadConfig(eng, opts, c, err); err != nil {
					opts.logger.Error("config reload rejected, keeping current settings",
						"path", opts.configPath, "error", err)
				}
			}, config.WatchOptions{Logger: opts.logger})
		})
	}

	opts.logger.Info("serving",
		"name", opts.cfg.Name,
		"session", eng.context.Log().ID(),
		"rigor_level", eng.scanner.Level(),
		"tools", len(srv.ToolIDs()),
	)
	if err := g.Wait(); err != nil && parent.Err() == nil {
		return fmt.Errorf("serve: %w", err)
	}
	return nil
}

// reloadConfig applies a reloaded file with the command-line overrides on
// top. A failed load leaves the running settings untouched.
func reloadConfig(eng *engine, opts *options, c *config.Config, loadErr error) error {
	if loadErr != nil {
		return loadErr
	}
	if err := opts.override(c); err != nil {
		return err
	}
	if err := eng.reload(c); err != nil {
		return err
	}
	opts.logger.Info("config reloaded", "path", opts.configPath, "rigor_level", c.Level())
	return nil
}
