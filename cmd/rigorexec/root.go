package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/jonwraymond/rigorexec/config"
	"github.com/jonwraymond/rigorexec/logging"
	"github.com/jonwraymond/rigorexec/policy"
)

// options holds the global flags and what PersistentPreRunE derives from
// them.
type options struct {
	configPath string
	outputDir  string
	rigorLevel string
	verbose    bool

	// Flags set on the command line override every load of the file,
	// including hot reloads.
	outputDirSet  bool
	rigorLevelSet bool

	cfg    *config.Config
	zap    *zap.Logger
	logger logging.Logger
}

func newRootCmd() *cobra.Command {
	opts := &options{}

	root := &cobra.Command{
		Use:   "rigorexec",
		Short: "Rigor-enforcing execution engine for analysis code",
		Long: `rigorexec runs short Go analysis scripts behind a scientific rigor policy.

Every script is scanned before it runs. Violations are blocked, findings that
need a human decision suspend the call until it is confirmed, and every
attempt is archived and logged so a reproducible script can be curated later.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return opts.init(cmd)
		},
		PersistentPostRun: func(_ *cobra.Command, _ []string) {
			if opts.zap != nil {
				_ = opts.zap.Sync()
			}
		},
	}

	pf := root.PersistentFlags()
	pf.StringVarP(&opts.configPath, "config", "c", "", "configuration file (.yaml, .yml or .toml)")
	pf.StringVarP(&opts.outputDir, "output-dir", "o", "", "directory for archived scripts, figures and exports")
	pf.StringVarP(&opts.rigorLevel, "rigor-level", "r", "", "strict, standard, relaxed or bypass (overrides the config file)")
	pf.BoolVarP(&opts.verbose, "verbose", "v", false, "enable debug logging")

	root.AddCommand(
		newServeCmd(opts),
		newRunCmd(opts),
		newValidateCmd(opts),
		newScanCmd(opts),
		newExportCmd(opts),
		newLogCmd(opts),
		newToolsCmd(opts),
	)
	return root
}

func (o *options) init(cmd *cobra.Command) error {
	zcfg := zap.NewProductionConfig()
	if o.verbose {
		zcfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
	}
	zl, err := zcfg.Build()
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	o.zap = zl
	o.logger = logging.NewZap(zl)

	cfg, err := config.Load(o.configPath)
	if err != nil {
		return err
	}
	o.outputDirSet = cmd.Flags().Changed("output-dir")
	o.rigorLevelSet = cmd.Flags().Changed("rigor-level")
	if err := o.override(cfg); err != nil {
		return err
	}
	o.cfg = cfg
	return nil
}

// override applies the command-line flags that were set to cfg.
func (o *options) override(cfg *config.Config) error {
	if o.outputDirSet {
		cfg.OutputDir = o.outputDir
	}
	if o.rigorLevelSet {
		level, err := policy.ParseLevel(o.rigorLevel)
		if err != nil {
			return err
		}
		cfg.RigorLevel = string(level)
	}
	return nil
}
