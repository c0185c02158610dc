package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/jonwraymond/rigorexec/auditstore"
	"github.com/jonwraymond/rigorexec/code"
	"github.com/jonwraymond/rigorexec/policy"
	"github.com/jonwraymond/rigorexec/toolset"

	"github.com/jonwraymond/tooldiscovery/index"
	"github.com/jonwraymond/tooldiscovery/tooldoc"
)

var (
	errNotValid    = errors.New("code is not valid")
	errScanFailed  = errors.New("rigor scan found violations")
	errNoAuditDB   = errors.New("no audit database configured (set audit_db)")
	errExportFails = errors.New("export failed")
)

func newRunCmd(opts *options) *cobra.Command {
	var (
		confirmed   bool
		contextFile string
		description string
		timeout     float64
	)
	cmd := &cobra.Command{
		Use:   "run [file|-]",
		Short: "Execute a script once under the rigor policy",
		Long: `Run scans, executes and logs one script and prints the structured result
as JSON. A result that needs confirmation exits non-zero; re-run with
--confirmed after reviewing the listed items.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			src, err := readSource(cmd, args)
			if err != nil {
				return err
			}
			vars, err := readVars(contextFile)
			if err != nil {
				return err
			}
			eng, err := buildEngine(opts.cfg, opts.logger)
			if err != nil {
				return err
			}
			defer eng.Close()

			res := eng.executor.ExecuteCode(cmd.Context(), code.ExecuteParams{
				Code:        src,
				Vars:        vars,
				Confirmed:   confirmed,
				Timeout:     time.Duration(timeout * float64(time.Second)),
				Description: description,
			})
			if err := printJSON(cmd.OutOrStdout(), res); err != nil {
				return err
			}
			return res.Err()
		},
	}
	f := cmd.Flags()
	f.BoolVar(&confirmed, "confirmed", false, "acknowledge needs-confirmation findings")
	f.StringVar(&contextFile, "context", "", "JSON file of variables to bind before the script runs")
	f.StringVarP(&description, "description", "d", "", "description stored with the session log entry")
	f.Float64Var(&timeout, "timeout", 0, "advisory time budget in seconds")
	return cmd
}

func newValidateCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "validate [file|-]",
		Short: "Parse and lint a script without running it",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			src, err := readSource(cmd, args)
			if err != nil {
				return err
			}
			eng, err := buildEngine(opts.cfg, opts.logger)
			if err != nil {
				return err
			}
			defer eng.Close()

			res := eng.executor.ValidateCode(src)
			if err := printJSON(cmd.OutOrStdout(), res); err != nil {
				return err
			}
			if !res.Valid {
				return errNotValid
			}
			return nil
		},
	}
}

func newScanCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "scan [file|-]",
		Short: "Report rigor findings for a script at the configured level",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			src, err := readSource(cmd, args)
			if err != nil {
				return err
			}
			scanner := policy.NewDefaultScanner(opts.cfg.Level())
			if err := opts.cfg.Apply(scanner); err != nil {
				return err
			}
			res := scanner.Check(src)
			out := struct {
				Level policy.Level `json:"level"`
				policy.ScanResult
				CriticalPending []string `json:"critical_pending,omitempty"`
			}{scanner.Level(), res, res.CriticalPending()}
			if err := printJSON(cmd.OutOrStdout(), out); err != nil {
				return err
			}
			if !res.Passed() {
				return errScanFailed
			}
			return nil
		},
	}
}

func newExportCmd(opts *options) *cobra.Command {
	var name string
	cmd := &cobra.Command{
		Use:   "export [file|-]",
		Short: "Save a curated script as the reproducible analysis",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			src, err := readSource(cmd, args)
			if err != nil {
				return err
			}
			eng, err := buildEngine(opts.cfg, opts.logger)
			if err != nil {
				return err
			}
			defer eng.Close()

			res := eng.executor.SaveReproducibleScriptTo(src, name, "")
			if err := printJSON(cmd.OutOrStdout(), res); err != nil {
				return err
			}
			if !res.Success {
				return fmt.Errorf("%w: %w", errExportFails, res.Err())
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&name, "name", "n", "", "file name inside the output directory")
	return cmd
}

func newLogCmd(opts *options) *cobra.Command {
	var list bool
	cmd := &cobra.Command{
		Use:   "log [session-id]",
		Short: "Print a stored session audit trail",
		Long: `Log reads the audit database named by audit_db. Without an argument it
prints the most recent session; --list prints one line per session.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if opts.cfg.AuditDB == "" {
				return errNoAuditDB
			}
			store, err := auditstore.Open(opts.cfg.AuditDB)
			if err != nil {
				return err
			}
			defer store.Close()

			ctx := cmd.Context()
			if list {
				sessions, err := store.Sessions(ctx)
				if err != nil {
					return err
				}
				tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
				fmt.Fprintln(tw, "SESSION\tFIRST STEP\tLAST STEP\tSTEPS\tFAILED")
				for _, s := range sessions {
					fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%d\n", s.ID,
						s.FirstStep.Format("2006-01-02 15:04:05"),
						s.LastStep.Format("2006-01-02 15:04:05"),
						s.TotalSteps, s.Failed)
				}
				return tw.Flush()
			}

			id := ""
			if len(args) == 1 {
				id = args[0]
			} else if id, err = store.Latest(ctx); err != nil {
				return err
			}
			r, err := store.Retrieve(ctx, id)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), r)
		},
	}
	cmd.Flags().BoolVarP(&list, "list", "l", false, "list stored sessions")
	return cmd
}

func newToolsCmd(opts *options) *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "tools [query]",
		Short: "List or search the tools the server publishes",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			eng, err := buildEngine(opts.cfg, opts.logger)
			if err != nil {
				return err
			}
			defer eng.Close()

			idx := index.NewInMemoryIndex()
			docs := tooldoc.NewInMemoryStore(tooldoc.StoreOptions{Index: idx})
			var ids []string
			for _, b := range eng.registry.ListEnabled() {
				got, err := toolset.Publish(cmd.Context(), idx, docs, b)
				if err != nil {
					return err
				}
				ids = append(ids, got...)
			}

			out := cmd.OutOrStdout()
			if len(args) == 0 {
				for _, id := range ids {
					doc, err := docs.DescribeTool(id, tooldoc.DetailSummary)
					if err != nil {
						return err
					}
					fmt.Fprintf(out, "%s\t%s\n", id, doc.Summary)
				}
				return nil
			}
			results, err := idx.Search(args[0], limit)
			if err != nil {
				return err
			}
			for _, r := range results {
				fmt.Fprintf(out, "%s\t%s\n", r.ID, r.ShortDescription)
			}
			return nil
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 10, "maximum number of search results")
	return cmd
}

// readSource reads the script named by args[0], or stdin when there is no
// argument or it is "-".
func readSource(cmd *cobra.Command, args []string) (string, error) {
	if len(args) == 0 || args[0] == "-" {
		b, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return "", fmt.Errorf("read stdin: %w", err)
		}
		return string(b), nil
	}
	b, err := os.ReadFile(args[0])
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func readVars(path string) (map[string]any, error) {
	if path == "" {
		return nil, nil
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var vars map[string]any
	if err := json.Unmarshal(b, &vars); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return vars, nil
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
