package cli

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/tbracht/weft/internal/store"
)

// ReportOptions holds flags for the report command.
type ReportOptions struct {
	*RootOptions
	Database string
	Kernel   string
}

// RunReport holds one recorded run with its edges and rendered report.
type RunReport struct {
	Run    store.Run    `json:"run"`
	Edges  []store.Edge `json:"edges"`
	Report string       `json:"report"`
}

// RunListing holds the run summaries recorded in a database.
type RunListing struct {
	Runs []store.Run `json:"runs"`
}

// NewReportCommand creates the report command.
func NewReportCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ReportOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "report",
		Short: "Print recorded analysis runs",
		Long: `Print analysis runs recorded by analyze --db.

Without --kernel, lists every recorded run. With --kernel, prints the
latest run for that kernel: run metadata, the recorded dependency edges
and the rendered report. --verbose adds the instance relation under
each edge.

Examples:
  weft report --db ./weft.db
  weft report --db ./weft.db --kernel copychain
  weft report --db ./weft.db --kernel copychain --format json`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runReport(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite database (required)")
	_ = cmd.MarkFlagRequired("db")
	cmd.Flags().StringVar(&opts.Kernel, "kernel", "", "print the latest run for this kernel")

	return cmd
}

func runReport(opts *ReportOptions, cmd *cobra.Command) error {
	// Opening a missing database would create an empty one; report is
	// read-only, so check first.
	if _, err := os.Stat(opts.Database); os.IsNotExist(err) {
		return NewExitError(ExitCommandError, fmt.Sprintf("database not found: %s", opts.Database))
	}

	st, err := store.Open(opts.Database)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to open database", err)
	}
	defer st.Close()

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	if opts.Kernel == "" {
		return reportRunListing(ctx, st, opts, cmd)
	}
	return reportLatestRun(ctx, st, opts, cmd)
}

func reportRunListing(ctx context.Context, st *store.Store, opts *ReportOptions, cmd *cobra.Command) error {
	runs, err := st.ListRuns(ctx)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to list runs", err)
	}

	if opts.Format == "json" {
		return outputReportJSON(cmd, RunListing{Runs: runs})
	}

	w := cmd.OutOrStdout()
	if len(runs) == 0 {
		fmt.Fprintln(w, "No runs recorded.")
		return nil
	}

	fmt.Fprintf(w, "Runs (%d):\n", len(runs))
	for _, r := range runs {
		fmt.Fprintf(w, "  %s  %s (%s, engine %s, hash %s)\n",
			r.ID, r.Kernel, r.Mode, r.EngineVersion, truncateHash(r.KernelHash))
	}
	return nil
}

func reportLatestRun(ctx context.Context, st *store.Store, opts *ReportOptions, cmd *cobra.Command) error {
	run, err := st.LatestRun(ctx, opts.Kernel)
	if errors.Is(err, sql.ErrNoRows) {
		return NewExitError(ExitCommandError, fmt.Sprintf("no runs recorded for kernel %q", opts.Kernel))
	}
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to read run", err)
	}

	edges, err := st.ReadEdges(ctx, run.ID)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to read edges", err)
	}

	report, err := st.ReadReport(ctx, run.ID)
	if errors.Is(err, sql.ErrNoRows) {
		report = ""
	} else if err != nil {
		return WrapExitError(ExitCommandError, "failed to read report", err)
	}

	result := RunReport{Run: run, Edges: edges, Report: report}
	if opts.Format == "json" {
		return outputReportJSON(cmd, result)
	}
	return outputRunReportText(cmd, result, opts.Verbose)
}

// outputReportJSON outputs a report result as JSON.
func outputReportJSON(cmd *cobra.Command, data interface{}) error {
	response := CLIResponse{
		Status: "ok",
		Data:   data,
	}

	encoder := json.NewEncoder(cmd.OutOrStdout())
	encoder.SetIndent("", "  ")
	return encoder.Encode(response)
}

// outputRunReportText outputs one recorded run as text.
func outputRunReportText(cmd *cobra.Command, result RunReport, verbose bool) error {
	w := cmd.OutOrStdout()

	fmt.Fprintf(w, "Run: %s\n", result.Run.ID)
	fmt.Fprintf(w, "Kernel: %s (%s, engine %s)\n", result.Run.Kernel, result.Run.Mode, result.Run.EngineVersion)
	fmt.Fprintf(w, "Hash: %s\n", result.Run.KernelHash)
	fmt.Fprintln(w)

	// Edges section
	fmt.Fprintln(w, "=== Edges ===")
	if len(result.Edges) == 0 {
		fmt.Fprintln(w, "  (none)")
	} else {
		for _, e := range result.Edges {
			formatEdgeLine(w, e, verbose)
		}
	}
	fmt.Fprintln(w)

	// Report section
	fmt.Fprintln(w, "=== Report ===")
	fmt.Fprint(w, result.Report)

	return nil
}

// formatEdgeLine formats a single edge for text output.
func formatEdgeLine(w io.Writer, e store.Edge, verbose bool) {
	if e.Variable == "" {
		fmt.Fprintf(w, "  %s -> %s\n", e.Source, e.Target)
	} else {
		fmt.Fprintf(w, "  %s -> %s on %q (%s)\n", e.Source, e.Target, e.Variable, e.Kind)
	}
	if verbose {
		fmt.Fprintf(w, "       %s\n", e.Relation)
	}
}

// truncateHash shortens a content hash for display.
func truncateHash(h string) string {
	if len(h) <= 16 {
		return h
	}
	return h[:8] + "..." + h[len(h)-8:]
}
