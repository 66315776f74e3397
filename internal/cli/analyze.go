package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/tbracht/weft/internal/dependency"
	"github.com/tbracht/weft/internal/harness"
	"github.com/tbracht/weft/internal/kernel"
	"github.com/tbracht/weft/internal/store"
)

// AnalyzeOptions holds flags for the analyze command.
type AnalyzeOptions struct {
	*RootOptions
	Database   string
	Output     string
	BestEffort bool
	Seeded     bool
	SeedOnly   bool

	// RunIDs allows overriding the run id generator (for testing).
	// If nil, defaults to UUIDv7Generator.
	RunIDs store.RunIDGenerator
}

// KernelAnalysis holds the analysis outcome for one kernel.
type KernelAnalysis struct {
	Kernel string       `json:"kernel"`
	Hash   string       `json:"hash"`
	Mode   string       `json:"mode"`
	RunID  string       `json:"run_id,omitempty"`
	Edges  []store.Edge `json:"edges"`
	Report string       `json:"report"`
}

// AnalyzeResult holds the overall analyze command output.
type AnalyzeResult struct {
	Kernels []KernelAnalysis `json:"kernels"`
}

// NewAnalyzeCommand creates the analyze command.
func NewAnalyzeCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &AnalyzeOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "analyze <kernel-dir>",
		Short: "Compute kernel dependencies",
		Long: `Compile CUE kernels and compute their happens-before dependencies.

By default every statement pair is compared under program order (the
global pipeline). --seeded seeds adjacent-statement happens-after edges
first and refines them per variable; --seed-only stops after seeding
and reports the structural edges themselves.

An index expression with no affine form aborts the analysis unless
--best-effort is set, which drops the access and marks the statement/
variable pair tainted.

Exit codes:
  0 - Analysis succeeded
  1 - Analysis failed (undecidable access, inconsistent loop order, ...)
  2 - Command error (directory missing, kernels do not compile, ...)

Examples:
  weft analyze ./kernels
  weft analyze ./kernels --db ./weft.db
  weft analyze ./kernels --seeded --best-effort
  weft analyze ./kernels --format json -o report.txt`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAnalyze(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "record runs in this SQLite database")
	cmd.Flags().StringVarP(&opts.Output, "output", "o", "", "write the text report to a file")
	cmd.Flags().BoolVar(&opts.BestEffort, "best-effort", false, "skip undecidable accesses instead of aborting")
	cmd.Flags().BoolVar(&opts.Seeded, "seeded", false, "refine seeded program-order edges per variable")
	cmd.Flags().BoolVar(&opts.SeedOnly, "seed-only", false, "stop after seeding lexicographic program order")

	return cmd
}

func runAnalyze(opts *AnalyzeOptions, kernelDir string, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(), // Verbose logs go to stderr to avoid corrupting JSON
		Verbose:   opts.Verbose,
	}

	if opts.Seeded && opts.SeedOnly {
		return NewExitError(ExitCommandError, "--seeded and --seed-only are mutually exclusive")
	}

	// Pass logs go to stderr; --verbose turns on per-pair Debug output.
	logLevel := slog.LevelInfo
	if opts.Verbose {
		logLevel = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: logLevel}))

	loadResult, loadErrors := LoadKernels(kernelDir, LoadModeFailFast)
	if len(loadErrors) > 0 {
		var loadErr *LoadError
		if errors.As(loadErrors[0], &loadErr) {
			_ = formatter.Error(loadErr.Code, loadErr.locate(), nil)
			return NewExitError(ExitCommandError, fmt.Sprintf("%s: %s", loadErr.Code, loadErr.Message))
		}
		_ = formatter.Error(ErrCodeGeneric, loadErrors[0].Error(), nil)
		return NewExitError(ExitCommandError, loadErrors[0].Error())
	}

	formatter.VerboseLog("Found %d CUE file(s) in %s", loadResult.FileCount, kernelDir)

	// Open the database up front: a bad --db path should not burn a full
	// analysis first.
	var st *store.Store
	if opts.Database != "" {
		var err error
		st, err = store.Open(opts.Database)
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to open database", err)
		}
		defer func() {
			if closeErr := st.Close(); closeErr != nil {
				logger.Error("error closing database", "error", closeErr)
			}
		}()
	}

	runIDs := opts.RunIDs
	if runIDs == nil {
		runIDs = store.UUIDv7Generator{}
	}

	mode := analysisMode(opts)
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	result := AnalyzeResult{Kernels: make([]KernelAnalysis, 0, len(loadResult.Kernels))}
	for _, k := range loadResult.Kernels {
		formatter.VerboseLog("Analyzing kernel: %s", k.Name)

		analyzed, err := analyzeKernel(k, opts, logger)
		if err != nil {
			return outputAnalysisError(formatter, k.Name, err)
		}

		hash, err := analyzed.Hash()
		if err != nil {
			return WrapExitError(ExitCommandError, fmt.Sprintf("failed to hash kernel %q", k.Name), err)
		}
		report := dependency.ReportDependencies(analyzed)

		a := KernelAnalysis{
			Kernel: analyzed.Name,
			Hash:   hash,
			Mode:   mode,
			Edges:  store.CollectEdges("", analyzed),
			Report: report,
		}

		if st != nil {
			runID := runIDs.Generate()
			run := store.Run{
				ID:            runID,
				Kernel:        analyzed.Name,
				KernelHash:    hash,
				EngineVersion: kernel.EngineVersion,
				Mode:          mode,
			}
			if _, err := st.WriteAnalysis(ctx, run, store.CollectEdges(runID, analyzed), report); err != nil {
				return WrapExitError(ExitCommandError, fmt.Sprintf("failed to record analysis of kernel %q", k.Name), err)
			}
			logger.Info("analysis recorded", "kernel", analyzed.Name, "run", runID, "mode", mode)
			a.RunID = runID
		}

		result.Kernels = append(result.Kernels, a)
	}

	if opts.Output != "" {
		if err := writeReportFile(result, opts.Output); err != nil {
			_ = formatter.Error(ErrCodeWriteFailed, fmt.Sprintf("writing report file: %v", err), nil)
			return NewExitError(ExitCommandError, fmt.Sprintf("%s: writing report file failed", ErrCodeWriteFailed))
		}
	}

	return outputAnalyzeSuccess(formatter, result, opts)
}

// analyzeKernel runs the selected pipeline over one kernel.
func analyzeKernel(k kernel.Kernel, opts *AnalyzeOptions, logger *slog.Logger) (kernel.Kernel, error) {
	aopts := dependency.Options{Logger: logger}
	if opts.BestEffort {
		aopts.OnUndecidable = dependency.UndecidableSkip
	}

	switch {
	case opts.SeedOnly:
		return dependency.SeedLexicographicOrder(k)
	case opts.Seeded:
		seeded, err := dependency.SeedLexicographicOrder(k)
		if err != nil {
			return kernel.Kernel{}, err
		}
		return dependency.RefineSeededDependencies(seeded, aopts)
	default:
		return dependency.ComputeDataDependencies(k, aopts)
	}
}

// analysisMode names the pipeline selected by the flags.
func analysisMode(opts *AnalyzeOptions) string {
	switch {
	case opts.SeedOnly:
		return harness.PipelineSeedOnly
	case opts.Seeded:
		return harness.PipelineSeeded
	default:
		return harness.PipelineGlobal
	}
}

// outputAnalysisError reports a failed pipeline run. Analysis failures
// are properties of the input kernel, so they exit 1 like validation
// failures rather than 2.
func outputAnalysisError(formatter *OutputFormatter, kernelName string, err error) error {
	var ae *dependency.AnalysisError
	if errors.As(err, &ae) {
		_ = formatter.Error(string(ae.Code), ae.Error(), nil)
	} else {
		_ = formatter.Error(ErrCodeGeneric, err.Error(), nil)
	}
	return WrapExitError(ExitFailure, fmt.Sprintf("analysis of kernel %q failed", kernelName), err)
}

// outputAnalyzeSuccess outputs successful analysis results.
func outputAnalyzeSuccess(formatter *OutputFormatter, result AnalyzeResult, opts *AnalyzeOptions) error {
	if formatter.Format == "json" {
		return formatter.Success(result)
	}

	// Human-readable text output
	fmt.Fprintf(formatter.Writer, "✓ Analyzed %d kernel(s)\n\n", len(result.Kernels))
	for _, a := range result.Kernels {
		fmt.Fprintf(formatter.Writer, "kernel %s (%s)\n", a.Kernel, a.Mode)
		fmt.Fprint(formatter.Writer, a.Report)
		fmt.Fprintln(formatter.Writer)
	}

	if opts.Database != "" {
		fmt.Fprintf(formatter.Writer, "Recorded %d run(s) in %s\n", len(result.Kernels), opts.Database)
	}
	if opts.Output != "" {
		fmt.Fprintf(formatter.Writer, "Wrote report to %s\n", opts.Output)
	}

	return nil
}

// writeReportFile writes the concatenated text reports to a file.
func writeReportFile(result AnalyzeResult, filename string) error {
	var b strings.Builder
	for _, a := range result.Kernels {
		fmt.Fprintf(&b, "kernel %s (%s)\n", a.Kernel, a.Mode)
		b.WriteString(a.Report)
		b.WriteString("\n")
	}
	return os.WriteFile(filename, []byte(b.String()), 0644)
}
