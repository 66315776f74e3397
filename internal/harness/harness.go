package harness

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/tbracht/weft/internal/compiler"
	"github.com/tbracht/weft/internal/dependency"
	"github.com/tbracht/weft/internal/kernel"
	"github.com/tbracht/weft/internal/store"
)

// DefaultRunID is the run id scenarios record under when they do not
// set one. A fixed id keeps run records identical across executions.
const DefaultRunID = "test-run-default"

// Run executes a scenario and returns the result.
//
// Each scenario runs against a fresh in-memory database for isolation.
//
// Execution flow:
//  1. Create fresh in-memory database
//  2. Compile the kernel CUE file and select the scenario's kernel
//  3. Run the analysis pipeline in the scenario's mode
//  4. Record the run, its edges and its report
//  5. Evaluate assertions against the recorded edges and the report
func Run(scenario *Scenario) (*Result, error) {
	st, err := store.Open(":memory:")
	if err != nil {
		return nil, fmt.Errorf("failed to create in-memory store: %w", err)
	}
	defer st.Close()

	analyzed, err := analyze(scenario)
	if err != nil {
		return nil, err
	}
	report := dependency.ReportDependencies(analyzed)

	runID := scenario.RunID
	if runID == "" {
		runID = DefaultRunID
	}
	hash, err := analyzed.Hash()
	if err != nil {
		return nil, fmt.Errorf("failed to hash kernel: %w", err)
	}

	ctx := context.Background()
	run := store.Run{
		ID:            runID,
		Kernel:        analyzed.Name,
		KernelHash:    hash,
		EngineVersion: "test",
		Mode:          pipelineOf(scenario),
	}
	if _, err := st.WriteAnalysis(ctx, run, store.CollectEdges(runID, analyzed), report); err != nil {
		return nil, fmt.Errorf("failed to record analysis: %w", err)
	}

	// Read edges back so assertions see exactly what a consumer of the
	// store sees, in its order.
	edges, err := st.ReadEdges(ctx, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to read edges: %w", err)
	}

	result := NewResult()
	result.Edges = edges
	result.Report = report
	for _, msg := range EvaluateAssertions(result, scenario.Assertions) {
		result.AddError(msg)
	}
	return result, nil
}

// analyze compiles the scenario's kernel and runs the pipeline in the
// scenario's mode.
func analyze(scenario *Scenario) (kernel.Kernel, error) {
	kernels, err := compiler.CompileFile(scenario.Kernel)
	if err != nil {
		return kernel.Kernel{}, fmt.Errorf("failed to compile kernel file: %w", err)
	}
	k, err := selectKernel(kernels, scenario.KernelName)
	if err != nil {
		return kernel.Kernel{}, err
	}

	opts := dependency.Options{
		// Suppress analysis logs in tests.
		Logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	if scenario.BestEffort {
		opts.OnUndecidable = dependency.UndecidableSkip
	}

	switch pipelineOf(scenario) {
	case PipelineGlobal:
		return dependency.ComputeDataDependencies(k, opts)
	case PipelineSeeded:
		seeded, err := dependency.SeedLexicographicOrder(k)
		if err != nil {
			return kernel.Kernel{}, err
		}
		return dependency.RefineSeededDependencies(seeded, opts)
	case PipelineSeedOnly:
		return dependency.SeedLexicographicOrder(k)
	default:
		return kernel.Kernel{}, fmt.Errorf("unknown pipeline %q", scenario.Pipeline)
	}
}

// pipelineOf returns the scenario's pipeline mode, defaulted.
func pipelineOf(s *Scenario) string {
	if s.Pipeline == "" {
		return PipelineGlobal
	}
	return s.Pipeline
}

// selectKernel picks the scenario's kernel out of the compiled file.
// Without a name the file must define exactly one kernel.
func selectKernel(kernels []*kernel.Kernel, name string) (kernel.Kernel, error) {
	if name == "" {
		if len(kernels) != 1 {
			names := make([]string, len(kernels))
			for i, k := range kernels {
				names[i] = k.Name
			}
			return kernel.Kernel{}, fmt.Errorf("kernel file defines %d kernels (%s); set kernel_name",
				len(kernels), strings.Join(names, ", "))
		}
		return *kernels[0], nil
	}
	for _, k := range kernels {
		if k.Name == name {
			return *k, nil
		}
	}
	return kernel.Kernel{}, fmt.Errorf("kernel %q not found in file", name)
}
