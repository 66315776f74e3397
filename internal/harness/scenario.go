package harness

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Scenario defines a conformance test scenario: one kernel, one
// pipeline mode, and assertions over the dependence edges and report
// the analysis produces.
type Scenario struct {
	// Name uniquely identifies this scenario. It also names the golden
	// file when the scenario runs under RunWithGolden.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Kernel is the path to the CUE kernel file to compile.
	// Relative paths resolve against the process working directory,
	// or against the base path with LoadScenarioWithBasePath.
	Kernel string `yaml:"kernel"`

	// KernelName selects one kernel when the file defines several.
	// May be empty when the file defines exactly one.
	KernelName string `yaml:"kernel_name,omitempty"`

	// Pipeline selects the analysis mode:
	//   - "global" (default): data dependences over full program order
	//   - "seeded": lexicographic seeding, then per-variable refinement
	//   - "seed-only": lexicographic seeding alone
	Pipeline string `yaml:"pipeline,omitempty"`

	// BestEffort makes extraction skip undecidable accesses instead of
	// failing the run. Edges for tainted pairs understate orderings.
	BestEffort bool `yaml:"best_effort,omitempty"`

	// RunID is an optional fixed run id for the recorded analysis.
	// If empty, defaults to "test-run-default" for deterministic
	// golden file comparison.
	RunID string `yaml:"run_id,omitempty"`

	// Assertions validate the resulting edges and report.
	// Supported types: edge, no_edge, edge_count, report_contains
	Assertions []Assertion `yaml:"assertions"`
}

// Pipeline mode names accepted by Scenario.Pipeline.
const (
	PipelineGlobal   = "global"
	PipelineSeeded   = "seeded"
	PipelineSeedOnly = "seed-only"
)

// Assertion validates the produced edges or the rendered report.
type Assertion struct {
	// Type specifies the assertion type:
	// - "edge": an edge with the given coordinates exists
	// - "no_edge": no edge with the given coordinates exists
	// - "edge_count": the filtered edge set has exactly Count members
	// - "report_contains": the rendered report contains Text
	Type string `yaml:"type"`

	// Source is the later statement carrying the edge (edge, no_edge;
	// optional filter for edge_count).
	Source string `yaml:"source,omitempty"`

	// Target is the earlier statement the edge points at (edge,
	// no_edge; optional filter for edge_count).
	Target string `yaml:"target,omitempty"`

	// Variable narrows the match to one edge of a statement pair.
	// Omitted matches any variable; an explicit empty string matches
	// the structural edge.
	Variable *string `yaml:"variable,omitempty"`

	// Kind is the expected dependency kind: read_after_write,
	// write_after_read or write_after_write (edge; optional filter for
	// edge_count).
	Kind string `yaml:"kind,omitempty"`

	// Relation is the expected canonical relation text, matched
	// exactly (edge; optional filter for edge_count).
	Relation string `yaml:"relation,omitempty"`

	// Count is the expected number of matching edges (edge_count).
	Count int `yaml:"count,omitempty"`

	// Text is the expected report substring (report_contains).
	Text string `yaml:"text,omitempty"`
}

// Assertion type constants.
const (
	AssertEdge           = "edge"
	AssertNoEdge         = "no_edge"
	AssertEdgeCount      = "edge_count"
	AssertReportContains = "report_contains"
)

// LoadScenario reads and parses a scenario YAML file.
// Returns an error if the file doesn't exist, is malformed,
// contains unknown fields (typos), or is missing required fields.
func LoadScenario(path string) (*Scenario, error) {
	return LoadScenarioWithBasePath(path, "")
}

// LoadScenarioWithBasePath reads and parses a scenario YAML file,
// resolving the kernel path relative to the provided base path. This is
// useful when scenario files reference kernels using relative paths.
func LoadScenarioWithBasePath(path, basePath string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}

	// Parse YAML with strict field validation (catches typos like
	// "assertion:" vs "assertions:")
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	// Resolve the kernel path relative to the base path BEFORE validation
	if scenario.Kernel != "" && basePath != "" && !filepath.IsAbs(scenario.Kernel) {
		scenario.Kernel = filepath.Join(basePath, scenario.Kernel)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}

	return &scenario, nil
}

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}

	if s.Description == "" {
		return fmt.Errorf("description is required")
	}

	if s.Kernel == "" {
		return fmt.Errorf("kernel is required")
	}
	if _, err := os.Stat(s.Kernel); os.IsNotExist(err) {
		return fmt.Errorf("kernel file not found: %s", s.Kernel)
	}

	switch s.Pipeline {
	case "", PipelineGlobal, PipelineSeeded, PipelineSeedOnly:
	default:
		return fmt.Errorf("unknown pipeline %q (want global, seeded or seed-only)", s.Pipeline)
	}

	if len(s.Assertions) == 0 {
		return fmt.Errorf("assertions list is required and must be non-empty")
	}

	for i, assertion := range s.Assertions {
		if err := validateAssertion(i, &assertion); err != nil {
			return err
		}
	}

	return nil
}

// validateAssertion validates a single assertion based on its type.
func validateAssertion(index int, a *Assertion) error {
	if a.Type == "" {
		return fmt.Errorf("assertions[%d]: type is required", index)
	}

	switch a.Kind {
	case "", "read_after_write", "write_after_read", "write_after_write":
	default:
		return fmt.Errorf("assertions[%d]: unknown dependency kind %q", index, a.Kind)
	}

	switch a.Type {
	case AssertEdge:
		if a.Source == "" {
			return fmt.Errorf("assertions[%d]: source is required for edge", index)
		}
		if a.Target == "" {
			return fmt.Errorf("assertions[%d]: target is required for edge", index)
		}
	case AssertNoEdge:
		if a.Source == "" {
			return fmt.Errorf("assertions[%d]: source is required for no_edge", index)
		}
		if a.Target == "" {
			return fmt.Errorf("assertions[%d]: target is required for no_edge", index)
		}
	case AssertEdgeCount:
		if a.Count < 0 {
			return fmt.Errorf("assertions[%d]: count must be non-negative for edge_count", index)
		}
	case AssertReportContains:
		if a.Text == "" {
			return fmt.Errorf("assertions[%d]: text is required for report_contains", index)
		}
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}

	return nil
}
