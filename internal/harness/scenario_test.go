package harness

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// writeScenario writes scenario YAML to a temp file and returns its path.
func writeScenario(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "scenario.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

// kernelFile is a real kernel fixture, relative to the package
// directory tests run in.
const kernelFile = "testdata/kernels/copychain.cue"

func TestLoadScenario_ValidFile(t *testing.T) {
	path := writeScenario(t, `
name: test_scenario
description: "Flow dependence through array a"
kernel: `+kernelFile+`
pipeline: seeded
best_effort: true
run_id: run-42
assertions:
  - type: edge
    source: s2
    target: s1
    variable: a
    kind: read_after_write
  - type: report_contains
    text: "s2 depends on"
`)

	scenario, err := LoadScenario(path)
	require.NoError(t, err)

	assert.Equal(t, "test_scenario", scenario.Name)
	assert.Equal(t, "Flow dependence through array a", scenario.Description)
	assert.Equal(t, kernelFile, scenario.Kernel)
	assert.Equal(t, PipelineSeeded, scenario.Pipeline)
	assert.True(t, scenario.BestEffort)
	assert.Equal(t, "run-42", scenario.RunID)
	require.Len(t, scenario.Assertions, 2)
	require.NotNil(t, scenario.Assertions[0].Variable)
	assert.Equal(t, "a", *scenario.Assertions[0].Variable)
	assert.Equal(t, "read_after_write", scenario.Assertions[0].Kind)
	assert.Equal(t, "s2 depends on", scenario.Assertions[1].Text)
}

func TestLoadScenario_VariableDistinguishesEmptyFromOmitted(t *testing.T) {
	path := writeScenario(t, `
name: variables
description: "structural vs wildcard variable"
kernel: `+kernelFile+`
assertions:
  - type: edge
    source: s2
    target: s1
    variable: ""
  - type: edge
    source: s2
    target: s1
`)

	scenario, err := LoadScenario(path)
	require.NoError(t, err)

	require.Len(t, scenario.Assertions, 2)
	require.NotNil(t, scenario.Assertions[0].Variable)
	assert.Equal(t, "", *scenario.Assertions[0].Variable)
	assert.Nil(t, scenario.Assertions[1].Variable)
}

func TestLoadScenario_MissingFile(t *testing.T) {
	_, err := LoadScenario(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read scenario file")
}

func TestLoadScenario_InvalidYAML(t *testing.T) {
	path := writeScenario(t, "name: [unclosed")
	_, err := LoadScenario(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse YAML")
}

func TestLoadScenario_UnknownFieldRejected(t *testing.T) {
	// "assertion" (singular) is a typo for "assertions".
	path := writeScenario(t, `
name: typo
description: "typo scenario"
kernel: `+kernelFile+`
assertion:
  - type: edge_count
    count: 0
`)
	_, err := LoadScenario(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse YAML")
}

func TestLoadScenario_MissingName(t *testing.T) {
	path := writeScenario(t, `
description: "no name"
kernel: `+kernelFile+`
assertions:
  - type: edge_count
    count: 0
`)
	_, err := LoadScenario(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "name is required")
}

func TestLoadScenario_MissingDescription(t *testing.T) {
	path := writeScenario(t, `
name: no_description
kernel: `+kernelFile+`
assertions:
  - type: edge_count
    count: 0
`)
	_, err := LoadScenario(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "description is required")
}

func TestLoadScenario_MissingKernel(t *testing.T) {
	path := writeScenario(t, `
name: no_kernel
description: "no kernel"
assertions:
  - type: edge_count
    count: 0
`)
	_, err := LoadScenario(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "kernel is required")
}

func TestLoadScenario_KernelFileNotFound(t *testing.T) {
	path := writeScenario(t, `
name: missing_kernel
description: "kernel path does not exist"
kernel: testdata/kernels/nope.cue
assertions:
  - type: edge_count
    count: 0
`)
	_, err := LoadScenario(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "kernel file not found")
}

func TestLoadScenario_UnknownPipeline(t *testing.T) {
	path := writeScenario(t, `
name: bad_pipeline
description: "pipeline typo"
kernel: `+kernelFile+`
pipeline: sedeed
assertions:
  - type: edge_count
    count: 0
`)
	_, err := LoadScenario(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), `unknown pipeline "sedeed"`)
}

func TestLoadScenario_NoAssertions(t *testing.T) {
	path := writeScenario(t, `
name: no_assertions
description: "assertions missing"
kernel: `+kernelFile+`
`)
	_, err := LoadScenario(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "assertions list is required")
}

func TestLoadScenarioWithBasePath_ResolvesKernel(t *testing.T) {
	path := writeScenario(t, `
name: base_path
description: "kernel path relative to base"
kernel: kernels/copychain.cue
assertions:
  - type: edge_count
    count: 1
`)

	scenario, err := LoadScenarioWithBasePath(path, "testdata")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join("testdata", "kernels", "copychain.cue"), scenario.Kernel)
}

func TestLoadScenarioWithBasePath_KeepsAbsolutePath(t *testing.T) {
	abs, err := filepath.Abs(kernelFile)
	require.NoError(t, err)

	path := writeScenario(t, `
name: abs_path
description: "absolute kernel path is untouched"
kernel: `+abs+`
assertions:
  - type: edge_count
    count: 1
`)

	scenario, err := LoadScenarioWithBasePath(path, "testdata")
	require.NoError(t, err)
	assert.Equal(t, abs, scenario.Kernel)
}

func TestValidateAssertion_TypeRequired(t *testing.T) {
	err := validateAssertion(0, &Assertion{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "assertions[0]: type is required")
}

func TestValidateAssertion_EdgeRequiresEndpoints(t *testing.T) {
	err := validateAssertion(1, &Assertion{Type: AssertEdge, Target: "s1"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "assertions[1]: source is required for edge")

	err = validateAssertion(2, &Assertion{Type: AssertEdge, Source: "s2"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "assertions[2]: target is required for edge")
}

func TestValidateAssertion_NoEdgeRequiresEndpoints(t *testing.T) {
	err := validateAssertion(0, &Assertion{Type: AssertNoEdge, Source: "s2"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "target is required for no_edge")
}

func TestValidateAssertion_NegativeCount(t *testing.T) {
	err := validateAssertion(0, &Assertion{Type: AssertEdgeCount, Count: -1})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "count must be non-negative")
}

func TestValidateAssertion_ZeroCountAllowed(t *testing.T) {
	assert.NoError(t, validateAssertion(0, &Assertion{Type: AssertEdgeCount}))
}

func TestValidateAssertion_ReportContainsRequiresText(t *testing.T) {
	err := validateAssertion(0, &Assertion{Type: AssertReportContains})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "text is required for report_contains")
}

func TestValidateAssertion_UnknownType(t *testing.T) {
	err := validateAssertion(3, &Assertion{Type: "edge_exists"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), `assertions[3]: unknown assertion type "edge_exists"`)
}

func TestValidateAssertion_UnknownKind(t *testing.T) {
	err := validateAssertion(0, &Assertion{Type: AssertEdge, Source: "s2", Target: "s1", Kind: "raw"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), `unknown dependency kind "raw"`)
}
