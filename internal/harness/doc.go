// Package harness provides conformance testing for weft kernels.
//
// The harness compiles a kernel, runs the dependence analysis pipeline,
// records the run in a store, and validates assertions over the
// resulting edges and report.
//
// # Scenario Format
//
// Scenarios are defined in YAML files with the following structure:
//
//	name: scenario_name
//	description: "What this scenario validates"
//	kernel: path/to/kernel.cue
//	kernel_name: stencil     # optional when the file defines one kernel
//	pipeline: global         # global (default), seeded or seed-only
//	best_effort: false       # skip undecidable accesses instead of failing
//	assertions:
//	  - type: edge
//	    source: s2
//	    target: s1
//	    variable: a
//	    kind: read_after_write
//	    relation: "{ [i] -> [i'] : i = i' and i >= 0 and i <= 9 }"
//	  - type: report_contains
//	    text: "s2 depends on"
//
// # Assertion Types
//
// The following assertion types are supported:
//
//   - edge: Verifies an edge with the given coordinates was produced
//   - no_edge: Verifies no edge with the given coordinates was produced
//   - edge_count: Verifies the filtered edge set has exactly N members
//   - report_contains: Verifies the rendered report contains a substring
//
// Unset edge coordinates are wildcards. Variable is special: omitting it
// matches any edge of the pair, while an explicit empty string matches
// the structural edge alone.
//
// # Deterministic Testing
//
// Every scenario executes against a fresh in-memory SQLite database
// with a fixed run id (scenario run_id, or "test-run-default"), so run
// records, edge rows and reports are identical across runs and golden
// files stay stable.
//
// # Usage
//
// Load a scenario:
//
//	scenario, err := harness.LoadScenario("testdata/scenarios/copychain.yaml")
//	if err != nil {
//	    log.Fatal(err)
//	}
//
// Execute it:
//
//	result, err := harness.Run(scenario)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	if !result.Pass {
//	    for _, msg := range result.Errors {
//	        log.Println(msg)
//	    }
//	}
package harness
