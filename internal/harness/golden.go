package harness

import (
	"fmt"
	"strings"
	"testing"

	"github.com/sebdah/goldie/v2"
)

// ReportSnapshot captures the rendered report of a scenario execution
// for golden comparison.
type ReportSnapshot struct {
	ScenarioName string
	Pipeline     string
	Report       string
}

// render produces the golden file body: a short header followed by the
// report text exactly as the engine renders it.
func (s *ReportSnapshot) render() []byte {
	var b strings.Builder
	fmt.Fprintf(&b, "scenario: %s\n", s.ScenarioName)
	fmt.Fprintf(&b, "pipeline: %s\n", s.Pipeline)
	b.WriteString("\n")
	b.WriteString(s.Report)
	return []byte(b.String())
}

// RunWithGolden executes a scenario and compares its report against a
// golden file stored in testdata/golden/{scenario.Name}.golden.
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
//
// Golden files serve as the source of truth for expected report output.
//
// Returns error if scenario execution fails. Test failure (via goldie)
// occurs if the report doesn't match the golden file.
func RunWithGolden(t *testing.T, scenario *Scenario) error {
	t.Helper()

	result, err := Run(scenario)
	if err != nil {
		return err
	}

	AssertGolden(t, scenario.Name, pipelineOf(scenario), result)
	return nil
}

// AssertGolden compares an already-obtained result's report against a
// golden file without re-running the scenario.
func AssertGolden(t *testing.T, scenarioName, pipeline string, result *Result) {
	t.Helper()

	snapshot := ReportSnapshot{
		ScenarioName: scenarioName,
		Pipeline:     pipeline,
		Report:       result.Report,
	}

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, scenarioName, snapshot.render())
}
