package harness

import (
	"fmt"
	"strings"

	"github.com/tbracht/weft/internal/store"
)

// AssertionError is returned when an assertion fails.
// It includes detailed context to help debug the failure.
type AssertionError struct {
	Type     string       // Assertion type for categorization
	Expected string       // Human-readable expected outcome
	Actual   string       // Human-readable actual outcome
	Edges    []store.Edge // Edge set for context, set by edge assertions
	Report   string       // Rendered report for context, set by report assertions
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder

	// Header with assertion type
	fmt.Fprintf(&buf, "Assertion failed: %s\n", e.Type)

	// Expected vs Actual (most important info)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s\n", e.Actual)

	if e.Report != "" {
		fmt.Fprintf(&buf, "\nReport:\n%s", e.Report)
		return buf.String()
	}

	fmt.Fprintf(&buf, "\nEdges:\n")
	if len(e.Edges) == 0 {
		buf.WriteString("  (none)\n")
	}
	for i, edge := range e.Edges {
		fmt.Fprintf(&buf, "  [%d] %s\n", i+1, describeEdge(edge))
	}

	return buf.String()
}

// describeEdge renders one edge for failure messages.
func describeEdge(e store.Edge) string {
	if e.Variable == "" {
		return fmt.Sprintf("%s -> %s %s", e.Source, e.Target, e.Relation)
	}
	return fmt.Sprintf("%s -> %s on %q (%s) %s", e.Source, e.Target, e.Variable, e.Kind, e.Relation)
}

// describeAssertion renders the edge coordinates an assertion asks for.
func describeAssertion(a Assertion) string {
	parts := []string{fmt.Sprintf("edge %s -> %s", orAny(a.Source), orAny(a.Target))}
	if a.Variable != nil {
		if *a.Variable == "" {
			parts = append(parts, "structural")
		} else {
			parts = append(parts, fmt.Sprintf("on %q", *a.Variable))
		}
	}
	if a.Kind != "" {
		parts = append(parts, fmt.Sprintf("kind %s", a.Kind))
	}
	if a.Relation != "" {
		parts = append(parts, fmt.Sprintf("relation %s", a.Relation))
	}
	return strings.Join(parts, " ")
}

func orAny(s string) string {
	if s == "" {
		return "(any)"
	}
	return s
}

// matchEdge checks an edge against the assertion's coordinates.
// Unset fields match anything; an explicit empty variable matches the
// structural edge alone.
func matchEdge(e store.Edge, a Assertion) bool {
	if a.Source != "" && e.Source != a.Source {
		return false
	}
	if a.Target != "" && e.Target != a.Target {
		return false
	}
	if a.Variable != nil && e.Variable != *a.Variable {
		return false
	}
	if a.Kind != "" && e.Kind != a.Kind {
		return false
	}
	if a.Relation != "" && e.Relation != a.Relation {
		return false
	}
	return true
}

// assertEdge checks that some produced edge matches the assertion's
// coordinates.
func assertEdge(edges []store.Edge, assertion Assertion) error {
	for _, e := range edges {
		if matchEdge(e, assertion) {
			return nil
		}
	}

	return &AssertionError{
		Type:     AssertEdge,
		Expected: describeAssertion(assertion),
		Actual:   "not found among produced edges",
		Edges:    edges,
	}
}

// assertNoEdge checks that no produced edge matches the assertion's
// coordinates.
func assertNoEdge(edges []store.Edge, assertion Assertion) error {
	for _, e := range edges {
		if matchEdge(e, assertion) {
			return &AssertionError{
				Type:     AssertNoEdge,
				Expected: fmt.Sprintf("no %s", describeAssertion(assertion)),
				Actual:   fmt.Sprintf("found %s", describeEdge(e)),
				Edges:    edges,
			}
		}
	}

	return nil
}

// assertEdgeCount checks that exactly Count edges match the assertion's
// filters. With no filters it counts every produced edge.
func assertEdgeCount(edges []store.Edge, assertion Assertion) error {
	count := 0
	for _, e := range edges {
		if matchEdge(e, assertion) {
			count++
		}
	}

	if count != assertion.Count {
		return &AssertionError{
			Type:     AssertEdgeCount,
			Expected: fmt.Sprintf("%d edges matching %s", assertion.Count, describeAssertion(assertion)),
			Actual:   fmt.Sprintf("%d edges", count),
			Edges:    edges,
		}
	}

	return nil
}

// assertReportContains checks that the rendered report contains the
// assertion's text.
func assertReportContains(report string, assertion Assertion) error {
	if strings.Contains(report, assertion.Text) {
		return nil
	}

	return &AssertionError{
		Type:     AssertReportContains,
		Expected: fmt.Sprintf("report containing %q", assertion.Text),
		Actual:   "text not found in report",
		Report:   report,
	}
}

// EvaluateAssertions evaluates all assertions against the result.
// Returns a slice of error messages for failed assertions.
func EvaluateAssertions(result *Result, assertions []Assertion) []string {
	var errors []string

	for i, assertion := range assertions {
		var err error

		switch assertion.Type {
		case AssertEdge:
			err = assertEdge(result.Edges, assertion)
		case AssertNoEdge:
			err = assertNoEdge(result.Edges, assertion)
		case AssertEdgeCount:
			err = assertEdgeCount(result.Edges, assertion)
		case AssertReportContains:
			err = assertReportContains(result.Report, assertion)
		default:
			err = fmt.Errorf("assertion[%d]: unknown assertion type %q", i, assertion.Type)
		}

		if err != nil {
			errors = append(errors, err.Error())
		}
	}

	return errors
}
