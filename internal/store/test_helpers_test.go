package store

import (
	"path/filepath"
	"testing"
)

// createTestStore creates a store backed by a temp-dir database.
func createTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// createTestRun returns a run record with plausible defaults.
func createTestRun(id, kernel string) Run {
	return Run{
		ID:            id,
		Kernel:        kernel,
		KernelHash:    "test-hash",
		EngineVersion: "0.1.0",
		Mode:          "global",
	}
}

// createTestEdge returns an edge record for a run.
func createTestEdge(runID, source, target, variable string) Edge {
	return Edge{
		RunID:    runID,
		Source:   source,
		Target:   target,
		Variable: variable,
		Kind:     "read_after_write",
		Relation: "{ [i] -> [i'] : i' = i - 1 }",
	}
}
