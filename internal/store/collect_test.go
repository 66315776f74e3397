package store

import (
	"context"
	"testing"

	"github.com/tbracht/weft/internal/kernel"
	"github.com/tbracht/weft/internal/rel"
	"github.com/tbracht/weft/internal/testutil"
)

// analyzedPair returns the copy-chain kernel with one structural and one
// data edge hung on s2, the mix a refined analysis produces.
func analyzedPair(t *testing.T) kernel.Kernel {
	t.Helper()
	k := testutil.CopyChainKernel(t)
	s1, ok := k.Statement("s1")
	if !ok {
		t.Fatal("kernel has no s1")
	}
	s2, ok := k.Statement("s2")
	if !ok {
		t.Fatal("kernel has no s2")
	}

	sp, err := rel.NewSpace(nil, []string{"i"}, []string{"i'"})
	if err != nil {
		t.Fatalf("failed to build space: %v", err)
	}
	u := rel.UniverseMap(sp)
	edges := map[kernel.EdgeKey]kernel.HappensAfter{
		{Target: "s1", Variable: "a"}: {Variable: "a", Kind: kernel.KindReadAfterWrite, Instances: u},
		{Target: "s1"}:                {Kind: kernel.KindNone, Instances: u},
	}
	k, err = k.WithStatements([]kernel.Statement{s1, s2.WithHappensAfter(edges)})
	if err != nil {
		t.Fatalf("failed to rebuild kernel: %v", err)
	}
	return k
}

func TestCollectEdges_OrderAndFields(t *testing.T) {
	edges := CollectEdges("run-1", analyzedPair(t))

	if len(edges) != 2 {
		t.Fatalf("expected 2 edges, got %d", len(edges))
	}

	// The structural edge sorts first: empty variable before "a".
	structural := Edge{
		RunID:    "run-1",
		Source:   "s2",
		Target:   "s1",
		Variable: "",
		Kind:     "",
		Relation: "{ [i] -> [i'] }",
	}
	if edges[0] != structural {
		t.Errorf("expected structural edge first, got %+v", edges[0])
	}

	data := Edge{
		RunID:    "run-1",
		Source:   "s2",
		Target:   "s1",
		Variable: "a",
		Kind:     "read_after_write",
		Relation: "{ [i] -> [i'] }",
	}
	if edges[1] != data {
		t.Errorf("expected data edge second, got %+v", edges[1])
	}
}

func TestCollectEdges_NoEdges(t *testing.T) {
	edges := CollectEdges("run-1", testutil.CopyChainKernel(t))

	if edges == nil {
		t.Fatal("expected non-nil slice for kernel without edges")
	}
	if len(edges) != 0 {
		t.Errorf("expected no edges, got %d", len(edges))
	}
}

func TestCollectEdges_RoundTripThroughStore(t *testing.T) {
	st := createTestStore(t)
	ctx := context.Background()

	run := createTestRun("run-1", "copychain")
	collected := CollectEdges(run.ID, analyzedPair(t))

	inserted, err := st.WriteAnalysis(ctx, run, collected, "report")
	if err != nil {
		t.Fatalf("WriteAnalysis failed: %v", err)
	}
	if !inserted {
		t.Fatal("expected analysis to be inserted")
	}

	got, err := st.ReadEdges(ctx, run.ID)
	if err != nil {
		t.Fatalf("ReadEdges failed: %v", err)
	}
	if len(got) != len(collected) {
		t.Fatalf("expected %d edges back, got %d", len(collected), len(got))
	}
	for i := range collected {
		if got[i] != collected[i] {
			t.Errorf("edge %d: expected %+v, got %+v", i, collected[i], got[i])
		}
	}
}
