package store

import (
	"github.com/tbracht/weft/internal/kernel"
)

// CollectEdges flattens a kernel's happens-after edges into rows under
// the given run id. Statements contribute in program order, each
// statement's edges in target-then-variable order, so the rows are
// deterministic for a given kernel. A kernel without edges yields an
// empty, non-nil slice.
func CollectEdges(runID string, k kernel.Kernel) []Edge {
	edges := []Edge{}
	for _, s := range k.Statements {
		for _, key := range s.EdgeKeys() {
			ha := s.HappensAfter[key]
			edges = append(edges, Edge{
				RunID:    runID,
				Source:   s.ID,
				Target:   key.Target,
				Variable: ha.Variable,
				Kind:     string(ha.Kind),
				Relation: ha.Instances.String(),
			})
		}
	}
	return edges
}
