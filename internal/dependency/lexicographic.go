package dependency

import (
	"slices"

	"github.com/tbracht/weft/internal/kernel"
	"github.com/tbracht/weft/internal/rel"
)

// SeedLexicographicOrder returns a copy of the kernel in which every
// statement after the first carries a structural happens-after edge to
// its predecessor in program order. The edge's instance relation pairs
// each instance of the later statement with the instances of the earlier
// one that precede it lexicographically on the inames the two statements
// share, or that agree on all of them: the predecessor is textually
// earlier, so the same iteration of it has already run. Existing edges
// are preserved.
//
// The seed deliberately over-orders: it relates every pair of statement
// instances the textual program runs in order, whether or not any data
// flows between them. Relaxation against extracted accesses narrows it.
func SeedLexicographicOrder(k kernel.Kernel) (kernel.Kernel, error) {
	statements := make([]kernel.Statement, len(k.Statements))
	copy(statements, k.Statements)
	for i := 1; i < len(statements); i++ {
		later, earlier := statements[i], statements[i-1]
		instances, err := precedes(k, later, earlier, true)
		if err != nil {
			return kernel.Kernel{}, err
		}
		edges := make(map[kernel.EdgeKey]kernel.HappensAfter, len(later.HappensAfter)+1)
		for key, ha := range later.HappensAfter {
			edges[key] = ha
		}
		edges[kernel.EdgeKey{Target: earlier.ID}] = kernel.HappensAfter{
			Kind:      kernel.KindNone,
			Instances: instances,
		}
		statements[i] = later.WithHappensAfter(edges)
	}
	return k.WithStatements(statements)
}

// precedes builds the relation from instances of later to the instances
// of earlier that run before them. Input dimensions are later's iteration
// vector, output dimensions earlier's with a prime suffix. The base
// ordering is strict lexicographic precedence on the shared inames; with
// orEqual set, instances equal on every shared iname are included as
// well, which is the reading for a target that is textually earlier in
// the program.
func precedes(k kernel.Kernel, later, earlier kernel.Statement, orEqual bool) (rel.Map, error) {
	domLater, err := k.DomainFor(later.Within)
	if err != nil {
		return rel.Map{}, NewRelationError(later.ID, err)
	}
	domEarlier, err := k.DomainFor(earlier.Within)
	if err != nil {
		return rel.Map{}, NewRelationError(earlier.ID, err)
	}
	shared, err := sharedOrder(later, domLater, earlier, domEarlier)
	if err != nil {
		return rel.Map{}, err
	}

	laterSet, err := domLater.Set.IntersectParams(k.Assumptions)
	if err != nil {
		return rel.Map{}, NewRelationError(later.ID, err)
	}
	earlierSet, err := domEarlier.Set.IntersectParams(k.Assumptions)
	if err != nil {
		return rel.Map{}, NewRelationError(earlier.ID, err)
	}
	earlierPrimed, err := earlierSet.WithDimNames(primed(domEarlier.Inames))
	if err != nil {
		return rel.Map{}, NewRelationError(earlier.ID, err)
	}
	cross, err := rel.FromDomainAndRange(laterSet, earlierPrimed)
	if err != nil {
		return rel.Map{}, NewRelationError(later.ID, err)
	}
	order, err := rel.LexLT(cross.Space(), primed(shared), shared)
	if err != nil {
		return rel.Map{}, NewRelationError(later.ID, err)
	}
	if orEqual {
		eq, err := rel.AllEqual(cross.Space(), primed(shared), shared)
		if err != nil {
			return rel.Map{}, NewRelationError(later.ID, err)
		}
		order, err = order.Union(eq)
		if err != nil {
			return rel.Map{}, NewRelationError(later.ID, err)
		}
	}
	out, err := cross.Intersect(order)
	if err != nil {
		return rel.Map{}, NewRelationError(later.ID, err)
	}
	return out, nil
}

// sharedOrder returns the inames common to both statements in nesting
// order. Both domains must list them in the same order; a loop that is
// outer in one statement and inner in the other has no single
// lexicographic reading.
func sharedOrder(later kernel.Statement, domLater kernel.Domain, earlier kernel.Statement, domEarlier kernel.Domain) ([]string, error) {
	var fromLater, fromEarlier []string
	for _, n := range domLater.Inames {
		if earlier.Within.Contains(n) {
			fromLater = append(fromLater, n)
		}
	}
	for _, n := range domEarlier.Inames {
		if later.Within.Contains(n) {
			fromEarlier = append(fromEarlier, n)
		}
	}
	if !slices.Equal(fromLater, fromEarlier) {
		return nil, NewInconsistentOrderError(later.ID, earlier.ID, fromLater)
	}
	return fromLater, nil
}

func primed(names []string) []string {
	out := make([]string, len(names))
	for i, n := range names {
		out[i] = n + "'"
	}
	return out
}
