package dependency

import (
	"fmt"

	"github.com/tbracht/weft/internal/kernel"
	"github.com/tbracht/weft/internal/rel"
)

// ComputeDataDependencies returns a copy of the kernel with a
// happens-after edge for every pair of statement instances that touch a
// common element of some variable, at least one of them writing, with
// the earlier instance running first under the sequential order. Every
// ordered statement pair is considered, including a statement against
// itself for loop-carried dependences.
//
// For each (source, target, variable) triple the edge's relation is the
// union over the conflicting access kinds; its Kind labels the dominant
// one, read-after-write over write-after-write over write-after-read.
// Pairs whose relation comes out empty produce no edge. Computed edges
// replace same-keyed existing ones; other existing edges are preserved.
func ComputeDataDependencies(k kernel.Kernel, opts Options) (kernel.Kernel, error) {
	index, err := ExtractAccessRelations(k, opts)
	if err != nil {
		return kernel.Kernel{}, err
	}
	rx := &relaxer{index: index, opts: opts}
	filter := newConflictFilter(k)

	statements := make([]kernel.Statement, len(k.Statements))
	copy(statements, k.Statements)
	for si := range statements {
		s := statements[si]
		sVars := index.TouchedVariables(s.ID)
		if len(sVars) == 0 {
			continue
		}
		edges := make(map[kernel.EdgeKey]kernel.HappensAfter, len(s.HappensAfter))
		for key, ha := range s.HappensAfter {
			edges[key] = ha
		}
		for ti, t := range k.Statements {
			if !filter.mayConflict(s.ID, t.ID) {
				continue
			}
			shared := sharedVars(sVars, index.TouchedVariables(t.ID))
			if len(shared) == 0 {
				continue
			}
			frame, err := precedes(k, s, t, ti < si)
			if err != nil {
				return kernel.Kernel{}, err
			}
			for _, v := range shared {
				rx.warnTainted(s.ID, t.ID, v)
				ha, ok, err := rx.pairEdge(s, t, v, frame)
				if err != nil {
					return kernel.Kernel{}, err
				}
				if ok {
					edges[kernel.EdgeKey{Target: t.ID, Variable: v}] = ha
				}
			}
		}
		statements[si] = s.WithHappensAfter(edges)
	}
	return k.WithStatements(statements)
}

// RefineSeededDependencies narrows each statement-level edge of a seeded
// kernel into per-variable instance edges. For every structural edge,
// the seeded relation is intersected with the conflicting-access
// relations of each variable both statements touch; non-empty results
// replace the structural edge, which is then dropped. A structural edge
// is retained, alongside any refined edges, when an access on either
// side was skipped during extraction, since dropping it could discard a
// real ordering. Already variable-specific edges pass through untouched.
func RefineSeededDependencies(k kernel.Kernel, opts Options) (kernel.Kernel, error) {
	index, err := ExtractAccessRelations(k, opts)
	if err != nil {
		return kernel.Kernel{}, err
	}
	rx := &relaxer{index: index, opts: opts}

	statements := make([]kernel.Statement, len(k.Statements))
	copy(statements, k.Statements)
	for si := range statements {
		s := statements[si]
		if len(s.HappensAfter) == 0 {
			continue
		}
		edges := make(map[kernel.EdgeKey]kernel.HappensAfter, len(s.HappensAfter))
		for _, key := range s.EdgeKeys() {
			ha := s.HappensAfter[key]
			if key.Variable != "" {
				edges[key] = ha
				continue
			}
			t, ok := k.Statement(key.Target)
			if !ok {
				return kernel.Kernel{}, NewRelationError(s.ID, fmt.Errorf("edge target %q not in kernel", key.Target))
			}
			keepStructural := false
			for _, v := range sharedVars(index.TouchedVariables(s.ID), index.TouchedVariables(t.ID)) {
				if rx.warnTainted(s.ID, t.ID, v) {
					keepStructural = true
				}
				refined, ok, err := rx.pairEdge(s, t, v, ha.Instances)
				if err != nil {
					return kernel.Kernel{}, err
				}
				if ok {
					edges[kernel.EdgeKey{Target: t.ID, Variable: v}] = refined
				}
			}
			if keepStructural {
				rx.opts.logger().Warn("keeping unrefined edge, accesses incomplete",
					"statement", s.ID, "target", t.ID)
				edges[key] = ha
			}
		}
		statements[si] = s.WithHappensAfter(edges)
	}
	return k.WithStatements(statements)
}

type relaxer struct {
	index *AccessIndex
	opts  Options
}

// conflictFilter inverts the kernel's reader and writer indexes into
// per-statement array sets, so statement pairs that cannot share a
// memory element are skipped before any relation work. The kernel
// indexes cover every textual array access, so the filter never skips a
// pair the access index has relations for.
type conflictFilter struct {
	writes  map[string]map[string]struct{}
	touches map[string]map[string]struct{}
}

func newConflictFilter(k kernel.Kernel) conflictFilter {
	f := conflictFilter{
		writes:  make(map[string]map[string]struct{}),
		touches: make(map[string]map[string]struct{}),
	}
	add := func(idx map[string]map[string]struct{}, id, variable string) {
		set, ok := idx[id]
		if !ok {
			set = make(map[string]struct{})
			idx[id] = set
		}
		set[variable] = struct{}{}
	}
	for _, v := range k.Variables() {
		for _, id := range k.Writers(v) {
			add(f.writes, id, v)
			add(f.touches, id, v)
		}
		for _, id := range k.Readers(v) {
			add(f.touches, id, v)
		}
	}
	return f
}

// mayConflict reports whether one of the two statements writes an array
// the other touches.
func (f conflictFilter) mayConflict(s, t string) bool {
	for v := range f.writes[s] {
		if _, ok := f.touches[t][v]; ok {
			return true
		}
	}
	for v := range f.writes[t] {
		if _, ok := f.touches[s][v]; ok {
			return true
		}
	}
	return false
}

// pairEdge builds the happens-after edge for one (source, target,
// variable) triple within an ordering frame. It returns ok=false when no
// conflicting access pair falls inside the frame.
func (rx *relaxer) pairEdge(s, t kernel.Statement, variable string, frame rel.Map) (kernel.HappensAfter, bool, error) {
	sAcc, err := rx.lookup(s.ID, variable)
	if err != nil {
		return kernel.HappensAfter{}, false, err
	}
	tAcc, err := rx.lookup(t.ID, variable)
	if err != nil {
		return kernel.HappensAfter{}, false, err
	}

	candidates := []struct {
		kind     kernel.DepKind
		from, to rel.Map
		have     bool
	}{
		{kernel.KindReadAfterWrite, sAcc.Read, tAcc.Write, sAcc.HasRead && tAcc.HasWrite},
		{kernel.KindWriteAfterWrite, sAcc.Write, tAcc.Write, sAcc.HasWrite && tAcc.HasWrite},
		{kernel.KindWriteAfterRead, sAcc.Write, tAcc.Read, sAcc.HasWrite && tAcc.HasRead},
	}

	var union rel.Map
	var kind kernel.DepKind
	haveUnion := false
	for _, c := range candidates {
		if !c.have {
			continue
		}
		conflict, err := composeConflict(c.from, c.to)
		if err != nil {
			return kernel.HappensAfter{}, false, NewRelationError(s.ID, err)
		}
		ordered, err := conflict.Intersect(frame)
		if err != nil {
			return kernel.HappensAfter{}, false, NewRelationError(s.ID, err)
		}
		if ordered.IsEmpty() {
			continue
		}
		if !haveUnion {
			union, kind, haveUnion = ordered, c.kind, true
			continue
		}
		rx.opts.logger().Debug("dependence kind folded into edge",
			"statement", s.ID, "target", t.ID, "variable", variable, "kind", string(c.kind))
		union, err = union.Union(ordered)
		if err != nil {
			return kernel.HappensAfter{}, false, NewRelationError(s.ID, err)
		}
	}
	if !haveUnion {
		return kernel.HappensAfter{}, false, nil
	}
	return kernel.HappensAfter{Variable: variable, Kind: kind, Instances: union}, true, nil
}

// lookup fetches recorded relations, tolerating pairs whose only access
// was skipped. A pair that is neither recorded nor tainted breaks the
// extractor's contract.
func (rx *relaxer) lookup(statement, variable string) (AccessRelations, error) {
	acc, err := rx.index.Relations(statement, variable)
	if err != nil {
		if IsMissingAccess(err) && rx.index.Tainted(statement, variable) {
			return AccessRelations{}, nil
		}
		return AccessRelations{}, err
	}
	return acc, nil
}

// warnTainted logs once per call site that results for the variable
// understate the program's accesses, and reports whether they do.
func (rx *relaxer) warnTainted(source, target, variable string) bool {
	if !rx.index.Tainted(source, variable) && !rx.index.Tainted(target, variable) {
		return false
	}
	rx.opts.logger().Warn("dependences may be incomplete, access was skipped",
		"statement", source, "target", target, "variable", variable)
	return true
}

// composeConflict relates iterations of the depending statement to
// iterations of the target that touch the same element: the depending
// access relation chained through the reversed target relation. Target
// dimensions come out primed so the result composes with ordering
// frames.
func composeConflict(from, to rel.Map) (rel.Map, error) {
	rev := to.Reverse()
	rev, err := rev.WithOutNames(primed(rev.Space().Out()))
	if err != nil {
		return rel.Map{}, err
	}
	return from.ApplyRange(rev)
}

// sharedVars intersects two sorted name lists, keeping order.
func sharedVars(a, b []string) []string {
	set := make(map[string]struct{}, len(b))
	for _, v := range b {
		set[v] = struct{}{}
	}
	var out []string
	for _, v := range a {
		if _, ok := set[v]; ok {
			out = append(out, v)
		}
	}
	return out
}
