package rel

import (
	"cmp"
	"fmt"
	"slices"
)

// Map is a union of affine-constrained relations between input and output
// integer tuples. The zero value is not usable; construct maps with
// UniverseMap, EmptyMap or the derivation methods.
type Map struct {
	space Space
	disj  []basic
}

// UniverseMap returns the relation containing every pair of tuples in the
// space.
func UniverseMap(sp Space) Map {
	return Map{space: sp, disj: []basic{{}}}
}

// EmptyMap returns the relation containing no pairs.
func EmptyMap(sp Space) Map {
	return Map{space: sp}
}

// Space returns the map's space.
func (m Map) Space() Space { return m.space }

// Where returns the map restricted by the given constraints. Constraint
// names must resolve to dimensions or parameters of the space.
func (m Map) Where(cs ...Constraint) (Map, error) {
	resolved := make([]constraint, len(cs))
	for i, c := range cs {
		rc, err := c.resolve(m.space)
		if err != nil {
			return Map{}, err
		}
		resolved[i] = rc
	}
	out := Map{space: m.space, disj: make([]basic, 0, len(m.disj))}
	for _, d := range m.disj {
		nd := d.clone()
		for _, rc := range resolved {
			nd.cons = append(nd.cons, rc.clone())
		}
		out.disj = append(out.disj, nd)
	}
	return out.canonical(), nil
}

// Union returns the pairs in either map. Input and output dimensions must
// match exactly; parameters are merged by name.
func (m Map) Union(o Map) (Map, error) {
	a, b, err := alignMaps(m, o)
	if err != nil {
		return Map{}, err
	}
	out := Map{space: a.space, disj: append(slices.Clone(a.disj), b.disj...)}
	return out.canonical(), nil
}

// Intersect returns the pairs in both maps.
func (m Map) Intersect(o Map) (Map, error) {
	a, b, err := alignMaps(m, o)
	if err != nil {
		return Map{}, err
	}
	out := Map{space: a.space}
	for _, da := range a.disj {
		for _, db := range b.disj {
			nd := da.clone()
			for _, c := range db.cons {
				nd.cons = append(nd.cons, c.clone())
			}
			out.disj = append(out.disj, nd)
		}
	}
	return out.canonical(), nil
}

// Subtract returns the pairs in m but not in o. Each removed disjunct is
// decomposed into disjoint complement pieces, so the result is exact.
func (m Map) Subtract(o Map) (Map, error) {
	a, b, err := alignMaps(m, o)
	if err != nil {
		return Map{}, err
	}
	remaining := a.disj
	for _, db := range b.disj {
		cut := expandEqs(db)
		var next []basic
		for _, cur := range remaining {
			next = append(next, subtractBasic(cur, cut)...)
		}
		remaining = next
	}
	return Map{space: a.space, disj: remaining}.canonical(), nil
}

// subtractBasic returns cur minus the conjunction cut as disjoint pieces:
// the i-th piece keeps the first i-1 cut constraints and negates the i-th.
func subtractBasic(cur basic, cut basic) []basic {
	var out []basic
	for i, t := range cut.cons {
		piece := cur.clone()
		for _, kept := range cut.cons[:i] {
			piece.cons = append(piece.cons, kept.clone())
		}
		piece.cons = append(piece.cons, negateCon(t))
		out = append(out, piece)
	}
	return out
}

// Reverse swaps input and output tuples.
func (m Map) Reverse() Map {
	sp := m.space.reversed()
	nIn, nOut := len(m.space.in), len(m.space.out)
	out := Map{space: sp, disj: make([]basic, len(m.disj))}
	for i, d := range m.disj {
		nd := basic{cons: make([]constraint, len(d.cons))}
		for j, c := range d.cons {
			nc := constraint{eq: c.eq, coef: make([]int64, len(c.coef)), k: c.k}
			copy(nc.coef[:nOut], c.coef[nIn:nIn+nOut])
			copy(nc.coef[nOut:nOut+nIn], c.coef[:nIn])
			copy(nc.coef[nOut+nIn:], c.coef[nIn+nOut:])
			nd.cons[j] = nc
		}
		out.disj[i] = nd
	}
	return out
}

// WithInNames returns the map with renamed input dimensions.
func (m Map) WithInNames(names []string) (Map, error) {
	if len(names) != len(m.space.in) {
		return Map{}, fmt.Errorf("%w: %d names for %d input dims", ErrArityMismatch, len(names), len(m.space.in))
	}
	sp, err := m.space.withInNames(names)
	if err != nil {
		return Map{}, err
	}
	return Map{space: sp, disj: m.disj}, nil
}

// WithOutNames returns the map with renamed output dimensions.
func (m Map) WithOutNames(names []string) (Map, error) {
	if len(names) != len(m.space.out) {
		return Map{}, fmt.Errorf("%w: %d names for %d output dims", ErrArityMismatch, len(names), len(m.space.out))
	}
	sp, err := m.space.withOutNames(names)
	if err != nil {
		return Map{}, err
	}
	return Map{space: sp, disj: m.disj}, nil
}

// PrimeOut renames every output dimension by appending a prime mark,
// the conventional spelling for "same loops, earlier instance".
func (m Map) PrimeOut() (Map, error) {
	names := m.space.Out()
	for i, n := range names {
		names[i] = n + "'"
	}
	return m.WithOutNames(names)
}

// ApplyRange composes m with o: the result relates x to z whenever m
// relates x to some y and o relates y to z. The output arity of m must
// equal the input arity of o; dimension names need not agree, matching is
// positional.
func (m Map) ApplyRange(o Map) (Map, error) {
	if len(m.space.out) != len(o.space.in) {
		return Map{}, fmt.Errorf("%w: output arity %d against input arity %d",
			ErrArityMismatch, len(m.space.out), len(o.space.in))
	}
	params := mergeParams(m.space.params, o.space.params)
	sp, err := NewSpace(params, m.space.in, o.space.out)
	if err != nil {
		return Map{}, fmt.Errorf("apply range: %w", err)
	}
	// Extended layout: result columns first, the shared middle tuple last,
	// so compaction after elimination is a truncation.
	nIn, nOut, nPar := len(sp.in), len(sp.out), len(sp.params)
	nMid := len(m.space.out)
	midBase := nIn + nOut + nPar
	ext := midBase + nMid
	paramCol := func(name string) int {
		return nIn + nOut + slices.Index(params, name)
	}
	midCols := make([]int, nMid)
	for i := range midCols {
		midCols[i] = midBase + i
	}
	out := Map{space: sp}
	for _, da := range m.disj {
		for _, db := range o.disj {
			nd := basic{}
			for _, c := range da.cons {
				nc := constraint{eq: c.eq, coef: make([]int64, ext), k: c.k}
				for j := range m.space.in {
					nc.coef[j] = c.coef[j]
				}
				for j := range m.space.out {
					nc.coef[midBase+j] = c.coef[len(m.space.in)+j]
				}
				for j, p := range m.space.params {
					nc.coef[paramCol(p)] = c.coef[len(m.space.in)+len(m.space.out)+j]
				}
				nd.cons = append(nd.cons, nc)
			}
			for _, c := range db.cons {
				nc := constraint{eq: c.eq, coef: make([]int64, ext), k: c.k}
				for j := range o.space.in {
					nc.coef[midBase+j] = c.coef[j]
				}
				for j := range o.space.out {
					nc.coef[nIn+j] = c.coef[len(o.space.in)+j]
				}
				for j, p := range o.space.params {
					nc.coef[paramCol(p)] = c.coef[len(o.space.in)+len(o.space.out)+j]
				}
				nd.cons = append(nd.cons, nc)
			}
			reduced, ok := eliminateCols(nd, midCols)
			if !ok {
				continue
			}
			compact := basic{cons: make([]constraint, len(reduced.cons))}
			for j, c := range reduced.cons {
				compact.cons[j] = constraint{eq: c.eq, coef: slices.Clone(c.coef[:midBase]), k: c.k}
			}
			out.disj = append(out.disj, compact)
		}
	}
	return out.canonical(), nil
}

// Domain projects the map onto its input tuple.
func (m Map) Domain() Set {
	return Set{m: m.project(true)}
}

// Range projects the map onto its output tuple.
func (m Map) Range() Set {
	return Set{m: m.project(false)}
}

// project eliminates one side of the relation, producing a set over the
// other side's dimensions.
func (m Map) project(keepIn bool) Map {
	nIn, nOut := len(m.space.in), len(m.space.out)
	var dropBase, nDrop, keepBase, nKeep int
	var dims []string
	if keepIn {
		dropBase, nDrop = nIn, nOut
		keepBase, nKeep = 0, nIn
		dims = m.space.in
	} else {
		dropBase, nDrop = 0, nIn
		keepBase, nKeep = nIn, nOut
		dims = m.space.out
	}
	sp := Space{params: m.space.params, out: slices.Clone(dims)}
	dropCols := make([]int, nDrop)
	for i := range dropCols {
		dropCols[i] = dropBase + i
	}
	out := Map{space: sp}
	for _, d := range m.disj {
		reduced, ok := eliminateCols(d, dropCols)
		if !ok {
			continue
		}
		nd := basic{cons: make([]constraint, len(reduced.cons))}
		for j, c := range reduced.cons {
			nc := constraint{eq: c.eq, coef: make([]int64, sp.ncols()), k: c.k}
			copy(nc.coef[:nKeep], c.coef[keepBase:keepBase+nKeep])
			copy(nc.coef[nKeep:], c.coef[nIn+nOut:])
			nd.cons[j] = nc
		}
		out.disj = append(out.disj, nd)
	}
	return out.canonical()
}

// IsEmpty reports whether the relation contains no integer pairs for any
// parameter values.
func (m Map) IsEmpty() bool {
	for _, d := range m.disj {
		if !isEmptyBasic(m.space, d) {
			return false
		}
	}
	return true
}

// Subset reports whether every pair of m is in o.
func (m Map) Subset(o Map) (bool, error) {
	diff, err := m.Subtract(o)
	if err != nil {
		return false, err
	}
	return diff.IsEmpty(), nil
}

// IsEqual reports whether both maps contain exactly the same pairs.
func (m Map) IsEqual(o Map) (bool, error) {
	ab, err := m.Subset(o)
	if err != nil {
		return false, err
	}
	if !ab {
		return false, nil
	}
	return o.Subset(m)
}

// alignMaps merges parameters by name and verifies that dimensions match.
func alignMaps(a, b Map) (Map, Map, error) {
	if !slices.Equal(a.space.in, b.space.in) || !slices.Equal(a.space.out, b.space.out) {
		return Map{}, Map{}, fmt.Errorf("%w: %s against %s", ErrSpaceMismatch, a.space, b.space)
	}
	if slices.Equal(a.space.params, b.space.params) {
		return a, b, nil
	}
	params := mergeParams(a.space.params, b.space.params)
	sp, err := NewSpace(params, a.space.in, a.space.out)
	if err != nil {
		return Map{}, Map{}, err
	}
	return remapMap(a, sp), remapMap(b, sp), nil
}

// remapMap rewrites coefficient vectors into a space that differs only in
// its parameter list, which must be a superset of the map's.
func remapMap(m Map, sp Space) Map {
	if m.space.Equal(sp) {
		return m
	}
	nDim := len(m.space.in) + len(m.space.out)
	out := Map{space: sp, disj: make([]basic, len(m.disj))}
	for i, d := range m.disj {
		nd := basic{cons: make([]constraint, len(d.cons))}
		for j, c := range d.cons {
			nc := constraint{eq: c.eq, coef: make([]int64, sp.ncols()), k: c.k}
			copy(nc.coef[:nDim], c.coef[:nDim])
			for pi, p := range m.space.params {
				nc.coef[sp.col(p)] = c.coef[nDim+pi]
			}
			nd.cons[j] = nc
		}
		out.disj[i] = nd
	}
	return out
}

// canonical normalizes every disjunct, discards empty ones and sorts the
// remainder, so equal relations have identical internal form and text.
func (m Map) canonical() Map {
	out := Map{space: m.space}
	seen := make(map[string]struct{})
	nDims := len(m.space.in) + len(m.space.out)
	for _, d := range m.disj {
		nd, ok := normalizeBasic(d)
		if !ok || isEmptyBasic(m.space, nd) {
			continue
		}
		nd, ok = reduceByEqs(nd, nDims)
		if !ok {
			continue
		}
		sortCons(nd.cons)
		key := basicKey(nd)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		out.disj = append(out.disj, nd)
	}
	slices.SortFunc(out.disj, compareBasic)
	return out
}

func sortCons(cons []constraint) {
	slices.SortFunc(cons, compareCon)
}

// compareCon orders equalities first, then constraints by their leading
// dimension with lower bounds ahead of upper bounds, which keeps rendered
// bound pairs in the natural reading order.
func compareCon(a, b constraint) int {
	if a.eq != b.eq {
		if a.eq {
			return -1
		}
		return 1
	}
	ai, bi := firstNonzero(a.coef), firstNonzero(b.coef)
	if ai != bi {
		return cmp.Compare(ai, bi)
	}
	if ai < len(a.coef) {
		if c := cmp.Compare(b.coef[ai], a.coef[ai]); c != 0 {
			return c
		}
		// Constraints touching fewer trailing dimensions come first, so a
		// plain bound precedes a relation between dimensions.
		an := ai + 1 + firstNonzero(a.coef[ai+1:])
		bn := bi + 1 + firstNonzero(b.coef[bi+1:])
		if an != bn {
			return cmp.Compare(bn, an)
		}
	}
	if c := slices.Compare(a.coef, b.coef); c != 0 {
		return c
	}
	return cmp.Compare(a.k, b.k)
}

func firstNonzero(coef []int64) int {
	for i, v := range coef {
		if v != 0 {
			return i
		}
	}
	return len(coef)
}

func compareBasic(a, b basic) int {
	if c := cmp.Compare(len(a.cons), len(b.cons)); c != 0 {
		return c
	}
	for i := range a.cons {
		if c := compareCon(a.cons[i], b.cons[i]); c != 0 {
			return c
		}
	}
	return 0
}

func basicKey(b basic) string {
	key := ""
	for _, c := range b.cons {
		key += c.key() + fmt.Sprintf("|%d;", c.k)
	}
	return key
}
