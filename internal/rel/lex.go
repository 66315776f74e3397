package rel

import (
	"fmt"
)

// FromDomainAndRange builds the relation pairing every tuple of dom with
// every tuple of ran, the cross product of the two sets. Dimension names of
// the two sets must not collide; parameters are merged by name.
func FromDomainAndRange(dom, ran Set) (Map, error) {
	params := mergeParams(dom.m.space.params, ran.m.space.params)
	sp, err := NewSpace(params, dom.Dims(), ran.Dims())
	if err != nil {
		return Map{}, fmt.Errorf("cross product: %w", err)
	}
	nIn := len(sp.in)
	lift := func(src Map, base int) []basic {
		out := make([]basic, len(src.disj))
		for i, d := range src.disj {
			nd := basic{cons: make([]constraint, len(d.cons))}
			for j, c := range d.cons {
				nc := constraint{eq: c.eq, coef: make([]int64, sp.ncols()), k: c.k}
				nDim := len(src.space.out)
				copy(nc.coef[base:base+nDim], c.coef[:nDim])
				for pi, p := range src.space.params {
					nc.coef[sp.col(p)] = c.coef[nDim+pi]
				}
				nd.cons[j] = nc
			}
			out[i] = nd
		}
		return out
	}
	left := Map{space: sp, disj: lift(dom.m, 0)}
	right := Map{space: sp, disj: lift(ran.m, nIn)}
	return left.Intersect(right)
}

// Identity returns the relation pairing each input tuple with the equal
// output tuple. Input and output arities must match.
func Identity(sp Space) (Map, error) {
	if len(sp.in) != len(sp.out) {
		return Map{}, fmt.Errorf("%w: identity needs equal arities, got %d and %d",
			ErrArityMismatch, len(sp.in), len(sp.out))
	}
	m := UniverseMap(sp)
	cs := make([]Constraint, len(sp.in))
	for i := range sp.in {
		cs[i] = Eq(Var(sp.in[i]), Var(sp.out[i]))
	}
	return m.Where(cs...)
}

// LexLT returns the relation over sp in which the tuple named by lesser
// lexicographically precedes the tuple named by greater, both read in the
// given order. The result is the usual union over the position of the
// first strict difference: positions before it equal, the position itself
// strictly ordered. With no positions the result is empty.
func LexLT(sp Space, lesser, greater []string) (Map, error) {
	if len(lesser) != len(greater) {
		return Map{}, fmt.Errorf("%w: %d against %d lexicographic positions",
			ErrArityMismatch, len(lesser), len(greater))
	}
	for _, names := range [][]string{lesser, greater} {
		for _, n := range names {
			if sp.col(n) < 0 {
				return Map{}, fmt.Errorf("%w: %q not in %s", ErrUnknownDim, n, sp)
			}
		}
	}
	out := EmptyMap(sp)
	for k := range lesser {
		cs := make([]Constraint, 0, k+1)
		for j := 0; j < k; j++ {
			cs = append(cs, Eq(Var(lesser[j]), Var(greater[j])))
		}
		cs = append(cs, LT(Var(lesser[k]), Var(greater[k])))
		disjunct, err := UniverseMap(sp).Where(cs...)
		if err != nil {
			return Map{}, err
		}
		out, err = out.Union(disjunct)
		if err != nil {
			return Map{}, err
		}
	}
	return out, nil
}

// AllEqual returns the relation over sp in which each lesser name equals
// the corresponding greater name. With no positions the result is the
// universe.
func AllEqual(sp Space, lesser, greater []string) (Map, error) {
	if len(lesser) != len(greater) {
		return Map{}, fmt.Errorf("%w: %d against %d positions",
			ErrArityMismatch, len(lesser), len(greater))
	}
	cs := make([]Constraint, len(lesser))
	for i := range lesser {
		cs[i] = Eq(Var(lesser[i]), Var(greater[i]))
	}
	return UniverseMap(sp).Where(cs...)
}
