package rel

import (
	"fmt"
	"slices"
)

// Set is a union of affine-constrained integer tuples. Internally a Set is
// a Map with no input dimensions.
type Set struct {
	m Map
}

// UniverseSet returns the set of every tuple in the space. The space must
// have no input dimensions; build it with SetSpace.
func UniverseSet(sp Space) Set {
	return Set{m: UniverseMap(sp)}
}

// EmptySet returns the set with no tuples.
func EmptySet(sp Space) Set {
	return Set{m: EmptyMap(sp)}
}

// Space returns the set's space.
func (s Set) Space() Space { return s.m.space }

// Dims returns a copy of the set's dimension names.
func (s Set) Dims() []string { return s.m.space.Out() }

// Where returns the set restricted by the given constraints.
func (s Set) Where(cs ...Constraint) (Set, error) {
	m, err := s.m.Where(cs...)
	if err != nil {
		return Set{}, err
	}
	return Set{m: m}, nil
}

// Union returns the tuples in either set.
func (s Set) Union(o Set) (Set, error) {
	m, err := s.m.Union(o.m)
	if err != nil {
		return Set{}, err
	}
	return Set{m: m}, nil
}

// Intersect returns the tuples in both sets.
func (s Set) Intersect(o Set) (Set, error) {
	m, err := s.m.Intersect(o.m)
	if err != nil {
		return Set{}, err
	}
	return Set{m: m}, nil
}

// Subtract returns the tuples in s but not in o.
func (s Set) Subtract(o Set) (Set, error) {
	m, err := s.m.Subtract(o.m)
	if err != nil {
		return Set{}, err
	}
	return Set{m: m}, nil
}

// WithDimNames returns the set with its dimensions renamed. The names
// must match the current arity.
func (s Set) WithDimNames(names []string) (Set, error) {
	m, err := s.m.WithOutNames(names)
	if err != nil {
		return Set{}, err
	}
	return Set{m: m}, nil
}

// IntersectParams restricts the set by a dimensionless set of parameter
// constraints, merging parameter lists by name.
func (s Set) IntersectParams(o Set) (Set, error) {
	if len(o.Dims()) != 0 {
		return Set{}, fmt.Errorf("%w: parameter set has dimensions %v", ErrSpaceMismatch, o.Dims())
	}
	params := mergeParams(s.m.space.params, o.m.space.params)
	sp, err := NewSpace(params, nil, s.m.space.out)
	if err != nil {
		return Set{}, err
	}
	osp := Space{params: params, out: s.m.space.out}
	lifted := Map{space: osp, disj: make([]basic, len(o.m.disj))}
	for i, d := range o.m.disj {
		nd := basic{cons: make([]constraint, len(d.cons))}
		for j, c := range d.cons {
			nc := constraint{eq: c.eq, coef: make([]int64, osp.ncols()), k: c.k}
			for pi, p := range o.m.space.params {
				nc.coef[osp.col(p)] = c.coef[pi]
			}
			nd.cons[j] = nc
		}
		lifted.disj[i] = nd
	}
	m, err := remapMap(s.m, sp).Intersect(lifted)
	if err != nil {
		return Set{}, err
	}
	return Set{m: m}, nil
}

// Project restricts the set to the named dimensions, existentially
// eliminating the rest. The result keeps the set's own dimension order, not
// the argument order. Unknown names are an error.
func (s Set) Project(names []string) (Set, error) {
	dims := s.Dims()
	for _, n := range names {
		if !slices.Contains(dims, n) {
			return Set{}, fmt.Errorf("%w: %q not in %s", ErrUnknownDim, n, s.m.space)
		}
	}
	var keep []string
	var dropCols []int
	for i, d := range dims {
		if slices.Contains(names, d) {
			keep = append(keep, d)
		} else {
			dropCols = append(dropCols, i)
		}
	}
	sp := Space{params: s.m.space.params, out: keep}
	out := Map{space: sp}
	for _, d := range s.m.disj {
		reduced, ok := eliminateCols(d, dropCols)
		if !ok {
			continue
		}
		nd := basic{cons: make([]constraint, len(reduced.cons))}
		for j, c := range reduced.cons {
			nc := constraint{eq: c.eq, coef: make([]int64, sp.ncols()), k: c.k}
			col := 0
			for i := range dims {
				if !slices.Contains(dropCols, i) {
					nc.coef[col] = c.coef[i]
					col++
				}
			}
			copy(nc.coef[len(keep):], c.coef[len(dims):])
			nd.cons[j] = nc
		}
		out.disj = append(out.disj, nd)
	}
	return Set{m: out.canonical()}, nil
}

// IsEmpty reports whether the set contains no integer tuples for any
// parameter values.
func (s Set) IsEmpty() bool { return s.m.IsEmpty() }

// Subset reports whether every tuple of s is in o.
func (s Set) Subset(o Set) (bool, error) { return s.m.Subset(o.m) }

// IsEqual reports whether both sets contain exactly the same tuples.
func (s Set) IsEqual(o Set) (bool, error) { return s.m.IsEqual(o.m) }

func (s Set) String() string { return s.m.String() }
