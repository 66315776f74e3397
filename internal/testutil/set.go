package testutil

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/tbracht/weft/internal/kernel"
	"github.com/tbracht/weft/internal/rel"
)

// Bounded builds a set over the given dimensions restricted by the given
// constraints. Fails the test on malformed input.
func Bounded(t *testing.T, params, dims []string, cs ...rel.Constraint) rel.Set {
	t.Helper()
	sp, err := rel.SetSpace(params, dims)
	require.NoError(t, err)
	s, err := rel.UniverseSet(sp).Where(cs...)
	require.NoError(t, err)
	return s
}

// NoAssumptions returns the dimensionless universe, the assumption set of
// a kernel without symbolic parameters.
func NoAssumptions(t *testing.T) rel.Set {
	t.Helper()
	sp, err := rel.SetSpace(nil, nil)
	require.NoError(t, err)
	return rel.UniverseSet(sp)
}

// Assume builds a dimensionless set of parameter constraints, for example
// Assume(t, []string{"n"}, rel.GE(rel.Var("n"), rel.Const(1))).
func Assume(t *testing.T, params []string, cs ...rel.Constraint) rel.Set {
	t.Helper()
	sp, err := rel.SetSpace(params, nil)
	require.NoError(t, err)
	s, err := rel.UniverseSet(sp).Where(cs...)
	require.NoError(t, err)
	return s
}

// Interval builds the dense single-iname domain lo <= iname < hi.
func Interval(t *testing.T, iname string, lo, hi int64) kernel.Domain {
	t.Helper()
	return kernel.Domain{
		Inames: []string{iname},
		Set: Bounded(t, nil, []string{iname},
			rel.GE(rel.Var(iname), rel.Const(lo)),
			rel.LT(rel.Var(iname), rel.Const(hi))),
	}
}

// MapContains reports whether the relation contains the point, given as a
// full assignment of input and output dimension names.
func MapContains(t *testing.T, m rel.Map, point map[string]int64) bool {
	t.Helper()
	cs := make([]rel.Constraint, 0, len(point))
	for name, v := range point {
		cs = append(cs, rel.Eq(rel.Var(name), rel.Const(v)))
	}
	pinned, err := m.Where(cs...)
	require.NoError(t, err)
	return !pinned.IsEmpty()
}

// Box builds the dense rectangular domain with every iname ranging over
// lo <= iname < hi.
func Box(t *testing.T, inames []string, lo, hi int64) kernel.Domain {
	t.Helper()
	cs := make([]rel.Constraint, 0, 2*len(inames))
	for _, n := range inames {
		cs = append(cs,
			rel.GE(rel.Var(n), rel.Const(lo)),
			rel.LT(rel.Var(n), rel.Const(hi)))
	}
	return kernel.Domain{Inames: inames, Set: Bounded(t, nil, inames, cs...)}
}
