package rel

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustSpace(t *testing.T, params, in, out []string) Space {
	t.Helper()
	sp, err := NewSpace(params, in, out)
	require.NoError(t, err)
	return sp
}

func mustWhere(t *testing.T, m Map, cs ...Constraint) Map {
	t.Helper()
	out, err := m.Where(cs...)
	require.NoError(t, err)
	return out
}

// contains fixes every named dimension to a constant and checks the
// restricted relation still has a point.
func contains(t *testing.T, m Map, point map[string]int64) bool {
	t.Helper()
	cs := make([]Constraint, 0, len(point))
	for name, v := range point {
		cs = append(cs, Eq(Var(name), Const(v)))
	}
	fixed, err := m.Where(cs...)
	require.NoError(t, err)
	return !fixed.IsEmpty()
}

func TestSpaceValidation(t *testing.T) {
	_, err := NewSpace([]string{"N"}, []string{"i"}, []string{"i'"})
	assert.NoError(t, err)

	_, err = NewSpace(nil, []string{"i"}, []string{"i"})
	assert.Error(t, err)

	_, err = NewSpace(nil, []string{""}, nil)
	assert.Error(t, err)
}

func TestUniverseAndEmpty(t *testing.T) {
	sp := mustSpace(t, nil, []string{"i"}, []string{"i'"})
	assert.False(t, UniverseMap(sp).IsEmpty())
	assert.True(t, EmptyMap(sp).IsEmpty())
}

func TestWhereUnknownDim(t *testing.T) {
	sp := mustSpace(t, nil, []string{"i"}, []string{"i'"})
	_, err := UniverseMap(sp).Where(Eq(Var("j"), Const(0)))
	assert.ErrorIs(t, err, ErrUnknownDim)
}

func TestWhereContradiction(t *testing.T) {
	sp := mustSpace(t, nil, []string{"i"}, []string{"i'"})
	m := mustWhere(t, UniverseMap(sp), GE(Var("i"), Const(1)), LE(Var("i"), Const(0)))
	assert.True(t, m.IsEmpty())
}

func TestUnionDeduplicates(t *testing.T) {
	sp := mustSpace(t, nil, []string{"i"}, []string{"i'"})
	u := UniverseMap(sp)
	got, err := u.Union(u)
	require.NoError(t, err)
	assert.Equal(t, "{ [i] -> [i'] }", got.String())
}

func TestUnionSpaceMismatch(t *testing.T) {
	a := UniverseMap(mustSpace(t, nil, []string{"i"}, []string{"i'"}))
	b := UniverseMap(mustSpace(t, nil, []string{"j"}, []string{"j'"}))
	_, err := a.Union(b)
	assert.ErrorIs(t, err, ErrSpaceMismatch)
}

func TestIntersectCommutes(t *testing.T) {
	sp := mustSpace(t, nil, []string{"i"}, []string{"i'"})
	u := UniverseMap(sp)
	diag := mustWhere(t, u, Eq(Var("i"), Var("i'")))
	lower := mustWhere(t, u, GE(Var("i"), Const(2)))

	ab, err := diag.Intersect(lower)
	require.NoError(t, err)
	ba, err := lower.Intersect(diag)
	require.NoError(t, err)

	eq, err := ab.IsEqual(ba)
	require.NoError(t, err)
	assert.True(t, eq)

	direct := mustWhere(t, u, Eq(Var("i"), Var("i'")), GE(Var("i"), Const(2)))
	eq, err = ab.IsEqual(direct)
	require.NoError(t, err)
	assert.True(t, eq)
}

func TestSubtractIdentityRemovesDiagonal(t *testing.T) {
	sp := mustSpace(t, nil, []string{"i"}, []string{"i'"})
	diag := mustWhere(t, UniverseMap(sp), Eq(Var("i"), Var("i'")))
	id, err := Identity(sp)
	require.NoError(t, err)

	got, err := diag.Subtract(id)
	require.NoError(t, err)
	assert.True(t, got.IsEmpty())
}

func TestSubtractKeepsOffDiagonal(t *testing.T) {
	sp := mustSpace(t, nil, []string{"i"}, []string{"i'"})
	u := UniverseMap(sp)
	id, err := Identity(sp)
	require.NoError(t, err)

	got, err := u.Subtract(id)
	require.NoError(t, err)
	assert.False(t, got.IsEmpty())
	assert.True(t, contains(t, got, map[string]int64{"i": 2, "i'": 3}))
	assert.False(t, contains(t, got, map[string]int64{"i": 2, "i'": 2}))
}

func TestReverse(t *testing.T) {
	sp := mustSpace(t, nil, []string{"i"}, []string{"i'"})
	before := mustWhere(t, UniverseMap(sp), LT(Var("i"), Var("i'")))

	rev := before.Reverse()
	assert.Equal(t, []string{"i'"}, rev.Space().In())
	assert.Equal(t, []string{"i"}, rev.Space().Out())

	want := mustWhere(t, UniverseMap(mustSpace(t, nil, []string{"i'"}, []string{"i"})),
		GT(Var("i'"), Var("i")))
	eq, err := rev.IsEqual(want)
	require.NoError(t, err)
	assert.True(t, eq)
}

func TestRenameDims(t *testing.T) {
	sp := mustSpace(t, nil, []string{"i"}, []string{"j"})
	m := mustWhere(t, UniverseMap(sp), Eq(Var("j"), Var("i")))

	primed, err := m.PrimeOut()
	require.NoError(t, err)
	assert.Equal(t, []string{"j'"}, primed.Space().Out())
	assert.Equal(t, "{ [i] -> [j'] : i = j' }", primed.String())

	_, err = m.WithOutNames([]string{"i"})
	assert.Error(t, err)

	_, err = m.WithOutNames([]string{"a", "b"})
	assert.ErrorIs(t, err, ErrArityMismatch)
}

func TestApplyRangeComposesAccesses(t *testing.T) {
	// Write a[i], read a[i-1]: the element written at i is read at i+1.
	wsp := mustSpace(t, nil, []string{"i"}, []string{"o"})
	write := mustWhere(t, UniverseMap(wsp), Eq(Var("o"), Var("i")))

	rsp := mustSpace(t, nil, []string{"i'"}, []string{"o"})
	read := mustWhere(t, UniverseMap(rsp), Eq(Var("o"), Var("i'").Add(Const(-1))))

	dep, err := write.ApplyRange(read.Reverse())
	require.NoError(t, err)
	assert.Equal(t, []string{"i"}, dep.Space().In())
	assert.Equal(t, []string{"i'"}, dep.Space().Out())
	assert.Equal(t, "{ [i] -> [i'] : i + 1 = i' }", dep.String())

	assert.True(t, contains(t, dep, map[string]int64{"i": 4, "i'": 5}))
	assert.False(t, contains(t, dep, map[string]int64{"i": 4, "i'": 4}))
}

func TestApplyRangeArityMismatch(t *testing.T) {
	a := UniverseMap(mustSpace(t, nil, []string{"i"}, []string{"o0", "o1"}))
	b := UniverseMap(mustSpace(t, nil, []string{"p"}, []string{"q"}))
	_, err := a.ApplyRange(b)
	assert.ErrorIs(t, err, ErrArityMismatch)
}

func TestDomainAndRange(t *testing.T) {
	sp := mustSpace(t, nil, []string{"i"}, []string{"o"})
	m := mustWhere(t, UniverseMap(sp),
		Eq(Var("o"), Var("i").Add(Const(1))),
		GE(Var("i"), Const(0)), LE(Var("i"), Const(3)))

	domSp, err := SetSpace(nil, []string{"i"})
	require.NoError(t, err)
	wantDom, err := UniverseSet(domSp).Where(GE(Var("i"), Const(0)), LE(Var("i"), Const(3)))
	require.NoError(t, err)
	eq, err := m.Domain().IsEqual(wantDom)
	require.NoError(t, err)
	assert.True(t, eq)

	ranSp, err := SetSpace(nil, []string{"o"})
	require.NoError(t, err)
	wantRan, err := UniverseSet(ranSp).Where(GE(Var("o"), Const(1)), LE(Var("o"), Const(4)))
	require.NoError(t, err)
	eq, err = m.Range().IsEqual(wantRan)
	require.NoError(t, err)
	assert.True(t, eq)
}

func TestParamAlignment(t *testing.T) {
	a := mustWhere(t, UniverseMap(mustSpace(t, []string{"N"}, []string{"i"}, []string{"i'"})),
		LE(Var("i"), Var("N")))
	b := mustWhere(t, UniverseMap(mustSpace(t, []string{"M"}, []string{"i"}, []string{"i'"})),
		LE(Var("i'"), Var("M")))

	got, err := a.Intersect(b)
	require.NoError(t, err)
	assert.Equal(t, []string{"N", "M"}, got.Space().Params())
	assert.False(t, got.IsEmpty())
}

func TestFromDomainAndRange(t *testing.T) {
	domSp, err := SetSpace(nil, []string{"i"})
	require.NoError(t, err)
	dom, err := UniverseSet(domSp).Where(GE(Var("i"), Const(0)), LE(Var("i"), Const(4)))
	require.NoError(t, err)

	ranSp, err := SetSpace(nil, []string{"i'"})
	require.NoError(t, err)
	ran, err := UniverseSet(ranSp).Where(GE(Var("i'"), Const(0)), LE(Var("i'"), Const(4)))
	require.NoError(t, err)

	cross, err := FromDomainAndRange(dom, ran)
	require.NoError(t, err)
	assert.Equal(t, []string{"i"}, cross.Space().In())
	assert.Equal(t, []string{"i'"}, cross.Space().Out())
	assert.True(t, contains(t, cross, map[string]int64{"i": 0, "i'": 4}))
	assert.False(t, contains(t, cross, map[string]int64{"i": 0, "i'": 5}))
}

func TestFromDomainAndRangeNameCollision(t *testing.T) {
	domSp, err := SetSpace(nil, []string{"i"})
	require.NoError(t, err)
	_, err = FromDomainAndRange(UniverseSet(domSp), UniverseSet(domSp))
	assert.Error(t, err)
}

func TestSubsetNarrowing(t *testing.T) {
	sp := mustSpace(t, nil, []string{"i"}, []string{"i'"})
	wide := mustWhere(t, UniverseMap(sp), LT(Var("i'"), Var("i")))
	narrow, err := wide.Intersect(mustWhere(t, UniverseMap(sp), Eq(Var("i"), Var("i'").Add(Const(1)))))
	require.NoError(t, err)

	ok, err := narrow.Subset(wide)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = wide.Subset(narrow)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestSetIntersectParams(t *testing.T) {
	sp, err := SetSpace([]string{"N"}, []string{"i"})
	require.NoError(t, err)
	dom, err := UniverseSet(sp).Where(GE(Var("i"), Const(0)), LT(Var("i"), Var("N")))
	require.NoError(t, err)
	assert.False(t, dom.IsEmpty())

	ctxSp, err := SetSpace([]string{"N"}, nil)
	require.NoError(t, err)
	empty, err := UniverseSet(ctxSp).Where(LE(Var("N"), Const(0)))
	require.NoError(t, err)

	got, err := dom.IntersectParams(empty)
	require.NoError(t, err)
	assert.True(t, got.IsEmpty())

	sized, err := UniverseSet(ctxSp).Where(Eq(Var("N"), Const(10)))
	require.NoError(t, err)
	got, err = dom.IntersectParams(sized)
	require.NoError(t, err)
	assert.False(t, got.IsEmpty())
}

func TestSetProject(t *testing.T) {
	sp, err := SetSpace(nil, []string{"i", "j"})
	require.NoError(t, err)
	s, err := UniverseSet(sp).Where(
		GE(Var("i"), Const(0)), LT(Var("i"), Const(10)),
		GE(Var("j"), Const(0)), LT(Var("j"), Var("i")))
	require.NoError(t, err)

	got, err := s.Project([]string{"i"})
	require.NoError(t, err)
	assert.Equal(t, []string{"i"}, got.Dims())

	// The inner bound j < i forces i >= 1 once j is eliminated.
	wantSp, err := SetSpace(nil, []string{"i"})
	require.NoError(t, err)
	want, err := UniverseSet(wantSp).Where(GE(Var("i"), Const(1)), LT(Var("i"), Const(10)))
	require.NoError(t, err)
	eq, err := got.IsEqual(want)
	require.NoError(t, err)
	assert.True(t, eq)

	_, err = s.Project([]string{"k"})
	assert.ErrorIs(t, err, ErrUnknownDim)
}

func TestIntersectParamsRejectsDims(t *testing.T) {
	sp, err := SetSpace(nil, []string{"i"})
	require.NoError(t, err)
	s := UniverseSet(sp)
	_, err = s.IntersectParams(s)
	assert.ErrorIs(t, err, ErrSpaceMismatch)
}
