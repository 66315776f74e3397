package kernel

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tbracht/weft/internal/expr"
	"github.com/tbracht/weft/internal/rel"
)

func boundedSet(t *testing.T, params []string, dims []string, cs ...rel.Constraint) rel.Set {
	t.Helper()
	sp, err := rel.SetSpace(params, dims)
	require.NoError(t, err)
	s, err := rel.UniverseSet(sp).Where(cs...)
	require.NoError(t, err)
	return s
}

func noAssumptions(t *testing.T) rel.Set {
	t.Helper()
	sp, err := rel.SetSpace(nil, nil)
	require.NoError(t, err)
	return rel.UniverseSet(sp)
}

// a[i] = a[i+1] + b[i] over 0 <= i < 10, then t = b[0].
func twoStatementKernel(t *testing.T) Kernel {
	t.Helper()
	dom := Domain{
		Inames: []string{"i"},
		Set: boundedSet(t, nil, []string{"i"},
			rel.GE(rel.Var("i"), rel.Const(0)), rel.LT(rel.Var("i"), rel.Const(10))),
	}
	s1 := Statement{
		ID:       "s1",
		Assignee: expr.Subscript{Array: "a", Indices: []expr.Expr{expr.Variable{Name: "i"}}},
		Expression: expr.Sum{Terms: []expr.Expr{
			expr.Subscript{Array: "a", Indices: []expr.Expr{
				expr.Sum{Terms: []expr.Expr{expr.Variable{Name: "i"}, expr.IntLit{Value: 1}}},
			}},
			expr.Subscript{Array: "b", Indices: []expr.Expr{expr.Variable{Name: "i"}}},
		}},
		Within: NewIndexSet("i"),
	}
	s2 := Statement{
		ID:         "s2",
		Assignee:   expr.Variable{Name: "t"},
		Expression: expr.Subscript{Array: "b", Indices: []expr.Expr{expr.IntLit{Value: 0}}},
		Within:     NewIndexSet(),
	}
	k, err := NewKernel("demo", nil, noAssumptions(t), []Domain{dom}, []Statement{s1, s2})
	require.NoError(t, err)
	return k
}

func TestNewKernelValidation(t *testing.T) {
	dom := Domain{
		Inames: []string{"i"},
		Set:    boundedSet(t, nil, []string{"i"}, rel.GE(rel.Var("i"), rel.Const(0))),
	}
	valid := Statement{
		ID:         "s1",
		Assignee:   expr.Subscript{Array: "a", Indices: []expr.Expr{expr.Variable{Name: "i"}}},
		Expression: expr.IntLit{Value: 0},
		Within:     NewIndexSet("i"),
	}

	t.Run("empty name", func(t *testing.T) {
		_, err := NewKernel("", nil, noAssumptions(t), []Domain{dom}, []Statement{valid})
		assert.ErrorIs(t, err, ErrInvalidKernel)
	})

	t.Run("duplicate ids", func(t *testing.T) {
		_, err := NewKernel("k", nil, noAssumptions(t), []Domain{dom}, []Statement{valid, valid})
		assert.ErrorIs(t, err, ErrInvalidKernel)
	})

	t.Run("assumptions with dimensions", func(t *testing.T) {
		withDims := boundedSet(t, nil, []string{"i"})
		_, err := NewKernel("k", nil, withDims, []Domain{dom}, []Statement{valid})
		assert.ErrorIs(t, err, ErrInvalidKernel)
	})

	t.Run("iname bound twice", func(t *testing.T) {
		other := Domain{
			Inames: []string{"i", "j"},
			Set:    boundedSet(t, nil, []string{"i", "j"}),
		}
		_, err := NewKernel("k", nil, noAssumptions(t), []Domain{dom, other}, []Statement{valid})
		assert.ErrorIs(t, err, ErrInvalidKernel)
	})

	t.Run("domain dims disagree with inames", func(t *testing.T) {
		bad := Domain{
			Inames: []string{"i", "j"},
			Set:    boundedSet(t, nil, []string{"j", "i"}),
		}
		_, err := NewKernel("k", nil, noAssumptions(t), []Domain{bad}, []Statement{valid})
		assert.ErrorIs(t, err, ErrInvalidKernel)
	})

	t.Run("statement outside every domain", func(t *testing.T) {
		stray := valid
		stray.Within = NewIndexSet("z")
		_, err := NewKernel("k", nil, noAssumptions(t), []Domain{dom}, []Statement{stray})
		assert.ErrorIs(t, err, ErrNoDomain)
	})

	t.Run("edge to unknown statement", func(t *testing.T) {
		withEdge := valid
		withEdge.HappensAfter = map[EdgeKey]HappensAfter{
			{Target: "ghost"}: {},
		}
		_, err := NewKernel("k", nil, noAssumptions(t), []Domain{dom}, []Statement{withEdge})
		assert.ErrorIs(t, err, ErrInvalidKernel)
	})
}

func TestDomainFor(t *testing.T) {
	nest := Domain{
		Inames: []string{"i", "j"},
		Set: boundedSet(t, nil, []string{"i", "j"},
			rel.GE(rel.Var("i"), rel.Const(0)), rel.LT(rel.Var("i"), rel.Const(10)),
			rel.GE(rel.Var("j"), rel.Const(0)), rel.LT(rel.Var("j"), rel.Const(5))),
	}
	k := Kernel{Domains: []Domain{nest}}

	t.Run("exact match", func(t *testing.T) {
		d, err := k.DomainFor(NewIndexSet("i", "j"))
		require.NoError(t, err)
		assert.Equal(t, []string{"i", "j"}, d.Inames)
	})

	t.Run("projected subset keeps order", func(t *testing.T) {
		d, err := k.DomainFor(NewIndexSet("j"))
		require.NoError(t, err)
		assert.Equal(t, []string{"j"}, d.Inames)
		want := boundedSet(t, nil, []string{"j"},
			rel.GE(rel.Var("j"), rel.Const(0)), rel.LT(rel.Var("j"), rel.Const(5)))
		eq, err := d.Set.IsEqual(want)
		require.NoError(t, err)
		assert.True(t, eq)
	})

	t.Run("empty set runs once", func(t *testing.T) {
		d, err := k.DomainFor(NewIndexSet())
		require.NoError(t, err)
		assert.Empty(t, d.Inames)
		assert.False(t, d.Set.IsEmpty())
	})

	t.Run("unknown name", func(t *testing.T) {
		_, err := k.DomainFor(NewIndexSet("z"))
		assert.ErrorIs(t, err, ErrNoDomain)
	})

	t.Run("ambiguous covering", func(t *testing.T) {
		overlapping := Kernel{Domains: []Domain{
			{Inames: []string{"i", "j"}, Set: boundedSet(t, nil, []string{"i", "j"})},
			{Inames: []string{"i", "k"}, Set: boundedSet(t, nil, []string{"i", "k"})},
		}}
		_, err := overlapping.DomainFor(NewIndexSet("i"))
		assert.ErrorIs(t, err, ErrAmbiguousDomain)
	})
}

func TestReaderWriterIndexes(t *testing.T) {
	k := twoStatementKernel(t)

	assert.Equal(t, []string{"s1"}, k.Writers("a"))
	assert.Equal(t, []string{"s1"}, k.Readers("a"))
	assert.Equal(t, []string{"s1", "s2"}, k.Readers("b"))
	assert.Empty(t, k.Writers("b"))

	// Scalar target t is not an array write.
	assert.Empty(t, k.Writers("t"))
	assert.Equal(t, []string{"a", "b"}, k.Variables())
}

func TestAssigneeIndexReads(t *testing.T) {
	dom := Domain{
		Inames: []string{"i"},
		Set:    boundedSet(t, nil, []string{"i"}, rel.GE(rel.Var("i"), rel.Const(0))),
	}
	s := Statement{
		ID: "scatter",
		Assignee: expr.Subscript{Array: "a", Indices: []expr.Expr{
			expr.Subscript{Array: "idx", Indices: []expr.Expr{expr.Variable{Name: "i"}}},
		}},
		Expression: expr.IntLit{Value: 0},
		Within:     NewIndexSet("i"),
	}
	k, err := NewKernel("k", nil, noAssumptions(t), []Domain{dom}, []Statement{s})
	require.NoError(t, err)

	assert.Equal(t, []string{"scatter"}, k.Writers("a"))
	assert.Equal(t, []string{"scatter"}, k.Readers("idx"))
}

func TestWithHappensAfterIsolation(t *testing.T) {
	k := twoStatementKernel(t)
	s1, ok := k.Statement("s1")
	require.True(t, ok)

	edges := map[EdgeKey]HappensAfter{
		{Target: "s2", Variable: "b"}: {Variable: "b", Kind: KindWriteAfterRead},
	}
	updated := s1.WithHappensAfter(edges)

	// Mutating the argument afterwards must not leak in.
	edges[EdgeKey{Target: "s2"}] = HappensAfter{}
	assert.Len(t, updated.HappensAfter, 1)
	assert.Empty(t, s1.HappensAfter)
}

func TestWithStatementsBuildsNewSnapshot(t *testing.T) {
	k := twoStatementKernel(t)
	s1, _ := k.Statement("s1")
	s2, _ := k.Statement("s2")

	updated := s2.WithHappensAfter(map[EdgeKey]HappensAfter{
		{Target: "s1", Variable: "b"}: {Variable: "b", Kind: KindReadAfterWrite},
	})
	next, err := k.WithStatements([]Statement{s1, updated})
	require.NoError(t, err)

	got, _ := next.Statement("s2")
	assert.Len(t, got.HappensAfter, 1)

	// The original snapshot is untouched.
	old, _ := k.Statement("s2")
	assert.Empty(t, old.HappensAfter)
}

func TestEdgeKeysSorted(t *testing.T) {
	s := Statement{HappensAfter: map[EdgeKey]HappensAfter{
		{Target: "z", Variable: "a"}: {},
		{Target: "a", Variable: "b"}: {},
		{Target: "a", Variable: ""}:  {},
	}}
	assert.Equal(t, []EdgeKey{
		{Target: "a", Variable: ""},
		{Target: "a", Variable: "b"},
		{Target: "z", Variable: "a"},
	}, s.EdgeKeys())
}

func TestIndexSet(t *testing.T) {
	s := NewIndexSet("j", "i", "j")
	assert.Equal(t, []string{"i", "j"}, s.Names())
	assert.Equal(t, "i,j", s.Key())
	assert.True(t, s.Contains("i"))
	assert.False(t, s.Contains("k"))
	assert.True(t, s.Equal(NewIndexSet("i", "j")))
	assert.False(t, s.Equal(NewIndexSet("i")))
	assert.Equal(t, []string{"i"}, s.Intersect(NewIndexSet("i", "k")).Names())
}
