package compiler

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tbracht/weft/internal/expr"
	"github.com/tbracht/weft/internal/rel"
	"github.com/tbracht/weft/internal/testutil"
)

func TestParseExprForms(t *testing.T) {
	cases := []struct {
		name string
		src  string
		want expr.Expr
	}{
		{
			name: "stencil sum",
			src:  "a[i + 1] + a[i - 1]",
			want: testutil.Plus(
				testutil.At("a", testutil.Plus(testutil.V("i"), testutil.Lit(1))),
				testutil.At("a", testutil.Minus(testutil.V("i"), testutil.Lit(1))),
			),
		},
		{
			name: "product binds tighter than sum",
			src:  "1 + 2*j",
			want: testutil.Plus(testutil.Lit(1), testutil.Times(testutil.Lit(2), testutil.V("j"))),
		},
		{
			name: "parenthesized sum scaled",
			src:  "(i + j)*2",
			want: testutil.Times(testutil.Plus(testutil.V("i"), testutil.V("j")), testutil.Lit(2)),
		},
		{
			name: "unary minus",
			src:  "-i + j",
			want: testutil.Plus(expr.Negate{Operand: testutil.V("i")}, testutil.V("j")),
		},
		{
			name: "multi-dimensional subscript",
			src:  "a[i, j + 1]",
			want: testutil.At("a", testutil.V("i"), testutil.Plus(testutil.V("j"), testutil.Lit(1))),
		},
		{
			name: "linear subscript",
			src:  "a[[2*i + 1]]",
			want: expr.LinearSubscript{Array: "a", Index: testutil.Plus(testutil.Times(testutil.Lit(2), testutil.V("i")), testutil.Lit(1))},
		},
		{
			name: "reduction",
			src:  "reduce(sum, (j, k), a[i, j]*b[k])",
			want: expr.Reduction{Op: "sum", Inames: []string{"j", "k"},
				Body: testutil.Times(testutil.At("a", testutil.V("i"), testutil.V("j")), testutil.At("b", testutil.V("k")))},
		},
		{
			name: "cast",
			src:  "cast(f32, a[i])",
			want: expr.TypeCast{Type: "f32", Operand: testutil.At("a", testutil.V("i"))},
		},
		{
			name: "sub-array reference",
			src:  "[j]: a[i, j]",
			want: expr.SubArrayRef{SweptInames: []string{"j"}, Subscript: testutil.At("a", testutil.V("i"), testutil.V("j"))},
		},
		{
			name: "reduce is a soft keyword",
			src:  "reduce + 1",
			want: testutil.Plus(testutil.V("reduce"), testutil.Lit(1)),
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := ParseExpr(tc.src)
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestParseExprErrors(t *testing.T) {
	cases := []struct {
		name string
		src  string
		msg  string
	}{
		{name: "empty input", src: "", msg: "expected expression"},
		{name: "dangling subscript", src: "a[", msg: "end of input"},
		{name: "dangling operator", src: "1 +", msg: "expected expression"},
		{name: "trailing tokens", src: "a[i]]", msg: `unexpected "]" after expression`},
		{name: "unknown function", src: "f(x)", msg: "unknown function"},
		{name: "stray character", src: "i @ j", msg: "unexpected character"},
		{name: "literal overflow", src: "99999999999999999999", msg: "out of range"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := ParseExpr(tc.src)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.msg)
		})
	}
}

func TestParseErrorCarriesColumn(t *testing.T) {
	_, err := ParseExpr("i @ j")
	var pe *ParseError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, 3, pe.Col)
	assert.Contains(t, pe.Error(), "col 3")
}

func TestParseConstraintsChain(t *testing.T) {
	cs, err := ParseConstraints("0 <= i < 10")
	require.NoError(t, err)
	require.Len(t, cs, 2)

	got := testutil.Bounded(t, nil, []string{"i"}, cs...)
	assert.Equal(t, "{ [i] : i >= 0 and i <= 9 }", got.String())
}

func TestParseConstraintsConjunction(t *testing.T) {
	cs, err := ParseConstraints("0 <= i < N and 2*i <= j")
	require.NoError(t, err)
	require.Len(t, cs, 3)

	got := testutil.Bounded(t, []string{"N"}, []string{"i", "j"}, cs...)
	want := testutil.Bounded(t, []string{"N"}, []string{"i", "j"},
		rel.GE(rel.Var("i"), rel.Const(0)),
		rel.LT(rel.Var("i"), rel.Var("N")),
		rel.LE(rel.Var("i").Scale(2), rel.Var("j")))
	eq, err := got.IsEqual(want)
	require.NoError(t, err)
	assert.True(t, eq)
}

func TestParseConstraintsEqualitySpellings(t *testing.T) {
	for _, src := range []string{"i = j", "i == j"} {
		cs, err := ParseConstraints(src)
		require.NoError(t, err, src)
		require.Len(t, cs, 1, src)
		got := testutil.Bounded(t, nil, []string{"i", "j"}, cs...)
		assert.Equal(t, "{ [i, j] : i = j }", got.String(), src)
	}
}

func TestParseConstraintsSubtractsParameters(t *testing.T) {
	cs, err := ParseConstraints("1 <= i < N - 1")
	require.NoError(t, err)
	got := testutil.Bounded(t, []string{"N"}, []string{"i"}, cs...)
	assert.Equal(t, "[N] -> { [i] : i >= 1 and i + 2 <= N }", got.String())
}

func TestParseConstraintsErrors(t *testing.T) {
	cases := []struct {
		name string
		src  string
		msg  string
	}{
		{name: "empty input", src: "", msg: "expected expression"},
		{name: "no comparison", src: "i", msg: "expected comparison operator"},
		{name: "dangling comparison", src: "i < ", msg: "expected expression"},
		{name: "indirect operand", src: "a[i] <= 5", msg: "indirect access"},
		{name: "non-linear operand", src: "i*j <= 5", msg: "non-constant factors"},
		{name: "dangling and", src: "i <= 5 and", msg: "expected expression"},
		{name: "unsupported operator", src: "i != 5", msg: "unexpected character"},
		{name: "trailing tokens", src: "i <= 5 j", msg: `unexpected "j" after constraint`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := ParseConstraints(tc.src)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.msg)
		})
	}
}
