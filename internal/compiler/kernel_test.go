package compiler

import (
	"testing"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tbracht/weft/internal/expr"
	"github.com/tbracht/weft/internal/kernel"
	"github.com/tbracht/weft/internal/rel"
	"github.com/tbracht/weft/internal/testutil"
)

func compileString(t *testing.T, src, path string) (*kernel.Kernel, error) {
	t.Helper()
	ctx := cuecontext.New()
	v := ctx.CompileString(src)
	require.NoError(t, v.Err())
	return CompileKernel(v.LookupPath(cue.ParsePath(path)))
}

func TestCompileKernelBasic(t *testing.T) {
	k, err := compileString(t, `
		kernel: stencil: {
			parameters: ["N"]
			assume: "N >= 3"
			domains: [{inames: ["i"], constraints: "1 <= i < N - 1"}]
			statements: [
				{id: "S1", assign: "a[i]", expr: "a[i + 1] + a[i - 1]", within: ["i"]},
			]
		}
	`, "kernel.stencil")
	require.NoError(t, err)

	assert.Equal(t, "stencil", k.Name)
	assert.Equal(t, []string{"N"}, k.Parameters)

	wantAssume := testutil.Assume(t, []string{"N"}, rel.GE(rel.Var("N"), rel.Const(3)))
	eq, err := k.Assumptions.IsEqual(wantAssume)
	require.NoError(t, err)
	assert.True(t, eq)

	require.Len(t, k.Domains, 1)
	assert.Equal(t, []string{"i"}, k.Domains[0].Inames)
	assert.Equal(t, "[N] -> { [i] : i >= 1 and i + 2 <= N }", k.Domains[0].Set.String())

	require.Len(t, k.Statements, 1)
	s := k.Statements[0]
	assert.Equal(t, "S1", s.ID)
	assert.Equal(t, testutil.At("a", testutil.V("i")), s.Assignee)
	assert.Equal(t, testutil.Plus(
		testutil.At("a", testutil.Plus(testutil.V("i"), testutil.Lit(1))),
		testutil.At("a", testutil.Minus(testutil.V("i"), testutil.Lit(1))),
	), s.Expression)
	assert.Equal(t, kernel.NewIndexSet("i"), s.Within)
}

func TestCompileKernelDefaults(t *testing.T) {
	k, err := compileString(t, `
		kernel: tiny: {
			statements: [{id: "s1", assign: "x", expr: "y + 1"}]
		}
	`, "kernel.tiny")
	require.NoError(t, err)

	assert.Equal(t, "tiny", k.Name)
	assert.Empty(t, k.Parameters)
	assert.Empty(t, k.Domains)
	require.Len(t, k.Statements, 1)
	assert.Empty(t, k.Statements[0].Within)
	assert.Equal(t, testutil.V("x"), k.Statements[0].Assignee)
}

func TestCompileKernelReduction(t *testing.T) {
	k, err := compileString(t, `
		kernel: matmul: {
			parameters: ["N"]
			domains: [
				{inames: ["i", "j"], constraints: "0 <= i < N and 0 <= j < N"},
				{inames: ["k"], constraints: "0 <= k < N"},
			]
			statements: [
				{id: "C", assign: "c[i, j]", expr: "reduce(sum, (k), a[i, k]*b[k, j])", within: ["i", "j"]},
			]
		}
	`, "kernel.matmul")
	require.NoError(t, err)

	require.Len(t, k.Statements, 1)
	red, ok := k.Statements[0].Expression.(expr.Reduction)
	require.True(t, ok)
	assert.Equal(t, "sum", red.Op)
	assert.Equal(t, []string{"k"}, red.Inames)
}

func TestCompileKernelMissingStatements(t *testing.T) {
	_, err := compileString(t, `
		kernel: empty: {
			domains: [{inames: ["i"], constraints: "0 <= i < 10"}]
		}
	`, "kernel.empty")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "statements")
	assert.Contains(t, err.Error(), "required")
}

func TestCompileKernelBadConstraint(t *testing.T) {
	_, err := compileString(t, `
		kernel: bad: {
			domains: [{inames: ["i"], constraints: "i >= a[j]"}]
			statements: [{id: "s1", assign: "x", expr: "1"}]
		}
	`, "kernel.bad")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "domains[0].constraints")
	assert.Contains(t, err.Error(), "indirect access")
}

func TestCompileKernelUnknownConstraintName(t *testing.T) {
	_, err := compileString(t, `
		kernel: bad: {
			parameters: ["N"]
			domains: [{inames: ["i"], constraints: "0 <= i < M"}]
			statements: [{id: "s1", assign: "a[i]", expr: "1", within: ["i"]}]
		}
	`, "kernel.bad")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "domains[0].constraints")
	assert.Contains(t, err.Error(), `"M"`)
}

func TestCompileKernelBadExpression(t *testing.T) {
	_, err := compileString(t, `
		kernel: bad: {
			domains: [{inames: ["i"], constraints: "0 <= i < 10"}]
			statements: [{id: "s1", assign: "a[i]", expr: "a[", within: ["i"]}]
		}
	`, "kernel.bad")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "statements[0].expr")
	assert.Contains(t, err.Error(), "end of input")
}

func TestCompileKernelComputedTarget(t *testing.T) {
	_, err := compileString(t, `
		kernel: bad: {
			domains: [{inames: ["i"], constraints: "0 <= i < 10"}]
			statements: [{id: "s1", assign: "a[i] + 1", expr: "b[i]", within: ["i"]}]
		}
	`, "kernel.bad")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "statements[0].assign")
	assert.Contains(t, err.Error(), "scalar or subscript")
}

func TestCompileKernelDuplicateStatementID(t *testing.T) {
	_, err := compileString(t, `
		kernel: bad: {
			domains: [{inames: ["i"], constraints: "0 <= i < 10"}]
			statements: [
				{id: "s1", assign: "a[i]", expr: "b[i]", within: ["i"]},
				{id: "s1", assign: "c[i]", expr: "a[i]", within: ["i"]},
			]
		}
	`, "kernel.bad")
	require.Error(t, err)
	assert.ErrorIs(t, err, kernel.ErrInvalidKernel)
}

func TestCompileKernelWithinNeedsDomain(t *testing.T) {
	_, err := compileString(t, `
		kernel: bad: {
			domains: [{inames: ["i"], constraints: "0 <= i < 10"}]
			statements: [{id: "s1", assign: "a[j]", expr: "1", within: ["j"]}]
		}
	`, "kernel.bad")
	require.Error(t, err)
	assert.ErrorIs(t, err, kernel.ErrNoDomain)
}
