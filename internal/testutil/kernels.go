package testutil

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/tbracht/weft/internal/expr"
	"github.com/tbracht/weft/internal/kernel"
)

// V builds a variable reference.
func V(name string) expr.Variable { return expr.Variable{Name: name} }

// Lit builds an integer literal.
func Lit(v int64) expr.IntLit { return expr.IntLit{Value: v} }

// At builds the subscript array[indices...].
func At(array string, indices ...expr.Expr) expr.Subscript {
	return expr.Subscript{Array: array, Indices: indices}
}

// Plus builds the sum of its operands.
func Plus(terms ...expr.Expr) expr.Sum { return expr.Sum{Terms: terms} }

// Minus builds a - b.
func Minus(a, b expr.Expr) expr.Sum {
	return expr.Sum{Terms: []expr.Expr{a, expr.Negate{Operand: b}}}
}

// Times builds the product of its operands.
func Times(factors ...expr.Expr) expr.Product { return expr.Product{Factors: factors} }

// ShiftKernel is the one-statement stencil
//
//	a[i] = a[i+1] + a[i-1]   over 0 <= i < 10
//
// and carries both a loop-carried read and a same-element write, so it
// exercises access unioning and self dependences.
func ShiftKernel(t *testing.T) kernel.Kernel {
	t.Helper()
	s := kernel.Statement{
		ID:       "s1",
		Assignee: At("a", V("i")),
		Expression: Plus(
			At("a", Plus(V("i"), Lit(1))),
			At("a", Minus(V("i"), Lit(1)))),
		Within: kernel.NewIndexSet("i"),
	}
	k, err := kernel.NewKernel("shift", nil, NoAssumptions(t),
		[]kernel.Domain{Interval(t, "i", 0, 10)}, []kernel.Statement{s})
	require.NoError(t, err)
	return k
}

// CopyChainKernel is the two-statement flow
//
//	s1: a[i] = b[i]
//	s2: c[i] = a[i]   over 0 <= i < 10
//
// whose only cross-statement dependence is s2 reading what s1 wrote in
// the same iteration.
func CopyChainKernel(t *testing.T) kernel.Kernel {
	t.Helper()
	s1 := kernel.Statement{
		ID:         "s1",
		Assignee:   At("a", V("i")),
		Expression: At("b", V("i")),
		Within:     kernel.NewIndexSet("i"),
	}
	s2 := kernel.Statement{
		ID:         "s2",
		Assignee:   At("c", V("i")),
		Expression: At("a", V("i")),
		Within:     kernel.NewIndexSet("i"),
	}
	k, err := kernel.NewKernel("copychain", nil, NoAssumptions(t),
		[]kernel.Domain{Interval(t, "i", 0, 10)}, []kernel.Statement{s1, s2})
	require.NoError(t, err)
	return k
}

// NestedPairKernel places sA in loop i only and sB in the nest (i, j)
// over the box 0 <= i, j < 4, the shape where order seeding must compare
// on the shared outer loop alone.
func NestedPairKernel(t *testing.T) kernel.Kernel {
	t.Helper()
	sA := kernel.Statement{
		ID:         "sA",
		Assignee:   At("x", V("i")),
		Expression: At("y", V("i")),
		Within:     kernel.NewIndexSet("i"),
	}
	sB := kernel.Statement{
		ID:         "sB",
		Assignee:   At("z", V("i"), V("j")),
		Expression: Plus(At("x", V("i")), At("w", V("j"))),
		Within:     kernel.NewIndexSet("i", "j"),
	}
	k, err := kernel.NewKernel("nested", nil, NoAssumptions(t),
		[]kernel.Domain{Box(t, []string{"i", "j"}, 0, 4)}, []kernel.Statement{sA, sB})
	require.NoError(t, err)
	return k
}
