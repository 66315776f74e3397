package expr

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAffineForms(t *testing.T) {
	i, j := Variable{Name: "i"}, Variable{Name: "j"}
	cases := []struct {
		name string
		e    Expr
		want string
		ok   bool
	}{
		{name: "variable", e: i, want: "i", ok: true},
		{name: "scaled sum", e: Product{Factors: []Expr{IntLit{Value: 2}, Sum{Terms: []Expr{i, IntLit{Value: 3}}}}}, want: "2i + 6", ok: true},
		{name: "trailing factor", e: Product{Factors: []Expr{i, IntLit{Value: 4}}}, want: "4i", ok: true},
		{name: "negated", e: Negate{Operand: j}, want: "-j", ok: true},
		{name: "cast", e: TypeCast{Type: "i64", Operand: i}, want: "i", ok: true},
		{name: "subtraction", e: Sum{Terms: []Expr{i, Negate{Operand: i}}}, want: "0", ok: true},
		{name: "quadratic", e: Product{Factors: []Expr{i, j}}, ok: false},
		{name: "nested subscript", e: Subscript{Array: "idx", Indices: []Expr{i}}, ok: false},
		{name: "reduction", e: Reduction{Op: "sum", Inames: []string{"j"}, Body: j}, ok: false},
		{name: "sub-array reference", e: SubArrayRef{SweptInames: []string{"j"}, Subscript: Subscript{Array: "a", Indices: []Expr{j}}}, ok: false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := Affine(tc.e)
			if !tc.ok {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.want, got.String())
		})
	}
}
