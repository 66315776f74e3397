package expr

import (
	"fmt"

	"github.com/tbracht/weft/internal/rel"
)

// Affine lowers an expression to an affine form over its free names.
// Anything beyond sums, integer scaling, negation and casts of names and
// literals has no affine form: a product of two variables, a nested
// subscript, a reduction. Name validity against a concrete space is the
// caller's concern.
func Affine(e Expr) (rel.LinExpr, error) {
	switch n := e.(type) {
	case Variable:
		return rel.Var(n.Name), nil
	case IntLit:
		return rel.Const(n.Value), nil
	case Sum:
		out := rel.Const(0)
		for _, term := range n.Terms {
			a, err := Affine(term)
			if err != nil {
				return rel.LinExpr{}, err
			}
			out = out.Add(a)
		}
		return out, nil
	case Negate:
		a, err := Affine(n.Operand)
		if err != nil {
			return rel.LinExpr{}, err
		}
		return a.Scale(-1), nil
	case Product:
		out := rel.Const(1)
		seenVars := false
		for _, f := range n.Factors {
			a, err := Affine(f)
			if err != nil {
				return rel.LinExpr{}, err
			}
			switch {
			case a.IsConstant():
				out = out.Scale(a.ConstTerm())
			case seenVars:
				return rel.LinExpr{}, fmt.Errorf("product of two non-constant factors in %q", e.String())
			default:
				// out is still the constant prefix of the product.
				out = a.Scale(out.ConstTerm())
				seenVars = true
			}
		}
		return out, nil
	case TypeCast:
		return Affine(n.Operand)
	case Subscript, LinearSubscript:
		return rel.LinExpr{}, fmt.Errorf("subscript %q is an indirect access", e.String())
	case Reduction:
		return rel.LinExpr{}, fmt.Errorf("reduction %q has no affine form", e.String())
	case SubArrayRef:
		return rel.LinExpr{}, fmt.Errorf("sub-array reference %q has no affine form", e.String())
	default:
		return rel.LinExpr{}, fmt.Errorf("unknown expression node %T", e)
	}
}
