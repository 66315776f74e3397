package rel

import (
	"fmt"
	"slices"
	"strings"
)

// LinExpr is an affine expression over named dimensions: a sum of integer
// multiples of names plus a constant. LinExpr values are immutable; the
// arithmetic methods return new expressions.
type LinExpr struct {
	terms map[string]int64
	c     int64
}

// Var returns the expression consisting of the single name with
// coefficient 1.
func Var(name string) LinExpr {
	return LinExpr{terms: map[string]int64{name: 1}}
}

// Const returns a constant expression.
func Const(k int64) LinExpr {
	return LinExpr{c: k}
}

func (e LinExpr) clone() LinExpr {
	out := LinExpr{terms: make(map[string]int64, len(e.terms)), c: e.c}
	for n, c := range e.terms {
		out.terms[n] = c
	}
	return out
}

// Add returns e + o.
func (e LinExpr) Add(o LinExpr) LinExpr {
	out := e.clone()
	for n, c := range o.terms {
		out.terms[n] += c
		if out.terms[n] == 0 {
			delete(out.terms, n)
		}
	}
	out.c += o.c
	return out
}

// Sub returns e - o.
func (e LinExpr) Sub(o LinExpr) LinExpr {
	return e.Add(o.Scale(-1))
}

// Scale returns k * e.
func (e LinExpr) Scale(k int64) LinExpr {
	if k == 0 {
		return LinExpr{}
	}
	out := LinExpr{terms: make(map[string]int64, len(e.terms)), c: e.c * k}
	for n, c := range e.terms {
		out.terms[n] = c * k
	}
	return out
}

// Coeff returns the coefficient of name, zero if absent.
func (e LinExpr) Coeff(name string) int64 { return e.terms[name] }

// ConstTerm returns the constant term.
func (e LinExpr) ConstTerm() int64 { return e.c }

// IsConstant reports whether the expression has no variable terms.
func (e LinExpr) IsConstant() bool { return len(e.terms) == 0 }

// Names returns the referenced names in sorted order.
func (e LinExpr) Names() []string {
	names := make([]string, 0, len(e.terms))
	for n := range e.terms {
		names = append(names, n)
	}
	slices.Sort(names)
	return names
}

func (e LinExpr) String() string {
	var b strings.Builder
	for _, n := range e.Names() {
		writeTerm(&b, e.terms[n], n)
	}
	if e.c != 0 || b.Len() == 0 {
		writeTerm(&b, e.c, "")
	}
	return b.String()
}

// writeTerm appends one signed term to a rendered expression. An empty name
// renders the bare coefficient.
func writeTerm(b *strings.Builder, coef int64, name string) {
	if coef == 0 {
		if name == "" && b.Len() == 0 {
			b.WriteString("0")
		}
		return
	}
	neg := coef < 0
	if b.Len() > 0 {
		if neg {
			b.WriteString(" - ")
		} else {
			b.WriteString(" + ")
		}
	} else if neg {
		b.WriteString("-")
	}
	mag := coef
	if neg {
		mag = -mag
	}
	switch {
	case name == "":
		fmt.Fprintf(b, "%d", mag)
	case mag == 1:
		b.WriteString(name)
	default:
		fmt.Fprintf(b, "%d%s", mag, name)
	}
}

// Constraint is an affine condition awaiting application to a space.
type Constraint struct {
	// expr = 0 when eq, expr >= 0 otherwise.
	expr LinExpr
	eq   bool
}

// Eq returns the constraint a = b.
func Eq(a, b LinExpr) Constraint {
	return Constraint{expr: a.Sub(b), eq: true}
}

// LE returns the constraint a <= b.
func LE(a, b LinExpr) Constraint {
	return Constraint{expr: b.Sub(a)}
}

// LT returns the constraint a < b.
func LT(a, b LinExpr) Constraint {
	return Constraint{expr: b.Sub(a).Add(Const(-1))}
}

// GE returns the constraint a >= b.
func GE(a, b LinExpr) Constraint { return LE(b, a) }

// GT returns the constraint a > b.
func GT(a, b LinExpr) Constraint { return LT(b, a) }

// resolve lowers the constraint onto a space's column layout.
func (c Constraint) resolve(sp Space) (constraint, error) {
	vec := make([]int64, sp.ncols())
	for name, coef := range c.expr.terms {
		col := sp.col(name)
		if col < 0 {
			return constraint{}, fmt.Errorf("%w: %q not in %s", ErrUnknownDim, name, sp)
		}
		vec[col] = coef
	}
	return constraint{eq: c.eq, coef: vec, k: c.expr.c}, nil
}
