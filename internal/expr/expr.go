// Package expr defines the closed expression tree statements are built
// from: scalar references, integer literals, arithmetic nodes, array
// subscripts, reductions, casts and whole-slice references. The tree is a
// sealed variant type so traversals can be exhaustive; a node kind added
// here without a case in Walk is a compile-visible hole, not a silent skip.
package expr

import (
	"fmt"
	"strings"
)

// Expr is the sealed expression interface.
// Only Variable, IntLit, Sum, Product, Negate, Subscript, LinearSubscript,
// Reduction, TypeCast, and SubArrayRef implement it.
type Expr interface {
	exprNode() // Sealed - only the types in this package implement it
	Kind() Kind
	String() string
}

// Kind discriminates expression node types.
type Kind string

const (
	KindVariable        Kind = "variable"
	KindIntLit          Kind = "int"
	KindSum             Kind = "sum"
	KindProduct         Kind = "product"
	KindNegate          Kind = "negate"
	KindSubscript       Kind = "subscript"
	KindLinearSubscript Kind = "linear_subscript"
	KindReduction       Kind = "reduction"
	KindTypeCast        Kind = "type_cast"
	KindSubArrayRef     Kind = "sub_array_ref"
)

// Variable is a reference to a named scalar, loop index or parameter.
type Variable struct {
	Name string
}

func (Variable) exprNode()  {}
func (Variable) Kind() Kind { return KindVariable }

func (v Variable) String() string { return v.Name }

// IntLit is an integer literal.
type IntLit struct {
	Value int64
}

func (IntLit) exprNode()  {}
func (IntLit) Kind() Kind { return KindIntLit }

func (l IntLit) String() string { return fmt.Sprintf("%d", l.Value) }

// Sum is an n-ary addition. Subtraction is a Sum with negated terms.
type Sum struct {
	Terms []Expr
}

func (Sum) exprNode()  {}
func (Sum) Kind() Kind { return KindSum }

func (s Sum) String() string {
	parts := make([]string, len(s.Terms))
	for i, t := range s.Terms {
		parts[i] = t.String()
	}
	return "(" + strings.Join(parts, " + ") + ")"
}

// Product is an n-ary multiplication.
type Product struct {
	Factors []Expr
}

func (Product) exprNode()  {}
func (Product) Kind() Kind { return KindProduct }

func (p Product) String() string {
	parts := make([]string, len(p.Factors))
	for i, f := range p.Factors {
		parts[i] = f.String()
	}
	return "(" + strings.Join(parts, "*") + ")"
}

// Negate is arithmetic negation.
type Negate struct {
	Operand Expr
}

func (Negate) exprNode()  {}
func (Negate) Kind() Kind { return KindNegate }

func (n Negate) String() string { return "-" + n.Operand.String() }

// Subscript is an array access a[e1, ..., ek]. The array is always a named
// variable; computed bases are not representable.
type Subscript struct {
	Array   string
	Indices []Expr
}

func (Subscript) exprNode()  {}
func (Subscript) Kind() Kind { return KindSubscript }

func (s Subscript) String() string {
	parts := make([]string, len(s.Indices))
	for i, ix := range s.Indices {
		parts[i] = ix.String()
	}
	return s.Array + "[" + strings.Join(parts, ", ") + "]"
}

// LinearSubscript is a flattened single-index array access, produced by
// frontends that pre-linearize multi-dimensional indexing.
type LinearSubscript struct {
	Array string
	Index Expr
}

func (LinearSubscript) exprNode()  {}
func (LinearSubscript) Kind() Kind { return KindLinearSubscript }

func (s LinearSubscript) String() string {
	return s.Array + "[[" + s.Index.String() + "]]"
}

// Reduction folds its body over the given index names with a named
// operation, for example sum(j, a[i, j]).
type Reduction struct {
	Op     string
	Inames []string
	Body   Expr
}

func (Reduction) exprNode()  {}
func (Reduction) Kind() Kind { return KindReduction }

func (r Reduction) String() string {
	return r.Op + "(" + strings.Join(r.Inames, ", ") + ", " + r.Body.String() + ")"
}

// TypeCast converts its operand to a named type without changing the
// access pattern underneath.
type TypeCast struct {
	Type    string
	Operand Expr
}

func (TypeCast) exprNode()  {}
func (TypeCast) Kind() Kind { return KindTypeCast }

func (c TypeCast) String() string {
	return "cast(" + c.Type + ", " + c.Operand.String() + ")"
}

// SubArrayRef is a whole-slice reference: a[j] swept over iname j, passing
// a sub-array rather than one element.
type SubArrayRef struct {
	SweptInames []string
	Subscript   Subscript
}

func (SubArrayRef) exprNode()  {}
func (SubArrayRef) Kind() Kind { return KindSubArrayRef }

func (s SubArrayRef) String() string {
	return "[" + strings.Join(s.SweptInames, ", ") + "]: " + s.Subscript.String()
}
