package compiler

import (
	"fmt"
	"strconv"

	"github.com/tbracht/weft/internal/expr"
	"github.com/tbracht/weft/internal/rel"
)

// ParseError reports a syntax problem in an embedded kernel string. Col is
// a 1-based column into the string.
type ParseError struct {
	Col     int
	Message string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("col %d: %s", e.Col, e.Message)
}

// ParseExpr parses the expression mini-language kernel definitions embed:
// integer literals, identifiers, + - *, unary minus, parentheses,
// subscripts a[i, j+1], linear subscripts a[[i]], reduce(op, (inames),
// body), cast(type, e) and sub-array references [j]: a[i, j].
func ParseExpr(src string) (expr.Expr, error) {
	p, err := newParser(src)
	if err != nil {
		return nil, err
	}
	e, err := p.sum()
	if err != nil {
		return nil, err
	}
	if p.cur().kind != tokEOF {
		return nil, p.errf(p.cur(), "unexpected %s after expression", describe(p.cur()))
	}
	return e, nil
}

// ParseConstraints parses a conjunction of chained affine comparisons like
// "0 <= i < N and i + j <= 2*N", joined with "and". Each adjacent operand
// pair in a chain yields one constraint.
func ParseConstraints(src string) ([]rel.Constraint, error) {
	p, err := newParser(src)
	if err != nil {
		return nil, err
	}
	var out []rel.Constraint
	for {
		cs, err := p.chain()
		if err != nil {
			return nil, err
		}
		out = append(out, cs...)
		if p.cur().kind == tokIdent && p.cur().text == "and" {
			p.advance()
			continue
		}
		break
	}
	if p.cur().kind != tokEOF {
		return nil, p.errf(p.cur(), "unexpected %s after constraint", describe(p.cur()))
	}
	return out, nil
}

type tokenKind int

const (
	tokEOF tokenKind = iota
	tokInt
	tokIdent
	tokPlus
	tokMinus
	tokStar
	tokLParen
	tokRParen
	tokLBracket
	tokRBracket
	tokComma
	tokColon
	tokLE
	tokLT
	tokGE
	tokGT
	tokEq
)

type token struct {
	kind tokenKind
	text string
	col  int
}

func describe(t token) string {
	if t.kind == tokEOF {
		return "end of input"
	}
	return fmt.Sprintf("%q", t.text)
}

func lex(src string) ([]token, error) {
	var toks []token
	i := 0
	for i < len(src) {
		c := src[i]
		switch {
		case c == ' ' || c == '\t' || c == '\n' || c == '\r':
			i++
		case c >= '0' && c <= '9':
			j := i
			for j < len(src) && src[j] >= '0' && src[j] <= '9' {
				j++
			}
			toks = append(toks, token{kind: tokInt, text: src[i:j], col: i + 1})
			i = j
		case isIdentStart(c):
			j := i
			for j < len(src) && isIdentPart(src[j]) {
				j++
			}
			toks = append(toks, token{kind: tokIdent, text: src[i:j], col: i + 1})
			i = j
		default:
			kind, n := tokEOF, 1
			switch c {
			case '+':
				kind = tokPlus
			case '-':
				kind = tokMinus
			case '*':
				kind = tokStar
			case '(':
				kind = tokLParen
			case ')':
				kind = tokRParen
			case '[':
				kind = tokLBracket
			case ']':
				kind = tokRBracket
			case ',':
				kind = tokComma
			case ':':
				kind = tokColon
			case '<':
				kind = tokLT
				if i+1 < len(src) && src[i+1] == '=' {
					kind, n = tokLE, 2
				}
			case '>':
				kind = tokGT
				if i+1 < len(src) && src[i+1] == '=' {
					kind, n = tokGE, 2
				}
			case '=':
				kind = tokEq
				if i+1 < len(src) && src[i+1] == '=' {
					n = 2
				}
			default:
				return nil, &ParseError{Col: i + 1, Message: fmt.Sprintf("unexpected character %q", c)}
			}
			toks = append(toks, token{kind: kind, text: src[i : i+n], col: i + 1})
			i += n
		}
	}
	return append(toks, token{kind: tokEOF, col: len(src) + 1}), nil
}

func isIdentStart(c byte) bool {
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isIdentPart(c byte) bool {
	return isIdentStart(c) || (c >= '0' && c <= '9')
}

type parser struct {
	toks []token
	pos  int
}

func newParser(src string) (*parser, error) {
	toks, err := lex(src)
	if err != nil {
		return nil, err
	}
	return &parser{toks: toks}, nil
}

func (p *parser) cur() token { return p.toks[p.pos] }

func (p *parser) advance() token {
	t := p.toks[p.pos]
	if t.kind != tokEOF {
		p.pos++
	}
	return t
}

func (p *parser) expect(kind tokenKind, what string) (token, error) {
	if p.cur().kind != kind {
		return token{}, p.errf(p.cur(), "expected %s, found %s", what, describe(p.cur()))
	}
	return p.advance(), nil
}

func (p *parser) errf(t token, format string, args ...any) error {
	return &ParseError{Col: t.col, Message: fmt.Sprintf(format, args...)}
}

func (p *parser) sum() (expr.Expr, error) {
	first, err := p.product()
	if err != nil {
		return nil, err
	}
	terms := []expr.Expr{first}
	for {
		switch p.cur().kind {
		case tokPlus:
			p.advance()
			t, err := p.product()
			if err != nil {
				return nil, err
			}
			terms = append(terms, t)
		case tokMinus:
			p.advance()
			t, err := p.product()
			if err != nil {
				return nil, err
			}
			terms = append(terms, expr.Negate{Operand: t})
		default:
			if len(terms) == 1 {
				return terms[0], nil
			}
			return expr.Sum{Terms: terms}, nil
		}
	}
}

func (p *parser) product() (expr.Expr, error) {
	first, err := p.unary()
	if err != nil {
		return nil, err
	}
	factors := []expr.Expr{first}
	for p.cur().kind == tokStar {
		p.advance()
		f, err := p.unary()
		if err != nil {
			return nil, err
		}
		factors = append(factors, f)
	}
	if len(factors) == 1 {
		return factors[0], nil
	}
	return expr.Product{Factors: factors}, nil
}

func (p *parser) unary() (expr.Expr, error) {
	if p.cur().kind == tokMinus {
		p.advance()
		op, err := p.unary()
		if err != nil {
			return nil, err
		}
		return expr.Negate{Operand: op}, nil
	}
	return p.primary()
}

func (p *parser) primary() (expr.Expr, error) {
	t := p.cur()
	switch t.kind {
	case tokInt:
		p.advance()
		n, err := strconv.ParseInt(t.text, 10, 64)
		if err != nil {
			return nil, p.errf(t, "integer literal %q out of range", t.text)
		}
		return expr.IntLit{Value: n}, nil
	case tokIdent:
		p.advance()
		switch {
		case p.cur().kind == tokLParen && t.text == "reduce":
			return p.reduction()
		case p.cur().kind == tokLParen && t.text == "cast":
			return p.typeCast()
		case p.cur().kind == tokLParen:
			return nil, p.errf(t, "unknown function %q, only reduce and cast take arguments", t.text)
		case p.cur().kind == tokLBracket:
			return p.subscript(t.text)
		}
		return expr.Variable{Name: t.text}, nil
	case tokLParen:
		p.advance()
		e, err := p.sum()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(tokRParen, `")"`); err != nil {
			return nil, err
		}
		return e, nil
	case tokLBracket:
		return p.subArrayRef()
	default:
		return nil, p.errf(t, "expected expression, found %s", describe(t))
	}
}

// subscript parses the bracketed index list of an array access. A doubled
// opening bracket marks a pre-linearized single index.
func (p *parser) subscript(array string) (expr.Expr, error) {
	p.advance()
	if p.cur().kind == tokLBracket {
		p.advance()
		ix, err := p.sum()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(tokRBracket, `"]"`); err != nil {
			return nil, err
		}
		if _, err := p.expect(tokRBracket, `"]"`); err != nil {
			return nil, err
		}
		return expr.LinearSubscript{Array: array, Index: ix}, nil
	}
	var indices []expr.Expr
	for {
		ix, err := p.sum()
		if err != nil {
			return nil, err
		}
		indices = append(indices, ix)
		if p.cur().kind != tokComma {
			break
		}
		p.advance()
	}
	if _, err := p.expect(tokRBracket, `"]"`); err != nil {
		return nil, err
	}
	return expr.Subscript{Array: array, Indices: indices}, nil
}

func (p *parser) reduction() (expr.Expr, error) {
	p.advance()
	op, err := p.expect(tokIdent, "reduction operation")
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(tokComma, `","`); err != nil {
		return nil, err
	}
	if _, err := p.expect(tokLParen, `"("`); err != nil {
		return nil, err
	}
	inames, err := p.nameList(tokRParen, `")"`)
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(tokComma, `","`); err != nil {
		return nil, err
	}
	body, err := p.sum()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(tokRParen, `")"`); err != nil {
		return nil, err
	}
	return expr.Reduction{Op: op.text, Inames: inames, Body: body}, nil
}

func (p *parser) typeCast() (expr.Expr, error) {
	p.advance()
	ty, err := p.expect(tokIdent, "type name")
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(tokComma, `","`); err != nil {
		return nil, err
	}
	op, err := p.sum()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(tokRParen, `")"`); err != nil {
		return nil, err
	}
	return expr.TypeCast{Type: ty.text, Operand: op}, nil
}

func (p *parser) subArrayRef() (expr.Expr, error) {
	p.advance()
	inames, err := p.nameList(tokRBracket, `"]"`)
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(tokColon, `":"`); err != nil {
		return nil, err
	}
	arr, err := p.expect(tokIdent, "array name")
	if err != nil {
		return nil, err
	}
	if p.cur().kind != tokLBracket {
		return nil, p.errf(p.cur(), "sub-array reference needs a subscripted array")
	}
	sub, err := p.subscript(arr.text)
	if err != nil {
		return nil, err
	}
	s, ok := sub.(expr.Subscript)
	if !ok {
		return nil, p.errf(arr, "sub-array reference needs a plain subscript")
	}
	return expr.SubArrayRef{SweptInames: inames, Subscript: s}, nil
}

// nameList parses one or more comma-separated identifiers up to and
// including the closing token.
func (p *parser) nameList(closing tokenKind, what string) ([]string, error) {
	var names []string
	for {
		id, err := p.expect(tokIdent, "name")
		if err != nil {
			return nil, err
		}
		names = append(names, id.text)
		if p.cur().kind != tokComma {
			break
		}
		p.advance()
	}
	if _, err := p.expect(closing, what); err != nil {
		return nil, err
	}
	return names, nil
}

// chain parses one comparison chain like "0 <= i < N" into constraints
// over adjacent operand pairs.
func (p *parser) chain() ([]rel.Constraint, error) {
	lhs, err := p.affineOperand()
	if err != nil {
		return nil, err
	}
	var out []rel.Constraint
	for {
		var build func(a, b rel.LinExpr) rel.Constraint
		switch p.cur().kind {
		case tokLE:
			build = rel.LE
		case tokLT:
			build = rel.LT
		case tokGE:
			build = rel.GE
		case tokGT:
			build = rel.GT
		case tokEq:
			build = rel.Eq
		default:
			if len(out) == 0 {
				return nil, p.errf(p.cur(), "expected comparison operator, found %s", describe(p.cur()))
			}
			return out, nil
		}
		p.advance()
		rhs, err := p.affineOperand()
		if err != nil {
			return nil, err
		}
		out = append(out, build(lhs, rhs))
		lhs = rhs
	}
}

// affineOperand parses one side of a comparison and lowers it to affine
// form. Constraints admit no indirect or non-linear operands, so the
// lowering failure surfaces here rather than at analysis time.
func (p *parser) affineOperand() (rel.LinExpr, error) {
	t := p.cur()
	e, err := p.sum()
	if err != nil {
		return rel.LinExpr{}, err
	}
	a, err := expr.Affine(e)
	if err != nil {
		return rel.LinExpr{}, &ParseError{Col: t.col, Message: err.Error()}
	}
	return a, nil
}
