package rel

import (
	"strings"
)

// String renders the relation in the conventional braced form, for example
// "[N] -> { [i] -> [i'] : i = i' and i >= 0 and i + 1 <= N }". Disjuncts
// are separated by "; ". The canonical internal order makes the text a
// stable identity for equal relations built the same way.
func (m Map) String() string {
	return m.render(true)
}

func (m Map) render(withIn bool) string {
	var b strings.Builder
	if len(m.space.params) > 0 {
		b.WriteString("[" + strings.Join(m.space.params, ", ") + "] -> ")
	}
	if len(m.disj) == 0 {
		b.WriteString("{ }")
		return b.String()
	}
	pieces := make([]string, len(m.disj))
	for i, d := range m.disj {
		pieces[i] = m.renderDisjunct(d, withIn)
	}
	b.WriteString("{ " + strings.Join(pieces, "; ") + " }")
	return b.String()
}

func (m Map) renderDisjunct(d basic, withIn bool) string {
	var b strings.Builder
	if withIn {
		b.WriteString("[" + strings.Join(m.space.in, ", ") + "] -> ")
	}
	b.WriteString("[" + strings.Join(m.space.out, ", ") + "]")
	if len(d.cons) == 0 {
		return b.String()
	}
	cs := make([]string, len(d.cons))
	for i, c := range d.cons {
		cs[i] = m.renderCon(c)
	}
	b.WriteString(" : " + strings.Join(cs, " and "))
	return b.String()
}

// renderCon writes one constraint with positive terms kept left and
// negative terms moved right, so "i - i' = 0" reads "i = i'". When only the
// right side carries tuple dimensions the inequality flips, so "9 - i >= 0"
// reads "i <= 9" and "N - i - 1 >= 0" reads "i + 1 <= N".
func (m Map) renderCon(c constraint) string {
	cols := m.space.colNames()
	nDims := len(m.space.in) + len(m.space.out)
	var lhs, rhs strings.Builder
	lhsDims, rhsDims := false, false
	for i, v := range c.coef {
		switch {
		case v > 0:
			writeTerm(&lhs, v, cols[i])
			lhsDims = lhsDims || i < nDims
		case v < 0:
			writeTerm(&rhs, -v, cols[i])
			rhsDims = rhsDims || i < nDims
		}
	}
	if c.k > 0 {
		writeTerm(&lhs, c.k, "")
	} else if c.k < 0 {
		writeTerm(&rhs, -c.k, "")
	}
	left, right := lhs.String(), rhs.String()
	if left == "" {
		left = "0"
	}
	if right == "" {
		right = "0"
	}
	if c.eq {
		return left + " = " + right
	}
	if !lhsDims && rhsDims {
		return right + " <= " + left
	}
	return left + " >= " + right
}
