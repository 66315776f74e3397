package rel

import (
	"fmt"
	"slices"
	"strings"
)

// constraint is one affine condition in a space's column layout:
// coef . cols + k = 0 when eq, coef . cols + k >= 0 otherwise.
type constraint struct {
	eq   bool
	coef []int64
	k    int64
}

func (c constraint) clone() constraint {
	return constraint{eq: c.eq, coef: slices.Clone(c.coef), k: c.k}
}

// key is a canonical identity for deduplication, excluding the constant.
func (c constraint) key() string {
	var b strings.Builder
	if c.eq {
		b.WriteString("=")
	} else {
		b.WriteString(">")
	}
	for _, v := range c.coef {
		fmt.Fprintf(&b, ",%d", v)
	}
	return b.String()
}

// basic is a conjunction of constraints, one disjunct of a set or relation.
// An empty constraint list is the universe.
type basic struct {
	cons []constraint
}

func (b basic) clone() basic {
	out := basic{cons: make([]constraint, len(b.cons))}
	for i, c := range b.cons {
		out.cons[i] = c.clone()
	}
	return out
}

func gcd(a, b int64) int64 {
	if a < 0 {
		a = -a
	}
	if b < 0 {
		b = -b
	}
	for b != 0 {
		a, b = b, a%b
	}
	return a
}

// floorDiv computes floor(a/b) for b > 0.
func floorDiv(a, b int64) int64 {
	q := a / b
	if a%b != 0 && a < 0 {
		q--
	}
	return q
}

// normalizeCon reduces one constraint: divides out the coefficient gcd,
// tightens inequality constants by floor division, fixes the sign of
// equalities so the first nonzero coefficient is positive, and classifies
// variable-free constraints. It reports whether the constraint is feasible
// and whether it is trivially true (and so droppable).
func normalizeCon(c constraint) (out constraint, feasible, trivial bool) {
	g := int64(0)
	for _, v := range c.coef {
		g = gcd(g, v)
	}
	if g == 0 {
		if c.eq {
			return c, c.k == 0, true
		}
		return c, c.k >= 0, true
	}
	if g > 1 {
		if c.eq {
			if c.k%g != 0 {
				return c, false, false
			}
			c.k /= g
		} else {
			c.k = floorDiv(c.k, g)
		}
		for i := range c.coef {
			c.coef[i] /= g
		}
	}
	if c.eq {
		for _, v := range c.coef {
			if v == 0 {
				continue
			}
			if v < 0 {
				for i := range c.coef {
					c.coef[i] = -c.coef[i]
				}
				c.k = -c.k
			}
			break
		}
	}
	return c, true, false
}

// normalizeBasic normalizes every constraint, deduplicates, keeps the
// strongest of parallel inequalities and detects cheap contradictions.
// It reports whether the conjunction is still feasible on its face; deep
// feasibility is isEmptyBasic's job.
func normalizeBasic(b basic) (basic, bool) {
	type slot struct {
		idx int
		k   int64
	}
	eqs := make(map[string]slot)
	ineqs := make(map[string]slot)
	out := basic{}
	for _, c := range b.cons {
		c, feasible, trivial := normalizeCon(c.clone())
		if !feasible {
			return basic{}, false
		}
		if trivial {
			continue
		}
		key := c.key()
		if c.eq {
			if prev, ok := eqs[key]; ok {
				if prev.k != c.k {
					return basic{}, false
				}
				continue
			}
			eqs[key] = slot{idx: len(out.cons), k: c.k}
			out.cons = append(out.cons, c)
			continue
		}
		if prev, ok := ineqs[key]; ok {
			// coef.x + k >= 0 is strongest for the smallest k.
			if c.k < prev.k {
				out.cons[prev.idx] = c
				ineqs[key] = slot{idx: prev.idx, k: c.k}
			}
			continue
		}
		ineqs[key] = slot{idx: len(out.cons), k: c.k}
		out.cons = append(out.cons, c)
	}
	// Opposed parallel inequalities: e + k1 >= 0 and -e + k2 >= 0 admit no
	// point when k1 + k2 < 0.
	for key, s := range ineqs {
		neg := negateKey(key)
		if o, ok := ineqs[neg]; ok && s.k+o.k < 0 {
			return basic{}, false
		}
	}
	return out, true
}

func negateKey(key string) string {
	parts := strings.Split(key[1:], ",")
	var b strings.Builder
	b.WriteString(key[:1])
	for _, p := range parts[1:] {
		if strings.HasPrefix(p, "-") {
			b.WriteString("," + p[1:])
		} else if p == "0" {
			b.WriteString(",0")
		} else {
			b.WriteString(",-" + p)
		}
	}
	return b.String()
}

// addScaled returns dst + f*src without touching dst. Only valid for
// inequality dst when the combination keeps the sense, which holds when src
// is an equality (any f) or when f > 0.
func addScaled(dst, src constraint, f int64) constraint {
	out := dst.clone()
	for i := range out.coef {
		out.coef[i] += f * src.coef[i]
	}
	out.k += f * src.k
	return out
}

// substituteEq removes column col from every constraint except pivot by
// adding the right multiple of the pivot equality. The pivot must be an
// equality with a nonzero coefficient at col. When that coefficient has
// magnitude one the substitution is exact; otherwise the other constraints
// are scaled up first, which drops the divisibility requirement on the
// eliminated column and so can only widen the solution set.
func substituteEq(b basic, pivot int, col int) basic {
	p := b.cons[pivot]
	s := p.coef[col]
	out := basic{cons: make([]constraint, 0, len(b.cons)-1)}
	for i, c := range b.cons {
		if i == pivot {
			continue
		}
		a := c.coef[col]
		if a == 0 {
			out.cons = append(out.cons, c.clone())
			continue
		}
		if s == 1 || s == -1 {
			out.cons = append(out.cons, addScaled(c, p, -a*s))
			continue
		}
		m := s
		if m < 0 {
			m = -m
		}
		scaled := c.clone()
		for j := range scaled.coef {
			scaled.coef[j] *= m
		}
		scaled.k *= m
		f := -a
		if s < 0 {
			f = a
		}
		out.cons = append(out.cons, addScaled(scaled, p, f))
	}
	return out
}

// fourierMotzkin removes column col by combining every lower bound with
// every upper bound. Equalities touching col must have been substituted
// away beforehand; any remaining ones are split into bound pairs here.
func fourierMotzkin(b basic, col int) basic {
	var rest, lowers, uppers []constraint
	for _, c := range b.cons {
		v := c.coef[col]
		switch {
		case v == 0:
			rest = append(rest, c.clone())
		case c.eq:
			le := c.clone()
			le.eq = false
			ge := constraint{coef: make([]int64, len(c.coef)), k: -c.k}
			for i, cv := range c.coef {
				ge.coef[i] = -cv
			}
			if v > 0 {
				lowers = append(lowers, le)
				uppers = append(uppers, ge)
			} else {
				lowers = append(lowers, ge)
				uppers = append(uppers, le)
			}
		case v > 0:
			lowers = append(lowers, c.clone())
		default:
			uppers = append(uppers, c.clone())
		}
	}
	if len(lowers) == 0 || len(uppers) == 0 {
		// Unbounded in at least one direction: every combination of the
		// other columns extends to a value of col.
		return basic{cons: rest}
	}
	out := basic{cons: rest}
	for _, lo := range lowers {
		a := lo.coef[col]
		for _, up := range uppers {
			m := -up.coef[col]
			combined := constraint{coef: make([]int64, len(lo.coef))}
			for i := range combined.coef {
				combined.coef[i] = m*lo.coef[i] + a*up.coef[i]
			}
			combined.k = m*lo.k + a*up.k
			out.cons = append(out.cons, combined)
		}
	}
	return out
}

// eliminateCols removes the given columns from the conjunction, preferring
// exact substitution through equalities and falling back to
// Fourier-Motzkin. The returned basic has zero coefficients at every
// eliminated column. The second result is false when the conjunction was
// detected infeasible along the way.
func eliminateCols(b basic, cols []int) (basic, bool) {
	b, ok := normalizeBasic(b.clone())
	if !ok {
		return basic{}, false
	}
	remaining := slices.Clone(cols)
	// Substitution passes first: they are exact and keep the system small.
	for {
		sub := -1
		subCol := -1
		best := int64(0)
		for _, col := range remaining {
			for i, c := range b.cons {
				if !c.eq || c.coef[col] == 0 {
					continue
				}
				mag := c.coef[col]
				if mag < 0 {
					mag = -mag
				}
				if best == 0 || mag < best {
					best, sub, subCol = mag, i, col
				}
				if best == 1 {
					break
				}
			}
			if best == 1 {
				break
			}
		}
		if sub < 0 {
			break
		}
		b = substituteEq(b, sub, subCol)
		remaining = slices.DeleteFunc(remaining, func(c int) bool { return c == subCol })
		b, ok = normalizeBasic(b)
		if !ok {
			return basic{}, false
		}
	}
	for _, col := range remaining {
		b = fourierMotzkin(b, col)
		b, ok = normalizeBasic(b)
		if !ok {
			return basic{}, false
		}
	}
	return b, true
}

// isEmptyBasic reports whether the conjunction admits no integer point.
// Every column, parameters included, is treated as existentially
// quantified. The answer errs toward "not empty" when integer tightening
// cannot decide exactly.
func isEmptyBasic(sp Space, b basic) bool {
	cols := make([]int, sp.ncols())
	for i := range cols {
		cols[i] = i
	}
	_, ok := eliminateCols(b, cols)
	return !ok
}

// reduceByEqs runs a Gauss pass over the conjunction: each equality with
// a unit coefficient eliminates its pivot column from every other
// constraint while staying in place as the pivot's one definition.
// Pivots prefer the last unit tuple dimension, then the last unit
// parameter, so bounds end up stated on the leading dimensions. Bounds
// implied by equalities collapse to duplicates or trivialities and are
// dropped by renormalization. The second result is false when the
// conjunction turns out infeasible.
func reduceByEqs(b basic, nDims int) (basic, bool) {
	for round := 0; round < len(b.cons); round++ {
		changed := false
		for ei := 0; ei < len(b.cons); ei++ {
			e := b.cons[ei]
			if !e.eq {
				continue
			}
			col := pivotCol(e.coef, nDims)
			if col < 0 {
				continue
			}
			s := e.coef[col]
			for ci := range b.cons {
				if ci == ei || b.cons[ci].coef[col] == 0 {
					continue
				}
				a := b.cons[ci].coef[col]
				b.cons[ci] = addScaled(b.cons[ci], e, -a*s)
				changed = true
			}
		}
		if !changed {
			return b, true
		}
		var ok bool
		b, ok = normalizeBasic(b)
		if !ok {
			return basic{}, false
		}
	}
	return b, true
}

func pivotCol(coef []int64, nDims int) int {
	for j := min(nDims, len(coef)) - 1; j >= 0; j-- {
		if coef[j] == 1 || coef[j] == -1 {
			return j
		}
	}
	for j := len(coef) - 1; j >= nDims; j-- {
		if coef[j] == 1 || coef[j] == -1 {
			return j
		}
	}
	return -1
}

// expandEqs rewrites each equality as a pair of inequalities, leaving
// inequalities untouched. Complement decomposition needs a pure
// inequality form.
func expandEqs(b basic) basic {
	out := basic{cons: make([]constraint, 0, len(b.cons))}
	for _, c := range b.cons {
		if !c.eq {
			out.cons = append(out.cons, c.clone())
			continue
		}
		le := c.clone()
		le.eq = false
		ge := constraint{coef: make([]int64, len(c.coef)), k: -c.k}
		for i, v := range c.coef {
			ge.coef[i] = -v
		}
		out.cons = append(out.cons, le, ge)
	}
	return out
}

// negateCon returns the complement of an inequality: not(e + k >= 0) is
// -e - k - 1 >= 0 over the integers.
func negateCon(c constraint) constraint {
	out := constraint{coef: make([]int64, len(c.coef)), k: -c.k - 1}
	for i, v := range c.coef {
		out.coef[i] = -v
	}
	return out
}
