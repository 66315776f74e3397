package kernel

import (
	"slices"
	"strings"

	"github.com/tbracht/weft/internal/expr"
	"github.com/tbracht/weft/internal/rel"
)

// IndexSet is an unordered set of loop index names. Ordering, where it
// matters, comes from the owning domain, not from the set.
type IndexSet map[string]struct{}

// NewIndexSet builds an IndexSet from names, ignoring duplicates.
func NewIndexSet(names ...string) IndexSet {
	s := make(IndexSet, len(names))
	for _, n := range names {
		s[n] = struct{}{}
	}
	return s
}

// Names returns the members in sorted order.
func (s IndexSet) Names() []string {
	names := make([]string, 0, len(s))
	for n := range s {
		names = append(names, n)
	}
	slices.Sort(names)
	return names
}

// Key returns a canonical string form usable as a map key.
func (s IndexSet) Key() string {
	return strings.Join(s.Names(), ",")
}

// Contains reports membership of one name.
func (s IndexSet) Contains(name string) bool {
	_, ok := s[name]
	return ok
}

// Equal reports whether both sets have the same members.
func (s IndexSet) Equal(o IndexSet) bool {
	if len(s) != len(o) {
		return false
	}
	for n := range s {
		if !o.Contains(n) {
			return false
		}
	}
	return true
}

// Intersect returns the names in both sets.
func (s IndexSet) Intersect(o IndexSet) IndexSet {
	out := make(IndexSet)
	for n := range s {
		if o.Contains(n) {
			out[n] = struct{}{}
		}
	}
	return out
}

// Clone returns an independent copy.
func (s IndexSet) Clone() IndexSet {
	out := make(IndexSet, len(s))
	for n := range s {
		out[n] = struct{}{}
	}
	return out
}

// DepKind classifies a dependency edge by the access types at both ends.
type DepKind string

const (
	// KindNone marks a structural edge carrying program order only.
	KindNone DepKind = ""

	KindReadAfterWrite  DepKind = "read_after_write"
	KindWriteAfterRead  DepKind = "write_after_read"
	KindWriteAfterWrite DepKind = "write_after_write"
)

// EdgeKey identifies one happens-after edge of a statement. Variable is
// empty for structural edges, so a structural edge and a data edge to the
// same target coexist.
type EdgeKey struct {
	Target   string
	Variable string
}

// HappensAfter is one ordering constraint: the instances relation maps an
// iteration vector of the owning (later) statement to the iteration
// vectors of the target (earlier) statement that must complete first. The
// target side's dimensions carry primed names.
type HappensAfter struct {
	Variable  string
	Kind      DepKind
	Instances rel.Map
}

// Statement is one assignment in a kernel, executed once per point of its
// iteration domain.
type Statement struct {
	ID           string
	Assignee     expr.Expr
	Expression   expr.Expr
	Within       IndexSet
	HappensAfter map[EdgeKey]HappensAfter
}

// WithHappensAfter returns a copy of the statement with its edge map
// replaced. The given map is cloned; later mutation of the argument does
// not leak into the statement.
func (s Statement) WithHappensAfter(edges map[EdgeKey]HappensAfter) Statement {
	out := s
	out.HappensAfter = make(map[EdgeKey]HappensAfter, len(edges))
	for k, v := range edges {
		out.HappensAfter[k] = v
	}
	out.Within = s.Within.Clone()
	return out
}

// EdgeKeys returns the statement's edge keys sorted by target then
// variable, the iteration order every consumer uses.
func (s Statement) EdgeKeys() []EdgeKey {
	keys := make([]EdgeKey, 0, len(s.HappensAfter))
	for k := range s.HappensAfter {
		keys = append(keys, k)
	}
	slices.SortFunc(keys, func(a, b EdgeKey) int {
		if c := strings.Compare(a.Target, b.Target); c != 0 {
			return c
		}
		return strings.Compare(a.Variable, b.Variable)
	})
	return keys
}

// AssigneeArray returns the array variable written by the statement, or
// false for a scalar target.
func (s Statement) AssigneeArray() (string, bool) {
	switch a := s.Assignee.(type) {
	case expr.Subscript:
		return a.Array, true
	case expr.LinearSubscript:
		return a.Array, true
	default:
		return "", false
	}
}
