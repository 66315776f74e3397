package kernel

import (
	"errors"
	"fmt"
	"slices"

	"github.com/tbracht/weft/internal/expr"
	"github.com/tbracht/weft/internal/rel"
)

var (
	// ErrNoDomain indicates no declared domain covers a statement's
	// index-name set.
	ErrNoDomain = errors.New("kernel: no matching iteration domain")

	// ErrAmbiguousDomain indicates more than one declared domain covers an
	// index-name set and none matches it exactly.
	ErrAmbiguousDomain = errors.New("kernel: ambiguous iteration domain")

	// ErrInvalidKernel indicates the snapshot fails a structural check.
	ErrInvalidKernel = errors.New("kernel: invalid kernel")
)

// Domain is one iteration-domain block: the loop index names it binds in
// outer-to-inner order and the affine set of legal index vectors.
type Domain struct {
	Inames []string
	Set    rel.Set
}

// Kernel is the immutable program snapshot: named, parameterized, with
// ordered statements and their iteration domains. Build kernels with
// NewKernel so the derived indexes exist and the structure is validated.
type Kernel struct {
	Name        string
	Parameters  []string
	Assumptions rel.Set
	Domains     []Domain
	Statements  []Statement

	byID    map[string]int
	readers map[string][]string
	writers map[string][]string
}

// NewKernel validates the snapshot and precomputes the id table and the
// reader/writer indexes.
func NewKernel(name string, parameters []string, assumptions rel.Set, domains []Domain, statements []Statement) (Kernel, error) {
	if name == "" {
		return Kernel{}, fmt.Errorf("%w: empty kernel name", ErrInvalidKernel)
	}
	if dims := assumptions.Dims(); len(dims) != 0 {
		return Kernel{}, fmt.Errorf("%w: assumptions constrain dimensions %v, parameters only", ErrInvalidKernel, dims)
	}
	k := Kernel{
		Name:        name,
		Parameters:  slices.Clone(parameters),
		Assumptions: assumptions,
		Domains:     slices.Clone(domains),
		Statements:  slices.Clone(statements),
		byID:        make(map[string]int, len(statements)),
		readers:     make(map[string][]string),
		writers:     make(map[string][]string),
	}
	owner := make(map[string]int)
	for di, d := range k.Domains {
		if len(d.Inames) == 0 {
			return Kernel{}, fmt.Errorf("%w: domain %d binds no index names", ErrInvalidKernel, di)
		}
		if !slices.Equal(d.Set.Dims(), d.Inames) {
			return Kernel{}, fmt.Errorf("%w: domain %d set dims %v do not match inames %v",
				ErrInvalidKernel, di, d.Set.Dims(), d.Inames)
		}
		for _, n := range d.Inames {
			if prev, dup := owner[n]; dup {
				return Kernel{}, fmt.Errorf("%w: index name %q bound by domains %d and %d",
					ErrInvalidKernel, n, prev, di)
			}
			owner[n] = di
		}
	}
	for i, s := range k.Statements {
		if s.ID == "" {
			return Kernel{}, fmt.Errorf("%w: statement %d has empty id", ErrInvalidKernel, i)
		}
		if _, dup := k.byID[s.ID]; dup {
			return Kernel{}, fmt.Errorf("%w: duplicate statement id %q", ErrInvalidKernel, s.ID)
		}
		if s.Assignee == nil || s.Expression == nil {
			return Kernel{}, fmt.Errorf("%w: statement %q missing assignee or expression", ErrInvalidKernel, s.ID)
		}
		k.byID[s.ID] = i
		if _, err := k.DomainFor(s.Within); err != nil {
			return Kernel{}, fmt.Errorf("statement %q: %w", s.ID, err)
		}
	}
	for _, s := range k.Statements {
		for key := range s.HappensAfter {
			if _, ok := k.byID[key.Target]; !ok {
				return Kernel{}, fmt.Errorf("%w: statement %q has edge to unknown statement %q",
					ErrInvalidKernel, s.ID, key.Target)
			}
		}
	}
	if err := k.buildAccessIndexes(); err != nil {
		return Kernel{}, err
	}
	return k, nil
}

// buildAccessIndexes fills the reader and writer maps from the statement
// expression trees. Only array accesses count; a scalar assignment target
// is not an array write.
func (k *Kernel) buildAccessIndexes() error {
	addTo := func(idx map[string][]string, variable, id string) {
		if !slices.Contains(idx[variable], id) {
			idx[variable] = append(idx[variable], id)
		}
	}
	for _, s := range k.Statements {
		if arr, ok := s.AssigneeArray(); ok {
			addTo(k.writers, arr, s.ID)
		}
		reads, err := expr.ArrayNames(s.Expression)
		if err != nil {
			return fmt.Errorf("statement %q: %w", s.ID, err)
		}
		for _, r := range reads {
			addTo(k.readers, r, s.ID)
		}
		// Arrays referenced inside the target's own index expressions are
		// reads, including a self-reference like a[a[i]].
		for _, ix := range assigneeIndexExprs(s.Assignee) {
			inner, err := expr.ArrayNames(ix)
			if err != nil {
				return fmt.Errorf("statement %q: %w", s.ID, err)
			}
			for _, r := range inner {
				addTo(k.readers, r, s.ID)
			}
		}
	}
	for _, idx := range []map[string][]string{k.readers, k.writers} {
		for v := range idx {
			slices.Sort(idx[v])
		}
	}
	return nil
}

func assigneeIndexExprs(assignee expr.Expr) []expr.Expr {
	switch a := assignee.(type) {
	case expr.Subscript:
		return a.Indices
	case expr.LinearSubscript:
		return []expr.Expr{a.Index}
	default:
		return nil
	}
}

// Statement returns the statement with the given id.
func (k Kernel) Statement(id string) (Statement, bool) {
	i, ok := k.byID[id]
	if !ok {
		return Statement{}, false
	}
	return k.Statements[i], true
}

// StatementIndex returns a statement's program-order position.
func (k Kernel) StatementIndex(id string) (int, bool) {
	i, ok := k.byID[id]
	return i, ok
}

// DomainFor resolves the iteration domain for a set of index names. An
// exactly matching domain wins; otherwise a single covering domain is
// projected onto the requested names, keeping its outer-to-inner order. An
// empty set resolves to the zero-dimensional universe, a statement that
// runs exactly once.
func (k Kernel) DomainFor(within IndexSet) (Domain, error) {
	if len(within) == 0 {
		sp, err := rel.SetSpace(nil, nil)
		if err != nil {
			return Domain{}, err
		}
		return Domain{Inames: nil, Set: rel.UniverseSet(sp)}, nil
	}
	covering := -1
	for di, d := range k.Domains {
		bound := NewIndexSet(d.Inames...)
		if within.Equal(bound) {
			return d, nil
		}
		if subset(within, bound) {
			if covering >= 0 {
				return Domain{}, fmt.Errorf("%w: %v covered by domains %d and %d",
					ErrAmbiguousDomain, within.Names(), covering, di)
			}
			covering = di
		}
	}
	if covering < 0 {
		return Domain{}, fmt.Errorf("%w: %v", ErrNoDomain, within.Names())
	}
	d := k.Domains[covering]
	projected, err := d.Set.Project(within.Names())
	if err != nil {
		return Domain{}, err
	}
	inames := make([]string, 0, len(within))
	for _, n := range d.Inames {
		if within.Contains(n) {
			inames = append(inames, n)
		}
	}
	return Domain{Inames: inames, Set: projected}, nil
}

func subset(a, b IndexSet) bool {
	for n := range a {
		if !b.Contains(n) {
			return false
		}
	}
	return true
}

// Readers returns the ids of statements that read the array variable, in
// sorted order. The returned slice is shared; callers must not modify it.
func (k Kernel) Readers(variable string) []string {
	return k.readers[variable]
}

// Writers returns the ids of statements that write the array variable, in
// sorted order. The returned slice is shared; callers must not modify it.
func (k Kernel) Writers(variable string) []string {
	return k.writers[variable]
}

// Variables returns every array variable read or written anywhere in the
// kernel, sorted.
func (k Kernel) Variables() []string {
	seen := make(map[string]struct{}, len(k.readers)+len(k.writers))
	for v := range k.readers {
		seen[v] = struct{}{}
	}
	for v := range k.writers {
		seen[v] = struct{}{}
	}
	names := make([]string, 0, len(seen))
	for v := range seen {
		names = append(names, v)
	}
	slices.Sort(names)
	return names
}

// WithStatements returns a new kernel with the statement list replaced,
// revalidating and rebuilding the derived indexes.
func (k Kernel) WithStatements(statements []Statement) (Kernel, error) {
	return NewKernel(k.Name, k.Parameters, k.Assumptions, k.Domains, statements)
}
