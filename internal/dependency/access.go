package dependency

import (
	"fmt"
	"log/slog"
	"slices"
	"strings"

	"github.com/tbracht/weft/internal/expr"
	"github.com/tbracht/weft/internal/kernel"
	"github.com/tbracht/weft/internal/rel"
)

// UndecidablePolicy selects what extraction does with an access whose
// index expression has no affine form.
type UndecidablePolicy int

const (
	// UndecidableAbort fails the whole analysis on the first undecidable
	// access. This is the default: an access the model cannot see is a
	// dependency the result cannot promise.
	UndecidableAbort UndecidablePolicy = iota

	// UndecidableSkip drops the access, marks the (statement, variable)
	// pair tainted and keeps going. The resulting graph understates
	// orderings for tainted pairs; every skip is logged.
	UndecidableSkip
)

// Options configure an analysis run.
type Options struct {
	OnUndecidable UndecidablePolicy

	// Logger receives progress and skip diagnostics. Nil means
	// slog.Default().
	Logger *slog.Logger
}

func (o Options) logger() *slog.Logger {
	if o.Logger != nil {
		return o.Logger
	}
	return slog.Default()
}

// Key identifies one recorded access relation.
type Key struct {
	Statement string
	Variable  string
}

// AccessRelations is the lookup result for one (statement, variable)
// pair: the unioned read and write relations, each mapping the
// statement's iteration vector to accessed index tuples. HasRead and
// HasWrite distinguish "no accesses of that type" from an empty relation.
type AccessRelations struct {
	Inames   kernel.IndexSet
	Read     rel.Map
	Write    rel.Map
	HasRead  bool
	HasWrite bool
}

type accessEntry struct {
	inames   kernel.IndexSet
	read     rel.Map
	write    rel.Map
	hasRead  bool
	hasWrite bool
}

// AccessIndex holds every access relation extracted from a kernel. It is
// immutable once ExtractAccessRelations returns and safe for shared
// read-only use.
type AccessIndex struct {
	entries map[Key]*accessEntry
	tainted map[Key]struct{}
}

// Relations returns the recorded relations for a (statement, variable)
// pair. A pair that was never recorded is an extractor/consumer contract
// violation and returns ErrCodeMissingAccess.
func (ai *AccessIndex) Relations(statement, variable string) (AccessRelations, error) {
	e, ok := ai.entries[Key{Statement: statement, Variable: variable}]
	if !ok {
		return AccessRelations{}, NewMissingAccessError(statement, variable)
	}
	return AccessRelations{
		Inames:   e.inames.Clone(),
		Read:     e.read,
		Write:    e.write,
		HasRead:  e.hasRead,
		HasWrite: e.hasWrite,
	}, nil
}

// Tainted reports whether an undecidable access for the pair was skipped,
// meaning the recorded relations understate the statement's accesses.
func (ai *AccessIndex) Tainted(statement, variable string) bool {
	_, ok := ai.tainted[Key{Statement: statement, Variable: variable}]
	return ok
}

// Variables returns the sorted variable names recorded for a statement.
func (ai *AccessIndex) Variables(statement string) []string {
	var names []string
	for k := range ai.entries {
		if k.Statement == statement {
			names = append(names, k.Variable)
		}
	}
	slices.Sort(names)
	return names
}

// TouchedVariables returns the sorted variable names either recorded or
// tainted for a statement. Tainted-only names have no recorded relation,
// but a consumer must still see them: a skipped access is not proof of no
// access.
func (ai *AccessIndex) TouchedVariables(statement string) []string {
	names := ai.Variables(statement)
	for k := range ai.tainted {
		if k.Statement == statement && !slices.Contains(names, k.Variable) {
			names = append(names, k.Variable)
		}
	}
	slices.Sort(names)
	return names
}

// Keys returns every recorded (statement, variable) pair, sorted.
func (ai *AccessIndex) Keys() []Key {
	keys := make([]Key, 0, len(ai.entries))
	for k := range ai.entries {
		keys = append(keys, k)
	}
	slices.SortFunc(keys, func(a, b Key) int {
		if a.Statement != b.Statement {
			return strings.Compare(a.Statement, b.Statement)
		}
		return strings.Compare(a.Variable, b.Variable)
	})
	return keys
}

// ExtractAccessRelations walks every statement's assignment target and
// right-hand side and records, per (statement, variable), the exact
// relation from the statement's iteration domain to the index tuples it
// reads and writes. Multiple textual accesses to the same variable union
// into one relation; any one of them may alias a concrete iteration, so
// all must stay visible.
func ExtractAccessRelations(k kernel.Kernel, opts Options) (*AccessIndex, error) {
	ai := &AccessIndex{
		entries: make(map[Key]*accessEntry),
		tainted: make(map[Key]struct{}),
	}
	ex := &extractor{kernel: k, index: ai, opts: opts}
	for _, s := range k.Statements {
		if err := ex.statement(s); err != nil {
			return nil, err
		}
	}
	return ai, nil
}

type extractor struct {
	kernel kernel.Kernel
	index  *AccessIndex
	opts   Options
}

func (ex *extractor) statement(s kernel.Statement) error {
	domain, err := ex.kernel.DomainFor(s.Within)
	if err != nil {
		return NewRelationError(s.ID, err)
	}
	domSet, err := domain.Set.IntersectParams(ex.kernel.Assumptions)
	if err != nil {
		return NewRelationError(s.ID, err)
	}

	// The target's outermost subscript is the write; subscripts inside its
	// index expressions, and everything on the right-hand side, are reads.
	switch a := s.Assignee.(type) {
	case expr.Subscript:
		if err := ex.record(s, domain, domSet, a.Array, a.Indices, true); err != nil {
			return err
		}
		for _, ix := range a.Indices {
			if err := ex.walkReads(s, domain, domSet, ix); err != nil {
				return err
			}
		}
	case expr.LinearSubscript:
		if err := ex.record(s, domain, domSet, a.Array, []expr.Expr{a.Index}, true); err != nil {
			return err
		}
		if err := ex.walkReads(s, domain, domSet, a.Index); err != nil {
			return err
		}
	case expr.SubArrayRef:
		return NewUnsupportedAccessError(s.ID, a.Subscript.Array)
	default:
		// Scalar or computed target: no array write to record.
	}
	return ex.walkReads(s, domain, domSet, s.Expression)
}

// walkReads records a read access for every subscript in the tree.
// Reductions and casts are descended through; a sub-array reference fails
// hard regardless of policy, it is not analyzable at all.
func (ex *extractor) walkReads(s kernel.Statement, domain kernel.Domain, domSet rel.Set, e expr.Expr) error {
	return expr.Walk(e, func(n expr.Expr) error {
		switch sub := n.(type) {
		case expr.Subscript:
			return ex.record(s, domain, domSet, sub.Array, sub.Indices, false)
		case expr.LinearSubscript:
			return ex.record(s, domain, domSet, sub.Array, []expr.Expr{sub.Index}, false)
		case expr.SubArrayRef:
			return NewUnsupportedAccessError(s.ID, sub.Subscript.Array)
		default:
			return nil
		}
	})
}

// record builds the relation for one textual access and unions it into
// the index.
func (ex *extractor) record(s kernel.Statement, domain kernel.Domain, domSet rel.Set, variable string, indices []expr.Expr, isWrite bool) error {
	access, err := ex.accessMap(domain, domSet, indices)
	if err != nil {
		if IsUnsupportedAccess(err) {
			return err
		}
		if ex.opts.OnUndecidable == UndecidableSkip {
			key := Key{Statement: s.ID, Variable: variable}
			ex.index.tainted[key] = struct{}{}
			ex.opts.logger().Warn("skipping undecidable access",
				"statement", s.ID, "variable", variable, "cause", err.Error())
			return nil
		}
		return NewUndecidableAccessError(s.ID, variable, err)
	}

	key := Key{Statement: s.ID, Variable: variable}
	e, ok := ex.index.entries[key]
	if !ok {
		e = &accessEntry{inames: s.Within.Clone()}
		ex.index.entries[key] = e
	}
	if isWrite {
		if !e.hasWrite {
			e.write, e.hasWrite = access, true
			return nil
		}
		e.write, err = e.write.Union(access)
	} else {
		if !e.hasRead {
			e.read, e.hasRead = access, true
			return nil
		}
		e.read, err = e.read.Union(access)
	}
	if err != nil {
		return NewRelationError(s.ID, err)
	}
	return nil
}

// accessMap converts one index tuple into a relation from the iteration
// domain to the accessed indices: the cross product of the constrained
// domain with an unconstrained index tuple, narrowed by one equality per
// index position.
func (ex *extractor) accessMap(domain kernel.Domain, domSet rel.Set, indices []expr.Expr) (rel.Map, error) {
	// The "@" prefix sits outside the kernel identifier grammar, so an
	// output name can never collide with an iname or parameter.
	outDims := make([]string, len(indices))
	for i := range indices {
		outDims[i] = fmt.Sprintf("@%d", i)
	}
	outSp, err := rel.SetSpace(ex.kernel.Parameters, outDims)
	if err != nil {
		return rel.Map{}, err
	}
	m, err := rel.FromDomainAndRange(domSet, rel.UniverseSet(outSp))
	if err != nil {
		return rel.Map{}, err
	}
	cs := make([]rel.Constraint, len(indices))
	for i, ix := range indices {
		affine, err := expr.Affine(ix)
		if err != nil {
			return rel.Map{}, err
		}
		cs[i] = rel.Eq(rel.Var(outDims[i]), affine)
	}
	narrowed, err := m.Where(cs...)
	if err != nil {
		return rel.Map{}, err
	}
	return narrowed, nil
}
