package rel

import (
	"errors"
	"fmt"
	"slices"
	"strings"
)

// Errors reported by space construction and by operations that require
// compatible operands.
var (
	// ErrSpaceMismatch indicates two relations live in different spaces
	// where an operation requires identical ones.
	ErrSpaceMismatch = errors.New("rel: space mismatch")

	// ErrArityMismatch indicates tuple arities that do not line up, for
	// example composing a relation with two output dimensions against one
	// with three input dimensions.
	ErrArityMismatch = errors.New("rel: arity mismatch")

	// ErrUnknownDim indicates a constraint referenced a name that is not a
	// dimension or parameter of the space it was applied to.
	ErrUnknownDim = errors.New("rel: unknown dimension")
)

// Space names the dimensions of a set or relation. Input and output
// dimension order is significant: lexicographic constructions and printing
// follow it. A set stores its dimensions as output dimensions with no
// inputs.
type Space struct {
	params []string
	in     []string
	out    []string
}

// NewSpace builds a relation space. Every name must be non-empty and unique
// across parameters, inputs and outputs.
func NewSpace(params, in, out []string) (Space, error) {
	sp := Space{
		params: slices.Clone(params),
		in:     slices.Clone(in),
		out:    slices.Clone(out),
	}
	if err := sp.validate(); err != nil {
		return Space{}, err
	}
	return sp, nil
}

// SetSpace builds the space of a set with the given dimensions.
func SetSpace(params, dims []string) (Space, error) {
	return NewSpace(params, nil, dims)
}

func (s Space) validate() error {
	seen := make(map[string]struct{}, len(s.params)+len(s.in)+len(s.out))
	for _, group := range [][]string{s.params, s.in, s.out} {
		for _, name := range group {
			if name == "" {
				return fmt.Errorf("rel: empty dimension name")
			}
			if _, dup := seen[name]; dup {
				return fmt.Errorf("rel: duplicate dimension %q", name)
			}
			seen[name] = struct{}{}
		}
	}
	return nil
}

// Params returns a copy of the parameter names.
func (s Space) Params() []string { return slices.Clone(s.params) }

// In returns a copy of the input dimension names.
func (s Space) In() []string { return slices.Clone(s.in) }

// Out returns a copy of the output dimension names.
func (s Space) Out() []string { return slices.Clone(s.out) }

// Equal reports whether both spaces have identical names in identical
// positions.
func (s Space) Equal(o Space) bool {
	return slices.Equal(s.params, o.params) &&
		slices.Equal(s.in, o.in) &&
		slices.Equal(s.out, o.out)
}

func (s Space) String() string {
	var b strings.Builder
	if len(s.params) > 0 {
		b.WriteString("[" + strings.Join(s.params, ", ") + "] -> ")
	}
	b.WriteString("{ ")
	if len(s.in) > 0 {
		b.WriteString("[" + strings.Join(s.in, ", ") + "] -> ")
	}
	b.WriteString("[" + strings.Join(s.out, ", ") + "] }")
	return b.String()
}

// Column layout of constraint coefficient vectors: inputs, then outputs,
// then parameters. The constant term is stored separately.

func (s Space) ncols() int { return len(s.in) + len(s.out) + len(s.params) }

func (s Space) colNames() []string {
	cols := make([]string, 0, s.ncols())
	cols = append(cols, s.in...)
	cols = append(cols, s.out...)
	cols = append(cols, s.params...)
	return cols
}

// col resolves a name to its column index, or -1.
func (s Space) col(name string) int {
	if i := slices.Index(s.in, name); i >= 0 {
		return i
	}
	if i := slices.Index(s.out, name); i >= 0 {
		return len(s.in) + i
	}
	if i := slices.Index(s.params, name); i >= 0 {
		return len(s.in) + len(s.out) + i
	}
	return -1
}

func (s Space) outCol(i int) int   { return len(s.in) + i }
func (s Space) paramCol(i int) int { return len(s.in) + len(s.out) + i }

// reversed swaps input and output dimensions.
func (s Space) reversed() Space {
	return Space{params: s.params, in: s.out, out: s.in}
}

// withNames replaces one dimension group, revalidating uniqueness.
func (s Space) withInNames(names []string) (Space, error) {
	return NewSpace(s.params, names, s.out)
}

func (s Space) withOutNames(names []string) (Space, error) {
	return NewSpace(s.params, s.in, names)
}

// mergeParams returns the union of both parameter lists, keeping s's order
// and appending o's extras in their own order.
func mergeParams(a, b []string) []string {
	merged := slices.Clone(a)
	for _, p := range b {
		if !slices.Contains(merged, p) {
			merged = append(merged, p)
		}
	}
	return merged
}
