package compiler

import (
	"fmt"
	"strings"

	"github.com/tbracht/weft/internal/expr"
	"github.com/tbracht/weft/internal/kernel"
)

// Validation error codes (E100-E199)
const (
	// General validation errors (E100)
	ErrUnsupportedInput = "E100" // unsupported value type for validation

	// Kernel errors (E101-E109)
	ErrKernelNameEmpty    = "E101" // kernel name is required
	ErrKernelNoStatements = "E102" // at least one statement required
	ErrStatementIDEmpty   = "E103" // statement id is required
	ErrDuplicateStatement = "E104" // duplicate statement id
	ErrUnboundIndexName   = "E105" // within references an unbound index name
	ErrDuplicateIndexName = "E106" // index name bound by two domains
	ErrNonAffineIndex     = "E107" // subscript index has no affine form
	ErrForeignIndexName   = "E108" // index uses a name outside the iteration space
	ErrParameterRebound   = "E109" // parameter name also bound as an index name
)

// ValidationError represents a kernel validation error.
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Code    string `json:"code"`
}

// Error implements the error interface.
func (e ValidationError) Error() string {
	return fmt.Sprintf("[%s] %s: %s", e.Code, e.Field, e.Message)
}

// Validate checks a compiled kernel against schema rules.
// Returns all errors found (does not fail-fast).
func Validate(v any) []ValidationError {
	switch k := v.(type) {
	case *kernel.Kernel:
		return validateKernel(k)
	case kernel.Kernel:
		return validateKernel(&k)
	default:
		return []ValidationError{{
			Field:   "type",
			Message: fmt.Sprintf("unsupported type for validation: %T", v),
			Code:    ErrUnsupportedInput,
		}}
	}
}

func validateKernel(k *kernel.Kernel) []ValidationError {
	var errs []ValidationError

	// E101: kernel name is required
	if strings.TrimSpace(k.Name) == "" {
		errs = append(errs, ValidationError{
			Field:   "name",
			Message: "kernel name is required and must be non-empty",
			Code:    ErrKernelNameEmpty,
		})
	}

	// E102: at least one statement required
	if len(k.Statements) == 0 {
		errs = append(errs, ValidationError{
			Field:   "statements",
			Message: "at least one statement is required",
			Code:    ErrKernelNoStatements,
		})
	}

	// E106: every index name has exactly one owning domain
	owner := make(map[string]int)
	for i, d := range k.Domains {
		for _, n := range d.Inames {
			if prev, dup := owner[n]; dup {
				errs = append(errs, ValidationError{
					Field:   fmt.Sprintf("domains[%d].inames", i),
					Message: fmt.Sprintf("index name %q already bound by domain %d", n, prev),
					Code:    ErrDuplicateIndexName,
				})
				continue
			}
			owner[n] = i
		}
	}

	// E109: parameter names must not collide with index names
	params := make(map[string]bool, len(k.Parameters))
	for i, p := range k.Parameters {
		params[p] = true
		if _, bound := owner[p]; bound {
			errs = append(errs, ValidationError{
				Field:   fmt.Sprintf("parameters[%d]", i),
				Message: fmt.Sprintf("parameter %q is also bound as an index name", p),
				Code:    ErrParameterRebound,
			})
		}
	}

	seenIDs := make(map[string]bool)
	for i, s := range k.Statements {
		// E103: statement id is required
		if strings.TrimSpace(s.ID) == "" {
			errs = append(errs, ValidationError{
				Field:   fmt.Sprintf("statements[%d].id", i),
				Message: "statement id is required and must be non-empty",
				Code:    ErrStatementIDEmpty,
			})
		}

		// E104: duplicate statement id
		if seenIDs[s.ID] {
			errs = append(errs, ValidationError{
				Field:   fmt.Sprintf("statements[%d].id", i),
				Message: fmt.Sprintf("duplicate statement id: %q", s.ID),
				Code:    ErrDuplicateStatement,
			})
		}
		seenIDs[s.ID] = true

		// E105: within names must be bound by some domain
		for _, n := range s.Within.Names() {
			if _, bound := owner[n]; !bound {
				errs = append(errs, ValidationError{
					Field:   fmt.Sprintf("statements[%d].within", i),
					Message: fmt.Sprintf("index name %q is not bound by any domain", n),
					Code:    ErrUnboundIndexName,
				})
			}
		}

		errs = append(errs, validateAccesses(s, i, params)...)
	}

	return errs
}

// validateAccesses pre-flights the index expressions of a statement's
// array accesses, applying the same affine lowering the analysis will. A
// kernel that validates cleanly does not trip undecidable-access handling
// later.
func validateAccesses(s kernel.Statement, i int, params map[string]bool) []ValidationError {
	allowed := make(map[string]bool, len(params)+len(s.Within))
	for p := range params {
		allowed[p] = true
	}
	for _, n := range s.Within.Names() {
		allowed[n] = true
	}

	var errs []ValidationError
	check := func(fieldPath string, indices []expr.Expr) {
		for _, ix := range indices {
			a, err := expr.Affine(ix)
			if err != nil {
				// E107: index has no affine form
				errs = append(errs, ValidationError{
					Field:   fieldPath,
					Message: err.Error(),
					Code:    ErrNonAffineIndex,
				})
				continue
			}
			// E108: affine index over names the iteration space lacks
			for _, n := range a.Names() {
				if !allowed[n] {
					errs = append(errs, ValidationError{
						Field:   fieldPath,
						Message: fmt.Sprintf("index %q uses %q, which is neither an index name of the statement nor a parameter", ix.String(), n),
						Code:    ErrForeignIndexName,
					})
				}
			}
		}
	}
	collect := func(fieldPath string, root expr.Expr) {
		err := expr.Walk(root, func(n expr.Expr) error {
			switch sub := n.(type) {
			case expr.Subscript:
				check(fieldPath, sub.Indices)
			case expr.LinearSubscript:
				check(fieldPath, []expr.Expr{sub.Index})
			}
			return nil
		})
		if err != nil {
			errs = append(errs, ValidationError{
				Field:   fieldPath,
				Message: err.Error(),
				Code:    ErrUnsupportedInput,
			})
		}
	}
	collect(fmt.Sprintf("statements[%d].assign", i), s.Assignee)
	collect(fmt.Sprintf("statements[%d].expr", i), s.Expression)
	return errs
}
