package compiler

import (
	"fmt"
	"strings"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/errors"
	cuetoken "cuelang.org/go/cue/token"

	"github.com/tbracht/weft/internal/expr"
	"github.com/tbracht/weft/internal/kernel"
	"github.com/tbracht/weft/internal/rel"
)

// CompileKernel parses a CUE value into a kernel snapshot.
// Uses CUE SDK's Go API directly (not CLI subprocess).
//
// The CUE value should be the kernel struct itself, e.g.:
//
//	ctx := cuecontext.New()
//	v := ctx.CompileString(`kernel: stencil: { ... }`)
//	k, err := CompileKernel(v.LookupPath(cue.ParsePath("kernel.stencil")))
func CompileKernel(v cue.Value) (*kernel.Kernel, error) {
	if err := v.Err(); err != nil {
		return nil, formatCUEError(err)
	}

	// Parse kernel name from struct label (the path selector)
	name := ""
	labels := v.Path().Selectors()
	if len(labels) > 0 {
		name = labels[len(labels)-1].String()
	}

	// Parse parameters (optional, can be empty)
	parameters, err := parseStringList(v.LookupPath(cue.ParsePath("parameters")))
	if err != nil {
		return nil, err
	}

	// Parse assume (optional) - parameter-only constraints
	assumptions, err := parseAssumptions(v, parameters)
	if err != nil {
		return nil, err
	}

	// Parse domains (optional, a kernel of domainless statements is legal)
	domains, err := parseDomains(v, parameters)
	if err != nil {
		return nil, err
	}

	// Parse statements (required, at least one)
	statements, err := parseStatements(v)
	if err != nil {
		return nil, err
	}

	k, err := kernel.NewKernel(name, parameters, assumptions, domains, statements)
	if err != nil {
		return nil, err
	}
	return &k, nil
}

// parseAssumptions reads the optional "assume" string into a
// dimensionless set over the declared parameters.
func parseAssumptions(v cue.Value, parameters []string) (rel.Set, error) {
	sp, err := rel.SetSpace(parameters, nil)
	if err != nil {
		return rel.Set{}, &CompileError{
			Field:   "parameters",
			Message: err.Error(),
			Pos:     v.Pos(),
		}
	}
	set := rel.UniverseSet(sp)

	assumeVal := v.LookupPath(cue.ParsePath("assume"))
	if !assumeVal.Exists() {
		return set, nil
	}
	src, err := assumeVal.String()
	if err != nil {
		return rel.Set{}, formatCUEError(err)
	}
	if strings.TrimSpace(src) == "" {
		return set, nil
	}
	cs, err := ParseConstraints(src)
	if err != nil {
		return rel.Set{}, &CompileError{Field: "assume", Message: err.Error(), Pos: assumeVal.Pos()}
	}
	set, err = set.Where(cs...)
	if err != nil {
		return rel.Set{}, &CompileError{Field: "assume", Message: err.Error(), Pos: assumeVal.Pos()}
	}
	return set, nil
}

// parseDomains extracts the iteration-domain blocks.
func parseDomains(v cue.Value, parameters []string) ([]kernel.Domain, error) {
	domVal := v.LookupPath(cue.ParsePath("domains"))
	if !domVal.Exists() {
		return nil, nil
	}
	iter, err := domVal.List()
	if err != nil {
		return nil, formatCUEError(err)
	}
	var domains []kernel.Domain
	for i := 0; iter.Next(); i++ {
		d, err := parseDomain(iter.Value(), i, parameters)
		if err != nil {
			return nil, err
		}
		domains = append(domains, d)
	}
	return domains, nil
}

func parseDomain(v cue.Value, i int, parameters []string) (kernel.Domain, error) {
	field := func(name string) string { return fmt.Sprintf("domains[%d].%s", i, name) }

	inamesVal := v.LookupPath(cue.ParsePath("inames"))
	if !inamesVal.Exists() {
		return kernel.Domain{}, &CompileError{
			Field:   field("inames"),
			Message: "domain index names are required",
			Pos:     v.Pos(),
		}
	}
	inames, err := parseStringList(inamesVal)
	if err != nil {
		return kernel.Domain{}, err
	}

	sp, err := rel.SetSpace(parameters, inames)
	if err != nil {
		return kernel.Domain{}, &CompileError{
			Field:   field("inames"),
			Message: err.Error(),
			Pos:     inamesVal.Pos(),
		}
	}
	set := rel.UniverseSet(sp)

	consVal := v.LookupPath(cue.ParsePath("constraints"))
	if consVal.Exists() {
		src, err := consVal.String()
		if err != nil {
			return kernel.Domain{}, formatCUEError(err)
		}
		if strings.TrimSpace(src) != "" {
			cs, err := ParseConstraints(src)
			if err != nil {
				return kernel.Domain{}, &CompileError{Field: field("constraints"), Message: err.Error(), Pos: consVal.Pos()}
			}
			set, err = set.Where(cs...)
			if err != nil {
				return kernel.Domain{}, &CompileError{Field: field("constraints"), Message: err.Error(), Pos: consVal.Pos()}
			}
		}
	}
	return kernel.Domain{Inames: inames, Set: set}, nil
}

// parseStatements extracts the assignment statements.
func parseStatements(v cue.Value) ([]kernel.Statement, error) {
	sVal := v.LookupPath(cue.ParsePath("statements"))
	if !sVal.Exists() {
		return nil, &CompileError{
			Field:   "statements",
			Message: "at least one statement is required",
			Pos:     v.Pos(),
		}
	}
	iter, err := sVal.List()
	if err != nil {
		return nil, formatCUEError(err)
	}
	var statements []kernel.Statement
	for i := 0; iter.Next(); i++ {
		s, err := parseStatement(iter.Value(), i)
		if err != nil {
			return nil, err
		}
		statements = append(statements, s)
	}
	if len(statements) == 0 {
		return nil, &CompileError{
			Field:   "statements",
			Message: "at least one statement is required",
			Pos:     sVal.Pos(),
		}
	}
	return statements, nil
}

func parseStatement(v cue.Value, i int) (kernel.Statement, error) {
	field := func(name string) string { return fmt.Sprintf("statements[%d].%s", i, name) }

	idVal := v.LookupPath(cue.ParsePath("id"))
	if !idVal.Exists() {
		return kernel.Statement{}, &CompileError{
			Field:   field("id"),
			Message: "statement id is required",
			Pos:     v.Pos(),
		}
	}
	id, err := idVal.String()
	if err != nil {
		return kernel.Statement{}, formatCUEError(err)
	}

	assignVal := v.LookupPath(cue.ParsePath("assign"))
	if !assignVal.Exists() {
		return kernel.Statement{}, &CompileError{
			Field:   field("assign"),
			Message: "assignment target is required",
			Pos:     v.Pos(),
		}
	}
	assignee, err := parseExprField(assignVal, field("assign"))
	if err != nil {
		return kernel.Statement{}, err
	}
	switch assignee.(type) {
	case expr.Variable, expr.Subscript, expr.LinearSubscript:
	default:
		return kernel.Statement{}, &CompileError{
			Field:   field("assign"),
			Message: fmt.Sprintf("assignment target must be a scalar or subscript, got %q", assignee.String()),
			Pos:     assignVal.Pos(),
		}
	}

	exprVal := v.LookupPath(cue.ParsePath("expr"))
	if !exprVal.Exists() {
		return kernel.Statement{}, &CompileError{
			Field:   field("expr"),
			Message: "statement expression is required",
			Pos:     v.Pos(),
		}
	}
	expression, err := parseExprField(exprVal, field("expr"))
	if err != nil {
		return kernel.Statement{}, err
	}

	within, err := parseStringList(v.LookupPath(cue.ParsePath("within")))
	if err != nil {
		return kernel.Statement{}, err
	}

	return kernel.Statement{
		ID:         id,
		Assignee:   assignee,
		Expression: expression,
		Within:     kernel.NewIndexSet(within...),
	}, nil
}

// parseExprField parses a string field through the expression parser,
// positioning failures at the field.
func parseExprField(fv cue.Value, field string) (expr.Expr, error) {
	src, err := fv.String()
	if err != nil {
		return nil, formatCUEError(err)
	}
	e, err := ParseExpr(src)
	if err != nil {
		return nil, &CompileError{Field: field, Message: err.Error(), Pos: fv.Pos()}
	}
	return e, nil
}

// parseStringList reads an optional list of strings. A missing value
// yields nil.
func parseStringList(v cue.Value) ([]string, error) {
	if !v.Exists() {
		return nil, nil
	}
	iter, err := v.List()
	if err != nil {
		return nil, formatCUEError(err)
	}
	var out []string
	for iter.Next() {
		s, err := iter.Value().String()
		if err != nil {
			return nil, formatCUEError(err)
		}
		out = append(out, s)
	}
	return out, nil
}

// CompileError represents a compilation error with source position.
type CompileError struct {
	Field   string
	Message string
	Pos     cuetoken.Pos
}

func (e *CompileError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s",
			e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(),
			e.Field, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// formatCUEError extracts position info from CUE errors.
func formatCUEError(err error) error {
	if err == nil {
		return nil
	}

	// CUE errors may contain multiple errors
	errs := errors.Errors(err)
	if len(errs) == 0 {
		return err
	}

	// Return first error with position info
	firstErr := errs[0]
	positions := errors.Positions(firstErr)
	if len(positions) > 0 {
		return &CompileError{
			Field:   "cue",
			Message: firstErr.Error(),
			Pos:     positions[0],
		}
	}

	return err
}
