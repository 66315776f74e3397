package dependency

import (
	"errors"
	"fmt"
)

// AnalysisError represents a failure detected while extracting access
// relations or computing dependencies.
//
// Analysis errors include:
//   - Undecidable access: an index expression is not affine in the
//     enclosing loop indices and parameters
//   - Unsupported access: a whole-slice reference the relation model
//     cannot express
//   - Missing access relation: a lookup for a (statement, variable) pair
//     the extractor never recorded
//   - Inconsistent order: two statements disagree on the nesting order of
//     their shared loop indices
//
// AnalysisError includes structured fields for diagnostics; the analysis
// never retries or auto-recovers, because understating an ordering would
// make a downstream transformation unsafe.
type AnalysisError struct {
	// Code identifies the error category.
	Code AnalysisErrorCode

	// Message is a human-readable description.
	Message string

	// Statement identifies the affected statement.
	Statement string

	// Variable identifies the affected array variable, when one is.
	Variable string

	// Err is the underlying cause, when one exists.
	Err error
}

// AnalysisErrorCode categorizes analysis errors.
type AnalysisErrorCode string

const (
	// ErrCodeUndecidableAccess indicates an index expression with no affine
	// form over loop indices and parameters.
	ErrCodeUndecidableAccess AnalysisErrorCode = "UNDECIDABLE_ACCESS"

	// ErrCodeUnsupportedAccess indicates a whole-slice (sub-array)
	// reference, which the relation model cannot analyze at all.
	ErrCodeUnsupportedAccess AnalysisErrorCode = "UNSUPPORTED_ACCESS"

	// ErrCodeMissingAccess indicates a lookup for an access relation that
	// was never recorded: an extractor/consumer contract violation.
	ErrCodeMissingAccess AnalysisErrorCode = "MISSING_ACCESS"

	// ErrCodeInconsistentOrder indicates two statements whose shared loop
	// indices appear in different nesting orders.
	ErrCodeInconsistentOrder AnalysisErrorCode = "INCONSISTENT_ORDER"

	// ErrCodeRelation indicates a relation-algebra operation failed,
	// usually an arity or naming mismatch introduced by a malformed kernel.
	ErrCodeRelation AnalysisErrorCode = "RELATION"
)

// Error implements the error interface.
func (e *AnalysisError) Error() string {
	switch {
	case e.Statement != "" && e.Variable != "":
		return fmt.Sprintf("%s: %s (statement=%s, variable=%s)", e.Code, e.Message, e.Statement, e.Variable)
	case e.Statement != "":
		return fmt.Sprintf("%s: %s (statement=%s)", e.Code, e.Message, e.Statement)
	default:
		return fmt.Sprintf("%s: %s", e.Code, e.Message)
	}
}

// Unwrap exposes the underlying cause to errors.Is and errors.As.
func (e *AnalysisError) Unwrap() error { return e.Err }

// IsUndecidableAccess reports whether err is an undecidable-access
// failure. Uses errors.As to handle wrapped errors.
func IsUndecidableAccess(err error) bool {
	var ae *AnalysisError
	return errors.As(err, &ae) && ae.Code == ErrCodeUndecidableAccess
}

// IsUnsupportedAccess reports whether err is a whole-slice access failure.
func IsUnsupportedAccess(err error) bool {
	var ae *AnalysisError
	return errors.As(err, &ae) && ae.Code == ErrCodeUnsupportedAccess
}

// IsMissingAccess reports whether err is a missing access-relation lookup.
func IsMissingAccess(err error) bool {
	var ae *AnalysisError
	return errors.As(err, &ae) && ae.Code == ErrCodeMissingAccess
}

// IsInconsistentOrder reports whether err is a shared-index order
// disagreement.
func IsInconsistentOrder(err error) bool {
	var ae *AnalysisError
	return errors.As(err, &ae) && ae.Code == ErrCodeInconsistentOrder
}

// NewUndecidableAccessError creates an AnalysisError for an index
// expression with no affine form.
func NewUndecidableAccessError(statement, variable string, cause error) *AnalysisError {
	return &AnalysisError{
		Code:      ErrCodeUndecidableAccess,
		Message:   "index expression has no affine form over loop indices and parameters",
		Statement: statement,
		Variable:  variable,
		Err:       cause,
	}
}

// NewUnsupportedAccessError creates an AnalysisError for a whole-slice
// reference.
func NewUnsupportedAccessError(statement, variable string) *AnalysisError {
	return &AnalysisError{
		Code:      ErrCodeUnsupportedAccess,
		Message:   "sub-array references cannot be analyzed",
		Statement: statement,
		Variable:  variable,
	}
}

// NewMissingAccessError creates an AnalysisError for an unrecorded
// (statement, variable) lookup.
func NewMissingAccessError(statement, variable string) *AnalysisError {
	return &AnalysisError{
		Code:      ErrCodeMissingAccess,
		Message:   "no access relation recorded",
		Statement: statement,
		Variable:  variable,
	}
}

// NewInconsistentOrderError creates an AnalysisError for two statements
// whose shared indices nest in different orders.
func NewInconsistentOrderError(statement, other string, shared []string) *AnalysisError {
	return &AnalysisError{
		Code:      ErrCodeInconsistentOrder,
		Message:   fmt.Sprintf("shared loop indices %v nest in different orders (other statement %s)", shared, other),
		Statement: statement,
	}
}

// NewRelationError wraps a relation-algebra failure with statement
// context.
func NewRelationError(statement string, cause error) *AnalysisError {
	return &AnalysisError{
		Code:      ErrCodeRelation,
		Message:   "relation operation failed",
		Statement: statement,
		Err:       cause,
	}
}
