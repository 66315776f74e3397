package cli

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"cuelang.org/go/cue/token"

	"github.com/tbracht/weft/internal/compiler"
	"github.com/tbracht/weft/internal/kernel"
)

// LoadMode controls how errors are handled during kernel loading.
type LoadMode int

const (
	// LoadModeFailFast stops on the first error encountered.
	LoadModeFailFast LoadMode = iota
	// LoadModeCollectAll collects all errors before returning.
	LoadModeCollectAll
)

// LoadResult contains the kernels loaded from a directory.
type LoadResult struct {
	Kernels   []kernel.Kernel
	FileCount int // Number of CUE files found
}

// LoadError represents an error that occurred during kernel loading.
type LoadError struct {
	Code    string
	Message string
	Pos     token.Pos // CUE position if available
}

func (e *LoadError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s", e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(), e.Code, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// locate returns the message prefixed with the source position when one
// exists, without the error code.
func (e *LoadError) locate() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s", e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(), e.Message)
	}
	return e.Message
}

// LoadKernels compiles every CUE kernel file under dir.
// Each file is compiled on its own: kernels are independent units, so
// files never constrain each other. A kernel name declared by two files
// is an error.
//
// If mode is LoadModeFailFast, returns on first error.
// If mode is LoadModeCollectAll, collects all errors.
func LoadKernels(dir string, mode LoadMode) (*LoadResult, []error) {
	var errs []error

	// Verify directory exists
	info, err := os.Stat(dir)
	if os.IsNotExist(err) {
		return nil, []error{&LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("kernel directory not found: %s", dir)}}
	}
	if err != nil {
		return nil, []error{&LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("error accessing kernel directory: %v", err)}}
	}
	if !info.IsDir() {
		return nil, []error{&LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("not a directory: %s", dir)}}
	}

	// Find CUE files
	cueFiles, err := FindCUEFiles(dir)
	if err != nil {
		return nil, []error{&LoadError{Code: ErrCodeScanError, Message: fmt.Sprintf("error scanning directory: %v", err)}}
	}
	if len(cueFiles) == 0 {
		return nil, []error{&LoadError{Code: ErrCodeNoFiles, Message: fmt.Sprintf("no CUE files found in %s", dir)}}
	}

	result := &LoadResult{FileCount: len(cueFiles)}
	definedIn := make(map[string]string) // kernel name -> file that declared it

	for _, file := range cueFiles {
		kernels, compileErr := compiler.CompileFile(file)
		if compileErr != nil {
			errs = append(errs, convertCompileError(compileErr, file))
			if mode == LoadModeFailFast {
				return result, errs
			}
			continue
		}

		for _, k := range kernels {
			if prev, dup := definedIn[k.Name]; dup {
				errs = append(errs, &LoadError{
					Code:    ErrCodeDuplicateKernel,
					Message: fmt.Sprintf("kernel %q defined in both %s and %s", k.Name, prev, file),
				})
				if mode == LoadModeFailFast {
					return result, errs
				}
				continue
			}
			definedIn[k.Name] = file
			result.Kernels = append(result.Kernels, *k)
		}
	}

	return result, errs
}

// FindCUEFiles walks the directory and returns all .cue file paths.
// filepath.Walk visits entries in lexical order, so the list is
// deterministic.
func FindCUEFiles(dir string) ([]string, error) {
	var files []string
	err := filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if !info.IsDir() && filepath.Ext(path) == ".cue" {
			files = append(files, path)
		}
		return nil
	})
	return files, err
}

// convertCompileError converts a compiler error to a LoadError with position info.
func convertCompileError(err error, file string) *LoadError {
	var compileErr *compiler.CompileError
	if errors.As(err, &compileErr) {
		return &LoadError{
			Code:    MapFieldToErrorCode(compileErr.Field),
			Message: compileErr.Message,
			Pos:     compileErr.Pos,
		}
	}
	return &LoadError{
		Code:    ErrCodeCompileFailed,
		Message: fmt.Sprintf("%s: %v", file, err),
	}
}

// Error code constants - unified across all CLI commands.
// Kernel schema defects carry the compiler's validation codes (E1xx)
// instead; MapFieldToErrorCode bridges the two spaces.
const (
	ErrCodeGeneric         = "E001" // Generic/unknown error
	ErrCodeScanError       = "E002" // Directory scan error
	ErrCodeNoFiles         = "E003" // No CUE files found
	ErrCodeCompileFailed   = "E004" // Kernel file did not compile
	ErrCodeNotFound        = "E005" // Path not found
	ErrCodeDuplicateKernel = "E006" // Kernel name declared twice
	ErrCodeWriteFailed     = "E007" // File write error
)

// MapFieldToErrorCode maps a compile-error field path to an error code.
// Fields with a matching validator rule carry that rule's code; anything
// else is a plain compile failure.
func MapFieldToErrorCode(field string) string {
	switch {
	case field == "name":
		return compiler.ErrKernelNameEmpty
	case field == "statements":
		return compiler.ErrKernelNoStatements
	case strings.HasSuffix(field, ".id"):
		return compiler.ErrStatementIDEmpty
	case strings.HasSuffix(field, ".within"):
		return compiler.ErrUnboundIndexName
	case strings.HasSuffix(field, ".assign"), strings.HasSuffix(field, ".expr"):
		return compiler.ErrNonAffineIndex
	default:
		return ErrCodeCompileFailed
	}
}
