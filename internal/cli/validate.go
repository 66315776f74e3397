package cli

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/tbracht/weft/internal/compiler"
)

// ValidationResult holds validation results.
type ValidationResult struct {
	Valid  bool                       `json:"valid"`
	Errors []compiler.ValidationError `json:"errors,omitempty"`
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate <kernel-dir>",
		Short: "Validate kernels without running the analysis",
		Long: `Validate CUE kernel files without computing dependencies.

Compiles every kernel and checks it against the schema rules: unique
statement ids, index names bound by exactly one domain, parameters not
rebound as indices, affine subscript expressions over the statement's
own iteration space. All defects are collected and reported together.

A kernel that validates cleanly will not trip undecidable-access
handling during analysis.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true, // Don't print usage on errors
		SilenceErrors: true, // Don't print errors - we handle our own error output
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(rootOpts, args[0], cmd)
		},
	}

	return cmd
}

func runValidate(opts *RootOptions, kernelDir string, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(), // Verbose logs go to stderr to avoid corrupting JSON
		Verbose:   opts.Verbose,
	}

	// Collect-all mode: validation reports every defect in one pass
	loadResult, loadErrors := LoadKernels(kernelDir, LoadModeCollectAll)

	// Handle load errors (directory not found, no files, etc.)
	if loadResult == nil && len(loadErrors) > 0 {
		var loadErr *LoadError
		if errors.As(loadErrors[0], &loadErr) {
			return outputValidateError(formatter, loadErr.Code, loadErr.Message)
		}
		return outputValidateError(formatter, ErrCodeGeneric, loadErrors[0].Error())
	}

	formatter.VerboseLog("Found %d CUE file(s) in %s", loadResult.FileCount, kernelDir)

	validationErrors := collectValidationErrors(loadResult, loadErrors, formatter)
	if len(validationErrors) > 0 {
		return outputValidationErrors(formatter, validationErrors)
	}

	// Output success
	return outputValidateSuccess(formatter, len(loadResult.Kernels))
}

// collectValidationErrors merges compile failures and schema defects
// into one list. Compile failures come first: a file that does not
// compile contributes no kernels to check.
func collectValidationErrors(loadResult *LoadResult, loadErrors []error, formatter *OutputFormatter) []compiler.ValidationError {
	var allErrors []compiler.ValidationError

	for _, err := range loadErrors {
		var loadErr *LoadError
		if errors.As(err, &loadErr) {
			allErrors = append(allErrors, compiler.ValidationError{
				Field:   "load",
				Message: loadErr.locate(),
				Code:    loadErr.Code,
			})
			continue
		}
		allErrors = append(allErrors, compiler.ValidationError{
			Field:   "load",
			Message: err.Error(),
			Code:    ErrCodeGeneric,
		})
	}

	for _, k := range loadResult.Kernels {
		formatter.VerboseLog("Validating kernel: %s", k.Name)
		allErrors = append(allErrors, compiler.Validate(k)...)
	}

	return allErrors
}

// outputValidateSuccess outputs successful validation results.
func outputValidateSuccess(formatter *OutputFormatter, kernelCount int) error {
	if formatter.Format == "json" {
		result := ValidationResult{Valid: true}
		return formatter.Success(result)
	}

	fmt.Fprintf(formatter.Writer, "✓ %d kernel(s) valid\n", kernelCount)
	return nil
}

// outputValidateError outputs a single command-level error.
func outputValidateError(formatter *OutputFormatter, code, message string) error {
	_ = formatter.Error(code, message, nil)
	// Load errors are command-level errors (exit code 2)
	return NewExitError(ExitCommandError, fmt.Sprintf("%s: %s", code, message))
}

// outputValidationErrors outputs multiple validation errors.
func outputValidationErrors(formatter *OutputFormatter, errs []compiler.ValidationError) error {
	if formatter.Format == "json" {
		result := ValidationResult{
			Valid:  false,
			Errors: errs,
		}

		response := CLIResponse{
			Status: "error",
			Data:   result,
			Error: &CLIError{
				Code:    errs[0].Code,
				Message: errs[0].Message,
			},
		}

		encoder := json.NewEncoder(formatter.Writer)
		encoder.SetIndent("", "  ")
		if err := encoder.Encode(response); err != nil {
			return err
		}

		// Validation failures = exit code 1
		return NewExitError(ExitFailure, fmt.Sprintf("validation failed with %d error(s)", len(errs)))
	}

	// Text format
	fmt.Fprintln(formatter.Writer, "✗ Validation failed")
	fmt.Fprintln(formatter.Writer)

	for _, err := range errs {
		fmt.Fprintf(formatter.Writer, "  [%s] %s: %s\n\n", err.Code, err.Field, err.Message)
	}

	// Validation failures = exit code 1
	return NewExitError(ExitFailure, fmt.Sprintf("validation failed with %d error(s)", len(errs)))
}

// ValidateKernelDir validates every kernel in a directory.
// This is a helper function for external callers.
func ValidateKernelDir(kernelDir string) ([]compiler.ValidationError, error) {
	loadResult, loadErrors := LoadKernels(kernelDir, LoadModeCollectAll)
	if loadResult == nil && len(loadErrors) > 0 {
		return nil, loadErrors[0]
	}

	// Silent formatter: callers only want the error list
	silent := &OutputFormatter{Format: "text", Verbose: false}
	return collectValidationErrors(loadResult, loadErrors, silent), nil
}
