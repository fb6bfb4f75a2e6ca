package cli

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/searchql/internal/compiler"
	"github.com/roach88/searchql/internal/ir"
)

// ValidationResult holds validation results.
type ValidationResult struct {
	Valid    bool                       `json:"valid"`
	Errors   []compiler.ValidationError `json:"errors,omitempty"`
	Warnings []compiler.AliasWarning    `json:"warnings,omitempty"`
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate [config]",
		Short: "Validate a search configuration",
		Long: `Validate a search configuration (.cue file or directory) and report
every problem, not just the first.

Without an argument the --config setting is validated, and without that
the built-in configuration. Sort alias chains and loops are reported as
warnings; they do not fail validation.`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true, // Don't print usage on errors
		SilenceErrors: true, // Don't print errors - we handle our own error output
		RunE: func(cmd *cobra.Command, args []string) error {
			path := rootOpts.settings().Config
			if len(args) == 1 {
				path = args[0]
			}
			return runValidate(rootOpts, path, cmd)
		},
	}

	return cmd
}

func runValidate(opts *RootOptions, path string, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(), // Verbose logs go to stderr to avoid corrupting JSON
		Verbose:   opts.Verbose,
	}

	spec, err := loadSearchSpec(path)
	if err != nil {
		return outputValidateError(formatter, ErrCodeConfig, err.Error(), positionDetails(err))
	}
	if path == "" {
		formatter.VerboseLog("Validating built-in configuration")
	} else {
		formatter.VerboseLog("Validating %s", path)
	}
	formatter.VerboseLog("Found %d sort alias(es), %d namespace(s)", len(spec.SortAliases), len(spec.Namespaces))

	validationErrors := compiler.ValidateConfig(spec)
	warnings := compiler.AnalyzeAliases(spec)

	if len(validationErrors) == 0 {
		// Only a valid spec is guaranteed to build
		if _, err := ir.NewSearchConfig(*spec); err != nil {
			validationErrors = append(validationErrors, compiler.ValidationError{
				Field:   "search",
				Message: err.Error(),
				Code:    ErrCodeInvalidConfig,
			})
		}
	}

	if len(validationErrors) > 0 {
		return outputValidationErrors(formatter, validationErrors, warnings)
	}
	return outputValidateSuccess(formatter, warnings)
}

// loadSearchSpec loads the unvalidated spec at path, or the built-in one.
func loadSearchSpec(path string) (*ir.SearchConfigSpec, error) {
	if path == "" {
		return compiler.SourceSpec(compiler.DefaultSource, "default.cue")
	}
	return compiler.LoadSpec(path)
}

// positionDetails returns the CUE source position of err, if any.
func positionDetails(err error) interface{} {
	var ce *compiler.CompileError
	if errors.As(err, &ce) && ce.Pos.IsValid() {
		return map[string]any{
			"file":   ce.Pos.Filename(),
			"line":   ce.Pos.Line(),
			"column": ce.Pos.Column(),
		}
	}
	return nil
}

// outputValidateSuccess outputs successful validation results.
func outputValidateSuccess(formatter *OutputFormatter, warnings []compiler.AliasWarning) error {
	if formatter.Format == "json" {
		result := ValidationResult{Valid: true, Warnings: warnings}
		return formatter.Success(result)
	}

	writeWarnings(formatter, warnings)
	fmt.Fprintln(formatter.Writer, "✓ Configuration valid")
	return nil
}

func writeWarnings(formatter *OutputFormatter, warnings []compiler.AliasWarning) {
	for _, w := range warnings {
		fmt.Fprintf(formatter.Writer, "%s: %s\n", w.Level, w.Message)
	}
}

// outputValidateError outputs a single load error.
func outputValidateError(formatter *OutputFormatter, code, message string, details interface{}) error {
	_ = formatter.Error(code, message, details)
	// An unloadable configuration is a command-level error (exit code 2)
	return NewExitError(ExitCommandError, fmt.Sprintf("%s: %s", code, message))
}

// outputValidationErrors outputs multiple validation errors.
func outputValidationErrors(formatter *OutputFormatter, errs []compiler.ValidationError, warnings []compiler.AliasWarning) error {
	if formatter.Format == "json" {
		result := ValidationResult{
			Valid:    false,
			Errors:   errs,
			Warnings: warnings,
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

		// Validation failures = exit code 1 (test/validation failure)
		return NewExitError(ExitFailure, fmt.Sprintf("validation failed with %d error(s)", len(errs)))
	}

	// Text format
	fmt.Fprintln(formatter.Writer, "✗ Validation failed")
	fmt.Fprintln(formatter.Writer)

	for _, err := range errs {
		fmt.Fprintf(formatter.Writer, "  %s %s: %s\n", err.Code, err.Field, err.Message)
	}
	if len(warnings) > 0 {
		fmt.Fprintln(formatter.Writer)
		writeWarnings(formatter, warnings)
	}

	// Validation failures = exit code 1 (test/validation failure)
	return NewExitError(ExitFailure, fmt.Sprintf("validation failed with %d error(s)", len(errs)))
}
