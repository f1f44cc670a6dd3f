package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/roach88/archpass/internal/arch"
	"github.com/roach88/archpass/internal/arch/catalog"
	"github.com/roach88/archpass/internal/compiler"
	"github.com/roach88/archpass/internal/loader"
)

// FileError is a validation error found in one file.
type FileError struct {
	File string `json:"file"`
	compiler.ValidationError
}

// ValidationResult holds validation results.
type ValidationResult struct {
	Valid  bool        `json:"valid"`
	Files  []string    `json:"files"`
	Errors []FileError `json:"errors,omitempty"`
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate [file...]",
		Short: "Validate catalogs and program files",
		Long: `Validate convention catalogs and program files without running any
analysis.

Files ending in .cue (or directories) are compiled as catalogs: schema
rules are checked and every architecture is resolved against its
register file. Files ending in .yaml or .yml are loaded as programs
against the catalog selected by --catalog.

Without arguments the catalog selected by --catalog is validated.

Examples:
  archpass validate
  archpass validate ./custom.cue
  archpass validate --catalog ./custom.cue ./program.yaml`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(rootOpts, args, cmd)
		},
	}

	return cmd
}

func runValidate(opts *RootOptions, paths []string, cmd *cobra.Command) error {
	formatter := newFormatter(opts, cmd)

	if len(paths) == 0 {
		if opts.Catalog == "" {
			paths = []string{""}
		} else {
			paths = []string{opts.Catalog}
		}
	}

	result := ValidationResult{Valid: true, Files: []string{}}
	for _, path := range paths {
		name := path
		if name == "" {
			name = "(built-in catalog)"
		} else if _, err := os.Stat(path); err != nil {
			return fail(formatter, &stepError{Code: ErrCodeNotFound, Message: fmt.Sprintf("file not found: %s", path), Err: err})
		}
		result.Files = append(result.Files, name)

		var errs []compiler.ValidationError
		switch ext := filepath.Ext(path); ext {
		case ".yaml", ".yml":
			formatter.VerboseLog("Validating program: %s", path)
			cat, err := loadCatalog(opts)
			if err != nil {
				return fail(formatter, err)
			}
			errs = validateProgram(path, cat)
		default:
			formatter.VerboseLog("Validating catalog: %s", name)
			errs = validateCatalog(path)
		}

		for _, e := range errs {
			result.Errors = append(result.Errors, FileError{File: name, ValidationError: e})
		}
	}
	result.Valid = len(result.Errors) == 0

	if !result.Valid {
		return outputValidationErrors(formatter, result)
	}

	return formatter.Render(result, func(w io.Writer) {
		fmt.Fprintf(w, "✓ All files valid (%d checked)\n", len(result.Files))
	})
}

// validateCatalog compiles the catalog at path ("" for the built-in one)
// and resolves every architecture it defines.
func validateCatalog(path string) []compiler.ValidationError {
	var (
		cat  *compiler.Catalog
		errs []error
	)
	if path == "" {
		cat, errs = compiler.CompileCatalogSource("intel.cue", catalog.Source())
	} else {
		cat, errs = compiler.LoadCatalog(path)
	}

	out := make([]compiler.ValidationError, 0, len(errs))
	for _, err := range errs {
		out = append(out, toValidationError(err))
	}
	if len(out) > 0 || cat == nil {
		return out
	}

	for _, name := range arch.Names(cat) {
		if _, err := arch.New(name, cat); err != nil {
			out = append(out, compiler.ValidationError{
				Field:   "architecture." + name,
				Message: err.Error(),
				Code:    ErrCodeCatalog,
			})
		}
	}
	return out
}

// validateProgram loads the program at path against cat.
func validateProgram(path string, cat *compiler.Catalog) []compiler.ValidationError {
	_, err := loader.Load(path, cat)
	if err == nil {
		return nil
	}

	var loadErr *loader.LoadError
	if errors.As(err, &loadErr) {
		return []compiler.ValidationError{{
			Field:   "program",
			Message: loadErr.Message,
			Code:    ErrCodeProgram,
			Line:    loadErr.Line,
		}}
	}
	return []compiler.ValidationError{{
		Field:   "program",
		Message: err.Error(),
		Code:    ErrCodeProgram,
	}}
}

// toValidationError converts a catalog compile error.
func toValidationError(err error) compiler.ValidationError {
	var verr compiler.ValidationError
	if errors.As(err, &verr) {
		return verr
	}

	var cerr *compiler.CompileError
	if errors.As(err, &cerr) {
		line := 0
		if cerr.Pos.IsValid() {
			line = cerr.Pos.Line()
		}
		return compiler.ValidationError{
			Field:   cerr.Field,
			Message: err.Error(),
			Code:    ErrCodeCatalog,
			Line:    line,
		}
	}

	return compiler.ValidationError{
		Field:   "catalog",
		Message: err.Error(),
		Code:    ErrCodeCatalog,
	}
}

// outputValidationErrors outputs every validation error.
func outputValidationErrors(formatter *OutputFormatter, result ValidationResult) error {
	errs := result.Errors
	if formatter.Format == "json" {
		response := CLIResponse{
			Status: "error",
			Data:   result,
			Error: &CLIError{
				Code:    ErrCodeValidate,
				Message: fmt.Sprintf("validation failed with %d error(s)", len(errs)),
			},
		}

		encoder := json.NewEncoder(formatter.Writer)
		encoder.SetIndent("", "  ")
		if err := encoder.Encode(response); err != nil {
			return err
		}

		return NewExitError(ExitFailure, fmt.Sprintf("validation failed with %d error(s)", len(errs)))
	}

	fmt.Fprintln(formatter.Writer, "✗ Validation failed")
	fmt.Fprintln(formatter.Writer)

	file := ""
	for _, err := range errs {
		if err.File != file {
			file = err.File
			fmt.Fprintln(formatter.Writer, file)
		}
		if err.Line > 0 {
			fmt.Fprintf(formatter.Writer, "  line %d\n", err.Line)
		}
		fmt.Fprintf(formatter.Writer, "  %s: %s: %s\n", err.Code, err.Field, err.Message)
	}

	return NewExitError(ExitFailure, fmt.Sprintf("validation failed with %d error(s)", len(errs)))
}
