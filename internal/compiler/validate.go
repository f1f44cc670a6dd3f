package compiler

import (
	"fmt"
	"strings"
)

// Validation error codes (E100-E199)
const (
	// General validation errors (E100)
	ErrUnsupportedSpecType = "E100" // unsupported spec type for validation

	// ConventionSpec errors (E101-E109)
	ErrConventionStackPointer = "E101" // stack_pointer is required
	ErrConventionOffset       = "E102" // first_argument_offset must be >= 0
	ErrConventionAlignment    = "E103" // stack_alignment must be a positive power of two
	ErrDuplicateRegister      = "E104" // register listed twice
	ErrDuplicateName          = "E105" // duplicate convention/architecture name

	// ArchitectureSpec errors (E110-E119)
	ErrArchitectureBitness    = "E110" // bitness must be a positive multiple of 8
	ErrArchitectureFamily     = "E111" // family is required
	ErrUndefinedConvention    = "E112" // referenced convention not defined
	ErrArchitectureNoConvents = "E113" // architecture lists no conventions
)

// ValidationError represents a schema validation error.
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Code    string `json:"code"`
	Line    int    `json:"line,omitempty"`
}

// Error implements the error interface.
func (e ValidationError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("[%s] line %d: %s: %s", e.Code, e.Line, e.Field, e.Message)
	}
	return fmt.Sprintf("[%s] %s: %s", e.Code, e.Field, e.Message)
}

// Validate validates compiled specs against schema rules.
// Returns all errors found (does not fail-fast).
// Supports ConventionSpec, ArchitectureSpec and Catalog.
func Validate(v any) []ValidationError {
	switch spec := v.(type) {
	case *ConventionSpec:
		return validateConvention(spec)
	case ConventionSpec:
		return validateConvention(&spec)
	case *ArchitectureSpec:
		return validateArchitecture(spec)
	case ArchitectureSpec:
		return validateArchitecture(&spec)
	case *Catalog:
		return validateCatalog(spec)
	default:
		return []ValidationError{{
			Field:   "type",
			Message: fmt.Sprintf("unsupported spec type: %T", v),
			Code:    ErrUnsupportedSpecType,
		}}
	}
}

func validateConvention(spec *ConventionSpec) []ValidationError {
	var errs []ValidationError
	prefix := "convention." + spec.Name

	// E101
	if strings.TrimSpace(spec.StackPointer) == "" {
		errs = append(errs, ValidationError{
			Field:   prefix + ".stack_pointer",
			Message: "stack_pointer is required and must be non-empty",
			Code:    ErrConventionStackPointer,
		})
	}

	// E102
	if spec.FirstArgumentOffset < 0 {
		errs = append(errs, ValidationError{
			Field:   prefix + ".first_argument_offset",
			Message: fmt.Sprintf("first_argument_offset must be non-negative, got %d", spec.FirstArgumentOffset),
			Code:    ErrConventionOffset,
		})
	}

	// E103
	if spec.StackAlignment <= 0 || spec.StackAlignment&(spec.StackAlignment-1) != 0 {
		errs = append(errs, ValidationError{
			Field:   prefix + ".stack_alignment",
			Message: fmt.Sprintf("stack_alignment must be a positive power of two, got %d", spec.StackAlignment),
			Code:    ErrConventionAlignment,
		})
	}

	// E104
	errs = append(errs, duplicateRegisters(prefix+".arguments", spec.Arguments)...)
	errs = append(errs, duplicateRegisters(prefix+".return_values", spec.ReturnValues)...)

	return errs
}

func duplicateRegisters(field string, regs []string) []ValidationError {
	var errs []ValidationError
	seen := make(map[string]bool, len(regs))
	for i, r := range regs {
		if seen[r] {
			errs = append(errs, ValidationError{
				Field:   fmt.Sprintf("%s[%d]", field, i),
				Message: fmt.Sprintf("register %q listed twice", r),
				Code:    ErrDuplicateRegister,
			})
		}
		seen[r] = true
	}
	return errs
}

func validateArchitecture(spec *ArchitectureSpec) []ValidationError {
	var errs []ValidationError
	prefix := "architecture." + spec.Name

	// E110
	if spec.Bitness <= 0 || spec.Bitness%8 != 0 {
		errs = append(errs, ValidationError{
			Field:   prefix + ".bitness",
			Message: fmt.Sprintf("bitness must be a positive multiple of 8, got %d", spec.Bitness),
			Code:    ErrArchitectureBitness,
		})
	}

	// E111
	if strings.TrimSpace(spec.Family) == "" {
		errs = append(errs, ValidationError{
			Field:   prefix + ".family",
			Message: "family is required and must be non-empty",
			Code:    ErrArchitectureFamily,
		})
	}

	// E113
	if len(spec.Conventions) == 0 {
		errs = append(errs, ValidationError{
			Field:   prefix + ".conventions",
			Message: "at least one convention is required",
			Code:    ErrArchitectureNoConvents,
		})
	}

	seen := make(map[string]bool, len(spec.Conventions))
	for i, name := range spec.Conventions {
		if seen[name] {
			errs = append(errs, ValidationError{
				Field:   fmt.Sprintf("%s.conventions[%d]", prefix, i),
				Message: fmt.Sprintf("convention %q listed twice", name),
				Code:    ErrDuplicateName,
			})
		}
		seen[name] = true
	}

	return errs
}

func validateCatalog(cat *Catalog) []ValidationError {
	var errs []ValidationError

	conventions := make(map[string]bool, len(cat.Conventions))
	for _, c := range cat.Conventions {
		if conventions[c.Name] {
			errs = append(errs, ValidationError{
				Field:   "convention." + c.Name,
				Message: fmt.Sprintf("duplicate convention name: %q", c.Name),
				Code:    ErrDuplicateName,
			})
		}
		conventions[c.Name] = true
		errs = append(errs, validateConvention(&c)...)
	}

	architectures := make(map[string]bool, len(cat.Architectures))
	for _, a := range cat.Architectures {
		if architectures[a.Name] {
			errs = append(errs, ValidationError{
				Field:   "architecture." + a.Name,
				Message: fmt.Sprintf("duplicate architecture name: %q", a.Name),
				Code:    ErrDuplicateName,
			})
		}
		architectures[a.Name] = true
		errs = append(errs, validateArchitecture(&a)...)

		// E112
		for i, name := range a.Conventions {
			if !conventions[name] {
				errs = append(errs, ValidationError{
					Field:   fmt.Sprintf("architecture.%s.conventions[%d]", a.Name, i),
					Message: fmt.Sprintf("undefined convention %q", name),
					Code:    ErrUndefinedConvention,
				})
			}
		}
	}

	return errs
}
