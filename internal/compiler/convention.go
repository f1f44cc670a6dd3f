package compiler

import (
	"fmt"

	"cuelang.org/go/cue"
)

// ConventionSpec is a compiled calling convention descriptor.
// Register names are unresolved; offsets and alignment are in bytes.
type ConventionSpec struct {
	Name                string   `json:"name"`
	Description         string   `json:"description"`
	StackPointer        string   `json:"stack_pointer"`
	FirstArgumentOffset int64    `json:"first_argument_offset"`
	Arguments           []string `json:"arguments"`
	ReturnValues        []string `json:"return_values"`
	CalleeCleanup       bool     `json:"callee_cleanup"`
	StackAlignment      int64    `json:"stack_alignment"`
}

// CompileConvention parses a CUE value into a ConventionSpec.
// The convention name is taken from the value's last path selector.
//
//	ctx := cuecontext.New()
//	v := ctx.CompileString(`convention: cdecl32: { ... }`)
//	spec, err := CompileConvention(v.LookupPath(cue.ParsePath("convention.cdecl32")))
func CompileConvention(v cue.Value) (*ConventionSpec, error) {
	if err := v.Err(); err != nil {
		return nil, formatCUEError(err)
	}

	spec := &ConventionSpec{}

	labels := v.Path().Selectors()
	if len(labels) > 0 {
		spec.Name = unquoteLabel(labels[len(labels)-1])
	}

	description, err := optionalString(v, "description")
	if err != nil {
		return nil, err
	}
	spec.Description = description

	// stack_pointer (required)
	spVal := v.LookupPath(cue.ParsePath("stack_pointer"))
	if !spVal.Exists() {
		return nil, &CompileError{
			Field:   "stack_pointer",
			Message: "stack_pointer is required",
			Pos:     v.Pos(),
		}
	}
	sp, err := spVal.String()
	if err != nil {
		return nil, formatCUEError(err)
	}
	spec.StackPointer = sp

	// first_argument_offset (required)
	offVal := v.LookupPath(cue.ParsePath("first_argument_offset"))
	if !offVal.Exists() {
		return nil, &CompileError{
			Field:   "first_argument_offset",
			Message: "first_argument_offset is required",
			Pos:     v.Pos(),
		}
	}
	off, err := offVal.Int64()
	if err != nil {
		return nil, formatCUEError(err)
	}
	spec.FirstArgumentOffset = off

	spec.Arguments, err = stringList(v, "arguments")
	if err != nil {
		return nil, err
	}

	spec.ReturnValues, err = stringList(v, "return_values")
	if err != nil {
		return nil, err
	}

	cleanupVal := v.LookupPath(cue.ParsePath("callee_cleanup"))
	if cleanupVal.Exists() {
		cleanup, err := cleanupVal.Bool()
		if err != nil {
			return nil, formatCUEError(err)
		}
		spec.CalleeCleanup = cleanup
	}

	spec.StackAlignment = 1
	alignVal := v.LookupPath(cue.ParsePath("stack_alignment"))
	if alignVal.Exists() {
		align, err := alignVal.Int64()
		if err != nil {
			return nil, formatCUEError(err)
		}
		spec.StackAlignment = align
	}

	return spec, nil
}

// optionalString returns the string at field, or "" if absent.
func optionalString(v cue.Value, field string) (string, error) {
	fv := v.LookupPath(cue.ParsePath(field))
	if !fv.Exists() {
		return "", nil
	}
	s, err := fv.String()
	if err != nil {
		return "", formatCUEError(err)
	}
	return s, nil
}

// stringList returns the list of strings at field. A missing field yields
// an empty list.
func stringList(v cue.Value, field string) ([]string, error) {
	out := []string{}

	lv := v.LookupPath(cue.ParsePath(field))
	if !lv.Exists() {
		return out, nil
	}

	iter, err := lv.List()
	if err != nil {
		return nil, formatCUEError(err)
	}
	for iter.Next() {
		s, err := iter.Value().String()
		if err != nil {
			return nil, &CompileError{
				Field:   field,
				Message: fmt.Sprintf("%s entries must be register names: %v", field, err),
				Pos:     iter.Value().Pos(),
			}
		}
		out = append(out, s)
	}
	return out, nil
}

// unquoteLabel strips the quotes CUE keeps on labels such as "x86-64".
func unquoteLabel(sel cue.Selector) string {
	if sel.IsString() {
		return sel.Unquoted()
	}
	return sel.String()
}
