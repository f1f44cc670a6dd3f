package compiler

import (
	"fmt"

	"cuelang.org/go/cue"
)

// ArchitectureSpec is a compiled architecture entry.
type ArchitectureSpec struct {
	Name        string   `json:"name"`
	Family      string   `json:"family"`
	Bitness     int      `json:"bitness"`
	Conventions []string `json:"conventions"`
}

// Catalog holds every architecture and convention of a compiled catalog,
// in declaration order.
type Catalog struct {
	Architectures []ArchitectureSpec `json:"architectures"`
	Conventions   []ConventionSpec   `json:"conventions"`
}

// Architecture returns the architecture spec with the given name.
func (c *Catalog) Architecture(name string) (*ArchitectureSpec, bool) {
	for i := range c.Architectures {
		if c.Architectures[i].Name == name {
			return &c.Architectures[i], true
		}
	}
	return nil, false
}

// Convention returns the convention spec with the given name.
func (c *Catalog) Convention(name string) (*ConventionSpec, bool) {
	for i := range c.Conventions {
		if c.Conventions[i].Name == name {
			return &c.Conventions[i], true
		}
	}
	return nil, false
}

// CompileArchitecture parses a CUE value into an ArchitectureSpec.
func CompileArchitecture(v cue.Value) (*ArchitectureSpec, error) {
	if err := v.Err(); err != nil {
		return nil, formatCUEError(err)
	}

	spec := &ArchitectureSpec{}

	labels := v.Path().Selectors()
	if len(labels) > 0 {
		spec.Name = unquoteLabel(labels[len(labels)-1])
	}

	familyVal := v.LookupPath(cue.ParsePath("family"))
	if !familyVal.Exists() {
		return nil, &CompileError{
			Field:   "family",
			Message: "family is required",
			Pos:     v.Pos(),
		}
	}
	family, err := familyVal.String()
	if err != nil {
		return nil, formatCUEError(err)
	}
	spec.Family = family

	bitnessVal := v.LookupPath(cue.ParsePath("bitness"))
	if !bitnessVal.Exists() {
		return nil, &CompileError{
			Field:   "bitness",
			Message: "bitness is required",
			Pos:     v.Pos(),
		}
	}
	bitness, err := bitnessVal.Int64()
	if err != nil {
		return nil, formatCUEError(err)
	}
	spec.Bitness = int(bitness)

	spec.Conventions, err = stringList(v, "conventions")
	if err != nil {
		return nil, err
	}

	return spec, nil
}

// CompileCatalog compiles every architecture and convention under the
// top-level "architecture" and "convention" fields, then validates the
// result. All errors are collected; a nil catalog means nothing could be
// read at all.
func CompileCatalog(v cue.Value) (*Catalog, []error) {
	if err := v.Err(); err != nil {
		return nil, []error{formatCUEError(err)}
	}

	var errs []error
	cat := &Catalog{}

	convVal := v.LookupPath(cue.ParsePath("convention"))
	if convVal.Exists() {
		iter, err := convVal.Fields()
		if err != nil {
			errs = append(errs, formatCUEError(err))
		} else {
			for iter.Next() {
				spec, err := CompileConvention(iter.Value())
				if err != nil {
					errs = append(errs, fmt.Errorf("convention.%s: %w", unquoteLabel(iter.Selector()), err))
					continue
				}
				cat.Conventions = append(cat.Conventions, *spec)
			}
		}
	}

	archVal := v.LookupPath(cue.ParsePath("architecture"))
	if archVal.Exists() {
		iter, err := archVal.Fields()
		if err != nil {
			errs = append(errs, formatCUEError(err))
		} else {
			for iter.Next() {
				spec, err := CompileArchitecture(iter.Value())
				if err != nil {
					errs = append(errs, fmt.Errorf("architecture.%s: %w", unquoteLabel(iter.Selector()), err))
					continue
				}
				cat.Architectures = append(cat.Architectures, *spec)
			}
		}
	}

	if len(cat.Architectures) == 0 && len(cat.Conventions) == 0 && len(errs) == 0 {
		errs = append(errs, &CompileError{
			Field:   "catalog",
			Message: "no architectures or conventions found",
			Pos:     v.Pos(),
		})
	}

	for _, verr := range Validate(cat) {
		errs = append(errs, verr)
	}

	return cat, errs
}
