package arch

import "errors"

// UnknownConventionError reports a convention name that is not registered
// for an architecture.
type UnknownConventionError struct {
	Architecture string
	Name         string
}

func (e *UnknownConventionError) Error() string {
	return errorf(e.Architecture, "unknown calling convention %q", e.Name)
}

// UnknownArchitectureError reports an architecture name missing from the
// catalog, or a family no register file exists for.
type UnknownArchitectureError struct {
	Name   string
	Family string
}

func (e *UnknownArchitectureError) Error() string {
	if e.Family != "" {
		return errorf(e.Name, "unsupported family %q", e.Family)
	}
	return errorf(e.Name, "not defined in catalog")
}

// UnknownRegisterError reports a convention field naming a register the
// architecture does not have.
type UnknownRegisterError struct {
	Architecture string
	Convention   string
	Field        string
	Name         string
}

func (e *UnknownRegisterError) Error() string {
	return errorf(e.Architecture, "convention %q: %s: unknown register %q", e.Convention, e.Field, e.Name)
}

// IsUnknownConvention reports whether err is an *UnknownConventionError.
// Uses errors.As to handle wrapped errors.
func IsUnknownConvention(err error) bool {
	var ue *UnknownConventionError
	return errors.As(err, &ue)
}
