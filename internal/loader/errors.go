package loader

import (
	"errors"
	"fmt"
)

// LoadError reports a malformed program file.
type LoadError struct {
	// Source is the file the program was read from, if any.
	Source string

	// Line is the 1-based line of the offending node, 0 if unknown.
	Line int

	Message string
}

// Error implements the error interface.
func (e *LoadError) Error() string {
	prefix := e.Source
	if prefix == "" {
		prefix = "program"
	}
	if e.Line > 0 {
		return fmt.Sprintf("%s:%d: %s", prefix, e.Line, e.Message)
	}
	return fmt.Sprintf("%s: %s", prefix, e.Message)
}

// IsLoadError reports whether err is a *LoadError.
func IsLoadError(err error) bool {
	var le *LoadError
	return errors.As(err, &le)
}
