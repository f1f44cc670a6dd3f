package analyzer

import (
	"errors"
	"fmt"

	"github.com/roach88/archpass/internal/arch"
)

// ConfigErrorCode categorizes configuration errors.
type ConfigErrorCode string

const (
	// ErrCodeUnsupportedFamily means no strategy exists for the family.
	ErrCodeUnsupportedFamily ConfigErrorCode = "UNSUPPORTED_FAMILY"

	// ErrCodeMissingConvention means a convention the strategy binds is not
	// registered for the architecture.
	ErrCodeMissingConvention ConfigErrorCode = "MISSING_CONVENTION"
)

// ConfigError reports a strategy that cannot be built for an architecture.
// It is raised at construction, never during analysis.
type ConfigError struct {
	Code         ConfigErrorCode
	Architecture string
	Message      string
	Err          error
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("%s: %s (architecture=%s)", e.Code, e.Message, e.Architecture)
}

func (e *ConfigError) Unwrap() error {
	return e.Err
}

// IsConfigError reports whether err is a *ConfigError.
// Uses errors.As to handle wrapped errors.
func IsConfigError(err error) bool {
	var ce *ConfigError
	return errors.As(err, &ce)
}

func missingConvention(a *arch.Architecture, err error) *ConfigError {
	msg := err.Error()
	var ue *arch.UnknownConventionError
	if errors.As(err, &ue) {
		msg = fmt.Sprintf("convention %q is not registered", ue.Name)
	}
	return &ConfigError{
		Code:         ErrCodeMissingConvention,
		Architecture: a.Name(),
		Message:      msg,
		Err:          err,
	}
}
