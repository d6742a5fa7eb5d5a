package core

import "github.com/pkg/errors"

var (
	ErrForbidden = errors.New("permission denied")

	// ErrIndexUnavailable is returned by repositories when the index backing a query
	// is still being provisioned. It is transient.
	ErrIndexUnavailable = errors.New("A database index is being built or is missing. Please try again in a few minutes.")
)

// IsIndexUnavailable reports whether err was caused by a missing or building index.
func IsIndexUnavailable(err error) bool {
	return errors.Cause(err) == ErrIndexUnavailable
}

// FieldError is a message about one input field, keyed by its JSON name.
type FieldError struct {
	Field string
	Error string
}

// ValidationError is bad input. The API answers it with 400 and the field messages.
type ValidationError struct {
	Err    error
	Fields []FieldError
}

func NewValidationError(err error, flds ...FieldError) error {
	return &ValidationError{Err: err, Fields: flds}
}

// NewFieldError returns a ValidationError carrying a single message for field.
func NewFieldError(field, msg string) error {
	return &ValidationError{Err: errors.New(msg), Fields: []FieldError{{Field: field, Error: msg}}}
}

func (err ValidationError) Error() string {
	switch {
	case err.Err != nil:
		return err.Err.Error()
	case len(err.Fields) > 0:
		return err.Fields[0].Error
	}
	return ""
}

// IsValidationError reports whether the cause of err is a *ValidationError.
func IsValidationError(err error) bool {
	_, ok := errors.Cause(err).(*ValidationError)
	return ok
}

// shutdownError means the process cannot keep serving, e.g. its database went away.
type shutdownError struct {
	reason string
}

func NewShutdownError(reason string) error {
	return &shutdownError{reason: reason}
}

func (e *shutdownError) Error() string { return e.reason }

func IsShutdown(err error) bool {
	_, ok := errors.Cause(err).(*shutdownError)
	return ok
}
