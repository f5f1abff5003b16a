package core

import "github.com/pkg/errors"

var (
	// ErrUnauthorized is matched by any error caused by a missing, invalid or expired credential.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrNotFound is matched by any error caused by a missing remote or stored resource.
	ErrNotFound = errors.New("not found")
	// ErrForbidden is matched by any error caused by insufficient permissions.
	ErrForbidden = errors.New("permission denied")
)

// FieldError is used to indicate an error with a specific struct field.
type FieldError struct {
	Field string `json:"field"`
	Error string `json:"error"`
}

type ValidationError struct {
	Err    error
	Fields []FieldError
}

func NewValidationError(err error, flds ...FieldError) error {
	return &ValidationError{err, flds}
}

func (err ValidationError) Error() string {
	if err.Err == nil {
		if len(err.Fields) > 0 {
			return err.Fields[0].Field + ": " + err.Fields[0].Error
		}
		return ""
	}
	return err.Err.Error()
}

func (err ValidationError) Unwrap() error { return err.Err }

type shutdown struct {
	message string
}

func NewShutdownError(msg string) error {
	return &shutdown{message: msg}
}

func (s shutdown) Error() string {
	return s.message
}

func IsShutdown(err error) bool {
	_, ok := errors.Cause(err).(*shutdown)
	return ok
}

// IsUnauthorized reports whether err was caused by a rejected credential.
func IsUnauthorized(err error) bool { return errors.Is(err, ErrUnauthorized) }

// IsNotFound reports whether err was caused by a missing resource.
func IsNotFound(err error) bool { return errors.Is(err, ErrNotFound) }
