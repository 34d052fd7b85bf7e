package core

import "github.com/pkg/errors"

// FieldError points at a single invalid field in a request payload.
type FieldError struct {
	Field string
	Error string
}

// ValidationError is a request-level error with optional per-field detail.
// The API error handler renders Fields as a field -> message map when present,
// and falls back to the wrapped error's message otherwise.
type ValidationError struct {
	Err    error
	Fields []FieldError
}

func NewValidationError(err error, flds ...FieldError) error {
	return &ValidationError{Err: err, Fields: flds}
}

func (err ValidationError) Error() string {
	if err.Err == nil {
		return ""
	}
	return err.Err.Error()
}

// shutdown signals an unrecoverable integrity problem; the server stops
// instead of serving on.
type shutdown struct {
	message string
}

func NewShutdownError(msg string) error {
	return &shutdown{message: msg}
}

func (s shutdown) Error() string {
	return s.message
}

// IsShutdown checks if an error in the chain contains the shutdown signal.
func IsShutdown(err error) bool {
	_, ok := errors.Cause(err).(*shutdown)
	return ok
}
