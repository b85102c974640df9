package core

import (
	"fmt"
	"net/http"

	"github.com/pkg/errors"
)

// FieldError is used to indicate an error with a specific struct field.
type FieldError struct {
	Field string
	Error string
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

// RequestError is returned when the upstream API answers with a non-success status.
type RequestError struct {
	Method string
	Path   string
	Status int
	Body   string
}

func (err *RequestError) Error() string {
	return fmt.Sprintf("%s %s: %d %s", err.Method, err.Path, err.Status, http.StatusText(err.Status))
}

// IsNotFound reports whether err was caused by an upstream 404.
func IsNotFound(err error) bool {
	rerr, ok := errors.Cause(err).(*RequestError)
	return ok && rerr.Status == http.StatusNotFound
}

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
