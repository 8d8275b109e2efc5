package audience

import (
	"errors"
	"fmt"

	"github.com/audience/audience/audience/validate"
)

type ErrorKind string

const (
	ErrSQL          ErrorKind = "sql"
	ErrRegistry     ErrorKind = "registry"
	ErrDecode       ErrorKind = "decode"
	ErrValidation   ErrorKind = "validation"
	ErrUnknownField ErrorKind = "unknown_field"
	ErrConfig       ErrorKind = "config"
)

type Error struct {
	Kind       ErrorKind
	Message    string
	Field      string
	Cause      error
	Violations []validate.Violation
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	base := fmt.Sprintf("%s: %s", e.Kind, e.Message)
	if e.Field != "" {
		base = fmt.Sprintf("%s (field=%s)", base, e.Field)
	}
	if len(e.Violations) > 0 {
		base = fmt.Sprintf("%s: %d violation(s), first: %s", base, len(e.Violations), e.Violations[0])
	}
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", base, e.Cause)
	}
	return base
}

func (e *Error) Unwrap() error {
	return e.Cause
}

func Wrap(kind ErrorKind, msg string, cause error) *Error {
	return &Error{Kind: kind, Message: msg, Cause: cause}
}

func New(kind ErrorKind, msg string) *Error {
	return &Error{Kind: kind, Message: msg}
}

func ValidationError(violations []validate.Violation) *Error {
	return &Error{Kind: ErrValidation, Message: "expression rejected", Violations: violations}
}

func UnknownFieldError(field string) *Error {
	return &Error{Kind: ErrUnknownField, Message: "unknown field", Field: field}
}

func IsKind(err error, kind ErrorKind) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind == kind
	}
	return false
}

// Violations extracts the validation violations carried by err, if any.
func Violations(err error) []validate.Violation {
	var e *Error
	if errors.As(err, &e) {
		return e.Violations
	}
	return nil
}
