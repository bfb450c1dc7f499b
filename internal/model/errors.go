package model

import (
	"errors"
	"fmt"
)

// ErrValidation matches every *ValidationError via errors.Is.
var ErrValidation = errors.New("validation failed")

// Domain errors returned by record mutation methods
var (
	ErrAlreadySignedUp   = errors.New("user already signed up")
	ErrNotSignedUp       = errors.New("user not signed up")
	ErrAlreadySelected   = errors.New("signup already selected")
	ErrSignupsClosed     = errors.New("quest is not accepting signups")
	ErrInvalidTransition = errors.New("invalid status transition")
	ErrAlreadySet        = errors.New("value already set")
	ErrNotPlayer         = errors.New("user is not a player")
	ErrNotReferee        = errors.New("user is not a referee")
	ErrRefereeActive     = errors.New("cannot disable player while referee is active")
)

// FieldError represents a validation error on a specific field
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationError carries every invariant a record violated.
type ValidationError struct {
	Errors []FieldError
}

func (e *ValidationError) Error() string {
	detail := "one or more fields failed validation"
	if len(e.Errors) > 0 {
		detail = fmt.Sprintf("%s: %s", e.Errors[0].Field, e.Errors[0].Message)
		if len(e.Errors) > 1 {
			detail = fmt.Sprintf("%s (and %d more errors)", detail, len(e.Errors)-1)
		}
	}
	return detail
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

// HasField reports whether field is among the failures.
func (e *ValidationError) HasField(field string) bool {
	for _, fe := range e.Errors {
		if fe.Field == field {
			return true
		}
	}
	return false
}

// validationResult returns nil when errs is empty.
func validationResult(errs []FieldError) error {
	if len(errs) == 0 {
		return nil
	}
	return &ValidationError{Errors: errs}
}

func fieldError(field, message string) error {
	return &ValidationError{Errors: []FieldError{{Field: field, Message: message}}}
}
