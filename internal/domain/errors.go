package domain

import (
	"errors"
	"fmt"
	"strings"
)

// ValidationError reports a mutation payload that is missing or has
// malformed fields.
type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string {
	return e.Msg
}

func NewValidationError(msg string) error {
	return &ValidationError{Msg: msg}
}

func NewValidationErrorf(format string, args ...any) error {
	return &ValidationError{Msg: fmt.Sprintf(format, args...)}
}

func NewIndexedValidationError(field string, index int, msg string) error {
	return &ValidationError{Msg: fmt.Sprintf("%s[%d]: %s", field, index, msg)}
}

func IsValidationError(err error) bool {
	var validationError *ValidationError
	return errors.As(err, &validationError)
}

// ValidationErrors collects every problem found in one payload.
type ValidationErrors struct {
	Errors []error
}

func (ve *ValidationErrors) Error() string {
	messages := make([]string, len(ve.Errors))
	for i, err := range ve.Errors {
		messages[i] = err.Error()
	}
	return fmt.Sprintf("multiple validation errors: %s", strings.Join(messages, "; "))
}

func (ve *ValidationErrors) Add(err error) {
	if err != nil {
		ve.Errors = append(ve.Errors, err)
	}
}

// Err returns nil when nothing was collected, the single error when there is
// one, and the aggregate otherwise.
func (ve *ValidationErrors) Err() error {
	switch len(ve.Errors) {
	case 0:
		return nil
	case 1:
		return ve.Errors[0]
	default:
		return ve
	}
}

// As lets errors.As find a *ValidationError through the aggregate.
func (ve *ValidationErrors) As(target any) bool {
	if t, ok := target.(**ValidationError); ok && len(ve.Errors) > 0 {
		*t = &ValidationError{Msg: ve.Error()}
		return true
	}
	return false
}
