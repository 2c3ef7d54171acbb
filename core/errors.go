package core

import "github.com/pkg/errors"

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
		return ""
	}
	return err.Err.Error()
}

// NotFoundError is returned when a record referenced by a request does not exist.
type NotFoundError struct {
	message string
}

func NewNotFoundError(msg string) *NotFoundError {
	return &NotFoundError{message: msg}
}

func (err NotFoundError) Error() string {
	return err.message
}

// ForbiddenError is returned when a business rule refuses an operation.
type ForbiddenError struct {
	message string
}

func NewForbiddenError(msg string) *ForbiddenError {
	return &ForbiddenError{message: msg}
}

func (err ForbiddenError) Error() string {
	return err.message
}

// ConflictError is returned when an operation does not fit the current state of a record.
type ConflictError struct {
	message string
}

func NewConflictError(msg string) *ConflictError {
	return &ConflictError{message: msg}
}

func (err ConflictError) Error() string {
	return err.message
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
