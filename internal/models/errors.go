package models

import (
	"errors"
	"fmt"
)

// Error kinds. Every error surfaced to an end user wraps exactly one of these.
var (
	// ErrInvalidIdentifier: the input is neither a bare numeric ID nor a record URL.
	ErrInvalidIdentifier = errors.New("invalid identifier")

	// ErrTypeMismatch: the referenced record is of a different type than the operation expects.
	ErrTypeMismatch = errors.New("record type mismatch")

	// ErrInvalidValue: a supplied value is not among the legal set.
	ErrInvalidValue = errors.New("invalid value")

	// ErrNotFound: a referenced entity could not be located.
	ErrNotFound = errors.New("not found")

	// ErrUpstream: the CRM API failed or returned a non-success status.
	ErrUpstream = errors.New("upstream API error")
)

// UserError is a terminal error whose message is written for the end user.
type UserError struct {
	Kind    error
	Message string
}

func (e *UserError) Error() string { return e.Message }

// Unwrap returns the error kind so callers can use errors.Is.
func (e *UserError) Unwrap() error { return e.Kind }

func newUserError(kind error, format string, args ...any) *UserError {
	return &UserError{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// InvalidIdentifierf builds an ErrInvalidIdentifier error.
func InvalidIdentifierf(format string, args ...any) error {
	return newUserError(ErrInvalidIdentifier, format, args...)
}

// TypeMismatchf builds an ErrTypeMismatch error.
func TypeMismatchf(format string, args ...any) error {
	return newUserError(ErrTypeMismatch, format, args...)
}

// InvalidValuef builds an ErrInvalidValue error.
func InvalidValuef(format string, args ...any) error {
	return newUserError(ErrInvalidValue, format, args...)
}

// NotFoundf builds an ErrNotFound error.
func NotFoundf(format string, args ...any) error {
	return newUserError(ErrNotFound, format, args...)
}
