package pkg

import (
	"errors"
	"fmt"
)

// Code classifies an error for the caller.
type Code string

const (
	CodeNotFound     Code = "not_found"
	CodeForbidden    Code = "forbidden"
	CodeUnauthorized Code = "unauthorized"
	CodeConflict     Code = "conflict"
	CodeInvalidInput Code = "invalid_input"
	CodeInternal     Code = "internal"
)

// AppError is an expected failure that is safe to show to the caller.
type AppError struct {
	Code    Code
	Message string
	Err     error
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error { return e.Err }

func NotFound(msg string) *AppError     { return &AppError{Code: CodeNotFound, Message: msg} }
func Forbidden(msg string) *AppError    { return &AppError{Code: CodeForbidden, Message: msg} }
func Unauthorized(msg string) *AppError { return &AppError{Code: CodeUnauthorized, Message: msg} }
func InvalidInput(msg string) *AppError { return &AppError{Code: CodeInvalidInput, Message: msg} }

// Conflict wraps the unique-constraint error that caused it, if any.
func Conflict(msg string, err error) *AppError {
	return &AppError{Code: CodeConflict, Message: msg, Err: err}
}

// CodeOf returns the code carried by err, or CodeInternal for anything unexpected.
func CodeOf(err error) Code {
	var ae *AppError
	if errors.As(err, &ae) {
		return ae.Code
	}
	return CodeInternal
}
