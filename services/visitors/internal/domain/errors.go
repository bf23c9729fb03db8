package domain

import (
	"errors"
	"strings"
)

type ErrorCode string

const (
	CodeValidation          ErrorCode = "VALIDATION_ERROR"
	CodeAccessDenied        ErrorCode = "ACCESS_DENIED"
	CodePermissionDenied    ErrorCode = "PERMISSION_DENIED"
	CodeProtectedTarget     ErrorCode = "PROTECTED_TARGET"
	CodeSelfDeleteForbidden ErrorCode = "SELF_DELETE_FORBIDDEN"
	CodeNotFound            ErrorCode = "NOT_FOUND"
	CodeNetwork             ErrorCode = "NETWORK_ERROR"

	// Authentication surface only.
	CodeInvalidCredentials ErrorCode = "INVALID_CREDENTIALS"
	CodeEmailExists        ErrorCode = "EMAIL_EXISTS"
)

// Error is the failure type every service operation returns. Callers branch on
// Code; Fields lists the offending inputs of a validation failure.
type Error struct {
	Code    ErrorCode
	Message string
	Fields  []string
	Err     error
}

func (e *Error) Error() string {
	msg := e.Message
	if msg == "" {
		msg = strings.ToLower(strings.ReplaceAll(string(e.Code), "_", " "))
	}
	if e.Err != nil {
		return msg + ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches any *Error carrying the same code, so the sentinels below work
// with errors.Is regardless of message.
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	return t.Code == e.Code
}

var (
	ErrValidation          = &Error{Code: CodeValidation}
	ErrAccessDenied        = &Error{Code: CodeAccessDenied}
	ErrPermissionDenied    = &Error{Code: CodePermissionDenied}
	ErrProtectedTarget     = &Error{Code: CodeProtectedTarget}
	ErrSelfDeleteForbidden = &Error{Code: CodeSelfDeleteForbidden}
	ErrNotFound            = &Error{Code: CodeNotFound}
	ErrNetwork             = &Error{Code: CodeNetwork}
	ErrInvalidCredentials  = &Error{Code: CodeInvalidCredentials}
	ErrEmailExists         = &Error{Code: CodeEmailExists}
)

func NewError(code ErrorCode, message string) *Error {
	return &Error{Code: code, Message: message}
}

func ValidationError(message string, fields ...string) *Error {
	return &Error{Code: CodeValidation, Message: message, Fields: fields}
}

func NotFound(what string) *Error {
	return &Error{Code: CodeNotFound, Message: what + " not found"}
}

// NetworkError wraps a backend or transport failure. Errors that already carry
// a code pass through unchanged.
func NetworkError(op string, err error) error {
	if err == nil {
		return nil
	}
	var de *Error
	if errors.As(err, &de) {
		return err
	}
	return &Error{Code: CodeNetwork, Message: op, Err: err}
}

// CodeOf returns the code attached to err, or "" when there is none.
func CodeOf(err error) ErrorCode {
	var de *Error
	if errors.As(err, &de) {
		return de.Code
	}
	return ""
}
