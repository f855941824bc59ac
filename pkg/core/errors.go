package core

import (
	"errors"
	"fmt"
)

// Error represents a voice-session error.
type Error struct {
	Type    ErrorType `json:"type"`
	Message string    `json:"message"`
	Code    string    `json:"code,omitempty"`
	Cause   error     `json:"-"`
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("%s: %s (code: %s)", e.Type, e.Message, e.Code)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

// ErrorType categorizes errors.
type ErrorType string

const (
	// ErrPermission means the input device could not be acquired.
	ErrPermission ErrorType = "permission_error"
	// ErrConnection means the remote connect/send/receive failed.
	ErrConnection ErrorType = "connection_error"
	// ErrDecode means an inbound payload was not valid base64.
	ErrDecode ErrorType = "decode_error"
	// ErrFormat means a PCM buffer had an impossible shape.
	ErrFormat ErrorType = "format_error"
	// ErrDispatch means a tool invocation could not be routed to the host.
	ErrDispatch ErrorType = "dispatch_error"
)

// NewPermissionError creates a permission error.
func NewPermissionError(message string, cause error) *Error {
	return &Error{Type: ErrPermission, Message: message, Cause: cause}
}

// NewConnectionError creates a connection error.
func NewConnectionError(message string, cause error) *Error {
	return &Error{Type: ErrConnection, Message: message, Cause: cause}
}

// NewDecodeError creates a decode error.
func NewDecodeError(message string, cause error) *Error {
	return &Error{Type: ErrDecode, Message: message, Cause: cause}
}

// NewFormatError creates a format error.
func NewFormatError(message string) *Error {
	return &Error{Type: ErrFormat, Message: message}
}

// NewDispatchError creates a dispatch error.
func NewDispatchError(message string) *Error {
	return &Error{Type: ErrDispatch, Message: message}
}

// IsFatal reports whether the error ends the session.
// Payload-level failures (decode/format/dispatch) are isolated to the
// offending fragment; device and connection failures tear the session down.
func (e *Error) IsFatal() bool {
	switch e.Type {
	case ErrPermission, ErrConnection:
		return true
	default:
		return false
	}
}

// Unwrap returns the underlying error for error wrapping.
func (e *Error) Unwrap() error {
	return e.Cause
}

// TypeOf returns the ErrorType of err, or "" when err is not a *Error.
func TypeOf(err error) ErrorType {
	var ce *Error
	if errors.As(err, &ce) {
		return ce.Type
	}
	return ""
}
