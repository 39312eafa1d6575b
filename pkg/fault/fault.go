package fault

import (
	"context"
	"errors"
	"fmt"
)

// Code discriminates protocol failures.
type Code uint8

const (
	// CodeNone is returned by CodeOf for nil or foreign errors.
	CodeNone Code = iota

	// CodeLinkUnavailable indicates there is no active connection.
	CodeLinkUnavailable

	// CodeTimeout indicates no matching response arrived within the deadline.
	CodeTimeout

	// CodeValidationFailed indicates a local parameter check failed
	// before any transport interaction.
	CodeValidationFailed

	// CodeDeviceReported indicates the device answered with status=error.
	CodeDeviceReported

	// CodeDecodeFailed indicates a malformed frame.
	CodeDecodeFailed

	// CodeTransport indicates the link backend failed to open or write.
	CodeTransport

	// CodeCanceled indicates the caller's context ended first.
	CodeCanceled
)

// String returns the code name.
func (c Code) String() string {
	switch c {
	case CodeNone:
		return "NONE"
	case CodeLinkUnavailable:
		return "LINK_UNAVAILABLE"
	case CodeTimeout:
		return "TIMEOUT"
	case CodeValidationFailed:
		return "VALIDATION_FAILED"
	case CodeDeviceReported:
		return "DEVICE_REPORTED_ERROR"
	case CodeDecodeFailed:
		return "DECODE_FAILED"
	case CodeTransport:
		return "TRANSPORT"
	case CodeCanceled:
		return "CANCELED"
	default:
		return "UNKNOWN"
	}
}

// Error is the typed failure returned by every protocol operation.
// Callers branch on Code (or errors.Is against the sentinels below)
// rather than on message text.
type Error struct {
	Code Code

	// Op names the operation that failed (e.g. "GET_BRIGHTNESS").
	Op string

	// Message is the human-readable detail. For CodeDeviceReported it is
	// the device's own error text, unmodified.
	Message string

	// Err is the underlying cause, if any.
	Err error
}

func (e *Error) Error() string {
	msg := e.Message
	if msg == "" && e.Err != nil {
		msg = e.Err.Error()
	}
	switch {
	case e.Op != "" && msg != "":
		return fmt.Sprintf("%s: %s: %s", e.Op, e.Code, msg)
	case e.Op != "":
		return fmt.Sprintf("%s: %s", e.Op, e.Code)
	case msg != "":
		return fmt.Sprintf("%s: %s", e.Code, msg)
	default:
		return e.Code.String()
	}
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error {
	return e.Err
}

// Is reports whether target is a fault with the same code. This lets
// errors.Is(err, fault.ErrTimeout) match any timeout regardless of Op.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Code == e.Code && t.Op == "" && t.Message == ""
}

// Sentinels for errors.Is comparisons.
var (
	ErrLinkUnavailable  = &Error{Code: CodeLinkUnavailable}
	ErrTimeout          = &Error{Code: CodeTimeout}
	ErrValidationFailed = &Error{Code: CodeValidationFailed}
	ErrDeviceReported   = &Error{Code: CodeDeviceReported}
	ErrDecodeFailed     = &Error{Code: CodeDecodeFailed}
	ErrTransport        = &Error{Code: CodeTransport}
	ErrCanceled         = &Error{Code: CodeCanceled}
)

// New creates a fault with the given code.
func New(code Code, op, message string) *Error {
	return &Error{Code: code, Op: op, Message: message}
}

// Wrap creates a fault with the given code around a cause.
func Wrap(code Code, op string, err error) *Error {
	return &Error{Code: code, Op: op, Err: err}
}

// LinkUnavailable is shorthand for a CodeLinkUnavailable fault.
func LinkUnavailable(op string) *Error {
	return &Error{Code: CodeLinkUnavailable, Op: op, Message: "no active connection"}
}

// Timeout is shorthand for a CodeTimeout fault.
func Timeout(op string) *Error {
	return &Error{Code: CodeTimeout, Op: op, Message: "no matching response before deadline"}
}

// Validation is shorthand for a CodeValidationFailed fault.
func Validation(op, format string, args ...any) *Error {
	return &Error{Code: CodeValidationFailed, Op: op, Message: fmt.Sprintf(format, args...)}
}

// DeviceReported is shorthand for a CodeDeviceReported fault carrying the
// device's error text.
func DeviceReported(op, deviceMessage string) *Error {
	return &Error{Code: CodeDeviceReported, Op: op, Message: deviceMessage}
}

// FromContext converts a context error into a CodeCanceled or CodeTimeout
// fault. A deadline that expired on the caller's context is reported as a
// timeout.
func FromContext(op string, err error) *Error {
	if errors.Is(err, context.DeadlineExceeded) {
		return &Error{Code: CodeTimeout, Op: op, Err: err}
	}
	return &Error{Code: CodeCanceled, Op: op, Err: err}
}

// CodeOf returns the fault code carried by err, or CodeNone.
func CodeOf(err error) Code {
	var fe *Error
	if errors.As(err, &fe) {
		return fe.Code
	}
	return CodeNone
}
