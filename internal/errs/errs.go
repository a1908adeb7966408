// Package errs provides the engine's typed error codes, the wire and
// session layers' substitute for the execution-report rejection wire
// protocol that is explicitly out of scope (spec.md §1, "Non-goals").
// Operators see rejections only through logs and metrics.
package errs

import "fmt"

// Code identifies one category of rejection this engine raises.
type Code string

const (
	InvalidMessage       Code = "INVALID_MESSAGE"
	MissingSender        Code = "MISSING_SENDER"
	SymbolMismatch       Code = "SYMBOL_MISMATCH"
	UnsupportedOrderType Code = "UNSUPPORTED_ORDER_TYPE"
	SequenceMismatch     Code = "SEQUENCE_MISMATCH"
)

// Error is a code plus a human-readable message and optional cause.
type Error struct {
	Code    Code
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error { return e.Cause }

// New constructs an Error with no cause.
func New(code Code, message string) *Error {
	return &Error{Code: code, Message: message}
}

// Wrap constructs an Error carrying cause as its Unwrap target.
func Wrap(code Code, message string, cause error) *Error {
	return &Error{Code: code, Message: message, Cause: cause}
}

// CodeOf extracts the Code from err's chain, or "" if err is not (or
// does not wrap) an *Error.
func CodeOf(err error) Code {
	var e *Error
	for err != nil {
		if asErr, ok := err.(*Error); ok {
			e = asErr
			break
		}
		unwrapper, ok := err.(interface{ Unwrap() error })
		if !ok {
			break
		}
		err = unwrapper.Unwrap()
	}
	if e == nil {
		return ""
	}
	return e.Code
}
