// Package errors provides the application's error classification and
// chaining scheme, built on top of the standard errors package.
//
// Every error constructed through this package is classified with an
// ErrorType and can accumulate context through Wrap. No third-party
// error-wrapping library appears anywhere in the example pack this module
// was grounded on, so this layer is intentionally standard-library-only
// (see DESIGN.md).
//
// Basic usage:
//
//	err := errors.New(errors.NotFound, "retailer config not registered")
//
//	if err != nil {
//	    return errors.Wrap(err, errors.StoreUnavailable, "loading baseline")
//	}
//
//	if errors.Is(err, errors.NotFound) {
//	    // handle missing-row case
//	}
package errors

import (
	"errors"
	"fmt"
	"io"
	"strings"
)

// AppError is the application's error value: a classified message with an
// optional wrapped cause and a captured call stack.
type AppError struct {
	Type    ErrorType
	Message string
	Cause   error
	Stack   []StackFrame
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Type, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Type, e.Message)
}

// Format implements fmt.Formatter. The "%+v" verb prints the error chain
// and stack trace; all other verbs fall back to Error().
func (e *AppError) Format(s fmt.State, verb rune) {
	switch verb {
	case 'v':
		if s.Flag('+') {
			fmt.Fprintf(s, "[%s] %s", e.Type, e.Message)

			if len(e.Stack) > 0 {
				fmt.Fprint(s, "\nStack trace:")
				for _, frame := range e.Stack {
					funcName := frame.Function
					if idx := strings.LastIndex(funcName, "/"); idx != -1 {
						funcName = funcName[idx+1:]
					}
					fmt.Fprintf(s, "\n\t%s:%d %s", frame.File, frame.Line, funcName)
				}
			}

			if e.Cause != nil {
				fmt.Fprint(s, "\nCaused by:\n")
				if formatter, ok := e.Cause.(fmt.Formatter); ok {
					formatter.Format(s, verb)
				} else {
					fmt.Fprintf(s, "\t%v", e.Cause)
				}
			}
			return
		}
		fallthrough
	case 's':
		io.WriteString(s, e.Error())
	case 'q':
		fmt.Fprintf(s, "%q", e.Error())
	default:
		io.WriteString(s, e.Error())
	}
}

// New creates a new classified error.
func New(errType ErrorType, message string) error {
	return &AppError{
		Type:    errType,
		Message: message,
		Stack:   captureStack(defaultCallerSkip),
	}
}

// Newf creates a new classified error with a formatted message.
func Newf(errType ErrorType, format string, args ...interface{}) error {
	return &AppError{
		Type:    errType,
		Message: fmt.Sprintf(format, args...),
		Stack:   captureStack(defaultCallerSkip),
	}
}

// Wrap attaches a classification and message to an existing error. Returns
// nil if err is nil, so callers can write `return errors.Wrap(err, ...)`
// unconditionally.
func Wrap(err error, errType ErrorType, message string) error {
	if err == nil {
		return nil
	}
	return &AppError{
		Type:    errType,
		Message: message,
		Cause:   err,
		Stack:   captureStack(defaultCallerSkip),
	}
}

// Wrapf is Wrap with a formatted message.
func Wrapf(err error, errType ErrorType, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return &AppError{
		Type:    errType,
		Message: fmt.Sprintf(format, args...),
		Cause:   err,
		Stack:   captureStack(defaultCallerSkip),
	}
}

// Unwrap implements the standard errors.Unwrap interface.
func (e *AppError) Unwrap() error {
	return e.Cause
}

// Is reports whether any error in err's chain is an AppError of the given
// type.
func Is(err error, errType ErrorType) bool {
	for err != nil {
		var appErr *AppError
		if errors.As(err, &appErr) && appErr.Type == errType {
			return true
		}
		err = errors.Unwrap(err)
	}
	return false
}

// As wraps the standard errors.As.
func As(err error, target interface{}) bool {
	return errors.As(err, target)
}

// RootCause walks the error chain to the innermost error.
func RootCause(err error) error {
	if err == nil {
		return nil
	}
	for {
		unwrapped := errors.Unwrap(err)
		if unwrapped == nil {
			return err
		}
		err = unwrapped
	}
}

// GetType returns the ErrorType carried by err, or Unknown if err is nil or
// not an AppError.
func GetType(err error) ErrorType {
	if err == nil {
		return Unknown
	}

	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Type
	}
	return Unknown
}
