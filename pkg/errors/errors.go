package errors

import (
	stderrors "errors"
	"fmt"
)

// ErrorType represents different types of errors that can occur while saving an image
type ErrorType string

const (
	ErrorTypeUnrecognizedFormat   ErrorType = "unrecognized_format"
	ErrorTypeEntryAllocation      ErrorType = "entry_allocation"
	ErrorTypeIO                   ErrorType = "io"
	ErrorTypeMissingOutputChannel ErrorType = "missing_output_channel"
)

// Error represents a save failure with type information
type Error struct {
	Type    ErrorType
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s error: %s: %v", e.Type, e.Message, e.Err)
	}
	return fmt.Sprintf("%s error: %s", e.Type, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// UnrecognizedFormat reports byte data that matches no known image signature
func UnrecognizedFormat(message string) *Error {
	return &Error{Type: ErrorTypeUnrecognizedFormat, Message: message}
}

// EntryAllocation reports that the media store could not create an entry
func EntryAllocation(message string, err error) *Error {
	return &Error{Type: ErrorTypeEntryAllocation, Message: message, Err: err}
}

// IO wraps a filesystem or stream failure
func IO(message string, err error) *Error {
	return &Error{Type: ErrorTypeIO, Message: message, Err: err}
}

// MissingOutputChannel reports an entry that exists but cannot be opened for writing
func MissingOutputChannel(message string, err error) *Error {
	return &Error{Type: ErrorTypeMissingOutputChannel, Message: message, Err: err}
}

// Is reports whether any error in err's chain is an *Error of the given type
func Is(err error, errorType ErrorType) bool {
	var e *Error
	if !stderrors.As(err, &e) {
		return false
	}
	return e.Type == errorType
}

// TypeOf returns the type of the first *Error in err's chain, or "" if there is none
func TypeOf(err error) ErrorType {
	var e *Error
	if stderrors.As(err, &e) {
		return e.Type
	}
	return ""
}
