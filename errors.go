package gemmshapes

import (
	"errors"
	"fmt"
)

// ErrorType represents categories of errors.
type ErrorType int

const (
	// Invalid argument errors.
	ErrTypeInvalidArg ErrorType = iota
	// Profile lookup misses.
	ErrTypeNotFound
	// Name or alias collisions in a registry.
	ErrTypeDuplicate
	// Malformed overlay or export input.
	ErrTypeDecode
	// File system errors.
	ErrTypeIO
)

// Error represents a structured error with context.
type Error struct {
	Type    ErrorType
	Op      string // Operation that failed
	Message string // Human-readable message
	Err     error  // Underlying error if any
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("gemmshapes %s error in %s: %s (caused by: %v)",
			e.Type, e.Op, e.Message, e.Err)
	}
	return fmt.Sprintf("gemmshapes %s error in %s: %s", e.Type, e.Op, e.Message)
}

// Unwrap allows error chain inspection.
func (e *Error) Unwrap() error {
	return e.Err
}

// String returns the error type as a string.
func (t ErrorType) String() string {
	switch t {
	case ErrTypeInvalidArg:
		return "InvalidArgument"
	case ErrTypeNotFound:
		return "NotFound"
	case ErrTypeDuplicate:
		return "Duplicate"
	case ErrTypeDecode:
		return "Decode"
	case ErrTypeIO:
		return "IO"
	default:
		return "Unknown"
	}
}

// NewInvalidArgError creates an invalid argument error.
func NewInvalidArgError(op, message string) error {
	return &Error{Type: ErrTypeInvalidArg, Op: op, Message: message}
}

// NewNotFoundError creates a lookup miss for name.
func NewNotFoundError(op, name string) error {
	return &Error{Type: ErrTypeNotFound, Op: op, Message: fmt.Sprintf("no profile named %q", name)}
}

// NewDuplicateError creates a registry collision error.
func NewDuplicateError(op, name string) error {
	return &Error{Type: ErrTypeDuplicate, Op: op, Message: fmt.Sprintf("name %q already registered", name)}
}

// NewDecodeError wraps a parse failure.
func NewDecodeError(op, message string, err error) error {
	return &Error{Type: ErrTypeDecode, Op: op, Message: message, Err: err}
}

// NewIOError wraps a file system failure.
func NewIOError(op, message string, err error) error {
	return &Error{Type: ErrTypeIO, Op: op, Message: message, Err: err}
}

var (
	// ErrEmptyName indicates a profile without a name.
	ErrEmptyName = NewInvalidArgError("Validate", "profile name must not be empty")

	// ErrNonPositiveTokens indicates a token count below one.
	ErrNonPositiveTokens = NewInvalidArgError("Problems", "token count must be positive")
)

func isType(err error, t ErrorType) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Type == t
	}
	return false
}

// IsInvalidArgError checks if an error is an invalid argument error.
func IsInvalidArgError(err error) bool { return isType(err, ErrTypeInvalidArg) }

// IsNotFoundError checks if an error is a lookup miss.
func IsNotFoundError(err error) bool { return isType(err, ErrTypeNotFound) }

// IsDuplicateError checks if an error is a registry collision.
func IsDuplicateError(err error) bool { return isType(err, ErrTypeDuplicate) }

// IsDecodeError checks if an error is a decode failure.
func IsDecodeError(err error) bool { return isType(err, ErrTypeDecode) }

// IsIOError checks if an error is a file system failure.
func IsIOError(err error) bool { return isType(err, ErrTypeIO) }
