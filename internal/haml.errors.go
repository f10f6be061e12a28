package internal

import (
	"errors"
	"fmt"
)

// LexError is a non-fatal diagnostic for a skipped character
type LexError struct {
	Message  string
	Char     string
	Position Position
}

// Error implements the error interface
func (e *LexError) Error() string {
	return fmt.Sprintf(ErrFmtWithPosition, fmt.Sprintf("%s %q", e.Message, e.Char), e.Position)
}

// IndentError is raised for mixed, uneven or over-deep indentation
type IndentError struct {
	Message  string
	Position Position
}

// Error implements the error interface
func (e *IndentError) Error() string {
	return fmt.Sprintf(ErrFmtWithPosition, e.Message, e.Position)
}

// SyntaxError is raised when the token sequence or embedded code cannot be parsed
type SyntaxError struct {
	Message  string
	Detail   string
	Position Position
	Cause    error
}

// NewSyntaxError creates a syntax error
func NewSyntaxError(message, detail string, pos Position, cause error) *SyntaxError {
	return &SyntaxError{Message: message, Detail: detail, Position: pos, Cause: cause}
}

// Error implements the error interface
func (e *SyntaxError) Error() string {
	msg := e.Message
	if e.Detail != "" {
		msg = fmt.Sprintf(ErrFmtWithDetail, msg, e.Detail)
	}
	if e.Cause != nil {
		msg = fmt.Sprintf(ErrFmtWithCause, msg, e.Cause)
	}
	return fmt.Sprintf(ErrFmtWithPosition, msg, e.Position)
}

// Unwrap returns the underlying error
func (e *SyntaxError) Unwrap() error {
	return e.Cause
}

// NestingError is raised when a node that cannot have children is given some
type NestingError struct {
	Message  string
	Position Position
}

// Error implements the error interface
func (e *NestingError) Error() string {
	return fmt.Sprintf(ErrFmtWithPosition, e.Message, e.Position)
}

// RuntimeError is raised while executing a compiled program
type RuntimeError struct {
	Message string
	Line    int
	Cause   error
}

// NewRuntimeError creates a runtime error for the given source line
func NewRuntimeError(message string, line int, cause error) *RuntimeError {
	return &RuntimeError{Message: message, Line: line, Cause: cause}
}

// Error implements the error interface
func (e *RuntimeError) Error() string {
	msg := e.Message
	if e.Cause != nil {
		msg = fmt.Sprintf(ErrFmtWithCause, msg, e.Cause)
	}
	if e.Line > 0 {
		return fmt.Sprintf(ErrFmtLine, e.Line, msg)
	}
	return msg
}

// Unwrap returns the underlying error
func (e *RuntimeError) Unwrap() error {
	return e.Cause
}

// ErrorPosition extracts the source position of a compile or runtime error.
// The second result is false when err carries no position.
func ErrorPosition(err error) (Position, bool) {
	var indentErr *IndentError
	if errors.As(err, &indentErr) {
		return indentErr.Position, true
	}
	var syntaxErr *SyntaxError
	if errors.As(err, &syntaxErr) {
		return syntaxErr.Position, true
	}
	var nestingErr *NestingError
	if errors.As(err, &nestingErr) {
		return nestingErr.Position, true
	}
	var runtimeErr *RuntimeError
	if errors.As(err, &runtimeErr) && runtimeErr.Line > 0 {
		return Position{Line: runtimeErr.Line}, true
	}
	return Position{}, false
}
