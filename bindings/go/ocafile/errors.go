package ocafile

import (
	"errors"
	"fmt"
)

var (
	ErrUnknownOverlayKind       = errors.New("unknown overlay kind")
	ErrMalformedAttributeClause = errors.New("malformed attribute clause")
	ErrUnterminatedString       = errors.New("unterminated string")
	ErrIndentationMismatch      = errors.New("indentation mismatch")
	// ErrSyntax covers every other malformed statement.
	ErrSyntax = errors.New("syntax error")
)

// Error locates a compilation error in the source.
type Error struct {
	Line int
	Err  error
}

func (e *Error) Error() string {
	return fmt.Sprintf("line %d: %v", e.Line, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

func errorf(line int, sentinel error, format string, args ...any) *Error {
	return &Error{Line: line, Err: fmt.Errorf("%w: %s", sentinel, fmt.Sprintf(format, args...))}
}
