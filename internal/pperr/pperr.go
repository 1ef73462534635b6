// Package pperr defines the error taxonomy shared by the preprocessing
// pipeline. Every failure is terminal for the invocation that raised it
// and carries the originating file and line where determinable.
package pperr

import (
	"errors"
	"fmt"
)

type Kind int

const (
	KindSyntax Kind = iota
	KindArgumentCountMismatch
	KindIncludeNotFound
	KindIncludeCycle
	KindRecursionLimit
	KindValidation
)

func (k Kind) String() string {
	switch k {
	case KindSyntax:
		return "SyntaxError"
	case KindArgumentCountMismatch:
		return "ArgumentCountMismatch"
	case KindIncludeNotFound:
		return "IncludeNotFound"
	case KindIncludeCycle:
		return "IncludeCycle"
	case KindRecursionLimit:
		return "RecursionLimitExceeded"
	case KindValidation:
		return "ValidationError"
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// Error is a preprocessing failure. File and Line are zero when the
// failure has no source location, e.g. an unreadable top-level file.
type Error struct {
	Kind    Kind
	File    string
	Line    int
	Message string
	Err     error
}

func (e *Error) Error() string {
	switch {
	case e.File != "" && e.Line > 0:
		return fmt.Sprintf("%s:%d: %s", e.File, e.Line, e.Message)
	case e.File != "":
		return fmt.Sprintf("%s: %s", e.File, e.Message)
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

func New(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

func At(kind Kind, file string, line int, format string, args ...any) *Error {
	return &Error{Kind: kind, File: file, Line: line, Message: fmt.Sprintf(format, args...)}
}

// Locate attaches file and line to err if it is an *Error without a
// location. Errors raised deeper in the pipeline keep their own
// location, so the innermost attribution wins.
func Locate(err error, file string, line int) error {
	var e *Error
	if errors.As(err, &e) && e.File == "" {
		e.File = file
		e.Line = line
	}
	return err
}

// IsKind reports whether err is an *Error of the given kind.
func IsKind(err error, kind Kind) bool {
	var e *Error
	return errors.As(err, &e) && e.Kind == kind
}
