package sexp

import (
	"errors"
	"fmt"
)

// ErrSyntax is matched by every description syntax error.
var ErrSyntax = errors.New("syntax error")

// Error is a positioned description error.
type Error struct {
	Pos Pos
	Msg string
	Err error // причина, если есть
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%d:%d: %s: %v", e.Pos.Line, e.Pos.Col, e.Msg, e.Err)
	}
	return fmt.Sprintf("%d:%d: %s", e.Pos.Line, e.Pos.Col, e.Msg)
}

// Unwrap returns ErrSyntax alongside the underlying cause.
func (e *Error) Unwrap() []error {
	if e.Err != nil {
		return []error{ErrSyntax, e.Err}
	}
	return []error{ErrSyntax}
}

func errorf(pos Pos, format string, args ...any) *Error {
	return &Error{Pos: pos, Msg: fmt.Sprintf(format, args...)}
}
