package mpl

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

var (
	ErrUnbound        = errors.New("unknown variable")
	ErrSealed         = errors.New("cannot mutate sealed name")
	ErrDivisionByZero = errors.New("division by zero")
	ErrUnknownEntity  = errors.New("unknown entity")
	ErrTypeMismatch   = errors.New("type mismatch")

	// ErrFizzle marks a recoverable collaborator failure, such as a call to an
	// unknown stdlib module or function. It is reported but never aborts.
	ErrFizzle = errors.New("ritual fizzled")

	errStepQuotaExceeded = errors.New("step quota exceeded")
)

// ScanError reports a malformed lexeme. It aborts the whole scan.
type ScanError struct {
	Pos     Position
	Text    string
	Message string
	source  string
}

func (e *ScanError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "[line %d] scan error: %s", e.Pos.Line, e.Message)
	if frame := formatCodeFrame(e.source, e.Pos); frame != "" {
		b.WriteString("\n")
		b.WriteString(frame)
	}
	return b.String()
}

// ParseError reports a grammar violation at a specific token. Only the
// statement being parsed is discarded.
type ParseError struct {
	Pos     Position
	Lexeme  string
	AtEnd   bool
	Message string
	source  string
}

func (e *ParseError) Error() string {
	var b strings.Builder
	location := fmt.Sprintf("at '%s'", e.Lexeme)
	if e.AtEnd {
		location = "at end"
	}
	fmt.Fprintf(&b, "[line %d] parse error %s: %s", e.Pos.Line, location, e.Message)
	if frame := formatCodeFrame(e.source, e.Pos); frame != "" {
		b.WriteString("\n")
		b.WriteString(frame)
	}
	return b.String()
}

// ErrorKind classifies runtime failures.
type ErrorKind string

const (
	KindUnknownVariable ErrorKind = "UnknownVariable"
	KindSealed          ErrorKind = "SealedMutation"
	KindDivisionByZero  ErrorKind = "DivisionByZero"
	KindUnknownEntity   ErrorKind = "UnknownEntity"
	KindType            ErrorKind = "TypeMismatch"
	KindAbyss           ErrorKind = "Abyss"
	KindExternal        ErrorKind = "External"
)

type StackFrame struct {
	Statement string
	Pos       Position
}

// RuntimeError propagates up the statement tree until a circle catches it
// or the program aborts.
type RuntimeError struct {
	Kind      ErrorKind
	Message   string
	Pos       Position
	CodeFrame string
	Frames    []StackFrame
	cause     error
}

func (re *RuntimeError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "[line %d] %s", re.Pos.Line, re.Message)
	if re.CodeFrame != "" {
		b.WriteString("\n")
		b.WriteString(re.CodeFrame)
	}
	for _, frame := range re.Frames {
		if frame.Pos.Column > 0 {
			fmt.Fprintf(&b, "\n  at %s (%d:%d)", frame.Statement, frame.Pos.Line, frame.Pos.Column)
		} else {
			fmt.Fprintf(&b, "\n  at %s (line %d)", frame.Statement, frame.Pos.Line)
		}
	}
	return b.String()
}

// Unwrap exposes the sentinel or collaborator error behind the failure.
func (re *RuntimeError) Unwrap() error {
	return re.cause
}

func kindForError(err error) ErrorKind {
	switch {
	case errors.Is(err, ErrUnbound):
		return KindUnknownVariable
	case errors.Is(err, ErrSealed):
		return KindSealed
	case errors.Is(err, ErrDivisionByZero):
		return KindDivisionByZero
	case errors.Is(err, ErrUnknownEntity):
		return KindUnknownEntity
	case errors.Is(err, ErrTypeMismatch):
		return KindType
	default:
		return KindExternal
	}
}

// isHostControlSignal reports errors a circle must never swallow.
func isHostControlSignal(err error) bool {
	return errors.Is(err, context.Canceled) ||
		errors.Is(err, context.DeadlineExceeded) ||
		errors.Is(err, errStepQuotaExceeded)
}

func combineErrors(errs []error) error {
	if len(errs) == 1 {
		return errs[0]
	}
	return errors.Join(errs...)
}
