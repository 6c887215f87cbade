// Package errors defines the error type shared by the engine, the compiler
// and the template store.
package errors

import (
	goerrors "errors"
	"fmt"
)

// ErrorKind describes the type of error.
type ErrorKind int

const (
	ErrSyntax ErrorKind = iota
	ErrTemplateNotFound
	ErrCompilerUnavailable
	ErrNoTemplate
	ErrHelper
	ErrFilter
	ErrCallable
	ErrLoad
	ErrRejected
	ErrStream
)

func (k ErrorKind) String() string {
	switch k {
	case ErrSyntax:
		return "syntax error"
	case ErrTemplateNotFound:
		return "template not found"
	case ErrCompilerUnavailable:
		return "compiler not available"
	case ErrNoTemplate:
		return "no template"
	case ErrHelper:
		return "helper error"
	case ErrFilter:
		return "filter error"
	case ErrCallable:
		return "callable error"
	case ErrLoad:
		return "load error"
	case ErrRejected:
		return "rejected"
	case ErrStream:
		return "stream error"
	default:
		return "error"
	}
}

// Span is a position inside a compiled program file.
type Span struct {
	Line   int
	Column int
}

// Error represents an error that occurred while loading, compiling or
// rendering a template.
type Error struct {
	Kind    ErrorKind
	Message string
	Name    string // template name
	Span    *Span
	Source  string // program source, used by %+v
	cause   error
}

// NewError creates a new error.
func NewError(kind ErrorKind, msg string) *Error {
	return &Error{Kind: kind, Message: msg}
}

// Wrap creates an error of the given kind caused by err.
func Wrap(kind ErrorKind, msg string, err error) *Error {
	return &Error{Kind: kind, Message: msg, cause: err}
}

func (e *Error) Error() string {
	msg := e.headline()
	if e.cause != nil {
		msg += ": " + e.cause.Error()
	}
	return msg
}

// headline is the message without the cause.
func (e *Error) headline() string {
	msg := e.Kind.String()
	if e.Message != "" {
		msg += ": " + e.Message
	}
	switch {
	case e.Name != "" && e.Span != nil:
		msg = fmt.Sprintf("%s (at %s line %d)", msg, e.Name, e.Span.Line)
	case e.Span != nil:
		msg = fmt.Sprintf("%s (at line %d)", msg, e.Span.Line)
	case e.Name != "":
		msg = fmt.Sprintf("%s (in %s)", msg, e.Name)
	}
	return msg
}

// Unwrap returns the cause of the error.
func (e *Error) Unwrap() error {
	return e.cause
}

// Is reports whether target is an *Error of the same kind. A target with
// a message only matches an error with the same message.
func (e *Error) Is(target error) bool {
	var t *Error
	if !goerrors.As(target, &t) || t == nil {
		return false
	}
	if t.Kind != e.Kind {
		return false
	}
	return t.Message == "" || t.Message == e.Message
}

// Format implements fmt.Formatter. The %+v verb prints the source
// excerpt around the span and the chain of causes.
func (e *Error) Format(f fmt.State, verb rune) {
	switch {
	case verb == 'v' && f.Flag('+'):
		formatErrorWithDebug(f, e, true)
	case verb == 'q':
		_, _ = fmt.Fprintf(f, "%q", e.Error())
	default:
		_, _ = fmt.Fprint(f, e.Error())
	}
}

// WithSpan adds span information to an error.
func (e *Error) WithSpan(span Span) *Error {
	e.Span = &span
	return e
}

// WithName adds template name to an error.
func (e *Error) WithName(name string) *Error {
	e.Name = name
	return e
}

// WithSource adds the program source to an error.
func (e *Error) WithSource(source string) *Error {
	e.Source = source
	return e
}

// WithCause sets the wrapped error.
func (e *Error) WithCause(err error) *Error {
	e.cause = err
	return e
}
