package dust

import (
	"github.com/dustgo/dust/internal/errors"
)

// Error represents an error that occurred while loading or rendering a
// template.
type Error = errors.Error

// ErrorKind describes the type of error.
type ErrorKind = errors.ErrorKind

// Span is a line/column position in a compiled program file.
type Span = errors.Span

const (
	ErrSyntax              = errors.ErrSyntax
	ErrTemplateNotFound    = errors.ErrTemplateNotFound
	ErrCompilerUnavailable = errors.ErrCompilerUnavailable
	ErrNoTemplate          = errors.ErrNoTemplate
	ErrHelper              = errors.ErrHelper
	ErrFilter              = errors.ErrFilter
	ErrCallable            = errors.ErrCallable
	ErrLoad                = errors.ErrLoad
	ErrRejected            = errors.ErrRejected
	ErrStream              = errors.ErrStream
)

// NewError creates a new error with the given kind and message.
func NewError(kind ErrorKind, msg string) *Error {
	return errors.NewError(kind, msg)
}

// WrapError creates an error of the given kind caused by err.
func WrapError(kind ErrorKind, msg string, err error) *Error {
	return errors.Wrap(kind, msg, err)
}

// IsKind reports whether err is, or wraps, an *Error of the given kind.
func IsKind(err error, kind ErrorKind) bool {
	for err != nil {
		if e, ok := err.(*Error); ok && e.Kind == kind {
			return true
		}
		u, ok := err.(interface{ Unwrap() error })
		if !ok {
			return false
		}
		err = u.Unwrap()
	}
	return false
}

// attachErrorInfo names the template err was raised in, unless it already
// carries a name.
func attachErrorInfo(err *Error, ctx *Context) *Error {
	if err.Name == "" && ctx != nil {
		err.WithName(ctx.TemplateName())
	}
	return err
}
