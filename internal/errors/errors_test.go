package errors

import (
	goerrors "errors"
	"fmt"
	"io/fs"
	"strings"
	"testing"
)

func TestErrorKindString(t *testing.T) {
	tests := []struct {
		kind ErrorKind
		want string
	}{
		{ErrSyntax, "syntax error"},
		{ErrTemplateNotFound, "template not found"},
		{ErrCompilerUnavailable, "compiler not available"},
		{ErrRejected, "rejected"},
		{ErrorKind(99), "error"},
	}
	for _, tt := range tests {
		if got := tt.kind.String(); got != tt.want {
			t.Errorf("ErrorKind(%d).String() = %q, want %q", tt.kind, got, tt.want)
		}
	}
}

func TestErrorMessage(t *testing.T) {
	err := NewError(ErrTemplateNotFound, "missing").WithName("index")
	if got := err.Error(); got != "template not found: missing (in index)" {
		t.Errorf("Error() = %q", got)
	}

	err = NewError(ErrSyntax, "unknown node").WithName("page.yaml").WithSpan(Span{Line: 3, Column: 5})
	if got := err.Error(); got != "syntax error: unknown node (at page.yaml line 3)" {
		t.Errorf("Error() = %q", got)
	}
}

func TestErrorIsAndUnwrap(t *testing.T) {
	err := Wrap(ErrLoad, "reading page", fs.ErrNotExist)
	if !goerrors.Is(err, fs.ErrNotExist) {
		t.Error("expected errors.Is to see the cause")
	}
	if !goerrors.Is(err, NewError(ErrLoad, "")) {
		t.Error("expected a kind-only target to match")
	}
	if goerrors.Is(err, NewError(ErrLoad, "other")) {
		t.Error("expected a different message not to match")
	}
	if goerrors.Is(err, NewError(ErrSyntax, "")) {
		t.Error("expected a different kind not to match")
	}

	var target *Error
	wrapped := fmt.Errorf("render: %w", err)
	if !goerrors.As(wrapped, &target) || target.Kind != ErrLoad {
		t.Fatalf("errors.As = %v", target)
	}
}

func TestFormatWithChain(t *testing.T) {
	inner := NewError(ErrHelper, "boom")
	err := Wrap(ErrLoad, "page", inner).
		WithName("page.yaml").
		WithSpan(Span{Line: 2, Column: 3}).
		WithSource("body:\n  - ref: x\n  - text: y")

	out := fmt.Sprintf("%+v", err)
	for _, want := range []string{
		"load error: page (at page.yaml line 2)",
		"   2 >   - ref: x",
		"^ load error",
		"caused by: helper error: boom",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("formatted error missing %q:\n%s", want, out)
		}
	}

	if got := fmt.Sprintf("%v", err); strings.Contains(got, "\n") {
		t.Errorf("plain format should be one line, got %q", got)
	}
}
