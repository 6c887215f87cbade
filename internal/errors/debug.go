package errors

import (
	goerrors "errors"
	"fmt"
	"strings"
)

func formatErrorWithDebug(f fmt.State, err *Error, includeChain bool) {
	_, _ = fmt.Fprint(f, err.headline())
	if err.Source != "" {
		renderSource(f, err)
	}

	if includeChain {
		for cause := goerrors.Unwrap(err); cause != nil; cause = goerrors.Unwrap(cause) {
			_, _ = fmt.Fprint(f, "\n\ncaused by: ")
			if next, ok := cause.(*Error); ok {
				formatErrorWithDebug(f, next, false)
			} else {
				_, _ = fmt.Fprintf(f, "%v", cause)
			}
		}
	}
}

func renderSource(f fmt.State, err *Error) {
	title := fmt.Sprintf(" %s ", templateTitle(err.Name))
	_, _ = fmt.Fprint(f, "\n")
	_, _ = fmt.Fprintln(f, centerLine(title, '-', 79))

	lines := strings.Split(err.Source, "\n")
	lineIdx := 0
	if err.Span != nil && err.Span.Line > 0 {
		lineIdx = err.Span.Line - 1
	}
	if lineIdx >= len(lines) {
		lineIdx = len(lines) - 1
	}
	if lineIdx < 0 {
		lineIdx = 0
	}

	skip := max(lineIdx-3, 0)
	for idx := skip; idx < lineIdx; idx++ {
		_, _ = fmt.Fprintf(f, "%4d | %s\n", idx+1, lines[idx])
	}
	_, _ = fmt.Fprintf(f, "%4d > %s\n", lineIdx+1, lines[lineIdx])

	if err.Span != nil && err.Span.Column > 0 {
		_, _ = fmt.Fprintf(
			f,
			"     i %s^ %s\n",
			strings.Repeat(" ", err.Span.Column-1),
			err.Kind,
		)
	}

	for idx := lineIdx + 1; idx <= lineIdx+3 && idx < len(lines); idx++ {
		_, _ = fmt.Fprintf(f, "%4d | %s\n", idx+1, lines[idx])
	}
	_, _ = fmt.Fprint(f, strings.Repeat("~", 79))
}

func templateTitle(name string) string {
	if name == "" {
		return "Template Source"
	}
	parts := strings.FieldsFunc(name, func(r rune) bool { return r == '/' || r == '\\' })
	if len(parts) == 0 {
		return "Template Source"
	}
	return parts[len(parts)-1]
}

func centerLine(title string, fill rune, width int) string {
	if len(title) >= width {
		return title
	}
	pad := width - len(title)
	left := pad / 2
	right := pad - left
	return strings.Repeat(string(fill), left) + title + strings.Repeat(string(fill), right)
}
