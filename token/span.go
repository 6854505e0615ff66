package token

import (
	"fmt"
	"strings"
)

// Span is a half-open byte range [Start, End) into the expression source.
type Span struct {
	Start int
	End   int
}

// Join returns the smallest span covering both a and b.
func Join(a, b Span) Span {
	if b.Start < a.Start {
		a.Start = b.Start
	}
	if b.End > a.End {
		a.End = b.End
	}
	return a
}

// Position converts a byte offset into a 1-based line and column.
func Position(src string, offset int) (line, col int) {
	if offset > len(src) {
		offset = len(src)
	}
	if offset < 0 {
		offset = 0
	}
	line = 1 + strings.Count(src[:offset], "\n")
	col = offset - strings.LastIndex(src[:offset], "\n")
	return line, col
}

type Severity int

const (
	SeverityError Severity = iota
	SeverityWarning
	SeverityInfo
)

func (s Severity) String() string {
	switch s {
	case SeverityError:
		return "error"
	case SeverityWarning:
		return "warning"
	default:
		return "info"
	}
}

// Diagnostic is a problem found while lexing or parsing. Diagnostics never
// abort parsing; they are collected on the parse result.
type Diagnostic struct {
	Message  string
	Span     Span
	Severity Severity
}

func (d *Diagnostic) Error() string {
	return fmt.Sprintf("%d-%d: %s: %s", d.Span.Start, d.Span.End, d.Severity, d.Message)
}

// Render formats the diagnostic with a line:col prefix resolved against src.
func (d *Diagnostic) Render(src string) string {
	line, col := Position(src, d.Span.Start)
	return fmt.Sprintf("%d:%d: %s: %s", line, col, d.Severity, d.Message)
}
