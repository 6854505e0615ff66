package lexer

import (
	"fmt"
	"strings"

	"github.com/scvdview/scvd/token"
)

// Directives lists the conversion letters accepted in a %<c>[expr] marker.
const Directives = "duxXtNMSEIJTCU"

// Segment is one piece of a printf-style string: either literal text or a
// directive with the source of its bracketed value expression.
type Segment struct {
	Text      string
	Directive rune // 0 for text segments
	Expr      string
	Span      token.Span // whole segment
	ExprSpan  token.Span // expression between the brackets
}

func (s Segment) IsText() bool {
	return s.Directive == 0
}

// ScanPrintf splits src into alternating text and directive segments. A bare
// "%%" is a literal percent and never opens a value segment. Malformed
// markers are kept as text and reported as diagnostics.
func ScanPrintf(src string) ([]Segment, []token.Diagnostic) {
	var (
		segs  []Segment
		diags []token.Diagnostic
		text  strings.Builder
	)
	textStart := 0
	flush := func(end int) {
		if text.Len() == 0 {
			return
		}
		segs = append(segs, Segment{Text: text.String(), Span: token.Span{Start: textStart, End: end}})
		text.Reset()
	}

	i := 0
	for i < len(src) {
		c := src[i]
		if c != '%' {
			if text.Len() == 0 {
				textStart = i
			}
			text.WriteByte(c)
			i++
			continue
		}

		// "%%" and a trailing '%' are literal text
		if i+1 >= len(src) || src[i+1] == '%' {
			if text.Len() == 0 {
				textStart = i
			}
			text.WriteByte('%')
			i += 2
			continue
		}

		d := rune(src[i+1])
		if !strings.ContainsRune(Directives, d) || i+2 >= len(src) || src[i+2] != '[' {
			msg := fmt.Sprintf("invalid format directive %q", src[i:min(i+3, len(src))])
			if strings.ContainsRune(Directives, d) {
				msg = fmt.Sprintf("expected '[' after %%%c", d)
			}
			diags = append(diags, token.Diagnostic{
				Message:  msg,
				Span:     token.Span{Start: i, End: i + 2},
				Severity: token.SeverityError,
			})
			if text.Len() == 0 {
				textStart = i
			}
			text.WriteString(src[i : i+2])
			i += 2
			continue
		}

		end, ok := matchBracket(src, i+2)
		if !ok {
			diags = append(diags, token.Diagnostic{
				Message:  fmt.Sprintf("missing ']' for %%%c", d),
				Span:     token.Span{Start: i, End: len(src)},
				Severity: token.SeverityError,
			})
			if text.Len() == 0 {
				textStart = i
			}
			text.WriteString(src[i:])
			break
		}

		flush(i)
		segs = append(segs, Segment{
			Directive: d,
			Expr:      src[i+3 : end],
			Span:      token.Span{Start: i, End: end + 1},
			ExprSpan:  token.Span{Start: i + 3, End: end},
		})
		i = end + 1
	}
	flush(len(src))
	return segs, diags
}

// matchBracket returns the index of the ']' closing the '[' at open, skipping
// nested brackets and quoted literals.
func matchBracket(src string, open int) (int, bool) {
	depth := 0
	for i := open; i < len(src); i++ {
		switch src[i] {
		case '[':
			depth++
		case ']':
			depth--
			if depth == 0 {
				return i, true
			}
		case '"', '\'':
			q := src[i]
			for i++; i < len(src) && src[i] != q; i++ {
				if src[i] == '\\' {
					i++
				}
			}
		}
	}
	return -1, false
}
