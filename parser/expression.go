package parser

import (
	"sort"

	"github.com/scvdview/scvd/ast"
	"github.com/scvdview/scvd/lexer"
	"github.com/scvdview/scvd/token"
	"github.com/scvdview/scvd/types"
)

// ParseResult is a parsed expression. It is immutable and may be evaluated
// any number of times.
type ParseResult struct {
	Source      string
	AST         ast.Expression
	Diagnostics []token.Diagnostic
	// ConstValue is valid only when the whole expression folded to a literal.
	ConstValue      types.Value
	ExternalSymbols map[string]struct{}
	IsPrintf        bool
}

// IsConst reports whether the expression folded to a compile-time constant.
func (r *ParseResult) IsConst() bool {
	return r.ConstValue.IsValid()
}

// HasErrors reports whether any error-severity diagnostic was produced.
func (r *ParseResult) HasErrors() bool {
	for _, d := range r.Diagnostics {
		if d.Severity == token.SeverityError {
			return true
		}
	}
	return false
}

// Externals returns the free identifiers, sorted.
func (r *ParseResult) Externals() []string {
	names := make([]string, 0, len(r.ExternalSymbols))
	for n := range r.ExternalSymbols {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// ParseExpression parses source as an expression, or as a printf-style
// string when isPrintf is set. It never fails; problems are reported as
// diagnostics and the tree degrades to what could be recovered.
func ParseExpression(source string, isPrintf bool) *ParseResult {
	res := &ParseResult{Source: source, IsPrintf: isPrintf}
	if isPrintf {
		res.AST, res.Diagnostics = parsePrintf(source)
	} else {
		p := New(lexer.New(source))
		res.AST = p.ParseFull()
		res.Diagnostics = p.Diagnostics()
	}

	res.ExternalSymbols = freeIdentifiers(res.AST)
	switch e := res.AST.(type) {
	case *ast.NumberLiteral:
		res.ConstValue = e.Value
	case *ast.StringLiteral:
		res.ConstValue = types.NewString(e.Value)
	case *ast.PrintfExpression:
		if text, ok := printfText(e); ok {
			res.ConstValue = types.NewString(text)
		}
	}
	return res
}

func parsePrintf(source string) (ast.Expression, []token.Diagnostic) {
	segs, diags := lexer.ScanPrintf(source)
	pe := &ast.PrintfExpression{
		Token: token.Token{Type: token.STRING, Literal: source, Span: token.Span{End: len(source)}},
		Range: token.Span{End: len(source)},
	}
	for _, s := range segs {
		if s.IsText() {
			pe.Segments = append(pe.Segments, ast.PrintfSegment{Text: s.Text, Range: s.Span})
			continue
		}
		p := New(lexer.NewAt(s.Expr, s.ExprSpan.Start))
		value := p.ParseFull()
		diags = append(diags, p.Diagnostics()...)
		pe.Segments = append(pe.Segments, ast.PrintfSegment{
			Directive: s.Directive,
			Value:     value,
			Range:     s.Span,
		})
	}
	return pe, diags
}

// printfText returns the string of a printf expression without value segments.
func printfText(pe *ast.PrintfExpression) (string, bool) {
	text := ""
	for _, s := range pe.Segments {
		if s.Value != nil {
			return "", false
		}
		text += s.Text
	}
	return text, true
}

func freeIdentifiers(root ast.Expression) map[string]struct{} {
	names := map[string]struct{}{}
	ast.Inspect(root, func(n ast.Node) bool {
		if id, ok := n.(*ast.Identifier); ok {
			names[id.Value] = struct{}{}
		}
		return true
	})
	return names
}
