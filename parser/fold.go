package parser

import (
	"github.com/scvdview/scvd/ast"
	"github.com/scvdview/scvd/token"
	"github.com/scvdview/scvd/types"
)

// literalValue returns the value of a literal operand.
func literalValue(e ast.Expression) (types.Value, bool) {
	switch e := e.(type) {
	case *ast.NumberLiteral:
		return e.Value, true
	case *ast.StringLiteral:
		return types.NewString(e.Value), true
	}
	return types.Absent, false
}

// literalOf wraps a folded value in a literal node spanning the source it
// replaces.
func literalOf(tok token.Token, v types.Value, span token.Span) ast.Expression {
	if v.IsString() {
		return &ast.StringLiteral{Token: tok, Value: v.Str(), Range: span}
	}
	return &ast.NumberLiteral{Token: tok, Value: v, Range: span}
}

func (p *Parser) foldPrefix(pe *ast.PrefixExpression) ast.Expression {
	v, ok := literalValue(pe.Right)
	if !ok {
		return pe
	}
	res, ok := types.Unary(pe.Operator, v)
	if !ok {
		p.warnAt(pe.Span(), "cannot fold %s: operation has no value", pe)
		return pe
	}
	return literalOf(pe.Token, res, pe.Span())
}

func (p *Parser) foldInfix(ie *ast.InfixExpression) ast.Expression {
	left, lok := literalValue(ie.Left)

	// a literal left operand decides && and || without the right one
	if lok && (ie.Operator == token.LAND || ie.Operator == token.LOR) {
		t, ok := left.Truthy()
		if ok && t == (ie.Operator == token.LOR) {
			return literalOf(ie.Token, types.Bool(t), ie.Span())
		}
	}

	right, rok := literalValue(ie.Right)
	if !lok || !rok {
		return ie
	}
	res, ok := types.Binary(ie.Operator, left, right)
	if !ok {
		p.warnAt(ie.Span(), "cannot fold %s: operation has no value", ie)
		return ie
	}
	return literalOf(ie.Token, res, ie.Span())
}

func (p *Parser) foldConditional(ce *ast.ConditionalExpression) ast.Expression {
	v, ok := literalValue(ce.Test)
	if !ok {
		return ce
	}
	t, ok := v.Truthy()
	if !ok {
		return ce
	}
	if t {
		return ce.Then
	}
	return ce.Else
}
