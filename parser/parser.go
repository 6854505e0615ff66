package parser

import (
	"fmt"
	"strings"

	"github.com/scvdview/scvd/ast"
	"github.com/scvdview/scvd/lexer"
	"github.com/scvdview/scvd/token"
	"github.com/scvdview/scvd/types"
)

const (
	_ int = iota
	LOWEST
	ASSIGN      // = += -= ...
	CONDITIONAL // a ? b : c
	LOGICALOR   // ||
	LOGICALAND  // &&
	BITOR       // |
	BITXOR      // ^
	BITAND      // &
	EQUALS      // == !=
	LESSGREATER // < > <= >=
	SHIFT       // << >>
	SUM         // + -
	PRODUCT     // * / %
	PREFIX      // -X !X ~X ++X
	POSTFIX     // a.b a[i] f(x) x++
)

var precedences = map[token.TokenType]int{
	token.ASSIGN:     ASSIGN,
	token.ADD_ASSIGN: ASSIGN,
	token.SUB_ASSIGN: ASSIGN,
	token.MUL_ASSIGN: ASSIGN,
	token.QUO_ASSIGN: ASSIGN,
	token.REM_ASSIGN: ASSIGN,
	token.AND_ASSIGN: ASSIGN,
	token.OR_ASSIGN:  ASSIGN,
	token.XOR_ASSIGN: ASSIGN,
	token.SHL_ASSIGN: ASSIGN,
	token.SHR_ASSIGN: ASSIGN,
	token.QUESTION:   CONDITIONAL,
	token.LOR:        LOGICALOR,
	token.LAND:       LOGICALAND,
	token.OR:         BITOR,
	token.XOR:        BITXOR,
	token.AND:        BITAND,
	token.EQL:        EQUALS,
	token.NEQ:        EQUALS,
	token.LSS:        LESSGREATER,
	token.GTR:        LESSGREATER,
	token.LEQ:        LESSGREATER,
	token.GEQ:        LESSGREATER,
	token.SHL:        SHIFT,
	token.SHR:        SHIFT,
	token.ADD:        SUM,
	token.SUB:        SUM,
	token.MUL:        PRODUCT,
	token.QUO:        PRODUCT,
	token.REM:        PRODUCT,
	token.PERIOD:     POSTFIX,
	token.ARROW:      POSTFIX,
	token.LBRACK:     POSTFIX,
	token.LPAREN:     POSTFIX,
	token.INC:        POSTFIX,
	token.DEC:        POSTFIX,
}

type (
	prefixParseFn func() ast.Expression
	infixParseFn  func(ast.Expression) ast.Expression
)

type Parser struct {
	l     *lexer.Lexer
	diags []token.Diagnostic

	curToken  token.Token
	peekToken token.Token

	prefixParseFns map[token.TokenType]prefixParseFn
	infixParseFns  map[token.TokenType]infixParseFn
}

func New(l *lexer.Lexer) *Parser {
	p := &Parser{l: l}

	p.prefixParseFns = make(map[token.TokenType]prefixParseFn)
	p.registerPrefix(token.IDENT, p.parseIdentifier)
	p.registerPrefix(token.INT, p.parseNumberLiteral)
	p.registerPrefix(token.FLOAT, p.parseNumberLiteral)
	p.registerPrefix(token.CHAR, p.parseNumberLiteral)
	p.registerPrefix(token.STRING, p.parseStringLiteral)
	p.registerPrefix(token.ADD, p.parsePrefixExpression)
	p.registerPrefix(token.SUB, p.parsePrefixExpression)
	p.registerPrefix(token.NOT, p.parsePrefixExpression)
	p.registerPrefix(token.LNOT, p.parsePrefixExpression)
	p.registerPrefix(token.INC, p.parsePrefixUpdate)
	p.registerPrefix(token.DEC, p.parsePrefixUpdate)
	p.registerPrefix(token.LPAREN, p.parseGroupedExpression)

	p.infixParseFns = make(map[token.TokenType]infixParseFn)
	for tok, prec := range precedences {
		switch {
		case prec == ASSIGN:
			p.registerInfix(tok, p.parseAssignExpression)
		case prec < POSTFIX && tok != token.QUESTION:
			p.registerInfix(tok, p.parseInfixExpression)
		}
	}
	p.registerInfix(token.QUESTION, p.parseConditionalExpression)
	p.registerInfix(token.PERIOD, p.parseMemberExpression)
	p.registerInfix(token.ARROW, p.parseMemberExpression)
	p.registerInfix(token.LBRACK, p.parseIndexExpression)
	p.registerInfix(token.LPAREN, p.parseCallExpression)
	p.registerInfix(token.INC, p.parsePostfixUpdate)
	p.registerInfix(token.DEC, p.parsePostfixUpdate)

	// Read two tokens, so curToken and peekToken are both set
	p.nextToken()
	p.nextToken()

	return p
}

func (p *Parser) nextToken() {
	p.curToken = p.peekToken
	p.peekToken = p.l.NextToken()
}

func (p *Parser) curTokenIs(t token.TokenType) bool {
	return p.curToken.Type == t
}

func (p *Parser) peekTokenIs(t token.TokenType) bool {
	return p.peekToken.Type == t
}

func (p *Parser) expectPeek(t token.TokenType) bool {
	if p.peekTokenIs(t) {
		p.nextToken()
		return true
	}
	p.peekError(t)
	return false
}

// Diagnostics returns everything reported so far, in source order of discovery.
func (p *Parser) Diagnostics() []token.Diagnostic {
	return p.diags
}

// Errors returns the messages of error-severity diagnostics.
func (p *Parser) Errors() []string {
	var errs []string
	for _, d := range p.diags {
		if d.Severity == token.SeverityError {
			errs = append(errs, d.Message)
		}
	}
	return errs
}

func (p *Parser) errorAt(span token.Span, format string, args ...any) {
	p.diags = append(p.diags, token.Diagnostic{
		Message:  fmt.Sprintf(format, args...),
		Span:     span,
		Severity: token.SeverityError,
	})
}

func (p *Parser) warnAt(span token.Span, format string, args ...any) {
	p.diags = append(p.diags, token.Diagnostic{
		Message:  fmt.Sprintf(format, args...),
		Span:     span,
		Severity: token.SeverityWarning,
	})
}

func (p *Parser) peekError(t token.TokenType) {
	p.errorAt(p.peekToken.Span, "expected next token to be %s, got %s instead", t, describe(p.peekToken))
}

func (p *Parser) noPrefixParseFnError(tok token.Token) {
	if tok.Type == token.ILLEGAL {
		p.errorAt(tok.Span, "illegal token %q", tok.Literal)
		return
	}
	p.errorAt(tok.Span, "unexpected %s", describe(tok))
}

func describe(tok token.Token) string {
	switch tok.Type {
	case token.EOF:
		return "end of expression"
	case token.IDENT, token.INT, token.FLOAT, token.CHAR, token.STRING, token.ILLEGAL:
		return fmt.Sprintf("%q", tok.Literal)
	}
	return fmt.Sprintf("'%s'", tok.Type)
}

func (p *Parser) bad(tok token.Token) ast.Expression {
	return &ast.BadExpression{Token: tok, Range: tok.Span}
}

// ParseFull parses one expression that must span the whole input.
func (p *Parser) ParseFull() ast.Expression {
	if p.curTokenIs(token.EOF) {
		p.errorAt(p.curToken.Span, "empty expression")
		return p.bad(p.curToken)
	}
	exp := p.parseExpression(LOWEST)
	if !p.peekTokenIs(token.EOF) {
		p.errorAt(p.peekToken.Span, "unexpected %s after expression", describe(p.peekToken))
	}
	return exp
}

func (p *Parser) parseExpression(precedence int) ast.Expression {
	prefix := p.prefixParseFns[p.curToken.Type]
	if prefix == nil {
		p.noPrefixParseFnError(p.curToken)
		return p.bad(p.curToken)
	}
	leftExp := prefix()

	for precedence < p.peekPrecedence() {
		infix := p.infixParseFns[p.peekToken.Type]
		if infix == nil {
			return leftExp
		}
		p.nextToken()
		leftExp = infix(leftExp)
	}

	return leftExp
}

func (p *Parser) peekPrecedence() int {
	if p, ok := precedences[p.peekToken.Type]; ok {
		return p
	}

	return LOWEST
}

func (p *Parser) curPrecedence() int {
	if p, ok := precedences[p.curToken.Type]; ok {
		return p
	}

	return LOWEST
}

func (p *Parser) parseIdentifier() ast.Expression {
	ident := &ast.Identifier{Token: p.curToken, Value: p.curToken.Literal}
	if !token.IsIntrinsicName(ident.Value) {
		return ident
	}

	in, ok := token.LookupIntrinsic(ident.Value)
	if !ok {
		if !p.peekTokenIs(token.LPAREN) {
			p.errorAt(ident.Span(), "unknown intrinsic %s", ident.Value)
		}
		// the call, if any, is reported by parseCallExpression
		return ident
	}

	exp := &ast.IntrinsicExpression{Token: p.curToken, Name: in.Name, Range: ident.Span()}
	if !p.peekTokenIs(token.LPAREN) {
		if !in.Bare {
			p.errorAt(ident.Span(), "intrinsic %s needs an argument list", in.Name)
		}
		return exp
	}
	p.nextToken()
	exp.Arguments = p.parseArguments(in.Name == token.OffsetOf)
	exp.Range.End = p.curToken.Span.End
	if len(exp.Arguments) < in.MinArgs {
		p.warnAt(exp.Range, "intrinsic %s expects at least %d arguments, got %d", in.Name, in.MinArgs, len(exp.Arguments))
	}
	return exp
}

func (p *Parser) parseNumberLiteral() ast.Expression {
	var (
		v   types.Value
		err error
	)
	switch p.curToken.Type {
	case token.INT:
		v, err = types.ParseIntLiteral(p.curToken.Literal)
	case token.FLOAT:
		v, err = types.ParseFloatLiteral(p.curToken.Literal)
	default:
		v, err = types.ParseCharLiteral(p.curToken.Literal)
	}
	if err != nil {
		p.errorAt(p.curToken.Span, "%s", err)
		return p.bad(p.curToken)
	}
	return &ast.NumberLiteral{Token: p.curToken, Value: v, Range: p.curToken.Span}
}

func (p *Parser) parseStringLiteral() ast.Expression {
	s, err := types.UnquoteString(p.curToken.Literal)
	if err != nil {
		p.errorAt(p.curToken.Span, "%s", err)
		return p.bad(p.curToken)
	}
	return &ast.StringLiteral{Token: p.curToken, Value: s, Range: p.curToken.Span}
}

func (p *Parser) parsePrefixExpression() ast.Expression {
	expression := &ast.PrefixExpression{
		Token:    p.curToken,
		Operator: p.curToken.Type,
	}

	p.nextToken()

	expression.Right = p.parseExpression(PREFIX)

	return p.foldPrefix(expression)
}

func (p *Parser) parsePrefixUpdate() ast.Expression {
	exp := &ast.UpdateExpression{Token: p.curToken, Operator: p.curToken.Type, Prefix: true}
	p.nextToken()
	exp.Target = p.parseExpression(PREFIX)
	p.checkLValue(exp.Target, exp.Token)
	return exp
}

func (p *Parser) parsePostfixUpdate(target ast.Expression) ast.Expression {
	exp := &ast.UpdateExpression{Token: p.curToken, Operator: p.curToken.Type, Target: target}
	p.checkLValue(target, exp.Token)
	return exp
}

func (p *Parser) checkLValue(target ast.Expression, op token.Token) {
	if _, bad := target.(*ast.BadExpression); bad {
		return
	}
	if !ast.IsLValue(target) {
		p.errorAt(target.Span(), "cannot apply %s to %s: not assignable", op.Type, target)
	}
}

func (p *Parser) parseInfixExpression(left ast.Expression) ast.Expression {
	expression := &ast.InfixExpression{
		Token:    p.curToken,
		Operator: p.curToken.Type,
		Left:     left,
	}

	precedence := p.curPrecedence()
	p.nextToken()
	expression.Right = p.parseExpression(precedence)

	return p.foldInfix(expression)
}

// parseAssignExpression is right associative: a = b = c is a = (b = c).
func (p *Parser) parseAssignExpression(target ast.Expression) ast.Expression {
	exp := &ast.AssignExpression{Token: p.curToken, Operator: p.curToken.Type, Target: target}
	p.checkLValue(target, exp.Token)
	p.nextToken()
	exp.Value = p.parseExpression(ASSIGN - 1)
	return exp
}

// parseConditionalExpression is right associative in its else branch.
func (p *Parser) parseConditionalExpression(test ast.Expression) ast.Expression {
	exp := &ast.ConditionalExpression{Token: p.curToken, Test: test}
	p.nextToken()
	exp.Then = p.parseExpression(LOWEST)
	if !p.expectPeek(token.COLON) {
		exp.Else = p.bad(p.peekToken)
		return exp
	}
	p.nextToken()
	exp.Else = p.parseExpression(CONDITIONAL - 1)
	return p.foldConditional(exp)
}

func (p *Parser) parseGroupedExpression() ast.Expression {
	p.nextToken()

	exp := p.parseExpression(LOWEST)
	p.expectPeek(token.RPAREN)
	return exp
}

func (p *Parser) parseMemberExpression(object ast.Expression) ast.Expression {
	op := p.curToken
	if !p.expectPeek(token.IDENT) {
		return object
	}
	name := p.curToken
	if in, ok := token.LookupIntrinsic(name.Literal); ok && in.Member {
		return &ast.IntrinsicExpression{
			Token:    name,
			Name:     in.Name,
			Receiver: object,
			Range:    token.Join(object.Span(), name.Span),
		}
	}
	return &ast.MemberExpression{
		Token:  op,
		Object: object,
		Member: &ast.Identifier{Token: name, Value: name.Literal},
	}
}

func (p *Parser) parseIndexExpression(array ast.Expression) ast.Expression {
	exp := &ast.IndexExpression{Token: p.curToken, Array: array}
	p.nextToken()
	exp.Index = p.parseExpression(LOWEST)
	if !p.expectPeek(token.RBRACK) {
		exp.End = exp.Index.Span().End
		return exp
	}
	exp.End = p.curToken.Span.End
	return exp
}

func (p *Parser) parseCallExpression(function ast.Expression) ast.Expression {
	lparen := p.curToken
	ident, ok := function.(*ast.Identifier)
	if !ok {
		p.errorAt(lparen.Span, "cannot call %s", function)
		ident = &ast.Identifier{Token: function.Tok(), Value: function.String()}
	}
	exp := &ast.CallExpression{Token: lparen, Function: ident}
	exp.Arguments = p.parseArguments(false)
	exp.End = p.curToken.Span.End
	if ok {
		if token.IsIntrinsicName(ident.Value) {
			p.errorAt(exp.Span(), "unknown intrinsic %s", ident.Value)
		} else {
			p.errorAt(exp.Span(), "unknown function %s", ident.Value)
		}
	}
	return exp
}

// parseArguments parses a parenthesized argument list with curToken on '('.
// colonPaths allows type:member arguments.
func (p *Parser) parseArguments(colonPaths bool) []ast.Expression {
	args := []ast.Expression{}

	if p.peekTokenIs(token.RPAREN) {
		p.nextToken()
		return args
	}

	p.nextToken()
	args = append(args, p.parseArgument(colonPaths))

	for p.peekTokenIs(token.COMMA) {
		p.nextToken()
		p.nextToken()
		args = append(args, p.parseArgument(colonPaths))
	}

	p.expectPeek(token.RPAREN)
	return args
}

func (p *Parser) parseArgument(colonPaths bool) ast.Expression {
	if colonPaths && p.curTokenIs(token.IDENT) && p.peekTokenIs(token.COLON) {
		return p.parseColonPath()
	}
	return p.parseExpression(LOWEST)
}

// parseColonPath parses scope:member, where member may be dotted.
func (p *Parser) parseColonPath() ast.Expression {
	cp := &ast.ColonPath{Token: p.curToken, Scope: p.curToken.Literal, Range: p.curToken.Span}
	p.nextToken() // ':'
	if !p.expectPeek(token.IDENT) {
		return cp
	}
	parts := []string{p.curToken.Literal}
	cp.Range.End = p.curToken.Span.End
	for p.peekTokenIs(token.PERIOD) {
		p.nextToken()
		if !p.expectPeek(token.IDENT) {
			break
		}
		parts = append(parts, p.curToken.Literal)
		cp.Range.End = p.curToken.Span.End
	}
	cp.Member = strings.Join(parts, ".")
	return cp
}

func (p *Parser) registerPrefix(tokenType token.TokenType, fn prefixParseFn) {
	p.prefixParseFns[tokenType] = fn
}

func (p *Parser) registerInfix(tokenType token.TokenType, fn infixParseFn) {
	p.infixParseFns[tokenType] = fn
}
