package ast

import (
	"bytes"
	"strings"

	"github.com/scvdview/scvd/token"
	"github.com/scvdview/scvd/types"
)

// The base Node interface
type Node interface {
	Tok() token.Token
	Span() token.Span
	String() string
}

// All expression nodes implement this
type Expression interface {
	Node
	expressionNode()
}

func printVec(a []Expression) string {
	parts := make([]string, 0, len(a))
	for _, e := range a {
		parts = append(parts, e.String())
	}
	return strings.Join(parts, ", ")
}

// BadExpression stands in for source that could not be parsed, so the rest
// of the tree survives.
type BadExpression struct {
	Token token.Token
	Range token.Span
}

func (be *BadExpression) expressionNode()  {}
func (be *BadExpression) Tok() token.Token { return be.Token }
func (be *BadExpression) Span() token.Span { return be.Range }
func (be *BadExpression) String() string   { return "<bad>" }

type Identifier struct {
	Token token.Token // the token.IDENT token
	Value string
}

func (i *Identifier) expressionNode()  {}
func (i *Identifier) Tok() token.Token { return i.Token }
func (i *Identifier) Span() token.Span { return i.Token.Span }
func (i *Identifier) String() string   { return i.Value }

// NumberLiteral holds an integer, character, or floating literal already
// typed the way the evaluator will see it. Folded sub-expressions are
// NumberLiterals too, spanning the source they replaced.
type NumberLiteral struct {
	Token token.Token
	Value types.Value
	Range token.Span
}

func (nl *NumberLiteral) expressionNode()  {}
func (nl *NumberLiteral) Tok() token.Token { return nl.Token }
func (nl *NumberLiteral) Span() token.Span { return nl.Range }
func (nl *NumberLiteral) String() string   { return nl.Value.String() }

type StringLiteral struct {
	Token token.Token
	Value string
	Range token.Span
}

func (sl *StringLiteral) expressionNode()  {}
func (sl *StringLiteral) Tok() token.Token { return sl.Token }
func (sl *StringLiteral) Span() token.Span { return sl.Range }
func (sl *StringLiteral) String() string   { return types.Quote(sl.Value) }

// MemberExpression is a.b (or a->b).
type MemberExpression struct {
	Token  token.Token // the '.' or '->' token
	Object Expression
	Member *Identifier
}

func (me *MemberExpression) expressionNode()  {}
func (me *MemberExpression) Tok() token.Token { return me.Token }
func (me *MemberExpression) Span() token.Span { return token.Join(me.Object.Span(), me.Member.Span()) }
func (me *MemberExpression) String() string {
	return me.Object.String() + "." + me.Member.String()
}

// IndexExpression is a[i].
type IndexExpression struct {
	Token token.Token // the '[' token
	Array Expression
	Index Expression
	End   int // offset just past ']'
}

func (ie *IndexExpression) expressionNode()  {}
func (ie *IndexExpression) Tok() token.Token { return ie.Token }
func (ie *IndexExpression) Span() token.Span {
	return token.Span{Start: ie.Array.Span().Start, End: ie.End}
}
func (ie *IndexExpression) String() string {
	return ie.Array.String() + "[" + ie.Index.String() + "]"
}

type PrefixExpression struct {
	Token    token.Token // The prefix token, e.g. !
	Operator token.TokenType
	Right    Expression
}

func (pe *PrefixExpression) expressionNode()  {}
func (pe *PrefixExpression) Tok() token.Token { return pe.Token }
func (pe *PrefixExpression) Span() token.Span { return token.Join(pe.Token.Span, pe.Right.Span()) }
func (pe *PrefixExpression) String() string {
	var out bytes.Buffer

	out.WriteString("(")
	out.WriteString(pe.Operator.String())
	out.WriteString(pe.Right.String())
	out.WriteString(")")

	return out.String()
}

type InfixExpression struct {
	Token    token.Token // The operator token, e.g. +
	Left     Expression
	Operator token.TokenType
	Right    Expression
}

func (ie *InfixExpression) expressionNode()  {}
func (ie *InfixExpression) Tok() token.Token { return ie.Token }
func (ie *InfixExpression) Span() token.Span { return token.Join(ie.Left.Span(), ie.Right.Span()) }
func (ie *InfixExpression) String() string {
	var out bytes.Buffer

	out.WriteString("(")
	out.WriteString(ie.Left.String())
	out.WriteString(" " + ie.Operator.String() + " ")
	out.WriteString(ie.Right.String())
	out.WriteString(")")

	return out.String()
}

// UpdateExpression is ++x, x++, --x or x--. Prefix records where the
// operator was written; both forms yield the updated value.
type UpdateExpression struct {
	Token    token.Token // the ++ or -- token
	Operator token.TokenType
	Prefix   bool
	Target   Expression
}

func (ue *UpdateExpression) expressionNode()  {}
func (ue *UpdateExpression) Tok() token.Token { return ue.Token }
func (ue *UpdateExpression) Span() token.Span { return token.Join(ue.Token.Span, ue.Target.Span()) }
func (ue *UpdateExpression) String() string {
	if ue.Prefix {
		return "(" + ue.Operator.String() + ue.Target.String() + ")"
	}
	return "(" + ue.Target.String() + ue.Operator.String() + ")"
}

// AssignExpression is x = v or a compound assignment such as x += v.
type AssignExpression struct {
	Token    token.Token // the assignment operator token
	Operator token.TokenType
	Target   Expression
	Value    Expression
}

func (ae *AssignExpression) expressionNode()  {}
func (ae *AssignExpression) Tok() token.Token { return ae.Token }
func (ae *AssignExpression) Span() token.Span { return token.Join(ae.Target.Span(), ae.Value.Span()) }
func (ae *AssignExpression) String() string {
	return "(" + ae.Target.String() + " " + ae.Operator.String() + " " + ae.Value.String() + ")"
}

type ConditionalExpression struct {
	Token token.Token // the '?' token
	Test  Expression
	Then  Expression
	Else  Expression
}

func (ce *ConditionalExpression) expressionNode()  {}
func (ce *ConditionalExpression) Tok() token.Token { return ce.Token }
func (ce *ConditionalExpression) Span() token.Span { return token.Join(ce.Test.Span(), ce.Else.Span()) }
func (ce *ConditionalExpression) String() string {
	return "(" + ce.Test.String() + " ? " + ce.Then.String() + " : " + ce.Else.String() + ")"
}

// CallExpression is a call of a name that is not a known intrinsic. The
// evaluator reports it as unresolved; it exists so diagnostics can point at it.
type CallExpression struct {
	Token     token.Token // The '(' token
	Function  *Identifier
	Arguments []Expression
	End       int
}

func (ce *CallExpression) expressionNode()  {}
func (ce *CallExpression) Tok() token.Token { return ce.Token }
func (ce *CallExpression) Span() token.Span {
	return token.Span{Start: ce.Function.Span().Start, End: ce.End}
}
func (ce *CallExpression) String() string {
	return ce.Function.String() + "(" + printVec(ce.Arguments) + ")"
}

// IntrinsicExpression is an evaluation point resolved by the evaluator
// itself: __Name(args...), __Running, or the pseudo-members x._count and
// x._addr (Receiver set, no Arguments).
type IntrinsicExpression struct {
	Token     token.Token // the intrinsic name token
	Name      string
	Receiver  Expression
	Arguments []Expression
	Range     token.Span
}

func (ie *IntrinsicExpression) expressionNode()  {}
func (ie *IntrinsicExpression) Tok() token.Token { return ie.Token }
func (ie *IntrinsicExpression) Span() token.Span { return ie.Range }
func (ie *IntrinsicExpression) String() string {
	if ie.Receiver != nil {
		return ie.Receiver.String() + "." + ie.Name
	}
	return ie.Name + "(" + printVec(ie.Arguments) + ")"
}

// ColonPath is the "type:member" argument form accepted by __Offset_of.
type ColonPath struct {
	Token  token.Token
	Scope  string
	Member string
	Range  token.Span
}

func (cp *ColonPath) expressionNode()  {}
func (cp *ColonPath) Tok() token.Token { return cp.Token }
func (cp *ColonPath) Span() token.Span { return cp.Range }
func (cp *ColonPath) String() string   { return cp.Scope + ":" + cp.Member }

// PrintfSegment is literal text (Value nil) or a %<directive>[value] marker.
type PrintfSegment struct {
	Text      string
	Directive rune
	Value     Expression
	Range     token.Span
}

// PrintfExpression is a whole printf-style string.
type PrintfExpression struct {
	Token    token.Token
	Segments []PrintfSegment
	Range    token.Span
}

func (pe *PrintfExpression) expressionNode()  {}
func (pe *PrintfExpression) Tok() token.Token { return pe.Token }
func (pe *PrintfExpression) Span() token.Span { return pe.Range }
func (pe *PrintfExpression) String() string {
	var out strings.Builder
	for _, s := range pe.Segments {
		if s.Value == nil {
			out.WriteString(strings.ReplaceAll(s.Text, "%", "%%"))
			continue
		}
		out.WriteByte('%')
		out.WriteRune(s.Directive)
		out.WriteByte('[')
		out.WriteString(s.Value.String())
		out.WriteByte(']')
	}
	return out.String()
}
