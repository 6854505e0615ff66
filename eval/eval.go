package eval

import (
	"context"
	"fmt"

	"github.com/ethereum/go-ethereum/log"
	"github.com/scvdview/scvd/ast"
	"github.com/scvdview/scvd/host"
	"github.com/scvdview/scvd/parser"
	"github.com/scvdview/scvd/token"
	"github.com/scvdview/scvd/types"
)

// EvalContext binds one evaluation to a host and to the reference the
// expression is evaluated for. Identifiers are looked up as members of
// Current first and as global symbols second.
type EvalContext struct {
	Host    host.DataHost
	Current *host.RefContainer
}

// Error is an ordinary evaluation failure. It is reported to the host and
// the evaluation yields an absent value.
type Error struct {
	Span token.Span
	Msg  string
}

func (e *Error) Error() string {
	return fmt.Sprintf("%d-%d: %s", e.Span.Start, e.Span.End, e.Msg)
}

// ArityError is returned when an intrinsic is called with fewer arguments
// than it requires. It aborts the evaluation.
type ArityError struct {
	Name    string
	MinArgs int
	Got     int
}

func (e *ArityError) Error() string {
	return fmt.Sprintf("intrinsic %s requires at least %d arguments, got %d", e.Name, e.MinArgs, e.Got)
}

type Evaluator struct {
	log log.Logger
}

func New() *Evaluator {
	return &Evaluator{log: log.New("module", "eval")}
}

// WithLogger returns a copy of e logging to l.
func (e *Evaluator) WithLogger(l log.Logger) *Evaluator {
	return &Evaluator{log: l}
}

// defaultEvaluator logs through whatever root logger is current.
var defaultEvaluator = &Evaluator{}

func (e *Evaluator) logger() log.Logger {
	if e.log != nil {
		return e.log
	}
	return log.Root().With("module", "eval")
}

// Evaluate evaluates a parse result with the default evaluator.
func Evaluate(ctx context.Context, ec *EvalContext, res *parser.ParseResult, override *host.RefContainer) (types.Value, error) {
	return defaultEvaluator.Evaluate(ctx, ec, res, override)
}

// EvaluateExpr evaluates a bare expression with the default evaluator.
func EvaluateExpr(ctx context.Context, ec *EvalContext, expr ast.Expression, override *host.RefContainer) (types.Value, error) {
	return defaultEvaluator.EvaluateExpr(ctx, ec, expr, override)
}

// Evaluate evaluates res. Constant expressions are answered without calling
// the host. When override is non-nil it replaces ec.Current for this call.
// The error is non-nil only for hard failures such as *ArityError;
// everything else yields an absent value.
func (e *Evaluator) Evaluate(ctx context.Context, ec *EvalContext, res *parser.ParseResult, override *host.RefContainer) (types.Value, error) {
	if res.IsConst() {
		return res.ConstValue, nil
	}
	return e.EvaluateExpr(ctx, ec, res.AST, override)
}

func (e *Evaluator) EvaluateExpr(ctx context.Context, ec *EvalContext, expr ast.Expression, override *host.RefContainer) (types.Value, error) {
	s := &state{ctx: ctx, e: e, host: ec.Host, current: ec.Current}
	if s.host == nil {
		s.host = host.NopHost{}
	}
	if override != nil {
		s.current = override
	}
	v, err := s.eval(expr)
	if err != nil {
		e.logger().Warn("Evaluation aborted", "expr", expr, "err", err)
		return types.Absent, err
	}
	return v, nil
}

// state is the per-call evaluation state. last is the live container: the
// reference of the most recent scalar read.
type state struct {
	ctx     context.Context
	e       *Evaluator
	host    host.DataHost
	current *host.RefContainer
	last    *host.RefContainer
}

func (s *state) fail(n ast.Node, format string, args ...any) (types.Value, error) {
	err := &Error{Span: n.Span(), Msg: fmt.Sprintf(format, args...)}
	s.e.logger().Debug("Evaluation failed", "expr", n, "err", err.Msg)
	s.host.ReportError(err)
	return types.Absent, nil
}

func (s *state) eval(n ast.Expression) (types.Value, error) {
	if err := s.ctx.Err(); err != nil {
		return types.Absent, err
	}

	switch n := n.(type) {
	case *ast.NumberLiteral:
		return n.Value, nil
	case *ast.StringLiteral:
		return types.NewString(n.Value), nil
	case *ast.Identifier, *ast.MemberExpression, *ast.IndexExpression, *ast.ColonPath:
		return s.read(n)
	case *ast.PrefixExpression:
		return s.evalPrefix(n)
	case *ast.InfixExpression:
		return s.evalInfix(n)
	case *ast.ConditionalExpression:
		return s.evalConditional(n)
	case *ast.AssignExpression:
		return s.evalAssign(n)
	case *ast.UpdateExpression:
		return s.evalUpdate(n)
	case *ast.IntrinsicExpression:
		return s.evalIntrinsic(n)
	case *ast.PrintfExpression:
		return s.evalPrintf(n)
	case *ast.CallExpression:
		return s.fail(n, "unknown function %s", n.Function.Value)
	case *ast.BadExpression:
		return s.fail(n, "expression did not parse")
	case nil:
		return types.Absent, nil
	}
	return s.fail(n, "cannot evaluate %T", n)
}

func (s *state) read(n ast.Expression) (types.Value, error) {
	ref, ok, err := s.ref(n, false)
	if err != nil || !ok {
		return types.Absent, err
	}
	v, ok := s.host.ReadValue(s.ctx, ref)
	if !ok {
		s.last = nil
		return s.fail(n, "cannot read %s", n)
	}
	s.last = ref
	return v, nil
}

// ref resolves a location expression to a container. ok is false after a
// reported resolution failure.
func (s *state) ref(n ast.Expression, forWrite bool) (*host.RefContainer, bool, error) {
	switch n := n.(type) {
	case *ast.Identifier:
		if s.current != nil {
			if r, ok := s.host.ResolveMember(s.ctx, s.current, n.Value); ok {
				return s.leaf(r), true, nil
			}
		}
		r, ok := s.host.ResolveSymbol(s.ctx, n.Value, forWrite)
		if !ok {
			_, err := s.fail(n, "unresolved symbol %s", n.Value)
			return nil, false, err
		}
		return s.leaf(r), true, nil

	case *ast.MemberExpression:
		parent, ok, err := s.ref(n.Object, forWrite)
		if err != nil || !ok {
			return nil, false, err
		}
		r, ok := s.host.ResolveMember(s.ctx, parent, n.Member.Value)
		if !ok {
			_, err := s.fail(n, "%s has no member %s", n.Object, n.Member.Value)
			return nil, false, err
		}
		return s.leaf(r), true, nil

	case *ast.IndexExpression:
		array, ok, err := s.ref(n.Array, forWrite)
		if err != nil || !ok {
			return nil, false, err
		}
		iv, err := s.eval(n.Index)
		if err != nil {
			return nil, false, err
		}
		idx, ok := iv.Number()
		if !ok || idx < 0 || idx != float64(int64(idx)) {
			_, err := s.fail(n.Index, "invalid index %s", iv)
			return nil, false, err
		}
		stride, hasStride := s.host.ElementStride(s.ctx, array)
		r, ok := s.host.ElementRef(s.ctx, array, int(idx))
		if !ok {
			_, err := s.fail(n, "index %d out of range for %s", int(idx), n.Array)
			return nil, false, err
		}
		if r.WidthBytes == 0 && hasStride {
			r.WidthBytes = stride
		}
		return s.leaf(r), true, nil

	case *ast.ColonPath:
		r, ok := s.host.ResolveColonPath(s.ctx, n.Scope, n.Member)
		if !ok {
			_, err := s.fail(n, "unresolved path %s", n)
			return nil, false, err
		}
		return s.leaf(r), true, nil
	}

	_, err := s.fail(n, "%s is not a reference", n)
	return nil, false, err
}

// leaf fills in the byte width of a container when the host left it open.
func (s *state) leaf(r *host.RefContainer) *host.RefContainer {
	if r.WidthBytes == 0 {
		if w, ok := s.host.ByteWidth(s.ctx, r); ok {
			r.WidthBytes = w
		}
	}
	return r
}

func (s *state) evalPrefix(n *ast.PrefixExpression) (types.Value, error) {
	v, err := s.eval(n.Right)
	if err != nil || !v.IsValid() {
		return types.Absent, err
	}
	res, ok := types.Unary(n.Operator, v)
	if !ok {
		return s.fail(n, "operator %s not defined on %s", n.Operator, v.Dump())
	}
	return res, nil
}

func (s *state) evalInfix(n *ast.InfixExpression) (types.Value, error) {
	left, err := s.eval(n.Left)
	if err != nil || !left.IsValid() {
		return types.Absent, err
	}

	if n.Operator == token.LAND || n.Operator == token.LOR {
		t, _ := left.Truthy()
		if t == (n.Operator == token.LOR) {
			return types.Bool(t), nil
		}
		right, err := s.eval(n.Right)
		if err != nil || !right.IsValid() {
			return types.Absent, err
		}
		t, _ = right.Truthy()
		return types.Bool(t), nil
	}

	right, err := s.eval(n.Right)
	if err != nil || !right.IsValid() {
		return types.Absent, err
	}
	res, ok := types.Binary(n.Operator, left, right)
	if !ok {
		return s.fail(n, "%s %s %s has no value", left.Dump(), n.Operator, right.Dump())
	}
	return res, nil
}

func (s *state) evalConditional(n *ast.ConditionalExpression) (types.Value, error) {
	test, err := s.eval(n.Test)
	if err != nil || !test.IsValid() {
		return types.Absent, err
	}
	if t, _ := test.Truthy(); t {
		return s.eval(n.Then)
	}
	return s.eval(n.Else)
}

func (s *state) evalAssign(n *ast.AssignExpression) (types.Value, error) {
	v, err := s.eval(n.Value)
	if err != nil || !v.IsValid() {
		return types.Absent, err
	}
	ref, ok, err := s.ref(n.Target, true)
	if err != nil || !ok {
		return types.Absent, err
	}
	if op, ok := token.BinaryOf(n.Operator); ok {
		old, ok := s.host.ReadValue(s.ctx, ref)
		if !ok {
			return s.fail(n.Target, "cannot read %s", n.Target)
		}
		res, ok := types.Binary(op, old, v)
		if !ok {
			return s.fail(n, "%s %s %s has no value", old.Dump(), op, v.Dump())
		}
		v = res
	}
	return s.write(n.Target, ref, v)
}

// evalUpdate handles ++ and --. Both placements yield the updated value.
// The target is resolved once, so index side effects run once.
func (s *state) evalUpdate(n *ast.UpdateExpression) (types.Value, error) {
	ref, ok, err := s.ref(n.Target, true)
	if err != nil || !ok {
		return types.Absent, err
	}
	old, ok := s.host.ReadValue(s.ctx, ref)
	if !ok {
		return s.fail(n.Target, "cannot read %s", n.Target)
	}
	one := types.NewInt(1, 32)
	if old.IsWide() {
		one = types.WideFromInt64(1)
	}
	op := token.ADD
	if n.Operator == token.DEC {
		op = token.SUB
	}
	v, ok := types.Binary(op, old, one)
	if !ok {
		return s.fail(n, "operator %s not defined on %s", n.Operator, old.Dump())
	}
	return s.write(n.Target, ref, v)
}

func (s *state) write(target ast.Expression, ref *host.RefContainer, v types.Value) (types.Value, error) {
	written, ok := s.host.WriteValue(s.ctx, ref, v)
	if !ok {
		return s.fail(target, "cannot write %s", target)
	}
	s.last = ref
	if !written.IsValid() {
		return v, nil
	}
	return written, nil
}
