package eval

import (
	"github.com/scvdview/scvd/ast"
	"github.com/scvdview/scvd/token"
	"github.com/scvdview/scvd/types"
)

type intrinsicFn func(s *state, n *ast.IntrinsicExpression) (types.Value, bool, error)

var intrinsics map[string]intrinsicFn

func init() {
	intrinsics = map[string]intrinsicFn{
		token.CalcMemUsed:  calcMemUsed,
		token.FindSymbol:   findSymbol,
		token.GetRegVal:    getRegVal,
		token.OffsetOf:     offsetOf,
		token.SizeOf:       sizeOf,
		token.SymbolExists: symbolExists,
		token.Running:      running,
		token.Count:        count,
		token.Addr:         addr,
	}
}

func (s *state) evalIntrinsic(n *ast.IntrinsicExpression) (types.Value, error) {
	info, known := token.LookupIntrinsic(n.Name)
	fn, ok := intrinsics[n.Name]
	if !known || !ok {
		return s.fail(n, "unknown intrinsic %s", n.Name)
	}
	if !info.Member && len(n.Arguments) < info.MinArgs {
		return types.Absent, &ArityError{Name: n.Name, MinArgs: info.MinArgs, Got: len(n.Arguments)}
	}

	v, ok, err := fn(s, n)
	// the host may have read through its own containers
	s.last = nil
	if err != nil {
		return types.Absent, err
	}
	if !ok {
		return s.fail(n, "%s has no value", n)
	}
	return v, nil
}

// nameArg returns a symbol or register name argument. Bare identifiers are
// names, not reads.
func (s *state) nameArg(arg ast.Expression) (string, bool, error) {
	switch a := arg.(type) {
	case *ast.Identifier:
		return a.Value, true, nil
	case *ast.StringLiteral:
		return a.Value, true, nil
	}
	v, err := s.eval(arg)
	if err != nil || !v.IsString() {
		return "", false, err
	}
	return v.Str(), true, nil
}

func calcMemUsed(s *state, n *ast.IntrinsicExpression) (types.Value, bool, error) {
	var args [4]uint64
	for i := range args {
		v, err := s.eval(n.Arguments[i])
		if err != nil || !v.IsValid() || v.IsString() {
			return types.Absent, false, err
		}
		args[i] = v.Uint64()
	}
	v, ok := s.host.CalcMemUsed(s.ctx, args[0], args[1], args[2], args[3])
	return v, ok, nil
}

func findSymbol(s *state, n *ast.IntrinsicExpression) (types.Value, bool, error) {
	name, ok, err := s.nameArg(n.Arguments[0])
	if err != nil || !ok {
		return types.Absent, false, err
	}
	v, ok := s.host.FindSymbol(s.ctx, name)
	return v, ok, nil
}

func getRegVal(s *state, n *ast.IntrinsicExpression) (types.Value, bool, error) {
	name, ok, err := s.nameArg(n.Arguments[0])
	if err != nil || !ok {
		return types.Absent, false, err
	}
	v, ok := s.host.GetRegVal(s.ctx, name)
	return v, ok, nil
}

func symbolExists(s *state, n *ast.IntrinsicExpression) (types.Value, bool, error) {
	name, ok, err := s.nameArg(n.Arguments[0])
	if err != nil || !ok {
		return types.Absent, false, err
	}
	v, ok := s.host.SymbolExists(s.ctx, name)
	return v, ok, nil
}

func offsetOf(s *state, n *ast.IntrinsicExpression) (types.Value, bool, error) {
	ref, ok, err := s.ref(n.Arguments[0], false)
	if err != nil || !ok {
		return types.Absent, false, err
	}
	v, ok := s.host.OffsetOf(s.ctx, ref)
	return v, ok, nil
}

func sizeOf(s *state, n *ast.IntrinsicExpression) (types.Value, bool, error) {
	arg := n.Arguments[0]
	if lit, isName := arg.(*ast.StringLiteral); isName {
		arg = &ast.Identifier{Token: lit.Token, Value: lit.Value}
	}
	ref, ok, err := s.ref(arg, false)
	if err != nil || !ok {
		return types.Absent, false, err
	}
	v, ok := s.host.SizeOf(s.ctx, ref)
	return v, ok, nil
}

func running(s *state, _ *ast.IntrinsicExpression) (types.Value, bool, error) {
	v, ok := s.host.Running(s.ctx)
	return v, ok, nil
}

func count(s *state, n *ast.IntrinsicExpression) (types.Value, bool, error) {
	ref, ok, err := s.ref(n.Receiver, false)
	if err != nil || !ok {
		return types.Absent, false, err
	}
	v, ok := s.host.Count(s.ctx, ref)
	return v, ok, nil
}

func addr(s *state, n *ast.IntrinsicExpression) (types.Value, bool, error) {
	ref, ok, err := s.ref(n.Receiver, false)
	if err != nil || !ok {
		return types.Absent, false, err
	}
	v, ok := s.host.Addr(s.ctx, ref)
	return v, ok, nil
}
