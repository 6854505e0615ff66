package eval

import (
	"fmt"
	"net"
	"net/netip"
	"strings"

	"github.com/scvdview/scvd/ast"
	"github.com/scvdview/scvd/host"
	"github.com/scvdview/scvd/types"
)

// Unknown is rendered for a value segment that has no value.
const Unknown = "<unknown>"

func (s *state) evalPrintf(n *ast.PrintfExpression) (types.Value, error) {
	segs := make([]host.PrintfValue, 0, len(n.Segments))
	for _, seg := range n.Segments {
		if seg.Value == nil {
			segs = append(segs, host.PrintfValue{Text: seg.Text})
			continue
		}
		s.last = nil
		v, err := s.eval(seg.Value)
		if err != nil {
			return types.Absent, err
		}
		ref := s.last
		if ref == nil {
			ref = s.recoverRef(seg.Value)
		}
		v = Coerce(seg.Directive, v)
		if seg.Directive == 'E' && ref != nil {
			v = s.asTypeOf(ref, v)
		}
		segs = append(segs, host.PrintfValue{
			Directive: seg.Directive,
			Value:     v,
			Ref:       ref,
		})
	}

	if out, ok := s.host.FormatPrintf(s.ctx, segs); ok {
		return types.NewString(out), nil
	}
	return types.NewString(FormatSegments(segs)), nil
}

// asTypeOf converts v to the scalar type of ref, so that an enumerator is
// looked up with the signedness and width of the symbol it names.
func (s *state) asTypeOf(ref *host.RefContainer, v types.Value) types.Value {
	sc, ok := s.host.ScalarType(s.ctx, ref)
	if !ok || !v.IsValid() {
		return v
	}
	if c, ok := types.Convert(v, sc); ok {
		return c
	}
	return v
}

// recoverRef re-derives the reference a value segment is about when the live
// container was cleared. It walks down the access chain and settles for the
// nearest ancestor that still resolves. Failures are not reported.
func (s *state) recoverRef(n ast.Expression) *host.RefContainer {
	switch n := n.(type) {
	case *ast.Identifier:
		if s.current != nil {
			if r, ok := s.host.ResolveMember(s.ctx, s.current, n.Value); ok {
				return r
			}
		}
		if r, ok := s.host.ResolveSymbol(s.ctx, n.Value, false); ok {
			return r
		}
	case *ast.MemberExpression:
		parent := s.recoverRef(n.Object)
		if parent == nil {
			return nil
		}
		if r, ok := s.host.ResolveMember(s.ctx, parent, n.Member.Value); ok {
			return r
		}
		return parent
	case *ast.IndexExpression:
		array := s.recoverRef(n.Array)
		if array == nil {
			return nil
		}
		if lit, ok := n.Index.(*ast.NumberLiteral); ok {
			if r, ok := s.host.ElementRef(s.ctx, array, int(lit.Value.Int64())); ok {
				return r
			}
		}
		return array
	case *ast.ColonPath:
		if r, ok := s.host.ResolveColonPath(s.ctx, n.Scope, n.Member); ok {
			return r
		}
	case *ast.IntrinsicExpression:
		if n.Receiver != nil {
			return s.recoverRef(n.Receiver)
		}
	case *ast.PrefixExpression:
		return s.recoverRef(n.Right)
	case *ast.InfixExpression:
		if r := s.recoverRef(n.Left); r != nil {
			return r
		}
		return s.recoverRef(n.Right)
	case *ast.ConditionalExpression:
		if r := s.recoverRef(n.Then); r != nil {
			return r
		}
		return s.recoverRef(n.Else)
	case *ast.AssignExpression:
		return s.recoverRef(n.Target)
	case *ast.UpdateExpression:
		return s.recoverRef(n.Target)
	}
	return nil
}

// Coerce converts v to the representation a directive prints: %d signed,
// %u %x %X unsigned. Other directives pass v through.
func Coerce(directive rune, v types.Value) types.Value {
	if !v.IsValid() {
		return v
	}
	switch directive {
	case 'd':
		return toSign(v, types.IntKind)
	case 'u', 'x', 'X':
		return toSign(v, types.UintKind)
	}
	return v
}

func toSign(v types.Value, kind types.ScalarKind) types.Value {
	switch v.Kind() {
	case types.Int, types.Uint, types.Wide:
		sc := v.Scalar()
		sc.Kind = kind
		sc.Bits = max(sc.Bits, 32)
		if c, ok := types.Convert(v, sc); ok {
			return c
		}
	case types.Float:
		if c, ok := types.Convert(v, types.Scalar{Kind: kind, Bits: 32}); ok {
			return c
		}
	}
	return v
}

// FormatSegments composes printf segments without host support.
func FormatSegments(segs []host.PrintfValue) string {
	var out strings.Builder
	for _, seg := range segs {
		if seg.Directive == 0 {
			out.WriteString(seg.Text)
			continue
		}
		out.WriteString(FormatValue(seg.Directive, seg.Value))
	}
	return out.String()
}

// FormatValue renders one value per its directive.
func FormatValue(directive rune, v types.Value) string {
	if !v.IsValid() {
		return Unknown
	}
	switch directive {
	case 'x', 'X':
		var s string
		if v.IsWide() {
			s = strings.TrimPrefix(v.Wide().Hex(), "0x")
		} else if v.IsInteger() {
			s = fmt.Sprintf("%x", v.Uint64())
		} else {
			return v.String()
		}
		if directive == 'X' {
			s = strings.ToUpper(s)
		}
		return s
	case 'I':
		if b, ok := addrBytes(v, 4); ok {
			return netip.AddrFrom4([4]byte(b)).String()
		}
	case 'J':
		if b, ok := addrBytes(v, 16); ok {
			return netip.AddrFrom16([16]byte(b)).String()
		}
	case 'M':
		if b, ok := addrBytes(v, 6); ok {
			return strings.ToUpper(strings.ReplaceAll(net.HardwareAddr(b).String(), ":", "-"))
		}
	}
	return v.String()
}

// addrBytes returns the n bytes of an address value in memory order.
func addrBytes(v types.Value, n int) ([]byte, bool) {
	switch v.Kind() {
	case types.Bytes:
		if len(v.Raw()) < n {
			return nil, false
		}
		return v.Raw()[:n], true
	case types.Int, types.Uint, types.Wide:
		if n > 8 {
			return nil, false
		}
		return types.Encode(v, n)
	}
	return nil, false
}
