package ast

// Children returns the sub-expressions of n in source order. Member names and
// colon paths are part of their node, not children.
func Children(n Node) []Expression {
	switch n := n.(type) {
	case *MemberExpression:
		return []Expression{n.Object}
	case *IndexExpression:
		return []Expression{n.Array, n.Index}
	case *PrefixExpression:
		return []Expression{n.Right}
	case *InfixExpression:
		return []Expression{n.Left, n.Right}
	case *UpdateExpression:
		return []Expression{n.Target}
	case *AssignExpression:
		return []Expression{n.Target, n.Value}
	case *ConditionalExpression:
		return []Expression{n.Test, n.Then, n.Else}
	case *CallExpression:
		return n.Arguments
	case *IntrinsicExpression:
		if n.Receiver != nil {
			return []Expression{n.Receiver}
		}
		return n.Arguments
	case *PrintfExpression:
		var out []Expression
		for _, s := range n.Segments {
			if s.Value != nil {
				out = append(out, s.Value)
			}
		}
		return out
	}
	return nil
}

// Inspect traverses the tree rooted at n depth first, calling f for each
// node. If f returns false the node's children are skipped.
func Inspect(n Node, f func(Node) bool) {
	if n == nil || !f(n) {
		return
	}
	for _, c := range Children(n) {
		if c != nil {
			Inspect(c, f)
		}
	}
}

// IsLValue reports whether e names a location that can be written.
func IsLValue(e Expression) bool {
	switch e.(type) {
	case *Identifier, *MemberExpression, *IndexExpression:
		return true
	}
	return false
}
