package expr

import (
	"github.com/trylock/viewer-sub002/internal/functions"
	"github.com/trylock/viewer-sub002/internal/value"
)

// Fold returns a tree equivalent to n with constant subtrees replaced by
// Constant nodes. n is not modified; unchanged subtrees are shared.
//
// Folded calls run once, with no entity. A call that raises a runtime error
// is left in the tree so the error is reported when the query runs, and only
// if evaluation actually reaches it.
func Fold(n Node, rt *functions.Runtime) Node {
	f := folder{rt: rt}
	return f.fold(n)
}

type folder struct {
	rt *functions.Runtime
}

func (f *folder) fold(n Node) Node {
	switch n := n.(type) {
	case *Unary:
		operand := f.fold(n.Operand)
		if c, ok := operand.(*Constant); ok {
			if n.Op == OpNot {
				return NewConstant(n.Position, not(c.Value))
			}
			if v, ok := f.call(n.Op, n.Position, c.Value); ok {
				return NewConstant(n.Position, v)
			}
		}
		if operand == n.Operand {
			return n
		}
		return NewUnary(n.Position, n.Op, operand)

	case *Binary:
		left := f.fold(n.Left)
		lc, lok := left.(*Constant)
		// The right operand of a decided and/or is never evaluated.
		switch {
		case n.Op == OpAnd && lok && lc.Value.IsNull():
			return lc
		case n.Op == OpOr && lok && !lc.Value.IsNull():
			return lc
		}
		right := f.fold(n.Right)
		rc, rok := right.(*Constant)
		switch n.Op {
		case OpAnd:
			switch {
			case lok && rok && rc.Value.IsNull():
				return rc
			case lok && rok:
				if v, ok := f.call(functions.OpAnd, n.Position, lc.Value, rc.Value); ok {
					return NewConstant(n.Position, v)
				}
			}
		case OpOr:
			if lok {
				return right
			}
		default:
			if lok && rok {
				if v, ok := f.call(n.Op, n.Position, lc.Value, rc.Value); ok {
					return NewConstant(n.Position, v)
				}
			}
		}
		if left == n.Left && right == n.Right {
			return n
		}
		return NewBinary(n.Position, n.Op, left, right)

	case *Call:
		args := make([]Node, len(n.Args))
		vals := make([]value.Value, len(n.Args))
		constant, changed := true, false
		for i, a := range n.Args {
			args[i] = f.fold(a)
			changed = changed || args[i] != a
			if c, ok := args[i].(*Constant); ok {
				vals[i] = c.Value
			} else {
				constant = false
			}
		}
		if constant && !f.rt.Registry().UsesEntity(n.Name) {
			if v, ok := f.call(n.Name, n.Position, vals...); ok {
				return NewConstant(n.Position, v)
			}
		}
		if !changed {
			return n
		}
		return NewCall(n.Position, n.Name, args...)

	default:
		return n
	}
}

// call evaluates a constant call. ok is false when the call raised an error.
func (f *folder) call(name string, pos Position, args ...value.Value) (v value.Value, ok bool) {
	failed := false
	sink := functions.ErrorSinkFunc(func(int, int, string) { failed = true })
	v = f.rt.Call(name, sink, pos.Line, pos.Column, args...)
	return v, !failed
}
