package compiler

import (
	"github.com/trylock/viewer-sub002/internal/expr"
	"github.com/trylock/viewer-sub002/internal/functions"
	"github.com/trylock/viewer-sub002/internal/value"
)

// check reports calls that fail for every entity: unknown names, arities
// no overload has, and resolution failures when all argument types are
// known before evaluation.
func (cc *compilation) check(n expr.Node, ref expr.Position) {
	cc.infer(n, ref)
}

// infer returns the static type of n, if it has one. Attribute values have
// no static type, and neither do AND and OR, which yield one of their
// operands.
func (cc *compilation) infer(n expr.Node, ref expr.Position) (value.TypeID, bool) {
	reg := cc.runtime.Registry()
	switch n := n.(type) {
	case *expr.Constant:
		return n.Value.Type(), true

	case *expr.Attribute:
		return 0, false

	case *expr.Unary:
		t, ok := cc.infer(n.Operand, ref)
		if n.Op == expr.OpNot {
			return value.TypeInteger, true
		}
		return cc.resolve(n.Op, n.Position, ref, []value.TypeID{t}, ok)

	case *expr.Binary:
		lt, lok := cc.infer(n.Left, ref)
		rt, rok := cc.infer(n.Right, ref)
		if n.Op == expr.OpAnd || n.Op == expr.OpOr {
			return 0, false
		}
		return cc.resolve(n.Op, n.Position, ref, []value.TypeID{lt, rt}, lok && rok)

	case *expr.Call:
		types := make([]value.TypeID, len(n.Args))
		known := true
		for i, a := range n.Args {
			t, ok := cc.infer(a, ref)
			types[i] = t
			known = known && ok
		}
		pos := cc.at(n.Position, ref)
		switch {
		case !reg.Has(n.Name):
			cc.errorAt(pos, "unknown function %q", n.Name)
			return 0, false
		case !reg.HasArity(n.Name, len(n.Args)):
			cc.errorAt(pos, "function %s does not take %d argument%s", n.Name, len(n.Args), plural(len(n.Args)))
			return 0, false
		}
		return cc.resolve(n.Name, n.Position, ref, types, known)
	}
	return 0, false
}

// resolve reports a resolution failure of a call whose argument types are
// all known and returns the static result type.
func (cc *compilation) resolve(name string, pos, ref expr.Position, args []value.TypeID, known bool) (value.TypeID, bool) {
	if !known {
		return 0, false
	}
	fn, err := cc.runtime.Registry().Resolve(name, args)
	switch {
	case functions.IsAmbiguous(err):
		cc.errorAt(cc.at(pos, ref), "%v; pass an argument of the exact parameter type", err)
		return 0, false
	case err != nil:
		cc.errorAt(cc.at(pos, ref), "%v", err)
		return 0, false
	}
	return fn.Returns, true
}

func plural(n int) string {
	if n == 1 {
		return ""
	}
	return "s"
}
