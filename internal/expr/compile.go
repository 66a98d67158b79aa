package expr

import (
	"fmt"

	"github.com/trylock/viewer-sub002/internal/entity"
	"github.com/trylock/viewer-sub002/internal/functions"
	"github.com/trylock/viewer-sub002/internal/value"
)

// Func evaluates a compiled expression for one entity.
type Func func(e *entity.Entity) value.Value

// Predicate reports whether an entity passes a compiled filter.
type Predicate func(e *entity.Entity) bool

// Compile turns n into an evaluator. Runtime errors go to sink, which may be
// nil. The tree is walked once here; evaluation only runs closures.
func Compile(n Node, rt *functions.Runtime, sink functions.ErrorSink) Func {
	c := compiler{rt: rt, sink: sink}
	return c.compile(n)
}

// CompilePredicate compiles n into a filter that holds iff the value of n
// is not null.
func CompilePredicate(n Node, rt *functions.Runtime, sink functions.ErrorSink) Predicate {
	f := Compile(n, rt, sink)
	return func(e *entity.Entity) bool {
		return !f(e).IsNull()
	}
}

type compiler struct {
	rt   *functions.Runtime
	sink functions.ErrorSink
}

func (c *compiler) compile(n Node) Func {
	switch n := n.(type) {
	case *Constant:
		v := n.Value
		return func(*entity.Entity) value.Value { return v }

	case *Attribute:
		name := n.Name
		return func(e *entity.Entity) value.Value {
			if e == nil {
				return value.NullInteger()
			}
			return e.Value(name)
		}

	case *Unary:
		operand := c.compile(n.Operand)
		if n.Op == OpNot {
			return func(e *entity.Entity) value.Value {
				return not(operand(e))
			}
		}
		return c.call(n.Op, n.Position, operand)

	case *Binary:
		left, right := c.compile(n.Left), c.compile(n.Right)
		switch n.Op {
		case OpAnd:
			return func(e *entity.Entity) value.Value {
				l := left(e)
				if l.IsNull() {
					return l
				}
				r := right(e)
				if r.IsNull() {
					return r
				}
				return c.invoke(functions.OpAnd, n.Position, e, l, r)
			}
		case OpOr:
			return func(e *entity.Entity) value.Value {
				if l := left(e); !l.IsNull() {
					return l
				}
				return right(e)
			}
		default:
			return c.call(n.Op, n.Position, left, right)
		}

	case *Call:
		args := make([]Func, len(n.Args))
		for i, a := range n.Args {
			args[i] = c.compile(a)
		}
		return c.call(n.Name, n.Position, args...)

	default:
		panic(fmt.Sprintf("expr: unknown node %T", n))
	}
}

// call evaluates args in order and dispatches name through the runtime.
func (c *compiler) call(name string, pos Position, args ...Func) Func {
	return func(e *entity.Entity) value.Value {
		vals := make([]value.Value, len(args))
		for i, a := range args {
			vals[i] = a(e)
		}
		return c.invoke(name, pos, e, vals...)
	}
}

func (c *compiler) invoke(name string, pos Position, e *entity.Entity, args ...value.Value) value.Value {
	return c.rt.FindAndCall(name, &functions.Context{
		Args:    args,
		Runtime: c.rt,
		Entity:  e,
		Line:    pos.Line,
		Column:  pos.Column,
		Sink:    c.sink,
	})
}

func not(v value.Value) value.Value {
	return value.Bool(v.IsNull())
}
