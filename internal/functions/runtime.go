package functions

import (
	"time"

	"github.com/trylock/viewer-sub002/internal/entity"
	"github.com/trylock/viewer-sub002/internal/value"
)

// ErrorSink receives runtime errors raised while evaluating an expression.
type ErrorSink interface {
	OnRuntimeError(line, column int, message string)
}

// ErrorSinkFunc adapts a function to ErrorSink.
type ErrorSinkFunc func(line, column int, message string)

// OnRuntimeError calls f.
func (f ErrorSinkFunc) OnRuntimeError(line, column int, message string) {
	f(line, column, message)
}

// Runtime dispatches calls to functions of a Registry.
type Runtime struct {
	registry *Registry
}

// NewRuntime creates a runtime over r.
func NewRuntime(r *Registry) *Runtime {
	return &Runtime{registry: r}
}

// Registry returns the registry the runtime resolves against.
func (rt *Runtime) Registry() *Registry {
	return rt.registry
}

// FindAndCall resolves name against the types of ctx.Args, converts each
// argument to the declared parameter type and invokes the function.
//
// Resolution failures are reported through ctx.Error and yield a null
// Integer. ctx.Runtime is set to rt when it is nil.
func (rt *Runtime) FindAndCall(name string, ctx *Context) value.Value {
	if ctx.Runtime == nil {
		ctx.Runtime = rt
	}
	types := make([]value.TypeID, len(ctx.Args))
	for i, a := range ctx.Args {
		types[i] = a.Type()
	}

	fn, err := rt.registry.Resolve(name, types)
	if err != nil {
		return ctx.Error(err.Error())
	}

	converted := make([]value.Value, len(ctx.Args))
	for i, a := range ctx.Args {
		converted[i] = value.ConvertTo(a, fn.Params[i])
	}
	call := *ctx
	call.Args = converted
	call.fn = fn
	return fn.Call(&call)
}

// Call is a convenience for calling name with args outside an entity,
// reporting errors to sink. It is used for constant folding.
func (rt *Runtime) Call(name string, sink ErrorSink, line, column int, args ...value.Value) value.Value {
	return rt.FindAndCall(name, &Context{
		Args:    args,
		Runtime: rt,
		Line:    line,
		Column:  column,
		Sink:    sink,
	})
}

// Context carries the arguments and environment of one call.
type Context struct {
	// Args are the actual arguments. Inside Function.Call they are
	// converted to the declared parameter types.
	Args []value.Value

	// Runtime is the runtime performing the call, for nested calls.
	Runtime *Runtime

	// Entity is the entity being evaluated. Nil during constant folding.
	Entity *entity.Entity

	// Line and Column locate the call site in the query text.
	Line   int
	Column int

	// Sink receives runtime errors. May be nil.
	Sink ErrorSink

	fn *Function // resolved callee, nil before resolution
}

// Error reports message at the call site and returns the null of the
// callee's return type, or the null Integer when no callee was resolved.
func (c *Context) Error(message string) value.Value {
	if c.Sink != nil {
		c.Sink.OnRuntimeError(c.Line, c.Column, message)
	}
	if c.fn != nil {
		return value.Null(c.fn.Returns)
	}
	return value.NullInteger()
}

// Call invokes another function with the same entity, position and sink.
func (c *Context) Call(name string, args ...value.Value) value.Value {
	nested := &Context{
		Args:    args,
		Runtime: c.Runtime,
		Entity:  c.Entity,
		Line:    c.Line,
		Column:  c.Column,
		Sink:    c.Sink,
	}
	return c.Runtime.FindAndCall(name, nested)
}

// Arg returns the i-th argument.
func (c *Context) Arg(i int) value.Value {
	return c.Args[i]
}

// AnyNull reports whether some argument is null.
func (c *Context) AnyNull() bool {
	for _, a := range c.Args {
		if a.IsNull() {
			return true
		}
	}
	return false
}

// Int returns the i-th argument as int64. ok is false for nulls and
// non-Integer arguments.
func (c *Context) Int(i int) (int64, bool) {
	if v, isInt := c.Args[i].(value.Integer); isInt {
		return v.Int64()
	}
	return 0, false
}

// Real returns the i-th argument as float64.
func (c *Context) Real(i int) (float64, bool) {
	if v, isReal := c.Args[i].(value.Real); isReal {
		return v.Float64()
	}
	return 0, false
}

// Text returns the i-th argument as a string.
func (c *Context) Text(i int) (string, bool) {
	if v, isString := c.Args[i].(value.String); isString {
		return v.Text()
	}
	return "", false
}

// Time returns the i-th argument as a time.
func (c *Context) Time(i int) (time.Time, bool) {
	if v, isTime := c.Args[i].(value.DateTime); isTime {
		return v.Time()
	}
	return time.Time{}, false
}

// Image returns the i-th argument as image data.
func (c *Context) Image(i int) (value.ImageData, bool) {
	if v, isImage := c.Args[i].(value.Image); isImage {
		return v.Image()
	}
	return value.ImageData{}, false
}
