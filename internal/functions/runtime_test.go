package functions

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trylock/viewer-sub002/internal/entity"
	"github.com/trylock/viewer-sub002/internal/value"
)

type runtimeError struct {
	line, column int
	message      string
}

type recordingSink struct {
	errors []runtimeError
}

func (s *recordingSink) OnRuntimeError(line, column int, message string) {
	s.errors = append(s.errors, runtimeError{line, column, message})
}

func call(rt *Runtime, name string, args ...value.Value) (value.Value, *recordingSink) {
	sink := &recordingSink{}
	return rt.Call(name, sink, 1, 5, args...), sink
}

func TestFindAndCallConvertsArguments(t *testing.T) {
	rt := NewRuntime(NewBuiltinRegistry())

	got, sink := call(rt, "+", value.NewInteger(1), value.NewReal(0.5))
	assert.Empty(t, sink.errors)
	assert.True(t, value.Equal(value.NewReal(1.5), got), "got %v", got)

	got, _ = call(rt, "+", value.NewInteger(1), value.NewString("x"))
	assert.True(t, value.Equal(value.NewString("1x"), got), "got %v", got)
}

func TestFindAndCallReportsResolutionErrors(t *testing.T) {
	rt := NewRuntime(NewBuiltinRegistry())

	got, sink := call(rt, "missing", value.NewInteger(1))
	assert.True(t, got.IsNull())
	assert.Equal(t, value.TypeInteger, got.Type())
	require.Len(t, sink.errors, 1)
	assert.Equal(t, runtimeError{1, 5, `unknown function "missing"`}, sink.errors[0])

	got, sink = call(rt, "width", value.NewString("x"))
	assert.True(t, got.IsNull())
	require.Len(t, sink.errors, 1)
	assert.Equal(t, "no overload of width matches width(String)", sink.errors[0].message)
}

func TestCalleeErrorYieldsNullOfReturnType(t *testing.T) {
	rt := NewRuntime(NewBuiltinRegistry())

	got, sink := call(rt, "/", value.NewReal(1), value.NewReal(0))
	assert.True(t, value.Equal(value.Null(value.TypeReal), got))
	require.Len(t, sink.errors, 1)
	assert.Equal(t, "division by zero", sink.errors[0].message)

	got, _ = call(rt, "/", value.NewInteger(1), value.NewInteger(0))
	assert.True(t, value.Equal(value.NullInteger(), got))
}

func TestNilSinkIsAllowed(t *testing.T) {
	rt := NewRuntime(NewBuiltinRegistry())

	got := rt.Call("/", nil, 0, 0, value.NewInteger(1), value.NewInteger(0))
	assert.True(t, got.IsNull())
}

func TestContextCallKeepsEnvironment(t *testing.T) {
	r := NewBuiltinRegistry()
	e := entity.New("a.jpg", entity.NewAttribute("n", value.NewInteger(3), entity.SourceCustom))
	require.NoError(t, r.Register(Function{
		Name:       "doubleN",
		Returns:    value.TypeInteger,
		UsesEntity: true,
		Call: func(c *Context) value.Value {
			n := c.Entity.Value("n")
			return c.Call("*", n, value.NewInteger(2))
		},
	}))
	rt := NewRuntime(r)

	got := rt.FindAndCall("doubleN", &Context{Entity: e})
	assert.True(t, value.Equal(value.NewInteger(6), got), "got %v", got)
	assert.True(t, r.UsesEntity("DOUBLEN"))
	assert.False(t, r.UsesEntity("lower"))
}

func TestComparisonsPropagateNull(t *testing.T) {
	rt := NewRuntime(NewBuiltinRegistry())

	for _, op := range []string{OpEqual, OpNotEqual, OpLess, OpLessEqual, OpGreater, OpGreaterEqual} {
		for _, typ := range []value.TypeID{value.TypeInteger, value.TypeReal, value.TypeString, value.TypeDateTime} {
			got, sink := call(rt, op, value.Null(typ), value.NewInteger(1))
			assert.True(t, got.IsNull(), "%s with null %s", op, typ)
			assert.Empty(t, sink.errors)

			got, _ = call(rt, op, value.NewInteger(1), value.Null(typ))
			assert.True(t, got.IsNull(), "%s with null %s on the right", op, typ)
		}
	}
}

func TestBuiltins(t *testing.T) {
	rt := NewRuntime(NewBuiltinRegistry())
	when := time.Date(2019, 7, 14, 18, 30, 0, 0, time.UTC)
	img := value.NewImage(value.ImageData{Format: "png", Width: 640, Height: 480})

	tests := []struct {
		name string
		args []value.Value
		want value.Value
	}{
		{"=", []value.Value{value.NewInteger(2), value.NewInteger(2)}, value.True()},
		{"=", []value.Value{value.NewInteger(2), value.NewReal(2.5)}, value.NullInteger()},
		{"<", []value.Value{value.NewString("a"), value.NewString("b")}, value.True()},
		{">=", []value.Value{value.NewDateTime(when), value.NewDateTime(when)}, value.True()},
		{"!=", []value.Value{value.NewString("a"), value.NewString("a")}, value.NullInteger()},
		{"=", []value.Value{value.NewDateTime(when), value.NewString("2019-07-14 18:30:00")}, value.True()},
		{"-", []value.Value{value.NewInteger(5), value.NewInteger(7)}, value.NewInteger(-2)},
		{"*", []value.Value{value.NewReal(1.5), value.NewInteger(2)}, value.NewReal(3)},
		{"/", []value.Value{value.NewInteger(7), value.NewInteger(2)}, value.NewInteger(3)},
		{"-", []value.Value{value.NewReal(2)}, value.NewReal(-2)},
		{"+", []value.Value{value.Null(value.TypeReal), value.NewReal(1)}, value.Null(value.TypeReal)},
		{"and", []value.Value{value.NewString("a"), value.NewString("b")}, value.True()},
		{"and", []value.Value{img, img}, value.True()},
		{"and", []value.Value{img, value.NewInteger(1)}, value.True()},
		{"and", []value.Value{value.NewReal(0.5), value.NewString("x")}, value.True()},
		{"and", []value.Value{img, value.Null(value.TypeString)}, value.NullInteger()},
		{"and", []value.Value{value.NullInteger(), value.NewInteger(1)}, value.NullInteger()},
		{"DateTime", []value.Value{value.NewString("2019-07-14 18:30:00")}, value.NewDateTime(when)},
		{"DateTime", []value.Value{value.NewString("2019:07:14 18:30:00")}, value.NewDateTime(when)},
		{"DateTime", []value.Value{value.NewString("2019-07-14")}, value.NewDateTime(time.Date(2019, 7, 14, 0, 0, 0, 0, time.UTC))},
		{"DateTime", []value.Value{value.NewString("yesterday")}, value.Null(value.TypeDateTime)},
		{"year", []value.Value{value.NewDateTime(when)}, value.NewInteger(2019)},
		{"month", []value.Value{value.NewDateTime(when)}, value.NewInteger(7)},
		{"day", []value.Value{value.NewDateTime(when)}, value.NewInteger(14)},
		{"hour", []value.Value{value.NewDateTime(when)}, value.NewInteger(18)},
		{"lower", []value.Value{value.NewString("ÁbC")}, value.NewString("ábc")},
		{"upper", []value.Value{value.NewString("abc")}, value.NewString("ABC")},
		{"length", []value.Value{value.NewString("žluť")}, value.NewInteger(4)},
		{"trim", []value.Value{value.NewString("  x ")}, value.NewString("x")},
		{"contains", []value.Value{value.NewString("holiday"), value.NewString("lid")}, value.True()},
		{"startsWith", []value.Value{value.NewString("holiday"), value.NewString("day")}, value.NullInteger()},
		{"endsWith", []value.Value{value.NewString("holiday"), value.NewString("day")}, value.True()},
		{"matches", []value.Value{value.NewString("IMG_0042"), value.NewString(`^IMG_\d+$`)}, value.True()},
		{"length", []value.Value{value.NewInteger(123)}, value.NewInteger(3)},
		{"abs", []value.Value{value.NewInteger(-4)}, value.NewInteger(4)},
		{"abs", []value.Value{value.NewReal(-0.5)}, value.NewReal(0.5)},
		{"round", []value.Value{value.NewReal(2.5)}, value.NewReal(3)},
		{"floor", []value.Value{value.NewInteger(2)}, value.NewReal(2)},
		{"ceil", []value.Value{value.NewReal(2.1)}, value.NewReal(3)},
		{"min", []value.Value{value.NewInteger(3), value.NewInteger(-1)}, value.NewInteger(-1)},
		{"max", []value.Value{value.NewInteger(3), value.NewReal(4.5)}, value.NewReal(4.5)},
		{"width", []value.Value{img}, value.NewInteger(640)},
		{"height", []value.Value{img}, value.NewInteger(480)},
		{"coalesce", []value.Value{value.Null(value.TypeString), value.NewString("x")}, value.NewString("x")},
		{"coalesce", []value.Value{value.NewInteger(1), value.NewInteger(2)}, value.NewInteger(1)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, sink := call(rt, tt.name, tt.args...)
			assert.Empty(t, sink.errors)
			assert.True(t, value.Equal(tt.want, got), "%s%v: want %v (%s), got %v (%s)",
				tt.name, tt.args, tt.want, tt.want.Type(), got, got.Type())
		})
	}
}

func TestMatchesInvalidPattern(t *testing.T) {
	rt := NewRuntime(NewBuiltinRegistry())

	got, sink := call(rt, "matches", value.NewString("x"), value.NewString("("))
	assert.True(t, got.IsNull())
	require.Len(t, sink.errors, 1)
	assert.Contains(t, sink.errors[0].message, "invalid regular expression")
}

func TestRealComparisonWithNaN(t *testing.T) {
	rt := NewRuntime(NewBuiltinRegistry())

	got, _ := call(rt, "<", value.NewReal(math.NaN()), value.NewReal(0))
	assert.True(t, value.Equal(value.True(), got), "NaN sorts lowest")
}

func TestBuiltinRegistryHasNoAmbiguousSameTypeCalls(t *testing.T) {
	r := NewBuiltinRegistry()

	for _, name := range r.Names() {
		for _, typ := range value.Types {
			for _, args := range [][]value.TypeID{{typ}, {typ, typ}} {
				_, err := r.Resolve(name, args)
				assert.False(t, IsAmbiguous(err), "%s", Signature{Name: name, Params: args})
			}
		}
	}
}
