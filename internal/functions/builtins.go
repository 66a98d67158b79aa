package functions

import (
	"math"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"

	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/trylock/viewer-sub002/internal/value"
)

// Operator names. The expression compiler calls operators through the
// runtime under these names.
const (
	OpEqual        = "="
	OpNotEqual     = "!="
	OpLess         = "<"
	OpLessEqual    = "<="
	OpGreater      = ">"
	OpGreaterEqual = ">="
	OpAdd          = "+"
	OpSubtract     = "-"
	OpMultiply     = "*"
	OpDivide       = "/"
	OpNegate       = "-"
	OpAnd          = "and"
)

// DateTimeLayouts are the layouts DateTime(String) accepts, tried in order.
var DateTimeLayouts = []string{
	value.DateTimeLayout,
	"2006-01-02",
	"2006-01-02T15:04:05",
	time.RFC3339,
	"2006:01:02 15:04:05", // EXIF
}

const (
	tInt  = value.TypeInteger
	tReal = value.TypeReal
	tStr  = value.TypeString
	tTime = value.TypeDateTime
	tImg  = value.TypeImage
)

var (
	ordered = []value.TypeID{tInt, tReal, tStr, tTime}
	numeric = []value.TypeID{tInt, tReal}
)

// Builtins returns the static table of operators and builtin functions.
// Each call returns a fresh slice.
func Builtins() []Function {
	var fns []Function

	fns = append(fns, comparisons()...)
	fns = append(fns, arithmetic()...)
	// and only tests for nulls, so every type pair has an exact overload.
	for _, l := range value.Types {
		for _, r := range value.Types {
			fns = append(fns, strict(OpAnd, []value.TypeID{l, r}, tInt, func(*Context) value.Value {
				return value.True()
			}))
		}
	}
	fns = append(fns, dateTimeFunctions()...)
	fns = append(fns, stringFunctions()...)
	fns = append(fns, numericFunctions()...)
	fns = append(fns,
		strict("width", []value.TypeID{tImg}, tInt, func(c *Context) value.Value {
			img, _ := c.Image(0)
			return value.NewInteger(int64(img.Width))
		}),
		strict("height", []value.TypeID{tImg}, tInt, func(c *Context) value.Value {
			img, _ := c.Image(0)
			return value.NewInteger(int64(img.Height))
		}),
	)
	for _, t := range value.Types {
		fns = append(fns, Function{
			Name:    "coalesce",
			Params:  []value.TypeID{t, t},
			Returns: t,
			Call: func(c *Context) value.Value {
				if !c.Arg(0).IsNull() {
					return c.Arg(0)
				}
				return c.Arg(1)
			},
		})
	}
	return fns
}

// strict wraps call so that any null argument yields the null of ret.
func strict(name string, params []value.TypeID, ret value.TypeID, call func(*Context) value.Value) Function {
	return Function{
		Name:    name,
		Params:  params,
		Returns: ret,
		Call: func(c *Context) value.Value {
			if c.AnyNull() {
				return value.Null(ret)
			}
			return call(c)
		},
	}
}

func comparisons() []Function {
	ops := []struct {
		name string
		test func(int) bool
	}{
		{OpEqual, func(c int) bool { return c == 0 }},
		{OpNotEqual, func(c int) bool { return c != 0 }},
		{OpLess, func(c int) bool { return c < 0 }},
		{OpLessEqual, func(c int) bool { return c <= 0 }},
		{OpGreater, func(c int) bool { return c > 0 }},
		{OpGreaterEqual, func(c int) bool { return c >= 0 }},
	}

	var fns []Function
	for _, op := range ops {
		for _, t := range ordered {
			fns = append(fns, strict(op.name, []value.TypeID{t, t}, tInt, func(c *Context) value.Value {
				return value.Bool(op.test(value.Compare(c.Arg(0), c.Arg(1))))
			}))
		}
	}
	return fns
}

func arithmetic() []Function {
	intOp := func(name string, f func(a, b int64) int64) Function {
		return strict(name, []value.TypeID{tInt, tInt}, tInt, func(c *Context) value.Value {
			a, _ := c.Int(0)
			b, _ := c.Int(1)
			return value.NewInteger(f(a, b))
		})
	}
	realOp := func(name string, f func(a, b float64) float64) Function {
		return strict(name, []value.TypeID{tReal, tReal}, tReal, func(c *Context) value.Value {
			a, _ := c.Real(0)
			b, _ := c.Real(1)
			return value.NewReal(f(a, b))
		})
	}

	return []Function{
		intOp(OpAdd, func(a, b int64) int64 { return a + b }),
		intOp(OpSubtract, func(a, b int64) int64 { return a - b }),
		intOp(OpMultiply, func(a, b int64) int64 { return a * b }),
		strict(OpDivide, []value.TypeID{tInt, tInt}, tInt, func(c *Context) value.Value {
			a, _ := c.Int(0)
			b, _ := c.Int(1)
			if b == 0 {
				return c.Error("division by zero")
			}
			return value.NewInteger(a / b)
		}),
		realOp(OpAdd, func(a, b float64) float64 { return a + b }),
		realOp(OpSubtract, func(a, b float64) float64 { return a - b }),
		realOp(OpMultiply, func(a, b float64) float64 { return a * b }),
		strict(OpDivide, []value.TypeID{tReal, tReal}, tReal, func(c *Context) value.Value {
			a, _ := c.Real(0)
			b, _ := c.Real(1)
			if b == 0 {
				return c.Error("division by zero")
			}
			return value.NewReal(a / b)
		}),
		strict(OpAdd, []value.TypeID{tStr, tStr}, tStr, func(c *Context) value.Value {
			a, _ := c.Text(0)
			b, _ := c.Text(1)
			return value.NewString(a + b)
		}),
		strict(OpNegate, []value.TypeID{tInt}, tInt, func(c *Context) value.Value {
			a, _ := c.Int(0)
			return value.NewInteger(-a)
		}),
		strict(OpNegate, []value.TypeID{tReal}, tReal, func(c *Context) value.Value {
			a, _ := c.Real(0)
			return value.NewReal(-a)
		}),
	}
}

// ParseDateTime parses s with the first matching layout of DateTimeLayouts.
// Layouts without a zone are interpreted as UTC.
func ParseDateTime(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	for _, layout := range DateTimeLayouts {
		if t, err := time.ParseInLocation(layout, s, time.UTC); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

func dateTimeFunctions() []Function {
	part := func(name string, f func(time.Time) int) Function {
		return strict(name, []value.TypeID{tTime}, tInt, func(c *Context) value.Value {
			t, _ := c.Time(0)
			return value.NewInteger(int64(f(t)))
		})
	}

	return []Function{
		// Unparsable text is unknown, not an error.
		strict("DateTime", []value.TypeID{tStr}, tTime, func(c *Context) value.Value {
			s, _ := c.Text(0)
			t, ok := ParseDateTime(s)
			if !ok {
				return value.Null(tTime)
			}
			return value.NewDateTime(t)
		}),
		part("year", time.Time.Year),
		part("month", func(t time.Time) int { return int(t.Month()) }),
		part("day", time.Time.Day),
		part("hour", time.Time.Hour),
	}
}

// patterns caches compiled regular expressions of matches(String, String).
var patterns, _ = lru.New[string, *regexp.Regexp](128)

func compilePattern(expr string) (*regexp.Regexp, error) {
	if re, ok := patterns.Get(expr); ok {
		return re, nil
	}
	re, err := regexp.Compile(expr)
	if err != nil {
		return nil, err
	}
	patterns.Add(expr, re)
	return re, nil
}

func stringFunctions() []Function {
	mapString := func(name string, f func(string) string) Function {
		return strict(name, []value.TypeID{tStr}, tStr, func(c *Context) value.Value {
			s, _ := c.Text(0)
			return value.NewString(f(s))
		})
	}
	predicate := func(name string, f func(s, sub string) bool) Function {
		return strict(name, []value.TypeID{tStr, tStr}, tInt, func(c *Context) value.Value {
			s, _ := c.Text(0)
			sub, _ := c.Text(1)
			return value.Bool(f(s, sub))
		})
	}

	return []Function{
		// Casers are stateful; each call gets its own.
		mapString("lower", func(s string) string { return cases.Lower(language.Und).String(s) }),
		mapString("upper", func(s string) string { return cases.Upper(language.Und).String(s) }),
		mapString("trim", strings.TrimSpace),
		strict("length", []value.TypeID{tStr}, tInt, func(c *Context) value.Value {
			s, _ := c.Text(0)
			return value.NewInteger(int64(utf8.RuneCountInString(s)))
		}),
		predicate("contains", strings.Contains),
		predicate("startsWith", strings.HasPrefix),
		predicate("endsWith", strings.HasSuffix),
		strict("matches", []value.TypeID{tStr, tStr}, tInt, func(c *Context) value.Value {
			s, _ := c.Text(0)
			expr, _ := c.Text(1)
			re, err := compilePattern(expr)
			if err != nil {
				return c.Error("invalid regular expression: " + err.Error())
			}
			return value.Bool(re.MatchString(s))
		}),
	}
}

func numericFunctions() []Function {
	realFn := func(name string, f func(float64) float64) Function {
		return strict(name, []value.TypeID{tReal}, tReal, func(c *Context) value.Value {
			x, _ := c.Real(0)
			return value.NewReal(f(x))
		})
	}

	fns := []Function{
		strict("abs", []value.TypeID{tInt}, tInt, func(c *Context) value.Value {
			x, _ := c.Int(0)
			return value.NewInteger(max(x, -x))
		}),
		realFn("abs", math.Abs),
		realFn("round", math.Round),
		realFn("floor", math.Floor),
		realFn("ceil", math.Ceil),
	}
	for _, t := range numeric {
		fns = append(fns,
			strict("min", []value.TypeID{t, t}, t, func(c *Context) value.Value {
				if value.Compare(c.Arg(1), c.Arg(0)) < 0 {
					return c.Arg(1)
				}
				return c.Arg(0)
			}),
			strict("max", []value.TypeID{t, t}, t, func(c *Context) value.Value {
				if value.Compare(c.Arg(1), c.Arg(0)) > 0 {
					return c.Arg(1)
				}
				return c.Arg(0)
			}),
		)
	}
	return fns
}
