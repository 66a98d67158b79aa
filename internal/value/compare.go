package value

import (
	"bytes"
	"cmp"
	"math"
	"strings"
)

// Compare is the total order used to sort values.
//
// Nulls sort before non-nulls (two nulls of any type are equal). Integers and
// Reals compare by numeric value, exactly, with NaN below every number and
// Integer first when the values are equal. Other non-nulls of different types
// sort by TypeID, and values of the same type compare by payload. The order
// is transitive, which keeps ORDER BY comparers valid when an attribute has
// mixed types across entities.
func Compare(a, b Value) int {
	an, bn := a.IsNull(), b.IsNull()
	switch {
	case an && bn:
		return 0
	case an:
		return -1
	case bn:
		return 1
	}
	if a.Type() != b.Type() {
		if c := compareNumbers(a, b); c != 0 {
			return c
		}
		return cmp.Compare(a.Type(), b.Type())
	}

	switch x := a.(type) {
	case Integer:
		return cmp.Compare(x.v, b.(Integer).v)
	case Real:
		return cmp.Compare(x.v, b.(Real).v)
	case String:
		return strings.Compare(x.v, b.(String).v)
	case DateTime:
		return x.v.Compare(b.(DateTime).v)
	case Image:
		y := b.(Image).v
		if c := cmp.Compare(x.v.Width*x.v.Height, y.Width*y.Height); c != 0 {
			return c
		}
		if c := strings.Compare(x.v.Format, y.Format); c != 0 {
			return c
		}
		if c := cmp.Compare(x.v.Width, y.Width); c != 0 {
			return c
		}
		if c := cmp.Compare(x.v.Height, y.Height); c != 0 {
			return c
		}
		return bytes.Compare(x.v.Data, y.Data)
	default:
		return 0
	}
}

// compareNumbers orders a non-null Integer against a non-null Real. It
// returns 0 for equal values and for any other pair of types.
func compareNumbers(a, b Value) int {
	switch x := a.(type) {
	case Integer:
		if y, ok := b.(Real); ok {
			return compareIntReal(x.v, y.v)
		}
	case Real:
		if y, ok := b.(Integer); ok {
			return -compareIntReal(y.v, x.v)
		}
	}
	return 0
}

// compareIntReal compares i and f without rounding i to a float64.
func compareIntReal(i int64, f float64) int {
	switch {
	case math.IsNaN(f):
		return 1
	case f >= math.MaxInt64:
		return -1
	case f < math.MinInt64:
		return 1
	}
	whole := math.Trunc(f)
	if c := cmp.Compare(i, int64(whole)); c != 0 {
		return c
	}
	return cmp.Compare(0, f-whole)
}
