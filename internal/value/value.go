package value

import (
	"bytes"
	"fmt"
	"math"
	"strconv"
	"time"
)

// TypeID identifies the variant of a Value.
// The numeric order is the cross-type sort order used by Compare.
type TypeID int

const (
	TypeInteger TypeID = iota
	TypeReal
	TypeString
	TypeDateTime
	TypeImage
)

// Types lists every TypeID in sort order.
var Types = []TypeID{TypeInteger, TypeReal, TypeString, TypeDateTime, TypeImage}

var typeNames = [...]string{
	TypeInteger:  "Integer",
	TypeReal:     "Real",
	TypeString:   "String",
	TypeDateTime: "DateTime",
	TypeImage:    "Image",
}

// String returns the language name of the type.
func (t TypeID) String() string {
	if t < 0 || int(t) >= len(typeNames) {
		return fmt.Sprintf("TypeID(%d)", int(t))
	}
	return typeNames[t]
}

// Valid reports whether t is one of the five known types.
func (t TypeID) Valid() bool {
	return t >= TypeInteger && t <= TypeImage
}

// DateTimeLayout is the canonical textual form of a DateTime.
const DateTimeLayout = "2006-01-02 15:04:05"

// Value is a sealed interface over the five value variants.
// Only Integer, Real, String, DateTime and Image implement it.
type Value interface {
	// Type returns the variant tag. It is fixed per variant, also for nulls.
	Type() TypeID

	// IsNull reports whether the payload is absent.
	IsNull() bool

	// String returns a display form. Nulls render as "null".
	String() string

	value() // Sealed - only the variants in this package implement it
}

// Integer is a 64-bit signed integer value.
type Integer struct {
	v     int64
	valid bool
}

// Real is a 64-bit floating point value.
type Real struct {
	v     float64
	valid bool
}

// String is a text value.
type String struct {
	v     string
	valid bool
}

// DateTime is a point in time.
type DateTime struct {
	v     time.Time
	valid bool
}

// ImageData is the payload of an Image value.
// Data is opaque to the query engine; it is never decoded here.
type ImageData struct {
	Format string
	Width  int
	Height int
	Data   []byte
}

// Image is an image value.
type Image struct {
	v     ImageData
	valid bool
}

func (Integer) value()  {}
func (Real) value()     {}
func (String) value()   {}
func (DateTime) value() {}
func (Image) value()    {}

// NewInteger creates a non-null Integer.
func NewInteger(n int64) Integer { return Integer{v: n, valid: true} }

// NewReal creates a non-null Real.
func NewReal(f float64) Real { return Real{v: f, valid: true} }

// NewString creates a non-null String.
func NewString(s string) String { return String{v: s, valid: true} }

// NewDateTime creates a non-null DateTime.
func NewDateTime(t time.Time) DateTime { return DateTime{v: t, valid: true} }

// NewImage creates a non-null Image. The byte slice is copied.
func NewImage(img ImageData) Image {
	img.Data = bytes.Clone(img.Data)
	return Image{v: img, valid: true}
}

// NullInteger returns the null Integer. It is the canonical result for
// "false" and for attributes an entity does not have.
func NullInteger() Integer { return Integer{} }

// True is the canonical true value (Integer 1).
func True() Integer { return NewInteger(1) }

// Bool maps b to True or NullInteger.
func Bool(b bool) Integer {
	if b {
		return True()
	}
	return NullInteger()
}

// Null returns the null value of type t.
// Panics on an unknown type: that is a programming defect.
func Null(t TypeID) Value {
	switch t {
	case TypeInteger:
		return Integer{}
	case TypeReal:
		return Real{}
	case TypeString:
		return String{}
	case TypeDateTime:
		return DateTime{}
	case TypeImage:
		return Image{}
	default:
		panic(fmt.Sprintf("value: unknown type %d", int(t)))
	}
}

func (v Integer) Type() TypeID  { return TypeInteger }
func (v Real) Type() TypeID     { return TypeReal }
func (v String) Type() TypeID   { return TypeString }
func (v DateTime) Type() TypeID { return TypeDateTime }
func (v Image) Type() TypeID    { return TypeImage }

func (v Integer) IsNull() bool  { return !v.valid }
func (v Real) IsNull() bool     { return !v.valid }
func (v String) IsNull() bool   { return !v.valid }
func (v DateTime) IsNull() bool { return !v.valid }
func (v Image) IsNull() bool    { return !v.valid }

// Int64 returns the payload and whether it is present.
func (v Integer) Int64() (int64, bool) { return v.v, v.valid }

// Float64 returns the payload and whether it is present.
func (v Real) Float64() (float64, bool) { return v.v, v.valid }

// Text returns the payload and whether it is present.
func (v String) Text() (string, bool) { return v.v, v.valid }

// Time returns the payload and whether it is present.
func (v DateTime) Time() (time.Time, bool) { return v.v, v.valid }

// Image returns the payload and whether it is present.
// The returned Data must not be modified.
func (v Image) Image() (ImageData, bool) { return v.v, v.valid }

func (v Integer) String() string {
	if !v.valid {
		return "null"
	}
	return strconv.FormatInt(v.v, 10)
}

func (v Real) String() string {
	if !v.valid {
		return "null"
	}
	return formatReal(v.v)
}

func (v String) String() string {
	if !v.valid {
		return "null"
	}
	return v.v
}

func (v DateTime) String() string {
	if !v.valid {
		return "null"
	}
	return v.v.Format(DateTimeLayout)
}

func (v Image) String() string {
	if !v.valid {
		return "null"
	}
	return fmt.Sprintf("image(%s %dx%d)", v.v.Format, v.v.Width, v.v.Height)
}

// formatReal renders f in the shortest form that parses back to f.
func formatReal(f float64) string {
	return strconv.FormatFloat(f, 'g', -1, 64)
}

// Equal reports structural equality: same variant and same payload, or both
// null. Two NaN reals are equal; DateTimes compare by instant.
func Equal(a, b Value) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	if a.Type() != b.Type() {
		return false
	}
	if a.IsNull() || b.IsNull() {
		return a.IsNull() && b.IsNull()
	}
	switch x := a.(type) {
	case Integer:
		return x.v == b.(Integer).v
	case Real:
		y := b.(Real).v
		return x.v == y || (math.IsNaN(x.v) && math.IsNaN(y))
	case String:
		return x.v == b.(String).v
	case DateTime:
		return x.v.Equal(b.(DateTime).v)
	case Image:
		y := b.(Image).v
		return x.v.Format == y.Format &&
			x.v.Width == y.Width &&
			x.v.Height == y.Height &&
			bytes.Equal(x.v.Data, y.Data)
	default:
		return false
	}
}
