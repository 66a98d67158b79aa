package value

import (
	"fmt"
	"math"
	"strconv"
)

// Impossible is the conversion cost of a pair with no conversion edge.
const Impossible = math.MaxInt

// conversionCosts[from][to] is the cost of converting from -> to.
//
// The graph is one-way: Integer -> Real -> String, Integer -> String and
// DateTime -> String. Nothing converts to Integer, Real or DateTime except
// itself, and Image converts only to Image.
var conversionCosts = [5][5]int{
	TypeInteger:  {TypeInteger: 0, TypeReal: 1, TypeString: 2, TypeDateTime: Impossible, TypeImage: Impossible},
	TypeReal:     {TypeInteger: Impossible, TypeReal: 0, TypeString: 1, TypeDateTime: Impossible, TypeImage: Impossible},
	TypeString:   {TypeInteger: Impossible, TypeReal: Impossible, TypeString: 0, TypeDateTime: Impossible, TypeImage: Impossible},
	TypeDateTime: {TypeInteger: Impossible, TypeReal: Impossible, TypeString: 1, TypeDateTime: 0, TypeImage: Impossible},
	TypeImage:    {TypeInteger: Impossible, TypeReal: Impossible, TypeString: Impossible, TypeDateTime: Impossible, TypeImage: 0},
}

// ConversionCost returns the cost of converting a value of type from to type
// to: 0 for identity, a small positive number along a conversion edge, and
// Impossible otherwise. It is total over the 5x5 type product.
//
// The cost is the metric of overload resolution. "42" does not convert to
// Integer even though it parses; only the DateTime function parses text.
func ConversionCost(from, to TypeID) int {
	if !from.Valid() || !to.Valid() {
		panic(fmt.Sprintf("value: conversion cost of unknown types %d -> %d", int(from), int(to)))
	}
	return conversionCosts[from][to]
}

// CanConvert reports whether from converts to to.
func CanConvert(from, to TypeID) bool {
	return ConversionCost(from, to) != Impossible
}

// ConvertTo converts v to type target.
//
// Null input yields the null of target. A conversion without an edge in the
// conversion graph yields the null of target as well; ConvertTo never fails.
func ConvertTo(v Value, target TypeID) Value {
	if v.Type() == target {
		return v
	}
	if v.IsNull() || !CanConvert(v.Type(), target) {
		return Null(target)
	}

	switch x := v.(type) {
	case Integer:
		switch target {
		case TypeReal:
			return NewReal(float64(x.v))
		case TypeString:
			return NewString(strconv.FormatInt(x.v, 10))
		}
	case Real:
		if target == TypeString {
			return NewString(formatReal(x.v))
		}
	case DateTime:
		if target == TypeString {
			return NewString(x.v.Format(DateTimeLayout))
		}
	}

	// The cost table and the switch above disagree.
	panic(fmt.Sprintf("value: missing conversion %s -> %s", v.Type(), target))
}
