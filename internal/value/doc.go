// Package value provides the typed runtime values of the query language.
//
// This package contains the value model only. Every other package of the
// query engine imports value; value imports nothing internal.
//
// A Value is one of five variants: Integer, Real, String, DateTime and Image.
// Each variant wraps an optional payload. A null payload means "unknown or
// missing", it is never an error. Boolean results of the language use the
// same model: a non-null Integer 1 is true, a null Integer is false.
//
// Key constraints:
//   - Values are immutable; constructors are the only way to build them
//   - Equality is structural per variant (see Equal)
//   - Conversions follow a fixed one-way graph (see ConvertTo and
//     ConversionCost); nothing in this package parses text into numbers or
//     dates
package value
