// Package functions implements the function registry and runtime of the
// query language.
//
// Every operator and builtin is a Function: a name, an ordered list of
// parameter types, a return type and a callback. Several functions may share
// a name (overloading). Names are matched case-insensitively.
//
// OVERLOAD RESOLUTION:
//
// A call site is resolved against the functions with the same name and arity.
// The cost of a candidate is the sum of value.ConversionCost(actual, param)
// over all positions. Candidates with an impossible conversion at any
// position are rejected. The cheapest candidate wins; a tie at the minimum
// is an ambiguous call and is reported, never broken by registration order.
//
// RUNTIME ERRORS:
//
// Runtime.FindAndCall never panics on user input. Unknown names, failed
// resolution and errors raised by the callee are reported through
// Context.Error, which forwards (line, column, message) to the ErrorSink and
// yields a null value. Evaluation of the query continues with the next
// entity.
//
// CONCURRENCY:
//
// Registry is a copy-on-write snapshot: readers load an immutable snapshot
// through an atomic pointer, writers are serialized by a mutex and publish a
// new snapshot. Resolution is safe from any goroutine while functions are
// being registered.
package functions
