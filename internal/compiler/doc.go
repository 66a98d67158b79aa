// Package compiler turns query text into an executable *query.Query.
//
// COMPILATION:
//
//  1. Parse the text. Parse results are cached by text.
//  2. Resolve sources. A pattern goes to the QueryFactory; a view name is
//     looked up in the ViewRepository and its text compiled recursively.
//     Cyclic view references are compile errors.
//  3. Check expressions. Unknown functions, wrong arities and calls that can
//     never resolve for their statically known argument types are compile
//     errors.
//  4. Fold constants. A constant call that fails is left in place and
//     reports its error at runtime.
//  5. Attach the WHERE predicate and the ORDER BY comparer, then combine set
//     operators as the parser grouped them.
//
// ERRORS:
//
// Compile errors go to ErrorListener.OnCompilerError and Compile returns
// nil. Runtime errors raised while the query is enumerated go to
// OnRuntimeError once per distinct (line, column, message) for the lifetime
// of the compiled query. BeforeCompilation and AfterCompilation always come
// in pairs around one Compile call.
//
// A Compiler is safe for concurrent use.
package compiler
