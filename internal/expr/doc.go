// Package expr implements the expression trees of WHERE clauses and
// ORDER BY keys.
//
// A tree is built from five node kinds: Constant, Attribute, Unary, Binary
// and Call. Nodes are immutable and each carries the position of the source
// text it was parsed from, so runtime errors can be attributed to it.
//
// EVALUATION:
//
// Compile turns a tree into a Func evaluated against one entity at a time.
// Operators other than and/or/not, and all calls, are dispatched through
// functions.Runtime.FindAndCall, so overload resolution happens per entity on
// the actual argument types.
//
// Null is "unknown", and the logical operators treat it as false:
//
//	a and b   left null -> left; right null -> right; else and(a, b)
//	a or b    left non-null -> left; else right
//	not a     null -> 1; non-null -> null Integer
//
// A predicate holds for an entity iff the value is non-null.
//
// FOLDING:
//
// Fold rewrites constant subtrees into Constant nodes by evaluating them once.
// It never changes the result of evaluation: for every tree t and entity e,
// Compile(Fold(t))(e) equals Compile(t)(e). Functions are pure, so skipping
// the right operand of a short-circuited and/or is not observable. Calls to
// functions marked UsesEntity are never folded, and neither are calls that
// raise a runtime error: the error belongs to the entities that reach them.
package expr
