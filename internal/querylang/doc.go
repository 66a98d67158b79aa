// Package querylang implements the surface syntax of the query language:
// the lexer, a recursive-descent parser producing an AST, and the grammar as
// an explicit augmented transition network (ATN).
//
// GRAMMAR:
//
//	query         : unionExpr EOF
//	unionExpr     : intersectExpr ((UNION | EXCEPT) intersectExpr)*
//	intersectExpr : queryFactor (INTERSECT queryFactor)*
//	queryFactor   : select | '(' unionExpr ')' | viewName
//	select        : SELECT source (WHERE expression)? (ORDER BY orderByList)?
//	source        : STRING | viewName
//	viewName      : ID | COMPLEX_ID
//	orderByList   : orderByKey (',' orderByKey)*
//	orderByKey    : expression (ASC | DESC)?
//	expression    : andExpr (OR andExpr)*
//	andExpr       : notExpr (AND notExpr)*
//	notExpr       : NOT notExpr | comparison
//	comparison    : additive (compOp additive)*
//	additive      : multiplicative (('+' | '-') multiplicative)*
//	multiplicative: unary (('*' | '/') unary)*
//	unary         : '-' unary | factor
//	factor        : literal | functionCall | attribute | '(' expression ')'
//	functionCall  : ID '(' argumentList? ')'
//	argumentList  : expression (',' expression)*
//	attribute     : ID | COMPLEX_ID
//	literal       : INT | REAL | STRING
//
// Keywords are case-insensitive. Strings are double quoted with backslash
// escapes. Backtick quoted identifiers (COMPLEX_ID) may contain any
// character except a backtick. "<>" is a synonym of "!=".
//
// The parser is used for compilation. The ATN accepts exactly the same
// token sequences and exists for introspection: the suggestion engine walks
// it to find which tokens may follow a prefix of the input.
package querylang
