// Package suggest computes completions for a query at a caret position.
//
// CARET:
//
// The caret splits the token stream. When it lies strictly inside a token,
// or touches the end of an identifier, keyword or literal, that token is the
// caret's parent: suggestions replace it and are filtered by the part of it
// before the caret. Otherwise suggestions are inserted at the caret. Tokens
// after the caret are ignored.
//
// COLLECTION:
//
// The collector walks the grammar ATN over the tokens before the caret.
// Whenever a token transition faces the caret it records the transition's
// token set together with the path of rules that led there. Rule
// invocations are memoized by (rule, token position), which keeps the walk
// polynomial.
//
// PROVIDERS:
//
// Each provider inspects the collected follow lists and contributes
// suggestions: keywords from the token sets, attribute names where an
// attribute may appear, view names where a view may appear and function
// names where a call may appear.
//
// RANKING:
//
// Suggestions are sorted by category (attribute, function, view, keyword,
// then anything else), keywords by their declaration order, then by name.
// When the caret has a parent, a no-op suggestion keeping its text is added
// unless another suggestion already produces that text.
package suggest
