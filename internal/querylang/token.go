package querylang

import (
	"fmt"
	"math/bits"
	"strings"
)

// TokenKind identifies the lexical class of a token.
type TokenKind int

const (
	EOF TokenKind = iota
	Ident
	ComplexIdent // `backtick quoted`
	Int
	Real
	String

	// Keywords. Matched case-insensitively.
	KwSelect
	KwWhere
	KwOrder
	KwBy
	KwAsc
	KwDesc
	KwUnion
	KwIntersect
	KwExcept
	KwAnd
	KwOr
	KwNot

	LParen
	RParen
	Comma
	Equal
	NotEqual
	Less
	LessEqual
	Greater
	GreaterEqual
	Plus
	Minus
	Star
	Slash

	// Unknown is any character no other rule matches.
	Unknown

	numTokenKinds
)

var tokenNames = [...]string{
	EOF:          "EOF",
	Ident:        "ID",
	ComplexIdent: "COMPLEX_ID",
	Int:          "INT",
	Real:         "REAL",
	String:       "STRING",
	KwSelect:     "SELECT",
	KwWhere:      "WHERE",
	KwOrder:      "ORDER",
	KwBy:         "BY",
	KwAsc:        "ASC",
	KwDesc:       "DESC",
	KwUnion:      "UNION",
	KwIntersect:  "INTERSECT",
	KwExcept:     "EXCEPT",
	KwAnd:        "AND",
	KwOr:         "OR",
	KwNot:        "NOT",
	LParen:       "'('",
	RParen:       "')'",
	Comma:        "','",
	Equal:        "'='",
	NotEqual:     "'!='",
	Less:         "'<'",
	LessEqual:    "'<='",
	Greater:      "'>'",
	GreaterEqual: "'>='",
	Plus:         "'+'",
	Minus:        "'-'",
	Star:         "'*'",
	Slash:        "'/'",
	Unknown:      "UNKNOWN",
}

func (k TokenKind) String() string {
	if k < 0 || k >= numTokenKinds {
		return fmt.Sprintf("TokenKind(%d)", int(k))
	}
	return tokenNames[k]
}

// IsKeyword reports whether k is a keyword.
func (k TokenKind) IsKeyword() bool {
	return k >= KwSelect && k <= KwNot
}

// IsWordLike reports whether tokens of kind k read as a word: identifiers,
// keywords and literals. A caret touching the end of such a token extends it.
func (k TokenKind) IsWordLike() bool {
	switch k {
	case Ident, ComplexIdent, Int, Real, String:
		return true
	}
	return k.IsKeyword()
}

// Keywords lists the keyword kinds in declaration order.
var Keywords = []TokenKind{
	KwSelect, KwWhere, KwOrder, KwBy, KwAsc, KwDesc,
	KwUnion, KwIntersect, KwExcept, KwAnd, KwOr, KwNot,
}

var keywordByName = func() map[string]TokenKind {
	m := make(map[string]TokenKind, len(Keywords))
	for _, k := range Keywords {
		m[k.String()] = k
	}
	return m
}()

// LookupKeyword returns the keyword spelled by word, ignoring case.
func LookupKeyword(word string) (TokenKind, bool) {
	k, ok := keywordByName[strings.ToUpper(word)]
	return k, ok
}

// Token is one lexeme of query text.
type Token struct {
	Kind TokenKind

	// Text is the raw source text, including quotes.
	Text string

	// Offset is the byte offset of the first character.
	Offset int

	// Line and Column are 1-based. Column counts characters.
	Line   int
	Column int
}

// End returns the byte offset just past the token.
func (t Token) End() int {
	return t.Offset + len(t.Text)
}

func (t Token) String() string {
	if t.Kind == EOF {
		return "end of input"
	}
	return fmt.Sprintf("%q", t.Text)
}

// TokenSet is a set of token kinds.
type TokenSet uint64

// NewTokenSet creates a set containing kinds.
func NewTokenSet(kinds ...TokenKind) TokenSet {
	var s TokenSet
	for _, k := range kinds {
		s = s.With(k)
	}
	return s
}

// With returns s with k added.
func (s TokenSet) With(k TokenKind) TokenSet {
	return s | 1<<uint(k)
}

// Union returns the kinds in s or o.
func (s TokenSet) Union(o TokenSet) TokenSet {
	return s | o
}

// Has reports whether k is in s.
func (s TokenSet) Has(k TokenKind) bool {
	return s&(1<<uint(k)) != 0
}

// Len returns the number of kinds in s.
func (s TokenSet) Len() int {
	return bits.OnesCount64(uint64(s))
}

// Kinds returns the members of s in ascending order.
func (s TokenSet) Kinds() []TokenKind {
	kinds := make([]TokenKind, 0, s.Len())
	for k := TokenKind(0); k < numTokenKinds; k++ {
		if s.Has(k) {
			kinds = append(kinds, k)
		}
	}
	return kinds
}

func (s TokenSet) String() string {
	names := make([]string, 0, s.Len())
	for _, k := range s.Kinds() {
		names = append(names, k.String())
	}
	return "{" + strings.Join(names, ", ") + "}"
}
