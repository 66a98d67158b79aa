package querylang

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func kinds(tokens []Token) []TokenKind {
	out := make([]TokenKind, len(tokens))
	for i, t := range tokens {
		out[i] = t.Kind
	}
	return out
}

func TestTokenizeKinds(t *testing.T) {
	tests := []struct {
		input string
		want  []TokenKind
	}{
		{"", []TokenKind{EOF}},
		{"select \"a/*.jpg\"", []TokenKind{KwSelect, String, EOF}},
		{"SeLeCt x where Order by", []TokenKind{KwSelect, Ident, KwWhere, KwOrder, KwBy, EOF}},
		{"1 2.5 3e2 4.", []TokenKind{Int, Real, Real, Int, Unknown, EOF}},
		{"a<=b>=c!=d<>e<f>g=h", []TokenKind{
			Ident, LessEqual, Ident, GreaterEqual, Ident, NotEqual, Ident, NotEqual,
			Ident, Less, Ident, Greater, Ident, Equal, Ident, EOF,
		}},
		{"f(a, -b) * c / d + e", []TokenKind{
			Ident, LParen, Ident, Comma, Minus, Ident, RParen, Star, Ident, Slash, Ident, Plus, Ident, EOF,
		}},
		{"`file name` čas _x1", []TokenKind{ComplexIdent, Ident, Ident, EOF}},
		{"a # b", []TokenKind{Ident, Unknown, Ident, EOF}},
		{"\"unterminated", []TokenKind{String, EOF}},
		{"`open", []TokenKind{ComplexIdent, EOF}},
		{"and OR Not union INTERSECT except asc DESC", []TokenKind{
			KwAnd, KwOr, KwNot, KwUnion, KwIntersect, KwExcept, KwAsc, KwDesc, EOF,
		}},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.want, kinds(Tokenize(tt.input)))
		})
	}
}

func TestTokenizePositions(t *testing.T) {
	tokens := Tokenize("SELECT \"x\"\n  WHERE čas = 1")
	require.Len(t, tokens, 7)

	assert.Equal(t, Token{Kind: KwSelect, Text: "SELECT", Offset: 0, Line: 1, Column: 1}, tokens[0])
	assert.Equal(t, Token{Kind: String, Text: `"x"`, Offset: 7, Line: 1, Column: 8}, tokens[1])
	assert.Equal(t, Token{Kind: KwWhere, Text: "WHERE", Offset: 13, Line: 2, Column: 3}, tokens[2])
	assert.Equal(t, Token{Kind: Ident, Text: "čas", Offset: 19, Line: 2, Column: 9}, tokens[3])
	assert.Equal(t, 23, tokens[3].End())
	assert.Equal(t, Token{Kind: Equal, Text: "=", Offset: 24, Line: 2, Column: 13}, tokens[4])

	eof := tokens[6]
	assert.Equal(t, EOF, eof.Kind)
	assert.Equal(t, 27, eof.Offset)
	assert.Equal(t, 2, eof.Line)
	assert.Equal(t, 16, eof.Column)
}

func TestLookupKeyword(t *testing.T) {
	k, ok := LookupKeyword("intersect")
	assert.True(t, ok)
	assert.Equal(t, KwIntersect, k)

	_, ok = LookupKeyword("selection")
	assert.False(t, ok)
}

func TestTokenSet(t *testing.T) {
	s := NewTokenSet(Ident, KwSelect).With(EOF)

	assert.True(t, s.Has(EOF))
	assert.True(t, s.Has(Ident))
	assert.False(t, s.Has(String))
	assert.Equal(t, 3, s.Len())
	assert.Equal(t, []TokenKind{EOF, Ident, KwSelect}, s.Kinds())
	assert.Equal(t, "{EOF, ID, SELECT}", s.String())
	assert.Equal(t, 4, s.Union(NewTokenSet(String)).Len())
}

func TestTokenKindClasses(t *testing.T) {
	assert.True(t, KwNot.IsKeyword())
	assert.False(t, Ident.IsKeyword())
	assert.True(t, String.IsWordLike())
	assert.True(t, KwWhere.IsWordLike())
	assert.False(t, LParen.IsWordLike())
	assert.Equal(t, "'<='", LessEqual.String())
}
