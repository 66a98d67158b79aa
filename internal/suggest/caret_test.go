package suggest

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trylock/viewer-sub002/internal/querylang"
)

func TestSpliceCaret(t *testing.T) {
	tests := []struct {
		text   string
		offset int
		index  int
		parent string // "" for none
		prefix string
	}{
		{"", 0, 0, "", ""},
		{"SELECT", 0, 0, "", ""},
		{"SELECT", 3, 0, "SELECT", "SEL"},
		{"SELECT", 6, 0, "SELECT", "SELECT"},
		{"SELECT ", 7, 1, "", ""},
		{"a(", 1, 0, "a", "a"},
		{"a(", 2, 2, "", ""},
		{"a >= b", 3, 1, ">=", ">"},
		{"a >= b", 4, 2, "", ""},
		{"a >= b", 2, 1, "", ""},
		{"`my view` x", 9, 0, "`my view`", "my view"},
		{"`my vi", 6, 0, "`my vi", "my vi"},
		{"`", 1, 0, "`", ""},
		{`"ab"`, 2, 0, `"ab"`, "a"},
		{"a 12", 4, 1, "12", "12"},
	}
	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			c := SpliceCaret(querylang.Tokenize(tt.text), tt.offset)
			assert.Equal(t, tt.index, c.Index, "index")
			if tt.parent == "" {
				assert.Nil(t, c.Parent)
				assert.Equal(t, tt.offset, c.Start())
				assert.Equal(t, tt.offset, c.End())
			} else {
				require.NotNil(t, c.Parent)
				assert.Equal(t, tt.parent, c.Parent.Text)
				assert.Equal(t, c.Parent.Offset, c.Start())
				assert.Equal(t, c.Parent.End(), c.End())
			}
			assert.Equal(t, tt.prefix, c.Prefix())
		})
	}
}

func TestCollectFollowLists(t *testing.T) {
	g := querylang.Grammar()
	union := func(fs []FollowList) querylang.TokenSet {
		var s querylang.TokenSet
		for _, f := range fs {
			s = s.Union(f.Tokens)
		}
		return s
	}

	start := Collect(g, nil)
	assert.Equal(t, querylang.NewTokenSet(querylang.KwSelect, querylang.LParen, querylang.Ident, querylang.ComplexIdent), union(start))
	for _, f := range start {
		assert.Equal(t, querylang.RuleQuery, f.Rules[0])
	}

	afterSelect := Collect(g, []querylang.TokenKind{querylang.KwSelect})
	assert.Equal(t, querylang.NewTokenSet(querylang.String, querylang.Ident, querylang.ComplexIdent), union(afterSelect))

	where := Collect(g, []querylang.TokenKind{querylang.KwSelect, querylang.String, querylang.KwWhere})
	var attr, call bool
	for _, f := range where {
		attr = attr || f.Innermost() == querylang.RuleAttribute
		call = call || f.Innermost() == querylang.RuleFunctionCall
		assert.True(t, f.InRule(querylang.RuleExpression))
	}
	assert.True(t, attr)
	assert.True(t, call)

	assert.Empty(t, Collect(g, []querylang.TokenKind{querylang.RParen}), "invalid prefix")
	assert.Empty(t, Collect(g, []querylang.TokenKind{querylang.KwSelect, querylang.String, querylang.EOF}), "complete query")
}

func TestCollectDeepNesting(t *testing.T) {
	input := []querylang.TokenKind{querylang.KwSelect, querylang.String, querylang.KwWhere}
	for range 50 {
		input = append(input, querylang.LParen, querylang.KwNot, querylang.Minus)
	}
	follow := Collect(querylang.Grammar(), input)
	require.NotEmpty(t, follow)
}
