package suggest

import (
	"github.com/trylock/viewer-sub002/internal/querylang"
)

// Caret is a caret position spliced into a token stream.
type Caret struct {
	Offset int // byte offset in the text

	// Index is the position of the caret in the token stream: the number
	// of tokens before it.
	Index int

	// Parent is the token the caret is in, if any.
	Parent *querylang.Token
}

// Prefix returns the part of the parent before the caret, without its
// quotes. It is empty without a parent.
func (c Caret) Prefix() string {
	if c.Parent == nil {
		return ""
	}
	p := c.Parent.Text[:c.Offset-c.Parent.Offset]
	switch c.Parent.Kind {
	case querylang.ComplexIdent, querylang.String:
		quote := c.Parent.Text[:1]
		p = p[1:]
		if c.Offset == c.Parent.End() && len(p) > 0 && p[len(p)-1:] == quote {
			p = p[:len(p)-1]
		}
	}
	return p
}

// Start returns the offset suggestions replace from.
func (c Caret) Start() int {
	if c.Parent == nil {
		return c.Offset
	}
	return c.Parent.Offset
}

// End returns the offset suggestions replace to.
func (c Caret) End() int {
	if c.Parent == nil {
		return c.Offset
	}
	return c.Parent.End()
}

// SpliceCaret locates offset in tokens, which must come from
// querylang.Tokenize and end with EOF.
func SpliceCaret(tokens []querylang.Token, offset int) Caret {
	for i, tok := range tokens {
		if tok.Kind == querylang.EOF || offset < tok.Offset {
			return Caret{Offset: offset, Index: i}
		}
		inside := offset > tok.Offset && offset < tok.End()
		atEnd := offset == tok.End() && tok.Kind.IsWordLike()
		if inside || atEnd {
			return Caret{Offset: offset, Index: i, Parent: &tokens[i]}
		}
		if offset == tok.Offset {
			return Caret{Offset: offset, Index: i}
		}
	}
	return Caret{Offset: offset, Index: len(tokens)}
}
