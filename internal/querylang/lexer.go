package querylang

import (
	"fmt"

	"github.com/alecthomas/participle/v2/lexer"
)

// Rules are tried in order; the first match wins. Unknown guarantees every
// input lexes, so the lexer itself never fails.
var queryLexer = lexer.MustSimple([]lexer.SimpleRule{
	{Name: "Whitespace", Pattern: `\s+`},
	{Name: "Real", Pattern: `\d+\.\d+(?:[eE][-+]?\d+)?|\d+[eE][-+]?\d+`},
	{Name: "Int", Pattern: `\d+`},
	{Name: "String", Pattern: `"(?:\\.|[^"\\])*"?`},
	{Name: "ComplexIdent", Pattern: "`[^`]*`?"},
	{Name: "Ident", Pattern: `[\p{L}_][\p{L}\p{N}_]*`},
	{Name: "Operator", Pattern: `<=|>=|!=|<>|[-+*/=<>(),]`},
	{Name: "Unknown", Pattern: `.|\n`},
})

var (
	symbols        = queryLexer.Symbols()
	whitespaceType = symbols["Whitespace"]
	ruleKinds      = map[lexer.TokenType]TokenKind{
		symbols["Real"]:         Real,
		symbols["Int"]:          Int,
		symbols["String"]:       String,
		symbols["ComplexIdent"]: ComplexIdent,
		symbols["Ident"]:        Ident,
		symbols["Unknown"]:      Unknown,
	}
	operatorKinds = map[string]TokenKind{
		"(":  LParen,
		")":  RParen,
		",":  Comma,
		"=":  Equal,
		"!=": NotEqual,
		"<>": NotEqual,
		"<":  Less,
		"<=": LessEqual,
		">":  Greater,
		">=": GreaterEqual,
		"+":  Plus,
		"-":  Minus,
		"*":  Star,
		"/":  Slash,
	}
	operatorType = symbols["Operator"]
)

// Tokenize splits text into tokens, dropping whitespace. The result always
// ends with an EOF token positioned at the end of text.
func Tokenize(text string) []Token {
	lex, err := queryLexer.LexString("", text)
	if err != nil {
		panic(fmt.Sprintf("querylang: lexer rejected input: %v", err))
	}
	raw, err := lexer.ConsumeAll(lex)
	if err != nil {
		panic(fmt.Sprintf("querylang: lexer rejected input: %v", err))
	}

	tokens := make([]Token, 0, len(raw))
	for _, t := range raw {
		if t.Type == whitespaceType || t.EOF() {
			continue
		}
		tok := Token{
			Text:   t.Value,
			Offset: t.Pos.Offset,
			Line:   t.Pos.Line,
			Column: t.Pos.Column,
		}
		switch {
		case t.Type == operatorType:
			tok.Kind = operatorKinds[t.Value]
		default:
			tok.Kind = ruleKinds[t.Type]
			if tok.Kind == Ident {
				if kw, ok := LookupKeyword(t.Value); ok {
					tok.Kind = kw
				}
			}
		}
		tokens = append(tokens, tok)
	}

	line, column := endPosition(text)
	return append(tokens, Token{Kind: EOF, Offset: len(text), Line: line, Column: column})
}

// endPosition returns the line and column just past the end of text.
func endPosition(text string) (line, column int) {
	line, column = 1, 1
	for _, r := range text {
		if r == '\n' {
			line++
			column = 1
		} else {
			column++
		}
	}
	return line, column
}
