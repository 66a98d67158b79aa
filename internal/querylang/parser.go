package querylang

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/trylock/viewer-sub002/internal/expr"
	"github.com/trylock/viewer-sub002/internal/value"
)

// SyntaxError is the first syntax error in query text.
type SyntaxError struct {
	Line    int
	Column  int
	Offset  int
	Message string
}

// Error implements the error interface.
func (e *SyntaxError) Error() string {
	return fmt.Sprintf("%d:%d: %s", e.Line, e.Column, e.Message)
}

// Parse parses query text. Parsing stops at the first syntax error, which
// is returned as a *SyntaxError.
func Parse(text string) (Query, error) {
	p := &parser{tokens: Tokenize(text)}
	q, err := p.unionExpr()
	if err != nil {
		return nil, err
	}
	if tok := p.peek(); tok.Kind != EOF {
		return nil, p.unexpected(tok, "end of query")
	}
	return q, nil
}

// ParseExpression parses a standalone expression, as used in WHERE.
func ParseExpression(text string) (expr.Node, error) {
	p := &parser{tokens: Tokenize(text)}
	n, err := p.expression()
	if err != nil {
		return nil, err
	}
	if tok := p.peek(); tok.Kind != EOF {
		return nil, p.unexpected(tok, "end of expression")
	}
	return n, nil
}

type parser struct {
	tokens []Token
	pos    int
}

func (p *parser) peek() Token {
	return p.tokens[p.pos]
}

// next consumes a token. The trailing EOF is never consumed.
func (p *parser) next() Token {
	tok := p.tokens[p.pos]
	if tok.Kind != EOF {
		p.pos++
	}
	return tok
}

func (p *parser) accept(kinds ...TokenKind) (Token, bool) {
	tok := p.peek()
	for _, k := range kinds {
		if tok.Kind == k {
			return p.next(), true
		}
	}
	return tok, false
}

func (p *parser) expect(kind TokenKind, what string) (Token, error) {
	if tok, ok := p.accept(kind); ok {
		return tok, nil
	}
	return Token{}, p.unexpected(p.peek(), what)
}

func (p *parser) unexpected(tok Token, expected string) error {
	if tok.Kind == Unknown {
		return errorAt(tok, fmt.Sprintf("unexpected character %s", tok))
	}
	return errorAt(tok, fmt.Sprintf("unexpected %s, expected %s", tok, expected))
}

func errorAt(tok Token, message string) *SyntaxError {
	return &SyntaxError{Line: tok.Line, Column: tok.Column, Offset: tok.Offset, Message: message}
}

func position(tok Token) expr.Position {
	return expr.Position{Line: tok.Line, Column: tok.Column}
}

// unionExpr : intersectExpr ((UNION | EXCEPT) intersectExpr)*
func (p *parser) unionExpr() (Query, error) {
	left, err := p.intersectExpr()
	if err != nil {
		return nil, err
	}
	for {
		op, ok := p.accept(KwUnion, KwExcept)
		if !ok {
			return left, nil
		}
		right, err := p.intersectExpr()
		if err != nil {
			return nil, err
		}
		setOp := Union
		if op.Kind == KwExcept {
			setOp = Except
		}
		left = &SetOp{Position: position(op), Op: setOp, Left: left, Right: right}
	}
}

// intersectExpr : queryFactor (INTERSECT queryFactor)*
func (p *parser) intersectExpr() (Query, error) {
	left, err := p.queryFactor()
	if err != nil {
		return nil, err
	}
	for {
		op, ok := p.accept(KwIntersect)
		if !ok {
			return left, nil
		}
		right, err := p.queryFactor()
		if err != nil {
			return nil, err
		}
		left = &SetOp{Position: position(op), Op: Intersect, Left: left, Right: right}
	}
}

// queryFactor : select | '(' unionExpr ')' | viewName
func (p *parser) queryFactor() (Query, error) {
	tok := p.peek()
	switch tok.Kind {
	case KwSelect:
		return p.selectQuery()
	case LParen:
		p.next()
		q, err := p.unionExpr()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(RParen, "')'"); err != nil {
			return nil, err
		}
		return q, nil
	case Ident, ComplexIdent:
		name, err := p.name()
		if err != nil {
			return nil, err
		}
		return &ViewRef{Position: position(tok), Name: name}, nil
	default:
		return nil, p.unexpected(tok, "SELECT, '(' or view name")
	}
}

// selectQuery : SELECT source (WHERE expression)? (ORDER BY orderByList)?
func (p *parser) selectQuery() (Query, error) {
	start := p.next()
	q := &Select{Position: position(start)}

	tok := p.peek()
	q.Source.Position = position(tok)
	switch tok.Kind {
	case String:
		pattern, err := p.stringLiteral()
		if err != nil {
			return nil, err
		}
		q.Source.Pattern = pattern
	case Ident, ComplexIdent:
		name, err := p.name()
		if err != nil {
			return nil, err
		}
		q.Source.View = name
	default:
		return nil, p.unexpected(tok, "pattern or view name")
	}

	if _, ok := p.accept(KwWhere); ok {
		where, err := p.expression()
		if err != nil {
			return nil, err
		}
		q.Where = where
	}

	if _, ok := p.accept(KwOrder); ok {
		if _, err := p.expect(KwBy, "BY"); err != nil {
			return nil, err
		}
		for {
			key, err := p.expression()
			if err != nil {
				return nil, err
			}
			dir, _ := p.accept(KwAsc, KwDesc)
			q.OrderBy = append(q.OrderBy, OrderKey{Expr: key, Descending: dir.Kind == KwDesc})
			if _, ok := p.accept(Comma); !ok {
				break
			}
		}
	}
	return q, nil
}

// expression : andExpr (OR andExpr)*
func (p *parser) expression() (expr.Node, error) {
	return p.binaryLevel(p.andExpr, orOps)
}

// andExpr : notExpr (AND notExpr)*
func (p *parser) andExpr() (expr.Node, error) {
	return p.binaryLevel(p.notExpr, andOps)
}

// notExpr : NOT notExpr | comparison
func (p *parser) notExpr() (expr.Node, error) {
	if tok, ok := p.accept(KwNot); ok {
		operand, err := p.notExpr()
		if err != nil {
			return nil, err
		}
		return expr.NewUnary(position(tok), expr.OpNot, operand), nil
	}
	return p.comparison()
}

// Operator tokens per precedence level, mapped to runtime operator names.
var (
	orOps  = map[TokenKind]string{KwOr: expr.OpOr}
	andOps = map[TokenKind]string{KwAnd: expr.OpAnd}

	comparisonOps = map[TokenKind]string{
		Equal:        "=",
		NotEqual:     "!=",
		Less:         "<",
		LessEqual:    "<=",
		Greater:      ">",
		GreaterEqual: ">=",
	}

	additiveOps       = map[TokenKind]string{Plus: "+", Minus: "-"}
	multiplicativeOps = map[TokenKind]string{Star: "*", Slash: "/"}
)

// comparison : additive (compOp additive)*
func (p *parser) comparison() (expr.Node, error) {
	return p.binaryLevel(p.additive, comparisonOps)
}

// additive : multiplicative (('+' | '-') multiplicative)*
func (p *parser) additive() (expr.Node, error) {
	return p.binaryLevel(p.multiplicative, additiveOps)
}

// multiplicative : unary (('*' | '/') unary)*
func (p *parser) multiplicative() (expr.Node, error) {
	return p.binaryLevel(p.unary, multiplicativeOps)
}

// binaryLevel parses a left-associative chain of operand separated by ops.
func (p *parser) binaryLevel(operand func() (expr.Node, error), ops map[TokenKind]string) (expr.Node, error) {
	left, err := operand()
	if err != nil {
		return nil, err
	}
	for {
		tok := p.peek()
		op, ok := ops[tok.Kind]
		if !ok {
			return left, nil
		}
		p.next()
		right, err := operand()
		if err != nil {
			return nil, err
		}
		left = expr.NewBinary(position(tok), op, left, right)
	}
}

// unary : '-' unary | factor
func (p *parser) unary() (expr.Node, error) {
	if tok, ok := p.accept(Minus); ok {
		operand, err := p.unary()
		if err != nil {
			return nil, err
		}
		return expr.NewUnary(position(tok), "-", operand), nil
	}
	return p.factor()
}

// factor : literal | functionCall | attribute | '(' expression ')'
func (p *parser) factor() (expr.Node, error) {
	tok := p.peek()
	pos := position(tok)
	switch tok.Kind {
	case Int:
		p.next()
		n, err := strconv.ParseInt(tok.Text, 10, 64)
		if err != nil {
			return nil, errorAt(tok, fmt.Sprintf("integer literal %s out of range", tok.Text))
		}
		return expr.NewConstant(pos, value.NewInteger(n)), nil
	case Real:
		p.next()
		f, err := strconv.ParseFloat(tok.Text, 64)
		if err != nil {
			return nil, errorAt(tok, fmt.Sprintf("real literal %s out of range", tok.Text))
		}
		return expr.NewConstant(pos, value.NewReal(f)), nil
	case String:
		s, err := p.stringLiteral()
		if err != nil {
			return nil, err
		}
		return expr.NewConstant(pos, value.NewString(s)), nil
	case Ident:
		p.next()
		if _, ok := p.accept(LParen); ok {
			args, err := p.argumentList()
			if err != nil {
				return nil, err
			}
			return expr.NewCall(pos, tok.Text, args...), nil
		}
		return expr.NewAttribute(pos, tok.Text), nil
	case ComplexIdent:
		name, err := p.name()
		if err != nil {
			return nil, err
		}
		return expr.NewAttribute(pos, name), nil
	case LParen:
		p.next()
		inner, err := p.expression()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(RParen, "')'"); err != nil {
			return nil, err
		}
		return inner, nil
	default:
		return nil, p.unexpected(tok, "expression")
	}
}

// argumentList : expression (',' expression)*, after '(' and through ')'.
func (p *parser) argumentList() ([]expr.Node, error) {
	if _, ok := p.accept(RParen); ok {
		return nil, nil
	}
	var args []expr.Node
	for {
		arg, err := p.expression()
		if err != nil {
			return nil, err
		}
		args = append(args, arg)
		if _, ok := p.accept(Comma); !ok {
			break
		}
	}
	if _, err := p.expect(RParen, "',' or ')'"); err != nil {
		return nil, err
	}
	return args, nil
}

// name consumes an identifier or a backtick quoted identifier.
func (p *parser) name() (string, error) {
	tok := p.next()
	if tok.Kind == Ident {
		return tok.Text, nil
	}
	name, err := UnquoteName(tok.Text)
	if err != nil {
		return "", errorAt(tok, err.Error())
	}
	return name, nil
}

func (p *parser) stringLiteral() (string, error) {
	tok := p.next()
	s, err := UnquoteString(tok.Text)
	if err != nil {
		return "", errorAt(tok, err.Error())
	}
	return s, nil
}

// UnquoteName strips the backticks of a quoted identifier.
func UnquoteName(text string) (string, error) {
	if len(text) < 2 || !strings.HasPrefix(text, "`") || !strings.HasSuffix(text, "`") {
		return "", fmt.Errorf("unterminated quoted identifier %s", text)
	}
	name := text[1 : len(text)-1]
	if name == "" {
		return "", fmt.Errorf("empty quoted identifier")
	}
	return name, nil
}

// UnquoteString decodes a double quoted string literal.
func UnquoteString(text string) (string, error) {
	if len(text) < 2 || !strings.HasSuffix(text, `"`) || !closedString(text) {
		return "", fmt.Errorf("unterminated string literal")
	}
	s, err := strconv.Unquote(text)
	if err != nil {
		return "", fmt.Errorf("invalid string literal %s", text)
	}
	return s, nil
}

// closedString reports whether the final quote of text is not escaped.
func closedString(text string) bool {
	backslashes := 0
	for i := len(text) - 2; i > 0 && text[i] == '\\'; i-- {
		backslashes++
	}
	return backslashes%2 == 0
}
