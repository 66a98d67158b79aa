package expr

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"

	"github.com/trylock/viewer-sub002/internal/value"
)

// Logical operators. They are evaluated by the tree, not by the runtime.
const (
	OpAnd = "and"
	OpOr  = "or"
	OpNot = "not"
)

// Position is a 1-based line and column in query text.
type Position struct {
	Line   int
	Column int
}

// Pos returns p. Embedding Position gives every node its Pos method.
func (p Position) Pos() Position { return p }

func (p Position) String() string {
	return fmt.Sprintf("%d:%d", p.Line, p.Column)
}

// Node is a sealed interface over the expression node kinds.
type Node interface {
	Pos() Position
	String() string

	node() // Sealed - only the node kinds in this package implement it
}

// Constant is a literal or folded value.
type Constant struct {
	Position
	Value value.Value
}

// Attribute reads the named attribute of the evaluated entity.
type Attribute struct {
	Position
	Name string
}

// Unary applies "-" or "not" to one operand.
type Unary struct {
	Position
	Op      string
	Operand Node
}

// Binary applies an operator to two operands.
// Op is a comparison, arithmetic, "and" or "or".
type Binary struct {
	Position
	Op    string
	Left  Node
	Right Node
}

// Call invokes a named function.
type Call struct {
	Position
	Name string
	Args []Node
}

func (*Constant) node()  {}
func (*Attribute) node() {}
func (*Unary) node()     {}
func (*Binary) node()    {}
func (*Call) node()      {}

// NewConstant creates a Constant node.
func NewConstant(pos Position, v value.Value) *Constant {
	return &Constant{Position: pos, Value: v}
}

// NewAttribute creates an Attribute node.
func NewAttribute(pos Position, name string) *Attribute {
	return &Attribute{Position: pos, Name: name}
}

// NewUnary creates a Unary node.
func NewUnary(pos Position, op string, operand Node) *Unary {
	return &Unary{Position: pos, Op: op, Operand: operand}
}

// NewBinary creates a Binary node.
func NewBinary(pos Position, op string, left, right Node) *Binary {
	return &Binary{Position: pos, Op: op, Left: left, Right: right}
}

// NewCall creates a Call node.
func NewCall(pos Position, name string, args ...Node) *Call {
	return &Call{Position: pos, Name: name, Args: args}
}

func (n *Constant) String() string {
	v := n.Value
	if v.IsNull() {
		return "null"
	}
	switch v.Type() {
	case value.TypeString:
		return strconv.Quote(v.String())
	case value.TypeDateTime:
		return "DateTime(" + strconv.Quote(v.String()) + ")"
	case value.TypeReal:
		s := v.String()
		if !strings.ContainsAny(s, ".eEIN") { // keep 2.0 distinct from 2
			s += ".0"
		}
		return s
	default:
		return v.String()
	}
}

func (n *Attribute) String() string {
	return QuoteName(n.Name)
}

func (n *Unary) String() string {
	if n.Op == OpNot {
		return "(not " + n.Operand.String() + ")"
	}
	return "(" + n.Op + n.Operand.String() + ")"
}

func (n *Binary) String() string {
	return "(" + n.Left.String() + " " + n.Op + " " + n.Right.String() + ")"
}

func (n *Call) String() string {
	args := make([]string, len(n.Args))
	for i, a := range n.Args {
		args[i] = a.String()
	}
	return n.Name + "(" + strings.Join(args, ", ") + ")"
}

// IsPlainName reports whether name can be written without backticks:
// a letter or underscore followed by letters, digits or underscores.
func IsPlainName(name string) bool {
	if name == "" {
		return false
	}
	for i, r := range name {
		switch {
		case r == '_' || unicode.IsLetter(r):
		case i > 0 && unicode.IsDigit(r):
		default:
			return false
		}
	}
	return true
}

// QuoteName renders an attribute or view name, wrapping it in backticks
// when it is not a plain name.
func QuoteName(name string) string {
	if IsPlainName(name) {
		return name
	}
	return "`" + name + "`"
}
