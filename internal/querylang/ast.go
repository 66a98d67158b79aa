package querylang

import (
	"strconv"
	"strings"

	"github.com/trylock/viewer-sub002/internal/expr"
)

// SetOperator combines two queries.
type SetOperator int

const (
	Union SetOperator = iota
	Intersect
	Except
)

func (op SetOperator) String() string {
	switch op {
	case Union:
		return "UNION"
	case Intersect:
		return "INTERSECT"
	case Except:
		return "EXCEPT"
	default:
		return "SetOperator(" + strconv.Itoa(int(op)) + ")"
	}
}

// Query is a sealed interface over the query AST nodes.
type Query interface {
	Pos() expr.Position
	String() string

	query() // Sealed - only the node kinds in this package implement it
}

// Select is SELECT source [WHERE expr] [ORDER BY keys].
type Select struct {
	expr.Position
	Source  Source
	Where   expr.Node // nil when absent
	OrderBy []OrderKey
}

// Source is a glob pattern or a view name. Exactly one is set.
type Source struct {
	expr.Position
	Pattern string
	View    string
}

// IsView reports whether the source names a view.
func (s Source) IsView() bool {
	return s.View != ""
}

// OrderKey is one ORDER BY key.
type OrderKey struct {
	Expr       expr.Node
	Descending bool
}

// SetOp is left op right.
type SetOp struct {
	expr.Position
	Op    SetOperator
	Left  Query
	Right Query
}

// ViewRef is a bare view name used as a whole query.
type ViewRef struct {
	expr.Position
	Name string
}

func (*Select) query()  {}
func (*SetOp) query()   {}
func (*ViewRef) query() {}

func (s Source) String() string {
	if s.IsView() {
		return expr.QuoteName(s.View)
	}
	return strconv.Quote(s.Pattern)
}

func (q *Select) String() string {
	var b strings.Builder
	b.WriteString("SELECT ")
	b.WriteString(q.Source.String())
	if q.Where != nil {
		b.WriteString(" WHERE ")
		b.WriteString(q.Where.String())
	}
	for i, k := range q.OrderBy {
		if i == 0 {
			b.WriteString(" ORDER BY ")
		} else {
			b.WriteString(", ")
		}
		b.WriteString(k.Expr.String())
		if k.Descending {
			b.WriteString(" DESC")
		}
	}
	return b.String()
}

func (q *SetOp) String() string {
	return "(" + q.Left.String() + " " + q.Op.String() + " " + q.Right.String() + ")"
}

func (q *ViewRef) String() string {
	return expr.QuoteName(q.Name)
}

// Views returns the view names q references, in order of first appearance.
func Views(q Query) []string {
	var names []string
	seen := map[string]bool{}
	add := func(name string) {
		if !seen[name] {
			seen[name] = true
			names = append(names, name)
		}
	}
	var walk func(Query)
	walk = func(q Query) {
		switch q := q.(type) {
		case *Select:
			if q.Source.IsView() {
				add(q.Source.View)
			}
		case *ViewRef:
			add(q.Name)
		case *SetOp:
			walk(q.Left)
			walk(q.Right)
		}
	}
	walk(q)
	return names
}
