package querylang

import (
	"fmt"
	"slices"
)

// Rule identifies a grammar rule.
type Rule int

const (
	RuleQuery Rule = iota
	RuleUnionExpr
	RuleIntersectExpr
	RuleQueryFactor
	RuleSelect
	RuleSource
	RuleViewName
	RuleOrderByList
	RuleOrderByKey
	RuleExpression
	RuleAndExpr
	RuleNotExpr
	RuleComparison
	RuleAdditive
	RuleMultiplicative
	RuleUnary
	RuleFactor
	RuleFunctionCall
	RuleArgumentList
	RuleAttribute
	RuleLiteral

	numRules
)

var ruleNames = [...]string{
	RuleQuery:          "query",
	RuleUnionExpr:      "unionExpr",
	RuleIntersectExpr:  "intersectExpr",
	RuleQueryFactor:    "queryFactor",
	RuleSelect:         "select",
	RuleSource:         "source",
	RuleViewName:       "viewName",
	RuleOrderByList:    "orderByList",
	RuleOrderByKey:     "orderByKey",
	RuleExpression:     "expression",
	RuleAndExpr:        "andExpr",
	RuleNotExpr:        "notExpr",
	RuleComparison:     "comparison",
	RuleAdditive:       "additive",
	RuleMultiplicative: "multiplicative",
	RuleUnary:          "unary",
	RuleFactor:         "factor",
	RuleFunctionCall:   "functionCall",
	RuleArgumentList:   "argumentList",
	RuleAttribute:      "attribute",
	RuleLiteral:        "literal",
}

func (r Rule) String() string {
	if r < 0 || r >= numRules {
		return fmt.Sprintf("Rule(%d)", int(r))
	}
	return ruleNames[r]
}

// StateKind distinguishes ATN states.
type StateKind int

const (
	StateBasic StateKind = iota
	StateRuleStart
	StateRuleStop
)

// TransitionKind distinguishes ATN transitions.
type TransitionKind int

const (
	// TransitionEpsilon moves without consuming input.
	TransitionEpsilon TransitionKind = iota

	// TransitionAtom consumes one token whose kind is in Tokens.
	TransitionAtom

	// TransitionRule enters Rule; on its stop state, continue at Follow.
	TransitionRule
)

// Transition is an edge of the ATN.
type Transition struct {
	Kind   TransitionKind
	Target *State
	Tokens TokenSet // TransitionAtom
	Rule   Rule     // TransitionRule
	Follow *State   // TransitionRule
}

// State is a node of the ATN.
type State struct {
	ID          int
	Kind        StateKind
	Rule        Rule
	Transitions []Transition
}

// ATN is the grammar of the query language as an augmented transition
// network: one sub-network per rule, from its start state to its stop state.
type ATN struct {
	States []*State
	starts [numRules]*State
	stops  [numRules]*State
}

// RuleStart returns the start state of r.
func (a *ATN) RuleStart(r Rule) *State { return a.starts[r] }

// RuleStop returns the stop state of r.
func (a *ATN) RuleStop(r Rule) *State { return a.stops[r] }

var grammar = buildGrammar()

// Grammar returns the ATN of the query language. It is shared and must not
// be modified.
func Grammar() *ATN {
	return grammar
}

// fragment is a partial network with one entry and one exit.
type fragment struct {
	start, end *State
}

type atnBuilder struct {
	atn  *ATN
	rule Rule // rule being defined
}

func (b *atnBuilder) state(kind StateKind) *State {
	s := &State{ID: len(b.atn.States), Kind: kind, Rule: b.rule}
	b.atn.States = append(b.atn.States, s)
	return s
}

func epsilon(from, to *State) {
	from.Transitions = append(from.Transitions, Transition{Kind: TransitionEpsilon, Target: to})
}

func (b *atnBuilder) tok(kinds ...TokenKind) fragment {
	s, e := b.state(StateBasic), b.state(StateBasic)
	s.Transitions = append(s.Transitions, Transition{Kind: TransitionAtom, Target: e, Tokens: NewTokenSet(kinds...)})
	return fragment{s, e}
}

func (b *atnBuilder) ref(r Rule) fragment {
	s, e := b.state(StateBasic), b.state(StateBasic)
	s.Transitions = append(s.Transitions, Transition{Kind: TransitionRule, Target: b.atn.starts[r], Rule: r, Follow: e})
	return fragment{s, e}
}

func (b *atnBuilder) seq(parts ...fragment) fragment {
	for i := 1; i < len(parts); i++ {
		epsilon(parts[i-1].end, parts[i].start)
	}
	return fragment{parts[0].start, parts[len(parts)-1].end}
}

func (b *atnBuilder) alt(parts ...fragment) fragment {
	s, e := b.state(StateBasic), b.state(StateBasic)
	for _, p := range parts {
		epsilon(s, p.start)
		epsilon(p.end, e)
	}
	return fragment{s, e}
}

func (b *atnBuilder) opt(p fragment) fragment {
	s, e := b.state(StateBasic), b.state(StateBasic)
	epsilon(s, p.start)
	epsilon(s, e)
	epsilon(p.end, e)
	return fragment{s, e}
}

func (b *atnBuilder) star(p fragment) fragment {
	s, e := b.state(StateBasic), b.state(StateBasic)
	epsilon(s, p.start)
	epsilon(s, e)
	epsilon(p.end, s)
	return fragment{s, e}
}

func (b *atnBuilder) define(r Rule, body func() fragment) {
	b.rule = r
	f := body()
	epsilon(b.atn.starts[r], f.start)
	epsilon(f.end, b.atn.stops[r])
}

func buildGrammar() *ATN {
	b := &atnBuilder{atn: &ATN{}}
	for r := Rule(0); r < numRules; r++ {
		b.rule = r
		b.atn.starts[r] = b.state(StateRuleStart)
		b.atn.stops[r] = b.state(StateRuleStop)
	}

	b.define(RuleQuery, func() fragment {
		return b.seq(b.ref(RuleUnionExpr), b.tok(EOF))
	})
	b.define(RuleUnionExpr, func() fragment {
		return b.seq(b.ref(RuleIntersectExpr),
			b.star(b.seq(b.tok(KwUnion, KwExcept), b.ref(RuleIntersectExpr))))
	})
	b.define(RuleIntersectExpr, func() fragment {
		return b.seq(b.ref(RuleQueryFactor),
			b.star(b.seq(b.tok(KwIntersect), b.ref(RuleQueryFactor))))
	})
	b.define(RuleQueryFactor, func() fragment {
		return b.alt(
			b.ref(RuleSelect),
			b.seq(b.tok(LParen), b.ref(RuleUnionExpr), b.tok(RParen)),
			b.ref(RuleViewName),
		)
	})
	b.define(RuleSelect, func() fragment {
		return b.seq(b.tok(KwSelect), b.ref(RuleSource),
			b.opt(b.seq(b.tok(KwWhere), b.ref(RuleExpression))),
			b.opt(b.seq(b.tok(KwOrder), b.tok(KwBy), b.ref(RuleOrderByList))))
	})
	b.define(RuleSource, func() fragment {
		return b.alt(b.tok(String), b.ref(RuleViewName))
	})
	b.define(RuleViewName, func() fragment {
		return b.tok(Ident, ComplexIdent)
	})
	b.define(RuleOrderByList, func() fragment {
		return b.seq(b.ref(RuleOrderByKey), b.star(b.seq(b.tok(Comma), b.ref(RuleOrderByKey))))
	})
	b.define(RuleOrderByKey, func() fragment {
		return b.seq(b.ref(RuleExpression), b.opt(b.tok(KwAsc, KwDesc)))
	})
	b.define(RuleExpression, func() fragment {
		return b.seq(b.ref(RuleAndExpr), b.star(b.seq(b.tok(KwOr), b.ref(RuleAndExpr))))
	})
	b.define(RuleAndExpr, func() fragment {
		return b.seq(b.ref(RuleNotExpr), b.star(b.seq(b.tok(KwAnd), b.ref(RuleNotExpr))))
	})
	b.define(RuleNotExpr, func() fragment {
		return b.alt(b.seq(b.tok(KwNot), b.ref(RuleNotExpr)), b.ref(RuleComparison))
	})
	b.define(RuleComparison, func() fragment {
		return b.seq(b.ref(RuleAdditive), b.star(b.seq(
			b.tok(Equal, NotEqual, Less, LessEqual, Greater, GreaterEqual),
			b.ref(RuleAdditive))))
	})
	b.define(RuleAdditive, func() fragment {
		return b.seq(b.ref(RuleMultiplicative), b.star(b.seq(b.tok(Plus, Minus), b.ref(RuleMultiplicative))))
	})
	b.define(RuleMultiplicative, func() fragment {
		return b.seq(b.ref(RuleUnary), b.star(b.seq(b.tok(Star, Slash), b.ref(RuleUnary))))
	})
	b.define(RuleUnary, func() fragment {
		return b.alt(b.seq(b.tok(Minus), b.ref(RuleUnary)), b.ref(RuleFactor))
	})
	b.define(RuleFactor, func() fragment {
		return b.alt(
			b.ref(RuleLiteral),
			b.ref(RuleFunctionCall),
			b.ref(RuleAttribute),
			b.seq(b.tok(LParen), b.ref(RuleExpression), b.tok(RParen)),
		)
	})
	b.define(RuleFunctionCall, func() fragment {
		return b.seq(b.tok(Ident), b.tok(LParen), b.opt(b.ref(RuleArgumentList)), b.tok(RParen))
	})
	b.define(RuleArgumentList, func() fragment {
		return b.seq(b.ref(RuleExpression), b.star(b.seq(b.tok(Comma), b.ref(RuleExpression))))
	})
	b.define(RuleAttribute, func() fragment {
		return b.tok(Ident, ComplexIdent)
	})
	b.define(RuleLiteral, func() fragment {
		return b.tok(Int, Real, String)
	})

	for r := Rule(0); r < numRules; r++ {
		if len(b.atn.starts[r].Transitions) == 0 {
			panic(fmt.Sprintf("querylang: rule %s has no definition", r))
		}
	}
	return b.atn
}

// Recognize reports whether kinds, which must end with EOF, form a
// sentence of the grammar.
func (a *ATN) Recognize(kinds []TokenKind) bool {
	r := recognizer{atn: a, input: kinds, memo: map[memoKey][]int{}}
	return slices.Contains(r.rule(RuleQuery, 0), len(kinds))
}

type memoKey struct {
	rule Rule
	pos  int
}

type recognizer struct {
	atn    *ATN
	input  []TokenKind
	memo   map[memoKey][]int
	active map[memoKey]bool
}

// rule returns every input position at which an invocation of r starting at
// pos can end.
func (r *recognizer) rule(rule Rule, pos int) []int {
	key := memoKey{rule, pos}
	if ends, ok := r.memo[key]; ok {
		return ends
	}
	if r.active == nil {
		r.active = map[memoKey]bool{}
	}
	if r.active[key] {
		return nil // left recursion; the grammar has none
	}
	r.active[key] = true
	defer delete(r.active, key)

	var ends []int
	type config struct {
		state *State
		pos   int
	}
	seen := map[config]bool{}
	stack := []config{{r.atn.starts[rule], pos}}
	for len(stack) > 0 {
		c := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if seen[c] {
			continue
		}
		seen[c] = true

		if c.state.Kind == StateRuleStop {
			if !slices.Contains(ends, c.pos) {
				ends = append(ends, c.pos)
			}
			continue
		}
		for _, t := range c.state.Transitions {
			switch t.Kind {
			case TransitionEpsilon:
				stack = append(stack, config{t.Target, c.pos})
			case TransitionAtom:
				if c.pos < len(r.input) && t.Tokens.Has(r.input[c.pos]) {
					stack = append(stack, config{t.Target, c.pos + 1})
				}
			case TransitionRule:
				for _, end := range r.rule(t.Rule, c.pos) {
					stack = append(stack, config{t.Follow, end})
				}
			}
		}
	}

	slices.Sort(ends)
	r.memo[key] = ends
	return ends
}
