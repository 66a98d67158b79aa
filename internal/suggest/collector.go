package suggest

import (
	"slices"
	"strings"

	"github.com/trylock/viewer-sub002/internal/querylang"
)

// FollowList is a set of tokens that may appear at the caret, with the
// rules, outermost first, whose invocations lead there.
type FollowList struct {
	Tokens querylang.TokenSet
	Rules  []querylang.Rule
}

// InRule reports whether r is on the rule path.
func (f FollowList) InRule(r querylang.Rule) bool {
	return slices.Contains(f.Rules, r)
}

// Innermost returns the rule containing the token transition.
func (f FollowList) Innermost() querylang.Rule {
	return f.Rules[len(f.Rules)-1]
}

func (f FollowList) key() string {
	var b strings.Builder
	b.WriteString(f.Tokens.String())
	for _, r := range f.Rules {
		b.WriteByte('/')
		b.WriteString(r.String())
	}
	return b.String()
}

// Collect walks g over input, the token kinds before the caret, and returns
// the follow lists at the caret. The result is empty when input is not a
// valid prefix of a query.
func Collect(g *querylang.ATN, input []querylang.TokenKind) []FollowList {
	c := collector{atn: g, input: input, memo: map[memoKey]*ruleResult{}, active: map[memoKey]bool{}}
	res := c.rule(querylang.RuleQuery, 0)

	out := make([]FollowList, 0, len(res.follows))
	seen := map[string]bool{}
	for _, f := range res.follows {
		fl := FollowList{Tokens: f.tokens}
		for p := f.path; p != nil; p = p.next {
			fl.Rules = append(fl.Rules, p.rule)
		}
		if k := fl.key(); !seen[k] {
			seen[k] = true
			out = append(out, fl)
		}
	}
	return out
}

// rulePath is a rule path, outermost first. Paths are shared between the
// follows of a memoized invocation and all its callers.
type rulePath struct {
	rule querylang.Rule
	next *rulePath
}

type follow struct {
	tokens querylang.TokenSet
	path   *rulePath // starts at the invoked rule
}

type memoKey struct {
	rule querylang.Rule
	pos  int
}

type ruleResult struct {
	ends    []int
	follows []follow
}

type collector struct {
	atn    *querylang.ATN
	input  []querylang.TokenKind
	memo   map[memoKey]*ruleResult
	active map[memoKey]bool
}

type config struct {
	state *querylang.State
	pos   int
}

// rule explores an invocation of rule at pos. The caret sits at
// len(c.input); no transition consumes past it.
func (c *collector) rule(rule querylang.Rule, pos int) *ruleResult {
	key := memoKey{rule, pos}
	if r, ok := c.memo[key]; ok {
		return r
	}
	if c.active[key] {
		return &ruleResult{}
	}
	c.active[key] = true
	defer delete(c.active, key)

	res := &ruleResult{}
	self := &rulePath{rule: rule}
	seenFollow := map[follow]bool{}
	addFollow := func(f follow) {
		if !seenFollow[f] {
			seenFollow[f] = true
			res.follows = append(res.follows, f)
		}
	}
	// One extended path per callee path, so equal callee paths stay equal.
	extended := map[*rulePath]*rulePath{}
	extend := func(p *rulePath) *rulePath {
		if e, ok := extended[p]; ok {
			return e
		}
		e := &rulePath{rule: rule, next: p}
		extended[p] = e
		return e
	}

	seen := map[config]bool{}
	stack := []config{{c.atn.RuleStart(rule), pos}}
	for len(stack) > 0 {
		cfg := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if seen[cfg] {
			continue
		}
		seen[cfg] = true

		if cfg.state.Kind == querylang.StateRuleStop {
			if !slices.Contains(res.ends, cfg.pos) {
				res.ends = append(res.ends, cfg.pos)
			}
			continue
		}
		for _, t := range cfg.state.Transitions {
			switch t.Kind {
			case querylang.TransitionEpsilon:
				stack = append(stack, config{t.Target, cfg.pos})

			case querylang.TransitionAtom:
				if cfg.pos == len(c.input) {
					addFollow(follow{tokens: t.Tokens, path: self})
				} else if t.Tokens.Has(c.input[cfg.pos]) {
					stack = append(stack, config{t.Target, cfg.pos + 1})
				}

			case querylang.TransitionRule:
				sub := c.rule(t.Rule, cfg.pos)
				for _, f := range sub.follows {
					addFollow(follow{tokens: f.tokens, path: extend(f.path)})
				}
				for _, end := range sub.ends {
					stack = append(stack, config{t.Follow, end})
				}
			}
		}
	}

	slices.Sort(res.ends)
	c.memo[key] = res
	return res
}
