package suggest

import (
	"context"
	"fmt"

	"github.com/trylock/viewer-sub002/internal/expr"
	"github.com/trylock/viewer-sub002/internal/functions"
	"github.com/trylock/viewer-sub002/internal/querylang"
)

// quote renders name so that it lexes as a single identifier.
func quote(name string) string {
	if _, kw := querylang.LookupKeyword(name); kw {
		return "`" + name + "`"
	}
	return expr.QuoteName(name)
}

func cancelled(ctx context.Context) error {
	if ctx.Err() != nil {
		return fmt.Errorf("%w: %w", ErrCancelled, context.Cause(ctx))
	}
	return nil
}

// Keywords suggests the keywords the grammar allows at the caret.
type Keywords struct{}

func (Keywords) Suggestions(ctx context.Context, s *State) ([]Suggestion, error) {
	tokens := s.Tokens()
	var out []Suggestion
	for i, k := range querylang.Keywords {
		if !tokens.Has(k) {
			continue
		}
		name := k.String()
		if k == querylang.KwOrder {
			name = "ORDER BY"
		}
		if !s.Matches(name) {
			continue
		}
		sg := s.Suggest(name, CategoryKeyword, name)
		sg.order = i
		out = append(out, sg)
	}
	return out, cancelled(ctx)
}

// AttributeNames lists known attribute names.
type AttributeNames interface {
	AttributeNames(ctx context.Context) ([]string, error)
}

// Attributes suggests attribute names where an attribute may appear.
type Attributes struct {
	Names AttributeNames
}

func (p Attributes) Suggestions(ctx context.Context, s *State) ([]Suggestion, error) {
	if !s.InRule(querylang.RuleAttribute, querylang.Ident, querylang.ComplexIdent) {
		return nil, nil
	}
	names, err := p.Names.AttributeNames(ctx)
	if err != nil {
		return nil, fmt.Errorf("list attribute names: %w", err)
	}
	return named(ctx, s, CategoryAttribute, names)
}

// ViewNames lists view names.
type ViewNames interface {
	Names() []string
}

// Views suggests view names where a view may appear.
type Views struct {
	Views ViewNames
}

func (p Views) Suggestions(ctx context.Context, s *State) ([]Suggestion, error) {
	if !s.InRule(querylang.RuleViewName, querylang.Ident, querylang.ComplexIdent) {
		return nil, nil
	}
	return named(ctx, s, CategoryView, p.Views.Names())
}

// Functions suggests function names where a call may appear. Operators
// registered as functions are left out.
type Functions struct {
	Registry *functions.Registry
}

func (p Functions) Suggestions(ctx context.Context, s *State) ([]Suggestion, error) {
	if !s.InRule(querylang.RuleFunctionCall, querylang.Ident) {
		return nil, nil
	}
	var names []string
	for _, n := range p.Registry.Names() {
		if _, kw := querylang.LookupKeyword(n); kw || !expr.IsPlainName(n) {
			continue
		}
		names = append(names, n)
	}
	return named(ctx, s, CategoryFunction, names)
}

func named(ctx context.Context, s *State, category Category, names []string) ([]Suggestion, error) {
	var out []Suggestion
	for _, n := range names {
		if err := cancelled(ctx); err != nil {
			return nil, err
		}
		if s.Matches(n) {
			out = append(out, s.Suggest(n, category, quote(n)))
		}
	}
	return out, nil
}
