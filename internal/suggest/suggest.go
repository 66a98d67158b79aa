package suggest

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"

	"golang.org/x/text/cases"

	"github.com/trylock/viewer-sub002/internal/metrics"
	"github.com/trylock/viewer-sub002/internal/querylang"
)

// ErrCancelled is returned when the context is done before suggestions are
// complete. The returned error also matches the context's error.
var ErrCancelled = errors.New("suggestion cancelled")

// Category groups suggestions for ranking.
type Category string

const (
	CategoryAttribute Category = "attribute"
	CategoryFunction  Category = "function"
	CategoryView      Category = "view"
	CategoryKeyword   Category = "keyword"

	// CategoryNone is the no-op suggestion that keeps the current text.
	CategoryNone Category = ""
)

var categoryPriority = map[Category]int{
	CategoryAttribute: 0,
	CategoryFunction:  1,
	CategoryView:      2,
	CategoryKeyword:   3,
}

func priority(c Category) int {
	if p, ok := categoryPriority[c]; ok {
		return p
	}
	return len(categoryPriority)
}

// Edit replaces text[Start:End] with Text.
type Edit struct {
	Start int    `json:"start"`
	End   int    `json:"end"`
	Text  string `json:"text"`
}

// Suggestion is one completion.
type Suggestion struct {
	Name     string   `json:"name"`
	Category Category `json:"category"`
	Edit     Edit     `json:"edit"`

	order int // keyword declaration order
}

// Apply returns text with the suggestion applied and the caret offset just
// after the inserted text.
func (s Suggestion) Apply(text string) (string, int) {
	return text[:s.Edit.Start] + s.Edit.Text + text[s.Edit.End:], s.Edit.Start + len(s.Edit.Text)
}

// State is what providers see.
type State struct {
	Text   string
	Caret  Caret
	Follow []FollowList

	fold cases.Caser
}

// Tokens returns the union of the follow lists' token sets.
func (s *State) Tokens() querylang.TokenSet {
	var set querylang.TokenSet
	for _, f := range s.Follow {
		set = set.Union(f.Tokens)
	}
	return set
}

// InRule reports whether some follow list allowing one of kinds passes
// through r.
func (s *State) InRule(r querylang.Rule, kinds ...querylang.TokenKind) bool {
	for _, f := range s.Follow {
		if !f.InRule(r) {
			continue
		}
		for _, k := range kinds {
			if f.Tokens.Has(k) {
				return true
			}
		}
	}
	return false
}

// Matches reports whether name starts with the caret prefix, ignoring case.
func (s *State) Matches(name string) bool {
	prefix := s.Caret.Prefix()
	if prefix == "" {
		return true
	}
	return strings.HasPrefix(s.fold.String(name), s.fold.String(prefix))
}

// Suggest returns a suggestion replacing the caret's parent, or inserted at
// the caret, with text.
func (s *State) Suggest(name string, category Category, text string) Suggestion {
	return Suggestion{
		Name:     name,
		Category: category,
		Edit:     Edit{Start: s.Caret.Start(), End: s.Caret.End(), Text: text},
	}
}

// Provider contributes suggestions.
type Provider interface {
	Suggestions(ctx context.Context, state *State) ([]Suggestion, error)
}

// Options configures an Engine. The zero value is usable.
type Options struct {
	Limit   int              // <= 0: unlimited
	Logger  *slog.Logger     // nil: slog.Default()
	Metrics *metrics.Metrics // nil: no metrics
}

// Engine computes suggestions.
type Engine struct {
	providers []Provider
	limit     int
	logger    *slog.Logger
	metrics   *metrics.Metrics
}

// New creates an engine with providers, consulted in order.
func New(opts Options, providers ...Provider) *Engine {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{providers: providers, limit: opts.Limit, logger: logger, metrics: opts.Metrics}
}

// Suggest returns ranked suggestions for text with the caret at byte offset
// caret. Offsets outside the text are clamped.
func (e *Engine) Suggest(ctx context.Context, text string, caret int) ([]Suggestion, error) {
	caret = max(0, min(caret, len(text)))
	tokens := querylang.Tokenize(text)
	c := SpliceCaret(tokens, caret)

	input := make([]querylang.TokenKind, c.Index)
	for i := range input {
		input[i] = tokens[i].Kind
	}
	state := &State{
		Text:   text,
		Caret:  c,
		Follow: Collect(querylang.Grammar(), input),
		fold:   cases.Fold(),
	}

	var out []Suggestion
	for _, p := range e.providers {
		if ctx.Err() != nil {
			return nil, fmt.Errorf("%w: %w", ErrCancelled, context.Cause(ctx))
		}
		got, err := p.Suggestions(ctx, state)
		if err != nil {
			return nil, err
		}
		out = append(out, got...)
	}

	out = dedupe(out)
	if c.Parent != nil && !slices.ContainsFunc(out, func(s Suggestion) bool {
		return s.Edit.Text == c.Parent.Text
	}) {
		out = append(out, state.Suggest(c.Parent.Text, CategoryNone, c.Parent.Text))
	}

	Rank(out)
	if e.limit > 0 && len(out) > e.limit {
		out = out[:e.limit]
	}

	e.metrics.SuggestionsProduced(len(out))
	e.logger.Debug("suggestions computed",
		"caret", caret,
		"follow_lists", len(state.Follow),
		"count", len(out))
	return out, nil
}

// dedupe drops repeated suggestions of the same category and edit.
func dedupe(in []Suggestion) []Suggestion {
	type key struct {
		category Category
		edit     Edit
	}
	seen := make(map[key]bool, len(in))
	out := in[:0]
	for _, s := range in {
		k := key{s.Category, s.Edit}
		if !seen[k] {
			seen[k] = true
			out = append(out, s)
		}
	}
	return out
}

// Rank sorts suggestions stably by category, keyword order and name.
func Rank(s []Suggestion) {
	slices.SortStableFunc(s, func(a, b Suggestion) int {
		return cmp.Or(
			cmp.Compare(priority(a.Category), priority(b.Category)),
			cmp.Compare(a.order, b.order),
			cmp.Compare(a.Name, b.Name),
		)
	})
}
