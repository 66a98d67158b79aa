// Package query implements the execution object of compiled queries.
//
// A Query is an immutable pipeline over an entity source: an optional
// predicate, an optional comparer and the query text. Combinators return new
// queries and never modify the receiver. Enumeration is lazy and may be
// repeated; each enumeration reads the source again.
//
// A Query is not safe for concurrent enumeration of the same iterator, but
// separate calls to Entities are independent.
package query

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"slices"

	"github.com/trylock/viewer-sub002/internal/entity"
	"github.com/trylock/viewer-sub002/internal/metrics"
)

// ErrCancelled is returned when enumeration stops because its context was
// cancelled. The returned error also matches the context's error with
// errors.Is.
var ErrCancelled = errors.New("query cancelled")

func cancelled(ctx context.Context) error {
	return fmt.Errorf("%w: %w", ErrCancelled, context.Cause(ctx))
}

// Source produces the entities a query starts from.
type Source interface {
	Enumerate(ctx context.Context) iter.Seq2[*entity.Entity, error]
}

// SourceFunc adapts a function to Source.
type SourceFunc func(ctx context.Context) iter.Seq2[*entity.Entity, error]

// Enumerate calls f.
func (f SourceFunc) Enumerate(ctx context.Context) iter.Seq2[*entity.Entity, error] {
	return f(ctx)
}

// SliceSource is a fixed, in-memory source.
type SliceSource []*entity.Entity

// Enumerate yields the entities in slice order.
func (s SliceSource) Enumerate(context.Context) iter.Seq2[*entity.Entity, error] {
	return func(yield func(*entity.Entity, error) bool) {
		for _, e := range s {
			if !yield(e, nil) {
				return
			}
		}
	}
}

// Predicate filters entities.
type Predicate func(e *entity.Entity) bool

// Query is an immutable, lazily evaluated entity pipeline.
type Query struct {
	text      string
	source    Source
	predicate Predicate // nil: every entity passes
	comparer  Comparer  // nil: source order
	metrics   *metrics.Metrics
}

// New creates a query over source.
func New(text string, source Source) *Query {
	return &Query{text: text, source: source}
}

func (q *Query) clone() *Query {
	c := *q
	return &c
}

// Text returns the query text.
func (q *Query) Text() string {
	return q.text
}

// Comparer returns the sort order, or nil for source order.
func (q *Query) Comparer() Comparer {
	return q.comparer
}

// WithText returns a copy of q with different text.
func (q *Query) WithText(text string) *Query {
	c := q.clone()
	c.text = text
	return c
}

// Where returns a copy of q that also requires pred. Existing predicates
// are kept; both must hold.
func (q *Query) Where(pred Predicate) *Query {
	c := q.clone()
	if prev := q.predicate; prev != nil {
		c.predicate = func(e *entity.Entity) bool {
			return prev(e) && pred(e)
		}
	} else {
		c.predicate = pred
	}
	return c
}

// WithComparer returns a copy of q sorted by cmp. A nil cmp restores source
// order.
func (q *Query) WithComparer(cmp Comparer) *Query {
	c := q.clone()
	c.comparer = cmp
	return c
}

// WithMetrics returns a copy of q that counts entities tested against its
// predicate and those that passed.
func (q *Query) WithMetrics(m *metrics.Metrics) *Query {
	c := q.clone()
	c.metrics = m
	return c
}

// Enumerate makes a Query usable as the Source of another query.
func (q *Query) Enumerate(ctx context.Context) iter.Seq2[*entity.Entity, error] {
	return q.Entities(ctx)
}

// Entities enumerates the result. Filtering is lazy; with a comparer the
// filtered entities are collected and stably sorted before the first one is
// yielded. Cancellation is checked between entities and reported as an
// error matching ErrCancelled, after which enumeration stops.
func (q *Query) Entities(ctx context.Context) iter.Seq2[*entity.Entity, error] {
	if q.comparer == nil {
		return q.filtered(ctx)
	}
	return func(yield func(*entity.Entity, error) bool) {
		var all []*entity.Entity
		for e, err := range q.filtered(ctx) {
			if err != nil {
				yield(nil, err)
				return
			}
			all = append(all, e)
		}
		slices.SortStableFunc(all, q.comparer)
		for _, e := range all {
			if ctx.Err() != nil {
				yield(nil, cancelled(ctx))
				return
			}
			if !yield(e, nil) {
				return
			}
		}
	}
}

func (q *Query) filtered(ctx context.Context) iter.Seq2[*entity.Entity, error] {
	return func(yield func(*entity.Entity, error) bool) {
		if ctx.Err() != nil {
			yield(nil, cancelled(ctx))
			return
		}
		for e, err := range q.source.Enumerate(ctx) {
			if err != nil {
				yield(nil, err)
				return
			}
			if ctx.Err() != nil {
				yield(nil, cancelled(ctx))
				return
			}
			if q.predicate != nil {
				ok := q.predicate(e)
				q.metrics.Evaluated(ok)
				if !ok {
					continue
				}
			}
			if !yield(e, nil) {
				return
			}
		}
		// Sources may stop early when ctx is done.
		if ctx.Err() != nil {
			yield(nil, cancelled(ctx))
		}
	}
}

// Collect enumerates the whole result.
func (q *Query) Collect(ctx context.Context) ([]*entity.Entity, error) {
	var out []*entity.Entity
	for e, err := range q.Entities(ctx) {
		if err != nil {
			return out, err
		}
		out = append(out, e)
	}
	return out, nil
}

// Count returns the number of entities in the result.
func (q *Query) Count(ctx context.Context) (int, error) {
	n := 0
	for _, err := range q.Entities(ctx) {
		if err != nil {
			return n, err
		}
		n++
	}
	return n, nil
}
