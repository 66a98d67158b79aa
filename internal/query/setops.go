package query

import (
	"context"
	"iter"

	"github.com/trylock/viewer-sub002/internal/entity"
	"github.com/trylock/viewer-sub002/internal/value"
)

// Comparer orders entities. It follows the cmp.Compare convention.
type Comparer func(a, b *entity.Entity) int

// Key is one ORDER BY key.
type Key struct {
	Extract    func(e *entity.Entity) value.Value
	Descending bool
}

// KeyComparer orders entities by keys in turn. Values are compared with
// value.Compare, so nulls come first in ascending order and last in
// descending order.
func KeyComparer(keys ...Key) Comparer {
	return func(a, b *entity.Entity) int {
		for _, k := range keys {
			c := value.Compare(k.Extract(a), k.Extract(b))
			if k.Descending {
				c = -c
			}
			if c != 0 {
				return c
			}
		}
		return 0
	}
}

// Union returns entities of q followed by entities of other that q does
// not contain. Entities are identified by path and each path appears once.
func (q *Query) Union(other *Query) *Query {
	return q.combine(other, "UNION", func(ctx context.Context) iter.Seq2[*entity.Entity, error] {
		return func(yield func(*entity.Entity, error) bool) {
			seen := make(map[string]struct{})
			for _, side := range []*Query{q, other} {
				for e, err := range side.Entities(ctx) {
					if err != nil {
						yield(nil, err)
						return
					}
					if _, dup := seen[e.Path()]; dup {
						continue
					}
					seen[e.Path()] = struct{}{}
					if !yield(e, nil) {
						return
					}
				}
			}
		}
	})
}

// Intersect returns entities of q whose path also occurs in other, in the
// order of q.
func (q *Query) Intersect(other *Query) *Query {
	return q.combine(other, "INTERSECT", func(ctx context.Context) iter.Seq2[*entity.Entity, error] {
		return q.filterByPresence(ctx, other, true)
	})
}

// Except returns entities of q whose path does not occur in other, in the
// order of q.
func (q *Query) Except(other *Query) *Query {
	return q.combine(other, "EXCEPT", func(ctx context.Context) iter.Seq2[*entity.Entity, error] {
		return q.filterByPresence(ctx, other, false)
	})
}

func (q *Query) combine(other *Query, op string, src SourceFunc) *Query {
	return &Query{text: q.text + " " + op + " " + other.text, source: src}
}

func (q *Query) filterByPresence(ctx context.Context, other *Query, keep bool) iter.Seq2[*entity.Entity, error] {
	return func(yield func(*entity.Entity, error) bool) {
		paths := make(map[string]struct{})
		for e, err := range other.Entities(ctx) {
			if err != nil {
				yield(nil, err)
				return
			}
			paths[e.Path()] = struct{}{}
		}
		seen := make(map[string]struct{})
		for e, err := range q.Entities(ctx) {
			if err != nil {
				yield(nil, err)
				return
			}
			if _, dup := seen[e.Path()]; dup {
				continue
			}
			seen[e.Path()] = struct{}{}
			if _, in := paths[e.Path()]; in != keep {
				continue
			}
			if !yield(e, nil) {
				return
			}
		}
	}
}
