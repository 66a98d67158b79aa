package source

import (
	"context"
	"iter"
	"slices"
	"strings"

	"github.com/trylock/viewer-sub002/internal/entity"
	"github.com/trylock/viewer-sub002/internal/query"
)

// Memory is a query factory over a fixed set of entities, matched by path
// the same way files are. Fixtures and the CLI's --entities mode use it.
type Memory struct {
	entities []*entity.Entity
}

// NewMemory creates a Memory over entities, ordered by path.
func NewMemory(entities []*entity.Entity) *Memory {
	sorted := slices.Clone(entities)
	slices.SortStableFunc(sorted, func(a, b *entity.Entity) int {
		return strings.Compare(a.Path(), b.Path())
	})
	return &Memory{entities: sorted}
}

// CreateQuery parses pattern and returns a query over the matching entities.
func (m *Memory) CreateQuery(_ context.Context, pattern string) (*query.Query, error) {
	p, err := ParsePattern(pattern)
	if err != nil {
		return nil, err
	}
	if p.Literal() && m.isDir(strings.Join(p.segments, "/")) {
		p = p.Contents()
	}
	return query.New(pattern, query.SourceFunc(func(ctx context.Context) iter.Seq2[*entity.Entity, error] {
		return func(yield func(*entity.Entity, error) bool) {
			for _, e := range m.entities {
				if ctx.Err() != nil {
					return
				}
				if p.Match(e.Path()) && !yield(e, nil) {
					return
				}
			}
		}
	})), nil
}

// AttributeNames returns the distinct attribute names of all entities,
// sorted.
func (m *Memory) AttributeNames(context.Context) ([]string, error) {
	var names []string
	for _, e := range m.entities {
		for a := range e.Attributes() {
			names = append(names, a.Name)
		}
	}
	slices.Sort(names)
	return slices.Compact(names), nil
}

func (m *Memory) isDir(dir string) bool {
	for _, e := range m.entities {
		if strings.HasPrefix(e.Path(), dir+"/") {
			return true
		}
	}
	return false
}
