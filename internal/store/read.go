package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"iter"

	"github.com/trylock/viewer-sub002/internal/entity"
	"github.com/trylock/viewer-sub002/internal/value"
)

// Get returns the stored entity at path. The boolean is false when nothing
// is stored for it.
func (s *Store) Get(ctx context.Context, path string) (*entity.Entity, bool, error) {
	var exists int
	err := s.db.QueryRowContext(ctx, `SELECT 1 FROM entities WHERE path = ?`, path).Scan(&exists)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("read entity %q: %w", path, err)
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT path, name, type, source, value
		FROM attributes
		WHERE path = ?
		ORDER BY name COLLATE BINARY ASC
	`, path)
	if err != nil {
		return nil, false, fmt.Errorf("query attributes: %w", err)
	}
	defer rows.Close()

	var attrs []entity.Attribute
	for rows.Next() {
		_, attr, err := scanAttribute(rows)
		if err != nil {
			return nil, false, err
		}
		attrs = append(attrs, attr)
	}
	if err := rows.Err(); err != nil {
		return nil, false, fmt.Errorf("iterate attributes: %w", err)
	}
	return entity.New(path, attrs...), true, nil
}

// Enumerate yields every stored entity in path order. It makes the store
// usable as a query source. The store holds a single connection, so the
// loop body must not call back into it.
func (s *Store) Enumerate(ctx context.Context) iter.Seq2[*entity.Entity, error] {
	return func(yield func(*entity.Entity, error) bool) {
		// LEFT JOIN keeps entities without attributes.
		rows, err := s.db.QueryContext(ctx, `
			SELECT e.path, a.name, a.type, a.source, a.value
			FROM entities e
			LEFT JOIN attributes a ON a.path = e.path
			ORDER BY e.path COLLATE BINARY ASC, a.name COLLATE BINARY ASC
		`)
		if err != nil {
			yield(nil, fmt.Errorf("query entities: %w", err))
			return
		}
		defer rows.Close()

		var (
			path  string
			attrs []entity.Attribute
			open  bool
		)
		for rows.Next() {
			var (
				p      string
				name   sql.NullString
				typ    sql.NullInt64
				source sql.NullInt64
				raw    any
			)
			if err := rows.Scan(&p, &name, &typ, &source, &raw); err != nil {
				yield(nil, fmt.Errorf("scan entity: %w", err))
				return
			}
			if open && p != path {
				if !yield(entity.New(path, attrs...), nil) {
					return
				}
				attrs = nil
			}
			path, open = p, true
			if !name.Valid {
				continue
			}
			attr, err := decodeAttribute(name.String, typ.Int64, source.Int64, raw)
			if err != nil {
				yield(nil, fmt.Errorf("read entity %q: %w", p, err))
				return
			}
			attrs = append(attrs, attr)
		}
		if err := rows.Err(); err != nil {
			yield(nil, fmt.Errorf("iterate entities: %w", err))
			return
		}
		if open {
			yield(entity.New(path, attrs...), nil)
		}
	}
}

// All returns every stored entity in path order.
func (s *Store) All(ctx context.Context) ([]*entity.Entity, error) {
	out := []*entity.Entity{}
	for e, err := range s.Enumerate(ctx) {
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, nil
}

// AttributeNames returns the distinct names of stored attributes, sorted.
func (s *Store) AttributeNames(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT DISTINCT name FROM attributes ORDER BY name COLLATE BINARY ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("query attribute names: %w", err)
	}
	defer rows.Close()

	names := []string{}
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("scan attribute name: %w", err)
		}
		names = append(names, name)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate attribute names: %w", err)
	}
	return names, nil
}

// Len returns the number of stored entities.
func (s *Store) Len(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM entities`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count entities: %w", err)
	}
	return n, nil
}

// scanAttribute scans a (path, name, type, source, value) row.
func scanAttribute(rows *sql.Rows) (string, entity.Attribute, error) {
	var (
		path, name  string
		typ, source int64
		raw         any
	)
	if err := rows.Scan(&path, &name, &typ, &source, &raw); err != nil {
		return "", entity.Attribute{}, fmt.Errorf("scan attribute: %w", err)
	}
	attr, err := decodeAttribute(name, typ, source, raw)
	if err != nil {
		return "", entity.Attribute{}, fmt.Errorf("read attribute %q of %q: %w", name, path, err)
	}
	return path, attr, nil
}

func decodeAttribute(name string, typ, source int64, raw any) (entity.Attribute, error) {
	v, err := unmarshalValue(value.TypeID(typ), raw)
	if err != nil {
		return entity.Attribute{}, err
	}
	return entity.NewAttribute(name, v, entity.Source(source)), nil
}
