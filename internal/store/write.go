package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/trylock/viewer-sub002/internal/entity"
)

// Put stores e, replacing every attribute previously stored for its path.
// File attributes are skipped; they are derived on enumeration.
func (s *Store) Put(ctx context.Context, e *entity.Entity) error {
	return s.inTx(ctx, func(tx *sql.Tx) error {
		return putEntity(ctx, tx, e)
	})
}

// PutAll stores every entity in one transaction.
func (s *Store) PutAll(ctx context.Context, entities []*entity.Entity) error {
	return s.inTx(ctx, func(tx *sql.Tx) error {
		for _, e := range entities {
			if err := putEntity(ctx, tx, e); err != nil {
				return err
			}
		}
		return nil
	})
}

func putEntity(ctx context.Context, tx *sql.Tx, e *entity.Entity) error {
	if _, err := tx.ExecContext(ctx, `
		INSERT INTO entities (path) VALUES (?)
		ON CONFLICT(path) DO NOTHING
	`, e.Path()); err != nil {
		return fmt.Errorf("write entity %q: %w", e.Path(), err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM attributes WHERE path = ?`, e.Path()); err != nil {
		return fmt.Errorf("write entity %q: %w", e.Path(), err)
	}

	for attr := range e.Attributes() {
		if attr.Source == entity.SourceFile {
			continue
		}
		raw, err := marshalValue(attr.Value)
		if err != nil {
			return fmt.Errorf("write attribute %q of %q: %w", attr.Name, e.Path(), err)
		}
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO attributes (path, name, type, source, value)
			VALUES (?, ?, ?, ?, ?)
		`, e.Path(), attr.Name, int(attr.Value.Type()), int(attr.Source), raw); err != nil {
			return fmt.Errorf("write attribute %q of %q: %w", attr.Name, e.Path(), err)
		}
	}
	return nil
}

// Delete removes the entity at path with its attributes. It reports whether
// the entity existed.
func (s *Store) Delete(ctx context.Context, path string) (bool, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM entities WHERE path = ?`, path)
	if err != nil {
		return false, fmt.Errorf("delete entity %q: %w", path, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("delete entity %q: %w", path, err)
	}
	return n > 0, nil
}

func (s *Store) inTx(ctx context.Context, fn func(tx *sql.Tx) error) (err error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			err = errors.Join(err, ignoreDone(tx.Rollback()))
		}
	}()
	if err := fn(tx); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

func ignoreDone(err error) error {
	if errors.Is(err, sql.ErrTxDone) {
		return nil
	}
	return err
}
